package setup

import (
	"errors"
	"net"
	"testing"

	"github.com/BaiMeow/tcpexact/exact"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

func setupStage(t *testing.T, err error) Stage {
	t.Helper()
	var se *SetupError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SetupError, got %T: %v", err, err)
	}
	return se.Stage
}

func TestStartListener_ConnectTo_RoundTrip(t *testing.T) {
	defer zap.ReplaceGlobals(zaptest.NewLogger(t))()

	ln, err := StartListener(0, 10)
	if err != nil {
		t.Fatalf("StartListener: %v", err)
	}
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			close(accepted)
			return
		}
		accepted <- conn
	}()

	client, err := ConnectTo("127.0.0.1", port)
	if err != nil {
		t.Fatalf("ConnectTo: %v", err)
	}
	defer client.Close()
	server, ok := <-accepted
	if !ok {
		t.Fatal("accept failed")
	}
	defer server.Close()

	if _, err := exact.WriteExact(client, []byte("hello server")); err != nil {
		t.Fatalf("WriteExact: %v", err)
	}
	buf, n, err := exact.ReadExact(server, len("hello server"))
	if err != nil || n != len("hello server") || string(buf) != "hello server" {
		t.Fatalf("got n=%d buf=%q err=%v", n, buf, err)
	}

	if _, err := exact.WriteExact(server, []byte("hello client")); err != nil {
		t.Fatalf("WriteExact: %v", err)
	}
	buf, _, err = exact.ReadExact(client, len("hello client"))
	if err != nil || string(buf) != "hello client" {
		t.Fatalf("got buf=%q err=%v", buf, err)
	}
}

func TestStartListener_UsesRequestedPort(t *testing.T) {
	defer zap.ReplaceGlobals(zaptest.NewLogger(t))()

	port := freePort(t)
	ln, err := StartListener(port, 5)
	if err != nil {
		t.Fatalf("StartListener: %v", err)
	}
	defer ln.Close()

	if got := ln.Addr().(*net.TCPAddr).Port; got != port {
		t.Errorf("listening on port %d, want %d", got, port)
	}
}

func TestStartListener_InvalidPort(t *testing.T) {
	for _, port := range []int{-1, 65536} {
		_, err := StartListener(port, 5)
		if stage := setupStage(t, err); stage != StageAddress {
			t.Errorf("port %d: stage = %v, want address", port, stage)
		}
	}
}

func TestConnectTo_InvalidAddress(t *testing.T) {
	tests := []struct {
		ip   string
		port int
	}{
		{"localhost", 80},
		{"::1", 80},
		{"300.1.1.1", 80},
		{"127.0.0.1", 0},
		{"127.0.0.1", 70000},
	}
	for _, tt := range tests {
		_, err := ConnectTo(tt.ip, tt.port)
		if stage := setupStage(t, err); stage != StageAddress {
			t.Errorf("%s:%d: stage = %v, want address", tt.ip, tt.port, stage)
		}
	}
}

func TestConnectTo_Refused(t *testing.T) {
	_, err := ConnectTo("127.0.0.1", freePort(t))
	if err == nil {
		t.Fatal("expected error connecting to a closed port")
	}
	if stage := setupStage(t, err); stage != StageConnect {
		t.Errorf("stage = %v, want connect", stage)
	}
}

func TestStage_String(t *testing.T) {
	tests := map[Stage]string{
		StageAddress: "address",
		StageSocket:  "socket",
		StageOption:  "option",
		StageBind:    "bind",
		StageConnect: "connect",
		StageListen:  "listen",
		Stage(42):    "stage(42)",
	}
	for stage, want := range tests {
		if got := stage.String(); got != want {
			t.Errorf("Stage(%d).String() = %q, want %q", int(stage), got, want)
		}
	}
}
