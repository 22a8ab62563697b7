//go:build !unix

package setup

import (
	"context"
	"net"
	"strconv"
)

func connectTo(ip net.IP, port int, addr string) (*net.TCPConn, error) {
	c, err := net.DialTCP("tcp4", nil, &net.TCPAddr{IP: ip, Port: port})
	if err != nil {
		return nil, newSetupError(StageConnect, addr, err)
	}
	return c, nil
}

// The listen backlog cannot be set through the net package here; the system
// default is used.
func startListener(port int, _ int, addr string) (*net.TCPListener, error) {
	var lc net.ListenConfig
	l, err := lc.Listen(context.Background(), "tcp4", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return nil, newSetupError(StageBind, addr, err)
	}
	return l.(*net.TCPListener), nil
}
