// Package setup opens the TCP sockets that package exact transfers over.
package setup

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"go.uber.org/zap"
)

var (
	errNotIPv4    = errors.New("not a dotted-decimal IPv4 address")
	errPortRange  = errors.New("port out of range")
	errNotTCPConn = errors.New("descriptor is not a TCP connection")
)

// ConnectTo opens a blocking TCP connection to ip:port. ip must be a literal IPv4
// address. The socket is released on every error path.
func ConnectTo(ip string, port int) (*net.TCPConn, error) {
	addr := net.JoinHostPort(ip, strconv.Itoa(port))
	ip4, err := parseIPv4(ip)
	if err != nil {
		return nil, newSetupError(StageAddress, addr, err)
	}
	if port < 1 || port > 65535 {
		return nil, newSetupError(StageAddress, addr, fmt.Errorf("%w: %d", errPortRange, port))
	}

	conn, err := connectTo(ip4, port, addr)
	if err != nil {
		return nil, err
	}
	if err := conn.SetKeepAlive(true); err != nil {
		zap.L().Warn("set keepalive failed", zap.Error(err))
	}
	if err := conn.SetNoDelay(true); err != nil {
		zap.L().Warn("set nodelay failed", zap.Error(err))
	}
	zap.L().Info("new connection", zap.String("conn", fmt.Sprintf("%s <-> %s",
		conn.LocalAddr().String(),
		conn.RemoteAddr().String(),
	)))
	return conn, nil
}

// StartListener binds the wildcard address on port and starts listening with the
// given backlog. Port 0 lets the kernel pick one; read it back from Addr.
func StartListener(port int, backlog int) (*net.TCPListener, error) {
	addr := net.JoinHostPort("0.0.0.0", strconv.Itoa(port))
	if port < 0 || port > 65535 {
		return nil, newSetupError(StageAddress, addr, fmt.Errorf("%w: %d", errPortRange, port))
	}

	ln, err := startListener(port, backlog, addr)
	if err != nil {
		return nil, err
	}
	zap.L().Info("listening",
		zap.String("addr", ln.Addr().String()),
		zap.Int("backlog", backlog))
	return ln, nil
}

func parseIPv4(ip string) (net.IP, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, fmt.Errorf("%w: %q", errNotIPv4, ip)
	}
	ip4 := parsed.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("%w: %q", errNotIPv4, ip)
	}
	return ip4, nil
}
