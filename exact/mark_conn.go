package exact

import (
	"net"
	"sync/atomic"
)

// MarkConn remembers whether the connection has been closed, which lets a caller
// notice that WriteExact killed the handle.
type MarkConn struct {
	net.Conn
	available atomic.Bool
}

func NewMarkConn(conn net.Conn) *MarkConn {
	m := &MarkConn{Conn: conn}
	m.available.Store(true)
	return m
}

func (m *MarkConn) Close() error {
	if !m.available.CompareAndSwap(true, false) {
		return nil
	}
	return m.Conn.Close()
}

func (m *MarkConn) IsAvailable() bool {
	return m.available.Load()
}
