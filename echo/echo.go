// Package echo is a small block echo session built on package exact. The server
// reads fixed-size blocks and writes each one straight back; the client writes a
// block and waits for the same bytes to return.
package echo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/BaiMeow/tcpexact/exact"
	"github.com/BaiMeow/tcpexact/metrics"
	"go.uber.org/zap"
)

const maxAcceptDelay = time.Second

var (
	ErrShortEcho = errors.New("short echo")
	ErrBlockSize = errors.New("block size must be positive")
)

// Serve accepts connections on ln and echoes each one in its own goroutine until
// ctx is done. Cancelling ctx closes ln and every open session; Serve returns once
// all sessions have ended. Temporary accept failures are logged and retried with
// a growing delay; any other accept error is returned.
func Serve(ctx context.Context, ln net.Listener, blockSize int) error {
	if blockSize <= 0 {
		return ErrBlockSize
	}
	stop := context.AfterFunc(ctx, func() {
		ln.Close()
	})
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()
	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if !temporary(err) {
				return err
			}
			delay = min(max(2*delay, 5*time.Millisecond), maxAcceptDelay)
			zap.L().Warn("accept failed, retrying", zap.Duration("delay", delay), zap.Error(err))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
			}
			continue
		}
		delay = 0
		metrics.RecordAccept()
		zap.L().Debug("accept tcp connection", zap.String("from", conn.RemoteAddr().String()))

		wg.Add(1)
		go func() {
			defer wg.Done()
			stop := context.AfterFunc(ctx, func() {
				conn.Close()
			})
			defer stop()
			if err := Handle(conn, blockSize); err != nil && ctx.Err() == nil {
				zap.L().Warn("echo session failed",
					zap.String("from", conn.RemoteAddr().String()),
					zap.Error(err))
			}
		}()
	}
}

func temporary(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	for _, errno := range []syscall.Errno{
		syscall.ECONNABORTED,
		syscall.ECONNRESET,
		syscall.EMFILE,
		syscall.ENFILE,
		syscall.ENOBUFS,
		syscall.ENOMEM,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

// Handle echoes blockSize-byte blocks until the peer shuts down. A trailing short
// block is echoed before returning nil. conn is closed on return.
func Handle(conn net.Conn, blockSize int) error {
	if blockSize <= 0 {
		return ErrBlockSize
	}
	mc := exact.NewMarkConn(conn)
	defer mc.Close()
	remote := conn.RemoteAddr().String()

	for {
		buf, n, err := exact.ReadExact(mc, blockSize)
		metrics.RecordTransfer(string(exact.OpRead), n)
		if err != nil {
			metrics.RecordTransferError(string(exact.OpRead))
			return err
		}
		zap.L().Debug("tcp->", zap.Int("len", n), zap.String("from", remote))

		if n > 0 {
			if _, err := exact.WriteExact(mc, buf); err != nil {
				metrics.RecordTransferError(string(exact.OpWrite))
				return err
			}
			metrics.RecordTransfer(string(exact.OpWrite), n)
			zap.L().Debug("->tcp", zap.Int("len", n), zap.String("to", remote))
		}
		if n < blockSize {
			zap.L().Debug("peer closed", zap.String("from", remote))
			return nil
		}
	}
}

// Exchange writes payload and reads back as many bytes. payload should not be
// larger than the server's block size, otherwise both sides may block on write.
func Exchange(conn io.ReadWriteCloser, payload []byte) ([]byte, error) {
	if _, err := exact.WriteExact(conn, payload); err != nil {
		metrics.RecordTransferError(string(exact.OpWrite))
		return nil, err
	}
	metrics.RecordTransfer(string(exact.OpWrite), len(payload))

	buf, n, err := exact.ReadExact(conn, len(payload))
	metrics.RecordTransfer(string(exact.OpRead), n)
	if err != nil {
		metrics.RecordTransferError(string(exact.OpRead))
		return nil, err
	}
	if n < len(payload) {
		return buf, fmt.Errorf("%w: got %d of %d bytes", ErrShortEcho, n, len(payload))
	}
	return buf, nil
}
