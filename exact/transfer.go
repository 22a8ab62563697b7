package exact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	zeroWriteBurst    = 64
	zeroWriteInterval = time.Millisecond

	maxEmptyReads = 100
)

// WriteExact writes all of data to conn. A write that moves no bytes is retried.
// On any write error conn is closed before the error is returned, so the handle
// must be treated as dead by every holder.
func WriteExact(conn io.WriteCloser, data []byte) (int, error) {
	return WriteExactContext(context.Background(), conn, data)
}

// WriteExactContext is WriteExact with ctx bounding the wait between zero-length
// writes. The first zeroWriteBurst retries are immediate, later ones are paced.
func WriteExactContext(ctx context.Context, conn io.WriteCloser, data []byte) (int, error) {
	var limiter *rate.Limiter
	written := 0
	for written < len(data) {
		n, err := conn.Write(data[written:])
		written += n
		if err != nil {
			return 0, breakConn(conn, written, len(data), err)
		}
		if n > 0 {
			continue
		}
		if limiter == nil {
			zap.L().Debug("zero-length write, retrying",
				zap.Int("written", written),
				zap.Int("want", len(data)))
			limiter = rate.NewLimiter(rate.Every(zeroWriteInterval), zeroWriteBurst)
		}
		if err := limiter.Wait(ctx); err != nil {
			return 0, breakConn(conn, written, len(data), err)
		}
	}
	return written, nil
}

func breakConn(conn io.Closer, done, want int, err error) error {
	zap.L().Debug("write failed, closing connection",
		zap.Int("done", done),
		zap.Int("want", want),
		zap.Error(err))
	return &TransferError{
		Op:   OpWrite,
		Done: done,
		Want: want,
		Err:  multierr.Append(err, conn.Close()),
	}
}

// ReadExact reads size bytes from conn. An orderly shutdown by the peer is not an
// error: the bytes received so far are returned and the count is less than size.
// conn is never closed here.
func ReadExact(conn io.Reader, size int) ([]byte, int, error) {
	if size < 0 {
		return nil, 0, fmt.Errorf("%w: %d", ErrNegativeSize, size)
	}
	buf := make([]byte, size)
	n, err := ReadExactInto(conn, buf)
	return buf[:n], n, err
}

// ReadExactInto fills buf from conn with the same semantics as ReadExact. A reader
// that returns no data and no error maxEmptyReads times in a row fails with
// io.ErrNoProgress.
func ReadExactInto(conn io.Reader, buf []byte) (int, error) {
	read, empty := 0, 0
	for read < len(buf) {
		n, err := conn.Read(buf[read:])
		read += n
		if errors.Is(err, io.EOF) {
			return read, nil
		}
		if err != nil {
			return read, &TransferError{Op: OpRead, Done: read, Want: len(buf), Err: err}
		}
		if n > 0 {
			empty = 0
			continue
		}
		if empty++; empty >= maxEmptyReads {
			return read, &TransferError{Op: OpRead, Done: read, Want: len(buf), Err: io.ErrNoProgress}
		}
	}
	return read, nil
}
