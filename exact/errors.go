package exact

import (
	"errors"
	"fmt"
)

var (
	ErrBrokenConn   = errors.New("broken connection")
	ErrNegativeSize = errors.New("negative transfer size")
)

type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
)

// TransferError reports a transport failure in the middle of an exact read or write.
// Done is the number of bytes moved before the failure.
type TransferError struct {
	Op   Op
	Done int
	Want int
	Err  error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s failed after %d/%d bytes: %v", e.Op, e.Done, e.Want, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// Is makes every transfer error match ErrBrokenConn.
func (e *TransferError) Is(target error) bool {
	return target == ErrBrokenConn
}
