package setup

import "fmt"

// Stage identifies which step of connection setup failed.
type Stage int

const (
	StageAddress Stage = iota
	StageSocket
	StageOption
	StageBind
	StageConnect
	StageListen
)

func (s Stage) String() string {
	switch s {
	case StageAddress:
		return "address"
	case StageSocket:
		return "socket"
	case StageOption:
		return "option"
	case StageBind:
		return "bind"
	case StageConnect:
		return "connect"
	case StageListen:
		return "listen"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

type SetupError struct {
	Stage Stage
	Addr  string
	Err   error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup %s %s: %v", e.Stage, e.Addr, e.Err)
}

func (e *SetupError) Unwrap() error {
	return e.Err
}

func newSetupError(stage Stage, addr string, err error) error {
	return &SetupError{Stage: stage, Addr: addr, Err: err}
}
