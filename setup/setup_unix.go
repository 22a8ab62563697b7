//go:build unix

package setup

import (
	"net"
	"os"

	"go.uber.org/multierr"
	"golang.org/x/sys/unix"
)

func connectTo(ip net.IP, port int, addr string) (conn *net.TCPConn, err error) {
	f, err := newSocket(addr)
	if err != nil {
		return nil, err
	}
	defer release(f, &err)
	fd := int(f.Fd())

	sa := &unix.SockaddrInet4{Port: port}
	copy(sa.Addr[:], ip)
	if err := connect(fd, sa); err != nil {
		return nil, newSetupError(StageConnect, addr, os.NewSyscallError("connect", err))
	}

	c, err := net.FileConn(f)
	if err != nil {
		return nil, newSetupError(StageConnect, addr, err)
	}
	tc, ok := c.(*net.TCPConn)
	if !ok {
		return nil, newSetupError(StageConnect, addr, multierr.Append(errNotTCPConn, c.Close()))
	}
	return tc, nil
}

func startListener(port int, backlog int, addr string) (ln *net.TCPListener, err error) {
	f, err := newSocket(addr)
	if err != nil {
		return nil, err
	}
	defer release(f, &err)
	fd := int(f.Fd())

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		return nil, newSetupError(StageOption, addr, os.NewSyscallError("setsockopt", err))
	}
	// wildcard address, caller's port
	if err := unix.Bind(fd, &unix.SockaddrInet4{Port: port}); err != nil {
		return nil, newSetupError(StageBind, addr, os.NewSyscallError("bind", err))
	}
	if err := unix.Listen(fd, backlog); err != nil {
		return nil, newSetupError(StageListen, addr, os.NewSyscallError("listen", err))
	}

	l, err := net.FileListener(f)
	if err != nil {
		return nil, newSetupError(StageListen, addr, err)
	}
	return l.(*net.TCPListener), nil
}

// newSocket allocates a blocking IPv4 stream socket owned by the returned file.
func newSocket(addr string) (*os.File, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, newSetupError(StageSocket, addr, os.NewSyscallError("socket", err))
	}
	unix.CloseOnExec(fd)
	return os.NewFile(uintptr(fd), "tcp:"+addr), nil
}

// release closes the setup descriptor. net.FileConn and net.FileListener hold their
// own duplicate, so it is closed on success too; a close failure only matters when
// setup already failed.
func release(f *os.File, err *error) {
	cerr := f.Close()
	if *err != nil {
		*err = multierr.Append(*err, cerr)
	}
}

// connect blocks until the connection is established. An interrupted connect keeps
// going in the background, so wait for it instead of retrying.
func connect(fd int, sa unix.Sockaddr) error {
	err := unix.Connect(fd, sa)
	for err == unix.EINTR {
		err = awaitConnect(fd)
	}
	return err
}

func awaitConnect(fd int) error {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLOUT}}
	if _, err := unix.Poll(fds, -1); err != nil {
		return err
	}
	soErr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if soErr != 0 {
		return unix.Errno(soErr)
	}
	return nil
}
