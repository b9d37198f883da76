package streamhelpers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"

	"github.com/LeoCommon/foxhunter/pkg/log"
	"go.uber.org/zap"
)

const (
	GracePeriodTimeDefault = 5 * time.Second
)

type CaptureStreams struct {
	StdIN  io.Reader
	StdOUT io.Writer
	StdERR io.Writer
}

type ProcessStuckError struct {
	PID int
}

func (m *ProcessStuckError) Error() string {
	return fmt.Sprintf("process with pid %d was stuck", m.PID)
}

func (e *ProcessStuckError) Is(tgt error) bool {
	_, ok := tgt.(*ProcessStuckError)
	return ok
}

type ProcessNotStartedError struct {
	msg string
	err error
}

func (m *ProcessNotStartedError) Error() string {
	return m.msg
}

func (m *ProcessNotStartedError) Unwrap() error {
	return m.err
}

func (e *ProcessNotStartedError) Is(tgt error) bool {
	_, ok := tgt.(*ProcessNotStartedError)
	return ok
}

type Process struct {
	streams           *CaptureStreams
	terminationSignal syscall.Signal
	useProcessGroup   bool

	// The context we have been started with
	ctx context.Context
	// The command that we are supposed to run
	cmd *exec.Cmd

	// The grace period to use
	gracePeriod time.Duration

	// Flag to determine if the user already called run
	invoked bool
}

// NewProcess wraps cmd so it is bound to ctx: once ctx is done the process group
// receives the termination signal and is killed if it outlives the grace period.
func NewProcess(cmd *exec.Cmd, ctx context.Context) *Process {
	return &Process{
		terminationSignal: syscall.SIGTERM,
		useProcessGroup:   true,
		cmd:               cmd,
		ctx:               ctx,
		gracePeriod:       GracePeriodTimeDefault,
		invoked:           false,
	}
}

// Add the streams connected to the process, we never close them
func (c *Process) WithStreams(streams CaptureStreams) *Process {
	c.streams = &streams
	return c
}

// Only request the main pid of the process to terminate
// This is dangerous and might leave processes behind, only use when you know what you are doing
func (c *Process) SetTerminateMainOnly() *Process {
	c.useProcessGroup = false
	return c
}

// Use a custom graceful termination signal, some processes might need it to exit cleanly
func (c *Process) SetTerminationSignal(sig syscall.Signal) *Process {
	c.terminationSignal = sig
	return c
}

// Set the amount of time that has to pass before the process is killed if it did not
// respond to the termination signal.
func (c *Process) SetGracePeriod(period time.Duration) *Process {
	c.gracePeriod = period
	return c
}

// signal delivers sig to the process or its group, a process that is already gone is fine
func (r *Process) signal(pid int, sig syscall.Signal) {
	if err := syscall.Kill(pid, sig); err != nil && !errors.Is(err, syscall.ESRCH) {
		log.Warn("could not signal process", zap.Int("pid", pid), zap.Stringer("signal", sig), zap.Error(err))
	}
}

// wait blocks until the process exited. Once ctx is done the termination signal is sent,
// SIGKILL follows when the grace period passes without an exit.
func (r *Process) wait() error {
	exited := make(chan error, 1)
	go func() {
		exited <- r.cmd.Wait()
	}()

	pid := r.cmd.Process.Pid
	if r.useProcessGroup {
		// Negative pids address the whole group
		pid = -pid
	}

	select {
	case err := <-exited:
		if err != nil {
			log.Debug("process did not exit cleanly", zap.Int("pid", pid), zap.Error(err))
		}
		return err
	case <-r.ctx.Done():
	}

	log.Debug("context done, terminating process", zap.Int("pid", pid), zap.Stringer("signal", r.terminationSignal))
	r.signal(pid, r.terminationSignal)

	if r.terminationSignal == syscall.SIGKILL {
		<-exited
		return r.ctx.Err()
	}

	grace := time.NewTimer(r.gracePeriod)
	defer grace.Stop()

	select {
	case <-exited:
		log.Debug("process terminated", zap.Int("pid", pid))
		return r.ctx.Err()
	case <-grace.C:
	}

	log.Warn("grace period over, killing stuck process", zap.Int("pid", pid), zap.Duration("grace", r.gracePeriod))
	r.signal(pid, syscall.SIGKILL)
	<-exited

	return &ProcessStuckError{pid}
}

// Run starts the process and blocks until it exited.
// A non-zero exit is returned as *exec.ExitError, a cancelled or timed out context
// as the context error and a process that ignored every signal as *ProcessStuckError.
func (r *Process) Run() error {
	// Sanity check if the user already invoked us by accident
	if r.invoked {
		log.Panic("already running, undefined behavior, abort")
		return fmt.Errorf("run can not be invoked twice")
	}

	// Signal that we ran already
	r.invoked = true

	if err := r.ctx.Err(); err != nil {
		return &ProcessNotStartedError{msg: "context done before start", err: err}
	}

	log.Debug("preparing command execution", zap.String("cmd", r.cmd.String()))

	if r.streams != nil {
		r.cmd.Stdin = r.streams.StdIN
		r.cmd.Stdout = r.streams.StdOUT
		r.cmd.Stderr = r.streams.StdERR
	}

	// This requests a process group from the system, all spawned children will belong to it
	if r.useProcessGroup {
		r.cmd.SysProcAttr = &syscall.SysProcAttr{
			Setpgid: true,
		}
	}

	// Grandchildren holding our pipes must not block Wait forever
	r.cmd.WaitDelay = r.gracePeriod

	if err := r.cmd.Start(); err != nil {
		log.Debug("could not start process", zap.String("cmd", r.cmd.Path), zap.Error(err))
		return &ProcessNotStartedError{msg: err.Error(), err: err}
	}

	return r.wait()
}
