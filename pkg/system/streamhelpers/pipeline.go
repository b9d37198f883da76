package streamhelpers

import (
	"context"
	"errors"
	"io"
	"os/exec"
	"time"

	"github.com/LeoCommon/foxhunter/pkg/misc"
	"golang.org/x/sync/errgroup"
)

// Stage is one step of a Pipeline. It reads from in (nil for the first stage) and writes to out.
type Stage func(ctx context.Context, in io.Reader, out io.Writer) error

var errDownstreamClosed = errors.New("downstream stage finished")

// CommandStage runs the named binary as a pipeline stage with its stdin and stdout attached
// to the neighbouring stages. Stderr goes to stderr when non-nil.
func CommandStage(dir string, stderr io.Writer, name string, args ...string) Stage {
	return func(ctx context.Context, in io.Reader, out io.Writer) error {
		cmd := exec.Command(name, args...)
		cmd.Dir = dir

		return NewProcess(cmd, ctx).WithStreams(CaptureStreams{
			StdIN:  in,
			StdOUT: out,
			StdERR: stderr,
		}).Run()
	}
}

type Pipeline struct {
	stages  []Stage
	timeout time.Duration
}

// NewPipeline chains the stages in order, a zero timeout disables the deadline
func NewPipeline(timeout time.Duration, stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages, timeout: timeout}
}

// Run executes all stages concurrently and streams the output of the last one into out.
// It returns the first stage error, or *misc.TimedOutError if the deadline passed first.
func (p *Pipeline) Run(ctx context.Context, out io.Writer) error {
	if len(p.stages) == 0 {
		return errors.New("pipeline has no stages")
	}

	runCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	g, gctx := errgroup.WithContext(runCtx)

	// finished[i] is closed once stage i returned
	finished := make([]chan struct{}, len(p.stages))
	for i := range finished {
		finished[i] = make(chan struct{})
	}

	var in *io.PipeReader
	for i, stage := range p.stages {
		stageIn := in
		var stageOut io.Writer = out
		var downstream chan struct{}

		var pw *io.PipeWriter
		if i < len(p.stages)-1 {
			in, pw = io.Pipe()
			stageOut = pw
			downstream = finished[i+1]
		}

		stage, self := stage, finished[i]
		g.Go(func() error {
			var stageReader io.Reader
			if stageIn != nil {
				stageReader = stageIn
			}

			err := stage(gctx, stageReader, stageOut)
			close(self)

			// Let the next stage see EOF, or the error we failed with
			if pw != nil {
				_ = pw.CloseWithError(err)
			}

			// Unblock the previous stage in case we stopped reading early
			if stageIn != nil {
				_ = stageIn.CloseWithError(errDownstreamClosed)
			}

			// A producer failing because its consumer is gone is not an error of its own
			if err != nil && downstream != nil {
				select {
				case <-downstream:
					return nil
				default:
				}
			}

			return err
		})
	}

	err := g.Wait()

	// Only report a timeout if it was our own deadline and not the callers cancellation
	if p.timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return misc.NewTimedOutError("pipeline", p.timeout)
	}

	return err
}
