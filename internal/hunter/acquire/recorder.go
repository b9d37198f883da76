package acquire

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/LeoCommon/foxhunter/internal/hunter/config"
	"github.com/LeoCommon/foxhunter/internal/hunter/scan"
	"github.com/LeoCommon/foxhunter/pkg/file"
	"github.com/LeoCommon/foxhunter/pkg/log"
	"github.com/LeoCommon/foxhunter/pkg/system/streamhelpers"
	"go.uber.org/zap"
)

// StderrLimit is how much recorder stderr is kept for the log line
const StderrLimit = 200

// Recorder captures audio by running kiwirecorder against one receiver
type Recorder struct {
	conf    config.RecorderConfig
	workDir string
	script  string

	now func() time.Time
}

// NewRecorder resolves the script and work directory to absolute paths,
// the recorder runs with the work directory as cwd.
func NewRecorder(conf config.RecorderConfig, workDir string) (*Recorder, error) {
	absWork, err := filepath.Abs(workDir)
	if err != nil {
		return nil, fmt.Errorf("work dir: %w", err)
	}

	script, err := filepath.Abs(conf.Script)
	if err != nil {
		return nil, fmt.Errorf("recorder script: %w", err)
	}

	return &Recorder{
		conf:    conf,
		workDir: absWork,
		script:  script,
		now:     time.Now,
	}, nil
}

// Timeout is the hard limit for one capture, always larger than the capture itself
func (r *Recorder) Timeout(duration time.Duration) time.Duration {
	return duration + r.conf.ConnectTimeout.Value() + r.conf.TimeoutMargin.Value()
}

// BaseName is the file name handed to the recorder, unique per target and second
func BaseName(target scan.Target, ts time.Time) string {
	return fmt.Sprintf("rec_%d_%d_%s_%d", ts.Unix(), target.FrequencyHz, sanitizeHost(target.Host), target.Port)
}

func sanitizeHost(host string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		}
		return '_'
	}, host)
}

func seconds(d time.Duration) string {
	return strconv.Itoa(int(math.Max(1, math.Ceil(d.Seconds()))))
}

func (r *Recorder) command(target scan.Target, duration time.Duration, base string) *exec.Cmd {
	args := []string{
		"-s", target.Host,
		"-p", strconv.Itoa(target.Port),
		"-f", target.FrequencyKHzExact(),
		"-m", r.conf.Mode,
		"--station=" + r.conf.Station,
		"--tlimit", seconds(duration),
		"--filename", base,
		"--resample", strconv.Itoa(r.conf.ResampleRate),
		"--connect-timeout", seconds(r.conf.ConnectTimeout.Value()),
		"--socket-timeout", seconds(r.conf.SocketTimeout.Value()),
		"--quiet",
	}

	var cmd *exec.Cmd
	if r.conf.Interpreter == "" {
		cmd = exec.Command(r.script, args...)
	} else {
		cmd = exec.Command(r.conf.Interpreter, append([]string{r.script}, args...)...)
	}
	cmd.Dir = r.workDir

	return cmd
}

// Acquire records duration of audio from target and returns the located artifact.
// Every failure is a *Failure, except for a cancelled ctx which is returned as is.
func (r *Recorder) Acquire(ctx context.Context, target scan.Target, duration time.Duration) (scan.Artifact, error) {
	if _, err := os.Stat(r.script); err != nil {
		return scan.Artifact{}, &Failure{Target: target, Reason: ReasonNotStarted, Err: err}
	}

	createdAt := r.now()
	base := BaseName(target, createdAt)
	timeout := r.Timeout(duration)

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stderr := streamhelpers.NewHeadBuffer(StderrLimit)
	runErr := streamhelpers.NewProcess(r.command(target, duration, base), runCtx).
		WithStreams(streamhelpers.CaptureStreams{StdERR: stderr}).
		SetGracePeriod(r.conf.GracePeriod.Value()).
		Run()

	if runErr != nil {
		// Partial captures are useless, never leave them behind
		r.removeFragments(base)

		if ctx.Err() != nil {
			return scan.Artifact{}, ctx.Err()
		}

		failure := &Failure{Target: target, Err: runErr, Stderr: stderr.String()}
		switch {
		case errors.Is(runErr, &streamhelpers.ProcessNotStartedError{}):
			failure.Reason = ReasonNotStarted
		case errors.Is(runErr, context.DeadlineExceeded), errors.Is(runErr, &streamhelpers.ProcessStuckError{}):
			failure.Reason = ReasonTimedOut
		default:
			failure.Reason = ReasonExited
		}

		return scan.Artifact{}, failure
	}

	path, err := r.locate(target, base)
	if err != nil {
		return scan.Artifact{}, &Failure{Target: target, Reason: ReasonNoArtifact, Err: err, Stderr: stderr.String()}
	}

	log.Debug("capture located", append(target.Fields(), zap.String("path", path))...)

	return scan.Artifact{Path: path, CreatedAt: createdAt, Target: target}, nil
}

// locate prefers the recorder suffix convention and falls back to the newest file with our base name
func (r *Recorder) locate(target scan.Target, base string) (string, error) {
	expected := filepath.Join(r.workDir, fmt.Sprintf("%s_%d_%s.wav", base, target.FrequencyKHz(), r.conf.Mode))
	if err := file.Exists(expected); err == nil {
		return expected, nil
	}

	return file.NewestMatch(filepath.Join(r.workDir, base+"*.wav"))
}

func (r *Recorder) removeFragments(base string) {
	matches, _ := filepath.Glob(filepath.Join(r.workDir, base+"*"))
	for _, m := range matches {
		if err := file.Remove(m); err != nil {
			log.Warn("could not remove partial capture", zap.String("path", m), zap.Error(err))
		}
	}
}
