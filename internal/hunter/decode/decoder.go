package decode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/LeoCommon/foxhunter/internal/hunter/config"
	"github.com/LeoCommon/foxhunter/internal/hunter/scan"
	"github.com/LeoCommon/foxhunter/pkg/log"
	"github.com/LeoCommon/foxhunter/pkg/system/streamhelpers"
	"go.uber.org/zap"
)

// StderrLimit is how much decoder stderr is logged when nothing was decoded
const StderrLimit = 200

const jsonStdout = "decoded:json:file:path=-"

// Error reports a decode run that produced no usable output
type Error struct {
	Path   string
	Err    error
	Stderr string // head of the decoder stderr, logged by the caller
}

func (e *Error) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(tgt error) bool {
	_, ok := tgt.(*Error)
	return ok
}

// StageBuilder returns the pipeline stages for one artifact
type StageBuilder func(artifact scan.Artifact, stderr io.Writer) []streamhelpers.Stage

type Decoder struct {
	conf   config.DecoderConfig
	stages StageBuilder
}

func NewDecoder(conf config.DecoderConfig) *Decoder {
	d := &Decoder{conf: conf}
	d.stages = d.Stages
	return d
}

// WithStages replaces the external tools, used by tests
func (d *Decoder) WithStages(builder StageBuilder) *Decoder {
	d.stages = builder
	return d
}

// Stages builds the command stages for the configured mode
func (d *Decoder) Stages(artifact scan.Artifact, stderr io.Writer) []streamhelpers.Stage {
	dir := filepath.Dir(artifact.Path)
	khz := strconv.FormatInt(artifact.Target.FrequencyKHz(), 10)

	if d.conf.Mode == config.DecoderDocker {
		return []streamhelpers.Stage{
			streamhelpers.CommandStage(dir, stderr, d.conf.Docker.Binary,
				"run", "--rm",
				"-v", dir+":/data",
				d.conf.Docker.Image,
				"--output", "json",
				"/data/"+filepath.Base(artifact.Path),
			),
		}
	}

	if !d.conf.Converter.Enabled {
		return []streamhelpers.Stage{
			streamhelpers.CommandStage(dir, stderr, d.conf.Binary,
				"--iq-file", artifact.Path,
				"--centerfreq", khz, khz,
				"--output", jsonStdout,
			),
		}
	}

	rate := strconv.Itoa(d.conf.Converter.SampleRate)
	return []streamhelpers.Stage{
		streamhelpers.CommandStage(dir, stderr, d.conf.Converter.Binary,
			artifact.Path,
			"-t", "raw", "-e", "signed-integer", "-b", "16", "-r", rate,
			"-",
		),
		streamhelpers.CommandStage(dir, stderr, d.conf.Binary,
			"--iq-file", "-",
			"--sample-rate", rate,
			"--sample-format", d.conf.Converter.SampleFormat,
			"--centerfreq", khz, khz,
			"--output", jsonStdout,
		),
	}
}

// Decode runs the artifact through the decoder and returns every hfdl record found.
// An empty result without error means the capture was noise.
func (d *Decoder) Decode(ctx context.Context, artifact scan.Artifact) ([]Message, error) {
	stderr := streamhelpers.NewHeadBuffer(StderrLimit)
	collector := &lineCollector{}

	err := streamhelpers.NewPipeline(d.conf.Timeout.Value(), d.stages(artifact, stderr)...).Run(ctx, collector)
	msgs := collector.flush()

	logger := log.With(append(artifact.Target.Fields(), zap.String("path", artifact.Path))...)
	if collector.skipped > 0 {
		logger.Debug("skipped decoder lines", zap.Int("lines", collector.skipped))
	}

	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		// A crash after decoding something still counts as usable output
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(msgs) > 0 {
			logger.Debug("decoder exited non-zero with usable output", zap.Int("messages", len(msgs)), zap.Error(err))
			return msgs, nil
		}

		return nil, &Error{Path: artifact.Path, Err: err, Stderr: stderr.String()}
	}

	if len(msgs) == 0 && stderr.String() != "" {
		logger.Debug("decoder stderr", zap.String("stderr", stderr.String()))
	}

	return msgs, nil
}
