package streamhelpers

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/LeoCommon/foxhunter/pkg/misc"
	"github.com/LeoCommon/foxhunter/pkg/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLines(lines ...string) Stage {
	return func(_ context.Context, _ io.Reader, out io.Writer) error {
		for _, l := range lines {
			if _, err := io.WriteString(out, l+"\n"); err != nil {
				return err
			}
		}
		return nil
	}
}

func upperCase(_ context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if _, err := io.WriteString(out, strings.ToUpper(scanner.Text())+"\n"); err != nil {
			return err
		}
	}
	return scanner.Err()
}

func TestPipelineChainsStages(t *testing.T) {
	defer SetupStreamHelpersTest(t)()

	var out bytes.Buffer
	err := NewPipeline(time.Second, writeLines("a", "b"), upperCase).Run(context.Background(), &out)

	assert.NoError(t, err)
	assert.Equal(t, "A\nB\n", out.String())
}

func TestPipelineSingleStage(t *testing.T) {
	defer SetupStreamHelpersTest(t)()

	var out bytes.Buffer
	err := NewPipeline(0, writeLines("only")).Run(context.Background(), &out)

	assert.NoError(t, err)
	assert.Equal(t, "only\n", out.String())
}

func TestPipelineCommandStages(t *testing.T) {
	defer SetupStreamHelpersTest(t)()

	producer := test.WriteScript(t, TMP_DIR, "producer.sh", `printf 'one\ntwo\n'`)
	stderr := NewHeadBuffer(200)

	var out bytes.Buffer
	err := NewPipeline(5*time.Second,
		CommandStage(TMP_DIR, stderr, "sh", producer),
		CommandStage(TMP_DIR, stderr, "tr", "a-z", "A-Z"),
	).Run(context.Background(), &out)

	assert.NoError(t, err)
	assert.Equal(t, "ONE\nTWO\n", out.String())
	assert.Empty(t, stderr.String())
}

func TestPipelineUpstreamFailure(t *testing.T) {
	defer SetupStreamHelpersTest(t)()

	errConvert := errors.New("converter failed")
	failing := func(_ context.Context, _ io.Reader, out io.Writer) error {
		_, _ = io.WriteString(out, "partial\n")
		return errConvert
	}

	var out bytes.Buffer
	err := NewPipeline(time.Second, failing, upperCase).Run(context.Background(), &out)
	assert.ErrorIs(t, err, errConvert)
}

func TestPipelineConsumerStopsEarly(t *testing.T) {
	defer SetupStreamHelpersTest(t)()

	endless := func(_ context.Context, _ io.Reader, out io.Writer) error {
		for {
			if _, err := io.WriteString(out, "data\n"); err != nil {
				return err
			}
		}
	}
	firstLine := func(_ context.Context, in io.Reader, out io.Writer) error {
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, line)
		return err
	}

	var out bytes.Buffer
	err := NewPipeline(time.Second, endless, firstLine).Run(context.Background(), &out)

	assert.NoError(t, err)
	assert.Equal(t, "data\n", out.String())
}

func TestPipelineTimeout(t *testing.T) {
	defer SetupStreamHelpersTest(t)()

	blocking := func(ctx context.Context, _ io.Reader, _ io.Writer) error {
		<-ctx.Done()
		return ctx.Err()
	}

	err := NewPipeline(100*time.Millisecond, blocking).Run(context.Background(), io.Discard)
	require.ErrorIs(t, err, &misc.TimedOutError{})

	var timedOut *misc.TimedOutError
	require.True(t, errors.As(err, &timedOut))
	assert.Equal(t, 100*time.Millisecond, timedOut.After())
}

func TestPipelineCommandTimeout(t *testing.T) {
	defer SetupStreamHelpersTest(t)()

	script := test.WriteScript(t, TMP_DIR, "hang.sh", "sleep 10")

	err := NewPipeline(200*time.Millisecond, CommandStage(TMP_DIR, nil, "sh", script)).
		Run(context.Background(), io.Discard)

	assert.ErrorIs(t, err, &misc.TimedOutError{})
	assertFinishedWithin(t, 3*time.Second)
}

func TestPipelineParentCancelIsNotTimeout(t *testing.T) {
	defer SetupStreamHelpersTest(t)()

	ctx, cancel := context.WithCancel(context.Background())
	blocking := func(ctx context.Context, _ io.Reader, _ io.Writer) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}

	err := NewPipeline(time.Minute, blocking).Run(ctx, io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, &misc.TimedOutError{})
}

func TestPipelineWithoutStages(t *testing.T) {
	assert.Error(t, NewPipeline(time.Second).Run(context.Background(), io.Discard))
}
