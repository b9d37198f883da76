package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LeoCommon/foxhunter/internal/hunter/decode"
	"github.com/LeoCommon/foxhunter/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConn struct {
	entries []LogEntry
	err     error
}

func (c *recordingConn) Ping(context.Context) error {
	return nil
}

func (c *recordingConn) InsertBatch(_ context.Context, entries []LogEntry) (BatchResult, error) {
	if c.err != nil {
		return BatchResult{}, c.err
	}
	c.entries = append(c.entries, entries...)
	return BatchResult{Inserted: len(entries)}, nil
}

func (c *recordingConn) Close(context.Context) error {
	return nil
}

func TestPersistEmptyBatch(t *testing.T) {
	conn := &recordingConn{}
	count, err := NewAdapter(0).Persist(context.Background(), conn, TARGET, CAPTURED, nil)

	assert.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, conn.entries)
}

func TestPersistAllRecordsUnmappable(t *testing.T) {
	log.Init(true)

	conn := &recordingConn{}
	msgs := []decode.Message{message(t, `"x"`), message(t, `{"perf":{"snr":"?"}}`)}
	count, err := NewAdapter(time.Second).Persist(context.Background(), conn, TARGET, CAPTURED, msgs)

	assert.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, conn.entries, "nothing should reach the database")
}

func TestPersistBatchFailure(t *testing.T) {
	log.Init(true)

	failure := errors.New("connection reset")
	conn := &recordingConn{err: failure}
	count, err := NewAdapter(time.Second).Persist(context.Background(), conn, TARGET, CAPTURED, []decode.Message{message(t, `{}`)})

	assert.ErrorIs(t, err, failure)
	assert.Zero(t, count)
}

func TestPersistCountNeverExceedsMessages(t *testing.T) {
	log.Init(true)

	conn := &recordingConn{}
	msgs := []decode.Message{message(t, `{}`), message(t, `{"lpdu":{"pos":{}}}`), message(t, `{}`)}
	count, err := NewAdapter(0).Persist(context.Background(), conn, TARGET, CAPTURED, msgs)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.LessOrEqual(t, count, len(msgs))
	for _, e := range conn.entries {
		assert.Equal(t, CAPTURED, e.Time)
	}
}
