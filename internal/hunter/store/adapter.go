package store

import (
	"context"
	"fmt"
	"time"

	"github.com/LeoCommon/foxhunter/internal/hunter/decode"
	"github.com/LeoCommon/foxhunter/internal/hunter/scan"
	"github.com/LeoCommon/foxhunter/pkg/log"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// Adapter maps decoded messages and writes them as one batch
type Adapter struct {
	insertTimeout time.Duration
}

// NewAdapter bounds every batch insert by insertTimeout, zero disables the bound
func NewAdapter(insertTimeout time.Duration) *Adapter {
	return &Adapter{insertTimeout: insertTimeout}
}

// Persist writes msgs and reports how many rows were stored.
// Records that fail mapping or insertion are skipped and logged, only a failed batch returns an error.
func (a *Adapter) Persist(ctx context.Context, conn Conn, target scan.Target, capturedAt time.Time, msgs []decode.Message) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}

	var skipped *multierror.Error
	entries := make([]LogEntry, 0, len(msgs))
	for i, msg := range msgs {
		entry, err := MapMessage(target, capturedAt, msg)
		if err != nil {
			skipped = multierror.Append(skipped, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		entries = append(entries, entry)
	}

	logger := log.With(target.Fields()...)
	defer func() {
		if skipped.ErrorOrNil() != nil {
			logger.Warn("records skipped", zap.Int("skipped", skipped.Len()), zap.Int("records", len(msgs)), zap.Error(skipped))
		}
	}()

	if len(entries) == 0 {
		return 0, nil
	}

	if a.insertTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.insertTimeout)
		defer cancel()
	}

	res, err := conn.InsertBatch(ctx, entries)
	if err != nil {
		return 0, err
	}

	if res.RowErrors != nil {
		skipped = multierror.Append(skipped, res.RowErrors.Errors...)
	}

	return res.Inserted, nil
}
