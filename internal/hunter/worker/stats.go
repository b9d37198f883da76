package worker

import (
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Stats are written by the owning worker and may be read by anyone
type Stats struct {
	Cycles              atomic.Int64
	AcquireFailures     atomic.Int64
	Noise               atomic.Int64
	DecodeFailures      atomic.Int64
	StoreFailures       atomic.Int64
	Archived            atomic.Int64
	Deleted             atomic.Int64
	DispositionFailures atomic.Int64
	Persisted           atomic.Int64
}

// StatsSnapshot is a point in time copy of Stats
type StatsSnapshot struct {
	Cycles              int64
	AcquireFailures     int64
	Noise               int64
	DecodeFailures      int64
	StoreFailures       int64
	Archived            int64
	Deleted             int64
	DispositionFailures int64
	Persisted           int64
}

func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Cycles:              s.Cycles.Load(),
		AcquireFailures:     s.AcquireFailures.Load(),
		Noise:               s.Noise.Load(),
		DecodeFailures:      s.DecodeFailures.Load(),
		StoreFailures:       s.StoreFailures.Load(),
		Archived:            s.Archived.Load(),
		Deleted:             s.Deleted.Load(),
		DispositionFailures: s.DispositionFailures.Load(),
		Persisted:           s.Persisted.Load(),
	}
}

// Add sums both snapshots, used for fleet totals
func (s StatsSnapshot) Add(o StatsSnapshot) StatsSnapshot {
	return StatsSnapshot{
		Cycles:              s.Cycles + o.Cycles,
		AcquireFailures:     s.AcquireFailures + o.AcquireFailures,
		Noise:               s.Noise + o.Noise,
		DecodeFailures:      s.DecodeFailures + o.DecodeFailures,
		StoreFailures:       s.StoreFailures + o.StoreFailures,
		Archived:            s.Archived + o.Archived,
		Deleted:             s.Deleted + o.Deleted,
		DispositionFailures: s.DispositionFailures + o.DispositionFailures,
		Persisted:           s.Persisted + o.Persisted,
	}
}

func (s StatsSnapshot) Fields() []zap.Field {
	return []zap.Field{
		zap.Int64("cycles", s.Cycles),
		zap.Int64("acquire_failures", s.AcquireFailures),
		zap.Int64("noise", s.Noise),
		zap.Int64("decode_failures", s.DecodeFailures),
		zap.Int64("store_failures", s.StoreFailures),
		zap.Int64("archived", s.Archived),
		zap.Int64("deleted", s.Deleted),
		zap.Int64("disposition_failures", s.DispositionFailures),
		zap.Int64("persisted", s.Persisted),
	}
}
