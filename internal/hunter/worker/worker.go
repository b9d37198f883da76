// Package worker drives one scan target through capture, decode, persist and cooldown forever.
package worker

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/LeoCommon/foxhunter/internal/hunter/acquire"
	"github.com/LeoCommon/foxhunter/internal/hunter/artifact"
	"github.com/LeoCommon/foxhunter/internal/hunter/config"
	"github.com/LeoCommon/foxhunter/internal/hunter/decode"
	"github.com/LeoCommon/foxhunter/internal/hunter/scan"
	"github.com/LeoCommon/foxhunter/internal/hunter/store"
	"github.com/LeoCommon/foxhunter/pkg/log"
	"github.com/google/uuid"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

type Acquirer interface {
	Acquire(ctx context.Context, target scan.Target, duration time.Duration) (scan.Artifact, error)
}

type Decoder interface {
	Decode(ctx context.Context, a scan.Artifact) ([]decode.Message, error)
}

type Persister interface {
	Persist(ctx context.Context, conn store.Conn, target scan.Target, capturedAt time.Time, msgs []decode.Message) (int, error)
}

type Artifacts interface {
	Archive(a scan.Artifact) (string, error)
	Delete(a scan.Artifact) error
	Keep(a scan.Artifact) artifact.Disposition
}

// Deps are shared by all workers, they must be safe for concurrent use
type Deps struct {
	Acquirer  Acquirer
	Decoder   Decoder
	Store     store.Backend
	Persister Persister
	Artifacts Artifacts
}

type Timing struct {
	CaptureDuration   time.Duration
	CooldownMin       time.Duration
	CooldownMax       time.Duration
	AcquireRetryDelay time.Duration
	StoreRetryDelay   time.Duration
}

func TimingFromConfig(c config.ScanConfig) Timing {
	return Timing{
		CaptureDuration:   c.CaptureDuration.Value(),
		CooldownMin:       c.CooldownMin.Value(),
		CooldownMax:       c.CooldownMax.Value(),
		AcquireRetryDelay: c.AcquireRetryDelay.Value(),
		StoreRetryDelay:   c.StoreRetryDelay.Value(),
	}
}

type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep waits for d or until ctx is done
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type staleArtifact struct {
	artifact scan.Artifact
	// Its messages are in the store, only archiving failed
	stored bool
}

type Worker struct {
	target scan.Target
	deps   Deps
	timing Timing
	stats  *Stats
	state  atomic.Int32

	// Capture left over from an earlier cycle, disposed of with the next successful connection
	stale *staleArtifact

	sleep SleepFunc
	rndMu sync.Mutex
	rnd   *rand.Rand

	logger *zap.Logger
}

func New(target scan.Target, deps Deps, timing Timing) *Worker {
	return &Worker{
		target: target,
		deps:   deps,
		timing: timing,
		stats:  &Stats{},
		sleep:  Sleep,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: log.With(target.Fields()...),
	}
}

// WithSleep replaces the wait function, used by tests to skip the delays
func (w *Worker) WithSleep(sleep SleepFunc) *Worker {
	w.sleep = sleep
	return w
}

// WithLogger replaces the per target logger
func (w *Worker) WithLogger(logger *zap.Logger) *Worker {
	w.logger = logger
	return w
}

// WithRand seeds the cooldown randomness
func (w *Worker) WithRand(rnd *rand.Rand) *Worker {
	w.rnd = rnd
	return w
}

func (w *Worker) Target() scan.Target {
	return w.target
}

func (w *Worker) Stats() *Stats {
	return w.stats
}

func (w *Worker) State() State {
	return State(w.state.Load())
}

func (w *Worker) setState(s State) {
	w.state.Store(int32(s))
	w.logger.Debug("state transition", zap.Stringer("state", s))
}

// Cooldown picks a random pause in whole second steps from CooldownMin up to CooldownMax
func (w *Worker) Cooldown() time.Duration {
	span := int64((w.timing.CooldownMax - w.timing.CooldownMin) / time.Second)
	if span <= 0 {
		return w.timing.CooldownMin
	}

	w.rndMu.Lock()
	defer w.rndMu.Unlock()
	return w.timing.CooldownMin + time.Duration(w.rnd.Int63n(span+1))*time.Second
}

// Run loops until ctx is done and returns its error, failures of single cycles never end it
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started")
	defer w.shutdown()

	for {
		pause, err := w.cycle(ctx)
		if err != nil {
			return err
		}

		w.setState(CoolingDown)
		w.logger.Debug("cooling down", zap.Duration("pause", pause))
		if err := w.sleep(ctx, pause); err != nil {
			return err
		}
	}
}

func (w *Worker) shutdown() {
	// Left over captures are disposed of before exit
	w.dropStale()
	w.logger.Info("worker stopped", w.stats.Snapshot().Fields()...)
}

// cycle runs one capture through all stages and returns the pause before the next.
// An error is only returned when ctx is done.
func (w *Worker) cycle(ctx context.Context) (time.Duration, error) {
	logger := w.logger.With(zap.String("cycle", uuid.NewString()))
	w.stats.Cycles.Inc()

	w.setState(Acquiring)
	logger.Info("scanning")

	capture, err := w.deps.Acquirer.Acquire(ctx, w.target, w.timing.CaptureDuration)
	if err != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}

		w.stats.AcquireFailures.Inc()
		logger.Warn("capture failed, retrying", append(failureFields(err),
			zap.Duration("retry_in", w.timing.AcquireRetryDelay), zap.Error(err))...)
		return w.timing.AcquireRetryDelay, nil
	}

	w.setState(Decoding)
	msgs, err := w.deps.Decoder.Decode(ctx, capture)
	if err != nil {
		if ctx.Err() != nil {
			w.delete(logger, capture)
			return 0, ctx.Err()
		}

		w.stats.DecodeFailures.Inc()
		logger.Warn("decode failed, treating capture as noise", append(failureFields(err),
			zap.String("path", capture.Path), zap.Error(err))...)
		msgs = nil
	}

	w.setState(Classifying)
	if len(msgs) == 0 {
		if err == nil {
			w.stats.Noise.Inc()
			logger.Info("no valid signal")
		}

		w.setState(Finalizing)
		w.delete(logger, capture)
		return w.Cooldown(), nil
	}

	w.setState(Finalizing)
	if err := w.finalize(ctx, logger, capture, msgs); err != nil {
		return 0, err
	}

	return w.Cooldown(), nil
}

// finalize stores msgs and disposes of the capture, an error is only returned when ctx is done
func (w *Worker) finalize(ctx context.Context, logger *zap.Logger, capture scan.Artifact, msgs []decode.Message) error {
	conn, err := w.deps.Store.Connect(ctx)
	if err != nil {
		if ctx.Err() != nil {
			w.delete(logger, capture)
			return ctx.Err()
		}

		w.stats.StoreFailures.Inc()
		logger.Warn("database unavailable, keeping capture", zap.String("path", capture.Path),
			zap.Duration("retry_in", w.timing.StoreRetryDelay), zap.Error(err))
		w.keepStale(logger, capture, false)
		return w.sleep(ctx, w.timing.StoreRetryDelay)
	}

	// The store is back, the old capture is never decoded again
	w.dropStale()

	count, err := w.deps.Persister.Persist(ctx, conn, w.target, capture.CreatedAt, msgs)
	if closeErr := conn.Close(context.Background()); closeErr != nil {
		logger.Warn("closing database connection failed", zap.Error(closeErr))
	}

	if err != nil {
		if ctx.Err() != nil {
			w.delete(logger, capture)
			return ctx.Err()
		}

		w.stats.StoreFailures.Inc()
		logger.Warn("storing messages failed, keeping capture", zap.String("path", capture.Path),
			zap.Duration("retry_in", w.timing.StoreRetryDelay), zap.Error(err))
		w.keepStale(logger, capture, false)
		return w.sleep(ctx, w.timing.StoreRetryDelay)
	}

	w.stats.Persisted.Add(int64(count))

	if count == 0 {
		logger.Info("no message could be stored", zap.Int("messages", len(msgs)))
		w.delete(logger, capture)
		return nil
	}

	dest, err := w.deps.Artifacts.Archive(capture)
	if err != nil {
		w.stats.DispositionFailures.Inc()
		logger.Error("archiving capture failed, retrying with the next cycle", zap.Error(err))
		w.keepStale(logger, capture, true)
		return nil
	}

	w.stats.Archived.Inc()
	logger.Info("signal captured and stored", zap.Int("stored", count), zap.Int("messages", len(msgs)), zap.String("archived", dest))

	return nil
}

func (w *Worker) delete(logger *zap.Logger, a scan.Artifact) {
	if err := w.deps.Artifacts.Delete(a); err != nil {
		w.stats.DispositionFailures.Inc()
		logger.Error("deleting capture failed", zap.Error(err))
		return
	}
	w.stats.Deleted.Inc()
}

func (w *Worker) keepStale(logger *zap.Logger, a scan.Artifact, stored bool) {
	// Only the newest one is kept
	w.dropStale()

	disposition := w.deps.Artifacts.Keep(a)
	logger.Debug("capture left for a later cycle", zap.String("path", a.Path),
		zap.Stringer("disposition", disposition), zap.Bool("stored", stored))
	w.stale = &staleArtifact{artifact: a, stored: stored}
}

// dropStale archives a left over capture whose messages were stored and deletes any other.
// A second failed archive attempt deletes it as well, so captures never pile up.
func (w *Worker) dropStale() {
	if w.stale == nil {
		return
	}

	stale := w.stale.artifact
	stored := w.stale.stored
	w.stale = nil

	if stored {
		dest, err := w.deps.Artifacts.Archive(stale)
		if err == nil {
			w.stats.Archived.Inc()
			w.logger.Info("left over capture archived", zap.String("archived", dest))
			return
		}

		w.stats.DispositionFailures.Inc()
		w.logger.Error("archiving left over capture failed again, deleting it", zap.String("path", stale.Path), zap.Error(err))
	} else {
		w.logger.Info("dropping capture that could not be stored", zap.String("path", stale.Path))
	}

	w.delete(w.logger, stale)
}

// failureFields adds the stderr head of a failed external tool to the log line
func failureFields(err error) []zap.Field {
	var fields []zap.Field

	var failure *acquire.Failure
	if errors.As(err, &failure) {
		fields = append(fields, zap.String("reason", string(failure.Reason)))
		if failure.Stderr != "" {
			fields = append(fields, zap.String("stderr", failure.Stderr))
		}
	}

	var decodeErr *decode.Error
	if errors.As(err, &decodeErr) && decodeErr.Stderr != "" {
		fields = append(fields, zap.String("stderr", decodeErr.Stderr))
	}

	return fields
}
