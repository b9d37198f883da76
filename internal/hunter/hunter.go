// Package hunter wires configuration, storage and the worker fleet into the running daemon.
package hunter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/LeoCommon/foxhunter/internal/hunter/acquire"
	"github.com/LeoCommon/foxhunter/internal/hunter/artifact"
	"github.com/LeoCommon/foxhunter/internal/hunter/config"
	"github.com/LeoCommon/foxhunter/internal/hunter/decode"
	"github.com/LeoCommon/foxhunter/internal/hunter/scan"
	"github.com/LeoCommon/foxhunter/internal/hunter/store"
	"github.com/LeoCommon/foxhunter/internal/hunter/supervisor"
	"github.com/LeoCommon/foxhunter/internal/hunter/worker"
	"github.com/LeoCommon/foxhunter/pkg/file"
	"github.com/LeoCommon/foxhunter/pkg/log"
	"go.uber.org/zap"
)

// App holds everything the daemon needs while running
type App struct {
	ExitSignal chan os.Signal

	Conf       *config.Manager
	Store      store.Backend
	Supervisor *supervisor.Supervisor
}

func (a *App) Shutdown() {
	if a.ExitSignal != nil {
		signal.Stop(a.ExitSignal)
	}

	log.Sync()
}

func (a *App) loadConfiguration(configPath string) error {
	a.Conf = config.NewManager()
	if err := a.Conf.Load(configPath, false); err != nil {
		if configPath == config.DefaultConfigPath {
			return err
		}

		log.Error("an error occurred while trying to load the config file, trying default path", zap.String("path", configPath), zap.Error(err))
		if err := a.Conf.Load(config.DefaultConfigPath, false); err != nil {
			return err
		}
	}

	return nil
}

func prepareDirectories(paths config.PathsConfig) error {
	for _, dir := range []string{paths.WorkDir, paths.ArchiveDir} {
		if err := file.EnsureDir(dir, 0750); err != nil {
			return fmt.Errorf("directory %s: %w", dir, err)
		}
	}

	return nil
}

// Setup loads the configuration and builds every component, nothing is started yet.
// Any error here is fatal for the process.
func Setup(flags config.CLIFlags) (*App, error) {
	app := App{}

	log.Init(flags.Debug)
	log.Info("foxhunter starting")

	if err := app.loadConfiguration(flags.ConfigPath); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	conf := app.Conf.Snapshot()

	// The config file may ask for debug output as well
	if conf.Client.Debug && !flags.Debug {
		log.Init(true)
	}

	if err := prepareDirectories(conf.Paths); err != nil {
		return nil, err
	}

	backend, err := store.NewBackend(conf.Storage)
	if err != nil {
		return nil, err
	}
	app.Store = backend

	if conf.Storage.Migrate {
		if err := backend.Migrate(context.Background()); err != nil {
			return nil, fmt.Errorf("migrate %s: %w", backend.Name(), err)
		}
	}

	recorder, err := acquire.NewRecorder(conf.Recorder, conf.Paths.WorkDir)
	if err != nil {
		return nil, err
	}

	deps := worker.Deps{
		Acquirer:  recorder,
		Decoder:   decode.NewDecoder(conf.Decoder),
		Store:     backend,
		Persister: store.NewAdapter(conf.Storage.InsertTimeout.Value()),
		Artifacts: artifact.NewManager(conf.Paths.ArchiveDir),
	}

	targets := scan.Targets(conf.Receivers, conf.Scan.Frequencies)
	app.Supervisor = supervisor.New(targets, deps, worker.TimingFromConfig(conf.Scan), conf.Supervisor.StatsInterval.Value())

	log.Info("setup complete",
		zap.Int("receivers", len(conf.Receivers)),
		zap.Int("frequencies", len(conf.Scan.Frequencies)),
		zap.String("decoder", string(conf.Decoder.Mode)),
		zap.String("storage", backend.Name()))

	// Register a quit signal
	app.ExitSignal = make(chan os.Signal, 1)
	signal.Notify(app.ExitSignal, os.Interrupt, syscall.SIGTERM)

	return &app, nil
}

// Run blocks until an exit signal arrives or the supervisor fails, an interrupt is no error
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case sig := <-a.ExitSignal:
			log.Info("exit signal received, stopping workers", zap.Stringer("signal", sig))
			cancel()
		case <-ctx.Done():
		}
	}()

	err := a.Supervisor.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}
