package config

import (
	"flag"
	"os"
	"sync"

	"github.com/LeoCommon/foxhunter/pkg/log"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
)

const (
	ProductName  = "foxhunter"
	ConfigFolder = "/etc/" + ProductName + "/"
	ConfigFile   = "config.toml"

	DefaultConfigPath = ConfigFolder + ConfigFile

	DefaultDebugModeValue = false
)

type CLIFlags struct {
	ConfigPath string
	Debug      bool
}

type MainConfig struct {
	Client     ClientConfig     `toml:"client"`
	Scan       ScanConfig       `toml:"scan"`
	Receivers  Receivers        `toml:"receivers"`
	Recorder   RecorderConfig   `toml:"recorder"`
	Decoder    DecoderConfig    `toml:"decoder"`
	Storage    StorageConfig    `toml:"storage"`
	Paths      PathsConfig      `toml:"paths"`
	Supervisor SupervisorConfig `toml:"supervisor"`
}

type ConfigManager interface {
	lock()
	unlock()
	Verify() error
}

type ConfigManagerKey string

const (
	CMClient     ConfigManagerKey = "client"
	CMScan       ConfigManagerKey = "scan"
	CMReceivers  ConfigManagerKey = "receivers"
	CMRecorder   ConfigManagerKey = "recorder"
	CMDecoder    ConfigManagerKey = "decoder"
	CMStorage    ConfigManagerKey = "storage"
	CMPaths      ConfigManagerKey = "paths"
	CMSupervisor ConfigManagerKey = "supervisor"
)

// verifyOrder keeps error reporting deterministic, maps are unordered
var verifyOrder = []ConfigManagerKey{CMClient, CMScan, CMReceivers, CMRecorder, CMDecoder, CMStorage, CMPaths, CMSupervisor}

type ConfigManagerStore map[ConfigManagerKey]ConfigManager

type Manager struct {
	mu sync.RWMutex

	// The actual config, never share this with other code
	config *MainConfig

	// The config manager store (pointers)
	store ConfigManagerStore

	// The config path
	path string
}

func section[T Verifier](m *Manager, key ConfigManagerKey) *BaseConfigManager[T] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cm, ok := m.store[key].(*BaseConfigManager[T])
	if !ok {
		log.Panic("implementation mistake, config section not found", zap.String("section", string(key)))
		return nil
	}
	return cm
}

func (m *Manager) Client() *BaseConfigManager[ClientConfig] {
	return section[ClientConfig](m, CMClient)
}

func (m *Manager) Scan() *BaseConfigManager[ScanConfig] {
	return section[ScanConfig](m, CMScan)
}

func (m *Manager) Receivers() *BaseConfigManager[Receivers] {
	return section[Receivers](m, CMReceivers)
}

func (m *Manager) Recorder() *BaseConfigManager[RecorderConfig] {
	return section[RecorderConfig](m, CMRecorder)
}

func (m *Manager) Decoder() *BaseConfigManager[DecoderConfig] {
	return section[DecoderConfig](m, CMDecoder)
}

func (m *Manager) Storage() *BaseConfigManager[StorageConfig] {
	return section[StorageConfig](m, CMStorage)
}

func (m *Manager) Paths() *BaseConfigManager[PathsConfig] {
	return section[PathsConfig](m, CMPaths)
}

func (m *Manager) Supervisor() *BaseConfigManager[SupervisorConfig] {
	return section[SupervisorConfig](m, CMSupervisor)
}

// Snapshot returns an immutable copy of the whole configuration
func (m *Manager) Snapshot() MainConfig {
	c := MainConfig{
		Client:     m.Client().C(),
		Scan:       m.Scan().C(),
		Receivers:  m.Receivers().C(),
		Recorder:   m.Recorder().C(),
		Decoder:    m.Decoder().C(),
		Storage:    m.Storage().C(),
		Paths:      m.Paths().C(),
		Supervisor: m.Supervisor().C(),
	}

	// Slices share their backing array, copy them so nobody can write through
	c.Scan.Frequencies = append([]int64(nil), c.Scan.Frequencies...)
	c.Receivers = append(Receivers(nil), c.Receivers...)

	return c
}

func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// Load reads the TOML file at path on top of the defaults and verifies every section.
// With acceptEmptyConfig a missing or unreadable file leaves the defaults in place.
func (m *Manager) Load(path string, acceptEmptyConfig bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Start over from the defaults so a failed earlier attempt leaves nothing behind
	m.config = New()

	data, err := os.ReadFile(path)
	if err == nil {
		err = m.decode(data)
		if err != nil {
			log.Error("failed to unmarshal config file", zap.String("path", path), zap.Error(err))
			m.config = New()
		}
	}

	if err != nil && !acceptEmptyConfig {
		return err
	}

	// Store the load path
	m.path = path

	// Each config section manager gets his own locking primitive
	m.store = ConfigManagerStore{
		CMClient:     newSectionManager(&m.config.Client, m),
		CMScan:       newSectionManager(&m.config.Scan, m),
		CMReceivers:  newSectionManager(&m.config.Receivers, m),
		CMRecorder:   newSectionManager(&m.config.Recorder, m),
		CMDecoder:    newSectionManager(&m.config.Decoder, m),
		CMStorage:    newSectionManager(&m.config.Storage, m),
		CMPaths:      newSectionManager(&m.config.Paths, m),
		CMSupervisor: newSectionManager(&m.config.Supervisor, m),
	}

	// Verify all configs contain the mandatory values
	for _, key := range verifyOrder {
		if err := m.store[key].Verify(); err != nil {
			log.Error("config section is invalid", zap.String("section", string(key)), zap.Error(err))
			return err
		}
	}

	// Debug log output, never print the database password
	redacted := *m.config
	redacted.Storage.Password = "***"
	redacted.Storage.URL = ""
	log.Debug("active config", zap.Any("config", redacted), zap.String("path", m.path))

	return nil
}

// decode unmarshals on top of the defaults, lists fall back to their defaults only when absent
func (m *Manager) decode(data []byte) error {
	m.config.Scan.Frequencies = nil
	m.config.Receivers = nil

	if err := toml.Unmarshal(data, m.config); err != nil {
		return err
	}

	if m.config.Scan.Frequencies == nil {
		m.config.Scan.Frequencies = append([]int64(nil), DefaultFrequencies...)
	}

	if m.config.Receivers == nil {
		m.config.Receivers = DefaultReceivers()
	}

	return nil
}

// Save locks all configs and writes it to disk
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Lock all config managers
	for _, value := range m.store {
		value.lock()
	}

	// Unlock the config managers when we are done
	defer func() {
		for _, value := range m.store {
			value.unlock()
		}
	}()

	// Marshal the config, does not use getters, so no locking => safe
	configData, err := toml.Marshal(m.config)
	if err != nil {
		return err
	}

	if err := os.WriteFile(m.path, configData, 0640); err != nil {
		log.Error("Failed to write config file", zap.Error(err))
		return err
	}

	return nil
}

// New returns a configuration populated with the defaults
func New() *MainConfig {
	return &MainConfig{
		Client:     ClientConfig{Debug: DefaultDebugModeValue},
		Scan:       DefaultScanConfig(),
		Receivers:  DefaultReceivers(),
		Recorder:   DefaultRecorderConfig(),
		Decoder:    DefaultDecoderConfig(),
		Storage:    DefaultStorageConfig(),
		Paths:      DefaultPathsConfig(),
		Supervisor: DefaultSupervisorConfig(),
	}
}

func NewManager() *Manager {
	return &Manager{
		mu:     sync.RWMutex{},
		store:  make(ConfigManagerStore),
		config: New(),
	}
}

// ParseCLIFlags parses the process arguments
func ParseCLIFlags() CLIFlags {
	return ParseCLIFlagsFrom(flag.CommandLine, os.Args[1:])
}

// ParseCLIFlagsFrom parses args with the given flag set, used by tests
func ParseCLIFlagsFrom(fs *flag.FlagSet, args []string) CLIFlags {
	flags := CLIFlags{}

	fs.StringVar(&flags.ConfigPath, "config", DefaultConfigPath, "relative or absolute path to the config file")
	fs.BoolVar(&flags.Debug, "debug", DefaultDebugModeValue, "true if the debug logging should be enabled")

	// ExitOnError sets never return an error here
	_ = fs.Parse(args)

	return flags
}
