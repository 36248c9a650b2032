package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/yeti47/clipshot/logging"
)

type SettingsProvider[T any] interface {
	// GetSettings returns the current settings of type T.
	GetSettings() T
}

// StaticSettingsProvider always returns the same settings value.
type StaticSettingsProvider[T any] struct {
	settings T
}

func NewStaticSettingsProvider[T any](settings T) *StaticSettingsProvider[T] {
	return &StaticSettingsProvider[T]{settings: settings}
}

func (p *StaticSettingsProvider[T]) GetSettings() T {
	return p.settings
}

// SettingsProviderFunc adapts a mapping function to SettingsProvider, e.g. to derive
// component settings from a Config provider.
type SettingsProviderFunc[T any] func() T

func (f SettingsProviderFunc[T]) GetSettings() T {
	return f()
}

const (
	// DefaultSettingsCacheTimeout is the default cache timeout period
	DefaultSettingsCacheTimeout = 30 * time.Second
)

// FileSettingsProvider serves a Config loaded from disk and reloads it in the background
// once the cached copy is older than the cache timeout. Overrides are re-applied on every reload.
type FileSettingsProvider struct {
	filename        string
	overrides       ConfigOverrides
	logger          logging.Logger
	load            func(string) (*Config, error)
	mutex           sync.RWMutex
	cachedConfig    *Config
	lastFetchTime   time.Time
	fetchInProgress bool
	cacheTimeout    time.Duration
}

// NewFileSettingsProvider creates a new FileSettingsProvider.
// It performs an initial load and returns an error if this fails.
// If cacheTimeout is 0, DefaultSettingsCacheTimeout is used; a negative timeout disables reloading.
func NewFileSettingsProvider(filename string, overrides ConfigOverrides, cacheTimeout time.Duration, logger logging.Logger) (*FileSettingsProvider, error) {
	return newFileSettingsProvider(filename, overrides, cacheTimeout, logger, LoadConfig)
}

func newFileSettingsProvider(filename string, overrides ConfigOverrides, cacheTimeout time.Duration, logger logging.Logger, load func(string) (*Config, error)) (*FileSettingsProvider, error) {
	if cacheTimeout == 0 {
		cacheTimeout = DefaultSettingsCacheTimeout
	}

	provider := &FileSettingsProvider{
		filename:     filename,
		overrides:    overrides,
		logger:       logging.OrNop(logger),
		load:         load,
		cacheTimeout: cacheTimeout,
	}

	cfg, err := provider.loadWithOverrides()
	if err != nil {
		return nil, fmt.Errorf("failed to load initial configuration: %w", err)
	}

	provider.cachedConfig = cfg
	provider.lastFetchTime = time.Now()

	return provider, nil
}

func (p *FileSettingsProvider) loadWithOverrides() (*Config, error) {
	cfg, err := p.load(p.filename)
	if err != nil {
		return nil, err
	}
	cfg.Override(p.overrides)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetSettings returns the current configuration, implementing SettingsProvider.
// It never blocks on disk I/O; a stale copy is returned while a reload runs.
func (p *FileSettingsProvider) GetSettings() Config {
	p.mutex.RLock()
	needsRefresh := p.cacheTimeout > 0 && time.Since(p.lastFetchTime) > p.cacheTimeout
	fetchInProgress := p.fetchInProgress
	current := *p.cachedConfig
	p.mutex.RUnlock()

	if needsRefresh && !fetchInProgress {
		go p.reload()
	}

	return current
}

// reload loads the file again without blocking readers
func (p *FileSettingsProvider) reload() {
	p.mutex.Lock()
	if p.fetchInProgress {
		p.mutex.Unlock()
		return
	}
	p.fetchInProgress = true
	p.mutex.Unlock()

	defer func() {
		p.mutex.Lock()
		p.fetchInProgress = false
		p.mutex.Unlock()
	}()

	cfg, err := p.loadWithOverrides()
	if err != nil {
		// keep serving the previous configuration
		p.logger.Warn("Failed to reload configuration", "file", p.filename, "error", err)
		p.mutex.Lock()
		p.lastFetchTime = time.Now()
		p.mutex.Unlock()
		return
	}

	p.mutex.Lock()
	p.cachedConfig = cfg
	p.lastFetchTime = time.Now()
	p.mutex.Unlock()
}
