package config

import "sync"

// Verifier is implemented by every config section
type Verifier interface {
	Verify() error
}

type BaseConfigManager[T Verifier] struct {
	mu   sync.RWMutex
	conf *T

	mgr *Manager
}

func newSectionManager[T Verifier](conf *T, mgr *Manager) *BaseConfigManager[T] {
	return &BaseConfigManager[T]{conf: conf, mgr: mgr}
}

// Return the read-only configuration by value
func (a *BaseConfigManager[T]) C() T {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return *a.conf
}

type ConfigModifierFunc[T any] func(c *T)

func (a *BaseConfigManager[T]) Set(setFunc ConfigModifierFunc[T]) {
	a.mu.Lock()
	defer a.mu.Unlock()

	// call the set function
	setFunc(a.conf)
}

// Verify checks the "hard" conditions that the rest of the code relies on
func (a *BaseConfigManager[T]) Verify() error {
	return a.C().Verify()
}

func (a *BaseConfigManager[T]) Save() error {
	// save the main config, dont lock, the manager will lock us
	return a.mgr.Save()
}

func (a *BaseConfigManager[T]) lock() {
	a.mu.Lock()
}

func (a *BaseConfigManager[T]) unlock() {
	a.mu.Unlock()
}
