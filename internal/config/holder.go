package config

import (
	"sync"
	"sync/atomic"

	"hudoverlay/internal/fonts"
)

// Holder is an atomically swappable current configuration. It satisfies
// fonts.Source so resolvers pick up reloaded font sizes.
type Holder struct {
	current atomic.Pointer[Config]
	path    string

	mu        sync.Mutex
	listeners []func(prev, next *Config)
}

// NewHolder wraps cfg, which was loaded from path.
func NewHolder(cfg *Config, path string) *Holder {
	h := &Holder{path: path}
	h.current.Store(cfg)
	return h
}

// Current returns the active configuration. Callers must not modify it.
func (h *Holder) Current() *Config {
	return h.current.Load()
}

// Path returns the file the configuration was loaded from.
func (h *Holder) Path() string {
	return h.path
}

// FontConfig implements fonts.Source.
func (h *Holder) FontConfig() fonts.Config {
	cfg := h.Current()
	if cfg == nil {
		return fonts.Config{}
	}
	return cfg.FontConfig()
}

// OnChange registers fn to run after every successful Swap.
func (h *Holder) OnChange(fn func(prev, next *Config)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Swap installs next and notifies listeners with the previous value.
func (h *Holder) Swap(next *Config) {
	if next == nil {
		return
	}
	prev := h.current.Swap(next)
	h.mu.Lock()
	listeners := append([]func(prev, next *Config){}, h.listeners...)
	h.mu.Unlock()
	for _, fn := range listeners {
		fn(prev, next)
	}
}

// Reload reads the file again and swaps it in. The current configuration
// is kept when the file is invalid.
func (h *Holder) Reload() (*Config, error) {
	cfg, _, _, err := Load(h.path)
	if err != nil {
		return nil, err
	}
	h.Swap(cfg)
	return cfg, nil
}
