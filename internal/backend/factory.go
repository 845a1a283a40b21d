package backend

import (
	"fmt"

	"takeoff/internal/config"
	"takeoff/internal/port"
)

// ProviderFactory is a function that creates a VisionBackend from a provider config.
type ProviderFactory func(cfg *config.BackendProviderConfig) (port.VisionBackend, error)

// registry of backend provider factories, populated explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a vision backend factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// New creates a VisionBackend from a provider config using the registered factory.
func New(cfg *config.BackendProviderConfig) (port.VisionBackend, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown vision backend provider: %s", cfg.Provider)
	}
	return factory(cfg)
}
