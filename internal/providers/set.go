package providers

import (
	"fmt"

	"github.com/dropDatabas3/linkjohn/internal/domain"
)

// Set resolves verifiers for the provider kinds enabled in configuration.
// A kind absent from the config map is disabled even if its factory is
// registered.
type Set struct {
	reg  *Registry
	cfgs map[domain.ProviderKind]Config
}

// NewSet creates a Set over reg with per-kind configuration.
func NewSet(reg *Registry, cfgs map[domain.ProviderKind]Config) *Set {
	if cfgs == nil {
		cfgs = make(map[domain.ProviderKind]Config)
	}
	return &Set{reg: reg, cfgs: cfgs}
}

// Enabled reports whether kind is enabled in configuration.
func (s *Set) Enabled(kind domain.ProviderKind) bool {
	_, ok := s.cfgs[kind]
	return ok
}

// Verifier returns the verifier for an enabled kind.
func (s *Set) Verifier(kind domain.ProviderKind) (Verifier, error) {
	cfg, ok := s.cfgs[kind]
	if !ok {
		return nil, fmt.Errorf("provider not enabled: %s", kind)
	}
	return s.reg.Get(kind, cfg)
}
