package envprep

import (
	"context"

	"github.com/ethereum/go-ethereum/log"
)

// Addon is a piece of supporting infrastructure that runs for the lifetime
// of the harness service, such as the fixture server specs fetch from.
type Addon interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type AddonsManager struct {
	addons []Addon
}

type addonCfg struct {
	addonGenerators []func(logger log.Logger) Addon
}

type Option func(*addonCfg)

// WithFixtureServer serves the given directory over HTTP so running specs
// can fetch fixtures from it.
func WithFixtureServer(dir string) Option {
	return func(cfg *addonCfg) {
		cfg.addonGenerators = append(cfg.addonGenerators, func(logger log.Logger) Addon {
			return NewFixtureServer(dir, logger)
		})
	}
}

func NewAddonsManager(logger log.Logger, opts ...Option) (*AddonsManager, error) {
	cfg := &addonCfg{}
	for _, opt := range opts {
		opt(cfg)
	}

	addons := []Addon{}
	for _, generator := range cfg.addonGenerators {
		addons = append(addons, generator(logger))
	}

	return &AddonsManager{
		addons: addons,
	}, nil
}

func (m *AddonsManager) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}
	for _, addon := range m.addons {
		if err := addon.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (m *AddonsManager) Stop(ctx context.Context) error {
	if m == nil {
		return nil
	}
	for _, addon := range m.addons {
		if err := addon.Stop(ctx); err != nil {
			return err
		}
	}
	return nil
}

// FixtureURL returns the URL of the first running fixture server, or empty
// when none is configured.
func (m *AddonsManager) FixtureURL() string {
	if m == nil {
		return ""
	}
	for _, addon := range m.addons {
		if fs, ok := addon.(*FixtureServer); ok {
			return fs.URL()
		}
	}
	return ""
}
