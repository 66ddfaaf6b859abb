package model

import (
	"errors"
	"fmt"
	"log/slog"
)

var ErrNoProvider = errors.New("model: no provider for part kind")

// Provider builds the view for m and binds the two into a controller.
type Provider func(m *Mesh) (*Controller, error)

// Factory creates parts by kind. Lookup is exact: a kind with no registered
// provider yields ErrNoProvider, never another kind's provider.
type Factory struct {
	providers map[PartKind]Provider
	tube      TubeDimensions
	log       *slog.Logger
}

// NewFactory returns a factory with no providers.
func NewFactory(log *slog.Logger) *Factory {
	return &Factory{
		providers: make(map[PartKind]Provider),
		tube:      DefaultTubeDimensions(),
		log:       loggerOrDiscard(log),
	}
}

// BasicFactory returns a factory that gives every kind a BasicView.
func BasicFactory(log *slog.Logger) *Factory {
	f := NewFactory(log)
	for k := range partKindNames {
		f.Register(k, f.BasicProvider)
	}
	return f
}

// BasicProvider binds m to a new BasicView.
func (f *Factory) BasicProvider(m *Mesh) (*Controller, error) {
	return NewController(m, NewBasicView(f.log))
}

func (f *Factory) Register(kind PartKind, p Provider) {
	f.providers[kind] = p
}

func (f *Factory) Logger() *slog.Logger { return f.log }

// SetTubeDefaults sets the dimensions new tubes start with.
func (f *Factory) SetTubeDefaults(d TubeDimensions) error {
	if err := d.Validate(); err != nil {
		return err
	}
	f.tube = d
	return nil
}

// CreateController binds m using the provider registered for its kind.
func (f *Factory) CreateController(m *Mesh) (*Controller, error) {
	if m == nil {
		return nil, ErrNilMesh
	}
	p, ok := f.providers[m.Kind()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, m.Kind())
	}
	return p(m)
}

// New creates an empty part of the given kind.
func (f *Factory) New(kind PartKind) (*Controller, error) {
	m := NewMesh(f.log, kind)
	if kind == KindTube {
		if err := m.SetTubeDimensions(f.tube); err != nil {
			return nil, err
		}
	}
	return f.CreateController(m)
}
