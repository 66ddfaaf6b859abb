package render

import (
	"log/slog"

	"github.com/chazu/partgraph/pkg/kernel"
	"github.com/chazu/partgraph/pkg/model"
)

// Provider binds shape meshes to a SolidView on k.
func Provider(log *slog.Logger, k kernel.Kernel) model.Provider {
	return func(m *model.Mesh) (*model.Controller, error) {
		c, err := model.NewController(m, NewSolidView(log, k))
		if err != nil {
			return nil, err
		}
		c.Refresh()
		return c, nil
	}
}

// NewFactory returns a factory where shapes and tubes get a SolidView and
// every other kind a BasicView.
func NewFactory(log *slog.Logger, k kernel.Kernel) *model.Factory {
	f := model.BasicFactory(log)
	p := Provider(f.Logger(), k)
	f.Register(model.KindShape, p)
	f.Register(model.KindTube, p)
	return f
}
