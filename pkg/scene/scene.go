package scene

import (
	"fmt"
	"log/slog"

	"github.com/chazu/partgraph/pkg/model"
	"github.com/google/uuid"
)

// Scene is the set of root parts of a model plus an index of named parts.
// Every part reachable from a root through owned links belongs to the scene.
type Scene struct {
	Roots     []*model.Controller
	NameIndex map[string]*model.Controller

	log *slog.Logger
}

// New creates an empty scene.
func New(log *slog.Logger) *Scene {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Scene{
		NameIndex: make(map[string]*model.Controller),
		log:       log.With("component", "scene"),
	}
}

// AddRoot marks c as a root, indexes its subtree and gives every part in it
// an Id. Adding a root twice is a no-op.
func (s *Scene) AddRoot(c *model.Controller) {
	if c == nil {
		return
	}
	for _, r := range s.Roots {
		if r == c {
			return
		}
	}
	c.SetRoot(true)
	s.Roots = append(s.Roots, c)
	s.Index(c)
}

// RemoveRoot drops c from the roots and unmarks it.
func (s *Scene) RemoveRoot(c *model.Controller) {
	for i, r := range s.Roots {
		if r == c {
			s.Roots = append(s.Roots[:i:i], s.Roots[i+1:]...)
			c.SetRoot(false)
			s.Reindex()
			return
		}
	}
}

// Index adds c's subtree to the name index and assigns missing Ids.
func (s *Scene) Index(c *model.Controller) {
	walkFrom(c, make(map[*model.Controller]bool), 0, func(p *model.Controller, _ int) error {
		if p.Property(model.ID) == "" {
			p.SetProperty(model.ID, uuid.NewString())
		}
		if name := p.Property(model.Name); name != "" {
			if prev, ok := s.NameIndex[name]; ok && prev != p {
				s.log.Warn("name reused", "name", name)
			}
			s.NameIndex[name] = p
		}
		return nil
	})
}

// Reindex rebuilds the name index from the roots.
func (s *Scene) Reindex() {
	s.NameIndex = make(map[string]*model.Controller)
	for _, r := range s.Roots {
		s.Index(r)
	}
}

// Lookup returns the part with the given name, or nil.
func (s *Scene) Lookup(name string) *model.Controller {
	return s.NameIndex[name]
}

// MustLookup returns the part with the given name, or panics.
func (s *Scene) MustLookup(name string) *model.Controller {
	c := s.Lookup(name)
	if c == nil {
		panic(fmt.Sprintf("scene: no part named %q", name))
	}
	return c
}

// Find returns the part with the given Id, or nil.
func (s *Scene) Find(id string) *model.Controller {
	var found *model.Controller
	s.Walk(func(c *model.Controller, _ int) error {
		if found == nil && c.Property(model.ID) == id {
			found = c
		}
		return nil
	})
	return found
}

// Walk visits every part reachable from the roots once, depth first, parents
// before their entities. It stops at the first error fn returns.
func (s *Scene) Walk(fn func(c *model.Controller, depth int) error) error {
	seen := make(map[*model.Controller]bool)
	for _, r := range s.Roots {
		if err := walkFrom(r, seen, 0, fn); err != nil {
			return err
		}
	}
	return nil
}

func walkFrom(c *model.Controller, seen map[*model.Controller]bool, depth int, fn func(*model.Controller, int) error) error {
	if seen[c] {
		return nil
	}
	seen[c] = true
	if err := fn(c, depth); err != nil {
		return err
	}
	for _, e := range Owned(c) {
		if err := walkFrom(e, seen, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Owned returns c's entities in the categories its kind owns.
func Owned(c *model.Controller) []*model.Controller {
	var out []*model.Controller
	m := c.Mesh()
	for _, cat := range m.Categories() {
		if model.LinkFor(c.Kind(), cat).Cloned() {
			out = append(out, m.EntitiesFromCategory(cat)...)
		}
	}
	return out
}

// Parts returns every part in the scene in walk order.
func (s *Scene) Parts() []*model.Controller {
	var parts []*model.Controller
	s.Walk(func(c *model.Controller, _ int) error {
		parts = append(parts, c)
		return nil
	})
	return parts
}

// PartsOfKind returns the parts of the given kind in walk order.
func (s *Scene) PartsOfKind(kind model.PartKind) []*model.Controller {
	var parts []*model.Controller
	for _, c := range s.Parts() {
		if c.Kind() == kind {
			parts = append(parts, c)
		}
	}
	return parts
}

// PartCount returns the number of parts in the scene.
func (s *Scene) PartCount() int {
	return len(s.Parts())
}
