package model

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
)

var ErrInvalidTube = errors.New("model: invalid tube dimensions")

// shapeTopology is a CSG node. It has at most one parent, which it observes,
// and children, which it observes and which point back at it through their
// own Parent without observing it. Selection cascades to the children.
type shapeTopology struct {
	baseTopology
	tube bool
}

func (t *shapeTopology) init(m *Mesh) {
	if !t.tube {
		return
	}
	m.meshType = MeshVolumetric
	m.properties[Type] = ShapeTube
	for p, v := range DefaultTubeDimensions().properties() {
		m.properties[p] = v
	}
}

func (t *shapeTopology) addEntity(m *Mesh, c *Controller, cat Category) {
	switch cat {
	case Parent:
		t.setParent(m, c, true)
	case Children:
		m.updates.Enqueue()
		defer m.updates.Flush()
		if m.controller != nil {
			// the child follows this shape through Parent from now on
			m.controller.Unregister(c.mesh)
		}
		if !m.insert(c, Children, true) {
			return
		}
		if st, ok := shapeOf(c); ok && m.controller != nil {
			st.setParent(c.mesh, m.controller, false)
		}
	default:
		t.baseTopology.addEntity(m, c, cat)
	}
}

// setParent replaces the parent, dropping the old one. An old parent that
// still lists the shape among its children lets go of it. With observe set
// the mesh also listens to the new parent.
func (t *shapeTopology) setParent(m *Mesh, p *Controller, observe bool) {
	cur := m.entities[Parent]
	if len(cur) == 1 && cur[0] == p {
		if observe {
			p.Register(m)
		}
		return
	}

	m.updates.Enqueue()
	defer m.updates.Flush()
	for _, old := range slices.Clone(cur) {
		m.removeFrom(old, Parent)
		if m.controller != nil && old.mesh.Contains(Children, m.controller) {
			old.RemoveEntity(m.controller)
		}
	}
	if p == nil {
		return
	}
	m.insert(p, Parent, false)
	if observe {
		p.Register(m)
	}
}

func (t *shapeTopology) removeEntity(m *Mesh, c *Controller) {
	child := m.Contains(Children, c)

	m.updates.Enqueue()
	defer m.updates.Flush()
	if !m.remove(c) || !child || m.controller == nil {
		return
	}
	if st, ok := shapeOf(c); ok && c.mesh.Contains(Parent, m.controller) {
		st.setParent(c.mesh, nil, false)
	}
}

func (t *shapeTopology) setProperty(m *Mesh, p Property, value string) {
	if t.tube {
		if err := validateTubeProperty(m, p, value); err != nil {
			m.log.Error("rejecting tube property", "property", p, "value", value, "err", err)
			return
		}
	}
	if p != Selected {
		m.setProperty(p, value)
		return
	}

	m.updates.Enqueue()
	defer m.updates.Flush()
	m.setProperty(p, value)
	for _, c := range m.entities[Children] {
		c.SetProperty(Selected, value)
	}
}

func (t *shapeTopology) controllerSet(m *Mesh, c *Controller) {
	for _, child := range m.entities[Children] {
		if st, ok := shapeOf(child); ok {
			c.Unregister(child.mesh)
			st.setParent(child.mesh, c, false)
		}
	}
}

func shapeOf(c *Controller) (*shapeTopology, bool) {
	st, ok := c.mesh.topology.(*shapeTopology)
	return st, ok
}

// TubeDimensions are the validated dimensions of a tube.
type TubeDimensions struct {
	Length        float64
	Radius        float64 // outer radius
	InnerRadius   float64
	AxialSamples  int
	RadialSamples int
}

func DefaultTubeDimensions() TubeDimensions {
	return TubeDimensions{
		Length:        1,
		Radius:        1,
		InnerRadius:   0.9,
		AxialSamples:  1,
		RadialSamples: 10,
	}
}

func (d TubeDimensions) Validate() error {
	switch {
	case d.Length <= 0:
		return fmt.Errorf("%w: length %g must be positive", ErrInvalidTube, d.Length)
	case d.Radius <= 0:
		return fmt.Errorf("%w: radius %g must be positive", ErrInvalidTube, d.Radius)
	case d.InnerRadius <= 0 || d.InnerRadius >= d.Radius:
		return fmt.Errorf("%w: inner radius %g must be in (0, %g)", ErrInvalidTube, d.InnerRadius, d.Radius)
	case d.AxialSamples <= 0:
		return fmt.Errorf("%w: axial samples %d must be positive", ErrInvalidTube, d.AxialSamples)
	case d.RadialSamples <= 2:
		return fmt.Errorf("%w: radial samples %d must be greater than 2", ErrInvalidTube, d.RadialSamples)
	}
	return nil
}

func (d TubeDimensions) properties() map[Property]string {
	return map[Property]string{
		Length:        strconv.FormatFloat(d.Length, 'g', -1, 64),
		Radius:        strconv.FormatFloat(d.Radius, 'g', -1, 64),
		InnerRadius:   strconv.FormatFloat(d.InnerRadius, 'g', -1, 64),
		AxialSamples:  strconv.Itoa(d.AxialSamples),
		RadialSamples: strconv.Itoa(d.RadialSamples),
	}
}

func tubeDimensionsFrom(props map[Property]string) (TubeDimensions, error) {
	var d TubeDimensions
	var err error
	floats := []struct {
		p   Property
		dst *float64
	}{{Length, &d.Length}, {Radius, &d.Radius}, {InnerRadius, &d.InnerRadius}}
	for _, f := range floats {
		if *f.dst, err = strconv.ParseFloat(props[f.p], 64); err != nil {
			return d, fmt.Errorf("%w: %s: %v", ErrInvalidTube, f.p, err)
		}
	}
	ints := []struct {
		p   Property
		dst *int
	}{{AxialSamples, &d.AxialSamples}, {RadialSamples, &d.RadialSamples}}
	for _, i := range ints {
		if *i.dst, err = strconv.Atoi(props[i.p]); err != nil {
			return d, fmt.Errorf("%w: %s: %v", ErrInvalidTube, i.p, err)
		}
	}
	return d, nil
}

func isTubeDimension(p Property) bool {
	switch p {
	case Length, Radius, InnerRadius, AxialSamples, RadialSamples:
		return true
	}
	return false
}

// validateTubeProperty checks the tube's dimensions as they would be after
// setting p to value.
func validateTubeProperty(m *Mesh, p Property, value string) error {
	if !isTubeDimension(p) {
		return nil
	}
	props := map[Property]string{}
	for q := range DefaultTubeDimensions().properties() {
		props[q] = m.properties[q]
	}
	props[p] = value
	d, err := tubeDimensionsFrom(props)
	if err != nil {
		return err
	}
	return d.Validate()
}

// TubeDimensions parses a tube's dimensions from its properties.
func (m *Mesh) TubeDimensions() (TubeDimensions, error) {
	if m.Kind() != KindTube {
		return TubeDimensions{}, fmt.Errorf("model: %s is not a tube", m.Kind())
	}
	return tubeDimensionsFrom(m.properties)
}

// SetTubeDimensions validates d and sets all dimensions as one change.
func (m *Mesh) SetTubeDimensions(d TubeDimensions) error {
	if m.Kind() != KindTube {
		return fmt.Errorf("model: %s is not a tube", m.Kind())
	}
	if err := d.Validate(); err != nil {
		return err
	}
	m.updates.Enqueue()
	defer m.updates.Flush()
	for p, v := range d.properties() {
		m.setProperty(p, v)
	}
	return nil
}
