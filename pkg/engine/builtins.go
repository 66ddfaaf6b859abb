package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/chazu/partgraph/pkg/model"
	"github.com/chazu/partgraph/pkg/scene"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpPart wraps a part so it can be passed between builtins.
type sexpPart struct {
	c *model.Controller
}

func (p *sexpPart) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(part %s)", p.c)
}
func (p *sexpPart) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a vector.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: a flag.
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// float returns the keyword value name as a number, or def when absent.
func (a kwArgs) float(name string, def float64) (float64, error) {
	v, ok := a.kw[name]
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return f, nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_z) and plain strings ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toPropertyValue renders a string, keyword or number as a property value.
func toPropertyValue(s zygo.Sexp) (string, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return strconv.FormatInt(v.Val, 10), nil
	case *zygo.SexpFloat:
		return formatFloat(v.Val), nil
	}
	return toKeywordString(s)
}

// toProperty converts a property key. Keywords are kebab-case
// (:inner-radius -> InnerRadius); strings are taken verbatim.
func toProperty(s zygo.Sexp) (model.Property, error) {
	if name, ok := isKW(s); ok {
		if name == "id" {
			return model.ID, nil
		}
		var sb strings.Builder
		for _, w := range strings.Split(name, "-") {
			if w != "" {
				sb.WriteString(strings.ToUpper(w[:1]) + w[1:])
			}
		}
		return model.Property(sb.String()), nil
	}
	name, err := toString(s)
	if err != nil {
		return "", fmt.Errorf("expected property keyword or string: %w", err)
	}
	if name == "" {
		return "", fmt.Errorf("empty property name")
	}
	return model.Property(name), nil
}

// toPart extracts a part from a sexpPart.
func toPart(s zygo.Sexp) (*model.Controller, error) {
	if p, ok := s.(*sexpPart); ok {
		return p.c, nil
	}
	return nil, fmt.Errorf("expected part, got %T (%s)", s, s.SexpString(nil))
}

// toParts extracts parts from arguments, flattening lists and arrays.
func toParts(args []zygo.Sexp) ([]*model.Controller, error) {
	var out []*model.Controller
	for _, a := range args {
		if _, ok := a.(*sexpPart); !ok {
			if items, err := sexpListToSlice(a); err == nil {
				inner, err := toParts(items)
				if err != nil {
					return nil, err
				}
				out = append(out, inner...)
				continue
			}
		}
		c, err := toPart(a)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// toVec3 extracts a vector from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// vecArgs reads a vector given either as one vec3 or as three numbers.
func vecArgs(args []zygo.Sexp) (v3.Vec, error) {
	switch len(args) {
	case 1:
		return toVec3(args[0])
	case 3:
		var xyz [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return v3.Vec{}, err
			}
			xyz[i] = f
		}
		return v3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
	}
	return v3.Vec{}, fmt.Errorf("expected a vec3 or 3 numbers, got %d arguments", len(args))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// degrees converts a rotation in degrees to radians.
func degrees(v v3.Vec) v3.Vec {
	k := math.Pi / 180
	return v3.Vec{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// matchName returns the entry of names equal to s ignoring case.
func matchName(s string, names ...string) (string, bool) {
	for _, n := range names {
		if strings.EqualFold(s, n) {
			return n, true
		}
	}
	return "", false
}

// ---------------------------------------------------------------------------
// Scene builder
// ---------------------------------------------------------------------------

// builder accumulates the parts a script creates.
type builder struct {
	factory *model.Factory
	names   map[string]*model.Controller
	parts   []*model.Controller
	roots   []*model.Controller
}

func newBuilder(f *model.Factory) *builder {
	return &builder{
		factory: f,
		names:   make(map[string]*model.Controller),
	}
}

// newPart creates a part of kind and applies the :name and :description
// keywords.
func (b *builder) newPart(kind model.PartKind, a kwArgs) (*model.Controller, error) {
	c, err := b.factory.New(kind)
	if err != nil {
		return nil, err
	}
	if err := b.describe(c, a); err != nil {
		return nil, err
	}
	b.parts = append(b.parts, c)
	return c, nil
}

func (b *builder) describe(c *model.Controller, a kwArgs) error {
	if v, ok := a.kw["name"]; ok {
		name, err := toString(v)
		if err != nil {
			return fmt.Errorf("name: %w", err)
		}
		if err := b.name(c, name); err != nil {
			return err
		}
	}
	if v, ok := a.kw["description"]; ok {
		d, err := toString(v)
		if err != nil {
			return fmt.Errorf("description: %w", err)
		}
		c.SetProperty(model.Description, d)
	}
	return nil
}

func (b *builder) name(c *model.Controller, name string) error {
	if name == "" {
		return fmt.Errorf("empty part name")
	}
	if prev, ok := b.names[name]; ok && prev != c {
		return fmt.Errorf("duplicate part name %q", name)
	}
	if old := c.Property(model.Name); old != "" {
		delete(b.names, old)
	}
	c.SetProperty(model.Name, name)
	b.names[name] = c
	return nil
}

func (b *builder) addRoot(c *model.Controller) {
	for _, r := range b.roots {
		if r == c {
			return
		}
	}
	b.roots = append(b.roots, c)
}

// finish adds the roots to s. Without explicit roots every part no other
// part owns becomes one.
func (b *builder) finish(s *scene.Scene) {
	roots := b.roots
	if len(roots) == 0 {
		owned := make(map[*model.Controller]bool)
		for _, c := range b.parts {
			for _, e := range scene.Owned(c) {
				owned[e] = true
			}
		}
		for _, c := range b.parts {
			if !owned[c] {
				roots = append(roots, c)
			}
		}
	}
	for _, r := range roots {
		s.AddRoot(r)
	}
}

// anonymize clears the names and Ids of c's subtree.
func anonymize(c *model.Controller, seen map[*model.Controller]bool) {
	if seen[c] {
		return
	}
	seen[c] = true
	c.SetProperty(model.Name, "")
	c.SetProperty(model.ID, "")
	for _, e := range scene.Owned(c) {
		anonymize(e, seen)
	}
}

// shapeDimensions applies the :radius and :height keywords.
func shapeDimensions(s model.Shape, a kwArgs) error {
	for _, d := range []struct {
		kw string
		p  model.Property
	}{{"radius", model.Radius}, {"height", model.Height}} {
		v, ok := a.kw[d.kw]
		if !ok {
			continue
		}
		f, err := toFloat64(v)
		if err != nil {
			return fmt.Errorf("%s: %w", d.kw, err)
		}
		if f <= 0 {
			return fmt.Errorf("%s must be positive, got %g", d.kw, f)
		}
		s.SetProperty(d.p, formatFloat(f))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene builtins into a zygomys environment.
// The builtins create parts through b, which collects them for the scene.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals and
// kebab-case builtin names reach zygomys in underscore form.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		v, err := vecArgs(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: %w", err)
		}
		return &sexpVec3{vec: v}, nil
	})

	// -----------------------------------------------------------------------
	// (vertex 0 0 0 :name "a"), (point (vec3 1 2 3))
	// -----------------------------------------------------------------------
	for fn, kind := range map[string]model.PartKind{"vertex": model.KindVertex, "point": model.KindPoint} {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			var loc v3.Vec
			if len(pa.positional) > 0 {
				v, err := vecArgs(pa.positional)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: location: %w", fn, err)
				}
				loc = v
			}
			c, err := b.newPart(kind, pa)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
			}
			vtx, _ := model.AsVertex(c)
			vtx.SetLocation(loc)
			return &sexpPart{c: c}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (location v) -> vec3
	// -----------------------------------------------------------------------
	env.AddFunction("location", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("location requires a vertex")
		}
		c, err := toPart(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("location: %w", err)
		}
		v, ok := model.AsVertex(c)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("location: %s is not a vertex", c)
		}
		return &sexpVec3{vec: v.Location()}, nil
	})

	// -----------------------------------------------------------------------
	// (move v 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("move", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 2 {
			return zygo.SexpNull, fmt.Errorf("move requires a vertex and a location")
		}
		c, err := toPart(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("move: %w", err)
		}
		v, ok := model.AsVertex(c)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("move: %s is not a vertex", c)
		}
		loc, err := vecArgs(args[1:])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("move: %w", err)
		}
		v.SetLocation(loc)
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// (edge a b :name "ab")
	// -----------------------------------------------------------------------
	env.AddFunction("edge", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		vs, err := toParts(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("edge: %w", err)
		}
		if len(vs) > 2 {
			return zygo.SexpNull, fmt.Errorf("edge takes at most 2 vertices, got %d", len(vs))
		}
		for _, v := range vs {
			if _, ok := model.AsVertex(v); !ok {
				return zygo.SexpNull, fmt.Errorf("edge: %s is not a vertex", v)
			}
		}
		c, err := b.newPart(model.KindEdge, pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("edge: %w", err)
		}
		for _, v := range vs {
			c.AddEntityToCategory(v, model.Vertices)
		}
		return &sexpPart{c: c}, nil
	})

	// -----------------------------------------------------------------------
	// (edge-length e) -> number
	// -----------------------------------------------------------------------
	env.AddFunction("edge_length", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("edge-length requires an edge")
		}
		c, err := toPart(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("edge-length: %w", err)
		}
		e, ok := model.AsEdge(c)
		if !ok {
			return zygo.SexpNull, fmt.Errorf("edge-length: %s is not an edge", c)
		}
		return &zygo.SexpFloat{Val: e.Length()}, nil
	})

	// -----------------------------------------------------------------------
	// (face e1 e2 e3 :kind :detailed-face :name "tri")
	// -----------------------------------------------------------------------
	env.AddFunction("face", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		kind := model.KindDetailedFace
		if v, ok := pa.kw["kind"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("face: kind: %w", err)
			}
			k, err := model.ParsePartKind(s)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("face: kind: %w", err)
			}
			if k != model.KindFace && k != model.KindEdgeVertexFace && k != model.KindDetailedFace {
				return zygo.SexpNull, fmt.Errorf("face: kind %s is not a face kind", k)
			}
			kind = k
		}
		edges, err := toParts(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face: %w", err)
		}
		for _, e := range edges {
			if _, ok := model.AsEdge(e); !ok {
				return zygo.SexpNull, fmt.Errorf("face: %s is not an edge", e)
			}
		}
		c, err := b.newPart(kind, pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("face: %w", err)
		}
		m := c.Mesh()
		m.Updates().Enqueue()
		for _, e := range edges {
			c.AddEntityToCategory(e, model.Edges)
		}
		m.Updates().Flush()
		return &sexpPart{c: c}, nil
	})

	// -----------------------------------------------------------------------
	// (shape :type :sphere :radius 2)
	// (shape :operator :complement outer inner)
	// -----------------------------------------------------------------------
	env.AddFunction("shape", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		children, err := toParts(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("shape: %w", err)
		}
		for _, ch := range children {
			if _, ok := model.AsShape(ch); !ok {
				return zygo.SexpNull, fmt.Errorf("shape: child %s is not a shape", ch)
			}
		}

		c, err := b.newPart(model.KindShape, pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("shape: %w", err)
		}
		s, _ := model.AsShape(c)
		if v, ok := pa.kw["type"]; ok {
			t, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("shape: type: %w", err)
			}
			typ, ok := matchName(t, model.ShapeCube, model.ShapeSphere, model.ShapeCylinder, model.ShapeCone)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("shape: unknown type %q", t)
			}
			s.SetShapeType(typ)
		}
		if v, ok := pa.kw["operator"]; ok {
			o, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("shape: operator: %w", err)
			}
			op, ok := matchName(o, model.OpUnion, model.OpIntersection, model.OpComplement)
			if !ok {
				return zygo.SexpNull, fmt.Errorf("shape: unknown operator %q", o)
			}
			s.SetOperator(op)
		}
		if err := shapeDimensions(s, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("shape: %w", err)
		}

		m := c.Mesh()
		m.Updates().Enqueue()
		for _, ch := range children {
			s.AddChild(ch)
		}
		m.Updates().Flush()
		return &sexpPart{c: c}, nil
	})

	// -----------------------------------------------------------------------
	// (tube :length 2 :radius 1 :inner-radius 0.5 :radial-samples 16)
	// -----------------------------------------------------------------------
	env.AddFunction("tube", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		c, err := b.newPart(model.KindTube, pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("tube: %w", err)
		}
		d, err := c.Mesh().TubeDimensions()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("tube: %w", err)
		}
		if d.Length, err = pa.float("length", d.Length); err != nil {
			return zygo.SexpNull, fmt.Errorf("tube: %w", err)
		}
		if d.Radius, err = pa.float("radius", d.Radius); err != nil {
			return zygo.SexpNull, fmt.Errorf("tube: %w", err)
		}
		if d.InnerRadius, err = pa.float("inner-radius", d.InnerRadius); err != nil {
			return zygo.SexpNull, fmt.Errorf("tube: %w", err)
		}
		axial, err := pa.float("axial-samples", float64(d.AxialSamples))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("tube: %w", err)
		}
		radial, err := pa.float("radial-samples", float64(d.RadialSamples))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("tube: %w", err)
		}
		d.AxialSamples, d.RadialSamples = int(axial), int(radial)
		if err := c.Mesh().SetTubeDimensions(d); err != nil {
			return zygo.SexpNull, fmt.Errorf("tube: %w", err)
		}
		return &sexpPart{c: c}, nil
	})

	// -----------------------------------------------------------------------
	// (group :name "g" a b c)
	// -----------------------------------------------------------------------
	env.AddFunction("group", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		members, err := toParts(pa.positional)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("group: %w", err)
		}
		c, err := b.newPart(model.KindBasic, pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("group: %w", err)
		}
		m := c.Mesh()
		m.Updates().Enqueue()
		for _, p := range members {
			c.AddEntity(p)
		}
		m.Updates().Flush()
		return &sexpPart{c: c}, nil
	})

	// -----------------------------------------------------------------------
	// (add-child parent child)
	// -----------------------------------------------------------------------
	env.AddFunction("add_child", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("add-child requires a parent and a child")
		}
		parts, err := toParts(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("add-child: %w", err)
		}
		parent, child := parts[0], parts[1]
		if s, ok := model.AsShape(parent); ok {
			if _, ok := model.AsShape(child); !ok {
				return zygo.SexpNull, fmt.Errorf("add-child: child %s is not a shape", child)
			}
			s.AddChild(child)
		} else {
			parent.AddEntity(child)
		}
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// (remove-part parent child)
	// -----------------------------------------------------------------------
	env.AddFunction("remove_part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("remove-part requires a parent and a child")
		}
		parts, err := toParts(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("remove-part: %w", err)
		}
		parts[0].RemoveEntity(parts[1])
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// (translate p 1 2 3), (rotate p 0 0 90), (scale p 2 1 1), (skew p 0.1 0 0)
	// Rotation is in degrees and, like translation and scale, accumulates.
	// -----------------------------------------------------------------------
	transform := func(fn string, apply func(t *model.Transformation, v v3.Vec)) {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires a part and a vector", fn)
			}
			c, err := toPart(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
			}
			v, err := vecArgs(args[1:])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
			}
			apply(c.Transformation(), v)
			return args[0], nil
		})
	}
	transform("translate", func(t *model.Transformation, v v3.Vec) { t.Translate(v) })
	transform("rotate", func(t *model.Transformation, v v3.Vec) {
		r, d := t.Rotation(), degrees(v)
		t.SetRotation(v3.Vec{X: r.X + d.X, Y: r.Y + d.Y, Z: r.Z + d.Z})
	})
	transform("scale", func(t *model.Transformation, v v3.Vec) {
		s := t.Scale()
		t.SetScale(v3.Vec{X: s.X * v.X, Y: s.Y * v.Y, Z: s.Z * v.Z})
	})
	transform("skew", func(t *model.Transformation, v v3.Vec) { t.SetSkew(v) })

	// -----------------------------------------------------------------------
	// (set-size p 2)
	// -----------------------------------------------------------------------
	env.AddFunction("set_size", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("set-size requires a part and a size")
		}
		c, err := toPart(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("set-size: %w", err)
		}
		f, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("set-size: %w", err)
		}
		c.SetSize(f)
		return args[0], nil
	})

	// -----------------------------------------------------------------------
	// (set-property p :description "text"), (get-property p "Name")
	// -----------------------------------------------------------------------
	env.AddFunction("set_property", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("set-property requires a part, a key and a value")
		}
		c, err := toPart(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("set-property: %w", err)
		}
		p, err := toProperty(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("set-property: %w", err)
		}
		value, err := toPropertyValue(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("set-property: %w", err)
		}
		if p == model.Name {
			if err := b.name(c, value); err != nil {
				return zygo.SexpNull, fmt.Errorf("set-property: %w", err)
			}
			return args[0], nil
		}
		c.SetProperty(p, value)
		return args[0], nil
	})

	env.AddFunction("get_property", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("get-property requires a part and a key")
		}
		c, err := toPart(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("get-property: %w", err)
		}
		p, err := toProperty(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("get-property: %w", err)
		}
		return &zygo.SexpStr{S: c.Property(p)}, nil
	})

	// -----------------------------------------------------------------------
	// (select-part a b), (deselect-part a)
	// -----------------------------------------------------------------------
	for fn, on := range map[string]bool{"select_part": true, "deselect_part": false} {
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			parts, err := toParts(args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
			}
			for _, c := range parts {
				c.SetSelected(on)
			}
			return zygo.SexpNull, nil
		})
	}

	// -----------------------------------------------------------------------
	// (clone p :name "copy")
	// A clone and its subtree start anonymous so names stay unique.
	// -----------------------------------------------------------------------
	env.AddFunction("clone", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 1 {
			return zygo.SexpNull, fmt.Errorf("clone requires one part")
		}
		c, err := toPart(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("clone: %w", err)
		}
		cp := c.Clone()
		anonymize(cp, make(map[*model.Controller]bool))
		if err := b.describe(cp, pa); err != nil {
			return zygo.SexpNull, fmt.Errorf("clone: %w", err)
		}
		b.parts = append(b.parts, cp)
		return &sexpPart{c: cp}, nil
	})

	// -----------------------------------------------------------------------
	// (part "name")
	// -----------------------------------------------------------------------
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("part requires a name argument")
		}

		partName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
		}

		c, ok := b.names[partName]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("part: no part named %q", partName)
		}
		return &sexpPart{c: c}, nil
	})

	// -----------------------------------------------------------------------
	// (root a b)
	// -----------------------------------------------------------------------
	env.AddFunction("root", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		parts, err := toParts(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("root: %w", err)
		}
		for _, c := range parts {
			b.addRoot(c)
		}
		return zygo.SexpNull, nil
	})
}
