package scene

import (
	"fmt"

	"github.com/chazu/partgraph/pkg/model"
)

// ValidationSeverity indicates whether a validation finding means the scene
// is broken or is merely informational.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // broken invariant
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Part     *model.Controller // which part has the problem (nil if scene-level)
	Message  string
	Severity ValidationSeverity
}

func (e ValidationError) Error() string {
	if e.Part == nil {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] part %s: %s", e.Severity, e.Part, e.Message)
}

// Validate checks the invariants the part graph relies on and returns every
// finding. An empty slice means the scene is valid. It never mutates the
// scene.
func Validate(s *Scene) []ValidationError {
	parts := s.Parts()
	var errs []ValidationError
	errs = append(errs, validateObservation(parts)...)
	errs = append(errs, validateEdges(parts)...)
	errs = append(errs, validateFaces(parts)...)
	errs = append(errs, validateShapes(parts)...)
	errs = append(errs, validateNames(s, parts)...)
	errs = append(errs, validateRoots(s)...)
	return errs
}

// HasErrors reports whether errs holds an error-severity finding.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

// observers returns the controllers whose meshes listen to c.
func observers(c *model.Controller) []*model.Controller {
	var out []*model.Controller
	for _, l := range c.Updates().Listeners() {
		if m, ok := l.(*model.Mesh); ok && m.Controller() != nil {
			out = append(out, m.Controller())
		}
	}
	return out
}

// validateObservation checks that notifications cannot loop: the graph of
// "c is observed by" edges must be acyclic. It uses DFS with 3-color marking.
// White (0) = unvisited, gray (1) = in current DFS path, black (2) = fully explored.
func validateObservation(parts []*model.Controller) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	color := make(map[*model.Controller]int)
	var errs []ValidationError

	var visit func(c *model.Controller) bool // returns true if cycle found
	visit = func(c *model.Controller) bool {
		switch color[c] {
		case black:
			return false
		case gray:
			errs = append(errs, ValidationError{
				Part:     c,
				Message:  "observation cycle: a change here would be renotified forever",
				Severity: SeverityError,
			})
			return true
		}

		color[c] = gray
		for _, o := range observers(c) {
			if visit(o) {
				return true
			}
		}
		color[c] = black
		return false
	}

	for _, c := range parts {
		if color[c] == white && visit(c) {
			// One cycle error is sufficient; stop early.
			break
		}
	}
	return errs
}

// validateEdges checks edge capacity and the vertex back references.
func validateEdges(parts []*model.Controller) []ValidationError {
	var errs []ValidationError
	for _, c := range parts {
		e, ok := model.AsEdge(c)
		if !ok {
			continue
		}
		vs := c.EntitiesFromCategory(model.Vertices)
		switch {
		case len(vs) > 2:
			errs = append(errs, ValidationError{
				Part:     c,
				Message:  fmt.Sprintf("edge has %d vertices", len(vs)),
				Severity: SeverityError,
			})
		case len(vs) < 2:
			errs = append(errs, ValidationError{
				Part:     c,
				Message:  fmt.Sprintf("edge is incomplete with %d vertices", len(vs)),
				Severity: SeverityWarning,
			})
		}
		for _, v := range e.Vertices() {
			if v.Kind() == model.KindVertex && !v.Mesh().Contains(model.Edges, c) {
				errs = append(errs, ValidationError{
					Part:     c,
					Message:  fmt.Sprintf("vertex %s does not list the edge", v.Controller),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateFaces checks that lockstep faces hold every vertex of every edge.
func validateFaces(parts []*model.Controller) []ValidationError {
	var errs []ValidationError
	for _, c := range parts {
		if c.Kind() != model.KindEdgeVertexFace && c.Kind() != model.KindDetailedFace {
			continue
		}
		for _, e := range c.EntitiesFromCategory(model.Edges) {
			for _, v := range e.EntitiesFromCategory(model.Vertices) {
				if !c.Mesh().Contains(model.Vertices, v) {
					errs = append(errs, ValidationError{
						Part:     c,
						Message:  fmt.Sprintf("vertex %s of edge %s missing from face", v, e),
						Severity: SeverityError,
					})
				}
			}
			if c.Kind() == model.KindDetailedFace && e.Kind() == model.KindEdge && !e.Mesh().Contains(model.Faces, c) {
				errs = append(errs, ValidationError{
					Part:     c,
					Message:  fmt.Sprintf("edge %s does not list the face", e),
					Severity: SeverityError,
				})
			}
		}
	}
	return errs
}

// validateShapes checks the single-parent rule, that children point back at
// the shape holding them and that tubes have valid dimensions.
func validateShapes(parts []*model.Controller) []ValidationError {
	var errs []ValidationError
	for _, c := range parts {
		s, ok := model.AsShape(c)
		if !ok {
			continue
		}
		if n := len(c.EntitiesFromCategory(model.Parent)); n > 1 {
			errs = append(errs, ValidationError{
				Part:     c,
				Message:  fmt.Sprintf("shape has %d parents", n),
				Severity: SeverityError,
			})
		}
		for _, child := range s.Children() {
			cs, ok := model.AsShape(child)
			if !ok {
				continue
			}
			if cs.Parent() != c {
				errs = append(errs, ValidationError{
					Part:     c,
					Message:  fmt.Sprintf("child %s does not point back at its shape", child),
					Severity: SeverityError,
				})
			}
		}
		if c.Kind() == model.KindTube {
			if _, err := c.Mesh().TubeDimensions(); err != nil {
				errs = append(errs, ValidationError{Part: c, Message: err.Error(), Severity: SeverityError})
			}
		}
	}
	return errs
}

// validateNames checks that no two parts share a name and that every index
// entry points at a part in the scene.
func validateNames(s *Scene, parts []*model.Controller) []ValidationError {
	var errs []ValidationError

	inScene := make(map[*model.Controller]bool, len(parts))
	byName := make(map[string]int)
	for _, c := range parts {
		inScene[c] = true
		if name := c.Property(model.Name); name != "" {
			byName[name]++
		}
	}
	for name, n := range byName {
		if n > 1 {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("duplicate name %q assigned to %d parts", name, n),
				Severity: SeverityError,
			})
		}
	}
	for name, c := range s.NameIndex {
		if !inScene[c] {
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("name index entry %q references a part outside the scene", name),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateRoots warns about roots that are not flagged as roots or that sit
// below another root.
func validateRoots(s *Scene) []ValidationError {
	var errs []ValidationError
	below := make(map[*model.Controller]bool)
	for _, r := range s.Roots {
		walkFrom(r, make(map[*model.Controller]bool), 0, func(c *model.Controller, depth int) error {
			if depth > 0 {
				below[c] = true
			}
			return nil
		})
	}
	for _, r := range s.Roots {
		if !r.IsRoot() {
			errs = append(errs, ValidationError{
				Part:     r,
				Message:  "root is not flagged Root",
				Severity: SeverityWarning,
			})
		}
		if below[r] {
			errs = append(errs, ValidationError{
				Part:     r,
				Message:  "root is also reachable from another root",
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}
