package model

import "fmt"

// Category partitions a mesh's child entities. The set is open: any string
// is a valid category, the constants below are the ones the part variants
// understand.
type Category string

const (
	Default  Category = "Default"
	Vertices Category = "Vertices"
	Edges    Category = "Edges"
	Faces    Category = "Faces"
	Children Category = "Children"
	Parent   Category = "Parent"
)

// Property keys a mesh's string-valued properties. Like Category the set is
// open.
type Property string

const (
	ID            Property = "Id"
	Name          Property = "Name"
	Description   Property = "Description"
	Type          Property = "Type"
	Operator      Property = "Operator"
	Radius        Property = "Radius"
	InnerRadius   Property = "InnerRadius"
	Length        Property = "Length"
	Height        Property = "Height"
	Resolution    Property = "Resolution"
	AxialSamples  Property = "AxialSamples"
	RadialSamples Property = "RadialSamples"
	Root          Property = "Root"
	Selected      Property = "Selected"
)

// Boolean property values. Flags are stored as these strings, not as native
// booleans, and every reader compares against True.
const (
	True  = "True"
	False = "False"
)

func boolString(b bool) string {
	if b {
		return True
	}
	return False
}

// Shape type values for the Type property of shapes.
const (
	ShapeCube     = "Cube"
	ShapeSphere   = "Sphere"
	ShapeCylinder = "Cylinder"
	ShapeCone     = "Cone"
	ShapeTube     = "Tube"
)

// CSG operator values for the Operator property of shapes with children.
const (
	OpUnion        = "Union"
	OpIntersection = "Intersection"
	OpComplement   = "Complement"
)

// MeshType fixes how a mesh's properties and entities are interpreted.
type MeshType int

const (
	MeshSimple       MeshType = iota + 1 // plain geometry
	MeshVolumetric                       // a solid volume
	MeshCustomPart                       // defined by its properties alone
	MeshConstructive                     // CSG combination of its children
)

// Valid reports whether t is one of the declared mesh types.
func (t MeshType) Valid() bool {
	return t >= MeshSimple && t <= MeshConstructive
}

func (t MeshType) String() string {
	switch t {
	case MeshSimple:
		return "simple"
	case MeshVolumetric:
		return "volumetric"
	case MeshCustomPart:
		return "custom-part"
	case MeshConstructive:
		return "constructive"
	default:
		return fmt.Sprintf("MeshType(%d)", int(t))
	}
}

// PartKind tags which topology policy a mesh runs. Factories are keyed by it.
type PartKind int

const (
	KindBasic          PartKind = iota // no containment rules beyond the defaults
	KindPoint                          // a located point
	KindVertex                         // a point that tracks its incident edges
	KindEdge                           // at most two vertices, keeps its length
	KindFace                           // plain face
	KindEdgeVertexFace                 // keeps Edges and Vertices in lockstep
	KindDetailedFace                   // lockstep plus registration in its edges' Faces
	KindShape                          // CSG node with one parent and children
	KindTube                           // shape with validated tube dimensions
)

var partKindNames = map[PartKind]string{
	KindBasic:          "basic",
	KindPoint:          "point",
	KindVertex:         "vertex",
	KindEdge:           "edge",
	KindFace:           "face",
	KindEdgeVertexFace: "edge-vertex-face",
	KindDetailedFace:   "detailed-face",
	KindShape:          "shape",
	KindTube:           "tube",
}

func (k PartKind) String() string {
	if s, ok := partKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("PartKind(%d)", int(k))
}

// ParsePartKind is the inverse of PartKind.String.
func ParsePartKind(s string) (PartKind, error) {
	for k, name := range partKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("model: unknown part kind %q", s)
}
