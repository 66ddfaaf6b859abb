package model

// Link says how a container treats the entities it holds in one category.
type Link int

const (
	// LinkOwned entities are observed by the container, take part in its
	// equality and hash, and are cloned with it.
	LinkOwned Link = iota
	// LinkBackRef entities point back at something that already owns the
	// container. They are not observed, compared or cloned.
	LinkBackRef
	// LinkUpward entities are observed (a part follows its parent) but are not
	// compared or cloned; the clone gets its parent from whoever adds it.
	LinkUpward
)

func (l Link) Observed() bool { return l != LinkBackRef }
func (l Link) Compared() bool { return l == LinkOwned }
func (l Link) Cloned() bool { return l == LinkOwned }

// linkRules lists every (kind, category) pair that is not LinkOwned.
var linkRules = map[PartKind]map[Category]Link{
	KindVertex: {Edges: LinkBackRef},
	KindEdge:   {Faces: LinkBackRef},
	KindShape:  {Parent: LinkUpward},
	KindTube:   {Parent: LinkUpward},
}

// LinkFor returns how a mesh of kind treats entities in cat.
func LinkFor(kind PartKind, cat Category) Link {
	if l, ok := linkRules[kind][cat]; ok {
		return l
	}
	return LinkOwned
}
