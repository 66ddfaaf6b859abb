package update

import "strings"

// Kind is a set of change-notification tags. Several kinds can be combined
// with bitwise OR and are delivered together in one notification.
type Kind uint8

const (
	Property       Kind = 1 << iota // a non-selection property changed
	Child                           // a child entity was added or removed
	Selection                       // the "Selected" property changed
	Transformation                  // a transformation field changed
	All                             // catch-all; as a subscription it matches every kind
)

// Every is the union of all kinds, used for whole-object changes like copy.
const Every = Property | Child | Selection | Transformation | All

var kindNames = []struct {
	k    Kind
	name string
}{
	{Property, "PROPERTY"},
	{Child, "CHILD"},
	{Selection, "SELECTION"},
	{Transformation, "TRANSFORMATION"},
	{All, "ALL"},
}

// Has reports whether every kind in o is present in k.
func (k Kind) Has(o Kind) bool {
	return o != 0 && k&o == o
}

// Kinds splits the mask into its individual kinds, in declaration order.
func (k Kind) Kinds() []Kind {
	var out []Kind
	for _, kn := range kindNames {
		if k&kn.k != 0 {
			out = append(out, kn.k)
		}
	}
	return out
}

// Filter returns the part of k that a listener subscribed to subs should see.
// A subscription containing All passes everything through.
func (k Kind) Filter(subs Kind) Kind {
	if subs&All != 0 {
		return k
	}
	return k & subs
}

func (k Kind) String() string {
	if k == 0 {
		return "NONE"
	}
	names := make([]string, 0, len(kindNames))
	for _, kn := range kindNames {
		if k&kn.k != 0 {
			names = append(names, kn.name)
		}
	}
	return strings.Join(names, "|")
}
