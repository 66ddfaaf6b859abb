// Package model holds the part graph: every part is a Controller binding one
// Mesh (entities by category, string properties) and one View (transformation
// and renderer representation). Mutations notify through update.Manager and
// cascade from a leaf up through every ancestor that observes it.
//
// Part variants (points, vertices, edges, faces, shapes, tubes) are not
// separate types. Each Mesh carries a Topology policy that decides how
// entities are added and removed for that variant, and a rule table (links.go)
// decides which containment links are observed, compared and cloned.
package model
