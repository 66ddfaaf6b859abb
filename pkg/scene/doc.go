// Package scene holds a part graph's roots and name index, walks it and
// validates its structural invariants.
package scene
