package model

import (
	"encoding/binary"
	"hash"
	"hash/fnv"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

type hasher struct {
	h   hash.Hash64
	buf [8]byte
}

func newHasher() *hasher {
	return &hasher{h: fnv.New64a()}
}

func (h *hasher) uint(u uint64) {
	binary.LittleEndian.PutUint64(h.buf[:], u)
	h.h.Write(h.buf[:])
}

func (h *hasher) float(f float64) { h.uint(math.Float64bits(f)) }

func (h *hasher) vec(v v3.Vec) {
	h.float(v.X)
	h.float(v.Y)
	h.float(v.Z)
}

func (h *hasher) string(s string) {
	h.h.Write([]byte(s))
	h.h.Write([]byte{0})
}

func (h *hasher) sum() uint64 { return h.h.Sum64() }
