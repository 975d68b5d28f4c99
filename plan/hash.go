package plan

import (
	"github.com/viant/jsonhash/dispatch"
	"github.com/viant/jsonhash/reader"
)

// Hash dispatches keys by their FNV-1a hash. Keys are not compared by text:
// an unknown key sharing a hash with an alias is decoded as that alias.
type Hash struct {
	*program
	table *dispatch.Table
}

// Decode implements Plan.
func (h *Hash) Decode(r *reader.Reader) (interface{}, error) {
	return h.decode(h, r)
}

func (h *Hash) match(r *reader.Reader) (int, bool, error) {
	fieldHash, err := r.ReadFieldHash()
	if err != nil {
		return 0, false, err
	}
	slot, ok := h.table.Lookup(fieldHash)
	return slot, ok, nil
}

// Lookup returns the binding slot of a key hash.
func (h *Hash) Lookup(fieldHash uint32) (int, bool) {
	return h.table.Lookup(fieldHash)
}

// Cases implements Plan.
func (h *Hash) Cases() []dispatch.Case { return h.table.Cases() }

// Collision implements Plan; hash plans have none.
func (h *Hash) Collision() *dispatch.Collision { return nil }
