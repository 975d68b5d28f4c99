package plan

import (
	"github.com/viant/jsonhash/dispatch"
	"github.com/viant/jsonhash/reader"
)

// Strict compares each key against every alias in declaration order.
type Strict struct {
	*program
	aliases   []dispatch.Alias
	collision *dispatch.Collision
}

// Decode implements Plan.
func (s *Strict) Decode(r *reader.Reader) (interface{}, error) {
	return s.decode(s, r)
}

func (s *Strict) match(r *reader.Reader) (int, bool, error) {
	name, err := r.ReadFieldName()
	if err != nil {
		return 0, false, err
	}
	for i := range s.aliases {
		if s.aliases[i].Name == name {
			return s.aliases[i].Binding, true, nil
		}
	}
	return 0, false, nil
}

// Cases implements Plan; strict plans have no dispatch table.
func (s *Strict) Cases() []dispatch.Case { return nil }

// Collision implements Plan.
func (s *Strict) Collision() *dispatch.Collision { return s.collision }
