// Package dispatch collects the aliases of a descriptor, orders them by hash
// and decides whether hash dispatch is unambiguous.
package dispatch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/viant/jsonhash/descriptor"
	"github.com/viant/jsonhash/hash"
)

// Alias is one accepted key together with its hash and target binding slot.
type Alias struct {
	Name    string
	Hash    uint32
	Binding int
}

// Case is one dispatch table entry; all its aliases share the hash. Aliases of
// one binding that hash alike are merged into a single case, so a table holds
// one case per distinct hash rather than one per alias.
type Case struct {
	Hash    uint32
	Aliases []string
	Binding int
}

// CollisionKind classifies why hash dispatch was rejected.
type CollisionKind int

const (
	// SentinelHash means an alias hashes to the reserved zero value.
	SentinelHash CollisionKind = iota + 1
	// HashCollision means two aliases of different bindings share a hash.
	HashCollision
)

func (k CollisionKind) String() string {
	switch k {
	case SentinelHash:
		return "sentinel hash"
	case HashCollision:
		return "hash collision"
	}
	return "none"
}

// Collision describes the first ambiguity found.
type Collision struct {
	Kind    CollisionKind
	Hash    uint32
	Aliases []string
}

func (c *Collision) String() string {
	return fmt.Sprintf("%v 0x%08x: %s", c.Kind, c.Hash, strings.Join(c.Aliases, ", "))
}

// Table maps hashes to binding slots. Cases are sorted by hash and unique.
type Table struct {
	cases []Case
}

// Cases returns the dispatch cases in ascending hash order.
func (t *Table) Cases() []Case { return t.cases }

// Len returns the number of cases.
func (t *Table) Len() int { return len(t.cases) }

// Lookup returns the binding slot for h.
func (t *Table) Lookup(h uint32) (int, bool) {
	lo, hi := 0, len(t.cases)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		c := t.cases[mid].Hash
		switch {
		case c == h:
			return t.cases[mid].Binding, true
		case c < h:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return -1, false
}

// Report is the outcome of Detect.
type Report struct {
	// Aliases in ascending hash order, alias text breaking ties.
	Aliases   []Alias
	Table     *Table
	Collision *Collision
}

// Clean reports whether hash dispatch can be used.
func (r *Report) Clean() bool { return r.Collision == nil }

// Collect lists every alias of desc with its binding slot, in declaration order.
// An alias repeated on one binding is listed once; an alias shared by two
// bindings is an error.
func Collect(desc *descriptor.ClassDescriptor) ([]Alias, error) {
	if err := descriptor.CheckAliases(desc); err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var result []Alias
	for i, binding := range desc.Bindings() {
		for _, name := range binding.Aliases {
			if seen[name] {
				continue
			}
			seen[name] = true
			result = append(result, Alias{Name: name, Hash: hash.String(name), Binding: i})
		}
	}
	return result, nil
}

// Detect orders the aliases of desc by hash and builds the dispatch table,
// or reports the collision that rules hash dispatch out.
func Detect(desc *descriptor.ClassDescriptor) (*Report, error) {
	aliases, err := Collect(desc)
	if err != nil {
		return nil, err
	}
	Sort(aliases)
	report := &Report{Aliases: aliases}
	var cases []Case
	for i, alias := range aliases {
		if !hash.Valid(alias.Hash) {
			report.Collision = &Collision{Kind: SentinelHash, Hash: alias.Hash, Aliases: []string{alias.Name}}
			return report, nil
		}
		if i > 0 && aliases[i-1].Hash == alias.Hash {
			prev := aliases[i-1]
			if prev.Binding != alias.Binding {
				report.Collision = &Collision{Kind: HashCollision, Hash: alias.Hash, Aliases: []string{prev.Name, alias.Name}}
				return report, nil
			}
			last := &cases[len(cases)-1]
			last.Aliases = append(last.Aliases, alias.Name)
			continue
		}
		cases = append(cases, Case{Hash: alias.Hash, Aliases: []string{alias.Name}, Binding: alias.Binding})
	}
	report.Table = &Table{cases: cases}
	return report, nil
}

// Sort orders aliases by ascending hash, then alias text.
func Sort(aliases []Alias) {
	sort.SliceStable(aliases, func(i, j int) bool {
		if aliases[i].Hash != aliases[j].Hash {
			return aliases[i].Hash < aliases[j].Hash
		}
		return aliases[i].Name < aliases[j].Name
	})
}
