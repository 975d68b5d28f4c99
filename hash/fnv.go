// Package hash computes the alias hash shared by the dispatch table and the reader.
//
// The hash is a 32-bit FNV-1a over the UTF-8 bytes of a field name. Zero is
// reserved as a sentinel and never identifies an alias.
package hash

const (
	// Offset is the FNV-1a 32-bit offset basis.
	Offset uint32 = 0x811c9dc5
	// Prime is the FNV-1a 32-bit prime.
	Prime uint32 = 0x01000193
	// Sentinel marks "no field"; an alias hashing to it cannot be dispatched by hash.
	Sentinel uint32 = 0
)

// Add folds one byte into h.
func Add(h uint32, c byte) uint32 {
	h ^= uint32(c)
	h *= Prime
	return h
}

// Sum32 hashes raw name bytes.
func Sum32(b []byte) uint32 {
	h := Offset
	for i := 0; i < len(b); i++ {
		h ^= uint32(b[i])
		h *= Prime
	}
	return h
}

// String hashes a name without converting it to a byte slice.
func String(s string) uint32 {
	h := Offset
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= Prime
	}
	return h
}

// Valid reports whether h can be used as a dispatch key.
func Valid(h uint32) bool { return h != Sentinel }
