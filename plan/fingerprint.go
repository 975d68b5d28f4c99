package plan

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
	"github.com/viant/jsonhash/descriptor"
	"github.com/viant/jsonhash/dispatch"
)

// fingerprint hashes strategy and (hash, alias, binding) rows; aliases are hash ordered.
func fingerprint(strategy Strategy, bindings []*descriptor.Binding, aliases []dispatch.Alias) uint64 {
	digest := xxhash.New()
	var buf [4]byte
	buf[0] = byte(strategy)
	_, _ = digest.Write(buf[:1])
	for _, alias := range aliases {
		binary.LittleEndian.PutUint32(buf[:], alias.Hash)
		_, _ = digest.Write(buf[:])
		_, _ = digest.WriteString(alias.Name)
		_, _ = digest.Write([]byte{0})
		binding := bindings[alias.Binding]
		_, _ = digest.WriteString(binding.Name)
		_, _ = digest.Write([]byte{byte(binding.Category)})
	}
	return digest.Sum64()
}
