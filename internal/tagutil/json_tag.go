package tagutil

import "strings"

// JSONTag is the decode-relevant part of a `json` struct tag.
type JSONTag struct {
	Name      string
	Explicit  bool
	Transient bool
}

// ParseJSONTag parses raw `json` tag content, defaulting the name to defaultName.
// Any non-empty tag, even ",omitempty", makes the name explicit.
func ParseJSONTag(defaultName string, raw string) JSONTag {
	if raw == "" {
		return JSONTag{Name: defaultName}
	}
	name := raw
	if index := strings.IndexByte(raw, ','); index != -1 {
		name = raw[:index]
	}
	if name == "" {
		name = defaultName
	}
	return JSONTag{Name: name, Explicit: true, Transient: name == "-"}
}
