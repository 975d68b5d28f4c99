// Package reader implements the forward-only JSON token stream consumed by decode plans.
package reader

import (
	"fmt"
	"unsafe"

	"github.com/viant/jsonhash/hash"
)

// MalformedPolicy controls malformed JSON tolerance.
type MalformedPolicy int

const (
	Tolerant MalformedPolicy = iota
	FailFast
)

// Option configures a Reader.
type Option func(r *Reader)

// WithHooks replaces the default scalar scanner hooks.
func WithHooks(hooks ScannerHooks) Option {
	return func(r *Reader) {
		if hooks != nil {
			r.hooks = hooks
		}
	}
}

// WithMalformedPolicy sets trailing/missing comma tolerance.
func WithMalformedPolicy(policy MalformedPolicy) Option {
	return func(r *Reader) { r.malformed = policy }
}

// Reader reads JSON tokens from a byte slice.
//
// A Reader also carries the reusable instance slot of its call site: a decode
// plan may take an instance left there by the previous decode instead of
// allocating. A Reader is not safe for concurrent use.
type Reader struct {
	data      []byte
	pos       int
	hooks     ScannerHooks
	malformed MalformedPolicy
	existing  interface{}
	field     []byte
}

// New creates a reader over data.
func New(data []byte, opts ...Option) *Reader {
	r := &Reader{data: data, hooks: ScalarHooks{}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reset rewinds the reader to a new input; the reusable instance slot is kept.
func (r *Reader) Reset(data []byte) {
	r.data = data
	r.pos = 0
	r.field = nil
}

// Pos returns the current byte offset.
func (r *Reader) Pos() int { return r.pos }

// Policy returns the malformed input policy.
func (r *Reader) Policy() MalformedPolicy { return r.malformed }

func (r *Reader) skipWS() { r.pos = r.hooks.SkipWhitespace(r.data, r.pos) }

// Peek returns the next non-whitespace byte without consuming it, 0 at EOF.
func (r *Reader) Peek() byte {
	r.skipWS()
	if r.pos >= len(r.data) {
		return 0
	}
	return r.data[r.pos]
}

// ReadNull consumes a null literal if it is the next token.
func (r *Reader) ReadNull() bool {
	r.skipWS()
	if r.pos < len(r.data) && r.data[r.pos] == 'n' {
		return r.match("null")
	}
	return false
}

// ReadObjectStart consumes '{'. It returns false when the object is
// immediately closed, in which case '}' is consumed too.
func (r *Reader) ReadObjectStart() (bool, error) {
	r.skipWS()
	if r.pos >= len(r.data) || r.data[r.pos] != '{' {
		return false, fmt.Errorf("expected '{' at %d", r.pos)
	}
	r.pos++
	r.skipWS()
	if r.pos < len(r.data) && r.data[r.pos] == '}' {
		r.pos++
		return false, nil
	}
	return true, nil
}

// ReadFieldHash reads an object key and the following ':' and returns the
// key hash. The hash is computed over the unescaped key bytes.
func (r *Reader) ReadFieldHash() (uint32, error) {
	r.skipWS()
	if r.pos >= len(r.data) || r.data[r.pos] != '"' {
		return 0, fmt.Errorf("expected string key at %d", r.pos)
	}
	r.pos++
	start := r.pos
	h := hash.Offset
	for i := start; i < len(r.data); i++ {
		c := r.data[i]
		if c == '"' {
			r.field = r.data[start:i]
			r.pos = i + 1
			return h, r.colon()
		}
		if c == '\\' {
			key, err := r.scanEscapedKey(start)
			if err != nil {
				return 0, err
			}
			r.field = key
			return hash.Sum32(key), r.colon()
		}
		if c < 0x20 {
			return 0, fmt.Errorf("invalid control character in string at %d", i)
		}
		h = hash.Add(h, c)
	}
	return 0, fmt.Errorf("unterminated key")
}

// ReadFieldName reads an object key and the following ':'.
func (r *Reader) ReadFieldName() (string, error) {
	r.skipWS()
	if r.pos >= len(r.data) || r.data[r.pos] != '"' {
		return "", fmt.Errorf("expected string key at %d", r.pos)
	}
	r.pos++
	start := r.pos
	quote, escape := r.hooks.FindQuoteOrEscape(r.data, start)
	if quote >= 0 && escape < 0 {
		for i := start; i < quote; i++ {
			if r.data[i] < 0x20 {
				return "", fmt.Errorf("invalid control character in string at %d", i)
			}
		}
		r.field = r.data[start:quote]
		r.pos = quote + 1
		// key is only compared while the object is traversed
		return bytesToStringNoCopy(r.field), r.colon()
	}
	key, err := r.scanEscapedKey(start)
	if err != nil {
		return "", err
	}
	r.field = key
	return string(key), r.colon()
}

// LastField returns a copy of the most recently read key.
func (r *Reader) LastField() string { return string(r.field) }

func (r *Reader) scanEscapedKey(start int) ([]byte, error) {
	escaped := false
	for i := start; i < len(r.data); i++ {
		c := r.data[i]
		if c == '"' && !escaped {
			key, err := unescape(r.data[start:i])
			if err != nil {
				return nil, err
			}
			r.pos = i + 1
			return key, nil
		}
		if c == '\\' {
			escaped = !escaped
		} else {
			if c < 0x20 {
				return nil, fmt.Errorf("invalid control character in string at %d", i)
			}
			escaped = false
		}
	}
	return nil, fmt.Errorf("unterminated key")
}

func (r *Reader) colon() error {
	r.skipWS()
	if r.pos >= len(r.data) || r.data[r.pos] != ':' {
		return fmt.Errorf("expected ':' at %d", r.pos)
	}
	r.pos++
	return nil
}

// NextToken consumes the token following an object member and returns ','
// when another member follows or '}' when the object is closed.
func (r *Reader) NextToken() (byte, error) {
	r.skipWS()
	if r.pos >= len(r.data) {
		return 0, fmt.Errorf("unexpected EOF in object")
	}
	switch r.data[r.pos] {
	case '}':
		r.pos++
		return '}', nil
	case ',':
		r.pos++
		if r.malformed == Tolerant {
			r.skipWS()
			if r.pos < len(r.data) && r.data[r.pos] == '}' {
				r.pos++
				return '}', nil
			}
		}
		return ',', nil
	case '"':
		if r.malformed == Tolerant {
			// compat: missing comma between object members
			return ',', nil
		}
	}
	return 0, fmt.Errorf("expected ',' at %d", r.pos)
}

// End verifies that only whitespace remains.
func (r *Reader) End() error {
	r.skipWS()
	if r.pos != len(r.data) {
		return fmt.Errorf("unexpected trailing data at %d", r.pos)
	}
	return nil
}

// Existing returns the reusable instance associated with this call site.
func (r *Reader) Existing() interface{} { return r.existing }

// SetExisting offers v as the merge target of the next object decode.
func (r *Reader) SetExisting(v interface{}) { r.existing = v }

// TakeExisting returns and clears the reusable instance.
func (r *Reader) TakeExisting() interface{} {
	v := r.existing
	r.existing = nil
	return v
}

// ResetExisting releases the reusable instance.
func (r *Reader) ResetExisting() { r.existing = nil }

func (r *Reader) match(token string) bool {
	end := r.pos + len(token)
	if end > len(r.data) {
		return false
	}
	if string(r.data[r.pos:end]) != token {
		return false
	}
	r.pos = end
	return true
}

func bytesToStringNoCopy(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}
