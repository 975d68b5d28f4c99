package reader

import (
	"fmt"
	"strconv"
	"strings"
)

// Skip consumes the next value of any kind.
func (r *Reader) Skip() error {
	r.skipWS()
	if r.pos >= len(r.data) {
		return fmt.Errorf("unexpected EOF")
	}
	switch r.data[r.pos] {
	case '{':
		return r.skipObject()
	case '[':
		return r.skipArray()
	case '"':
		return r.skipString()
	case 't':
		if r.match("true") {
			return nil
		}
	case 'f':
		if r.match("false") {
			return nil
		}
	case 'n':
		if r.match("null") {
			return nil
		}
	default:
		_, err := r.ReadNumber()
		return err
	}
	return fmt.Errorf("invalid token at %d", r.pos)
}

func (r *Reader) skipObject() error {
	hasMembers, err := r.ReadObjectStart()
	if err != nil || !hasMembers {
		return err
	}
	for {
		if err = r.skipString(); err != nil {
			return err
		}
		if err = r.colon(); err != nil {
			return err
		}
		if err = r.Skip(); err != nil {
			return err
		}
		token, err := r.NextToken()
		if err != nil {
			return err
		}
		if token == '}' {
			return nil
		}
	}
}

func (r *Reader) skipArray() error {
	return r.ReadArray(r.Skip)
}

func (r *Reader) skipString() error {
	r.skipWS()
	if r.pos >= len(r.data) || r.data[r.pos] != '"' {
		return fmt.Errorf("expected string at %d", r.pos)
	}
	r.pos++
	escaped := false
	for r.pos < len(r.data) {
		c := r.data[r.pos]
		if c == '"' && !escaped {
			r.pos++
			return nil
		}
		if c == '\\' {
			escaped = !escaped
		} else {
			if c < 0x20 {
				return fmt.Errorf("invalid control character in string at %d", r.pos)
			}
			escaped = false
		}
		r.pos++
	}
	return fmt.Errorf("unterminated string")
}

// ReadRaw returns the raw bytes of the next value.
func (r *Reader) ReadRaw() ([]byte, error) {
	r.skipWS()
	start := r.pos
	if err := r.Skip(); err != nil {
		return nil, err
	}
	return r.data[start:r.pos], nil
}

// ReadString reads a JSON string; the result never aliases the input.
func (r *Reader) ReadString() (string, error) {
	r.skipWS()
	if r.pos >= len(r.data) || r.data[r.pos] != '"' {
		return "", fmt.Errorf("expected string at %d", r.pos)
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
		s := string(r.data[start:quote])
		r.pos = quote + 1
		return s, nil
	}
	escaped := false
	for i := start; i < len(r.data); i++ {
		c := r.data[i]
		if c == '"' && !escaped {
			s, err := unescape(r.data[start:i])
			if err != nil {
				return "", err
			}
			r.pos = i + 1
			return string(s), nil
		}
		if c == '\\' {
			escaped = !escaped
		} else {
			if c < 0x20 {
				return "", fmt.Errorf("invalid control character in string at %d", i)
			}
			escaped = false
		}
	}
	return "", fmt.Errorf("unterminated string")
}

// ReadBool reads true or false.
func (r *Reader) ReadBool() (bool, error) {
	r.skipWS()
	if r.match("true") {
		return true, nil
	}
	if r.match("false") {
		return false, nil
	}
	return false, fmt.Errorf("expected bool at %d", r.pos)
}

// ReadNumber returns the raw number literal.
func (r *Reader) ReadNumber() ([]byte, error) {
	r.skipWS()
	start := r.pos
	for r.pos < len(r.data) {
		c := r.data[r.pos]
		if (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E' {
			r.pos++
			continue
		}
		break
	}
	if r.pos == start {
		return nil, fmt.Errorf("invalid number at %d", r.pos)
	}
	return r.data[start:r.pos], nil
}

// ReadInt64 reads an integer literal.
func (r *Reader) ReadInt64() (int64, error) {
	raw, err := r.ReadNumber()
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(bytesToStringNoCopy(raw), 10, 64)
}

// ReadUint64 reads an unsigned integer literal.
func (r *Reader) ReadUint64() (uint64, error) {
	raw, err := r.ReadNumber()
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(bytesToStringNoCopy(raw), 10, 64)
}

// ReadFloat64 reads any number literal as float64.
func (r *Reader) ReadFloat64() (float64, error) {
	raw, err := r.ReadNumber()
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(bytesToStringNoCopy(raw), 64)
}

// ReadArray calls each once per element; each must consume exactly one value.
func (r *Reader) ReadArray(each func() error) error {
	r.skipWS()
	if r.pos >= len(r.data) || r.data[r.pos] != '[' {
		return fmt.Errorf("expected '[' at %d", r.pos)
	}
	r.pos++
	r.skipWS()
	if r.pos < len(r.data) && r.data[r.pos] == ']' {
		r.pos++
		return nil
	}
	for {
		if err := each(); err != nil {
			return err
		}
		r.skipWS()
		if r.pos >= len(r.data) {
			return fmt.Errorf("unexpected EOF in array")
		}
		if r.data[r.pos] == ']' {
			r.pos++
			return nil
		}
		if r.data[r.pos] != ',' {
			return fmt.Errorf("expected ',' at %d", r.pos)
		}
		r.pos++
		if r.malformed == Tolerant {
			r.skipWS()
			if r.pos < len(r.data) && r.data[r.pos] == ']' {
				r.pos++
				return nil
			}
		}
	}
}

// ReadObject calls each once per member with a copied key; each must consume the member value.
func (r *Reader) ReadObject(each func(key string) error) error {
	hasMembers, err := r.ReadObjectStart()
	if err != nil || !hasMembers {
		return err
	}
	for {
		key, err := r.ReadFieldName()
		if err != nil {
			return err
		}
		if err = each(strings.Clone(key)); err != nil {
			return err
		}
		token, err := r.NextToken()
		if err != nil {
			return err
		}
		if token == '}' {
			return nil
		}
	}
}

// ReadValue reads the next value into generic Go values: map[string]interface{},
// []interface{}, string, bool, nil, int64, uint64 or float64.
func (r *Reader) ReadValue() (interface{}, error) {
	r.skipWS()
	if r.pos >= len(r.data) {
		return nil, fmt.Errorf("unexpected EOF")
	}
	switch r.data[r.pos] {
	case '{':
		obj := map[string]interface{}{}
		err := r.ReadObject(func(key string) error {
			v, err := r.ReadValue()
			if err != nil {
				return err
			}
			obj[key] = v
			return nil
		})
		if err != nil {
			return nil, err
		}
		return obj, nil
	case '[':
		arr := make([]interface{}, 0)
		err := r.ReadArray(func() error {
			v, err := r.ReadValue()
			if err != nil {
				return err
			}
			arr = append(arr, v)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return arr, nil
	case '"':
		return r.ReadString()
	case 't', 'f':
		return r.ReadBool()
	case 'n':
		if r.match("null") {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid token at %d", r.pos)
	}
	raw, err := r.ReadNumber()
	if err != nil {
		return nil, err
	}
	return ParseNumber(raw)
}

// ParseNumber converts a number literal to int64, uint64 or float64.
func ParseNumber(raw []byte) (interface{}, error) {
	literal := string(raw)
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '.', 'e', 'E':
			return strconv.ParseFloat(literal, 64)
		}
	}
	if i, err := strconv.ParseInt(literal, 10, 64); err == nil {
		return i, nil
	}
	return strconv.ParseUint(literal, 10, 64)
}
