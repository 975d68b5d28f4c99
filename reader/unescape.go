package reader

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"
)

func unescape(raw []byte) ([]byte, error) {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i >= len(raw) {
			return nil, fmt.Errorf("invalid escape sequence")
		}
		switch raw[i] {
		case '"', '\\', '/':
			out = append(out, raw[i])
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'u':
			if i+4 >= len(raw) {
				return nil, fmt.Errorf("invalid unicode escape")
			}
			r, ok := parseHex4(raw[i+1 : i+5])
			if !ok {
				return nil, fmt.Errorf("invalid unicode escape")
			}
			i += 4
			if utf16.IsSurrogate(r) {
				if i+6 >= len(raw) || raw[i+1] != '\\' || raw[i+2] != 'u' {
					return nil, fmt.Errorf("invalid surrogate pair")
				}
				r2, ok := parseHex4(raw[i+3 : i+7])
				if !ok {
					return nil, fmt.Errorf("invalid surrogate pair")
				}
				decoded := utf16.DecodeRune(r, r2)
				if decoded == utf8.RuneError {
					return nil, fmt.Errorf("invalid surrogate pair")
				}
				out = utf8.AppendRune(out, decoded)
				i += 6
				continue
			}
			out = utf8.AppendRune(out, r)
		default:
			return nil, fmt.Errorf("invalid escape character %q", raw[i])
		}
	}
	return out, nil
}

func parseHex4(b []byte) (rune, bool) {
	var v rune
	for i := 0; i < 4; i++ {
		c := b[i]
		var d rune
		switch {
		case c >= '0' && c <= '9':
			d = rune(c - '0')
		case c >= 'a' && c <= 'f':
			d = rune(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = rune(c-'A') + 10
		default:
			return 0, false
		}
		v = (v << 4) | d
	}
	return v, true
}
