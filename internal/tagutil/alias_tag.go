package tagutil

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/viant/parsly"
)

// AliasTagName is the struct tag carrying decode aliases, e.g. `jsonhash:"from=a|alpha,reuse"`.
const AliasTagName = "jsonhash"

// AliasTag represents a parsed jsonhash tag.
type AliasTag struct {
	From       []string
	Reuse      bool
	Ignore     bool
	Default    string
	HasDefault bool
}

// ParseAliasTag parses jsonhash tag content.
//
// Supported keys: from (aliases separated by '|' or a {a,b} block), reuse,
// default (a JSON literal, or plain text for strings) and ignore ("-").
func ParseAliasTag(raw string) (AliasTag, error) {
	ret := AliasTag{}
	if raw == "" {
		return ret, nil
	}
	if raw == "-" {
		ret.Ignore = true
		return ret, nil
	}
	cursor := parsly.NewCursor("", []byte(raw), 0)
	for cursor.Pos < len(cursor.Input) {
		key, value := matchPair(cursor)
		if key == "" {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "from", "alias", "aliases":
			ret.From = append(ret.From, splitAliases(value)...)
		case "reuse":
			ret.Reuse = value == "" || strings.EqualFold(value, "true")
		case "default":
			ret.Default = value
			ret.HasDefault = true
		case "ignore", "-":
			ret.Ignore = true
		default:
			return ret, fmt.Errorf("unsupported %s tag key: %s", AliasTagName, key)
		}
	}
	return ret, nil
}

func splitAliases(value string) []string {
	value = strings.TrimSpace(value)
	if strings.HasPrefix(value, "{") && strings.HasSuffix(value, "}") {
		value = strings.ReplaceAll(value[1:len(value)-1], ",", "|")
	}
	var result []string
	for _, alias := range strings.Split(value, "|") {
		if alias = strings.TrimSpace(alias); alias != "" {
			result = append(result, alias)
		}
	}
	return result
}

func matchPair(cursor *parsly.Cursor) (string, string) {
	key := ""
	value := ""
	var tokens = []*parsly.Token{scopeBlockMatcher}

	eqIndex := bytes.IndexByte(cursor.Input[cursor.Pos:], '=')
	comaIndex := bytes.IndexByte(cursor.Input[cursor.Pos:], ',')
	if eqIndex == -1 || (comaIndex != -1 && comaIndex < eqIndex) {
		tokens = append(tokens, comaTerminatorMatcher)
	} else {
		tokens = append(tokens, eqTerminatorMatcher)
	}

	match := cursor.MatchAny(tokens...)
	switch match.Code {
	case scopeBlockToken:
		value = match.Text(cursor)
		cursor.MatchAny(comaTerminatorMatcher)
	case comaTerminatorToken:
		value = match.Text(cursor)
		value = value[:len(value)-1]
	case eqTerminatorToken:
		key = match.Text(cursor)
		key = key[:len(key)-1]
		match = cursor.MatchAny(scopeBlockMatcher, quotedMatcher, comaTerminatorMatcher)
		switch match.Code {
		case scopeBlockToken:
			value = match.Text(cursor)
			cursor.MatchAny(comaTerminatorMatcher)
		case quotedToken:
			value = match.Text(cursor)
			value = strings.Trim(value, "'")
			cursor.MatchAny(comaTerminatorMatcher)
		case comaTerminatorToken:
			value = match.Text(cursor)
			value = value[:len(value)-1]
		default:
			if cursor.Pos < len(cursor.Input) {
				value = string(cursor.Input[cursor.Pos:])
				cursor.Pos = len(cursor.Input)
			}
		}
	default:
		if cursor.Pos < len(cursor.Input) {
			value = string(cursor.Input[cursor.Pos:])
			cursor.Pos = len(cursor.Input)
		}
	}
	if key != "" {
		return key, value
	}
	if index := strings.Index(value, "="); index != -1 {
		return value[:index], value[index+1:]
	}
	return value, ""
}
