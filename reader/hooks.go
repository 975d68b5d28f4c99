package reader

// ScannerHooks contains block-scan hooks for whitespace and string scans.
type ScannerHooks interface {
	SkipWhitespace(data []byte, pos int) int
	FindQuoteOrEscape(data []byte, pos int) (quotePos int, escapePos int)
}

// ScalarHooks scans byte by byte.
type ScalarHooks struct{}

func (s ScalarHooks) SkipWhitespace(data []byte, pos int) int {
	for pos < len(data) {
		switch data[pos] {
		case ' ', '\n', '\r', '\t':
			pos++
		default:
			return pos
		}
	}
	return pos
}

func (s ScalarHooks) FindQuoteOrEscape(data []byte, pos int) (int, int) {
	for i := pos; i < len(data); i++ {
		if data[i] == '"' {
			return i, -1
		}
		if data[i] == '\\' {
			return -1, i
		}
	}
	return -1, -1
}
