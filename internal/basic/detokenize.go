package basic

import (
	"fmt"
	"strings"
)

// Detokenizer renders tokenized BASIC lines as text.
type Detokenizer struct {
	escapeMarkup bool
}

// New returns a new detokenizer. If escapeMarkup is set, the characters
// &, < and > are emitted as markup entities.
func New(escapeMarkup bool) *Detokenizer {
	return &Detokenizer{
		escapeMarkup: escapeMarkup,
	}
}

// Detokenize renders one line of tokenized BASIC. Decoding stops at the first
// zero byte or at the end of data.
func (d *Detokenizer) Detokenize(data []byte) string {
	buf := &strings.Builder{}
	inString := false

	for i := 0; i < len(data) && data[i] != 0; i++ {
		b := data[i]

		switch {
		case inString:
			if b == '"' {
				inString = false
			}
			d.writeChar(buf, b)

		case b == ExtendedPrefix:
			if i+1 >= len(data) || data[i+1] == 0 {
				buf.WriteString(`\377`)
				continue
			}
			i++
			if keyword, ok := ExtendedToken(data[i]); ok {
				d.writeText(buf, keyword)
			} else {
				fmt.Fprintf(buf, `\377\%03o`, data[i])
			}

		case b >= firstToken:
			keyword, _ := Token(b)
			d.writeText(buf, keyword)

		default:
			if b == '"' {
				inString = true
			}
			d.writeChar(buf, b)
		}
	}

	return buf.String()
}

func (d *Detokenizer) writeText(buf *strings.Builder, s string) {
	if !d.escapeMarkup {
		buf.WriteString(s)
		return
	}
	for i := 0; i < len(s); i++ {
		d.writeChar(buf, s[i])
	}
}

func (d *Detokenizer) writeChar(buf *strings.Builder, b byte) {
	if d.escapeMarkup {
		switch b {
		case '&':
			buf.WriteString("&amp;")
			return
		case '<':
			buf.WriteString("&lt;")
			return
		case '>':
			buf.WriteString("&gt;")
			return
		}
	}
	// bytes inside strings are Latin-1
	buf.WriteRune(rune(b))
}
