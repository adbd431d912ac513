package disasm

import (
	"strings"
	"unicode/utf8"
)

// Listing disassembles the inclusive address range and returns the lines of
// the listing. Comments and labels are printed at their defining address.
func (d *Disasm) Listing(mem *Memory, start, end uint16) []string {
	var lines []string

	for pc := int(start); pc <= int(end); {
		address := uint16(pc)
		ins := d.Decode(mem, address)
		data := bytesAt(mem, address, ins.Size)

		entry, annotated := d.store.Entry(address)
		if annotated {
			for _, comment := range entry.BlockComments {
				for _, line := range strings.Split(comment, "\n") {
					lines = append(lines, strings.TrimRight("; "+line, " "))
				}
			}
			if entry.HasSymbol() {
				lines = append(lines, "", d.text(entry.Symbol)+":")
			}
		}

		first := min(len(data), d.options.BytesPerLine)
		line := "  " + d.x16(address) + ": " + padRight(d.dump(data[:first]), d.options.BytesPerLine*2) + " " + ins.Text

		comment := entry.Comment
		if comment == "" && d.options.CommentGlyphs {
			comment = d.glyphs(data)
		}
		lines = append(lines, d.withComment(line, comment)...)

		for offset := first; offset < len(data); offset += d.options.BytesPerLine {
			chunk := data[offset:min(len(data), offset+d.options.BytesPerLine)]
			lines = append(lines, "  "+d.x16(uint16(pc+offset))+": "+d.dump(chunk))
		}

		if ins.Final {
			lines = append(lines, "")
		}
		pc += ins.Size
	}

	return lines
}

// withComment appends a possibly multi line comment at the comment column.
func (d *Disasm) withComment(line, comment string) []string {
	if comment == "" {
		return []string{line}
	}

	commentLines := strings.Split(comment, "\n")
	result := make([]string, 0, len(commentLines))
	if utf8.RuneCountInString(line) >= d.options.CommentColumn {
		line += " "
	}
	result = append(result, padRight(line, d.options.CommentColumn)+"; "+commentLines[0])
	indent := strings.Repeat(" ", d.options.CommentColumn)
	for _, c := range commentLines[1:] {
		result = append(result, indent+"; "+c)
	}
	return result
}

// glyphs returns the characters of the data, control characters are shown as dot.
func (d *Disasm) glyphs(data []byte) string {
	var buf strings.Builder
	for _, b := range data {
		if b < 0x20 {
			buf.WriteByte('.')
			continue
		}
		buf.WriteRune(d.charset.ToUnicode(b))
	}
	return buf.String()
}

func (d *Disasm) dump(data []byte) string {
	var buf strings.Builder
	for _, b := range data {
		buf.WriteString(d.x08(b))
	}
	return buf.String()
}

func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
