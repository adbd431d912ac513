package annotation

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const rootElement = "def"

// comment scopes of the persisted form.
const (
	scopeLine  = "line"
	scopeBlock = "block"
)

type xmlDocument struct {
	XMLName xml.Name
	System  string     `xml:"system,attr,omitempty"`
	Entries []xmlEntry `xml:"entry"`
}

type xmlEntry struct {
	Address     string       `xml:"addr,attr"`
	Type        string       `xml:"type,attr,omitempty"`
	ArgHint     string       `xml:"arg0,attr,omitempty"`
	Param       string       `xml:"param,attr,omitempty"`
	MaxElements string       `xml:"maxelem,attr,omitempty"`
	Symbol      string       `xml:"symbol,omitempty"`
	Comments    []xmlComment `xml:"comment"`
}

type xmlComment struct {
	Scope string `xml:"scope,attr,omitempty"`
	ID    string `xml:"id,attr,omitempty"`
	Text  string `xml:",chardata"`
}

// ParseError describes a failure to load an annotation file.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	path := e.Path
	if path == "" {
		path = "<input>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %v", path, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: %v", path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// LoadFile loads a store from an annotation file.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening annotation file: %w", err)
	}
	defer func() { _ = f.Close() }()

	store, err := Load(f)
	if err != nil {
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			parseErr.Path = path
		}
		return nil, err
	}
	return store, nil
}

// Load reads a store from its persisted form.
func Load(r io.Reader) (*Store, error) {
	decoder := xml.NewDecoder(r)
	var doc xmlDocument
	if err := decoder.Decode(&doc); err != nil {
		line, column := decoder.InputPos()
		return nil, &ParseError{Line: line, Column: column, Err: err}
	}

	if !strings.EqualFold(doc.XMLName.Local, rootElement) {
		return nil, &ParseError{Err: fmt.Errorf("unexpected root element '%s'", doc.XMLName.Local)}
	}

	entries := make([]Entry, 0, len(doc.Entries))
	last := Code
	for i, x := range doc.Entries {
		e, err := x.entry(last)
		if err != nil {
			return nil, &ParseError{Err: fmt.Errorf("entry %d: %w", i, err)}
		}
		last = e.Type
		entries = append(entries, e)
	}

	return NewStore(doc.System, entries...), nil
}

func (x xmlEntry) entry(previous Type) (Entry, error) {
	address, err := parseHex(x.Address, 16)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing address: %w", err)
	}

	e := Entry{
		Address: uint16(address),
		Symbol:  strings.TrimSpace(x.Symbol),
		ArgHint: x.ArgHint,
	}

	if x.Type == "" {
		// entries without type continue the previous region, a space region
		// can not be continued
		e.Type = previous
		if e.Type == Space {
			e.Type = Code
		}
	} else if e.Type, err = ParseType(x.Type); err != nil {
		return Entry{}, err
	}

	if x.Param != "" {
		param, err := parseHex(x.Param, 32)
		if err != nil {
			return Entry{}, fmt.Errorf("parsing param: %w", err)
		}
		e.Param = uint32(param)
	}
	if x.MaxElements != "" {
		maxElements, err := parseHex(x.MaxElements, 32)
		if err != nil {
			return Entry{}, fmt.Errorf("parsing maxelem: %w", err)
		}
		e.MaxElements = uint32(maxElements)
	}

	type blockComment struct {
		id   int
		text string
	}
	var blocks []blockComment

	for _, c := range x.Comments {
		switch strings.ToLower(c.Scope) {
		case scopeLine, "":
			if e.Comment != "" {
				e.Comment += "\n"
			}
			e.Comment += c.Text

		case scopeBlock:
			id := len(blocks)
			if c.ID != "" {
				if id, err = strconv.Atoi(c.ID); err != nil {
					return Entry{}, fmt.Errorf("parsing comment id: %w", err)
				}
			}
			blocks = append(blocks, blockComment{id: id, text: c.Text})

		default:
			return Entry{}, fmt.Errorf("unsupported comment scope '%s'", c.Scope)
		}
	}

	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].id < blocks[j].id
	})
	for _, b := range blocks {
		e.BlockComments = append(e.BlockComments, b.text)
	}

	return e, nil
}

// SaveFile writes the store to an annotation file. The file is only
// written after the whole document has been serialized.
func (s *Store) SaveFile(path string) error {
	var buf bytes.Buffer
	if err := s.Save(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing annotation file: %w", err)
	}
	return nil
}

// Save writes the persisted form of the store. Entries without symbol and
// comments are not written.
func (s *Store) Save(w io.Writer) error {
	doc := xmlDocument{
		XMLName: xml.Name{Local: rootElement},
		System:  s.system,
	}

	for _, e := range s.Entries() {
		if !e.HasSymbol() && !e.HasComments() {
			continue
		}

		x := xmlEntry{
			Address: fmt.Sprintf("%04x", e.Address),
			Type:    e.Type.String(),
			ArgHint: e.ArgHint,
			Symbol:  e.Symbol,
		}
		if e.Param != 0 {
			x.Param = strconv.FormatUint(uint64(e.Param), 16)
		}
		if e.MaxElements != 0 {
			x.MaxElements = strconv.FormatUint(uint64(e.MaxElements), 16)
		}
		for i, text := range e.BlockComments {
			x.Comments = append(x.Comments, xmlComment{Scope: scopeBlock, ID: strconv.Itoa(i), Text: text})
		}
		if e.Comment != "" {
			x.Comments = append(x.Comments, xmlComment{Scope: scopeLine, Text: e.Comment})
		}
		doc.Entries = append(doc.Entries, x)
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("writing xml header: %w", err)
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encoding annotations: %w", err)
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("writing annotations: %w", err)
	}
	return nil
}

func parseHex(s string, bitSize int) (uint64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.TrimSuffix(strings.TrimSuffix(s, "h"), "H")
	value, err := strconv.ParseUint(s, 16, bitSize)
	if err != nil {
		return 0, fmt.Errorf("invalid hex value '%s': %w", s, err)
	}
	return value, nil
}
