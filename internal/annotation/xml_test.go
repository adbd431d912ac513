package annotation

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

const testDocument = `<?xml version="1.0" encoding="UTF-8"?>
<DEF system="eg2000">
  <entry addr="0000" type="code">
    <symbol>COLD</symbol>
    <comment scope="block" id="1">second line</comment>
    <comment scope="block" id="0">first line</comment>
    <comment scope="line">jump to init</comment>
  </entry>
  <entry addr="0x0100" type="defs"/>
  <entry addr="0108">
    <symbol>TABLE</symbol>
  </entry>
  <entry addr="0200" type="defb" arg0="x" param="1f" maxelem="10"/>
</DEF>
`

func TestLoad(t *testing.T) {
	s, err := Load(strings.NewReader(testDocument))
	assert.NoError(t, err)
	assert.Equal(t, "eg2000", s.System())
	assert.Equal(t, 4, s.Len())

	e, ok := s.Entry(0x0000)
	assert.True(t, ok)
	assert.Equal(t, "COLD", e.Symbol)
	assert.Equal(t, "jump to init", e.Comment)
	assert.Equal(t, []string{"first line", "second line"}, e.BlockComments)

	e, ok = s.Entry(0x0100)
	assert.True(t, ok)
	assert.Equal(t, Space, e.Type)

	// missing type after a space region continues as code
	e, ok = s.Entry(0x0108)
	assert.True(t, ok)
	assert.Equal(t, Code, e.Type)

	e, ok = s.Entry(0x0200)
	assert.True(t, ok)
	assert.Equal(t, Byte, e.Type)
	assert.Equal(t, "x", e.ArgHint)
	assert.Equal(t, uint32(0x1f), e.Param)
	assert.Equal(t, uint32(0x10), e.MaxElements)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "malformed xml", data: `<def><entry addr="0000">`},
		{name: "wrong root", data: `<symbols></symbols>`},
		{name: "bad address", data: `<def><entry addr="zz"/></def>`},
		{name: "bad type", data: `<def><entry addr="10" type="float"/></def>`},
		{name: "bad scope", data: `<def><entry addr="10"><comment scope="page">x</comment></entry></def>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.data))
			assert.Error(t, err)

			var parseErr *ParseError
			assert.True(t, errors.As(err, &parseErr))
		})
	}
}

func TestLoadFileReportsPosition(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xml")
	assert.NoError(t, os.WriteFile(path, []byte("<def>\n  <entry addr=\"0\">\n</def>\n"), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
	assert.Equal(t, path, parseErr.Path)
	assert.True(t, parseErr.Line > 0)
	assert.True(t, strings.HasPrefix(err.Error(), path+":"))
}

func TestSaveRoundTrip(t *testing.T) {
	s := NewStore("trs80",
		Entry{Address: 0x0000, Type: Code, Symbol: "START", BlockComments: []string{"a", "b"}, Comment: "go"},
		Entry{Address: 0x0010, Type: Word, Symbol: "VECTORS", Param: 0x20},
		Entry{Address: 0x0020, Type: Text, Comment: "message"},
		Entry{Address: 0x0030, Type: Byte},
	)

	var buf bytes.Buffer
	assert.NoError(t, s.Save(&buf))

	loaded, err := Load(&buf)
	assert.NoError(t, err)
	assert.Equal(t, "trs80", loaded.System())

	// entries without symbol and comments are not persisted
	assert.Equal(t, 3, loaded.Len())
	assert.False(t, loaded.Has(0x0030))

	for _, want := range s.Entries()[:3] {
		got, ok := loaded.Entry(want.Address)
		assert.True(t, ok)
		assert.Equal(t, want.Type, got.Type)
		assert.Equal(t, want.Symbol, got.Symbol)
		assert.Equal(t, want.Comment, got.Comment)
		assert.Equal(t, len(want.BlockComments), len(got.BlockComments))
		assert.Equal(t, want.Param, got.Param)
	}
}

func TestSaveFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defs.xml")
	s := NewStore("eg2000", Entry{Address: 0x4000, Symbol: "MAIN"})
	assert.NoError(t, s.SaveFile(path))

	loaded, err := LoadFile(path)
	assert.NoError(t, err)
	e, ok := loaded.Entry(0x4000)
	assert.True(t, ok)
	assert.Equal(t, "MAIN", e.Symbol)
}
