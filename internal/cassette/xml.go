package cassette

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/xml"
	"fmt"
)

type xmlCassette struct {
	XMLName     xml.Name  `xml:"cassette"`
	SHA1        string    `xml:"sha1,attr"`
	Machine     string    `xml:"machine"`
	Format      string    `xml:"format"`
	Name        string    `xml:"name"`
	Author      string    `xml:"author"`
	Copyright   string    `xml:"copyright"`
	Description string    `xml:"description"`
	Sync        string    `xml:"sync"`
	Prefix      string    `xml:"prefix"`
	Blocks      xmlBlocks `xml:"blocks"`
	Image       xmlImage  `xml:"image"`
}

type xmlBlocks struct {
	Count  int        `xml:"count,attr"`
	Blocks []xmlBlock `xml:"block"`
}

type xmlBlock struct {
	Number  int    `xml:"number,attr"`
	Type    string `xml:"type,attr"`
	Address string `xml:"address,attr"`
	Size    string `xml:"size,attr,omitempty"`
	Line    string `xml:"line,attr,omitempty"`
	Csum    string `xml:"csum,attr,omitempty"`
	SHA1    string `xml:"sha1,attr,omitempty"`
	Data    string `xml:",chardata"`
}

type xmlImage struct {
	Size int    `xml:"size,attr"`
	SHA1 string `xml:"sha1,attr"`
	Data string `xml:",chardata"`
}

// MarshalXML exports the decoded image with all blocks as hex dumps.
func MarshalXML(img *Image) ([]byte, error) {
	format := "system"
	if img.Basic {
		format = "basic"
	}

	doc := xmlCassette{
		SHA1:        img.DigestString(),
		Machine:     img.Machine.String(),
		Format:      format,
		Name:        img.Header.Name,
		Author:      img.Header.Author,
		Copyright:   img.Header.Copyright,
		Description: img.Header.Description,
		Sync:        fmt.Sprintf("0x%02x", img.Sync),
		Prefix:      fmt.Sprintf("0x%02x", img.Prefix),
		Blocks: xmlBlocks{
			Count:  len(img.Blocks),
			Blocks: make([]xmlBlock, 0, len(img.Blocks)),
		},
	}

	for i, b := range img.Blocks {
		doc.Blocks.Blocks = append(doc.Blocks.Blocks, blockElement(i, b, img.Basic))
	}

	data := img.Data()
	doc.Image = xmlImage{
		Size: len(data),
		SHA1: sha1Hex(data),
		Data: hex.EncodeToString(data),
	}

	out, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshaling cassette: %w", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

func blockElement(number int, b Block, basic bool) xmlBlock {
	e := xmlBlock{
		Number:  number,
		Type:    b.Kind.String(),
		Address: fmt.Sprintf("0x%04x", b.Address),
	}
	if b.Kind == EntryBlock {
		return e
	}

	e.Size = fmt.Sprintf("0x%04x", b.Size())
	if basic {
		e.Line = fmt.Sprint(b.Line)
	}
	e.Csum = fmt.Sprintf("0x%02x", b.Checksum)
	e.SHA1 = sha1Hex(b.Data)
	e.Data = hex.EncodeToString(b.Data)
	return e
}

func sha1Hex(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}
