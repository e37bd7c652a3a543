package cryxml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// parseXML decodes a plain-text XML document through builder, using the
// standard library's streaming tokeniser. This lets any caller go
// through cryxml.Parse uniformly, whether the source file turned out to
// be a genuine CryXmlB container or a plain XML file.
func parseXML(data []byte, builder Builder) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("cryxml: xml fallback: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			attrs := make([]Attr, len(t.Attr))
			for i, a := range t.Attr {
				attrs[i] = Attr{Name: a.Name.Local, Value: a.Value}
			}
			if err := builder.StartElement(t.Name.Local, attrs); err != nil {
				return err
			}
		case xml.EndElement:
			if err := builder.EndElement(t.Name.Local); err != nil {
				return err
			}
		case xml.CharData:
			text := string(bytes.TrimSpace(t))
			if text == "" {
				continue
			}
			if err := builder.Text(text); err != nil {
				return err
			}
		}
	}
}
