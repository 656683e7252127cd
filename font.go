package font

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"
)

var extMimetype = map[string]string{
	".ttf":   "font/truetype",
	".otf":   "font/opentype",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".eot":   "font/eot",
}

// MediaType returns the media type (MIME) of a font file by looking at its magic bytes.
func MediaType(b []byte) (string, error) {
	if len(b) < 4 {
		return "", ErrInvalidFontData
	}
	switch tag := string(b[:4]); tag {
	case "wOFF":
		return "font/woff", nil
	case "wOF2":
		return "font/woff2", nil
	case "OTTO":
		return "font/opentype", nil
	case "true", "\x00\x01\x00\x00":
		return "font/truetype", nil
	case "ttcf":
		// the outlines of the first font decide for the whole collection
		if 16 <= len(b) {
			if offset := binary.BigEndian.Uint32(b[12:]); offset <= uint32(len(b))-4 && string(b[offset:offset+4]) == "OTTO" {
				return "font/opentype", nil
			}
		}
		return "font/truetype", nil
	}
	if 36 <= len(b) && binary.LittleEndian.Uint16(b[34:]) == 0x504C {
		return "font/eot", nil
	}
	return "", fmt.Errorf("unrecognized font file format")
}

// ToSFNT unwraps WOFF, WOFF2, and EOT font files and returns the contained SFNT font (TTF, OTF, TTC, OTC). SFNT fonts are returned as is.
func ToSFNT(b []byte) ([]byte, error) {
	mimetype, err := MediaType(b)
	if err != nil {
		return nil, err
	}
	switch mimetype {
	case "font/truetype", "font/opentype":
		return b, nil
	case "font/woff":
		return ParseWOFF(b)
	case "font/woff2":
		return ParseWOFF2(b)
	case "font/eot":
		return ParseEOT(b)
	}
	return nil, fmt.Errorf("unsupported font file format: %v", mimetype)
}

// WriteFormat serializes the font as the given media type. Only font/truetype, font/opentype, font/woff, and font/woff2 are supported.
func (sfnt *SFNT) WriteFormat(mimetype string) ([]byte, error) {
	switch mimetype {
	case "font/truetype":
		if sfnt.IsCFF {
			return nil, fmt.Errorf("cannot convert CFF to TrueType glyph outlines")
		}
		return sfnt.Write(), nil
	case "font/opentype":
		if sfnt.IsTrueType {
			return nil, fmt.Errorf("cannot convert TrueType to CFF glyph outlines")
		}
		return sfnt.Write(), nil
	case "font/woff":
		return sfnt.WriteWOFF()
	case "font/woff2":
		return sfnt.WriteWOFF2()
	case "":
		return nil, fmt.Errorf("mimetype not set")
	}
	return nil, fmt.Errorf("unsupported output file type: %v", mimetype)
}

// outputMediaType picks the media type to write: an explicit one, or else the container named by the filename's extension, or else the input's container. EOT input is written as a plain SFNT font. The glyph outlines are never converted, so an SFNT result is TrueType or OpenType following the font itself.
func outputMediaType(filename, mimetype, inputMimetype string, sfnt *SFNT) string {
	if mimetype != "" {
		return mimetype
	}
	container := inputMimetype
	switch extMimetype[strings.ToLower(filepath.Ext(filename))] {
	case "font/truetype", "font/opentype":
		container = "font/sfnt"
	case "font/woff":
		container = "font/woff"
	case "font/woff2":
		container = "font/woff2"
	}
	if container == "font/woff" || container == "font/woff2" {
		return container
	} else if sfnt.IsCFF {
		return "font/opentype"
	}
	return "font/truetype"
}
