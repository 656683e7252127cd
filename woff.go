package font

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/klauspost/compress/zlib"
	"github.com/tdewolff/parse/v2"
)

// Specification:
// https://www.w3.org/TR/WOFF/

// ParseWOFF parses the WOFF font format and returns its contained SFNT font format (TTF or OTF). See https://www.w3.org/TR/WOFF/
func ParseWOFF(b []byte) ([]byte, error) {
	if len(b) < 44 {
		return nil, ErrInvalidFontData
	}

	r := newBinaryReader(b)
	signature := r.ReadString(4)
	if signature != "wOFF" {
		return nil, fmt.Errorf("bad signature")
	}
	flavor := r.ReadUint32()
	if uint32ToString(flavor) == "ttcf" {
		return nil, fmt.Errorf("collections are unsupported")
	}
	length := r.ReadUint32()    // length
	numTables := r.ReadUint16() // numTables
	reserved := r.ReadUint16()  // reserved
	_ = r.ReadUint32()          // totalSfntSize
	_ = r.ReadUint16()          // majorVersion
	_ = r.ReadUint16()          // minorVersion
	_ = r.ReadUint32()          // metaOffset
	_ = r.ReadUint32()          // metaLength
	_ = r.ReadUint32()          // metaOrigLength
	_ = r.ReadUint32()          // privOffset
	_ = r.ReadUint32()          // privLength
	if r.EOF() {
		return nil, ErrInvalidFontData
	} else if length != uint32(len(b)) {
		return nil, fmt.Errorf("length in header must match file size")
	} else if numTables == 0 {
		return nil, fmt.Errorf("numTables in header must not be zero")
	} else if reserved != 0 {
		return nil, fmt.Errorf("reserved in header must be zero")
	} else if r.Len() < 20*int64(numTables) {
		return nil, ErrInvalidFontData
	}

	sfntSize := 12 + 16*uint32(numTables)
	tables := make(map[string][]byte, numTables)
	for i := 0; i < int(numTables); i++ {
		tag := r.ReadString(4)
		offset := r.ReadUint32()
		compLength := r.ReadUint32()
		origLength := r.ReadUint32()
		_ = r.ReadUint32() // origChecksum

		if uint32(len(b)) < offset || uint32(len(b))-offset < compLength {
			return nil, ErrInvalidFontData
		} else if origLength < compLength {
			return nil, fmt.Errorf("%s: compLength must not exceed origLength", tag)
		} else if _, ok := tables[tag]; ok {
			return nil, fmt.Errorf("%s: table defined more than once", tag)
		}

		nPadding := padding4(origLength)
		if math.MaxUint32-origLength < nPadding || MaxMemory-sfntSize < origLength+nPadding || MaxMemory < sfntSize {
			return nil, ErrExceedsMemory
		}
		sfntSize += origLength + nPadding

		data := b[offset : offset+compLength : offset+compLength]
		if compLength < origLength {
			rZlib, err := zlib.NewReader(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", tag, err)
			}
			buf := bytes.NewBuffer(make([]byte, 0, origLength))
			if _, err := io.Copy(buf, io.LimitReader(rZlib, int64(origLength)+1)); err != nil {
				return nil, fmt.Errorf("%s: %w", tag, err)
			} else if err := rZlib.Close(); err != nil {
				return nil, fmt.Errorf("%s: %w", tag, err)
			}
			if uint32(buf.Len()) != origLength {
				return nil, fmt.Errorf("%s: decompressed size must match origLength", tag)
			}
			data = buf.Bytes()
		}
		tables[tag] = data
	}
	return writeSFNT(flavor, tables, time.Time{}), nil
}

// WriteWOFF writes out the font in the WOFF font format. Tables are compressed with zlib unless that doesn't make them smaller.
func (sfnt *SFNT) WriteWOFF() ([]byte, error) {
	b := sfnt.Write()
	r := newBinaryReader(b)
	flavor := r.ReadUint32()
	numTables := r.ReadUint16()
	_ = r.ReadBytes(6) // searchRange, entrySelector, and rangeShift

	w := parse.NewBinaryWriter([]byte{})
	w.WriteString("wOFF")         // signature
	w.WriteUint32(flavor)         // flavor
	w.WriteUint32(0)              // length (set later)
	w.WriteUint16(numTables)      // numTables
	w.WriteUint16(0)              // reserved
	w.WriteUint32(uint32(len(b))) // totalSfntSize
	w.WriteUint16(1)              // majorVersion
	w.WriteUint16(0)              // minorVersion
	w.WriteUint32(0)              // metaOffset
	w.WriteUint32(0)              // metaLength
	w.WriteUint32(0)              // metaOrigLength
	w.WriteUint32(0)              // privOffset
	w.WriteUint32(0)              // privLength

	// table directory is written at the end
	w.WriteBytes(make([]byte, 20*uint32(numTables)))

	type woffEntry struct {
		tag        string
		offset     uint32
		compLength uint32
		origLength uint32
		checksum   uint32
	}
	entries := make([]woffEntry, numTables)
	for i := range entries {
		tag := r.ReadString(4)
		checksum := r.ReadUint32()
		offset := r.ReadUint32()
		length := r.ReadUint32()
		table := b[offset : offset+length]

		var buf bytes.Buffer
		wZlib, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
		if err != nil {
			return nil, err
		} else if _, err := wZlib.Write(table); err != nil {
			return nil, err
		} else if err := wZlib.Close(); err != nil {
			return nil, err
		}
		data := buf.Bytes()
		if len(table) <= len(data) {
			data = table
		}

		entries[i] = woffEntry{
			tag:        tag,
			offset:     uint32(w.Len()),
			compLength: uint32(len(data)),
			origLength: length,
			checksum:   checksum,
		}
		w.WriteBytes(data)
		for j := 0; j < int(padding4(uint32(len(data)))); j++ {
			w.WriteUint8(0)
		}
	}

	woff := w.Bytes()
	binary.BigEndian.PutUint32(woff[8:], uint32(len(woff))) // length
	for i, entry := range entries {
		pos := 44 + 20*i
		copy(woff[pos:], entry.tag)
		binary.BigEndian.PutUint32(woff[pos+4:], entry.offset)
		binary.BigEndian.PutUint32(woff[pos+8:], entry.compLength)
		binary.BigEndian.PutUint32(woff[pos+12:], entry.origLength)
		binary.BigEndian.PutUint32(woff[pos+16:], entry.checksum)
	}
	return woff, nil
}
