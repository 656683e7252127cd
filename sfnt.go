package font

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/tdewolff/parse/v2"
)

// timeNow is replaced in tests to get reproducible head tables.
var timeNow = time.Now

// SFNT is a parsed OpenType font. Only the tables needed to rewrite font names are parsed, all other tables are kept as is.
type SFNT struct {
	Length            uint32
	Version           string
	IsCFF, IsTrueType bool // only one can be true
	Tables            map[string][]byte

	Head *headTable
	Name *NameTable
}

// ParseSFNT parses an OpenType file format (TTF, OTF, TTC). The index is used for font collections to select a single font.
func ParseSFNT(b []byte, index int) (*SFNT, error) {
	if len(b) < 12 || uint(math.MaxUint32) < uint(len(b)) {
		return nil, ErrInvalidFontData
	}

	r := newBinaryReader(b)
	sfntVersion := r.ReadString(4)
	isCollection := sfntVersion == "ttcf"
	if isCollection {
		majorVersion := r.ReadUint16()
		minorVersion := r.ReadUint16()
		if majorVersion != 1 && majorVersion != 2 || minorVersion != 0 {
			return nil, fmt.Errorf("bad TTC version")
		}

		numFonts := r.ReadUint32()
		if index < 0 || numFonts <= uint32(index) {
			return nil, fmt.Errorf("bad font index %d", index)
		}
		if r.Len() < 4*int64(numFonts) {
			return nil, ErrInvalidFontData
		}

		_ = r.ReadBytes(4 * int64(index))
		offset := r.ReadUint32()
		if uint32(len(b))-12 < offset {
			return nil, ErrInvalidFontData
		}

		// table offsets in a collection are relative to the start of the file
		r = newBinaryReader(b)
		_ = r.ReadBytes(int64(offset))
		sfntVersion = r.ReadString(4)
	} else if index != 0 {
		return nil, fmt.Errorf("bad font index %d", index)
	}
	if sfntVersion != "OTTO" && sfntVersion != "true" && binary.BigEndian.Uint32([]byte(sfntVersion)) != 0x00010000 {
		return nil, fmt.Errorf("bad SFNT version")
	}
	numTables := r.ReadUint16()
	_ = r.ReadUint16()                  // searchRange
	_ = r.ReadUint16()                  // entrySelector
	_ = r.ReadUint16()                  // rangeShift
	if r.Len() < 16*int64(numTables) {
		return nil, ErrInvalidFontData
	}

	tables := make(map[string][]byte, numTables)
	for i := 0; i < int(numTables); i++ {
		tag := r.ReadString(4)
		_ = r.ReadUint32() // checksum
		offset := r.ReadUint32()
		length := r.ReadUint32()
		if uint32(len(b)) <= offset || uint32(len(b))-offset < length {
			return nil, ErrInvalidFontData
		} else if _, ok := tables[tag]; ok {
			return nil, fmt.Errorf("%s: table defined more than once", tag)
		}
		tables[tag] = b[offset : offset+length : offset+length]
	}

	sfnt := &SFNT{}
	sfnt.Length = uint32(len(b))
	sfnt.Version = sfntVersion
	sfnt.IsCFF = sfntVersion == "OTTO"
	sfnt.IsTrueType = !sfnt.IsCFF
	sfnt.Tables = tables

	for _, requiredTable := range []string{"head", "name"} {
		if _, ok := tables[requiredTable]; !ok {
			return nil, fmt.Errorf("%s: missing table", requiredTable)
		}
	}
	if err := sfnt.parseHead(); err != nil {
		return nil, err
	} else if err := sfnt.parseName(); err != nil {
		return nil, err
	}
	return sfnt, nil
}

// Write writes out the SFNT file. The modified date in the head table is set to the current time.
func (sfnt *SFNT) Write() []byte {
	flavor := uint32(0x00010000)
	if sfnt.IsCFF {
		flavor = binary.BigEndian.Uint32([]byte("OTTO"))
	} else if sfnt.Version == "true" {
		flavor = binary.BigEndian.Uint32([]byte("true"))
	}
	return writeSFNT(flavor, sfnt.Tables, timeNow())
}

// writeSFNT writes the table directory and tables, sorted by tag. Checksums and head.checkSumAdjustment are recalculated, head.modified is only set for a non-zero modified time.
func writeSFNT(flavor uint32, tables map[string][]byte, modified time.Time) []byte {
	tags := sortedTags(tables)

	// write header
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint32(flavor) // sfntVersion
	numTables := uint16(len(tags))
	var entrySelector uint16
	if 0 < numTables {
		entrySelector = uint16(math.Log2(float64(numTables)))
	}
	searchRange := uint16(1 << (entrySelector + 4))
	w.WriteUint16(numTables)                  // numTables
	w.WriteUint16(searchRange)                // searchRange
	w.WriteUint16(entrySelector)              // entrySelector
	w.WriteUint16(numTables<<4 - searchRange) // rangeShift

	// we'll write the table records at the end
	w.WriteBytes(make([]byte, uint32(numTables)<<4))

	// write tables
	checksumAdjustmentPos := -1
	offsets, lengths := make([]uint32, numTables), make([]uint32, numTables)
	for i, tag := range tags {
		offsets[i] = uint32(w.Len())
		table := tables[tag]
		if tag == "head" && len(table) == 54 {
			checksumAdjustmentPos = int(w.Len()) + 8
			w.WriteBytes(table[:8])
			w.WriteUint32(0) // checksumAdjustment
			w.WriteBytes(table[12:28])
			if modified.IsZero() {
				w.WriteBytes(table[28:36])
			} else {
				w.WriteInt64(int64(modified.UTC().Sub(time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)) / 1e9)) // modified
			}
			w.WriteBytes(table[36:])
		} else {
			w.WriteBytes(table)
		}
		lengths[i] = uint32(w.Len()) - offsets[i]

		padding := padding4(lengths[i])
		for i := 0; i < int(padding); i++ {
			w.WriteUint8(0)
		}
	}

	// add table record entries
	buf := w.Bytes()
	for i, tag := range tags {
		pos := 12 + i<<4
		copy(buf[pos:], []byte(tag))
		padding := padding4(lengths[i])
		checksum := calcChecksum(buf[offsets[i] : offsets[i]+lengths[i]+padding])
		binary.BigEndian.PutUint32(buf[pos+4:], checksum)
		binary.BigEndian.PutUint32(buf[pos+8:], offsets[i])
		binary.BigEndian.PutUint32(buf[pos+12:], lengths[i])
	}
	if checksumAdjustmentPos != -1 {
		binary.BigEndian.PutUint32(buf[checksumAdjustmentPos:], 0xB1B0AFBA-calcChecksum(buf))
	}
	return buf
}

////////////////////////////////////////////////////////////////

type headTable struct {
	FontRevision      uint32
	Flags             uint16
	UnitsPerEm        uint16
	Created, Modified time.Time
}

func (sfnt *SFNT) parseHead() error {
	b, ok := sfnt.Tables["head"]
	if !ok {
		return fmt.Errorf("head: missing table")
	} else if len(b) != 54 {
		return fmt.Errorf("head: bad table")
	}

	sfnt.Head = &headTable{}
	r := newBinaryReader(b)
	majorVersion := r.ReadUint16()
	minorVersion := r.ReadUint16()
	if majorVersion != 1 && minorVersion != 0 {
		return fmt.Errorf("head: bad version")
	}
	sfnt.Head.FontRevision = r.ReadUint32()
	_ = r.ReadUint32()                // checksumAdjustment
	if r.ReadUint32() != 0x5F0F3CF5 { // magicNumber
		return fmt.Errorf("head: bad magic version")
	}
	sfnt.Head.Flags = r.ReadUint16()
	sfnt.Head.UnitsPerEm = r.ReadUint16()
	created := r.ReadUint64()
	modified := r.ReadUint64()
	if math.MaxInt64 < created || math.MaxInt64 < modified {
		return fmt.Errorf("head: created and/or modified dates too large")
	}
	sfnt.Head.Created = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Second * time.Duration(created))
	sfnt.Head.Modified = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Second * time.Duration(modified))
	return nil
}
