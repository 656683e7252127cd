package font

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/tdewolff/parse/v2"
)

// MaxMemory is the maximum memory that can be allocated by a font.
var MaxMemory uint32 = 30 * 1024 * 1024

// ErrExceedsMemory is returned if the font is malformed.
var ErrExceedsMemory = fmt.Errorf("memory limit exceded")

// ErrInvalidFontData is returned if the font is malformed.
var ErrInvalidFontData = fmt.Errorf("invalid font data")

func calcChecksum(b []byte) uint32 {
	if len(b)%4 != 0 {
		panic("data not multiple of four bytes")
	}
	var sum uint32
	for i := 0; i < len(b); i += 4 {
		sum += binary.BigEndian.Uint32(b[i : i+4])
	}
	return sum
}

func padding4(n uint32) uint32 {
	return (4 - n&3) & 3
}

func uint32ToString(v uint32) string {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return string(b)
}

func sortedTags(tables map[string][]byte, exclude ...string) []string {
	tags := make([]string, 0, len(tables))
Tags:
	for tag := range tables {
		for _, ex := range exclude {
			if tag == ex {
				continue Tags
			}
		}
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// binaryReader is a parse.BinaryReader that returns zero values when reading past the end, instead of short data, and remembers that it did.
type binaryReader struct {
	*parse.BinaryReader
	eof bool
}

func newBinaryReader(b []byte) *binaryReader {
	return &binaryReader{BinaryReader: parse.NewBinaryReaderBytes(b)}
}

// EOF returns true if any read went past the end of the buffer.
func (r *binaryReader) EOF() bool {
	return r.eof
}

func (r *binaryReader) has(n int64) bool {
	if n < 0 || r.Len() < n {
		r.eof = true
		return false
	}
	return true
}

func (r *binaryReader) ReadBytes(n int64) []byte {
	if !r.has(n) {
		return nil
	} else if n == 0 {
		return []byte{}
	}
	return r.BinaryReader.ReadBytes(n)
}

func (r *binaryReader) ReadString(n int64) string {
	return string(r.ReadBytes(n))
}

func (r *binaryReader) ReadUint8() uint8 {
	if !r.has(1) {
		return 0
	}
	return r.BinaryReader.ReadUint8()
}

func (r *binaryReader) ReadUint16() uint16 {
	if !r.has(2) {
		return 0
	}
	return r.BinaryReader.ReadUint16()
}

func (r *binaryReader) ReadUint32() uint32 {
	if !r.has(4) {
		return 0
	}
	return r.BinaryReader.ReadUint32()
}

func (r *binaryReader) ReadUint64() uint64 {
	if !r.has(8) {
		return 0
	}
	return r.BinaryReader.ReadUint64()
}

func (r *binaryReader) ReadInt16() int16 {
	return int16(r.ReadUint16())
}
