package font

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/test"
)

func TestWOFF2(t *testing.T) {
	sfnt := testSFNT(t, windowsRecord(NameFontFamily, "Aria"))
	sfnt.Tables["DSIG"] = []byte{0, 0, 0, 1, 0, 0, 0, 0}
	sfnt.Tables["zzzz"] = []byte("custom table")

	b, err := sfnt.WriteWOFF2()
	test.Error(t, err)
	test.T(t, string(b[:4]), "wOF2")
	test.T(t, binary.BigEndian.Uint32(b[8:]), uint32(len(b)))
	test.T(t, binary.BigEndian.Uint16(b[12:]), uint16(5))
	test.T(t, len(b)%4, 0)
	test.T(t, binary.BigEndian.Uint16(sfnt.Tables["head"][16:]), uint16(0), "head must not be modified in place")

	b, err = ParseWOFF2(b)
	test.Error(t, err)
	test.T(t, calcChecksum(b), uint32(0xB1B0AFBA))

	sfnt2, err := ParseSFNT(b, 0)
	test.Error(t, err)
	_, hasDSIG := sfnt2.Tables["DSIG"]
	test.T(t, hasDSIG, false)
	test.T(t, sfnt2.Head.Flags&0x0800, uint16(0x0800))
	for _, tag := range []string{"glyf", "loca", "name", "zzzz"} {
		test.T(t, sfnt2.Tables[tag], sfnt.Tables[tag], tag)
	}
	test.T(t, sfnt2.Name.Records[0].String(), "Aria")
}

type testWOFF2Table struct {
	flags       byte
	origLength  uint32
	transformed bool
	data        []byte
}

func testWOFF2(t *testing.T, tables []testWOFF2Table) []byte {
	var compData bytes.Buffer
	wBrotli := brotli.NewWriter(&compData)

	w := parse.NewBinaryWriter([]byte{})
	w.WriteString("wOF2")
	w.WriteUint32(0x00010000) // flavor
	w.WriteUint32(0)          // length
	w.WriteUint16(uint16(len(tables)))
	w.WriteUint16(0) // reserved
	w.WriteBytes(make([]byte, 32))
	for _, table := range tables {
		w.WriteUint8(table.flags)
		writeUintBase128(w, table.origLength)
		if table.transformed {
			writeUintBase128(w, uint32(len(table.data)))
		}
		_, err := wBrotli.Write(table.data)
		test.Error(t, err)
	}
	test.Error(t, wBrotli.Close())
	w.WriteBytes(compData.Bytes())

	b := w.Bytes()
	binary.BigEndian.PutUint32(b[8:], uint32(len(b)))
	binary.BigEndian.PutUint32(b[20:], uint32(compData.Len()))
	return b
}

// testTransformedTables returns a font with two glyphs, an empty one and a triangle, with transformed glyf, loca, and hmtx tables
func testTransformedTables(t *testing.T, overlap bool) []testWOFF2Table {
	name, err := (&NameTable{Records: []NameRecord{windowsRecord(NameFontFamily, "Aria")}}).Write()
	test.Error(t, err)

	hhea := make([]byte, 36)
	binary.BigEndian.PutUint16(hhea[34:], 2) // numberOfHMetrics
	maxp := make([]byte, 6)
	binary.BigEndian.PutUint32(maxp[0:], 0x00005000) // version
	binary.BigEndian.PutUint16(maxp[4:], 2)          // numGlyphs

	glyf := parse.NewBinaryWriter([]byte{})
	glyf.WriteUint16(0) // reserved
	if overlap {
		glyf.WriteUint16(1) // optionFlags
	} else {
		glyf.WriteUint16(0)
	}
	glyf.WriteUint16(2) // numGlyphs
	glyf.WriteUint16(0) // indexFormat
	for _, size := range []uint32{4, 1, 3, 5, 0, 4, 0} {
		glyf.WriteUint32(size)
	}
	glyf.WriteInt16(0)                         // nContourStream
	glyf.WriteInt16(1)                         // nContourStream
	glyf.WriteUint8(3)                         // nPointsStream
	glyf.WriteBytes([]byte{11, 11, 86})        // flagStream
	glyf.WriteBytes([]byte{10, 90, 49, 99, 0}) // glyphStream
	glyf.WriteBytes([]byte{0, 0, 0, 0})        // bboxBitmap
	if overlap {
		glyf.WriteBytes([]byte{0x40, 0, 0, 0}) // overlapSimpleBitmap, glyph 1
	}

	hmtx := parse.NewBinaryWriter([]byte{})
	hmtx.WriteUint8(0x01) // proportional left side bearings omitted
	hmtx.WriteUint16(500)
	hmtx.WriteUint16(600)

	return []testWOFF2Table{
		{1, 54, false, testHead()},
		{2, 36, false, hhea},
		{3 | 0x01<<6, 8, true, hmtx.Bytes()},
		{4, 6, false, maxp},
		{5, uint32(len(name)), false, name},
		{10, 32, true, glyf.Bytes()},
		{11, 6, true, nil},
	}
}

func TestParseWOFF2Transformed(t *testing.T) {
	for _, overlap := range []bool{false, true} {
		b, err := ParseWOFF2(testWOFF2(t, testTransformedTables(t, overlap)))
		test.Error(t, err)

		sfnt, err := ParseSFNT(b, 0)
		test.Error(t, err)
		test.T(t, sfnt.Name.Records[0].String(), "Aria")

		var firstFlag byte = 0x01 // ON_CURVE_POINT
		if overlap {
			firstFlag |= 0x40 // OVERLAP_SIMPLE
		}
		glyf := parse.NewBinaryWriter([]byte{})
		for _, v := range []int16{1, 10, 0, 100, 100, 2, 0} { // numberOfContours, bbox, endPtsOfContours, instructionLength
			glyf.WriteInt16(v)
		}
		glyf.WriteBytes([]byte{firstFlag, 0x01, 0x01})
		for _, v := range []int16{10, 90, -50, 0, 0, 100} {
			glyf.WriteInt16(v)
		}
		glyf.WriteBytes([]byte{0, 0, 0}) // padding
		test.T(t, sfnt.Tables["glyf"], glyf.Bytes(), "glyf")
		test.T(t, sfnt.Tables["loca"], []byte{0, 0, 0, 0, 0, 16}, "loca")
		test.T(t, sfnt.Tables["hmtx"], []byte{0x01, 0xF4, 0, 0, 0x02, 0x58, 0, 10}, "hmtx")
	}
}

func TestParseWOFF2TransformedErrors(t *testing.T) {
	nullLoca := testTransformedTables(t, false)
	nullLoca[6] = testWOFF2Table{11 | 0x03<<6, 6, false, []byte{0, 0, 0, 0, 0, 16}}

	noMaxp := testTransformedTables(t, false)
	noMaxp = append(noMaxp[:3], noMaxp[4:]...)

	badNumGlyphs := testTransformedTables(t, false)
	badNumGlyphs[6].origLength = 10

	truncatedGlyf := testTransformedTables(t, false)
	truncatedGlyf[5].data = truncatedGlyf[5].data[:50]

	var tests = []struct {
		name   string
		tables []testWOFF2Table
	}{
		{"loca untransformed", nullLoca},
		{"hmtx without maxp", noMaxp},
		{"loca length", badNumGlyphs},
		{"glyf streams", truncatedGlyf},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWOFF2(testWOFF2(t, tt.tables))
			test.That(t, err != nil, "must return error")
		})
	}
}

func TestParseWOFF2Errors(t *testing.T) {
	valid, err := testSFNT(t, windowsRecord(NameFontFamily, "Aria")).WriteWOFF2()
	test.Error(t, err)

	badLength := append([]byte{}, valid...)
	binary.BigEndian.PutUint32(badLength[8:], 12)
	noTables := append([]byte{}, valid...)
	binary.BigEndian.PutUint16(noTables[12:], 0)
	collection := append([]byte{}, valid...)
	copy(collection[4:], "ttcf")
	truncatedData := append([]byte{}, valid...)
	binary.BigEndian.PutUint32(truncatedData[20:], uint32(len(valid))) // totalCompressedSize

	var tests = []struct {
		name string
		b    []byte
	}{
		{"short", valid[:40]},
		{"signature", append([]byte("wOFF"), valid[4:]...)},
		{"length", badLength},
		{"numTables", noTables},
		{"collection", collection},
		{"compressed size", truncatedData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWOFF2(tt.b)
			test.That(t, err != nil, "must return error")
		})
	}
}

func TestBitmapReader(t *testing.T) {
	r := &bitmapReader{b: []byte{0x80, 0x00, 0x00, 0x01}}
	bits := []bool{}
	for i := 0; i < 33; i++ {
		bits = append(bits, r.Read())
	}
	test.T(t, bits[0], true)
	test.T(t, bits[1], false)
	test.T(t, bits[31], true, "last bit of the bitmap")
	test.T(t, bits[32], false)
}

func TestUintBase128(t *testing.T) {
	for _, v := range []uint32{0, 1, 63, 127, 128, 16383, 16384, 1 << 28, math.MaxUint32} {
		w := parse.NewBinaryWriter([]byte{})
		writeUintBase128(w, v)
		test.That(t, w.Len() <= 5, "at most 5 bytes")

		r := newBinaryReader(w.Bytes())
		u, err := readUintBase128(r)
		test.Error(t, err)
		test.T(t, u, v)
		test.T(t, r.Len(), int64(0))
	}

	for _, b := range [][]byte{
		{0x80, 0x01},                   // leading zeros
		{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, // exceeds 5 bytes
		{0x90, 0x80, 0x80, 0x80, 0x00}, // overflow
		{0x81},                         // EOF
	} {
		_, err := readUintBase128(newBinaryReader(b))
		test.That(t, err != nil, "must return error")
	}
}
