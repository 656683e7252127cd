package font

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/tdewolff/parse/v2"
)

// Specification:
// https://www.w3.org/TR/WOFF2/

// Validation tests:
// https://github.com/w3c/woff2-tests

type woff2Table struct {
	tag              string
	origLength       uint32
	transformVersion int
	transformLength  uint32
	data             []byte
}

var woff2TableTags = []string{
	"cmap", "head", "hhea", "hmtx",
	"maxp", "name", "OS/2", "post",
	"cvt ", "fpgm", "glyf", "loca",
	"prep", "CFF ", "VORG", "EBDT",
	"EBLC", "gasp", "hdmx", "kern",
	"LTSH", "PCLT", "VDMX", "vhea",
	"vmtx", "BASE", "GDEF", "GPOS",
	"GSUB", "EBSC", "JSTF", "MATH",
	"CBDT", "CBLC", "COLR", "CPAL",
	"SVG ", "sbix", "acnt", "avar",
	"bdat", "bloc", "bsln", "cvar",
	"fdsc", "feat", "fmtx", "fvar",
	"gvar", "hsty", "just", "lcar",
	"mort", "morx", "opbd", "prop",
	"trak", "Zapf", "Silf", "Glat",
	"Gloc", "Feat", "Sill",
}

// ParseWOFF2 parses the WOFF2 font format and returns its contained SFNT font format (TTF or OTF). Transformed glyf, loca, and hmtx tables are reconstructed. See https://www.w3.org/TR/WOFF2/
func ParseWOFF2(b []byte) ([]byte, error) {
	if len(b) < 48 {
		return nil, ErrInvalidFontData
	}

	r := newBinaryReader(b)
	signature := r.ReadString(4)
	if signature != "wOF2" {
		return nil, fmt.Errorf("bad signature")
	}
	flavor := r.ReadUint32()
	if uint32ToString(flavor) == "ttcf" {
		return nil, fmt.Errorf("collections are unsupported")
	}
	length := r.ReadUint32()              // length
	numTables := r.ReadUint16()           // numTables
	reserved := r.ReadUint16()            // reserved
	_ = r.ReadUint32()                    // totalSfntSize
	totalCompressedSize := r.ReadUint32() // totalCompressedSize
	_ = r.ReadUint16()                    // majorVersion
	_ = r.ReadUint16()                    // minorVersion
	_ = r.ReadUint32()                    // metaOffset
	_ = r.ReadUint32()                    // metaLength
	_ = r.ReadUint32()                    // metaOrigLength
	_ = r.ReadUint32()                    // privOffset
	_ = r.ReadUint32()                    // privLength
	if r.EOF() {
		return nil, ErrInvalidFontData
	} else if length != uint32(len(b)) {
		return nil, fmt.Errorf("length in header must match file size")
	} else if numTables == 0 {
		return nil, fmt.Errorf("numTables in header must not be zero")
	} else if reserved != 0 {
		return nil, fmt.Errorf("reserved in header must be zero")
	}

	tagTableIndex := map[string]int{}
	tables := []woff2Table{}
	var uncompressedSize uint32
	for i := 0; i < int(numTables); i++ {
		flags := r.ReadUint8()
		tagIndex := int(flags & 0x3F)
		transformVersion := int((flags & 0xC0) >> 6)

		var tag string
		if tagIndex == 63 {
			tag = uint32ToString(r.ReadUint32())
		} else {
			tag = woff2TableTags[tagIndex]
		}

		origLength, err := readUintBase128(r) // if EOF is encountered above
		if err != nil {
			return nil, err
		}

		var transformLength uint32
		if (tag == "glyf" || tag == "loca") && transformVersion == 0 || tag == "hmtx" && transformVersion == 1 {
			transformLength, err = readUintBase128(r)
			if err != nil || tag != "loca" && transformLength == 0 {
				return nil, fmt.Errorf("%s: transformLength must be set", tag)
			} else if tag == "loca" && transformLength != 0 {
				return nil, fmt.Errorf("loca: transformLength must be zero")
			} else if math.MaxUint32-uncompressedSize < transformLength {
				return nil, ErrInvalidFontData
			}
			uncompressedSize += transformLength
		} else if isNullTransform(tag, transformVersion) {
			if math.MaxUint32-uncompressedSize < origLength {
				return nil, ErrInvalidFontData
			}
			uncompressedSize += origLength
		} else {
			return nil, fmt.Errorf("%s: invalid transformation", tag)
		}

		if _, ok := tagTableIndex["glyf"]; tag == "loca" && !ok {
			return nil, fmt.Errorf("loca: must come after glyf table")
		} else if _, ok := tagTableIndex[tag]; ok {
			return nil, fmt.Errorf("%s: table defined more than once", tag)
		}

		tagTableIndex[tag] = len(tables)
		tables = append(tables, woff2Table{
			tag:              tag,
			origLength:       origLength,
			transformVersion: transformVersion,
			transformLength:  transformLength,
		})
	}

	iGlyf, hasGlyf := tagTableIndex["glyf"]
	iLoca, hasLoca := tagTableIndex["loca"]
	if hasGlyf != hasLoca || hasGlyf && (tables[iGlyf].transformVersion == 0) != (tables[iLoca].transformVersion == 0) {
		return nil, fmt.Errorf("glyf and loca tables must be both present and either be both transformed or untransformed")
	}

	// decompress font data using Brotli
	compData := r.ReadBytes(int64(totalCompressedSize))
	if r.EOF() {
		return nil, ErrInvalidFontData
	} else if MaxMemory < uncompressedSize {
		return nil, ErrExceedsMemory
	}
	rBrotli := brotli.NewReader(bytes.NewReader(compData))
	dataBuf := bytes.NewBuffer(make([]byte, 0, uncompressedSize))
	if _, err := io.Copy(dataBuf, io.LimitReader(rBrotli, int64(uncompressedSize)+1)); err != nil {
		return nil, err
	}
	data := dataBuf.Bytes()
	if uint32(len(data)) != uncompressedSize {
		return nil, fmt.Errorf("sum of table lengths must match decompressed font data size")
	}

	// read font data
	var offset uint32
	for i := range tables {
		n := tables[i].origLength
		if tables[i].transformLength != 0 || tables[i].tag == "loca" && tables[i].transformVersion == 0 {
			n = tables[i].transformLength // transformed loca is empty and will be reconstructed
		}
		tables[i].data = data[offset : offset+n : offset+n]
		offset += n
	}

	// detransform font data tables
	if hasGlyf && tables[iGlyf].transformVersion == 0 {
		var err error
		tables[iGlyf].data, tables[iLoca].data, err = reconstructGlyfLoca(tables[iGlyf].data, tables[iLoca].origLength)
		if err != nil {
			return nil, err
		}
	}
	if iHmtx, hasHmtx := tagTableIndex["hmtx"]; hasHmtx && tables[iHmtx].transformVersion == 1 {
		if !hasGlyf {
			return nil, fmt.Errorf("hmtx: glyf table must be defined in order to rebuild hmtx table")
		}
		required := [3][]byte{}
		for j, tag := range []string{"head", "maxp", "hhea"} {
			i, ok := tagTableIndex[tag]
			if !ok {
				return nil, fmt.Errorf("hmtx: %s table must be defined in order to rebuild hmtx table", tag)
			}
			required[j] = tables[i].data
		}
		var err error
		tables[iHmtx].data, err = reconstructHmtx(tables[iHmtx].data, required[0], tables[iGlyf].data, tables[iLoca].data, required[1], required[2])
		if err != nil {
			return nil, err
		}
	}

	if iHead, hasHead := tagTableIndex["head"]; !hasHead || len(tables[iHead].data) < 18 {
		return nil, fmt.Errorf("head: must be present")
	} else if _, hasDSIG := tagTableIndex["DSIG"]; hasDSIG {
		return nil, fmt.Errorf("DSIG: must be removed")
	}

	sfntTables := make(map[string][]byte, len(tables))
	for _, table := range tables {
		sfntTables[table.tag] = table.data
	}
	return writeSFNT(flavor, sfntTables, time.Time{}), nil
}

// isNullTransform returns true if the table data is stored without transformation. The glyf and loca tables use version 3 for the null transform, all other tables use version 0.
func isNullTransform(tag string, transformVersion int) bool {
	if tag == "glyf" || tag == "loca" {
		return transformVersion == 3
	}
	return transformVersion == 0
}

// bitmapReader reads a bit stream, most significant bit first.
type bitmapReader struct {
	b   []byte
	pos uint32
}

func (r *bitmapReader) Read() bool {
	if uint32(len(r.b)) <= r.pos>>3 {
		return false
	}
	bit := r.b[r.pos>>3]&(0x80>>(r.pos&7)) != 0
	r.pos++
	return bit
}

func signInt16(flag byte, pos uint) int16 {
	if flag&(1<<pos) != 0 {
		return 1 // positive if bit on position is set
	}
	return -1
}

var errInvalidGlyf = fmt.Errorf("glyf: %w", ErrInvalidFontData)

// reconstructGlyfLoca rebuilds the glyf and loca tables from the transformed glyf table, see https://www.w3.org/TR/WOFF2/#glyf_table_format
func reconstructGlyfLoca(b []byte, origLocaLength uint32) ([]byte, []byte, error) {
	r := newBinaryReader(b)
	_ = r.ReadUint16() // reserved
	optionFlags := r.ReadUint16()
	numGlyphs := r.ReadUint16()
	indexFormat := r.ReadUint16()
	nContourStreamSize := r.ReadUint32()
	nPointsStreamSize := r.ReadUint32()
	flagStreamSize := r.ReadUint32()
	glyphStreamSize := r.ReadUint32()
	compositeStreamSize := r.ReadUint32()
	bboxStreamSize := r.ReadUint32()
	instructionStreamSize := r.ReadUint32()
	bitmapSize := ((uint32(numGlyphs) + 31) >> 5) << 2
	if r.EOF() || nContourStreamSize != 2*uint32(numGlyphs) || bboxStreamSize < bitmapSize {
		return nil, nil, errInvalidGlyf
	}

	nContourStream := newBinaryReader(r.ReadBytes(int64(nContourStreamSize)))
	nPointsStream := newBinaryReader(r.ReadBytes(int64(nPointsStreamSize)))
	flagStream := newBinaryReader(r.ReadBytes(int64(flagStreamSize)))
	glyphStream := newBinaryReader(r.ReadBytes(int64(glyphStreamSize)))
	compositeStream := newBinaryReader(r.ReadBytes(int64(compositeStreamSize)))
	bboxBitmap := &bitmapReader{b: r.ReadBytes(int64(bitmapSize))}
	bboxStream := newBinaryReader(r.ReadBytes(int64(bboxStreamSize - bitmapSize)))
	instructionStream := newBinaryReader(r.ReadBytes(int64(instructionStreamSize)))
	var overlapSimpleBitmap *bitmapReader
	if optionFlags&0x0001 != 0 { // overlapSimpleBitmap present
		overlapSimpleBitmap = &bitmapReader{b: r.ReadBytes(int64(bitmapSize))}
	}
	if r.EOF() {
		return nil, nil, errInvalidGlyf
	}

	locaLength := (uint32(numGlyphs) + 1) * 2
	if indexFormat != 0 {
		locaLength *= 2
	}
	if locaLength != origLocaLength {
		return nil, nil, fmt.Errorf("loca: origLength must match numGlyphs+1 entries")
	}

	w := parse.NewBinaryWriter([]byte{})
	loca := parse.NewBinaryWriter(make([]byte, 0, locaLength))
	writeLoca := func() {
		if indexFormat == 0 {
			loca.WriteUint16(uint16(w.Len() >> 1))
		} else {
			loca.WriteUint32(uint32(w.Len()))
		}
	}
	for iGlyph := uint16(0); iGlyph < numGlyphs; iGlyph++ {
		writeLoca()

		explicitBbox := bboxBitmap.Read()
		overlapSimple := overlapSimpleBitmap != nil && overlapSimpleBitmap.Read()
		nContours := nContourStream.ReadInt16() // EOF cannot occur
		if nContours == 0 {                     // empty glyph
			if explicitBbox {
				return nil, nil, fmt.Errorf("glyf: empty glyph cannot have bbox definition")
			}
			continue
		} else if 0 < nContours { // simple glyph
			var xMin, yMin, xMax, yMax int16
			if explicitBbox {
				xMin = bboxStream.ReadInt16()
				yMin = bboxStream.ReadInt16()
				xMax = bboxStream.ReadInt16()
				yMax = bboxStream.ReadInt16()
				if bboxStream.EOF() {
					return nil, nil, errInvalidGlyf
				}
			}

			var nPoints uint16
			endPtsOfContours := make([]uint16, nContours)
			for iContour := int16(0); iContour < nContours; iContour++ {
				nPoint := read255Uint16(nPointsStream)
				if math.MaxUint16-nPoints < nPoint {
					return nil, nil, errInvalidGlyf
				}
				nPoints += nPoint
				endPtsOfContours[iContour] = nPoints - 1
			}
			if nPointsStream.EOF() {
				return nil, nil, errInvalidGlyf
			}

			var x, y int16
			outlineFlags := make([]byte, 0, nPoints)
			xCoordinates := make([]int16, 0, nPoints)
			yCoordinates := make([]int16, 0, nPoints)
			for iPoint := uint16(0); iPoint < nPoints; iPoint++ {
				flag := flagStream.ReadUint8()
				onCurve := (flag & 0x80) == 0
				flag &= 0x7f

				// see https://github.com/google/woff2/blob/master/src/woff2_dec.cc
				var dx, dy int16
				if flag < 10 {
					coord0 := int16(glyphStream.ReadUint8())
					dy = signInt16(flag, 0) * (int16(flag&0x0E)<<7 + coord0)
				} else if flag < 20 {
					coord0 := int16(glyphStream.ReadUint8())
					dx = signInt16(flag, 0) * (int16((flag-10)&0x0E)<<7 + coord0)
				} else if flag < 84 {
					coord0 := int16(glyphStream.ReadUint8())
					dx = signInt16(flag, 0) * (1 + int16((flag-20)&0x30) + coord0>>4)
					dy = signInt16(flag, 1) * (1 + int16((flag-20)&0x0C)<<2 + (coord0 & 0x0F))
				} else if flag < 120 {
					coord0 := int16(glyphStream.ReadUint8())
					coord1 := int16(glyphStream.ReadUint8())
					dx = signInt16(flag, 0) * (1 + int16((flag-84)/12)<<8 + coord0)
					dy = signInt16(flag, 1) * (1 + (int16((flag-84)%12)>>2)<<8 + coord1)
				} else if flag < 124 {
					coord0 := int16(glyphStream.ReadUint8())
					coord1 := int16(glyphStream.ReadUint8())
					coord2 := int16(glyphStream.ReadUint8())
					dx = signInt16(flag, 0) * (coord0<<4 + coord1>>4)
					dy = signInt16(flag, 1) * ((coord1&0x0F)<<8 + coord2)
				} else {
					coord0 := int16(glyphStream.ReadUint8())
					coord1 := int16(glyphStream.ReadUint8())
					coord2 := int16(glyphStream.ReadUint8())
					coord3 := int16(glyphStream.ReadUint8())
					dx = signInt16(flag, 0) * (coord0<<8 + coord1)
					dy = signInt16(flag, 1) * (coord2<<8 + coord3)
				}
				xCoordinates = append(xCoordinates, dx)
				yCoordinates = append(yCoordinates, dy)

				// all coordinates are written as two bytes and flags are not repeated
				var outlineFlag byte
				if onCurve {
					outlineFlag |= 0x01 // ON_CURVE_POINT
				}
				if overlapSimple && iPoint == 0 {
					outlineFlag |= 0x40 // OVERLAP_SIMPLE
				}
				outlineFlags = append(outlineFlags, outlineFlag)

				// calculate bbox
				if !explicitBbox {
					if 0 < x && math.MaxInt16-x < dx || x < 0 && dx < math.MinInt16-x ||
						0 < y && math.MaxInt16-y < dy || y < 0 && dy < math.MinInt16-y {
						return nil, nil, errInvalidGlyf
					}
					x += dx
					y += dy
					if iPoint == 0 {
						xMin, xMax = x, x
						yMin, yMax = y, y
					} else {
						xMin, xMax = min(xMin, x), max(xMax, x)
						yMin, yMax = min(yMin, y), max(yMax, y)
					}
				}
			}
			if flagStream.EOF() || glyphStream.EOF() {
				return nil, nil, errInvalidGlyf
			}

			instructionLength := read255Uint16(glyphStream)
			instructions := instructionStream.ReadBytes(int64(instructionLength))
			if glyphStream.EOF() || instructionStream.EOF() {
				return nil, nil, errInvalidGlyf
			}

			// write simple glyph definition
			w.WriteInt16(nContours) // numberOfContours
			w.WriteInt16(xMin)
			w.WriteInt16(yMin)
			w.WriteInt16(xMax)
			w.WriteInt16(yMax)
			for _, endPtsOfContour := range endPtsOfContours {
				w.WriteUint16(endPtsOfContour)
			}
			w.WriteUint16(instructionLength)
			w.WriteBytes(instructions)
			w.WriteBytes(outlineFlags)
			for _, xCoordinate := range xCoordinates {
				w.WriteInt16(xCoordinate)
			}
			for _, yCoordinate := range yCoordinates {
				w.WriteInt16(yCoordinate)
			}
		} else { // composite glyph
			if !explicitBbox {
				return nil, nil, fmt.Errorf("glyf: composite glyph must have bbox definition")
			}

			xMin := bboxStream.ReadInt16()
			yMin := bboxStream.ReadInt16()
			xMax := bboxStream.ReadInt16()
			yMax := bboxStream.ReadInt16()
			if bboxStream.EOF() {
				return nil, nil, errInvalidGlyf
			}

			// write composite glyph definition
			w.WriteInt16(nContours) // numberOfContours
			w.WriteInt16(xMin)
			w.WriteInt16(yMin)
			w.WriteInt16(xMax)
			w.WriteInt16(yMax)

			hasInstructions := false
			for {
				compositeFlag := compositeStream.ReadUint16()
				argsAreWords := (compositeFlag & 0x0001) != 0
				haveScale := (compositeFlag & 0x0008) != 0
				moreComponents := (compositeFlag & 0x0020) != 0
				haveXYScales := (compositeFlag & 0x0040) != 0
				have2by2 := (compositeFlag & 0x0080) != 0
				haveInstructions := (compositeFlag & 0x0100) != 0

				numBytes := int64(4) // 2 for glyphIndex and 2 for XY bytes
				if argsAreWords {
					numBytes += 2
				}
				if haveScale {
					numBytes += 2
				} else if haveXYScales {
					numBytes += 4
				} else if have2by2 {
					numBytes += 8
				}
				compositeBytes := compositeStream.ReadBytes(numBytes)
				if compositeStream.EOF() {
					return nil, nil, errInvalidGlyf
				}

				w.WriteUint16(compositeFlag)
				w.WriteBytes(compositeBytes)
				hasInstructions = hasInstructions || haveInstructions
				if !moreComponents {
					break
				}
			}

			if hasInstructions {
				instructionLength := read255Uint16(glyphStream)
				instructions := instructionStream.ReadBytes(int64(instructionLength))
				if glyphStream.EOF() || instructionStream.EOF() {
					return nil, nil, errInvalidGlyf
				}
				w.WriteUint16(instructionLength)
				w.WriteBytes(instructions)
			}
		}

		// offsets for loca table should be 4-byte aligned
		for n := padding4(uint32(w.Len())); 0 < n; n-- {
			w.WriteUint8(0)
		}
	}
	writeLoca() // last entry in loca table
	return w.Bytes(), loca.Bytes(), nil
}

// reconstructHmtx rebuilds the hmtx table, taking the omitted left side bearings from the xMin of each glyph, see https://www.w3.org/TR/WOFF2/#hmtx_table_format
func reconstructHmtx(b, head, glyf, loca, maxp, hhea []byte) ([]byte, error) {
	if len(head) < 54 || len(maxp) < 6 || len(hhea) < 36 {
		return nil, fmt.Errorf("hmtx: %w", ErrInvalidFontData)
	}
	indexFormat := binary.BigEndian.Uint16(head[50:]) // indexToLocFormat
	numGlyphs := binary.BigEndian.Uint16(maxp[4:])
	numHMetrics := binary.BigEndian.Uint16(hhea[34:])
	if numHMetrics < 1 {
		return nil, fmt.Errorf("hmtx: must have at least one entry")
	} else if numGlyphs < numHMetrics {
		return nil, fmt.Errorf("hmtx: more entries than glyphs in glyf")
	}

	locaLength := (uint32(numGlyphs) + 1) * 2
	if indexFormat != 0 {
		locaLength *= 2
	}
	if locaLength != uint32(len(loca)) {
		return nil, fmt.Errorf("loca: %w", ErrInvalidFontData)
	}
	locaOffset := func(iGlyph uint16) uint32 {
		if indexFormat != 0 {
			return binary.BigEndian.Uint32(loca[4*uint32(iGlyph):])
		}
		return uint32(binary.BigEndian.Uint16(loca[2*uint32(iGlyph):])) << 1
	}

	r := newBinaryReader(b)
	flags := r.ReadUint8()
	reconstructProportional := flags&0x01 != 0
	reconstructMonospaced := flags&0x02 != 0
	if flags&0xFC != 0 {
		return nil, fmt.Errorf("hmtx: reserved bits in flags must not be set")
	} else if !reconstructProportional && !reconstructMonospaced {
		return nil, fmt.Errorf("hmtx: must reconstruct at least one left side bearing array")
	}

	n := 1 + uint32(numHMetrics)*2
	if !reconstructProportional {
		n += uint32(numHMetrics) * 2
	}
	if !reconstructMonospaced {
		n += (uint32(numGlyphs) - uint32(numHMetrics)) * 2
	}
	if n != uint32(len(b)) {
		return nil, fmt.Errorf("hmtx: %w", ErrInvalidFontData)
	}

	advanceWidths := make([]uint16, numHMetrics)
	lsbs := make([]int16, numGlyphs)
	for iHMetric := uint16(0); iHMetric < numHMetrics; iHMetric++ {
		advanceWidths[iHMetric] = r.ReadUint16()
	}
	if !reconstructProportional {
		for iHMetric := uint16(0); iHMetric < numHMetrics; iHMetric++ {
			lsbs[iHMetric] = r.ReadInt16()
		}
	}
	if !reconstructMonospaced {
		for iGlyph := numHMetrics; iGlyph < numGlyphs; iGlyph++ {
			lsbs[iGlyph] = r.ReadInt16()
		}
	}

	// take xMin values from the glyf table
	for iGlyph := uint16(0); iGlyph < numGlyphs; iGlyph++ {
		if iGlyph < numHMetrics && !reconstructProportional || numHMetrics <= iGlyph && !reconstructMonospaced {
			continue
		}
		offset, offsetNext := locaOffset(iGlyph), locaOffset(iGlyph+1)
		if offsetNext < offset || uint32(len(glyf)) < offsetNext {
			return nil, fmt.Errorf("glyf: %w", ErrInvalidFontData)
		} else if offset == offsetNext {
			lsbs[iGlyph] = 0 // empty glyph
		} else if offsetNext-offset < 4 {
			return nil, fmt.Errorf("glyf: %w", ErrInvalidFontData)
		} else {
			lsbs[iGlyph] = int16(binary.BigEndian.Uint16(glyf[offset+2:])) // xMin
		}
	}

	w := parse.NewBinaryWriter(make([]byte, 0, 2*uint32(numGlyphs)+2*uint32(numHMetrics)))
	for iHMetric := uint16(0); iHMetric < numHMetrics; iHMetric++ {
		w.WriteUint16(advanceWidths[iHMetric])
		w.WriteInt16(lsbs[iHMetric])
	}
	for iGlyph := numHMetrics; iGlyph < numGlyphs; iGlyph++ {
		w.WriteInt16(lsbs[iGlyph])
	}
	return w.Bytes(), nil
}

func readUintBase128(r *binaryReader) (uint32, error) {
	// see https://www.w3.org/TR/WOFF2/#DataTypes
	var accum uint32
	for i := 0; i < 5; i++ {
		dataByte := r.ReadUint8()
		if r.EOF() {
			return 0, ErrInvalidFontData
		}
		if i == 0 && dataByte == 0x80 {
			return 0, fmt.Errorf("readUintBase128: must not start with leading zeros")
		}
		if (accum & 0xFE000000) != 0 {
			return 0, fmt.Errorf("readUintBase128: overflow")
		}
		accum = (accum << 7) | uint32(dataByte&0x7F)
		if (dataByte & 0x80) == 0 {
			return accum, nil
		}
	}
	return 0, fmt.Errorf("readUintBase128: exceeds 5 bytes")
}

func read255Uint16(r *binaryReader) uint16 {
	// see https://www.w3.org/TR/WOFF2/#DataTypes
	code := r.ReadUint8()
	if code == 253 {
		return r.ReadUint16()
	} else if code == 255 {
		return uint16(r.ReadUint8()) + 253
	} else if code == 254 {
		return uint16(r.ReadUint8()) + 253*2
	}
	return uint16(code)
}

// WriteWOFF2 writes out the font in the WOFF2 font format. All tables are stored with the null transform, and the DSIG table is dropped as required by the format.
func (sfnt *SFNT) WriteWOFF2() ([]byte, error) {
	tables := make(map[string][]byte, len(sfnt.Tables))
	for tag, table := range sfnt.Tables {
		if tag != "DSIG" {
			tables[tag] = table
		}
	}
	if head, ok := tables["head"]; ok && 18 <= len(head) {
		head = append([]byte{}, head...)
		flags := binary.BigEndian.Uint16(head[16:])
		flags |= 0x0800 // set bit 11, font is compressed
		binary.BigEndian.PutUint16(head[16:], flags)
		tables["head"] = head
	}
	sfntData := (&SFNT{IsCFF: sfnt.IsCFF, Version: sfnt.Version, Tables: tables}).Write()

	tags := sortedTags(tables)
	w := parse.NewBinaryWriter([]byte{})
	w.WriteString("wOF2")                // signature
	w.WriteBytes(sfntData[:4])           // flavor
	w.WriteUint32(0)                     // length (set later)
	w.WriteUint16(uint16(len(tags)))     // numTables
	w.WriteUint16(0)                     // reserved
	w.WriteUint32(uint32(len(sfntData))) // totalSfntSize
	w.WriteUint32(0)                     // totalCompressedSize (set later)
	w.WriteUint16(1)                     // majorVersion
	w.WriteUint16(0)                     // minorVersion
	w.WriteUint32(0)                     // metaOffset
	w.WriteUint32(0)                     // metaLength
	w.WriteUint32(0)                     // metaOrigLength
	w.WriteUint32(0)                     // privOffset
	w.WriteUint32(0)                     // privLength

	// tables are read back from the serialized font to include the updated head table
	r := newBinaryReader(sfntData[12:])
	data := map[string][]byte{}
	for range tags {
		tag := r.ReadString(4)
		_ = r.ReadUint32() // checksum
		offset := r.ReadUint32()
		length := r.ReadUint32()
		data[tag] = sfntData[offset : offset+length]
	}
	for _, tag := range tags {
		tagIndex := -1
		for index, woff2Tag := range woff2TableTags {
			if woff2Tag == tag {
				tagIndex = index
				break
			}
		}

		transformVersion := 0
		if tag == "glyf" || tag == "loca" {
			transformVersion = 3
		}
		if tagIndex == -1 {
			w.WriteUint8(byte(transformVersion)<<6 | 0x3F) // flags
			w.WriteString(tag)                             // tag
		} else {
			w.WriteUint8(byte(transformVersion)<<6 | byte(tagIndex)) // flags
		}
		writeUintBase128(w, uint32(len(data[tag])))
	}

	var compData bytes.Buffer
	wBrotli := brotli.NewWriterLevel(&compData, brotli.BestCompression)
	for _, tag := range tags {
		if _, err := wBrotli.Write(data[tag]); err != nil {
			return nil, err
		}
	}
	if err := wBrotli.Close(); err != nil {
		return nil, err
	}
	totalCompressedSize := uint32(compData.Len())
	w.WriteBytes(compData.Bytes())

	// pad to 4-byte boundary
	// not required by the WOFF2 format, but at least Firefox needs it
	for n := padding4(uint32(w.Len())); 0 < n; n-- {
		w.WriteUint8(0)
	}

	b := w.Bytes()
	binary.BigEndian.PutUint32(b[8:], uint32(len(b)))       // length
	binary.BigEndian.PutUint32(b[20:], totalCompressedSize) // totalCompressedSize
	return b, nil
}

func writeUintBase128(w *parse.BinaryWriter, accum uint32) {
	// see https://www.w3.org/TR/WOFF2/#DataTypes
	if accum == 0 {
		w.WriteUint8(0)
		return
	}
	written := false
	for i := 4; 0 <= i; i-- {
		mask := uint32(0x7F) << (i * 7)
		if v := accum & mask; written || v != 0 {
			v >>= i * 7
			if i != 0 {
				v |= 0x80
			}
			w.WriteUint8(byte(v))
			written = true
		}
	}
}
