package font

import (
	"fmt"

	"github.com/tdewolff/parse/v2"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNameTableOverflow is returned when the strings of a name table do not fit in its 16-bit offsets.
var ErrNameTableOverflow = fmt.Errorf("name: string storage exceeds 64kB")

// PlatformID is the platform of a name record, see https://learn.microsoft.com/en-us/typography/opentype/spec/name#platform-ids
type PlatformID uint16

// see PlatformID
const (
	PlatformUnicode PlatformID = iota
	PlatformMacintosh
	PlatformISO
	PlatformWindows
	PlatformCustom
)

// EncodingID is the platform-specific encoding of a name record.
type EncodingID uint16

// see EncodingID
const (
	EncodingMacintoshRoman              EncodingID = 0
	EncodingMacintoshJapanese           EncodingID = 1
	EncodingMacintoshChineseTraditional EncodingID = 2
	EncodingMacintoshKorean             EncodingID = 3
	EncodingMacintoshCyrillic           EncodingID = 7
	EncodingMacintoshChineseSimplified  EncodingID = 25

	EncodingISOASCII  EncodingID = 0
	EncodingISO10646  EncodingID = 1
	EncodingISO8859_1 EncodingID = 2

	EncodingWindowsSymbol      EncodingID = 0
	EncodingWindowsUnicodeBMP  EncodingID = 1
	EncodingWindowsShiftJIS    EncodingID = 2
	EncodingWindowsPRC         EncodingID = 3
	EncodingWindowsBig5        EncodingID = 4
	EncodingWindowsWansung     EncodingID = 5
	EncodingWindowsJohab       EncodingID = 6
	EncodingWindowsUnicodeFull EncodingID = 10
)

// NameID identifies the kind of string held by a name record.
type NameID uint16

// see NameID
const (
	NameCopyrightNotice NameID = iota
	NameFontFamily
	NameFontSubfamily
	NameUniqueIdentifier
	NameFull
	NameVersion
	NamePostScript
	NameTrademark
	NameManufacturer
	NameDesigner
	NameDescription
	NameVendorURL
	NameDesignerURL
	NameLicense
	NameLicenseURL
	_
	NamePreferredFamily
	NamePreferredSubfamily
	NameCompatibleFull
	NameSampleText
	NamePostScriptCID
	NameWWSFamily
	NameWWSSubfamily
	NameLightBackgroundPalette
	NameDarkBackgroundPalette
	NameVariationsPostScriptNamePrefix
)

var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

// NameRecordID is the (platform, encoding, language, name) key of a name record.
type NameRecordID struct {
	Platform PlatformID
	Encoding EncodingID
	Language uint16
	Name     NameID
}

func (id NameRecordID) String() string {
	return fmt.Sprintf("record nameID=%d platformID=%d encodingID=%d languageID=0x%04X", id.Name, id.Platform, id.Encoding, id.Language)
}

// NameRecord is a single string of the name table.
type NameRecord struct {
	Platform PlatformID
	Encoding EncodingID
	Language uint16
	Name     NameID
	Value    []byte
}

// ID returns the identifying fields of the record.
func (record NameRecord) ID() NameRecordID {
	return NameRecordID{record.Platform, record.Encoding, record.Language, record.Name}
}

// IsUnicode returns true if the record's value is stored as UTF-16BE.
func (record NameRecord) IsUnicode() bool {
	if record.Platform == PlatformUnicode {
		return true
	} else if record.Platform == PlatformWindows {
		switch record.Encoding {
		case EncodingWindowsSymbol, EncodingWindowsUnicodeBMP, EncodingWindowsUnicodeFull:
			return true
		}
	}
	return false
}

// TextEncoding returns the text encoding declared by the record's platform and encoding IDs. It returns nil when the encoding is not supported.
func (record NameRecord) TextEncoding() encoding.Encoding {
	if record.IsUnicode() {
		return utf16BE
	}
	switch record.Platform {
	case PlatformMacintosh:
		switch record.Encoding {
		case EncodingMacintoshRoman:
			return charmap.Macintosh
		case EncodingMacintoshJapanese:
			return japanese.ShiftJIS
		case EncodingMacintoshChineseTraditional:
			return traditionalchinese.Big5
		case EncodingMacintoshKorean:
			return korean.EUCKR
		case EncodingMacintoshCyrillic:
			return charmap.MacintoshCyrillic
		case EncodingMacintoshChineseSimplified:
			return simplifiedchinese.GBK
		}
	case PlatformISO:
		switch record.Encoding {
		case EncodingISOASCII, EncodingISO8859_1:
			return charmap.ISO8859_1
		case EncodingISO10646:
			return utf16BE
		}
	case PlatformWindows:
		switch record.Encoding {
		case EncodingWindowsShiftJIS:
			return japanese.ShiftJIS
		case EncodingWindowsPRC:
			return simplifiedchinese.GBK
		case EncodingWindowsBig5:
			return traditionalchinese.Big5
		case EncodingWindowsWansung:
			return korean.EUCKR
		}
	}
	return nil
}

// Text decodes the record's value. Unicode records are decoded strictly as UTF-16BE, other records are read as UTF-8 and otherwise as ISO 8859-1, regardless of their declared encoding. It returns a *DecodeError on failure.
func (record NameRecord) Text() (string, error) {
	if record.IsUnicode() {
		s, err := utf16BE.NewDecoder().String(string(record.Value))
		if err != nil {
			return "", &DecodeError{record, err}
		}
		// the decoder replaces bad code units, reject those
		if b, err := utf16BE.NewEncoder().String(s); err != nil || b != string(record.Value) {
			return "", &DecodeError{record, fmt.Errorf("invalid UTF-16BE data")}
		}
		return s, nil
	}

	if s, _, err := transform.String(encoding.UTF8Validator, string(record.Value)); err == nil {
		return s, nil
	}
	s, err := charmap.ISO8859_1.NewDecoder().String(string(record.Value))
	if err != nil {
		return "", &DecodeError{record, err}
	}
	return s, nil
}

// SetText encodes s using the record's declared encoding and replaces its value. It returns an *EncodeError and leaves the record unchanged if the encoding is unsupported or cannot represent s.
func (record *NameRecord) SetText(s string) error {
	enc := record.TextEncoding()
	if enc == nil {
		return &EncodeError{*record, fmt.Errorf("unsupported encoding")}
	}
	if record.Platform == PlatformISO && record.Encoding == EncodingISOASCII {
		for _, r := range s {
			if 0x80 <= r {
				return &EncodeError{*record, fmt.Errorf("rune %U not in ASCII", r)}
			}
		}
	}
	b, err := enc.NewEncoder().String(s)
	if err != nil {
		return &EncodeError{*record, err}
	}
	record.Value = []byte(b)
	return nil
}

// String returns the value decoded with its declared encoding, or the raw value if that fails.
func (record NameRecord) String() string {
	if enc := record.TextEncoding(); enc != nil {
		if s, err := enc.NewDecoder().String(string(record.Value)); err == nil {
			return s
		}
	}
	return string(record.Value)
}

type nameLangTagRecord struct {
	Value []byte
}

func (record nameLangTagRecord) String() string {
	s, err := utf16BE.NewDecoder().String(string(record.Value))
	if err == nil {
		return s
	}
	return string(record.Value)
}

// NameTable is the naming table, see https://learn.microsoft.com/en-us/typography/opentype/spec/name
type NameTable struct {
	Version uint16
	Records []NameRecord
	LangTags []nameLangTagRecord
}

// Get returns the records with the given name ID in table order.
func (t *NameTable) Get(name NameID) []NameRecord {
	records := []NameRecord{}
	for _, record := range t.Records {
		if record.Name == name {
			records = append(records, record)
		}
	}
	return records
}

func (sfnt *SFNT) parseName() error {
	b, ok := sfnt.Tables["name"]
	if !ok {
		return fmt.Errorf("name: missing table")
	} else if len(b) < 6 {
		return fmt.Errorf("name: bad table")
	}

	sfnt.Name = &NameTable{}
	r := newBinaryReader(b)
	version := r.ReadUint16()
	if version != 0 && version != 1 {
		return fmt.Errorf("name: bad version")
	}
	count := r.ReadUint16()
	storageOffset := uint32(r.ReadUint16())
	if uint32(len(b)) < 6+12*uint32(count) || uint32(len(b)) < storageOffset {
		return fmt.Errorf("name: bad table")
	}
	storage := b[storageOffset:]

	sfnt.Name.Version = version
	sfnt.Name.Records = make([]NameRecord, count)
	for i := 0; i < int(count); i++ {
		sfnt.Name.Records[i].Platform = PlatformID(r.ReadUint16())
		sfnt.Name.Records[i].Encoding = EncodingID(r.ReadUint16())
		sfnt.Name.Records[i].Language = r.ReadUint16()
		sfnt.Name.Records[i].Name = NameID(r.ReadUint16())

		length := uint32(r.ReadUint16())
		offset := uint32(r.ReadUint16())
		if uint32(len(storage)) < offset+length {
			return fmt.Errorf("name: bad record %d", i)
		}
		sfnt.Name.Records[i].Value = storage[offset : offset+length : offset+length]
	}
	if version == 1 {
		if r.Len() < 2 {
			return fmt.Errorf("name: bad table")
		}
		langTagCount := r.ReadUint16()
		if r.Len() < 4*int64(langTagCount) {
			return fmt.Errorf("name: bad table")
		}
		sfnt.Name.LangTags = make([]nameLangTagRecord, langTagCount)
		for i := 0; i < int(langTagCount); i++ {
			length := uint32(r.ReadUint16())
			offset := uint32(r.ReadUint16())
			if uint32(len(storage)) < offset+length {
				return fmt.Errorf("name: bad lang tag record %d", i)
			}
			sfnt.Name.LangTags[i].Value = storage[offset : offset+length : offset+length]
		}
	}
	// storage may start after a gap, but must not overlap the records
	if storageOffset < uint32(r.Pos()) {
		return fmt.Errorf("name: bad storageOffset")
	}
	return nil
}

// Write serializes the name table. Records keep their order and equal strings share storage.
func (t *NameTable) Write() ([]byte, error) {
	headerLength := 6 + 12*uint32(len(t.Records))
	if t.Version == 1 {
		headerLength += 2 + 4*uint32(len(t.LangTags))
	}
	if 0xFFFF < headerLength {
		return nil, ErrNameTableOverflow
	}

	storage := newNameStorage()
	w := parse.NewBinaryWriter([]byte{})
	w.WriteUint16(t.Version)
	w.WriteUint16(uint16(len(t.Records))) // count
	w.WriteUint16(uint16(headerLength))   // storageOffset
	for _, record := range t.Records {
		offset, length, err := storage.Add(record.Value)
		if err != nil {
			return nil, err
		}
		w.WriteUint16(uint16(record.Platform))
		w.WriteUint16(uint16(record.Encoding))
		w.WriteUint16(record.Language)
		w.WriteUint16(uint16(record.Name))
		w.WriteUint16(length)
		w.WriteUint16(offset)
	}
	if t.Version == 1 {
		w.WriteUint16(uint16(len(t.LangTags))) // langTagCount
		for _, langTag := range t.LangTags {
			offset, length, err := storage.Add(langTag.Value)
			if err != nil {
				return nil, err
			}
			w.WriteUint16(length)
			w.WriteUint16(offset)
		}
	}
	w.WriteBytes(storage.data)
	return w.Bytes(), nil
}

type nameStorage struct {
	data []byte
	idx  map[string]uint16
}

func newNameStorage() *nameStorage {
	return &nameStorage{
		idx: map[string]uint16{},
	}
}

func (s *nameStorage) Add(b []byte) (uint16, uint16, error) {
	if 0xFFFF < len(b) {
		return 0, 0, ErrNameTableOverflow
	}
	key := string(b)
	if offset, ok := s.idx[key]; ok {
		return offset, uint16(len(b)), nil
	} else if 0xFFFF < len(s.data) {
		return 0, 0, ErrNameTableOverflow
	}
	offset := uint16(len(s.data))
	s.idx[key] = offset
	s.data = append(s.data, b...)
	return offset, uint16(len(b)), nil
}
