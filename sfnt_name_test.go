package font

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tdewolff/test"
	"golang.org/x/text/encoding/japanese"
)

func TestNameTableWrite(t *testing.T) {
	table := &NameTable{
		Version: 1,
		Records: []NameRecord{
			windowsRecord(NamePreferredFamily, "Aria"),
			macRecord(NameFontFamily, "Aria Bold"),
			windowsRecord(NameFontFamily, "Aria Bold"),
			windowsRecord(NameFull, "Aria Bold"),
		},
		LangTags: []nameLangTagRecord{
			{[]byte("\x00e\x00n\x00-\x00U\x00S")},
		},
	}
	b, err := table.Write()
	test.Error(t, err)

	sfnt := &SFNT{Tables: map[string][]byte{"name": b}}
	test.Error(t, sfnt.parseName())
	if diff := cmp.Diff(table, sfnt.Name); diff != "" {
		t.Errorf("name table mismatch (-want +got):\n%s", diff)
	}
	test.T(t, sfnt.Name.LangTags[0].String(), "en-US")

	// records 3 and 4 share storage
	test.T(t, len(b), 6+12*4+2+4+len("Aria")*2+len("Aria Bold")+len("Aria Bold")*2+len("en-US")*2)
}

func TestNameTableGet(t *testing.T) {
	table := &NameTable{
		Records: []NameRecord{
			windowsRecord(NameFontFamily, "A"),
			windowsRecord(NameFull, "B"),
			macRecord(NameFontFamily, "C"),
		},
	}
	records := table.Get(NameFontFamily)
	test.T(t, len(records), 2)
	test.T(t, records[0].String(), "A")
	test.T(t, records[1].String(), "C")
	test.T(t, len(table.Get(NamePreferredFamily)), 0)
}

func TestNameTableOverflow(t *testing.T) {
	table := &NameTable{
		Records: []NameRecord{
			{PlatformWindows, EncodingWindowsUnicodeBMP, 0x0409, NameFontFamily, make([]byte, 0x10000)},
		},
	}
	_, err := table.Write()
	test.That(t, errors.Is(err, ErrNameTableOverflow), "must overflow")

	table.Records = []NameRecord{
		{PlatformWindows, EncodingWindowsUnicodeBMP, 0x0409, NameFontFamily, bytes.Repeat([]byte{'a'}, 0x8000)},
		{PlatformWindows, EncodingWindowsUnicodeBMP, 0x0409, NamePreferredFamily, bytes.Repeat([]byte{'b'}, 0x8000)},
		{PlatformWindows, EncodingWindowsUnicodeBMP, 0x0409, NameFull, []byte("c")},
	}
	_, err = table.Write()
	test.That(t, errors.Is(err, ErrNameTableOverflow), "must overflow")
}

func TestParseNameErrors(t *testing.T) {
	valid, err := (&NameTable{Records: []NameRecord{windowsRecord(NameFontFamily, "Aria")}}).Write()
	test.Error(t, err)

	badOffset := append([]byte{}, valid...)
	badOffset[17] = 0xFF // offset of first record

	var tests = []struct {
		name string
		b    []byte
	}{
		{"short", []byte{0, 0, 0}},
		{"version", append([]byte{0, 2}, valid[2:]...)},
		{"count", []byte{0, 0, 0, 5, 0, 6}},
		{"record bounds", badOffset},
		{"storageOffset", append(append([]byte{}, valid[:4]...), append([]byte{0, 4}, valid[6:]...)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sfnt := &SFNT{Tables: map[string][]byte{"name": tt.b}}
			test.That(t, sfnt.parseName() != nil, "must return error")
		})
	}
}

func TestParseNameStorageGap(t *testing.T) {
	valid, err := (&NameTable{Records: []NameRecord{
		windowsRecord(NameFontFamily, "Aria"),
		macRecord(NameFontFamily, "Aria"),
	}}).Write()
	test.Error(t, err)

	// two bytes between the records and the string storage
	storageOffset := binary.BigEndian.Uint16(valid[4:])
	b := append([]byte{}, valid[:storageOffset]...)
	b = append(b, 0xAA, 0xBB)
	b = append(b, valid[storageOffset:]...)
	binary.BigEndian.PutUint16(b[4:], storageOffset+2)

	sfnt := &SFNT{Tables: map[string][]byte{"name": b}}
	test.Error(t, sfnt.parseName())
	test.T(t, len(sfnt.Name.Records), 2)
	for _, record := range sfnt.Name.Records {
		test.T(t, record.String(), "Aria")
	}
}

func TestNameRecordText(t *testing.T) {
	var tests = []struct {
		record NameRecord
		text   string
	}{
		{windowsRecord(NameFontFamily, "Aria"), "Aria"},
		{windowsRecord(NameFontFamily, "日本"), "日本"},
		{NameRecord{PlatformUnicode, 3, 0, NameFontFamily, []byte("\x00A\x00b")}, "Ab"},
		{NameRecord{PlatformMacintosh, EncodingMacintoshRoman, 0, NameFontFamily, []byte("Café")}, "Café"},
		{NameRecord{PlatformMacintosh, EncodingMacintoshRoman, 0, NameFontFamily, []byte("Caf\xE9")}, "Café"},
		{NameRecord{PlatformMacintosh, EncodingMacintoshRoman, 0, NameFontFamily, []byte{}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			text, err := tt.record.Text()
			test.Error(t, err)
			test.T(t, text, tt.text)
		})
	}
}

func TestNameRecordTextStrict(t *testing.T) {
	for _, value := range [][]byte{
		[]byte("\x00A\x00"),     // odd length
		[]byte("\xD8\x00\x00A"), // unpaired surrogate
	} {
		record := NameRecord{PlatformWindows, EncodingWindowsUnicodeBMP, 0x0409, NameFontFamily, value}
		_, err := record.Text()
		var decodeErr *DecodeError
		test.That(t, errors.As(err, &decodeErr), "must return DecodeError")
		test.T(t, decodeErr.Record.ID(), record.ID())
	}
}

func TestNameRecordSetText(t *testing.T) {
	sjis, err := japanese.ShiftJIS.NewEncoder().String("日本")
	test.Error(t, err)

	var tests = []struct {
		record NameRecord
		text   string
		value  []byte
	}{
		{NameRecord{Platform: PlatformUnicode, Encoding: 4}, "Aria", []byte("\x00A\x00r\x00i\x00a")},
		{NameRecord{Platform: PlatformWindows, Encoding: EncodingWindowsSymbol}, "Aria", []byte("\x00A\x00r\x00i\x00a")},
		{NameRecord{Platform: PlatformMacintosh, Encoding: EncodingMacintoshRoman}, "Café", []byte("Caf\x8E")},
		{NameRecord{Platform: PlatformMacintosh, Encoding: EncodingMacintoshJapanese}, "日本", []byte(sjis)},
		{NameRecord{Platform: PlatformWindows, Encoding: EncodingWindowsShiftJIS}, "日本", []byte(sjis)},
		{NameRecord{Platform: PlatformISO, Encoding: EncodingISOASCII}, "Aria", []byte("Aria")},
		{NameRecord{Platform: PlatformISO, Encoding: EncodingISO8859_1}, "Café", []byte("Caf\xE9")},
		{NameRecord{Platform: PlatformISO, Encoding: EncodingISO10646}, "Aria", []byte("\x00A\x00r\x00i\x00a")},
	}
	for _, tt := range tests {
		t.Run(tt.record.ID().String(), func(t *testing.T) {
			test.Error(t, tt.record.SetText(tt.text))
			test.T(t, tt.record.Value, tt.value)
			test.T(t, tt.record.String(), tt.text)
		})
	}
}

func TestNameRecordSetTextError(t *testing.T) {
	var tests = []struct {
		record NameRecord
		text   string
	}{
		{NameRecord{Platform: PlatformMacintosh, Encoding: EncodingMacintoshRoman}, "日本"},
		{NameRecord{Platform: PlatformMacintosh, Encoding: 32}, "Aria"},
		{NameRecord{Platform: PlatformISO, Encoding: EncodingISOASCII}, "Café"},
		{NameRecord{Platform: PlatformWindows, Encoding: EncodingWindowsJohab}, "Aria"},
		{NameRecord{Platform: PlatformCustom}, "Aria"},
	}
	for _, tt := range tests {
		t.Run(tt.record.ID().String(), func(t *testing.T) {
			tt.record.Value = []byte("old")
			err := tt.record.SetText(tt.text)
			var encodeErr *EncodeError
			test.That(t, errors.As(err, &encodeErr), "must return EncodeError")
			test.T(t, tt.record.Value, []byte("old"))
		})
	}
}
