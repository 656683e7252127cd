package font

import (
	"testing"

	"github.com/tdewolff/test"
)

func TestMediaType(t *testing.T) {
	var tests = []struct {
		b        []byte
		mimetype string
	}{
		{[]byte("OTTO\x00\x00"), "font/opentype"},
		{[]byte("true\x00\x00"), "font/truetype"},
		{[]byte("\x00\x01\x00\x00"), "font/truetype"},
		{[]byte("wOFF\x00\x00"), "font/woff"},
		{[]byte("wOF2\x00\x00"), "font/woff2"},
		{[]byte("ttcf\x00\x01\x00\x00\x00\x00\x00\x01\x00\x00\x00\x10OTTO"), "font/opentype"},
		{[]byte("ttcf\x00\x01\x00\x00\x00\x00\x00\x01\x00\x00\x00\x10\x00\x01\x00\x00"), "font/truetype"},
		{testEOT(t, []byte("\x00\x01\x00\x00"), 0), "font/eot"},
	}
	for _, tt := range tests {
		t.Run(tt.mimetype, func(t *testing.T) {
			mimetype, err := MediaType(tt.b)
			test.Error(t, err)
			test.T(t, mimetype, tt.mimetype)
		})
	}

	for _, b := range [][]byte{nil, []byte("OTT"), []byte("this is not a font file at all, really not")} {
		_, err := MediaType(b)
		test.That(t, err != nil, "must return error")
		_, err = ToSFNT(b)
		test.That(t, err != nil, "must return error")
	}
}

func TestOutputMediaType(t *testing.T) {
	trueType := &SFNT{IsTrueType: true}
	cff := &SFNT{IsCFF: true}

	var tests = []struct {
		filename, mimetype, input string
		sfnt                      *SFNT
		expected                  string
	}{
		{"out.ttf", "font/woff2", "font/truetype", trueType, "font/woff2"},
		{"out.woff2", "", "font/truetype", trueType, "font/woff2"},
		{"out.WOFF", "", "font/truetype", trueType, "font/woff"},
		{"out.otf", "", "font/woff", cff, "font/opentype"},
		{"out.otf", "", "font/truetype", trueType, "font/truetype"},
		{"out.ttf", "", "font/woff2", cff, "font/opentype"},
		{"out.eot", "", "font/truetype", trueType, "font/truetype"},
		{"out.eot", "", "font/woff", trueType, "font/woff"},
		{"out.eot", "", "font/eot", cff, "font/opentype"},
		{"out", "", "font/woff", cff, "font/woff"},
		{"out", "", "font/woff2", trueType, "font/woff2"},
		{"out.font", "", "font/eot", trueType, "font/truetype"},
		{"out", "", "font/opentype", cff, "font/opentype"},
	}
	for _, tt := range tests {
		t.Run(tt.filename+" from "+tt.input, func(t *testing.T) {
			test.T(t, outputMediaType(tt.filename, tt.mimetype, tt.input, tt.sfnt), tt.expected)
		})
	}
}

func TestWriteFormat(t *testing.T) {
	sfnt := testSFNT(t, windowsRecord(NameFontFamily, "Aria"))
	for _, mimetype := range []string{"font/truetype", "font/woff", "font/woff2"} {
		b, err := sfnt.WriteFormat(mimetype)
		test.Error(t, err)
		out, err := MediaType(b)
		test.Error(t, err)
		test.T(t, out, mimetype)
	}

	for _, mimetype := range []string{"", "font/opentype", "font/eot", "image/png"} {
		_, err := sfnt.WriteFormat(mimetype)
		test.That(t, err != nil, "must return error for "+mimetype)
	}

	cff := testSFNT(t, windowsRecord(NameFontFamily, "Aria"))
	cff.IsTrueType, cff.IsCFF = false, true
	b, err := cff.WriteFormat("font/opentype")
	test.Error(t, err)
	test.T(t, string(b[:4]), "OTTO")
	_, err = cff.WriteFormat("font/truetype")
	test.That(t, err != nil, "must not convert outlines")
}
