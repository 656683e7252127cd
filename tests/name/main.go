//go:build gofuzz
// +build gofuzz

package fuzz

import font "github.com/bluemountain3d/font-subsetting-and-metrics-tool"

// Fuzz is a fuzz test.
func Fuzz(data []byte) int {
	sfnt, err := font.ParseSFNT(data, 0)
	if err != nil {
		return 0
	}
	if _, err := font.Normalize(sfnt, ""); err != nil {
		return 0
	} else if _, err := font.ParseSFNT(sfnt.Write(), 0); err != nil {
		panic(err)
	}
	return 1
}
