//go:build gofuzz
// +build gofuzz

package fuzz

import font "github.com/bluemountain3d/font-subsetting-and-metrics-tool"

// Fuzz is a fuzz test.
func Fuzz(data []byte) int {
	b, err := font.ParseWOFF2(data)
	if err != nil {
		return 0
	} else if _, err := font.ParseSFNT(b, 0); err != nil {
		return 0
	}
	return 1
}
