package font

import (
	"os"
	"strings"
)

// weightTokens are the weight and style names stripped from a derived family name, in the order they are applied.
var weightTokens = [...]string{
	"Regular", "Bold", "Italic", "Medium", "Light",
	"Black", "SemiBold", "ExtraBold", "ExtraLight", "Thin",
}

// Options are the options for FixFamilyNames.
type Options struct {
	Family string // family name override, no tokens are stripped from it
	Index  int    // font index for font collections
	Type   string // output mimetype, defaults to the output filename's extension or the input's format
}

// Result is the outcome of normalizing the family name of a font.
type Result struct {
	FamilyName string
	Found      bool // false if no family name could be derived and the names were left unchanged

	// Skipped holds a *DecodeError for every record that could not be read and an *EncodeError for every record that could not be updated.
	Skipped []error
}

// StripWeightTokens removes weight and style names such as " Bold" or "-Italic" from a family name. A token is only removed when it is preceded by a space or hyphen, so that "ArialBold" is left as is.
func StripWeightTokens(name string) string {
	for _, token := range weightTokens {
		if strings.Contains(name, token) {
			name = strings.ReplaceAll(name, " "+token, "")
			name = strings.ReplaceAll(name, "-"+token, "")
			name = strings.TrimSpace(name)
		}
	}
	return name
}

// ResolveFamilyName returns the override if it is not empty. Otherwise it returns the text of the first decodable preferred family record (name ID 16), falling back to the first decodable family record (name ID 1) when there is none or when it is empty. It returns false if neither yields a name. Records that could not be decoded are returned as *DecodeError.
func ResolveFamilyName(records []NameRecord, override string) (string, bool, []error) {
	if override != "" {
		return override, true, nil
	}

	var skipped []error
	for _, nameID := range []NameID{NamePreferredFamily, NameFontFamily} {
		for _, record := range records {
			if record.Name != nameID {
				continue
			}
			name, err := record.Text()
			if err != nil {
				skipped = append(skipped, err)
				continue
			} else if name != "" {
				return name, true, skipped
			}
			break // only the first decodable record of each name ID counts, even when empty
		}
	}
	return "", false, skipped
}

// ApplyFamilyName sets all family and preferred family records (name IDs 1 and 16) to name, each in its own encoding. Records whose encoding cannot represent name are left unchanged and returned as *EncodeError.
func ApplyFamilyName(t *NameTable, name string) []error {
	var skipped []error
	for i := range t.Records {
		record := &t.Records[i]
		if record.Name != NameFontFamily && record.Name != NamePreferredFamily {
			continue
		}
		if err := record.SetText(name); err != nil {
			skipped = append(skipped, err)
		}
	}
	return skipped
}

// Normalize sets a consistent family name for the font. The name is the override if given, or else derived from the existing names with its weight and style tokens stripped. The name table is left untouched if no name could be derived.
func Normalize(sfnt *SFNT, override string) (Result, error) {
	name, ok, skipped := ResolveFamilyName(sfnt.Name.Records, override)
	if ok && override == "" {
		name = StripWeightTokens(name)
		ok = name != ""
	}

	result := Result{
		Skipped: skipped,
	}
	if !ok {
		return result, nil
	}
	result.FamilyName = name
	result.Found = true
	result.Skipped = append(result.Skipped, ApplyFamilyName(sfnt.Name, name)...)

	table, err := sfnt.Name.Write()
	if err != nil {
		return result, err
	}
	sfnt.Tables["name"] = table
	return result, nil
}

// FixFamilyNames reads the font at inputPath, normalizes its family name, and writes it to outputPath. It returns a *LoadError when the input cannot be read or parsed, in which case the output file is not touched, and a *SaveError when the output cannot be serialized or written.
func FixFamilyNames(inputPath, outputPath string, options Options) (Result, error) {
	b, err := os.ReadFile(inputPath)
	if err != nil {
		return Result{}, &LoadError{inputPath, err}
	}
	mimetype, err := MediaType(b)
	if err != nil {
		return Result{}, &LoadError{inputPath, err}
	} else if b, err = ToSFNT(b); err != nil {
		return Result{}, &LoadError{inputPath, err}
	}
	sfnt, err := ParseSFNT(b, options.Index)
	if err != nil {
		return Result{}, &LoadError{inputPath, err}
	}

	result, err := Normalize(sfnt, options.Family)
	if err != nil {
		return result, &SaveError{outputPath, err}
	}

	mimetype = outputMediaType(outputPath, options.Type, mimetype, sfnt)
	if b, err = sfnt.WriteFormat(mimetype); err != nil {
		return result, &SaveError{outputPath, err}
	} else if err := writeFile(outputPath, b); err != nil {
		return result, &SaveError{outputPath, err}
	}
	return result, nil
}

func writeFile(filename string, b []byte) error {
	w, err := os.Create(filename)
	if err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		w.Close()
		return err
	} else if err := w.Close(); err != nil {
		return err
	}
	return nil
}

