package font

import "fmt"

// LoadError is returned when a font file cannot be read or is not a recognizable font.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// SaveError is returned when a font cannot be serialized or written.
type SaveError struct {
	Path string
	Err  error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save %s: %v", e.Path, e.Err)
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when the value of a name record cannot be decoded to text. It never aborts a run, the record is skipped instead.
type DecodeError struct {
	Record NameRecord
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("name: cannot decode %v: %v", e.Record.ID(), e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// EncodeError is returned when a text cannot be represented in the encoding of a name record. It never aborts a run, the record is left unchanged instead.
type EncodeError struct {
	Record NameRecord
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("name: cannot encode %v: %v", e.Record.ID(), e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
