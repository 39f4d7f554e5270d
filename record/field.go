package record

import (
	"strings"

	"github.com/pkg/errors"

	"studentdb/encoder"
)

// Field names an indexed record field.
type Field int

const (
	FieldID Field = iota
	FieldName
)

// Fields lists the indexed fields in index file order (.ix1, .ix2).
var Fields = []Field{FieldID, FieldName}

// ParseField accepts the selectors used by the command file: "ID" and "name".
func ParseField(s string) (Field, error) {
	switch strings.ToLower(s) {
	case "id":
		return FieldID, nil
	case "name", "lastname":
		return FieldName, nil
	}
	return FieldID, errors.Errorf("unknown field %q", s)
}

func (f Field) String() string {
	if f == FieldName {
		return "name"
	}
	return "ID"
}

// Width is the key width of the field's index.
func (f Field) Width() int {
	if f == FieldName {
		return LastNameSize
	}
	return IDSize
}

// PadField pads or truncates key to the index key width of f.
func PadField(key string, f Field) []byte {
	return encoder.PadKey([]byte(key), f.Width())
}
