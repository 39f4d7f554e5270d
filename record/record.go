// Package record defines the fixed-width student record stored in the
// database file.
package record

import (
	"strings"

	"github.com/pkg/errors"

	"studentdb/encoder"
)

// field widths in bytes
const (
	IDSize        = 9
	LastNameSize  = 15
	FirstNameSize = 15
	YearSize      = 1
	MajorSize     = 4
	EmailSize     = 20

	// Size is the length of one encoded record.
	Size = 64
)

var ErrMalformedRecord = errors.New("malformed record")

type Student struct {
	ID        string
	LastName  string
	FirstName string
	Year      string
	Major     string
	Email     string
}

// Parse reads a whitespace-separated line:
//
//	<id> <last name> <first name> <year> <major> <email>
func Parse(line string) (*Student, error) {
	return FromFields(strings.Fields(line))
}

func FromFields(fields []string) (*Student, error) {
	if len(fields) != 6 {
		return nil, errors.Wrapf(ErrMalformedRecord, "want 6 fields, got %d", len(fields))
	}
	return &Student{
		ID:        fields[0],
		LastName:  fields[1],
		FirstName: fields[2],
		Year:      fields[3],
		Major:     fields[4],
		Email:     fields[5],
	}, nil
}

// Encode lays the record out as blank-padded fixed-width fields.
// Values longer than their field are truncated.
func (s *Student) Encode() []byte {
	buf := make([]byte, 0, Size)
	buf = append(buf, encoder.PadKey([]byte(s.ID), IDSize)...)
	buf = append(buf, encoder.PadKey([]byte(s.LastName), LastNameSize)...)
	buf = append(buf, encoder.PadKey([]byte(s.FirstName), FirstNameSize)...)
	buf = append(buf, encoder.PadKey([]byte(s.Year), YearSize)...)
	buf = append(buf, encoder.PadKey([]byte(s.Major), MajorSize)...)
	buf = append(buf, encoder.PadKey([]byte(s.Email), EmailSize)...)
	return buf
}

func Decode(buf []byte) (*Student, error) {
	if len(buf) != Size {
		return nil, errors.Wrapf(ErrMalformedRecord, "record of %d bytes", len(buf))
	}
	next := func(n int) string {
		v := string(encoder.TrimKey(buf[:n]))
		buf = buf[n:]
		return v
	}
	return &Student{
		ID:        next(IDSize),
		LastName:  next(LastNameSize),
		FirstName: next(FirstNameSize),
		Year:      next(YearSize),
		Major:     next(MajorSize),
		Email:     next(EmailSize),
	}, nil
}

func (s *Student) String() string {
	return strings.Join([]string{s.ID, s.LastName, s.FirstName, s.Year, s.Major, s.Email}, " ")
}

// Key returns the padded index key of s for field f.
func (s *Student) Key(f Field) []byte {
	if f == FieldName {
		return PadField(s.LastName, f)
	}
	return PadField(s.ID, f)
}
