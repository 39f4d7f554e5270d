package record

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEncodeDecode(t *testing.T) {
	s, err := Parse("123456789   Smith  John 2 CS   jsmith@example.edu")
	require.NoError(t, err)
	assert.Equal(t, "Smith", s.LastName)

	buf := s.Encode()
	require.Len(t, buf, Size)
	assert.Equal(t, "123456789Smith          John           2CS  jsmith@example.edu  ", string(buf))

	back, err := Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, s, back)
}

func TestEncodeTruncatesLongFields(t *testing.T) {
	s := &Student{ID: "1234567890123", LastName: "Wolfeschlegelsteinhausen", Year: "12", Major: "PHYSX",
		Email: "a.very.long.address@example.com"}
	back, err := Decode(s.Encode())
	require.NoError(t, err)
	assert.Equal(t, "123456789", back.ID)
	assert.Equal(t, "Wolfeschlegelst", back.LastName)
	assert.Equal(t, "1", back.Year)
	assert.Equal(t, "PHYS", back.Major)
	assert.Equal(t, "a.very.long.address@", back.Email)
}

func TestParseMalformed(t *testing.T) {
	for _, line := range []string{"", "123 Smith", "1 2 3 4 5 6 7"} {
		_, err := Parse(line)
		assert.True(t, errors.Is(err, ErrMalformedRecord), "line %q", line)
	}
	_, err := Decode(make([]byte, Size-1))
	assert.True(t, errors.Is(err, ErrMalformedRecord))
}

func TestKeysArePadded(t *testing.T) {
	s := &Student{ID: "42", LastName: "Li"}
	assert.Equal(t, "42       ", string(s.Key(FieldID)))
	assert.Equal(t, "Li             ", string(s.Key(FieldName)))
}

func TestParseField(t *testing.T) {
	f, err := ParseField("ID")
	require.NoError(t, err)
	assert.Equal(t, FieldID, f)
	assert.Equal(t, IDSize, f.Width())

	f, err = ParseField("name")
	require.NoError(t, err)
	assert.Equal(t, FieldName, f)
	assert.Equal(t, "name", f.String())
	assert.Equal(t, LastNameSize, f.Width())

	_, err = ParseField("email")
	assert.Error(t, err)
}

func TestFake(t *testing.T) {
	s := Fake(rand.New(rand.NewSource(1)))
	assert.Len(t, s.ID, IDSize)
	assert.NotEmpty(t, s.LastName)
	assert.NotEmpty(t, s.Email)
	_, err := Decode(s.Encode())
	require.NoError(t, err)
}
