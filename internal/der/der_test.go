package der

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoolean(t *testing.T) {
	elem, err := ReadElement([]byte{0x01, 0x01, 0xFF})
	require.NoError(t, err)
	assert.Equal(t, KindBoolean, elem.Kind)
	assert.True(t, elem.Bool)

	elem, err = ReadElement([]byte{0x01, 0x01, 0x00})
	require.NoError(t, err)
	assert.False(t, elem.Bool)

	_, err = ReadElement([]byte{0x01, 0x01, 0x01})
	assert.Error(t, err)
}

func TestIntegerMinimalEncoding(t *testing.T) {
	_, err := ReadElement([]byte{0x02, 0x02, 0x00, 0x00})
	assert.Error(t, err)

	_, err = ReadElement([]byte{0x02, 0x02, 0xFF, 0x80})
	assert.Error(t, err)

	elem, err := ReadElement([]byte{0x02, 0x01, 0x01})
	require.NoError(t, err)
	assert.Equal(t, KindInteger, elem.Kind)
	assert.Equal(t, []byte{0x01}, elem.Bytes)
}

func TestObjectIdentifier(t *testing.T) {
	elem, err := ReadElement([]byte{0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03, 0x04, 0x02, 0x01})
	require.NoError(t, err)
	assert.Equal(t, KindObjectIdentifier, elem.Kind)
	assert.Equal(t, []uint64{2, 16, 840, 1, 101, 3, 4, 2, 1}, elem.OID)
}

func TestSequenceSpans(t *testing.T) {
	input := []byte{0x30, 0x0A, 0x16, 0x05, 'S', 'm', 'i', 't', 'h', 0x01, 0x01, 0xFF}
	elem, err := ReadElement(input)
	require.NoError(t, err)
	assert.Equal(t, KindSequence, elem.Kind)
	assert.Equal(t, 0, elem.Start)
	assert.Equal(t, 12, elem.End)
	require.Len(t, elem.Children, 2)

	assert.Equal(t, KindIA5String, elem.Children[0].Kind)
	assert.Equal(t, "Smith", elem.Children[0].Str)
	assert.Equal(t, 2, elem.Children[0].Start)
	assert.Equal(t, 9, elem.Children[0].End)

	assert.Equal(t, KindBoolean, elem.Children[1].Kind)
	assert.True(t, elem.Children[1].Bool)
	assert.Equal(t, 9, elem.Children[1].Start)
	assert.Equal(t, 12, elem.Children[1].End)
}

var assertNull = &derErr{"expected trailing NULL"}

type derErr struct{ msg string }

func (e *derErr) Error() string { return e.msg }

func TestDefaultOptionalDecoding(t *testing.T) {
	cases := []struct {
		input     []byte
		wantD     bool
		wantO     []byte
		wantOSet  bool
	}{
		{[]byte{0x30, 0x02, 0x05, 0x00}, false, nil, false},
		{[]byte{0x30, 0x05, 0x01, 0x01, 0xFF, 0x05, 0x00}, true, nil, false},
		{[]byte{0x30, 0x05, 0x04, 0x01, 0x12, 0x05, 0x00}, false, []byte{0x12}, true},
		{[]byte{0x30, 0x08, 0x01, 0x01, 0xFF, 0x04, 0x01, 0x12, 0x05, 0x00}, true, []byte{0x12}, true},
	}
	for _, c := range cases {
		elem, err := ReadElement(c.input)
		require.NoError(t, err)
		require.Equal(t, KindSequence, elem.Kind)

		// The OCTET STRING OPTIONAL case above is context-tagged only
		// implicitly by its universal tag 0x04 in these fixtures (no
		// explicit [0] wrapper in the input bytes), matching the way the
		// octet-string variant is distinguished from the NULL terminator:
		// treat a plain OctetString the same as the [0]-tagged slot would
		// be treated once untagged.
		d, o, oSet, err := parseDefaultOptionalUntagged(elem.Children)
		require.NoError(t, err)
		assert.Equal(t, c.wantD, d)
		assert.Equal(t, c.wantOSet, oSet)
		if c.wantOSet {
			assert.Equal(t, c.wantO, o)
		}
	}
}

func parseDefaultOptionalUntagged(children []Element) (d bool, o []byte, oPresent bool, err error) {
	i := 0
	if i < len(children) && children[i].Kind == KindBoolean {
		d = children[i].Bool
		i++
	}
	if i < len(children) && children[i].Kind == KindOctetString {
		o = children[i].Bytes
		oPresent = true
		i++
	}
	if i >= len(children) || children[i].Kind != KindNull {
		err = assertNull
		return
	}
	return
}

func TestBadLengthForms(t *testing.T) {
	_, err := ReadElement([]byte{0x00, 0x01})
	assert.Error(t, err)

	_, err = ReadElement([]byte{0x00, 0x80})
	assert.Error(t, err, "indefinite length must be rejected")
}
