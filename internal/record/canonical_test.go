package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"max int64", Int(9223372036854775807), "9223372036854775807"},
		{"bool", Bool(true), "true"},
		{"null", Null{}, "null"},
		{"empty array", Array{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"record", Record{"name": String("a"), "id": Int(1)}, `{"id":1,"name":"a"}`},
		{"nested", Object{"z": Object{"b": Int(1), "a": Int(2)}, "a": Int(3)}, `{"a":3,"z":{"a":2,"b":1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(out))
		})
	}
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+10000 encodes as a surrogate pair starting 0xD800, which sorts before
	// U+E000 in UTF-16 but after it in UTF-8.
	obj := Object{
		"\uE000":     Int(1),
		"\U00010000": Int(2),
	}

	out, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, "{\"\U00010000\":2,\"\uE000\":1}", string(out))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	out, err := MarshalCanonical(String("<b> & </b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<b> & </b>"`, string(out))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	decomposed := String("e\u0301")
	composed := String("\u00e9")

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(composed)
	require.NoError(t, err)

	assert.Equal(t, string(b), string(a))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	out, err := MarshalCanonical(String("a\u2028b\u2029c"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(out))

	// A literal backslash followed by "u2028" stays escaped.
	out, err = MarshalCanonical(String(`x\u2028`))
	require.NoError(t, err)
	assert.Equal(t, `"x\\u2028"`, string(out))
}

func TestMarshalCanonicalEscapesControl(t *testing.T) {
	out, err := MarshalCanonical(String("tab\there\n"))
	require.NoError(t, err)
	assert.Equal(t, `"tab\there\n"`, string(out))
}

func TestCanonicalString(t *testing.T) {
	assert.Equal(t, `{"id":1}`, CanonicalString(Record{"id": Int(1)}))
}

func TestFingerprintDeterminism(t *testing.T) {
	a := Record{"id": Int(1), "name": String("a")}
	b := Record{"name": String("a"), "id": Int(1)}

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)

	assert.Equal(t, fa, fb)
	assert.Len(t, fa, 64, "SHA-256 hex is 64 characters")
	assert.NotEqual(t, fa, MustFingerprint(Record{"id": Int(2), "name": String("a")}))
}

func TestIDFingerprint(t *testing.T) {
	intID, err := IDFingerprint(Int(1))
	require.NoError(t, err)
	strID, err := IDFingerprint(String("1"))
	require.NoError(t, err)
	assert.NotEqual(t, intID, strID)

	_, err = IDFingerprint(Array{})
	assert.Error(t, err)
}

func TestFingerprintDomainSeparation(t *testing.T) {
	// The same canonical bytes hashed under different domains must differ.
	assert.NotEqual(t,
		hashWithDomain(DomainRecord, []byte(`1`)),
		hashWithDomain(DomainID, []byte(`1`)),
	)
}
