package canonicalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJCSKeyOrderIndependence(t *testing.T) {
	a := map[string]interface{}{"beneficiary": "Acme", "currency": "USD", "maximum_value": "1000.00"}
	b := map[string]interface{}{"maximum_value": "1000.00", "currency": "USD", "beneficiary": "Acme"}

	ba, err := JCS(a)
	require.NoError(t, err)
	bb, err := JCS(b)
	require.NoError(t, err)

	assert.Equal(t, ba, bb, "same logical content must encode identically")
}

func TestJCSKeysSorted(t *testing.T) {
	out, err := JCSString(map[string]interface{}{
		"b": "2",
		"a": "1",
		"c": []string{"x", "y"},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"1","b":"2","c":["x","y"]}`, out)
}

func TestJCSNoHTMLEscaping(t *testing.T) {
	out, err := JCSString(map[string]interface{}{"k": "a<b>&c"})
	require.NoError(t, err)
	assert.Equal(t, `{"k":"a<b>&c"}`, out)
}

func TestJCSStructTagsRespected(t *testing.T) {
	type rec struct {
		Beneficiary string `json:"beneficiary"`
		Currency    string `json:"currency"`
	}
	out, err := JCSString(rec{Beneficiary: "Acme", Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, `{"beneficiary":"Acme","currency":"USD"}`, out)
}

func TestJCSUnicodeNFC(t *testing.T) {
	// "é" composed vs decomposed must canonicalize identically.
	composed := map[string]interface{}{"name": "Jos" + "\u00e9"}
	decomposed := map[string]interface{}{"name": "Jose" + "\u0301"}

	ha, err := CanonicalHash(composed)
	require.NoError(t, err)
	hb, err := CanonicalHash(decomposed)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
}

func TestCanonicalHashDeterminism(t *testing.T) {
	v := map[string]interface{}{
		"deciders_id": []string{"DECIDER-001", "DECIDER-002"},
		"value":       "50000.00",
	}
	h1, err := CanonicalHash(v)
	require.NoError(t, err)
	h2, err := CanonicalHash(v)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "sha256 hex digest")
}

func TestHashBytesKnownVector(t *testing.T) {
	// sha256("") is a fixed vector.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		HashBytes(nil))
}
