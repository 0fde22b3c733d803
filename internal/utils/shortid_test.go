package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortID_StringRoundTrip(t *testing.T) {
	for i := 0; i < 50; i++ {
		id := NewShortID()
		s := id.String()
		assert.Len(t, s, 10)

		parsed, err := ParseShortID(s)
		require.NoError(t, err)
		assert.Equal(t, id, parsed)
	}
}

func TestParseShortID_Leniency(t *testing.T) {
	id := ShortID{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02}
	s := id.String()

	// lowercase and hyphens are accepted
	lower, err := ParseShortID(s[:5] + "-" + s[5:])
	require.NoError(t, err)
	assert.Equal(t, id, lower)
}

func TestParseShortID_Invalid(t *testing.T) {
	_, err := ParseShortID("short")
	assert.Error(t, err)

	_, err = ParseShortID("!!!!!!!!!!")
	assert.Error(t, err)
}

func TestShortID_JSONRoundTrip(t *testing.T) {
	id := NewShortID()
	data, err := json.Marshal(id)
	require.NoError(t, err)

	var back ShortID
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, id, back)
}
