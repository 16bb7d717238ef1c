package referral

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodePrefix(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		want     string
	}{
		{"two words", "Ada Lovelace", "AL"},
		{"capped at three", "Jean Luc de la Cruz", "JLD"},
		{"single word", "Maersk", "M"},
		{"transliterated", "Łukasz Żak", "LZ"},
		{"empty", "", "FL"},
		{"punctuation only", "!!! ???", "FL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codePrefix(tt.fullName))
		})
	}
}

func TestRandomSuffix(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		suffix, err := randomSuffix()
		require.NoError(t, err)
		assert.Len(t, suffix, codeSuffixLength)
		for _, c := range suffix {
			assert.Contains(t, codeAlphabet, string(c))
		}
		seen[suffix] = true
	}
	assert.Greater(t, len(seen), 45)
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "AL7K2M9Q", NormalizeCode("  al7k2m9q "))
}
