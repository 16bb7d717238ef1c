package referral

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/gosimple/slug"
)

const (
	codeAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeSuffixLength = 6
	maxPrefixLength  = 3
	fallbackPrefix   = "FL"
)

// codePrefix builds the code prefix from the initials of the transliterated name
func codePrefix(fullName string) string {
	var initials strings.Builder
	for _, word := range strings.Split(slug.Make(fullName), "-") {
		if word == "" {
			continue
		}
		c := word[0]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			initials.WriteByte(c)
		}
		if initials.Len() == maxPrefixLength {
			break
		}
	}

	if initials.Len() == 0 {
		return fallbackPrefix
	}
	return strings.ToUpper(initials.String())
}

// randomSuffix returns codeSuffixLength characters from codeAlphabet
func randomSuffix() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	suffix := make([]byte, codeSuffixLength)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix[i] = codeAlphabet[n.Int64()]
	}
	return string(suffix), nil
}

// NormalizeCode canonicalises a user-supplied referral code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
