// Package utils provides small shared helpers.
package utils

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"

	"ringbridge/pkg/constants"
)

var userCodePattern = regexp.MustCompile(`^[` + constants.UserCodeAlphabet + `]{4}-[` + constants.UserCodeAlphabet + `]{2}$`)

// GenerateUserCode returns a short human-typeable pairing code in the form
// AAAA-11, drawn from an alphabet without visually confusable characters.
func GenerateUserCode() (string, error) {
	head, err := randomChars(4)
	if err != nil {
		return "", err
	}
	tail, err := randomChars(2)
	if err != nil {
		return "", err
	}
	return head + "-" + tail, nil
}

// IsWellFormedUserCode reports whether s matches the AAAA-11 pattern.
func IsWellFormedUserCode(s string) bool {
	return userCodePattern.MatchString(s)
}

// NormalizeUserCode upper-cases and trims a user-entered pairing code.
func NormalizeUserCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func randomChars(n int) (string, error) {
	alphabetLen := big.NewInt(int64(len(constants.UserCodeAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		b[i] = constants.UserCodeAlphabet[idx.Int64()]
	}
	return string(b), nil
}
