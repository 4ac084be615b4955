package rooms

import (
	"crypto/rand"
	"math/big"
)

// Alphabet excludes 0 so a code never reads ambiguously next to the letter O.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ123456789"

const codeLength = 7

func GenerateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
		if err != nil {
			return "", err
		}
		code[i] = alphabet[n.Int64()]
	}
	return string(code), nil
}
