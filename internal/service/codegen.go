package service

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"

	"github.com/pairmatch/compat-server-go/internal/config"
)

// sessionCodeChars excludes O, I, 0 and 1 so codes survive being read
// aloud or typed from a phone screen.
const sessionCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const personIDBytes = 8

func generateSessionCode() string {
	chars := []byte(sessionCodeChars)
	code := make([]byte, config.SessionCodeLength)

	for i := range code {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		code[i] = chars[n.Int64()]
	}

	return string(code)
}

func generatePersonID() (string, error) {
	bytes := make([]byte, personIDBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
