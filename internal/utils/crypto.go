// internal/utils/crypto.go
package utils

import (
	"crypto/rand"
	"math/big"
)

const (
	AlphanumericCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	SellerCodeCharset   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

func GenerateRandomString(length int, charset string) (string, error) {
	b := make([]byte, length)

	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		b[i] = charset[n.Int64()]
	}

	return string(b), nil
}

// GenerateSellerCode returns an uppercase alphanumeric referral code.
func GenerateSellerCode(length int) (string, error) {
	return GenerateRandomString(length, SellerCodeCharset)
}
