package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

const (
	letterBytes  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	numberBytes  = "0123456789"
	alphanumeric = letterBytes + numberBytes
)

func GenerateRandomString(length int) string {
	return generateRandom(length, alphanumeric)
}

func GenerateRandomNumericString(length int) string {
	return generateRandom(length, numberBytes)
}

func generateRandom(length int, charset string) string {
	result := make([]byte, length)
	charsetLength := big.NewInt(int64(len(charset)))

	for i := range result {
		num, _ := rand.Int(rand.Reader, charsetLength)
		result[i] = charset[num.Int64()]
	}

	return string(result)
}

func SecureRandomInt(max int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max)))
	return int(n.Int64())
}

// GenerateDeliveryOTP returns a numeric one-time code for delivery
// verification.
func GenerateDeliveryOTP() string {
	return GenerateRandomNumericString(DeliveryOTPLength)
}

// GeneratePayoutReference returns the externally visible payout
// reference, e.g. "PO-7f9c0a1e".
func GeneratePayoutReference() string {
	id := uuid.New()
	return fmt.Sprintf("PO-%s", id.String())
}

// GenerateLockToken returns the fencing token used for distributed locks.
func GenerateLockToken() string {
	return GenerateRandomString(32)
}
