package utils_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftserve/internal/utils"
)

func TestEncryptDecryptString(t *testing.T) {
	const key = "payout-bank-account-key"
	const account = "021000021000545"

	sealed, err := utils.EncryptString(account, key)
	require.NoError(t, err)
	assert.NotEqual(t, account, sealed)

	plain, err := utils.DecryptString(sealed, key)
	require.NoError(t, err)
	assert.Equal(t, account, plain)
}

func TestEncryptStringUniqueNonce(t *testing.T) {
	a, err := utils.EncryptString("same input", "key")
	require.NoError(t, err)
	b, err := utils.EncryptString("same input", "key")
	require.NoError(t, err)

	// A fresh nonce per call means identical plaintexts never produce
	// identical blobs.
	assert.NotEqual(t, a, b)
}

func TestDecryptStringWrongKey(t *testing.T) {
	sealed, err := utils.EncryptString("021000021000545", "right key")
	require.NoError(t, err)

	_, err = utils.DecryptString(sealed, "wrong key")
	assert.Error(t, err)
}

func TestDecryptStringTampered(t *testing.T) {
	sealed, err := utils.EncryptString("021000021000545", "key")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(sealed)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	_, err = utils.DecryptString(tampered, "key")
	assert.Error(t, err)
}

func TestDecryptStringGarbage(t *testing.T) {
	_, err := utils.DecryptString("not base64!!", "key")
	assert.Error(t, err)

	_, err = utils.DecryptString(base64.StdEncoding.EncodeToString([]byte("xy")), "key")
	assert.Error(t, err)
}
