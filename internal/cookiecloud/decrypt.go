package cookiecloud

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

// CookieCloud encrypts with CryptoJS AES defaults: the payload is
// base64("Salted__" + 8-byte salt + ciphertext), the passphrase is the
// first 16 hex chars of md5("<uuid>-<password>"), and key+IV come from
// OpenSSL's EVP_BytesToKey with MD5 (AES-256-CBC, PKCS7 padding).

var errMalformed = errors.New("malformed encrypted payload")

// Decrypt decodes and decrypts a CookieCloud payload to plaintext JSON.
func Decrypt(encrypted, uuid, password string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	if len(raw) < 16 || !bytes.HasPrefix(raw, []byte("Salted__")) {
		return nil, errMalformed
	}
	salt := raw[8:16]
	ciphertext := raw[16:]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, errMalformed
	}

	key, iv := evpBytesToKey(Passphrase(uuid, password), salt, 32, aes.BlockSize)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes init: %w", err)
	}
	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)
	return pkcs7Unpad(plain)
}

// Passphrase derives the shared CryptoJS passphrase from server credentials.
func Passphrase(uuid, password string) []byte {
	sum := md5.Sum([]byte(uuid + "-" + password))
	return []byte(hex.EncodeToString(sum[:])[:16])
}

// evpBytesToKey reimplements OpenSSL EVP_BytesToKey with MD5 and one round,
// producing keyLen bytes of key followed by ivLen bytes of IV.
func evpBytesToKey(passphrase, salt []byte, keyLen, ivLen int) (key, iv []byte) {
	var derived []byte
	var prev []byte
	for len(derived) < keyLen+ivLen {
		h := md5.New()
		h.Write(prev)
		h.Write(passphrase)
		h.Write(salt)
		prev = h.Sum(nil)
		derived = append(derived, prev...)
	}
	return derived[:keyLen], derived[keyLen : keyLen+ivLen]
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errMalformed
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(data) {
		return nil, errMalformed
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, errMalformed
		}
	}
	return data[:len(data)-pad], nil
}
