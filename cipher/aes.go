package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"
	"fmt"

	"github.com/jmcleod/ironvault/internal/util"
)

// IVSize is the AES block size used as the CBC initialization vector size.
const IVSize = aes.BlockSize

// ErrBadCiphertext is returned when ciphertext is malformed: not a
// multiple of the block size, or its PKCS#7 padding does not validate.
type ErrBadCiphertext struct{ Reason string }

func (e *ErrBadCiphertext) Error() string { return "cipher: bad ciphertext: " + e.Reason }

// EncryptCBC encrypts plaintext under AES-256-CBC with PKCS#7 padding,
// using a fresh random IV, which is prepended to the returned ciphertext.
// This is the record-body cipher inside the IES envelope (spec §4.2/§6.2);
// it deliberately does not use AES-GCM, since the envelope's own HMAC
// (over ephemeral pubkey || iv || ciphertext) provides the binding an
// AEAD tag would otherwise give.
func EncryptCBC(key []byte, plaintext []byte) ([]byte, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("cipher: AES-256 key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}

	iv, err := util.RandomBytes(IVSize)
	if err != nil {
		return nil, fmt.Errorf("cipher: generating iv: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)
	out := make([]byte, IVSize+len(padded))
	copy(out, iv)

	mode := stdcipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(out[IVSize:], padded)
	return out, nil
}

// DecryptCBC reverses EncryptCBC: sealed is iv || ciphertext.
func DecryptCBC(key []byte, sealed []byte) ([]byte, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("cipher: AES-256 key must be 32 bytes, got %d", len(key))
	}
	if len(sealed) < IVSize || (len(sealed)-IVSize)%aes.BlockSize != 0 {
		return nil, &ErrBadCiphertext{Reason: "length not a multiple of the block size"}
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}

	iv := sealed[:IVSize]
	ct := sealed[IVSize:]
	if len(ct) == 0 {
		return nil, &ErrBadCiphertext{Reason: "empty ciphertext"}
	}

	out := make([]byte, len(ct))
	mode := stdcipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(out, ct)

	return pkcs7Unpad(out)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - (len(data) % blockSize)
	out := make([]byte, len(data)+padLen)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(padLen)
	}
	return out
}

func pkcs7Unpad(data []byte) ([]byte, error) {
	n := len(data)
	if n == 0 {
		return nil, &ErrBadCiphertext{Reason: "empty plaintext"}
	}
	padLen := int(data[n-1])
	if padLen == 0 || padLen > aes.BlockSize || padLen > n {
		return nil, &ErrBadCiphertext{Reason: "invalid padding length"}
	}
	for i := n - padLen; i < n; i++ {
		if data[i] != byte(padLen) {
			return nil, &ErrBadCiphertext{Reason: "invalid padding bytes"}
		}
	}
	return data[:n-padLen], nil
}
