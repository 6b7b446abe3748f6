// Package vault seals wallet key material with age passphrase encryption
// and keeps decrypted secrets in locked memory.
package vault

import (
	"bytes"
	"fmt"
	"io"

	"filippo.io/age"

	scanerr "github.com/mrz1836/alphscan/pkg/errors"
)

// Seal encrypts plaintext using an age scrypt recipient derived from password.
func Seal(plaintext []byte, password string) ([]byte, error) {
	recipient, err := age.NewScryptRecipient(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt recipient: %w", err)
	}

	buf := &bytes.Buffer{}
	w, err := age.Encrypt(buf, recipient)
	if err != nil {
		return nil, fmt.Errorf("initializing encryption: %w", err)
	}

	if _, err := w.Write(plaintext); err != nil {
		return nil, fmt.Errorf("writing encrypted data: %w", err)
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing encryption: %w", err)
	}

	return buf.Bytes(), nil
}

// Open decrypts ciphertext produced by Seal. A wrong password or a damaged
// payload returns ErrDecryptionFailed.
func Open(ciphertext []byte, password string) (*SecureBytes, error) {
	identity, err := age.NewScryptIdentity(password)
	if err != nil {
		return nil, fmt.Errorf("creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(ciphertext), identity)
	if err != nil {
		return nil, scanerr.Wrap(scanerr.ErrDecryptionFailed, "opening sealed key material")
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		Zero(plaintext)
		return nil, scanerr.Wrap(scanerr.ErrDecryptionFailed, "reading sealed key material")
	}

	return SecureBytesFromSlice(plaintext), nil
}
