// Syncfleet - Orchestrated Data Source Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/syncfleet

// This file implements day-blob encryption for the durable cache.
//
// Encryption Algorithm:
//   - AES-256-GCM (authenticated encryption)
//   - 12-byte random nonce per blob
//   - Key derived from the cache secret using HKDF-SHA256, bound to the
//     connector id so two connectors never share a key

package cache

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const (
	cacheEncryptionSalt = "syncfleet-interaction-cache"
	cacheEncryptionInfo = "day-blob-encryption-v1"

	aesKeySize   = 32
	gcmNonceSize = 12
)

var (
	// ErrEmptySecret is returned when an empty cache secret is provided.
	ErrEmptySecret = errors.New("cache secret cannot be empty")

	// ErrDecryptionFailed is returned when a blob fails authentication.
	ErrDecryptionFailed = errors.New("decryption failed: invalid blob or authentication tag")

	// ErrBlobTooShort is returned when a blob is shorter than nonce plus tag.
	ErrBlobTooShort = errors.New("encrypted blob too short")
)

// blobCipher seals and opens day buckets. The on-disk bytes are
// nonce || ciphertext || tag and must never be parseable as plaintext.
type blobCipher struct {
	aead cipher.AEAD
}

func newBlobCipher(secret string, connectorID uuid.UUID) (*blobCipher, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key, err := deriveKey(secret, connectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive encryption key: %w", err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &blobCipher{aead: aead}, nil
}

func (c *blobCipher) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (c *blobCipher) Open(blob []byte) ([]byte, error) {
	if len(blob) < gcmNonceSize+c.aead.Overhead() {
		return nil, ErrBlobTooShort
	}
	plaintext, err := c.aead.Open(nil, blob[:gcmNonceSize], blob[gcmNonceSize:], nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}

// deriveKey derives a 256-bit AES key from the cache secret using
// HKDF-SHA256, with the connector id as the info parameter.
func deriveKey(secret string, connectorID uuid.UUID) ([]byte, error) {
	hkdfReader := hkdf.New(
		sha256.New,
		[]byte(secret),
		[]byte(cacheEncryptionSalt),
		[]byte(cacheEncryptionInfo+":"+connectorID.String()),
	)

	key := make([]byte, aesKeySize)
	if _, err := io.ReadFull(hkdfReader, key); err != nil {
		return nil, fmt.Errorf("failed to read HKDF output: %w", err)
	}
	return key, nil
}
