// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Medusa Contributors

package identity

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters. Changing them requires a redeploy; hashes created
// with older parameters still verify because the parameters are encoded in
// every credential.
const (
	argon2Time    = 4         // iterations
	argon2Memory  = 64 * 1024 // 64 MiB
	argon2Threads = 2         // parallelism
	argon2SaltLen = 16        // salt length in bytes
	argon2KeyLen  = 32        // output length in bytes
)

// Bounds accepted when decoding a stored credential. A corrupt credential
// outside them is malformed rather than an expensive derivation.
const (
	maxArgon2Time    = 16
	maxArgon2Memory  = 1 << 20 // KiB, 1 GiB
	maxArgon2Threads = 16
	minArgon2SaltLen = 8
	maxArgon2SaltLen = 64
)

// PasswordHasher provides password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted, encoded credential for the password.
	Hash(password string) (string, error)

	// Verify checks if the password matches the encoded credential.
	// Returns (true, nil) on match, (false, nil) on mismatch, or an error
	// wrapping ErrInvalidInput or ErrMalformedDigest.
	Verify(password, encodedHash string) (bool, error)
}

// Argon2idHasher implements PasswordHasher using argon2id.
type Argon2idHasher struct{}

// NewArgon2idHasher creates a new Argon2idHasher.
func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{}
}

// Hash produces an argon2id hash of the password in PHC string format.
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", oops.Code("CREDENTIAL_INVALID_INPUT").Wrapf(ErrInvalidInput, "password cannot be empty")
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("CREDENTIAL_SALT_FAILED").
			With("operation", "crypto/rand.Read").
			Wrap(err)
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return encodeArgon2id(argon2Memory, argon2Time, argon2Threads, salt, key), nil
}

// Verify checks if the password matches the hash.
func (h *Argon2idHasher) Verify(password, encodedHash string) (bool, error) {
	if password == "" {
		return false, oops.Code("CREDENTIAL_INVALID_INPUT").Wrapf(ErrInvalidInput, "password cannot be empty")
	}
	if encodedHash == "" {
		return false, oops.Code("CREDENTIAL_INVALID_INPUT").Wrapf(ErrInvalidInput, "credential cannot be empty")
	}

	params, salt, expected, err := decodeArgon2id(encodedHash)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(expected))) //nolint:gosec // G115: length bounded in decodeArgon2id

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
}

// encodeArgon2id renders $argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<key>.
func encodeArgon2id(memory, time uint32, threads uint8, salt, key []byte) string {
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		memory,
		time,
		threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
}

func malformed(format string, args ...any) error {
	return oops.Code("CREDENTIAL_MALFORMED").Wrapf(ErrMalformedDigest, format, args...)
}

// decodeArgon2id parses a PHC string produced by encodeArgon2id.
func decodeArgon2id(encoded string) (argon2Params, []byte, []byte, error) {
	var params argon2Params

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return params, nil, nil, malformed("invalid credential format")
	}

	if parts[1] != "argon2id" {
		return params, nil, nil, malformed("unsupported hash algorithm: %s", parts[1])
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, malformed("invalid version segment")
	}
	if version != argon2.Version {
		return params, nil, nil, malformed("unsupported argon2 version: %d", version)
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return params, nil, nil, malformed("invalid parameter segment")
	}

	if threads == 0 || threads > maxArgon2Threads {
		return params, nil, nil, malformed("threads value %d out of range", threads)
	}
	if memory == 0 || time == 0 {
		return params, nil, nil, malformed("memory and time must be positive")
	}
	if time > maxArgon2Time {
		return params, nil, nil, malformed("time value %d out of range", time)
	}
	if memory > maxArgon2Memory {
		return params, nil, nil, malformed("memory value %d out of range", memory)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, malformed("invalid salt encoding")
	}
	if len(salt) == 0 {
		return params, nil, nil, malformed("salt cannot be empty")
	}
	if len(salt) < minArgon2SaltLen || len(salt) > maxArgon2SaltLen {
		return params, nil, nil, malformed("unexpected salt length: %d", len(salt))
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params, nil, nil, malformed("invalid key encoding")
	}
	if len(key) != argon2KeyLen {
		return params, nil, nil, malformed("unexpected key length: %d", len(key))
	}

	params.memory = memory
	params.time = time
	params.threads = uint8(threads)

	return params, salt, key, nil
}
