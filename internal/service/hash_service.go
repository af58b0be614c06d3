package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id cost parameters for merchant credentials. One pass over 64 MiB
// with 4 lanes keeps login latency acceptable on the API path.
const (
	credentialSaltLen   = 16
	credentialKeyLen    = 32
	credentialTimeCost  = 1
	credentialMemoryKiB = 64 * 1024
	credentialLanes     = 4
)

// Argon2HashService hashes merchant passwords with Argon2id in the PHC
// string format, so the cost parameters travel with each stored hash and
// can be raised without invalidating existing credentials.
type Argon2HashService struct{}

func NewArgon2HashService() *Argon2HashService {
	return &Argon2HashService{}
}

// Hash derives an Argon2id digest under a fresh random salt.
func (s *Argon2HashService) Hash(password string) (string, error) {
	salt := make([]byte, credentialSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("drawing salt: %w", err)
	}

	digest := argon2.IDKey([]byte(password), salt,
		credentialTimeCost, credentialMemoryKiB, credentialLanes, credentialKeyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		credentialMemoryKiB, credentialTimeCost, credentialLanes,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	), nil
}

// Verify recomputes the digest with the cost parameters carried by the
// stored hash and compares in constant time.
func (s *Argon2HashService) Verify(password string, encoded string) (bool, error) {
	salt, digest, cost, err := parseCredentialHash(encoded)
	if err != nil {
		return false, err
	}

	candidate := argon2.IDKey([]byte(password), salt,
		cost.time, cost.memoryKiB, cost.lanes, uint32(len(digest)))

	return subtle.ConstantTimeCompare(digest, candidate) == 1, nil
}

type argon2Cost struct {
	memoryKiB uint32
	time      uint32
	lanes     uint8
}

func parseCredentialHash(encoded string) (salt, digest []byte, cost argon2Cost, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, nil, cost, fmt.Errorf("malformed credential hash")
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, cost, fmt.Errorf("parsing hash version: %w", err)
	}
	if version != argon2.Version {
		return nil, nil, cost, fmt.Errorf("unsupported argon2 version %d", version)
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &cost.memoryKiB, &cost.time, &cost.lanes); err != nil {
		return nil, nil, cost, fmt.Errorf("parsing cost parameters: %w", err)
	}

	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, nil, cost, fmt.Errorf("decoding salt: %w", err)
	}
	if digest, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil {
		return nil, nil, cost, fmt.Errorf("decoding digest: %w", err)
	}

	return salt, digest, cost, nil
}
