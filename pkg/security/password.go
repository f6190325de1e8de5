// Package security hashes and checks account passwords with Argon2id. Hashes
// use the PHC string format so each one carries its own parameters.
package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

// ErrInvalidHash means the stored string is not an Argon2id PHC hash this
// package can verify.
var ErrInvalidHash = errors.New("security: invalid argon2id hash")

var b64 = base64.RawStdEncoding

// ArgonParams are the cost settings embedded in a hash.
type ArgonParams struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// ParamsFromConfig clamps configured costs to a sane range.
func ParamsFromConfig(cfg config.PasswordConfig) ArgonParams {
	bound := func(v, lo, hi int) int { return max(lo, min(v, hi)) }
	return ArgonParams{
		Memory:      uint32(bound(cfg.ArgonMemoryKB, 8, 512*1024)),
		Time:        uint32(bound(cfg.ArgonTime, 1, 10)),
		Parallelism: uint8(bound(cfg.ArgonParallelism, 1, 255)),
		SaltLen:     uint32(bound(cfg.ArgonSaltLen, 8, 64)),
		KeyLen:      uint32(bound(cfg.ArgonKeyLen, 16, 64)),
	}
}

type phc struct {
	params    ArgonParams
	salt, key []byte
}

func (h phc) String() string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.params.Memory, h.params.Time, h.params.Parallelism,
		b64.EncodeToString(h.salt), b64.EncodeToString(h.key))
}

func parsePHC(encoded string) (phc, error) {
	fields := strings.Split(encoded, "$")
	if len(fields) != 6 || fields[0] != "" || fields[1] != "argon2id" {
		return phc{}, ErrInvalidHash
	}
	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil || version != argon2.Version {
		return phc{}, ErrInvalidHash
	}
	var h phc
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &h.params.Memory, &h.params.Time, &h.params.Parallelism); err != nil {
		return phc{}, ErrInvalidHash
	}
	var err error
	if h.salt, err = b64.DecodeString(fields[4]); err != nil {
		return phc{}, ErrInvalidHash
	}
	if h.key, err = b64.DecodeString(fields[5]); err != nil || len(h.key) == 0 {
		return phc{}, ErrInvalidHash
	}
	h.params.SaltLen, h.params.KeyLen = uint32(len(h.salt)), uint32(len(h.key))
	return h, nil
}

func derive(password string, salt []byte, p ArgonParams) []byte {
	return argon2.IDKey([]byte(password), salt, p.Time, p.Memory, p.Parallelism, p.KeyLen)
}

// HashPassword derives a fresh salted hash of password.
func HashPassword(password string, cfg config.PasswordConfig) (string, error) {
	if password == "" {
		return "", errors.New("security: empty password")
	}
	h := phc{params: ParamsFromConfig(cfg)}
	h.salt = make([]byte, h.params.SaltLen)
	if _, err := rand.Read(h.salt); err != nil {
		return "", fmt.Errorf("security: salt: %w", err)
	}
	h.key = derive(password, h.salt, h.params)
	return h.String(), nil
}

// VerifyPassword reports whether password matches encoded. The comparison
// runs in constant time.
func VerifyPassword(password, encoded string) (bool, error) {
	h, err := parsePHC(encoded)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(h.key, derive(password, h.salt, h.params)) == 1, nil
}

// NeedsRehash reports whether encoded was made with costs other than the
// current config. Unparseable hashes always need one.
func NeedsRehash(encoded string, cfg config.PasswordConfig) bool {
	h, err := parsePHC(encoded)
	return err != nil || h.params != ParamsFromConfig(cfg)
}
