package keyfile

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bluesky-social/k1ecc/ecc"

	"github.com/adrg/xdg"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	fileVersion = 1
	kdfName     = "argon2id"
	saltSize    = 16

	kdfTime     = 2
	kdfMemoryKB = 64 * 1024
	kdfThreads  = 1

	// upper bound on KDF cost accepted from a file, so a crafted file can not exhaust memory
	maxKDFMemoryKB = 1024 * 1024
	maxKDFTime     = 16
)

var (
	ErrAuthFailed        = errors.New("keyfile: authentication failed (wrong passphrase or corrupted file)")
	ErrInvalidFile       = errors.New("keyfile: invalid file")
	ErrPublicKeyMismatch = errors.New("keyfile: decrypted key does not match recorded public key")
)

// JSON representation of a passphrase protected private key.
//
// The public key is stored in the clear, so the owner of a file can be identified without the passphrase. It is also bound in to the ciphertext as associated data.
type File struct {
	Version     uint32 `json:"version"`
	PublicKey   string `json:"public_key"`
	KDF         string `json:"kdf"`
	KDFTime     uint32 `json:"kdf_time"`
	KDFMemoryKB uint32 `json:"kdf_memory_kb"`
	KDFThreads  uint8  `json:"kdf_threads"`
	Salt        []byte `json:"salt"`
	Nonce       []byte `json:"nonce"`
	Ciphertext  []byte `json:"ciphertext"`
}

// Encrypts the private key under a key derived from passphrase with Argon2id.
func Seal(passphrase string, key *ecc.PrivateKey) (*File, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("keyfile: empty passphrase")
	}
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, err
	}
	f := &File{
		Version:     fileVersion,
		PublicKey:   key.PublicKey().StructuredString(),
		KDF:         kdfName,
		KDFTime:     kdfTime,
		KDFMemoryKB: kdfMemoryKB,
		KDFThreads:  kdfThreads,
		Salt:        salt,
	}

	dk := f.deriveKey(passphrase)
	defer zero(dk)
	aead, err := chacha20poly1305.NewX(dk)
	if err != nil {
		return nil, err
	}
	f.Nonce = make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(f.Nonce); err != nil {
		return nil, err
	}
	raw := key.Bytes()
	defer zero(raw)
	f.Ciphertext = aead.Seal(nil, f.Nonce, raw, []byte(f.PublicKey))
	return f, nil
}

// Decrypts the private key. A wrong passphrase, or any modification of the file, fails with [ErrAuthFailed].
func Open(passphrase string, f *File) (*ecc.PrivateKey, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	pub, err := ecc.ParsePublicString(f.PublicKey, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}

	dk := f.deriveKey(passphrase)
	defer zero(dk)
	aead, err := chacha20poly1305.NewX(dk)
	if err != nil {
		return nil, err
	}
	raw, err := aead.Open(nil, f.Nonce, f.Ciphertext, []byte(f.PublicKey))
	if err != nil {
		return nil, ErrAuthFailed
	}
	defer zero(raw)

	key, err := ecc.ParsePrivateBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	if !key.PublicKey().Equal(pub) {
		key.Zero()
		return nil, ErrPublicKeyMismatch
	}
	return key, nil
}

func (f *File) validate() error {
	switch {
	case f == nil:
		return fmt.Errorf("%w: missing", ErrInvalidFile)
	case f.Version != fileVersion:
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidFile, f.Version)
	case f.KDF != kdfName:
		return fmt.Errorf("%w: unsupported KDF %q", ErrInvalidFile, f.KDF)
	case f.KDFTime == 0 || f.KDFTime > maxKDFTime:
		return fmt.Errorf("%w: KDF time %d out of range", ErrInvalidFile, f.KDFTime)
	case f.KDFMemoryKB == 0 || f.KDFMemoryKB > maxKDFMemoryKB:
		return fmt.Errorf("%w: KDF memory %d out of range", ErrInvalidFile, f.KDFMemoryKB)
	case f.KDFThreads == 0:
		return fmt.Errorf("%w: KDF threads must be positive", ErrInvalidFile)
	case len(f.Salt) < saltSize:
		return fmt.Errorf("%w: salt too short", ErrInvalidFile)
	case len(f.Nonce) != chacha20poly1305.NonceSizeX:
		return fmt.Errorf("%w: bad nonce length", ErrInvalidFile)
	}
	return nil
}

func (f *File) deriveKey(passphrase string) []byte {
	return argon2.IDKey([]byte(passphrase), f.Salt, f.KDFTime, f.KDFMemoryKB, f.KDFThreads, chacha20poly1305.KeySize)
}

// Location of a named key file under the user's XDG data directory. The parent directory is created if needed.
func DefaultPath(name string) (string, error) {
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("keyfile: invalid key name %q", name)
	}
	return xdg.DataFile(filepath.Join("k1ecc", "keys", name+".json"))
}

// Writes the file as indented JSON, readable only by the owner.
func WriteFile(path string, f *File) error {
	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(raw, '\n'), 0600)
}

func ReadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFile, err)
	}
	return &f, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
