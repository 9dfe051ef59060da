package keyfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bluesky-social/k1ecc/ecc"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
)

func testKey(t *testing.T) *ecc.PrivateKey {
	key, err := ecc.ParsePrivateString("5JxhzyqYERz5MRSswNnDUXL1gFyM2m5Zxde9gGWfMkndbnjB8kD")
	if err != nil {
		t.Fatal(err)
	}
	return key
}

func TestSealOpen(t *testing.T) {
	assert := assert.New(t)
	key := testKey(t)

	f, err := Seal("correct horse", key)
	if err != nil {
		t.Fatal(err)
	}
	assert.Equal("PUB_K1_81xEWcDyZCxACZcYQekiWXLjuSoPMwmRv16nZMuqm2BtPo3Hrf", f.PublicKey)
	assert.Equal(kdfName, f.KDF)

	opened, err := Open("correct horse", f)
	assert.NoError(err)
	assert.True(key.Equal(opened))

	_, err = Open("wrong horse", f)
	assert.ErrorIs(err, ErrAuthFailed)

	_, err = Seal("", key)
	assert.Error(err)
}

func TestTamperedFile(t *testing.T) {
	assert := assert.New(t)
	key := testKey(t)

	f, err := Seal("pass", key)
	if err != nil {
		t.Fatal(err)
	}

	flipped := *f
	flipped.Ciphertext = append([]byte{}, f.Ciphertext...)
	flipped.Ciphertext[0] ^= 0xFF
	_, err = Open("pass", &flipped)
	assert.ErrorIs(err, ErrAuthFailed)

	// the public key is bound to the ciphertext
	swapped := *f
	other, err := ecc.PrivateKeyFromSeed("other")
	if err != nil {
		t.Fatal(err)
	}
	swapped.PublicKey = other.PublicKey().StructuredString()
	_, err = Open("pass", &swapped)
	assert.ErrorIs(err, ErrAuthFailed)

	badVersion := *f
	badVersion.Version = 7
	_, err = Open("pass", &badVersion)
	assert.ErrorIs(err, ErrInvalidFile)

	greedy := *f
	greedy.KDFMemoryKB = 1 << 30
	_, err = Open("pass", &greedy)
	assert.ErrorIs(err, ErrInvalidFile)

	_, err = Open("pass", nil)
	assert.ErrorIs(err, ErrInvalidFile)
}

func TestReadWriteFile(t *testing.T) {
	assert := assert.New(t)
	key := testKey(t)

	f, err := Seal("pass", key)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "alice.json")
	assert.NoError(WriteFile(path, f))

	info, err := os.Stat(path)
	assert.NoError(err)
	assert.Equal(os.FileMode(0600), info.Mode().Perm())

	loaded, err := ReadFile(path)
	assert.NoError(err)
	assert.Equal(f, loaded)

	opened, err := Open("pass", loaded)
	assert.NoError(err)
	assert.True(key.Equal(opened))

	junk := filepath.Join(t.TempDir(), "junk.json")
	assert.NoError(os.WriteFile(junk, []byte("not json"), 0600))
	_, err = ReadFile(junk)
	assert.ErrorIs(err, ErrInvalidFile)
}

func TestDefaultPath(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	xdg.Reload()
	defer xdg.Reload()

	path, err := DefaultPath("alice")
	assert.NoError(err)
	assert.True(strings.HasPrefix(path, dir))
	assert.Equal("alice.json", filepath.Base(path))

	_, err = os.Stat(filepath.Dir(path))
	assert.NoError(err)

	_, err = DefaultPath("../alice")
	assert.Error(err)
	_, err = DefaultPath("")
	assert.Error(err)
}
