package persist

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// secureMagic prefixes every sealed file so plain container files written
// before a secret was configured remain loadable.
var secureMagic = []byte("PSTSEC1\n")

// secureExt is the extension for ModeSecure per-type files. The payload is a
// JSON container file, sealed when a secret is configured.
const secureExt = ".secure"

var errNoSecret = errors.New("persist: file is sealed but no secret is configured")

func secureKey(secret []byte) ([]byte, error) {
	kdf := hkdf.New(sha256.New, secret, nil, []byte("statekit/persist secure v1"))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, err
	}
	return key, nil
}

// sealSecure encrypts plain with a key derived from secret. Layout:
// magic || nonce || ciphertext.
func sealSecure(secret, plain []byte) ([]byte, error) {
	key, err := secureKey(secret)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(secureMagic)+len(nonce)+len(plain)+aead.Overhead())
	out = append(out, secureMagic...)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plain, nil), nil
}

// openSecure reverses sealSecure. data must carry the magic prefix.
func openSecure(secret, data []byte) ([]byte, error) {
	body := data[len(secureMagic):]
	key, err := secureKey(secret)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	if len(body) < aead.NonceSize() {
		return nil, errors.New("persist: sealed file truncated")
	}
	nonce, ciphertext := body[:aead.NonceSize()], body[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("persist: unseal failed: %w", err)
	}
	return plain, nil
}

func isSealed(data []byte) bool {
	return bytes.HasPrefix(data, secureMagic)
}

// saveSecureFile writes a container to a ModeSecure path. The payload is
// always JSON; it is sealed when a secret is available and written plainly
// otherwise, which the caller is expected to have warned about.
func saveSecureFile(path string, f *ContainerFile, secret []byte) error {
	f.LastSaved = nowStamp()
	f.Version = Version
	data, err := f.encode(jsonCodec{})
	if err != nil {
		return err
	}
	if len(secret) > 0 {
		if data, err = sealSecure(secret, data); err != nil {
			return serErr("secure", err)
		}
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return ioErr("create directory", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return ioErr("write", path, err)
	}
	return nil
}

// loadSecureFile reads a ModeSecure path. Missing file returns a fresh empty
// container, matching LoadContainerFile.
func loadSecureFile(path string, secret []byte) (*ContainerFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewContainerFile(), nil
		}
		return nil, ioErr("read", path, err)
	}
	if isSealed(data) {
		if len(secret) == 0 {
			return nil, errNoSecret
		}
		if data, err = openSecure(secret, data); err != nil {
			return nil, serErr("secure", err)
		}
	}
	return decodeContainer(data, jsonCodec{})
}
