package persist

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestSealOpen(t *testing.T) {
	secret := []byte("hunter2")
	plain := []byte(`{"version":"1.2.0"}`)

	sealed, err := sealSecure(secret, plain)
	if err != nil {
		t.Fatalf("sealSecure failed: %v", err)
	}
	if !isSealed(sealed) {
		t.Fatal("sealed data does not carry the magic prefix")
	}
	if bytes.Contains(sealed, []byte("version")) {
		t.Error("plaintext leaked into sealed output")
	}

	got, err := openSecure(secret, sealed)
	if err != nil {
		t.Fatalf("openSecure failed: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("openSecure = %q, want %q", got, plain)
	}

	if _, err := openSecure([]byte("wrong"), sealed); err == nil {
		t.Error("openSecure with wrong secret succeeded")
	}
}

func TestSecureFileRoundTrip(t *testing.T) {
	secret := []byte("key material")
	path := filepath.Join(t.TempDir(), "Tokens"+secureExt)

	f := NewContainerFile()
	vs := NewValueStore()
	vs.Set("token", "abc123")
	f.SetTypeData("Tokens", vs)

	if err := saveSecureFile(path, f, secret); err != nil {
		t.Fatalf("saveSecureFile failed: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !isSealed(raw) {
		t.Fatal("secure file written unsealed despite secret")
	}

	got, err := loadSecureFile(path, secret)
	if err != nil {
		t.Fatalf("loadSecureFile failed: %v", err)
	}
	gvs, ok := got.TypeData("Tokens")
	if !ok {
		t.Fatal("Tokens entry missing")
	}
	if v, _ := Get[string](gvs, "token"); v != "abc123" {
		t.Errorf("token = %q", v)
	}

	if _, err := loadSecureFile(path, nil); err == nil {
		t.Error("loading sealed file without secret succeeded")
	}
}

func TestSecureFileNoSecret(t *testing.T) {
	// Without key material the file is written plainly and stays loadable.
	path := filepath.Join(t.TempDir(), "Tokens"+secureExt)
	f := NewContainerFile()
	f.SetTypeData("Tokens", NewValueStore())
	if err := saveSecureFile(path, f, nil); err != nil {
		t.Fatalf("saveSecureFile failed: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if isSealed(raw) {
		t.Fatal("file sealed without a secret")
	}
	if _, err := loadSecureFile(path, nil); err != nil {
		t.Errorf("loadSecureFile failed: %v", err)
	}
}

func TestLoadSecureFileMissing(t *testing.T) {
	f, err := loadSecureFile(filepath.Join(t.TempDir(), "absent.secure"), nil)
	if err != nil {
		t.Fatalf("missing secure file must not be an error, got %v", err)
	}
	if len(f.Types) != 0 {
		t.Error("fresh container expected")
	}
}
