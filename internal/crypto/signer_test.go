package crypto

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
)

// writeTestKeyFiles generates an ML-DSA-65 keypair and writes it to raw
// binary files, returning their paths.
func writeTestKeyFiles(t *testing.T) (string, string) {
	t.Helper()

	pub, priv, err := mldsa65.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	pubBytes, _ := pub.MarshalBinary()
	privBytes, _ := priv.MarshalBinary()

	dir := t.TempDir()
	skPath := filepath.Join(dir, "sig.key")
	pkPath := filepath.Join(dir, "sig.pub")
	if err := os.WriteFile(skPath, privBytes, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pkPath, pubBytes, 0o600); err != nil {
		t.Fatal(err)
	}
	return skPath, pkPath
}

func TestLoadSigningKeypair(t *testing.T) {
	skPath, pkPath := writeTestKeyFiles(t)

	kp, err := LoadSigningKeypair(skPath, pkPath)
	if err != nil {
		t.Fatalf("LoadSigningKeypair() error = %v", err)
	}

	if len(kp.PublicKey) != MLDSAPublicKeySize {
		t.Errorf("public key size = %d, want %d", len(kp.PublicKey), MLDSAPublicKeySize)
	}

	msg := []byte("loaded key signs")
	if !VerifySignature(kp.PublicKey, msg, kp.Sign(msg)) {
		t.Error("signature from loaded key does not verify")
	}
}

func TestLoadSigningKeypair_WrongSecretKeySize(t *testing.T) {
	_, pkPath := writeTestKeyFiles(t)

	shortPath := filepath.Join(t.TempDir(), "short.key")
	if err := os.WriteFile(shortPath, make([]byte, 100), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadSigningKeypair(shortPath, pkPath)
	if !errors.Is(err, ErrInvalidSecretKeySize) {
		t.Errorf("error = %v, want ErrInvalidSecretKeySize", err)
	}
}

func TestLoadSigningKeypair_WrongPublicKeySize(t *testing.T) {
	skPath, _ := writeTestKeyFiles(t)

	shortPath := filepath.Join(t.TempDir(), "short.pub")
	if err := os.WriteFile(shortPath, make([]byte, 100), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadSigningKeypair(skPath, shortPath)
	if !errors.Is(err, ErrInvalidPublicKeySize) {
		t.Errorf("error = %v, want ErrInvalidPublicKeySize", err)
	}
}

func TestLoadSigningKeypair_MismatchedPair(t *testing.T) {
	skPath, _ := writeTestKeyFiles(t)
	_, otherPk := writeTestKeyFiles(t)

	if _, err := LoadSigningKeypair(skPath, otherPk); err == nil {
		t.Error("LoadSigningKeypair accepted keys from different pairs")
	}
}

func TestLoadSigningKeypair_MissingFile(t *testing.T) {
	if _, err := LoadSigningKeypair("/nonexistent/sig.key", "/nonexistent/sig.pub"); err == nil {
		t.Error("LoadSigningKeypair succeeded for missing files")
	}
}

func TestGenerateSigningKeypair(t *testing.T) {
	kp, err := GenerateSigningKeypair()
	if err != nil {
		t.Fatal(err)
	}

	if len(kp.PublicKey) != MLDSAPublicKeySize {
		t.Errorf("public key size = %d, want %d", len(kp.PublicKey), MLDSAPublicKeySize)
	}
	if kp.PublicKeyB64 == "" {
		t.Error("PublicKeyB64 is empty")
	}

	other, err := GenerateSigningKeypair()
	if err != nil {
		t.Fatal(err)
	}
	if kp.PublicKeyB64 == other.PublicKeyB64 {
		t.Error("two generated keypairs share a public key")
	}
}

func TestNewSigningKeypairFromBytes(t *testing.T) {
	pub, priv, err := mldsa65.GenerateKey(nil)
	if err != nil {
		t.Fatal(err)
	}
	pubBytes, _ := pub.MarshalBinary()
	privBytes, _ := priv.MarshalBinary()

	kp, err := NewSigningKeypairFromBytes(privBytes, pubBytes)
	if err != nil {
		t.Fatalf("NewSigningKeypairFromBytes() error = %v", err)
	}

	msg := []byte("round trip")
	if !VerifySignature(kp.PublicKey, msg, kp.Sign(msg)) {
		t.Error("signature does not verify")
	}

	if _, err := NewSigningKeypairFromBytes(privBytes[:10], pubBytes); !errors.Is(err, ErrInvalidSecretKeySize) {
		t.Errorf("short secret key: error = %v, want ErrInvalidSecretKeySize", err)
	}
	if _, err := NewSigningKeypairFromBytes(privBytes, pubBytes[:10]); !errors.Is(err, ErrInvalidPublicKeySize) {
		t.Errorf("short public key: error = %v, want ErrInvalidPublicKeySize", err)
	}
}
