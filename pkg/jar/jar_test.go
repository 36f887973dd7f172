package jar

import (
	"archive/zip"
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.mozilla.org/pkcs7"
)

func newTestCert(t *testing.T, cn string) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	tmpl := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &tmpl, &tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	return der
}

func signatureBlock(t *testing.T, certDER []byte) []byte {
	t.Helper()
	block, err := pkcs7.DegenerateCertificate(certDER)
	if err != nil {
		t.Fatalf("degenerate certificate: %v", err)
	}
	return block
}

func buildJar(t *testing.T, entries map[string][]byte) *zip.Reader {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("reopen zip: %v", err)
	}
	return zr
}

func TestFingerprint(t *testing.T) {
	der := []byte("certificate bytes")
	sum := sha256.Sum256(der)
	want := strings.ToUpper(hex.EncodeToString(sum[:]))

	got := Fingerprint(der)
	if got != want {
		t.Errorf("Fingerprint = %s, want %s", got, want)
	}
	if got != strings.ToUpper(got) {
		t.Errorf("fingerprint is not uppercase: %s", got)
	}
}

func TestWriteAndReadPayload(t *testing.T) {
	dir := t.TempDir()
	jarPath := filepath.Join(dir, "index.jar")
	payload := []byte(`{"repo":{}}`)

	if err := Write(jarPath, "index-v1.json", payload); err != nil {
		t.Fatalf("Write: %v", err)
	}

	data, err := os.ReadFile(jarPath)
	if err != nil {
		t.Fatalf("read jar: %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open jar: %v", err)
	}

	got, err := ReadPayload(zr, "index-v1.json")
	if err != nil {
		t.Fatalf("ReadPayload: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("payload = %q, want %q", got, payload)
	}

	if _, err := ReadPayload(zr, "missing.json"); err == nil {
		t.Error("expected error for missing entry")
	}
}

func TestListEmbeddedSignersNone(t *testing.T) {
	zr := buildJar(t, map[string][]byte{
		"index-v1.json":        []byte("{}"),
		"META-INF/MANIFEST.MF": []byte("Manifest-Version: 1.0\n"),
	})

	signers, err := ListEmbeddedSigners(zr)
	if err != nil {
		t.Fatalf("ListEmbeddedSigners: %v", err)
	}
	if len(signers) != 0 {
		t.Errorf("got %d signers, want 0", len(signers))
	}
}

func TestListEmbeddedSignersSingle(t *testing.T) {
	cert := newTestCert(t, "repo.example.org")
	zr := buildJar(t, map[string][]byte{
		"index-v1.json":     []byte("{}"),
		"META-INF/CERT.RSA": signatureBlock(t, cert),
	})

	signers, err := ListEmbeddedSigners(zr)
	if err != nil {
		t.Fatalf("ListEmbeddedSigners: %v", err)
	}
	if len(signers) != 1 {
		t.Fatalf("got %d signers, want 1", len(signers))
	}
	if !bytes.Equal(signers[0], cert) {
		t.Error("signer certificate does not round-trip")
	}
}

func TestListEmbeddedSignersMultiple(t *testing.T) {
	certA := newTestCert(t, "a.example.org")
	certB := newTestCert(t, "b.example.org")
	zr := buildJar(t, map[string][]byte{
		"index-v1.json":      []byte("{}"),
		"META-INF/FIRST.RSA": signatureBlock(t, certA),
		"META-INF/SECOND.EC": signatureBlock(t, certB),
	})

	signers, err := ListEmbeddedSigners(zr)
	if err != nil {
		t.Fatalf("ListEmbeddedSigners: %v", err)
	}
	if len(signers) != 2 {
		t.Fatalf("got %d signers, want 2", len(signers))
	}
}

func TestListEmbeddedSignersIgnoresNonBlockEntries(t *testing.T) {
	cert := newTestCert(t, "repo.example.org")
	zr := buildJar(t, map[string][]byte{
		"META-INF/CERT.RSA":  signatureBlock(t, cert),
		"META-INF/CERT.SF":   []byte("Signature-Version: 1.0\n"),
		"lib/CERT.RSA":       []byte("not in META-INF"),
		"META-INF/cert.rsa":  []byte("pattern is case sensitive"),
		"META-INF/CERT.RSA2": []byte("wrong extension"),
	})

	signers, err := ListEmbeddedSigners(zr)
	if err != nil {
		t.Fatalf("ListEmbeddedSigners: %v", err)
	}
	if len(signers) != 1 {
		t.Errorf("got %d signers, want 1", len(signers))
	}
}

func TestListEmbeddedSignersMalformedBlock(t *testing.T) {
	zr := buildJar(t, map[string][]byte{
		"META-INF/CERT.RSA": []byte("not a pkcs7 structure"),
	})

	if _, err := ListEmbeddedSigners(zr); err == nil {
		t.Error("expected error for malformed signature block")
	}
}
