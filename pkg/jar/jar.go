// Package jar handles the signed archive form of index documents: creating
// the archive around a payload, and extracting the signing certificate(s)
// embedded in a downloaded one.
package jar

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"go.mozilla.org/pkcs7"

	muerrors "github.com/ubuntupunk/muizedroid/internal/errors"
)

// certPathPattern matches the signature block entries of a signed jar.
var certPathPattern = regexp.MustCompile(`^META-INF/.*\.(DSA|EC|RSA)$`)

// Fingerprint returns the normalized fingerprint of an encoded certificate:
// the uppercase hex SHA-256 digest of its DER bytes, with no separators, so
// pins can be compared byte-for-byte.
func Fingerprint(der []byte) string {
	sum := sha256.Sum256(der)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// ListEmbeddedSigners returns the DER bytes of the signing certificate in
// each signature block of the archive, one entry per block. Policy on the
// number of signers belongs to the caller.
func ListEmbeddedSigners(zr *zip.Reader) ([][]byte, error) {
	var signers [][]byte
	for _, f := range zr.File {
		if !certPathPattern.MatchString(f.Name) {
			continue
		}
		block, err := readEntry(f)
		if err != nil {
			return nil, muerrors.NewParsingError("CERT_READ",
				fmt.Sprintf("cannot read signature block %s", f.Name)).WithCause(err)
		}
		p7, err := pkcs7.Parse(block)
		if err != nil {
			return nil, muerrors.NewParsingError("CERT_PARSE",
				fmt.Sprintf("malformed signature block %s", f.Name)).WithCause(err)
		}
		if len(p7.Certificates) == 0 {
			return nil, muerrors.NewParsingError("CERT_PARSE",
				fmt.Sprintf("signature block %s contains no certificate", f.Name))
		}
		signers = append(signers, p7.Certificates[0].Raw)
	}
	return signers, nil
}

// Write creates a jar at path containing the single named payload.
func Write(path, name string, payload []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return muerrors.NewFileSystemError("JAR_CREATE",
			fmt.Sprintf("cannot create %s", path)).WithCause(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create(name)
	if err == nil {
		_, err = w.Write(payload)
	}
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return muerrors.NewFileSystemError("JAR_WRITE",
			fmt.Sprintf("cannot write %s", path)).WithCause(err)
	}
	return nil
}

// ReadPayload extracts the named payload from the archive.
func ReadPayload(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name {
			return readEntry(f)
		}
	}
	return nil, fmt.Errorf("no %s in archive", name)
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
