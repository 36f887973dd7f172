package client

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	muerrors "github.com/ubuntupunk/muizedroid/internal/errors"
	"github.com/ubuntupunk/muizedroid/pkg/jar"
)

const indexJarName = "index-v1.jar"

// FetchResult carries a downloaded and verified index payload together with
// the signer identity it was verified against.
type FetchResult struct {
	Data        []byte
	PubKey      string
	Fingerprint string
}

// Fetcher downloads signed repository indexes over HTTP.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher with sensible timeouts for index-sized
// downloads.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// Fetch downloads the signed index jar published under rawURL, verifies its
// embedded signer, and returns the index payload. rawURL is the repository
// address, optionally carrying a "fingerprint" query parameter pinning the
// expected signer certificate.
//
// etag is the entity tag from a previous fetch; when the server answers
// 304 Not Modified, Fetch returns a nil result with the same etag and no
// error. That is the caller's signal that its cached copy is current.
//
// When verifyFingerprint is true the URL must carry a pin and the signer
// must match it. Signature policy violations come back as verification
// errors, distinguishable from network failures.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, etag string, verifyFingerprint bool) (*FetchResult, string, error) {
	address, pin, err := splitFingerprint(rawURL)
	if err != nil {
		return nil, etag, err
	}
	if verifyFingerprint && pin == "" {
		return nil, etag, muerrors.NewVerificationError("NO_FINGERPRINT",
			"fingerprint verification requested but the URL carries no fingerprint pin")
	}

	jarURL := strings.TrimRight(address, "/") + "/" + indexJarName
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, jarURL, nil)
	if err != nil {
		return nil, etag, muerrors.NewNetworkError("BAD_URL",
			fmt.Sprintf("cannot build request for %s", jarURL)).WithCause(err)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, etag, muerrors.NewNetworkError("FETCH_FAILED",
			fmt.Sprintf("cannot download %s", jarURL)).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return nil, etag, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, etag, muerrors.NewNetworkError("BAD_STATUS",
			fmt.Sprintf("%s returned %s", jarURL, resp.Status))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, etag, muerrors.NewNetworkError("FETCH_FAILED",
			fmt.Sprintf("cannot read %s", jarURL)).WithCause(err)
	}
	newETag := resp.Header.Get("ETag")

	result, err := verifyJar(body, pin, verifyFingerprint)
	if err != nil {
		return nil, etag, err
	}
	return result, newETag, nil
}

// verifyJar enforces the single-signer policy on a downloaded index jar and
// extracts its payload.
func verifyJar(body []byte, pin string, verifyFingerprint bool) (*FetchResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, muerrors.NewVerificationError("BAD_JAR",
			"downloaded index is not a valid jar").WithCause(err)
	}

	signers, err := jar.ListEmbeddedSigners(zr)
	if err != nil {
		return nil, err
	}
	switch len(signers) {
	case 0:
		return nil, muerrors.NewVerificationError("NO_SIGNER",
			"index jar carries no signer certificate")
	case 1:
		// The one configuration the trust model accepts.
	default:
		return nil, muerrors.NewVerificationError("AMBIGUOUS_SIGNER",
			fmt.Sprintf("index jar carries %d signer certificates, expected exactly one", len(signers)))
	}

	cert := signers[0]
	fingerprint := jar.Fingerprint(cert)
	if verifyFingerprint && !strings.EqualFold(pin, fingerprint) {
		return nil, muerrors.NewVerificationError("FINGERPRINT_MISMATCH",
			fmt.Sprintf("signer fingerprint %s does not match pinned fingerprint %s", fingerprint, pin))
	}

	payload, err := jar.ReadPayload(zr, "index-v1.json")
	if err != nil {
		return nil, err
	}

	return &FetchResult{
		Data:        payload,
		PubKey:      strings.ToLower(hex.EncodeToString(cert)),
		Fingerprint: fingerprint,
	}, nil
}

// splitFingerprint strips the fingerprint query parameter off a repository
// URL, returning the bare address and the pin.
func splitFingerprint(rawURL string) (string, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", muerrors.NewNetworkError("BAD_URL",
			fmt.Sprintf("cannot parse repository URL %q", rawURL)).WithCause(err)
	}
	query := u.Query()
	pin := query.Get("fingerprint")
	query.Del("fingerprint")
	u.RawQuery = query.Encode()
	return u.String(), pin, nil
}
