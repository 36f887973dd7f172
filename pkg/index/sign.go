package index

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"strings"

	muerrors "github.com/ubuntupunk/muizedroid/internal/errors"
	"github.com/ubuntupunk/muizedroid/pkg/jar"
	"github.com/ubuntupunk/muizedroid/pkg/models"
)

// Gateway turns a finished index archive into a signed artifact. A failure
// is fatal to the whole run.
type Gateway interface {
	Sign(jarPath string) (string, error)
}

// JarsignerGateway signs index jars with the JDK jarsigner tool using the
// configured keystore.
type JarsignerGateway struct {
	cfg *models.Config
}

// NewJarsignerGateway creates a gateway bound to the given configuration.
func NewJarsignerGateway(cfg *models.Config) *JarsignerGateway {
	return &JarsignerGateway{cfg: cfg}
}

// Sign signs the jar in place and returns its path.
func (g *JarsignerGateway) Sign(jarPath string) (string, error) {
	jarsigner := g.cfg.Jarsigner
	if jarsigner == "" {
		jarsigner = "jarsigner"
	}
	cmd := exec.Command(jarsigner,
		"-keystore", g.cfg.Keystore,
		"-storepass:env", "MUIZEDROID_KEY_STORE_PASS",
		"-keypass:env", "MUIZEDROID_KEY_PASS",
		"-digestalg", "SHA1", "-sigalg", "SHA1withRSA",
		jarPath, g.cfg.RepoKeyAlias)
	cmd.Env = append(os.Environ(),
		"MUIZEDROID_KEY_STORE_PASS="+g.cfg.KeystorePass,
		"MUIZEDROID_KEY_PASS="+g.cfg.KeyPass)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", muerrors.New(muerrors.ErrorTypeConfiguration, "SIGN_FAILED",
			fmt.Sprintf("failed to sign %s: %s", jarPath, strings.TrimSpace(string(out)))).WithCause(err)
	}
	return jarPath, nil
}

// checkSigningConfig validates the signing credentials before any document
// is written, so a run never leaves a partial index behind.
func checkSigningConfig(cfg *models.Config) error {
	var missing []string
	if cfg.RepoKeyAlias == "" {
		missing = append(missing, "repo_keyalias")
	}
	if cfg.Keystore == "" {
		missing = append(missing, "keystore")
	}
	if cfg.KeystorePass == "" {
		missing = append(missing, "keystorepass")
	}
	if cfg.KeyPass == "" {
		missing = append(missing, "keypass")
	}
	if len(missing) > 0 {
		return muerrors.NewConfigurationError("NO_SIGNING_KEY",
			fmt.Sprintf("signing requires config values: %s", strings.Join(missing, ", ")))
	}
	if _, err := os.Stat(cfg.Keystore); err != nil {
		return muerrors.NewConfigurationError("NO_KEYSTORE",
			fmt.Sprintf("keystore '%s' does not exist", cfg.Keystore)).WithCause(err)
	}
	return nil
}

// extractPubKey returns the repository's signing certificate (DER) and its
// fingerprint, either from the repo_pubkey config value or by exporting it
// from the keystore with keytool.
func extractPubKey(cfg *models.Config) ([]byte, string, error) {
	if cfg.RepoPubKey != "" {
		der, err := hex.DecodeString(cfg.RepoPubKey)
		if err != nil {
			return nil, "", muerrors.NewConfigurationError("BAD_PUBKEY",
				"repo_pubkey is not valid hex").WithCause(err)
		}
		return der, jar.Fingerprint(der), nil
	}

	keytool := cfg.Keytool
	if keytool == "" {
		keytool = "keytool"
	}
	cmd := exec.Command(keytool, "-exportcert",
		"-alias", cfg.RepoKeyAlias,
		"-keystore", cfg.Keystore,
		"-storepass:env", "MUIZEDROID_KEY_STORE_PASS")
	cmd.Env = append(os.Environ(), "MUIZEDROID_KEY_STORE_PASS="+cfg.KeystorePass)
	der, err := cmd.Output()
	if err != nil || len(der) < 20 {
		return nil, "", muerrors.NewConfigurationError("NO_PUBKEY",
			"failed to export repo pubkey from keystore").WithCause(err)
	}
	return der, jar.Fingerprint(der), nil
}
