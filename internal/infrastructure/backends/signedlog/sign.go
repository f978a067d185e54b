package signedlog

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/sigstore/cosign/v2/pkg/cosign"
	"github.com/sigstore/sigstore/pkg/cryptoutils"
	"github.com/sigstore/sigstore/pkg/signature"
)

// keySigner signs publish records with a private key configured on the
// registry (spec.md §4.4.2: "sign with the configured private key if
// present"), reusing cosign's key-loading (cosign.LoadPrivateKey), the
// same loader the teacher's plugin-signing path already relies on.
type keySigner struct {
	sv signature.SignerVerifier
}

// newKeySigner loads the private key at path with an empty password:
// the file must be a cosign/sigstore private key PEM that decrypts with
// no password. Password-protected keys and other PEM key types fail to
// load.
func newKeySigner(path string) (*keySigner, error) {
	keyBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading signing key %s: %w", path, err)
	}

	sv, err := cosign.LoadPrivateKey(keyBytes, nil)
	if err != nil {
		return nil, fmt.Errorf("loading signing key %s: %w", path, err)
	}
	return &keySigner{sv: sv}, nil
}

// sign returns a detached signature over content and the PEM-encoded
// public key that verifies it.
func (s *keySigner) sign(ctx context.Context, content []byte) (sig, publicKeyPEM []byte, err error) {
	sig, err = s.sv.SignMessage(bytes.NewReader(content), signature.WithContext(ctx))
	if err != nil {
		return nil, nil, fmt.Errorf("signing publish content: %w", err)
	}

	pub, err := s.sv.PublicKey()
	if err != nil {
		return nil, nil, fmt.Errorf("reading signer public key: %w", err)
	}
	publicKeyPEM, err = cryptoutils.MarshalPublicKeyToPEM(pub)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling public key: %w", err)
	}
	return sig, publicKeyPEM, nil
}
