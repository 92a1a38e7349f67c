package app

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
)

var errNoKeys = errors.New("no token keys configured")

// LoadKeys builds the access and refresh key pairs from configuration.
//
// With no keys configured at all, dev environments get a freshly generated
// pair per role; tokens then stop verifying on every restart. Any other
// environment must supply both private keys.
func LoadKeys(cfg Config, logger *slog.Logger) (*jwtx.KeyRing, error) {
	k := cfg.Keys
	accessPriv, err := keyMaterial(k.AccessPrivateKey, k.AccessPrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("access private key: %w", err)
	}
	accessPub, err := keyMaterial(k.AccessPublicKey, k.AccessPublicKeyFile)
	if err != nil {
		return nil, fmt.Errorf("access public key: %w", err)
	}
	refreshPriv, err := keyMaterial(k.RefreshPrivateKey, k.RefreshPrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("refresh private key: %w", err)
	}
	refreshPub, err := keyMaterial(k.RefreshPublicKey, k.RefreshPublicKeyFile)
	if err != nil {
		return nil, fmt.Errorf("refresh public key: %w", err)
	}

	if accessPriv == nil && refreshPriv == nil && cfg.Env == "dev" {
		logger.Warn("no token keys configured, generating ephemeral keys",
			"rsa_bits", cryptox.MinRSABits,
		)
		if accessPriv, accessPub, err = cryptox.GenerateRSAKeyPair(cryptox.MinRSABits); err != nil {
			return nil, err
		}
		if refreshPriv, refreshPub, err = cryptox.GenerateRSAKeyPair(cryptox.MinRSABits); err != nil {
			return nil, err
		}
	}
	if accessPriv == nil || refreshPriv == nil {
		return nil, errNoKeys
	}

	access, err := jwtx.NewKeyPair(jwtx.RoleAccess, cfg.Issuer, accessPriv, accessPub)
	if err != nil {
		return nil, err
	}
	refresh, err := jwtx.NewKeyPair(jwtx.RoleRefresh, cfg.Issuer, refreshPriv, refreshPub)
	if err != nil {
		return nil, err
	}

	logger.Info("token keys loaded",
		"access_kid", access.KID(),
		"refresh_kid", refresh.KID(),
	)
	return jwtx.NewKeyRing(access, refresh)
}

// keyMaterial returns nil when neither source is set. Inline values may be
// PEM or base64 of PEM; file contents must be PEM.
func keyMaterial(inline, fromFile string) ([]byte, error) {
	inline = strings.TrimSpace(inline)
	if inline == "" {
		if strings.TrimSpace(fromFile) == "" {
			return nil, nil
		}
		return []byte(fromFile), nil
	}

	if strings.HasPrefix(inline, "-----BEGIN") {
		return []byte(inline), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(inline)
	if err != nil {
		return nil, fmt.Errorf("not PEM or base64: %w", err)
	}
	if !bytes.HasPrefix(bytes.TrimSpace(decoded), []byte("-----BEGIN")) {
		return nil, errors.New("base64 value does not decode to PEM")
	}
	return decoded, nil
}
