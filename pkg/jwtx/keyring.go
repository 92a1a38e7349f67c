package jwtx

import (
	"errors"
	"fmt"
	"time"
)

// Role selects which key pair signs or verifies a token.
type Role string

const (
	RoleAccess  Role = "access"
	RoleRefresh Role = "refresh"
)

var ErrUnknownRole = errors.New("jwtx: unknown key role")

// KeyPair couples the RS256 signer of a role with a verifier bound to the
// role's public key.
type KeyPair struct {
	role     Role
	issuer   string
	signer   *RS256Signer
	keys     *KeySet
	verifier *RS256Verifier
}

// NewKeyPair loads the private key for a role. When publicPEM is given it
// must match the private key; otherwise the public half is derived.
func NewKeyPair(role Role, issuer string, privatePEM, publicPEM []byte) (*KeyPair, error) {
	priv, err := ParseRSAPrivateKey(privatePEM)
	if err != nil {
		return nil, fmt.Errorf("jwtx: %s private key: %w", role, err)
	}

	if len(publicPEM) > 0 {
		pub, err := ParseRSAPublicKey(publicPEM)
		if err != nil {
			return nil, fmt.Errorf("jwtx: %s public key: %w", role, err)
		}
		if !pub.Equal(&priv.PublicKey) {
			return nil, fmt.Errorf("jwtx: %s: %w", role, ErrKeyMismatch)
		}
	}

	signer := &RS256Signer{
		kid: string(role) + "-" + Thumbprint(&priv.PublicKey),
		key: priv,
		pub: &priv.PublicKey,
		alg: "RS256",
	}
	if err := signer.Validate(); err != nil {
		return nil, fmt.Errorf("jwtx: %s: %w", role, err)
	}

	keys := NewKeySet()
	if err := keys.AddJWK(signer.PublicJWK()); err != nil {
		return nil, err
	}

	return &KeyPair{
		role:     role,
		issuer:   issuer,
		signer:   signer,
		keys:     keys,
		verifier: NewVerifierRS256(keys, issuer, role),
	}, nil
}

// Role reports which token role this pair serves.
func (p *KeyPair) Role() Role { return p.role }

// KID is the key id stamped into the header of every token this pair signs.
func (p *KeyPair) KID() string { return p.signer.KID() }

// KeyRing holds the access and refresh key pairs. It is built once at
// startup and never mutated afterwards.
type KeyRing struct {
	pairs map[Role]*KeyPair
}

// NewKeyRing assembles a ring from one pair per role.
func NewKeyRing(access, refresh *KeyPair) (*KeyRing, error) {
	if access == nil || access.role != RoleAccess {
		return nil, fmt.Errorf("%w: access pair missing", ErrUnknownRole)
	}
	if refresh == nil || refresh.role != RoleRefresh {
		return nil, fmt.Errorf("%w: refresh pair missing", ErrUnknownRole)
	}
	return &KeyRing{pairs: map[Role]*KeyPair{
		RoleAccess:  access,
		RoleRefresh: refresh,
	}}, nil
}

// Issue mints a token for subject with the role's issuer and the given TTL.
func (r *KeyRing) Issue(role Role, subject string, ttl time.Duration, now time.Time) (string, Claims, error) {
	p, ok := r.pairs[role]
	if !ok {
		return "", Claims{}, ErrUnknownRole
	}
	claims := NewClaims(subject, role, ttl, p.issuer, now)
	token, err := p.signer.Sign(claims)
	if err != nil {
		return "", Claims{}, fmt.Errorf("jwtx: sign %s token: %w", role, err)
	}
	return token, claims, nil
}

// Verify checks token against the public key of role. Any failure (bad
// signature, wrong role, malformed, expired) yields ok == false; callers
// treat that as unauthenticated rather than as an error.
func (r *KeyRing) Verify(role Role, token string) (Claims, bool) {
	p, ok := r.pairs[role]
	if !ok || token == "" {
		return Claims{}, false
	}
	claims, err := p.verifier.Verify(token)
	if err != nil {
		return Claims{}, false
	}
	return claims, true
}

// JWKS publishes the public key of a role.
func (r *KeyRing) JWKS(role Role) JWKS {
	p, ok := r.pairs[role]
	if !ok {
		return JWKS{Keys: []JWK{}}
	}
	return p.keys.PublicJWKS()
}

// IsReady reports whether both roles have a key loaded.
func (r *KeyRing) IsReady() bool {
	if r == nil {
		return false
	}
	for _, role := range []Role{RoleAccess, RoleRefresh} {
		p, ok := r.pairs[role]
		if !ok || !p.keys.IsReady() {
			return false
		}
	}
	return true
}
