// Package jwtx signs and verifies the RS256 tokens issued by the accounts
// service. Access and refresh tokens use separate key pairs, and every
// token carries a "use" claim so one can never stand in for the other.
package jwtx

import "errors"

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")
	ErrKeyMismatch = errors.New("jwtx: public key does not match private key")

	ErrIssuer      = errors.New("jwtx: issuer mismatch")
	ErrExpired     = errors.New("jwtx: token expired")
	ErrNotYetValid = errors.New("jwtx: token not yet valid")
	ErrTokenUse    = errors.New("jwtx: token used for the wrong purpose")
)
