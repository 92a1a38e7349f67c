package service

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 32

	maxPasswordBytes = 72 // bcrypt input limit
)

// RegisterInput is the unvalidated body of a registration request.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
}

func (in RegisterInput) Validate() error {
	var v ValidationError

	if strings.TrimSpace(in.Name) == "" {
		v.add("name", "Name is required")
	}
	validateEmail(&v, in.Email)
	validatePassword(&v, "password", in.Password)

	switch {
	case in.PasswordConfirm == "":
		v.add("password_confirm", "Please confirm your password")
	case in.PasswordConfirm != in.Password:
		v.add("password_confirm", "Passwords do not match")
	}

	return v.err()
}

// ResetPasswordInput is the body of a password reset.
type ResetPasswordInput struct {
	Token           string
	Password        string
	PasswordConfirm string
}

func (in ResetPasswordInput) Validate() error {
	var v ValidationError

	validatePassword(&v, "password", in.Password)
	if in.PasswordConfirm != in.Password {
		v.add("password_confirm", "Passwords do not match")
	}
	return v.err()
}

func validateEmail(v *ValidationError, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		v.add("email", "Email address is required")
		return
	}
	if !isEmail(email) {
		v.add("email", "Invalid email address")
	}
}

func validatePassword(v *ValidationError, field, password string) {
	n := utf8.RuneCountInString(password)
	switch {
	case password == "":
		v.add(field, "Password is required")
	case n < MinPasswordLength:
		v.add(field, "Password must be more than 8 characters")
	case n > MaxPasswordLength, len(password) > maxPasswordBytes:
		v.add(field, "Password must be less than 32 characters")
	}
}

// isEmail accepts a bare addr-spec only: no display name, no angle brackets.
func isEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && strings.Contains(s[at+1:], ".")
}
