package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SDKClient is a client for the accounts service. It covers the public
// endpoints and creates authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new accounts service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates an unverified account. The verification code is mailed
// to the address, never returned.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/register", req, "")
	if err != nil {
		return nil, err
	}

	var out Envelope[UserData]
	if err := decodeJSON(resp, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out.Data.User, nil
}

// Login exchanges credentials for a token pair and wraps it in a Session.
func (c *SDKClient) Login(ctx context.Context, email, password string) (*Session, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/login", LoginRequest{Email: email, Password: password}, "")
	if err != nil {
		return nil, err
	}

	var out Envelope[TokenData]
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return newSession(c, out.Data), nil
}

// VerifyEmail redeems the code from the verification email.
func (c *SDKClient) VerifyEmail(ctx context.Context, code string) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/auth/verifyemail/"+url.PathEscape(code), nil, "")
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// ForgotPassword asks for a reset email. It succeeds whether or not the
// address is registered.
func (c *SDKClient) ForgotPassword(ctx context.Context, email string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/auth/forgotpassword", ForgotPasswordRequest{Email: email}, "")
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// ResetPassword sets a new password using a reset token.
func (c *SDKClient) ResetPassword(ctx context.Context, token string, req ResetPasswordRequest) error {
	resp, err := c.doRequest(ctx, http.MethodPatch, "/api/auth/resetpassword/"+url.PathEscape(token), req, "")
	if err != nil {
		return err
	}
	return decodeJSON(resp, nil, http.StatusOK)
}

// RefreshAccessToken trades a refresh token for a new access token.
func (c *SDKClient) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenData, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/auth/refresh", nil, refreshToken)
	if err != nil {
		return nil, err
	}

	var out Envelope[TokenData]
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// NewSessionFromTokens resumes a session from stored tokens.
func (c *SDKClient) NewSessionFromTokens(accessToken, refreshToken string, expiresIn int) *Session {
	return newSession(c, TokenData{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    expiresIn,
	})
}
