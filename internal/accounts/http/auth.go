package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/authsdk"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

// AuthHandler serves the /api/auth routes.
type AuthHandler struct {
	AuthService *service.AuthService
	Cookies     sessionCookies
}

// HandleRegister creates an account and mails its verification code.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.AuthService.Register(r.Context(), service.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.Envelope[authsdk.UserData]{
		Status:  authsdk.StatusSuccess,
		Message: "An email with a verification code has been sent to your email",
		Data:    authsdk.UserData{User: toUser(u)},
	})
}

// HandleLogin checks credentials, sets the session cookies and returns the
// token pair for non-browser clients.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	res, err := h.AuthService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Cookies.setLogin(w, res.Tokens)
	httpx.WriteJSON(w, http.StatusOK, authsdk.Success(tokenData(res.Tokens)))
}

// HandleRefresh mints a new access token. The refresh token comes from the
// refresh_token cookie or the bearer header; the header is tried when the
// cookie is rejected.
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var (
		pair domain.TokenPair
		err  = service.ErrRefreshFailed
	)
	for _, token := range httpx.TokensFromRequest(r, refreshCookie) {
		if pair, err = h.AuthService.Refresh(r.Context(), token); err == nil {
			break
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Cookies.setAccess(w, pair)
	httpx.WriteJSON(w, http.StatusOK, authsdk.Success(tokenData(pair)))
}

// HandleLogout ends the caller's session and clears the cookies.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	userID, _ := httpx.UserIDFromContext(r.Context())

	if err := h.AuthService.Logout(r.Context(), userID); err != nil {
		writeError(w, r, err)
		return
	}

	h.Cookies.clear(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessMessage("Logged out"))
}

func (h *AuthHandler) HandleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthService.VerifyEmail(r.Context(), r.PathValue("verificationCode")); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessMessage("Email verified successfully"))
}

// HandleForgotPassword answers the same way for known and unknown
// addresses.
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ForgotPasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.AuthService.ForgotPassword(r.Context(), req.Email); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK,
		authsdk.SuccessMessage("You will receive a reset email if a user with that email exists"))
}

// HandleResetPassword redeems a reset token. Any session cookies the
// browser still holds are cleared since the server side session is gone.
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ResetPasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	err := h.AuthService.ResetPassword(r.Context(), service.ResetPasswordInput{
		Token:           r.PathValue("resetToken"),
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.Cookies.clear(w)
	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessMessage("Password updated successfully"))
}

func tokenData(pair domain.TokenPair) authsdk.TokenData {
	return authsdk.TokenData{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(time.Until(pair.AccessExpiresAt).Round(time.Second).Seconds()),
	}
}

func toUser(u domain.User) authsdk.User {
	p := u.Public()
	return authsdk.User{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Role:      p.Role.String(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
