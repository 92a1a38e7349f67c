package http

import (
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/authsdk"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
)

// UsersHandler serves /api/users. Every route sits behind Deserialize and
// RequireUser; list and delete also need RequireAdmin.
type UsersHandler struct {
	UserService *service.UserService
}

// HandleMe returns the caller's own account.
func (h *UsersHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, r, service.ErrSessionExpired)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.Success(authsdk.UserData{User: toUser(u)}))
}

func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.UserService.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]authsdk.User, 0, len(users))
	for _, u := range users {
		out = append(out, toUser(u))
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.Success(authsdk.UserListData{
		Results: len(out),
		Users:   out,
	}))
}

// HandleDelete removes an account by id and ends its session.
func (h *UsersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.UserService.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, authsdk.SuccessMessage("User deleted"))
}
