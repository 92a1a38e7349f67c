package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/accounts/internal/accounts/service"
	"github.com/aussiebroadwan/accounts/pkg/authsdk"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/slogx"
)

// writeError maps service errors onto the JSON error body. Anything
// unrecognised is logged and reported as a 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]authsdk.FieldError, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			fields = append(fields, authsdk.FieldError{Field: f.Field, Message: f.Message})
		}
		authsdk.NewAPIError(http.StatusBadRequest, authsdk.MsgValidation, fields...).WriteError(w)
	case errors.Is(err, httpx.ErrBadJSON):
		authsdk.NewAPIError(http.StatusBadRequest, authsdk.MsgValidation).WriteError(w)

	case errors.Is(err, service.ErrInvalidCredentials):
		authsdk.NewAPIError(http.StatusUnauthorized, authsdk.MsgInvalidCredentials).WriteError(w)
	case errors.Is(err, service.ErrRefreshFailed):
		authsdk.NewAPIError(http.StatusUnauthorized, authsdk.MsgRefreshFailed).WriteError(w)
	case errors.Is(err, service.ErrUnauthorized):
		authsdk.NewAPIError(http.StatusUnauthorized, authsdk.MsgSessionExpired).WriteError(w)

	case errors.Is(err, service.ErrInvalidResetToken):
		authsdk.NewAPIError(http.StatusForbidden, authsdk.MsgInvalidResetToken).WriteError(w)
	case errors.Is(err, service.ErrForbidden):
		authsdk.NewAPIError(http.StatusForbidden, authsdk.MsgForbidden).WriteError(w)

	case errors.Is(err, service.ErrEmailTaken):
		authsdk.NewAPIError(http.StatusConflict, authsdk.MsgEmailTaken).WriteError(w)

	case errors.Is(err, service.ErrInvalidCode):
		authsdk.NewAPIError(http.StatusNotFound, authsdk.MsgInvalidCode).WriteError(w)
	case errors.Is(err, service.ErrNotFound):
		authsdk.NewAPIError(http.StatusNotFound, authsdk.MsgUserNotFound).WriteError(w)

	default:
		slogx.FromContext(r.Context()).Error("request failed", slog.String("error", err.Error()))
		authsdk.NewAPIError(http.StatusInternalServerError, authsdk.MsgInternal).WriteError(w)
	}
}
