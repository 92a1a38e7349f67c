package httpx

import "context"

type ctxKey string

const CtxKeyUserID ctxKey = "user_id"

// ContextWithAuth records the authenticated subject.
func ContextWithAuth(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, CtxKeyUserID, userID)
}

// UserIDFromContext returns the authenticated subject, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(CtxKeyUserID).(string)
	return v, ok && v != ""
}
