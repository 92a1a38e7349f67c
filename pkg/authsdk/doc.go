/*
Package authsdk is the client SDK for the accounts service, plus the wire
types the service itself writes.

Use an SDKClient for public endpoints and to log in:

	client := authsdk.NewSDKClient("https://accounts.example.com")

	_, err := client.Register(ctx, authsdk.RegisterRequest{
		Name:            "Alice Liddell",
		Email:           "alice@example.com",
		Password:        "wonderland",
		PasswordConfirm: "wonderland",
	})

	// The code arrives by email.
	err = client.VerifyEmail(ctx, code)

	session, err := client.Login(ctx, "alice@example.com", "wonderland")

A Session carries the access and refresh tokens. Every Session method
renews the access token through the refresh endpoint when it is about to
expire, so callers never refresh by hand:

	me, err := session.Me(ctx)
	users, err := session.ListUsers(ctx) // admin only
	err = session.Logout(ctx)

After Logout the refresh token is rejected by the server even though its
signature is still valid.

# Errors

Every non-2xx response is returned as *APIError carrying the HTTP status,
the message and, for validation failures, the per-field errors:

	var apiErr *authsdk.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict {
		// email already registered
	}
*/
package authsdk
