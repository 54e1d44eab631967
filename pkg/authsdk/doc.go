/*
Package authsdk provides a client SDK for the CVision authentication service
and the error and payload types the service itself writes.

# Overview

An SDKClient stands for one user agent. It owns a cookie jar so the
refresh token, which the service only ever sends as the HttpOnly
"refreshToken" cookie, is stored and replayed the way a browser would.

	client := authsdk.NewSDKClient("https://auth.example.com")

	// Two-phase registration
	_, err := client.Register(ctx, "jane@example.com", "Sup3r$ecret")
	// ... read the six digit code from the email ...
	account, err := client.Confirm(ctx, "jane@example.com", code)

	// Log in
	session, err := client.Login(ctx, "jane@example.com", "Sup3r$ecret")

# Session Renewal

Session tokens live for 30 minutes. When a request carries an expired
session token the service checks the refresh cookie and, if it is valid,
answers normally with a new session token in the Authorization response
header. Session picks that header up and uses the new token from then on,
so callers never refresh by hand:

	me, err := session.Me(ctx)

Once the refresh token itself expires (30 days) requests fail with an
*APIError whose Code is "unauthorized" and the user must log in again.

# Error Handling

Every non-success response is returned as *APIError. Predefined values can
be matched with errors.Is:

	_, err := client.Confirm(ctx, email, code)
	switch {
	case errors.Is(err, authsdk.ErrIncorrectCode):
		// try again, the pending registration is kept
	case errors.Is(err, authsdk.ErrCodeExpired):
		// register again
	}

Validation failures carry per-field messages in APIError.Details.

# Thread Safety

Sessions are safe for concurrent use.
*/
package authsdk
