// Package token issues and verifies the self-signed bearer tokens accepted
// by the bigmodel API.
//
// An API key has the form "<id>.<secret>". A token is a compact JWS signed
// with HMAC-SHA256 over the secret:
//
//	header  {"alg":"HS256","sign_type":"SIGN"}
//	payload {"api_key":"<id>","exp":<3*timestamp>,"timestamp":<ms>}
//
// The exp claim is three times the millisecond timestamp, which lands
// thousands of years in the future. The API has always accepted it, so it is
// kept as is; Verify never checks expiry.
//
// Usage:
//
//	cred, err := token.ParseCredential(apiKey)
//	auth := token.NewAuthenticator(clock.NewNTP(""))
//	tok, err := auth.Issue(ctx, cred)
//	ok := auth.Verify(tok, cred)
package token
