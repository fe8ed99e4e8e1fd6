package harvest

import "fmt"

// NoCredentialsError means no cookie could be resolved for a platform after
// trying every configured source.
type NoCredentialsError struct {
	Platform Platform
	Tried    []string
}

func (e *NoCredentialsError) Error() string {
	return fmt.Sprintf("%s: no credentials found (tried: %v)", e.Platform, e.Tried)
}

// AuthError means the platform rejected the session: anonymous, expired, or
// otherwise not logged in.
type AuthError struct {
	Platform Platform
	Reason   string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: not authenticated", e.Platform)
	}
	return fmt.Sprintf("%s: not authenticated: %s", e.Platform, e.Reason)
}

// AccessTokenRequiredError means an item needs a share token the caller did
// not supply and none could be discovered.
type AccessTokenRequiredError struct {
	Platform Platform
	ItemID   string
}

func (e *AccessTokenRequiredError) Error() string {
	return fmt.Sprintf("%s: item %s requires an access token", e.Platform, e.ItemID)
}

// BlockedError means the platform's anti-automation layer stopped the
// request. Distinct from AuthError: fresher cookies will not help.
type BlockedError struct {
	Platform Platform
	Status   int
	Detail   string
}

func (e *BlockedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: request blocked (status %d)", e.Platform, e.Status)
	}
	return fmt.Sprintf("%s: request blocked (status %d): %s", e.Platform, e.Status, e.Detail)
}

// UnsupportedURLError means no platform client recognized the URL.
type UnsupportedURLError struct {
	URL string
}

func (e *UnsupportedURLError) Error() string {
	return fmt.Sprintf("unsupported url: %s", e.URL)
}

// TimeoutError wraps a deadline exceeded so callers can tell slow upstreams
// from hard failures.
type TimeoutError struct {
	Platform Platform
	Op       string
	Err      error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %s timed out: %v", e.Platform, e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// UpstreamFormatError means a platform response did not have the expected
// shape. Includes a short snippet for diagnosis, never the full body.
type UpstreamFormatError struct {
	Platform Platform
	Op       string
	Detail   string
}

func (e *UpstreamFormatError) Error() string {
	return fmt.Sprintf("%s: %s: unexpected response format: %s", e.Platform, e.Op, e.Detail)
}

// NoTextError marks content with nothing extractable. Platform clients do
// not return it from FetchContent (they return a none-available record);
// the CLI uses it to signal exit code 2.
type NoTextError struct {
	Platform Platform
	ItemID   string
}

func (e *NoTextError) Error() string {
	return fmt.Sprintf("%s: item %s has no extractable text", e.Platform, e.ItemID)
}
