package harvest

import (
	"context"
	"sync"
)

// StaticCredentials returns a CredentialFunc that always yields the given
// cookie. Used for --cookie overrides and env-sourced cookies.
func StaticCredentials(cookie string, src CredentialSource) CredentialFunc {
	creds := Credentials{Cookie: cookie, Source: src}
	return func(context.Context) (Credentials, error) {
		return creds, nil
	}
}

// OnceCredentials memoizes fn: the underlying resolution (a CookieCloud
// round trip, typically) runs at most once per process, including its
// failure. Failed resolution is not retried within an invocation.
func OnceCredentials(fn CredentialFunc) CredentialFunc {
	var (
		once  sync.Once
		creds Credentials
		err   error
	)
	return func(ctx context.Context) (Credentials, error) {
		once.Do(func() {
			creds, err = fn(ctx)
		})
		return creds, err
	}
}
