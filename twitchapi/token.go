// Package twitchapi contains minimal helpers to query Twitch Helix for the
// channel's live status, using an app access (client credentials) token.
package twitchapi

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const defaultTokenURL = "https://id.twitch.tv/oauth2/token"

// TokenSource fetches and caches a Twitch app access token.
// NOTE: this token CANNOT be used for IRC chat; chat requires a user (bot)
// OAuth token with chat:read/chat:edit scopes.
type TokenSource struct {
	ClientID     string
	ClientSecret string
	TokenURL     string       // defaults to the Twitch id endpoint
	HTTPClient   *http.Client // defaults to http.DefaultClient

	once sync.Once
	src  oauth2.TokenSource
}

// Get returns a valid (fresh or cached) app access token. Refresh is handled
// by the underlying client-credentials token source.
func (ts *TokenSource) Get(ctx context.Context) (string, error) {
	ts.once.Do(func() {
		cfg := &clientcredentials.Config{
			ClientID:     ts.ClientID,
			ClientSecret: ts.ClientSecret,
			TokenURL:     ts.TokenURL,
		}
		if cfg.TokenURL == "" {
			cfg.TokenURL = defaultTokenURL
		}
		baseCtx := context.Background()
		if ts.HTTPClient != nil {
			baseCtx = context.WithValue(baseCtx, oauth2.HTTPClient, ts.HTTPClient)
		}
		ts.src = cfg.TokenSource(baseCtx)
	})
	tok, err := ts.src.Token()
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}
