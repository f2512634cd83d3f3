package auth

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

// OAuthConfig configures the goth providers.
type OAuthConfig struct {
	GoogleClientID     string
	GoogleClientSecret string
	CallbackURL        string
	SessionSecret      string
	Secure             bool
}

// SetupOAuth registers the Google provider and makes gothic read the
// provider from the chi route instead of the query string. It reports
// whether any provider was configured.
func SetupOAuth(cfg OAuthConfig) bool {
	if cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return false
	}

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.MaxAge(600)
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.Secure
	gothic.Store = store

	gothic.GetProviderName = providerFromRoute
	goth.UseProviders(google.New(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.CallbackURL, "email", "profile"))
	return true
}

func providerFromRoute(r *http.Request) (string, error) {
	if p := chi.URLParam(r, "provider"); p != "" {
		return p, nil
	}
	if p := r.URL.Query().Get("provider"); p != "" {
		return p, nil
	}
	return "", errors.New("you must select a provider")
}
