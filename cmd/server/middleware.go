package main

import (
	"net/http"

	"go.uber.org/zap"
)

func (app *application) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if app.Auth.Open() {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := r.Header.Get("X-Api-Key")
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}

		if app.Auth.IsValidKey(apiKey) {
			next.ServeHTTP(w, r)
			return
		}

		app.Logger.Warn(
			"authentication failed",
			zap.String("path", r.URL.Path),
			zap.String("remote_addr", r.RemoteAddr),
		)
		w.Header().Set("WWW-Authenticate", "APIKey")
		http.Error(w, "Unauthorized: invalid API key", http.StatusUnauthorized)
	}
}
