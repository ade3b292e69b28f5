package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"atelier/config"

	"go.uber.org/zap"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginHandler serves POST /api/admin/login.
func LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, "Requisição inválida.", http.StatusBadRequest)
			return
		}

		cfg := config.GetConfig()
		if cfg.AdminEmail == "" || cfg.AdminPasswordHash == "" || cfg.JWTSecret == "" {
			writeJSONError(w, "Acesso administrativo não configurado.", http.StatusServiceUnavailable)
			return
		}

		email := strings.TrimSpace(req.Email)
		if !strings.EqualFold(email, cfg.AdminEmail) || CheckPassword(cfg.AdminPasswordHash, req.Password) != nil {
			zap.S().Warnf("Failed admin login for %q from %s", email, r.RemoteAddr)
			writeJSONError(w, "E-mail ou senha inválidos.", http.StatusUnauthorized)
			return
		}

		ttl := time.Duration(cfg.SessionTTLMinutes) * time.Minute
		token, expires, err := IssueToken(cfg.AdminEmail, cfg.JWTSecret, ttl)
		if err != nil {
			if errors.Is(err, ErrNoSecret) {
				writeJSONError(w, "Acesso administrativo não configurado.", http.StatusServiceUnavailable)
				return
			}
			writeJSONError(w, "Falha ao iniciar sessão: "+err.Error(), http.StatusInternalServerError)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    token,
			Path:     "/",
			Expires:  expires,
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteStrictMode,
		})
		zap.S().Infof("Admin %s logged in", cfg.AdminEmail)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"token":     token,
			"expiresAt": expires.UTC().Format(time.RFC3339),
		})
	}
}

// LogoutHandler serves POST /api/admin/logout.
func LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Sessão encerrada."})
	}
}

// MeHandler serves GET /api/admin/me behind Middleware.
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"email": Subject(r.Context())})
	}
}
