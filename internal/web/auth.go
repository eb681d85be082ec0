package web

import (
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"golang.org/x/crypto/bcrypt"
)

const cookieName = "waitsched_session"

// Auth guards the admin pages with a single bcrypt-hashed password and a
// securecookie session.
type Auth struct {
	sc           *securecookie.SecureCookie
	passwordHash string
}

func NewAuth(hashKey, blockKey []byte, passwordHash string) *Auth {
	sc := securecookie.New(hashKey, blockKey)
	sc.MaxAge(int((14 * 24 * time.Hour).Seconds()))
	return &Auth{sc: sc, passwordHash: passwordHash}
}

func (a *Auth) CheckPassword(pw string) bool {
	if a.passwordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(pw)) == nil
}

func (a *Auth) SetSession(w http.ResponseWriter, r *http.Request) error {
	encoded, err := a.sc.Encode(cookieName, map[string]any{"admin": true, "v": 1})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
		MaxAge:   int((14 * 24 * time.Hour).Seconds()),
	})
	return nil
}

func (a *Auth) ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

func (a *Auth) Authenticated(r *http.Request) bool {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return false
	}
	val := map[string]any{}
	if err := a.sc.Decode(cookieName, c.Value, &val); err != nil {
		return false
	}
	admin, _ := val["admin"].(bool)
	return admin
}

func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Authenticated(r) {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HashPassword is used by the keys command to prepare ADMIN_PASSWORD_BCRYPT.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}
