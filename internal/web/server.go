// Package web exposes the HTTP surface: the Slack slash-command route, the
// manual trigger, health, and a small session-authenticated admin page.
package web

import (
	"context"
	"embed"
	"encoding/base64"
	"encoding/json"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/example/waiting-scheduler/internal/registration"
	"github.com/example/waiting-scheduler/internal/scheduler"
	"github.com/example/waiting-scheduler/internal/waiting"
)

//go:embed templates/*.html
var fs embed.FS

const maxBodyBytes = 64 << 10

type Server struct {
	Commander *waiting.Commander
	Runner    *scheduler.Runner
	Store     waiting.ConfigStore
	Auth      *Auth
	Log       zerolog.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	r.Post("/slack/command", s.handleSlackCommand)
	r.Post("/trigger", s.handleTrigger)

	r.Get("/login", s.handleLoginForm)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.Auth.RequireAuth)
		r.Get("/", s.handleHome)
		r.Post("/waiting/toggle", s.handleToggle)
		r.Post("/waiting/off", s.handleOff)
	})

	return r
}

// handleSlackCommand always answers 200 with the reply text; only a store
// failure is a real error.
func (s *Server) handleSlackCommand(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	text, ok := commandText(body)
	if !ok {
		http.Error(w, "no text field", http.StatusBadRequest)
		return
	}

	reply, err := s.Commander.Handle(r.Context(), text)
	if err != nil {
		s.Log.Error().Err(err).Msg("command failed")
		http.Error(w, "command failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(reply))
}

// commandText extracts the text field from a form-encoded body, decoding
// base64 first when the raw bytes are not form-shaped (API-gateway style).
func commandText(body []byte) (string, bool) {
	if text, ok := parseText(body); ok {
		return text, true
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(body)))
	if err != nil {
		return "", false
	}
	return parseText(decoded)
}

func parseText(body []byte) (string, bool) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return "", false
	}
	if _, ok := values["text"]; !ok {
		return "", false
	}
	return strings.TrimSpace(values.Get("text")), true
}

type triggerRequest struct {
	Slot string `json:"slot"`
}

type triggerResponse struct {
	Message string               `json:"message"`
	Result  *registration.Result `json:"result,omitempty"`
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if r.Body != nil {
		// an empty body means the default am slot
		_ = json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req)
	}
	slot := waiting.ParseSlot(req.Slot)

	out, err := s.Runner.RunSlot(r.Context(), slot)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, triggerResponse{Message: out.Message, Result: out.Result})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// --- admin pages ---

type pageData struct {
	Title  string
	Flash  string
	Config waiting.Config
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, "templates/login.html", pageData{Title: "Login"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !s.Auth.CheckPassword(r.FormValue("password")) {
		s.render(w, "templates/login.html", pageData{Title: "Login", Flash: "Invalid password"})
		return
	}
	if err := s.Auth.SetSession(w, r); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.Auth.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.Store.Config(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.render(w, "templates/status.html", pageData{Title: "Waiting", Config: cfg})
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cfg, err := s.Store.Config(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !cfg.SetFlag(r.FormValue("flag"), r.FormValue("state") == "on") {
		http.Error(w, "unknown flag", http.StatusBadRequest)
		return
	}
	if err := s.Store.SaveConfig(r.Context(), cfg); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleOff(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.Store.Config(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	cfg.DisableAll()
	if err := s.Store.SaveConfig(r.Context(), cfg); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) render(w http.ResponseWriter, name string, data pageData) {
	t, err := template.ParseFS(fs, "templates/base.html", name)
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, "base", data); err != nil {
		s.Log.Error().Err(err).Str("template", name).Msg("render failed")
	}
}

func Start(ctx context.Context, addr string, h http.Handler, log zerolog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	log.Info().Str("addr", addr).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
