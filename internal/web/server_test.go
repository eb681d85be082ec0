package web

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/example/waiting-scheduler/internal/automation"
	"github.com/example/waiting-scheduler/internal/registration"
	"github.com/example/waiting-scheduler/internal/scheduler"
	"github.com/example/waiting-scheduler/internal/waiting"
)

type memStore struct {
	cfg   waiting.Config
	saves int
}

func (m *memStore) Config(ctx context.Context) (waiting.Config, error) { return m.cfg, nil }
func (m *memStore) SaveConfig(ctx context.Context, cfg waiting.Config) error {
	m.cfg = cfg
	m.saves++
	return nil
}

type noNotifier struct{}

func (noNotifier) Notify(ctx context.Context, text string) error { return nil }

type noDialer struct{ sessions int }

func (d *noDialer) NewSession(ctx context.Context) (automation.Driver, error) {
	d.sessions++
	return nil, nil
}

func newTestServer(st *memStore, dialer *noDialer) *Server {
	hashKey := bytes.Repeat([]byte("h"), 32)
	blockKey := bytes.Repeat([]byte("b"), 16)
	passHash, _ := HashPassword("hunter2")

	runner := scheduler.NewRunner(st, dialer,
		registration.New("https://example.test/w", zerolog.Nop()), nil, noNotifier{}, zerolog.Nop())

	return &Server{
		Commander: waiting.NewCommander(st),
		Runner:    runner,
		Store:     st,
		Auth:      NewAuth(hashKey, blockKey, passHash),
		Log:       zerolog.Nop(),
	}
}

func postCommand(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/slack/command", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSlackCommandRegister(t *testing.T) {
	st := &memStore{}
	h := newTestServer(st, &noDialer{}).Routes()

	rec := postCommand(t, h, "text="+url.QueryEscape("4 01099998888"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "등록 완료: 4명, 01099998888 (오전/오후, 평일/주말 모두 활성)" {
		t.Fatalf("reply = %q", got)
	}
	want := waiting.Config{
		PartySize:      "4",
		PhoneNumber:    "01099998888",
		EnabledAm:      true,
		EnabledPm:      true,
		EnabledWeekday: true,
		EnabledWeekend: true,
	}
	if st.cfg != want {
		t.Fatalf("stored config = %+v", st.cfg)
	}
}

func TestSlackCommandBogusGetsUsageWithoutMutation(t *testing.T) {
	st := &memStore{}
	rec := postCommand(t, newTestServer(st, &noDialer{}).Routes(), "text=bogus")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Body.String(), "사용법:") {
		t.Fatalf("reply = %q, want usage listing", rec.Body.String())
	}
	if st.saves != 0 {
		t.Fatal("store mutated by unknown command")
	}
}

func TestSlackCommandBase64Body(t *testing.T) {
	st := &memStore{}
	body := base64.StdEncoding.EncodeToString([]byte("text=status"))
	rec := postCommand(t, newTestServer(st, &noDialer{}).Routes(), body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "오전: OFF") {
		t.Fatalf("reply = %q", rec.Body.String())
	}
}

func TestTriggerSkipReturnsMessageJSON(t *testing.T) {
	st := &memStore{cfg: waiting.Config{
		PartySize:      "3",
		PhoneNumber:    "01012345678",
		EnabledAm:      true,
		EnabledWeekday: true,
		EnabledWeekend: true,
	}}
	dialer := &noDialer{}
	h := newTestServer(st, dialer).Routes()

	req := httptest.NewRequest(http.MethodPost, "/trigger", strings.NewReader(`{"slot":"pm"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if res.Message != "Skipped - pm not enabled or missing config" {
		t.Fatalf("message = %q", res.Message)
	}
	if len(res.Result) != 0 {
		t.Fatalf("result should be omitted on skip, got %s", res.Result)
	}
	if dialer.sessions != 0 {
		t.Fatal("driver session opened for a skipped trigger")
	}
}

func TestTriggerEmptyBodyDefaultsToAm(t *testing.T) {
	st := &memStore{} // empty config: am skip
	h := newTestServer(st, &noDialer{}).Routes()

	req := httptest.NewRequest(http.MethodPost, "/trigger", io.NopCloser(strings.NewReader("")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Skipped - weekday disabled") &&
		!strings.Contains(rec.Body.String(), "Skipped - weekend disabled") {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestAdminRequiresLogin(t *testing.T) {
	h := newTestServer(&memStore{}, &noDialer{}).Routes()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/login" {
		t.Fatalf("expected redirect to /login, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
}

func TestLoginAndToggle(t *testing.T) {
	st := &memStore{cfg: waiting.Config{PartySize: "2", PhoneNumber: "01012345678"}}
	h := newTestServer(st, &noDialer{}).Routes()

	form := url.Values{"password": {"hunter2"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Fatalf("login status = %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie set")
	}

	form = url.Values{"flag": {"pm"}, "state": {"on"}}
	req = httptest.NewRequest(http.MethodPost, "/waiting/toggle", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound {
		t.Fatalf("toggle status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !st.cfg.EnabledPm {
		t.Fatal("pm flag not set")
	}
	if st.cfg.PartySize != "2" || st.cfg.EnabledAm {
		t.Fatalf("toggle touched other fields: %+v", st.cfg)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h := newTestServer(&memStore{}, &noDialer{}).Routes()
	form := url.Values{"password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Invalid password") {
		t.Fatalf("status = %d body = %q", rec.Code, rec.Body.String())
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("cookie set on failed login")
	}
}
