package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/example/waiting-scheduler/internal/db"
	"github.com/example/waiting-scheduler/internal/waiting"
	"github.com/jackc/pgx/v5"
)

type fakeRow struct {
	raw []byte
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*[]byte)) = r.raw
	return nil
}

// fakeDB keeps the last written blob and serves it back.
type fakeDB struct {
	raw     []byte
	getErr  error
	execErr error
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) error {
	if f.execErr != nil {
		return f.execErr
	}
	f.raw = append([]byte(nil), args[1].([]byte)...)
	return nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) db.Row {
	if f.getErr != nil {
		return fakeRow{err: f.getErr}
	}
	if f.raw == nil {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{raw: f.raw}
}

func TestConfigRoundTrip(t *testing.T) {
	s := New(&fakeDB{})
	want := waiting.Config{
		PartySize:      "4",
		PhoneNumber:    "01099998888",
		EnabledAm:      true,
		EnabledPm:      true,
		EnabledWeekday: true,
		EnabledWeekend: true,
	}

	if err := s.SaveConfig(context.Background(), want); err != nil {
		t.Fatalf("SaveConfig error: %v", err)
	}
	got, err := s.Config(context.Background())
	if err != nil {
		t.Fatalf("Config error: %v", err)
	}
	if got != want {
		t.Fatalf("round trip: got %+v, want %+v", got, want)
	}
}

func TestConfigMissingReturnsDefault(t *testing.T) {
	got, err := New(&fakeDB{}).Config(context.Background())
	if err != nil {
		t.Fatalf("Config error: %v", err)
	}
	if got != (waiting.Config{}) {
		t.Fatalf("expected zero config, got %+v", got)
	}
}

func TestConfigStoreErrorWrapped(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := New(&fakeDB{getErr: boom}).Config(context.Background())
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatal("StoreError should wrap the cause")
	}
}

func TestSaveConfigErrorWrapped(t *testing.T) {
	boom := errors.New("write failed")
	err := New(&fakeDB{execErr: boom}).SaveConfig(context.Background(), waiting.Config{})
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected StoreError, got %v", err)
	}
}

func TestStoredShapeMatchesWireFormat(t *testing.T) {
	f := &fakeDB{}
	cfg := waiting.Config{PartySize: "2", PhoneNumber: "01012345678", EnabledAm: true}
	if err := New(f).SaveConfig(context.Background(), cfg); err != nil {
		t.Fatalf("SaveConfig error: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(f.raw, &m); err != nil {
		t.Fatalf("stored value is not JSON: %v", err)
	}
	for _, k := range []string{"partySize", "phoneNumber", "enabledAm", "enabledPm", "enabledWeekday", "enabledWeekend"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("stored JSON missing key %q", k)
		}
	}
}
