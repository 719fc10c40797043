package backend

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"finboard/internal/api/memory"
	"finboard/internal/api/rest"
	"finboard/internal/config"
	"finboard/internal/session"
	"finboard/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		APIURL:         "https://finance.example.com",
		APITimeout:     10 * time.Second,
		DataBackend:    "rest",
		SessionBackend: "sqlite",
		SQLiteDBPath:   "/tmp/finboard.db",
		RateLimitRPS:   5,
	}

	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig: %v", err)
	}
	if got.Type != RESTBackend || got.SessionType != SQLiteSession {
		t.Errorf("unexpected types %s/%s", got.Type, got.SessionType)
	}
	if got.APIURL != cfg.APIURL || got.APITimeout != cfg.APITimeout || got.RateLimitRPS != 5 {
		t.Errorf("REST settings not carried over: %+v", got)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	cfg.DataBackend = "sheets"
	if _, err := FromAppConfig(cfg); err == nil || !strings.Contains(err.Error(), "sheets") {
		t.Errorf("expected invalid backend error, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"rest", Config{Type: RESTBackend, SessionType: MemorySession, APIURL: "http://localhost:8000"}, false},
		{"rest without url", Config{Type: RESTBackend, SessionType: MemorySession}, true},
		{"memory", Config{Type: MemoryBackend, SessionType: MemorySession}, false},
		{"sqlite without path", Config{Type: MemoryBackend, SessionType: SQLiteSession}, true},
		{"unknown type", Config{Type: "sheets", SessionType: MemorySession}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.config.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateBackend(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	res, err := f.CreateBackend(ctx, Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateBackend(memory): %v", err)
	}
	if _, ok := res.Backend.(*memory.Backend); !ok {
		t.Errorf("expected memory backend, got %T", res.Backend)
	}

	res, err = f.CreateBackend(ctx, Config{Type: RESTBackend, APIURL: "http://localhost:8000"})
	if err != nil {
		t.Fatalf("CreateBackend(rest): %v", err)
	}
	client, ok := res.Backend.(*rest.Client)
	if !ok {
		t.Fatalf("expected REST client, got %T", res.Backend)
	}
	var _ TokenSetter = client

	if _, err := f.CreateBackend(ctx, Config{Type: RESTBackend, APIURL: "ftp://localhost"}); err == nil {
		t.Error("expected error for unsupported scheme")
	}
	if _, err := f.CreateBackend(ctx, Config{Type: "sheets"}); err == nil {
		t.Error("expected error for unknown type")
	}
}

func TestCreateSessionStore(t *testing.T) {
	f := NewFactory(nil)
	ctx := context.Background()

	res, err := f.CreateSessionStore(ctx, Config{SessionType: MemorySession})
	if err != nil {
		t.Fatalf("CreateSessionStore(memory): %v", err)
	}
	if _, ok := res.Store.(*session.MemoryStore); !ok {
		t.Errorf("expected memory store, got %T", res.Store)
	}

	path := filepath.Join(t.TempDir(), "session.db")
	res, err = f.CreateSessionStore(ctx, Config{SessionType: SQLiteSession, SQLiteDBPath: path})
	if err != nil {
		t.Fatalf("CreateSessionStore(sqlite): %v", err)
	}
	defer res.Cleanup()
	if _, ok := res.Store.(*storage.SQLiteRepository); !ok {
		t.Errorf("expected SQLite repository, got %T", res.Store)
	}
}

func TestCreateNotificationSink_Disabled(t *testing.T) {
	res := NewFactory(nil).CreateNotificationSink(context.Background(), Config{})
	if res.Sink != nil || res.Cleanup != nil {
		t.Errorf("expected no relay without AMQP URL, got %+v", res)
	}
}
