package cli

import (
	"context"
	"testing"

	"github.com/gridbooth/gridbooth/pkg/config"
	"github.com/gridbooth/gridbooth/pkg/printer"
)

func TestBuildCache(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{
			name:   "none backend",
			mutate: func(c *config.Config) { c.Cache.Backend = "none" },
		},
		{
			name: "file backend with explicit dir",
			mutate: func(c *config.Config) {
				c.Cache.Backend = "file"
				c.Cache.Dir = t.TempDir()
			},
		},
		{
			name:    "unknown backend",
			mutate:  func(c *config.Config) { c.Cache.Backend = "bolt" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)

			c, err := buildCache(&cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildCache() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if c == nil {
				t.Fatal("buildCache() returned nil cache")
			}
			c.Close()
		})
	}
}

func TestBuildSessionStore(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{
			name:   "memory backend",
			mutate: func(c *config.Config) { c.Session.Backend = "memory" },
		},
		{
			name: "file backend with explicit dir",
			mutate: func(c *config.Config) {
				c.Session.Backend = "file"
				c.Session.Dir = t.TempDir()
			},
		},
		{
			name:    "unknown backend",
			mutate:  func(c *config.Config) { c.Session.Backend = "etcd" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)

			store, err := buildSessionStore(context.Background(), &cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildSessionStore() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if store == nil {
				t.Fatal("buildSessionStore() returned nil store")
			}
			store.Close()
		})
	}
}

func TestBuildPrinter(t *testing.T) {
	cfg := config.Default()
	client, err := buildPrinter(&cfg)
	if err != nil {
		t.Fatalf("buildPrinter() error: %v", err)
	}
	if _, ok := client.(*printer.NullClient); !ok {
		t.Errorf("no endpoint should wire the null client, got %T", client)
	}

	cfg.Printer.Endpoint = "http://printer.local:9100"
	client, err = buildPrinter(&cfg)
	if err != nil {
		t.Fatalf("buildPrinter() with endpoint error: %v", err)
	}
	if _, ok := client.(*printer.HTTPClient); !ok {
		t.Errorf("endpoint should wire the HTTP client, got %T", client)
	}

	cfg.Printer.Endpoint = "://not-a-url"
	if _, err := buildPrinter(&cfg); err == nil {
		t.Error("expected an error for an invalid endpoint")
	}
}
