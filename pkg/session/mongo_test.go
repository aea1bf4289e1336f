//go:build integration

package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupMongoContainer(t *testing.T) (*MongoStore, string, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor: wait.ForLog("Waiting for connections").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, "", func() {}
	}
	if container == nil {
		t.Skip("Docker not available, skipping integration test")
		return nil, "", func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "27017")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	uri := fmt.Sprintf("mongodb://%s:%s", host, port.Port())
	store, err := NewMongoStore(ctx, MongoConfig{
		URI:      uri,
		Database: "gridbooth_test",
	})
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to create store: %v", err)
	}

	cleanup := func() {
		store.Close()
		container.Terminate(ctx)
	}
	return store, uri, cleanup
}

func TestMongoStore(t *testing.T) {
	store, _, cleanup := setupMongoContainer(t)
	if store == nil {
		return
	}
	defer cleanup()

	storeTest(t, store)
}

func TestMongoStoreSharedAcrossClients(t *testing.T) {
	store, uri, cleanup := setupMongoContainer(t)
	if store == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	sess := newTestSession(t, DefaultTTL)
	sess.PageLabel = "5x7"
	if err := store.Set(ctx, sess); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	// A second kiosk connecting to the same database sees the session
	other, err := NewMongoStore(ctx, MongoConfig{
		URI:      uri,
		Database: "gridbooth_test",
	})
	if err != nil {
		t.Fatalf("Failed to create second store: %v", err)
	}
	defer other.Close()

	got, err := other.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got == nil {
		t.Fatal("second client should see the session")
	}
	if got.PageLabel != "5x7" || got.Grid != sess.Grid {
		t.Errorf("session round trip = %+v", got)
	}
}
