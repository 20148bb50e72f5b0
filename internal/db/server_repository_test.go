package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"sshfleet/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(Options{Path: filepath.Join(t.TempDir(), "inventory.db")})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleServer(hostname string) models.ServerInfo {
	return models.ServerInfo{
		Hostname:    hostname,
		Username:    "deploy",
		Password:    "hunter2",
		Group:       "web",
		Description: "test box",
		Enabled:     true,
	}
}

func TestServerRepositorySaveAndGet(t *testing.T) {
	repo := NewServerRepository(setupTestDB(t))
	ctx := context.Background()

	server := sampleServer("web-1")
	server.Port = 2222
	if err := repo.Save(ctx, server); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.Get(ctx, "web-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Username != "deploy" || got.Port != 2222 || got.Group != "web" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if got.Password != "hunter2" {
		t.Fatal("credentials did not round trip")
	}
	if !got.Enabled {
		t.Fatal("enabled flag did not round trip")
	}
}

func TestServerRepositorySaveAppliesDefaults(t *testing.T) {
	repo := NewServerRepository(setupTestDB(t))
	ctx := context.Background()

	server := sampleServer("web-1")
	server.Port = 0
	server.Group = ""
	if err := repo.Save(ctx, server); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := repo.Get(ctx, "web-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Port != models.DefaultPort || got.Group != models.DefaultGroup {
		t.Fatalf("defaults not applied: %+v", got)
	}
}

func TestServerRepositorySaveRejectsInvalid(t *testing.T) {
	repo := NewServerRepository(setupTestDB(t))
	ctx := context.Background()

	server := sampleServer("web-1")
	server.Password = ""
	if err := repo.Save(ctx, server); err == nil {
		t.Fatal("expected validation error")
	}

	if _, err := repo.Get(ctx, "web-1"); !errors.Is(err, ErrServerNotFound) {
		t.Fatalf("invalid record persisted: %v", err)
	}
}

func TestServerRepositorySaveOverwrites(t *testing.T) {
	repo := NewServerRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Save(ctx, sampleServer("web-1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	updated := sampleServer("web-1")
	updated.Group = "canary"
	updated.Enabled = false
	if err := repo.Save(ctx, updated); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	servers, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(servers) != 1 {
		t.Fatalf("upsert duplicated the record: %d rows", len(servers))
	}
	if servers[0].Group != "canary" || servers[0].Enabled {
		t.Fatalf("overwrite not applied: %+v", servers[0])
	}
}

func TestServerRepositoryList(t *testing.T) {
	repo := NewServerRepository(setupTestDB(t))
	ctx := context.Background()

	for _, hostname := range []string{"web-2", "db-1", "web-1"} {
		if err := repo.Save(ctx, sampleServer(hostname)); err != nil {
			t.Fatalf("Save(%s) failed: %v", hostname, err)
		}
	}

	servers, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(servers) != 3 {
		t.Fatalf("expected 3 servers, got %d", len(servers))
	}
	if servers[0].Hostname != "db-1" || servers[2].Hostname != "web-2" {
		t.Fatalf("listing not ordered by hostname: %+v", servers)
	}
}

func TestServerRepositoryDelete(t *testing.T) {
	repo := NewServerRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Save(ctx, sampleServer("web-1")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := repo.Delete(ctx, "web-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := repo.Delete(ctx, "web-1"); !errors.Is(err, ErrServerNotFound) {
		t.Fatalf("second Delete = %v, want ErrServerNotFound", err)
	}
	if _, err := repo.Get(ctx, "web-1"); !errors.Is(err, ErrServerNotFound) {
		t.Fatalf("deleted record still resolvable: %v", err)
	}
}
