package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTarget_IsEmpty(t *testing.T) {
	tests := []struct {
		name   string
		target Target
		want   bool
	}{
		{
			name:   "empty target",
			target: Target{},
			want:   true,
		},
		{
			name:   "with group",
			target: Target{Group: "web"},
			want:   false,
		},
		{
			name:   "with hosts",
			target: Target{Hosts: []string{"web-1", "web-2"}},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.target.IsEmpty(); got != tt.want {
				t.Errorf("Target.IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTarget_SetGroupDropsHosts(t *testing.T) {
	target := &Target{Hosts: []string{"web-1"}}
	target.SetGroup("db")

	if target.Group != "db" {
		t.Errorf("Group = %v, want db", target.Group)
	}
	if len(target.Hosts) != 0 {
		t.Errorf("Hosts = %v, want empty", target.Hosts)
	}
}

func TestTarget_SetHostsDropsGroup(t *testing.T) {
	target := &Target{Group: "web"}
	target.SetHosts([]string{"db-1", "db-2"})

	if target.Group != "" {
		t.Errorf("Group = %v, want empty", target.Group)
	}
	if len(target.Hosts) != 2 {
		t.Errorf("Hosts = %v, want 2 hosts", target.Hosts)
	}
}

func TestTarget_String(t *testing.T) {
	tests := []struct {
		name   string
		target Target
		want   string
	}{
		{
			name:   "empty",
			target: Target{},
			want:   "(no target set)",
		},
		{
			name:   "group",
			target: Target{Group: "web"},
			want:   "group:web",
		},
		{
			name:   "hosts",
			target: Target{Hosts: []string{"web-1", "web-2"}},
			want:   "hosts:web-1,web-2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.target.String(); got != tt.want {
				t.Errorf("Target.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTargetStore_SaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewTargetStore(filepath.Join(tmpDir, "target.yaml"))

	target := &Target{Group: "web"}

	if err := store.Save(target); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if loaded.Group != "web" {
		t.Errorf("Group = %v, want web", loaded.Group)
	}
}

func TestTargetStore_LoadEmpty(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewTargetStore(filepath.Join(tmpDir, "target.yaml"))

	// Load non-existent file should return an empty target
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !loaded.IsEmpty() {
		t.Error("Load() should return empty target for non-existent file")
	}
}

func TestTargetStore_Clear(t *testing.T) {
	tmpDir := t.TempDir()
	targetPath := filepath.Join(tmpDir, "target.yaml")
	store := NewTargetStore(targetPath)

	if err := store.Save(&Target{Group: "web"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	if _, err := os.Stat(targetPath); !os.IsNotExist(err) {
		t.Error("target file should be removed after clear")
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() after Clear() error = %v", err)
	}
	if !loaded.IsEmpty() {
		t.Error("Load() after Clear() should return empty target")
	}
}
