package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Target is the persisted default target for commands that fan out
// (selected group or explicit host list).
type Target struct {
	// Group is the currently selected server group.
	Group string `yaml:"group,omitempty"`
	// Hosts is an explicit host selection, used when Group is empty.
	Hosts []string `yaml:"hosts,omitempty"`
	// UpdatedAt is when the target was last modified.
	UpdatedAt time.Time `yaml:"updated_at,omitempty"`
}

// IsEmpty returns true if no target is set.
func (t *Target) IsEmpty() bool {
	return t.Group == "" && len(t.Hosts) == 0
}

// Clear removes the selection.
func (t *Target) Clear() {
	t.Group = ""
	t.Hosts = nil
	t.UpdatedAt = time.Now()
}

// SetGroup selects a group. An explicit host list is dropped since the
// two selections are mutually exclusive.
func (t *Target) SetGroup(group string) {
	t.Group = group
	t.Hosts = nil
	t.UpdatedAt = time.Now()
}

// SetHosts selects an explicit host list.
func (t *Target) SetHosts(hosts []string) {
	t.Group = ""
	t.Hosts = hosts
	t.UpdatedAt = time.Now()
}

// String returns a human-readable representation of the target.
func (t *Target) String() string {
	if t.IsEmpty() {
		return "(no target set)"
	}
	if t.Group != "" {
		return fmt.Sprintf("group:%s", t.Group)
	}
	return fmt.Sprintf("hosts:%s", strings.Join(t.Hosts, ","))
}

// TargetStore manages loading and saving the default target.
type TargetStore struct {
	path string
	mu   sync.RWMutex
}

// NewTargetStore creates a new target store.
// If path is empty, uses the default path (~/.config/sshfleet/target.yaml).
func NewTargetStore(path string) *TargetStore {
	if path == "" {
		homeDir, _ := os.UserHomeDir()
		path = filepath.Join(homeDir, ".config", "sshfleet", "target.yaml")
	}
	return &TargetStore{path: path}
}

// Path returns the target file path.
func (s *TargetStore) Path() string {
	return s.path
}

// Load reads the target from disk.
// Returns an empty target if the file doesn't exist.
func (s *TargetStore) Load() (*Target, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	target := &Target{}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return target, nil
		}
		return nil, fmt.Errorf("failed to read target file: %w", err)
	}

	if err := yaml.Unmarshal(data, target); err != nil {
		return nil, fmt.Errorf("failed to parse target file: %w", err)
	}

	return target, nil
}

// Save writes the target to disk.
func (s *TargetStore) Save(target *Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Ensure directory exists
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	data, err := yaml.Marshal(target)
	if err != nil {
		return fmt.Errorf("failed to serialize target: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write target file: %w", err)
	}

	return nil
}

// Clear removes the target file.
func (s *TargetStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove target file: %w", err)
	}
	return nil
}
