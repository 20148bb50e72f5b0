// Package cluster implements the server registry, the pooled SSH connection
// lifecycle, and fan-out command execution across many hosts.
package cluster

import (
	"fmt"
	"sort"
	"sync"

	"sshfleet/internal/logging"
	"sshfleet/internal/models"

	"github.com/rs/zerolog"
)

// Registry holds per-host connection metadata and group membership. One
// mutex guards the host map and the group index together, so the two never
// observably diverge.
type Registry struct {
	logger zerolog.Logger

	mu      sync.Mutex
	servers map[string]models.ServerInfo
	groups  map[string][]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  logging.Component("registry"),
		servers: make(map[string]models.ServerInfo),
		groups:  make(map[string][]string),
	}
}

// Add registers a server, overwriting any record with the same hostname.
// The record is validated here; a server with zero or two auth methods is
// rejected and never enters the registry.
func (r *Registry) Add(server models.ServerInfo) error {
	if err := server.Validate(); err != nil {
		return fmt.Errorf("invalid server %q: %w", server.Hostname, err)
	}
	server.Normalize()

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.servers[server.Hostname]; ok && existing.Group != server.Group {
		r.removeFromGroupLocked(existing.Group, server.Hostname)
	}

	r.servers[server.Hostname] = server
	if !contains(r.groups[server.Group], server.Hostname) {
		r.groups[server.Group] = append(r.groups[server.Group], server.Hostname)
	}

	r.logger.Info().
		Str("hostname", server.Hostname).
		Str("group", server.Group).
		Bool("enabled", server.Enabled).
		Msg("server registered")
	return nil
}

// Remove deletes a server and its group membership. It reports whether a
// record existed. Any pooled connection for the host is the caller's to
// drop; the Manager does both together.
func (r *Registry) Remove(hostname string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	server, ok := r.servers[hostname]
	if !ok {
		return false
	}

	r.removeFromGroupLocked(server.Group, hostname)
	delete(r.servers, hostname)

	r.logger.Info().Str("hostname", hostname).Msg("server removed")
	return true
}

// Get returns the record for hostname.
func (r *Registry) Get(hostname string) (models.ServerInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	server, ok := r.servers[hostname]
	return server, ok
}

// List returns all servers, or the members of group when it is non-empty.
// Results are sorted by hostname.
func (r *Registry) List(group string) []models.ServerInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	var servers []models.ServerInfo
	if group == "" {
		for _, server := range r.servers {
			servers = append(servers, server)
		}
	} else {
		for _, hostname := range r.groups[group] {
			if server, ok := r.servers[hostname]; ok {
				servers = append(servers, server)
			}
		}
	}

	sort.Slice(servers, func(i, j int) bool {
		return servers[i].Hostname < servers[j].Hostname
	})
	return servers
}

// ListGroups returns all group names, sorted.
func (r *Registry) ListGroups() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	groups := make([]string, 0, len(r.groups))
	for group := range r.groups {
		groups = append(groups, group)
	}
	sort.Strings(groups)
	return groups
}

// GroupHosts returns the hostnames in a group.
func (r *Registry) GroupHosts(group string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	hosts := make([]string, len(r.groups[group]))
	copy(hosts, r.groups[group])
	return hosts
}

// Hostnames returns every registered hostname.
func (r *Registry) Hostnames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	hosts := make([]string, 0, len(r.servers))
	for hostname := range r.servers {
		hosts = append(hosts, hostname)
	}
	sort.Strings(hosts)
	return hosts
}

// Counts returns the total and enabled server counts.
func (r *Registry) Counts() (total, enabled int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	total = len(r.servers)
	for _, server := range r.servers {
		if server.Enabled {
			enabled++
		}
	}
	return total, enabled
}

// GroupSizes returns the member count per group.
func (r *Registry) GroupSizes() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	sizes := make(map[string]int, len(r.groups))
	for group, hosts := range r.groups {
		sizes[group] = len(hosts)
	}
	return sizes
}

// removeFromGroupLocked drops hostname from the group index, deleting the
// group entirely once emptied.
func (r *Registry) removeFromGroupLocked(group, hostname string) {
	hosts := r.groups[group]
	for i, h := range hosts {
		if h == hostname {
			r.groups[group] = append(hosts[:i], hosts[i+1:]...)
			break
		}
	}
	if len(r.groups[group]) == 0 {
		delete(r.groups, group)
	}
}

func contains(hosts []string, hostname string) bool {
	for _, h := range hosts {
		if h == hostname {
			return true
		}
	}
	return false
}
