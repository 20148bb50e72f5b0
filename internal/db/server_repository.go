package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sshfleet/internal/models"
)

// Server repository errors.
var (
	ErrServerNotFound = errors.New("server not found in inventory")
)

// ServerRepository handles server inventory persistence. Credentials are
// stored as-is: the inventory is a single-user local file and the registry
// needs them back verbatim to connect.
type ServerRepository struct {
	db *DB
}

// NewServerRepository creates a new ServerRepository.
func NewServerRepository(db *DB) *ServerRepository {
	return &ServerRepository{db: db}
}

// Save inserts or overwrites a server record keyed by hostname.
func (r *ServerRepository) Save(ctx context.Context, server models.ServerInfo) error {
	if err := server.Validate(); err != nil {
		return fmt.Errorf("invalid server: %w", err)
	}
	server.Normalize()

	now := time.Now().UTC().Format(time.RFC3339)

	enabled := 0
	if server.Enabled {
		enabled = 1
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO servers (
			hostname, username, port, password, private_key_path,
			private_key_passphrase, group_name, description, enabled,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hostname) DO UPDATE SET
			username = excluded.username,
			port = excluded.port,
			password = excluded.password,
			private_key_path = excluded.private_key_path,
			private_key_passphrase = excluded.private_key_passphrase,
			group_name = excluded.group_name,
			description = excluded.description,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at
	`,
		server.Hostname,
		server.Username,
		server.Port,
		server.Password,
		server.PrivateKeyPath,
		server.PrivateKeyPassphrase,
		server.Group,
		server.Description,
		enabled,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save server: %w", err)
	}
	return nil
}

// Get retrieves one server by hostname.
func (r *ServerRepository) Get(ctx context.Context, hostname string) (models.ServerInfo, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT hostname, username, port, password, private_key_path,
			private_key_passphrase, group_name, description, enabled
		FROM servers
		WHERE hostname = ?
	`, hostname)

	server, err := scanServer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ServerInfo{}, ErrServerNotFound
	}
	return server, err
}

// List retrieves all servers ordered by hostname.
func (r *ServerRepository) List(ctx context.Context) ([]models.ServerInfo, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT hostname, username, port, password, private_key_path,
			private_key_passphrase, group_name, description, enabled
		FROM servers
		ORDER BY hostname
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query servers: %w", err)
	}
	defer rows.Close()

	var servers []models.ServerInfo
	for rows.Next() {
		server, err := scanServer(rows)
		if err != nil {
			return nil, err
		}
		servers = append(servers, server)
	}
	return servers, rows.Err()
}

// Delete removes one server by hostname.
func (r *ServerRepository) Delete(ctx context.Context, hostname string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM servers WHERE hostname = ?`, hostname)
	if err != nil {
		return fmt.Errorf("failed to delete server: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrServerNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanServer(row rowScanner) (models.ServerInfo, error) {
	var (
		server  models.ServerInfo
		enabled int
	)
	err := row.Scan(
		&server.Hostname,
		&server.Username,
		&server.Port,
		&server.Password,
		&server.PrivateKeyPath,
		&server.PrivateKeyPassphrase,
		&server.Group,
		&server.Description,
		&enabled,
	)
	if err != nil {
		return models.ServerInfo{}, err
	}
	server.Enabled = enabled != 0
	return server, nil
}
