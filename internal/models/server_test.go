package models

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func validServer() ServerInfo {
	return ServerInfo{
		Hostname: "web-1",
		Username: "deploy",
		Password: "hunter2",
	}
}

func TestServerInfoValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerInfo)
		wantErr string
	}{
		{
			name:   "password auth",
			mutate: func(s *ServerInfo) {},
		},
		{
			name: "key auth",
			mutate: func(s *ServerInfo) {
				s.Password = ""
				s.PrivateKeyPath = "~/.ssh/id_ed25519"
			},
		},
		{
			name: "key auth with passphrase",
			mutate: func(s *ServerInfo) {
				s.Password = ""
				s.PrivateKeyPath = "~/.ssh/id_rsa"
				s.PrivateKeyPassphrase = "secret"
			},
		},
		{
			name:    "missing hostname",
			mutate:  func(s *ServerInfo) { s.Hostname = "" },
			wantErr: "hostname",
		},
		{
			name:    "missing username",
			mutate:  func(s *ServerInfo) { s.Username = "" },
			wantErr: "username",
		},
		{
			name:    "no auth method",
			mutate:  func(s *ServerInfo) { s.Password = "" },
			wantErr: "auth",
		},
		{
			name: "both auth methods",
			mutate: func(s *ServerInfo) {
				s.PrivateKeyPath = "~/.ssh/id_rsa"
			},
			wantErr: "mutually exclusive",
		},
		{
			name: "passphrase without key",
			mutate: func(s *ServerInfo) {
				s.PrivateKeyPassphrase = "secret"
			},
			wantErr: "private_key_passphrase",
		},
		{
			name:    "port out of range",
			mutate:  func(s *ServerInfo) { s.Port = 70000 },
			wantErr: "port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := validServer()
			tt.mutate(&server)

			err := server.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() = %q, want error containing %q", err, tt.wantErr)
			}

			var verrs *ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected *ValidationErrors, got %T", err)
			}
		})
	}
}

func TestServerInfoNormalize(t *testing.T) {
	server := validServer()
	server.Normalize()

	if server.Port != DefaultPort {
		t.Fatalf("expected default port %d, got %d", DefaultPort, server.Port)
	}
	if server.Group != DefaultGroup {
		t.Fatalf("expected default group %q, got %q", DefaultGroup, server.Group)
	}

	server = ServerInfo{Hostname: "h", Port: 2222, Group: "web"}
	server.Normalize()
	if server.Port != 2222 || server.Group != "web" {
		t.Fatalf("Normalize overwrote explicit values: port=%d group=%q", server.Port, server.Group)
	}
}

func TestServerInfoAddr(t *testing.T) {
	server := validServer()
	if got := server.Addr(); got != "web-1:22" {
		t.Fatalf("Addr() = %q, want web-1:22", got)
	}

	server.Port = 2222
	if got := server.Addr(); got != "web-1:2222" {
		t.Fatalf("Addr() = %q, want web-1:2222", got)
	}
}

func TestServerInfoJSONOmitsSecrets(t *testing.T) {
	server := validServer()
	server.PrivateKeyPassphrase = "topsecret"

	data, err := json.Marshal(server)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	if strings.Contains(string(data), "hunter2") {
		t.Fatalf("password leaked into JSON: %s", data)
	}
	if strings.Contains(string(data), "topsecret") {
		t.Fatalf("passphrase leaked into JSON: %s", data)
	}
}

func TestCommandResultFailed(t *testing.T) {
	ok := CommandResult{Hostname: "h", ReturnCode: 0}
	if ok.Failed() {
		t.Fatal("clean result reported as failed")
	}

	nonzero := CommandResult{Hostname: "h", ReturnCode: 3}
	if !nonzero.Failed() {
		t.Fatal("non-zero exit not reported as failed")
	}

	transport := CommandResult{Hostname: "h", ReturnCode: -1, Error: "connect refused"}
	if !transport.Failed() {
		t.Fatal("transport error not reported as failed")
	}
}
