package models

import (
	"errors"
	"strings"
	"testing"
)

func TestValidationErrorsEmpty(t *testing.T) {
	validation := &ValidationErrors{}
	if err := validation.Err(); err != nil {
		t.Fatalf("expected nil for empty validation, got %v", err)
	}

	var nilValidation *ValidationErrors
	if err := nilValidation.Err(); err != nil {
		t.Fatalf("expected nil for nil validation, got %v", err)
	}
}

func TestValidationErrorsSingle(t *testing.T) {
	validation := &ValidationErrors{}
	validation.AddMessage("hostname", "hostname is required")

	err := validation.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "hostname: hostname is required" {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestValidationErrorsMultiple(t *testing.T) {
	validation := &ValidationErrors{}
	validation.AddMessage("hostname", "hostname is required")
	validation.AddMessage("port", "port must be between 1 and 65535")

	err := validation.Err()
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "hostname") || !strings.Contains(msg, "port") {
		t.Fatalf("aggregate message missing fields: %v", msg)
	}
	if !strings.Contains(msg, "; ") {
		t.Fatalf("aggregate message not joined: %v", msg)
	}
}

func TestValidationErrorsAs(t *testing.T) {
	validation := &ValidationErrors{}
	validation.AddMessage("username", "username is required")

	var target *ValidationErrors
	if !errors.As(validation.Err(), &target) {
		t.Fatal("errors.As should match *ValidationErrors")
	}
	if len(target.Errors) != 1 || target.Errors[0].Field != "username" {
		t.Fatalf("unexpected errors: %+v", target.Errors)
	}
}

func TestValidationErrorsIgnoresEmptyMessage(t *testing.T) {
	validation := &ValidationErrors{}
	validation.AddMessage("hostname", "")

	if err := validation.Err(); err != nil {
		t.Fatalf("empty message should not record an error, got %v", err)
	}
}
