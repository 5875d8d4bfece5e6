package validator

import (
	"errors"
	"testing"
)

func TestValidateStruct(t *testing.T) {
	type submitRequest struct {
		Title        string  `json:"title" validate:"required,max=20"`
		DocumentType string  `json:"document_type" validate:"required,oneof=certificate course project"`
		Priority     string  `json:"priority" validate:"oneof=high medium low"`
		Owner        string  `json:"owner_id" validate:"uuid"`
		Contact      string  `json:"contact" validate:"email"`
		Comment      *string `json:"comment" validate:"min=3"`
	}

	short := "no"
	long := "looks fine"

	tests := []struct {
		name      string
		input     submitRequest
		wantField string
	}{
		{
			name:  "valid struct",
			input: submitRequest{Title: "AWS Cert", DocumentType: "certificate", Comment: &long},
		},
		{
			name:  "optional fields left empty",
			input: submitRequest{Title: "AWS Cert", DocumentType: "course"},
		},
		{
			name:      "missing required field",
			input:     submitRequest{Title: "   ", DocumentType: "course"},
			wantField: "title",
		},
		{
			name:      "title too long",
			input:     submitRequest{Title: "a title well beyond twenty runes", DocumentType: "course"},
			wantField: "title",
		},
		{
			name:      "unknown document type",
			input:     submitRequest{Title: "AWS Cert", DocumentType: "diploma"},
			wantField: "document_type",
		},
		{
			name:      "unknown priority",
			input:     submitRequest{Title: "AWS Cert", DocumentType: "course", Priority: "urgent"},
			wantField: "priority",
		},
		{
			name:      "malformed id",
			input:     submitRequest{Title: "AWS Cert", DocumentType: "course", Owner: "42"},
			wantField: "owner_id",
		},
		{
			name:      "invalid email",
			input:     submitRequest{Title: "AWS Cert", DocumentType: "course", Contact: "nobody"},
			wantField: "contact",
		},
		{
			name:      "pointer field too short",
			input:     submitRequest{Title: "AWS Cert", DocumentType: "course", Comment: &short},
			wantField: "comment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("ValidateStruct() error = %v, expected none", err)
				}
				return
			}

			var fErr *FieldError
			if !errors.As(err, &fErr) {
				t.Fatalf("ValidateStruct() error = %v, expected FieldError", err)
			}
			if fErr.Field != tt.wantField {
				t.Errorf("FieldError.Field = %q, expected %q", fErr.Field, tt.wantField)
			}
		})
	}
}

func TestValidateStructRejectsNonStruct(t *testing.T) {
	if err := ValidateStruct("text"); err == nil {
		t.Error("expected an error for a non-struct value")
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email    string
		expected bool
	}{
		{"test@example.com", true},
		{"user.name@example.co.uk", true},
		{"invalid-email", false},
		{"@example.com", false},
		{"user@", false},
		{"", false},
		{"user@example", false},
	}

	for _, tt := range tests {
		err := ValidateEmail(tt.email)
		isValid := err == nil

		if isValid != tt.expected {
			t.Errorf("ValidateEmail(%q) = %v, expected %v", tt.email, isValid, tt.expected)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		expected bool
	}{
		{"password123", true},
		{"123456", true},
		{"12345", false},
		{"", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		isValid := err == nil

		if isValid != tt.expected {
			t.Errorf("ValidatePassword(%q) = %v, expected %v", tt.password, isValid, tt.expected)
		}
	}
}

func TestSanitizeEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Test@Example.com", "test@example.com"},
		{"  USER@EXAMPLE.COM  ", "user@example.com"},
		{"a\x00b@example.com", "ab@example.com"},
	}

	for _, tt := range tests {
		result := SanitizeEmail(tt.input)
		if result != tt.expected {
			t.Errorf("SanitizeEmail(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}
