package validate

import (
	"testing"

	"github.com/fastygo/taskclient/domain"
)

func TestStruct(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  domain.FieldErrors
	}{
		{
			name:  "valid credentials",
			input: &domain.Credentials{Email: "a@b.com", Password: "secret1"},
			want:  nil,
		},
		{
			name:  "empty credentials",
			input: &domain.Credentials{},
			want:  domain.FieldErrors{"email": "Email is required", "password": "Password is required"},
		},
		{
			name:  "malformed email and short password",
			input: &domain.Credentials{Email: "not-an-email", Password: "123"},
			want:  domain.FieldErrors{"email": "invalid email", "password": "Password must be at least 6 characters"},
		},
		{
			name:  "blank name and mismatched confirmation",
			input: &domain.Registration{Name: "   ", Email: "a@b.com", Password: "secret1", ConfirmPassword: "secret2"},
			want:  domain.FieldErrors{"name": "Name is required", "confirmPassword": "passwords do not match"},
		},
		{
			name:  "valid registration",
			input: &domain.Registration{Name: "A", Email: "a@b.com", Password: "secret1", ConfirmPassword: "secret1"},
			want:  nil,
		},
		{
			name:  "blank title",
			input: &domain.TaskDraft{Title: " \t"},
			want:  domain.FieldErrors{"title": "Title is required"},
		},
		{
			name:  "title with description",
			input: &domain.TaskDraft{Title: "Buy milk", Description: "2 litres"},
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Struct(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("Struct() = %v, want %v", got, tt.want)
			}
			for field, msg := range tt.want {
				if got[field] != msg {
					t.Errorf("%s = %q, want %q", field, got[field], msg)
				}
			}
		})
	}
}

func TestCheck(t *testing.T) {
	if err := Check(&domain.TaskDraft{Title: "ok"}); err != nil {
		t.Fatalf("Check(valid) = %v", err)
	}

	err := Check(&domain.Credentials{Email: "a@b.com"})
	if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("Check() = %v, want INVALID", err)
	}
	dErr := err.(*domain.Error)
	if dErr.Fields.Get("password") == "" || dErr.Fields.Get("email") != "" {
		t.Fatalf("fields = %v", dErr.Fields)
	}
}
