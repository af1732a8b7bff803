package domain

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

func TestSessionIsAuthenticated(t *testing.T) {
	tests := []struct {
		name    string
		session *Session
		want    bool
	}{
		{"nil", nil, false},
		{"empty", &Session{}, false},
		{"token only", &Session{Token: "tok"}, false},
		{"user only", &Session{User: &User{ID: 1}}, false},
		{"both", &Session{Token: "tok", User: &User{ID: 1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.session.IsAuthenticated(); got != tt.want {
				t.Fatalf("IsAuthenticated() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseStatusFilter(t *testing.T) {
	tests := []struct {
		raw    string
		want   StatusFilter
		wantOK bool
	}{
		{"all", FilterAll, true},
		{"pending", FilterPending, true},
		{" completed ", FilterCompleted, true},
		{"", FilterAll, false},
		{"done", FilterAll, false},
	}

	for _, tt := range tests {
		got, ok := ParseStatusFilter(tt.raw)
		if got != tt.want || ok != tt.wantOK {
			t.Fatalf("ParseStatusFilter(%q) = %q, %v", tt.raw, got, ok)
		}
	}
}

func TestErrorHelpers(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("list: %w", WrapError(ErrCodeTransport, "could not reach the server", cause))

	if !IsDomainError(err, ErrCodeTransport) || IsDomainError(err, ErrCodeInvalid) {
		t.Fatal("IsDomainError did not see through wrapping")
	}
	if Message(err) != "could not reach the server" {
		t.Fatalf("Message = %q", Message(err))
	}
	if !errors.Is(err, cause) {
		t.Fatal("cause lost")
	}
	if Message(errors.New("plain")) != "plain" || Message(nil) != "" {
		t.Fatal("Message on non-domain errors")
	}
}

func TestFieldErrors(t *testing.T) {
	fields := FieldErrors{"password": "Password is required", "email": "invalid email"}
	err := NewValidationError(fields)
	if err.Code != ErrCodeInvalid || err.Message != "email: invalid email; password: Password is required" {
		t.Fatalf("validation error = %+v", err)
	}

	fields.Clear("email")
	if fields.Get("email") != "" || fields.Get("password") == "" {
		t.Fatalf("after Clear = %v", fields)
	}
	var none FieldErrors
	if none.Get("email") != "" || none.String() != "validation failed" {
		t.Fatal("nil FieldErrors")
	}
}

func TestTaskPageClone(t *testing.T) {
	page := &TaskPage{Tasks: []Task{{ID: 1, Title: "a"}}, Pagination: Pagination{Page: 1, Total: 1}}
	clone := page.Clone()
	clone.Tasks[0].Title = "b"
	if page.Tasks[0].Title != "a" {
		t.Fatal("clone shares tasks")
	}
	if (*TaskPage)(nil).Clone() != nil {
		t.Fatal("nil clone")
	}
	if !math.IsNaN(Unset()) {
		t.Fatal("Unset is not NaN")
	}
}
