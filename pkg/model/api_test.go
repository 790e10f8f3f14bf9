package model

import "testing"

func TestEventFilter_Clamp(t *testing.T) {
	tests := []struct {
		name  string
		input EventFilter
		want  int
	}{
		{"default", EventFilter{}, 100},
		{"negative", EventFilter{Limit: -5}, 100},
		{"over max", EventFilter{Limit: 5000}, 1000},
		{"valid", EventFilter{Limit: 50}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.Clamp()
			if tt.input.Limit != tt.want {
				t.Errorf("Limit = %d, want %d", tt.input.Limit, tt.want)
			}
		})
	}
}

func TestAPIError(t *testing.T) {
	err := NewNotFoundError("button", "z")
	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if got, want := err.Error(), "NOT_FOUND: button 'z' not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if v := NewValidationError("value %v out of range", 2.5); v.Message != "value 2.5 out of range" {
		t.Errorf("Message = %q", v.Message)
	}
}

func TestAPIError_Codes(t *testing.T) {
	tests := []struct {
		err  *APIError
		want ErrorCode
	}{
		{NewConflictError("busy"), ErrConflict},
		{NewUnavailableError("no journal"), ErrUnavailable},
		{NewInternalError("boom"), ErrInternal},
	}
	for _, tt := range tests {
		if tt.err.Code != tt.want {
			t.Errorf("Code = %q, want %q", tt.err.Code, tt.want)
		}
	}
}

func TestEventKind_Valid(t *testing.T) {
	for _, k := range EventKinds {
		if !k.Valid() {
			t.Errorf("%q should be valid", k)
		}
	}
	if EventKind("started").Valid() {
		t.Error("unknown kind reported valid")
	}
}
