package authorization

import (
	"testing"

	"stayfinder-service/domain"
)

func TestEnforcer(t *testing.T) {
	e, err := NewEnforcer()
	if err != nil {
		t.Fatalf("NewEnforcer: %v", err)
	}

	tests := []struct {
		role     domain.UserRole
		resource string
		action   string
		want     bool
	}{
		{domain.Host, ResourceListing, ActionWrite, true},
		{domain.Host, ResourceBooking, ActionHostView, true},
		{domain.Guest, ResourceListing, ActionWrite, false},
		{domain.Guest, ResourceBooking, ActionHostView, false},
		{domain.Host, ResourceListing, "delete-everything", false},
		{"", ResourceListing, ActionWrite, false},
	}
	for _, tt := range tests {
		got, err := e.Allowed(tt.role, tt.resource, tt.action)
		if err != nil {
			t.Fatalf("Allowed(%s, %s, %s): %v", tt.role, tt.resource, tt.action, err)
		}
		if got != tt.want {
			t.Errorf("Allowed(%s, %s, %s) = %v, want %v", tt.role, tt.resource, tt.action, got, tt.want)
		}
	}
}
