package lifecycle

import (
	"errors"
	"testing"

	"github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"
)

func TestResolveTable(t *testing.T) {
	all := []model.Status{
		model.StatusPending, model.StatusConfirmed, model.StatusCompleted,
		model.StatusCancelled, model.StatusNoShow,
	}
	allowed := map[[2]model.Status]bool{
		{model.StatusPending, model.StatusConfirmed}:   true,
		{model.StatusPending, model.StatusCancelled}:   true,
		{model.StatusConfirmed, model.StatusCompleted}: true,
		{model.StatusConfirmed, model.StatusCancelled}: true,
		{model.StatusConfirmed, model.StatusNoShow}:    true,
	}

	for _, from := range all {
		for _, to := range all {
			_, err := resolve(from, to, model.RoleAdmin)
			if allowed[[2]model.Status{from, to}] {
				if err != nil {
					t.Fatalf("%s -> %s: expected admin to be allowed, got %v", from, to, err)
				}
				continue
			}
			var te *model.TransitionError
			if !errors.As(err, &te) {
				t.Fatalf("%s -> %s: expected TransitionError, got %v", from, to, err)
			}
		}
	}
}

func TestResolveRoles(t *testing.T) {
	cases := []struct {
		name     string
		from, to model.Status
		role     model.Role
		wantGate gate
		wantAuth bool
		wantTran bool
	}{
		{"provider completes", model.StatusConfirmed, model.StatusCompleted, model.RoleProvider, gateNone, false, false},
		{"customer completes", model.StatusConfirmed, model.StatusCompleted, model.RoleCustomer, gateNone, true, false},
		{"customer confirms", model.StatusPending, model.StatusConfirmed, model.RoleCustomer, gateNone, true, false},
		{"customer no-show from terminal", model.StatusCompleted, model.StatusNoShow, model.RoleCustomer, gateNone, true, false},
		{"customer cancels", model.StatusPending, model.StatusCancelled, model.RoleCustomer, gateCancelWindow, false, false},
		{"customer cancels completed", model.StatusCompleted, model.StatusCancelled, model.RoleCustomer, gateNone, false, true},
		{"provider no-show on pending", model.StatusPending, model.StatusNoShow, model.RoleProvider, gateNone, false, true},
		{"admin cancels", model.StatusConfirmed, model.StatusCancelled, model.RoleAdmin, gateNone, false, false},
		{"unknown role", model.StatusPending, model.StatusCancelled, model.Role("guest"), gateNone, true, false},
		{"customer back to pending", model.StatusPending, model.StatusPending, model.RoleCustomer, gateNone, true, false},
		{"customer back to pending from confirmed", model.StatusConfirmed, model.StatusPending, model.RoleCustomer, gateNone, true, false},
		{"provider back to pending", model.StatusConfirmed, model.StatusPending, model.RoleProvider, gateNone, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, err := resolve(tc.from, tc.to, tc.role)
			var ae *model.AuthorizationError
			var te *model.TransitionError
			switch {
			case tc.wantAuth:
				if !errors.As(err, &ae) {
					t.Fatalf("expected AuthorizationError, got %v", err)
				}
			case tc.wantTran:
				if !errors.As(err, &te) {
					t.Fatalf("expected TransitionError, got %v", err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if g != tc.wantGate {
					t.Fatalf("gate = %v, want %v", g, tc.wantGate)
				}
			}
		})
	}
}
