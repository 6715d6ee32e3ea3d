package lifecycle

import "github.com/md-rashed-zaman/barberbook/services/booking-service/internal/model"

// Action is what an actor asks for. Each action targets exactly one status.
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
	ActionNoShow   Action = "no_show"
)

var actionTarget = map[model.Status]Action{
	model.StatusConfirmed: ActionConfirm,
	model.StatusCompleted: ActionComplete,
	model.StatusCancelled: ActionCancel,
	model.StatusNoShow:    ActionNoShow,
}

// gate is an extra condition a role must satisfy on a given edge.
type gate int

const (
	gateNone gate = iota
	gateCancelWindow
)

type edge struct {
	to    model.Status
	roles map[model.Role]gate
}

var staff = map[model.Role]gate{model.RoleProvider: gateNone, model.RoleAdmin: gateNone}

var staffOrTimedCustomer = map[model.Role]gate{
	model.RoleProvider: gateNone,
	model.RoleAdmin:    gateNone,
	model.RoleCustomer: gateCancelWindow,
}

// transitions maps (current status, action) to the next status and who may take the edge.
// Terminal statuses have no row.
var transitions = map[model.Status]map[Action]edge{
	model.StatusPending: {
		ActionConfirm: {to: model.StatusConfirmed, roles: staff},
		ActionCancel:  {to: model.StatusCancelled, roles: staffOrTimedCustomer},
	},
	model.StatusConfirmed: {
		ActionComplete: {to: model.StatusCompleted, roles: staff},
		ActionCancel:   {to: model.StatusCancelled, roles: staffOrTimedCustomer},
		ActionNoShow:   {to: model.StatusNoShow, roles: staff},
	},
}

// roleActions lists every action a role may request from some status. A request outside
// this set is an authorization failure regardless of the booking's state.
var roleActions = func() map[model.Role]map[Action]bool {
	out := map[model.Role]map[Action]bool{}
	for _, row := range transitions {
		for action, e := range row {
			for role := range e.roles {
				if out[role] == nil {
					out[role] = map[Action]bool{}
				}
				out[role][action] = true
			}
		}
	}
	return out
}()

// resolve looks up the edge from -> to for role. It returns the gate the caller still has
// to enforce.
func resolve(from, to model.Status, role model.Role) (gate, error) {
	action, ok := actionTarget[to]
	if !ok {
		// No action leads to this status. Roles limited to a subset of actions (customers)
		// are refused outright; staff learn the edge does not exist.
		if len(roleActions[role]) < len(actionTarget) {
			return gateNone, &model.AuthorizationError{Role: role, Action: "set status " + string(to)}
		}
		return gateNone, &model.TransitionError{From: from, To: to}
	}
	if !roleActions[role][action] {
		return gateNone, &model.AuthorizationError{Role: role, Action: string(action)}
	}
	e, ok := transitions[from][action]
	if !ok {
		return gateNone, &model.TransitionError{From: from, To: to}
	}
	g, ok := e.roles[role]
	if !ok {
		return gateNone, &model.AuthorizationError{Role: role, Action: string(action)}
	}
	return g, nil
}
