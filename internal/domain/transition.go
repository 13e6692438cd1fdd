package domain

// Event enumerates the commands that move a complaint between states.
type Event string

const (
	EventCreate   Event = "CREATE"
	EventAssign   Event = "ASSIGN"
	EventWithdraw Event = "WITHDRAW"
	EventResolve  Event = "RESOLVE"
	EventApprove  Event = "APPROVE"
	EventReject   Event = "REJECT"
	EventForce    Event = "FORCE"
)

// AllEvents lists every event, including the admin override.
var AllEvents = []Event{
	EventCreate,
	EventAssign,
	EventWithdraw,
	EventResolve,
	EventApprove,
	EventReject,
	EventForce,
}

// Guard is an actor-relative precondition on top of the role check.
type Guard string

const (
	GuardNone     Guard = ""
	GuardOwner    Guard = "OWNER"
	GuardAssignee Guard = "ASSIGNEE"
)

// Transition is one row of the lifecycle table.
type Transition struct {
	Event Event
	From  ComplaintStatus
	To    ComplaintStatus
	Roles []ActorRole
	Guard Guard
}

// Permits reports whether role may fire the transition.
func (t Transition) Permits(role ActorRole) bool {
	for _, r := range t.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// transitions is the single source of truth for regular edges. The admin
// override is not listed: its target is chosen by the caller and checked
// with Reachable.
var transitions = []Transition{
	{Event: EventCreate, From: "", To: StatusPending, Roles: []ActorRole{RoleClient}},
	{Event: EventAssign, From: StatusPending, To: StatusInProgress, Roles: []ActorRole{RoleSupport, RoleAdmin}},
	{Event: EventWithdraw, From: StatusPending, To: StatusWithdrawn, Roles: []ActorRole{RoleClient}, Guard: GuardOwner},
	{Event: EventResolve, From: StatusInProgress, To: StatusResolved, Roles: []ActorRole{RoleSupport, RoleAdmin}, Guard: GuardAssignee},
	{Event: EventApprove, From: StatusResolved, To: StatusClosed, Roles: []ActorRole{RoleClient}, Guard: GuardOwner},
	{Event: EventReject, From: StatusResolved, To: StatusInProgress, Roles: []ActorRole{RoleClient}, Guard: GuardOwner},
}

// LookupTransition finds the edge fired by event from state from.
func LookupTransition(from ComplaintStatus, event Event) (Transition, bool) {
	for _, t := range transitions {
		if t.From == from && t.Event == event {
			return t, true
		}
	}
	return Transition{}, false
}

// Reachable reports whether to can be reached from from by following one or
// more regular edges.
func Reachable(from, to ComplaintStatus) bool {
	seen := map[ComplaintStatus]bool{from: true}
	queue := []ComplaintStatus{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, t := range transitions {
			if t.From == "" || t.From != cur {
				continue
			}
			if t.To == to {
				return true
			}
			if !seen[t.To] {
				seen[t.To] = true
				queue = append(queue, t.To)
			}
		}
	}
	return false
}

// TargetOf returns the status event leads to. Every regular event has
// exactly one target; FORCE has none.
func TargetOf(event Event) ComplaintStatus {
	for _, t := range transitions {
		if t.Event == event {
			return t.To
		}
	}
	return ""
}

// Allows reports whether actor may fire t on complaint c, checking both
// the role list and the actor-relative guard.
func (t Transition) Allows(actor Actor, c *Complaint) bool {
	if !t.Permits(actor.Role) {
		return false
	}
	switch t.Guard {
	case GuardOwner:
		return c.ClientID == actor.ID
	case GuardAssignee:
		return c.IsAssignedTo(actor.ID)
	}
	return true
}

// AllowedEventsFor lists what actor can fire on c right now. Admins can
// always request an override.
func AllowedEventsFor(c *Complaint, actor Actor) []Event {
	out := []Event{}
	for _, t := range transitions {
		if t.From != "" && t.From == c.Status && t.Allows(actor, c) {
			out = append(out, t.Event)
		}
	}
	if actor.Role == RoleAdmin {
		out = append(out, EventForce)
	}
	return out
}
