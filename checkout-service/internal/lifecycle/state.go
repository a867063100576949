package lifecycle

import (
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StateNoOrder        State = "no_order"
	StateCreating       State = "creating"
	StatePendingPayment State = "pending_payment"
	StatePaying         State = "paying"
	StatePaid           State = "paid"
	StateFailed         State = "failed"
)

// transitions is the full set of legal moves. Failed leads back to Creating
// because every retry mints a new order.
var transitions = map[State][]State{
	StateNoOrder:        {StateCreating},
	StateCreating:       {StatePendingPayment, StateNoOrder},
	StatePendingPayment: {StatePaying, StateFailed},
	StatePaying:         {StatePaid, StateFailed},
	StateFailed:         {StateCreating},
	StatePaid:           {},
}

func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transitions lists the legal targets from a state.
func Transitions(from State) []State {
	out := make([]State, len(transitions[from]))
	copy(out, transitions[from])
	return out
}

func (s State) IsTerminal() bool {
	return s == StatePaid
}

// InFlight reports whether an attempt is between creation and settlement.
func (s State) InFlight() bool {
	return s == StateCreating || s == StatePendingPayment || s == StatePaying
}

type Transition struct {
	From          State     `json:"from"`
	To            State     `json:"to"`
	CorrelationID uuid.UUID `json:"correlation_id"`
	Reason        string    `json:"reason,omitempty"`
	At            time.Time `json:"at"`
}
