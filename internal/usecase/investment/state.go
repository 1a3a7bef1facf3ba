package investment

type State string

const (
	StateIdle            State = "idle"
	StateValidating      State = "validating"
	StateAwaitingOrder   State = "awaiting_order"
	StateAwaitingPayment State = "awaiting_payment"
	StateVerifying       State = "verifying"
	StateCommitted       State = "committed"
	StateFailed          State = "failed"
)

var allowedTransitions = map[State][]State{
	StateIdle:            {StateValidating},
	StateValidating:      {StateAwaitingOrder, StateFailed},
	StateAwaitingOrder:   {StateAwaitingPayment, StateFailed},
	StateAwaitingPayment: {StateVerifying, StateFailed},
	StateVerifying:       {StateCommitted, StateFailed},
	StateCommitted:       {},
	StateFailed:          {},
}

// CanTransition checks if an attempt may move from one state to another.
func CanTransition(from, to State) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s State) Terminal() bool { return s == StateCommitted || s == StateFailed }
