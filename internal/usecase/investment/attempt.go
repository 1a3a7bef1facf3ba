package investment

import (
	"sync"
	"time"

	"greenbonds/internal/domain/bond"
	"greenbonds/internal/domain/investment"
	domainPayment "greenbonds/internal/domain/payment"
	"greenbonds/internal/domain/user"
	"greenbonds/pkg/id"
)

type SubmitInput struct {
	Bond *bond.Bond
	// Amount is the text the investor typed.
	Amount   string
	Investor *user.User
}

// Receipt is what a committed attempt hands back for display.
type Receipt struct {
	Bond       *bond.Bond
	Investment *investment.Investment
	Message    string
	// Replayed is set when the payment had already been recorded.
	Replayed bool
}

// Attempt is one pass through the flow. It is safe to snapshot from other
// goroutines while Submit drives it.
type Attempt struct {
	ID string
	in SubmitInput

	mu        sync.Mutex
	state     State
	amount    float64
	checkout  *domainPayment.Checkout
	receipt   *Receipt
	err       error
	createdAt time.Time
	updatedAt time.Time

	doneOnce sync.Once
	done     chan struct{}
}

func NewAttempt(in SubmitInput) *Attempt {
	now := time.Now().UTC()
	return &Attempt{
		ID:        id.NewID32(),
		in:        in,
		state:     StateIdle,
		createdAt: now,
		updatedAt: now,
		done:      make(chan struct{}),
	}
}

func (a *Attempt) transition(to State) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !CanTransition(a.state, to) {
		return ErrInvalidTransition
	}
	a.state = to
	a.updatedAt = time.Now().UTC()
	return nil
}

func (a *Attempt) setAmount(v float64) {
	a.mu.Lock()
	a.amount = v
	a.mu.Unlock()
}

func (a *Attempt) setCheckout(c *domainPayment.Checkout) {
	a.mu.Lock()
	a.checkout = c
	a.mu.Unlock()
}

// finish moves a running attempt to its terminal state and releases waiters.
func (a *Attempt) finish(rec *Receipt, err error) {
	a.mu.Lock()
	if a.state.Terminal() || a.state == StateIdle {
		a.mu.Unlock()
		return
	}
	if err != nil {
		a.state = StateFailed
		a.err = err
	} else {
		a.state = StateCommitted
		a.receipt = rec
	}
	a.updatedAt = time.Now().UTC()
	a.mu.Unlock()
	a.doneOnce.Do(func() { close(a.done) })
}

func (a *Attempt) Done() <-chan struct{} { return a.done }

func (a *Attempt) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Attempt) Result() (*Receipt, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.receipt, a.err
}

// investorFor returns the investor paying for orderID through this attempt.
func (a *Attempt) investorFor(orderID string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.checkout == nil || a.checkout.Order.ID != orderID || a.in.Investor == nil {
		return "", false
	}
	return a.in.Investor.UserID, true
}

func (a *Attempt) finishedBefore(t time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Terminal() && a.updatedAt.Before(t)
}

// AttemptView is the JSON snapshot of an attempt.
type AttemptView struct {
	ID         string                  `json:"id"`
	BondID     string                  `json:"bondId"`
	InvestorID string                  `json:"investorId,omitempty"`
	Amount     float64                 `json:"amount,omitempty"`
	State      State                   `json:"state"`
	Checkout   *domainPayment.Checkout `json:"checkout,omitempty"`
	Message    string                  `json:"message,omitempty"`
	ErrorKind  string                  `json:"errorKind,omitempty"`
	Investment *investment.Investment  `json:"investment,omitempty"`
	Bond       *bond.Bond              `json:"bond,omitempty"`
	CreatedAt  time.Time               `json:"createdAt"`
	UpdatedAt  time.Time               `json:"updatedAt"`
}

func (a *Attempt) Snapshot() AttemptView {
	a.mu.Lock()
	defer a.mu.Unlock()
	v := AttemptView{
		ID:        a.ID,
		Amount:    a.amount,
		State:     a.state,
		CreatedAt: a.createdAt,
		UpdatedAt: a.updatedAt,
	}
	if a.in.Bond != nil {
		v.BondID = a.in.Bond.BondID
	}
	if a.in.Investor != nil {
		v.InvestorID = a.in.Investor.UserID
	}
	if a.checkout != nil && !a.state.Terminal() {
		co := *a.checkout
		v.Checkout = &co
	}
	if a.receipt != nil {
		v.Message = a.receipt.Message
		v.Investment = a.receipt.Investment
		v.Bond = a.receipt.Bond
	}
	if a.err != nil {
		v.Message = UserMessage(a.err)
		v.ErrorKind = Kind(a.err)
	}
	return v
}
