package investment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"greenbonds/internal/domain/bond"
	"greenbonds/internal/domain/investment"
	domainPayment "greenbonds/internal/domain/payment"
	"greenbonds/internal/domain/uow"
	"greenbonds/internal/domain/user"
	"greenbonds/pkg/id"
	"greenbonds/pkg/money"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Gateway is the payment backend as seen by the flow.
type Gateway interface {
	CreateOrder(ctx context.Context, amount float64, currency string) (*domainPayment.Checkout, error)
	VerifyPayment(ctx context.Context, r domainPayment.Result) error
}

type Params struct {
	FeeRate      float64
	HorizonYears int
	Currency     string
}

func DefaultParams() Params {
	return Params{FeeRate: 0.005, HorizonYears: 5, Currency: "INR"}
}

type Usecase struct {
	tx       uow.UnitOfWork
	gw       Gateway
	checkout domainPayment.Opener
	p        Params
	log      *zap.Logger
	now      func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, gw Gateway, co domainPayment.Opener, p Params, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	d := DefaultParams()
	if p.FeeRate <= 0 {
		p.FeeRate = d.FeeRate
	}
	if p.HorizonYears <= 0 {
		p.HorizonYears = d.HorizonYears
	}
	if p.Currency == "" {
		p.Currency = d.Currency
	}
	return &Usecase{tx: tx, gw: gw, checkout: co, p: p, log: log, now: func() time.Time { return time.Now().UTC() }}
}

func (u *Usecase) Params() Params { return u.p }

func (u *Usecase) currency(b *bond.Bond) string {
	if b != nil && b.Currency != "" {
		return b.Currency
	}
	return u.p.Currency
}

// Validate parses the typed amount and checks it against the bond. It does no I/O.
// Only plain decimal text is an amount: trailing garbage, hex floats, NaN and
// Inf are all invalid rather than read as a prefix.
func (u *Usecase) Validate(b *bond.Bond, raw string, investor *user.User) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !d.IsPositive() {
		return 0, &ValidationError{Reason: ReasonInvalidAmount, Message: MsgInvalidAmount}
	}
	amount := d.InexactFloat64()
	if b == nil {
		return 0, bond.ErrNotFound
	}
	cur := u.currency(b)
	if amount < b.MinimumInvestment {
		return 0, &ValidationError{Reason: ReasonBelowMinimum, Message: "Minimum investment is " + money.Format(b.MinimumInvestment, cur)}
	}
	if remaining := b.Remaining(); amount > remaining {
		return 0, &ValidationError{Reason: ReasonAboveRemaining, Message: "Maximum available investment is " + money.Format(remaining, cur)}
	}
	if investor == nil {
		return 0, &ValidationError{Reason: ReasonNotSignedIn, Message: MsgNotSignedIn}
	}
	return amount, nil
}

// SubmitInvestment runs a fresh attempt to completion.
func (u *Usecase) SubmitInvestment(ctx context.Context, b *bond.Bond, amount string, investor *user.User) (*Receipt, error) {
	return u.Submit(ctx, NewAttempt(SubmitInput{Bond: b, Amount: amount, Investor: investor}))
}

// Submit drives the attempt through validation, order, checkout, verification
// and commit. Nothing is written before the payment is verified.
func (u *Usecase) Submit(ctx context.Context, a *Attempt) (*Receipt, error) {
	if err := a.transition(StateValidating); err != nil {
		return nil, err
	}
	rec, err := u.run(ctx, a)
	a.finish(rec, err)
	return rec, err
}

func (u *Usecase) run(ctx context.Context, a *Attempt) (*Receipt, error) {
	b, investor := a.in.Bond, a.in.Investor
	amount, err := u.Validate(b, a.in.Amount, investor)
	if err != nil {
		return nil, err
	}
	a.setAmount(amount)

	if err := a.transition(StateAwaitingOrder); err != nil {
		return nil, err
	}
	co, err := u.gw.CreateOrder(ctx, amount, u.currency(b))
	if err != nil {
		return nil, orderError(err)
	}
	a.setCheckout(co)

	if err := a.transition(StateAwaitingPayment); err != nil {
		return nil, err
	}
	res, err := domainPayment.Await(ctx, u.checkout, co.Order, co.Key)
	if err != nil {
		return nil, paymentError(err)
	}

	if err := a.transition(StateVerifying); err != nil {
		return nil, err
	}
	if err := u.gw.VerifyPayment(ctx, res); err != nil {
		u.log.Warn("payment verification rejected",
			zap.String("attempt_id", a.ID),
			zap.String("order_id", res.OrderID),
			zap.String("payment_id", res.PaymentID),
			zap.Error(err))
		return nil, &VerificationError{Cause: err}
	}

	// verified money must land even if the caller went away
	rec, err := u.commit(context.WithoutCancel(ctx), b, investor, amount, res)
	if err != nil {
		u.log.Error("investment commit failed after verified payment",
			zap.String("attempt_id", a.ID),
			zap.String("bond_id", b.BondID),
			zap.String("payment_id", res.PaymentID),
			zap.Float64("amount", amount),
			zap.Error(err))
		return nil, &CommitError{PaymentID: res.PaymentID, Cause: err}
	}
	return rec, nil
}

func orderError(err error) error {
	if errors.Is(err, domainPayment.ErrNetwork) {
		return &NetworkError{Cause: &OrderCreationError{Message: MsgNetwork, Cause: err}}
	}
	var re *domainPayment.RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return &OrderCreationError{Message: re.Message, Cause: err}
	}
	return &OrderCreationError{Message: err.Error(), Cause: err}
}

func paymentError(err error) error {
	var f domainPayment.Failure
	if errors.As(err, &f) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &PaymentFailedError{Message: MsgPaymentFailed, Cause: err}
	}
	return &PaymentFailedError{Message: err.Error(), Cause: err}
}

// commit appends the investment and raises the bond in one unit of work. A
// payment id that is already recorded returns the stored investment instead.
func (u *Usecase) commit(ctx context.Context, b *bond.Bond, investor *user.User, amount float64, res domainPayment.Result) (*Receipt, error) {
	var (
		out     *investment.Investment
		updated *bond.Bond
		replay  bool
	)
	err := u.tx.WithinBondTx(ctx, b.BondID, func(r uow.Repos, locked *bond.Bond) error {
		existing, err := r.Investments.GetByTransactionID(ctx, res.PaymentID)
		switch {
		case err == nil:
			out, updated, replay = existing, locked, true
			return nil
		case !errors.Is(err, investment.ErrNotFound):
			return err
		}

		terms := investment.Quote(amount, locked.CouponRate, u.p.FeeRate, u.p.HorizonYears)
		inv := &investment.Investment{
			InvestmentID:     id.NewID32(),
			InvestorID:       investor.UserID,
			BondID:           locked.BondID,
			InvestmentAmount: amount,
			PurchasePrice:    locked.FaceValue,
			PurchaseDate:     u.now(),
			Status:           investment.StatusConfirmed,
			TransactionID:    res.PaymentID,
			Fees:             terms.Fees,
			ExpectedReturn:   terms.MaturityValue,
			MaturityValue:    terms.MaturityValue,
		}
		if err := r.Investments.Create(ctx, inv); err != nil {
			return err
		}
		if err := locked.Raise(amount); err != nil {
			return err
		}
		if err := r.Bonds.Save(ctx, locked); err != nil {
			return err
		}
		out, updated = inv, locked
		return nil
	})
	if errors.Is(err, investment.ErrDuplicateTransaction) {
		// lost a race with another commit of the same payment
		return u.replay(ctx, b.BondID, res.PaymentID)
	}
	if err != nil {
		return nil, err
	}
	return u.receipt(updated, out, replay), nil
}

func (u *Usecase) replay(ctx context.Context, bondID, paymentID string) (*Receipt, error) {
	var rec *Receipt
	err := u.tx.WithinTx(ctx, func(r uow.Repos) error {
		inv, err := r.Investments.GetByTransactionID(ctx, paymentID)
		if err != nil {
			return err
		}
		b, err := r.Bonds.GetByBondID(ctx, bondID)
		if err != nil {
			return err
		}
		rec = u.receipt(b, inv, true)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load recorded payment %s: %w", paymentID, err)
	}
	return rec, nil
}

func (u *Usecase) receipt(b *bond.Bond, inv *investment.Investment, replay bool) *Receipt {
	return &Receipt{
		Bond:       b,
		Investment: inv,
		Message:    fmt.Sprintf("Investment of %s confirmed! Transaction ID: %s", money.Format(inv.InvestmentAmount, u.currency(b)), inv.TransactionID),
		Replayed:   replay,
	}
}
