package investment

import "context"

type Repository interface {
	Create(ctx context.Context, inv *Investment) error
	GetByInvestmentID(ctx context.Context, investmentID string) (*Investment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*Investment, error)
	ListByInvestorID(ctx context.Context, investorID string) ([]Investment, error)
	ListByBondID(ctx context.Context, bondID string) ([]Investment, error)
}
