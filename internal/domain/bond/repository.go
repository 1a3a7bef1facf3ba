package bond

import "context"

type Repository interface {
	Create(ctx context.Context, b *Bond) error
	Save(ctx context.Context, b *Bond) error
	GetByBondID(ctx context.Context, bondID string) (*Bond, error)
	// GetByBondIDForUpdate locks the row for the rest of the enclosing transaction.
	GetByBondIDForUpdate(ctx context.Context, bondID string) (*Bond, error)
	List(ctx context.Context) ([]Bond, error)
	ListByIssuerID(ctx context.Context, issuerID string) ([]Bond, error)
}
