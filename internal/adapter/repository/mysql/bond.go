package mysql

import (
	"context"

	bondDomain "greenbonds/internal/domain/bond"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BondRepository struct{ db *gorm.DB }

func NewBondRepository(db *gorm.DB) *BondRepository { return &BondRepository{db: db} }

func (r *BondRepository) Create(ctx context.Context, b *bondDomain.Bond) error {
	if err := b.CheckInvariant(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BondRepository) Save(ctx context.Context, b *bondDomain.Bond) error {
	if err := b.CheckInvariant(); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(b).Error
}

func (r *BondRepository) GetByBondID(ctx context.Context, bondID string) (*bondDomain.Bond, error) {
	var out bondDomain.Bond
	if err := r.db.WithContext(ctx).Where("bond_id = ?", bondID).First(&out).Error; err != nil {
		return nil, notFound(err, bondDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *BondRepository) GetByBondIDForUpdate(ctx context.Context, bondID string) (*bondDomain.Bond, error) {
	var out bondDomain.Bond
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("bond_id = ?", bondID).
		First(&out).Error
	if err != nil {
		return nil, notFound(err, bondDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *BondRepository) List(ctx context.Context) ([]bondDomain.Bond, error) {
	var out []bondDomain.Bond
	err := r.db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}

func (r *BondRepository) ListByIssuerID(ctx context.Context, issuerID string) ([]bondDomain.Bond, error) {
	var out []bondDomain.Bond
	err := r.db.WithContext(ctx).Where("issuer_id = ?", issuerID).Order("id ASC").Find(&out).Error
	return out, err
}
