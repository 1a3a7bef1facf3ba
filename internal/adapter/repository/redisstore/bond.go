package redisstore

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	bondDomain "greenbonds/internal/domain/bond"

	"github.com/redis/go-redis/v9"
)

// BondRepository reads through read and writes through write; inside a unit
// of work write is the queued MULTI pipeline, so writes are not visible to
// reads made in the same unit.
type BondRepository struct {
	s     *Store
	read  redis.Cmdable
	write redis.Cmdable
}

func (s *Store) Bonds() *BondRepository {
	return &BondRepository{s: s, read: s.rdb, write: s.rdb}
}

func (r *BondRepository) put(ctx context.Context, b *bondDomain.Bond) error {
	if err := b.CheckInvariant(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return r.write.HSet(ctx, r.s.bondsKey(), b.BondID, data).Err()
}

func (r *BondRepository) Create(ctx context.Context, b *bondDomain.Bond) error {
	return r.put(ctx, b)
}

func (r *BondRepository) Save(ctx context.Context, b *bondDomain.Bond) error {
	return r.put(ctx, b)
}

func (r *BondRepository) GetByBondID(ctx context.Context, bondID string) (*bondDomain.Bond, error) {
	return getJSON[bondDomain.Bond](ctx, r.read, r.s.bondsKey(), bondID, bondDomain.ErrNotFound)
}

// GetByBondIDForUpdate is a plain read; the unit of work WATCHes the bonds hash.
func (r *BondRepository) GetByBondIDForUpdate(ctx context.Context, bondID string) (*bondDomain.Bond, error) {
	return r.GetByBondID(ctx, bondID)
}

func (r *BondRepository) List(ctx context.Context) ([]bondDomain.Bond, error) {
	out, err := allJSON[bondDomain.Bond](ctx, r.read, r.s.bondsKey())
	if err != nil {
		return nil, err
	}
	sortBonds(out)
	return out, nil
}

func (r *BondRepository) ListByIssuerID(ctx context.Context, issuerID string) ([]bondDomain.Bond, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, b := range all {
		if b.IssuerID == issuerID {
			out = append(out, b)
		}
	}
	return out, nil
}

func sortBonds(bs []bondDomain.Bond) {
	sort.SliceStable(bs, func(i, j int) bool {
		if !bs[i].CreatedAt.Equal(bs[j].CreatedAt) {
			return bs[i].CreatedAt.Before(bs[j].CreatedAt)
		}
		return bs[i].BondID < bs[j].BondID
	})
}
