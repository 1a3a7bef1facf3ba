package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"time"

	investmentDomain "greenbonds/internal/domain/investment"

	"github.com/redis/go-redis/v9"
)

type InvestmentRepository struct {
	s     *Store
	read  redis.Cmdable
	write redis.Cmdable
}

func (s *Store) Investments() *InvestmentRepository {
	return &InvestmentRepository{s: s, read: s.rdb, write: s.rdb}
}

func (r *InvestmentRepository) Create(ctx context.Context, inv *investmentDomain.Investment) error {
	if inv.TransactionID != "" {
		err := r.read.HGet(ctx, r.s.txIndexKey(), inv.TransactionID).Err()
		switch {
		case err == nil:
			return investmentDomain.ErrDuplicateTransaction
		case !errors.Is(err, redis.Nil):
			return err
		}
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(inv)
	if err != nil {
		return err
	}
	w := r.write
	if err := w.HSet(ctx, r.s.investmentsKey(), inv.InvestmentID, data).Err(); err != nil {
		return err
	}
	if inv.TransactionID != "" {
		if err := w.HSet(ctx, r.s.txIndexKey(), inv.TransactionID, inv.InvestmentID).Err(); err != nil {
			return err
		}
	}
	if err := w.SAdd(ctx, r.s.investorIndexKey(inv.InvestorID), inv.InvestmentID).Err(); err != nil {
		return err
	}
	return w.SAdd(ctx, r.s.bondIndexKey(inv.BondID), inv.InvestmentID).Err()
}

func (r *InvestmentRepository) GetByInvestmentID(ctx context.Context, investmentID string) (*investmentDomain.Investment, error) {
	return getJSON[investmentDomain.Investment](ctx, r.read, r.s.investmentsKey(), investmentID, investmentDomain.ErrNotFound)
}

func (r *InvestmentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*investmentDomain.Investment, error) {
	invID, err := r.read.HGet(ctx, r.s.txIndexKey(), transactionID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, investmentDomain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r.GetByInvestmentID(ctx, invID)
}

func (r *InvestmentRepository) ListByInvestorID(ctx context.Context, investorID string) ([]investmentDomain.Investment, error) {
	return r.listIndex(ctx, r.s.investorIndexKey(investorID))
}

func (r *InvestmentRepository) ListByBondID(ctx context.Context, bondID string) ([]investmentDomain.Investment, error) {
	return r.listIndex(ctx, r.s.bondIndexKey(bondID))
}

func (r *InvestmentRepository) listIndex(ctx context.Context, setKey string) ([]investmentDomain.Investment, error) {
	ids, err := r.read.SMembers(ctx, setKey).Result()
	if err != nil {
		return nil, err
	}
	out, err := getManyJSON[investmentDomain.Investment](ctx, r.read, r.s.investmentsKey(), ids)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].PurchaseDate.Equal(out[j].PurchaseDate) {
			return out[i].PurchaseDate.After(out[j].PurchaseDate)
		}
		return out[i].InvestmentID > out[j].InvestmentID
	})
	return out, nil
}
