package redisstore

import (
	"context"
	"errors"
	"fmt"

	"greenbonds/internal/domain/bond"
	"greenbonds/internal/domain/uow"

	"github.com/redis/go-redis/v9"
)

var ErrTxConflict = errors.New("redisstore: too many concurrent updates")

func (s *Store) reposFor(read, write redis.Cmdable) uow.Repos {
	return uow.Repos{
		Bonds:       &BondRepository{s: s, read: read, write: write},
		Investments: &InvestmentRepository{s: s, read: read, write: write},
		Users:       &UserRepository{s: s, read: read, write: write},
		Impact:      &ImpactRepository{s: s, read: read, write: write},
	}
}

// Repos returns repositories bound to the plain client.
func (s *Store) Repos() uow.Repos { return s.reposFor(s.rdb, s.rdb) }

// WithinTx WATCHes every collection, lets fn read through the watched
// connection and queue its writes, then applies them in one MULTI/EXEC.
// A concurrent write to any collection aborts EXEC and fn is run again.
func (s *Store) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return s.watch(ctx, func(tx *redis.Tx) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return fn(s.reposFor(tx, pipe))
		})
		return err
	})
}

func (s *Store) WithinBondTx(ctx context.Context, bondID string, fn func(r uow.Repos, b *bond.Bond) error) error {
	return s.watch(ctx, func(tx *redis.Tx) error {
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			r := s.reposFor(tx, pipe)
			b, err := r.Bonds.GetByBondIDForUpdate(ctx, bondID)
			if err != nil {
				return err
			}
			return fn(r, b)
		})
		return err
	})
}

func (s *Store) watch(ctx context.Context, fn func(tx *redis.Tx) error) error {
	for i := 0; i < s.maxRetries; i++ {
		err := s.rdb.Watch(ctx, fn, s.collectionKeys()...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w after %d attempts", ErrTxConflict, s.maxRetries)
}

var (
	_ uow.UnitOfWork  = (*Store)(nil)
	_ bond.Repository = (*BondRepository)(nil)
)
