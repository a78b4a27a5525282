package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cortexchain/chain-machine/internal/chain"
)

// GetAccount retrieves a single account record by id. Error mapping
// matches GetTask: ErrNotFound for absent rows, ErrStoreUnavailable
// for everything else.
func (s *Store) GetAccount(ctx context.Context, accountID string) (*chain.AccountRecord, error) {
	if err := validateID(accountID); err != nil {
		return nil, err
	}

	row := s.db.QueryRow(ctx, `
		SELECT id, created, updated, signature
		FROM accounts WHERE id = $1`, accountID)

	var a chain.AccountRecord
	err := row.Scan(&a.ID, &a.Created, &a.Updated, &a.Signature)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: account %s", chain.ErrNotFound, accountID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get account %s: %v", chain.ErrStoreUnavailable, accountID, err)
	}
	return &a, nil
}
