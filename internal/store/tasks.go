package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cortexchain/chain-machine/internal/chain"
)

// GetTask retrieves a single task record by id. Absent rows map to
// chain.ErrNotFound; every other driver failure wraps
// chain.ErrStoreUnavailable so the caller never confuses the two.
func (s *Store) GetTask(ctx context.Context, taskID string) (*chain.TaskRecord, error) {
	if err := validateID(taskID); err != nil {
		return nil, err
	}

	row := s.db.QueryRow(ctx, `
		SELECT id, created, authority, peers
		FROM tasks WHERE id = $1`, taskID)

	var t chain.TaskRecord
	err := row.Scan(&t.ID, &t.Created, &t.Authority, &t.Peers)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: task %s", chain.ErrNotFound, taskID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get task %s: %v", chain.ErrStoreUnavailable, taskID, err)
	}

	if t.Authority == "" {
		return nil, fmt.Errorf("%w: task %s has no authority address", chain.ErrMalformedRecord, taskID)
	}
	if t.Peers == nil {
		t.Peers = []string{}
	}
	return &t, nil
}
