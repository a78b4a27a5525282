package chain

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Resolver composes persisted records with live directory lookups. It
// holds no per-request state: both dependencies are process-wide
// handles injected once at startup.
type Resolver struct {
	store     RecordStore
	directory Directory
	logger    *zap.Logger
}

// NewResolver creates a Resolver over the given store and directory.
func NewResolver(store RecordStore, directory Directory, logger *zap.Logger) *Resolver {
	return &Resolver{
		store:     store,
		directory: directory,
		logger:    logger,
	}
}

// ResolveTask fetches the task record for taskID, resolves the address
// subset the role is entitled to, and assembles the combined result.
//
// Worker gets the first live route of the task's authority address;
// authority gets every live route of the task's peers, in directory
// order. A downstream failure discards the whole request: no partial
// result is ever returned.
func (r *Resolver) ResolveTask(ctx context.Context, taskID string, role Role) (*ResolutionResult, error) {
	if taskID == "" {
		return nil, fmt.Errorf("%w: task_id", ErrValidation)
	}

	task, err := r.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	result := &ResolutionResult{
		TaskID:  taskID,
		Created: task.Created,
		Stage:   0,
	}

	switch role {
	case RoleWorker:
		routes, err := r.directory.Resolve(ctx, []string{task.Authority})
		if err != nil {
			r.logger.Error("authority route resolution failed",
				zap.String("task_id", taskID), zap.Error(err))
			return nil, err
		}
		// First route wins; an authority address with no live routes
		// leaves the field absent rather than failing the request.
		if len(routes) > 0 {
			result.Route = routes[0]
		}
	case RoleAuthority:
		routes, err := r.directory.Resolve(ctx, task.Peers)
		if err != nil {
			r.logger.Error("peer route resolution failed",
				zap.String("task_id", taskID), zap.Error(err))
			return nil, err
		}
		if routes == nil {
			routes = []RouteDescriptor{}
		}
		result.Route = routes
	default:
		r.logger.Error("unknown role", zap.String("task_id", taskID))
		return nil, ErrInvalidRole
	}

	return result, nil
}

// ResolveSignature projects the account record for accountID. It has
// no directory dependency; the store lookup is the whole operation.
func (r *Resolver) ResolveSignature(ctx context.Context, accountID string) (*SignatureResult, error) {
	if accountID == "" {
		return nil, fmt.Errorf("%w: account_id", ErrValidation)
	}

	account, err := r.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &SignatureResult{
		AccountID: accountID,
		Created:   account.Created,
		Updated:   account.Updated,
		Signature: account.Signature,
	}, nil
}
