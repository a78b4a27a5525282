package chain

import (
	"context"
	"time"
)

// Role identifies the caller's perspective on a task. A worker asks for
// its authority's route; an authority asks for the routes of its peers.
type Role uint8

const (
	RoleUnknown Role = iota
	RoleWorker
	RoleAuthority
)

// ParseRole maps the wire value to a Role. Anything outside the
// recognized set is ErrInvalidRole: role comes from internal callers,
// so an unknown value is a fault, not user input to be corrected.
func ParseRole(s string) (Role, error) {
	switch s {
	case "worker":
		return RoleWorker, nil
	case "authority":
		return RoleAuthority, nil
	default:
		return RoleUnknown, ErrInvalidRole
	}
}

func (r Role) String() string {
	switch r {
	case RoleWorker:
		return "worker"
	case RoleAuthority:
		return "authority"
	default:
		return "unknown"
	}
}

// TaskRecord is a persisted task authorization record. It is created
// and mutated by the provisioning pipeline; this service only reads it.
type TaskRecord struct {
	ID        string
	Created   time.Time
	Authority string
	// Peers is never nil; a task without peers has an empty slice so
	// authority-role resolution stays well-defined.
	Peers []string
}

// AccountRecord is a persisted account credential record.
type AccountRecord struct {
	ID        string
	Created   time.Time
	Updated   time.Time
	Signature string
}

// RouteDescriptor is one live route reported by the directory.
type RouteDescriptor struct {
	PeerID  string `json:"peer_id"`
	Address string `json:"address"`
}

// ResolutionResult is the assembled answer for a task query.
//
// Route mirrors the wire format: a single RouteDescriptor for role
// worker, a []RouteDescriptor for role authority, and nil (field
// omitted) when a worker's authority address resolved to nothing.
type ResolutionResult struct {
	TaskID  string    `json:"task_id"`
	Created time.Time `json:"created"`
	Stage   int       `json:"stage"`
	Route   any       `json:"route,omitempty"`
}

// SignatureResult projects an account record for a signature query.
type SignatureResult struct {
	AccountID string    `json:"account_id"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
	Signature string    `json:"signature"`
}

// RecordStore is the persisted-record lookup the resolver depends on.
// Implementations report ErrNotFound for absent records,
// ErrInvalidIdentifier for malformed ids, and wrap ErrStoreUnavailable
// when the store itself cannot be reached.
type RecordStore interface {
	GetTask(ctx context.Context, taskID string) (*TaskRecord, error)
	GetAccount(ctx context.Context, accountID string) (*AccountRecord, error)
}

// Directory resolves addresses to their currently-live routes. An empty
// result is a valid outcome; failures wrap ErrDirectoryUnavailable.
// Order and cardinality of the result are the directory's to decide.
type Directory interface {
	Resolve(ctx context.Context, addresses []string) ([]RouteDescriptor, error)
}
