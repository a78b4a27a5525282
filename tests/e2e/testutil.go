package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	tcpg "github.com/testcontainers/testcontainers-go/modules/postgres"
	"go.uber.org/zap"

	"github.com/cortexchain/chain-machine/internal/chain"
)

// Package-level shared state — set by TestMain, used by all subtests.
var (
	testLogger *zap.Logger
	testDSN    string
	testSeed   *pgxpool.Pool
)

// startPostgres starts a PostgreSQL testcontainer, returns DSN + cleanup func.
func startPostgres(ctx context.Context) (string, func(), error) {
	container, err := tcpg.Run(ctx, "postgres:16-alpine",
		tcpg.WithDatabase("cortex_chain_test"),
		tcpg.WithUsername("test"),
		tcpg.WithPassword("test"),
		tcpg.BasicWaitStrategies(),
	)
	if err != nil {
		return "", nil, fmt.Errorf("start postgres: %w", err)
	}
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return "", nil, fmt.Errorf("pg connection string: %w", err)
	}
	cleanup := func() { container.Terminate(ctx) }
	return dsn, cleanup, nil
}

// seedTask inserts a task row, replacing any previous one with the same id.
func seedTask(ctx context.Context, id string, created string, authority string, peers []string) error {
	_, err := testSeed.Exec(ctx, `
		INSERT INTO tasks (id, created, authority, peers)
		VALUES ($1, $2::timestamptz, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			created = EXCLUDED.created,
			authority = EXCLUDED.authority,
			peers = EXCLUDED.peers`,
		id, created, authority, peers)
	return err
}

// seedAccount inserts an account row, replacing any previous one.
func seedAccount(ctx context.Context, id string, created, updated, signature string) error {
	_, err := testSeed.Exec(ctx, `
		INSERT INTO accounts (id, created, updated, signature)
		VALUES ($1, $2::timestamptz, $3::timestamptz, $4)
		ON CONFLICT (id) DO UPDATE SET
			created = EXCLUDED.created,
			updated = EXCLUDED.updated,
			signature = EXCLUDED.signature`,
		id, created, updated, signature)
	return err
}

// stubDirectory is an httptest stand-in for the routing directory. It
// replays a fixed route set and counts queries.
type stubDirectory struct {
	mu     sync.Mutex
	routes []chain.RouteDescriptor
	broken bool
	calls  int
	srv    *httptest.Server
}

func newStubDirectory(routes []chain.RouteDescriptor) *stubDirectory {
	d := &stubDirectory{routes: routes}
	d.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d.mu.Lock()
		d.calls++
		broken := d.broken
		current := d.routes
		d.mu.Unlock()

		if broken {
			http.Error(w, "directory down", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": current})
	}))
	return d
}

func (d *stubDirectory) URL() string { return d.srv.URL }

func (d *stubDirectory) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

func (d *stubDirectory) SetBroken(broken bool) {
	d.mu.Lock()
	d.broken = broken
	d.mu.Unlock()
}

func (d *stubDirectory) Close() { d.srv.Close() }
