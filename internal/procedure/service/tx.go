package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	id "tramite/pkg/domain"
	dErrors "tramite/pkg/domain-errors"
	"tramite/pkg/platform/tx"
)

// ProcedureTx provides the transactional boundary for procedure mutations.
// Implementations wrap a database transaction or, in-memory, a lock.
type ProcedureTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// numProcedureShards spreads in-memory transactions over independent locks
// keyed by procedure, so transitions on different procedures never contend.
const numProcedureShards = 64

// defaultProcedureTxTimeout is the maximum duration for a procedure transaction.
const defaultProcedureTxTimeout = 5 * time.Second

type shardedTx struct {
	shards  [numProcedureShards]sync.Mutex
	timeout time.Duration
}

// NewShardedTx serializes transactions per procedure in process memory.
// Writes are not rolled back; callers validate before the first write.
func NewShardedTx() ProcedureTx {
	return &shardedTx{timeout: defaultProcedureTxTimeout}
}

func (t *shardedTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel, err := bound(ctx, t.timeout)
	if err != nil {
		return err
	}
	defer cancel()

	shard := selectShard(ctx)
	t.shards[shard].Lock()
	defer t.shards[shard].Unlock()

	// Check again after acquiring lock
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}

type postgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgresTx runs each transaction in a database transaction carried by ctx.
func NewPostgresTx(db *sql.DB) ProcedureTx {
	return &postgresTx{db: db, timeout: defaultProcedureTxTimeout}
}

func (t *postgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel, err := bound(ctx, t.timeout)
	if err != nil {
		return err
	}
	defer cancel()
	return tx.Run(ctx, t.db, nil, fn)
}

// bound rejects cancelled contexts and applies timeout when ctx has no deadline.
func bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if err := ctx.Err(); err != nil {
		return ctx, func() {}, dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, cancel, nil
}

type txProcedureKey struct{}

var txProcedureKeyCtx = txProcedureKey{}

// withProcedureLock names the procedure a transaction is about to touch.
func withProcedureLock(ctx context.Context, procedureID id.ProcedureID) context.Context {
	return context.WithValue(ctx, txProcedureKeyCtx, procedureID)
}

// selectShard picks a shard from the procedure in ctx, or shard 0.
func selectShard(ctx context.Context) int {
	if pid, ok := ctx.Value(txProcedureKeyCtx).(id.ProcedureID); ok && pid > 0 {
		return int(uint64(pid) % numProcedureShards)
	}
	return 0
}
