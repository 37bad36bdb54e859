package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

// fakeTx records commit/rollback calls. Every other pgx.Tx method panics via
// the nil embedded interface, which is fine because runInTx never calls them.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (f *fakeTx) Commit(ctx context.Context) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	if f.committed {
		return pgx.ErrTxClosed
	}
	f.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx       *fakeTx
	opts     pgx.TxOptions
	calls    int
	beginErr error
}

func (f *fakeBeginner) BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	f.calls++
	f.opts = opts
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return f.tx, nil
}

func TestWithTx_Commits(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}

	var inner pgx.Tx
	err := WithTx(context.Background(), b, func(ctx context.Context) error {
		inner = TxFromContext(ctx)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner != b.tx {
		t.Error("expected fn to see the transaction in its context")
	}
	if !b.tx.committed {
		t.Error("expected commit")
	}
	if b.tx.rolledBack {
		t.Error("expected no rollback after commit")
	}
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	boom := errors.New("boom")

	err := WithTx(context.Background(), b, func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if b.tx.committed {
		t.Error("expected no commit")
	}
	if !b.tx.rolledBack {
		t.Error("expected rollback")
	}
}

func TestWithTx_NoConnection(t *testing.T) {
	err := WithTx(context.Background(), nil, func(ctx context.Context) error { return nil })
	if err == nil {
		t.Error("expected error when no connection is available")
	}
}

func TestWithTx_BeginError(t *testing.T) {
	b := &fakeBeginner{beginErr: errors.New("refused")}
	err := WithTx(context.Background(), b, func(ctx context.Context) error {
		t.Error("fn must not run when begin fails")
		return nil
	})
	if err == nil {
		t.Error("expected begin error")
	}
}

func TestWithTx_JoinsExisting(t *testing.T) {
	outer := &fakeTx{}
	ctx := ContextWithTx(context.Background(), outer)
	b := &fakeBeginner{tx: &fakeTx{}}

	err := WithTx(ctx, b, func(ctx context.Context) error {
		if TxFromContext(ctx) != outer {
			t.Error("expected the outer transaction")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.calls != 0 {
		t.Errorf("expected no new transaction, got %d", b.calls)
	}
	if outer.committed {
		t.Error("nested call must not commit the outer transaction")
	}
}

func TestWithReadTx_Options(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	if err := WithReadTx(context.Background(), b, func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.opts.AccessMode != pgx.ReadOnly {
		t.Errorf("expected read only, got %q", b.opts.AccessMode)
	}
	if b.opts.IsoLevel != pgx.RepeatableRead {
		t.Errorf("expected repeatable read, got %q", b.opts.IsoLevel)
	}
}

func TestConn_FallsBackWithoutTx(t *testing.T) {
	if got := Conn(context.Background(), nil); got != nil {
		t.Errorf("expected fallback, got %v", got)
	}

	tx := &fakeTx{}
	if got := Conn(ContextWithTx(context.Background(), tx), nil); got != tx {
		t.Error("expected transaction from context")
	}
}
