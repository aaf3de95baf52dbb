package db

import (
	"context"
	"errors"
	"testing"

	"salesflow_backend/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	pgx.Tx
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeBeginner struct {
	tx    *fakeTx
	err   error
	calls int
}

func (b *fakeBeginner) Begin(context.Context) (pgx.Tx, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestWithinTxCommitsAndJoinsActiveTx(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	m := &TxManager{pool: b}

	err := m.WithinTx(context.Background(), func(ctx context.Context) error {
		assert.True(t, InTx(ctx))
		return m.WithinTx(ctx, func(context.Context) error { return nil })
	})
	require.NoError(t, err)
	assert.Equal(t, 1, b.calls)
	assert.True(t, b.tx.committed)
}

func TestWithinTxPassesThroughCallbackErrors(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	m := &TxManager{pool: b}

	err := m.WithinTx(context.Background(), func(context.Context) error {
		return apperr.Validation("unknown stage")
	})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.True(t, b.tx.rolledBack)
	assert.False(t, b.tx.committed)
}

func TestWithinTxReportsBeginAndCommitAsUnavailable(t *testing.T) {
	cause := errors.New("connection refused")

	err := (&TxManager{pool: &fakeBeginner{err: cause}}).WithinTx(context.Background(), func(context.Context) error {
		t.Fatal("callback must not run without a transaction")
		return nil
	})
	assert.True(t, apperr.Is(err, apperr.KindUnavailable))
	assert.ErrorIs(t, err, cause)

	err = (&TxManager{pool: &fakeBeginner{tx: &fakeTx{commitErr: cause}}}).WithinTx(context.Background(), func(context.Context) error {
		return nil
	})
	assert.True(t, apperr.Is(err, apperr.KindUnavailable))
	assert.ErrorIs(t, err, cause)
}
