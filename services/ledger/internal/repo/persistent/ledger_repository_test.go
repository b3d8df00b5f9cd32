package persistent

import (
	"context"
	"strings"
	"testing"

	"tiktip/services/ledger/internal/entity"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A nil db panics if any of these reach a statement.

func TestMalformedIDsAreNotFound(t *testing.T) {
	ctx := context.Background()
	repo := &ledgerRepository{}
	tx := &ledgerTx{}

	for _, id := range []string{"abc", "", "1234", "not-a-uuid-at-all-not-a-uuid-at-all"} {
		t.Run(id, func(t *testing.T) {
			_, err := repo.GetCreator(ctx, id)
			assert.ErrorIs(t, err, entity.ErrCreatorNotFound)

			_, err = tx.LockCreator(id)
			assert.ErrorIs(t, err, entity.ErrCreatorNotFound)

			_, err = tx.AdjustBalances(id, decimal.NewFromInt(1), decimal.NewFromInt(1))
			assert.ErrorIs(t, err, entity.ErrCreatorNotFound)

			_, err = repo.GetTransaction(ctx, id)
			assert.ErrorIs(t, err, entity.ErrTransactionNotFound)

			_, err = tx.LockTransaction(id)
			assert.ErrorIs(t, err, entity.ErrTransactionNotFound)

			found, err := repo.FindByIdempotencyKey(ctx, id, "some-key-123")
			require.NoError(t, err)
			assert.Nil(t, found)

			rows, total, err := repo.ListTransactions(ctx, id, entity.TransactionFilter{}, 10, 0)
			require.NoError(t, err)
			assert.Empty(t, rows)
			assert.Zero(t, total)
		})
	}
}

func TestOverlongReferenceIsNotFound(t *testing.T) {
	ref := strings.Repeat("x", entity.MaxReferenceLength+1)

	_, err := (&ledgerRepository{}).GetTransactionByReference(context.Background(), ref)
	assert.ErrorIs(t, err, entity.ErrTransactionNotFound)

	_, err = (&ledgerTx{}).LockTransactionByReference(ref)
	assert.ErrorIs(t, err, entity.ErrTransactionNotFound)
}

func TestCanonicalID(t *testing.T) {
	id, ok := canonicalID("{6BA7B810-9DAD-11D1-80B4-00C04FD430C8}")
	require.True(t, ok)
	assert.Equal(t, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", id)

	_, ok = canonicalID("6ba7b810")
	assert.False(t, ok)
}
