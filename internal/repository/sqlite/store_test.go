package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/homestead/internal/domain/models"
	"github.com/mamadbah2/homestead/internal/repository/kv"
	"github.com/mamadbah2/homestead/internal/store"
)

type counterIDs struct{ n int }

func (c *counterIDs) Next() string {
	c.n++
	return fmt.Sprintf("id-%d", c.n)
}

func TestLoadSave(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, filepath.Join(t.TempDir(), "nested", "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(ctx) })

	got, err := st.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, st.Save(ctx, "a", []byte(`[1]`)))
	require.NoError(t, st.Save(ctx, "a", []byte(`[1,2]`)))
	require.NoError(t, st.SaveBatch(ctx, map[string][]byte{"b": []byte(`{}`), "c": []byte(`[]`)}))

	got, err = st.Load(ctx, "a")
	require.NoError(t, err)
	assert.JSONEq(t, `[1,2]`, string(got))
	got, err = st.Load(ctx, "c")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(got))
	require.NoError(t, st.Ping(ctx))
}

func TestClosed(t *testing.T) {
	ctx := context.Background()
	st, err := Open(ctx, filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	require.NoError(t, st.Close(ctx))
	require.NoError(t, st.Close(ctx))

	_, err = st.Load(ctx, "a")
	require.ErrorIs(t, err, kv.ErrClosed)
	require.ErrorIs(t, st.Save(ctx, "a", []byte(`[]`)), kv.ErrClosed)
}

func TestLedgerSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	backend, err := Open(ctx, path)
	require.NoError(t, err)
	ledger, err := store.New(ctx, backend, &counterIDs{}, nil)
	require.NoError(t, err)
	require.NoError(t, ledger.Update(ctx, func(tx *store.Tx) error {
		if _, err := tx.AppendEvent(models.SpeciesChicken, models.LedgerEvent{Date: "2024-01-01", Type: models.EventAcquired, Quantity: 8}); err != nil {
			return err
		}
		tx.AddAnimals(models.IndividualAnimal{Type: models.SpeciesRabbit, Breed: "Rex", Number: 1, Status: models.StatusAlive})
		return nil
	}))
	require.NoError(t, ledger.Close(ctx))

	backend, err = Open(ctx, path)
	require.NoError(t, err)
	reopened, err := store.New(ctx, backend, &counterIDs{n: 100}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close(ctx) })

	_ = reopened.View(func(v *store.View) error {
		events := v.Events(models.SpeciesChicken)
		require.Len(t, events, 1)
		assert.Equal(t, 8, events[0].Quantity)
		assert.Equal(t, int64(1), events[0].Seq)
		assert.Len(t, v.Animals(), 1)
		return nil
	})
}
