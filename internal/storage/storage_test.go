package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raffle/internal/models"
)

func sampleRaffle() models.Raffle {
	r := models.Raffle{
		Config: models.RaffleConfig{
			Name:         "Shelter raffle",
			NumberPrice:  decimal.RequireFromString("2.50"),
			TotalNumbers: 20,
			Image:        "dog.png",
			Theme:        models.ThemeFemale,
			Status:       models.PhaseActive,
			CreatedAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		},
		State: models.NewState(),
	}
	r.State.Sales[1] = models.Sale{Name: "Ana", Phone: "555-0101", Date: time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC)}
	r.State.Sales[7] = models.Sale{Name: "Luis"}
	r.State.Unsold = models.NewNumberSet(3, 11, 19)
	r.State.Prizes = []string{"Bike", "Bed", "Leash"}
	r.State.Winners = []models.Winner{{Number: 7, Name: "Luis", Prize: "Bed"}}
	r.State.Losers = []int{12, 2}
	r.State.Participants = map[int]string{2: "Marta"}
	r.State.MarkingMode = true
	return r
}

// stores runs fn against every Store implementation.
func stores(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemoryStore())
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := NewSqliteStore(filepath.Join(t.TempDir(), "raffle.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		fn(t, s)
	})
}

func TestStore_RoundTrip(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		want := sampleRaffle()

		_, err := s.Load(ctx, "shelter-a")
		require.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, s.Save(ctx, "shelter-a", want))
		got, err := s.Load(ctx, "shelter-a")
		require.NoError(t, err)

		assert.Equal(t, want.Config.Name, got.Config.Name)
		assert.True(t, want.Config.NumberPrice.Equal(got.Config.NumberPrice), "price %s", got.Config.NumberPrice)
		assert.Equal(t, want.Config.TotalNumbers, got.Config.TotalNumbers)
		assert.Equal(t, want.Config.Image, got.Config.Image)
		assert.Equal(t, want.Config.Theme, got.Config.Theme)
		assert.Equal(t, want.Config.Status, got.Config.Status)

		assert.True(t, want.State.Unsold.Equal(got.State.Unsold), "unsold %v", got.State.Unsold.Sorted())
		assert.Equal(t, want.State.Prizes, got.State.Prizes)
		assert.Equal(t, want.State.Winners, got.State.Winners)
		assert.Equal(t, want.State.Losers, got.State.Losers)
		assert.Equal(t, want.State.Participants, got.State.Participants)
		assert.True(t, got.State.MarkingMode)

		require.Len(t, got.State.Sales, 2)
		assert.Equal(t, "Ana", got.State.Sales[1].Name)
		assert.Equal(t, "555-0101", got.State.Sales[1].Phone)
		assert.True(t, want.State.Sales[1].Date.Equal(got.State.Sales[1].Date))
		assert.Equal(t, "Luis", got.State.Sales[7].Name)
	})
}

func TestStore_SaveReplacesSnapshot(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		first := sampleRaffle()
		require.NoError(t, s.Save(ctx, "shelter-a", first))

		second := first.Clone()
		second.Config.Status = models.PhaseFinalized
		delete(second.State.Sales, 7)
		second.State.Unsold = models.NewNumberSet()
		second.State.Winners = nil
		second.State.Losers = []int{5}
		second.State.Prizes = []string{"Leash"}
		require.NoError(t, s.Save(ctx, "shelter-a", second))

		got, err := s.Load(ctx, "shelter-a")
		require.NoError(t, err)
		assert.Equal(t, models.PhaseFinalized, got.Config.Status)
		assert.Len(t, got.State.Sales, 1)
		assert.Equal(t, 0, got.State.Unsold.Len())
		assert.Empty(t, got.State.Winners)
		assert.Equal(t, []int{5}, got.State.Losers)
		assert.Equal(t, []string{"Leash"}, got.State.Prizes)
	})
}

func TestStore_TenantsAndDelete(t *testing.T) {
	stores(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		a := sampleRaffle()
		b := sampleRaffle()
		b.Config.Name = "Other raffle"
		b.State.Sales = map[int]models.Sale{}

		require.NoError(t, s.Save(ctx, "shelter-a", a))
		require.NoError(t, s.Save(ctx, "shelter-b", b))

		require.NoError(t, s.Delete(ctx, "shelter-a"))
		require.NoError(t, s.Delete(ctx, "shelter-a"), "deleting twice is not an error")
		_, err := s.Load(ctx, "shelter-a")
		assert.ErrorIs(t, err, ErrNotFound)

		got, err := s.Load(ctx, "shelter-b")
		require.NoError(t, err)
		assert.Equal(t, "Other raffle", got.Config.Name)
		assert.Empty(t, got.State.Sales)
	})
}

func TestMemoryStore_IsolatesSnapshots(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	r := sampleRaffle()
	require.NoError(t, s.Save(ctx, "shelter-a", r))

	r.State.Unsold.Add(4)
	got, err := s.Load(ctx, "shelter-a")
	require.NoError(t, err)
	assert.False(t, got.State.Unsold.Has(4))

	got.State.Prizes[0] = "tampered"
	again, err := s.Load(ctx, "shelter-a")
	require.NoError(t, err)
	assert.Equal(t, "Bike", again.State.Prizes[0])
}
