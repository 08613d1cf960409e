package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raffle/internal/models"
)

func TestNewRaffle(t *testing.T) {
	valid := models.RaffleConfig{Name: "Shelter raffle", NumberPrice: decimal.NewFromInt(5), TotalNumbers: 100}

	r, err := NewRaffle(valid, []string{" Bike ", "Bed"})
	require.NoError(t, err)
	assert.Equal(t, models.PhaseActive, r.Config.Status)
	assert.Equal(t, models.ThemeNormal, r.Config.Theme)
	assert.Equal(t, []string{"Bike", "Bed"}, r.State.Prizes)
	assert.Len(t, AvailableNumbers(r), 100)

	tests := []struct {
		name   string
		mutate func(*models.RaffleConfig)
	}{
		{"short name", func(c *models.RaffleConfig) { c.Name = "ab" }},
		{"blank name", func(c *models.RaffleConfig) { c.Name = "     " }},
		{"zero price", func(c *models.RaffleConfig) { c.NumberPrice = decimal.Zero }},
		{"negative price", func(c *models.RaffleConfig) { c.NumberPrice = decimal.NewFromInt(-1) }},
		{"too few numbers", func(c *models.RaffleConfig) { c.TotalNumbers = 9 }},
		{"too many numbers", func(c *models.RaffleConfig) { c.TotalNumbers = 1001 }},
		{"unknown theme", func(c *models.RaffleConfig) { c.Theme = "neon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			_, err := NewRaffle(cfg, nil)
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}

	_, err = NewRaffle(valid, []string{"Bike", "Bike"})
	assert.ErrorIs(t, err, ErrDuplicatePrize)
}

func TestFinalize(t *testing.T) {
	t.Run("recomputes unsold from sales", func(t *testing.T) {
		r := newTestRaffle(t, 10)
		r = sell(t, r, "Ana", 1, 2, 3)
		r.Config.TotalNumbers = 5
		r.State.Unsold = models.NewNumberSet(2, 5, 9)
		r.State.MarkingMode = true

		out, err := Finalize(r)
		require.NoError(t, err)
		assert.True(t, models.NewNumberSet(4, 5).Equal(out.State.Unsold), "got %v", out.State.Unsold.Sorted())
		assert.Equal(t, models.PhaseFinalized, out.Config.Status)
		assert.False(t, out.State.MarkingMode)
		assert.Equal(t, models.PhaseActive, r.Config.Status)
	})

	t.Run("second finalize is rejected", func(t *testing.T) {
		r := newTestRaffle(t, 10, "Bike")
		r = sell(t, r, "Ana", 2)
		r, err := Finalize(r)
		require.NoError(t, err)
		before := r.Clone()

		out, err := Finalize(r)
		assert.ErrorIs(t, err, ErrIllegalLifecycleTransition)
		assert.Equal(t, before, out)
		assert.Equal(t, before, r)
	})
}

func TestFinalizedRaffle_GatesMutations(t *testing.T) {
	r := newTestRaffle(t, 10, "Bike")
	r = sell(t, r, "Ana", 1)
	r, err := Finalize(r)
	require.NoError(t, err)

	gated := map[string]func() (models.Raffle, error){
		"remove prize":  func() (models.Raffle, error) { return RemovePrize(r, "Bike") },
		"assign sale":   func() (models.Raffle, error) { return AssignSale(r, []int{2}, models.Sale{Name: "Luis"}) },
		"remove sale":   func() (models.Raffle, error) { return RemoveSale(r, 1) },
		"marking mode":  func() (models.Raffle, error) { return SetMarkingMode(r, true) },
		"toggle unsold": func() (models.Raffle, error) { return ToggleUnsold(r, 3) },
		"rename":        func() (models.Raffle, error) { return EditConfig(r, editOf(r, func(e *ConfigEdit) { e.Name = "New name" })) },
		"resize":        func() (models.Raffle, error) { return EditConfig(r, editOf(r, func(e *ConfigEdit) { e.TotalNumbers = 20 })) },
		"change image":  func() (models.Raffle, error) { return EditConfig(r, editOf(r, func(e *ConfigEdit) { e.Image = "dog.png" })) },
	}
	for name, op := range gated {
		t.Run(name, func(t *testing.T) {
			out, err := op()
			assert.ErrorIs(t, err, ErrIllegalLifecycleTransition)
			assert.Equal(t, r, out)
		})
	}

	t.Run("price and theme stay editable", func(t *testing.T) {
		out, err := EditConfig(r, editOf(r, func(e *ConfigEdit) {
			e.NumberPrice = decimal.NewFromInt(8)
			e.Theme = models.ThemeFemale
		}))
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(8).Equal(out.Config.NumberPrice))
		assert.Equal(t, models.ThemeFemale, out.Config.Theme)
	})

	t.Run("prizes can still be added", func(t *testing.T) {
		out, err := AddPrize(r, "Bed")
		require.NoError(t, err)
		assert.Equal(t, []string{"Bike", "Bed"}, out.State.Prizes)
	})
}

func editOf(r models.Raffle, change func(*ConfigEdit)) ConfigEdit {
	e := ConfigEdit{
		Name:         r.Config.Name,
		NumberPrice:  r.Config.NumberPrice,
		TotalNumbers: r.Config.TotalNumbers,
		Image:        r.Config.Image,
		Theme:        r.Config.Theme,
	}
	change(&e)
	return e
}

func TestEditConfig_Bounds(t *testing.T) {
	r := newTestRaffle(t, 50, "Bike")
	r = sell(t, r, "Ana", 30)
	r.State.Losers = []int{40}
	r.State.Unsold = models.NewNumberSet(12, 35)

	_, err := EditConfig(r, editOf(r, func(e *ConfigEdit) { e.TotalNumbers = 25 }))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = EditConfig(r, editOf(r, func(e *ConfigEdit) { e.TotalNumbers = 35 }))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	out, err := EditConfig(r, editOf(r, func(e *ConfigEdit) { e.TotalNumbers = 40 }))
	require.NoError(t, err)
	assert.Equal(t, 40, out.Config.TotalNumbers)
	assert.Equal(t, []int{12, 35}, out.State.Unsold.Sorted())

	out, err = EditConfig(newTestRaffle(t, 50), editOf(r, func(e *ConfigEdit) { e.TotalNumbers = 20 }))
	require.NoError(t, err)
	assert.Equal(t, 20, out.Config.TotalNumbers)

	shrunk := r.Clone()
	shrunk.State.Sales = map[int]models.Sale{}
	shrunk.State.Losers = nil
	out, err = EditConfig(shrunk, editOf(r, func(e *ConfigEdit) { e.TotalNumbers = 20 }))
	require.NoError(t, err)
	assert.Equal(t, []int{12}, out.State.Unsold.Sorted())
	assert.Equal(t, []int{12, 35}, shrunk.State.Unsold.Sorted())
}

func TestPrizes(t *testing.T) {
	r := newTestRaffle(t, 10, "Bike", "Bed")

	_, err := AddPrize(r, "  ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = AddPrize(r, "Bed ")
	assert.ErrorIs(t, err, ErrDuplicatePrize)

	r.State.Winners = []models.Winner{{Number: 3, Name: "Ana", Prize: "Bike"}}
	_, err = RemovePrize(r, "Bike")
	assert.ErrorIs(t, err, ErrPrizeClaimed)
	_, err = RemovePrize(r, "Leash")
	assert.ErrorIs(t, err, ErrNotFound)

	out, err := RemovePrize(r, "Bed")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bike"}, out.State.Prizes)
	assert.Equal(t, []string{"Bike", "Bed"}, r.State.Prizes)
}

func TestAssignSale(t *testing.T) {
	r := newTestRaffle(t, 10)
	r = sell(t, r, "Ana", 1)
	r.State.Losers = []int{2}
	r.State.Unsold = models.NewNumberSet(3)

	tests := []struct {
		name    string
		numbers []int
		buyer   string
		wantErr error
	}{
		{"no numbers", nil, "Luis", ErrInvalidInput},
		{"no buyer", []int{4}, " ", ErrInvalidInput},
		{"out of range", []int{11}, "Luis", ErrInvalidInput},
		{"zero", []int{0}, "Luis", ErrInvalidInput},
		{"repeated", []int{4, 4}, "Luis", ErrInvalidInput},
		{"already sold", []int{4, 1}, "Luis", ErrNumberUnavailable},
		{"already drawn", []int{2}, "Luis", ErrNumberUnavailable},
		{"marked unsold", []int{3}, "Luis", ErrNumberUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := AssignSale(r, tt.numbers, models.Sale{Name: tt.buyer})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, r, out)
		})
	}

	out, err := AssignSale(r, []int{5, 6}, models.Sale{Name: " Luis ", Phone: "555-0101"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 5, 6}, SoldNumbers(out))
	assert.Equal(t, models.Sale{Name: "Luis", Phone: "555-0101"}, out.State.Sales[6])
	assert.Equal(t, []int{1}, SoldNumbers(r))

	out, err = RemoveSale(out, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 6}, SoldNumbers(out))
	_, err = RemoveSale(out, 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestToggleUnsold(t *testing.T) {
	r := newTestRaffle(t, 10)
	r = sell(t, r, "Ana", 1)

	out, err := ToggleUnsold(r, 4)
	require.NoError(t, err)
	assert.True(t, out.State.Unsold.Has(4))
	assert.NotContains(t, AvailableNumbers(out), 4)

	out, err = ToggleUnsold(out, 4)
	require.NoError(t, err)
	assert.False(t, out.State.Unsold.Has(4))

	_, err = ToggleUnsold(r, 1)
	assert.ErrorIs(t, err, ErrNumberUnavailable)
	_, err = ToggleUnsold(r, 11)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRemoveResults(t *testing.T) {
	r := newTestRaffle(t, 10, "Bike")
	r.State.Winners = []models.Winner{{Number: 3, Name: "Ana", Prize: "Bike"}}
	r.State.Losers = []int{5, 7}
	r, err := Finalize(r)
	require.NoError(t, err)

	out, err := RemoveWinner(r, 3)
	require.NoError(t, err)
	assert.Empty(t, out.State.Winners)
	assert.Equal(t, []string{"Bike"}, AvailablePrizes(out.State.Prizes, out.State.Winners))

	out, err = RemoveLoser(out, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, out.State.Losers)

	_, err = RemoveWinner(out, 3)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = RemoveLoser(out, 5)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, r.State.Winners, 1)
}
