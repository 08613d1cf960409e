package services

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"raffle/internal/models"
)

func newTestRaffle(t *testing.T, total int, prizes ...string) models.Raffle {
	t.Helper()
	r, err := NewRaffle(models.RaffleConfig{
		Name:         "Shelter raffle",
		NumberPrice:  decimal.NewFromInt(5),
		TotalNumbers: total,
	}, prizes)
	require.NoError(t, err)
	return r
}

func sell(t *testing.T, r models.Raffle, name string, numbers ...int) models.Raffle {
	t.Helper()
	out, err := AssignSale(r, numbers, models.Sale{Name: name})
	require.NoError(t, err)
	return out
}

func seededDrawer(seed int64) *Drawer {
	return NewDrawer(rand.New(rand.NewSource(seed)))
}

// scriptedSource replays fixed values, each reduced modulo n.
type scriptedSource struct {
	values []int
	next   int
}

func (s *scriptedSource) Intn(n int) int {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v % n
}
