package services

import (
	"math/rand"

	"raffle/internal/models"
)

// RandSource yields uniform integers in [0, n). *rand.Rand satisfies it.
type RandSource interface {
	Intn(n int) int
}

type globalSource struct{}

func (globalSource) Intn(n int) int { return rand.Intn(n) }

// Drawer picks winners and losers. It keeps no state besides its source of
// randomness, so one Drawer can serve every raffle.
type Drawer struct {
	rng RandSource
}

// NewDrawer returns a Drawer backed by rng, or by the package-level
// math/rand source when rng is nil.
func NewDrawer(rng RandSource) *Drawer {
	if rng == nil {
		rng = globalSource{}
	}
	return &Drawer{rng: rng}
}

// DrawWinner picks one number from available and one unclaimed prize.
// It returns the new record and a fresh winners slice with the record
// appended; the winners argument is left untouched.
func (d *Drawer) DrawWinner(available []int, prizes []string, winners []models.Winner, names NameResolver) (models.Winner, []models.Winner, error) {
	open := AvailablePrizes(prizes, winners)
	if len(open) == 0 {
		return models.Winner{}, winners, ErrNoPrizesAvailable
	}
	if len(available) == 0 {
		return models.Winner{}, winners, ErrNoNumbersAvailable
	}

	number := available[d.rng.Intn(len(available))]
	prize := d.shuffle(open)[0]

	w := models.Winner{
		Number: number,
		Name:   resolveName(names, number),
		Prize:  prize,
	}

	updated := make([]models.Winner, 0, len(winners)+1)
	updated = append(updated, winners...)
	updated = append(updated, w)
	return w, updated, nil
}

// DrawLoser eliminates one number from available. Losers claim no prize.
func (d *Drawer) DrawLoser(available []int, losers []int) (int, []int, error) {
	if len(available) == 0 {
		return 0, losers, ErrNoNumbersAvailable
	}

	number := available[d.rng.Intn(len(available))]

	updated := make([]int, 0, len(losers)+1)
	updated = append(updated, losers...)
	updated = append(updated, number)
	return number, updated, nil
}

// shuffle returns a Fisher-Yates permutation of items.
func (d *Drawer) shuffle(items []string) []string {
	out := append([]string(nil), items...)
	for i := len(out) - 1; i > 0; i-- {
		j := d.rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// DrawRaffleWinner resolves availability for r and draws a winner. The
// returned snapshot carries the new winner; r itself is not modified.
func (d *Drawer) DrawRaffleWinner(r models.Raffle) (models.Raffle, models.Winner, error) {
	w, winners, err := d.DrawWinner(AvailableNumbers(r), r.State.Prizes, r.State.Winners, RaffleNames(r))
	if err != nil {
		return r, models.Winner{}, err
	}
	out := r.Clone()
	out.State.Winners = winners
	return out, w, nil
}

// DrawRaffleLoser resolves availability for r and eliminates one number.
func (d *Drawer) DrawRaffleLoser(r models.Raffle) (models.Raffle, int, error) {
	number, losers, err := d.DrawLoser(AvailableNumbers(r), r.State.Losers)
	if err != nil {
		return r, 0, err
	}
	out := r.Clone()
	out.State.Losers = losers
	return out, number, nil
}
