package services

import "raffle/internal/models"

// ResolveAvailable returns, in ascending order, the ticket numbers eligible
// for the next draw.
//
// While the raffle is active any number that has not been drawn and is not
// marked unsold may come up, sold or not. Once finalized only sold numbers
// that have not been drawn are eligible and the unsold set is ignored.
//
// The result is never nil; an empty slice means no further draw is possible.
func ResolveAvailable(totalNumbers int, phase models.Phase, sales map[int]models.Sale, unsold models.NumberSet, winners []models.Winner, losers []int) []int {
	drawn := make(map[int]bool, len(winners)+len(losers))
	for _, w := range winners {
		drawn[w.Number] = true
	}
	for _, n := range losers {
		drawn[n] = true
	}

	available := make([]int, 0, totalNumbers)
	for n := 1; n <= totalNumbers; n++ {
		if drawn[n] {
			continue
		}
		if phase == models.PhaseFinalized {
			if _, sold := sales[n]; !sold {
				continue
			}
		} else if unsold.Has(n) {
			continue
		}
		available = append(available, n)
	}
	return available
}

// AvailableNumbers resolves eligibility for a full raffle snapshot.
func AvailableNumbers(r models.Raffle) []int {
	return ResolveAvailable(r.Config.TotalNumbers, r.Config.Status, r.State.Sales, r.State.Unsold, r.State.Winners, r.State.Losers)
}

// AvailablePrizes returns the prizes nobody has won yet, keeping list order.
func AvailablePrizes(prizes []string, winners []models.Winner) []string {
	claimed := make(map[string]bool, len(winners))
	for _, w := range winners {
		claimed[w.Prize] = true
	}

	out := make([]string, 0, len(prizes))
	for _, p := range prizes {
		if !claimed[p] {
			out = append(out, p)
		}
	}
	return out
}
