package services

import (
	"github.com/shopspring/decimal"

	"raffle/internal/models"
)

// Summary is the dashboard view of a raffle.
type Summary struct {
	Phase            models.Phase    `json:"phase"`
	TotalNumbers     int             `json:"totalNumbers"`
	Sold             int             `json:"sold"`
	ForSale          int             `json:"forSale"`
	Unsold           int             `json:"unsold"`
	Winners          int             `json:"winners"`
	Losers           int             `json:"losers"`
	Eligible         int             `json:"eligible"`
	PrizesLeft       int             `json:"prizesLeft"`
	Revenue          decimal.Decimal `json:"revenue"`
	PotentialRevenue decimal.Decimal `json:"potentialRevenue"`
}

// Summarize computes sales and draw statistics for r.
func Summarize(r models.Raffle) Summary {
	drawn := r.State.Drawn()
	forSale := 0
	for n := 1; n <= r.Config.TotalNumbers; n++ {
		if _, sold := r.State.Sales[n]; sold || drawn.Has(n) {
			continue
		}
		forSale++
	}

	sold := len(r.State.Sales)
	return Summary{
		Phase:            r.Config.Status,
		TotalNumbers:     r.Config.TotalNumbers,
		Sold:             sold,
		ForSale:          forSale,
		Unsold:           r.State.Unsold.Len(),
		Winners:          len(r.State.Winners),
		Losers:           len(r.State.Losers),
		Eligible:         len(AvailableNumbers(r)),
		PrizesLeft:       len(AvailablePrizes(r.State.Prizes, r.State.Winners)),
		Revenue:          r.Config.NumberPrice.Mul(decimal.NewFromInt(int64(sold))),
		PotentialRevenue: r.Config.NumberPrice.Mul(decimal.NewFromInt(int64(r.Config.TotalNumbers))),
	}
}

const numbersPerSection = 100

// Section is a contiguous block of ticket numbers for grid display.
type Section struct {
	ID          int   `json:"id"`
	StartNumber int   `json:"startNumber"`
	EndNumber   int   `json:"endNumber"`
	Numbers     []int `json:"numbers"`
}

// NumberSections splits 1..total into blocks of one hundred.
func NumberSections(total int) []Section {
	sections := make([]Section, 0, (total+numbersPerSection-1)/numbersPerSection)
	for start := 1; start <= total; start += numbersPerSection {
		end := min(start+numbersPerSection-1, total)
		numbers := make([]int, 0, end-start+1)
		for n := start; n <= end; n++ {
			numbers = append(numbers, n)
		}
		sections = append(sections, Section{
			ID:          len(sections),
			StartNumber: start,
			EndNumber:   end,
			Numbers:     numbers,
		})
	}
	return sections
}
