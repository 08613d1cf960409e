package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"raffle/internal/models"
)

const (
	MinTotalNumbers = 10
	MaxTotalNumbers = 1000
	MinNameLength   = 3
)

// Every function below takes a snapshot and returns a new one. On error the
// input is returned as it was, so callers can keep persisting it safely.

// ConfigEdit carries the editable fields of a raffle configuration.
type ConfigEdit struct {
	Name         string          `json:"name"`
	NumberPrice  decimal.Decimal `json:"numberPrice"`
	TotalNumbers int             `json:"totalNumbers"`
	Image        string          `json:"image"`
	Theme        models.Theme    `json:"theme"`
}

func validateBasics(name string, price decimal.Decimal, total int, theme models.Theme) error {
	if len([]rune(strings.TrimSpace(name))) < MinNameLength {
		return fmt.Errorf("name must have at least %d characters: %w", MinNameLength, ErrInvalidConfiguration)
	}
	if !price.IsPositive() {
		return fmt.Errorf("number price must be greater than zero: %w", ErrInvalidConfiguration)
	}
	if total < MinTotalNumbers || total > MaxTotalNumbers {
		return fmt.Errorf("total numbers must be between %d and %d: %w", MinTotalNumbers, MaxTotalNumbers, ErrInvalidConfiguration)
	}
	if theme != "" && !theme.Valid() {
		return fmt.Errorf("unknown theme %q: %w", theme, ErrInvalidConfiguration)
	}
	return nil
}

// NewRaffle validates cfg and returns an Active raffle seeded with prizes.
func NewRaffle(cfg models.RaffleConfig, prizes []string) (models.Raffle, error) {
	if err := validateBasics(cfg.Name, cfg.NumberPrice, cfg.TotalNumbers, cfg.Theme); err != nil {
		return models.Raffle{}, err
	}

	cfg.Name = strings.TrimSpace(cfg.Name)
	if cfg.Theme == "" {
		cfg.Theme = models.ThemeNormal
	}
	cfg.Status = models.PhaseActive

	r := models.Raffle{Config: cfg, State: models.NewState()}
	for _, p := range prizes {
		next, err := AddPrize(r, p)
		if err != nil {
			return models.Raffle{}, err
		}
		r = next
	}
	return r, nil
}

// EditConfig applies edit to the raffle configuration. Once finalized only
// the price and the theme may change.
func EditConfig(r models.Raffle, edit ConfigEdit) (models.Raffle, error) {
	if err := validateBasics(edit.Name, edit.NumberPrice, edit.TotalNumbers, edit.Theme); err != nil {
		return r, err
	}
	name := strings.TrimSpace(edit.Name)

	if r.Finalized() {
		if name != r.Config.Name || edit.Image != r.Config.Image || edit.TotalNumbers != r.Config.TotalNumbers {
			return r, fmt.Errorf("only price and theme can change after finalizing: %w", ErrIllegalLifecycleTransition)
		}
	}

	if maxSold := r.State.MaxSoldNumber(); edit.TotalNumbers < maxSold {
		return r, fmt.Errorf("total numbers must be at least %d (highest sold number): %w", maxSold, ErrInvalidConfiguration)
	}
	if maxDrawn := r.State.MaxDrawnNumber(); edit.TotalNumbers < maxDrawn {
		return r, fmt.Errorf("total numbers must be at least %d (highest drawn number): %w", maxDrawn, ErrInvalidConfiguration)
	}

	out := r.Clone()
	out.Config.Name = name
	out.Config.NumberPrice = edit.NumberPrice
	out.Config.TotalNumbers = edit.TotalNumbers
	out.Config.Image = edit.Image
	if edit.Theme != "" {
		out.Config.Theme = edit.Theme
	}
	for n := range out.State.Unsold {
		if n > edit.TotalNumbers {
			out.State.Unsold.Remove(n)
		}
	}
	return out, nil
}

// Finalize locks the raffle. Every number without a sale becomes unsold,
// marking mode is switched off and draws afterwards only consider sold
// numbers. There is no way back short of a reset.
func Finalize(r models.Raffle) (models.Raffle, error) {
	if r.Finalized() {
		return r, fmt.Errorf("raffle is already finalized: %w", ErrIllegalLifecycleTransition)
	}

	out := r.Clone()
	unsold := models.NewNumberSet()
	for n := 1; n <= out.Config.TotalNumbers; n++ {
		if _, sold := out.State.Sales[n]; !sold {
			unsold.Add(n)
		}
	}
	out.State.Unsold = unsold
	out.State.MarkingMode = false
	out.Config.Status = models.PhaseFinalized
	return out, nil
}

func requireActive(r models.Raffle, op string) error {
	if r.Finalized() {
		return fmt.Errorf("%s: %w", op, ErrIllegalLifecycleTransition)
	}
	return nil
}

func requireInRange(r models.Raffle, number int) error {
	if number < 1 || number > r.Config.TotalNumbers {
		return fmt.Errorf("number %d outside 1..%d: %w", number, r.Config.TotalNumbers, ErrInvalidInput)
	}
	return nil
}

// AddPrize appends a prize. Late additions after finalizing are allowed.
func AddPrize(r models.Raffle, name string) (models.Raffle, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return r, fmt.Errorf("prize name is empty: %w", ErrInvalidInput)
	}
	for _, p := range r.State.Prizes {
		if p == name {
			return r, fmt.Errorf("prize %q: %w", name, ErrDuplicatePrize)
		}
	}

	out := r.Clone()
	out.State.Prizes = append(out.State.Prizes, name)
	return out, nil
}

// RemovePrize drops a prize that has not been won yet.
func RemovePrize(r models.Raffle, name string) (models.Raffle, error) {
	if err := requireActive(r, "remove prize"); err != nil {
		return r, err
	}
	for _, w := range r.State.Winners {
		if w.Prize == name {
			return r, fmt.Errorf("prize %q: %w", name, ErrPrizeClaimed)
		}
	}

	idx := -1
	for i, p := range r.State.Prizes {
		if p == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return r, fmt.Errorf("prize %q: %w", name, ErrNotFound)
	}

	out := r.Clone()
	out.State.Prizes = append(out.State.Prizes[:idx], out.State.Prizes[idx+1:]...)
	return out, nil
}

// AssignSale records buyer as the owner of every number in numbers. All
// numbers must be free: not sold, not drawn and not marked unsold.
func AssignSale(r models.Raffle, numbers []int, buyer models.Sale) (models.Raffle, error) {
	if err := requireActive(r, "assign sale"); err != nil {
		return r, err
	}
	if len(numbers) == 0 {
		return r, fmt.Errorf("no numbers selected: %w", ErrInvalidInput)
	}
	buyer.Name = strings.TrimSpace(buyer.Name)
	buyer.Phone = strings.TrimSpace(buyer.Phone)
	if buyer.Name == "" {
		return r, fmt.Errorf("buyer name is empty: %w", ErrInvalidInput)
	}

	drawn := r.State.Drawn()
	seen := make(map[int]bool, len(numbers))
	for _, n := range numbers {
		if err := requireInRange(r, n); err != nil {
			return r, err
		}
		if seen[n] {
			return r, fmt.Errorf("number %d selected twice: %w", n, ErrInvalidInput)
		}
		seen[n] = true
		if _, sold := r.State.Sales[n]; sold {
			return r, fmt.Errorf("number %d is already sold: %w", n, ErrNumberUnavailable)
		}
		if drawn.Has(n) {
			return r, fmt.Errorf("number %d was already drawn: %w", n, ErrNumberUnavailable)
		}
		if r.State.Unsold.Has(n) {
			return r, fmt.Errorf("number %d is marked unsold: %w", n, ErrNumberUnavailable)
		}
	}

	out := r.Clone()
	for _, n := range numbers {
		out.State.Sales[n] = buyer
	}
	return out, nil
}

// RemoveSale forgets the sale of a single number.
func RemoveSale(r models.Raffle, number int) (models.Raffle, error) {
	if err := requireActive(r, "remove sale"); err != nil {
		return r, err
	}
	if _, sold := r.State.Sales[number]; !sold {
		return r, fmt.Errorf("sale for number %d: %w", number, ErrNotFound)
	}

	out := r.Clone()
	delete(out.State.Sales, number)
	return out, nil
}

// SetMarkingMode turns manual unsold marking on or off.
func SetMarkingMode(r models.Raffle, on bool) (models.Raffle, error) {
	if err := requireActive(r, "marking mode"); err != nil {
		return r, err
	}
	out := r.Clone()
	out.State.MarkingMode = on
	return out, nil
}

// ToggleUnsold flips whether number is excluded from draws. Sold numbers
// cannot be marked.
func ToggleUnsold(r models.Raffle, number int) (models.Raffle, error) {
	if err := requireActive(r, "mark unsold"); err != nil {
		return r, err
	}
	if err := requireInRange(r, number); err != nil {
		return r, err
	}

	out := r.Clone()
	if out.State.Unsold.Has(number) {
		out.State.Unsold.Remove(number)
		return out, nil
	}
	if _, sold := r.State.Sales[number]; sold {
		return r, fmt.Errorf("number %d is sold: %w", number, ErrNumberUnavailable)
	}
	out.State.Unsold.Add(number)
	return out, nil
}

// RemoveWinner undoes a winner draw; its prize becomes available again.
func RemoveWinner(r models.Raffle, number int) (models.Raffle, error) {
	idx := -1
	for i, w := range r.State.Winners {
		if w.Number == number {
			idx = i
			break
		}
	}
	if idx < 0 {
		return r, fmt.Errorf("winner %d: %w", number, ErrNotFound)
	}

	out := r.Clone()
	out.State.Winners = append(out.State.Winners[:idx], out.State.Winners[idx+1:]...)
	return out, nil
}

// RemoveLoser puts an eliminated number back in play.
func RemoveLoser(r models.Raffle, number int) (models.Raffle, error) {
	idx := -1
	for i, n := range r.State.Losers {
		if n == number {
			idx = i
			break
		}
	}
	if idx < 0 {
		return r, fmt.Errorf("loser %d: %w", number, ErrNotFound)
	}

	out := r.Clone()
	out.State.Losers = append(out.State.Losers[:idx], out.State.Losers[idx+1:]...)
	return out, nil
}

// ImportParticipants replaces the participant directory used to name
// drawn numbers.
func ImportParticipants(r models.Raffle, participants map[int]string) models.Raffle {
	out := r.Clone()
	out.State.Participants = make(map[int]string, len(participants))
	for n, name := range participants {
		out.State.Participants[n] = name
	}
	return out
}

// SoldNumbers returns the sold numbers in ascending order.
func SoldNumbers(r models.Raffle) []int {
	out := make([]int, 0, len(r.State.Sales))
	for n := range r.State.Sales {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}
