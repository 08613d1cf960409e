package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Phase is the lifecycle phase of a raffle. A raffle starts Active and may be
// finalized exactly once.
type Phase string

const (
	PhaseActive    Phase = "active"
	PhaseFinalized Phase = "finalized"
)

// Theme is the colour theme chosen for a raffle.
type Theme string

const (
	ThemeNormal Theme = "normal"
	ThemeFemale Theme = "female"
	ThemeMale   Theme = "male"
)

// Valid reports whether t is one of the known themes.
func (t Theme) Valid() bool {
	switch t {
	case ThemeNormal, ThemeFemale, ThemeMale:
		return true
	}
	return false
}

// RaffleConfig is the operator-supplied configuration of a raffle.
type RaffleConfig struct {
	Name         string          `json:"name"`
	NumberPrice  decimal.Decimal `json:"numberPrice"`
	TotalNumbers int             `json:"totalNumbers"`
	Image        string          `json:"image,omitempty"` // opaque reference, never interpreted
	Theme        Theme           `json:"theme"`
	Status       Phase           `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Sale records who bought a ticket number.
type Sale struct {
	Name  string    `json:"name"`
	Phone string    `json:"phone,omitempty"`
	Date  time.Time `json:"date"`
}

// Winner links a drawn ticket number to the prize it claimed.
type Winner struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Prize  string `json:"prize"`
}

// RaffleState is everything that changes while a raffle runs.
type RaffleState struct {
	Sales        map[int]Sale   `json:"soldNumbers"`
	Unsold       NumberSet      `json:"unsoldNumbers"`
	Winners      []Winner       `json:"winners"`
	Losers       []int          `json:"losers"`
	Prizes       []string       `json:"prizes"`
	Participants map[int]string `json:"participants,omitempty"`
	MarkingMode  bool           `json:"markingMode"`
}

// Raffle is a full snapshot: configuration plus state.
type Raffle struct {
	Config RaffleConfig `json:"config"`
	State  RaffleState  `json:"state"`
}

// NewState returns an empty state with all collections allocated.
func NewState() RaffleState {
	return RaffleState{
		Sales:   make(map[int]Sale),
		Unsold:  NewNumberSet(),
		Winners: make([]Winner, 0),
		Losers:  make([]int, 0),
		Prizes:  make([]string, 0),
	}
}

// Finalized reports whether the raffle has left the Active phase.
func (r Raffle) Finalized() bool {
	return r.Config.Status == PhaseFinalized
}

// Clone returns a deep copy of r so callers can mutate it freely.
func (r Raffle) Clone() Raffle {
	out := Raffle{Config: r.Config}

	out.State.Sales = make(map[int]Sale, len(r.State.Sales))
	for n, s := range r.State.Sales {
		out.State.Sales[n] = s
	}
	out.State.Unsold = r.State.Unsold.Clone()
	out.State.Winners = append(make([]Winner, 0, len(r.State.Winners)), r.State.Winners...)
	out.State.Losers = append(make([]int, 0, len(r.State.Losers)), r.State.Losers...)
	out.State.Prizes = append(make([]string, 0, len(r.State.Prizes)), r.State.Prizes...)
	if r.State.Participants != nil {
		out.State.Participants = make(map[int]string, len(r.State.Participants))
		for n, name := range r.State.Participants {
			out.State.Participants[n] = name
		}
	}
	out.State.MarkingMode = r.State.MarkingMode
	return out
}

// MaxSoldNumber returns the highest sold ticket number, or 0 without sales.
func (s RaffleState) MaxSoldNumber() int {
	max := 0
	for n := range s.Sales {
		if n > max {
			max = n
		}
	}
	return max
}

// MaxDrawnNumber returns the highest number among winners and losers, or 0.
func (s RaffleState) MaxDrawnNumber() int {
	max := 0
	for _, w := range s.Winners {
		if w.Number > max {
			max = w.Number
		}
	}
	for _, n := range s.Losers {
		if n > max {
			max = n
		}
	}
	return max
}

// Drawn returns the set of numbers already used by winners or losers.
func (s RaffleState) Drawn() NumberSet {
	drawn := NewNumberSet()
	for _, w := range s.Winners {
		drawn.Add(w.Number)
	}
	for _, n := range s.Losers {
		drawn.Add(n)
	}
	return drawn
}
