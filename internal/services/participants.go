package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"raffle/internal/models"
)

// UnknownParticipant is shown when a drawn number has no known owner.
const UnknownParticipant = "Unknown"

// NameResolver maps a ticket number to the name of whoever holds it.
type NameResolver interface {
	NameOf(number int) (string, bool)
}

func resolveName(names NameResolver, number int) string {
	if names == nil {
		return UnknownParticipant
	}
	if name, ok := names.NameOf(number); ok && name != "" {
		return name
	}
	return UnknownParticipant
}

type raffleNames struct {
	participants map[int]string
	sales        map[int]models.Sale
}

// RaffleNames resolves names from imported participants first, then from
// the buyer recorded on the sale.
func RaffleNames(r models.Raffle) NameResolver {
	return raffleNames{participants: r.State.Participants, sales: r.State.Sales}
}

func (n raffleNames) NameOf(number int) (string, bool) {
	if name, ok := n.participants[number]; ok && name != "" {
		return name, true
	}
	if sale, ok := n.sales[number]; ok && sale.Name != "" {
		return sale.Name, true
	}
	return "", false
}

type participantEntry struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// ParseParticipants reads a participant document. Both a list of
// {"number": n, "name": "..."} entries and an object keyed by number are
// accepted.
func ParseParticipants(data []byte) (map[int]string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty participant document: %w", ErrInvalidInput)
	}

	out := make(map[int]string)
	switch data[0] {
	case '[':
		var entries []participantEntry
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("decode participants: %v: %w", err, ErrInvalidInput)
		}
		for _, e := range entries {
			if e.Number < 1 {
				return nil, fmt.Errorf("participant number %d: %w", e.Number, ErrInvalidInput)
			}
			out[e.Number] = strings.TrimSpace(e.Name)
		}
	case '{':
		var byNumber map[string]string
		if err := json.Unmarshal(data, &byNumber); err != nil {
			return nil, fmt.Errorf("decode participants: %v: %w", err, ErrInvalidInput)
		}
		for key, name := range byNumber {
			n, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil || n < 1 {
				return nil, fmt.Errorf("participant number %q: %w", key, ErrInvalidInput)
			}
			out[n] = strings.TrimSpace(name)
		}
	default:
		return nil, fmt.Errorf("participant document must be a JSON array or object: %w", ErrInvalidInput)
	}
	return out, nil
}
