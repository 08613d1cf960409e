package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
)

// NumberSet is a set of ticket numbers. It is stored and transmitted as a
// sorted JSON array so the set survives any list-only representation.
type NumberSet map[int]struct{}

// NewNumberSet builds a set from the given numbers.
func NewNumberSet(numbers ...int) NumberSet {
	s := make(NumberSet, len(numbers))
	for _, n := range numbers {
		s[n] = struct{}{}
	}
	return s
}

func (s NumberSet) Has(n int) bool {
	_, ok := s[n]
	return ok
}

func (s NumberSet) Add(n int) {
	s[n] = struct{}{}
}

func (s NumberSet) Remove(n int) {
	delete(s, n)
}

func (s NumberSet) Len() int {
	return len(s)
}

// Sorted returns the members in ascending order.
func (s NumberSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func (s NumberSet) Clone() NumberSet {
	out := make(NumberSet, len(s))
	for n := range s {
		out[n] = struct{}{}
	}
	return out
}

// Equal reports whether both sets hold the same members.
func (s NumberSet) Equal(other NumberSet) bool {
	if len(s) != len(other) {
		return false
	}
	for n := range s {
		if !other.Has(n) {
			return false
		}
	}
	return true
}

func (s NumberSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *NumberSet) UnmarshalJSON(data []byte) error {
	var numbers []int
	if err := json.Unmarshal(data, &numbers); err != nil {
		return fmt.Errorf("number set: %w", err)
	}
	*s = NewNumberSet(numbers...)
	return nil
}

// Value implements driver.Valuer so gorm can persist the set as a JSON column.
func (s NumberSet) Value() (driver.Value, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *NumberSet) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = NewNumberSet()
		return nil
	case string:
		return s.UnmarshalJSON([]byte(v))
	case []byte:
		return s.UnmarshalJSON(v)
	default:
		return fmt.Errorf("number set: unsupported scan type %T", src)
	}
}
