package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"raffle/internal/models"
)

// utf8BOM makes spreadsheet tools detect the encoding.
const utf8BOM = "\xef\xbb\xbf"

// WriteResultsCSV writes every winner, then every loser, in draw order.
func WriteResultsCSV(out io.Writer, r models.Raffle) error {
	if _, err := io.WriteString(out, utf8BOM); err != nil {
		return err
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{"type", "number", "participant", "prize"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	names := RaffleNames(r)
	for _, winner := range r.State.Winners {
		row := []string{"winner", strconv.Itoa(winner.Number), winner.Name, winner.Prize}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write winner %d: %w", winner.Number, err)
		}
	}
	for _, n := range r.State.Losers {
		row := []string{"loser", strconv.Itoa(n), resolveName(names, n), ""}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write loser %d: %w", n, err)
		}
	}

	w.Flush()
	return w.Error()
}

// WriteSalesCSV writes one row per sold number, ascending.
func WriteSalesCSV(out io.Writer, r models.Raffle) error {
	if _, err := io.WriteString(out, utf8BOM); err != nil {
		return err
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{"number", "name", "phone", "date"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, n := range SoldNumbers(r) {
		sale := r.State.Sales[n]
		date := ""
		if !sale.Date.IsZero() {
			date = sale.Date.UTC().Format(time.RFC3339)
		}
		if err := w.Write([]string{strconv.Itoa(n), sale.Name, sale.Phone, date}); err != nil {
			return fmt.Errorf("write sale %d: %w", n, err)
		}
	}

	w.Flush()
	return w.Error()
}
