package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"unicode/utf8"
)

// WriteCSV writes the header once followed by one row per item across all
// pages, in order.
func WriteCSV(w io.Writer, srcs ...DataSource) error {
	records, err := All(srcs...)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.Row()); err != nil {
			return fmt.Errorf("writing CSV row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the records of all pages as an indented JSON array.
func WriteJSON(w io.Writer, srcs ...DataSource) error {
	records, err := All(srcs...)
	if err != nil {
		return err
	}
	if records == nil {
		records = []Record{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

// WriteTable writes an aligned table with long titles truncated.
func WriteTable(w io.Writer, srcs ...DataSource) error {
	records, err := All(srcs...)
	if err != nil {
		return err
	}

	tw := newTabWriter(w)
	tw.writef("ID\tTITLE\tPRICE\tLOCATION\tURL\n")
	for _, r := range records {
		tw.writef("%s\t%s\t%s %s\t%s\t%s\n",
			r.ID,
			Truncate(r.Title, 50),
			r.Price,
			r.Currency,
			r.Location,
			r.URL,
		)
	}
	return tw.finish()
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return string([]rune(s)[:n])
	}
	return string([]rune(s)[:n-3]) + "..."
}
