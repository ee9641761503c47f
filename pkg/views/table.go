// Package views binds news records to terminal tables and key=value forms
// driven by a crud.Controller.
package views

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"
)

const maxCell = 40

// Column renders one field of T.
type Column[T any] struct {
	Header string
	Value  func(T) string
}

type TableView[T any] struct {
	Columns []Column[T]
	// Noun is used in the empty message and the total line.
	Noun string
}

// Render writes rows as an aligned table followed by a total line.
func (v TableView[T]) Render(w io.Writer, rows []T) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintf(w, "No %s found.\n", v.Noun)
		return err
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)

	headers := make([]string, len(v.Columns))
	rules := make([]string, len(v.Columns))
	for i, c := range v.Columns {
		headers[i] = strings.ToUpper(c.Header)
		rules[i] = strings.Repeat("-", len(c.Header))
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	fmt.Fprintln(tw, strings.Join(rules, "\t"))

	cells := make([]string, len(v.Columns))
	for _, row := range rows {
		for i, c := range v.Columns {
			cells[i] = truncate(c.Value(row))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, line := range strings.Split(strings.TrimRight(sb.String(), "\n"), "\n") {
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Total: %d %s\n", len(rows), v.Noun)
	return err
}

func truncate(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= maxCell {
		return s
	}
	r := []rune(s)
	return string(r[:maxCell-3]) + "..."
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func text(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func yesNo(p *bool) string {
	if p == nil {
		return ""
	}
	if *p {
		return "yes"
	}
	return "no"
}

func day(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func minute(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}
