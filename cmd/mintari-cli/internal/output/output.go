// Package output renders CLI results as aligned tables or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Table is a header row plus data rows.
type Table struct {
	Headers []string
	Rows    [][]string
	// Empty is printed instead of rows when there are none.
	Empty string
}

// Write prints t with tab-aligned columns and a dashed rule under the header.
func (t Table) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	rule := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		rule[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	fmt.Fprintln(tw, strings.Join(rule, "\t"))

	if len(t.Rows) == 0 && t.Empty != "" {
		fmt.Fprintln(tw, t.Empty)
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// JSON writes v indented.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var titler = cases.Title(language.English)

// Title turns identifiers such as "nba-topshot" or "view" into "Nba Topshot"
// and "View".
func Title(s string) string {
	return titler.String(strings.NewReplacer("-", " ", "_", " ").Replace(s))
}

// Truncate shortens s to n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
