package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/tobsdb/tdblite/internal/conn"
	"github.com/tobsdb/tdblite/internal/query"
	"github.com/tobsdb/tdblite/internal/schema"
	"github.com/tobsdb/tdblite/internal/types"
)

// Render prints res for a human. columns orders the table printed for
// SELECT; keys outside it follow in name order.
func Render(w io.Writer, res conn.Response, columns []string) {
	if !res.Ok() {
		if res.Status == conn.StatusCancelled {
			fmt.Fprintln(w, "Operation cancelled.")
			return
		}
		fmt.Fprintf(w, "Error: %s\n", res.Message)
		return
	}

	switch data := res.Data.(type) {
	case []types.Record:
		renderRecords(w, data, columns)
		fmt.Fprintf(w, "(%d records)\n", len(data))
	case []string:
		if len(data) == 0 {
			fmt.Fprintln(w, "No tables")
			return
		}
		for _, name := range data {
			fmt.Fprintln(w, name)
		}
	case *schema.TableInfo:
		renderInfo(w, data)
	case *query.Result:
		fmt.Fprintln(w, res.Message)
		if data.Count > 0 {
			ids := make([]string, len(data.IDs))
			for i, id := range data.IDs {
				ids[i] = fmt.Sprint(id)
			}
			fmt.Fprintf(w, "IDs: %s\n", strings.Join(ids, ", "))
		}
	default:
		fmt.Fprintln(w, res.Message)
	}
}

func recordColumns(records []types.Record, columns []string) []string {
	seen := map[string]bool{}
	ordered := []string{}
	for _, c := range columns {
		seen[c] = true
		ordered = append(ordered, c)
	}

	extra := []string{}
	for _, r := range records {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	return append(ordered, extra...)
}

func renderRecords(w io.Writer, records []types.Record, columns []string) {
	columns = recordColumns(records, columns)
	if len(columns) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	for _, r := range records {
		cells := make([]string, len(columns))
		for i, c := range columns {
			cells[i] = types.Format(r[c])
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
}

func renderInfo(w io.Writer, info *schema.TableInfo) {
	cols := []string{}
	for _, name := range info.Columns.Keys() {
		cols = append(cols, fmt.Sprintf("%s:%s", name, info.Columns.Get(name)))
	}
	fmt.Fprintf(w, "Table: %s\n", info.Name)
	fmt.Fprintf(w, "Columns: %s\n", strings.Join(cols, ", "))
	fmt.Fprintf(w, "Primary key: %s\n", info.PrimaryKey)
	fmt.Fprintf(w, "Records: %d\n", info.RecordCount)
}
