package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/nexconsult/registry-api/internal/retrieval"
	"github.com/nexconsult/registry-api/internal/utils"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func renderValidation(w io.Writer, infos []utils.DocumentInfo) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Input", "Kind", "Formatted", "Valid", "Details"})
	for _, info := range infos {
		details := info.Region
		if info.Kind == utils.KindCNPJ {
			details = info.BranchType
		}
		t.AppendRow(table.Row{info.Original, info.Kind, info.Formatted, yesNo(info.Valid), details})
	}
	t.Render()
}

func renderSites(w io.Writer, sites []*retrieval.SiteConfig) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Site", "Description", "Captcha", "Form"})
	for _, s := range sites {
		t.AppendRow(table.Row{s.Name, s.Description, yesNo(s.HasCaptcha()), s.FormURL})
	}
	t.Render()
}

// renderResult prints a summary line, then one row per record; long cell
// values are left intact
func renderResult(w io.Writer, result *retrieval.Result) {
	fmt.Fprintf(w, "%s %s: %s after %d attempt(s)\n", strings.ToUpper(result.Site), result.Formatted, result.Status, result.Attempts)

	tbl := result.Table
	if tbl.Len() == 0 {
		fmt.Fprintln(w, "no records")
	} else {
		t := newTable(w)
		header := table.Row{"ID"}
		for _, col := range tbl.Columns {
			header = append(header, col)
		}
		t.AppendHeader(header)

		for _, rec := range tbl.Rows {
			row := table.Row{rec.ID}
			for _, col := range tbl.Columns {
				row = append(row, rec.Values[col])
			}
			t.AppendRow(row)
		}
		t.AppendFooter(table.Row{"Total", tbl.Len()})
		t.Render()
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}
