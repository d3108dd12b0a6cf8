package retrieval

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

// assemble turns the success page into the result table. Detail pages that
// cannot be fetched or lack an expected sub-table are skipped with a warning.
func (f *Flow) assemble(ctx context.Context, sess *Session, listing *page, logger *logrus.Entry) (*ResultTable, []string, error) {
	ctx, span := tracer.Start(ctx, "Assemble")
	defer span.End()

	table := newResultTable()
	var warnings []string

	if sess.Site.DetailLinkSelector == "" {
		rec, order, err := extractRecord(listing.doc, sess.Site.Tables)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
		}
		rec.ID = recordID(1)
		rec.Source = listing.url.String()
		table.add(rec, order)
		return table, nil, nil
	}

	links, err := detailLinks(listing, sess.Site)
	if err != nil {
		return nil, nil, err
	}
	logger.WithField("links", len(links)).Debug("Detail pages discovered")

	for i, link := range links {
		pg, err := sess.get(ctx, link, nil)
		if err == nil {
			err = checkStatus(pg.status)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, ctxErr
			}
			warnings = append(warnings, skipWarning(link, err, logger))
			continue
		}

		rec, order, err := extractRecord(pg.doc, sess.Site.Tables)
		if err != nil {
			warnings = append(warnings, skipWarning(link, err, logger))
			continue
		}
		rec.ID = recordID(i + 1)
		rec.Source = link
		table.add(rec, order)
	}

	return table, warnings, nil
}

func skipWarning(link string, err error, logger *logrus.Entry) string {
	logger.WithError(err).WithField("link", link).Warn("Skipping detail page")
	return fmt.Sprintf("skipped %s: %v", link, err)
}

// detailLinks returns absolute detail URLs, deduplicated in discovery order
func detailLinks(listing *page, site *SiteConfig) ([]string, error) {
	base := listing.url
	if site.DetailBaseURL != "" {
		u, err := url.Parse(site.DetailBaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid detail base url: %w", err)
		}
		base = u
	}

	seen := map[string]struct{}{}
	var links []string
	listing.doc.Find(site.DetailLinkSelector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		links = append(links, abs)
	})
	return links, nil
}

var errMissingTable = errors.New("expected sub-table missing")

// extractRecord stacks the configured sub-tables of one page into a record.
// The first occurrence of a canonical field wins.
func extractRecord(doc *goquery.Document, specs []TableSpec) (Record, []string, error) {
	rec := Record{Values: map[string]string{}}
	var order []string

	tables := doc.Find("table")
	for _, spec := range specs {
		if spec.Index >= tables.Length() {
			return Record{}, nil, fmt.Errorf("%w: %s (index %d, page has %d)", errMissingTable, spec.Role, spec.Index, tables.Length())
		}

		pairs, err := readTable(tables.Eq(spec.Index), spec)
		if err != nil {
			return Record{}, nil, err
		}

		for _, kv := range pairs {
			key := canonical(kv[0], spec.Renames)
			if key == "" {
				continue
			}
			if _, exists := rec.Values[key]; exists {
				continue
			}
			rec.Values[key] = kv[1]
			order = append(order, key)
		}
	}

	return rec, order, nil
}

func readTable(tbl *goquery.Selection, spec TableSpec) ([][2]string, error) {
	// Rows of nested tables belong to those tables
	rows := tbl.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").IsSelection(tbl)
	})

	var pairs [][2]string
	switch spec.Layout {
	case LayoutHeaderRow:
		if rows.Length() < 2 {
			return nil, fmt.Errorf("%w: %s has no data row", errMissingTable, spec.Role)
		}
		header := cells(rows.Eq(0))
		values := cells(rows.Eq(1))
		for i, h := range header {
			v := ""
			if i < len(values) {
				v = values[i]
			}
			pairs = append(pairs, [2]string{h, v})
		}
	default:
		rows.EachWithBreak(func(i int, tr *goquery.Selection) bool {
			if spec.MaxRows > 0 && i >= spec.MaxRows {
				return false
			}
			c := cells(tr)
			if len(c) >= 2 {
				pairs = append(pairs, [2]string{c[0], c[1]})
			}
			return true
		})
	}
	return pairs, nil
}

func cells(tr *goquery.Selection) []string {
	var out []string
	tr.ChildrenFiltered("th, td").Each(func(_ int, td *goquery.Selection) {
		out = append(out, cellText(td))
	})
	return out
}

func canonical(label string, renames []Rename) string {
	for _, r := range renames {
		if r.From == label {
			return r.To
		}
	}
	return label
}
