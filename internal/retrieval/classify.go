package retrieval

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeRetry
	outcomeNoRecord
)

func (o outcome) String() string {
	switch o {
	case outcomeSuccess:
		return "success"
	case outcomeRetry:
		return "retryable_failure"
	case outcomeNoRecord:
		return "no_record"
	}
	return "unknown"
}

// classify inspects a submission response. The returned error is terminal.
func classify(site *SiteConfig, pg *page) (outcome, string, error) {
	if err := checkStatus(pg.status); err != nil {
		return 0, "", err
	}

	if site.ErrorSelector != "" {
		if sel := pg.doc.Find(site.ErrorSelector); sel.Length() > 0 {
			text := squash(sel.First().Text())
			if matchesAny(text, site.NoRecordPhrases) {
				return outcomeNoRecord, text, nil
			}
			return outcomeRetry, text, nil
		}
	}

	if site.NoRecordSelector != "" {
		if sel := pg.doc.Find(site.NoRecordSelector); sel.Length() > 0 {
			return outcomeNoRecord, squash(sel.First().Text()), nil
		}
	}

	if site.SuccessSelector == "" || pg.doc.Find(site.SuccessSelector).Length() > 0 {
		return outcomeSuccess, "", nil
	}

	return 0, "", fmt.Errorf("%w: no error, no-record or result markup in response", ErrUnexpectedResponse)
}

func matchesAny(text string, phrases []string) bool {
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// squash collapses runs of whitespace and trims
func squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cellText(sel *goquery.Selection) string {
	return squash(sel.Text())
}
