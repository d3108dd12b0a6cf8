package retrieval

import (
	"fmt"
	"time"
)

// Status is the terminal outcome of a successful retrieval
type Status string

const (
	StatusFound    Status = "found"
	StatusNoRecord Status = "no_record"
)

// Record is one registry entry assembled from a detail page
type Record struct {
	ID     string            `json:"id"`
	Source string            `json:"source,omitempty"`
	Values map[string]string `json:"values"`
}

// ResultTable is the union of all records. Columns keep first-seen order.
type ResultTable struct {
	Columns []string `json:"columns"`
	Rows    []Record `json:"rows"`
}

func newResultTable() *ResultTable {
	return &ResultTable{
		Columns: []string{},
		Rows:    []Record{},
	}
}

func (t *ResultTable) add(rec Record, order []string) {
	seen := make(map[string]struct{}, len(t.Columns))
	for _, c := range t.Columns {
		seen[c] = struct{}{}
	}
	for _, c := range order {
		if _, ok := seen[c]; !ok {
			t.Columns = append(t.Columns, c)
			seen[c] = struct{}{}
		}
	}
	t.Rows = append(t.Rows, rec)
}

// Len returns the number of records
func (t *ResultTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Result is what a retrieval returns to its caller
type Result struct {
	Site        string        `json:"site"`
	Document    string        `json:"document"`
	Formatted   string        `json:"formatted"`
	Status      Status        `json:"status"`
	Table       *ResultTable  `json:"table"`
	Attempts    int           `json:"attempts"`
	Warnings    []string      `json:"warnings,omitempty"`
	RetrievedAt time.Time     `json:"retrieved_at"`
	Duration    time.Duration `json:"duration"`
}

func recordID(ordinal int) string {
	return fmt.Sprintf("P%03d", ordinal)
}
