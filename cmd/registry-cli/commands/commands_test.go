package commands

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexconsult/registry-api/internal/retrieval"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		fromText = false
		retrieveSite = "sigef"
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, "validate", "05828793705", "11.222.333/0001-81", "123")
	require.NoError(t, err)

	assert.Contains(t, out, "058.287.937-05")
	assert.Contains(t, out, "11.222.333/0001-81")
	assert.Contains(t, out, "MATRIZ")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "no")
}

func TestValidateFromText(t *testing.T) {
	out, err := run(t, "validate", "--from-text", "owner", "058.287.937-05", "since 2019")
	require.NoError(t, err)
	assert.Contains(t, out, "058.287.937-05")

	_, err = run(t, "validate", "--from-text", "nothing here")
	assert.Error(t, err)
}

func TestSitesCommand(t *testing.T) {
	out, err := run(t, "sites")
	require.NoError(t, err)
	assert.Contains(t, out, "sigef")
	assert.Contains(t, out, "sigef.incra.gov.br")
}

func TestRetrieveUnknownSite(t *testing.T) {
	_, err := run(t, "retrieve", "--site", "nowhere", "05828793705")
	assert.ErrorIs(t, err, retrieval.ErrUnknownSite)
}

func TestRenderResult(t *testing.T) {
	var out bytes.Buffer
	renderResult(&out, &retrieval.Result{
		Site:      "sigef",
		Formatted: "058.287.937-05",
		Status:    retrieval.StatusFound,
		Attempts:  2,
		Table: &retrieval.ResultTable{
			Columns: []string{"Código", "Nome da fazenda"},
			Rows: []retrieval.Record{
				{ID: "P001", Values: map[string]string{"Código": "abc", "Nome da fazenda": "Boa Vista"}},
			},
		},
		Warnings: []string{"detail page skipped"},
	})

	s := out.String()
	assert.Contains(t, strings.ToLower(s), "sigef 058.287.937-05: found after 2 attempt(s)")
	assert.Contains(t, s, "P001")
	assert.Contains(t, s, "Boa Vista")
	assert.Contains(t, s, "warning: detail page skipped")
}

func TestRenderResultWithoutTable(t *testing.T) {
	var out bytes.Buffer
	renderResult(&out, &retrieval.Result{Site: "sigef", Formatted: "058.287.937-05", Status: retrieval.StatusNoRecord, Attempts: 1})
	assert.Contains(t, strings.ToLower(out.String()), "no_record")
	assert.Equal(t, "SIGEF 058.287.937-05: no_record after 1 attempt(s)\nno records\n", out.String())

	out.Reset()
	renderResult(&out, &retrieval.Result{Site: "sigef", Status: retrieval.StatusFound, Table: &retrieval.ResultTable{}})
	assert.Contains(t, out.String(), "no records")
	assert.NotContains(t, out.String(), "Total")
}
