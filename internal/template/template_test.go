package template

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "scopes.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestLoadScopes_HeaderRow(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Scopes": {
			{"Name", "Description", "Category"},
			{"Marketing emails", "Use of email for marketing", "communications"},
			{"Data sharing", "Sharing with third parties", "disclosure"},
			{"", "orphan description", ""},
		},
	})

	loader := NewLoader(path, "")
	scopes, err := loader.LoadScopes()
	require.NoError(t, err)

	require.Len(t, scopes, 2, "rows without a name are dropped")
	assert.Equal(t, Scope{
		Name:        "Marketing emails",
		Description: "Use of email for marketing",
		Category:    "communications",
	}, scopes[0])
	assert.Equal(t, "Data sharing", scopes[1].Name)
}

func TestLoadScopes_ReorderedHeaders(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Scopes": {
			{"Category", "Scope", "Description"},
			{"retention", "Data retention", "How long data is kept"},
		},
	})

	scopes, err := NewLoader(path, "").LoadScopes()
	require.NoError(t, err)

	require.Len(t, scopes, 1)
	assert.Equal(t, "Data retention", scopes[0].Name)
	assert.Equal(t, "How long data is kept", scopes[0].Description)
	assert.Equal(t, "retention", scopes[0].Category)
}

func TestLoadScopes_PositionalFallback(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {
			{"Cookie consent", "Use of tracking cookies", "tracking"},
			{"Profiling", "Automated decision making", ""},
		},
	})

	scopes, err := NewLoader(path, "").LoadScopes()
	require.NoError(t, err)

	require.Len(t, scopes, 2)
	assert.Equal(t, "Cookie consent", scopes[0].Name)
	assert.Equal(t, "Use of tracking cookies", scopes[0].Description)
	assert.Equal(t, "tracking", scopes[0].Category)
	assert.Empty(t, scopes[1].Category)
}

func TestLoadScopes_ConfiguredSheet(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Ignore": {{"Name"}, {"wrong sheet"}},
		"Custom": {{"Name"}, {"right sheet"}},
	})

	scopes, err := NewLoader(path, "Custom").LoadScopes()
	require.NoError(t, err)

	require.Len(t, scopes, 1)
	assert.Equal(t, "right sheet", scopes[0].Name)
}

func TestLoadScopes_SheetNotFound(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Sheet1": {{"Name"}},
	})

	_, err := NewLoader(path, "Missing").LoadScopes()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadScopes_WellKnownSheetPreferred(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Notes":  {{"Name"}, {"wrong sheet"}},
		"Scopes": {{"Name"}, {"from scopes sheet"}},
	})

	scopes, err := NewLoader(path, "").LoadScopes()
	require.NoError(t, err)

	require.Len(t, scopes, 1)
	assert.Equal(t, "from scopes sheet", scopes[0].Name)
}

func TestLoadScopes_MissingFile(t *testing.T) {
	_, err := NewLoader("/nonexistent/scopes.xlsx", "").LoadScopes()
	assert.Error(t, err)
}
