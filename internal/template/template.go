// Package template loads scope definitions from an xlsx workbook. Scopes are
// the named categories a downstream classification step tests policy text
// against. The loader is constructed explicitly and passed to whoever needs
// the scope list; there is no package-level cache.
package template

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
)

// Scope is one classification slot from the template workbook.
type Scope struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// Loader reads scope definitions from a workbook.
type Loader struct {
	path  string
	sheet string // preferred sheet name; falls back to well-known names, then the first sheet
}

// NewLoader returns a Loader for the workbook at path. sheet may be empty.
func NewLoader(path, sheet string) *Loader {
	return &Loader{path: path, sheet: sheet}
}

// wellKnownSheets are tried in order when no sheet name is configured.
var wellKnownSheets = []string{"Scopes", "scopes", "Policies", "policies"}

// LoadScopes reads and parses the scope sheet. Column order is detected from
// a header row; workbooks without a recognizable header are parsed
// positionally as (name, description, category).
func (l *Loader) LoadScopes() ([]Scope, error) {
	f, err := xlsx.OpenFile(l.path)
	if err != nil {
		return nil, eris.Wrapf(err, "template: open %s", l.path)
	}

	sheet, err := l.pickSheet(f)
	if err != nil {
		return nil, err
	}

	headers, headerRow := detectHeaders(sheet)

	var scopes []Scope
	if headers == nil {
		zap.L().Debug("no header row detected, parsing positionally",
			zap.String("sheet", sheet.Name),
		)
		scopes = parsePositional(sheet)
	} else {
		scopes = parseWithHeaders(sheet, headers, headerRow)
	}

	zap.L().Info("loaded scope template",
		zap.String("path", l.path),
		zap.String("sheet", sheet.Name),
		zap.Int("scopes", len(scopes)),
	)
	return scopes, nil
}

func (l *Loader) pickSheet(f *xlsx.File) (*xlsx.Sheet, error) {
	if l.sheet != "" {
		if sheet, ok := f.Sheet[l.sheet]; ok {
			return sheet, nil
		}
		return nil, eris.Errorf("template: sheet %q not found in %s", l.sheet, l.path)
	}
	for _, name := range wellKnownSheets {
		if sheet, ok := f.Sheet[name]; ok {
			return sheet, nil
		}
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("template: %s has no sheets", l.path)
	}
	return f.Sheets[0], nil
}

// headerCandidates mark a row as the header row.
var headerCandidates = []string{"name", "scope", "category", "description", "type", "label"}

// detectHeaders scans the first rows for a header and returns a column-index
// to field-name map plus the header row index, or nil when none is found.
func detectHeaders(sheet *xlsx.Sheet) (map[int]string, int) {
	limit := len(sheet.Rows)
	if limit > 10 {
		limit = 10
	}

	for i := 0; i < limit; i++ {
		cells := rowStrings(sheet.Rows[i])
		joined := strings.ToLower(strings.Join(cells, " "))
		if joined == "" {
			continue
		}

		for _, candidate := range headerCandidates {
			if strings.Contains(joined, candidate) {
				headers := make(map[int]string)
				for col, cell := range cells {
					if cell != "" {
						headers[col] = strings.ToLower(strings.TrimSpace(cell))
					}
				}
				return headers, i
			}
		}
		return nil, 0 // first non-empty row is data
	}
	return nil, 0
}

func parseWithHeaders(sheet *xlsx.Sheet, headers map[int]string, headerRow int) []Scope {
	var scopes []Scope
	for i := headerRow + 1; i < len(sheet.Rows); i++ {
		cells := rowStrings(sheet.Rows[i])

		var s Scope
		for col, header := range headers {
			if col >= len(cells) || cells[col] == "" {
				continue
			}
			value := strings.TrimSpace(cells[col])
			switch {
			case containsAny(header, "name", "scope", "label"):
				s.Name = value
			case containsAny(header, "description", "desc", "detail"):
				s.Description = value
			case containsAny(header, "category", "type", "group"):
				s.Category = value
			}
		}
		if s.Name != "" {
			scopes = append(scopes, s)
		}
	}
	return scopes
}

func parsePositional(sheet *xlsx.Sheet) []Scope {
	var scopes []Scope
	for _, row := range sheet.Rows {
		cells := rowStrings(row)
		if len(cells) == 0 || cells[0] == "" {
			continue
		}
		s := Scope{Name: strings.TrimSpace(cells[0])}
		if len(cells) > 1 {
			s.Description = strings.TrimSpace(cells[1])
		}
		if len(cells) > 2 {
			s.Category = strings.TrimSpace(cells[2])
		}
		scopes = append(scopes, s)
	}
	return scopes
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func rowStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}
