package dashboard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dailyplan/dailyplan/workbook"
)

// Page is one slide of the dashboard: a fixed range of a named sheet.
type Page struct {
	Name   string
	Sheet  string
	Range  string
	Header string
}

var pageNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func DefaultPages() []Page {
	pages := []Page{}
	for _, sheet := range []string{"Morning", "Evening", "Night", "Friday"} {
		pages = append(pages, NewPage(sheet, sheet, "A1:H33"))
	}

	return pages
}

func NewPage(name, sheet, rng string) Page {
	return Page{
		Name:   name,
		Sheet:  sheet,
		Range:  rng,
		Header: fmt.Sprintf("%s Shift", sheet),
	}
}

// ParsePages parses a comma separated list of sheet qualified ranges, optionally named,
// e.g. "Morning!A1:H33, weekend=Friday!A1:H40". The page name defaults to the sheet name.
// Range expressions are checked here so that a malformed page list fails at start up.
func ParsePages(s string) ([]Page, error) {
	pages := []Page{}
	names := map[string]bool{}

	for _, token := range strings.Split(s, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		name, address, found := strings.Cut(token, "=")
		if !found {
			address = name
			name = ""
		}

		sheet, rng, err := workbook.ParseAddress(strings.TrimSpace(address))
		if err != nil {
			return nil, err
		}

		if name = strings.TrimSpace(name); name == "" {
			name = sheet
		}

		if !pageNameRe.MatchString(name) {
			return nil, fmt.Errorf("invalid page name %q - use letters, digits, '-' and '_' (e.g. 'night=Night Shift!A1:H33')", name)
		}

		if names[name] {
			return nil, fmt.Errorf("duplicate page %q", name)
		}

		names[name] = true
		pages = append(pages, NewPage(name, sheet, rng.String()))
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages defined")
	}

	return pages, nil
}

func (p Page) Image() string {
	return p.Name + ".png"
}
