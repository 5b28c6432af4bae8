package cleaning

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/okian/insights/internal/domain/model"
)

// Years outside this window are treated as typos and left unparsed.
const (
	minYear = 1900
	maxYear = 2200
)

// DefaultDateLayouts lists date forms tried after the permissive parser
// gives up. Month-first is preferred over day-first.
var DefaultDateLayouts = []string{ //nolint:gochecknoglobals // read-only default
	"2006-01-02",
	"2006-1-2",
	"2006/01/02",
	"2006/1/2",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04",
	"2006.01.02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"1/2/2006 3:04 PM",
	"01-02-2006",
	"01-02-06",
	"1/2/06",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	"20060102",
}

// parseDate reads raw as a calendar day. With no layouts the value goes
// through dateparse (month-first) and then the default layouts; otherwise
// only the given layouts are tried. The day is taken in the zone written in
// the value, if any.
func parseDate(raw string, layouts []string) (model.Date, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return model.Date{}, false
	}
	if len(layouts) == 0 {
		if t, err := dateparse.ParseIn(s, time.UTC, dateparse.PreferMonthFirst(true)); err == nil {
			return dateIn(t)
		}
		layouts = DefaultDateLayouts
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateIn(t)
		}
	}
	return model.Date{}, false
}

func dateIn(t time.Time) (model.Date, bool) {
	if y := t.Year(); y < minYear || y > maxYear {
		return model.Date{}, false
	}
	return model.DateOf(t), true
}
