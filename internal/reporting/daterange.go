package reporting

import (
	"strings"
	"time"

	"vetreport/backend/internal/domain"
)

const (
	RangeDay    = "day"
	RangeWeek   = "week"
	Range30D    = "30d"
	RangeMonth  = "month"
	RangeYear   = "year"
	RangeCustom = "custom"
)

const dateLayout = "2006-01-02"

type RangeSelector struct {
	Kind  string
	Start string
	End   string
}

// NormalizeRangeKind maps every accepted alias to its canonical kind. Unknown
// values fall back to a single day.
func NormalizeRangeKind(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "day", "today":
		return RangeDay
	case "week", "7d":
		return RangeWeek
	case "30d":
		return Range30D
	case "mtd", "month":
		return RangeMonth
	case "ytd", "year":
		return RangeYear
	case "custom":
		return RangeCustom
	default:
		return RangeDay
	}
}

func NormalizeCompareMode(mode string) domain.CompareMode {
	switch domain.CompareMode(strings.ToLower(strings.TrimSpace(mode))) {
	case domain.ComparePrev:
		return domain.ComparePrev
	case domain.CompareYoY:
		return domain.CompareYoY
	default:
		return domain.CompareNone
	}
}

func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func EndOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
}

// ResolveRange turns a symbolic selector into inclusive day boundaries in loc.
func ResolveRange(sel RangeSelector, now time.Time, loc *time.Location) domain.Period {
	if loc == nil {
		loc = time.Local
	}
	today := StartOfDay(now, loc)
	kind := NormalizeRangeKind(sel.Kind)

	start, end := today, EndOfDay(today, loc)
	switch kind {
	case RangeWeek:
		start = today.AddDate(0, 0, -6)
	case Range30D:
		start = today.AddDate(0, 0, -29)
	case RangeMonth:
		start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, loc)
	case RangeYear:
		start = time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, loc)
	case RangeCustom:
		from := parseDay(sel.Start, loc, today)
		to := parseDay(sel.End, loc, today)
		if to.Before(from) {
			from, to = to, from
		}
		start, end = from, EndOfDay(to, loc)
	}

	return domain.Period{Kind: kind, Start: start, End: end}
}

// ComparePeriod returns the comparison window for p. Month and year ranges
// compare against the previous calendar month/year up to the same day; every
// other kind shifts back by its own length in days.
func ComparePeriod(p domain.Period, mode domain.CompareMode) (domain.Period, bool) {
	loc := p.Start.Location()

	switch mode {
	case domain.ComparePrev:
		switch p.Kind {
		case RangeMonth:
			first := time.Date(p.Start.Year(), p.Start.Month()-1, 1, 0, 0, 0, 0, loc)
			day := clampDay(first.Year(), first.Month(), p.End.Day())
			last := time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, loc)
			return domain.Period{Kind: p.Kind, Start: first, End: EndOfDay(last, loc)}, true
		case RangeYear:
			first := time.Date(p.Start.Year()-1, time.January, 1, 0, 0, 0, 0, loc)
			return domain.Period{Kind: p.Kind, Start: first, End: shiftYears(p.End, -1)}, true
		}

		duration := p.End.Sub(p.Start) + time.Millisecond
		days := int((duration + 12*time.Hour) / (24 * time.Hour))
		if days < 1 {
			days = 1
		}
		prevEnd := p.Start.Add(-time.Millisecond)
		prevStart := StartOfDay(p.Start, loc).AddDate(0, 0, -days)
		return domain.Period{Kind: p.Kind, Start: prevStart, End: prevEnd}, true
	case domain.CompareYoY:
		return domain.Period{Kind: p.Kind, Start: shiftYears(p.Start, -1), End: shiftYears(p.End, -1)}, true
	default:
		return domain.Period{}, false
	}
}

func parseDay(raw string, loc *time.Location, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	if len(raw) > len(dateLayout) {
		raw = raw[:len(dateLayout)]
	}
	parsed, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		return fallback
	}
	return parsed
}

// shiftYears moves t by n years keeping the wall clock, clamping Feb 29.
func shiftYears(t time.Time, n int) time.Time {
	year := t.Year() + n
	day := clampDay(year, t.Month(), t.Day())
	return time.Date(year, t.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func clampDay(year int, month time.Month, day int) int {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if day > last {
		return last
	}
	return day
}
