package notes

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// Locale describes how a note's display date is rendered: a month
// abbreviation table and the separator between the date and the time.
type Locale struct {
	Name   string
	Months [12]string
	Sep    string
}

var (
	French = Locale{
		Name: "fr",
		Months: [12]string{
			"janv.", "févr.", "mars", "avr.", "mai", "juin",
			"juil.", "août", "sept.", "oct.", "nov.", "déc.",
		},
		Sep: " à ",
	}
	English = Locale{
		Name: "en",
		Months: [12]string{
			"Jan", "Feb", "Mar", "Apr", "May", "Jun",
			"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
		},
		Sep: ", ",
	}
)

// LookupLocale returns the built-in locale named name, French by default.
func LookupLocale(name string) (Locale, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fr", "fr-fr":
		return French, nil
	case "en", "en-us", "en-gb":
		return English, nil
	default:
		return Locale{}, fmt.Errorf("unknown locale %q", name)
	}
}

// Format renders t as "<day> <month><sep><HH>:<MM>", e.g. "19 oct. à 14:03".
func (l Locale) Format(t time.Time) string {
	return fmt.Sprintf("%d %s%s%02d:%02d", t.Day(), l.Months[t.Month()-1], l.Sep, t.Hour(), t.Minute())
}

// Parse reads a display date back. The string carries no year, so year is
// supplied by the caller. Anything unreadable yields the Unix epoch and false.
func (l Locale) Parse(s string, year int, loc *time.Location) (time.Time, bool) {
	epoch := time.Unix(0, 0)
	s = norm.NFC.String(strings.TrimSpace(s))
	if s == "" {
		return epoch, false
	}
	if l.Sep != "" {
		s = strings.Replace(s, norm.NFC.String(l.Sep), " ", 1)
	}
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return epoch, false
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return epoch, false
	}
	month := l.month(strings.TrimSuffix(parts[1], ","))
	if month == 0 {
		return epoch, false
	}
	hh, mm, ok := strings.Cut(parts[2], ":")
	if !ok {
		return epoch, false
	}
	hour, err := strconv.Atoi(hh)
	if err != nil || hour < 0 || hour > 23 {
		return epoch, false
	}
	minute, err := strconv.Atoi(mm)
	if err != nil || minute < 0 || minute > 59 {
		return epoch, false
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc), true
}

func (l Locale) month(name string) time.Month {
	for i, m := range l.Months {
		if strings.EqualFold(name, norm.NFC.String(m)) {
			return time.Month(i + 1)
		}
	}
	return 0
}
