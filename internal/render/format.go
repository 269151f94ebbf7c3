package render

import (
	"strconv"
	"time"

	"github.com/olegiv/gamehub/internal/i18n"
)

const day = 24 * time.Hour

// FormatRelative renders t relative to now: today, yesterday and "N days
// ago" below a week, a localized calendar date beyond. A zero t renders the
// localized "date unavailable" text. Timestamps in the future count as today.
func FormatRelative(t, now time.Time, lang string) string {
	if t.IsZero() {
		return i18n.T(lang, "date.unavailable")
	}

	days := int(now.Sub(t) / day)
	switch {
	case days <= 0:
		return i18n.T(lang, "date.today")
	case days == 1:
		return i18n.T(lang, "date.yesterday")
	case days < 7:
		return i18n.T(lang, "date.days_ago", days)
	}
	return FormatDate(t, lang)
}

// FormatDate renders t as a localized calendar date, e.g. "5 March 2026".
func FormatDate(t time.Time, lang string) string {
	if t.IsZero() {
		return i18n.T(lang, "date.unavailable")
	}
	month := i18n.T(lang, "month."+strconv.Itoa(int(t.Month())))
	return i18n.T(lang, "date.format", t.Day(), month, t.Year())
}
