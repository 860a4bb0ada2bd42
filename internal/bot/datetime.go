package bot

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DateMatch is one extracted date expression. Date is local midnight; Raw is
// the matched substring for echoing back to the user.
type DateMatch struct {
	Date time.Time
	Raw  string
}

// TimeMatch is one extracted time-of-day expression, already in 24h.
type TimeMatch struct {
	Hour   int
	Minute int
	Raw    string
}

// HHMM renders the match as "15:04".
func (t TimeMatch) HHMM() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

var spanishWeekdays = []struct {
	names []string
	day   time.Weekday
}{
	{[]string{"domingo"}, time.Sunday},
	{[]string{"lunes"}, time.Monday},
	{[]string{"martes"}, time.Tuesday},
	{[]string{"miércoles", "miercoles"}, time.Wednesday},
	{[]string{"jueves"}, time.Thursday},
	{[]string{"viernes"}, time.Friday},
	{[]string{"sábado", "sabado"}, time.Saturday},
}

var spanishMonths = map[string]time.Month{
	"enero":      time.January,
	"febrero":    time.February,
	"marzo":      time.March,
	"abril":      time.April,
	"mayo":       time.May,
	"junio":      time.June,
	"julio":      time.July,
	"agosto":     time.August,
	"septiembre": time.September,
	"setiembre":  time.September,
	"octubre":    time.October,
	"noviembre":  time.November,
	"diciembre":  time.December,
}

var weekdayNames = [...]string{"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"}

var monthNames = [...]string{"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"}

var (
	dayOfMonthRe = regexp.MustCompile(`(\d{1,2})\s+de\s+(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre)`)
	dayMonthRe   = regexp.MustCompile(`(\d{1,2})/(\d{1,2})`)
)

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ExtractDate pulls zero-or-one date expression out of normalized lowercase
// text, resolving relative expressions against now. Priority: hoy, pasado
// mañana, mañana, weekday name, "<day> de <month>", "<day>/<month>". The
// pasado-mañana check runs before the bare mañana check so the longer
// expression is not shadowed by its suffix.
func ExtractDate(text string, now time.Time) *DateMatch {
	today := midnight(now)

	if strings.Contains(text, "hoy") {
		return &DateMatch{Date: today, Raw: "hoy"}
	}
	for _, raw := range []string{"pasado mañana", "pasado manana"} {
		if strings.Contains(text, raw) {
			return &DateMatch{Date: today.AddDate(0, 0, 2), Raw: raw}
		}
	}
	for _, raw := range []string{"mañana", "manana"} {
		if strings.Contains(text, raw) {
			return &DateMatch{Date: today.AddDate(0, 0, 1), Raw: raw}
		}
	}

	for _, wd := range spanishWeekdays {
		for _, name := range wd.names {
			if !strings.Contains(text, name) {
				continue
			}
			// Always the next occurrence, never today.
			offset := (int(wd.day) - int(today.Weekday()) + 7) % 7
			if offset <= 0 {
				offset += 7
			}
			return &DateMatch{Date: today.AddDate(0, 0, offset), Raw: name}
		}
	}

	if m := dayOfMonthRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		month := spanishMonths[m[2]]
		if date, ok := resolveDayMonth(day, month, today); ok {
			return &DateMatch{Date: date, Raw: m[0]}
		}
	}

	if m := dayMonthRe.FindStringSubmatch(text); m != nil {
		day, _ := strconv.Atoi(m[1])
		monthNum, _ := strconv.Atoi(m[2])
		if monthNum >= 1 && monthNum <= 12 {
			if date, ok := resolveDayMonth(day, time.Month(monthNum), today); ok {
				return &DateMatch{Date: date, Raw: m[0]}
			}
		}
	}

	return nil
}

// resolveDayMonth places day/month in the current year, rolling to the next
// year when the result would already be in the past.
func resolveDayMonth(day int, month time.Month, today time.Time) (time.Time, bool) {
	if day < 1 || day > 31 {
		return time.Time{}, false
	}
	date := time.Date(today.Year(), month, day, 0, 0, 0, 0, today.Location())
	if date.Day() != day || date.Month() != month {
		// Overflowed (e.g. 31 de febrero).
		return time.Time{}, false
	}
	if date.Before(today) {
		date = date.AddDate(1, 0, 0)
	}
	return date, true
}

var (
	clockRe    = regexp.MustCompile(`(\d{1,2}):(\d{2})\s*(am|pm)?`)
	hourAmPmRe = regexp.MustCompile(`(\d{1,2})\s*(am|pm)`)
	aLasRe     = regexp.MustCompile(`a las (\d{1,2})(?::(\d{2}))?`)
)

// ExtractTime pulls zero-or-one time-of-day expression out of normalized
// lowercase text. Pattern priority: "H:MM[am|pm]", "H[am|pm]", "a las
// H[:MM]". Minutes default to 0.
func ExtractTime(text string) *TimeMatch {
	if m := clockRe.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		return buildTimeMatch(hour, minute, m[3], m[0])
	}
	if m := hourAmPmRe.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		return buildTimeMatch(hour, 0, m[2], m[0])
	}
	if m := aLasRe.FindStringSubmatch(text); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		return buildTimeMatch(hour, minute, "", m[0])
	}
	return nil
}

// buildTimeMatch applies the 12h->24h conversion: pm and hour<12 adds 12,
// am and hour==12 wraps to 0, everything else is taken as given.
func buildTimeMatch(hour, minute int, meridiem, raw string) *TimeMatch {
	switch meridiem {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil
	}
	return &TimeMatch{Hour: hour, Minute: minute, Raw: strings.TrimSpace(raw)}
}

var appointmentTypeKeywords = []struct {
	apptType string
	keywords []string
}{
	{"visual_exam", []string{"examen", "revision", "revisión"}},
	{"lens_pickup", []string{"entrega", "recoger"}},
	{"follow_up", []string{"seguimiento", "control"}},
}

// ExtractAppointmentType picks the visit type from keywords, defaulting to a
// visual exam.
func ExtractAppointmentType(text string) string {
	for _, entry := range appointmentTypeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				return entry.apptType
			}
		}
	}
	return "visual_exam"
}

// CombineDateTime merges an extracted date and time into a single instant.
func CombineDateTime(date time.Time, t TimeMatch) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour, t.Minute, 0, 0, date.Location())
}

// FormatDateSpanish renders a date as "miércoles 4 de marzo" for user-facing
// messages.
func FormatDateSpanish(t time.Time) string {
	return fmt.Sprintf("%s %d de %s", weekdayNames[int(t.Weekday())], t.Day(), monthNames[int(t.Month())-1])
}

// FormatTimeSpanish renders a time as 12-hour "3:00 PM".
func FormatTimeSpanish(hour, minute int) string {
	meridiem := "AM"
	display := hour
	switch {
	case hour == 0:
		display = 12
	case hour == 12:
		meridiem = "PM"
	case hour > 12:
		display = hour - 12
		meridiem = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, meridiem)
}

// FormatInstantSpanish renders a full instant, e.g.
// "miércoles 4 de marzo a las 3:00 PM".
func FormatInstantSpanish(t time.Time) string {
	return fmt.Sprintf("%s a las %s", FormatDateSpanish(t), FormatTimeSpanish(t.Hour(), t.Minute()))
}
