package settings

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	FieldQuery    = "q"
	FieldSortBy   = "sortBy"
	FieldFrom     = "from"
	FieldTo       = "to"
	FieldLanguage = "language"
	FieldCountry  = "country"
)

// TodayToken is stored literally in the "to" field and resolved to the
// current date only when a query is built.
const TodayToken = "today"

// HistoryWindowDays is the NewsAPI free-tier search window: "from" dates
// older than this are clamped rather than rejected.
const HistoryWindowDays = 28

const isoDate = "2006-01-02"

var (
	ErrInvalidField = errors.New("settings: unknown field")
	ErrInvalidValue = errors.New("settings: invalid value")
)

type Entry struct {
	Key   string
	Value string
}

var fieldLabels = map[string]string{
	FieldQuery:    "Keywords",
	FieldSortBy:   "Sort by",
	FieldFrom:     "From date",
	FieldTo:       "To date",
	FieldLanguage: "Language",
	FieldCountry:  "Country",
}

var labelFields = map[string]string{
	"keywords":  FieldQuery,
	"sort by":   FieldSortBy,
	"from date": FieldFrom,
	"to date":   FieldTo,
	"language":  FieldLanguage,
	"country":   FieldCountry,
}

// Defaults returns the initial per-user settings in display order.
func Defaults() []Entry {
	return []Entry{
		{FieldQuery, "VR AR"},
		{FieldSortBy, "popularity"},
		{FieldFrom, "1970-01-01"},
		{FieldTo, TodayToken},
		{FieldLanguage, "ru"},
		{FieldCountry, "RU"},
	}
}

func IsField(key string) bool {
	_, ok := fieldLabels[key]
	return ok
}

func Label(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

// FieldForLabel resolves a menu label (matched case-insensitively) to its
// internal field key.
func FieldForLabel(text string) (string, bool) {
	field, ok := labelFields[strings.ToLower(strings.TrimSpace(text))]
	return field, ok
}

// Normalize applies the per-field write rules to a user-supplied value.
// Keywords keep their spacing for display, country codes are upper-cased,
// everything else is lower-cased. "from" must be an ISO date and is
// clamped to the history window.
func Normalize(field, value string, now time.Time) (string, error) {
	value = strings.TrimSpace(value)
	switch field {
	case FieldQuery:
		return value, nil
	case FieldCountry:
		return strings.ToUpper(value), nil
	case FieldTo:
		return strings.ToLower(value), nil
	case FieldFrom:
		day, err := time.Parse(isoDate, value)
		if err != nil {
			return "", fmt.Errorf("%w: %q is not a date in YYYY-MM-DD form", ErrInvalidValue, value)
		}
		return ClampFrom(day, now), nil
	case FieldSortBy, FieldLanguage:
		return strings.ToLower(value), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidField, field)
	}
}

// ClampFrom bounds a search start date to the oldest date the remote
// service will accept.
func ClampFrom(day, now time.Time) string {
	oldest := now.AddDate(0, 0, -HistoryWindowDays)
	if day.Before(oldest.Truncate(24 * time.Hour)) {
		return oldest.Format(isoDate)
	}
	return day.Format(isoDate)
}

// ResolveFrom re-applies the window clamp at query time, since a stored
// date may have aged past it. Unparseable stored values pass through
// unchanged and are left for the remote service to reject.
func ResolveFrom(value string, now time.Time) string {
	day, err := time.Parse(isoDate, value)
	if err != nil {
		return value
	}
	return ClampFrom(day, now)
}

// ResolveTo turns the literal "today" token into the current date.
func ResolveTo(value string, now time.Time) string {
	if strings.EqualFold(value, TodayToken) {
		return now.Format(isoDate)
	}
	return value
}

// CanonicalSortBy restores the API casing lost by lower-casing on write.
func CanonicalSortBy(value string) string {
	switch strings.ToLower(value) {
	case "popularity":
		return "popularity"
	case "relevancy":
		return "relevancy"
	case "publishedat":
		return "publishedAt"
	}
	return value
}

// Render formats entries as "label - value" lines in their stored order.
func Render(entries []Entry) string {
	var builder strings.Builder
	for i, entry := range entries {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(fmt.Sprintf("%s - %s", Label(entry.Key), entry.Value))
	}
	return builder.String()
}

// Lookup returns the value stored for a field, if present.
func Lookup(entries []Entry, field string) (string, bool) {
	for _, entry := range entries {
		if entry.Key == field {
			return entry.Value, true
		}
	}
	return "", false
}
