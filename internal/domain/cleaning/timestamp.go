package cleaning

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/fleetpulse/internal/domain/model"
)

// DefaultLayouts are the event_time layouts tried in order. Times without a
// zone offset are taken as UTC.
var DefaultLayouts = []string{ //nolint:gochecknoglobals // read-only defaults
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp parses raw with the first matching layout.
func ParseTimestamp(raw string, layouts []string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s != "" && !model.IsNullToken(s) {
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}
	return time.Time{}, fmt.Errorf("%w: event_time %q", ErrParse, raw)
}

// Decompose parses the event timestamp and derives the calendar columns in
// the timestamp's own offset.
func Decompose(e model.MobilityEvent, layouts []string) (model.EnrichedEvent, error) {
	t, err := ParseTimestamp(e.Timestamp, layouts)
	if err != nil {
		return model.EnrichedEvent{MobilityEvent: e}, err
	}
	return model.EnrichedEvent{
		MobilityEvent: e,
		Time:          t,
		Year:          t.Year(),
		Month:         int(t.Month()),
		Day:           t.Day(),
		Hour:          t.Hour(),
		Weekday:       model.ISOWeekday(t.Weekday()),
	}, nil
}
