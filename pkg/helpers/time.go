package helpers

import (
	"fmt"
	"time"
)

// LocalizeTimes rewrites the display "Time" of an email job from its "TimeAt"
// value into loc. Data without a parseable TimeAt is left alone.
func LocalizeTimes(data map[string]any, loc *time.Location) {
	if loc == nil {
		return
	}
	v, ok := data["TimeAt"]
	if !ok {
		return
	}
	if t, ok := parseTimeAny(v); ok {
		data["Time"] = t.In(loc).Format("2006-01-02 15:04 MST")
	}
}

func parseTimeAny(v any) (time.Time, bool) {
	if t, ok := v.(time.Time); ok {
		return t, !t.IsZero()
	}
	s := fmt.Sprintf("%v", v)
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05 -0700 MST",
		"2006-01-02 15:04:05 -0700",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, !t.IsZero()
		}
	}
	return time.Time{}, false
}
