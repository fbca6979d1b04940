package cli

import (
	"fmt"
	"time"
)

// parseWhen resolves the shared --at/--in scheduling flags to epoch
// milliseconds. Returns 0 when neither flag was given (meaning "now").
func parseWhen(at, in string) (int64, error) {
	if at != "" && in != "" {
		return 0, fmt.Errorf("use either --at or --in, not both")
	}
	if at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return 0, fmt.Errorf("parse --at: %w (want RFC3339, e.g. 2026-01-05T14:00:00-08:00)", err)
		}
		return t.UnixMilli(), nil
	}
	if in != "" {
		d, err := time.ParseDuration(in)
		if err != nil {
			return 0, fmt.Errorf("parse --in: %w (want a duration, e.g. 90m)", err)
		}
		return time.Now().Add(d).UnixMilli(), nil
	}
	return 0, nil
}

// fmtMillis renders an epoch-millisecond timestamp for table output.
func fmtMillis(ms int64) string {
	if ms == 0 {
		return "-"
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}
