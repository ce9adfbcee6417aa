package playback

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Speed is the interval between two autoplay ticks. Only the values returned
// by Speeds are valid.
type Speed time.Duration

const (
	SpeedFast   = Speed(50 * time.Millisecond)
	SpeedNormal = Speed(100 * time.Millisecond)
	SpeedSlow   = Speed(200 * time.Millisecond)

	// DefaultSpeed is used until a valid speed is set.
	DefaultSpeed = SpeedNormal
)

// Speeds lists the allowed speeds from fastest to slowest.
func Speeds() []Speed {
	return []Speed{SpeedFast, SpeedNormal, SpeedSlow}
}

// Valid reports whether s is one of the allowed speeds.
func (s Speed) Valid() bool {
	switch s {
	case SpeedFast, SpeedNormal, SpeedSlow:
		return true
	default:
		return false
	}
}

// Duration returns s as a time.Duration.
func (s Speed) Duration() time.Duration { return time.Duration(s) }

// Millis returns the interval in milliseconds.
func (s Speed) Millis() int { return int(time.Duration(s).Milliseconds()) }

func (s Speed) String() string { return time.Duration(s).String() }

// SpeedFromMillis validates ms against the allowed set. The check runs on ms
// itself so huge values cannot wrap around to an allowed duration.
func SpeedFromMillis(ms int) (Speed, bool) {
	for _, s := range Speeds() {
		if s.Millis() == ms {
			return s, true
		}
	}

	return 0, false
}

// ParseSpeed accepts a bare millisecond count ("50") or a Go duration ("200ms").
func ParseSpeed(raw string) (Speed, error) {
	raw = strings.TrimSpace(raw)

	if ms, err := strconv.Atoi(raw); err == nil {
		if s, ok := SpeedFromMillis(ms); ok {
			return s, nil
		}

		return 0, invalidSpeed(raw)
	}

	d, err := time.ParseDuration(raw)
	if err != nil || !Speed(d).Valid() {
		return 0, invalidSpeed(raw)
	}

	return Speed(d), nil
}

func invalidSpeed(raw string) error {
	allowed := make([]string, 0, 3)
	for _, s := range Speeds() {
		allowed = append(allowed, strconv.Itoa(s.Millis()))
	}

	return fmt.Errorf("invalid speed %q (expected %s ms)", raw, strings.Join(allowed, "|"))
}
