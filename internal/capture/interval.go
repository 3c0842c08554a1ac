package capture

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidInterval  = errors.New("capture interval must be a positive integer of milliseconds")
	ErrAlreadyCapturing = errors.New("capture already running")
)

// ParseInterval reads a millisecond interval as typed by the user.
func ParseInterval(s string) (int, error) {
	ms, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || ms <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, s)
	}
	return ms, nil
}

func toDuration(ms int) (time.Duration, error) {
	if ms <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidInterval, ms)
	}
	return time.Duration(ms) * time.Millisecond, nil
}
