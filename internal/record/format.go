package record

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatTime renders ms in the persisted form h:mm:ss.mmm.
func FormatTime(ms int64) string {
	return formatTime(ms, 3, true, false)
}

// FormatSplit renders ms for display, dropping leading zero hours and
// minutes. decimals (0 to 3) selects the sub-second precision; sign
// forces a leading + on non-negative values.
func FormatSplit(ms int64, decimals int, sign bool) string {
	return formatTime(ms, decimals, false, sign)
}

func formatTime(ms int64, decimals int, fullWidth, sign bool) string {
	neg := ms < 0
	if neg {
		ms = -ms
	}
	frac := ms % 1000
	sec := ms / 1000 % 60
	mins := ms / 1000 / 60 % 60
	hr := ms / 1000 / 60 / 60

	var b strings.Builder
	switch {
	case neg:
		b.WriteByte('-')
	case sign:
		b.WriteByte('+')
	}
	if hr > 0 || fullWidth {
		fmt.Fprintf(&b, "%d:%02d:%02d", hr, mins, sec)
	} else if mins > 0 {
		fmt.Fprintf(&b, "%d:%02d", mins, sec)
	} else {
		fmt.Fprintf(&b, "%d", sec)
	}

	switch decimals {
	case 1:
		fmt.Fprintf(&b, ".%01d", frac/100)
	case 2:
		fmt.Fprintf(&b, ".%02d", frac/10)
	case 3:
		fmt.Fprintf(&b, ".%03d", frac)
	}
	return b.String()
}

// ParseTime parses [-][[h:]m:]s[.fff] into milliseconds.
func ParseTime(s string) (int64, error) {
	orig := s
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg, s = true, s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 || s == "" {
		return 0, fmt.Errorf("invalid time %q", orig)
	}

	secPart := parts[len(parts)-1]
	var fracMS int64
	if dot := strings.IndexByte(secPart, '.'); dot >= 0 {
		frac := secPart[dot+1:]
		secPart = secPart[:dot]
		if len(frac) == 0 || len(frac) > 3 {
			return 0, fmt.Errorf("invalid fraction in time %q", orig)
		}
		n, err := strconv.ParseUint(frac, 10, 16)
		if err != nil {
			return 0, fmt.Errorf("invalid fraction in time %q", orig)
		}
		fracMS = int64(n)
		for range 3 - len(frac) {
			fracMS *= 10
		}
	}

	var total int64
	units := append(parts[:len(parts)-1:len(parts)-1], secPart)
	for i, u := range units {
		n, err := strconv.ParseUint(u, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid time %q", orig)
		}
		if i > 0 && n >= 60 {
			return 0, fmt.Errorf("invalid time %q: component %d out of range", orig, n)
		}
		total = total*60 + int64(n)
	}
	total = total*1000 + fracMS
	if neg {
		total = -total
	}
	return total, nil
}
