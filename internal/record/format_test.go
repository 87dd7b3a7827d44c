package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "0:00:00.000", FormatTime(0))
	assert.Equal(t, "0:01:02.345", FormatTime(62345))
	assert.Equal(t, "1:00:00.001", FormatTime(3600001))
	assert.Equal(t, "-0:00:01.500", FormatTime(-1500))
}

func TestFormatSplit(t *testing.T) {
	tests := []struct {
		ms       int64
		decimals int
		sign     bool
		want     string
	}{
		{1234, 1, false, "1.2"},
		{62345, 0, false, "1:02"},
		{62345, 2, false, "1:02.34"},
		{3723456, 1, false, "1:02:03.4"},
		{500, 1, true, "+0.5"},
		{-500, 1, false, "-0.5"},
		{-61000, 1, true, "-1:01.0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSplit(tt.ms, tt.decimals, tt.sign))
	}
}

func TestParseTime(t *testing.T) {
	tests := map[string]int64{
		"0:00:00.000": 0,
		"0:01:02.345": 62345,
		"1:02.3":      62300,
		"45":          45000,
		"1.05":        1050,
		"-0:00:01.5":  -1500,
		"+2.000":      2000,
		"10:00:00":    36000000,
	}
	for in, want := range tests {
		got, err := ParseTime(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "-", "1:2:3:4", "1:60", "1.", "1.2345", "a:00", "1:-1"} {
		_, err := ParseTime(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatParseAgree(t *testing.T) {
	for _, v := range []int64{0, 1, 999, 59999, 60000, 3599999, 3600000, 86400123} {
		got, err := ParseTime(FormatTime(v))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}
