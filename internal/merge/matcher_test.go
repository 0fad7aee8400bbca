// SPDX-License-Identifier: MIT

package merge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDate(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		matched bool
	}{
		{"plain", "recording_2024-05-01.mp4", "2024-05-01", true},
		{"prefix", "2024-05-01_cam1.mkv", "2024-05-01", true},
		{"embedded", "cam_a_2023-12-31_late.avi", "2023-12-31", true},
		{"first of two", "2024-01-02_then_2024-03-04.mp4", "2024-01-02", true},
		{"no date", "holiday_footage.mp4", "", false},
		{"partial digits", "clip_2024-5-1.mp4", "", false},
		{"invalid month", "x_2024-13-01.mp4", "", false},
		{"invalid day", "x_2024-02-30.mp4", "", false},
		{"not a date at all", "x_9999-99-99.mp4", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ExtractDate(tc.in)
			assert.Equal(t, tc.matched, ok)
			if tc.matched {
				want, err := time.Parse("2006-01-02", tc.want)
				require.NoError(t, err)
				assert.True(t, got.Equal(want), "got %v want %v", got, want)
			}
		})
	}
}

func TestMatchesDate(t *testing.T) {
	target, err := time.Parse("2006-01-02", "2024-05-01")
	require.NoError(t, err)

	assert.True(t, MatchesDate("a_2024-05-01.mp4", target))
	assert.False(t, MatchesDate("a_2024-05-02.mp4", target))
	assert.False(t, MatchesDate("no_date.mp4", target))
	assert.False(t, MatchesDate("a_2024-13-40.mp4", target))
}

func TestMatchesDate_IgnoresTimeOfDay(t *testing.T) {
	target := time.Date(2024, 5, 1, 17, 59, 3, 0, time.Local)
	assert.True(t, MatchesDate("a_2024-05-01.mp4", target))
}
