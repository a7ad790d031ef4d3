package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysBetween(t *testing.T) {
	base := time.Date(2024, 3, 1, 23, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysBetween(base, base.Add(30*time.Minute)))
	assert.Equal(t, 1, DaysBetween(base, base.Add(2*time.Hour)), "crossing midnight counts as a day")
	assert.Equal(t, -3, DaysBetween(base, base.AddDate(0, 0, -3)))
	assert.Equal(t, 29, DaysBetween(base, time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC)))
}

func TestDaysBetween_UsesEachLocation(t *testing.T) {
	saoPaulo := time.FixedZone("BRT", -3*60*60)
	a := time.Date(2024, 3, 1, 22, 0, 0, 0, saoPaulo) // 2024-03-02 01:00 UTC
	b := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.True(t, SameDay(a, b))
	assert.Equal(t, 0, DaysBetween(a, b))
}

func TestIsProximate(t *testing.T) {
	d := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		other     time.Time
		tolerance int
		want      bool
	}{
		{name: "same day zero tolerance", other: d.Add(time.Hour), tolerance: 0, want: true},
		{name: "next day zero tolerance", other: d.AddDate(0, 0, 1), tolerance: 0, want: false},
		{name: "at tolerance", other: d.AddDate(0, 0, 3), tolerance: 3, want: true},
		{name: "at tolerance before", other: d.AddDate(0, 0, -3), tolerance: 3, want: true},
		{name: "beyond tolerance", other: d.AddDate(0, 0, 4), tolerance: 3, want: false},
		{name: "negative tolerance", other: d, tolerance: -1, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsProximate(d, tt.other, tt.tolerance))
			assert.Equal(t, tt.want, IsProximate(tt.other, d, tt.tolerance))
		})
	}
}
