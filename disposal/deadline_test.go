package disposal_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/linesmerrill/police-fir-api/disposal"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestComputeDueDate(t *testing.T) {
	tests := []struct {
		name    string
		filing  string
		class   int
		want    string
		wantErr bool
	}{
		{name: "90 days", filing: "2025-01-01", class: 90, want: "2025-04-01"},
		{name: "60 days across february", filing: "2024-01-15", class: 60, want: "2024-03-15"},
		{name: "180 days across year end", filing: "2024-09-01", class: 180, want: "2025-02-28"},
		{name: "unknown class", filing: "2025-01-01", class: 30, wantErr: true},
		{name: "zero class", filing: "2025-01-01", class: 0, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := disposal.ComputeDueDate(date(tt.filing), tt.class)
			if tt.wantErr {
				assert.True(t, errors.Is(err, disposal.ErrValidation))
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestComputeDueDate_IgnoresTimeOfDay(t *testing.T) {
	filing := time.Date(2025, 1, 1, 23, 59, 0, 0, time.FixedZone("IST", 5*3600+1800))
	got, err := disposal.ComputeDueDate(filing, 90)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestParseDate(t *testing.T) {
	got, err := disposal.ParseDate("filingDate", "2025-03-28")
	assert.NoError(t, err)
	assert.Equal(t, date("2025-03-28"), got)

	_, err = disposal.ParseDate("filingDate", "28/03/2025")
	assert.Equal(t, disposal.KindValidation, disposal.KindOf(err))
	assert.Contains(t, err.Error(), "filingDate")
}
