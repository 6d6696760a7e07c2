package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeStringFromString(t *testing.T) {
	ts, err := NewTimeStringFromString("09:30")
	require.NoError(t, err)
	assert.Equal(t, 9*60+30, ts.Minutes())
	assert.Equal(t, "09:30", ts.String())

	_, err = NewTimeStringFromString("25:00")
	assert.ErrorIs(t, err, ErrInvalidTimeString)

	_, err = NewTimeStringFromString("nope")
	assert.ErrorIs(t, err, ErrInvalidTimeString)
}

func TestTimeString_Compare(t *testing.T) {
	a := MustTimeString("10:00")
	b := MustTimeString("11:00")

	assert.True(t, a.IsBefore(b))
	assert.True(t, b.IsAfter(a))
	assert.True(t, a.Equal(MustTimeString("10:00")))
	assert.False(t, a.Equal(TimeString{}))
}

func TestTimeString_On(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	date := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	got := MustTimeString("10:15").On(date, loc)

	assert.Equal(t, time.Date(2026, 10, 19, 7, 15, 0, 0, time.UTC), got.UTC())
}

func TestTimeString_On_DaylightSavingDays(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name    string
		date    time.Time
		slot    string
		wantUTC time.Time
	}{
		// 8 марта 2026 в 02:00 часы переводятся вперед (EST -> EDT)
		{"spring forward", time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC), "10:00", time.Date(2026, 3, 8, 14, 0, 0, 0, time.UTC)},
		// 1 ноября 2026 в 02:00 часы переводятся назад (EDT -> EST)
		{"fall back", time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC), "10:00", time.Date(2026, 11, 1, 15, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MustTimeString(tt.slot).On(tt.date, loc)

			assert.Equal(t, 10, got.Hour())
			assert.Equal(t, 0, got.Minute())
			assert.Equal(t, tt.wantUTC, got.UTC())
		})
	}
}

func TestTimeString_Scan(t *testing.T) {
	var ts TimeString

	require.NoError(t, ts.Scan("14:30:00"))
	assert.Equal(t, "14:30", ts.String())

	require.NoError(t, ts.Scan([]byte("08:05:00")))
	assert.Equal(t, "08:05", ts.String())

	require.NoError(t, ts.Scan(time.Date(0, 1, 1, 7, 45, 0, 0, time.UTC)))
	assert.Equal(t, "07:45", ts.String())

	require.NoError(t, ts.Scan(nil))
	assert.True(t, ts.IsZero())

	assert.Error(t, ts.Scan(42))
}

func TestTimeString_Value(t *testing.T) {
	v, err := MustTimeString("10:00").Value()
	require.NoError(t, err)
	assert.Equal(t, "10:00:00", v)

	v, err = MustTimeString("23:59").Value()
	require.NoError(t, err)
	assert.Equal(t, "23:59:00", v)

	v, err = TimeString{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestTimeString_JSON(t *testing.T) {
	var payload struct {
		Start TimeString `json:"start"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"start":"12:45"}`), &payload))
	assert.Equal(t, "12:45", payload.Start.String())

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"12:45"}`, string(out))
}
