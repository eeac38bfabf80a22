package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClockTime(t *testing.T) {
	for in, want := range map[string]ClockTime{
		"08:00":        {Hour: 8},
		"17:45:30":     {Hour: 17, Minute: 45, Second: 30},
		"06:05:00.123": {Hour: 6, Minute: 5},
	} {
		got, err := ParseClockTime(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseClockTime("8 o'clock")
	assert.Error(t, err)
}

func TestClockTimeJSON(t *testing.T) {
	var p Prediction
	require.NoError(t, json.Unmarshal([]byte(`{"stopName":"Market","time":"09:30:00","occupancyPercentage":null}`), &p))
	assert.Equal(t, 9, p.Time.Hour)
	assert.Equal(t, "09:30", p.Time.String())
	assert.Nil(t, p.OccupancyPercentage)

	out, err := json.Marshal(p.Time)
	require.NoError(t, err)
	assert.JSONEq(t, `"09:30"`, string(out))
}

func TestParseLocalDateTime(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)

	lt, err := ParseLocalDateTime("2026-10-01T07:15", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 1, 7, 15, 0, 0, loc), lt.Time)

	lt, err = ParseLocalDateTime("2026-10-01T07:15:00Z", loc)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, lt.Time.Location())

	_, err = ParseLocalDateTime("01/10/2026", loc)
	assert.Error(t, err)
}

func TestLocalDateTimeJSON(t *testing.T) {
	var lt LocalDateTime
	require.NoError(t, json.Unmarshal([]byte(`"2026-10-01T07:15:42.5"`), &lt))
	assert.Equal(t, 42, lt.Second())

	out, err := json.Marshal(lt)
	require.NoError(t, err)
	assert.Equal(t, `"2026-10-01T07:15:42"`, string(out))

	var empty LocalDateTime
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))
	out, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestLocalDateTimeDisplay(t *testing.T) {
	lt := LocalDateTime{Time: time.Date(2026, 3, 4, 5, 6, 0, 0, time.Local)}
	assert.Equal(t, "04.03.2026, 05:06", lt.Display())
	assert.Equal(t, "2026-03-04T05:06", lt.FormValue())

	assert.Equal(t, "N/A", LocalDateTime{}.Display())
	assert.Equal(t, "", LocalDateTime{}.FormValue())
}
