package records

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passengerflow-console/pkg/passengerflow/models"
)

func intp(v int) *int { return &v }

func fixedValidator() *Validator {
	v := NewValidator(time.UTC)
	v.now = func() time.Time { return time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC) }
	return v
}

func validForm() Form {
	return Form{BusID: 3, StopID: 7, Entered: intp(4), Exited: intp(0), Timestamp: "2026-10-19T11:30"}
}

func TestCheckValidForm(t *testing.T) {
	rec, err := fixedValidator().Check(validForm())
	require.NoError(t, err)

	assert.Equal(t, int64(3), rec.BusID)
	assert.Equal(t, int64(7), rec.StopID)
	assert.Equal(t, 4, rec.Entered)
	assert.Equal(t, 0, rec.Exited, "zero is a valid count")
	assert.Equal(t, time.Date(2026, 10, 19, 11, 30, 0, 0, time.UTC), rec.Timestamp.Time)
}

func TestCheckReportsEveryField(t *testing.T) {
	_, err := fixedValidator().Check(Form{})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{
		"busId":     "Select a bus",
		"stopId":    "Select a stop",
		"entered":   "Enter a valid number of boarding passengers",
		"exited":    "Enter a valid number of alighting passengers",
		"timestamp": "Select a time",
	}, verr.Fields)
	assert.Contains(t, verr.Error(), "busId: Select a bus")
}

func TestCheckFieldRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Form)
		field   string
		message string
	}{
		{"negative entered", func(f *Form) { f.Entered = intp(-1) }, "entered", "Enter a valid number of boarding passengers"},
		{"negative exited", func(f *Form) { f.Exited = intp(-3) }, "exited", "Enter a valid number of alighting passengers"},
		{"future timestamp", func(f *Form) { f.Timestamp = "2026-10-19T12:01" }, "timestamp", "Time cannot be in the future"},
		{"garbage timestamp", func(f *Form) { f.Timestamp = "yesterday" }, "timestamp", "Enter a valid time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validForm()
			tt.mutate(&f)

			_, err := fixedValidator().Check(f)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, map[string]string{tt.field: tt.message}, verr.Fields)
		})
	}
}

func TestCheckAcceptsNow(t *testing.T) {
	f := validForm()
	f.Timestamp = "2026-10-19T12:00:00"
	_, err := fixedValidator().Check(f)
	assert.NoError(t, err)
}

func TestFormFromRecord(t *testing.T) {
	ts, err := models.ParseLocalDateTime("2026-10-01T07:15:00", time.UTC)
	require.NoError(t, err)

	f := FormFromRecord(models.PassengerCount{ID: 1, BusID: 2, StopID: 3, Entered: 0, Exited: 5, Timestamp: ts})
	assert.Equal(t, "2026-10-01T07:15", f.Timestamp)
	require.NotNil(t, f.Entered)
	assert.Equal(t, 0, *f.Entered)
	assert.Equal(t, 5, *f.Exited)
}
