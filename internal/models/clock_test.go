package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "9:15", want: "09:15"},
		{in: "09:15", want: "09:15"},
		{in: "23:59:59", want: "23:59"},
		{in: "10:15:00.000000", want: "10:15"},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "12:5", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
		{in: "-1:30", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestTimeOfDayJSONAndSQL(t *testing.T) {
	tod := NewTimeOfDay(9, 5)

	data, err := json.Marshal(tod)
	require.NoError(t, err)
	assert.Equal(t, `"09:05"`, string(data))

	var back TimeOfDay
	require.NoError(t, json.Unmarshal([]byte(`"9:05"`), &back))
	assert.Equal(t, tod, back)
	assert.Error(t, json.Unmarshal([]byte(`"25:00"`), &back))

	v, err := tod.Value()
	require.NoError(t, err)
	assert.Equal(t, "09:05:00", v)

	var scanned TimeOfDay
	require.NoError(t, scanned.Scan([]byte("09:05:00")))
	assert.Equal(t, tod, scanned)
	require.NoError(t, scanned.Scan(time.Date(0, 1, 1, 14, 30, 0, 0, time.UTC)))
	assert.Equal(t, "14:30", scanned.String())
	require.NoError(t, scanned.Scan(int64(10*time.Hour/time.Microsecond)))
	assert.Equal(t, "10:00", scanned.String())
	assert.Error(t, scanned.Scan(3.14))
}

func TestParseWeekday(t *testing.T) {
	d, err := ParseWeekday("mon")
	require.NoError(t, err)
	assert.Equal(t, Monday, d)
	assert.Equal(t, 1, d.ISO())
	assert.Equal(t, 7, Sunday.ISO())

	_, err = ParseWeekday("2024-05-26")
	assert.Error(t, err)
	assert.False(t, Weekday("XYZ").Valid())
}
