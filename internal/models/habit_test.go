package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		input   string
		want    time.Weekday
		wantErr bool
	}{
		{"Monday", time.Monday, false},
		{"mon", time.Monday, false},
		{" SUNDAY ", time.Sunday, false},
		{"0", time.Sunday, false},
		{"6", time.Saturday, false},
		{"7", 0, true},
		{"funday", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseWeekday(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Weekday(tt.want), got)
		})
	}
}

func TestHabitJSONShape(t *testing.T) {
	h := Habit{
		ID:       "0190f3a8",
		Name:     "Guitar",
		Sessions: []int{60, 90},
		Schedule: &Schedule{
			Days:      []Weekday{Weekday(time.Monday), Weekday(time.Friday)},
			StartTime: "9:30",
		},
	}

	data, err := json.Marshal(h)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "0190f3a8",
		"name": "Guitar",
		"completed": false,
		"sessions": [60, 90],
		"schedule": {"days": ["Monday", "Friday"], "startTime": "9:30"}
	}`, string(data))

	var decoded Habit
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, h, decoded)
}

func TestWeekdayUnmarshalRejectsUnknownName(t *testing.T) {
	var s Schedule
	err := json.Unmarshal([]byte(`{"days": ["Someday"], "startTime": "10:00"}`), &s)
	assert.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	h := Habit{
		ID:       "a",
		Sessions: []int{1},
		Schedule: &Schedule{Days: []Weekday{Weekday(time.Tuesday)}, StartTime: "08:00"},
	}

	c := h.Clone()
	c.Sessions[0] = 99
	c.Schedule.Days[0] = Weekday(time.Sunday)
	c.Schedule.StartTime = "09:00"

	assert.Equal(t, 1, h.Sessions[0])
	assert.Equal(t, Weekday(time.Tuesday), h.Schedule.Days[0])
	assert.Equal(t, "08:00", h.Schedule.StartTime)
}

func TestNotificationDue(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	n := Notification{Trigger: Trigger{Date: now}}

	assert.True(t, n.Due(now))
	assert.True(t, n.Due(now.Add(time.Minute)))
	assert.False(t, n.Due(now.Add(-time.Minute)))
}
