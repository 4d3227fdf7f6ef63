package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/educenter-api/internal/models"
)

type fakeRoomSlots struct {
	slots     []models.RoomSlot
	err       error
	lastRoom  string
	lastExcl  string
	callCount int
}

func (f *fakeRoomSlots) ListRoomSlots(_ context.Context, roomID, excludeGroupID string) ([]models.RoomSlot, error) {
	f.callCount++
	f.lastRoom = roomID
	f.lastExcl = excludeGroupID
	if f.err != nil {
		return nil, f.err
	}
	var out []models.RoomSlot
	for _, s := range f.slots {
		if s.GroupID != excludeGroupID {
			out = append(out, s)
		}
	}
	return out, nil
}

func TestRoomAvailabilityIsRoomBusy(t *testing.T) {
	existing := models.RoomSlot{GroupID: "g1", StartTime: "09:00", DurationHours: 2, WeekDays: models.WeekDays{models.Monday}}

	cases := []struct {
		name         string
		query        RoomSlotQuery
		weekdayAware bool
		busy         bool
	}{
		{"touching after", RoomSlotQuery{StartTime: "11:00", DurationHours: 2}, false, false},
		{"touching before", RoomSlotQuery{StartTime: "08:00", DurationHours: 1}, false, false},
		{"overlap inside", RoomSlotQuery{StartTime: "10:00", DurationHours: 2}, false, true},
		{"overlap containing", RoomSlotQuery{StartTime: "08:00", DurationHours: 4}, false, true},
		{"self excluded", RoomSlotQuery{StartTime: "09:00", DurationHours: 2, ExcludeGroupID: "g1"}, false, false},
		{"other day ignored when time only", RoomSlotQuery{StartTime: "10:00", DurationHours: 1, WeekDays: models.WeekDays{models.Tuesday}}, false, true},
		{"other day allowed when weekday aware", RoomSlotQuery{StartTime: "10:00", DurationHours: 1, WeekDays: models.WeekDays{models.Tuesday}}, true, false},
		{"shared day clashes when weekday aware", RoomSlotQuery{StartTime: "10:00", DurationHours: 1, WeekDays: models.WeekDays{models.Tuesday, models.Monday}}, true, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeRoomSlots{slots: []models.RoomSlot{existing}}
			checker := NewRoomAvailability(repo, tc.weekdayAware, nil)
			tc.query.RoomID = "room-1"

			busy, clash, err := checker.IsRoomBusy(context.Background(), tc.query)
			require.NoError(t, err)
			assert.Equal(t, tc.busy, busy)
			if tc.busy {
				require.NotNil(t, clash)
				assert.Equal(t, "g1", clash.GroupID)
			} else {
				assert.Nil(t, clash)
			}
			assert.Equal(t, "room-1", repo.lastRoom)
		})
	}
}

func TestRoomAvailabilityEmptyRoomIsFree(t *testing.T) {
	checker := NewRoomAvailability(&fakeRoomSlots{}, false, nil)
	busy, _, err := checker.IsRoomBusy(context.Background(), RoomSlotQuery{RoomID: "r", StartTime: "00:00", DurationHours: 24})
	require.NoError(t, err)
	assert.False(t, busy)
}

func TestRoomAvailabilityErrors(t *testing.T) {
	repo := &fakeRoomSlots{err: errors.New("db down")}
	checker := NewRoomAvailability(repo, false, nil)

	_, _, err := checker.IsRoomBusy(context.Background(), RoomSlotQuery{RoomID: "r", StartTime: "25:00", DurationHours: 1})
	require.Error(t, err)
	assert.Zero(t, repo.callCount)

	_, _, err = checker.IsRoomBusy(context.Background(), RoomSlotQuery{RoomID: "r", StartTime: "09:00", DurationHours: 1})
	assert.EqualError(t, err, "db down")
}

func TestRoomAvailabilitySkipsMalformedSlots(t *testing.T) {
	repo := &fakeRoomSlots{slots: []models.RoomSlot{{GroupID: "bad", StartTime: "nine", DurationHours: 1}}}
	checker := NewRoomAvailability(repo, false, nil)
	busy, _, err := checker.IsRoomBusy(context.Background(), RoomSlotQuery{RoomID: "r", StartTime: "09:00", DurationHours: 1})
	require.NoError(t, err)
	assert.False(t, busy)
}
