package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/educenter-api/internal/models"
	"github.com/noah-isme/educenter-api/pkg/timeslot"
)

type roomSlotReader interface {
	ListRoomSlots(ctx context.Context, roomID, excludeGroupID string) ([]models.RoomSlot, error)
}

// RoomSlotQuery describes a candidate weekly slot in a room.
type RoomSlotQuery struct {
	RoomID         string
	StartTime      string
	DurationHours  int
	WeekDays       models.WeekDays
	ExcludeGroupID string
}

// RoomAvailability decides whether a candidate slot clashes with the active groups of a room.
type RoomAvailability struct {
	groups       roomSlotReader
	weekdayAware bool
	logger       *zap.Logger
}

// NewRoomAvailability constructs the checker. With weekdayAware set, groups only
// clash when their week day sets intersect; otherwise every group in the room
// shares one daily timeline.
func NewRoomAvailability(groups roomSlotReader, weekdayAware bool, logger *zap.Logger) *RoomAvailability {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomAvailability{groups: groups, weekdayAware: weekdayAware, logger: logger}
}

// WeekdayAware reports whether week days participate in conflict detection.
func (r *RoomAvailability) WeekdayAware() bool {
	return r.weekdayAware
}

// IsRoomBusy returns true and the first clashing slot when the candidate overlaps an active group.
func (r *RoomAvailability) IsRoomBusy(ctx context.Context, q RoomSlotQuery) (bool, *models.RoomSlot, error) {
	candidate, err := timeslot.SessionWindow(q.StartTime, q.DurationHours)
	if err != nil {
		return false, nil, fmt.Errorf("candidate slot: %w", err)
	}

	slots, err := r.groups.ListRoomSlots(ctx, q.RoomID, q.ExcludeGroupID)
	if err != nil {
		return false, nil, err
	}

	for i := range slots {
		slot := slots[i]
		if r.weekdayAware && !slot.WeekDays.Intersects(q.WeekDays) {
			continue
		}
		existing, err := timeslot.SessionWindow(slot.StartTime, slot.DurationHours)
		if err != nil {
			r.logger.Warn("skipping group with malformed schedule",
				zap.String("group_id", slot.GroupID),
				zap.String("start_time", slot.StartTime),
				zap.Error(err))
			continue
		}
		if candidate.Overlaps(existing) {
			return true, &slot, nil
		}
	}
	return false, nil, nil
}
