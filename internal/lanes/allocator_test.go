package lanes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/lane-ops/internal/model"
)

// 2025-06-07 is a Saturday.
const (
	testDate = "2025-06-07"
	testTime = "18:00"
)

const (
	typeCoopOpen uint64 = iota + 1
	typeVersusOpen
	typeCoopPrivate
	typeVersusPrivate
)

func testTypes() []model.ReservationType {
	six := 6
	return []model.ReservationType{
		{ID: typeCoopOpen, Name: "Open Co-op", Mode: model.ModeCoop, Style: model.StyleOpen, Active: true},
		{ID: typeVersusOpen, Name: "Open Versus", Mode: model.ModeVersus, Style: model.StyleOpen, Active: true},
		{ID: typeCoopPrivate, Name: "Private Co-op", Mode: model.ModeCoop, Style: model.StylePrivate, MaxPlayers: &six, Active: true},
		{ID: typeVersusPrivate, Name: "Private Versus", Mode: model.ModeVersus, Style: model.StylePrivate, Active: true},
	}
}

func testTemplates(lanes int) []model.SessionTemplate {
	return []model.SessionTemplate{
		{ID: 1, DayOfWeek: "Saturday", StartTime: testTime, MaxSessions: lanes, Active: true},
		{ID: 2, DayOfWeek: "Saturday", StartTime: "20:00", MaxSessions: lanes, Active: true},
		{ID: 3, DayOfWeek: "Sunday", StartTime: testTime, MaxSessions: lanes, Active: true},
	}
}

func res(id, typeID uint64, players int, status string) model.Reservation {
	return model.Reservation{
		ID:          id,
		TypeID:      typeID,
		Date:        testDate,
		StartTime:   testTime,
		PlayerCount: players,
		Status:      status,
	}
}

func TestAllocatePrivateThenOpen(t *testing.T) {
	rs := []model.Reservation{
		res(1, typeCoopOpen, 2, model.StatusConfirmed),
		res(2, typeCoopPrivate, 4, model.StatusConfirmed),
		res(3, typeCoopOpen, 3, model.StatusConfirmed),
	}
	a := Allocate(testDate, testTime, rs, testTypes(), testTemplates(2))

	require.NotNil(t, a.Template)
	require.Len(t, a.Lanes, 2)
	assert.Empty(t, a.Unplaced)

	assert.Equal(t, TypePrivate, a.Lanes[0].Type)
	assert.Equal(t, model.ModeCoop, a.Lanes[0].Mode)
	assert.Equal(t, 4, a.Lanes[0].PlayerCount)

	assert.Equal(t, TypeOpen, a.Lanes[1].Type)
	assert.Equal(t, 5, a.Lanes[1].PlayerCount)
	assert.Len(t, a.Lanes[1].Reservations, 2)
	assert.Equal(t, 2, a.LaneOf(3))
}

func TestAllocateOpenPooling(t *testing.T) {
	rs := []model.Reservation{
		res(1, typeCoopOpen, 4, model.StatusConfirmed),
		res(2, typeCoopOpen, 3, model.StatusConfirmed), // does not fit lane 1
		res(3, typeCoopOpen, 2, model.StatusConfirmed), // fits lane 1
		res(4, typeVersusOpen, 10, model.StatusConfirmed),
	}
	a := Allocate(testDate, testTime, rs, testTypes(), testTemplates(3))

	require.Len(t, a.Lanes, 3)
	assert.Equal(t, 6, a.Lanes[0].PlayerCount)
	assert.Equal(t, 3, a.Lanes[1].PlayerCount)
	assert.Equal(t, model.ModeVersus, a.Lanes[2].Mode)
	assert.Equal(t, 10, a.Lanes[2].PlayerCount)
	assert.Equal(t, 0, a.FreeLanes())
}

func TestAllocateOverflowStaysInModeLane(t *testing.T) {
	rs := []model.Reservation{
		res(1, typeCoopOpen, 5, model.StatusConfirmed),
		res(2, typeCoopOpen, 4, model.StatusConfirmed),
	}
	a := Allocate(testDate, testTime, rs, testTypes(), testTemplates(1))

	require.Len(t, a.Lanes, 1)
	assert.Empty(t, a.Unplaced)
	assert.Equal(t, 9, a.Lanes[0].PlayerCount)
}

func TestAllocateUnplaced(t *testing.T) {
	rs := []model.Reservation{
		res(1, typeCoopPrivate, 4, model.StatusConfirmed),
		res(2, typeVersusPrivate, 8, model.StatusConfirmed),
		res(3, typeVersusOpen, 4, model.StatusConfirmed), // no versus lane and no free lane
		res(4, 99, 2, model.StatusConfirmed),            // unknown type
	}
	a := Allocate(testDate, testTime, rs, testTypes(), testTemplates(1))

	require.Len(t, a.Lanes, 1)
	ids := make([]uint64, 0, len(a.Unplaced))
	for _, r := range a.Unplaced {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []uint64{2, 3, 4}, ids)
	assert.Len(t, a.Reservations(), 4)
}

func TestAllocateNoTemplate(t *testing.T) {
	rs := []model.Reservation{
		res(1, typeCoopOpen, 2, model.StatusConfirmed),
		res(2, typeCoopOpen, 2, model.StatusCancelled),
	}
	a := Allocate(testDate, testTime, rs, testTypes(), nil)

	assert.Nil(t, a.Template)
	assert.Empty(t, a.Lanes)
	require.Len(t, a.Unplaced, 1)
	assert.Equal(t, uint64(1), a.Unplaced[0].ID)
}

func TestAllocateSkipsInactiveTemplateAndOtherSlots(t *testing.T) {
	tmpls := testTemplates(2)
	tmpls[0].Active = false
	other := res(2, typeCoopOpen, 2, model.StatusConfirmed)
	other.StartTime = "20:00"

	a := Allocate(testDate, testTime, []model.Reservation{res(1, typeCoopOpen, 2, model.StatusConfirmed), other}, testTypes(), tmpls)

	assert.Nil(t, a.Template)
	require.Len(t, a.Unplaced, 1)
	assert.Equal(t, uint64(1), a.Unplaced[0].ID)
}

func TestAllocateZeroPlayerCountCountsAsOne(t *testing.T) {
	a := Allocate(testDate, testTime, []model.Reservation{res(1, typeCoopOpen, 0, model.StatusConfirmed)}, testTypes(), testTemplates(1))
	assert.Equal(t, 1, a.Lanes[0].PlayerCount)
}

func TestAllocateDeterministic(t *testing.T) {
	rs := []model.Reservation{
		res(1, typeCoopOpen, 3, model.StatusArrived),
		res(2, typeVersusPrivate, 9, model.StatusConfirmed),
		res(3, typeVersusOpen, 7, model.StatusConfirmed),
		res(4, typeCoopOpen, 4, model.StatusNoShow),
	}
	first := Allocate(testDate, testTime, rs, testTypes(), testTemplates(3))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Allocate(testDate, testTime, rs, testTypes(), testTemplates(3)))
	}
}

func TestSlotTimes(t *testing.T) {
	rs := []model.Reservation{
		{ID: 1, Date: testDate, StartTime: "12:00", Status: model.StatusConfirmed},
		{ID: 2, Date: testDate, StartTime: "09:00", Status: model.StatusCancelled},
		{ID: 3, Date: "2025-06-08", StartTime: "10:00", Status: model.StatusConfirmed},
	}
	assert.Equal(t, []string{"12:00", "18:00", "20:00"}, SlotTimes(testDate, testTemplates(2), rs))
	assert.Nil(t, SessionsForDate("not-a-date", testTemplates(2)))
}

func TestCapacity(t *testing.T) {
	tests := []struct {
		mode string
		want int
	}{
		{model.ModeCoop, 6},
		{model.ModeVersus, 12},
		{"", 6},
	}
	for _, tt := range tests {
		if got := Capacity(tt.mode); got != tt.want {
			t.Errorf("Capacity(%q) = %d, want %d", tt.mode, got, tt.want)
		}
	}
}
