package service

import (
	"context"
	"testing"
	"time"

	"escala-service/api"
	"escala-service/internal/models"
	"escala-service/pkg/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateExpandsServiceDaysOverMonth(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, pastorID := seedDistrict(store)
	churchID := seedChurch(store, districtID,
		models.ServiceDay{Weekday: "wednesday", Time: "19:00"},
		models.ServiceDay{Weekday: "saturday", Time: "09:00"},
	)
	seedPreacher(store, districtID, "Preacher", 50)

	schedules, err := svc.GenerateAutoSchedules(ctx, &api.GenerateScheduleRequest{
		Month: 3, Year: 2025, DistrictID: districtID, ChurchID: &churchID,
	}, pastorID)
	require.NoError(t, err)
	require.Len(t, schedules, 1)

	// March 2025: Saturdays 1,8,15,22,29 and Wednesdays 5,12,19,26.
	slots := schedules[0].Slots
	require.Len(t, slots, 9)

	assert.Equal(t, "2025-03-01", slots[0].Date)
	assert.Equal(t, "09:00", slots[0].Time)
	assert.Equal(t, "2025-03-05", slots[1].Date)
	assert.Equal(t, "19:00", slots[1].Time)
	assert.Equal(t, "2025-03-29", slots[8].Date)

	for _, slot := range slots {
		assert.Equal(t, string(models.SlotPending), slot.Status)
	}
	assert.Equal(t, string(models.ScheduleDraft), schedules[0].Status)
	assert.Equal(t, string(models.ModeAutomatic), schedules[0].Mode)
}

func TestGenerateDuplicateWeekdayDefinitionsMakeMultipleSlots(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, pastorID := seedDistrict(store)
	churchID := seedChurch(store, districtID,
		models.ServiceDay{Weekday: "sunday", Time: "09:00"},
		models.ServiceDay{Weekday: "sunday", Time: "18:00"},
	)
	seedPreacher(store, districtID, "Preacher", 50)

	schedules, err := svc.GenerateAutoSchedules(ctx, &api.GenerateScheduleRequest{
		Month: 3, Year: 2025, DistrictID: districtID, ChurchID: &churchID,
	}, pastorID)
	require.NoError(t, err)
	require.Len(t, schedules, 1)

	// March 2025 has five Sundays, two services each.
	slots := schedules[0].Slots
	require.Len(t, slots, 10)
	assert.Equal(t, slots[0].Date, slots[1].Date)
	assert.NotEqual(t, slots[0].Time, slots[1].Time)
}

func TestGenerateRotationSharedAcrossChurches(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, pastorID := seedDistrict(store)
	seedChurch(store, districtID, models.ServiceDay{Weekday: "sunday", Time: "09:00"})
	seedChurch(store, districtID, models.ServiceDay{Weekday: "sunday", Time: "09:00"})
	seedPreacher(store, districtID, "Alpha", 80)
	seedPreacher(store, districtID, "Beta", 60)

	schedules, err := svc.GenerateAutoSchedules(ctx, &api.GenerateScheduleRequest{
		Month: 3, Year: 2025, DistrictID: districtID,
	}, pastorID)
	require.NoError(t, err)
	require.Len(t, schedules, 2)

	// Both schedules are drafts and invisible to the occupancy query,
	// yet no preacher may hold two churches' slots on one date.
	byDate := make(map[string][]string)
	for _, schedule := range schedules {
		for _, slot := range schedule.Slots {
			require.NotNil(t, slot.PreacherID, "two preachers cover two churches")
			byDate[slot.Date] = append(byDate[slot.Date], *slot.PreacherID)
		}
	}
	for date, preachers := range byDate {
		require.Len(t, preachers, 2)
		assert.NotEqual(t, preachers[0], preachers[1], "double booking on %s", date)
	}
}

func TestGenerateUnavailablePreacherSkipped(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, pastorID := seedDistrict(store)
	churchID := seedChurch(store, districtID, models.ServiceDay{Weekday: "sunday", Time: "09:00"})

	strongID := seedPreacher(store, districtID, "Strong", 80)
	weakID := seedPreacher(store, districtID, "Weak", 40)

	// Alternation would hand the third Sunday to Strong, but Strong is
	// away that week.
	store.persons[strongID].UnavailablePeriods = []models.UnavailablePeriod{
		{StartDate: "2025-03-14", EndDate: "2025-03-18"},
	}

	schedules, err := svc.GenerateAutoSchedules(ctx, &api.GenerateScheduleRequest{
		Month: 3, Year: 2025, DistrictID: districtID, ChurchID: &churchID,
	}, pastorID)
	require.NoError(t, err)
	require.Len(t, schedules, 1)

	slots := schedules[0].Slots
	require.Len(t, slots, 5)
	require.NotNil(t, slots[0].PreacherID)
	assert.Equal(t, strongID, *slots[0].PreacherID, "first Sunday goes to the top score")
	require.NotNil(t, slots[2].PreacherID)
	assert.Equal(t, weakID, *slots[2].PreacherID, "unavailable preacher skipped on 2025-03-16")
}

func TestGenerateLeavesSlotUnassignedWhenNobodyEligible(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, pastorID := seedDistrict(store)
	churchID := seedChurch(store, districtID, models.ServiceDay{Weekday: "sunday", Time: "09:00"})

	preacherID := seedPreacher(store, districtID, "Only", 50)
	store.persons[preacherID].UnavailablePeriods = []models.UnavailablePeriod{
		{StartDate: "2025-03-01", EndDate: "2025-03-31"},
	}

	schedules, err := svc.GenerateAutoSchedules(ctx, &api.GenerateScheduleRequest{
		Month: 3, Year: 2025, DistrictID: districtID, ChurchID: &churchID,
	}, pastorID)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	require.NotEmpty(t, schedules[0].Slots)

	for _, slot := range schedules[0].Slots {
		assert.Nil(t, slot.PreacherID, "slot stays open instead of being dropped")
		assert.Equal(t, string(models.SlotPending), slot.Status)
	}
}

func TestGenerateSingleChurchDuplicateFails(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, pastorID := seedDistrict(store)
	churchID := seedChurch(store, districtID, models.ServiceDay{Weekday: "sunday", Time: "09:00"})
	seedPreacher(store, districtID, "Preacher", 50)

	req := &api.GenerateScheduleRequest{Month: 3, Year: 2025, DistrictID: districtID, ChurchID: &churchID}

	_, err := svc.GenerateAutoSchedules(ctx, req, pastorID)
	require.NoError(t, err)

	_, err = svc.GenerateAutoSchedules(ctx, req, pastorID)
	assert.ErrorIs(t, err, response.ErrScheduleExists)
}

func TestGenerateDistrictWideSkipsExistingAndEmptyChurches(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, pastorID := seedDistrict(store)
	coveredID := seedChurch(store, districtID, models.ServiceDay{Weekday: "sunday", Time: "09:00"})
	openID := seedChurch(store, districtID, models.ServiceDay{Weekday: "sunday", Time: "09:00"})
	seedChurch(store, districtID) // no service days, never scheduled
	seedPreacher(store, districtID, "Preacher", 50)

	_, err := svc.GenerateAutoSchedules(ctx, &api.GenerateScheduleRequest{
		Month: 3, Year: 2025, DistrictID: districtID, ChurchID: &coveredID,
	}, pastorID)
	require.NoError(t, err)

	schedules, err := svc.GenerateAutoSchedules(ctx, &api.GenerateScheduleRequest{
		Month: 3, Year: 2025, DistrictID: districtID,
	}, pastorID)
	require.NoError(t, err)
	require.Len(t, schedules, 1, "covered church skipped, empty church skipped")
	assert.Equal(t, openID, schedules[0].ChurchID)
}

func TestGenerateHeldLockFails(t *testing.T) {
	svc, store, locker, _ := newTestService()
	ctx := context.Background()

	districtID, pastorID := seedDistrict(store)
	seedChurch(store, districtID, models.ServiceDay{Weekday: "sunday", Time: "09:00"})
	seedPreacher(store, districtID, "Preacher", 50)

	locker.held[generateLockKey(districtID, 3, 2025)] = true

	_, err := svc.GenerateAutoSchedules(ctx, &api.GenerateScheduleRequest{
		Month: 3, Year: 2025, DistrictID: districtID,
	}, pastorID)
	assert.ErrorIs(t, err, response.ErrLocked)
}

func TestGenerateUnknownDistrict(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.GenerateAutoSchedules(context.Background(), &api.GenerateScheduleRequest{
		Month: 3, Year: 2025, DistrictID: "missing",
	}, "caller")
	assert.ErrorIs(t, err, response.ErrNotFound)
}

func TestCreateManualScheduleAllSlotsOpen(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, pastorID := seedDistrict(store)
	churchID := seedChurch(store, districtID, models.ServiceDay{Weekday: "wednesday", Time: "19:00"})
	seedPreacher(store, districtID, "Preacher", 50)

	schedule, err := svc.CreateManualSchedule(ctx, &api.ManualScheduleRequest{
		Month: 3, Year: 2025, ChurchID: churchID,
	}, pastorID)
	require.NoError(t, err)

	require.Len(t, schedule.Slots, 4)
	for _, slot := range schedule.Slots {
		assert.Nil(t, slot.PreacherID)
		assert.Empty(t, slot.Singers)
	}
	assert.Equal(t, string(models.ModeManual), schedule.Mode)
}

func TestParseWeekdayFlexible(t *testing.T) {
	cases := []struct {
		in   string
		want time.Weekday
		ok   bool
	}{
		{"sunday", time.Sunday, true},
		{"Wednesday", time.Wednesday, true},
		{"  SAT ", time.Saturday, true},
		{"0", time.Sunday, true},
		{"7", time.Sunday, true},
		{"3", time.Wednesday, true},
		{"quarta-feira", time.Wednesday, true},
		{"domingo", time.Sunday, true},
		{"sábado", time.Saturday, true},
		{"8", 0, false},
		{"someday", 0, false},
		{"", 0, false},
	}

	for _, tc := range cases {
		got, ok := parseWeekdayFlexible(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "input %q", tc.in)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 31, daysInMonth(3, 2025))
	assert.Equal(t, 28, daysInMonth(2, 2025))
	assert.Equal(t, 29, daysInMonth(2, 2024))
	assert.Equal(t, 30, daysInMonth(4, 2025))
}
