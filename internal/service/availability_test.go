package service

import (
	"context"
	"testing"

	"escala-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailableInclusiveBounds(t *testing.T) {
	p := &models.Person{
		UnavailablePeriods: []models.UnavailablePeriod{
			{StartDate: "2025-03-10", EndDate: "2025-03-12"},
		},
	}

	assert.True(t, available(p, "2025-03-09"))
	assert.False(t, available(p, "2025-03-10"), "start date is covered")
	assert.False(t, available(p, "2025-03-11"))
	assert.False(t, available(p, "2025-03-12"), "end date is covered")
	assert.True(t, available(p, "2025-03-13"))
}

func TestAvailableNoPeriods(t *testing.T) {
	assert.True(t, available(&models.Person{}, "2025-03-10"))
}

func TestIsOccupiedOnlyCountsConfirmedSchedules(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)

	scheduleID, err := store.CreateSchedule(ctx, &models.Schedule{
		Month: 3, Year: 2025,
		ChurchID: churchID, DistrictID: districtID,
		GeneratedBy: "tester",
		Mode:        models.ModeManual,
		Status:      models.ScheduleDraft,
		Slots: []*models.Slot{
			{Date: "2025-03-16", Time: "09:00", PreacherID: &preacherID, SingerIDs: []string{}, Status: models.SlotPending},
		},
	})
	require.NoError(t, err)

	// Draft schedules are invisible to the occupancy check.
	occupied, err := svc.IsOccupied(ctx, preacherID, "2025-03-16")
	require.NoError(t, err)
	assert.False(t, occupied)

	require.NoError(t, store.UpdateScheduleStatus(ctx, scheduleID, models.ScheduleConfirmed))

	occupied, err = svc.IsOccupied(ctx, preacherID, "2025-03-16")
	require.NoError(t, err)
	assert.True(t, occupied)

	// A different date stays free.
	occupied, err = svc.IsOccupied(ctx, preacherID, "2025-03-23")
	require.NoError(t, err)
	assert.False(t, occupied)
}

func TestIsOccupiedIgnoresReleasedSlots(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)

	scheduleID, err := store.CreateSchedule(ctx, &models.Schedule{
		Month: 3, Year: 2025,
		ChurchID: churchID, DistrictID: districtID,
		GeneratedBy: "tester",
		Mode:        models.ModeManual,
		Status:      models.ScheduleDraft,
		Slots: []*models.Slot{
			{Date: "2025-03-16", Time: "09:00", PreacherID: &preacherID, SingerIDs: []string{}, Status: models.SlotRefused},
		},
	})
	require.NoError(t, err)
	require.NoError(t, store.UpdateScheduleStatus(ctx, scheduleID, models.ScheduleConfirmed))

	occupied, err := svc.IsOccupied(ctx, preacherID, "2025-03-16")
	require.NoError(t, err)
	assert.False(t, occupied, "refused slots do not occupy")
}

func TestIsOccupiedSeesSingers(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	singerID := seedSinger(store, districtID, "Singer")

	scheduleID, err := store.CreateSchedule(ctx, &models.Schedule{
		Month: 3, Year: 2025,
		ChurchID: churchID, DistrictID: districtID,
		GeneratedBy: "tester",
		Mode:        models.ModeManual,
		Status:      models.ScheduleDraft,
		Slots: []*models.Slot{
			{Date: "2025-03-16", Time: "09:00", SingerIDs: []string{singerID}, Status: models.SlotConfirmed},
		},
	})
	require.NoError(t, err)
	require.NoError(t, store.UpdateScheduleStatus(ctx, scheduleID, models.ScheduleConfirmed))

	occupied, err := svc.IsOccupied(ctx, singerID, "2025-03-16")
	require.NoError(t, err)
	assert.True(t, occupied)
}

func TestDaysUntil(t *testing.T) {
	days, err := daysUntil(testNow, "2025-03-12")
	require.NoError(t, err)
	assert.Equal(t, 2, days)

	days, err = daysUntil(testNow, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 0, days)

	days, err = daysUntil(testNow, "2025-03-08")
	require.NoError(t, err)
	assert.Equal(t, -2, days)

	_, err = daysUntil(testNow, "not-a-date")
	assert.Error(t, err)
}
