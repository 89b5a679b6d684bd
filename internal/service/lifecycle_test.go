package service

import (
	"context"
	"errors"
	"testing"

	"escala-service/api"
	"escala-service/internal/models"
	"escala-service/pkg/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedSchedule inserts a schedule with the given slots and returns its
// id along with the slot ids in date/time order.
func seedSchedule(store *memStore, districtID, churchID string, status models.ScheduleStatus, slots ...*models.Slot) (string, []string) {
	scheduleID, _ := store.CreateSchedule(context.Background(), &models.Schedule{
		Month:      3,
		Year:       2025,
		ChurchID:   churchID,
		DistrictID: districtID,
		Mode:       models.ModeAutomatic,
		Status:     status,
		Slots:      slots,
	})
	schedule, _ := store.GetSchedule(context.Background(), scheduleID)
	slotIDs := make([]string, 0, len(schedule.Slots))
	for _, slot := range schedule.Slots {
		slotIDs = append(slotIDs, slot.ID)
	}
	return scheduleID, slotIDs
}

func pendingSlot(date, timeOfDay string, preacherID *string, singerIDs ...string) *models.Slot {
	return &models.Slot{
		Date:       date,
		Time:       timeOfDay,
		PreacherID: preacherID,
		SingerIDs:  singerIDs,
		Status:     models.SlotPending,
	}
}

func TestConfirmSchedule_NotifiesAssignees(t *testing.T) {
	svc, store, _, notifier := newTestService()
	ctx := context.Background()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)
	singerID := seedSinger(store, districtID, "Singer")

	scheduleID, _ := seedSchedule(store, districtID, churchID, models.ScheduleDraft,
		pendingSlot("2025-03-16", "09:00", &preacherID, singerID))

	schedule, err := svc.ConfirmSchedule(ctx, scheduleID)
	require.NoError(t, err)
	assert.Equal(t, string(models.ScheduleConfirmed), schedule.Status)

	preacherNotes := notifier.sentTo(preacherID)
	require.Len(t, preacherNotes, 1)
	assert.Equal(t, "schedule_assignment", preacherNotes[0].Category)
	assert.Equal(t, "New Preaching Assignment", preacherNotes[0].Title)
	assert.Contains(t, preacherNotes[0].Message, "2025-03-16")

	singerNotes := notifier.sentTo(singerID)
	require.Len(t, singerNotes, 1)
	assert.Equal(t, "New Singing Assignment", singerNotes[0].Title)
}

func TestConfirmSchedule_IncompleteReportsFirstOpenDate(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)

	scheduleID, _ := seedSchedule(store, districtID, churchID, models.ScheduleDraft,
		pendingSlot("2025-03-09", "09:00", &preacherID),
		pendingSlot("2025-03-16", "09:00", nil),
		pendingSlot("2025-03-23", "09:00", nil))

	_, err := svc.ConfirmSchedule(ctx, scheduleID)
	require.Error(t, err)
	assert.ErrorIs(t, err, response.ErrIncompleteSchedule)

	var incomplete *response.IncompleteScheduleError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, "2025-03-16", incomplete.Date)

	stored, err := store.GetSchedule(ctx, scheduleID)
	require.NoError(t, err)
	assert.Equal(t, models.ScheduleDraft, stored.Status)
}

func TestConfirmSchedule_OnlyFromDraft(t *testing.T) {
	svc, store, _, _ := newTestService()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)

	scheduleID, _ := seedSchedule(store, districtID, churchID, models.ScheduleConfirmed,
		pendingSlot("2025-03-16", "09:00", &preacherID))

	_, err := svc.ConfirmSchedule(context.Background(), scheduleID)
	assert.ErrorIs(t, err, response.ErrInvalidTransition)
}

func TestConfirmParticipation(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)

	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleConfirmed,
		pendingSlot("2025-03-16", "09:00", &preacherID))

	slot, err := svc.ConfirmParticipation(ctx, slotIDs[0], preacherID)
	require.NoError(t, err)
	assert.Equal(t, string(models.SlotConfirmed), slot.Status)
	require.NotNil(t, slot.ConfirmedAt)
	assert.Equal(t, testNow, *slot.ConfirmedAt)
}

func TestConfirmParticipation_NotAssigned(t *testing.T) {
	svc, store, _, _ := newTestService()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)
	otherID := seedPreacher(store, districtID, "Other", 50)

	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleConfirmed,
		pendingSlot("2025-03-16", "09:00", &preacherID))

	_, err := svc.ConfirmParticipation(context.Background(), slotIDs[0], otherID)
	assert.ErrorIs(t, err, response.ErrNotAssigned)
}

func TestConfirmParticipation_OnlyPending(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)

	slot := pendingSlot("2025-03-16", "09:00", &preacherID)
	slot.Status = models.SlotConfirmed
	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleConfirmed, slot)

	_, err := svc.ConfirmParticipation(ctx, slotIDs[0], preacherID)
	assert.ErrorIs(t, err, response.ErrInvalidTransition)
}

func TestRefuseParticipation_PreacherClearedAndLeadersNotified(t *testing.T) {
	svc, store, _, notifier := newTestService()
	ctx := context.Background()

	districtID, pastorID := seedDistrict(store)
	leaderID, _ := store.CreatePerson(ctx, &models.Person{
		Name: "Leader", Role: models.RoleChurchLeader, DistrictID: &districtID, IsActive: true,
	})
	churchID := seedChurch(store, districtID)
	store.churches[churchID].LeaderID = &leaderID
	preacherID := seedPreacher(store, districtID, "Preacher", 50)

	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleConfirmed,
		pendingSlot("2025-03-16", "09:00", &preacherID))

	slot, err := svc.RefuseParticipation(ctx, slotIDs[0], preacherID, "traveling")
	require.NoError(t, err)
	assert.Equal(t, string(models.SlotRefused), slot.Status)
	assert.Nil(t, slot.PreacherID)
	require.NotNil(t, slot.RefusalReason)
	assert.Equal(t, "traveling", *slot.RefusalReason)

	for _, recipient := range []string{pastorID, leaderID} {
		notes := notifier.sentTo(recipient)
		require.Len(t, notes, 1, "recipient %s", recipient)
		assert.Equal(t, "schedule_refusal", notes[0].Category)
		assert.Contains(t, notes[0].Message, "traveling")
	}
}

func TestRefuseParticipation_SingerRemovedFromList(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)
	singerID := seedSinger(store, districtID, "Singer")
	otherSingerID := seedSinger(store, districtID, "Other Singer")

	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleConfirmed,
		pendingSlot("2025-03-16", "09:00", &preacherID, singerID, otherSingerID))

	slot, err := svc.RefuseParticipation(ctx, slotIDs[0], singerID, "sick")
	require.NoError(t, err)
	assert.Equal(t, []string{otherSingerID}, slot.Singers)
	assert.NotNil(t, slot.PreacherID)
}

func TestCancelParticipation_TwoDayWindow(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)

	// testNow is 2025-03-10. The 12th is exactly two days out and
	// passes; the 11th does not.
	near := pendingSlot("2025-03-11", "19:00", &preacherID)
	near.Status = models.SlotConfirmed
	far := pendingSlot("2025-03-12", "19:00", &preacherID)
	far.Status = models.SlotConfirmed
	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleActive, near, far)

	_, err := svc.CancelParticipation(ctx, slotIDs[0], preacherID, "conflict")
	assert.ErrorIs(t, err, response.ErrTooLate)

	slot, err := svc.CancelParticipation(ctx, slotIDs[1], preacherID, "conflict")
	require.NoError(t, err)
	assert.Equal(t, string(models.SlotCancelled), slot.Status)
	assert.Nil(t, slot.PreacherID)
	require.NotNil(t, slot.CancelledAt)
	assert.Equal(t, testNow, *slot.CancelledAt)
}

func TestCancelParticipation_RequiresConfirmedSlot(t *testing.T) {
	svc, store, _, _ := newTestService()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)

	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleActive,
		pendingSlot("2025-03-20", "19:00", &preacherID))

	_, err := svc.CancelParticipation(context.Background(), slotIDs[0], preacherID, "conflict")
	assert.ErrorIs(t, err, response.ErrInvalidTransition)
}

func TestVolunteerForSlot(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)

	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleConfirmed,
		pendingSlot("2025-03-16", "09:00", nil))

	slot, err := svc.VolunteerForSlot(ctx, slotIDs[0], preacherID)
	require.NoError(t, err)
	require.NotNil(t, slot.PreacherID)
	assert.Equal(t, preacherID, *slot.PreacherID)
	assert.Equal(t, string(models.SlotConfirmed), slot.Status)
	require.NotNil(t, slot.ConfirmedAt)
}

func TestVolunteerForSlot_AlreadyFilled(t *testing.T) {
	svc, store, _, _ := newTestService()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)
	otherID := seedPreacher(store, districtID, "Other", 50)

	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleConfirmed,
		pendingSlot("2025-03-16", "09:00", &preacherID))

	_, err := svc.VolunteerForSlot(context.Background(), slotIDs[0], otherID)
	assert.ErrorIs(t, err, response.ErrConflict)
}

func TestVolunteerForSlot_RequiresPreacherCapability(t *testing.T) {
	svc, store, _, _ := newTestService()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	singerID := seedSinger(store, districtID, "Singer")

	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleConfirmed,
		pendingSlot("2025-03-16", "09:00", nil))

	_, err := svc.VolunteerForSlot(context.Background(), slotIDs[0], singerID)
	assert.ErrorIs(t, err, response.ErrPermissionDenied)
}

func TestVolunteerForSlot_OccupiedElsewhere(t *testing.T) {
	svc, store, _, _ := newTestService()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	otherChurchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)

	seedSchedule(store, districtID, otherChurchID, models.ScheduleConfirmed,
		pendingSlot("2025-03-16", "18:00", &preacherID))
	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleConfirmed,
		pendingSlot("2025-03-16", "09:00", nil))

	_, err := svc.VolunteerForSlot(context.Background(), slotIDs[0], preacherID)
	require.Error(t, err)
	assert.ErrorIs(t, err, response.ErrConflict)

	var conflict *response.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, preacherID, conflict.PersonID)
	assert.Equal(t, "2025-03-16", conflict.Date)
}

func TestVolunteerForSlot_TerminalSlot(t *testing.T) {
	svc, store, _, _ := newTestService()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)

	slot := pendingSlot("2025-03-16", "09:00", nil)
	slot.Status = models.SlotCancelled
	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleConfirmed, slot)

	_, err := svc.VolunteerForSlot(context.Background(), slotIDs[0], preacherID)
	assert.ErrorIs(t, err, response.ErrInvalidTransition)
}

func TestUpdateSlotAssignments_ConflictLeavesSlotUntouched(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	otherChurchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)
	busyID := seedPreacher(store, districtID, "Busy", 50)

	seedSchedule(store, districtID, otherChurchID, models.ScheduleConfirmed,
		pendingSlot("2025-03-16", "18:00", &busyID))
	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleDraft,
		pendingSlot("2025-03-16", "09:00", &preacherID))

	_, err := svc.UpdateSlotAssignments(ctx, slotIDs[0], &api.SlotUpdateRequest{PreacherID: &busyID})
	require.Error(t, err)
	assert.ErrorIs(t, err, response.ErrConflict)

	slot, err := store.GetSlot(ctx, slotIDs[0])
	require.NoError(t, err)
	assert.Equal(t, preacherID, *slot.PreacherID)
}

func TestUpdateSlotAssignments_PatchSemantics(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)
	singerID := seedSinger(store, districtID, "Singer")

	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleDraft,
		pendingSlot("2025-03-16", "09:00", &preacherID))

	// Singers set, preacher untouched.
	slot, err := svc.UpdateSlotAssignments(ctx, slotIDs[0], &api.SlotUpdateRequest{
		Singers: &[]string{singerID},
	})
	require.NoError(t, err)
	require.NotNil(t, slot.PreacherID)
	assert.Equal(t, preacherID, *slot.PreacherID)
	assert.Equal(t, []string{singerID}, slot.Singers)

	// Empty singer list clears them.
	slot, err = svc.UpdateSlotAssignments(ctx, slotIDs[0], &api.SlotUpdateRequest{
		Singers: &[]string{},
	})
	require.NoError(t, err)
	assert.Empty(t, slot.Singers)
}

func TestUpdateSlotAssignments_OnlyPendingSlots(t *testing.T) {
	svc, store, _, _ := newTestService()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)

	slot := pendingSlot("2025-03-16", "09:00", nil)
	slot.Status = models.SlotConfirmed
	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleConfirmed, slot)

	_, err := svc.UpdateSlotAssignments(context.Background(), slotIDs[0], &api.SlotUpdateRequest{
		PreacherID: &preacherID,
	})
	assert.ErrorIs(t, err, response.ErrInvalidTransition)
}

func TestSlotOperations_HeldLock(t *testing.T) {
	svc, store, locker, _ := newTestService()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)

	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleConfirmed,
		pendingSlot("2025-03-16", "09:00", &preacherID))

	locker.held[slotLockKey(slotIDs[0])] = true

	_, err := svc.ConfirmParticipation(context.Background(), slotIDs[0], preacherID)
	assert.ErrorIs(t, err, response.ErrLocked)
}
