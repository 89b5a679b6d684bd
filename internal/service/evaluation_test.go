package service

import (
	"context"
	"testing"

	"escala-service/api"
	"escala-service/internal/models"
	"escala-service/pkg/response"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func evaluationFixture(t *testing.T) (*Service, *memStore, string, string, string) {
	t.Helper()
	svc, store, _, _ := newTestService()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)

	slot := pendingSlot("2025-03-09", "09:00", &preacherID)
	slot.Status = models.SlotCompleted
	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleActive, slot)

	return svc, store, churchID, preacherID, slotIDs[0]
}

func TestCreateEvaluation_AdjustsScore(t *testing.T) {
	cases := []struct {
		name   string
		rating int
		want   float64
	}{
		{"top rating raises by four", 5, 54},
		{"above average raises by two", 4, 52},
		{"average keeps score", 3, 50},
		{"poor lowers by two", 2, 48},
		{"worst lowers by four", 1, 46},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, store, churchID, preacherID, slotID := evaluationFixture(t)

			evaluation, err := svc.CreateEvaluation(context.Background(), &api.EvaluationCreateRequest{
				SlotID:     slotID,
				ChurchID:   churchID,
				MemberType: "preacher",
				PersonID:   preacherID,
				Rating:     tc.rating,
			})
			require.NoError(t, err)
			assert.Equal(t, tc.rating, evaluation.Rating)
			assert.InDelta(t, tc.want, store.persons[preacherID].PreachingScore, 0.0001)
		})
	}
}

func TestCreateEvaluation_ScoreClamped(t *testing.T) {
	svc, store, churchID, preacherID, slotID := evaluationFixture(t)
	ctx := context.Background()

	store.persons[preacherID].PreachingScore = 99

	_, err := svc.CreateEvaluation(ctx, &api.EvaluationCreateRequest{
		SlotID: slotID, ChurchID: churchID, MemberType: "preacher", PersonID: preacherID, Rating: 5,
	})
	require.NoError(t, err)
	assert.InDelta(t, 100, store.persons[preacherID].PreachingScore, 0.0001)

	store.persons[preacherID].PreachingScore = 1

	_, err = svc.CreateEvaluation(ctx, &api.EvaluationCreateRequest{
		SlotID: slotID, ChurchID: churchID, MemberType: "preacher", PersonID: preacherID, Rating: 1,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0, store.persons[preacherID].PreachingScore, 0.0001)
}

func TestCreateEvaluation_SingerScoreSeparate(t *testing.T) {
	svc, store, _, _ := newTestService()
	ctx := context.Background()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)
	singerID := seedSinger(store, districtID, "Singer")

	slot := pendingSlot("2025-03-09", "09:00", &preacherID, singerID)
	slot.Status = models.SlotCompleted
	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleActive, slot)

	_, err := svc.CreateEvaluation(ctx, &api.EvaluationCreateRequest{
		SlotID: slotIDs[0], ChurchID: churchID, MemberType: "singer", PersonID: singerID, Rating: 5,
	})
	require.NoError(t, err)
	assert.InDelta(t, 54, store.persons[singerID].SingingScore, 0.0001)
	assert.InDelta(t, 50, store.persons[singerID].PreachingScore, 0.0001)
}

func TestCreateEvaluation_FutureServiceRejected(t *testing.T) {
	svc, store, _, _ := newTestService()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)

	// testNow is 2025-03-10; the slot is six days out.
	slot := pendingSlot("2025-03-16", "09:00", &preacherID)
	slot.Status = models.SlotConfirmed
	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleActive, slot)

	_, err := svc.CreateEvaluation(context.Background(), &api.EvaluationCreateRequest{
		SlotID: slotIDs[0], ChurchID: churchID, MemberType: "preacher", PersonID: preacherID, Rating: 5,
	})
	assert.ErrorIs(t, err, response.ErrBadRequest)
	assert.InDelta(t, 50, store.persons[preacherID].PreachingScore, 0.0001)
}

func TestCreateEvaluation_SameDayAllowed(t *testing.T) {
	svc, store, _, _ := newTestService()

	districtID, _ := seedDistrict(store)
	churchID := seedChurch(store, districtID)
	preacherID := seedPreacher(store, districtID, "Preacher", 50)

	slot := pendingSlot("2025-03-10", "09:00", &preacherID)
	slot.Status = models.SlotConfirmed
	_, slotIDs := seedSchedule(store, districtID, churchID, models.ScheduleActive, slot)

	_, err := svc.CreateEvaluation(context.Background(), &api.EvaluationCreateRequest{
		SlotID: slotIDs[0], ChurchID: churchID, MemberType: "preacher", PersonID: preacherID, Rating: 4,
	})
	assert.NoError(t, err)
}

func TestListEvaluationsByPerson(t *testing.T) {
	svc, _, churchID, preacherID, slotID := evaluationFixture(t)
	ctx := context.Background()

	comment := "solid message"
	_, err := svc.CreateEvaluation(ctx, &api.EvaluationCreateRequest{
		SlotID: slotID, ChurchID: churchID, MemberType: "preacher", PersonID: preacherID,
		Rating: 4, Comment: &comment,
	})
	require.NoError(t, err)
	_, err = svc.CreateEvaluation(ctx, &api.EvaluationCreateRequest{
		SlotID: slotID, ChurchID: churchID, MemberType: "preacher", PersonID: preacherID, Rating: 2,
	})
	require.NoError(t, err)

	evaluations, err := svc.ListEvaluationsByPerson(ctx, preacherID)
	require.NoError(t, err)
	require.Len(t, evaluations, 2)

	other, err := svc.ListEvaluationsByPerson(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, other)
}
