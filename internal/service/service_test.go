package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"escala-service/internal/models"
	"escala-service/pkg/response"
)

// memStore is an in-memory Store used across the service tests. It
// mirrors the storage contract: reads hand out copies, occupancy spans
// only confirmed and active schedules, listings keep insertion order.
type memStore struct {
	districts   map[string]*models.District
	churches    map[string]*models.Church
	persons     map[string]*models.Person
	personOrder []string
	schedules   map[string]*models.Schedule
	slots       map[string]*models.Slot
	subs        map[string]*models.SubstitutionRequest
	notes       []*models.Notification
	evals       map[string]*models.Evaluation
	delegations map[string]*models.Delegation
	seq         int
}

func newMemStore() *memStore {
	return &memStore{
		districts:   make(map[string]*models.District),
		churches:    make(map[string]*models.Church),
		persons:     make(map[string]*models.Person),
		schedules:   make(map[string]*models.Schedule),
		slots:       make(map[string]*models.Slot),
		subs:        make(map[string]*models.SubstitutionRequest),
		evals:       make(map[string]*models.Evaluation),
		delegations: make(map[string]*models.Delegation),
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) CreateDistrict(_ context.Context, district *models.District) (string, error) {
	id := m.nextID("district")
	d := *district
	d.ID = id
	m.districts[id] = &d
	return id, nil
}

func (m *memStore) GetDistrict(_ context.Context, id string) (*models.District, error) {
	district, ok := m.districts[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	d := *district
	return &d, nil
}

func (m *memStore) CreateChurch(_ context.Context, church *models.Church) (string, error) {
	id := m.nextID("church")
	c := *church
	c.ID = id
	m.churches[id] = &c
	return id, nil
}

func (m *memStore) GetChurch(_ context.Context, id string) (*models.Church, error) {
	church, ok := m.churches[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	c := *church
	return &c, nil
}

func (m *memStore) ListChurches(_ context.Context, districtID string) ([]*models.Church, error) {
	var ids []string
	for id, church := range m.churches {
		if church.DistrictID == districtID && church.IsActive {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	result := make([]*models.Church, 0, len(ids))
	for _, id := range ids {
		c := *m.churches[id]
		result = append(result, &c)
	}
	return result, nil
}

func (m *memStore) CreatePerson(_ context.Context, person *models.Person) (string, error) {
	id := m.nextID("person")
	p := *person
	p.ID = id
	m.persons[id] = &p
	m.personOrder = append(m.personOrder, id)
	return id, nil
}

func (m *memStore) GetPerson(_ context.Context, id string) (*models.Person, error) {
	person, ok := m.persons[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	p := *person
	return &p, nil
}

func (m *memStore) listPersons(districtID string, keep func(*models.Person) bool) []*models.Person {
	var result []*models.Person
	for _, id := range m.personOrder {
		person := m.persons[id]
		if person.DistrictID != nil && *person.DistrictID == districtID && person.IsActive && keep(person) {
			p := *person
			result = append(result, &p)
		}
	}
	return result
}

func (m *memStore) ListPreachers(_ context.Context, districtID string) ([]*models.Person, error) {
	return m.listPersons(districtID, func(p *models.Person) bool { return p.IsPreacher }), nil
}

func (m *memStore) ListSingers(_ context.Context, districtID string) ([]*models.Person, error) {
	return m.listPersons(districtID, func(p *models.Person) bool { return p.IsSinger }), nil
}

func (m *memStore) SetPersonScore(_ context.Context, personID string, memberType models.MemberType, score float64) error {
	person, ok := m.persons[personID]
	if !ok {
		return response.ErrNotFound
	}
	if memberType == models.MemberSinger {
		person.SingingScore = score
	} else {
		person.PreachingScore = score
	}
	return nil
}

func (m *memStore) ScheduleExists(_ context.Context, churchID string, month, year int) (bool, error) {
	for _, schedule := range m.schedules {
		if schedule.ChurchID == churchID && schedule.Month == month && schedule.Year == year {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CreateSchedule(_ context.Context, schedule *models.Schedule) (string, error) {
	id := m.nextID("schedule")
	sc := *schedule
	sc.ID = id
	sc.Slots = nil
	m.schedules[id] = &sc

	for _, slot := range schedule.Slots {
		slotID := m.nextID("slot")
		sl := copySlot(slot)
		sl.ID = slotID
		sl.ScheduleID = id
		m.slots[slotID] = sl
	}
	return id, nil
}

func copySlot(slot *models.Slot) *models.Slot {
	sl := *slot
	sl.SingerIDs = append([]string(nil), slot.SingerIDs...)
	return &sl
}

func (m *memStore) scheduleSlots(scheduleID string) []*models.Slot {
	var slots []*models.Slot
	for _, slot := range m.slots {
		if slot.ScheduleID == scheduleID {
			slots = append(slots, copySlot(slot))
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		return slots[i].Time < slots[j].Time
	})
	return slots
}

func (m *memStore) GetSchedule(_ context.Context, id string) (*models.Schedule, error) {
	schedule, ok := m.schedules[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	sc := *schedule
	sc.Slots = m.scheduleSlots(id)
	return &sc, nil
}

func (m *memStore) ListSchedules(_ context.Context, filters *ScheduleFilters) ([]*models.Schedule, error) {
	var ids []string
	for id, schedule := range m.schedules {
		if filters != nil {
			if filters.Month != nil && schedule.Month != *filters.Month {
				continue
			}
			if filters.Year != nil && schedule.Year != *filters.Year {
				continue
			}
			if filters.ChurchID != nil && schedule.ChurchID != *filters.ChurchID {
				continue
			}
			if filters.DistrictID != nil && schedule.DistrictID != *filters.DistrictID {
				continue
			}
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	result := make([]*models.Schedule, 0, len(ids))
	for _, id := range ids {
		sc := *m.schedules[id]
		sc.Slots = m.scheduleSlots(id)
		result = append(result, &sc)
	}
	return result, nil
}

func (m *memStore) UpdateScheduleStatus(_ context.Context, id string, status models.ScheduleStatus) error {
	schedule, ok := m.schedules[id]
	if !ok {
		return response.ErrNotFound
	}
	schedule.Status = status
	return nil
}

func (m *memStore) DeleteSchedule(_ context.Context, id string) error {
	if _, ok := m.schedules[id]; !ok {
		return response.ErrNotFound
	}
	delete(m.schedules, id)
	for slotID, slot := range m.slots {
		if slot.ScheduleID == id {
			delete(m.slots, slotID)
		}
	}
	return nil
}

func (m *memStore) GetSlot(_ context.Context, id string) (*models.Slot, error) {
	slot, ok := m.slots[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	return copySlot(slot), nil
}

func (m *memStore) UpdateSlot(_ context.Context, slot *models.Slot) error {
	if _, ok := m.slots[slot.ID]; !ok {
		return response.ErrNotFound
	}
	m.slots[slot.ID] = copySlot(slot)
	return nil
}

func (m *memStore) ListOccupancySlots(_ context.Context, date string) ([]*models.Slot, error) {
	var result []*models.Slot
	for _, slot := range m.slots {
		if slot.Date != date {
			continue
		}
		schedule, ok := m.schedules[slot.ScheduleID]
		if !ok {
			continue
		}
		if schedule.Status != models.ScheduleConfirmed && schedule.Status != models.ScheduleActive {
			continue
		}
		result = append(result, copySlot(slot))
	}
	return result, nil
}

func (m *memStore) CreateSubstitution(_ context.Context, sub *models.SubstitutionRequest) (string, error) {
	id := m.nextID("sub")
	s := *sub
	s.ID = id
	m.subs[id] = &s
	return id, nil
}

func (m *memStore) GetSubstitution(_ context.Context, id string) (*models.SubstitutionRequest, error) {
	sub, ok := m.subs[id]
	if !ok {
		return nil, response.ErrNotFound
	}
	s := *sub
	return &s, nil
}

func (m *memStore) UpdateSubstitutionStatus(_ context.Context, id string, status models.SubstitutionStatus, respondedAt time.Time) error {
	sub, ok := m.subs[id]
	if !ok {
		return response.ErrNotFound
	}
	sub.Status = status
	sub.RespondedAt = &respondedAt
	return nil
}

func (m *memStore) ListPendingSubstitutions(_ context.Context, targetID string) ([]*models.SubstitutionRequest, error) {
	var ids []string
	for id, sub := range m.subs {
		if sub.TargetID == targetID && sub.Status == models.SubstitutionPending {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	result := make([]*models.SubstitutionRequest, 0, len(ids))
	for _, id := range ids {
		s := *m.subs[id]
		result = append(result, &s)
	}
	return result, nil
}

func (m *memStore) CreateNotification(_ context.Context, notification *models.Notification) (string, error) {
	id := m.nextID("note")
	n := *notification
	n.ID = id
	m.notes = append(m.notes, &n)
	return id, nil
}

func (m *memStore) ListNotifications(_ context.Context, personID string) ([]*models.Notification, error) {
	var result []*models.Notification
	for i := len(m.notes) - 1; i >= 0; i-- {
		if m.notes[i].PersonID == personID {
			n := *m.notes[i]
			result = append(result, &n)
		}
	}
	return result, nil
}

func (m *memStore) MarkNotificationRead(_ context.Context, id, personID string) error {
	for _, note := range m.notes {
		if note.ID == id && note.PersonID == personID {
			note.Read = true
			return nil
		}
	}
	return response.ErrNotFound
}

func (m *memStore) MarkAllNotificationsRead(_ context.Context, personID string) error {
	for _, note := range m.notes {
		if note.PersonID == personID {
			note.Read = true
		}
	}
	return nil
}

func (m *memStore) CreateEvaluation(_ context.Context, evaluation *models.Evaluation) (string, error) {
	id := m.nextID("eval")
	e := *evaluation
	e.ID = id
	m.evals[id] = &e
	return id, nil
}

func (m *memStore) ListEvaluationsByPerson(_ context.Context, personID string) ([]*models.Evaluation, error) {
	var ids []string
	for id, evaluation := range m.evals {
		if evaluation.PersonID == personID {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	result := make([]*models.Evaluation, 0, len(ids))
	for _, id := range ids {
		e := *m.evals[id]
		result = append(result, &e)
	}
	return result, nil
}

func (m *memStore) CreateDelegation(_ context.Context, delegation *models.Delegation) (string, error) {
	id := m.nextID("delegation")
	d := *delegation
	d.ID = id
	m.delegations[id] = &d
	return id, nil
}

func (m *memStore) ListDelegations(_ context.Context, districtID string) ([]*models.Delegation, error) {
	var ids []string
	for id, delegation := range m.delegations {
		if delegation.DistrictID == districtID && delegation.IsActive {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	result := make([]*models.Delegation, 0, len(ids))
	for _, id := range ids {
		d := *m.delegations[id]
		result = append(result, &d)
	}
	return result, nil
}

// memLocker holds locks in memory. Pre-seeding held simulates
// contention from a concurrent run.
type memLocker struct {
	held map[string]bool
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]bool)}
}

func (l *memLocker) Lock(_ context.Context, key string, _ time.Duration) (bool, error) {
	if l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *memLocker) Unlock(_ context.Context, key string) error {
	delete(l.held, key)
	return nil
}

func (l *memLocker) Close() error { return nil }

type sentNote struct {
	PersonID string
	Category string
	Title    string
	Message  string
}

type recordingNotifier struct {
	sent []sentNote
}

func (n *recordingNotifier) Notify(_ context.Context, personID, category, title, message string, _ *string) {
	n.sent = append(n.sent, sentNote{PersonID: personID, Category: category, Title: title, Message: message})
}

func (n *recordingNotifier) sentTo(personID string) []sentNote {
	var result []sentNote
	for _, note := range n.sent {
		if note.PersonID == personID {
			result = append(result, note)
		}
	}
	return result
}

var testNow = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func newTestService() (*Service, *memStore, *memLocker, *recordingNotifier) {
	store := newMemStore()
	locker := newMemLocker()
	notifier := &recordingNotifier{}

	service := NewService(store, locker, notifier)
	service.now = func() time.Time { return testNow }

	return service, store, locker, notifier
}

// seedDistrict creates a district with a pastor and returns both ids.
func seedDistrict(store *memStore) (districtID, pastorID string) {
	pastorID, _ = store.CreatePerson(context.Background(), &models.Person{
		Name:     "Pastor",
		Role:     models.RoleDistrictPastor,
		IsActive: true,
	})
	districtID, _ = store.CreateDistrict(context.Background(), &models.District{
		Name:     "Central District",
		PastorID: &pastorID,
		IsActive: true,
	})
	pastor := store.persons[pastorID]
	pastor.DistrictID = &districtID
	return districtID, pastorID
}

func seedChurch(store *memStore, districtID string, days ...models.ServiceDay) string {
	id, _ := store.CreateChurch(context.Background(), &models.Church{
		Name:        "Church " + fmt.Sprint(len(store.churches)+1),
		DistrictID:  districtID,
		ServiceDays: days,
		IsActive:    true,
	})
	return id
}

func seedPreacher(store *memStore, districtID, name string, score float64) string {
	id, _ := store.CreatePerson(context.Background(), &models.Person{
		Name:           name,
		Role:           models.RolePreacher,
		DistrictID:     &districtID,
		IsPreacher:     true,
		PreachingScore: score,
		IsActive:       true,
	})
	return id
}

func seedSinger(store *memStore, districtID, name string) string {
	id, _ := store.CreatePerson(context.Background(), &models.Person{
		Name:           name,
		Role:           models.RoleSinger,
		DistrictID:     &districtID,
		IsSinger:       true,
		PreachingScore: 50,
		SingingScore:   50,
		IsActive:       true,
	})
	return id
}
