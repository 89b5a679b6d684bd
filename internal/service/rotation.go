package service

import (
	"sort"

	"escala-service/internal/models"
)

// rotation walks a district's preacher pool with a cursor that persists
// across every slot of one generation run, so a run over several
// churches distributes assignments round-robin instead of restarting at
// the top of the pool for each church.
type rotation struct {
	pool   []*models.Person
	cursor int
}

// newRotation orders the pool by descending preaching score. Equal
// scores keep their input order.
func newRotation(pool []*models.Person) *rotation {
	ordered := make([]*models.Person, len(pool))
	copy(ordered, pool)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PreachingScore > ordered[j].PreachingScore
	})

	return &rotation{pool: ordered}
}

// next probes at most len(pool) candidates and returns the first one
// eligible accepts. The cursor advances after every probe, accepted or
// not, so a skipped candidate does not stall the rotation. Returns nil
// when nobody is eligible; the caller leaves the slot unassigned and
// moves on — earlier slots are never revisited to make room for a
// later one. Round-robin fairness weighted by the initial score order,
// not a global optimum.
func (r *rotation) next(eligible func(candidate *models.Person) (bool, error)) (*models.Person, error) {
	if len(r.pool) == 0 {
		return nil, nil
	}

	for probes := 0; probes < len(r.pool); probes++ {
		candidate := r.pool[r.cursor%len(r.pool)]
		r.cursor++

		ok, err := eligible(candidate)
		if err != nil {
			return nil, err
		}
		if ok {
			return candidate, nil
		}
	}

	return nil, nil
}
