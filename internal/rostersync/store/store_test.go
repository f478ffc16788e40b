package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tansive/rostersync/internal/rostersync/domain"
)

type recordingRecorder struct {
	mu      sync.Mutex
	seqs    []uint64
	actions []Action
	err     error
}

func (r *recordingRecorder) Record(seq uint64, a Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seqs = append(r.seqs, seq)
	r.actions = append(r.actions, a)
	return r.err
}

func TestDispatchReplacesState(t *testing.T) {
	s := New(State{SkillList: skillSlice()})
	before := s.GetState()

	added := skill(4321, 0, "Skill 1")
	s.Dispatch(Added(added))

	after := s.GetState()
	assert.Len(t, after.SkillList.List, 3)
	assert.Len(t, before.SkillList.List, 2, "earlier snapshot must not change")
	assert.Equal(t, 0, s.CurrentTenantID())
}

func TestSubscribeReceivesChangesInOrder(t *testing.T) {
	s := New(State{})
	defer s.Close()

	ch, unsubscribe := s.Subscribe("action.skill.*", 10)
	defer unsubscribe()
	spotCh, unsubscribeSpots := s.Subscribe("action.spot.*", 10)
	defer unsubscribeSpots()

	s.Dispatch(Refreshed([]domain.Skill{skill(1, 0, "a")}))
	s.Dispatch(Updated(skill(1, 1, "b")))
	s.Dispatch(Refreshed([]domain.Spot{}))

	first := (<-ch).Data.(Change)
	second := (<-ch).Data.(Change)
	assert.Equal(t, uint64(1), first.Seq)
	assert.Equal(t, "skill/refreshList", first.Action.Type())
	assert.Equal(t, uint64(2), second.Seq)
	assert.Equal(t, "b", second.State.SkillList.List[0].Name)
	assert.NotEqual(t, first.ID, second.ID)

	spotChange := (<-spotCh).Data.(Change)
	assert.Equal(t, uint64(3), spotChange.Seq)

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event %v", ev.Topic)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestConcurrentDispatchIsSerialized(t *testing.T) {
	s := New(State{})
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Dispatch(Added(skill(id, 0, "s")))
		}(int64(i))
	}
	wg.Wait()
	assert.Len(t, s.GetState().SkillList.List, 50)
}

func TestRecorderSeesEveryAction(t *testing.T) {
	rec := &recordingRecorder{err: errors.New("disk full")}
	s := New(State{}, WithRecorder(rec))

	s.Dispatch(Refreshed([]domain.Skill{}))
	s.Dispatch(ChangeTenant{TenantID: 1})

	require.Len(t, rec.actions, 2)
	assert.Equal(t, []uint64{1, 2}, rec.seqs)
	assert.Equal(t, 1, s.CurrentTenantID(), "recorder failure must not block the dispatch")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	s := New(State{}, WithMetrics(m))

	s.Dispatch(Refreshed([]domain.Skill{skill(1, 0, "a"), skill(2, 0, "b")}))
	s.Dispatch(Removed(skill(1, 0, "a")))
	s.Dispatch(Removed(skill(1, 0, "a")))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.dispatched.WithLabelValues("skill/refreshList")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.dispatched.WithLabelValues("skill/remove")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.collectionSize.WithLabelValues("skill")))
}
