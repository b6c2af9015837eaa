package repository

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clabrugere/go-bandits/internal/domain"
	"github.com/clabrugere/go-bandits/internal/policy"
)

type fakeStore struct {
	mu       sync.Mutex
	snapshot map[uuid.UUID]json.RawMessage
}

func newFakeStore() *fakeStore {
	return &fakeStore{snapshot: make(map[uuid.UUID]json.RawMessage)}
}

func (f *fakeStore) Save(id uuid.UUID, snap json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshot[id] = snap
}

func (f *fakeStore) Delete(id uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.snapshot, id)
}

func (f *fakeStore) Load(id uuid.UUID) json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot[id]
}

func (f *fakeStore) LoadAll() (map[uuid.UUID]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[uuid.UUID]json.RawMessage, len(f.snapshot))
	for id, snap := range f.snapshot {
		out[id] = snap
	}
	return out, nil
}

// panickyPolicy satisfies policy.Policy and panics on Stats, letting tests
// exercise the repository's actor-crash supervision without depending on
// any production policy ever actually panicking.
type panickyPolicy struct {
	kind domain.PolicyType
}

func (p *panickyPolicy) Reset(*domain.ArmID, *float64, *uint64) error { return nil }
func (p *panickyPolicy) AddArm(float64, uint64) domain.ArmID          { return 0 }
func (p *panickyPolicy) DisableArm(domain.ArmID) error                { return nil }
func (p *panickyPolicy) EnableArm(domain.ArmID) error                 { return nil }
func (p *panickyPolicy) DeleteArm(domain.ArmID) error                 { return nil }
func (p *panickyPolicy) Draw(float64) (domain.DrawResult, error)      { return domain.DrawResult{}, nil }
func (p *panickyPolicy) Update(float64, domain.ArmID, float64) error  { return nil }
func (p *panickyPolicy) UpdateBatch([]domain.BatchUpdateElement) error {
	return nil
}
func (p *panickyPolicy) Stats() domain.PolicyStats   { panic("boom") }
func (p *panickyPolicy) PolicyType() domain.PolicyType { return p.kind }
func (p *panickyPolicy) Clone() policy.Policy          { return &panickyPolicy{kind: p.kind} }

func epsilonGreedyType() domain.PolicyType {
	return domain.PolicyType{Kind: domain.PolicyEpsilonGreedy, Epsilon: 0.1}
}

func TestCreateAndListExperiment(t *testing.T) {
	r := New(newFakeStore(), time.Hour)

	id, err := r.CreateExperiment(nil, epsilonGreedyType())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	descriptors := r.ListExperiments()
	if len(descriptors) != 1 || descriptors[0].ID != id {
		t.Fatalf("expected one descriptor for %s, got %+v", id, descriptors)
	}
}

func TestCreateExperimentUnknownKind(t *testing.T) {
	r := New(newFakeStore(), time.Hour)
	if _, err := r.CreateExperiment(nil, domain.PolicyType{Kind: "bogus"}); err == nil {
		t.Fatalf("expected error for unknown policy kind")
	}
}

func TestDispatchUnknownExperiment(t *testing.T) {
	r := New(newFakeStore(), time.Hour)
	id := uuid.New()

	if err := r.Ping(id); err == nil {
		t.Fatalf("expected ExperimentNotFoundError")
	}
	if _, err := r.Draw(id, 0); err == nil {
		t.Fatalf("expected ExperimentNotFoundError")
	}
}

func TestDrawUpdateGetStats(t *testing.T) {
	r := New(newFakeStore(), time.Hour)
	id, err := r.CreateExperiment(nil, domain.PolicyType{Kind: domain.PolicyEpsilonGreedy, Epsilon: 0})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	reward, count := 1.0, uint64(1)
	arm, err := r.AddArm(id, &reward, &count)
	if err != nil {
		t.Fatalf("add_arm: %v", err)
	}

	result, err := r.Draw(id, 0)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if result.Arm != arm {
		t.Fatalf("expected arm %d, got %d", arm, result.Arm)
	}

	if err := r.Update(id, 1, arm, 1.0); err != nil {
		t.Fatalf("update: %v", err)
	}

	stats, err := r.GetStats(id)
	if err != nil {
		t.Fatalf("get_stats: %v", err)
	}
	if stats.Arms[arm].Pulls != 2 {
		t.Fatalf("expected 2 pulls, got %d", stats.Arms[arm].Pulls)
	}
}

func TestDisableEnableDeleteArm(t *testing.T) {
	r := New(newFakeStore(), time.Hour)
	id, _ := r.CreateExperiment(nil, epsilonGreedyType())
	arm, err := r.AddArm(id, nil, nil)
	if err != nil {
		t.Fatalf("add_arm: %v", err)
	}

	if err := r.DisableArm(id, arm); err != nil {
		t.Fatalf("disable_arm: %v", err)
	}
	if err := r.EnableArm(id, arm); err != nil {
		t.Fatalf("enable_arm: %v", err)
	}
	if err := r.DeleteArm(id, arm); err != nil {
		t.Fatalf("delete_arm: %v", err)
	}
	if _, err := r.Draw(id, 0); err != domain.ErrNoArmsAvailable {
		t.Fatalf("expected ErrNoArmsAvailable after deleting the only arm, got %v", err)
	}
}

func TestDeleteExperimentRemovesFromDirectoryAndStore(t *testing.T) {
	store := newFakeStore()
	r := New(store, time.Hour)
	id, _ := r.CreateExperiment(nil, epsilonGreedyType())
	store.Save(id, json.RawMessage(`{"type":"EpsilonGreedy"}`))

	if err := r.DeleteExperiment(id); err != nil {
		t.Fatalf("delete_experiment: %v", err)
	}
	if err := r.Ping(id); err == nil {
		t.Fatalf("expected experiment to be gone after delete")
	}
	if snap := store.Load(id); snap != nil {
		t.Fatalf("expected state-store entry to be removed, got %s", snap)
	}
}

func TestClearStopsAllExperiments(t *testing.T) {
	r := New(newFakeStore(), time.Hour)
	idA, _ := r.CreateExperiment(nil, epsilonGreedyType())
	idB, _ := r.CreateExperiment(nil, epsilonGreedyType())

	r.Clear()

	if len(r.ListExperiments()) != 0 {
		t.Fatalf("expected empty directory after clear")
	}
	if err := r.Ping(idA); err == nil {
		t.Fatalf("expected %s to be gone after clear", idA)
	}
	if err := r.Ping(idB); err == nil {
		t.Fatalf("expected %s to be gone after clear", idB)
	}
}

func TestActorCrashIsSupervisedAndRespawned(t *testing.T) {
	r := New(newFakeStore(), time.Hour)
	id := uuid.New()
	r.register(id, &panickyPolicy{kind: epsilonGreedyType()})

	if _, err := r.GetStats(id); err == nil {
		t.Fatalf("expected the panicking Stats call to surface an error")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, err := r.GetStats(id); err == domain.ErrNoPolicy {
			return // respawned with a nil policy, as spec.md §4.3 requires
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected the actor to be respawned with no policy after its crash")
}

func TestLoadExperimentsBootstrapsFromStateStore(t *testing.T) {
	store := newFakeStore()
	seedPolicy := policy.NewEpsilonGreedy(0.1, nil, nil)
	id := uuid.New()
	snap, err := policy.MarshalPolicy(seedPolicy)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	store.Save(id, snap)

	r := New(store, time.Hour)
	if err := r.LoadExperiments(); err != nil {
		t.Fatalf("load_experiments: %v", err)
	}

	descriptors := r.ListExperiments()
	if len(descriptors) != 1 || descriptors[0].ID != id {
		t.Fatalf("expected bootstrapped experiment %s, got %+v", id, descriptors)
	}
	if err := r.Ping(id); err != nil {
		t.Fatalf("ping bootstrapped experiment: %v", err)
	}
}
