// Package repository is the directory of live experiment actors: it creates
// and tears them down, dispatches commands to the right one by id, and
// bootstraps the whole set from the state store on startup. See
// original_source/src/repository.rs for the actor-address map this mirrors;
// here the "address" is simply a pointer to an *experiment.Actor together
// with the goroutine driving its Run loop, and the map itself is guarded by
// a sync.RWMutex per spec.md §5's reader/writer lock note rather than being
// its own actor (no serialization is needed across different experiments).
package repository

import (
	"encoding/json"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clabrugere/go-bandits/internal/domain"
	"github.com/clabrugere/go-bandits/internal/experiment"
	"github.com/clabrugere/go-bandits/internal/policy"
)

// StateStore is the subset of store.Store the repository depends on: the
// per-experiment operations it hands down to each actor it constructs, plus
// LoadAll for bootstrapping.
type StateStore interface {
	experiment.StateStore
	LoadAll() (map[uuid.UUID]json.RawMessage, error)
}

// prometheusCounter is the minimal surface this package needs from a
// prometheus.Counter, kept narrow so tests can supply a no-op.
type prometheusCounter interface {
	Inc()
}

type noopCounter struct{}

func (noopCounter) Inc() {}

type entry struct {
	actor      *experiment.Actor
	policyType domain.PolicyType
	stop       chan struct{}
}

// Repository is the directory of experiment actors.
type Repository struct {
	mu          sync.RWMutex
	experiments map[uuid.UUID]*entry

	saveEvery  time.Duration
	stateStore StateStore
	logger     *log.Logger

	draws, updates, dispatchErrs prometheusCounter
}

// New constructs an empty repository. Call LoadExperiments to bootstrap
// from a previously persisted state store.
func New(stateStore StateStore, saveEvery time.Duration) *Repository {
	return &Repository{
		experiments:  make(map[uuid.UUID]*entry),
		saveEvery:    saveEvery,
		stateStore:   stateStore,
		logger:       log.New(os.Stderr, "[repository] ", log.LstdFlags),
		draws:        noopCounter{},
		updates:      noopCounter{},
		dispatchErrs: noopCounter{},
	}
}

// SetMetrics wires prometheus counters for draws, updates, and dispatch
// errors. Optional — a Repository with no metrics set simply counts
// nowhere.
func (r *Repository) SetMetrics(draws, updates, dispatchErrs prometheusCounter) {
	r.draws = draws
	r.updates = updates
	r.dispatchErrs = dispatchErrs
}

// LoadExperiments reconstructs one actor per snapshot found in the state
// store. A snapshot that fails to deserialize is logged and skipped rather
// than aborting the whole bootstrap. It fails with ErrStorageUnavailable
// only if the state store itself could not be reached for the bootstrap
// read, not for any individual corrupt snapshot.
func (r *Repository) LoadExperiments() error {
	snapshots, err := r.stateStore.LoadAll()
	if err != nil {
		r.logger.Printf("bootstrap: state store unavailable: %v", err)
		return domain.ErrStorageUnavailable
	}
	r.logger.Printf("loaded %d experiment snapshot(s)", len(snapshots))
	for id, snap := range snapshots {
		p, err := policy.UnmarshalPolicy(snap)
		if err != nil {
			r.logger.Printf("experiment %s: failed to reload snapshot, skipping: %v", id, err)
			continue
		}
		r.register(id, p)
		r.logger.Printf("experiment %s: loaded", id)
	}
	return nil
}

// register constructs an actor for id and runs it under supervision: a
// panic inside its loop is recovered and the actor is respawned with a
// nil policy, forcing its next Run to reload from the last snapshot, per
// spec.md §4.3's "supervisor restarts the actor with empty policy, step 1
// reloads it" lifecycle step. This mirrors the original's
// impl Supervised for Experiment {} marker, which tells Actix to restart
// rather than drop the actor address on panic.
func (r *Repository) register(id uuid.UUID, p policy.Policy) {
	actor := experiment.New(id, p, r.stateStore, r.saveEvery)
	stop := make(chan struct{})

	r.mu.Lock()
	r.experiments[id] = &entry{actor: actor, policyType: p.PolicyType(), stop: stop}
	r.mu.Unlock()

	r.runSupervised(id, actor, stop)
}

// runSupervised starts actor's loop in its own goroutine and watches it
// for a panic. On a crash it respawns a fresh actor for the same id with
// no policy and keeps supervising; it does nothing if the experiment has
// since been deleted or already respawned by a prior crash.
func (r *Repository) runSupervised(id uuid.UUID, actor *experiment.Actor, stop chan struct{}) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Printf("experiment %s: actor panicked, restarting: %v", id, rec)
				r.respawn(id, actor)
			}
		}()
		actor.Run(stop)
	}()
}

func (r *Repository) respawn(id uuid.UUID, crashed *experiment.Actor) {
	r.mu.Lock()
	e, ok := r.experiments[id]
	if !ok || e.actor != crashed {
		r.mu.Unlock()
		return
	}
	fresh := experiment.New(id, nil, r.stateStore, r.saveEvery)
	stop := make(chan struct{})
	e.actor = fresh
	e.stop = stop
	r.mu.Unlock()

	r.runSupervised(id, fresh, stop)
}

func (r *Repository) getActor(id uuid.UUID) (*experiment.Actor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.experiments[id]
	if !ok {
		return nil, &domain.ExperimentNotFoundError{ID: id}
	}
	return e.actor, nil
}

// CreateExperiment registers a new experiment with a fresh, arm-less policy
// built from pt, and starts its actor. If id is nil a new uuid is assigned.
func (r *Repository) CreateExperiment(id *uuid.UUID, pt domain.PolicyType) (uuid.UUID, error) {
	p, err := policy.New(pt)
	if err != nil {
		return uuid.Nil, err
	}
	experimentID := uuid.New()
	if id != nil {
		experimentID = *id
	}
	r.register(experimentID, p)
	return experimentID, nil
}

// DeleteExperiment removes an experiment from the directory, tells its
// actor to forget its state-store entry, and stops its goroutine.
func (r *Repository) DeleteExperiment(id uuid.UUID) error {
	r.mu.Lock()
	e, ok := r.experiments[id]
	if !ok {
		r.mu.Unlock()
		return &domain.ExperimentNotFoundError{ID: id}
	}
	delete(r.experiments, id)
	r.mu.Unlock()

	err := e.actor.Delete()
	close(e.stop)
	if err != nil {
		r.dispatchErrs.Inc()
		return err
	}
	return nil
}

// ListExperiments returns the declarative descriptor of every live
// experiment, without waking any actor.
func (r *Repository) ListExperiments() []domain.ExperimentDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ExperimentDescriptor, 0, len(r.experiments))
	for id, e := range r.experiments {
		out = append(out, domain.ExperimentDescriptor{ID: id, PolicyType: e.policyType})
	}
	return out
}

// Clear stops every actor and empties the directory. The underlying
// state-store entries are left untouched, matching the original's
// Repository::clear, which only drops the in-memory address map.
func (r *Repository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.experiments {
		close(e.stop)
	}
	r.experiments = make(map[uuid.UUID]*entry)
}

// Ping checks that an experiment's actor is alive.
func (r *Repository) Ping(id uuid.UUID) error {
	actor, err := r.getActor(id)
	if err != nil {
		r.dispatchErrs.Inc()
		return err
	}
	if err := actor.Ping(); err != nil {
		r.dispatchErrs.Inc()
		return err
	}
	return nil
}

// Reset reseeds one arm (or every arm, if arm is nil) to the given
// statistics.
func (r *Repository) Reset(id uuid.UUID, arm *domain.ArmID, cumReward *float64, count *uint64) error {
	actor, err := r.getActor(id)
	if err != nil {
		r.dispatchErrs.Inc()
		return err
	}
	if err := actor.Reset(arm, cumReward, count); err != nil {
		r.dispatchErrs.Inc()
		return err
	}
	return nil
}

// AddArm registers a new arm on an existing experiment.
func (r *Repository) AddArm(id uuid.UUID, initialReward *float64, initialCount *uint64) (domain.ArmID, error) {
	actor, err := r.getActor(id)
	if err != nil {
		r.dispatchErrs.Inc()
		return 0, err
	}
	arm, err := actor.AddArm(initialReward, initialCount)
	if err != nil {
		r.dispatchErrs.Inc()
		return 0, err
	}
	return arm, nil
}

// DisableArm marks an arm ineligible for future draws without deleting it.
func (r *Repository) DisableArm(id uuid.UUID, arm domain.ArmID) error {
	actor, err := r.getActor(id)
	if err != nil {
		r.dispatchErrs.Inc()
		return err
	}
	if err := actor.DisableArm(arm); err != nil {
		r.dispatchErrs.Inc()
		return err
	}
	return nil
}

// EnableArm makes a previously disabled arm eligible for draws again.
func (r *Repository) EnableArm(id uuid.UUID, arm domain.ArmID) error {
	actor, err := r.getActor(id)
	if err != nil {
		r.dispatchErrs.Inc()
		return err
	}
	if err := actor.EnableArm(arm); err != nil {
		r.dispatchErrs.Inc()
		return err
	}
	return nil
}

// DeleteArm permanently removes an arm from an experiment's policy.
func (r *Repository) DeleteArm(id uuid.UUID, arm domain.ArmID) error {
	actor, err := r.getActor(id)
	if err != nil {
		r.dispatchErrs.Inc()
		return err
	}
	if err := actor.DeleteArm(arm); err != nil {
		r.dispatchErrs.Inc()
		return err
	}
	return nil
}

// Draw selects an arm from an experiment.
func (r *Repository) Draw(id uuid.UUID, now float64) (domain.DrawResult, error) {
	actor, err := r.getActor(id)
	if err != nil {
		r.dispatchErrs.Inc()
		return domain.DrawResult{}, err
	}
	result, err := actor.Draw(now)
	if err != nil {
		r.dispatchErrs.Inc()
		return domain.DrawResult{}, err
	}
	r.draws.Inc()
	return result, nil
}

// Update records a single observed reward.
func (r *Repository) Update(id uuid.UUID, timestamp float64, arm domain.ArmID, reward float64) error {
	actor, err := r.getActor(id)
	if err != nil {
		r.dispatchErrs.Inc()
		return err
	}
	if err := actor.Update(timestamp, arm, reward); err != nil {
		r.dispatchErrs.Inc()
		return err
	}
	r.updates.Inc()
	return nil
}

// UpdateBatch records a batch of observed rewards.
func (r *Repository) UpdateBatch(id uuid.UUID, updates []domain.BatchUpdateElement) error {
	actor, err := r.getActor(id)
	if err != nil {
		r.dispatchErrs.Inc()
		return err
	}
	if err := actor.UpdateBatch(updates); err != nil {
		r.dispatchErrs.Inc()
		return err
	}
	r.updates.Inc()
	return nil
}

// GetStats reports the current per-arm statistics of an experiment.
func (r *Repository) GetStats(id uuid.UUID) (domain.PolicyStats, error) {
	actor, err := r.getActor(id)
	if err != nil {
		r.dispatchErrs.Inc()
		return domain.PolicyStats{}, err
	}
	stats, err := actor.GetStats()
	if err != nil {
		r.dispatchErrs.Inc()
		return domain.PolicyStats{}, err
	}
	return stats, nil
}
