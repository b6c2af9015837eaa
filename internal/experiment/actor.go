// Package experiment implements the per-experiment actor: a single-owner
// cell around one policy that serializes all commands, periodically
// snapshots itself into the state store, and can be reconstructed from a
// snapshot after a crash. See actors/experiment.rs for the original this
// mirrors; the per-experiment serialization invariant is expressed here as
// a goroutine consuming a command channel with a single mutable policy in
// its local state, per spec.md §9 — no lock is required inside the actor.
package experiment

import (
	"encoding/json"
	"log"
	"os"
	"time"

	channerics "github.com/niceyeti/channerics/channels"

	"github.com/google/uuid"

	"github.com/clabrugere/go-bandits/internal/domain"
	"github.com/clabrugere/go-bandits/internal/policy"
)

// StateStore is the subset of store.Store the actor depends on, scoped
// down so this package does not need to import the concrete store type.
type StateStore interface {
	Save(id uuid.UUID, snapshot json.RawMessage)
	Delete(id uuid.UUID)
	Load(id uuid.UUID) json.RawMessage
}

type commandKind int

const (
	cmdPing commandKind = iota
	cmdReset
	cmdAddArm
	cmdDisableArm
	cmdEnableArm
	cmdDeleteArm
	cmdDraw
	cmdUpdate
	cmdUpdateBatch
	cmdGetStats
	cmdDelete
)

type command struct {
	kind commandKind
	now  float64

	arm       *domain.ArmID
	cumReward *float64
	count     *uint64
	timestamp float64
	reward    float64
	updates   []domain.BatchUpdateElement

	reply chan result
}

type result struct {
	arm   domain.ArmID
	draw  domain.DrawResult
	stats domain.PolicyStats
	err   error
}

// Actor is one experiment's command-processing cell.
type Actor struct {
	id         uuid.UUID
	saveEvery  time.Duration
	stateStore StateStore
	logger     *log.Logger

	commands chan command
	policy   policy.Policy // nil until constructed with one or reloaded

	// alive is closed once when Run returns, by whatever path: a normal
	// done-close, or unwinding out from under a panic in handle. send
	// selects on it so a caller never blocks on a cell whose loop is gone.
	alive chan struct{}
}

// New constructs an actor. initial may be nil, in which case the actor
// answers non-Ping commands with domain.ErrNoPolicy until Run's reload
// completes.
func New(id uuid.UUID, initial policy.Policy, stateStore StateStore, saveEvery time.Duration) *Actor {
	return &Actor{
		id:         id,
		saveEvery:  saveEvery,
		stateStore: stateStore,
		logger:     log.New(os.Stderr, "[experiment] ", log.LstdFlags),
		commands:   make(chan command),
		policy:     initial,
		alive:      make(chan struct{}),
	}
}

// Run drives the actor's command/timer loop until done is closed. If the
// actor was constructed without a policy it first attempts to reload one
// from the state store. Run does not recover panics raised while handling
// a command; the caller is expected to supervise the goroutine it runs
// this in and respawn a fresh Actor with a nil policy, forcing a reload
// from the last snapshot, per spec.md §4.3's restart-with-empty-policy
// lifecycle step.
func (a *Actor) Run(done <-chan struct{}) {
	defer close(a.alive)

	if a.policy == nil {
		a.reload()
	}

	ticker := channerics.NewTicker(done, a.saveEvery)
	for {
		select {
		case <-done:
			return
		case <-ticker:
			a.persist()
		case cmd := <-a.commands:
			a.handle(cmd)
		}
	}
}

func (a *Actor) reload() {
	snap := a.stateStore.Load(a.id)
	if snap == nil {
		return
	}
	p, err := policy.UnmarshalPolicy(snap)
	if err != nil {
		a.logger.Printf("experiment %s: failed to reload snapshot: %v", a.id, err)
		return
	}
	a.policy = p
	a.logger.Printf("experiment %s: reloaded policy from snapshot", a.id)
}

func (a *Actor) persist() {
	if a.policy == nil {
		return
	}
	snap, err := policy.MarshalPolicy(a.policy.Clone())
	if err != nil {
		a.logger.Printf("experiment %s: failed to snapshot policy: %v", a.id, err)
		return
	}
	a.stateStore.Save(a.id, snap)
}

func (a *Actor) handle(cmd command) {
	if cmd.kind == cmdDelete {
		a.stateStore.Delete(a.id)
		cmd.reply <- result{}
		return
	}
	if cmd.kind == cmdPing {
		cmd.reply <- result{}
		return
	}
	if a.policy == nil {
		cmd.reply <- result{err: domain.ErrNoPolicy}
		return
	}

	switch cmd.kind {
	case cmdReset:
		err := a.policy.Reset(cmd.arm, cmd.cumReward, cmd.count)
		cmd.reply <- result{err: err}
	case cmdAddArm:
		reward := 0.0
		if cmd.cumReward != nil {
			reward = *cmd.cumReward
		}
		count := uint64(0)
		if cmd.count != nil {
			count = *cmd.count
		}
		cmd.reply <- result{arm: a.policy.AddArm(reward, count)}
	case cmdDisableArm:
		cmd.reply <- result{err: a.policy.DisableArm(*cmd.arm)}
	case cmdEnableArm:
		cmd.reply <- result{err: a.policy.EnableArm(*cmd.arm)}
	case cmdDeleteArm:
		cmd.reply <- result{err: a.policy.DeleteArm(*cmd.arm)}
	case cmdDraw:
		draw, err := a.policy.Draw(cmd.now)
		cmd.reply <- result{draw: draw, err: err}
	case cmdUpdate:
		cmd.reply <- result{err: a.policy.Update(cmd.timestamp, *cmd.arm, cmd.reward)}
	case cmdUpdateBatch:
		cmd.reply <- result{err: a.policy.UpdateBatch(cmd.updates)}
	case cmdGetStats:
		cmd.reply <- result{stats: a.policy.Stats()}
	}
}

// send delivers cmd to the run loop and waits for its reply. Either leg
// selects against alive so a cell whose loop has exited (crashed or
// stopped) answers ExperimentUnavailableError instead of blocking forever
// on an unbuffered channel nobody is reading.
func (a *Actor) send(cmd command) result {
	reply := make(chan result, 1)
	cmd.reply = reply
	select {
	case a.commands <- cmd:
	case <-a.alive:
		return result{err: &domain.ExperimentUnavailableError{ID: a.id}}
	}
	select {
	case r := <-reply:
		return r
	case <-a.alive:
		return result{err: &domain.ExperimentUnavailableError{ID: a.id}}
	}
}

// Ping is a liveness probe; it fails only if the actor's loop is gone.
func (a *Actor) Ping() error { return a.send(command{kind: cmdPing}).err }

// Delete tells the state store to forget this experiment. It does not stop
// the actor's loop: the caller stops it by closing the done channel it
// passed to Run.
func (a *Actor) Delete() error { return a.send(command{kind: cmdDelete}).err }

func (a *Actor) Reset(arm *domain.ArmID, cumReward *float64, count *uint64) error {
	return a.send(command{kind: cmdReset, arm: arm, cumReward: cumReward, count: count}).err
}

func (a *Actor) AddArm(initialReward *float64, initialCount *uint64) (domain.ArmID, error) {
	r := a.send(command{kind: cmdAddArm, cumReward: initialReward, count: initialCount})
	return r.arm, r.err
}

func (a *Actor) DisableArm(arm domain.ArmID) error {
	return a.send(command{kind: cmdDisableArm, arm: &arm}).err
}

func (a *Actor) EnableArm(arm domain.ArmID) error {
	return a.send(command{kind: cmdEnableArm, arm: &arm}).err
}

func (a *Actor) DeleteArm(arm domain.ArmID) error {
	return a.send(command{kind: cmdDeleteArm, arm: &arm}).err
}

func (a *Actor) Draw(now float64) (domain.DrawResult, error) {
	r := a.send(command{kind: cmdDraw, now: now})
	return r.draw, r.err
}

func (a *Actor) Update(timestamp float64, arm domain.ArmID, reward float64) error {
	return a.send(command{kind: cmdUpdate, timestamp: timestamp, arm: &arm, reward: reward}).err
}

func (a *Actor) UpdateBatch(updates []domain.BatchUpdateElement) error {
	return a.send(command{kind: cmdUpdateBatch, updates: updates}).err
}

func (a *Actor) GetStats() (domain.PolicyStats, error) {
	r := a.send(command{kind: cmdGetStats})
	return r.stats, r.err
}
