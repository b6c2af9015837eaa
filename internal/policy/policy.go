// Package policy implements the pluggable bandit algorithms: ε-greedy with
// optional decay, discounted Thompson Sampling (Beta/Bernoulli), and UCB1.
// Every implementation satisfies the Policy interface and is safe to use
// only from a single goroutine at a time — serialization is the caller's
// (the experiment actor's) responsibility, not this package's.
package policy

import (
	"encoding/json"
	"fmt"

	"github.com/clabrugere/go-bandits/internal/domain"
)

// Policy is the contract every bandit algorithm implements. Implementations
// are not safe for concurrent use; callers must serialize access (the
// experiment actor does this by construction).
type Policy interface {
	// Reset resets one arm (if arm is non-nil) to the given seed
	// statistics; a nil cumReward/count resets to the zero state. With a nil
	// arm every arm is reset to the zero state and cumReward/count are
	// ignored.
	Reset(arm *domain.ArmID, cumReward *float64, count *uint64) error

	// AddArm registers a new arm seeded with the given cumulative reward
	// and pull count, and returns its assigned handle.
	AddArm(initialReward float64, initialCount uint64) domain.ArmID

	DisableArm(arm domain.ArmID) error
	EnableArm(arm domain.ArmID) error
	DeleteArm(arm domain.ArmID) error

	// Draw selects an arm. now is the wall-clock epoch seconds to stamp
	// the result with (and, for Thompson Sampling, to discount against).
	Draw(now float64) (domain.DrawResult, error)

	Update(timestamp float64, arm domain.ArmID, reward float64) error
	UpdateBatch(updates []domain.BatchUpdateElement) error

	Stats() domain.PolicyStats
	PolicyType() domain.PolicyType

	// Clone returns an independent deep copy suitable for serialization by
	// the state store. The RNG's seed is preserved; its internal stream
	// position is not.
	Clone() Policy
}

// snapshot carries the "type" discriminant of the externally tagged JSON
// form used for state-store persistence. MarshalPolicy embeds it next to
// exactly one algorithm's snapshot, so that algorithm's fields sit beside
// the tag at the top level.
type snapshot struct {
	Type domain.PolicyKind `json:"type"`
}

// MarshalPolicy serializes a policy into its externally tagged wire form.
func MarshalPolicy(p Policy) ([]byte, error) {
	switch pp := p.(type) {
	case *EpsilonGreedy:
		return json.Marshal(struct {
			snapshot
			*epsilonGreedySnapshot
		}{snapshot{Type: domain.PolicyEpsilonGreedy}, pp.snapshot()})
	case *ThomsonSampling:
		return json.Marshal(struct {
			snapshot
			*thomsonSamplingSnapshot
		}{snapshot{Type: domain.PolicyThomsonSampling}, pp.snapshot()})
	case *Ucb:
		return json.Marshal(struct {
			snapshot
			*ucbSnapshot
		}{snapshot{Type: domain.PolicyUcb}, pp.snapshot()})
	default:
		return nil, fmt.Errorf("policy: unknown implementation %T", p)
	}
}

// UnmarshalPolicy reconstructs a policy from its externally tagged wire
// form. The RNG is reseeded from the persisted seed if present, else from
// OS entropy.
func UnmarshalPolicy(data []byte) (Policy, error) {
	var disc struct {
		Type domain.PolicyKind `json:"type"`
	}
	if err := json.Unmarshal(data, &disc); err != nil {
		return nil, fmt.Errorf("policy: %w", err)
	}
	switch disc.Type {
	case domain.PolicyEpsilonGreedy:
		var s epsilonGreedySnapshot
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("policy: %w", err)
		}
		return newEpsilonGreedyFromSnapshot(&s), nil
	case domain.PolicyThomsonSampling:
		var s thomsonSamplingSnapshot
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("policy: %w", err)
		}
		return newThomsonSamplingFromSnapshot(&s), nil
	case domain.PolicyUcb:
		var s ucbSnapshot
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("policy: %w", err)
		}
		return newUcbFromSnapshot(&s), nil
	default:
		return nil, fmt.Errorf("policy: unknown type tag %q", disc.Type)
	}
}
