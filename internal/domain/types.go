// Package domain holds the data types shared by the policy engine, the
// experiment actor, the state store, and the repository. It carries zero
// infrastructure dependencies: no logging, no HTTP, no file I/O.
package domain

import "github.com/google/uuid"

// ArmID is the dense, monotonically assigned per-experiment handle for an
// arm. Deletion does not compact surviving handles.
type ArmID int

// ArmStats is the reporting view of a single arm, returned by Stats().
type ArmStats struct {
	Pulls      uint64  `json:"pulls"`
	MeanReward float64 `json:"mean_reward"`
	IsActive   bool    `json:"is_active"`
}

// PolicyStats is the full reporting view of a policy instance.
type PolicyStats struct {
	Arms map[ArmID]ArmStats `json:"arms"`
}

// DrawResult is the outcome of a successful Draw call.
type DrawResult struct {
	Timestamp float64 `json:"timestamp"`
	Arm       ArmID   `json:"arm_id"`
}

// BatchUpdateElement is one entry of an UpdateBatch call: a reward observed
// for an arm at a given epoch-seconds timestamp.
type BatchUpdateElement struct {
	Timestamp float64 `json:"timestamp"`
	Arm       ArmID   `json:"arm_id"`
	Reward    float64 `json:"reward"`
}

// DecayType selects how epsilon-greedy's effective epsilon shrinks as an
// experiment accumulates pulls.
type DecayType string

const (
	DecayNone        DecayType = "none"
	DecayExponential DecayType = "exponential"
	DecayInverse     DecayType = "inverse"
	DecayLinear      DecayType = "linear"
)

// EpsilonDecay describes the decay schedule for an epsilon-greedy policy.
// Kind is one of the DecayType constants; Decay and MinEpsilon are only
// meaningful for the kinds that use them (linear uses both).
type EpsilonDecay struct {
	Kind       DecayType `json:"kind"`
	Decay      float64   `json:"decay"`
	MinEpsilon float64   `json:"min_epsilon,omitempty"`
}

// PolicyKind names a supported algorithm family. It is the discriminant of
// the externally tagged JSON envelope used both on the wire (HTTP create
// payloads) and at rest (state-store snapshots).
type PolicyKind string

const (
	PolicyEpsilonGreedy   PolicyKind = "EpsilonGreedy"
	PolicyThomsonSampling PolicyKind = "ThomsonSampling"
	PolicyUcb             PolicyKind = "Ucb"
)

// PolicyType is the declarative descriptor of a policy: its algorithm and
// parameters, without any arm state. The repository keeps one of these
// alongside each live actor so it can answer "what is this experiment?"
// without waking the actor.
type PolicyType struct {
	Kind           PolicyKind    `json:"type"`
	Epsilon        float64       `json:"epsilon,omitempty"`
	EpsilonDecay   *EpsilonDecay `json:"epsilon_decay,omitempty"`
	HalflifeSecond *float64      `json:"halflife_seconds,omitempty"`
	Alpha          float64       `json:"alpha,omitempty"`
	Seed           *uint64       `json:"seed,omitempty"`
}

// ExperimentDescriptor is the enumerable, address-free view of an
// experiment: its id and declarative policy type.
type ExperimentDescriptor struct {
	ID         uuid.UUID  `json:"id"`
	PolicyType PolicyType `json:"type_descriptor"`
}
