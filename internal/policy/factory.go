package policy

import (
	"fmt"

	"github.com/clabrugere/go-bandits/internal/domain"
)

// New constructs a fresh, arm-less Policy from its declarative type
// descriptor — the counterpart of the create-experiment HTTP payload and of
// each PolicyType stored alongside a live repository entry.
func New(pt domain.PolicyType) (Policy, error) {
	switch pt.Kind {
	case domain.PolicyEpsilonGreedy:
		return NewEpsilonGreedy(pt.Epsilon, pt.EpsilonDecay, pt.Seed), nil
	case domain.PolicyThomsonSampling:
		return NewThomsonSampling(pt.HalflifeSecond, pt.Seed), nil
	case domain.PolicyUcb:
		return NewUcb(pt.Alpha, pt.Seed), nil
	default:
		return nil, fmt.Errorf("policy: unknown type %q", pt.Kind)
	}
}
