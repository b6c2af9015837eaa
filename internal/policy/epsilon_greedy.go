package policy

import (
	"math"

	"github.com/clabrugere/go-bandits/internal/domain"
)

type epsilonGreedyArm struct {
	reward   float64
	count    uint64
	isActive bool
}

func newEpsilonGreedyArm(initialReward float64, initialCount uint64) *epsilonGreedyArm {
	return &epsilonGreedyArm{reward: initialReward, count: initialCount, isActive: true}
}

func (a *epsilonGreedyArm) reset(cumReward *float64, count *uint64) {
	a.reward = 0
	if cumReward != nil {
		a.reward = *cumReward
	}
	a.count = 0
	if count != nil {
		a.count = *count
	}
}

func (a *epsilonGreedyArm) update(reward float64) {
	a.count++
	a.reward += (reward - a.reward) / float64(a.count)
}

func (a *epsilonGreedyArm) stats() domain.ArmStats {
	return domain.ArmStats{Pulls: a.count, MeanReward: a.reward, IsActive: a.isActive}
}

// EpsilonGreedy is the ε-greedy policy with an optional decay schedule
// applied to its effective exploration rate. See epsilon_greedy.rs for the
// original semantics this mirrors.
type EpsilonGreedy struct {
	order   []domain.ArmID
	arms    map[domain.ArmID]*epsilonGreedyArm
	epsilon float64
	decay   *domain.EpsilonDecay
	rng     *seededRand
}

// NewEpsilonGreedy constructs an empty ε-greedy policy.
func NewEpsilonGreedy(epsilon float64, decay *domain.EpsilonDecay, seed *uint64) *EpsilonGreedy {
	return &EpsilonGreedy{
		arms:    make(map[domain.ArmID]*epsilonGreedyArm),
		epsilon: epsilon,
		decay:   decay,
		rng:     newSeededRand(seed),
	}
}

func (p *EpsilonGreedy) totalCount() float64 {
	var total uint64
	for _, arm := range p.arms {
		if arm.isActive {
			total += arm.count
		}
	}
	return float64(total)
}

func (p *EpsilonGreedy) epsilonWithDecay() float64 {
	if p.decay == nil {
		return p.epsilon
	}
	n := p.totalCount()
	switch p.decay.Kind {
	case domain.DecayExponential:
		return p.epsilon * math.Exp(-p.decay.Decay*n)
	case domain.DecayInverse:
		return p.epsilon / (1.0 + p.decay.Decay*n)
	case domain.DecayLinear:
		return math.Max(p.epsilon-p.decay.Decay*n, p.decay.MinEpsilon)
	default:
		return p.epsilon
	}
}

func (p *EpsilonGreedy) Reset(arm *domain.ArmID, cumReward *float64, count *uint64) error {
	if arm != nil {
		a, ok := p.arms[*arm]
		if !ok {
			return &domain.ArmNotFoundError{Arm: *arm}
		}
		a.reset(cumReward, count)
		return nil
	}
	for _, a := range p.arms {
		a.reset(nil, nil)
	}
	return nil
}

func (p *EpsilonGreedy) AddArm(initialReward float64, initialCount uint64) domain.ArmID {
	id := domain.ArmID(len(p.order))
	p.arms[id] = newEpsilonGreedyArm(initialReward, initialCount)
	p.order = append(p.order, id)
	return id
}

func (p *EpsilonGreedy) DisableArm(arm domain.ArmID) error {
	a, ok := p.arms[arm]
	if !ok {
		return &domain.ArmNotFoundError{Arm: arm}
	}
	a.isActive = false
	return nil
}

func (p *EpsilonGreedy) EnableArm(arm domain.ArmID) error {
	a, ok := p.arms[arm]
	if !ok {
		return &domain.ArmNotFoundError{Arm: arm}
	}
	a.isActive = true
	return nil
}

func (p *EpsilonGreedy) DeleteArm(arm domain.ArmID) error {
	if _, ok := p.arms[arm]; !ok {
		return &domain.ArmNotFoundError{Arm: arm}
	}
	delete(p.arms, arm)
	for i, id := range p.order {
		if id == arm {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return nil
}

func (p *EpsilonGreedy) activeArms() []domain.ArmID {
	active := make([]domain.ArmID, 0, len(p.order))
	for _, id := range p.order {
		if p.arms[id].isActive {
			active = append(active, id)
		}
	}
	return active
}

func (p *EpsilonGreedy) Draw(now float64) (domain.DrawResult, error) {
	active := p.activeArms()
	if len(active) == 0 {
		return domain.DrawResult{}, domain.ErrNoArmsAvailable
	}

	epsilon := p.epsilonWithDecay()
	var chosen domain.ArmID
	if p.rng.Float64() < epsilon {
		chosen = active[p.rng.IntN(len(active))]
	} else {
		best := active[0]
		bestReward := p.arms[best].reward
		for _, id := range active[1:] {
			if r := p.arms[id].reward; r > bestReward {
				best = id
				bestReward = r
			}
		}
		chosen = best
	}
	return domain.DrawResult{Timestamp: now, Arm: chosen}, nil
}

func (p *EpsilonGreedy) Update(timestamp float64, arm domain.ArmID, reward float64) error {
	a, ok := p.arms[arm]
	if !ok {
		return &domain.ArmNotFoundError{Arm: arm}
	}
	a.update(reward)
	return nil
}

func (p *EpsilonGreedy) UpdateBatch(updates []domain.BatchUpdateElement) error {
	sorted := sortedByTimestamp(updates)
	for _, u := range sorted {
		if err := p.Update(u.Timestamp, u.Arm, u.Reward); err != nil {
			return err
		}
	}
	return nil
}

func (p *EpsilonGreedy) Stats() domain.PolicyStats {
	arms := make(map[domain.ArmID]domain.ArmStats, len(p.arms))
	for id, a := range p.arms {
		arms[id] = a.stats()
	}
	return domain.PolicyStats{Arms: arms}
}

func (p *EpsilonGreedy) PolicyType() domain.PolicyType {
	return domain.PolicyType{
		Kind:         domain.PolicyEpsilonGreedy,
		Epsilon:      p.epsilon,
		EpsilonDecay: p.decay,
		Seed:         p.rng.seed,
	}
}

func (p *EpsilonGreedy) Clone() Policy {
	clone := &EpsilonGreedy{
		arms:    make(map[domain.ArmID]*epsilonGreedyArm, len(p.arms)),
		order:   append([]domain.ArmID(nil), p.order...),
		epsilon: p.epsilon,
		decay:   p.decay,
		rng:     newSeededRand(p.rng.seed),
	}
	for id, a := range p.arms {
		cp := *a
		clone.arms[id] = &cp
	}
	return clone
}

type epsilonGreedySnapshot struct {
	Epsilon      float64                                 `json:"epsilon"`
	EpsilonDecay *domain.EpsilonDecay                     `json:"epsilon_decay,omitempty"`
	Seed         *uint64                                 `json:"seed,omitempty"`
	Arms         map[domain.ArmID]epsilonGreedyArmWireRep `json:"arms"`
}

type epsilonGreedyArmWireRep struct {
	Reward   float64 `json:"reward"`
	Count    uint64  `json:"count"`
	IsActive bool    `json:"is_active"`
}

func (p *EpsilonGreedy) snapshot() *epsilonGreedySnapshot {
	arms := make(map[domain.ArmID]epsilonGreedyArmWireRep, len(p.arms))
	for id, a := range p.arms {
		arms[id] = epsilonGreedyArmWireRep{Reward: a.reward, Count: a.count, IsActive: a.isActive}
	}
	return &epsilonGreedySnapshot{Epsilon: p.epsilon, EpsilonDecay: p.decay, Seed: p.rng.seed, Arms: arms}
}

func newEpsilonGreedyFromSnapshot(s *epsilonGreedySnapshot) *EpsilonGreedy {
	p := NewEpsilonGreedy(s.Epsilon, s.EpsilonDecay, s.Seed)
	order := make([]domain.ArmID, 0, len(s.Arms))
	for id := range s.Arms {
		order = append(order, id)
	}
	sortArmIDs(order)
	for _, id := range order {
		w := s.Arms[id]
		p.arms[id] = &epsilonGreedyArm{reward: w.Reward, count: w.Count, isActive: w.IsActive}
		p.order = append(p.order, id)
	}
	return p
}
