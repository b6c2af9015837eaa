package policy

import (
	"math"

	"github.com/clabrugere/go-bandits/internal/domain"
)

type ucbArm struct {
	reward   float64
	count    uint64
	isActive bool
}

func newUcbArm(initialReward float64, initialCount uint64) *ucbArm {
	return &ucbArm{reward: initialReward, count: initialCount, isActive: true}
}

func (a *ucbArm) reset(cumReward *float64, count *uint64) {
	a.reward = 0
	if cumReward != nil {
		a.reward = *cumReward
	}
	a.count = 0
	if count != nil {
		a.count = *count
	}
}

// score returns the UCB1 exploration-augmented estimate for this arm, given
// the exploration coefficient alpha and the total pull count across active
// arms. Callers must not invoke this while count == 0 (warm-up handles
// those arms separately).
func (a *ucbArm) score(alpha float64, totalCount uint64) float64 {
	return a.reward + math.Sqrt(alpha*math.Log(float64(totalCount))/(2.0*float64(a.count)))
}

func (a *ucbArm) update(reward float64) {
	a.count++
	a.reward += (reward - a.reward) / float64(a.count)
}

func (a *ucbArm) stats() domain.ArmStats {
	return domain.ArmStats{Pulls: a.count, MeanReward: a.reward, IsActive: a.isActive}
}

// Ucb is the UCB1 policy. Its exploration term follows the explicit
// sqrt(alpha*ln(N)/(2*count)) form; see ucb.rs for the no-sqrt variant this
// diverges from, and DESIGN.md for the resolution.
type Ucb struct {
	order []domain.ArmID
	arms  map[domain.ArmID]*ucbArm
	alpha float64
	rng   *seededRand
}

// NewUcb constructs an empty UCB1 policy with the given exploration
// coefficient alpha.
func NewUcb(alpha float64, seed *uint64) *Ucb {
	return &Ucb{arms: make(map[domain.ArmID]*ucbArm), alpha: alpha, rng: newSeededRand(seed)}
}

func (p *Ucb) totalCount() uint64 {
	var total uint64
	for _, arm := range p.arms {
		if arm.isActive {
			total += arm.count
		}
	}
	return total
}

func (p *Ucb) Reset(arm *domain.ArmID, cumReward *float64, count *uint64) error {
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

func (p *Ucb) AddArm(initialReward float64, initialCount uint64) domain.ArmID {
	id := domain.ArmID(len(p.order))
	p.arms[id] = newUcbArm(initialReward, initialCount)
	p.order = append(p.order, id)
	return id
}

func (p *Ucb) DisableArm(arm domain.ArmID) error {
	a, ok := p.arms[arm]
	if !ok {
		return &domain.ArmNotFoundError{Arm: arm}
	}
	a.isActive = false
	return nil
}

func (p *Ucb) EnableArm(arm domain.ArmID) error {
	a, ok := p.arms[arm]
	if !ok {
		return &domain.ArmNotFoundError{Arm: arm}
	}
	a.isActive = true
	return nil
}

func (p *Ucb) DeleteArm(arm domain.ArmID) error {
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

func (p *Ucb) Draw(now float64) (domain.DrawResult, error) {
	var unexplored []domain.ArmID
	for _, id := range p.order {
		a := p.arms[id]
		if a.isActive && a.count == 0 {
			unexplored = append(unexplored, id)
		}
	}
	if len(unexplored) > 0 {
		chosen := unexplored[p.rng.IntN(len(unexplored))]
		return domain.DrawResult{Timestamp: now, Arm: chosen}, nil
	}

	total := p.totalCount()
	var best domain.ArmID
	bestScore := math.Inf(-1)
	found := false
	for _, id := range p.order {
		a := p.arms[id]
		if !a.isActive {
			continue
		}
		s := a.score(p.alpha, total)
		if !found || s > bestScore {
			best, bestScore, found = id, s, true
		}
	}
	if !found {
		return domain.DrawResult{}, domain.ErrNoArmsAvailable
	}
	return domain.DrawResult{Timestamp: now, Arm: best}, nil
}

func (p *Ucb) Update(timestamp float64, arm domain.ArmID, reward float64) error {
	a, ok := p.arms[arm]
	if !ok {
		return &domain.ArmNotFoundError{Arm: arm}
	}
	a.update(reward)
	return nil
}

func (p *Ucb) UpdateBatch(updates []domain.BatchUpdateElement) error {
	sorted := sortedByTimestamp(updates)
	for _, u := range sorted {
		if err := p.Update(u.Timestamp, u.Arm, u.Reward); err != nil {
			return err
		}
	}
	return nil
}

func (p *Ucb) Stats() domain.PolicyStats {
	arms := make(map[domain.ArmID]domain.ArmStats, len(p.arms))
	for id, a := range p.arms {
		arms[id] = a.stats()
	}
	return domain.PolicyStats{Arms: arms}
}

func (p *Ucb) PolicyType() domain.PolicyType {
	return domain.PolicyType{Kind: domain.PolicyUcb, Alpha: p.alpha, Seed: p.rng.seed}
}

func (p *Ucb) Clone() Policy {
	clone := &Ucb{
		arms:  make(map[domain.ArmID]*ucbArm, len(p.arms)),
		order: append([]domain.ArmID(nil), p.order...),
		alpha: p.alpha,
		rng:   newSeededRand(p.rng.seed),
	}
	for id, a := range p.arms {
		cp := *a
		clone.arms[id] = &cp
	}
	return clone
}

type ucbSnapshot struct {
	Alpha float64                          `json:"alpha"`
	Seed  *uint64                          `json:"seed,omitempty"`
	Arms  map[domain.ArmID]ucbArmWireRep `json:"arms"`
}

type ucbArmWireRep struct {
	Reward   float64 `json:"reward"`
	Count    uint64  `json:"count"`
	IsActive bool    `json:"is_active"`
}

func (p *Ucb) snapshot() *ucbSnapshot {
	arms := make(map[domain.ArmID]ucbArmWireRep, len(p.arms))
	for id, a := range p.arms {
		arms[id] = ucbArmWireRep{Reward: a.reward, Count: a.count, IsActive: a.isActive}
	}
	return &ucbSnapshot{Alpha: p.alpha, Seed: p.rng.seed, Arms: arms}
}

func newUcbFromSnapshot(s *ucbSnapshot) *Ucb {
	p := NewUcb(s.Alpha, s.Seed)
	order := make([]domain.ArmID, 0, len(s.Arms))
	for id := range s.Arms {
		order = append(order, id)
	}
	sortArmIDs(order)
	for _, id := range order {
		w := s.Arms[id]
		p.arms[id] = &ucbArm{reward: w.Reward, count: w.Count, isActive: w.IsActive}
		p.order = append(p.order, id)
	}
	return p
}
