package policy

import (
	"math"

	"github.com/clabrugere/go-bandits/internal/domain"
)

// eps is the floor applied to a Beta posterior's alpha/beta parameters
// after discounting, so they never reach zero or go negative.
const eps = 1e-6

type thomsonSamplingArm struct {
	alpha, beta float64
	count       uint64
	lastTs      float64
	isActive    bool
}

func newThomsonSamplingArm(initialReward float64, initialCount uint64, now float64) *thomsonSamplingArm {
	return &thomsonSamplingArm{
		alpha:    1.0 + initialReward,
		beta:     1.0 + float64(initialCount) - initialReward,
		count:    initialCount,
		lastTs:   now,
		isActive: true,
	}
}

func (a *thomsonSamplingArm) reset(cumReward *float64, count *uint64, now float64) {
	if cumReward != nil && count != nil {
		a.alpha = *cumReward + 1.0
		a.beta = float64(*count) - *cumReward + 1.0
		a.count = *count
	} else {
		a.alpha = 1.0
		a.beta = 1.0
		a.count = 0
	}
	a.lastTs = now
}

func (a *thomsonSamplingArm) decayWeight(halflife *float64, timestamp float64) float64 {
	if halflife == nil {
		return 1.0
	}
	dt := timestamp - a.lastTs
	return math.Exp(-dt * math.Ln2 / *halflife)
}

func (a *thomsonSamplingArm) applyDiscount(halflife *float64, timestamp float64) {
	decay := a.decayWeight(halflife, timestamp)
	a.alpha = math.Max(a.alpha*decay, eps)
	a.beta = math.Max(a.beta*decay, eps)
	a.lastTs = timestamp
}

func (a *thomsonSamplingArm) update(reward, timestamp float64, halflife *float64) {
	a.applyDiscount(halflife, timestamp)
	a.alpha += reward
	a.beta += 1.0 - reward
	a.count++
}

func (a *thomsonSamplingArm) stats() domain.ArmStats {
	return domain.ArmStats{Pulls: a.count, MeanReward: a.alpha / (a.alpha + a.beta), IsActive: a.isActive}
}

// ThomsonSampling is a Beta/Bernoulli Thompson Sampling policy with optional
// halflife-based discounting of accumulated evidence. See
// thomson_sampling.rs for the original semantics this mirrors.
type ThomsonSampling struct {
	order     []domain.ArmID
	arms      map[domain.ArmID]*thomsonSamplingArm
	halflife  *float64
	rng       *seededRand
	lastDrawn float64
}

// NewThomsonSampling constructs an empty Thompson Sampling policy. A nil
// halflife disables discounting.
func NewThomsonSampling(halflife *float64, seed *uint64) *ThomsonSampling {
	return &ThomsonSampling{
		arms:     make(map[domain.ArmID]*thomsonSamplingArm),
		halflife: halflife,
		rng:      newSeededRand(seed),
	}
}

func (p *ThomsonSampling) Reset(arm *domain.ArmID, cumReward *float64, count *uint64) error {
	now := p.lastDrawn
	if arm != nil {
		a, ok := p.arms[*arm]
		if !ok {
			return &domain.ArmNotFoundError{Arm: *arm}
		}
		a.reset(cumReward, count, now)
		return nil
	}
	for _, a := range p.arms {
		a.reset(nil, nil, now)
	}
	return nil
}

func (p *ThomsonSampling) AddArm(initialReward float64, initialCount uint64) domain.ArmID {
	id := domain.ArmID(len(p.order))
	p.arms[id] = newThomsonSamplingArm(initialReward, initialCount, p.lastDrawn)
	p.order = append(p.order, id)
	return id
}

func (p *ThomsonSampling) DisableArm(arm domain.ArmID) error {
	a, ok := p.arms[arm]
	if !ok {
		return &domain.ArmNotFoundError{Arm: arm}
	}
	a.isActive = false
	return nil
}

func (p *ThomsonSampling) EnableArm(arm domain.ArmID) error {
	a, ok := p.arms[arm]
	if !ok {
		return &domain.ArmNotFoundError{Arm: arm}
	}
	a.isActive = true
	return nil
}

func (p *ThomsonSampling) DeleteArm(arm domain.ArmID) error {
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

func (p *ThomsonSampling) Draw(now float64) (domain.DrawResult, error) {
	p.lastDrawn = now
	var best domain.ArmID
	bestSample := math.Inf(-1)
	found := false
	var samplingErr error
	for _, id := range p.order {
		a := p.arms[id]
		if !a.isActive {
			continue
		}
		a.applyDiscount(p.halflife, now)
		if a.alpha <= 0 || a.beta <= 0 {
			samplingErr = &domain.SamplingError{Arm: id, Reason: "non-positive Beta parameter"}
			continue
		}
		s := sampleBeta(p.rng, a.alpha, a.beta)
		if !found || s > bestSample {
			best, bestSample, found = id, s, true
		}
	}
	if !found {
		if samplingErr != nil {
			return domain.DrawResult{}, samplingErr
		}
		return domain.DrawResult{}, domain.ErrNoArmsAvailable
	}
	return domain.DrawResult{Timestamp: now, Arm: best}, nil
}

func (p *ThomsonSampling) Update(timestamp float64, arm domain.ArmID, reward float64) error {
	a, ok := p.arms[arm]
	if !ok {
		return &domain.ArmNotFoundError{Arm: arm}
	}
	a.update(reward, timestamp, p.halflife)
	return nil
}

func (p *ThomsonSampling) UpdateBatch(updates []domain.BatchUpdateElement) error {
	sorted := sortedByTimestamp(updates)
	for _, u := range sorted {
		if err := p.Update(u.Timestamp, u.Arm, u.Reward); err != nil {
			return err
		}
	}
	return nil
}

func (p *ThomsonSampling) Stats() domain.PolicyStats {
	arms := make(map[domain.ArmID]domain.ArmStats, len(p.arms))
	for id, a := range p.arms {
		arms[id] = a.stats()
	}
	return domain.PolicyStats{Arms: arms}
}

func (p *ThomsonSampling) PolicyType() domain.PolicyType {
	return domain.PolicyType{
		Kind:           domain.PolicyThomsonSampling,
		HalflifeSecond: p.halflife,
		Seed:           p.rng.seed,
	}
}

func (p *ThomsonSampling) Clone() Policy {
	clone := &ThomsonSampling{
		arms:      make(map[domain.ArmID]*thomsonSamplingArm, len(p.arms)),
		order:     append([]domain.ArmID(nil), p.order...),
		halflife:  p.halflife,
		rng:       newSeededRand(p.rng.seed),
		lastDrawn: p.lastDrawn,
	}
	for id, a := range p.arms {
		cp := *a
		clone.arms[id] = &cp
	}
	return clone
}

type thomsonSamplingSnapshot struct {
	HalflifeSecond *float64                                    `json:"halflife_seconds,omitempty"`
	Seed           *uint64                                     `json:"seed,omitempty"`
	Arms           map[domain.ArmID]thomsonSamplingArmWireRep `json:"arms"`
}

type thomsonSamplingArmWireRep struct {
	Alpha    float64 `json:"alpha"`
	Beta     float64 `json:"beta"`
	Count    uint64  `json:"count"`
	LastTs   float64 `json:"last_ts"`
	IsActive bool    `json:"is_active"`
}

func (p *ThomsonSampling) snapshot() *thomsonSamplingSnapshot {
	arms := make(map[domain.ArmID]thomsonSamplingArmWireRep, len(p.arms))
	for id, a := range p.arms {
		arms[id] = thomsonSamplingArmWireRep{Alpha: a.alpha, Beta: a.beta, Count: a.count, LastTs: a.lastTs, IsActive: a.isActive}
	}
	return &thomsonSamplingSnapshot{HalflifeSecond: p.halflife, Seed: p.rng.seed, Arms: arms}
}

func newThomsonSamplingFromSnapshot(s *thomsonSamplingSnapshot) *ThomsonSampling {
	p := NewThomsonSampling(s.HalflifeSecond, s.Seed)
	order := make([]domain.ArmID, 0, len(s.Arms))
	for id := range s.Arms {
		order = append(order, id)
	}
	sortArmIDs(order)
	for _, id := range order {
		w := s.Arms[id]
		p.arms[id] = &thomsonSamplingArm{alpha: w.Alpha, beta: w.Beta, count: w.Count, lastTs: w.LastTs, isActive: w.IsActive}
		p.order = append(p.order, id)
	}
	return p
}

// sampleBeta draws from a Beta(alpha, beta) distribution via the
// ratio-of-Gammas construction: if X ~ Gamma(alpha,1) and Y ~ Gamma(beta,1)
// independently, X/(X+Y) ~ Beta(alpha,beta).
func sampleBeta(rng *seededRand, alpha, beta float64) float64 {
	x := sampleGamma(rng, alpha)
	y := sampleGamma(rng, beta)
	if x+y == 0 {
		return 0.5
	}
	return x / (x + y)
}

// sampleGamma draws from a Gamma(shape, 1) distribution using the
// Marsaglia-Tsang squeeze method for shape >= 1, boosted by one uniform
// draw for shape < 1 (Gamma(shape) = Gamma(shape+1) * U^(1/shape)).
func sampleGamma(rng *seededRand, shape float64) float64 {
	if shape < 1 {
		u := rng.Float64()
		return sampleGamma(rng, shape+1) * math.Pow(u, 1.0/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		var x, v float64
		for {
			x = normalFloat64(rng)
			v = 1.0 + c*x
			if v > 0 {
				break
			}
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1.0-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v
		}
	}
}

// normalFloat64 draws a standard-normal sample via the Box-Muller
// transform, using the shared seeded generator's uniform Float64.
func normalFloat64(rng *seededRand) float64 {
	u1 := rng.Float64()
	if u1 < 1e-12 {
		u1 = 1e-12
	}
	u2 := rng.Float64()
	return math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
}
