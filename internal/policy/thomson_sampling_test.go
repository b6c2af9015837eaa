package policy

import (
	"math"
	"testing"

	"github.com/clabrugere/go-bandits/internal/domain"
)

func halflife(v float64) *float64 { return &v }

func TestThomsonSamplingAddArm(t *testing.T) {
	p := NewThomsonSampling(nil, seed(1234))
	arm := p.AddArm(0, 0)
	if _, ok := p.arms[arm]; !ok {
		t.Fatalf("expected arm to exist")
	}
	if p.arms[arm].alpha != 1.0 || p.arms[arm].beta != 1.0 {
		t.Fatalf("expected uniform prior, got alpha=%v beta=%v", p.arms[arm].alpha, p.arms[arm].beta)
	}
}

func TestThomsonSamplingDrawEmpty(t *testing.T) {
	p := NewThomsonSampling(nil, seed(1234))
	if _, err := p.Draw(0); err != domain.ErrNoArmsAvailable {
		t.Fatalf("expected ErrNoArmsAvailable, got %v", err)
	}
}

func TestThomsonSamplingDrawBest(t *testing.T) {
	p := NewThomsonSampling(nil, seed(1234))
	arm1 := p.AddArm(0, 0)
	p.AddArm(0, 0)
	p.arms[arm1].alpha += 100.0

	result, err := p.Draw(0)
	if err != nil {
		t.Fatalf("draw: %v", err)
	}
	if result.Arm != arm1 {
		t.Fatalf("expected arm %d (overwhelming prior), got %d", arm1, result.Arm)
	}
}

func TestThomsonSamplingUpdate(t *testing.T) {
	p := NewThomsonSampling(nil, seed(1234))
	arm := p.AddArm(0, 0)
	if err := p.Update(1, arm, 1.0); err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.arms[arm].alpha != 2.0 || p.arms[arm].beta != 1.0 {
		t.Fatalf("expected alpha=2 beta=1, got alpha=%v beta=%v", p.arms[arm].alpha, p.arms[arm].beta)
	}
}

// Scenario 4: halflife=60s, initial alpha=beta=1, dt=60s discount -> 0.5/0.5.
func TestThomsonSamplingDiscount(t *testing.T) {
	arm := &thomsonSamplingArm{alpha: 1.0, beta: 1.0, lastTs: 0, isActive: true}
	hl := 60.0
	arm.applyDiscount(&hl, 60.0)
	if math.Abs(arm.alpha-0.5) > eps || math.Abs(arm.beta-0.5) > eps {
		t.Fatalf("expected alpha=beta=0.5, got alpha=%v beta=%v", arm.alpha, arm.beta)
	}
}

func TestThomsonSamplingNoDiscountWithoutHalflife(t *testing.T) {
	arm := &thomsonSamplingArm{alpha: 1.0, beta: 1.0, lastTs: 0, isActive: true}
	arm.applyDiscount(nil, 1.0)
	if math.Abs(arm.alpha-1.0) > eps || math.Abs(arm.beta-1.0) > eps {
		t.Fatalf("expected unchanged alpha/beta without halflife, got alpha=%v beta=%v", arm.alpha, arm.beta)
	}
}

func TestThomsonSamplingNoDiscountAtZeroDt(t *testing.T) {
	arm := &thomsonSamplingArm{alpha: 1.0, beta: 1.0, lastTs: 0, isActive: true}
	hl := 60.0
	arm.applyDiscount(&hl, 0.0)
	if math.Abs(arm.alpha-1.0) > eps || math.Abs(arm.beta-1.0) > eps {
		t.Fatalf("expected unchanged alpha/beta at dt=0, got alpha=%v beta=%v", arm.alpha, arm.beta)
	}
}

func TestThomsonSamplingRoundTrip(t *testing.T) {
	h := halflife(30)
	p := NewThomsonSampling(h, seed(42))
	arm := p.AddArm(1, 2)
	_ = p.Update(0, arm, 1.0)

	data, err := MarshalPolicy(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	loaded, err := UnmarshalPolicy(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	before, after := p.Stats(), loaded.Stats()
	if before.Arms[arm] != after.Arms[arm] {
		t.Fatalf("round trip mismatch: %+v vs %+v", before.Arms[arm], after.Arms[arm])
	}
}

func TestSampleBetaBounds(t *testing.T) {
	rng := newSeededRand(seed(7))
	for i := 0; i < 200; i++ {
		s := sampleBeta(rng, 2.0, 5.0)
		if s < 0 || s > 1 {
			t.Fatalf("beta sample out of bounds: %v", s)
		}
	}
}
