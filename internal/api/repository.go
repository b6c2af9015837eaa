package api

import (
	"github.com/google/uuid"

	"github.com/clabrugere/go-bandits/internal/domain"
)

// Repository is the subset of *repository.Repository the HTTP adapter
// depends on, narrowed to an interface so handler tests can supply a fake
// without spinning up real experiment actors.
type Repository interface {
	CreateExperiment(id *uuid.UUID, pt domain.PolicyType) (uuid.UUID, error)
	DeleteExperiment(id uuid.UUID) error
	ListExperiments() []domain.ExperimentDescriptor
	Clear()

	Ping(id uuid.UUID) error
	Reset(id uuid.UUID, arm *domain.ArmID, cumReward *float64, count *uint64) error
	AddArm(id uuid.UUID, initialReward *float64, initialCount *uint64) (domain.ArmID, error)
	DisableArm(id uuid.UUID, arm domain.ArmID) error
	EnableArm(id uuid.UUID, arm domain.ArmID) error
	DeleteArm(id uuid.UUID, arm domain.ArmID) error
	Draw(id uuid.UUID, now float64) (domain.DrawResult, error)
	Update(id uuid.UUID, timestamp float64, arm domain.ArmID, reward float64) error
	UpdateBatch(id uuid.UUID, updates []domain.BatchUpdateElement) error
	GetStats(id uuid.UUID) (domain.PolicyStats, error)
}
