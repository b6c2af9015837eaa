package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clabrugere/go-bandits/internal/domain"
)

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

func pathUUID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.ErrInvalidUUID
	}
	return id, nil
}

func pathArm(r *http.Request) (domain.ArmID, error) {
	n, err := strconv.Atoi(chi.URLParam(r, "arm"))
	if err != nil {
		return 0, errors.New("invalid arm id")
	}
	return domain.ArmID(n), nil
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeStatus(w, http.StatusOK)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"experiments": s.repo.ListExperiments()})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.repo.Clear()
	writeStatus(w, http.StatusOK)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var pt domain.PolicyType
	if err := json.NewDecoder(r.Body).Decode(&pt); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id, err := s.repo.CreateExperiment(nil, pt)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]uuid.UUID{"experiment_id": id})
}

func (s *Server) handleExperimentPing(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.repo.Ping(id); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeStatus(w, http.StatusOK)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.repo.Reset(id, nil, nil, nil); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeStatus(w, http.StatusOK)
}

type resetArmRequest struct {
	CumulativeReward *float64 `json:"cumulative_reward,omitempty"`
	Count            *uint64  `json:"count,omitempty"`
}

func (s *Server) handleResetArm(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	arm, err := pathArm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var body resetArmRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	if err := s.repo.Reset(id, &arm, body.CumulativeReward, body.Count); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeStatus(w, http.StatusOK)
}

func (s *Server) handleDeleteExperiment(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.repo.DeleteExperiment(id); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeStatus(w, http.StatusOK)
}

type addArmRequest struct {
	InitialReward *float64 `json:"initial_reward,omitempty"`
	InitialCount  *uint64  `json:"initial_count,omitempty"`
}

func (s *Server) handleAddArm(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var body addArmRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	arm, err := s.repo.AddArm(id, body.InitialReward, body.InitialCount)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.ArmID{"arm_id": arm})
}

func (s *Server) handleDisableArm(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	arm, err := pathArm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.repo.DisableArm(id, arm); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeStatus(w, http.StatusOK)
}

func (s *Server) handleEnableArm(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	arm, err := pathArm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.repo.EnableArm(id, arm); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeStatus(w, http.StatusOK)
}

func (s *Server) handleDeleteArm(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	arm, err := pathArm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.repo.DeleteArm(id, arm); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeStatus(w, http.StatusOK)
}

func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	result, err := s.repo.Draw(id, nowSeconds())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type updateRequest struct {
	Timestamp float64      `json:"timestamp"`
	Arm       domain.ArmID `json:"arm_id"`
	Reward    float64      `json:"reward"`
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var body updateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.repo.Update(id, body.Timestamp, body.Arm, body.Reward); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeStatus(w, http.StatusOK)
}

type updateBatchRequest struct {
	Updates []domain.BatchUpdateElement `json:"updates"`
}

func (s *Server) handleUpdateBatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var body updateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.repo.UpdateBatch(id, body.Updates); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeStatus(w, http.StatusOK)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	stats, err := s.repo.GetStats(id)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
