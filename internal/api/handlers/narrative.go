package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clarivex-health/advera/internal/api"
	"github.com/clarivex-health/advera/internal/domain"
)

type NarrativeService interface {
	GenerateForCase(ctx context.Context, c domain.Case) (*domain.ClinicalNarrative, error)
	GetReport(ctx context.Context, patientID string) (string, error)
}

type NarrativeHandler struct {
	svc NarrativeService
}

func NewNarrativeHandler(svc NarrativeService) *NarrativeHandler {
	return &NarrativeHandler{svc: svc}
}

type GenerateNarrativeRequest struct {
	PatientID    string `json:"patient_id"`
	Age          int    `json:"age"`
	Gender       string `json:"gender"`
	DrugName     string `json:"drug_name"`
	StopReason   string `json:"stop_reason"`
	DurationDays int    `json:"duration_days"`
}

type NarrativeResponse struct {
	PatientID         string `json:"patient_id"`
	DrugName          string `json:"drug_name"`
	DurationDays      int    `json:"duration_days"`
	StopReason        string `json:"stop_reason"`
	Narrative         string `json:"narrative"`
	ProbableSyndrome  string `json:"probable_syndrome"`
	Mechanism         string `json:"mechanism"`
	SeriousnessLevel  string `json:"seriousness_level"`
	CausalityCategory string `json:"causality_category"`
	ClinicalAdvice    string `json:"clinical_advice"`
	GeneratedAt       string `json:"generated_at"`
}

func narrativeToResponse(n *domain.ClinicalNarrative) *NarrativeResponse {
	return &NarrativeResponse{
		PatientID:         n.PatientID,
		DrugName:          n.DrugName,
		DurationDays:      n.DurationDays,
		StopReason:        n.StopReason,
		Narrative:         n.Narrative,
		ProbableSyndrome:  n.ProbableSyndrome,
		Mechanism:         n.Mechanism,
		SeriousnessLevel:  n.SeriousnessLevel,
		CausalityCategory: n.CausalityCategory,
		ClinicalAdvice:    n.ClinicalAdvice,
		GeneratedAt:       n.GeneratedAt.UTC().Format(time.RFC3339),
	}
}

// Generate runs the full retrieval and generation pipeline for one case.
func (h *NarrativeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateNarrativeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := domain.Case{
		PatientID:    req.PatientID,
		Age:          req.Age,
		Gender:       req.Gender,
		DrugName:     req.DrugName,
		StopReason:   req.StopReason,
		DurationDays: req.DurationDays,
	}

	narrative, err := h.svc.GenerateForCase(r.Context(), c)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, narrativeToResponse(narrative))
}

type ReportResponse struct {
	PatientID string `json:"patient_id"`
	Report    string `json:"report"`
}

// GetReport returns a previously saved clinical report.
func (h *NarrativeHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	patientID := chi.URLParam(r, "patientID")
	if patientID == "" {
		api.Error(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	report, err := h.svc.GetReport(r.Context(), patientID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ReportResponse{
		PatientID: patientID,
		Report:    report,
	})
}
