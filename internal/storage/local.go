package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/clarivex-health/advera/internal/domain"
)

// ReportFilename returns the canonical report file name for a patient ID.
// The patient ID must pass domain.ValidPatientID before it reaches here.
func ReportFilename(patientID string) string {
	return fmt.Sprintf("clinical_report_%s.txt", patientID)
}

// checkPatientID guards store operations against patient IDs that would
// escape the report location. The report download path takes the ID straight
// from the URL, so the stores cannot rely on case validation alone.
func checkPatientID(patientID string) error {
	if !domain.ValidPatientID(patientID) {
		return domain.ErrInvalidPatientID
	}
	return nil
}

// LocalReportStore persists clinical reports as plain-text files under a
// single directory. This is the default store when S3 is not configured.
type LocalReportStore struct {
	dir string
}

// NewLocalReportStore creates the report directory if needed.
func NewLocalReportStore(dir string) (*LocalReportStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}
	return &LocalReportStore{dir: dir}, nil
}

// SaveReport writes the report file and returns its path.
func (s *LocalReportStore) SaveReport(_ context.Context, patientID, content string) (string, error) {
	if err := checkPatientID(patientID); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, ReportFilename(patientID))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// GetReport reads a stored report by patient ID.
func (s *LocalReportStore) GetReport(_ context.Context, patientID string) (string, error) {
	if err := checkPatientID(patientID); err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, ReportFilename(patientID))
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", domain.ErrReportNotFound
		}
		return "", fmt.Errorf("failed to read report: %w", err)
	}
	return string(content), nil
}
