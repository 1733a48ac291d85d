package analyzer

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rewired-gh/reelstats/internal/storage"
)

// ReportFile is the report's file name inside the results directory
const ReportFile = "movie_analysis_report.json"

// ErrReportNotFound is returned by ReadReport when no report has been written yet
var ErrReportNotFound = errors.New("analysis report not found")

// MarshalReport renders the report as indented JSON with a trailing newline
func MarshalReport(report *Report) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteReport atomically writes the report into dir and returns its path
func WriteReport(dir string, report *Report) (string, error) {
	data, err := MarshalReport(report)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, ReportFile)
	if err := storage.WriteFileAtomic(path, data); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// ReadReport loads the report from dir
func ReadReport(dir string) (*Report, error) {
	data, err := os.ReadFile(filepath.Join(dir, ReportFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}
