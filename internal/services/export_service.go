package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/astromirror/quiz-service/internal/models"
	"github.com/astromirror/quiz-service/internal/repositories"
)

// ExportService renders persisted quiz results as downloadable files.
type ExportService interface {
	ExportResultsToCSV(ctx context.Context, filters repositories.ResultFilters) ([]byte, error)
	ExportResultsToExcel(ctx context.Context, filters repositories.ResultFilters) ([]byte, error)
}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

var exportHeaders = []string{
	"Session ID", "Profile ID", "Profile Name", "Result Kind", "Completed At",
	"Fire", "Water", "Air", "Earth",
	"Cardinal", "Fixed", "Mutable",
	"Solar", "Lunar",
}

func (s *exportService) ExportResultsToCSV(ctx context.Context, filters repositories.ResultFilters) ([]byte, error) {
	results, total, err := s.repo.Result().List(ctx, filters)
	if err != nil {
		return nil, NewStorageError("list results", err)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(exportHeaders); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, result := range results {
		record := make([]string, 0, len(exportHeaders))
		for _, value := range exportRow(result) {
			switch v := value.(type) {
			case string:
				record = append(record, v)
			case int:
				record = append(record, strconv.Itoa(v))
			default:
				record = append(record, fmt.Sprintf("%v", v))
			}
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	s.logger.Info("Exported quiz results to CSV", "count", len(results), "total", total)
	return buf.Bytes(), nil
}

func (s *exportService) ExportResultsToExcel(ctx context.Context, filters repositories.ResultFilters) ([]byte, error) {
	results, total, err := s.repo.Result().List(ctx, filters)
	if err != nil {
		return nil, NewStorageError("list results", err)
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)

	for i, header := range exportHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, result := range results {
		for colIndex, value := range exportRow(result) {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported quiz results to Excel", "count", len(results), "total", total)
	return buf.Bytes(), nil
}

func exportRow(result *models.QuizResult) []interface{} {
	profile := result.Profile.Data()
	scores := result.Scores.Data()

	name := ""
	kind := "profile"
	switch {
	case profile.Archetype != nil:
		name = profile.Archetype.ArchetypeName
	case profile.Fallback != nil:
		name = profile.Fallback.ArchetypeName
	}
	if result.IsFallback {
		kind = "fallback"
	}

	return []interface{}{
		result.SessionID,
		result.ProfileID,
		name,
		kind,
		result.CompletedAt.Format("2006-01-02 15:04:05"),
		scores.Fire, scores.Water, scores.Air, scores.Earth,
		scores.Cardinal, scores.Fixed, scores.Mutable,
		scores.Solar, scores.Lunar,
	}
}
