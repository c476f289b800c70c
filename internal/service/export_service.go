package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"scanlink/backend/internal/repository"
)

var (
	ErrClassNotFound  = errors.New("class not found")
	ErrClassForbidden = errors.New("class belongs to another teacher")
	ErrExportNoRows   = errors.New("class has no students")
	ErrExportGenerate = errors.New("generating export file failed")
)

var participationHeader = []string{"Student", "Phone", "Scans", "Completed", "Last Status"}

// ExportService produces class participation downloads for the teacher
// portal.
//
// Two formats: CSV is the wire format served as a text/csv attachment
// (RFC-4180 quoting); XLSX is the dashboard convenience download. Both
// return a buffer plus a suggested filename; the handler sets the
// response headers.
type ExportService interface {
	ParticipationCSV(ctx context.Context, teacherID, classID string) (*bytes.Buffer, string, error)
	ParticipationXLSX(ctx context.Context, teacherID, classID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService creates the ExportService.
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

func (s *exportService) participationRows(ctx context.Context, teacherID, classID string) ([]repository.ParticipationRow, string, error) {
	class, err := s.repo.Teacher.GetClassByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrClassNotFound
		}
		s.logger.Error("loading class", zap.Error(err))
		return nil, "", err
	}
	if class.TeacherID != teacherID {
		return nil, "", ErrClassForbidden
	}

	rows, err := s.repo.Scan.ParticipationByClass(ctx, classID)
	if err != nil {
		s.logger.Error("loading participation", zap.Error(err))
		return nil, "", err
	}
	if len(rows) == 0 {
		return nil, "", ErrExportNoRows
	}

	return rows, class.Name, nil
}

func (s *exportService) ParticipationCSV(ctx context.Context, teacherID, classID string) (*bytes.Buffer, string, error) {
	rows, className, err := s.participationRows(ctx, teacherID, classID)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(participationHeader); err != nil {
		return nil, "", ErrExportGenerate
	}
	for _, row := range rows {
		record := []string{
			row.Name,
			row.Phone,
			strconv.FormatInt(row.ScanCount, 10),
			strconv.FormatInt(row.CompletedCount, 10),
			row.LastStatus,
		}
		if err := w.Write(record); err != nil {
			return nil, "", ErrExportGenerate
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", ErrExportGenerate
	}

	return &buf, fmt.Sprintf("participation-%s.csv", className), nil
}

func (s *exportService) ParticipationXLSX(ctx context.Context, teacherID, classID string) (*bytes.Buffer, string, error) {
	rows, className, err := s.participationRows(ctx, teacherID, classID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Participation"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, "", ErrExportGenerate
	}

	for col, title := range participationHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, title); err != nil {
			return nil, "", ErrExportGenerate
		}
	}

	for i, row := range rows {
		values := []interface{}{row.Name, row.Phone, row.ScanCount, row.CompletedCount, row.LastStatus}
		for col, val := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return nil, "", ErrExportGenerate
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		s.logger.Error("writing workbook", zap.Error(err))
		return nil, "", ErrExportGenerate
	}

	return buf, fmt.Sprintf("participation-%s.xlsx", className), nil
}
