package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/gfragi/attendance-app/internal/dto"
	"github.com/gfragi/attendance-app/internal/model"
	"github.com/gfragi/attendance-app/internal/repository"
)

var (
	ErrImportNoData      = errors.New("import file has no data rows")
	ErrImportTooManyRows = errors.New("import file exceeds the row limit")
	ErrImportBadHeader   = errors.New("import file is missing required columns")
)

// MaxImportRows caps one upload.
const MaxImportRows = 1000

// ImportRow is one parsed assignment line: course plus the instructor who
// teaches it.
type ImportRow struct {
	Line            int
	CourseCode      string
	CourseTitle     string
	InstructorName  string
	InstructorEmail string
}

// ImportService ingests course/instructor rosters from CSV or XLSX
// uploads. Creation is upsert-like: existing courses, users and
// assignments are reused, never duplicated.
type ImportService interface {
	ParseCSV(r io.Reader) ([]ImportRow, error)
	ParseXLSX(r io.Reader) ([]ImportRow, error)
	Import(ctx context.Context, rows []ImportRow) (*dto.ImportResponse, error)
}

type importService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewImportService creates the ImportService.
func NewImportService(repo *repository.Repository, logger *zap.Logger) ImportService {
	return &importService{repo: repo, logger: logger}
}

// Header aliases tolerate the spreadsheet variants instructors actually
// upload, including the long-lived "corse title" typo.
var headerAliases = map[string]string{
	"course_code":      "course_code",
	"course code":      "course_code",
	"id":               "course_code",
	"course_title":     "course_title",
	"course title":     "course_title",
	"corse title":      "course_title",
	"instructor_name":  "instructor_name",
	"instructor name":  "instructor_name",
	"professor":        "instructor_name",
	"instructor_email": "instructor_email",
	"instructor email": "instructor_email",
	"email":            "instructor_email",
}

// mapHeader resolves each required column to its index, or fails with
// ErrImportBadHeader when one is missing.
func mapHeader(cells []string) (map[string]int, error) {
	cols := make(map[string]int, 4)
	for i, cell := range cells {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		if canonical, ok := headerAliases[normalized]; ok {
			if _, seen := cols[canonical]; !seen {
				cols[canonical] = i
			}
		}
	}
	for _, required := range []string{"course_code", "course_title", "instructor_name", "instructor_email"} {
		if _, ok := cols[required]; !ok {
			return nil, ErrImportBadHeader
		}
	}
	return cols, nil
}

func rowsFromCells(lines [][]string) ([]ImportRow, error) {
	if len(lines) < 2 {
		return nil, ErrImportNoData
	}
	if len(lines)-1 > MaxImportRows {
		return nil, ErrImportTooManyRows
	}

	cols, err := mapHeader(lines[0])
	if err != nil {
		return nil, err
	}

	pick := func(cells []string, col string) string {
		idx := cols[col]
		if idx >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[idx])
	}

	rows := make([]ImportRow, 0, len(lines)-1)
	for i, cells := range lines[1:] {
		rows = append(rows, ImportRow{
			// Data starts on line 2 of the file.
			Line:            i + 2,
			CourseCode:      pick(cells, "course_code"),
			CourseTitle:     pick(cells, "course_title"),
			InstructorName:  pick(cells, "instructor_name"),
			InstructorEmail: NormalizeEmail(pick(cells, "instructor_email")),
		})
	}
	return rows, nil
}

func (s *importService) ParseCSV(r io.Reader) ([]ImportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	lines, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rowsFromCells(lines)
}

func (s *importService) ParseXLSX(r io.Reader) ([]ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrImportNoData
	}
	lines, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read xlsx rows: %w", err)
	}
	return rowsFromCells(lines)
}

// Import applies parsed rows in two phases: validation first, collecting
// per-line errors, then one transaction for everything that passed. A
// failed transaction leaves nothing behind.
func (s *importService) Import(ctx context.Context, rows []ImportRow) (*dto.ImportResponse, error) {
	resp := &dto.ImportResponse{Total: len(rows)}

	valid := make([]ImportRow, 0, len(rows))
	for _, row := range rows {
		if reason := validateImportRow(&row); reason != "" {
			resp.Failed++
			resp.Errors = append(resp.Errors, dto.ImportRowError{Row: row.Line, Reason: reason})
			continue
		}
		valid = append(valid, row)
	}

	if len(valid) == 0 {
		return resp, nil
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	txRepo := s.repo.WithTx(tx)

	for _, row := range valid {
		if err := s.applyRow(ctx, txRepo, &row, resp); err != nil {
			tx.Rollback()
			s.logger.Error("import failed, rolled back",
				zap.Int("line", row.Line), zap.Error(err))
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	s.logger.Info("import applied",
		zap.Int("total", resp.Total),
		zap.Int("courses_created", resp.CoursesCreated),
		zap.Int("instructors_created", resp.InstructorsCreated),
		zap.Int("assignments_created", resp.AssignmentsCreated),
		zap.Int("failed", resp.Failed),
	)
	return resp, nil
}

func validateImportRow(row *ImportRow) string {
	switch {
	case row.CourseCode == "":
		return "missing course code"
	case row.CourseTitle == "":
		return "missing course title"
	case row.InstructorName == "":
		return "missing instructor name"
	case row.InstructorEmail == "":
		return "missing instructor email"
	case !strings.Contains(row.InstructorEmail, "@"):
		return "invalid instructor email"
	}
	return ""
}

func (s *importService) applyRow(ctx context.Context, repo *repository.Repository, row *ImportRow, resp *dto.ImportResponse) error {
	course, err := repo.Course.GetByCode(ctx, row.CourseCode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		course = &model.Course{Code: row.CourseCode, Title: row.CourseTitle}
		if err := repo.Course.Create(ctx, course); err != nil {
			return err
		}
		resp.CoursesCreated++
	} else if err != nil {
		return err
	}

	user, err := repo.User.GetByEmail(ctx, row.InstructorEmail)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = &model.User{
			Name:   row.InstructorName,
			Email:  row.InstructorEmail,
			Role:   model.RoleInstructor,
			Active: true,
		}
		if err := repo.User.Create(ctx, user); err != nil {
			return err
		}
		resp.InstructorsCreated++
	} else if err != nil {
		return err
	}

	assigned, err := repo.Course.IsAssigned(ctx, course.CourseID, user.UserID)
	if err != nil {
		return err
	}
	if !assigned {
		if err := repo.Course.Assign(ctx, course.CourseID, user.UserID); err != nil {
			return err
		}
		resp.AssignmentsCreated++
	}
	return nil
}
