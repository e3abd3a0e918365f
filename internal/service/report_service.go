package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/gfragi/attendance-app/config"
	"github.com/gfragi/attendance-app/internal/dto"
	"github.com/gfragi/attendance-app/internal/repository"
)

var (
	ErrInvalidDateRange = errors.New("invalid report date range")
	ErrUnknownCSVKind   = errors.New("unknown export kind")
)

// CSV export kinds.
const (
	ExportRaw     = "raw"
	ExportGrouped = "grouped"
	ExportRates   = "rates"
)

// ReportService aggregates check-in data over calendar ranges. All
// bucketing happens in the configured reporting timezone; storage stays
// UTC.
type ReportService interface {
	// Report builds the three report tables. instructorID narrows the
	// data to that instructor's courses; empty means no restriction.
	Report(ctx context.Context, req *dto.ReportRequest, instructorID string) (*dto.ReportResponse, error)
	// BuildCSV renders one report table as CSV and returns the bytes
	// plus a suggested filename.
	BuildCSV(report *dto.ReportResponse, kind string) ([]byte, string, error)
}

type reportService struct {
	repo   *repository.Repository
	logger *zap.Logger
	loc    *time.Location
}

// NewReportService creates the ReportService. It fails if the configured
// reporting timezone is not in the tz database.
func NewReportService(cfg *config.ReportConfig, repo *repository.Repository, logger *zap.Logger) (ReportService, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load report timezone %q: %w", cfg.Timezone, err)
	}
	return &reportService{repo: repo, logger: logger, loc: loc}, nil
}

func (s *reportService) Report(ctx context.Context, req *dto.ReportRequest, instructorID string) (*dto.ReportResponse, error) {
	from, to, err := s.parseRange(req.From, req.To)
	if err != nil {
		return nil, err
	}

	filters := &repository.ReportFilters{
		CourseIDs:    req.CourseIDs,
		InstructorID: instructorID,
		From:         from.UTC(),
		To:           to.UTC(),
	}

	records, err := s.repo.Attendance.ReportRecords(ctx, filters)
	if err != nil {
		s.logger.Error("load report records failed", zap.Error(err))
		return nil, err
	}

	groupBy := req.GroupBy
	if groupBy == "" {
		groupBy = "day"
	}

	resp := &dto.ReportResponse{
		Rows:    s.buildRows(records),
		Buckets: s.buildBuckets(records, groupBy),
	}

	rates, err := s.buildRates(ctx, records, filters)
	if err != nil {
		return nil, err
	}
	resp.Rates = rates
	return resp, nil
}

// parseRange turns inclusive calendar days into a half-open instant
// range in the reporting timezone.
func (s *reportService) parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from, err := time.ParseInLocation("2006-01-02", fromStr, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	to, err := time.ParseInLocation("2006-01-02", toStr, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	// AddDate over Add: DST transitions make some days not 24h long.
	return from, to.AddDate(0, 0, 1), nil
}

func (s *reportService) buildRows(records []repository.ReportRecord) []dto.ReportRow {
	rows := make([]dto.ReportRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, dto.ReportRow{
			CourseCode:   rec.CourseCode,
			CourseTitle:  rec.CourseTitle,
			SessionID:    rec.SessionID,
			SessionStart: rec.SessionStart.In(s.loc).Format("2006-01-02 15:04"),
			StudentName:  rec.StudentName,
			StudentEmail: rec.StudentEmail,
			CheckInAt:    rec.CheckInAt.In(s.loc).Format("2006-01-02 15:04:05"),
		})
	}
	return rows
}

func (s *reportService) buildBuckets(records []repository.ReportRecord, groupBy string) []dto.BucketCount {
	type cell struct {
		count    int
		title    string
		students map[string]struct{}
		sessions map[string]struct{}
	}
	type key struct {
		bucket string
		course string
	}

	cells := make(map[key]*cell)
	for _, rec := range records {
		k := key{bucket: s.bucketLabel(rec.CheckInAt, groupBy), course: rec.CourseCode}
		c, ok := cells[k]
		if !ok {
			c = &cell{
				title:    rec.CourseTitle,
				students: make(map[string]struct{}),
				sessions: make(map[string]struct{}),
			}
			cells[k] = c
		}
		c.count++
		c.students[rec.StudentEmail] = struct{}{}
		c.sessions[rec.SessionID] = struct{}{}
	}

	buckets := make([]dto.BucketCount, 0, len(cells))
	for k, c := range cells {
		buckets = append(buckets, dto.BucketCount{
			Bucket:         k.bucket,
			CourseCode:     k.course,
			CourseTitle:    c.title,
			CheckIns:       c.count,
			UniqueStudents: len(c.students),
			Sessions:       len(c.sessions),
		})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Bucket != buckets[j].Bucket {
			return buckets[i].Bucket < buckets[j].Bucket
		}
		return buckets[i].CourseCode < buckets[j].CourseCode
	})
	return buckets
}

// bucketLabel maps a UTC instant to its day, Monday-start week, or month
// label in the reporting timezone.
func (s *reportService) bucketLabel(at time.Time, groupBy string) string {
	local := at.In(s.loc)
	switch groupBy {
	case "week":
		offset := (int(local.Weekday()) + 6) % 7
		monday := local.AddDate(0, 0, -offset)
		return monday.Format("2006-01-02")
	case "month":
		return local.Format("2006-01")
	default:
		return local.Format("2006-01-02")
	}
}

func (s *reportService) buildRates(ctx context.Context, records []repository.ReportRecord, filters *repository.ReportFilters) ([]dto.StudentRate, error) {
	counts, err := s.repo.Session.CountByCourse(ctx, filters)
	if err != nil {
		s.logger.Error("count sessions failed", zap.Error(err))
		return nil, err
	}
	totals := make(map[string]int, len(counts))
	for _, c := range counts {
		totals[c.CourseCode] = c.Sessions
	}

	type key struct {
		course string
		email  string
	}
	attended := make(map[key]map[string]struct{})
	for _, rec := range records {
		k := key{course: rec.CourseCode, email: rec.StudentEmail}
		if attended[k] == nil {
			attended[k] = make(map[string]struct{})
		}
		attended[k][rec.SessionID] = struct{}{}
	}

	rates := make([]dto.StudentRate, 0, len(attended))
	for k, sessions := range attended {
		total := totals[k.course]
		rate := dto.StudentRate{
			CourseCode:       k.course,
			StudentEmail:     k.email,
			AttendedSessions: len(sessions),
			TotalSessions:    total,
		}
		if total > 0 {
			rate.RatePercent = math.Round(float64(len(sessions))/float64(total)*1000) / 10
		}
		rates = append(rates, rate)
	}
	sort.Slice(rates, func(i, j int) bool {
		if rates[i].CourseCode != rates[j].CourseCode {
			return rates[i].CourseCode < rates[j].CourseCode
		}
		if rates[i].RatePercent != rates[j].RatePercent {
			return rates[i].RatePercent > rates[j].RatePercent
		}
		return rates[i].StudentEmail < rates[j].StudentEmail
	})
	return rates, nil
}

func (s *reportService) BuildCSV(report *dto.ReportResponse, kind string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	var name string
	switch kind {
	case ExportRaw:
		name = "attendance_raw.csv"
		w.Write([]string{"course_code", "course_title", "session_id", "session_start", "student_name", "student_email", "check_in_at"})
		for _, r := range report.Rows {
			w.Write([]string{r.CourseCode, r.CourseTitle, r.SessionID, r.SessionStart, r.StudentName, r.StudentEmail, r.CheckInAt})
		}
	case ExportGrouped:
		name = "attendance_grouped.csv"
		w.Write([]string{"bucket", "course_code", "course_title", "check_ins", "unique_students", "sessions"})
		for _, b := range report.Buckets {
			w.Write([]string{b.Bucket, b.CourseCode, b.CourseTitle,
				fmt.Sprint(b.CheckIns), fmt.Sprint(b.UniqueStudents), fmt.Sprint(b.Sessions)})
		}
	case ExportRates:
		name = "attendance_rates.csv"
		w.Write([]string{"course_code", "student_email", "attended_sessions", "total_sessions", "rate_percent"})
		for _, r := range report.Rates {
			w.Write([]string{r.CourseCode, r.StudentEmail,
				fmt.Sprint(r.AttendedSessions), fmt.Sprint(r.TotalSessions),
				fmt.Sprintf("%.1f", r.RatePercent)})
		}
	default:
		return nil, "", ErrUnknownCSVKind
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), name, nil
}
