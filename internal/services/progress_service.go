package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/auth"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

const (
	SheetUsers         = "Users"
	SheetArchivedTasks = "Archived Tasks"
	SheetNotifications = "Notifications"
	SheetCourses       = "Courses"
	SheetSubmissions   = "Submissions"
)

// ProgressService exports learner progress for admins
type ProgressService interface {
	ExportWorkbook(ctx context.Context, identity auth.Identity, filters repositories.SubmissionFilters) ([]byte, error)
}

type progressService struct {
	repo   repositories.Repository
	logger *ServiceLogger
}

func NewProgressService(repo repositories.Repository, logger *slog.Logger) ProgressService {
	return &progressService{
		repo:   repo,
		logger: NewServiceLogger(logger, LogConfig{Service: "learning-service", Component: "progress"}),
	}
}

type sheetData struct {
	name    string
	headers []interface{}
	rows    [][]interface{}
}

// ExportWorkbook builds an xlsx file with one sheet per data set. filters only
// narrows the Submissions sheet.
func (s *progressService) ExportWorkbook(ctx context.Context, identity auth.Identity, filters repositories.SubmissionFilters) (data []byte, err error) {
	op := s.logger.WithOperation(ctx, "export_progress", identity.UserID)
	defer func() { op.LogResult("", "workbook", err) }()

	if err := requireAdmin(identity, "", "progress", "export"); err != nil {
		return nil, err
	}

	sheets := make([]sheetData, 0, 5)
	builders := []func(context.Context) (sheetData, error){
		s.usersSheet,
		s.archivedTasksSheet,
		s.notificationsSheet,
		s.coursesSheet,
		func(ctx context.Context) (sheetData, error) { return s.submissionsSheet(ctx, filters) },
	}
	for _, build := range builders {
		sheet, err := build(ctx)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, sheet)
	}

	return writeWorkbook(sheets)
}

func writeWorkbook(sheets []sheetData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.name); err != nil {
				return nil, fmt.Errorf("failed to name Excel sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
		}

		if err := f.SetSheetRow(sheet.name, "A1", &sheet.headers); err != nil {
			return nil, fmt.Errorf("failed to write %s headers: %w", sheet.name, err)
		}
		for r, row := range sheet.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(sheet.name, cell, &row); err != nil {
				return nil, fmt.Errorf("failed to write %s row %d: %w", sheet.name, r+2, err)
			}
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *progressService) usersSheet(ctx context.Context) (sheetData, error) {
	users, _, err := s.repo.User().List(ctx, repositories.UserFilters{SortBy: "email", SortOrder: "asc"})
	if err != nil {
		return sheetData{}, fmt.Errorf("failed to list users: %w", err)
	}

	sheet := sheetData{name: SheetUsers, headers: []interface{}{"Email", "Name", "Role", "Department", "Courses"}}
	for _, u := range users {
		access, err := s.repo.Access().ListForUser(ctx, u.EmailKey)
		if err != nil {
			return sheetData{}, fmt.Errorf("failed to list access of %s: %w", u.Email, err)
		}
		sheet.rows = append(sheet.rows, []interface{}{u.Email, u.Name, string(u.Role), u.Department, formatAccess(access)})
	}
	return sheet, nil
}

func (s *progressService) archivedTasksSheet(ctx context.Context) (sheetData, error) {
	status := models.TaskArchived
	tasks, err := s.repo.Task().List(ctx, repositories.TaskFilters{Status: &status})
	if err != nil {
		return sheetData{}, fmt.Errorf("failed to list archived tasks: %w", err)
	}

	sheet := sheetData{name: SheetArchivedTasks, headers: []interface{}{"Message", "Link", "Assigned To", "Created By", "Created At", "Archived At"}}
	for _, t := range tasks {
		var assignees []string
		if len(t.AssignedEmails) > 0 {
			if err := json.Unmarshal(t.AssignedEmails, &assignees); err != nil {
				return sheetData{}, fmt.Errorf("failed to decode assignees of task %s: %w", t.ID, err)
			}
		}
		archivedAt := ""
		if t.ArchivedAt != nil {
			archivedAt = formatTime(*t.ArchivedAt)
		}
		sheet.rows = append(sheet.rows, []interface{}{
			t.Message, t.LinkURL, strings.Join(assignees, ", "), t.CreatedBy, formatTime(t.CreatedAt), archivedAt,
		})
	}
	return sheet, nil
}

func (s *progressService) notificationsSheet(ctx context.Context) (sheetData, error) {
	notifications, err := s.repo.Notification().ListAll(ctx)
	if err != nil {
		return sheetData{}, fmt.Errorf("failed to list notifications: %w", err)
	}

	sheet := sheetData{name: SheetNotifications, headers: []interface{}{"Kind", "Message", "Recipient", "Assigned To", "Created By", "Read", "Created At"}}
	for _, n := range notifications {
		sheet.rows = append(sheet.rows, []interface{}{
			string(n.Kind), n.Message, n.RecipientEmail, n.AssignedEmails, n.CreatedBy, n.IsRead, formatTime(n.CreatedAt),
		})
	}
	return sheet, nil
}

func (s *progressService) coursesSheet(ctx context.Context) (sheetData, error) {
	courses, err := s.repo.Course().ListMainCourses(ctx, nil)
	if err != nil {
		return sheetData{}, fmt.Errorf("failed to list courses: %w", err)
	}

	sheet := sheetData{name: SheetCourses, headers: []interface{}{"Course ID", "Course", "Sub-course ID", "Sub-course"}}
	for _, c := range courses {
		if len(c.SubCourses) == 0 {
			sheet.rows = append(sheet.rows, []interface{}{c.ID, c.Name, "", ""})
			continue
		}
		for _, sc := range c.SubCourses {
			sheet.rows = append(sheet.rows, []interface{}{c.ID, c.Name, sc.ID, sc.Name})
		}
	}
	return sheet, nil
}

func (s *progressService) submissionsSheet(ctx context.Context, filters repositories.SubmissionFilters) (sheetData, error) {
	filters.Limit, filters.Offset = 0, 0
	submissions, _, err := s.repo.Submission().List(ctx, filters)
	if err != nil {
		return sheetData{}, fmt.Errorf("failed to list submissions: %w", err)
	}

	sheet := sheetData{name: SheetSubmissions, headers: []interface{}{
		"Email", "Name", "Course ID", "Sub-course ID", "Correct", "Total", "Success %", "Total Time (s)", "Start", "End",
	}}
	for _, sub := range submissions {
		sheet.rows = append(sheet.rows, []interface{}{
			sub.Email, sub.UserName, sub.MainCourseID, sub.CourseID,
			sub.CorrectCount, sub.TotalQuestions, sub.PercentageSuccess, sub.TotalTime,
			formatTime(sub.StartTime), formatTime(sub.EndTime),
		})
	}
	return sheet, nil
}

func formatAccess(access []*models.CourseAccess) string {
	parts := make([]string, 0, len(access))
	for _, a := range access {
		if !a.HasAccess {
			continue
		}
		if a.SubCourseKey == "" {
			parts = append(parts, a.MainCourseID)
		} else {
			parts = append(parts, a.MainCourseID+"/"+a.SubCourseKey)
		}
	}
	return strings.Join(parts, ", ")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
