package services

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type accessKey struct {
	emailKey, mainCourseID, subCourseKey string
}

// memoryRepo is an in-memory Repository for service tests
type memoryRepo struct {
	mu sync.Mutex

	courses       map[string]*models.MainCourse
	subCourses    map[string]*models.SubCourse
	users         map[string]*models.User
	access        map[accessKey]*models.CourseAccess
	departments   []*models.Department
	submissions   map[string]*models.Submission
	tasks         map[string]*models.Task
	notifications []*models.Notification

	submissionOverride repositories.SubmissionRepository
	transactions       int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		courses:     make(map[string]*models.MainCourse),
		subCourses:  make(map[string]*models.SubCourse),
		users:       make(map[string]*models.User),
		access:      make(map[accessKey]*models.CourseAccess),
		submissions: make(map[string]*models.Submission),
		tasks:       make(map[string]*models.Task),
	}
}

func (r *memoryRepo) Course() repositories.CourseRepository         { return memoryCourses{r} }
func (r *memoryRepo) User() repositories.UserRepository             { return memoryUsers{r} }
func (r *memoryRepo) Access() repositories.CourseAccessRepository   { return memoryAccess{r} }
func (r *memoryRepo) Department() repositories.DepartmentRepository { return memoryDepartments{r} }
func (r *memoryRepo) Task() repositories.TaskRepository             { return memoryTasks{r} }
func (r *memoryRepo) Notification() repositories.NotificationRepository {
	return memoryNotifications{r}
}

func (r *memoryRepo) Submission() repositories.SubmissionRepository {
	if r.submissionOverride != nil {
		return r.submissionOverride
	}
	return memorySubmissions{r}
}

func (r *memoryRepo) WithTransaction(ctx context.Context, fn func(tx repositories.Repository) error) error {
	r.mu.Lock()
	r.transactions++
	r.mu.Unlock()
	return fn(r)
}

// ===== COURSES =====

type memoryCourses struct{ r *memoryRepo }

func (m memoryCourses) CreateMainCourse(ctx context.Context, course *models.MainCourse) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	copied := *course
	copied.SubCourses = nil
	m.r.courses[course.ID] = &copied
	return nil
}

func (m memoryCourses) GetMainCourse(ctx context.Context, id string) (*models.MainCourse, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	return m.mainCourseLocked(id)
}

func (m memoryCourses) mainCourseLocked(id string) (*models.MainCourse, error) {
	c, ok := m.r.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *c
	copied.SubCourses = nil
	for _, sc := range m.r.subCourses {
		if sc.MainCourseID == id {
			copied.SubCourses = append(copied.SubCourses, *sc)
		}
	}
	slices.SortFunc(copied.SubCourses, func(a, b models.SubCourse) int { return strings.Compare(a.ID, b.ID) })
	return &copied, nil
}

func (m memoryCourses) ListMainCourses(ctx context.Context, ids []string) ([]*models.MainCourse, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	out := make([]*models.MainCourse, 0)
	for id := range m.r.courses {
		if ids != nil && !slices.Contains(ids, id) {
			continue
		}
		c, _ := m.mainCourseLocked(id)
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *models.MainCourse) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (m memoryCourses) UpdateMainCourse(ctx context.Context, course *models.MainCourse) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	c, ok := m.r.courses[course.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Name, c.Description, c.Thumbnail = course.Name, course.Description, course.Thumbnail
	return nil
}

func (m memoryCourses) DeleteMainCourse(ctx context.Context, id string) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	if _, ok := m.r.courses[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.r.courses, id)
	for sid, sc := range m.r.subCourses {
		if sc.MainCourseID == id {
			delete(m.r.subCourses, sid)
		}
	}
	return nil
}

func (m memoryCourses) CreateSubCourse(ctx context.Context, subCourse *models.SubCourse) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	copied := *subCourse
	m.r.subCourses[subCourse.ID] = &copied
	return nil
}

func (m memoryCourses) GetSubCourse(ctx context.Context, mainCourseID, subCourseID string) (*models.SubCourse, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	sc, ok := m.r.subCourses[subCourseID]
	if !ok || sc.MainCourseID != mainCourseID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *sc
	copied.Media = slices.Clone(sc.Media)
	copied.Questions = slices.Clone(sc.Questions)
	return &copied, nil
}

func (m memoryCourses) UpdateSubCourse(ctx context.Context, subCourse *models.SubCourse) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	sc, ok := m.r.subCourses[subCourse.ID]
	if !ok || sc.MainCourseID != subCourse.MainCourseID {
		return gorm.ErrRecordNotFound
	}
	sc.Name, sc.Description = subCourse.Name, subCourse.Description
	return nil
}

func (m memoryCourses) DeleteSubCourse(ctx context.Context, mainCourseID, subCourseID string) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	sc, ok := m.r.subCourses[subCourseID]
	if !ok || sc.MainCourseID != mainCourseID {
		return gorm.ErrRecordNotFound
	}
	delete(m.r.subCourses, subCourseID)
	return nil
}

func (m memoryCourses) AddMedia(ctx context.Context, media *models.Media) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	sc, ok := m.r.subCourses[media.SubCourseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	sc.Media = append(sc.Media, *media)
	return nil
}

func (m memoryCourses) DeleteMedia(ctx context.Context, subCourseID, mediaID string) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	sc, ok := m.r.subCourses[subCourseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	i := slices.IndexFunc(sc.Media, func(md models.Media) bool { return md.ID == mediaID })
	if i < 0 {
		return gorm.ErrRecordNotFound
	}
	sc.Media = slices.Delete(sc.Media, i, i+1)
	return nil
}

func (m memoryCourses) ReplaceQuestions(ctx context.Context, subCourseID string, questions []models.Question) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	sc, ok := m.r.subCourses[subCourseID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	sc.Questions = slices.Clone(questions)
	for i := range sc.Questions {
		sc.Questions[i].ID = uint(i + 1)
	}
	return nil
}

// ===== USERS =====

type memoryUsers struct{ r *memoryRepo }

func (m memoryUsers) Create(ctx context.Context, user *models.User) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	copied := *user
	m.r.users[user.EmailKey] = &copied
	return nil
}

func (m memoryUsers) GetByEmailKey(ctx context.Context, emailKey string) (*models.User, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	u, ok := m.r.users[emailKey]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (m memoryUsers) GetByEmailKeys(ctx context.Context, emailKeys []string) ([]*models.User, error) {
	var out []*models.User
	for _, k := range emailKeys {
		if u, err := m.GetByEmailKey(ctx, k); err == nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m memoryUsers) ExistsByEmailKey(ctx context.Context, emailKey string) (bool, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	_, ok := m.r.users[emailKey]
	return ok, nil
}

func (m memoryUsers) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	out := make([]*models.User, 0, len(m.r.users))
	for _, u := range m.r.users {
		copied := *u
		out = append(out, &copied)
	}
	slices.SortFunc(out, func(a, b *models.User) int { return strings.Compare(a.Email, b.Email) })
	return out, int64(len(out)), nil
}

func (m memoryUsers) UpdateRole(ctx context.Context, emailKey string, role models.UserRole) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	u, ok := m.r.users[emailKey]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Role = role
	return nil
}

// ===== ACCESS =====

type memoryAccess struct{ r *memoryRepo }

func (m memoryAccess) Grant(ctx context.Context, emailKey, mainCourseID, subCourseKey string) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	m.r.access[accessKey{emailKey, mainCourseID, subCourseKey}] = &models.CourseAccess{
		EmailKey: emailKey, MainCourseID: mainCourseID, SubCourseKey: subCourseKey, HasAccess: true,
	}
	return nil
}

func (m memoryAccess) Get(ctx context.Context, emailKey, mainCourseID, subCourseKey string) (*models.CourseAccess, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	a, ok := m.r.access[accessKey{emailKey, mainCourseID, subCourseKey}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *a
	return &copied, nil
}

func (m memoryAccess) Delete(ctx context.Context, emailKey, mainCourseID, subCourseKey string) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	delete(m.r.access, accessKey{emailKey, mainCourseID, subCourseKey})
	return nil
}

func (m memoryAccess) RevokeCourse(ctx context.Context, emailKey, mainCourseID string) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for k := range m.r.access {
		if k.emailKey == emailKey && k.mainCourseID == mainCourseID {
			delete(m.r.access, k)
		}
	}
	return nil
}

func (m memoryAccess) HasAccess(ctx context.Context, emailKey, mainCourseID, subCourseKey string) (bool, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, sub := range []string{"", subCourseKey} {
		if a, ok := m.r.access[accessKey{emailKey, mainCourseID, sub}]; ok && a.HasAccess {
			return true, nil
		}
	}
	return false, nil
}

func (m memoryAccess) ListCourseIDs(ctx context.Context, emailKey string) ([]string, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var ids []string
	for k, a := range m.r.access {
		if k.emailKey == emailKey && a.HasAccess && !slices.Contains(ids, k.mainCourseID) {
			ids = append(ids, k.mainCourseID)
		}
	}
	return ids, nil
}

func (m memoryAccess) ListForUser(ctx context.Context, emailKey string) ([]*models.CourseAccess, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.CourseAccess
	for k, a := range m.r.access {
		if k.emailKey == emailKey {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m memoryAccess) ListEnrolledUsers(ctx context.Context, mainCourseID string) ([]*models.User, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.User
	for k, a := range m.r.access {
		if k.mainCourseID == mainCourseID && k.subCourseKey == "" && a.HasAccess {
			if u, ok := m.r.users[k.emailKey]; ok {
				copied := *u
				out = append(out, &copied)
			}
		}
	}
	return out, nil
}

// ===== DEPARTMENTS =====

type memoryDepartments struct{ r *memoryRepo }

func (m memoryDepartments) Create(ctx context.Context, department *models.Department) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	m.r.departments = append(m.r.departments, department)
	return nil
}

func (m memoryDepartments) List(ctx context.Context) ([]*models.Department, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	return slices.Clone(m.r.departments), nil
}

func (m memoryDepartments) ExistsByName(ctx context.Context, name string) (bool, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	return slices.ContainsFunc(m.r.departments, func(d *models.Department) bool { return d.Name == name }), nil
}

// ===== SUBMISSIONS =====

type memorySubmissions struct{ r *memoryRepo }

func submissionKey(userID, subCourseID string) string {
	return userID + "|" + subCourseID
}

func (m memorySubmissions) CreateIfAbsent(ctx context.Context, submission *models.Submission) (bool, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	key := submissionKey(submission.UserID, submission.CourseID)
	if _, ok := m.r.submissions[key]; ok {
		return false, nil
	}
	copied := *submission
	m.r.submissions[key] = &copied
	return true, nil
}

func (m memorySubmissions) Upsert(ctx context.Context, submission *models.Submission) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	copied := *submission
	m.r.submissions[submissionKey(submission.UserID, submission.CourseID)] = &copied
	return nil
}

func (m memorySubmissions) Get(ctx context.Context, userID, subCourseID string) (*models.Submission, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	s, ok := m.r.submissions[submissionKey(userID, subCourseID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s
	return &copied, nil
}

func (m memorySubmissions) List(ctx context.Context, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	out := make([]*models.Submission, 0)
	for _, s := range m.r.submissions {
		if filters.UserID != "" && s.UserID != filters.UserID {
			continue
		}
		if filters.MainCourseID != "" && s.MainCourseID != filters.MainCourseID {
			continue
		}
		copied := *s
		out = append(out, &copied)
	}
	slices.SortFunc(out, func(a, b *models.Submission) int { return strings.Compare(a.Email, b.Email) })
	return out, int64(len(out)), nil
}

// ===== TASKS =====

type memoryTasks struct{ r *memoryRepo }

func (m memoryTasks) Create(ctx context.Context, task *models.Task) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	copied := *task
	m.r.tasks[task.ID] = &copied
	return nil
}

func (m memoryTasks) GetByID(ctx context.Context, id string) (*models.Task, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	t, ok := m.r.tasks[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *t
	return &copied, nil
}

func (m memoryTasks) List(ctx context.Context, filters repositories.TaskFilters) ([]*models.Task, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	out := make([]*models.Task, 0)
	for _, t := range m.r.tasks {
		if filters.Status != nil && t.Status != *filters.Status {
			continue
		}
		if filters.Email != "" && !canEndTask(t, filters.Email) {
			continue
		}
		copied := *t
		out = append(out, &copied)
	}
	return out, nil
}

func (m memoryTasks) Archive(ctx context.Context, id string) (*models.Task, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	t, ok := m.r.tasks[id]
	if !ok || t.Status != models.TaskActive {
		return nil, gorm.ErrRecordNotFound
	}
	now := time.Now()
	t.Status = models.TaskArchived
	t.ArchivedAt = &now
	copied := *t
	return &copied, nil
}

// ===== NOTIFICATIONS =====

type memoryNotifications struct{ r *memoryRepo }

func (m memoryNotifications) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	m.r.notifications = append(m.r.notifications, notifications...)
	return nil
}

func (m memoryNotifications) ListForRecipient(ctx context.Context, email string, limit int) ([]*models.Notification, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var out []*models.Notification
	for _, n := range m.r.notifications {
		if strings.EqualFold(n.RecipientEmail, email) {
			out = append(out, n)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m memoryNotifications) ListAll(ctx context.Context) ([]*models.Notification, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	return slices.Clone(m.r.notifications), nil
}

func (m memoryNotifications) MarkRead(ctx context.Context, id, email string) error {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	for _, n := range m.r.notifications {
		if n.ID == id && strings.EqualFold(n.RecipientEmail, email) {
			n.IsRead = true
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m memoryNotifications) CountUnread(ctx context.Context, email string) (int64, error) {
	m.r.mu.Lock()
	defer m.r.mu.Unlock()
	var n int64
	for _, notif := range m.r.notifications {
		if strings.EqualFold(notif.RecipientEmail, email) && !notif.IsRead {
			n++
		}
	}
	return n, nil
}

// MockSubmissionRepository is a mock implementation of SubmissionRepository
type MockSubmissionRepository struct {
	mock.Mock
}

func (m *MockSubmissionRepository) CreateIfAbsent(ctx context.Context, submission *models.Submission) (bool, error) {
	args := m.Called(ctx, submission)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubmissionRepository) Upsert(ctx context.Context, submission *models.Submission) error {
	args := m.Called(ctx, submission)
	return args.Error(0)
}

func (m *MockSubmissionRepository) Get(ctx context.Context, userID, subCourseID string) (*models.Submission, error) {
	args := m.Called(ctx, userID, subCourseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Submission), args.Error(1)
}

func (m *MockSubmissionRepository) List(ctx context.Context, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Submission), args.Get(1).(int64), args.Error(2)
}
