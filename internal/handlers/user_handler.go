package handlers

import (
	"context"
	"net/http"

	"github.com/SAP-F-2025/learning-service/internal/auth"
	"github.com/SAP-F-2025/learning-service/internal/models"
	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	BaseHandler
	userService services.UserService
}

func NewUserHandler(userService services.UserService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
	}
}

type UpdateRoleRequest struct {
	Role models.UserRole `json:"role" binding:"required"`
}

// Me returns the resolved identity of the caller
// @Summary Current user
// @Tags users
// @Produce json
// @Success 200 {object} auth.Identity
// @Router /me [get]
func (h *UserHandler) Me(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, identity)
}

// CreateUser creates a user record
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Param user body services.CreateUserRequest true "User data"
// @Success 201 {object} models.User
// @Failure 409 {object} ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	var req services.CreateUserRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating user", "email", req.Email)

	user, err := h.userService.CreateUser(c.Request.Context(), identity, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// ListUsers lists users with optional filters
// @Summary List users
// @Tags users
// @Produce json
// @Param role query string false "Role filter"
// @Param department query string false "Department filter"
// @Param search query string false "Name or email search"
// @Success 200 {object} ListResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	limit, offset := parsePage(c)
	filters := repositories.UserFilters{
		Department: c.Query("department"),
		Search:     c.Query("search"),
		Limit:      limit,
		Offset:     offset,
		SortBy:     c.Query("sort_by"),
		SortOrder:  c.Query("sort_order"),
	}
	if role := c.Query("role"); role != "" {
		userRole := models.UserRole(role)
		filters.Role = &userRole
	}

	users, total, err := h.userService.ListUsers(c.Request.Context(), identity, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Items: users, Total: total})
}

// UpdateRole changes a user's role
// @Summary Update role
// @Tags users
// @Accept json
// @Produce json
// @Param email path string true "User email"
// @Param role body UpdateRoleRequest true "New role"
// @Success 200 {object} models.User
// @Router /users/{email}/role [put]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	email := ParseStringIDParam(c, "email")
	if email == "" {
		return
	}
	var req UpdateRoleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateRole(c.Request.Context(), identity, email, req.Role)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// BulkUpload imports users from a CSV file
// @Summary Bulk upload users
// @Description Multipart upload of a CSV with header email,name,password,role,department
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Success 200 {object} models.BulkUploadSummary
// @Failure 400 {object} ErrorResponse
// @Router /users/bulk [post]
func (h *UserHandler) BulkUpload(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "A CSV file is required",
			Details: err.Error(),
			Code:    "invalid_payload",
		})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Failed to read uploaded file",
			Details: err.Error(),
			Code:    "invalid_payload",
		})
		return
	}
	defer file.Close()

	h.LogRequest(c, "Bulk uploading users", "file", fileHeader.Filename, "size", fileHeader.Size)

	summary, err := h.userService.BulkUpload(c.Request.Context(), identity, file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GrantCourseAccess grants a main course to many users
// @Summary Grant course access
// @Tags access
// @Accept json
// @Param id path string true "Course ID"
// @Param request body services.CourseAccessRequest true "Emails"
// @Success 200 {object} SuccessResponse
// @Router /courses/{id}/access [post]
func (h *UserHandler) GrantCourseAccess(c *gin.Context) {
	h.changeAccess(c, h.userService.GrantCourseAccess, "Course access granted")
}

// RevokeCourseAccess removes a main course and its sub-course grants from many users
// @Summary Revoke course access
// @Tags access
// @Accept json
// @Param id path string true "Course ID"
// @Param request body services.CourseAccessRequest true "Emails"
// @Success 200 {object} SuccessResponse
// @Router /courses/{id}/access [delete]
func (h *UserHandler) RevokeCourseAccess(c *gin.Context) {
	h.changeAccess(c, h.userService.RevokeCourseAccess, "Course access revoked")
}

// ToggleSubCourseAccess flips a single sub-course grant
// @Summary Toggle sub-course access
// @Tags access
// @Produce json
// @Param email path string true "User email"
// @Param course_id path string true "Course ID"
// @Param sub_course_key path string true "Sub-course key"
// @Success 200 {object} map[string]bool
// @Router /users/{email}/access/{course_id}/{sub_course_key}/toggle [post]
func (h *UserHandler) ToggleSubCourseAccess(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	email := ParseStringIDParam(c, "email")
	if email == "" {
		return
	}
	courseID := ParseStringIDParam(c, "course_id")
	if courseID == "" {
		return
	}

	granted, err := h.userService.ToggleSubCourseAccess(c.Request.Context(), identity, email, courseID, c.Param("sub_course_key"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"has_access": granted})
}

// ListEnrolledUsers lists users holding a whole-course grant
// @Summary List enrolled users
// @Tags access
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {array} models.User
// @Router /courses/{id}/enrolled [get]
func (h *UserHandler) ListEnrolledUsers(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	users, err := h.userService.ListEnrolledUsers(c.Request.Context(), identity, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// ListDepartments lists departments
// @Summary List departments
// @Tags departments
// @Produce json
// @Success 200 {array} models.Department
// @Router /departments [get]
func (h *UserHandler) ListDepartments(c *gin.Context) {
	departments, err := h.userService.ListDepartments(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, departments)
}

// CreateDepartment adds a department
// @Summary Create department
// @Tags departments
// @Accept json
// @Produce json
// @Param department body services.DepartmentRequest true "Department"
// @Success 201 {object} models.Department
// @Failure 409 {object} ErrorResponse
// @Router /departments [post]
func (h *UserHandler) CreateDepartment(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	var req services.DepartmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	department, err := h.userService.CreateDepartment(c.Request.Context(), identity, req.Name)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, department)
}

type accessChange = func(ctx context.Context, identity auth.Identity, mainCourseID string, emails []string) error

func (h *UserHandler) changeAccess(c *gin.Context, change accessChange, message string) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	var req services.CourseAccessRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := change(c.Request.Context(), identity, id, req.Emails); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: message, Data: gin.H{"course_id": id, "emails": req.Emails}})
}
