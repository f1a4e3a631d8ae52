package handlers

import (
	"net/http"

	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	BaseHandler
	courseService services.CourseService
}

func NewCourseHandler(courseService services.CourseService, logger utils.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler:   NewBaseHandler(logger),
		courseService: courseService,
	}
}

// ListCourses lists the courses visible to the caller
// @Summary List courses
// @Tags courses
// @Produce json
// @Success 200 {array} models.MainCourse
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	courses, err := h.courseService.ListCourses(c.Request.Context(), identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, courses)
}

// GetCourse returns a course with its sub-courses
// @Summary Get course
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} models.MainCourse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	course, err := h.courseService.GetCourse(c.Request.Context(), identity, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

// CreateCourse creates a main course
// @Summary Create course
// @Tags courses
// @Accept json
// @Produce json
// @Param course body services.CourseRequest true "Course data"
// @Success 201 {object} models.MainCourse
// @Failure 400 {object} ErrorResponse
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	var req services.CourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating course", "name", req.Name)

	course, err := h.courseService.CreateCourse(c.Request.Context(), identity, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, course)
}

// UpdateCourse replaces the editable fields of a course
// @Summary Update course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param course body services.CourseRequest true "Course data"
// @Success 200 {object} models.MainCourse
// @Router /courses/{id} [put]
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}
	var req services.CourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	course, err := h.courseService.UpdateCourse(c.Request.Context(), identity, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, course)
}

// DeleteCourse removes a course and its sub-courses
// @Summary Delete course
// @Tags courses
// @Param id path string true "Course ID"
// @Success 200 {object} SuccessResponse
// @Router /courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	id := ParseStringIDParam(c, "id")
	if id == "" {
		return
	}

	if err := h.courseService.DeleteCourse(c.Request.Context(), identity, id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Course deleted"})
}

// GetSubCourse returns a sub-course including correct answer flags
// @Summary Get sub-course (admin)
// @Tags courses
// @Produce json
// @Param id path string true "Course ID"
// @Param sub_course_id path string true "Sub-course ID"
// @Success 200 {object} models.SubCourse
// @Router /courses/{id}/sub-courses/{sub_course_id} [get]
func (h *CourseHandler) GetSubCourse(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	mainCourseID, subCourseID, ok := subCourseParams(c)
	if !ok {
		return
	}

	subCourse, err := h.courseService.GetSubCourse(c.Request.Context(), identity, mainCourseID, subCourseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, subCourse)
}

// CreateSubCourse adds a sub-course to a course
// @Summary Create sub-course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param sub_course body services.SubCourseRequest true "Sub-course data"
// @Success 201 {object} models.SubCourse
// @Router /courses/{id}/sub-courses [post]
func (h *CourseHandler) CreateSubCourse(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	mainCourseID := ParseStringIDParam(c, "id")
	if mainCourseID == "" {
		return
	}
	var req services.SubCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	subCourse, err := h.courseService.CreateSubCourse(c.Request.Context(), identity, mainCourseID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, subCourse)
}

// UpdateSubCourse renames or re-describes a sub-course
// @Summary Update sub-course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param sub_course_id path string true "Sub-course ID"
// @Param sub_course body services.SubCourseRequest true "Sub-course data"
// @Success 200 {object} models.SubCourse
// @Router /courses/{id}/sub-courses/{sub_course_id} [put]
func (h *CourseHandler) UpdateSubCourse(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	mainCourseID, subCourseID, ok := subCourseParams(c)
	if !ok {
		return
	}
	var req services.SubCourseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	subCourse, err := h.courseService.UpdateSubCourse(c.Request.Context(), identity, mainCourseID, subCourseID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, subCourse)
}

// DeleteSubCourse removes a sub-course
// @Summary Delete sub-course
// @Tags courses
// @Param id path string true "Course ID"
// @Param sub_course_id path string true "Sub-course ID"
// @Success 200 {object} SuccessResponse
// @Router /courses/{id}/sub-courses/{sub_course_id} [delete]
func (h *CourseHandler) DeleteSubCourse(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	mainCourseID, subCourseID, ok := subCourseParams(c)
	if !ok {
		return
	}

	if err := h.courseService.DeleteSubCourse(c.Request.Context(), identity, mainCourseID, subCourseID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Sub-course deleted"})
}

// AddMedia attaches an image or video link
// @Summary Add media
// @Tags courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param sub_course_id path string true "Sub-course ID"
// @Param media body services.MediaRequest true "Media link"
// @Success 201 {object} models.Media
// @Router /courses/{id}/sub-courses/{sub_course_id}/media [post]
func (h *CourseHandler) AddMedia(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	mainCourseID, subCourseID, ok := subCourseParams(c)
	if !ok {
		return
	}
	var req services.MediaRequest
	if !h.bindJSON(c, &req) {
		return
	}

	media, err := h.courseService.AddMedia(c.Request.Context(), identity, mainCourseID, subCourseID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, media)
}

// DeleteMedia removes a media link
// @Summary Delete media
// @Tags courses
// @Param id path string true "Course ID"
// @Param sub_course_id path string true "Sub-course ID"
// @Param media_id path string true "Media ID"
// @Success 200 {object} SuccessResponse
// @Router /courses/{id}/sub-courses/{sub_course_id}/media/{media_id} [delete]
func (h *CourseHandler) DeleteMedia(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	mainCourseID, subCourseID, ok := subCourseParams(c)
	if !ok {
		return
	}
	mediaID := ParseStringIDParam(c, "media_id")
	if mediaID == "" {
		return
	}

	if err := h.courseService.DeleteMedia(c.Request.Context(), identity, mainCourseID, subCourseID, mediaID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Media deleted"})
}

// ReplaceQuestions swaps the whole question list of a sub-course
// @Summary Replace questions
// @Tags courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param sub_course_id path string true "Sub-course ID"
// @Param questions body services.ReplaceQuestionsRequest true "Questions"
// @Success 200 {object} models.SubCourse
// @Failure 400 {object} ErrorResponse
// @Router /courses/{id}/sub-courses/{sub_course_id}/questions [put]
func (h *CourseHandler) ReplaceQuestions(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	mainCourseID, subCourseID, ok := subCourseParams(c)
	if !ok {
		return
	}
	var req services.ReplaceQuestionsRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Replacing questions", "sub_course_id", subCourseID, "count", len(req.Questions))

	subCourse, err := h.courseService.ReplaceQuestions(c.Request.Context(), identity, mainCourseID, subCourseID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, subCourse)
}

func subCourseParams(c *gin.Context) (mainCourseID, subCourseID string, ok bool) {
	if mainCourseID = ParseStringIDParam(c, "id"); mainCourseID == "" {
		return "", "", false
	}
	if subCourseID = ParseStringIDParam(c, "sub_course_id"); subCourseID == "" {
		return "", "", false
	}
	return mainCourseID, subCourseID, true
}
