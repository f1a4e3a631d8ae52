package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/SAP-F-2025/learning-service/internal/auth"
	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type QuizHandler struct {
	BaseHandler
	quizService services.QuizService
}

func NewQuizHandler(quizService services.QuizService, logger utils.Logger) *QuizHandler {
	return &QuizHandler{
		BaseHandler: NewBaseHandler(logger),
		quizService: quizService,
	}
}

type SelectAnswerRequest struct {
	Answer string `json:"answer" binding:"required"`
}

// StartSession loads a sub-course quiz for the caller
// @Summary Start quiz session
// @Description Loads the sub-course and opens a quiz session. mainCourseId is required.
// @Tags quiz
// @Produce json
// @Param sub_course_id path string true "Sub-course ID"
// @Param mainCourseId query string true "Main course ID"
// @Success 201 {object} services.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /sub-courses/{sub_course_id}/sessions [post]
func (h *QuizHandler) StartSession(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	subCourseID := c.Param("sub_course_id")
	mainCourseID := c.Query("mainCourseId")

	h.LogRequest(c, "Starting quiz session", "main_course_id", mainCourseID, "sub_course_id", subCourseID)

	session, err := h.quizService.StartSession(c.Request.Context(), identity, mainCourseID, subCourseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession returns the current view of a session
// @Summary Get quiz session
// @Tags quiz
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Failure 404 {object} ErrorResponse
// @Router /quiz-sessions/{session_id} [get]
func (h *QuizHandler) GetSession(c *gin.Context) {
	h.step(c, h.quizService.GetSession)
}

// AbandonSession drops a session without submitting
// @Summary Abandon quiz session
// @Tags quiz
// @Param session_id path string true "Session ID"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /quiz-sessions/{session_id} [delete]
func (h *QuizHandler) AbandonSession(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return
	}

	if err := h.quizService.AbandonSession(c.Request.Context(), identity, sessionID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// NextMedia advances the media viewer
// @Summary Next media item
// @Tags quiz
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Router /quiz-sessions/{session_id}/media/next [post]
func (h *QuizHandler) NextMedia(c *gin.Context) {
	h.step(c, h.quizService.NextMedia)
}

// PrevMedia moves the media viewer back
// @Summary Previous media item
// @Tags quiz
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Router /quiz-sessions/{session_id}/media/prev [post]
func (h *QuizHandler) PrevMedia(c *gin.Context) {
	h.step(c, h.quizService.PrevMedia)
}

// NextQuestion moves to the following question
// @Summary Next question
// @Tags quiz
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Router /quiz-sessions/{session_id}/questions/next [post]
func (h *QuizHandler) NextQuestion(c *gin.Context) {
	h.step(c, h.quizService.NextQuestion)
}

// PrevQuestion moves to the preceding question
// @Summary Previous question
// @Tags quiz
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Router /quiz-sessions/{session_id}/questions/prev [post]
func (h *QuizHandler) PrevQuestion(c *gin.Context) {
	h.step(c, h.quizService.PrevQuestion)
}

// GoToQuestion jumps to a question by index
// @Summary Go to question
// @Tags quiz
// @Produce json
// @Param session_id path string true "Session ID"
// @Param index path int true "Zero-based question index"
// @Success 200 {object} services.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Router /quiz-sessions/{session_id}/questions/{index} [put]
func (h *QuizHandler) GoToQuestion(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid index",
			Details: err.Error(),
		})
		return
	}
	h.step(c, func(ctx context.Context, identity auth.Identity, sessionID string) (*services.SessionResponse, error) {
		return h.quizService.GoToQuestion(ctx, identity, sessionID, index)
	})
}

// SelectAnswer records the answer to the current question
// @Summary Select answer
// @Tags quiz
// @Accept json
// @Produce json
// @Param session_id path string true "Session ID"
// @Param answer body SelectAnswerRequest true "Answer text"
// @Success 200 {object} services.SessionResponse
// @Failure 400 {object} ErrorResponse
// @Router /quiz-sessions/{session_id}/answer [put]
func (h *QuizHandler) SelectAnswer(c *gin.Context) {
	var req SelectAnswerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	h.step(c, func(ctx context.Context, identity auth.Identity, sessionID string) (*services.SessionResponse, error) {
		return h.quizService.SelectAnswer(ctx, identity, sessionID, req.Answer)
	})
}

// Submit scores the session and stores the submission
// @Summary Submit quiz
// @Tags quiz
// @Produce json
// @Param session_id path string true "Session ID"
// @Success 200 {object} services.SessionResponse
// @Failure 409 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /quiz-sessions/{session_id}/submit [post]
func (h *QuizHandler) Submit(c *gin.Context) {
	h.LogRequest(c, "Submitting quiz", "session_id", c.Param("session_id"))
	h.step(c, h.quizService.Submit)
}

// ListSubmissions lists the caller's submissions, or all of them for admins
// @Summary List submissions
// @Tags submissions
// @Produce json
// @Param main_course_id query string false "Main course filter"
// @Param sub_course_id query string false "Sub-course filter"
// @Param email query string false "Email filter (admins)"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} ListResponse
// @Router /submissions [get]
func (h *QuizHandler) ListSubmissions(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}

	submissions, total, err := h.quizService.ListSubmissions(c.Request.Context(), identity, parseSubmissionFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ListResponse{Items: submissions, Total: total})
}

// GetSubmission returns one stored submission
// @Summary Get submission
// @Tags submissions
// @Produce json
// @Param user_id path string true "User ID"
// @Param sub_course_id path string true "Sub-course ID"
// @Success 200 {object} models.Submission
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /submissions/{user_id}/{sub_course_id} [get]
func (h *QuizHandler) GetSubmission(c *gin.Context) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	userID := ParseStringIDParam(c, "user_id")
	if userID == "" {
		return
	}
	subCourseID := ParseStringIDParam(c, "sub_course_id")
	if subCourseID == "" {
		return
	}

	submission, err := h.quizService.GetSubmission(c.Request.Context(), identity, userID, subCourseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, submission)
}

type sessionStep func(ctx context.Context, identity auth.Identity, sessionID string) (*services.SessionResponse, error)

func (h *QuizHandler) step(c *gin.Context, fn sessionStep) {
	identity, ok := h.identity(c)
	if !ok {
		return
	}
	sessionID := ParseStringIDParam(c, "session_id")
	if sessionID == "" {
		return
	}

	session, err := fn(c.Request.Context(), identity, sessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
