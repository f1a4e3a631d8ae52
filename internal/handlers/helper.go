package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/repositories"
	"github.com/gin-gonic/gin"
)

func ParseStringIDParam(c *gin.Context, param string) string {
	idStr := c.Param(param)
	idStr = strings.TrimSpace(idStr)
	if idStr == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: "ID cannot be empty",
		})
		return ""
	}
	return idStr
}

func parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseDateQuery(c *gin.Context, param string) *time.Time {
	valueStr := c.Query(param)
	if valueStr == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, valueStr); err == nil {
		return &t
	}
	if t, err := time.Parse(time.DateOnly, valueStr); err == nil {
		return &t
	}
	return nil
}

func parsePage(c *gin.Context) (limit, offset int) {
	page := parseIntQuery(c, "page", 1)
	size := parseIntQuery(c, "size", 50)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 500 {
		size = 50
	}
	return size, (page - 1) * size
}

func parseSubmissionFilters(c *gin.Context) repositories.SubmissionFilters {
	limit, offset := parsePage(c)
	return repositories.SubmissionFilters{
		UserID:       c.Query("user_id"),
		Email:        c.Query("email"),
		MainCourseID: c.Query("main_course_id"),
		SubCourseID:  c.Query("sub_course_id"),
		DateFrom:     parseDateQuery(c, "date_from"),
		DateTo:       parseDateQuery(c, "date_to"),
		Limit:        limit,
		Offset:       offset,
		SortBy:       c.Query("sort_by"),
		SortOrder:    c.Query("sort_order"),
	}
}
