package report

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"schoolportal/services"
	"schoolportal/utils/response"
)

// ReportHandler handles usage reporting endpoints
type ReportHandler struct {
	reports *services.ReportService
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// parseDate accepts YYYY-MM-DD query values
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Usage returns aggregated message usage grouped by user, class or date
func (h *ReportHandler) Usage(c *fiber.Ctx) error {
	filter := services.UsageFilter{
		Class:  c.Query("class"),
		UserID: uint(c.QueryInt("userId", 0)),
	}

	startDate, err := parseDate(c.Query("startDate"))
	if err != nil {
		return response.BadRequest(c, "Invalid startDate, expected YYYY-MM-DD")
	}
	filter.StartDate = startDate

	endDate, err := parseDate(c.Query("endDate"))
	if err != nil {
		return response.BadRequest(c, "Invalid endDate, expected YYYY-MM-DD")
	}
	if endDate != nil {
		// Make the end date inclusive of its whole day
		inclusive := endDate.AddDate(0, 0, 1).Add(-time.Nanosecond)
		filter.EndDate = &inclusive
	}

	groupBy := c.Query("groupBy", "user")
	var usage interface{}
	switch groupBy {
	case "user":
		usage, err = h.reports.UsageByUser(c.Context(), filter)
	case "class":
		usage, err = h.reports.UsageByClass(c.Context(), filter)
	case "date":
		usage, err = h.reports.UsageByDate(c.Context(), filter)
	default:
		return response.BadRequest(c, services.ErrInvalidGroupBy.Error())
	}
	if err != nil {
		if errors.Is(err, services.ErrInvalidGroupBy) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to build usage report")
	}

	return response.Success(c, fiber.Map{
		"usage":    usage,
		"group_by": groupBy,
	})
}

// Stats returns portal-wide statistics
func (h *ReportHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.reports.GetStats(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to load statistics")
	}

	return response.Success(c, fiber.Map{"stats": stats})
}
