package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"staydesk/internal/app/dto"
	calendarapp "staydesk/internal/app/handlers/calendar"
	housekeepingapp "staydesk/internal/app/handlers/housekeeping"
	"staydesk/internal/app/queries"
)

type CalendarHandler struct {
	Responder
	Queries queries.Bus
}

type segmentRequest struct {
	Unit  string `json:"unit"`
	Start string `json:"start"`
	End   string `json:"end"`
}

type conflictCheckRequest struct {
	Segments  []segmentRequest `json:"segments"`
	ExcludeID string           `json:"exclude_id"`
}

func (h CalendarHandler) Units(c *gin.Context) {
	if h.Queries == nil {
		h.handleError(c, errBusUnavailable)
		return
	}
	query := calendarapp.ListUnitsQuery{Complex: strings.TrimSpace(c.Query("complex"))}
	result, err := queries.Ask[calendarapp.ListUnitsQuery, dto.UnitCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CalendarHandler) UnitFeed(c *gin.Context) {
	if h.Queries == nil {
		h.handleError(c, errBusUnavailable)
		return
	}
	from, err := h.day(c.Query("from"))
	if err != nil {
		h.badRequest(c, "from", err)
		return
	}
	to, err := h.day(c.Query("to"))
	if err != nil {
		h.badRequest(c, "to", err)
		return
	}
	query := calendarapp.UnitFeedQuery{UnitID: strings.TrimSpace(c.Param("id")), From: from, To: to}
	feed, err := queries.Ask[calendarapp.UnitFeedQuery, dto.CalendarFeed](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+feed.UnitID+`.ics"`)
	c.Data(http.StatusOK, feed.ContentType, feed.Body)
}

func (h CalendarHandler) CheckConflict(c *gin.Context) {
	if h.Queries == nil {
		h.handleError(c, errBusUnavailable)
		return
	}
	var req conflictCheckRequest
	if !h.bindJSON(c, &req) {
		return
	}
	query := calendarapp.DetectConflictQuery{ExcludeID: strings.TrimSpace(req.ExcludeID)}
	for _, seg := range req.Segments {
		start, err := h.day(seg.Start)
		if err != nil {
			h.badRequest(c, "segments.start", err)
			return
		}
		end, err := h.day(seg.End)
		if err != nil {
			h.badRequest(c, "segments.end", err)
			return
		}
		query.Segments = append(query.Segments, calendarapp.SegmentInput{Unit: strings.TrimSpace(seg.Unit), Start: start, End: end})
	}
	result, err := queries.Ask[calendarapp.DetectConflictQuery, dto.Conflict](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CalendarHandler) Availability(c *gin.Context) {
	if h.Queries == nil {
		h.handleError(c, errBusUnavailable)
		return
	}
	query := calendarapp.AvailabilityQuery{Complex: strings.TrimSpace(c.Query("complex"))}
	if raw := strings.TrimSpace(c.Query("units")); raw != "" {
		for _, u := range strings.Split(raw, ",") {
			if u = strings.TrimSpace(u); u != "" {
				query.Units = append(query.Units, u)
			}
		}
	}
	var err error
	if query.Date, err = h.day(c.Query("date")); err != nil {
		h.badRequest(c, "date", err)
		return
	}
	if query.From, err = h.day(c.Query("from")); err != nil {
		h.badRequest(c, "from", err)
		return
	}
	if query.To, err = h.day(c.Query("to")); err != nil {
		h.badRequest(c, "to", err)
		return
	}
	result, err := queries.Ask[calendarapp.AvailabilityQuery, dto.Availability](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h CalendarHandler) CleaningSchedule(c *gin.Context) {
	if h.Queries == nil {
		h.handleError(c, errBusUnavailable)
		return
	}
	checkIn, err := h.day(c.Query("check_in"))
	if err != nil {
		h.badRequest(c, "check_in", err)
		return
	}
	checkOut, err := h.day(c.Query("check_out"))
	if err != nil {
		h.badRequest(c, "check_out", err)
		return
	}
	query := housekeepingapp.CleaningPlanQuery{CheckIn: checkIn, CheckOut: checkOut}
	result, err := queries.Ask[housekeepingapp.CleaningPlanQuery, dto.CleaningSchedule](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ CalendarHTTP = CalendarHandler{}
