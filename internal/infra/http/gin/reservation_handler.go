package ginserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"staydesk/internal/app/commands"
	"staydesk/internal/app/dto"
	reservationsapp "staydesk/internal/app/handlers/reservations"
	"staydesk/internal/app/queries"
)

type ReservationHandler struct {
	Responder
	Commands commands.Bus
	Queries  queries.Bus
}

type bookReservationRequest struct {
	ID           string `json:"id"`
	GuestName    string `json:"guest_name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	UnitID       string `json:"unit_id"`
	CheckIn      string `json:"check_in"`
	CheckOut     string `json:"check_out"`
	Status       string `json:"status"`
	TotalAmount  int64  `json:"total_amount"`
	Currency     string `json:"currency"`
	Observations string `json:"observations"`
}

type relocateRequest struct {
	Segment    *int   `json:"segment"`
	TargetUnit string `json:"target_unit"`
	TargetDate string `json:"target_date"`
	AnchorDate string `json:"anchor_date"`
}

type splitRequest struct {
	SplitDate string `json:"split_date"`
	NewUnit   string `json:"new_unit"`
}

type mergeSegmentsRequest struct {
	First     int  `json:"first"`
	Second    int  `json:"second"`
	Confirmed bool `json:"confirmed"`
}

type mergeReservationsRequest struct {
	AbsorbedID string `json:"absorbed_id"`
	Confirmed  bool   `json:"confirmed"`
}

type changeStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (h ReservationHandler) List(c *gin.Context) {
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
	active, _ := strconv.ParseBool(c.DefaultQuery("active", "false"))
	query := reservationsapp.ListReservationsQuery{
		UnitID:     strings.TrimSpace(c.Query("unit")),
		Status:     strings.TrimSpace(c.Query("status")),
		From:       from,
		To:         to,
		ActiveOnly: active,
	}
	result, err := queries.Ask[reservationsapp.ListReservationsQuery, dto.ReservationCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Get(c *gin.Context) {
	if h.Queries == nil {
		h.handleError(c, errBusUnavailable)
		return
	}
	query := reservationsapp.GetReservationQuery{ReservationID: strings.TrimSpace(c.Param("id"))}
	result, err := queries.Ask[reservationsapp.GetReservationQuery, dto.Reservation](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Book(c *gin.Context) {
	if h.Commands == nil {
		h.handleError(c, errBusUnavailable)
		return
	}
	var req bookReservationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	checkIn, err := h.day(req.CheckIn)
	if err != nil {
		h.badRequest(c, "check_in", err)
		return
	}
	checkOut, err := h.day(req.CheckOut)
	if err != nil {
		h.badRequest(c, "check_out", err)
		return
	}
	cmd := reservationsapp.BookReservationCommand{
		ReservationID:   strings.TrimSpace(req.ID),
		GuestName:       strings.TrimSpace(req.GuestName),
		Phone:           strings.TrimSpace(req.Phone),
		Email:           strings.TrimSpace(req.Email),
		UnitID:          strings.TrimSpace(req.UnitID),
		CheckIn:         checkIn,
		CheckOut:        checkOut,
		Status:          strings.TrimSpace(req.Status),
		TotalAmount:     req.TotalAmount,
		Currency:        strings.ToUpper(strings.TrimSpace(req.Currency)),
		Observations:    req.Observations,
		IdempotencyKeyV: strings.TrimSpace(c.GetHeader("Idempotency-Key")),
	}
	result, err := commands.Dispatch[reservationsapp.BookReservationCommand, *dto.Reservation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ReservationHandler) relocateCommand(c *gin.Context) (reservationsapp.RelocateReservationCommand, bool) {
	var req relocateRequest
	if !h.bindJSON(c, &req) {
		return reservationsapp.RelocateReservationCommand{}, false
	}
	target, err := h.day(req.TargetDate)
	if err != nil {
		h.badRequest(c, "target_date", err)
		return reservationsapp.RelocateReservationCommand{}, false
	}
	anchor, err := h.day(req.AnchorDate)
	if err != nil {
		h.badRequest(c, "anchor_date", err)
		return reservationsapp.RelocateReservationCommand{}, false
	}
	return reservationsapp.RelocateReservationCommand{
		ReservationID: strings.TrimSpace(c.Param("id")),
		Segment:       req.Segment,
		TargetUnit:    strings.TrimSpace(req.TargetUnit),
		TargetDate:    target,
		AnchorDate:    anchor,
	}, true
}

func (h ReservationHandler) Relocate(c *gin.Context) {
	if h.Commands == nil {
		h.handleError(c, errBusUnavailable)
		return
	}
	cmd, ok := h.relocateCommand(c)
	if !ok {
		return
	}
	result, err := commands.Dispatch[reservationsapp.RelocateReservationCommand, dto.Reservation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PreviewRelocation answers 200 for rejected drops too: the ghost carries the verdict.
func (h ReservationHandler) PreviewRelocation(c *gin.Context) {
	if h.Queries == nil {
		h.handleError(c, errBusUnavailable)
		return
	}
	cmd, ok := h.relocateCommand(c)
	if !ok {
		return
	}
	query := reservationsapp.PreviewRelocationQuery{RelocateReservationCommand: cmd}
	result, err := queries.Ask[reservationsapp.PreviewRelocationQuery, dto.Ghost](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Split(c *gin.Context) {
	if h.Commands == nil {
		h.handleError(c, errBusUnavailable)
		return
	}
	var req splitRequest
	if !h.bindJSON(c, &req) {
		return
	}
	at, err := h.day(req.SplitDate)
	if err != nil {
		h.badRequest(c, "split_date", err)
		return
	}
	cmd := reservationsapp.SplitReservationCommand{
		ReservationID: strings.TrimSpace(c.Param("id")),
		SplitDate:     at,
		NewUnit:       strings.TrimSpace(req.NewUnit),
	}
	result, err := commands.Dispatch[reservationsapp.SplitReservationCommand, dto.Reservation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) MergeSegments(c *gin.Context) {
	if h.Commands == nil {
		h.handleError(c, errBusUnavailable)
		return
	}
	var req mergeSegmentsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cmd := reservationsapp.MergeSegmentsCommand{
		ReservationID: strings.TrimSpace(c.Param("id")),
		First:         req.First,
		Second:        req.Second,
		Confirmed:     req.Confirmed,
	}
	result, err := commands.Dispatch[reservationsapp.MergeSegmentsCommand, dto.Reservation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Neighbor(c *gin.Context) {
	if h.Queries == nil {
		h.handleError(c, errBusUnavailable)
		return
	}
	segment, err := strconv.Atoi(c.DefaultQuery("segment", "0"))
	if err != nil {
		h.badRequest(c, "segment", errors.New("segment must be an integer"))
		return
	}
	query := reservationsapp.MergeNeighborQuery{
		ReservationID: strings.TrimSpace(c.Param("id")),
		Segment:       segment,
		Direction:     strings.TrimSpace(c.Query("direction")),
	}
	result, err := queries.Ask[reservationsapp.MergeNeighborQuery, dto.Neighbor](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) Merge(c *gin.Context) {
	if h.Commands == nil {
		h.handleError(c, errBusUnavailable)
		return
	}
	var req mergeReservationsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cmd := reservationsapp.MergeReservationsCommand{
		SurvivorID: strings.TrimSpace(c.Param("id")),
		AbsorbedID: strings.TrimSpace(req.AbsorbedID),
		Confirmed:  req.Confirmed,
	}
	result, err := commands.Dispatch[reservationsapp.MergeReservationsCommand, dto.MergeResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReservationHandler) ChangeStatus(c *gin.Context) {
	if h.Commands == nil {
		h.handleError(c, errBusUnavailable)
		return
	}
	var req changeStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cmd := reservationsapp.ChangeStatusCommand{
		ReservationID: strings.TrimSpace(c.Param("id")),
		Status:        strings.TrimSpace(req.Status),
		Reason:        strings.TrimSpace(req.Reason),
	}
	result, err := commands.Dispatch[reservationsapp.ChangeStatusCommand, dto.Reservation](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ReservationHTTP = ReservationHandler{}
