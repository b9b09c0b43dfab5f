package ginserver

import (
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"staydesk/internal/app/commands"
	"staydesk/internal/app/dto"
	housekeepingapp "staydesk/internal/app/handlers/housekeeping"
	maintenanceapp "staydesk/internal/app/handlers/maintenance"
	"staydesk/internal/app/queries"
)

// OperationsHandler serves maintenance tickets and standalone cleaning blocks.
type OperationsHandler struct {
	Responder
	Commands commands.Bus
	Queries  queries.Bus
}

type registerMaintenanceRequest struct {
	ID                 string `json:"id"`
	UnitID             string `json:"unit_id"`
	Start              string `json:"start"`
	End                string `json:"end"`
	BlocksAvailability *bool  `json:"blocks_availability"`
	State              string `json:"state"`
	Title              string `json:"title"`
}

type maintenanceStateRequest struct {
	State string `json:"state"`
}

type cleaningBlockRequest struct {
	ID     string `json:"id"`
	UnitID string `json:"unit_id"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Note   string `json:"note"`
}

func (h OperationsHandler) ListMaintenance(c *gin.Context) {
	if h.Queries == nil {
		h.handleError(c, errBusUnavailable)
		return
	}
	query := maintenanceapp.ListBlocksQuery{UnitID: strings.TrimSpace(c.Query("unit"))}
	result, err := queries.Ask[maintenanceapp.ListBlocksQuery, []dto.MaintenanceBlock](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": result})
}

func (h OperationsHandler) RegisterMaintenance(c *gin.Context) {
	if h.Commands == nil {
		h.handleError(c, errBusUnavailable)
		return
	}
	var req registerMaintenanceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	start, err := h.day(req.Start)
	if err != nil {
		h.badRequest(c, "start", err)
		return
	}
	end, err := h.day(req.End)
	if err != nil {
		h.badRequest(c, "end", err)
		return
	}
	blocks := true
	if req.BlocksAvailability != nil {
		blocks = *req.BlocksAvailability
	}
	cmd := maintenanceapp.RegisterBlockCommand{
		BlockID:            strings.TrimSpace(req.ID),
		UnitID:             strings.TrimSpace(req.UnitID),
		Start:              start,
		End:                end,
		BlocksAvailability: blocks,
		State:              strings.TrimSpace(req.State),
		Title:              strings.TrimSpace(req.Title),
	}
	result, err := commands.Dispatch[maintenanceapp.RegisterBlockCommand, dto.MaintenanceBlock](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h OperationsHandler) SetMaintenanceState(c *gin.Context) {
	if h.Commands == nil {
		h.handleError(c, errBusUnavailable)
		return
	}
	var req maintenanceStateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cmd := maintenanceapp.SetBlockStateCommand{
		BlockID: strings.TrimSpace(c.Param("id")),
		State:   strings.TrimSpace(req.State),
	}
	result, err := commands.Dispatch[maintenanceapp.SetBlockStateCommand, dto.MaintenanceBlock](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h OperationsHandler) ListCleaningBlocks(c *gin.Context) {
	if h.Queries == nil {
		h.handleError(c, errBusUnavailable)
		return
	}
	query := housekeepingapp.ListBlocksQuery{UnitID: strings.TrimSpace(c.Query("unit"))}
	result, err := queries.Ask[housekeepingapp.ListBlocksQuery, []dto.CleaningBlock](c.Request.Context(), h.Queries, query)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": result})
}

func (h OperationsHandler) ScheduleCleaningBlock(c *gin.Context) {
	if h.Commands == nil {
		h.handleError(c, errBusUnavailable)
		return
	}
	var req cleaningBlockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	start, err := h.day(req.Start)
	if err != nil {
		h.badRequest(c, "start", err)
		return
	}
	end, err := h.day(req.End)
	if err != nil {
		h.badRequest(c, "end", err)
		return
	}
	cmd := housekeepingapp.ScheduleBlockCommand{
		BlockID: strings.TrimSpace(req.ID),
		UnitID:  strings.TrimSpace(req.UnitID),
		Start:   start,
		End:     end,
		Note:    req.Note,
	}
	result, err := commands.Dispatch[housekeepingapp.ScheduleBlockCommand, dto.CleaningBlock](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

var _ OperationsHTTP = OperationsHandler{}
