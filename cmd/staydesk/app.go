package main

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"staydesk/internal/app/commands"
	"staydesk/internal/app/dto"
	calendarapp "staydesk/internal/app/handlers/calendar"
	housekeepingapp "staydesk/internal/app/handlers/housekeeping"
	maintenanceapp "staydesk/internal/app/handlers/maintenance"
	reservationsapp "staydesk/internal/app/handlers/reservations"
	"staydesk/internal/app/handlers/support"
	"staydesk/internal/app/middleware"
	"staydesk/internal/app/outbox"
	"staydesk/internal/app/policies"
	"staydesk/internal/app/queries"
	"staydesk/internal/app/uow"
	ginserver "staydesk/internal/infra/http/gin"
)

// dependencies are the infrastructure pieces the buses are built on.
type dependencies struct {
	Logger      *slog.Logger
	Location    *time.Location
	Factory     uow.UoWFactory
	Outbox      outbox.Outbox
	Idempotency middleware.IdempotencyStore
	Exporter    policies.CalendarExporter
	Clock       support.Clock
	NewID       func() string
}

type application struct {
	commands commands.Bus
	queries  queries.Bus
	handlers ginserver.Handlers
}

func buildApplication(d dependencies) application {
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	encoder := outbox.JSONEventEncoder{IDGenerator: uuid.NewString}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler[reservationsapp.BookReservationCommand, *dto.Reservation](commandBus, reservationsapp.BookReservationCommand{}.Key(), &reservationsapp.BookReservationHandler{
		UoWFactory: d.Factory, Outbox: d.Outbox, Encoder: encoder, Clock: d.Clock, NewID: d.NewID,
	})
	commands.RegisterHandler[reservationsapp.RelocateReservationCommand, dto.Reservation](commandBus, reservationsapp.RelocateReservationCommand{}.Key(), &reservationsapp.RelocateReservationHandler{
		UoWFactory: d.Factory, Outbox: d.Outbox, Encoder: encoder, Clock: d.Clock,
	})
	commands.RegisterHandler[reservationsapp.SplitReservationCommand, dto.Reservation](commandBus, reservationsapp.SplitReservationCommand{}.Key(), &reservationsapp.SplitReservationHandler{
		UoWFactory: d.Factory, Outbox: d.Outbox, Encoder: encoder, Clock: d.Clock,
	})
	commands.RegisterHandler[reservationsapp.MergeSegmentsCommand, dto.Reservation](commandBus, reservationsapp.MergeSegmentsCommand{}.Key(), &reservationsapp.MergeSegmentsHandler{
		UoWFactory: d.Factory, Outbox: d.Outbox, Encoder: encoder, Clock: d.Clock,
	})
	commands.RegisterHandler[reservationsapp.MergeReservationsCommand, dto.MergeResult](commandBus, reservationsapp.MergeReservationsCommand{}.Key(), &reservationsapp.MergeReservationsHandler{
		UoWFactory: d.Factory, Outbox: d.Outbox, Encoder: encoder, Clock: d.Clock,
	})
	commands.RegisterHandler[reservationsapp.ChangeStatusCommand, dto.Reservation](commandBus, reservationsapp.ChangeStatusCommand{}.Key(), &reservationsapp.ChangeStatusHandler{
		UoWFactory: d.Factory, Outbox: d.Outbox, Encoder: encoder, Clock: d.Clock,
	})
	commands.RegisterHandler[maintenanceapp.RegisterBlockCommand, dto.MaintenanceBlock](commandBus, maintenanceapp.RegisterBlockCommand{}.Key(), &maintenanceapp.RegisterBlockHandler{
		UoWFactory: d.Factory, Outbox: d.Outbox, Encoder: encoder, Clock: d.Clock,
	})
	commands.RegisterHandler[maintenanceapp.SetBlockStateCommand, dto.MaintenanceBlock](commandBus, maintenanceapp.SetBlockStateCommand{}.Key(), &maintenanceapp.SetBlockStateHandler{
		UoWFactory: d.Factory, Outbox: d.Outbox, Encoder: encoder, Clock: d.Clock,
	})
	commands.RegisterHandler[housekeepingapp.ScheduleBlockCommand, dto.CleaningBlock](commandBus, housekeepingapp.ScheduleBlockCommand{}.Key(), &housekeepingapp.ScheduleBlockHandler{
		UoWFactory: d.Factory, Outbox: d.Outbox, Encoder: encoder, Clock: d.Clock,
	})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler[reservationsapp.ListReservationsQuery, dto.ReservationCollection](queryBus, reservationsapp.ListReservationsQuery{}.Key(), &reservationsapp.ListReservationsHandler{UoWFactory: d.Factory})
	queries.RegisterHandler[reservationsapp.GetReservationQuery, dto.Reservation](queryBus, reservationsapp.GetReservationQuery{}.Key(), &reservationsapp.GetReservationHandler{UoWFactory: d.Factory})
	queries.RegisterHandler[reservationsapp.PreviewRelocationQuery, dto.Ghost](queryBus, reservationsapp.PreviewRelocationQuery{}.Key(), &reservationsapp.PreviewRelocationHandler{UoWFactory: d.Factory, Clock: d.Clock})
	queries.RegisterHandler[reservationsapp.MergeNeighborQuery, dto.Neighbor](queryBus, reservationsapp.MergeNeighborQuery{}.Key(), &reservationsapp.MergeNeighborHandler{UoWFactory: d.Factory})
	queries.RegisterHandler[calendarapp.DetectConflictQuery, dto.Conflict](queryBus, calendarapp.DetectConflictQuery{}.Key(), &calendarapp.DetectConflictHandler{UoWFactory: d.Factory})
	queries.RegisterHandler[calendarapp.AvailabilityQuery, dto.Availability](queryBus, calendarapp.AvailabilityQuery{}.Key(), &calendarapp.AvailabilityHandler{UoWFactory: d.Factory})
	queries.RegisterHandler[calendarapp.ListUnitsQuery, dto.UnitCollection](queryBus, calendarapp.ListUnitsQuery{}.Key(), &calendarapp.ListUnitsHandler{UoWFactory: d.Factory})
	queries.RegisterHandler[calendarapp.UnitFeedQuery, dto.CalendarFeed](queryBus, calendarapp.UnitFeedQuery{}.Key(), &calendarapp.UnitFeedHandler{UoWFactory: d.Factory, Exporter: d.Exporter})
	queries.RegisterHandler[housekeepingapp.CleaningPlanQuery, dto.CleaningSchedule](queryBus, housekeepingapp.CleaningPlanQuery{}.Key(), &housekeepingapp.CleaningPlanHandler{})
	queries.RegisterHandler[housekeepingapp.ListBlocksQuery, []dto.CleaningBlock](queryBus, housekeepingapp.ListBlocksQuery{}.Key(), &housekeepingapp.ListBlocksHandler{UoWFactory: d.Factory})
	queries.RegisterHandler[maintenanceapp.ListBlocksQuery, []dto.MaintenanceBlock](queryBus, maintenanceapp.ListBlocksQuery{}.Key(), &maintenanceapp.ListBlocksHandler{UoWFactory: d.Factory})

	validator := middleware.NewStructValidator()
	commandBusWithMiddleware := middleware.ChainCommands(
		commandBus,
		middleware.Logging(d.Logger),
		middleware.Validation(validator),
		middleware.Idempotency(d.Idempotency, nil),
		middleware.OutboxFlush(d.Outbox),
		middleware.Transaction(d.Factory, nil),
	)
	queryBusWithMiddleware := middleware.ChainQueries(queryBus, middleware.QueryValidation(validator))

	base := ginserver.Responder{Logger: d.Logger, Location: d.Location}
	return application{
		commands: commandBusWithMiddleware,
		queries:  queryBusWithMiddleware,
		handlers: ginserver.Handlers{
			Reservations: ginserver.ReservationHandler{Responder: base, Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware},
			Calendar:     ginserver.CalendarHandler{Responder: base, Queries: queryBusWithMiddleware},
			Operations:   ginserver.OperationsHandler{Responder: base, Commands: commandBusWithMiddleware, Queries: queryBusWithMiddleware},
		},
	}
}
