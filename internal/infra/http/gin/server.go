package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"staydesk/internal/infra/config"
	"staydesk/internal/infra/obs"
)

type ReservationHTTP interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Book(c *gin.Context)
	Relocate(c *gin.Context)
	PreviewRelocation(c *gin.Context)
	Split(c *gin.Context)
	MergeSegments(c *gin.Context)
	Neighbor(c *gin.Context)
	Merge(c *gin.Context)
	ChangeStatus(c *gin.Context)
}

type CalendarHTTP interface {
	Units(c *gin.Context)
	UnitFeed(c *gin.Context)
	CheckConflict(c *gin.Context)
	Availability(c *gin.Context)
	CleaningSchedule(c *gin.Context)
}

type OperationsHTTP interface {
	ListMaintenance(c *gin.Context)
	RegisterMaintenance(c *gin.Context)
	SetMaintenanceState(c *gin.Context)
	ListCleaningBlocks(c *gin.Context)
	ScheduleCleaningBlock(c *gin.Context)
}

type Handlers struct {
	Reservations ReservationHTTP
	Calendar     CalendarHTTP
	Operations   OperationsHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{Addr: cfg.HTTPAddr, Handler: NewRouter(obsMW, health, h), ReadHeaderTimeout: 10 * time.Second}
}

// NewRouter builds the gin engine without touching the global gin mode.
func NewRouter(obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Calendar != nil {
		api.GET("/units", h.Calendar.Units)
		api.GET("/units/:id/calendar.ics", h.Calendar.UnitFeed)
		api.POST("/conflicts/check", h.Calendar.CheckConflict)
		api.GET("/availability", h.Calendar.Availability)
		api.GET("/cleaning/schedule", h.Calendar.CleaningSchedule)
	}
	if h.Reservations != nil {
		group := api.Group("/reservations")
		group.GET("", h.Reservations.List)
		group.POST("", h.Reservations.Book)
		group.GET("/:id", h.Reservations.Get)
		group.POST("/:id/relocate", h.Reservations.Relocate)
		group.POST("/:id/relocate/preview", h.Reservations.PreviewRelocation)
		group.POST("/:id/split", h.Reservations.Split)
		group.POST("/:id/segments/merge", h.Reservations.MergeSegments)
		group.GET("/:id/neighbors", h.Reservations.Neighbor)
		group.POST("/:id/merge", h.Reservations.Merge)
		group.POST("/:id/status", h.Reservations.ChangeStatus)
	}
	if h.Operations != nil {
		api.GET("/maintenance", h.Operations.ListMaintenance)
		api.POST("/maintenance", h.Operations.RegisterMaintenance)
		api.POST("/maintenance/:id/state", h.Operations.SetMaintenanceState)
		api.GET("/housekeeping/blocks", h.Operations.ListCleaningBlocks)
		api.POST("/housekeeping/blocks", h.Operations.ScheduleCleaningBlock)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
