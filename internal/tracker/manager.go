package tracker

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tradelens/hts-tracker/internal/reports"
	"github.com/tradelens/hts-tracker/internal/tracker/router"
	"github.com/tradelens/hts-tracker/internal/tracker/service"
)

// Manager wires the tracker's services and routers together.
type Manager struct {
	hsCodeService       *service.HSCodeService
	subscriptionService *service.SubscriptionService
	trackedCodeStore    *service.TrackedCodeStore
	tradeStatsService   *service.TradeStatsService
	dashboardService    *service.DashboardService
	workflow            *service.TrackingWorkflow
	hsCodeRouter        *router.HSCodeRouter
	trackedCodeRouter   *router.TrackedCodeRouter
	tradeStatsRouter    *router.TradeStatsRouter
	dashboardRouter     *router.DashboardRouter
}

// NewManager creates the tracker services on db. notifier announces new tracked codes;
// reportService archives exported workbooks.
func NewManager(db *gorm.DB, notifier service.TrackingNotifier, reportService *reports.ReportService) *Manager {
	hsCodeService := service.NewHSCodeService(db)
	subscriptionService := service.NewSubscriptionService(db)
	trackedCodeStore := service.NewTrackedCodeStore(db)
	tradeStatsService := service.NewTradeStatsService(db)

	workflow := service.NewTrackingWorkflow(hsCodeService, subscriptionService, trackedCodeStore, notifier, service.NewWatchlistCache())
	dashboardService := service.NewDashboardService(subscriptionService, tradeStatsService, workflow)

	return &Manager{
		hsCodeService:       hsCodeService,
		subscriptionService: subscriptionService,
		trackedCodeStore:    trackedCodeStore,
		tradeStatsService:   tradeStatsService,
		dashboardService:    dashboardService,
		workflow:            workflow,
		hsCodeRouter:        router.NewHSCodeRouter(hsCodeService),
		trackedCodeRouter:   router.NewTrackedCodeRouter(workflow),
		tradeStatsRouter:    router.NewTradeStatsRouter(tradeStatsService, reportService),
		dashboardRouter:     router.NewDashboardRouter(dashboardService),
	}
}

// Workflow exposes the tracking workflow, e.g. for CLI tools.
func (m *Manager) Workflow() *service.TrackingWorkflow {
	return m.workflow
}

// TradeStats exposes the trade statistics service.
func (m *Manager) TradeStats() *service.TradeStatsService {
	return m.tradeStatsService
}

// RegisterRoutes mounts the tracker endpoints on an authenticated group.
func (m *Manager) RegisterRoutes(api *gin.RouterGroup) {
	hscodes := api.Group("/hscodes")
	{
		hscodes.GET("", m.hsCodeRouter.HandleSearch)
		hscodes.GET("/:id", m.hsCodeRouter.HandleGetByID)
	}

	tracked := api.Group("/tracked")
	{
		tracked.GET("", m.trackedCodeRouter.HandleList)
		tracked.POST("", m.trackedCodeRouter.HandleTrack)
		tracked.DELETE("/:hsCode", m.trackedCodeRouter.HandleUntrack)
	}

	stats := api.Group("/trade-stats/:hsCode")
	{
		stats.GET("/chart", m.tradeStatsRouter.HandleChart)
		stats.GET("/export", m.tradeStatsRouter.HandleExport)
		stats.POST("/reports", m.tradeStatsRouter.HandleArchive)
	}

	api.GET("/dashboard", m.dashboardRouter.HandleGet)
}
