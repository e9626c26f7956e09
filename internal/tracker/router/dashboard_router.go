package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradelens/hts-tracker/internal/tracker/service"
)

type DashboardRouter struct {
	svc *service.DashboardService
}

func NewDashboardRouter(svc *service.DashboardService) *DashboardRouter {
	return &DashboardRouter{svc: svc}
}

// HandleGet handles GET /api/v1/dashboard
func (r *DashboardRouter) HandleGet(c *gin.Context) {
	_, authCtx, ok := sessionFrom(c)
	if !ok {
		return
	}

	dashboard, err := r.svc.Build(c.Request.Context(), authCtx)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
