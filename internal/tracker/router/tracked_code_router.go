package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradelens/hts-tracker/internal/tracker/model"
	"github.com/tradelens/hts-tracker/internal/tracker/service"
)

type TrackedCodeRouter struct {
	workflow *service.TrackingWorkflow
}

func NewTrackedCodeRouter(workflow *service.TrackingWorkflow) *TrackedCodeRouter {
	return &TrackedCodeRouter{workflow: workflow}
}

// HandleList handles GET /api/v1/tracked
func (r *TrackedCodeRouter) HandleList(c *gin.Context) {
	sess, _, ok := sessionFrom(c)
	if !ok {
		return
	}

	codes, err := r.workflow.List(c.Request.Context(), sess)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trackedCodes": codes})
}

// HandleTrack handles POST /api/v1/tracked
func (r *TrackedCodeRouter) HandleTrack(c *gin.Context) {
	sess, _, ok := sessionFrom(c)
	if !ok {
		return
	}

	var req model.TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: hsCode and tradeType are required")
		return
	}

	attempt, err := r.workflow.Track(c.Request.Context(), sess, req.HSCode, req.TradeType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attempt.Entry)
}

// HandleUntrack handles DELETE /api/v1/tracked/:hsCode
func (r *TrackedCodeRouter) HandleUntrack(c *gin.Context) {
	sess, _, ok := sessionFrom(c)
	if !ok {
		return
	}

	if err := r.workflow.Untrack(c.Request.Context(), sess, c.Param("hsCode")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
