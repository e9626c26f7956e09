package router

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tradelens/hts-tracker/internal/tracker/model"
	"github.com/tradelens/hts-tracker/internal/tracker/service"
)

type HSCodeRouter struct {
	svc *service.HSCodeService
}

func NewHSCodeRouter(svc *service.HSCodeService) *HSCodeRouter {
	return &HSCodeRouter{svc: svc}
}

// HandleSearch handles GET /api/v1/hscodes?q={code}
// Optional Query Params: offset, limit
func (r *HSCodeRouter) HandleSearch(c *gin.Context) {
	filter := model.HSCodeFilter{Query: c.Query("q")}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			badRequest(c, "invalid 'limit' query parameter, must be an integer")
			return
		}
		filter.Limit = &limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			badRequest(c, "invalid 'offset' query parameter, must be an integer")
			return
		}
		filter.Offset = &offset
	}

	result, err := r.svc.Search(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleGetByID handles GET /api/v1/hscodes/:id
func (r *HSCodeRouter) HandleGetByID(c *gin.Context) {
	code, err := r.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, code)
}
