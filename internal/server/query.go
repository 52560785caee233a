package server

import (
	"net/http"
	"strings"

	telemetrydomain "github.com/fub-iot/bems/internal/telemetry/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) QueryTelemetry(c *gin.Context) {
	var query struct {
		Start       string `form:"start"`
		End         string `form:"end"`
		Granularity string `form:"granularity"`
		UnitID      string `form:"unit_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	start, err := parseRangeTime(query.Start, false)
	if err != nil {
		AbortWithError(c, newValidationError("start", "invalid_start", "invalid start time"))
		return
	}
	end, err := parseRangeTime(query.End, true)
	if err != nil {
		AbortWithError(c, newValidationError("end", "invalid_end", "invalid end time"))
		return
	}

	resp, err := s.telemetrySvc.Query(c.Request.Context(), telemetrydomain.QueryRequest{
		Start:       start,
		End:         end,
		Granularity: telemetrydomain.Granularity(strings.TrimSpace(query.Granularity)),
		UnitID:      strings.TrimSpace(query.UnitID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
