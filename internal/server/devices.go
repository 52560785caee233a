package server

import (
	"net/http"
	"strings"

	registrydomain "github.com/fub-iot/bems/internal/registry/domain"
	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

type createDeviceRequest struct {
	RoomID   string         `json:"room_id"`
	Name     string         `json:"name"`
	Kind     string         `json:"kind"`
	Active   *bool          `json:"active"`
	Metadata datatypes.JSON `json:"metadata"`
}

type updateDeviceRequest struct {
	Name     *string         `json:"name,omitempty"`
	Kind     *string         `json:"kind,omitempty"`
	Active   *bool           `json:"active,omitempty"`
	Metadata *datatypes.JSON `json:"metadata,omitempty"`
}

func (s *Server) CreateDevice(c *gin.Context) {
	var req createDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.registrySvc.Create(c.Request.Context(), registrydomain.CreateRequest{
		RoomID:   strings.TrimSpace(req.RoomID),
		Name:     strings.TrimSpace(req.Name),
		Kind:     strings.TrimSpace(req.Kind),
		Active:   req.Active,
		Metadata: req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListDevices(c *gin.Context) {
	var query struct {
		RoomID string `form:"room_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.registrySvc.List(c.Request.Context(), strings.TrimSpace(query.RoomID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDeviceByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.registrySvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateDevice(c *gin.Context) {
	var req updateDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.registrySvc.Update(c.Request.Context(), registrydomain.UpdateRequest{
		ID:       strings.TrimSpace(c.Param("id")),
		Name:     req.Name,
		Kind:     req.Kind,
		Active:   req.Active,
		Metadata: req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteDevice(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.registrySvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

// ExportDevices streams the registry snapshot as a JSON download.
func (s *Server) ExportDevices(c *gin.Context) {
	doc, err := s.registrySvc.Export(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="devices.json"`)
	c.JSON(http.StatusOK, doc)
}
