package coordinator

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/sweeney/fridge-controller/internal/logger"
	"github.com/sweeney/fridge-controller/internal/logic"
	"github.com/sweeney/fridge-controller/internal/uplink"

	_ "github.com/sweeney/fridge-controller/internal/coordinator/docs"
)

const (
	statusOK = "ok"

	errInvalidBodyPref = "invalid body: "
)

// Handler wires the HTTP layer to the Store.
type Handler struct {
	store    *Store
	log      *logger.Logger
	accounts gin.Accounts
}

// NewHandler creates a Handler. When username is non-empty, device uploads
// require HTTP basic auth with the given credentials.
func NewHandler(store *Store, log *logger.Logger, username, password string) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	h := &Handler{store: store, log: log}
	if username != "" {
		h.accounts = gin.Accounts{username: password}
	}
	return h
}

// InitRoutes builds the gin router with every route registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	router.GET("/ws", h.wsConnect)

	api := router.Group("/api")
	{
		if h.accounts != nil {
			api.POST("/sensors", gin.BasicAuth(h.accounts), h.report)
		} else {
			api.POST("/sensors", h.report)
		}
		api.GET("/sensors", h.getSensors)
		api.GET("/relay-state", h.getRelays)
		api.POST("/relay-state", h.writeRelays)
		api.GET("/mode", h.getMode)
		api.POST("/mode", h.setMode)
		api.GET("/config", h.getConfig)
		api.POST("/config", h.setConfig)
		api.GET("/admin", h.getAdmin)
	}
	return router
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Device upload
// @Description  Records the latest reading and returns setpoints and relay overrides.
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body      uplink.Upload  true  "Device state"
// @Success      200   {object}  uplink.Reply
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/sensors [post]
// @Security     BasicAuth
func (h *Handler) report(c *gin.Context) {
	var u uplink.Upload
	if err := c.ShouldBindJSON(&u); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	reply := h.store.Report(u)
	h.log.Debugw("device upload", "id", u.ID, "status", u.Status, "problem", u.Problem, "is_admin", u.IsAdmin)
	c.JSON(http.StatusOK, reply)
}

// @Summary      Latest sensor reading
// @Tags         device
// @Produce      json
// @Success      200  {object}  Sensors
// @Router       /api/sensors [get]
func (h *Handler) getSensors(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Sensors())
}

// @Summary      Manual relay overrides
// @Tags         relays
// @Produce      json
// @Success      200  {object}  Relays
// @Router       /api/relay-state [get]
func (h *Handler) getRelays(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Relays())
}

// RelayWriteRequest is the body of a relay override write.
type RelayWriteRequest struct {
	// Privilege the caller claims; must match the device's.
	IsAdmin bool `json:"is_admin" example:"false"`
	Relays
}

// @Summary      Write relay overrides
// @Description  Accepted only when is_admin matches the privilege last reported by the device.
// @Tags         relays
// @Accept       json
// @Produce      json
// @Param        body  body      RelayWriteRequest  true  "Overrides"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /api/relay-state [post]
func (h *Handler) writeRelays(c *gin.Context) {
	var req RelayWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.store.WriteRelays(req.IsAdmin, req.Relays); err != nil {
		if errors.Is(err, ErrPrivilegeMismatch) {
			h.log.Warnw("relay write rejected", "claimed_admin", req.IsAdmin)
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.log.Infow("relay overrides updated",
		"compressor", req.CompressorOn, "ventilation", req.VentilationOn, "heater", req.HeaterOn)
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "relay_states": req.Relays})
}

// ModeRequest is the body of a mode change.
type ModeRequest struct {
	// Allowed: auto, manual
	Mode string `json:"mode" binding:"required" example:"manual"`
}

// @Summary      Control mode
// @Tags         mode
// @Produce      json
// @Success      200  {object}  ModeRequest
// @Router       /api/mode [get]
func (h *Handler) getMode(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"mode": h.store.Mode()})
}

// @Summary      Set control mode
// @Tags         mode
// @Accept       json
// @Produce      json
// @Param        body  body      ModeRequest  true  "Mode"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Router       /api/mode [post]
func (h *Handler) setMode(c *gin.Context) {
	var req ModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.store.SetMode(req.Mode); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.log.Infow("mode changed", "mode", h.store.Mode())
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "mode": h.store.Mode()})
}

// @Summary      Setpoints
// @Tags         config
// @Produce      json
// @Success      200  {object}  Setpoints
// @Router       /api/config [get]
func (h *Handler) getConfig(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Setpoints())
}

// @Summary      Update setpoints
// @Description  Missing fields are left unchanged.
// @Tags         config
// @Accept       json
// @Produce      json
// @Param        body  body      SetpointsUpdate  true  "Setpoints"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /api/config [post]
func (h *Handler) setConfig(c *gin.Context) {
	var req SetpointsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	sp, err := h.store.UpdateSetpoints(req)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, logic.ErrUnknownDefrostType) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	h.log.Infow("setpoints updated",
		"target", sp.TargetTemperature, "defrost_threshold", sp.DefrostThreshold, "defrost_type", sp.DefrostType)
	c.JSON(http.StatusOK, gin.H{"status": statusOK, "config": sp})
}

// @Summary      Device privilege
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]bool
// @Router       /api/admin [get]
func (h *Handler) getAdmin(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"admin": h.store.Admin()})
}
