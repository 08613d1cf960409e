package handlers

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"raffle/internal/metrics"
	"raffle/internal/models"
	"raffle/internal/services"
)

const (
	TenantHeader = "X-Tenant-ID"
	TenantCookie = "tenant_id"

	tenantKey          = "tenantID"
	tenantCookieMaxAge = 30 * 24 * 60 * 60
	maxParticipantDoc  = 1 << 20
)

// HTTPHandler holds the dependencies for the HTTP handlers, like the raffle service.
type HTTPHandler struct {
	service *services.RaffleService
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *services.RaffleService) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// RegisterPublicRoutes registers the routes that need no tenant.
func (h *HTTPHandler) RegisterPublicRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "raffle"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
}

// RegisterTenantRoutes registers the raffle API on a group that already runs
// TenantMiddleware.
func (h *HTTPHandler) RegisterTenantRoutes(rg *gin.RouterGroup) {
	raffle := rg.Group("/api/v1/raffle")
	{
		raffle.GET("", h.GetRaffle)
		raffle.POST("", h.CreateRaffle)
		raffle.DELETE("", h.ResetRaffle)
		raffle.PUT("/config", h.EditConfig)
		raffle.POST("/finalize", h.Finalize)

		raffle.POST("/prizes", h.AddPrize)
		raffle.DELETE("/prizes/:name", h.RemovePrize)

		raffle.POST("/sales", h.AssignSale)
		raffle.DELETE("/sales/:number", h.RemoveSale)
		raffle.POST("/unsold/:number", h.ToggleUnsold)
		raffle.PUT("/marking", h.SetMarkingMode)
		raffle.POST("/participants", h.ImportParticipants)

		raffle.GET("/available", h.Available)
		raffle.POST("/draw/winner", h.DrawWinner)
		raffle.POST("/draw/loser", h.DrawLoser)
		raffle.DELETE("/winners/:number", h.RemoveWinner)
		raffle.DELETE("/losers/:number", h.RemoveLoser)

		raffle.GET("/summary", h.Summary)
		raffle.GET("/sections", h.Sections)
		raffle.GET("/export/results.csv", h.ExportResultsCSV)
		raffle.GET("/export/sales.csv", h.ExportSalesCSV)
	}
}

// TenantMiddleware identifies the caller by header or cookie and issues a
// fresh tenant cookie to first-time visitors.
func (h *HTTPHandler) TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(TenantHeader)
		if tenantID == "" {
			if cookie, err := c.Cookie(TenantCookie); err == nil {
				tenantID = cookie
			}
		}
		if tenantID == "" {
			tenantID = uuid.NewString()
			c.SetCookie(TenantCookie, tenantID, tenantCookieMaxAge, "/", "", false, true)
			logger.Infof("Issued new tenant: %s", tenantID)
		}
		c.Set(tenantKey, tenantID)
		c.Next()
	}
}

// MetricsMiddleware records request counts and latencies.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveHTTP(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}

func tenant(c *gin.Context) string {
	return c.GetString(tenantKey)
}

func numberParam(c *gin.Context) (int, bool) {
	n, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid number")
		return 0, false
	}
	return n, true
}

type createRaffleRequest struct {
	Name         string          `json:"name"`
	NumberPrice  decimal.Decimal `json:"numberPrice"`
	TotalNumbers int             `json:"totalNumbers"`
	Image        string          `json:"image"`
	Theme        models.Theme    `json:"theme"`
	Prizes       []string        `json:"prizes"`
}

type prizeRequest struct {
	Name string `json:"name"`
}

type saleRequest struct {
	Numbers []int  `json:"numbers"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
}

type markingRequest struct {
	Enabled bool `json:"enabled"`
}

// GetRaffle returns the tenant's raffle.
func (h *HTTPHandler) GetRaffle(c *gin.Context) {
	r, err := h.service.Get(c.Request.Context(), tenant(c))
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusOK, "ok", r)
}

// CreateRaffle handles the setup wizard submission.
func (h *HTTPHandler) CreateRaffle(c *gin.Context) {
	var req createRaffleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	cfg := models.RaffleConfig{
		Name:         req.Name,
		NumberPrice:  req.NumberPrice,
		TotalNumbers: req.TotalNumbers,
		Image:        req.Image,
		Theme:        req.Theme,
	}
	r, err := h.service.Create(c.Request.Context(), tenant(c), cfg, req.Prizes)
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusCreated, "Raffle created", r)
}

// EditConfig updates the raffle configuration.
func (h *HTTPHandler) EditConfig(c *gin.Context) {
	var edit services.ConfigEdit
	if err := c.ShouldBindJSON(&edit); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	r, err := h.service.EditConfig(c.Request.Context(), tenant(c), edit)
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusOK, "Configuration updated", r)
}

// Finalize locks the raffle.
func (h *HTTPHandler) Finalize(c *gin.Context) {
	r, err := h.service.Finalize(c.Request.Context(), tenant(c))
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusOK, "Raffle finalized", r)
}

// ResetRaffle discards the tenant's raffle.
func (h *HTTPHandler) ResetRaffle(c *gin.Context) {
	if err := h.service.Reset(c.Request.Context(), tenant(c)); err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusOK, "Raffle reset", nil)
}

// AddPrize handles the submission for adding a new prize.
func (h *HTTPHandler) AddPrize(c *gin.Context) {
	var req prizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	r, err := h.service.AddPrize(c.Request.Context(), tenant(c), req.Name)
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusCreated, "Prize added", r.State.Prizes)
}

func (h *HTTPHandler) RemovePrize(c *gin.Context) {
	r, err := h.service.RemovePrize(c.Request.Context(), tenant(c), c.Param("name"))
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusOK, "Prize removed", r.State.Prizes)
}

// AssignSale sells the selected numbers to one buyer.
func (h *HTTPHandler) AssignSale(c *gin.Context) {
	var req saleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	r, err := h.service.AssignSale(c.Request.Context(), tenant(c), req.Numbers, req.Name, req.Phone)
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusCreated, "Sale recorded", r.State.Sales)
}

func (h *HTTPHandler) RemoveSale(c *gin.Context) {
	n, ok := numberParam(c)
	if !ok {
		return
	}
	r, err := h.service.RemoveSale(c.Request.Context(), tenant(c), n)
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusOK, "Sale removed", r.State.Sales)
}

func (h *HTTPHandler) ToggleUnsold(c *gin.Context) {
	n, ok := numberParam(c)
	if !ok {
		return
	}
	r, err := h.service.ToggleUnsold(c.Request.Context(), tenant(c), n)
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusOK, "Unsold numbers updated", r.State.Unsold)
}

func (h *HTTPHandler) SetMarkingMode(c *gin.Context) {
	var req markingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	r, err := h.service.SetMarkingMode(c.Request.Context(), tenant(c), req.Enabled)
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusOK, "Marking mode updated", gin.H{"markingMode": r.State.MarkingMode})
}

// ImportParticipants accepts the participant JSON either as the multipart
// file "participants" or as the raw request body.
func (h *HTTPHandler) ImportParticipants(c *gin.Context) {
	var document []byte
	if file, _, err := c.Request.FormFile("participants"); err == nil {
		defer file.Close()
		document, err = io.ReadAll(io.LimitReader(file, maxParticipantDoc))
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "Error reading file: "+err.Error())
			return
		}
	} else {
		buf := new(bytes.Buffer)
		if _, err := buf.ReadFrom(io.LimitReader(c.Request.Body, maxParticipantDoc)); err != nil {
			errorResponse(c, http.StatusBadRequest, "Error reading body: "+err.Error())
			return
		}
		document = buf.Bytes()
	}

	r, err := h.service.ImportParticipants(c.Request.Context(), tenant(c), document)
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusOK, "Participants loaded", gin.H{"count": len(r.State.Participants)})
}

// Available lists the numbers the next draw may pick.
func (h *HTTPHandler) Available(c *gin.Context) {
	numbers, err := h.service.Available(c.Request.Context(), tenant(c))
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusOK, "ok", gin.H{"numbers": numbers, "count": len(numbers)})
}

// DrawWinner handles the request to draw a winner for a random prize.
func (h *HTTPHandler) DrawWinner(c *gin.Context) {
	w, err := h.service.DrawWinner(c.Request.Context(), tenant(c))
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusOK, "We have a winner", w)
}

// DrawLoser handles the request to eliminate a number.
func (h *HTTPHandler) DrawLoser(c *gin.Context) {
	l, err := h.service.DrawLoser(c.Request.Context(), tenant(c))
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusOK, "Number eliminated", l)
}

func (h *HTTPHandler) RemoveWinner(c *gin.Context) {
	n, ok := numberParam(c)
	if !ok {
		return
	}
	r, err := h.service.RemoveWinner(c.Request.Context(), tenant(c), n)
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusOK, "Winner removed", r.State.Winners)
}

func (h *HTTPHandler) RemoveLoser(c *gin.Context) {
	n, ok := numberParam(c)
	if !ok {
		return
	}
	r, err := h.service.RemoveLoser(c.Request.Context(), tenant(c), n)
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusOK, "Loser removed", r.State.Losers)
}

func (h *HTTPHandler) Summary(c *gin.Context) {
	s, err := h.service.Summary(c.Request.Context(), tenant(c))
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusOK, "ok", s)
}

// Sections returns the number grid split in blocks of one hundred.
func (h *HTTPHandler) Sections(c *gin.Context) {
	r, err := h.service.Get(c.Request.Context(), tenant(c))
	if err != nil {
		failWith(c, err)
		return
	}
	successResponse(c, http.StatusOK, "ok", services.NumberSections(r.Config.TotalNumbers))
}

// ExportResultsCSV handles the request to download the draw results as a CSV file.
func (h *HTTPHandler) ExportResultsCSV(c *gin.Context) {
	h.exportCSV(c, "raffle_results.csv", services.WriteResultsCSV)
}

// ExportSalesCSV handles the request to download the sales as a CSV file.
func (h *HTTPHandler) ExportSalesCSV(c *gin.Context) {
	h.exportCSV(c, "raffle_sales.csv", services.WriteSalesCSV)
}

func (h *HTTPHandler) exportCSV(c *gin.Context, filename string, write func(io.Writer, models.Raffle) error) {
	r, err := h.service.Get(c.Request.Context(), tenant(c))
	if err != nil {
		failWith(c, err)
		return
	}

	buf := new(bytes.Buffer)
	if err := write(buf, r); err != nil {
		logger.Infof("Error writing CSV %s: %v", filename, err)
		errorResponse(c, http.StatusInternalServerError, "Error writing CSV")
		return
	}

	c.Header("Content-Disposition", "attachment;filename="+filename)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}
