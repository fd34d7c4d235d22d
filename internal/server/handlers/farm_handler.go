package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bebeku/farm/internal/domain/models"
	"github.com/bebeku/farm/internal/service/aggregation"
	"github.com/bebeku/farm/internal/service/records"
)

// FarmHandler exposes the dashboard and record API.
type FarmHandler struct {
	agg    *aggregation.Service
	rec    *records.Service
	logger *zap.Logger
}

// NewFarmHandler constructs the REST adapter.
func NewFarmHandler(agg *aggregation.Service, rec *records.Service, logger *zap.Logger) *FarmHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FarmHandler{agg: agg, rec: rec, logger: logger}
}

// Register mounts every farm route under api.
func (h *FarmHandler) Register(api *gin.RouterGroup) {
	dash := api.Group("/dashboard")
	dash.GET("/stats", h.DashboardStats)
	dash.GET("/alerts", h.Alerts)
	dash.GET("/activity", h.RecentActivity)

	barns := api.Group("/barns")
	barns.GET("", h.ListBarns)
	barns.POST("", h.CreateBarn)
	barns.GET("/:id", h.GetBarn)
	barns.PUT("/:id", h.UpdateBarn)
	barns.DELETE("/:id", h.DeleteBarn)
	barns.GET("/:id/performance", h.BarnPerformance)

	batches := api.Group("/batches")
	batches.GET("", h.ListBatches)
	batches.POST("", h.CreateBatch)
	batches.GET("/overview", h.BatchOverview)
	batches.GET("/:id", h.GetBatch)
	batches.PUT("/:id", h.UpdateBatch)
	batches.DELETE("/:id", h.DeleteBatch)
	batches.POST("/:id/close", h.CloseBatch)
	batches.GET("/:id/daily-records", h.ListDailyRecords)
	batches.POST("/:id/daily-records", h.AddDailyRecord)
	batches.GET("/:id/weights", h.ListWeights)
	batches.POST("/:id/weights", h.AddWeight)
	batches.GET("/:id/eggs", h.ListBatchEggs)
	batches.POST("/:id/eggs", h.AddEgg)
	batches.GET("/:id/finance", h.BatchFinance)
	batches.POST("/:id/finance", h.AddBatchFinance)

	api.PUT("/daily-records/:id", h.UpdateDailyRecord)
	api.DELETE("/daily-records/:id", h.DeleteDailyRecord)
	api.PUT("/weights/:id", h.UpdateWeight)
	api.DELETE("/weights/:id", h.DeleteWeight)

	eggs := api.Group("/eggs")
	eggs.GET("", h.EggSummary)
	eggs.GET("/today", h.TodayEggs)
	eggs.PUT("/:id", h.UpdateEgg)
	eggs.DELETE("/:id", h.DeleteEgg)

	finance := api.Group("/finance")
	finance.GET("", h.ListFinance)
	finance.POST("", h.AddFinance)
	finance.GET("/summary", h.FinanceSummary)
	finance.PUT("/:id", h.UpdateFinance)
	finance.DELETE("/:id", h.DeleteFinance)

	feeds := api.Group("/feeds")
	feeds.GET("", h.FeedStock)
	feeds.POST("", h.CreateFeed)
	feeds.GET("/:id", h.GetFeed)
	feeds.PUT("/:id", h.UpdateFeed)
	feeds.DELETE("/:id", h.DeleteFeed)
	feeds.POST("/:id/movements", h.AddMovement)
}

// DashboardStats returns the headline numbers.
func (h *FarmHandler) DashboardStats(c *gin.Context) {
	stats, err := h.agg.DashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Alerts returns the active alerts, highest severity first.
func (h *FarmHandler) Alerts(c *gin.Context) {
	alerts, err := h.agg.Alerts(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// RecentActivity returns the merged activity feed; ?limit overrides the default.
func (h *FarmHandler) RecentActivity(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	feed, err := h.agg.RecentActivity(c.Request.Context(), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

func (h *FarmHandler) ListBarns(c *gin.Context) {
	barns, err := h.agg.ListBarns(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, barns)
}

func (h *FarmHandler) CreateBarn(c *gin.Context) {
	var in records.BarnInput
	if !bind(c, &in) {
		return
	}
	barn, err := h.rec.CreateBarn(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, barn)
}

func (h *FarmHandler) GetBarn(c *gin.Context) {
	detail, err := h.agg.BarnDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *FarmHandler) UpdateBarn(c *gin.Context) {
	var in records.BarnInput
	if !bind(c, &in) {
		return
	}
	barn, err := h.rec.UpdateBarn(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, barn)
}

func (h *FarmHandler) DeleteBarn(c *gin.Context) {
	if err := h.rec.DeleteBarn(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FarmHandler) BarnPerformance(c *gin.Context) {
	perf, err := h.agg.BarnPerformance(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, perf)
}

// ListBatches lists batches; ?status=active narrows the result.
func (h *FarmHandler) ListBatches(c *gin.Context) {
	status := models.BatchStatus(c.Query("status"))
	batches, err := h.agg.ListBatches(c.Request.Context(), status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batches)
}

func (h *FarmHandler) BatchOverview(c *gin.Context) {
	overview, err := h.agg.BatchOverview(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (h *FarmHandler) CreateBatch(c *gin.Context) {
	var in records.BatchInput
	if !bind(c, &in) {
		return
	}
	batch, err := h.rec.CreateBatch(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

// GetBatch accepts a batch id or code.
func (h *FarmHandler) GetBatch(c *gin.Context) {
	batchID, ok := h.batchID(c)
	if !ok {
		return
	}
	detail, err := h.agg.BatchDetail(c.Request.Context(), batchID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *FarmHandler) UpdateBatch(c *gin.Context) {
	var in records.BatchUpdate
	if !bind(c, &in) {
		return
	}
	batch, err := h.rec.UpdateBatch(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (h *FarmHandler) DeleteBatch(c *gin.Context) {
	if err := h.rec.DeleteBatch(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FarmHandler) CloseBatch(c *gin.Context) {
	var in records.CloseBatchInput
	if c.Request.ContentLength != 0 && !bind(c, &in) {
		return
	}
	batch, err := h.rec.CloseBatch(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

func (h *FarmHandler) FeedStock(c *gin.Context) {
	report, err := h.agg.FeedStock(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *FarmHandler) CreateFeed(c *gin.Context) {
	var in records.FeedInput
	if !bind(c, &in) {
		return
	}
	feed, err := h.rec.CreateFeed(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, feed)
}

func (h *FarmHandler) GetFeed(c *gin.Context) {
	detail, err := h.agg.FeedDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *FarmHandler) UpdateFeed(c *gin.Context) {
	var in records.FeedInput
	if !bind(c, &in) {
		return
	}
	feed, err := h.rec.UpdateFeed(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

func (h *FarmHandler) DeleteFeed(c *gin.Context) {
	if err := h.rec.DeleteFeed(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddMovement books stock in or out of a feed item.
func (h *FarmHandler) AddMovement(c *gin.Context) {
	var in records.MovementInput
	if !bind(c, &in) {
		return
	}
	in.FeedID = c.Param("id")
	movement, feed, err := h.rec.AddStockMovement(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"movement": movement, "feed": feed})
}

// batchID resolves the :id path value, which may be an id or a code.
func (h *FarmHandler) batchID(c *gin.Context) (string, bool) {
	batch, err := h.agg.ResolveBatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return "", false
	}
	return batch.ID, true
}

func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}
