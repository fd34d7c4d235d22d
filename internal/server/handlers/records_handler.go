package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bebeku/farm/internal/service/aggregation"
	"github.com/bebeku/farm/internal/service/records"
)

func (h *FarmHandler) ListDailyRecords(c *gin.Context) {
	batchID, ok := h.batchID(c)
	if !ok {
		return
	}
	out, err := h.agg.DailyRecords(c.Request.Context(), batchID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// AddDailyRecord books a day's mortality and feed; the response carries the
// recomputed population and whether the daily mortality guard tripped.
func (h *FarmHandler) AddDailyRecord(c *gin.Context) {
	batchID, ok := h.batchID(c)
	if !ok {
		return
	}
	var in records.DailyRecordInput
	if !bind(c, &in) {
		return
	}
	in.BatchID = batchID
	res, err := h.rec.AddDailyRecord(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *FarmHandler) UpdateDailyRecord(c *gin.Context) {
	var in records.DailyRecordInput
	if !bind(c, &in) {
		return
	}
	res, err := h.rec.UpdateDailyRecord(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *FarmHandler) DeleteDailyRecord(c *gin.Context) {
	if err := h.rec.DeleteDailyRecord(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListWeights returns the batch weighings; ?series=1 returns the growth curve.
func (h *FarmHandler) ListWeights(c *gin.Context) {
	batchID, ok := h.batchID(c)
	if !ok {
		return
	}
	if c.Query("series") != "" {
		series, err := h.agg.WeightSeries(c.Request.Context(), batchID)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, series)
		return
	}
	out, err := h.agg.WeightRecords(c.Request.Context(), batchID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *FarmHandler) AddWeight(c *gin.Context) {
	batchID, ok := h.batchID(c)
	if !ok {
		return
	}
	var in records.WeightInput
	if !bind(c, &in) {
		return
	}
	in.BatchID = batchID
	rec, err := h.rec.AddWeightRecord(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *FarmHandler) UpdateWeight(c *gin.Context) {
	var in records.WeightInput
	if !bind(c, &in) {
		return
	}
	rec, err := h.rec.UpdateWeightRecord(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *FarmHandler) DeleteWeight(c *gin.Context) {
	if err := h.rec.DeleteWeightRecord(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FarmHandler) ListBatchEggs(c *gin.Context) {
	batchID, ok := h.batchID(c)
	if !ok {
		return
	}
	out, err := h.agg.EggRecords(c.Request.Context(), batchID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *FarmHandler) AddEgg(c *gin.Context) {
	batchID, ok := h.batchID(c)
	if !ok {
		return
	}
	var in records.EggInput
	if !bind(c, &in) {
		return
	}
	in.BatchID = batchID
	rec, err := h.rec.AddEggRecord(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *FarmHandler) UpdateEgg(c *gin.Context) {
	var in records.EggInput
	if !bind(c, &in) {
		return
	}
	rec, err := h.rec.UpdateEggRecord(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *FarmHandler) DeleteEgg(c *gin.Context) {
	if err := h.rec.DeleteEggRecord(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// EggSummary totals production over ?from, ?to and ?batch.
func (h *FarmHandler) EggSummary(c *gin.Context) {
	q, ok := h.rangeQuery(c)
	if !ok {
		return
	}
	summary, err := h.agg.EggSummary(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *FarmHandler) TodayEggs(c *gin.Context) {
	total, recs, err := h.agg.TodayEggs(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "records": recs})
}

func (h *FarmHandler) BatchFinance(c *gin.Context) {
	batchID, ok := h.batchID(c)
	if !ok {
		return
	}
	summary, err := h.agg.BatchFinance(c.Request.Context(), batchID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	recs, err := h.agg.FinanceRecords(c.Request.Context(), batchID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary, "records": recs})
}

func (h *FarmHandler) AddBatchFinance(c *gin.Context) {
	batchID, ok := h.batchID(c)
	if !ok {
		return
	}
	var in records.FinanceInput
	if !bind(c, &in) {
		return
	}
	in.BatchID = &batchID
	h.addFinance(c, in)
}

func (h *FarmHandler) ListFinance(c *gin.Context) {
	out, err := h.agg.FinanceRecords(c.Request.Context(), c.Query("batch"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *FarmHandler) AddFinance(c *gin.Context) {
	var in records.FinanceInput
	if !bind(c, &in) {
		return
	}
	h.addFinance(c, in)
}

func (h *FarmHandler) addFinance(c *gin.Context, in records.FinanceInput) {
	rec, err := h.rec.AddFinanceRecord(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *FarmHandler) UpdateFinance(c *gin.Context) {
	var in records.FinanceInput
	if !bind(c, &in) {
		return
	}
	rec, err := h.rec.UpdateFinanceRecord(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *FarmHandler) DeleteFinance(c *gin.Context) {
	if err := h.rec.DeleteFinanceRecord(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// FinanceSummary totals transactions over ?from, ?to and ?batch.
func (h *FarmHandler) FinanceSummary(c *gin.Context) {
	q, ok := h.rangeQuery(c)
	if !ok {
		return
	}
	summary, err := h.agg.FinanceSummary(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *FarmHandler) rangeQuery(c *gin.Context) (aggregation.RangeQuery, bool) {
	loc := h.agg.Location()
	from, ok := queryDate(c, "from", loc)
	if !ok {
		return aggregation.RangeQuery{}, false
	}
	to, ok := queryDate(c, "to", loc)
	if !ok {
		return aggregation.RangeQuery{}, false
	}
	if !to.IsZero() {
		// a date-only upper bound covers the whole day
		to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	q := aggregation.RangeQuery{From: from, To: to}
	if ref := c.Query("batch"); ref != "" {
		batch, err := h.agg.ResolveBatch(c.Request.Context(), ref)
		if err != nil {
			respondError(c, h.logger, err)
			return aggregation.RangeQuery{}, false
		}
		q.BatchID = batch.ID
	}
	return q, true
}
