package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bebeku/farm/internal/domain/models"
)

const dateLayout = "2006-01-02"

// StatusFor maps a service error to its HTTP status.
func StatusFor(err error) int {
	var de *models.DomainError
	if !errors.As(err, &de) {
		return http.StatusInternalServerError
	}
	switch de.Code {
	case models.CodeNotFound:
		return http.StatusNotFound
	case models.CodeInvalidInput:
		return http.StatusBadRequest
	case models.CodePrecondition, models.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error", "code"}. Internal errors are logged
// and their text withheld.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	var de *models.DomainError
	errors.As(err, &de)
	c.JSON(status, gin.H{"error": de.Message, "code": de.Code})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": models.CodeInvalidInput})
}

// queryDate parses an optional YYYY-MM-DD query value in loc.
func queryDate(c *gin.Context, key string, loc *time.Location) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.ParseInLocation(dateLayout, raw, loc)
	if err != nil {
		badRequest(c, key+" must be formatted as YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

func queryInt(c *gin.Context, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		badRequest(c, key+" must be a non-negative integer")
		return 0, false
	}
	return n, true
}
