package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/01moynul/storefront-golang/internal/accounts"
	"github.com/01moynul/storefront-golang/internal/analytics"
	"github.com/01moynul/storefront-golang/internal/apperr"
	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/catalog"
	"github.com/01moynul/storefront-golang/internal/live"
	"github.com/01moynul/storefront-golang/internal/orders"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Accounts  *accounts.Service
	Catalog   *catalog.Service
	Cart      *cart.Service
	Orders    *orders.Service
	Analytics *analytics.Service
	Live      *live.Hub
	Log       *logrus.Entry

	// SecureCookies marks auth cookies Secure (production only).
	SecureCookies bool
}

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindInsufficientStock:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the {"success": false, "message": ...} body for err.
func (h *Handlers) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusOf(kind)
	body := gin.H{"success": false, "message": apperr.MessageOf(err)}

	if status == http.StatusInternalServerError {
		c.Error(err)
		h.Log.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		body["message"] = "Internal server error"
		body["error"] = err.Error()
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body: " + err.Error()})
}

// Health is the liveness probe.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
