package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/freightlink/backend/internal/conversion"
	"github.com/freightlink/backend/internal/loyalty"
	"github.com/freightlink/backend/internal/middleware"
	"github.com/freightlink/backend/internal/referral"
	"github.com/freightlink/backend/internal/settings"
	"github.com/freightlink/backend/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, loyalty.ErrInvalidAmount),
		errors.Is(err, loyalty.ErrUnknownReason),
		errors.Is(err, conversion.ErrInvalidRate),
		errors.Is(err, referral.ErrSelfReferral),
		errors.Is(err, settings.ErrInvalidSettingValue):
		return http.StatusBadRequest
	case errors.Is(err, loyalty.ErrInsufficientPoints),
		errors.Is(err, conversion.ErrBelowMinimumConversion),
		errors.Is(err, conversion.ErrSelfTransferNotAllowed),
		errors.Is(err, referral.ErrReferralCycle),
		errors.Is(err, referral.ErrReferralWindowClosed),
		errors.Is(err, store.ErrInsufficientWalletBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, loyalty.ErrProfileNotFound),
		errors.Is(err, conversion.ErrRecipientNotFound),
		errors.Is(err, referral.ErrInvalidReferralCode),
		errors.Is(err, settings.ErrUnknownSetting),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, referral.ErrDuplicateReferral),
		errors.Is(err, loyalty.ErrDuplicateEntry):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Unexpected errors are logged and hidden.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[http] %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// requireUser returns the authenticated user or writes a 401
func requireUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false
	}
	return userID, true
}

// maxPage bounds the page number so (page-1)*limit cannot overflow
const maxPage = 100000

// pagination reads page and page_size query parameters
func pagination(c *gin.Context, defaultSize, maxSize int) (limit, offset int, page int) {
	page = queryInt(c, "page", 1)
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	limit = queryInt(c, "page_size", defaultSize)
	if limit < 1 {
		limit = defaultSize
	}
	if limit > maxSize {
		limit = maxSize
	}
	return limit, (page - 1) * limit, page
}
