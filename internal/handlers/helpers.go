package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"marketplace-service/internal/repositories"
	"marketplace-service/internal/services"
)

func currentUserID(c *gin.Context) int64 {
	return c.GetInt64("userID")
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (page, size int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}

// respondError maps domain errors onto HTTP statuses. Anything unrecognized
// is a 500 with the detail kept out of the response body.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repositories.ErrListingNotFound),
		errors.Is(err, repositories.ErrOfferNotFound),
		errors.Is(err, repositories.ErrRoomNotFound),
		errors.Is(err, repositories.ErrMemberNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrAlreadyResolved):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, repositories.ErrDuplicatePendingOffer),
		errors.Is(err, services.ErrBumpCooldown),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrNotNegotiable),
		errors.Is(err, services.ErrSelfOffer),
		errors.Is(err, services.ErrListingNotAvailable),
		errors.Is(err, services.ErrInvalidPrice),
		errors.Is(err, services.ErrInvalidCurrency),
		errors.Is(err, services.ErrInvalidDecision),
		errors.Is(err, services.ErrSelfChat),
		errors.Is(err, services.ErrAlreadyReserved),
		errors.Is(err, services.ErrNotReserved),
		errors.Is(err, services.ErrInvalidKind),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrItemNameRequired),
		errors.Is(err, services.ErrDescriptionRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
