package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"raffle/internal/services"
)

// Response is the envelope of every JSON reply.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func successResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
	})
}

// failWith maps a service error onto an HTTP status.
func failWith(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	errorResponse(c, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNoNumbersAvailable),
		errors.Is(err, services.ErrNoPrizesAvailable),
		errors.Is(err, services.ErrIllegalLifecycleTransition),
		errors.Is(err, services.ErrDuplicatePrize),
		errors.Is(err, services.ErrPrizeClaimed),
		errors.Is(err, services.ErrNumberUnavailable):
		return http.StatusConflict
	case errors.Is(err, services.ErrInvalidConfiguration),
		errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrRaffleNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
