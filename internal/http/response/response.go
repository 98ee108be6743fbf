package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/InfiniCruiser/ymca-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAggregateError writes err with the status its aggregate code maps to.
// Internal failures do not leak their message.
func RespondAggregateError(c *gin.Context, err error) {
	apiErr := apierr.FromAggregate(err)
	if apiErr == nil {
		c.Status(http.StatusNoContent)
		return
	}
	_ = c.Error(err)
	if apiErr.Status >= http.StatusInternalServerError && apiErr.Status != http.StatusServiceUnavailable {
		c.JSON(apiErr.Status, ErrorEnvelope{Error: APIError{Message: "internal error", Code: apiErr.Code}})
		return
	}
	RespondError(c, apiErr.Status, apiErr.Code, apiErr.Err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
