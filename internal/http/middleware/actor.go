package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/InfiniCruiser/ymca-backend/internal/http/response"
	"github.com/InfiniCruiser/ymca-backend/internal/platform/ctxutil"
)

// HeaderActorID carries the acting user id set by the upstream auth proxy.
const HeaderActorID = "X-Actor-Id"

// AttachActor reads X-Actor-Id into the request context. A missing header leaves
// the actor unset; a malformed one is rejected.
func AttachActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(HeaderActorID))
		if raw == "" {
			c.Next()
			return
		}
		id, err := uuid.Parse(raw)
		if err == nil && id == uuid.Nil {
			err = fmt.Errorf("nil actor id")
		}
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_actor", err)
			c.Abort()
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{ActorID: id})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
