package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meenmo/rateslib/errs"
)

// handle binds a JSON body into Req, calls fn and writes the response.
func handle[Req, Resp any](s *Server, fn func(Req) (Resp, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req Req
		if err := c.ShouldBindJSON(&req); err != nil {
			s.fail(c, fmt.Errorf("decode request: %v: %w", err, errs.ErrInvalidInput))
			return
		}
		resp, err := fn(req)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
