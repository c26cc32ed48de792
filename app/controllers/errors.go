package controllers

import (
	"errors"
	"net/http"

	"github.com/multidelivery/painel/app/services"
	"github.com/multidelivery/painel/pkg/ctx"
	"github.com/multidelivery/painel/pkg/logger"
)

var kindStatus = map[services.Kind]int{
	services.KindInvalid:       http.StatusBadRequest,
	services.KindUnauthorized:  http.StatusUnauthorized,
	services.KindNotFound:      http.StatusNotFound,
	services.KindConflict:      http.StatusConflict,
	services.KindUnprocessable: http.StatusUnprocessableEntity,
}

// fail writes the reply for a service error. Anything that is not a
// *services.Error is logged and hidden behind the generic 500 message.
func fail(c *ctx.Context, op string, err error) {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		if code, ok := kindStatus[svcErr.Kind]; ok {
			c.Error(code, svcErr.Message)
			return
		}
	}
	logger.WithCtx(c.Context()).Error(op, "error", err)
	c.Internal("")
}
