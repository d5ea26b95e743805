package handler

import (
	"errors"
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"divwatch-api/internal/types"
	"divwatch-api/pkg/dividendcache"
)

const (
	CodeInvalidRequest  = "invalid_request"
	CodeDataUnavailable = "data_unavailable"
	CodeInternal        = "internal_error"
)

// writeError maps upstream failures to 502 and everything else to 500.
func writeError(r *http.Request, w http.ResponseWriter, err error) {
	ctx := r.Context()
	var fetchErr *dividendcache.FetchError
	if errors.As(err, &fetchErr) {
		httpx.WriteJsonCtx(ctx, w, http.StatusBadGateway, &types.ErrorResponse{
			Code:    CodeDataUnavailable,
			Message: "dividend data unavailable for " + fetchErr.Ticker,
		})
		return
	}
	if errors.Is(err, dividendcache.ErrDataUnavailable) {
		httpx.WriteJsonCtx(ctx, w, http.StatusBadGateway, &types.ErrorResponse{
			Code:    CodeDataUnavailable,
			Message: "dividend data unavailable",
		})
		return
	}
	httpx.WriteJsonCtx(ctx, w, http.StatusInternalServerError, &types.ErrorResponse{
		Code:    CodeInternal,
		Message: "internal error",
	})
}
