package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"divwatch-api/internal/logic"
	"divwatch-api/internal/svc"
	"divwatch-api/internal/types"
)

func DividendsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.DividendsRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.WriteJsonCtx(r.Context(), w, http.StatusBadRequest, &types.ErrorResponse{
				Code:    CodeInvalidRequest,
				Message: err.Error(),
			})
			return
		}

		l := logic.NewDividendsLogic(r.Context(), svcCtx)
		resp, err := l.Dividends(&req)
		if err != nil {
			writeError(r, w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
