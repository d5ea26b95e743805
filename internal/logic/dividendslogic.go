package logic

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"divwatch-api/internal/svc"
	"divwatch-api/internal/types"
	"divwatch-api/pkg/dividend"
)

type DividendsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDividendsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DividendsLogic {
	return &DividendsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Dividends resolves every requested ticker in input order. The first
// failing ticker aborts the whole batch.
func (l *DividendsLogic) Dividends(req *types.DividendsRequest) (resp *types.DividendsResponse, err error) {
	tickers := dividend.ParseTickers(req.Tickers)
	resp = &types.DividendsResponse{
		Series:  make([]types.TickerSeries, 0, len(tickers)),
		Changes: make([]types.TickerChange, 0, len(tickers)),
	}

	for _, ticker := range tickers {
		series, err := l.svcCtx.Cache.Resolve(l.ctx, ticker)
		if err != nil {
			l.Errorf("resolve %s: %v", ticker, err)
			return nil, err
		}
		verdict := dividend.Classify(series)

		resp.Series = append(resp.Series, types.TickerSeries{
			Ticker: ticker,
			Data:   toRecords(series),
		})
		resp.Changes = append(resp.Changes, types.TickerChange{
			Ticker:   ticker,
			Status:   string(verdict.Status),
			Last:     verdict.Last,
			Previous: verdict.Previous,
			Date:     verdict.Date,
		})
	}

	l.Infof("dividends: resolved %d tickers", len(tickers))
	return resp, nil
}

func toRecords(series dividend.Series) []types.DividendRecord {
	out := make([]types.DividendRecord, 0, len(series))
	for _, r := range series {
		out = append(out, types.DividendRecord{Date: r.Date, Amount: r.Amount})
	}
	return out
}
