package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"divwatch-api/internal/config"
	"divwatch-api/internal/svc"
	"divwatch-api/pkg/dividend"
)

var configFile = flag.String("f", "etc/divwatch.yaml", "the config file")

// Resolver is satisfied by *dividendcache.Cache.
type Resolver interface {
	Resolve(ctx context.Context, ticker string) (dividend.Series, error)
}

type row struct {
	ticker  string
	verdict dividend.Verdict
	err     error
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: divcheck [-f config] TICKERS...\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	tickers := dividend.ParseTickers(strings.Join(flag.Args(), " "))
	if len(tickers) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.MustLoad(*configFile)
	svcCtx := svc.NewServiceContext(*cfg)

	rows := check(context.Background(), svcCtx.Cache, tickers)
	writeReport(os.Stdout, rows)
	for _, r := range rows {
		if r.err != nil {
			os.Exit(1)
		}
	}
}

func check(ctx context.Context, r Resolver, tickers []string) []row {
	rows := make([]row, 0, len(tickers))
	for _, t := range tickers {
		series, err := r.Resolve(ctx, t)
		if err != nil {
			rows = append(rows, row{ticker: t, err: err})
			continue
		}
		rows = append(rows, row{ticker: t, verdict: dividend.Classify(series)})
	}
	return rows
}

func writeReport(out io.Writer, rows []row) {
	buf := &bytes.Buffer{}
	w := tabwriter.NewWriter(buf, 0, 0, 2, ' ', 0)

	p := message.NewPrinter(language.English)

	fmt.Fprintln(w, "Ticker\tStatus\tLast\tPrevious\tChange\tDate\t")
	for _, r := range rows {
		if r.err != nil {
			fmt.Fprintf(w, "%s\terror: %v\t\t\t\t\t\n", r.ticker, r.err)
			continue
		}
		v := r.verdict

		change := "-"
		if pct, ok := v.ChangePct(); ok {
			f, _ := pct.Float64()
			change = p.Sprintf("%+.2f%%", f)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n",
			r.ticker,
			v.Status,
			amount(p, v.Last),
			amount(p, v.Previous),
			change,
			orDash(v.Date),
		)
	}

	w.Flush()
	fmt.Fprint(out, buf.String())
}

func amount(p *message.Printer, v *float64) string {
	if v == nil {
		return "-"
	}
	return p.Sprintf("%.4f", *v)
}

func orDash(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
