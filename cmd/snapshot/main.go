// Command snapshot renders a chart to a PNG without opening a window.
// Useful for report generation and for eyeballing render changes.
package main

import (
	"context"
	"flag"
	"image"
	"image/png"
	"os"
	"strings"

	"chartview/config"
	"chartview/internal/chart"
	"chartview/internal/dataservice"
	"chartview/internal/indicator"
	"chartview/internal/logger"
	"chartview/internal/model"
	"chartview/internal/render"
)

func main() {
	var (
		symbol     = flag.String("symbol", "AAPL", "symbol to chart, e.g. AAPL or NYSE:IBM")
		tfName     = flag.String("tf", "1d", "timeframe (1m 5m 15m 30m 1h 4h 1d 1w)")
		width      = flag.Int("w", 1280, "image width in pixels")
		height     = flag.Int("h", 720, "image height in pixels")
		out        = flag.String("out", "chart.png", "output PNG path")
		indicators = flag.String("indicators", "", "comma separated indicators (sma,ema,bb,rsi,macd,stoch,atr,vol)")
		area       = flag.Bool("area", false, "render an area chart instead of candles")
	)
	flag.Parse()

	cfg := config.Load()
	log := logger.Init("snapshot", cfg.SlogLevel())

	tf := model.Timeframe(*tfName)
	known := false
	for _, t := range model.Timeframes {
		if t == tf {
			known = true
			break
		}
	}
	if !known {
		log.Error("unknown timeframe", "tf", *tfName)
		os.Exit(1)
	}

	client := dataservice.NewClient(dataservice.Config{
		BaseURL: cfg.APIBaseURL,
		APIKey:  cfg.APIKey,
	}, nil)
	candles, source := client.FetchHistory(context.Background(), *symbol, tf)
	log.Info("history loaded", "symbol", *symbol, "candles", len(candles), "source", string(source))

	s := chart.NewState(*symbol, tf, candles)
	s.Demo = source == dataservice.SourceSynthetic
	s.Width = float64(*width)
	s.Height = float64(*height)
	if *area {
		s.Type = chart.ChartArea
	}
	for _, name := range strings.Split(*indicators, ",") {
		if t, ok := indicatorByFlag[strings.ToLower(strings.TrimSpace(name))]; ok {
			c := indicator.Defaults(t)
			c.ID = chart.NewID()
			s.Indicators = append(s.Indicators, c)
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, *width, *height))
	c, err := render.NewContext(img, 1)
	if err != nil {
		log.Error("render context", "error", err)
		os.Exit(1)
	}
	render.NewBase().Draw(c, s)
	render.DrawOverlay(c, s, chart.ToolCrosshair)

	f, err := os.Create(*out)
	if err != nil {
		log.Error("create output", "error", err)
		os.Exit(1)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		log.Error("encode png", "error", err)
		os.Exit(1)
	}
	log.Info("snapshot written", "path", *out)
}

var indicatorByFlag = map[string]indicator.Type{
	"sma":   indicator.TypeSMA,
	"ema":   indicator.TypeEMA,
	"bb":    indicator.TypeBollinger,
	"rsi":   indicator.TypeRSI,
	"macd":  indicator.TypeMACD,
	"stoch": indicator.TypeStochastic,
	"atr":   indicator.TypeATR,
	"vol":   indicator.TypeVolume,
}
