package main

import (
	"context"
	"database/sql"
	"log/slog"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"chartview/config"
	"chartview/internal/chart"
	"chartview/internal/dataservice"
	"chartview/internal/indicator"
	"chartview/internal/logger"
	"chartview/internal/metrics"
	"chartview/internal/model"
	"chartview/internal/ringbuf"
	redisstore "chartview/internal/store/redis"
	sqlitestore "chartview/internal/store/sqlite"
	"chartview/internal/ui"
)

func main() {
	// ---- Config and logging ----
	cfg := config.Load()
	log := logger.Init("chartview", cfg.SlogLevel())
	log.Info("starting")

	// ---- Metrics and health ----
	m := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv, _ := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()
	defer metricsSrv.Stop(context.Background())

	// ---- Optional infrastructure: the chart works without either ----
	var cache dataservice.Cache
	rcache, err := redisstore.NewCache(redisstore.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		log.Warn("redis unavailable, history caching disabled", "error", err)
	} else {
		cache = rcache
		defer rcache.Close()
	}

	store, err := sqlitestore.New(cfg.SQLitePath)
	if err != nil {
		log.Warn("sqlite unavailable, favorites and layouts disabled", "error", err)
	} else {
		defer store.Close()
	}

	var redisClient *goredis.Client
	if rcache != nil {
		redisClient = rcache.Client()
	}
	var storeDB *sql.DB
	if store != nil {
		storeDB = store.DB()
	}
	if redisClient != nil || storeDB != nil {
		health.StartLivenessChecker(context.Background(), redisClient, storeDB, 30*time.Second)
	}

	// ---- Data service ----
	client := dataservice.NewClient(dataservice.Config{
		BaseURL: cfg.APIBaseURL,
		APIKey:  cfg.APIKey,
	}, cache)

	// ---- UI ----
	a := app.New()
	win := a.NewWindow("chartview")

	state := chart.NewState(cfg.DefaultSymbol, model.Timeframe(cfg.DefaultTimeframe), nil)
	cw := ui.NewChartWidget(state)
	cw.SetMetrics(m)

	cw.OnTextEntry = func(x, y float64) {
		entry := widget.NewEntry()
		items := []*widget.FormItem{widget.NewFormItem("Text", entry)}
		dialog.ShowForm("Add note", "Place", "Cancel", items, func(ok bool) {
			if !ok {
				cw.Machine.CommitText(x, y, "")
				return
			}
			cw.Machine.CommitText(x, y, entry.Text)
		}, win)
	}
	cw.OnMenu = func(ref chart.Ref) {
		showDrawingMenu(win, cw)
	}

	// ---- Live feed ----
	// Updates flow through a ring so socket read pace and repaint pace
	// stay independent; the drain loop coalesces bursts into one frame.
	ring := ringbuf.New(1024)
	stream := dataservice.NewStream(client)
	stream.OnCandle = func(symbol string, tf model.Timeframe, c model.Candle) {
		m.CandlesReceived.Inc()
		health.SetStreamConnected(true)
		health.SetLastCandleTime(time.Now())
		ring.Push(ringbuf.Update{Symbol: symbol, Timeframe: tf, Candle: c})
	}
	stream.OnReconnect = m.StreamReconnect.Inc
	live := cfg.APIKey != ""
	if live {
		health.WatchStream()
	}

	controls := &ui.Controls{}
	loadSymbol := func(symbol string, tf model.Timeframe) {
		if live {
			stream.Subscribe(symbol, tf)
		}
		go func() {
			start := time.Now()
			candles, source := client.FetchHistory(context.Background(), symbol, tf)
			m.FetchDur.Observe(time.Since(start).Seconds())
			m.HistoryFetches.WithLabelValues(string(source)).Inc()

			fyne.Do(func() {
				cw.SetData(symbol, tf, candles, source == dataservice.SourceSynthetic)
				if store != nil {
					restoreLayout(store, cw, symbol, tf)
				}
			})
		}()
	}

	controls.OnSymbol = func(symbol string) {
		loadSymbol(symbol, cw.Machine.State.Timeframe)
	}
	controls.OnTimeframe = func(tf model.Timeframe) {
		loadSymbol(cw.Machine.State.Symbol, tf)
	}
	controls.OnChartType = cw.Machine.SetChartType
	controls.OnTool = cw.Machine.SetTool
	controls.OnAddIndicator = func(t indicator.Type) {
		cfgs := cw.Machine.State.Indicators
		c := indicator.Defaults(t)
		c.ID = chart.NewID()
		cw.SetIndicators(append(cfgs, c))
	}
	controls.OnClearIndicator = func() {
		cw.SetIndicators(nil)
	}
	refreshFavorites := func() {
		if store == nil {
			return
		}
		favs, err := store.Favorites()
		if err != nil {
			log.Warn("list favorites failed", "error", err)
			return
		}
		controls.SetFavorites(favs)
	}
	controls.OnFavorite = func() {
		if store == nil {
			return
		}
		code := dataservice.QualifySymbol(cw.Machine.State.Symbol)
		if err := store.AddFavorite(model.SymbolInfo{Code: code}); err != nil {
			log.Warn("add favorite failed", "error", err)
			return
		}
		refreshFavorites()
	}
	controls.OnPickFavorite = func(code string) {
		controls.SetSymbol(code)
		loadSymbol(code, cw.Machine.State.Timeframe)
	}
	controls.OnSearch = func(query string) {
		go func() {
			results := client.SearchSymbols(context.Background(), query)
			if len(results) == 0 {
				return
			}
			labels := make([]string, len(results))
			for i, r := range results {
				labels[i] = r.Code + " " + r.Name
			}
			fyne.Do(func() {
				list := widget.NewList(
					func() int { return len(labels) },
					func() fyne.CanvasObject { return widget.NewLabel("") },
					func(i widget.ListItemID, o fyne.CanvasObject) {
						o.(*widget.Label).SetText(labels[i])
					},
				)
				var d dialog.Dialog
				list.OnSelected = func(i widget.ListItemID) {
					code := results[i].Code
					controls.SetSymbol(code)
					loadSymbol(code, cw.Machine.State.Timeframe)
					d.Hide()
				}
				d = dialog.NewCustom("Symbol search", "Close", container.NewStack(list), win)
				d.Resize(fyne.NewSize(420, 360))
				d.Show()
			})
		}()
	}
	controls.OnSaveLayout = func() {
		if store == nil {
			return
		}
		saveLayout(store, cw)
	}

	top := controls.Build(cfg.DefaultSymbol, model.Timeframe(cfg.DefaultTimeframe))
	refreshFavorites()
	win.SetContent(container.NewBorder(top, nil, nil, nil, cw))
	win.Resize(fyne.NewSize(1280, 800))

	if live {
		go stream.Run()
		defer stream.Close()
		go func() {
			ticker := time.NewTicker(50 * time.Millisecond)
			defer ticker.Stop()
			for range ticker.C {
				updates := ring.Drain()
				if len(updates) == 0 {
					continue
				}
				fyne.Do(func() {
					s := cw.Machine.State
					for _, u := range updates {
						if u.Symbol == dataservice.QualifySymbol(s.Symbol) && u.Timeframe == s.Timeframe {
							cw.ApplyRealtime(u.Candle)
						}
					}
				})
			}
		}()
	} else {
		log.Info("no API key configured, live feed disabled")
	}

	// ---- Initial load ----
	loadSymbol(cfg.DefaultSymbol, model.Timeframe(cfg.DefaultTimeframe))

	win.ShowAndRun()
}

func saveLayout(store *sqlitestore.Store, cw *ui.ChartWidget) {
	s := cw.Machine.State
	data, err := ui.EncodeLayout(s)
	if err != nil {
		slog.Warn("encode layout failed", "error", err)
		return
	}
	if err := store.SaveLayout(s.Symbol, s.Timeframe, data); err != nil {
		slog.Warn("save layout failed", "error", err)
	}
}

func restoreLayout(store *sqlitestore.Store, cw *ui.ChartWidget, symbol string, tf model.Timeframe) {
	data, err := store.LoadLayout(symbol, tf)
	if err != nil || data == nil {
		return
	}
	if err := ui.DecodeLayout(cw.Machine.State, data); err != nil {
		slog.Warn("restore layout failed", "symbol", symbol, "error", err)
		return
	}
	cw.Refresh()
}

var drawingColors = []string{"#3b82f6", "#10b981", "#8b5cf6", "#fcd34d", "#ec4899", "#ffffff"}

// showDrawingMenu offers the edit actions for the selected drawing.
func showDrawingMenu(win fyne.Window, cw *ui.ChartWidget) {
	var d dialog.Dialog

	colors := container.NewHBox()
	for _, hex := range drawingColors {
		hex := hex
		colors.Add(widget.NewButton(hex, func() {
			cw.Machine.SetSelectedStyle(hex, 0)
		}))
	}
	width := widget.NewSelect([]string{"1", "2", "3", "4"}, func(v string) {
		if w, err := strconv.ParseFloat(v, 64); err == nil {
			cw.Machine.SetSelectedStyle("", w)
		}
	})
	width.PlaceHolder = "Width"

	body := container.NewVBox(
		colors,
		width,
		widget.NewButton("Duplicate", func() {
			cw.Machine.DuplicateSelected()
			d.Hide()
		}),
		widget.NewButton("Lock / Unlock", func() {
			cw.Machine.ToggleLockSelected()
			d.Hide()
		}),
		widget.NewButton("Delete", func() {
			cw.Machine.DeleteSelected()
			d.Hide()
		}),
	)
	d = dialog.NewCustom("Drawing", "Close", body, win)
	d.Show()
}
