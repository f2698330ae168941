package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"chartview/internal/chart"
	"chartview/internal/indicator"
	"chartview/internal/model"
)

// Controls is the chart chrome above the plot: symbol entry,
// timeframe and chart type selectors, tool picker and indicator menu.
// All actions are forwarded through callbacks so the shell decides how
// to load data and persist state.
type Controls struct {
	OnSymbol         func(symbol string)
	OnSearch         func(query string)
	OnPickFavorite   func(code string)
	OnTimeframe      func(tf model.Timeframe)
	OnChartType      func(ct chart.ChartType)
	OnTool           func(tool chart.Tool)
	OnAddIndicator   func(t indicator.Type)
	OnClearIndicator func()
	OnFavorite       func()
	OnSaveLayout     func()

	symbol        *widget.Entry
	favorites     *widget.Select
	favoriteCodes map[string]string // label -> code
}

var toolNames = []string{"Crosshair", "Pointer", "Line", "Measure", "Fibonacci", "Text", "Draw"}

var toolByName = map[string]chart.Tool{
	"Crosshair": chart.ToolCrosshair,
	"Pointer":   chart.ToolPointer,
	"Line":      chart.ToolLine,
	"Measure":   chart.ToolMeasure,
	"Fibonacci": chart.ToolFibonacci,
	"Text":      chart.ToolText,
	"Draw":      chart.ToolDraw,
}

var indicatorNames = []string{"SMA", "EMA", "Bollinger", "RSI", "MACD", "Stochastic", "ATR", "Volume"}

var indicatorByName = map[string]indicator.Type{
	"SMA":        indicator.TypeSMA,
	"EMA":        indicator.TypeEMA,
	"Bollinger":  indicator.TypeBollinger,
	"RSI":        indicator.TypeRSI,
	"MACD":       indicator.TypeMACD,
	"Stochastic": indicator.TypeStochastic,
	"ATR":        indicator.TypeATR,
	"Volume":     indicator.TypeVolume,
}

// Build assembles the control bar.
func (c *Controls) Build(defaultSymbol string, defaultTF model.Timeframe) fyne.CanvasObject {
	c.symbol = widget.NewEntry()
	c.symbol.SetPlaceHolder("Symbol, e.g. AAPL or NASDAQ:AAPL")
	c.symbol.SetText(defaultSymbol)
	c.symbol.OnSubmitted = func(text string) {
		if text != "" && c.OnSymbol != nil {
			c.OnSymbol(text)
		}
	}

	tfNames := make([]string, len(model.Timeframes))
	for i, tf := range model.Timeframes {
		tfNames[i] = string(tf)
	}
	tfSelect := widget.NewSelect(tfNames, func(name string) {
		if c.OnTimeframe != nil {
			c.OnTimeframe(model.Timeframe(name))
		}
	})
	tfSelect.SetSelected(string(defaultTF))

	typeSelect := widget.NewSelect([]string{"Candles", "Area"}, func(name string) {
		if c.OnChartType == nil {
			return
		}
		if name == "Area" {
			c.OnChartType(chart.ChartArea)
		} else {
			c.OnChartType(chart.ChartCandlestick)
		}
	})
	typeSelect.SetSelected("Candles")

	toolSelect := widget.NewSelect(toolNames, func(name string) {
		if c.OnTool != nil {
			c.OnTool(toolByName[name])
		}
	})
	toolSelect.SetSelected("Crosshair")

	indSelect := widget.NewSelect(indicatorNames, nil)
	addIndicator := widget.NewButton("Add", func() {
		if c.OnAddIndicator == nil || indSelect.Selected == "" {
			return
		}
		c.OnAddIndicator(indicatorByName[indSelect.Selected])
	})
	clearIndicators := widget.NewButton("Clear", func() {
		if c.OnClearIndicator != nil {
			c.OnClearIndicator()
		}
	})

	search := widget.NewButton("Find", func() {
		if c.OnSearch != nil && c.symbol.Text != "" {
			c.OnSearch(c.symbol.Text)
		}
	})

	c.favorites = widget.NewSelect(nil, func(label string) {
		if code, ok := c.favoriteCodes[label]; ok && c.OnPickFavorite != nil {
			c.OnPickFavorite(code)
		}
	})
	c.favorites.PlaceHolder = "Favorites"

	favorite := widget.NewButton("★", func() {
		if c.OnFavorite != nil {
			c.OnFavorite()
		}
	})
	save := widget.NewButton("Save", func() {
		if c.OnSaveLayout != nil {
			c.OnSaveLayout()
		}
	})

	return container.NewHBox(
		c.symbol,
		search,
		c.favorites,
		tfSelect,
		typeSelect,
		toolSelect,
		indSelect,
		addIndicator,
		clearIndicators,
		favorite,
		save,
	)
}

// SetSymbol updates the entry text, used when a favorite is picked.
func (c *Controls) SetSymbol(symbol string) {
	if c.symbol != nil {
		c.symbol.SetText(symbol)
	}
}

// SetFavorites replaces the favorites dropdown contents.
func (c *Controls) SetFavorites(favs []model.SymbolInfo) {
	if c.favorites == nil {
		return
	}
	c.favoriteCodes = make(map[string]string, len(favs))
	labels := make([]string, len(favs))
	for i, f := range favs {
		label := f.Code
		if f.Name != "" {
			label = f.Code + " " + f.Name
		}
		labels[i] = label
		c.favoriteCodes[label] = f.Code
	}
	c.favorites.Options = labels
	c.favorites.ClearSelected()
	c.favorites.Refresh()
}
