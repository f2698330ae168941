package model

// SymbolInfo describes one instrument as returned by symbol search.
type SymbolInfo struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Type     string `json:"type"`
}

// Key returns the fully qualified symbol code, e.g. "NASDAQ:AAPL".
func (s *SymbolInfo) Key() string {
	return s.Code
}
