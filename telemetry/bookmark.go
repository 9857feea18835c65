package telemetry

import (
	"fmt"
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkStockCollapse    BookmarkType = "stock_collapse"
	BookmarkStockRecovery    BookmarkType = "stock_recovery"
	BookmarkRangeContraction BookmarkType = "range_contraction"
	BookmarkExtinction       BookmarkType = "extinction"
	BookmarkStableStock      BookmarkType = "stable_stock"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type"`
	Year        int          `csv:"year"`
	Species     string       `csv:"species"`
	Description string       `csv:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"year", b.Year,
		"species", b.Species,
		"description", b.Description,
	)
}

// stockHistory is the rolling state kept for one species.
type stockHistory struct {
	history     []SpeciesStats
	historyIdx  int
	historyFull bool

	recentPeak      float64 // peak biomass since the last collapse
	recentMin       float64 // minimum biomass since the last recovery
	peakCells       int
	stableYears     int
	extinctReported bool
}

// BookmarkDetector detects notable moments in the history of each stock.
type BookmarkDetector struct {
	historySize int
	stocks      map[string]*stockHistory
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < 5 {
		historySize = 5 // minimum for stable stock detection
	}
	return &BookmarkDetector{
		historySize: historySize,
		stocks:      make(map[string]*stockHistory),
	}
}

func (bd *BookmarkDetector) stock(name string) *stockHistory {
	h, ok := bd.stocks[name]
	if !ok {
		h = &stockHistory{history: make([]SpeciesStats, bd.historySize)}
		bd.stocks[name] = h
	}
	return h
}

// Check analyzes the latest stats of one species and returns any triggered
// bookmarks.
func (bd *BookmarkDetector) Check(stats SpeciesStats) []Bookmark {
	h := bd.stock(stats.Species)
	var bookmarks []Bookmark

	if h.historyFull || h.historyIdx > 0 {
		for _, check := range []func(*stockHistory, SpeciesStats) *Bookmark{
			checkExtinction,
			checkCollapse,
			checkRecovery,
			checkRangeContraction,
			checkStable,
		} {
			if b := check(h, stats); b != nil {
				bookmarks = append(bookmarks, *b)
			}
		}
	}

	h.history[h.historyIdx] = stats
	h.historyIdx = (h.historyIdx + 1) % len(h.history)
	if h.historyIdx == 0 {
		h.historyFull = true
	}

	if stats.TotalBiomass > h.recentPeak {
		h.recentPeak = stats.TotalBiomass
	}
	if stats.TotalBiomass < h.recentMin || h.recentMin == 0 {
		h.recentMin = stats.TotalBiomass
	}
	if stats.OccupiedCells > h.peakCells {
		h.peakCells = stats.OccupiedCells
	}
	return bookmarks
}

// recent returns the history oldest first.
func (h *stockHistory) recent() []SpeciesStats {
	if h.historyFull {
		return append(slices.Clone(h.history[h.historyIdx:]), h.history[:h.historyIdx]...)
	}
	return h.history[:h.historyIdx]
}

func checkExtinction(h *stockHistory, stats SpeciesStats) *Bookmark {
	if stats.TotalBiomass > 0 {
		h.extinctReported = false
		return nil
	}
	if h.extinctReported || h.recentPeak == 0 {
		return nil
	}
	h.extinctReported = true
	return &Bookmark{
		Type:        BookmarkExtinction,
		Year:        stats.Year,
		Species:     stats.Species,
		Description: fmt.Sprintf("No %s left anywhere, peak was %.1f", stats.Species, h.recentPeak),
	}
}

func checkCollapse(h *stockHistory, stats SpeciesStats) *Bookmark {
	if h.recentPeak == 0 || stats.TotalBiomass == 0 {
		return nil
	}
	drop := 1 - stats.TotalBiomass/h.recentPeak
	if drop <= 0.5 {
		return nil
	}
	oldPeak := h.recentPeak
	h.recentPeak = stats.TotalBiomass
	return &Bookmark{
		Type:        BookmarkStockCollapse,
		Year:        stats.Year,
		Species:     stats.Species,
		Description: fmt.Sprintf("Biomass fell %.0f%% from peak %.1f to %.1f", drop*100, oldPeak, stats.TotalBiomass),
	}
}

func checkRecovery(h *stockHistory, stats SpeciesStats) *Bookmark {
	if h.recentMin <= 0 || stats.TotalBiomass < 3*h.recentMin {
		return nil
	}
	oldMin := h.recentMin
	h.recentMin = stats.TotalBiomass
	return &Bookmark{
		Type:        BookmarkStockRecovery,
		Year:        stats.Year,
		Species:     stats.Species,
		Description: fmt.Sprintf("Biomass recovered from %.1f to %.1f", oldMin, stats.TotalBiomass),
	}
}

func checkRangeContraction(h *stockHistory, stats SpeciesStats) *Bookmark {
	if h.peakCells < 10 || stats.OccupiedCells == 0 {
		return nil
	}
	drop := 1 - float64(stats.OccupiedCells)/float64(h.peakCells)
	if drop <= 0.3 {
		return nil
	}
	oldPeak := h.peakCells
	h.peakCells = stats.OccupiedCells
	return &Bookmark{
		Type:        BookmarkRangeContraction,
		Year:        stats.Year,
		Species:     stats.Species,
		Description: fmt.Sprintf("Occupied cells shrank from %d to %d", oldPeak, stats.OccupiedCells),
	}
}

func checkStable(h *stockHistory, stats SpeciesStats) *Bookmark {
	if stats.TotalBiomass <= 0 {
		h.stableYears = 0
		return nil
	}
	recent := h.recent()
	if len(recent) < 4 {
		return nil
	}
	values := make([]float64, 0, 5)
	for _, s := range recent[len(recent)-4:] {
		values = append(values, s.TotalBiomass)
	}
	values = append(values, stats.TotalBiomass)
	mean, std := stat.PopMeanStdDev(values, nil)
	if mean > 0 && std/mean < 0.2 {
		h.stableYears++
	} else {
		h.stableYears = 0
	}
	if h.stableYears == 5 { // trigger exactly once
		return &Bookmark{
			Type:        BookmarkStableStock,
			Year:        stats.Year,
			Species:     stats.Species,
			Description: fmt.Sprintf("Biomass stable around %.1f for 5 years", mean),
		}
	}
	return nil
}
