package telemetry

import "testing"

func feed(bd *BookmarkDetector, species string, totals ...float64) []Bookmark {
	var all []Bookmark
	for year, total := range totals {
		all = append(all, bd.Check(SpeciesStats{Year: year, Species: species, TotalBiomass: total, OccupiedCells: 20})...)
	}
	return all
}

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) int {
	n := 0
	for _, b := range bookmarks {
		if b.Type == typ {
			n++
		}
	}
	return n
}

func TestBookmarkDetector_StockCollapse(t *testing.T) {
	bd := NewBookmarkDetector(10)
	feed(bd, "cod", 1000, 1000, 1000, 1000, 1000)

	bookmarks := bd.Check(SpeciesStats{Year: 5, Species: "cod", TotalBiomass: 400, OccupiedCells: 20})
	if hasBookmark(bookmarks, BookmarkStockCollapse) != 1 {
		t.Errorf("expected stock_collapse bookmark, got %v", bookmarks)
	}

	// the peak resets, so a further small drop is quiet
	bookmarks = bd.Check(SpeciesStats{Year: 6, Species: "cod", TotalBiomass: 350, OccupiedCells: 20})
	if hasBookmark(bookmarks, BookmarkStockCollapse) != 0 {
		t.Errorf("unexpected second collapse: %v", bookmarks)
	}
}

func TestBookmarkDetector_StockRecovery(t *testing.T) {
	bd := NewBookmarkDetector(10)
	all := feed(bd, "hake", 100, 50, 40, 90, 130)
	if hasBookmark(all, BookmarkStockRecovery) != 1 {
		t.Errorf("expected one stock_recovery bookmark, got %v", all)
	}
}

func TestBookmarkDetector_ExtinctionOnce(t *testing.T) {
	bd := NewBookmarkDetector(10)
	all := feed(bd, "ling", 10, 5, 0, 0, 0)
	if n := hasBookmark(all, BookmarkExtinction); n != 1 {
		t.Errorf("extinction reported %d times, want 1", n)
	}
}

func TestBookmarkDetector_StableStock(t *testing.T) {
	bd := NewBookmarkDetector(10)
	totals := make([]float64, 12)
	for i := range totals {
		totals[i] = 500 + float64(i%2)*10
	}
	all := feed(bd, "sole", totals...)
	if n := hasBookmark(all, BookmarkStableStock); n != 1 {
		t.Errorf("stable_stock reported %d times, want 1", n)
	}
}

func TestBookmarkDetector_RangeContraction(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(SpeciesStats{Species: "cod", TotalBiomass: 100, OccupiedCells: 40})
	bookmarks := bd.Check(SpeciesStats{Year: 1, Species: "cod", TotalBiomass: 100, OccupiedCells: 12})
	if hasBookmark(bookmarks, BookmarkRangeContraction) != 1 {
		t.Errorf("expected range_contraction bookmark, got %v", bookmarks)
	}
}

func TestBookmarkDetector_SpeciesAreIndependent(t *testing.T) {
	bd := NewBookmarkDetector(10)
	feed(bd, "cod", 1000, 1000)
	bookmarks := bd.Check(SpeciesStats{Year: 2, Species: "hake", TotalBiomass: 10, OccupiedCells: 20})
	if len(bookmarks) != 0 {
		t.Errorf("first hake record raised %v", bookmarks)
	}
}
