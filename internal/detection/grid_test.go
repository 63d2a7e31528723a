package detection

import (
	"image"
	"image/color"
	"testing"
)

// drawRectOutline paints a 1-pixel foreground rectangle border
func drawRectOutline(bin *image.Gray, r image.Rectangle) {
	for x := r.Min.X; x < r.Max.X; x++ {
		bin.SetGray(x, r.Min.Y, color.Gray{Y: 255})
		bin.SetGray(x, r.Max.Y-1, color.Gray{Y: 255})
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		bin.SetGray(r.Min.X, y, color.Gray{Y: 255})
		bin.SetGray(r.Max.X-1, y, color.Gray{Y: 255})
	}
}

func TestDetectGridBlocks_FindsBorderedBlock(t *testing.T) {
	bin := createBinary(500, 600)
	want := image.Rect(50, 100, 350, 450)
	drawRectOutline(bin, want)

	blocks := DetectGridBlocks(bin, DefaultGridParams())

	if len(blocks) != 1 {
		t.Fatalf("detected %d blocks, want 1", len(blocks))
	}
	if blocks[0].Rect != want {
		t.Errorf("block rect %v, want %v", blocks[0].Rect, want)
	}
	if blocks[0].Area != 300*350 {
		t.Errorf("block area %d, want %d", blocks[0].Area, 300*350)
	}
}

func TestDetectGridBlocks_RejectsSmallContour(t *testing.T) {
	bin := createBinary(500, 600)
	drawRectOutline(bin, image.Rect(50, 100, 120, 180))

	if blocks := DetectGridBlocks(bin, DefaultGridParams()); len(blocks) != 0 {
		t.Errorf("small contour passed the filters: %v", blocks)
	}
}

func TestDetectGridBlocks_RejectsExtremeAspect(t *testing.T) {
	bin := createBinary(2000, 600)
	// Wide and shallow: aspect 1500/310 is outside the accepted band.
	drawRectOutline(bin, image.Rect(50, 100, 1550, 410))

	if blocks := DetectGridBlocks(bin, DefaultGridParams()); len(blocks) != 0 {
		t.Errorf("extreme aspect contour passed the filters: %v", blocks)
	}
}

func TestDetectGridBlocks_SortedTopToBottom(t *testing.T) {
	bin := createBinary(600, 1400)
	lower := image.Rect(100, 800, 400, 1150)
	upper := image.Rect(100, 100, 400, 450)
	drawRectOutline(bin, lower)
	drawRectOutline(bin, upper)

	blocks := DetectGridBlocks(bin, DefaultGridParams())

	if len(blocks) != 2 {
		t.Fatalf("detected %d blocks, want 2", len(blocks))
	}
	if blocks[0].Rect != upper || blocks[1].Rect != lower {
		t.Errorf("blocks not ordered top to bottom: %v", blocks)
	}
}

func TestFallbackBlock_SkipsHeader(t *testing.T) {
	b := FallbackBlock(image.Rect(0, 0, 800, 1000), DefaultGridParams())

	want := image.Rect(0, 200, 800, 900)
	if b.Rect != want {
		t.Errorf("fallback rect %v, want %v", b.Rect, want)
	}
	if b.Area != 800*700 {
		t.Errorf("fallback area %d, want %d", b.Area, 800*700)
	}
}

func TestFallbackBlock_OffsetBounds(t *testing.T) {
	// Sub-images keep their parent coordinates; the crop must follow them.
	bounds := image.Rect(100, 50, 900, 1050)
	b := FallbackBlock(bounds, DefaultGridParams())

	want := image.Rect(100, 250, 900, 950)
	if b.Rect != want {
		t.Errorf("fallback rect %v, want %v", b.Rect, want)
	}
	if !b.Rect.In(bounds) {
		t.Errorf("fallback %v escapes bounds %v", b.Rect, bounds)
	}
}

func TestLargestBlock(t *testing.T) {
	blocks := []Block{
		{Rect: image.Rect(0, 0, 10, 10), Area: 100},
		{Rect: image.Rect(0, 0, 30, 30), Area: 900},
		{Rect: image.Rect(0, 0, 20, 20), Area: 400},
	}

	best, ok := LargestBlock(blocks)
	if !ok || best.Area != 900 {
		t.Errorf("LargestBlock = %v, %v", best, ok)
	}

	if _, ok := LargestBlock(nil); ok {
		t.Error("LargestBlock reported success on an empty slice")
	}
}

func TestPartitionBlock_SingleColumn(t *testing.T) {
	block := Block{Rect: image.Rect(100, 200, 600, 1200)}
	rows := PartitionBlock(block, 20, 5, DefaultGridParams())

	if len(rows) != 20 {
		t.Fatalf("partitioned into %d rows, want 20", len(rows))
	}
	for i, row := range rows {
		if row.Index != i {
			t.Errorf("row %d has index %d", i, row.Index)
		}
		if len(row.Regions) != 5 {
			t.Errorf("row %d has %d cells, want 5", i, len(row.Regions))
		}
	}

	// Column width 500, label 100, cell width 80, row height 50.
	first := rows[0].Regions[0].(Cell)
	if first.Rect != image.Rect(200, 200, 280, 250) {
		t.Errorf("first cell %v, want %v", first.Rect, image.Rect(200, 200, 280, 250))
	}
	last := rows[19].Regions[4].(Cell)
	if last.Rect != image.Rect(520, 1150, 600, 1200) {
		t.Errorf("last cell %v, want %v", last.Rect, image.Rect(520, 1150, 600, 1200))
	}
}

func TestPartitionBlock_WrapsIntoSecondColumn(t *testing.T) {
	block := Block{Rect: image.Rect(0, 0, 1000, 1000)}
	rows := PartitionBlock(block, 40, 5, DefaultGridParams())

	if len(rows) != 40 {
		t.Fatalf("partitioned into %d rows, want 40", len(rows))
	}

	// Question 21 starts the second column at the top of the block.
	q21 := rows[20].Regions[0].(Cell)
	if q21.Rect.Min.X < 500 {
		t.Errorf("question 21 starts at x=%d, want second column", q21.Rect.Min.X)
	}
	if q21.Rect.Min.Y != 0 {
		t.Errorf("question 21 starts at y=%d, want top of block", q21.Rect.Min.Y)
	}

	// Question 20 ends the first column.
	q20 := rows[19].Regions[0].(Cell)
	if q20.Rect.Min.X >= 500 {
		t.Errorf("question 20 starts at x=%d, want first column", q20.Rect.Min.X)
	}
}

func TestPartitionBlock_CellsStayInsideBlock(t *testing.T) {
	block := Block{Rect: image.Rect(30, 40, 730, 970)}
	rows := PartitionBlock(block, 45, 5, DefaultGridParams())

	if len(rows) != 45 {
		t.Fatalf("partitioned into %d rows, want 45", len(rows))
	}
	for _, row := range rows {
		for _, region := range row.Regions {
			if !region.Bounds().In(block.Rect) {
				t.Fatalf("cell %v escapes block %v", region.Bounds(), block.Rect)
			}
		}
	}
}

func TestPartitionBlock_Degenerate(t *testing.T) {
	if rows := PartitionBlock(Block{Rect: image.Rect(0, 0, 100, 100)}, 0, 5, DefaultGridParams()); rows != nil {
		t.Errorf("zero questions returned %v", rows)
	}
	if rows := PartitionBlock(Block{}, 10, 5, DefaultGridParams()); rows != nil {
		t.Errorf("empty block returned %v", rows)
	}
}
