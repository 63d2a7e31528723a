package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gradeworks/omr-engine/internal/detection"
)

// testRows builds n organized rows of five cells each on a shared sheet.
func testRows(n int) (image.Image, []detection.Row) {
	img := image.NewGray(image.Rect(0, 0, 400, 40+n*50))
	rows := make([]detection.Row, n)
	for i := range rows {
		rows[i].Index = i
		y := 20 + i*50
		for pos := 0; pos < 5; pos++ {
			rows[i].Regions = append(rows[i].Regions, detection.Cell{
				Rect: image.Rect(20+pos*70, y, 70+pos*70, y+30),
			})
		}
	}
	return img, rows
}

// echoClassifier answers every row with its own question number as the
// selected option, so tests can verify slot assignment.
func echoClassifier(t *testing.T) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		json.NewEncoder(w).Encode(Classification{
			SelectedOption: fmt.Sprintf("%d", req.QuestionNumber),
			Confidence:     0.9,
		})
	}))
}

func TestDecodeRows_VerdictsKeyedByQuestion(t *testing.T) {
	server := echoClassifier(t)
	defer server.Close()
	client, _ := NewClient(server.URL, nil)

	img, rows := testRows(6)
	verdicts := DecodeRows(context.Background(), img, rows, 6, client, PoolOptions{})

	if len(verdicts) != 6 {
		t.Fatalf("got %d verdicts, want 6", len(verdicts))
	}
	for i, v := range verdicts {
		if v.QuestionNumber != i+1 {
			t.Errorf("slot %d holds question %d", i, v.QuestionNumber)
		}
		if v.SelectedOption != fmt.Sprintf("%d", i+1) {
			t.Errorf("question %d classified as %q", i+1, v.SelectedOption)
		}
		if v.Notes != "Classified remotely" {
			t.Errorf("question %d notes = %q", i+1, v.Notes)
		}
	}
}

func TestDecodeRows_PadsMissingRows(t *testing.T) {
	server := echoClassifier(t)
	defer server.Close()
	client, _ := NewClient(server.URL, nil)

	img, rows := testRows(3)
	verdicts := DecodeRows(context.Background(), img, rows, 5, client, PoolOptions{})

	if len(verdicts) != 5 {
		t.Fatalf("got %d verdicts, want 5", len(verdicts))
	}
	for q := 4; q <= 5; q++ {
		if verdicts[q-1].Notes != "Row not detected" {
			t.Errorf("question %d notes = %q, want %q", q, verdicts[q-1].Notes, "Row not detected")
		}
		if verdicts[q-1].SelectedOption != "" {
			t.Errorf("question %d has option %q without a row", q, verdicts[q-1].SelectedOption)
		}
	}
}

func TestDecodeRows_FailureIsolation(t *testing.T) {
	// Question 2 fails server-side; every other row must still classify.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		json.NewDecoder(r.Body).Decode(&req)
		if req.QuestionNumber == 2 {
			http.Error(w, "bad row", http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(Classification{SelectedOption: "1", Confidence: 0.8})
	}))
	defer server.Close()
	client, _ := NewClient(server.URL, nil)

	img, rows := testRows(4)
	verdicts := DecodeRows(context.Background(), img, rows, 4, client, PoolOptions{})

	if !strings.HasPrefix(verdicts[1].Notes, "Classification failed") {
		t.Errorf("failed row notes = %q", verdicts[1].Notes)
	}
	if verdicts[1].SelectedOption != "" || verdicts[1].Confidence != 0 {
		t.Errorf("failed row carries a result: %+v", verdicts[1])
	}
	for _, q := range []int{1, 3, 4} {
		if verdicts[q-1].SelectedOption != "1" {
			t.Errorf("question %d classified as %q, want %q", q, verdicts[q-1].SelectedOption, "1")
		}
	}
}

func TestDecodeRows_TimeoutDegrades(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	client, _ := NewClient(server.URL, nil)

	img, rows := testRows(2)
	verdicts := DecodeRows(context.Background(), img, rows, 2, client, PoolOptions{
		Timeout: 50 * time.Millisecond,
	})

	for _, v := range verdicts {
		if !strings.HasPrefix(v.Notes, "Classification failed") {
			t.Errorf("question %d notes = %q, want a classification failure", v.QuestionNumber, v.Notes)
		}
	}
}

func TestDecodeRows_BoundsConcurrency(t *testing.T) {
	const workers = 3

	var inFlight, peak atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)

		json.NewEncoder(w).Encode(Classification{SelectedOption: "1", Confidence: 0.9})
	}))
	defer server.Close()
	client, _ := NewClient(server.URL, nil)

	img, rows := testRows(12)
	DecodeRows(context.Background(), img, rows, 12, client, PoolOptions{Workers: workers})

	if got := peak.Load(); got > workers {
		t.Errorf("peak concurrency %d exceeds the %d-worker limit", got, workers)
	}
}

func TestEncodeRowCrop_OffImageRow(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	row := detection.Row{Regions: []detection.Region{
		detection.Cell{Rect: image.Rect(500, 500, 560, 530)},
	}}

	if _, err := encodeRowCrop(img, row, PoolOptions{}.withDefaults()); err == nil {
		t.Error("off-image row did not fail")
	}
}

func TestEncodeRowCrop_DownscalesWideRows(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2000, 100))
	row := detection.Row{Regions: []detection.Region{
		detection.Cell{Rect: image.Rect(10, 20, 1900, 80)},
	}}

	encoded, err := encodeRowCrop(img, row, PoolOptions{MaxRowWidth: 400}.withDefaults())
	if err != nil {
		t.Fatalf("encodeRowCrop failed: %v", err)
	}
	if encoded == "" {
		t.Fatal("encodeRowCrop returned an empty payload")
	}
}
