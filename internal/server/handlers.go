package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gradeworks/omr-engine/internal/classifier"
	"github.com/gradeworks/omr-engine/internal/imaging"
	"github.com/gradeworks/omr-engine/internal/omr"
)

// defaultQuestions is applied when a request omits numberOfQuestions.
const defaultQuestions = 45

// ProcessRequest is the POST /process-omr request body.
type ProcessRequest struct {
	// ImageURL points at the sheet image to fetch and decode. Required.
	ImageURL string `json:"imageUrl"`

	// NumberOfQuestions is the expected question count. Defaults to 45.
	NumberOfQuestions int `json:"numberOfQuestions"`

	// Strategy selects the recognition path: "shape" (default), "grid",
	// or "classifier".
	Strategy string `json:"strategy"`

	// Debug additionally returns the located regions rendered onto the
	// sheet as a base64 PNG overlay.
	Debug bool `json:"debug"`
}

// ProcessResponse is the POST /process-omr response body: the sheet result
// plus the optional debug overlay.
type ProcessResponse struct {
	*omr.SheetResult
	Overlay *imaging.OverlayResult `json:"overlay,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "omr-engine",
		"version": s.cfg.Version,
	})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ImageURL == "" {
		respondError(w, http.StatusBadRequest, "imageUrl is required")
		return
	}

	questions := req.NumberOfQuestions
	if questions == 0 {
		questions = defaultQuestions
	}
	if questions < 0 {
		respondError(w, http.StatusBadRequest, "numberOfQuestions must be positive")
		return
	}

	cfg := s.tuning
	useClassifier := false
	switch req.Strategy {
	case "", "shape":
		cfg.Strategy = omr.StrategyShape
	case "grid":
		cfg.Strategy = omr.StrategyGrid
	case "classifier":
		if s.classifier == nil {
			respondError(w, http.StatusBadRequest, "classifier strategy is not configured")
			return
		}
		// Rows come from grid localization; recognition is remote.
		cfg.Strategy = omr.StrategyGrid
		useClassifier = true
	default:
		respondError(w, http.StatusBadRequest, "unknown strategy: "+req.Strategy)
		return
	}

	data, err := s.fetchImage(r.Context(), req.ImageURL)
	if err != nil {
		log.Printf("fetch failed for %s: %v", req.ImageURL, err)
		respondError(w, http.StatusBadRequest, "failed to download image")
		return
	}

	img, err := imaging.Decode(data)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to decode image")
		return
	}

	located, err := omr.LocateRows(img, questions, cfg)
	if err != nil {
		if errors.Is(err, omr.ErrNoRegions) {
			respondError(w, http.StatusBadRequest, omr.ErrNoRegions.Error())
			return
		}
		log.Printf("localization failed: %v", err)
		respondError(w, http.StatusInternalServerError, "sheet processing failed")
		return
	}

	var result *omr.SheetResult
	if useClassifier {
		verdicts := classifier.DecodeRows(r.Context(), img, located.Rows, questions, s.classifier, classifier.PoolOptions{
			Workers: s.cfg.ClassifierWorkers,
			Timeout: s.cfg.ClassifierTimeout,
		})
		result = &omr.SheetResult{
			Answers:       verdicts,
			TotalDetected: located.TotalRegions,
			RowsDetected:  len(located.Rows),
			GridRegions:   located.GridRegions,
		}
	} else {
		result = omr.ScoreLocated(located, questions, cfg)
	}

	resp := ProcessResponse{SheetResult: result}
	if req.Debug {
		overlay, err := imaging.AnnotateRows(img, located.Rows)
		if err != nil {
			log.Printf("overlay rendering failed: %v", err)
		} else {
			resp.Overlay = overlay
		}
	}

	respondJSON(w, http.StatusOK, resp)
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorResponse{Error: msg})
}
