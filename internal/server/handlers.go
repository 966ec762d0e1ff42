package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/novaev/expansion/internal/utils"
	"github.com/novaev/expansion/pkg/ai"
	"github.com/novaev/expansion/pkg/prompt"
	"github.com/novaev/expansion/pkg/telemetry"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		utils.Log.Errorf("[server] encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": errString(err)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"markets":    len(s.Data.Markets),
		"regions":    len(s.Data.Telemetry),
		"strategist": s.Strategist != nil,
	})
}

func (s *Server) handleMarkets(w http.ResponseWriter, r *http.Request) {
	m := s.model()
	if err := applyDiscovery(m, r.URL.Query()); err != nil {
		utils.Log.Warnf("[server] rejected markets query: %v", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Summary())
}

type RegionTelemetry struct {
	Region string          `json:"region"`
	Series []float64       `json:"series"`
	Trend  float64         `json:"trend"`
	Label  telemetry.Label `json:"label"`
	Note   string          `json:"note"`
}

type TelemetryResponse struct {
	Metric  string            `json:"metric"`
	Label   string            `json:"label"`
	Weeks   []string          `json:"weeks"`
	Regions []RegionTelemetry `json:"regions"`
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	m := s.model()
	if kpi := r.URL.Query().Get("kpi"); kpi != "" {
		metric, err := telemetry.ParseMetric(kpi)
		if err != nil {
			utils.Log.Warnf("[server] rejected telemetry query: %v", err)
			writeError(w, http.StatusBadRequest, err)
			return
		}
		m.SetMetric(metric)
	}

	feedback, err := m.Feedback()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := TelemetryResponse{
		Metric: m.Metric().Key(),
		Label:  m.Metric().Label(),
		Weeks:  telemetry.WeekLabels(),
	}
	for i, fb := range feedback {
		resp.Regions = append(resp.Regions, RegionTelemetry{
			Region: fb.Region,
			Series: m.Telemetry()[i].Metrics[m.Metric()],
			Trend:  fb.Trend,
			Label:  fb.Label,
			Note:   fb.Note,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

type strategyRequest struct {
	Country     string `json:"country"`
	ProductType string `json:"product_type"`
	PricePoint  string `json:"price_point"`
	Target      string `json:"target"`
}

type strategyResult struct {
	Country     string `json:"country"`
	Prompt      string `json:"prompt"`
	Strategy    string `json:"strategy"`
	Model       string `json:"model,omitempty"`
	ResponseID  string `json:"response_id,omitempty"`
	TotalTokens int64  `json:"total_tokens,omitempty"`
}

// upstreamError marks a failure of the text-generation service, as opposed to
// a rejected input.
type upstreamError struct {
	Err error
}

func (e *upstreamError) Error() string { return "strategy generation: " + e.Err.Error() }
func (e *upstreamError) Unwrap() error { return e.Err }

func (s *Server) generate(ctx context.Context, req strategyRequest) (strategyResult, error) {
	m := s.model()
	if err := m.SetCountry(req.Country); err != nil {
		return strategyResult{}, err
	}
	m.SetProduct(prompt.Product{Type: req.ProductType, PricePoint: req.PricePoint, Target: req.Target})
	p, err := m.Prompt()
	if err != nil {
		return strategyResult{}, err
	}

	res := strategyResult{Country: m.Country(), Prompt: p}
	if s.Strategist == nil {
		return res, &upstreamError{Err: ai.ErrMissingAPIKey}
	}

	log := utils.Log.WithField("request_id", RequestID(ctx)).WithField("country", res.Country)
	log.Debug("[server] generating strategy")

	start := time.Now()
	st, err := s.Strategist.GenerateStrategy(ctx, p)
	s.metrics.strategy(time.Since(start), err)
	if err != nil {
		log.Errorf("[server] strategy generation failed: %v", err)
		return res, &upstreamError{Err: err}
	}

	res.Strategy = st.Content
	res.Model = st.Model
	res.ResponseID = st.ResponseID
	res.TotalTokens = st.TotalTokens
	return res, nil
}

func (s *Server) handleStrategy(w http.ResponseWriter, r *http.Request) {
	var req strategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if strings.TrimSpace(req.Country) == "" {
		writeError(w, http.StatusBadRequest, errors.New("country is required"))
		return
	}

	res, err := s.generate(r.Context(), req)
	if err != nil {
		status := http.StatusBadRequest
		var up *upstreamError
		if errors.As(err, &up) {
			status = http.StatusBadGateway
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
