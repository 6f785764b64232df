package http

import (
	"net/http"
	"strings"

	"capify/internal/core"
	applog "capify/internal/log"
)

type (
	summaryDTO struct {
		Total   float64 `json:"total"`
		Count   int     `json:"count"`
		Average float64 `json:"average"`
	}

	categoryTotalDTO struct {
		Category   string  `json:"category"`
		Amount     float64 `json:"amount"`
		Percentage float64 `json:"percentage"`
	}

	dailyPointDTO struct {
		Day    string  `json:"day"`
		Amount float64 `json:"amount"`
	}

	monthlyPointDTO struct {
		Year   int     `json:"year"`
		Month  int     `json:"month"`
		Amount float64 `json:"amount"`
	}

	analyticsResponse struct {
		NoData     bool               `json:"no_data,omitempty"`
		Summary    *summaryDTO        `json:"summary,omitempty"`
		ByCategory []categoryTotalDTO `json:"by_category,omitempty"`
		Daily      []dailyPointDTO    `json:"daily,omitempty"`
		Monthly    []monthlyPointDTO  `json:"monthly,omitempty"`
		Stale      bool               `json:"stale"`
	}
)

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r)

	logger := applog.FromContext(r.Context())

	key := cacheKey(f)
	if cached, ok := s.analyticsCache.Get(key); ok {
		logger.Debug("Serving cached analytics",
			applog.FieldCategory, f.Category,
			applog.FieldRange, string(f.Range),
			applog.FieldCacheHit, true)
		writeJSON(w, http.StatusOK, cached)
		return
	}

	snap := s.controller.Analytics(f)
	resp := snapshotResponse(snap, s.controller.Stale())
	s.analyticsCache.Set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

func filterFromQuery(r *http.Request) core.FilterState {
	q := r.URL.Query()
	f := core.DefaultFilter()
	if category := q.Get("category"); category != "" {
		f.Category = category
	}
	if rng := q.Get("range"); rng != "" {
		f.Range = core.Range(rng)
	}
	f.CustomStart = q.Get("start")
	f.CustomEnd = q.Get("end")
	return f
}

func cacheKey(f core.FilterState) string {
	return strings.Join([]string{f.Category, string(f.Range), f.CustomStart, f.CustomEnd}, "|")
}

func snapshotResponse(snap *core.Snapshot, stale bool) analyticsResponse {
	if snap == nil {
		return analyticsResponse{NoData: true, Stale: stale}
	}

	resp := analyticsResponse{
		Summary: &summaryDTO{
			Total:   snap.Summary.Total.Float(),
			Count:   snap.Summary.Count,
			Average: snap.Summary.Average.Float(),
		},
		ByCategory: make([]categoryTotalDTO, 0, len(snap.ByCategory)),
		Daily:      make([]dailyPointDTO, 0, len(snap.Daily)),
		Monthly:    make([]monthlyPointDTO, 0, len(snap.Monthly)),
		Stale:      stale,
	}
	for _, c := range snap.ByCategory {
		resp.ByCategory = append(resp.ByCategory, categoryTotalDTO{
			Category:   c.Category,
			Amount:     c.Amount.Float(),
			Percentage: c.Percentage,
		})
	}
	for _, d := range snap.Daily {
		resp.Daily = append(resp.Daily, dailyPointDTO{
			Day:    d.Day.Format("2006-01-02"),
			Amount: d.Amount.Float(),
		})
	}
	for _, m := range snap.Monthly {
		resp.Monthly = append(resp.Monthly, monthlyPointDTO{
			Year:   m.Year,
			Month:  int(m.Month),
			Amount: m.Amount.Float(),
		})
	}
	return resp
}
