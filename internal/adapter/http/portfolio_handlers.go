package http

import (
	"net/http"

	"github.com/simaogato/assetmanager-backend/internal/domain"
)

type batchResponse struct {
	Users     int `json:"users"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

func (s *Server) handleTakeSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.portfolio.TakeSnapshot(r.Context(), userID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(snapshot))
}

// handleListSnapshots serves a date range when from/to are given, else a newest-first page
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var snapshots []*domain.PortfolioSnapshot
	if from.IsZero() && to.IsZero() {
		limit, err := queryInt(r, "limit", 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		offset, err := queryInt(r, "offset", 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		snapshots, err = s.portfolio.History(r.Context(), userID(r), limit, offset)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	} else {
		snapshots, err = s.portfolio.Range(r.Context(), userID(r), from, to)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}

	response := make([]snapshotResponse, 0, len(snapshots))
	for _, snap := range snapshots {
		response = append(response, toSnapshotResponse(snap))
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.portfolio.Latest(r.Context(), userID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(snapshot))
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	a, err := s.portfolio.Analytics(r.Context(), userID(r), from, to)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyticsResponse{
		From:              a.From.Format(domain.DateLayout),
		To:                a.To.Format(domain.DateLayout),
		SnapshotCount:     a.SnapshotCount,
		MaxProfitRate:     a.MaxProfitRate,
		MinProfitRate:     a.MinProfitRate,
		AvgProfitRate:     a.AvgProfitRate,
		MaxPortfolioValue: a.MaxPortfolioValue,
		ProfitDays:        a.ProfitDays,
		LossDays:          a.LossDays,
		Volatility:        a.Volatility,
		AvgCryptoWeight:   a.AvgCryptoWeight,
		AvgStockWeight:    a.AvgStockWeight,
		TotalGrowthRate:   a.TotalGrowthRate,
	})
}

func (s *Server) handleRunAllSnapshots(w http.ResponseWriter, r *http.Request) {
	res, err := s.portfolio.TakeAllSnapshots(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batchResponse{
		Users:     res.Users,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
	})
}
