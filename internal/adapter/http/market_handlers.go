package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/simaogato/assetmanager-backend/internal/domain"
)

type priceRequest struct {
	Symbol         string              `json:"symbol"`
	Exchange       string              `json:"exchange"`
	Price          decimal.Decimal     `json:"price"`
	Volume         decimal.NullDecimal `json:"volume"`
	MarketCap      decimal.NullDecimal `json:"market_cap"`
	High           decimal.NullDecimal `json:"high"`
	Low            decimal.NullDecimal `json:"low"`
	Open           decimal.NullDecimal `json:"open"`
	Close          decimal.NullDecimal `json:"close"`
	ChangeRate     decimal.NullDecimal `json:"change_rate"`
	DataSource     string              `json:"data_source"`
	PriceTimestamp time.Time           `json:"price_timestamp"`
}

func (p priceRequest) toDomain() *domain.PriceHistory {
	return &domain.PriceHistory{
		Symbol:         p.Symbol,
		Exchange:       p.Exchange,
		Price:          p.Price,
		Volume:         p.Volume,
		MarketCap:      p.MarketCap,
		High:           p.High,
		Low:            p.Low,
		Open:           p.Open,
		Close:          p.Close,
		ChangeRate:     p.ChangeRate,
		DataSource:     p.DataSource,
		PriceTimestamp: p.PriceTimestamp,
	}
}

type purgeRequest struct {
	Days int `json:"days"`
}

func (s *Server) handleRecordPrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	price := req.toDomain()
	if err := s.prices.Record(r.Context(), price); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPriceResponse(price))
}

func (s *Server) handleRecordPriceBatch(w http.ResponseWriter, r *http.Request) {
	var req []priceRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	batch := make([]*domain.PriceHistory, 0, len(req))
	for _, p := range req {
		batch = append(batch, p.toDomain())
	}
	if err := s.prices.RecordBatch(r.Context(), batch); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"recorded": len(batch)})
}

func (s *Server) handleLatestPrice(w http.ResponseWriter, r *http.Request) {
	price, err := s.prices.Latest(r.Context(), chi.URLParam(r, "symbol"), r.URL.Query().Get("exchange"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPriceResponse(price))
}

// handlePriceHistory serves a time range when from/to are given, else the most recent observations
func (s *Server) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	from, to, err := queryPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var history []*domain.PriceHistory
	if from.IsZero() && to.IsZero() {
		limit, err := queryInt(r, "limit", 0)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		history, err = s.prices.Recent(r.Context(), symbol, limit)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	} else {
		history, err = s.prices.Range(r.Context(), symbol, from, to)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
	}

	response := make([]priceResponse, 0, len(history))
	for _, p := range history {
		response = append(response, toPriceResponse(p))
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handlePriceStats(w http.ResponseWriter, r *http.Request) {
	from, to, err := queryPeriod(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := s.prices.Stats(r.Context(), chi.URLParam(r, "symbol"), from, to)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, priceStatsResponse{
		Symbol:      stats.Symbol,
		Samples:     stats.Samples,
		Max:         stats.Max,
		Min:         stats.Min,
		Average:     stats.Average,
		TotalVolume: stats.TotalVolume,
	})
}

func (s *Server) handlePurgePrices(w http.ResponseWriter, r *http.Request) {
	var req purgeRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := s.prices.PurgeOlderThan(r.Context(), req.Days)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}
