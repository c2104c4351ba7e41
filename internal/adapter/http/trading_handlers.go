package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/assetmanager-backend/internal/domain"
	"github.com/simaogato/assetmanager-backend/internal/usecase/trading"
)

type buyRequest struct {
	Symbol      string           `json:"symbol"`
	Name        string           `json:"name"`
	AssetType   string           `json:"asset_type"`
	Exchange    string           `json:"exchange"`
	CountryCode string           `json:"country_code"`
	Currency    string           `json:"currency"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Price       decimal.Decimal  `json:"price"`
	Fee         *decimal.Decimal `json:"fee"`
	Tax         *decimal.Decimal `json:"tax"`
	Date        *time.Time       `json:"date"`
	Notes       string           `json:"notes"`
	ExternalID  string           `json:"external_id"`
}

type sellRequest struct {
	Symbol     string           `json:"symbol"`
	Quantity   decimal.Decimal  `json:"quantity"`
	Price      decimal.Decimal  `json:"price"`
	Fee        *decimal.Decimal `json:"fee"`
	Tax        *decimal.Decimal `json:"tax"`
	Date       *time.Time       `json:"date"`
	Notes      string           `json:"notes"`
	ExternalID string           `json:"external_id"`
}

func dateOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.AssetFilter{Exchange: q.Get("exchange")}

	if raw := q.Get("type"); raw != "" {
		t, err := domain.ParseAssetType(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.AssetType = t
	}
	for name, dst := range map[string]*bool{"holding": &filter.HoldingOnly, "include_inactive": &filter.IncludeInactive} {
		if raw := q.Get(name); raw != "" {
			v, err := strconv.ParseBool(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid "+name)
				return
			}
			*dst = v
		}
	}

	assets, err := s.trading.ListAssets(r.Context(), userID(r), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	response := make([]assetResponse, 0, len(assets))
	for _, a := range assets {
		response = append(response, toAssetResponse(a))
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	asset, err := s.trading.GetAsset(r.Context(), userID(r), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssetResponse(asset))
}

func (s *Server) handleDeactivateAsset(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.trading.DeactivateAsset(r.Context(), userID(r), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	assetType, err := domain.ParseAssetType(req.AssetType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.trading.Buy(r.Context(), trading.BuyInput{
		UserID:      userID(r),
		Symbol:      req.Symbol,
		Name:        req.Name,
		AssetType:   assetType,
		Exchange:    req.Exchange,
		CountryCode: req.CountryCode,
		Currency:    req.Currency,
		Quantity:    req.Quantity,
		Price:       req.Price,
		Fee:         orZero(req.Fee),
		Tax:         orZero(req.Tax),
		Date:        dateOrZero(req.Date),
		Notes:       req.Notes,
		ExternalID:  req.ExternalID,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, tradeResponse{
		Asset:       toAssetResponse(result.Asset),
		Transaction: toTransactionResponse(result.Transaction),
	})
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.trading.Sell(r.Context(), trading.SellInput{
		UserID:     userID(r),
		Symbol:     req.Symbol,
		Quantity:   req.Quantity,
		Price:      req.Price,
		Fee:        orZero(req.Fee),
		Tax:        orZero(req.Tax),
		Date:       dateOrZero(req.Date),
		Notes:      req.Notes,
		ExternalID: req.ExternalID,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	realized := result.RealizedProfitLoss
	writeJSON(w, http.StatusCreated, tradeResponse{
		Asset:              toAssetResponse(result.Asset),
		Transaction:        toTransactionResponse(result.Transaction),
		RealizedProfitLoss: &realized,
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var filter domain.TransactionFilter

	if raw := q.Get("asset_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid asset_id")
			return
		}
		filter.AssetID = &id
	}
	if raw := q.Get("type"); raw != "" {
		t, err := domain.ParseTransactionType(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filter.Type = t
	}

	var err error
	if filter.From, filter.To, err = queryPeriod(r); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.Limit, err = queryInt(r, "limit", trading.DefaultPageSize); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.Offset, err = queryInt(r, "offset", 0); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txs, total, err := s.trading.ListTransactions(r.Context(), userID(r), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	page := transactionPage{
		Items:  make([]transactionResponse, 0, len(txs)),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	if page.Limit <= 0 || page.Limit > trading.MaxPageSize {
		page.Limit = trading.DefaultPageSize
	}
	for _, tx := range txs {
		page.Items = append(page.Items, toTransactionResponse(tx))
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := s.trading.GetTransaction(r.Context(), userID(r), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleTransactionSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.trading.Summary(r.Context(), userID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summaryResponse{
		Count:     summary.Count,
		TotalBuy:  summary.TotalBuy,
		TotalSell: summary.TotalSell,
		TotalFees: summary.TotalFees,
		TotalTax:  summary.TotalTax,
	})
}
