package http

import (
	"net/http"
	"time"

	"github.com/simaogato/assetmanager-backend/internal/usecase/apikeys"
)

type registerAPIKeyRequest struct {
	ExchangeType string     `json:"exchange_type"`
	ExchangeName string     `json:"exchange_name"`
	AccessKey    string     `json:"access_key"`
	SecretKey    string     `json:"secret_key"`
	Permissions  string     `json:"permissions"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

func (s *Server) handleListAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.apiKeys.List(r.Context(), userID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	response := make([]apiKeyResponse, 0, len(keys))
	for _, k := range keys {
		response = append(response, toAPIKeyResponse(k))
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleRegisterAPIKey(w http.ResponseWriter, r *http.Request) {
	var req registerAPIKeyRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, err := s.apiKeys.Register(r.Context(), apikeys.RegisterInput{
		UserID:       userID(r),
		ExchangeType: req.ExchangeType,
		ExchangeName: req.ExchangeName,
		AccessKey:    req.AccessKey,
		SecretKey:    req.SecretKey,
		Permissions:  req.Permissions,
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAPIKeyResponse(key))
}

func (s *Server) handleDeactivateAPIKey(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.apiKeys.Deactivate(r.Context(), userID(r), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
