package server

import (
	"errors"
	"net/http"

	"asset-performance-lab/internal/domain"
	"asset-performance-lab/internal/storage"
)

// assetJSON is the wire form of one catalog entry.
type assetJSON struct {
	Symbol   string `json:"symbol"`
	Class    string `json:"asset_type"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
}

// assetListResponse wraps the catalog.
type assetListResponse struct {
	Count  int         `json:"count"`
	Assets []assetJSON `json:"assets"`
}

func (s *Server) handleAssetsList(w http.ResponseWriter, r *http.Request) {
	class := domain.AssetClass(r.URL.Query().Get("class"))

	infos, err := s.metadata.List(r.Context(), class)
	if err != nil {
		s.log.Error().Err(err).Msg("list assets failed")
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	assets := make([]assetJSON, 0, len(infos))
	for _, info := range infos {
		assets = append(assets, assetJSON{
			Symbol:   info.Symbol,
			Class:    string(info.Class),
			Name:     info.Name,
			Currency: info.Currency,
		})
	}

	s.respond(w, http.StatusOK, assetListResponse{Count: len(assets), Assets: assets})
}

// assetDetailsResponse is every evaluated window for one symbol.
type assetDetailsResponse struct {
	Symbol     string        `json:"symbol"`
	Name       string        `json:"name"`
	BuyAndHold []buyHoldJSON `json:"buy_and_hold"`
	DCA        []dcaJSON     `json:"dca"`
}

func (s *Server) handleAssetDetails(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		s.respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	name, err := s.metadata.Name(r.Context(), symbol)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("resolve asset name failed")
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	buyHold, err := s.buyHold.BySymbol(r.Context(), symbol)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("load buy-and-hold windows failed")
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	dca, err := s.dca.BySymbol(r.Context(), symbol)
	if err != nil {
		s.log.Error().Err(err).Str("symbol", symbol).Msg("load dca simulations failed")
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if len(buyHold) == 0 && len(dca) == 0 {
		s.respondError(w, http.StatusNotFound, "no performance records for symbol")
		return
	}

	resp := assetDetailsResponse{
		Symbol:     symbol,
		Name:       name,
		BuyAndHold: make([]buyHoldJSON, 0, len(buyHold)),
		DCA:        make([]dcaJSON, 0, len(dca)),
	}
	for _, rec := range buyHold {
		resp.BuyAndHold = append(resp.BuyAndHold, toBuyHoldJSON(rec))
	}
	for _, rec := range dca {
		resp.DCA = append(resp.DCA, toDCAJSON(rec))
	}

	s.respond(w, http.StatusOK, resp)
}
