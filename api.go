package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/0xNekr/firstmint/minter"
	"github.com/0xNekr/firstmint/token"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type server struct {
	minter *minter.Minter
	ledger *token.Ledger
	logger zerolog.Logger
}

func (s *server) router() chi.Router {
	r := chi.NewRouter()
	r.Get("/collection", s.handleCollection)
	r.Get("/tokens/{address}", s.handleTokens)
	r.Post("/mints", s.handleMint)
	r.Get("/mints/{trace}", s.handleReceipt)
	return r
}

type collectionView struct {
	Creator        string `json:"creator"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	URI            string `json:"uri"`
	TokenName      string `json:"token_name"`
	TokenURI       string `json:"token_uri"`
	Supply         uint64 `json:"supply"`
	Maximum        uint64 `json:"maximum"`
	RoyaltyRate    string `json:"royalty_rate"`
	RoyaltyPayee   string `json:"royalty_payee"`
	PropertyKey    string `json:"property_key"`
	TokenDataCount uint64 `json:"token_data_count"`
}

func (s *server) handleCollection(w http.ResponseWriter, r *http.Request) {
	id := s.minter.TokenData()
	c, err := s.ledger.GetCollection(id.Creator, id.Collection)
	if err != nil {
		s.respondError(w, err)
		return
	}
	d, err := s.ledger.GetTokenData(id)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if c == nil || d == nil {
		s.respondStatus(w, http.StatusNotFound, "collection not initialized")
		return
	}
	s.respond(w, http.StatusOK, collectionView{
		Creator:        c.Creator,
		Name:           c.Name,
		Description:    c.Description,
		URI:            c.URI,
		TokenName:      d.ID.Name,
		TokenURI:       d.URI,
		Supply:         d.Supply,
		Maximum:        d.Maximum,
		RoyaltyRate:    d.Royalty.Rate().String(),
		RoyaltyPayee:   d.Royalty.Payee,
		PropertyKey:    minter.ReceiverPropertyKey,
		TokenDataCount: c.TokenDataCount,
	})
}

type tokenView struct {
	Creator         string            `json:"creator"`
	Collection      string            `json:"collection"`
	Name            string            `json:"name"`
	PropertyVersion uint64            `json:"property_version"`
	Amount          uint64            `json:"amount"`
	Properties      map[string]string `json:"properties,omitempty"`
}

func (s *server) handleTokens(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	tokens, err := s.ledger.ListTokens(address)
	if err != nil {
		s.respondError(w, err)
		return
	}
	views := make([]tokenView, 0, len(tokens))
	for _, t := range tokens {
		pm, err := s.ledger.TokenProperties(t.ID)
		if err != nil {
			s.respondError(w, err)
			return
		}
		v := tokenView{
			Creator:         t.ID.Data.Creator,
			Collection:      t.ID.Data.Collection,
			Name:            t.ID.Data.Name,
			PropertyVersion: t.ID.PropertyVersion,
			Amount:          t.Amount,
		}
		if len(pm) > 0 {
			v.Properties = make(map[string]string, len(pm))
			for k, p := range pm {
				v.Properties[k] = p.Value
			}
		}
		views = append(views, v)
	}
	s.respond(w, http.StatusOK, views)
}

type mintRequestBody struct {
	Caller   string `json:"caller"`
	Receiver string `json:"receiver"`
	Trace    string `json:"trace,omitempty"`
}

type mintView struct {
	Trace           string `json:"trace,omitempty"`
	Receiver        string `json:"receiver"`
	Collection      string `json:"collection"`
	Name            string `json:"name"`
	PropertyVersion uint64 `json:"property_version"`
}

func (s *server) handleMint(w http.ResponseWriter, r *http.Request) {
	var body mintRequestBody
	err := json.NewDecoder(r.Body).Decode(&body)
	if err != nil {
		s.respondStatus(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Receiver == "" {
		s.respondStatus(w, http.StatusBadRequest, "missing receiver")
		return
	}
	tid, err := s.minter.MintTo(r.Context(), body.Caller, body.Receiver, body.Trace)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respond(w, http.StatusCreated, mintView{
		Trace:           body.Trace,
		Receiver:        body.Receiver,
		Collection:      tid.Data.Collection,
		Name:            tid.Data.Name,
		PropertyVersion: tid.PropertyVersion,
	})
}

func (s *server) handleReceipt(w http.ResponseWriter, r *http.Request) {
	trace := chi.URLParam(r, "trace")
	receipt, err := s.minter.Receipt(trace)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if receipt == nil {
		s.respondStatus(w, http.StatusNotFound, "no such mint")
		return
	}
	s.respond(w, http.StatusOK, mintView{
		Trace:           receipt.TraceID,
		Receiver:        receipt.Receiver,
		Collection:      receipt.Token.Data.Collection,
		Name:            receipt.Token.Data.Name,
		PropertyVersion: receipt.Token.PropertyVersion,
	})
}

func (s *server) respond(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		s.logger.Error().Err(err).Msg("encode response")
	}
}

func (s *server) respondStatus(w http.ResponseWriter, status int, msg string) {
	s.respond(w, status, map[string]string{"error": msg})
}

func (s *server) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, minter.ErrPermissionDenied):
		s.respondStatus(w, http.StatusForbidden, err.Error())
	case errors.Is(err, minter.ErrNotInitialized):
		s.respondStatus(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, token.ErrSupplyExceeded),
		errors.Is(err, token.ErrCollectionFull),
		errors.Is(err, token.ErrCollectionExists),
		errors.Is(err, token.ErrTokenDataExists):
		s.respondStatus(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error().Err(err).Msg("request failed")
		s.respondStatus(w, http.StatusInternalServerError, err.Error())
	}
}
