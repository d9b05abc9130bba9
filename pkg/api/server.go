// Package api is the minimal REST control surface over the exchange:
// deposit/withdraw, place/cancel order, and read-only balance/order/book
// queries. There is no streaming feed; clients poll.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/zkclob/engine/pkg/exchange"
	"github.com/zkclob/engine/pkg/orderbook"
	"github.com/zkclob/engine/pkg/xerrors"
)

// Server exposes the exchange over HTTP.
type Server struct {
	ex     *exchange.Exchange
	router *mux.Router
	log    *zap.SugaredLogger
}

func NewServer(ex *exchange.Exchange, log *zap.SugaredLogger) *Server {
	s := &Server{
		ex:     ex,
		router: mux.NewRouter(),
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/orders", s.handlePlaceOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")
	api.HandleFunc("/orders/{pairId}/{orderId}", s.handleGetOrder).Methods("GET")

	api.HandleFunc("/markets/{pairId}/orderbook", s.handleGetOrderbook).Methods("GET")

	api.HandleFunc("/accounts/{address}/balances/{token}", s.handleGetBalance).Methods("GET")
	api.HandleFunc("/deposit", s.handleDeposit).Methods("POST")
	api.HandleFunc("/withdraw", s.handleWithdraw).Methods("POST")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the CORS-wrapped router, ready to pass to http.ListenAndServe.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: false,
	})
	return c.Handler(s.router)
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if !common.IsHexAddress(req.UserID) {
		respondError(w, http.StatusBadRequest, "invalid userId", "")
		return
	}

	var side orderbook.Side
	switch req.Side {
	case "buy":
		side = orderbook.Buy
	case "sell":
		side = orderbook.Sell
	default:
		respondError(w, http.StatusBadRequest, "invalid side", `expected "buy" or "sell"`)
		return
	}

	o := &orderbook.Order{
		ID:     req.ID,
		UserID: common.HexToAddress(req.UserID),
		PairID: req.PairID,
		Side:   side,
		Amount: req.Amount,
		Price:  req.Price,
	}

	if err := s.ex.PlaceOrder(o); err != nil {
		s.respondExchangeError(w, err)
		return
	}

	s.log.Infow("order_placed", "order_id", o.ID, "pair_id", o.PairID, "side", req.Side)
	respondJSON(w, SubmitOrderResponse{Status: "submitted", OrderID: o.ID})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.OrderID == "" || req.PairID == "" {
		respondError(w, http.StatusBadRequest, "missing pairId or orderId", "")
		return
	}

	if err := s.ex.CancelOrder(req.PairID, req.OrderID); err != nil {
		s.respondExchangeError(w, err)
		return
	}

	s.log.Infow("order_cancelled", "order_id", req.OrderID, "pair_id", req.PairID)
	respondJSON(w, map[string]string{"status": "cancelled", "orderId": req.OrderID})
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	o := s.ex.GetOrder(vars["pairId"], vars["orderId"])
	if o == nil {
		respondError(w, http.StatusNotFound, "order not found", "")
		return
	}
	respondJSON(w, OrderInfo{
		ID:        o.ID,
		PairID:    o.PairID,
		Side:      o.Side.String(),
		Price:     o.Price,
		Amount:    o.Amount,
		Filled:    o.FilledAmount,
		Remaining: o.RemainingAmount(),
		Status:    o.Status.String(),
		CreatedAt: o.CreatedAt,
	})
}

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	pairID := mux.Vars(r)["pairId"]
	bid, bidOK, ask, askOK := s.ex.GetOrderbook(pairID)

	resp := OrderbookSnapshot{PairID: pairID}
	if bidOK {
		resp.Bid = &bid
	}
	if askOK {
		resp.Ask = &ask
	}
	respondJSON(w, resp)
}

func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if !common.IsHexAddress(vars["address"]) {
		respondError(w, http.StatusBadRequest, "invalid address", "")
		return
	}
	addr := common.HexToAddress(vars["address"])
	token := vars["token"]

	free, frozen := s.ex.GetBalance(addr, token)
	respondJSON(w, BalanceResponse{UserID: addr.Hex(), Token: token, Free: free, Frozen: frozen})
}

func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if !common.IsHexAddress(req.UserID) {
		respondError(w, http.StatusBadRequest, "invalid userId", "")
		return
	}
	if err := s.ex.Deposit(common.HexToAddress(req.UserID), req.Token, req.Amount); err != nil {
		s.respondExchangeError(w, err)
		return
	}
	respondJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if !common.IsHexAddress(req.UserID) {
		respondError(w, http.StatusBadRequest, "invalid userId", "")
		return
	}
	if err := s.ex.Withdraw(common.HexToAddress(req.UserID), req.Token, req.Amount); err != nil {
		s.respondExchangeError(w, err)
		return
	}
	respondJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// respondExchangeError maps a domain sentinel to an HTTP status; anything
// unrecognized is a 500, never leaked as a 4xx that would mislead a client
// into thinking the request itself was malformed.
func (s *Server) respondExchangeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, xerrors.ErrInsufficientBalance), errors.Is(err, xerrors.ErrMalformedPair):
		respondError(w, http.StatusBadRequest, "rejected", err.Error())
	case errors.Is(err, xerrors.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order not found", err.Error())
	case errors.Is(err, xerrors.ErrAlreadyCancelled):
		respondError(w, http.StatusConflict, "already cancelled", err.Error())
	default:
		s.log.Errorw("internal_error", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error", "")
	}
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, errMsg string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: errMsg, Message: message})
}
