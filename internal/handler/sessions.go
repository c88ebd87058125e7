package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/comanda-pos/api/internal/cart"
	"github.com/comanda-pos/api/internal/service"
	"github.com/comanda-pos/api/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Submitter defines the service method needed to submit a session's cart.
// Satisfied by *service.Submitter; narrow interface for testability.
type Submitter interface {
	Submit(ctx context.Context, ledger *cart.Ledger) (*service.SubmitResult, error)
}

// session pairs a ledger with the mutex that confines it. Every HTTP request
// touching the ledger holds the mutex, so ledger operations stay effectively
// single-threaded as the cart contract requires.
type session struct {
	mu     sync.Mutex
	ledger *cart.Ledger
}

// SessionHandler handles the ordering-session (cart) endpoints.
type SessionHandler struct {
	submitter Submitter

	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(submitter Submitter) *SessionHandler {
	return &SessionHandler{
		submitter: submitter,
		sessions:  make(map[uuid.UUID]*session),
	}
}

// RegisterRoutes registers session endpoints on the given Chi router.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Start)
	r.Get("/{sid}", h.Get)
	r.Patch("/{sid}", h.Update)
	r.Delete("/{sid}", h.Close)
	r.Post("/{sid}/items", h.AddItem)
	r.Patch("/{sid}/items/{productID}", h.SetItemQuantity)
	r.Delete("/{sid}/items/{productID}", h.RemoveItem)
	r.Post("/{sid}/submit", h.Submit)
}

// --- Request / Response types ---

type startSessionRequest struct {
	TableID       string `json:"table_id"`
	TableCapacity int32  `json:"table_capacity"`
	CustomerName  string `json:"customer_name"`
}

type addItemRequest struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Station     string `json:"station"`
	UnitPrice   string `json:"unit_price"`
	Notes       string `json:"notes"`
}

type setQuantityRequest struct {
	Quantity int32 `json:"quantity"`
}

type updateSessionRequest struct {
	DinerCount  *int32  `json:"diner_count"`
	PricingMode *string `json:"pricing_mode"`
}

type lineResponse struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Station     string    `json:"station"`
	UnitPrice   string    `json:"unit_price"`
	Quantity    int32     `json:"quantity"`
	Notes       string    `json:"notes,omitempty"`
	Subtotal    string    `json:"subtotal"`
}

type sessionResponse struct {
	SessionID    uuid.UUID      `json:"session_id"`
	TableID      uuid.UUID      `json:"table_id"`
	CustomerName string         `json:"customer_name,omitempty"`
	DinerCount   int32          `json:"diner_count"`
	PricingMode  string         `json:"pricing_mode"`
	Lines        []lineResponse `json:"lines"`
	Total        string         `json:"total"`
	Warning      string         `json:"warning,omitempty"`
}

type submitResponse struct {
	OrderID      uuid.UUID   `json:"order_id"`
	ItemIDs      []uuid.UUID `json:"item_ids"`
	SubmittedAt  time.Time   `json:"submitted_at"`
	ItemsCreated int         `json:"items_created"`
	FailedLine   *int        `json:"failed_line,omitempty"`
	Error        string      `json:"error,omitempty"`
}

func sessionToResponse(id uuid.UUID, o *cart.Order, warning cart.Warning) sessionResponse {
	resp := sessionResponse{
		SessionID:    id,
		TableID:      o.TableID,
		CustomerName: o.CustomerName,
		DinerCount:   o.DinerCount,
		PricingMode:  o.PricingMode,
		Lines:        make([]lineResponse, len(o.Lines)),
		Total:        o.Total.StringFixed(2),
		Warning:      string(warning),
	}
	for i, ln := range o.Lines {
		resp.Lines[i] = lineResponse{
			ProductID:   ln.ProductID,
			ProductName: ln.ProductName,
			Station:     ln.Station,
			UnitPrice:   ln.UnitPrice.StringFixed(2),
			Quantity:    ln.Quantity,
			Notes:       ln.Notes,
			Subtotal:    ln.Subtotal.StringFixed(2),
		}
	}
	return resp
}

// --- Handlers ---

// Start handles POST /sessions.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tableID, err := uuid.Parse(req.TableID)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid table_id")
		return
	}

	ledger := cart.NewLedger()
	if err := ledger.Start(tableID, req.CustomerName, req.TableCapacity); err != nil {
		writeErrorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sid := uuid.New()
	h.mu.Lock()
	h.sessions[sid] = &session{ledger: ledger}
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, sessionToResponse(sid, ledger.Order(), cart.WarnNone))
}

// Get handles GET /sessions/{sid}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sid, sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	o := sess.ledger.Order()
	if o == nil {
		writeErrorJSON(w, http.StatusConflict, "session has no active order")
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(sid, o, cart.WarnNone))
}

// AddItem handles POST /sessions/{sid}/items.
func (h *SessionHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sid, sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid product_id")
		return
	}
	unitPrice, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid unit_price")
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.ledger.AddProduct(cart.AddParams{
		ProductID:   productID,
		ProductName: req.ProductName,
		Station:     req.Station,
		UnitPrice:   unitPrice,
		Notes:       req.Notes,
	}); err != nil {
		writeErrorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(sid, sess.ledger.Order(), cart.WarnNone))
}

// SetItemQuantity handles PATCH /sessions/{sid}/items/{productID}.
// A quantity <= 0 removes the line.
func (h *SessionHandler) SetItemQuantity(w http.ResponseWriter, r *http.Request) {
	sid, sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid product ID")
		return
	}
	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.ledger.SetQuantity(productID, req.Quantity); err != nil {
		writeErrorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(sid, sess.ledger.Order(), cart.WarnNone))
}

// RemoveItem handles DELETE /sessions/{sid}/items/{productID}. Idempotent.
func (h *SessionHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sid, sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.ledger.RemoveProduct(productID); err != nil {
		writeErrorJSON(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(sid, sess.ledger.Order(), cart.WarnNone))
}

// Update handles PATCH /sessions/{sid}: diner count and pricing mode. A
// clamped diner count comes back with a warning field, not an error status.
func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	sid, sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	var req updateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	warning := cart.WarnNone
	if req.DinerCount != nil {
		var err error
		warning, err = sess.ledger.SetDinerCount(*req.DinerCount)
		if err != nil {
			writeErrorJSON(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}
	if req.PricingMode != nil {
		if err := sess.ledger.SetPricingMode(*req.PricingMode); err != nil {
			writeErrorJSON(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, sessionToResponse(sid, sess.ledger.Order(), warning))
}

// Close handles DELETE /sessions/{sid}: clears the ledger and removes the
// session.
func (h *SessionHandler) Close(w http.ResponseWriter, r *http.Request) {
	sid, sess, ok := h.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	sess.ledger.Clear()
	sess.mu.Unlock()

	h.mu.Lock()
	delete(h.sessions, sid)
	h.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// Submit handles POST /sessions/{sid}/submit.
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sid, sess, ok := h.lookup(w, r)
	if !ok {
		return
	}

	sess.mu.Lock()
	result, err := h.submitter.Submit(r.Context(), sess.ledger)
	sess.mu.Unlock()

	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyOrder):
			writeErrorJSON(w, http.StatusUnprocessableEntity, "order has no items")
		case result != nil && result.FailedLine >= 0:
			// Order partially persisted: report exactly what exists so the
			// operator knows. Nothing is rolled back.
			failed := result.FailedLine
			writeJSON(w, http.StatusBadGateway, submitResponse{
				OrderID:      result.OrderID,
				ItemIDs:      result.ItemIDs,
				ItemsCreated: len(result.ItemIDs),
				FailedLine:   &failed,
				Error:        err.Error(),
			})
		case errors.Is(err, store.ErrOrderCreateFailed):
			writeErrorJSON(w, http.StatusBadGateway, "order store rejected the order; cart preserved, retry")
		default:
			log.Printf("ERROR: submit session %s: %v", sid, err)
			writeErrorJSON(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{
		OrderID:      result.OrderID,
		ItemIDs:      result.ItemIDs,
		SubmittedAt:  time.Now().UTC(),
		ItemsCreated: len(result.ItemIDs),
	})
}

// lookup resolves the session from the URL, writing the error response when
// missing.
func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (uuid.UUID, *session, bool) {
	sid, err := uuid.Parse(chi.URLParam(r, "sid"))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid session ID")
		return uuid.Nil, nil, false
	}
	h.mu.RLock()
	sess, ok := h.sessions[sid]
	h.mu.RUnlock()
	if !ok {
		writeErrorJSON(w, http.StatusNotFound, "session not found")
		return uuid.Nil, nil, false
	}
	return sid, sess, true
}
