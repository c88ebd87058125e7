package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/comanda-pos/api/internal/kitchen"
	"github.com/comanda-pos/api/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// QueueViewer defines the reconciler methods the kitchen endpoints need.
// Satisfied by *kitchen.Reconciler.
type QueueViewer interface {
	Queues() kitchen.StationQueues
	Refresh()
}

// Transitioner defines the item transition service methods.
// Satisfied by *service.ItemTransitions.
type Transitioner interface {
	Advance(ctx context.Context, itemID uuid.UUID) (store.OrderItem, error)
	Cancel(ctx context.Context, itemID uuid.UUID) (store.OrderItem, error)
}

// KitchenHandler handles kitchen display endpoints.
type KitchenHandler struct {
	view        QueueViewer
	transitions Transitioner
}

// NewKitchenHandler creates a KitchenHandler.
func NewKitchenHandler(view QueueViewer, transitions Transitioner) *KitchenHandler {
	return &KitchenHandler{view: view, transitions: transitions}
}

// RegisterRoutes registers kitchen endpoints on the given Chi router.
func (h *KitchenHandler) RegisterRoutes(r chi.Router) {
	r.Get("/queues", h.Queues)
	r.Post("/refresh", h.Refresh)
	r.Patch("/items/{id}/advance", h.AdvanceItem)
	r.Patch("/items/{id}/cancel", h.CancelItem)
}

// --- Response types ---

type queueItemResponse struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Station   string    `json:"station"`
	State     string    `json:"state"`
	Quantity  int32     `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

type queuesResponse struct {
	Stations map[string][]queueItemResponse `json:"stations"`
}

func itemToResponse(it store.OrderItem) queueItemResponse {
	return queueItemResponse{
		ID:        it.ID,
		OrderID:   it.OrderID,
		ProductID: it.ProductID,
		Name:      it.Name,
		Station:   it.Station,
		State:     it.State,
		Quantity:  it.Quantity,
		CreatedAt: it.CreatedAt,
	}
}

// --- Handlers ---

// Queues handles GET /kitchen/queues: the station-partitioned view of
// queued items from the reconciler's current snapshot.
func (h *KitchenHandler) Queues(w http.ResponseWriter, r *http.Request) {
	queues := h.view.Queues()
	resp := queuesResponse{Stations: make(map[string][]queueItemResponse, len(queues))}
	for station, items := range queues {
		out := make([]queueItemResponse, len(items))
		for i, it := range items {
			out[i] = itemToResponse(it)
		}
		resp.Stations[station] = out
	}
	writeJSON(w, http.StatusOK, resp)
}

// Refresh handles POST /kitchen/refresh: an explicit request for an
// immediate out-of-cycle poll (a display regaining focus calls this). The
// reconciler debounces, so hammering it is safe.
func (h *KitchenHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.view.Refresh()
	w.WriteHeader(http.StatusAccepted)
}

// AdvanceItem handles PATCH /kitchen/items/{id}/advance.
func (h *KitchenHandler) AdvanceItem(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.transitions.Advance)
}

// CancelItem handles PATCH /kitchen/items/{id}/cancel.
func (h *KitchenHandler) CancelItem(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.transitions.Cancel)
}

func (h *KitchenHandler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID) (store.OrderItem, error)) {
	itemID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid item ID")
		return
	}

	item, err := op(r.Context(), itemID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrItemNotFound):
			writeErrorJSON(w, http.StatusNotFound, "item not found")
		case errors.Is(err, kitchen.ErrNoValidTransition),
			errors.Is(err, kitchen.ErrAlreadyTerminal),
			errors.Is(err, store.ErrIllegalTransition):
			writeErrorJSON(w, http.StatusConflict, err.Error())
		default:
			log.Printf("ERROR: transition item %s: %v", itemID, err)
			writeErrorJSON(w, http.StatusBadGateway, "order store update failed; retry")
		}
		return
	}

	// The write went through the store; nudge the reconciler so every other
	// display converges without waiting a full interval.
	h.view.Refresh()

	writeJSON(w, http.StatusOK, itemToResponse(item))
}
