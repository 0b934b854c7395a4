package api

import (
	"log/slog"
	"net/http"
	"time"

	"food-order-backend/internal/models"
	"food-order-backend/internal/orders"
)

type statusUpdateRequest struct {
	Status models.OrderStatus `json:"status"`
}

type statusEventResponse struct {
	FromStatus models.OrderStatus `json:"from_status"`
	ToStatus   models.OrderStatus `json:"to_status"`
	At         time.Time          `json:"at"`
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ip := clientIP(r)
	if h.limiter != nil && h.orderRateLimit > 0 && h.limiter.IsRateLimited(ctx, "orders:"+ip, h.orderRateLimit, orderRateWindow) {
		slog.Warn("Rate limit exceeded", "ip", ip)
		writeDetail(w, http.StatusTooManyRequests, "Request was throttled.")
		return
	}

	var req orders.PlaceOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.orders.PlaceOrder(ctx, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), r.PathValue("order_number"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), r.PathValue("order_number"), req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) ListOrderEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.orders.ListEvents(r.Context(), r.PathValue("order_number"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]statusEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, statusEventResponse{FromStatus: e.FromStatus, ToStatus: e.ToStatus, At: e.At})
	}
	writeJSON(w, http.StatusOK, out)
}
