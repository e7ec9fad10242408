// Пакет http содержит тонкие JSON-обработчики для админки и клиентских
// сценариев витрины. Транспорт остаётся клеем: вся семантика обновлений
// живёт в оркестраторе.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/sync"
)

// Handler связывает HTTP-маршруты с оркестратором заказов.
type Handler struct {
	book   *sync.Orchestrator
	logger *log.Entry
}

// NewHandler создаёт набор обработчиков.
func NewHandler(book *sync.Orchestrator, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.WithField("component", "http-api")
	}
	return &Handler{book: book, logger: logger}
}

// Register навешивает маршруты на mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /orders", h.listOrders)
	mux.HandleFunc("POST /orders", h.createOrder)
	mux.HandleFunc("GET /orders/{id}", h.getOrder)
	mux.HandleFunc("PATCH /orders/{id}", h.patchOrder)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders := h.book.List()

	// Фильтр по владельцу — для клиентского списка "мои заказы".
	if userID := r.URL.Query().Get("user_id"); userID != "" {
		filtered := orders[:0]
		for _, order := range orders {
			if order.UserID == userID {
				filtered = append(filtered, order)
			}
		}
		orders = filtered
	}

	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.book.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var order domain.Order
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("failed to parse JSON body"))
		return
	}

	created, err := h.book.Create(r.Context(), order)
	if err != nil {
		if errors.Is(err, domain.ErrOrderExists) {
			writeError(w, http.StatusConflict, err)
			return
		}
		if domain.IsPermissionDenied(err) {
			writeError(w, http.StatusForbidden, err)
			return
		}
		h.logger.WithError(err).WithField("order_id", order.ID).Error("create order failed")
		writeError(w, http.StatusInternalServerError, errors.New("failed to create order"))
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) patchOrder(w http.ResponseWriter, r *http.Request) {
	var patch domain.OrderPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("failed to parse JSON body"))
		return
	}
	if patch.Status != nil && !patch.Status.Valid() {
		writeError(w, http.StatusBadRequest, domain.ErrStatusUnknown)
		return
	}

	orderID := r.PathValue("id")
	order, err := h.book.ApplyUpdate(r.Context(), orderID, patch)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, order)
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, http.StatusNotFound, err)
	case domain.IsPermissionDenied(err):
		// Отказ по политике доступа показывается отдельно: повтор не поможет.
		writeError(w, http.StatusForbidden, err)
	default:
		var updateErr *domain.UpdateFailedError
		if errors.As(err, &updateErr) {
			// Durable-запись не прошла, но оптимистичная версия заказа
			// осталась в памяти — отдаём её вместе с ошибкой.
			h.logger.WithError(err).WithField("order_id", orderID).Warn("patch kept optimistic state")
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error": updateErr.Error(),
				"order": order,
			})
			return
		}
		h.logger.WithError(err).WithField("order_id", orderID).Error("patch order failed")
		writeError(w, http.StatusInternalServerError, errors.New("failed to update order"))
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
