// Package http принимает внешние запросы оформления заказа и переводит
// доменные ошибки в HTTP-статусы.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/checkout/internal/domain"
	"github.com/vladislavdragonenkov/checkout/internal/service/checkout"
)

const requestTimeout = 10 * time.Second

// OrderPlacer — контракт операции оформления заказа.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, in checkout.PlaceOrderInput) (domain.OrderSummary, error)
}

// OrderReader — read-path заказов.
type OrderReader interface {
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID string, limit int) ([]domain.Order, error)
}

// ProductLister — листинг товаров по категории.
type ProductLister interface {
	ListProductsByCategory(ctx context.Context, categoryID string, limit, offset int) ([]domain.Product, error)
}

// Handler связывает маршруты с сервисами оформления и каталога.
type Handler struct {
	placer OrderPlacer
	orders OrderReader
	lister ProductLister
	logger *log.Entry
}

// NewHandler создаёт HTTP-обработчик.
func NewHandler(placer OrderPlacer, orders OrderReader, lister ProductLister, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New()
	}
	return &Handler{
		placer: placer,
		orders: orders,
		lister: lister,
		logger: logger.WithField("component", "http_handler"),
	}
}

// Register вешает маршруты обработчика на роутер.
func (h *Handler) Register(r chi.Router) {
	r.Post("/orders", h.placeOrder)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/users/{id}/orders", h.listUserOrders)
	r.Get("/categories/{id}/products", h.listCategoryProducts)
}

// placeOrderRequest — тело POST /orders.
type placeOrderRequest struct {
	UserID          string                    `json:"user_id"`
	ShippingAddress json.RawMessage           `json:"shipping_address"`
	Items           []checkout.PlaceOrderItem `json:"items"`
	VoucherCodes    []string                  `json:"voucher_codes"`
	PaymentMethod   string                    `json:"payment_method"`
	PaymentDetails  domain.PaymentDetails     `json:"payment_details"`
	ShippingFee     int64                     `json:"shipping_fee"`
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json body"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	summary, err := h.placer.PlaceOrder(ctx, checkout.PlaceOrderInput{
		UserID:           req.UserID,
		ShippingAddress:  req.ShippingAddress,
		Items:            req.Items,
		VoucherCodes:     req.VoucherCodes,
		PaymentDetails:   req.PaymentDetails,
		ShippingFeeMinor: req.ShippingFee,
		PaymentMethod:    domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

// orderResponse — представление заказа в read-path.
type orderResponse struct {
	domain.OrderSummary
	UserID          string              `json:"user_id"`
	ShippingAddress json.RawMessage     `json:"shipping_address,omitempty"`
	Items           []orderItemResponse `json:"items"`
}

type orderItemResponse struct {
	VariantID  string `json:"product_variant_id"`
	Qty        int32  `json:"quantity"`
	PriceMinor int64  `json:"price"`
}

func toOrderResponse(order domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemResponse{
			VariantID:  item.VariantID,
			Qty:        item.Qty,
			PriceMinor: item.PriceMinor,
		})
	}
	return orderResponse{
		OrderSummary:    order.Summary(),
		UserID:          order.UserID,
		ShippingAddress: order.ShippingAddress,
		Items:           items,
	}
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if orderID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("missing order id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	order, err := h.orders.GetOrder(ctx, orderID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *Handler) listUserOrders(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("missing user id"))
		return
	}
	limit := queryInt(r, "limit", 0)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	orders, err := h.orders.ListOrdersByUser(ctx, userID, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	responses := make([]orderResponse, 0, len(orders))
	for _, order := range orders {
		responses = append(responses, toOrderResponse(order))
	}
	writeJSON(w, http.StatusOK, responses)
}

func (h *Handler) listCategoryProducts(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "id")
	if categoryID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("missing category id"))
		return
	}
	limit := queryInt(r, "limit", 20)
	offset := queryInt(r, "offset", 0)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	products, err := h.lister.ListProductsByCategory(ctx, categoryID, limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponses(products))
}

// productResponse — каталожное представление товара.
type productResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Variants    []variantResponse `json:"variants"`
}

type variantResponse struct {
	ID         string `json:"id"`
	Size       string `json:"size,omitempty"`
	Color      string `json:"color,omitempty"`
	PriceMinor int64  `json:"price"`
	Quantity   int32  `json:"quantity"`
}

func toProductResponses(products []domain.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		variants := make([]variantResponse, 0, len(p.Variants))
		for _, v := range p.Variants {
			variants = append(variants, variantResponse{
				ID:         v.ID,
				Size:       v.Size,
				Color:      v.Color,
				PriceMinor: v.PriceMinor,
				Quantity:   v.Quantity,
			})
		}
		out = append(out, productResponse{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Variants:    variants,
		})
	}
	return out
}

// writeError переводит доменную ошибку в HTTP-статус. Неклассифицированные
// ошибки не раскрываются клиенту.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFromError(err)
	if status == http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("внутренняя ошибка запроса")
		writeJSON(w, status, errorBody("internal error"))
		return
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrVariantNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrContention):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrPaymentDetailsInvalid):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrVoucherNotEligible):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
