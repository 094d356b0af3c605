// services/cart_handlers.go

package services

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Abh1nav004/Really/cartstore"
	"github.com/Abh1nav004/Really/checkout"
	"github.com/Abh1nav004/Really/pricing"
)

type lineItemView struct {
	cartstore.LineItem
	LineTotal string `json:"line_total"`
}

type cartView struct {
	Items           []lineItemView         `json:"items"`
	ItemCount       int                    `json:"item_count"`
	Totals          pricing.DisplayTotals  `json:"totals"`
	Panel           checkout.State         `json:"panel"`
	CheckoutPending bool                   `json:"checkout_pending"`
	Confirmation    *checkout.Confirmation `json:"confirmation,omitempty"`
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

type countView struct {
	Count int `json:"count"`
}

type panelView struct {
	Panel checkout.State `json:"panel"`
}

type confirmationView struct {
	checkout.Confirmation
	Display pricing.DisplayTotals `json:"display_totals"`
}

func (s *Server) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Catalog.List())
}

func (s *Server) getProductHandler(w http.ResponseWriter, r *http.Request) {
	p, err := s.Catalog.Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) cartView(r *http.Request) (cartView, error) {
	id := sessionID(r.Context())
	items, err := s.Cart.GetCart(r.Context(), id)
	if err != nil {
		return cartView{}, err
	}
	view := cartView{
		Items:           make([]lineItemView, 0, len(items)),
		Totals:          s.Pricer.ComputeTotals(items).Display(),
		Panel:           s.Checkout.State(id),
		CheckoutPending: s.Checkout.IsPending(id),
	}
	for _, it := range items {
		view.Items = append(view.Items, lineItemView{LineItem: it, LineTotal: pricing.LineTotal(it).StringFixed(2)})
		view.ItemCount += it.Quantity
	}
	if view.Panel == checkout.CheckoutComplete {
		if conf, ok := s.Checkout.LastConfirmation(id); ok {
			view.Confirmation = &conf
		}
	}
	return view, nil
}

func (s *Server) viewCartHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "ViewCart")
	defer span.End()

	view, err := s.cartView(r)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	span.SetAttributes(attribute.Int("cart.item_count", view.ItemCount))
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) addToCartHandler(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, s.Log, err)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	r, span := s.startSpan(r, "AddToCart",
		attribute.String("product.id", req.ProductID),
		attribute.Int("product.quantity", quantity))
	defer span.End()

	if req.ProductID == "" {
		s.fail(w, r, span, errors.Wrap(cartstore.ErrInvalidInput, cartstore.ErrMsgProductIDRequired))
		return
	}
	p, err := s.Catalog.Get(req.ProductID)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	if err := s.Cart.AddItem(r.Context(), sessionID(r.Context()), p.CartProduct(), quantity); err != nil {
		s.fail(w, r, span, err)
		return
	}
	s.itemsAdded.Add(r.Context(), int64(quantity), metric.WithAttributes(attribute.String("product.id", p.ID)))

	view, err := s.cartView(r)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) removeFromCartHandler(w http.ResponseWriter, r *http.Request) {
	productID := mux.Vars(r)["id"]
	r, span := s.startSpan(r, "RemoveFromCart", attribute.String("product.id", productID))
	defer span.End()

	if err := s.Cart.RemoveItem(r.Context(), sessionID(r.Context()), productID); err != nil {
		s.fail(w, r, span, err)
		return
	}
	view, err := s.cartView(r)
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) emptyCartHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "EmptyCart")
	defer span.End()

	if err := s.Cart.EmptyCart(r.Context(), sessionID(r.Context())); err != nil {
		s.fail(w, r, span, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) cartCountHandler(w http.ResponseWriter, r *http.Request) {
	n, err := s.Cart.ItemCount(r.Context(), sessionID(r.Context()))
	if err != nil {
		writeError(w, r, s.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, countView{Count: n})
}

func (s *Server) openPanelHandler(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r.Context())
	s.Checkout.Open(id)
	writeJSON(w, http.StatusOK, panelView{Panel: s.Checkout.State(id)})
}

func (s *Server) dismissPanelHandler(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r.Context())
	s.Checkout.Dismiss(id)
	writeJSON(w, http.StatusOK, panelView{Panel: s.Checkout.State(id)})
}

// checkoutHandler holds the request open until the simulated order
// completes. A client disconnect cancels it.
func (s *Server) checkoutHandler(w http.ResponseWriter, r *http.Request) {
	r, span := s.startSpan(r, "Checkout")
	defer span.End()

	pending, err := s.Checkout.Checkout(r.Context(), sessionID(r.Context()))
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	conf, err := pending.Wait(r.Context())
	if err != nil {
		s.fail(w, r, span, err)
		return
	}
	s.checkoutsDone.Add(r.Context(), 1)
	span.SetAttributes(
		attribute.String("order.id", conf.OrderID),
		attribute.String("order.total", conf.Totals.Total.StringFixed(2)),
	)
	writeJSON(w, http.StatusOK, confirmationView{Confirmation: conf, Display: conf.Totals.Display()})
}
