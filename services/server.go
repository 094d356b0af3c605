// services/server.go

package services

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/Abh1nav004/Really/cartstore"
	"github.com/Abh1nav004/Really/catalog"
	"github.com/Abh1nav004/Really/checkout"
	"github.com/Abh1nav004/Really/historystore"
	"github.com/Abh1nav004/Really/pricing"
)

const instrumentationName = "storefront"

// Deps are the collaborators a Server serves.
type Deps struct {
	Catalog  *catalog.Catalog
	Cart     cartstore.CartStore
	Checkout *checkout.Manager
	History  *historystore.Recorder
	Pricer   *pricing.Pricer
	Studio   *DesignStudio
	Log      logrus.FieldLogger

	// Sessions, when set, is touched on every request.
	Sessions *SessionTracker
}

// Server is the storefront HTTP API.
type Server struct {
	Deps

	tracer         trace.Tracer
	itemsAdded     metric.Int64Counter
	checkoutsDone  metric.Int64Counter
	designsCreated metric.Int64Counter
}

// NewServer checks deps and registers the service's instruments on the
// global meter provider.
func NewServer(deps Deps) (*Server, error) {
	if deps.Catalog == nil || deps.Cart == nil || deps.Checkout == nil || deps.History == nil || deps.Studio == nil {
		return nil, errors.New("services: catalog, cart, checkout, history and studio are required")
	}
	if deps.Pricer == nil {
		deps.Pricer = pricing.DefaultPricer()
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}

	meter := otel.Meter(instrumentationName)
	itemsAdded, err := meter.Int64Counter("cart.items_added",
		metric.WithDescription("Units added to carts"))
	if err != nil {
		return nil, errors.Wrap(err, "create cart.items_added counter")
	}
	checkoutsDone, err := meter.Int64Counter("checkout.completed",
		metric.WithDescription("Simulated checkouts completed"))
	if err != nil {
		return nil, errors.Wrap(err, "create checkout.completed counter")
	}
	designsCreated, err := meter.Int64Counter("studio.designs_generated",
		metric.WithDescription("Design generation requests served"))
	if err != nil {
		return nil, errors.Wrap(err, "create studio.designs_generated counter")
	}

	return &Server{
		Deps:           deps,
		tracer:         otel.Tracer(instrumentationName),
		itemsAdded:     itemsAdded,
		checkoutsDone:  checkoutsDone,
		designsCreated: designsCreated,
	}, nil
}

// Handler returns the routed, instrumented HTTP handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware(instrumentationName))

	r.HandleFunc("/products", s.listProductsHandler).Methods(http.MethodGet)
	r.HandleFunc("/products/{id}", s.getProductHandler).Methods(http.MethodGet)

	r.HandleFunc("/cart", s.viewCartHandler).Methods(http.MethodGet)
	r.HandleFunc("/cart", s.emptyCartHandler).Methods(http.MethodDelete)
	r.HandleFunc("/cart/count", s.cartCountHandler).Methods(http.MethodGet)
	r.HandleFunc("/cart/items", s.addToCartHandler).Methods(http.MethodPost)
	r.HandleFunc("/cart/items/{id}", s.removeFromCartHandler).Methods(http.MethodDelete)
	r.HandleFunc("/cart/panel/open", s.openPanelHandler).Methods(http.MethodPost)
	r.HandleFunc("/cart/panel/dismiss", s.dismissPanelHandler).Methods(http.MethodPost)
	r.HandleFunc("/cart/checkout", s.checkoutHandler).Methods(http.MethodPost)

	r.HandleFunc("/search", s.searchHandler).Methods(http.MethodPost)
	r.HandleFunc("/search/history", s.searchHistoryHandler).Methods(http.MethodGet)
	r.HandleFunc("/search/history", s.clearSearchHistoryHandler).Methods(http.MethodDelete)

	r.HandleFunc("/diy/designs", s.generateDesignsHandler).Methods(http.MethodPost)

	r.HandleFunc("/auth/login", s.loginHandler).Methods(http.MethodPost)
	r.HandleFunc("/auth/register", s.registerHandler).Methods(http.MethodPost)

	r.HandleFunc("/_healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	var h http.Handler = r
	h = &logHandler{log: s.Log, next: h}
	if s.Sessions != nil {
		h = s.Sessions.middleware(h)
	}
	h = ensureSessionID(h)
	return h
}

// startSpan opens a span carrying the session id.
func (s *Server) startSpan(r *http.Request, name string, attrs ...attribute.KeyValue) (*http.Request, trace.Span) {
	ctx, span := s.tracer.Start(r.Context(), name,
		trace.WithAttributes(append([]attribute.KeyValue{attribute.String("session.id", sessionID(r.Context()))}, attrs...)...))
	return r.WithContext(ctx), span
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	writeError(w, r, s.Log, err)
}
