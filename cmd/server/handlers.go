package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/geek-guru098/NEPSTORE/pkg/cart"
	"github.com/geek-guru098/NEPSTORE/pkg/catalog"
	"github.com/geek-guru098/NEPSTORE/pkg/checkout"
	"github.com/geek-guru098/NEPSTORE/pkg/model"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func requestLogger(r *http.Request) logrus.FieldLogger {
	if log, ok := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger); ok {
		return log
	}
	return logrus.StandardLogger()
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("[Server] failed to encode response: %v", err)
	}
}

func renderJSONError(log logrus.FieldLogger, w http.ResponseWriter, err error, code int) {
	log.WithField("error", err).Error("request error")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]string{"error": err.Error()})
}

// formatNPR renders a whole-rupee amount for display, e.g. "NPR 185,000".
func formatNPR(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := ""
	if amount < 0 {
		neg, s = "-", s[1:]
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return fmt.Sprintf("NPR %s%s", neg, s)
}

func (fe *frontendServer) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)

	var (
		products []*model.Product
		err      error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		products, err = fe.catalog.SearchProducts(r.Context(), q)
	} else {
		products, err = fe.catalog.ListProducts(r.Context())
	}
	if err != nil {
		renderJSONError(log, w, errors.Wrap(err, "could not retrieve products"), http.StatusInternalServerError)
		return
	}

	if category := r.URL.Query().Get("category"); category != "" {
		filtered := make([]*model.Product, 0, len(products))
		for _, p := range products {
			if p.Category == category {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	writeJSON(w, map[string]interface{}{"products": products})
}

func (fe *frontendServer) getProductHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	id := mux.Vars(r)["id"]

	p, err := fe.catalog.GetProduct(r.Context(), id)
	if err == catalog.ErrProductNotFound {
		renderJSONError(log, w, err, http.StatusNotFound)
		return
	}
	if err != nil {
		renderJSONError(log, w, errors.Wrap(err, "could not retrieve product"), http.StatusInternalServerError)
		return
	}
	writeJSON(w, p)
}

type cartLineView struct {
	cart.Line
	LineTotal int64 `json:"line_total"`
	Stock     int32 `json:"stock"`
}

// viewCartHandler returns the cart with live stock fetched from the catalog,
// one concurrent lookup per line.
func (fe *frontendServer) viewCartHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	sess := fe.session(r)

	lines := sess.cart.Snapshot()
	views := make([]cartLineView, len(lines))

	g, ctx := errgroup.WithContext(r.Context())
	for i, ln := range lines {
		i, ln := i, ln
		g.Go(func() error {
			views[i] = cartLineView{Line: ln, LineTotal: ln.UnitPrice * int64(ln.Quantity)}
			p, err := fe.catalog.GetProduct(ctx, ln.ProductID)
			if err != nil {
				// A line can outlive its product; the cart still renders.
				log.WithField("product", ln.ProductID).Warnf("failed to get product details: %v", err)
				return nil
			}
			views[i].Stock = p.Stock
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		renderJSONError(log, w, errors.Wrap(err, "failed to load cart"), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"items":           views,
		"total_items":     sess.cart.TotalItems(),
		"total_price":     sess.cart.TotalPrice(),
		"total_formatted": formatNPR(sess.cart.TotalPrice()),
	})
}

type addToCartPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int32  `json:"quantity"`
}

func (p addToCartPayload) validate() error {
	if p.ProductID == "" {
		return errors.New("product_id is required")
	}
	if p.Quantity < 1 {
		return cart.ErrInvalidQuantity
	}
	return nil
}

func (fe *frontendServer) addToCartHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	sess := fe.session(r)

	var payload addToCartPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderJSONError(log, w, errors.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}
	if payload.Quantity == 0 {
		payload.Quantity = 1
	}
	if err := payload.validate(); err != nil {
		renderJSONError(log, w, err, http.StatusUnprocessableEntity)
		return
	}
	log.WithField("product", payload.ProductID).WithField("quantity", payload.Quantity).Debug("adding to cart")

	p, err := fe.catalog.GetProduct(r.Context(), payload.ProductID)
	if err == catalog.ErrProductNotFound {
		renderJSONError(log, w, err, http.StatusNotFound)
		return
	}
	if err != nil {
		renderJSONError(log, w, errors.Wrap(err, "could not retrieve product"), http.StatusInternalServerError)
		return
	}

	res, err := sess.cart.Add(r.Context(), p, payload.Quantity)
	if err != nil {
		renderJSONError(log, w, errors.Wrap(err, "failed to add to cart"), http.StatusUnprocessableEntity)
		return
	}
	fe.writeMutation(w, sess, res)
}

func (fe *frontendServer) updateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	sess := fe.session(r)
	productID := mux.Vars(r)["id"]

	var payload struct {
		Quantity int32 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderJSONError(log, w, errors.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	res, err := sess.cart.SetQuantity(r.Context(), productID, payload.Quantity)
	if err != nil {
		renderJSONError(log, w, errors.Wrap(err, "failed to update cart"), http.StatusUnprocessableEntity)
		return
	}
	fe.writeMutation(w, sess, res)
}

func (fe *frontendServer) removeCartItemHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	sess := fe.session(r)
	productID := mux.Vars(r)["id"]

	res, err := sess.cart.Remove(r.Context(), productID)
	if err != nil {
		renderJSONError(log, w, errors.Wrap(err, "failed to remove from cart"), http.StatusInternalServerError)
		return
	}
	fe.writeMutation(w, sess, res)
}

func (fe *frontendServer) emptyCartHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	log.Debug("emptying cart")
	sess := fe.session(r)

	res := sess.cart.Clear(r.Context())
	fe.writeMutation(w, sess, res)
}

// writeMutation reports what a cart mutation did; the client decides how to
// notify the shopper.
func (fe *frontendServer) writeMutation(w http.ResponseWriter, sess *shopperSession, res cart.MutationResult) {
	body := map[string]interface{}{
		"op":          res.Op.String(),
		"total_items": sess.cart.TotalItems(),
		"total_price": sess.cart.TotalPrice(),
	}
	if res.Line != nil {
		body["line"] = res.Line
	}
	writeJSON(w, body)
}

type checkoutView struct {
	OrderID        string              `json:"order_id"`
	Stage          string              `json:"stage"`
	Lines          []cart.Line         `json:"lines"`
	Amount         int64               `json:"amount"`
	AmountDisplay  string              `json:"amount_formatted"`
	ShippingCost   int64               `json:"shipping_cost"`
	PaymentMethod  model.PaymentMethod `json:"payment_method,omitempty"`
	DeliveryCity   string              `json:"delivery_city,omitempty"`
	DeliveryTarget string              `json:"delivery_address,omitempty"`
}

func summaryView(s checkout.Summary) checkoutView {
	return checkoutView{
		OrderID:       s.OrderID,
		Stage:         s.Stage.String(),
		Lines:         s.Lines,
		Amount:        s.Amount,
		AmountDisplay: formatNPR(s.Amount),
		// Delivery is free within the covered cities.
		ShippingCost:   0,
		PaymentMethod:  s.Shipping.PaymentMethod,
		DeliveryCity:   s.Shipping.City,
		DeliveryTarget: s.Shipping.Address,
	}
}

func (fe *frontendServer) beginCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	sess := fe.session(r)
	log.WithField("shopper", shopperID(r)).Debug("starting checkout")

	if _, err := sess.checkout.Begin(r.Context()); err != nil {
		switch err {
		case checkout.ErrCheckoutInProgress:
			renderJSONError(log, w, err, http.StatusConflict)
		case checkout.ErrEmptyCart:
			renderJSONError(log, w, err, http.StatusBadRequest)
		default:
			renderJSONError(log, w, errors.Wrap(err, "failed to start checkout"), http.StatusInternalServerError)
		}
		return
	}

	summary, _ := sess.checkout.Summary()
	writeJSON(w, summaryView(summary))
}

func (fe *frontendServer) checkoutSummaryHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	sess := fe.session(r)

	summary, ok := sess.checkout.Summary()
	if !ok {
		renderJSONError(log, w, checkout.ErrNoSession, http.StatusNotFound)
		return
	}
	writeJSON(w, summaryView(summary))
}

func (fe *frontendServer) submitShippingHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	sess := fe.session(r)

	var payload checkout.ShippingPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		renderJSONError(log, w, errors.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	if err := sess.checkout.SubmitShipping(payload); err != nil {
		var verr *checkout.ValidationError
		switch {
		case errors.As(err, &verr):
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			writeJSON(w, map[string]string{"error": verr.Error(), "field": verr.Field})
		case err == checkout.ErrNoSession:
			renderJSONError(log, w, err, http.StatusNotFound)
		default:
			renderJSONError(log, w, err, http.StatusConflict)
		}
		return
	}

	summary, _ := sess.checkout.Summary()
	writeJSON(w, summaryView(summary))
}

func (fe *frontendServer) confirmCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	log := requestLogger(r)
	sess := fe.session(r)

	res, err := sess.checkout.Confirm(r.Context())
	if err != nil {
		if err == checkout.ErrNoSession {
			renderJSONError(log, w, err, http.StatusNotFound)
			return
		}
		renderJSONError(log, w, err, http.StatusConflict)
		return
	}

	switch res.Status {
	case checkout.StatusSuccess:
		log.WithField("order", res.Reference).Info("order placed")
		writeJSON(w, map[string]string{
			"status":    res.Status.String(),
			"reference": res.Reference,
		})
	case checkout.StatusFailure:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		writeJSON(w, map[string]string{"status": res.Status.String(), "reason": res.Reason})
	case checkout.StatusCancelled:
		// Shopper-initiated; not an error.
		writeJSON(w, map[string]string{"status": res.Status.String()})
	}
}

func (fe *frontendServer) cancelCheckoutHandler(w http.ResponseWriter, r *http.Request) {
	sess := fe.session(r)
	sess.checkout.Cancel()
	w.WriteHeader(http.StatusNoContent)
}
