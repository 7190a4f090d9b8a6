package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/geek-guru098/NEPSTORE/pkg/cart"
	"github.com/geek-guru098/NEPSTORE/pkg/model"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Stage int32

const (
	StageShippingEntry Stage = iota
	StagePaymentSelection
	StageSettling
	StageCompleted
	StageAborted
)

func (s Stage) String() string {
	switch s {
	case StageShippingEntry:
		return "SHIPPING_ENTRY"
	case StagePaymentSelection:
		return "PAYMENT_SELECTION"
	case StageSettling:
		return "SETTLING"
	case StageCompleted:
		return "COMPLETED"
	case StageAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

func (s Stage) terminal() bool {
	return s == StageCompleted || s == StageAborted
}

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrCheckoutInProgress = errors.New("a checkout is already in progress")
	ErrNoSession          = errors.New("no checkout session")
	ErrGatewayMissing     = errors.New("no gateway for payment method")
)

// Completion is the outbound signal emitted once a checkout completes.
type Completion struct {
	OrderReference string              `json:"order_reference"`
	Amount         int64               `json:"amount"`
	PaymentMethod  model.PaymentMethod `json:"payment_method"`
}

// Notifier receives the completion signal. The surrounding UI renders a
// confirmation from it; failures to notify never fail the checkout.
type Notifier interface {
	OrderCompleted(ctx context.Context, c Completion)
}

// session is one in-flight order: a snapshot of the cart at checkout entry
// plus the workflow stage. Later cart mutations never touch it.
type session struct {
	orderID      string
	lines        []cart.Line
	amount       int64
	shipping     model.ShippingInfo
	stage        Stage
	cancelSettle context.CancelFunc
}

// Orchestrator drives the checkout workflow:
//
//	ShippingEntry -> PaymentSelection -> Settling -> Completed
//
// with Aborted as a side exit from any non-terminal stage. It owns the only
// call to cart.Clear, on the Settling -> Completed transition. One session
// at a time: Begin is rejected until the prior session reaches a terminal
// stage.
type Orchestrator struct {
	mu       sync.Mutex
	cart     *cart.Store
	gateways map[model.PaymentMethod]Gateway
	notifier Notifier
	log      logrus.FieldLogger
	active   *session
}

func NewOrchestrator(store *cart.Store, gateways map[model.PaymentMethod]Gateway, notifier Notifier, log logrus.FieldLogger) *Orchestrator {
	return &Orchestrator{
		cart:     store,
		gateways: gateways,
		notifier: notifier,
		log:      log,
	}
}

// Begin enters ShippingEntry with a snapshot of the cart. The order amount
// is frozen here; editing the cart in another view during checkout does not
// change what gets charged.
func (o *Orchestrator) Begin(ctx context.Context) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active != nil && !o.active.stage.terminal() {
		return "", ErrCheckoutInProgress
	}

	lines := o.cart.Snapshot()
	if len(lines) == 0 {
		return "", ErrEmptyCart
	}

	var amount int64
	for _, ln := range lines {
		amount += ln.UnitPrice * int64(ln.Quantity)
	}

	o.active = &session{
		orderID: uuid.New().String(),
		lines:   lines,
		amount:  amount,
		stage:   StageShippingEntry,
	}
	o.log.Infof("[Checkout] session %s entered SHIPPING_ENTRY, amount NPR %d", o.active.orderID, amount)
	return o.active.orderID, nil
}

// SubmitShipping validates the shipping form and advances to
// PaymentSelection. On validation failure the stage does not move and the
// error is surfaced for re-entry. Once validated, shipping info is fixed;
// there is no way back to ShippingEntry short of cancelling.
func (o *Orchestrator) SubmitShipping(payload ShippingPayload) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	sess := o.active
	if sess == nil || sess.stage.terminal() {
		return ErrNoSession
	}
	if sess.stage != StageShippingEntry {
		return fmt.Errorf("cannot submit shipping in stage %s", sess.stage)
	}

	info, err := payload.Validate()
	if err != nil {
		return err
	}

	sess.shipping = info
	sess.stage = StagePaymentSelection
	o.log.Infof("[Checkout] session %s entered PAYMENT_SELECTION via %s", sess.orderID, info.PaymentMethod)
	return nil
}

// Confirm invokes the gateway selected by the shipping info and blocks until
// settlement resolves. On success the cart is cleared (exactly once) and the
// completion signal is emitted. A cancellation recorded while settling wins
// over a late gateway success: the success is dropped.
func (o *Orchestrator) Confirm(ctx context.Context) (SettlementResult, error) {
	o.mu.Lock()
	sess := o.active
	if sess == nil || sess.stage.terminal() {
		o.mu.Unlock()
		return SettlementResult{}, ErrNoSession
	}
	if sess.stage != StagePaymentSelection {
		o.mu.Unlock()
		return SettlementResult{}, fmt.Errorf("cannot confirm in stage %s", sess.stage)
	}

	gw, ok := o.gateways[sess.shipping.PaymentMethod]
	if !ok {
		o.mu.Unlock()
		return SettlementResult{}, ErrGatewayMissing
	}

	// Settlement runs on its own context so that only an explicit Cancel,
	// not the lifetime of the confirming request, can interrupt it.
	settleCtx, cancel := context.WithCancel(context.Background())
	sess.cancelSettle = cancel
	sess.stage = StageSettling
	o.log.Infof("[Checkout] session %s entered SETTLING", sess.orderID)
	o.mu.Unlock()
	defer cancel()

	res := gw.Charge(settleCtx, sess.amount, sess.orderID)

	o.mu.Lock()
	defer o.mu.Unlock()

	if sess.stage != StageSettling {
		// Cancelled while the gateway was in flight. The session is already
		// closed; whatever the gateway resolved to is discarded.
		o.log.Infof("[Checkout] session %s resolved %s after cancellation, dropping result", sess.orderID, res.Status)
		return SettlementResult{Status: StatusCancelled}, nil
	}

	switch res.Status {
	case StatusSuccess:
		sess.stage = StageCompleted
		o.active = nil
		o.cart.Clear(ctx)
		o.log.Infof("[Checkout] session %s COMPLETED, ref %s", sess.orderID, res.Reference)
		if o.notifier != nil {
			o.notifier.OrderCompleted(ctx, Completion{
				OrderReference: res.Reference,
				Amount:         sess.amount,
				PaymentMethod:  sess.shipping.PaymentMethod,
			})
		}
	case StatusFailure:
		sess.stage = StageAborted
		o.active = nil
		o.log.Warnf("[Checkout] session %s ABORTED, settlement failed: %s", sess.orderID, res.Reason)
	case StatusCancelled:
		sess.stage = StageAborted
		o.active = nil
		o.log.Infof("[Checkout] session %s ABORTED by cancellation", sess.orderID)
	}
	return res, nil
}

// Cancel aborts the current session from any non-terminal stage. The cart is
// left untouched so the shopper can retry without re-adding items. Calling
// Cancel with no open session is a no-op.
func (o *Orchestrator) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()

	sess := o.active
	if sess == nil || sess.stage.terminal() {
		return
	}

	sess.stage = StageAborted
	o.active = nil
	if sess.cancelSettle != nil {
		sess.cancelSettle()
	}
	o.log.Infof("[Checkout] session %s ABORTED by shopper", sess.orderID)
}

// Summary exposes the in-flight order for the order-summary view.
type Summary struct {
	OrderID  string
	Lines    []cart.Line
	Amount   int64
	Stage    Stage
	Shipping model.ShippingInfo
}

func (o *Orchestrator) Summary() (Summary, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.active == nil {
		return Summary{}, false
	}
	lines := make([]cart.Line, len(o.active.lines))
	copy(lines, o.active.lines)
	return Summary{
		OrderID:  o.active.orderID,
		Lines:    lines,
		Amount:   o.active.amount,
		Stage:    o.active.stage,
		Shipping: o.active.shipping,
	}, true
}
