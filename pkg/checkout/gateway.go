package checkout

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

type SettlementStatus int32

const (
	StatusSuccess SettlementStatus = iota
	StatusFailure
	StatusCancelled
)

func (s SettlementStatus) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusFailure:
		return "FAILURE"
	case StatusCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// SettlementResult is the uniform outcome contract shared by all payment
// methods. Reference is set on success, Reason on failure.
type SettlementResult struct {
	Status    SettlementStatus
	Reference string
	Reason    string
}

// Gateway settles one payment attempt. Charge blocks until the attempt
// resolves; cancelling ctx before resolution yields a Cancelled result.
type Gateway interface {
	Charge(ctx context.Context, amount int64, orderID string) SettlementResult
}

// walletGateway simulates a Khalti wallet settlement with a fixed delay. The
// circuit breaker sits where a real network client would, so swapping in an
// actual settlement backend does not change the orchestrator.
type walletGateway struct {
	delay time.Duration
	cb    *gobreaker.CircuitBreaker
	log   *logrus.Logger
}

func NewWalletGateway(delay time.Duration, log *logrus.Logger) Gateway {
	st := gobreaker.Settings{
		Name:        "WalletSettlement",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnf("CircuitBreaker[%s] state changed from %s to %s", name, from, to)
		},
	}

	return &walletGateway{
		delay: delay,
		cb:    gobreaker.NewCircuitBreaker(st),
		log:   log,
	}
}

func (g *walletGateway) Charge(ctx context.Context, amount int64, orderID string) SettlementResult {
	if amount <= 0 {
		return SettlementResult{Status: StatusFailure, Reason: "amount must be positive"}
	}

	res, err := g.cb.Execute(func() (interface{}, error) {
		return g.settle(ctx, amount, orderID)
	})
	if err != nil {
		if ctx.Err() != nil {
			g.log.Infof("[WalletGateway] settlement for order %s cancelled", orderID)
			return SettlementResult{Status: StatusCancelled}
		}
		g.log.Warnf("[WalletGateway] settlement for order %s failed: %v", orderID, err)
		return SettlementResult{Status: StatusFailure, Reason: err.Error()}
	}
	return SettlementResult{Status: StatusSuccess, Reference: res.(string)}
}

func (g *walletGateway) settle(ctx context.Context, amount int64, orderID string) (string, error) {
	timer := time.NewTimer(g.delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		ref := "KH-" + uuid.New().String()
		g.log.Infof("[WalletGateway] settled NPR %d for order %s, ref %s", amount, orderID, ref)
		return ref, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// codGateway confirms order placement immediately; the actual cash exchange
// happens at delivery.
type codGateway struct {
	log *logrus.Logger
}

func NewCODGateway(log *logrus.Logger) Gateway {
	return &codGateway{log: log}
}

func (g *codGateway) Charge(ctx context.Context, amount int64, orderID string) SettlementResult {
	if amount <= 0 {
		return SettlementResult{Status: StatusFailure, Reason: "amount must be positive"}
	}
	ref := "COD-" + uuid.New().String()
	g.log.Infof("[CODGateway] order %s confirmed for NPR %d, ref %s", orderID, amount, ref)
	return SettlementResult{Status: StatusSuccess, Reference: ref}
}
