package broker

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"athena/internal/domain/decision"
	"athena/pkg/logger"
)

// ExecutionStep records one broker operation taken while applying a
// decision, with its outcome.
type ExecutionStep struct {
	Action string
	Result OrderResult
}

// Executor turns a normalized decision into broker operations. A
// reversal is executed as two operations, close then open, with the open
// gated on the close succeeding; there is no atomic flip.
type Executor struct {
	gateway      Gateway
	dollarAmount decimal.Decimal
	log          *logger.Logger
}

// NewExecutor creates an executor sizing orders to dollarAmount.
func NewExecutor(gateway Gateway, dollarAmount float64) *Executor {
	return &Executor{
		gateway:      gateway,
		dollarAmount: decimal.NewFromFloat(dollarAmount),
		log:          logger.Get().With("component", "broker_executor"),
	}
}

// Execute applies the signal for the given mode against the live broker
// position. It always returns the steps it took; failures are captured
// in each step's OrderResult and never abort the remaining report.
func (e *Executor) Execute(ctx context.Context, symbol string, mode decision.Mode, signal decision.Action) []ExecutionStep {
	current := e.gateway.CurrentPosition(ctx, symbol)

	if mode == decision.ModeTrading {
		return e.executeTrading(ctx, symbol, current, signal)
	}
	return e.executeInvestment(ctx, symbol, current, signal)
}

func (e *Executor) executeTrading(ctx context.Context, symbol string, current decision.Position, signal decision.Action) []ExecutionStep {
	transition, err := decision.Resolve(current, signal)
	if err != nil {
		return []ExecutionStep{{
			Action: "resolve",
			Result: OrderResult{Error: err.Error()},
		}}
	}

	e.log.Infow("executing transition",
		"symbol", symbol,
		"current", current,
		"signal", signal,
		"transition", transition.Kind)

	var steps []ExecutionStep

	switch transition.Kind {
	case decision.TransitionHold, decision.TransitionStayNeutral:
		steps = append(steps, ExecutionStep{
			Action: string(transition.Kind),
			Result: OrderResult{Success: true, Message: transition.Description},
		})

	case decision.TransitionOpenLong:
		steps = append(steps, e.open(ctx, symbol, SideBuy, "open_long"))

	case decision.TransitionOpenShort:
		steps = append(steps, e.open(ctx, symbol, SideSell, "open_short"))

	case decision.TransitionCloseLong:
		steps = append(steps, ExecutionStep{
			Action: "close_long",
			Result: e.gateway.ClosePosition(ctx, symbol, 100),
		})

	case decision.TransitionCloseShort:
		steps = append(steps, ExecutionStep{
			Action: "close_short",
			Result: e.gateway.ClosePosition(ctx, symbol, 100),
		})

	case decision.TransitionReverseToLong:
		closeStep := ExecutionStep{
			Action: "close_short",
			Result: e.gateway.ClosePosition(ctx, symbol, 100),
		}
		steps = append(steps, closeStep)
		if closeStep.Result.Success {
			steps = append(steps, e.open(ctx, symbol, SideBuy, "open_long"))
		}

	case decision.TransitionReverseToShort:
		closeStep := ExecutionStep{
			Action: "close_long",
			Result: e.gateway.ClosePosition(ctx, symbol, 100),
		}
		steps = append(steps, closeStep)
		if closeStep.Result.Success {
			steps = append(steps, e.open(ctx, symbol, SideSell, "open_short"))
		}
	}

	return steps
}

func (e *Executor) executeInvestment(ctx context.Context, symbol string, current decision.Position, signal decision.Action) []ExecutionStep {
	hasPosition := current == decision.PositionLong

	switch signal {
	case decision.ActionBuy:
		if hasPosition {
			return []ExecutionStep{{
				Action: "hold",
				Result: OrderResult{Success: true, Message: fmt.Sprintf("Already have position in %s", symbol)},
			}}
		}
		return []ExecutionStep{e.open(ctx, symbol, SideBuy, "buy")}

	case decision.ActionSell:
		if !hasPosition {
			return []ExecutionStep{{
				Action: "hold",
				Result: OrderResult{Success: true, Message: fmt.Sprintf("No position to sell in %s", symbol)},
			}}
		}
		return []ExecutionStep{{
			Action: "sell",
			Result: e.gateway.ClosePosition(ctx, symbol, 100),
		}}

	case decision.ActionHold:
		return []ExecutionStep{{
			Action: "hold",
			Result: OrderResult{Success: true, Message: fmt.Sprintf("Holding %s", symbol)},
		}}

	default:
		return []ExecutionStep{{
			Action: "skip",
			Result: OrderResult{Error: fmt.Sprintf("signal %s is not an investment-mode action", signal)},
		}}
	}
}

// open places a quantity-sized market order. Quantity is derived from the
// latest quote as an integer share count, at least one share, because
// fractional shares cannot be shorted.
func (e *Executor) open(ctx context.Context, symbol string, side OrderSide, action string) ExecutionStep {
	qty := e.shareQty(ctx, symbol)
	result := e.gateway.PlaceMarketOrder(ctx, OrderRequest{
		Symbol: symbol,
		Side:   side,
		Qty:    qty,
	})
	return ExecutionStep{Action: action, Result: result}
}

func (e *Executor) shareQty(ctx context.Context, symbol string) decimal.Decimal {
	one := decimal.NewFromInt(1)

	quote, err := e.gateway.LatestQuote(ctx, symbol)
	if err != nil {
		e.log.Warnw("quote lookup failed, sizing to one share", "symbol", symbol, "error", err)
		return one
	}

	price := quote.Bid
	if price.IsZero() {
		price = quote.Ask
	}
	if price.LessThanOrEqual(decimal.Zero) {
		return one
	}

	qty := e.dollarAmount.Div(price).Floor()
	if qty.LessThan(one) {
		return one
	}
	return qty
}
