package broker

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"athena/internal/domain/decision"
)

// fakeGateway records broker calls in order and returns scripted results.
type fakeGateway struct {
	position     decision.Position
	quote        Quote
	quoteErr     error
	closeSuccess bool
	calls        []string
	orders       []OrderRequest
}

func newFakeGateway(pos decision.Position) *fakeGateway {
	return &fakeGateway{
		position:     pos,
		quote:        Quote{Bid: decimal.NewFromInt(100), Ask: decimal.NewFromInt(101)},
		closeSuccess: true,
	}
}

func (f *fakeGateway) CurrentPosition(ctx context.Context, symbol string) decision.Position {
	f.calls = append(f.calls, "position")
	return f.position
}

func (f *fakeGateway) AccountSnapshot(ctx context.Context) (AccountSnapshot, error) {
	f.calls = append(f.calls, "account")
	return AccountSnapshot{BuyingPower: decimal.NewFromInt(50000)}, nil
}

func (f *fakeGateway) OpenPosition(ctx context.Context, symbol string) (*PositionDetail, error) {
	f.calls = append(f.calls, "open_position")
	return nil, nil
}

func (f *fakeGateway) LatestQuote(ctx context.Context, symbol string) (Quote, error) {
	f.calls = append(f.calls, "quote")
	return f.quote, f.quoteErr
}

func (f *fakeGateway) PlaceMarketOrder(ctx context.Context, req OrderRequest) OrderResult {
	f.calls = append(f.calls, "order_"+string(req.Side))
	f.orders = append(f.orders, req)
	return OrderResult{Success: true, OrderID: "ord-1"}
}

func (f *fakeGateway) ClosePosition(ctx context.Context, symbol string, percentage float64) OrderResult {
	f.calls = append(f.calls, "close")
	if !f.closeSuccess {
		return OrderResult{Error: "close rejected"}
	}
	return OrderResult{Success: true, OrderID: "ord-close"}
}

func TestExecute_OpenLongFromNeutral(t *testing.T) {
	gw := newFakeGateway(decision.PositionNeutral)
	ex := NewExecutor(gw, 1000)

	steps := ex.Execute(context.Background(), "AAPL", decision.ModeTrading, decision.ActionLong)

	require.Len(t, steps, 1)
	assert.Equal(t, "open_long", steps[0].Action)
	assert.True(t, steps[0].Result.Success)
	require.Len(t, gw.orders, 1)
	assert.Equal(t, SideBuy, gw.orders[0].Side)
	// $1000 at a $100 bid sizes to 10 whole shares.
	assert.True(t, gw.orders[0].Qty.Equal(decimal.NewFromInt(10)))
}

func TestExecute_ReverseIsCloseThenOpen(t *testing.T) {
	gw := newFakeGateway(decision.PositionLong)
	ex := NewExecutor(gw, 1000)

	steps := ex.Execute(context.Background(), "AAPL", decision.ModeTrading, decision.ActionShort)

	require.Len(t, steps, 2)
	assert.Equal(t, "close_long", steps[0].Action)
	assert.Equal(t, "open_short", steps[1].Action)
	assert.Equal(t, SideSell, gw.orders[0].Side)
}

func TestExecute_ReverseSkipsOpenWhenCloseFails(t *testing.T) {
	gw := newFakeGateway(decision.PositionShort)
	gw.closeSuccess = false
	ex := NewExecutor(gw, 1000)

	steps := ex.Execute(context.Background(), "TSLA", decision.ModeTrading, decision.ActionLong)

	require.Len(t, steps, 1)
	assert.Equal(t, "close_short", steps[0].Action)
	assert.False(t, steps[0].Result.Success)
	assert.Empty(t, gw.orders)
}

func TestExecute_HoldPlacesNoOrders(t *testing.T) {
	gw := newFakeGateway(decision.PositionLong)
	ex := NewExecutor(gw, 1000)

	steps := ex.Execute(context.Background(), "AAPL", decision.ModeTrading, decision.ActionLong)

	require.Len(t, steps, 1)
	assert.Equal(t, string(decision.TransitionHold), steps[0].Action)
	assert.True(t, steps[0].Result.Success)
	assert.Empty(t, gw.orders)
}

func TestExecute_InvestmentBuySellHold(t *testing.T) {
	t.Run("buy without position", func(t *testing.T) {
		gw := newFakeGateway(decision.PositionNeutral)
		steps := NewExecutor(gw, 500).Execute(context.Background(), "NVDA", decision.ModeInvestment, decision.ActionBuy)
		require.Len(t, steps, 1)
		assert.Equal(t, "buy", steps[0].Action)
		require.Len(t, gw.orders, 1)
	})

	t.Run("buy with existing position holds", func(t *testing.T) {
		gw := newFakeGateway(decision.PositionLong)
		steps := NewExecutor(gw, 500).Execute(context.Background(), "NVDA", decision.ModeInvestment, decision.ActionBuy)
		require.Len(t, steps, 1)
		assert.Equal(t, "hold", steps[0].Action)
		assert.Empty(t, gw.orders)
	})

	t.Run("sell without position holds", func(t *testing.T) {
		gw := newFakeGateway(decision.PositionNeutral)
		steps := NewExecutor(gw, 500).Execute(context.Background(), "NVDA", decision.ModeInvestment, decision.ActionSell)
		require.Len(t, steps, 1)
		assert.Equal(t, "hold", steps[0].Action)
	})

	t.Run("sell with position closes", func(t *testing.T) {
		gw := newFakeGateway(decision.PositionLong)
		steps := NewExecutor(gw, 500).Execute(context.Background(), "NVDA", decision.ModeInvestment, decision.ActionSell)
		require.Len(t, steps, 1)
		assert.Equal(t, "sell", steps[0].Action)
		assert.True(t, steps[0].Result.Success)
	})
}

func TestShareQty_FallsBackToOneShare(t *testing.T) {
	gw := newFakeGateway(decision.PositionNeutral)
	gw.quote = Quote{} // no price available
	ex := NewExecutor(gw, 1000)

	steps := ex.Execute(context.Background(), "AAPL", decision.ModeTrading, decision.ActionLong)

	require.Len(t, gw.orders, 1)
	assert.True(t, gw.orders[0].Qty.Equal(decimal.NewFromInt(1)))
	assert.True(t, steps[0].Result.Success)
}
