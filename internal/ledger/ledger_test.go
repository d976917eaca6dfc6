package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mydash-app/mydash/internal/common/domain"
	"github.com/mydash-app/mydash/internal/dasherrs"
	"github.com/shopspring/decimal"
)

// --- In-memory gateway ---

type fakeGateway struct {
	mu           sync.Mutex
	nextID       int64
	holdings     map[int64]*domain.Holding
	transactions map[int64][]*domain.Transaction

	failWrites bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		nextID:       1,
		holdings:     make(map[int64]*domain.Holding),
		transactions: make(map[int64][]*domain.Transaction),
	}
}

func (g *fakeGateway) GetHoldingBySymbol(_ context.Context, portfolioID int64, symbol string) (*domain.Holding, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, h := range g.holdings {
		if h.PortfolioID == portfolioID && h.Symbol == symbol {
			clone := *h
			return &clone, nil
		}
	}

	return nil, nil
}

func (g *fakeGateway) GetHoldingsByPortfolio(_ context.Context, portfolioID int64) ([]*domain.Holding, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	holdings := []*domain.Holding{}
	for _, h := range g.holdings {
		if h.PortfolioID == portfolioID {
			clone := *h
			holdings = append(holdings, &clone)
		}
	}

	return holdings, nil
}

func (g *fakeGateway) GetHeldSymbols(context.Context) ([]string, error) {
	return nil, nil
}

func (g *fakeGateway) CreateHoldingWithTransaction(_ context.Context, holding *domain.Holding, transaction *domain.Transaction) (*domain.Holding, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failWrites {
		return nil, errors.New("storage down")
	}

	clone := *holding
	clone.ID = g.nextID
	clone.CreatedAt = time.Now()
	g.nextID++
	g.holdings[clone.ID] = &clone

	t := *transaction
	t.ID = g.nextID
	g.nextID++
	t.HoldingID = clone.ID
	g.transactions[clone.ID] = append(g.transactions[clone.ID], &t)

	result := clone
	return &result, nil
}

func (g *fakeGateway) UpdateHoldingWithTransaction(_ context.Context, holding *domain.Holding, transaction *domain.Transaction) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failWrites {
		return errors.New("storage down")
	}

	stored, ok := g.holdings[holding.ID]
	if !ok {
		return errors.New("holding not found")
	}

	stored.Quantity = holding.Quantity
	stored.AverageCost = holding.AverageCost
	stored.FirstPurchaseAt = holding.FirstPurchaseAt

	t := *transaction
	t.ID = g.nextID
	g.nextID++
	t.HoldingID = holding.ID
	g.transactions[holding.ID] = append(g.transactions[holding.ID], &t)

	return nil
}

func (g *fakeGateway) UpdateHolding(_ context.Context, id int64, quantity, averageCost decimal.Decimal) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	stored, ok := g.holdings[id]
	if !ok {
		return errors.New("holding not found")
	}

	stored.Quantity = quantity
	stored.AverageCost = averageCost
	return nil
}

func (g *fakeGateway) DeleteHolding(_ context.Context, id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.holdings, id)
	delete(g.transactions, id)
	return nil
}

func (g *fakeGateway) GetTransactionsByHolding(_ context.Context, holdingID int64) ([]*domain.Transaction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	log := g.transactions[holdingID]
	clone := make([]*domain.Transaction, len(log))
	copy(clone, log)
	return clone, nil
}

func (g *fakeGateway) AppendTransaction(_ context.Context, transaction *domain.Transaction) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.transactions[transaction.HoldingID] = append(g.transactions[transaction.HoldingID], transaction)
	return nil
}

func newTestLedger() (*Ledger, *fakeGateway) {
	gateway := newFakeGateway()
	return New(gateway, gateway), gateway
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// --- Tests ---

func TestRecordBuyOpensHolding(t *testing.T) {
	l, _ := newTestLedger()

	holding, err := l.RecordBuy(context.Background(), 1, "aapl", dec("10"), dec("150"), time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if holding.Symbol != "AAPL" {
		t.Errorf("symbol = %q, want normalized AAPL", holding.Symbol)
	}
	if !holding.Quantity.Equal(dec("10")) || !holding.AverageCost.Equal(dec("150")) {
		t.Errorf("state = (%s, %s), want (10, 150)", holding.Quantity, holding.AverageCost)
	}
}

func TestRecordBuyWeightedAverage(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()

	if _, err := l.RecordBuy(ctx, 1, "AAPL", dec("10"), dec("150"), time.Time{}); err != nil {
		t.Fatalf("first buy: %v", err)
	}

	holding, err := l.RecordBuy(ctx, 1, "AAPL", dec("5"), dec("160"), time.Time{})
	if err != nil {
		t.Fatalf("second buy: %v", err)
	}

	if !holding.Quantity.Equal(dec("15")) {
		t.Errorf("quantity = %s, want 15", holding.Quantity)
	}

	// (10*150 + 5*160) / 15 = 153.33...
	want := dec("2300").Div(dec("15"))
	if !holding.AverageCost.Equal(want) {
		t.Errorf("average cost = %s, want %s", holding.AverageCost, want)
	}
	if holding.AverageCost.Round(2).String() != "153.33" {
		t.Errorf("rounded average cost = %s, want 153.33", holding.AverageCost.Round(2))
	}
}

// The weighted mean of all buy prices is order-invariant, so any permutation
// of the same buys must land on the same average cost. Division rounds at 16
// decimal places, so the comparison allows the last digits to wobble.
func TestRecordBuyOrderInvariance(t *testing.T) {
	type buy struct{ quantity, price string }

	buys := []buy{{"10", "150"}, {"5", "160"}, {"2.5", "140.10"}, {"7", "155.45"}}
	permutations := [][]int{{0, 1, 2, 3}, {3, 2, 1, 0}, {1, 3, 0, 2}, {2, 0, 3, 1}}

	var averages []decimal.Decimal
	for _, order := range permutations {
		l, _ := newTestLedger()

		var holding *domain.Holding
		var err error
		for _, i := range order {
			holding, err = l.RecordBuy(context.Background(), 1, "AAPL", dec(buys[i].quantity), dec(buys[i].price), time.Time{})
			if err != nil {
				t.Fatalf("buy %d: %v", i, err)
			}
		}

		averages = append(averages, holding.AverageCost)
	}

	for i := 1; i < len(averages); i++ {
		if !averages[i].Round(10).Equal(averages[0].Round(10)) {
			t.Errorf("permutation %d average = %s, want %s", i, averages[i], averages[0])
		}
	}
}

func TestRecordSellKeepsAverageCost(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()

	l.RecordBuy(ctx, 1, "AAPL", dec("10"), dec("150"), time.Time{})
	l.RecordBuy(ctx, 1, "AAPL", dec("5"), dec("160"), time.Time{})

	result, err := l.RecordSell(ctx, 1, "AAPL", dec("5"), dec("170"), time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	avg := dec("2300").Div(dec("15"))
	if !result.Holding.Quantity.Equal(dec("10")) {
		t.Errorf("quantity = %s, want 10", result.Holding.Quantity)
	}
	if !result.Holding.AverageCost.Equal(avg) {
		t.Errorf("average cost changed on sell: %s, want %s", result.Holding.AverageCost, avg)
	}

	// 5 * (170 - 153.33...) = 83.33...
	wantGain := dec("5").Mul(dec("170").Sub(avg))
	if !result.RealizedGain.Equal(wantGain) {
		t.Errorf("realized gain = %s, want %s", result.RealizedGain, wantGain)
	}
	if result.RealizedGain.Round(2).String() != "83.33" {
		t.Errorf("rounded realized gain = %s, want 83.33", result.RealizedGain.Round(2))
	}
}

func TestRecordSellFullPositionResetsAverageCost(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()

	l.RecordBuy(ctx, 1, "AAPL", dec("10"), dec("150"), time.Time{})

	result, err := l.RecordSell(ctx, 1, "AAPL", dec("10"), dec("170"), time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !result.Holding.Quantity.IsZero() {
		t.Errorf("quantity = %s, want 0", result.Holding.Quantity)
	}
	if !result.Holding.AverageCost.IsZero() {
		t.Errorf("average cost = %s, want 0 after closing the position", result.Holding.AverageCost)
	}
}

func TestRecordSellRejectsOversellUnchangedState(t *testing.T) {
	l, gateway := newTestLedger()
	ctx := context.Background()

	l.RecordBuy(ctx, 1, "AAPL", dec("10"), dec("150"), time.Time{})

	_, err := l.RecordSell(ctx, 1, "AAPL", dec("11"), dec("170"), time.Time{})
	if !errors.Is(err, dasherrs.ErrInsufficientQuantity) {
		t.Fatalf("err = %v, want ErrInsufficientQuantity", err)
	}

	holding, _ := gateway.GetHoldingBySymbol(ctx, 1, "AAPL")
	if !holding.Quantity.Equal(dec("10")) || !holding.AverageCost.Equal(dec("150")) {
		t.Errorf("state changed by rejected sell: (%s, %s)", holding.Quantity, holding.AverageCost)
	}

	transactions, _ := gateway.GetTransactionsByHolding(ctx, holding.ID)
	if len(transactions) != 1 {
		t.Errorf("rejected sell appended a transaction: log has %d entries", len(transactions))
	}
}

func TestRecordSellUnknownHolding(t *testing.T) {
	l, _ := newTestLedger()

	_, err := l.RecordSell(context.Background(), 1, "AAPL", dec("1"), dec("170"), time.Time{})
	if !errors.Is(err, dasherrs.ErrHoldingNotFound) {
		t.Fatalf("err = %v, want ErrHoldingNotFound", err)
	}
}

func TestValidationErrors(t *testing.T) {
	l, _ := newTestLedger()
	ctx := context.Background()

	cases := []struct {
		name     string
		symbol   string
		quantity decimal.Decimal
		price    decimal.Decimal
		want     error
	}{
		{"empty symbol", "  ", dec("1"), dec("1"), dasherrs.ErrEmptySymbol},
		{"zero quantity", "AAPL", decimal.Zero, dec("1"), dasherrs.ErrInvalidQuantity},
		{"negative quantity", "AAPL", dec("-1"), dec("1"), dasherrs.ErrInvalidQuantity},
		{"zero price", "AAPL", dec("1"), decimal.Zero, dasherrs.ErrInvalidPrice},
		{"negative price", "AAPL", dec("1"), dec("-0.01"), dasherrs.ErrInvalidPrice},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := l.RecordBuy(ctx, 1, tc.symbol, tc.quantity, tc.price, time.Time{}); !errors.Is(err, tc.want) {
				t.Errorf("RecordBuy err = %v, want %v", err, tc.want)
			}
			if _, err := l.RecordSell(ctx, 1, tc.symbol, tc.quantity, tc.price, time.Time{}); !errors.Is(err, tc.want) {
				t.Errorf("RecordSell err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestRecordBuyPersistenceFailureLeavesNoState(t *testing.T) {
	l, gateway := newTestLedger()
	gateway.failWrites = true

	if _, err := l.RecordBuy(context.Background(), 1, "AAPL", dec("10"), dec("150"), time.Time{}); err == nil {
		t.Fatal("expected persistence failure")
	}

	if len(gateway.holdings) != 0 || len(gateway.transactions) != 0 {
		t.Error("failed mutation left partial state behind")
	}
}

func TestRecomputeRoundTrip(t *testing.T) {
	l, gateway := newTestLedger()
	ctx := context.Background()

	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	l.RecordBuy(ctx, 1, "AAPL", dec("10"), dec("150"), base)
	l.RecordBuy(ctx, 1, "AAPL", dec("5"), dec("160"), base.Add(time.Hour))
	l.RecordSell(ctx, 1, "AAPL", dec("5"), dec("170"), base.Add(2*time.Hour))
	l.RecordBuy(ctx, 1, "AAPL", dec("3"), dec("142.50"), base.Add(3*time.Hour))
	l.RecordSell(ctx, 1, "AAPL", dec("13"), dec("155"), base.Add(4*time.Hour))
	holding, err := l.RecordBuy(ctx, 1, "AAPL", dec("2"), dec("149.99"), base.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	transactions, _ := gateway.GetTransactionsByHolding(ctx, holding.ID)
	quantity, averageCost, err := RecomputeFromHistory(transactions)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}

	if !quantity.Equal(holding.Quantity) {
		t.Errorf("recomputed quantity = %s, stored %s", quantity, holding.Quantity)
	}
	if !averageCost.Equal(holding.AverageCost) {
		t.Errorf("recomputed average cost = %s, stored %s", averageCost, holding.AverageCost)
	}

	ok, err := l.VerifyHolding(ctx, holding)
	if err != nil || !ok {
		t.Errorf("VerifyHolding = (%v, %v), want (true, nil)", ok, err)
	}
}

func TestRecomputeOrdersByExecutionTime(t *testing.T) {
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)

	// Shuffled log: the sell executes last but appears first.
	transactions := []*domain.Transaction{
		{ID: 3, Kind: domain.TransactionKindSell, Quantity: dec("5"), Price: dec("170"), ExecutedAt: base.Add(2 * time.Hour)},
		{ID: 2, Kind: domain.TransactionKindBuy, Quantity: dec("5"), Price: dec("160"), ExecutedAt: base.Add(time.Hour)},
		{ID: 1, Kind: domain.TransactionKindBuy, Quantity: dec("10"), Price: dec("150"), ExecutedAt: base},
	}

	quantity, averageCost, err := RecomputeFromHistory(transactions)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}

	if !quantity.Equal(dec("10")) {
		t.Errorf("quantity = %s, want 10", quantity)
	}
	want := dec("2300").Div(dec("15"))
	if !averageCost.Equal(want) {
		t.Errorf("average cost = %s, want %s", averageCost, want)
	}
}

func TestRecomputeRejectsCorruptLog(t *testing.T) {
	transactions := []*domain.Transaction{
		{ID: 1, Kind: domain.TransactionKindSell, Quantity: dec("1"), Price: dec("10"), ExecutedAt: time.Now()},
	}

	if _, _, err := RecomputeFromHistory(transactions); !errors.Is(err, dasherrs.ErrInsufficientQuantity) {
		t.Errorf("err = %v, want ErrInsufficientQuantity", err)
	}
}

func TestDeleteHolding(t *testing.T) {
	l, gateway := newTestLedger()
	ctx := context.Background()

	holding, _ := l.RecordBuy(ctx, 1, "AAPL", dec("10"), dec("150"), time.Time{})

	if err := l.DeleteHolding(ctx, 1, "AAPL"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, _ := gateway.GetHoldingBySymbol(ctx, 1, "AAPL"); got != nil {
		t.Error("holding survived deletion")
	}
	if transactions, _ := gateway.GetTransactionsByHolding(ctx, holding.ID); len(transactions) != 0 {
		t.Error("transactions survived holding deletion")
	}
}

func TestConcurrentBuysSerialize(t *testing.T) {
	l, gateway := newTestLedger()
	ctx := context.Background()

	l.RecordBuy(ctx, 1, "AAPL", dec("1"), dec("100"), time.Time{})

	const buyers = 20

	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.RecordBuy(ctx, 1, "AAPL", dec("1"), dec("100"), time.Time{}); err != nil {
				t.Errorf("concurrent buy: %v", err)
			}
		}()
	}
	wg.Wait()

	holding, _ := gateway.GetHoldingBySymbol(ctx, 1, "AAPL")
	if !holding.Quantity.Equal(dec("21")) {
		t.Errorf("quantity = %s, want 21 (lost update)", holding.Quantity)
	}
	if !holding.AverageCost.Equal(dec("100")) {
		t.Errorf("average cost = %s, want 100", holding.AverageCost)
	}
}
