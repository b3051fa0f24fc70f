package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fyra/backend/internal/domain"
	"fyra/backend/internal/store"
)

func testStore(t *testing.T, policy string) *Store {
	t.Helper()
	s := New()
	s.ingredients["ing-a"] = domain.Ingredient{
		ID: "ing-a", Name: "Ingredient A", Unit: "g", PurchaseUnit: "kg",
		ConversionRate: 1000, CurrentStock: 100, CostPerUnit: 10000, MinThreshold: 50,
	}
	s.prepTasks["prep-a"] = domain.PrepTask{
		ID: "prep-a", Name: "Prep A", Unit: "ml", OnHand: 100, ParLevel: 400,
	}
	s.menuItems["menu-a"] = domain.MenuItem{
		ID: "menu-a", Name: "Dish A", Category: "main", Price: 20000,
		Recipe: []domain.RecipeLine{
			{ComponentID: "ing-a", Amount: 60, Unit: "g", Source: domain.SourceInventory},
		},
	}
	settings := store.DefaultSettings()
	settings.StockDeductionPolicy = policy
	settings.Loyalty.Enabled = false
	s.settings = settings
	return s
}

func saleCommit(invDed map[string]float64, prepDed map[string]float64) store.SaleCommit {
	return store.SaleCommit{
		Sale: domain.Sale{
			Items:         []domain.SaleItem{{MenuItemID: "menu-a", Name: "Dish A", Qty: 1, PriceAtSale: 20000, CostAtSale: 600}},
			TotalAmount:   20000,
			TotalCost:     600,
			PaymentMethod: domain.PaymentCash,
			OperatorID:    "op-1",
			OperatorName:  "Op",
		},
		InventoryDed: invDed,
		PrepDed:      prepDed,
	}
}

func TestCommitSaleDeductsAndAudits(t *testing.T) {
	s := testStore(t, domain.PolicyAllowNegative)
	ctx := context.Background()

	result, err := s.CommitSale(ctx, saleCommit(map[string]float64{"ing-a": 60}, nil))
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if result.Sale == nil || result.Sale.InvoiceNumber == "" {
		t.Fatal("expected committed sale with invoice number")
	}
	if len(result.NegativeIngredients) != 0 {
		t.Fatalf("stock stayed non-negative, got %v", result.NegativeIngredients)
	}

	ing, err := s.GetIngredient(ctx, "ing-a")
	if err != nil {
		t.Fatal(err)
	}
	if ing.CurrentStock != 40 {
		t.Fatalf("expected stock 40, got %v", ing.CurrentStock)
	}

	logs, err := s.ListAuditLogs(ctx, "", time.Time{}, time.Time{}, 10)
	if err != nil {
		t.Fatal(err)
	}
	var sawStock, sawSale bool
	for _, entry := range logs {
		if entry.EntityType == "ingredient" && entry.Action == domain.AuditActionUpdate {
			sawStock = true
		}
		if entry.EntityType == "sale" && entry.Action == domain.AuditActionTransaction {
			sawSale = true
		}
	}
	if !sawStock || !sawSale {
		t.Fatalf("expected stock and sale audit entries, got %+v", logs)
	}
}

func TestCommitSaleBlockedLeavesNoTrace(t *testing.T) {
	s := testStore(t, domain.PolicyBlockIfInsufficient)
	ctx := context.Background()

	result, err := s.CommitSale(ctx, saleCommit(map[string]float64{"ing-a": 150}, nil))
	if !errors.Is(err, store.ErrSaleBlocked) {
		t.Fatalf("expected ErrSaleBlocked, got %v", err)
	}
	if len(result.Shortages) != 1 || result.Shortages[0].Shortfall != 50 {
		t.Fatalf("expected shortfall 50 for ing-a, got %+v", result.Shortages)
	}

	ing, _ := s.GetIngredient(ctx, "ing-a")
	if ing.CurrentStock != 100 {
		t.Fatalf("blocked sale must not touch stock, got %v", ing.CurrentStock)
	}
	sales, _ := s.ListSales(ctx, time.Time{}, time.Time{}, 0)
	if len(sales) != 0 {
		t.Fatalf("blocked sale must not be recorded, got %d sales", len(sales))
	}
	logs, _ := s.ListAuditLogs(ctx, "", time.Time{}, time.Time{}, 10)
	if len(logs) != 0 {
		t.Fatalf("blocked sale must not audit, got %d entries", len(logs))
	}
}

func TestCommitSaleAllowNegativeGoesNegative(t *testing.T) {
	s := testStore(t, domain.PolicyAllowNegative)
	ctx := context.Background()

	result, err := s.CommitSale(ctx, saleCommit(map[string]float64{"ing-a": 150}, nil))
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if len(result.NegativeIngredients) != 1 || result.NegativeIngredients[0] != "ing-a" {
		t.Fatalf("expected ing-a flagged negative, got %v", result.NegativeIngredients)
	}
	ing, _ := s.GetIngredient(ctx, "ing-a")
	if ing.CurrentStock != -50 {
		t.Fatalf("expected stock -50, got %v", ing.CurrentStock)
	}
}

func TestCommitSaleConfirmationFlow(t *testing.T) {
	s := testStore(t, domain.PolicyRequireConfirmation)
	ctx := context.Background()

	commit := saleCommit(map[string]float64{"ing-a": 150}, nil)
	result, err := s.CommitSale(ctx, commit)
	if !errors.Is(err, store.ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired, got %v", err)
	}
	if len(result.Shortages) != 1 {
		t.Fatalf("expected shortage list, got %+v", result)
	}

	commit.ConfirmShortage = true
	result, err = s.CommitSale(ctx, commit)
	if err != nil {
		t.Fatalf("confirmed commit failed: %v", err)
	}
	if result.Sale == nil {
		t.Fatal("expected sale after confirmation")
	}
}

func TestCommitSalePrepCrossingNegative(t *testing.T) {
	s := testStore(t, domain.PolicyAllowNegative)
	ctx := context.Background()

	result, err := s.CommitSale(ctx, saleCommit(nil, map[string]float64{"prep-a": 150}))
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if len(result.NegativePrep) != 1 || result.NegativePrep[0] != "prep-a" {
		t.Fatalf("expected prep-a crossing negative, got %v", result.NegativePrep)
	}

	// Already negative prep does not cross again.
	result, err = s.CommitSale(ctx, saleCommit(nil, map[string]float64{"prep-a": 10}))
	if err != nil {
		t.Fatalf("second commit failed: %v", err)
	}
	if len(result.NegativePrep) != 0 {
		t.Fatalf("expected no new crossing, got %v", result.NegativePrep)
	}
}

func TestInvoiceNumbersStrictlyIncrease(t *testing.T) {
	s := testStore(t, domain.PolicyAllowNegative)
	ctx := context.Background()

	first, err := s.CommitSale(ctx, saleCommit(map[string]float64{"ing-a": 1}, nil))
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.CommitSale(ctx, saleCommit(map[string]float64{"ing-a": 1}, nil))
	if err != nil {
		t.Fatal(err)
	}
	if first.Sale.InvoiceNumber == second.Sale.InvoiceNumber {
		t.Fatalf("invoice numbers must differ, both %s", first.Sale.InvoiceNumber)
	}
	if !strings.HasPrefix(second.Sale.InvoiceNumber, "FYR-") {
		t.Fatalf("unexpected format %s", second.Sale.InvoiceNumber)
	}
}

func TestInvoiceCounterSurvivesReset(t *testing.T) {
	s := testStore(t, domain.PolicyAllowNegative)
	ctx := context.Background()

	first, err := s.CommitSale(ctx, saleCommit(map[string]float64{"ing-a": 1}, nil))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatal(err)
	}

	s.ingredients["ing-a"] = domain.Ingredient{ID: "ing-a", Name: "A", Unit: "g", ConversionRate: 1, CurrentStock: 10}
	second, err := s.CommitSale(ctx, saleCommit(map[string]float64{"ing-a": 1}, nil))
	if err != nil {
		t.Fatal(err)
	}
	if second.Sale.InvoiceNumber <= first.Sale.InvoiceNumber {
		t.Fatalf("counter must keep increasing across resets: %s then %s", first.Sale.InvoiceNumber, second.Sale.InvoiceNumber)
	}
}

func TestCommitSaleCashbackCreditsWallet(t *testing.T) {
	s := testStore(t, domain.PolicyAllowNegative)
	s.settings.Loyalty = domain.LoyaltySettings{Enabled: true, ProgramType: domain.LoyaltyProgramCashback, CashbackPercent: 2}
	ctx := context.Background()

	commit := saleCommit(map[string]float64{"ing-a": 1}, nil)
	commit.CustomerPhone = "0812000111"
	commit.CustomerName = "Budi"
	result, err := s.CommitSale(ctx, commit)
	if err != nil {
		t.Fatal(err)
	}
	if result.Customer == nil {
		t.Fatal("expected customer in result")
	}
	// 2% of 20000.
	if result.Customer.WalletBalance != 400 {
		t.Fatalf("expected wallet 400, got %d", result.Customer.WalletBalance)
	}
	if result.Customer.TotalVisits != 1 || result.Customer.Segment != domain.SegmentNew {
		t.Fatalf("unexpected customer stats %+v", result.Customer)
	}
}

func TestCommitSalePointsClampAtZero(t *testing.T) {
	s := testStore(t, domain.PolicyAllowNegative)
	s.settings.Loyalty = domain.LoyaltySettings{Enabled: true, ProgramType: domain.LoyaltyProgramPoints, PointsRate: 4000}
	ctx := context.Background()

	existing := domain.Customer{ID: "cus-1", Phone: "0812", LoyaltyPoints: 10, TotalVisits: 3, TotalSpent: 100000}
	s.customersByID[existing.ID] = existing
	s.customerIDPhone[existing.Phone] = existing.ID

	// Earn 5 (20000/4000), redeem 15: max(0, 10+5-15) = 0.
	commit := saleCommit(map[string]float64{"ing-a": 1}, nil)
	commit.CustomerPhone = "0812"
	commit.PointsToRedeem = 15
	result, err := s.CommitSale(ctx, commit)
	if err != nil {
		t.Fatal(err)
	}
	if result.Customer.LoyaltyPoints != 0 {
		t.Fatalf("expected points clamped at 0, got %d", result.Customer.LoyaltyPoints)
	}
}

func TestCommitSaleUpdatesFavoriteItems(t *testing.T) {
	s := testStore(t, domain.PolicyAllowNegative)
	ctx := context.Background()

	commit := saleCommit(map[string]float64{"ing-a": 1}, nil)
	commit.CustomerPhone = "0813"
	if _, err := s.CommitSale(ctx, commit); err != nil {
		t.Fatal(err)
	}
	result, err := s.CommitSale(ctx, commit)
	if err != nil {
		t.Fatal(err)
	}
	if got := result.Customer.FavoriteItems["menu-a"]; got != 2 {
		t.Fatalf("expected cumulative count 2, got %d", got)
	}
	if result.Customer.TotalVisits != 2 {
		t.Fatalf("expected 2 visits, got %d", result.Customer.TotalVisits)
	}
}

func TestShiftLifecycle(t *testing.T) {
	s := testStore(t, domain.PolicyAllowNegative)
	ctx := context.Background()

	shift, err := s.OpenShift(ctx, domain.Shift{StartingCash: 500_000})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.OpenShift(ctx, domain.Shift{StartingCash: 1}); !errors.Is(err, store.ErrShiftConflict) {
		t.Fatalf("second open shift must conflict, got %v", err)
	}

	// Three cash sales totalling 750000 plus one card sale.
	for _, amount := range []int64{250_000, 250_000, 250_000} {
		commit := saleCommit(map[string]float64{"ing-a": 1}, nil)
		commit.Sale.TotalAmount = amount
		commit.Sale.ShiftID = shift.ID
		if _, err := s.CommitSale(ctx, commit); err != nil {
			t.Fatal(err)
		}
	}
	card := saleCommit(map[string]float64{"ing-a": 1}, nil)
	card.Sale.TotalAmount = 100_000
	card.Sale.PaymentMethod = domain.PaymentCard
	card.Sale.ShiftID = shift.ID
	if _, err := s.CommitSale(ctx, card); err != nil {
		t.Fatal(err)
	}

	closed, err := s.CloseShift(ctx, shift.ID, 1_245_000, 1_000_000, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if closed.ExpectedCashSales != 1_250_000 {
		t.Fatalf("expected cash 1250000, got %d", closed.ExpectedCashSales)
	}
	if closed.Discrepancy != -5_000 {
		t.Fatalf("expected discrepancy -5000, got %d", closed.Discrepancy)
	}
	if closed.CardSales != 100_000 {
		t.Fatalf("expected card sales 100000, got %d", closed.CardSales)
	}

	if _, err := s.CloseShift(ctx, shift.ID, 0, 0, time.Now().UTC()); !errors.Is(err, store.ErrShiftConflict) {
		t.Fatalf("closing twice must conflict, got %v", err)
	}
	if _, err := s.GetOpenShift(ctx); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("no shift should remain open, got %v", err)
	}
}

func TestCommitSaleRejectsClosedShift(t *testing.T) {
	s := testStore(t, domain.PolicyAllowNegative)
	ctx := context.Background()

	shift, err := s.OpenShift(ctx, domain.Shift{StartingCash: 0})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CloseShift(ctx, shift.ID, 0, 0, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}

	commit := saleCommit(map[string]float64{"ing-a": 1}, nil)
	commit.Sale.ShiftID = shift.ID
	if _, err := s.CommitSale(ctx, commit); !errors.Is(err, store.ErrShiftConflict) {
		t.Fatalf("expected shift conflict, got %v", err)
	}
}

func TestCreateManagerTasksDedupByTitle(t *testing.T) {
	s := testStore(t, domain.PolicyAllowNegative)
	ctx := context.Background()

	tasks := []domain.ManagerTask{
		{Title: "Low stock: Ingredient A", Source: domain.TaskSourceRule},
		{Title: "Low stock: Ingredient A", Source: domain.TaskSourceRule},
	}
	created, err := s.CreateManagerTasks(ctx, tasks)
	if err != nil {
		t.Fatal(err)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 created, got %d", len(created))
	}

	again, err := s.CreateManagerTasks(ctx, tasks[:1])
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Fatalf("expected no duplicates, got %d", len(again))
	}

	if _, err := s.UpdateManagerTaskStatus(ctx, created[0].ID, domain.TaskStatusDone, time.Now().UTC()); err != nil {
		t.Fatal(err)
	}
	after, err := s.CreateManagerTasks(ctx, tasks[:1])
	if err != nil {
		t.Fatal(err)
	}
	if len(after) != 1 {
		t.Fatalf("done tasks should not block recreation, got %d", len(after))
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	if _, err := s.CommitSale(ctx, store.SaleCommit{
		Sale: domain.Sale{
			Items:         []domain.SaleItem{{MenuItemID: "menu-es-teh", Name: "Es Teh Manis", Qty: 2, PriceAtSale: 6000}},
			TotalAmount:   12000,
			PaymentMethod: domain.PaymentCash,
		},
		InventoryDed:  map[string]float64{"ing-teh": 10, "ing-gula": 40},
		CustomerPhone: "0812111",
	}); err != nil {
		t.Fatal(err)
	}

	snap, err := s.Export(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.SchemaVersion != store.SchemaVersion {
		t.Fatalf("expected schema version %d, got %d", store.SchemaVersion, snap.SchemaVersion)
	}

	restored := New()
	if err := restored.Import(ctx, snap); err != nil {
		t.Fatal(err)
	}
	ing, err := restored.GetIngredient(ctx, "ing-teh")
	if err != nil {
		t.Fatal(err)
	}
	if ing.CurrentStock != 890 {
		t.Fatalf("expected restored stock 890, got %v", ing.CurrentStock)
	}
	if _, err := restored.GetCustomerByPhone(ctx, "0812111"); err != nil {
		t.Fatalf("customer should survive round trip: %v", err)
	}

	again, _ := restored.Export(ctx)
	if again.InvoiceCounter != snap.InvoiceCounter {
		t.Fatalf("invoice counter changed in round trip: %d vs %d", again.InvoiceCounter, snap.InvoiceCounter)
	}
}

func TestSnapshotSinkReceivesState(t *testing.T) {
	s := testStore(t, domain.PolicyAllowNegative)
	sink := &captureSink{}
	s.SetSink(sink)
	ctx := context.Background()

	if _, err := s.CommitSale(ctx, saleCommit(map[string]float64{"ing-a": 10}, nil)); err != nil {
		t.Fatal(err)
	}
	if sink.saves == 0 {
		t.Fatal("expected sink to receive a snapshot")
	}
	if len(sink.last.Sales) != 1 {
		t.Fatalf("expected snapshot with 1 sale, got %d", len(sink.last.Sales))
	}
}

type captureSink struct {
	saves int
	last  store.Snapshot
}

func (c *captureSink) Save(_ context.Context, snap store.Snapshot) error {
	c.saves++
	c.last = snap
	return nil
}
