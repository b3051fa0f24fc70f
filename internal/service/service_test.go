package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"fyra/backend/internal/domain"
	"fyra/backend/internal/store"
	"fyra/backend/internal/store/memory"
)

func adminCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "admin", Role: "admin"})
}

func cashierCtx() context.Context {
	return WithActor(context.Background(), domain.Actor{Username: "kasir", Role: "cashier"})
}

func newTestService(t *testing.T, policy string) (*Service, *memory.Store) {
	t.Helper()
	repo := memory.New()
	svc := New(repo, nil, nil, 0)

	settings := store.DefaultSettings()
	settings.StockDeductionPolicy = policy
	settings.Loyalty.Enabled = false
	if _, err := repo.UpdateSettings(context.Background(), settings); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	seed := []domain.Ingredient{
		{ID: "ing-beef", Name: "Beef", Unit: "g", PurchaseUnit: "kg", ConversionRate: 1000, CurrentStock: 1000, CostPerUnit: 80000, MinThreshold: 300},
		{ID: "ing-oil", Name: "Oil", Unit: "ml", PurchaseUnit: "l", ConversionRate: 1000, CurrentStock: 500, CostPerUnit: 20000},
	}
	for _, ing := range seed {
		if _, err := repo.CreateIngredient(ctx, ing); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := repo.CreatePrepTask(ctx, domain.PrepTask{
		ID: "prep-broth", Name: "Broth", Station: "stove", Unit: "ml", OnHand: 300, ParLevel: 1000, BatchSize: 1000,
		Recipe: []domain.RecipeLine{{ComponentID: "ing-beef", Amount: 500, Unit: "g", Source: domain.SourceInventory}},
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.CreateMenuItem(ctx, domain.MenuItem{
		ID: "menu-soup", Name: "Beef Soup", Category: "main", Price: 30000,
		Recipe: []domain.RecipeLine{
			{ComponentID: "ing-beef", Amount: 100, Unit: "g", Source: domain.SourceInventory},
			{ComponentID: "prep-broth", Amount: 200, Unit: "ml", Source: domain.SourcePrep},
		},
	}); err != nil {
		t.Fatal(err)
	}
	return svc, repo
}

func TestProcessTransactionTotalsAndCost(t *testing.T) {
	svc, _ := newTestService(t, domain.PolicyAllowNegative)

	tax := 10.0
	result, err := svc.ProcessTransaction(cashierCtx(), domain.SaleRequest{
		Cart:          []domain.CartLine{{MenuItemID: "menu-soup", Qty: 2}},
		PaymentMethod: domain.PaymentCash,
		Discount:      5000,
		TaxPercent:    &tax,
	})
	if err != nil {
		t.Fatal(err)
	}

	// subtotal 60000, +10% tax = 66000, -5000 discount.
	if result.Sale.TotalAmount != 61000 {
		t.Fatalf("expected total 61000, got %d", result.Sale.TotalAmount)
	}

	// beef 100g at 80/g = 8000; broth costs 500g beef per 1000ml = 40/ml,
	// 200ml = 8000. Per portion 16000, two portions 32000.
	if result.Sale.Items[0].CostAtSale != 16000 {
		t.Fatalf("expected cost at sale 16000, got %d", result.Sale.Items[0].CostAtSale)
	}
	var wantCost int64
	for _, item := range result.Sale.Items {
		wantCost += item.CostAtSale * int64(item.Qty)
	}
	if result.Sale.TotalCost != wantCost {
		t.Fatalf("total cost %d must equal sum of frozen line costs %d", result.Sale.TotalCost, wantCost)
	}
	if result.Sale.InvoiceNumber == "" || !strings.HasPrefix(result.Sale.InvoiceNumber, "FYR-") {
		t.Fatalf("bad invoice number %q", result.Sale.InvoiceNumber)
	}
	if result.InventoryShortage || result.PrepShortage {
		t.Fatalf("no shortage expected, got %+v", result)
	}
}

func TestProcessTransactionBlockedLeavesStateUntouched(t *testing.T) {
	svc, repo := newTestService(t, domain.PolicyBlockIfInsufficient)
	ctx := cashierCtx()

	// 12 portions need 1200g beef directly plus 2400ml broth; beef is the
	// blocker.
	_, err := svc.ProcessTransaction(ctx, domain.SaleRequest{
		Cart:          []domain.CartLine{{MenuItemID: "menu-soup", Qty: 12}},
		PaymentMethod: domain.PaymentCash,
	})
	if !errors.Is(err, store.ErrSaleBlocked) {
		t.Fatalf("expected ErrSaleBlocked, got %v", err)
	}

	ing, err := repo.GetIngredient(context.Background(), "ing-beef")
	if err != nil {
		t.Fatal(err)
	}
	if ing.CurrentStock != 1000 {
		t.Fatalf("blocked sale must not deduct, got %v", ing.CurrentStock)
	}
	sales, _ := repo.ListSales(context.Background(), time.Time{}, time.Time{}, 0)
	if len(sales) != 0 {
		t.Fatalf("blocked sale must not be recorded, got %d", len(sales))
	}
}

func TestProcessTransactionConfirmationOverride(t *testing.T) {
	svc, _ := newTestService(t, domain.PolicyRequireConfirmation)
	ctx := cashierCtx()

	req := domain.SaleRequest{
		Cart:          []domain.CartLine{{MenuItemID: "menu-soup", Qty: 12}},
		PaymentMethod: domain.PaymentCash,
	}
	result, err := svc.ProcessTransaction(ctx, req)
	if !errors.Is(err, store.ErrConfirmationRequired) {
		t.Fatalf("expected ErrConfirmationRequired, got %v", err)
	}
	if len(result.Shortages) == 0 {
		t.Fatal("expected shortage details for the caller")
	}

	req.ConfirmShortage = true
	result, err = svc.ProcessTransaction(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if !result.InventoryShortage {
		t.Fatal("expected inventory shortage flag after override")
	}
	if !result.PrepShortage {
		t.Fatal("expected prep shortage flag after override")
	}
}

func TestProcessTransactionPrepShortageQueuesTask(t *testing.T) {
	svc, repo := newTestService(t, domain.PolicyAllowNegative)

	// 2 portions need 400ml broth against 300ml on hand.
	result, err := svc.ProcessTransaction(cashierCtx(), domain.SaleRequest{
		Cart:          []domain.CartLine{{MenuItemID: "menu-soup", Qty: 2}},
		PaymentMethod: domain.PaymentCash,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.PrepShortage {
		t.Fatal("expected prep shortage flag")
	}

	tasks, err := repo.ListManagerTasks(context.Background(), domain.TaskStatusOpen)
	if err != nil {
		t.Fatal(err)
	}
	var found *domain.ManagerTask
	for i := range tasks {
		if tasks[i].Title == "Prep depleted: Broth" {
			found = &tasks[i]
		}
	}
	if found == nil {
		t.Fatalf("expected prep depletion task, got %+v", tasks)
	}
	if found.Priority != domain.TaskPriorityHigh {
		t.Fatalf("expected high priority, got %s", found.Priority)
	}
	if len(found.Evidence) != 1 || found.Evidence[0] != "Beef Soup" {
		t.Fatalf("expected affected menu item named, got %v", found.Evidence)
	}
}

func TestProcessTransactionRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t, domain.PolicyAllowNegative)
	ctx := cashierCtx()

	cases := []domain.SaleRequest{
		{PaymentMethod: domain.PaymentCash},
		{Cart: []domain.CartLine{{MenuItemID: "menu-soup", Qty: 0}}, PaymentMethod: domain.PaymentCash},
		{Cart: []domain.CartLine{{MenuItemID: "menu-soup", Qty: 1}}, PaymentMethod: "barter"},
		{Cart: []domain.CartLine{{MenuItemID: "menu-soup", Qty: 1}}, PaymentMethod: domain.PaymentCash, Discount: -1},
		{Cart: []domain.CartLine{{MenuItemID: "menu-soup", Qty: 1}}, PaymentMethod: domain.PaymentCash, Discount: 999_999},
	}
	for i, req := range cases {
		if _, err := svc.ProcessTransaction(ctx, req); !errors.Is(err, store.ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
	if _, err := svc.ProcessTransaction(ctx, domain.SaleRequest{
		Cart:          []domain.CartLine{{MenuItemID: "menu-gone", Qty: 1}},
		PaymentMethod: domain.PaymentCash,
	}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown item, got %v", err)
	}
}

func TestLowStockTaskAfterSale(t *testing.T) {
	svc, _ := newTestService(t, domain.PolicyAllowNegative)
	ctx := cashierCtx()

	// 8 portions deduct 800g beef directly plus 1600ml broth (broth is
	// prep, beef stays at 200g which is under the 300g threshold).
	if _, err := svc.ProcessTransaction(ctx, domain.SaleRequest{
		Cart:            []domain.CartLine{{MenuItemID: "menu-soup", Qty: 8}},
		PaymentMethod:   domain.PaymentCash,
		ConfirmShortage: true,
	}); err != nil {
		t.Fatal(err)
	}

	created, err := svc.GenerateTasks(adminCtx())
	if err != nil {
		t.Fatal(err)
	}
	var low int
	for _, task := range created {
		if task.Title == "Low stock: Beef" {
			low++
		}
	}
	if low != 1 {
		t.Fatalf("expected exactly one low stock task for Beef, got %d (%+v)", low, created)
	}

	// Second run creates nothing new.
	again, err := svc.GenerateTasks(adminCtx())
	if err != nil {
		t.Fatal(err)
	}
	if len(again) != 0 {
		t.Fatalf("generator must be idempotent, got %+v", again)
	}
}

func TestShiftFlowThroughService(t *testing.T) {
	svc, _ := newTestService(t, domain.PolicyAllowNegative)
	ctx := cashierCtx()

	shift, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{StartingCash: 500_000})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{StartingCash: 0}); !errors.Is(err, store.ErrShiftConflict) {
		t.Fatalf("expected shift conflict, got %v", err)
	}

	if _, err := svc.ProcessTransaction(ctx, domain.SaleRequest{
		Cart:          []domain.CartLine{{MenuItemID: "menu-soup", Qty: 1}},
		PaymentMethod: domain.PaymentCash,
		ShiftID:       shift.ID,
	}); err != nil {
		t.Fatal(err)
	}

	closed, err := svc.CloseShift(ctx, domain.ShiftCloseRequest{ShiftID: shift.ID, ActualCash: 530_000})
	if err != nil {
		t.Fatal(err)
	}
	// One cash sale of 33000 (30000 +10% default tax).
	if closed.ExpectedCashSales != 533_000 {
		t.Fatalf("expected cash 533000, got %d", closed.ExpectedCashSales)
	}
	if closed.Discrepancy != -3_000 {
		t.Fatalf("expected discrepancy -3000, got %d", closed.Discrepancy)
	}
}

func TestRecordWaste(t *testing.T) {
	svc, repo := newTestService(t, domain.PolicyAllowNegative)
	ctx := adminCtx()

	// 0.2 kg of beef = 200g at 80/g.
	result, err := svc.RecordWaste(ctx, domain.WasteRequest{IngredientID: "ing-beef", Amount: 0.2, Unit: "kg", Reason: "dropped"})
	if err != nil {
		t.Fatal(err)
	}
	if result.UnitMismatch {
		t.Fatal("kg to g should convert")
	}
	if result.Deducted != 200 || result.Loss != 16000 {
		t.Fatalf("expected 200g and loss 16000, got %+v", result)
	}
	ing, _ := repo.GetIngredient(context.Background(), "ing-beef")
	if ing.CurrentStock != 800 {
		t.Fatalf("expected stock 800, got %v", ing.CurrentStock)
	}
}

func TestRecordWasteUnitMismatchIsNonFatal(t *testing.T) {
	svc, repo := newTestService(t, domain.PolicyAllowNegative)

	result, err := svc.RecordWaste(adminCtx(), domain.WasteRequest{IngredientID: "ing-beef", Amount: 1, Unit: "ml"})
	if err != nil {
		t.Fatal(err)
	}
	if !result.UnitMismatch || result.Loss != 0 {
		t.Fatalf("expected mismatch with zero loss, got %+v", result)
	}
	ing, _ := repo.GetIngredient(context.Background(), "ing-beef")
	if ing.CurrentStock != 1000 {
		t.Fatalf("mismatch must not deduct, got %v", ing.CurrentStock)
	}
}

func TestApplyInvoiceRestocksAndCreates(t *testing.T) {
	svc, repo := newTestService(t, domain.PolicyAllowNegative)
	ctx := adminCtx()

	touched, err := svc.ApplyInvoice(ctx, domain.InvoiceIngestRequest{
		Items: []domain.InvoiceLine{
			{Name: "Beef", Qty: 2, Unit: "kg", CostPerUnit: 85000, MatchedID: "ing-beef"},
			{Name: "Kecap Manis", Qty: 3, Unit: "l", CostPerUnit: 25000, IsNew: true},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(touched) != 2 {
		t.Fatalf("expected 2 touched ingredients, got %d", len(touched))
	}

	beef, _ := repo.GetIngredient(context.Background(), "ing-beef")
	// 2 kg at 1000 g/kg on top of 1000g.
	if beef.CurrentStock != 3000 {
		t.Fatalf("expected 3000g beef, got %v", beef.CurrentStock)
	}
	if beef.CostPerUnit != 85000 {
		t.Fatalf("expected cost updated to 85000, got %d", beef.CostPerUnit)
	}
	if len(beef.PurchaseHistory) != 1 {
		t.Fatalf("expected purchase history entry, got %+v", beef.PurchaseHistory)
	}

	created := touched[1]
	if created.CurrentStock != 3 || created.ConversionRate != 1 {
		t.Fatalf("unexpected new ingredient %+v", created)
	}
}

func TestApplyInvoiceRequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t, domain.PolicyAllowNegative)
	_, err := svc.ApplyInvoice(cashierCtx(), domain.InvoiceIngestRequest{
		Items: []domain.InvoiceLine{{Name: "X", Qty: 1, IsNew: true}},
	})
	if err == nil {
		t.Fatal("cashier must not apply invoices")
	}
}

func TestCompletePrepBatch(t *testing.T) {
	svc, repo := newTestService(t, domain.PolicyAllowNegative)
	ctx := adminCtx()

	prep, err := svc.CompletePrepBatch(ctx, "prep-broth", 2)
	if err != nil {
		t.Fatal(err)
	}
	// 2 batches of 1000ml on top of 300ml.
	if prep.OnHand != 2300 {
		t.Fatalf("expected on hand 2300, got %v", prep.OnHand)
	}
	beef, _ := repo.GetIngredient(context.Background(), "ing-beef")
	// 2 batches consume 1000g.
	if beef.CurrentStock != 0 {
		t.Fatalf("expected beef fully consumed, got %v", beef.CurrentStock)
	}
	// Batch costs 500g beef at 80/g = 40000 over 1000ml.
	if prep.CostPerUnit != 40 {
		t.Fatalf("expected refreshed unit cost 40, got %d", prep.CostPerUnit)
	}
}

func TestDailyReportAggregates(t *testing.T) {
	svc, _ := newTestService(t, domain.PolicyAllowNegative)
	ctx := cashierCtx()

	for i := 0; i < 2; i++ {
		if _, err := svc.ProcessTransaction(ctx, domain.SaleRequest{
			Cart:          []domain.CartLine{{MenuItemID: "menu-soup", Qty: 1}},
			PaymentMethod: domain.PaymentCash,
		}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := svc.RecordWaste(adminCtx(), domain.WasteRequest{IngredientID: "ing-oil", Amount: 100, Unit: "ml"}); err != nil {
		t.Fatal(err)
	}

	report, err := svc.DailyReport(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if report.Transactions != 2 {
		t.Fatalf("expected 2 transactions, got %d", report.Transactions)
	}
	// Two sales of 33000 each.
	if report.Revenue != 66000 {
		t.Fatalf("expected revenue 66000, got %d", report.Revenue)
	}
	if report.GrossMargin != report.Revenue-report.COGS {
		t.Fatalf("margin mismatch: %+v", report)
	}
	// 100ml oil at 20/ml.
	if report.WasteLoss != 2000 {
		t.Fatalf("expected waste loss 2000, got %d", report.WasteLoss)
	}
	if report.ByPayment[domain.PaymentCash] != 66000 {
		t.Fatalf("expected cash bucket 66000, got %+v", report.ByPayment)
	}
}

func TestExpensesFlowIntoDailyReport(t *testing.T) {
	svc, _ := newTestService(t, domain.PolicyAllowNegative)
	ctx := cashierCtx()

	if _, err := svc.CreateExpense(ctx, domain.ExpenseCreateRequest{Amount: 150_000}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected category to be required, got %v", err)
	}
	if _, err := svc.CreateExpense(ctx, domain.ExpenseCreateRequest{Category: "utilities", Amount: 0}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected positive amount to be required, got %v", err)
	}

	expense, err := svc.CreateExpense(ctx, domain.ExpenseCreateRequest{Category: "utilities", Description: "electricity", Amount: 150_000})
	if err != nil {
		t.Fatal(err)
	}
	if expense.ID == "" || expense.OperatorID != "kasir" {
		t.Fatalf("unexpected expense %+v", expense)
	}
	if _, err := svc.CreateExpense(ctx, domain.ExpenseCreateRequest{Category: "rent", Amount: 2_000_000}); err != nil {
		t.Fatal(err)
	}

	report, err := svc.DailyReport(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if report.Expenses != 2_150_000 {
		t.Fatalf("expected expenses 2150000, got %d", report.Expenses)
	}

	listed, err := svc.ListExpenses(ctx, time.Now().UTC().Format("2006-01-02"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 expenses, got %d", len(listed))
	}
}

func TestBuildReceipt(t *testing.T) {
	svc, _ := newTestService(t, domain.PolicyAllowNegative)

	result, err := svc.ProcessTransaction(cashierCtx(), domain.SaleRequest{
		Cart:          []domain.CartLine{{MenuItemID: "menu-soup", Qty: 1}},
		PaymentMethod: domain.PaymentCard,
	})
	if err != nil {
		t.Fatal(err)
	}

	receipt, err := svc.BuildReceipt(context.Background(), result.Sale.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(receipt.PreviewText, result.Sale.InvoiceNumber) {
		t.Fatal("preview must contain the invoice number")
	}
	if receipt.EscposBase64 == "" || receipt.QRPNGBase64 == "" {
		t.Fatal("expected ESC/POS and QR payloads")
	}
}

func TestSettingsRequireAdmin(t *testing.T) {
	svc, _ := newTestService(t, domain.PolicyAllowNegative)

	settings := store.DefaultSettings()
	if _, err := svc.UpdateSettings(cashierCtx(), settings); err == nil {
		t.Fatal("cashier must not update settings")
	}
	if _, err := svc.UpdateSettings(adminCtx(), settings); err != nil {
		t.Fatal(err)
	}
}

func TestLoyaltyThroughTransaction(t *testing.T) {
	svc, repo := newTestService(t, domain.PolicyAllowNegative)

	settings, _ := repo.GetSettings(context.Background())
	settings.Loyalty = domain.LoyaltySettings{Enabled: true, ProgramType: domain.LoyaltyProgramPoints, PointsRate: 10_000}
	if _, err := repo.UpdateSettings(context.Background(), settings); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ProcessTransaction(cashierCtx(), domain.SaleRequest{
		Cart:          []domain.CartLine{{MenuItemID: "menu-soup", Qty: 1}},
		PaymentMethod: domain.PaymentCash,
		CustomerPhone: "0812998",
	}); err != nil {
		t.Fatal(err)
	}

	customer, err := svc.GetCustomerByPhone(context.Background(), "0812998")
	if err != nil {
		t.Fatal(err)
	}
	// 33000 total at 10000 per point.
	if customer.LoyaltyPoints != 3 {
		t.Fatalf("expected 3 points, got %d", customer.LoyaltyPoints)
	}
	if customer.Segment != domain.SegmentNew || customer.TotalVisits != 1 {
		t.Fatalf("unexpected customer %+v", customer)
	}
}

func TestShiftDetailListsItsSales(t *testing.T) {
	svc, _ := newTestService(t, domain.PolicyAllowNegative)
	ctx := cashierCtx()

	shift, err := svc.OpenShift(ctx, domain.ShiftOpenRequest{StartingCash: 100_000})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ProcessTransaction(ctx, domain.SaleRequest{
		Cart:          []domain.CartLine{{MenuItemID: "menu-soup", Qty: 1}},
		PaymentMethod: domain.PaymentCash,
		ShiftID:       shift.ID,
	}); err != nil {
		t.Fatal(err)
	}
	// A sale outside the shift must not show up in the detail.
	if _, err := svc.ProcessTransaction(ctx, domain.SaleRequest{
		Cart:          []domain.CartLine{{MenuItemID: "menu-soup", Qty: 1}},
		PaymentMethod: domain.PaymentCard,
	}); err != nil {
		t.Fatal(err)
	}

	detail, err := svc.GetShiftDetail(ctx, shift.ID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Shift.ID != shift.ID || detail.Shift.Status != domain.ShiftStatusOpen {
		t.Fatalf("unexpected shift %+v", detail.Shift)
	}
	if len(detail.Sales) != 1 || detail.Sales[0].ShiftID != shift.ID {
		t.Fatalf("expected the one shift sale, got %+v", detail.Sales)
	}

	if _, err := svc.GetShiftDetail(ctx, "shift-missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateCustomerProfile(t *testing.T) {
	svc, _ := newTestService(t, domain.PolicyAllowNegative)
	ctx := cashierCtx()

	created, err := svc.CreateCustomer(ctx, domain.CustomerCreateRequest{Phone: "0811111", Name: "Budi"})
	if err != nil {
		t.Fatal(err)
	}

	name := "Budi Santoso"
	phone := "0822222"
	updated, err := svc.UpdateCustomer(ctx, created.ID, domain.CustomerUpdateRequest{Name: &name, Phone: &phone})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Budi Santoso" || updated.Phone != "0822222" {
		t.Fatalf("unexpected customer %+v", updated)
	}

	if _, err := svc.GetCustomerByPhone(ctx, "0822222"); err != nil {
		t.Fatalf("new phone must resolve: %v", err)
	}
	if _, err := svc.GetCustomerByPhone(ctx, "0811111"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("old phone must be released, got %v", err)
	}

	empty := "  "
	if _, err := svc.UpdateCustomer(ctx, created.ID, domain.CustomerUpdateRequest{Phone: &empty}); !errors.Is(err, store.ErrInvalidInput) {
		t.Fatalf("expected invalid input for blank phone, got %v", err)
	}
	if _, err := svc.UpdateCustomer(ctx, "cus-missing", domain.CustomerUpdateRequest{Name: &name}); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

// ttlRecordingCache remembers the TTL of the last Set call.
type ttlRecordingCache struct {
	sets    int
	lastTTL time.Duration
}

func (c *ttlRecordingCache) Get(_ context.Context, _ string) (*domain.DailyReport, bool, error) {
	return nil, false, nil
}

func (c *ttlRecordingCache) Set(_ context.Context, _ string, _ *domain.DailyReport, ttl time.Duration) error {
	c.sets++
	c.lastTTL = ttl
	return nil
}

func (c *ttlRecordingCache) Invalidate(_ context.Context, _ ...string) error {
	return nil
}

func TestReportCacheUsesConfiguredTTL(t *testing.T) {
	recorder := &ttlRecordingCache{}
	svc := New(memory.New(), recorder, nil, 90*time.Second)
	if _, err := svc.DailyReport(context.Background(), "2026-08-29"); err != nil {
		t.Fatal(err)
	}
	if recorder.sets != 1 || recorder.lastTTL != 90*time.Second {
		t.Fatalf("expected one set with 90s TTL, got %d sets at %v", recorder.sets, recorder.lastTTL)
	}

	recorder = &ttlRecordingCache{}
	svc = New(memory.New(), recorder, nil, 0)
	if _, err := svc.DailyReport(context.Background(), "2026-08-29"); err != nil {
		t.Fatal(err)
	}
	if recorder.lastTTL != 45*time.Second {
		t.Fatalf("expected 45s default TTL, got %v", recorder.lastTTL)
	}
}
