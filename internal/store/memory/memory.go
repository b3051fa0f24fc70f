// Package memory is the live state container. All collections are owned
// here and every mutation happens under one writer lock, so readers never
// observe a half-applied transaction. An optional snapshot sink receives
// the full state after each successful mutation.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fyra/backend/internal/domain"
	"fyra/backend/internal/invoice"
	"fyra/backend/internal/segment"
	"fyra/backend/internal/store"
	"fyra/backend/internal/xid"
)

type Store struct {
	mu              sync.RWMutex
	ingredients     map[string]domain.Ingredient
	prepTasks       map[string]domain.PrepTask
	menuItems       map[string]domain.MenuItem
	salesByID       map[string]domain.Sale
	expensesByID    map[string]domain.Expense
	customersByID   map[string]domain.Customer
	customerIDPhone map[string]string
	shiftsByID      map[string]domain.Shift
	openShiftID     string
	managerTasks    map[string]domain.ManagerTask
	auditLogs       []domain.AuditLog
	usersByUsername map[string]domain.UserAccount
	settings        domain.Settings
	invoiceCounter  int64
	invoiceYear     int

	sink store.SnapshotSink
}

func New() *Store {
	return &Store{
		ingredients:     map[string]domain.Ingredient{},
		prepTasks:       map[string]domain.PrepTask{},
		menuItems:       map[string]domain.MenuItem{},
		salesByID:       map[string]domain.Sale{},
		expensesByID:    map[string]domain.Expense{},
		customersByID:   map[string]domain.Customer{},
		customerIDPhone: map[string]string{},
		shiftsByID:      map[string]domain.Shift{},
		managerTasks:    map[string]domain.ManagerTask{},
		auditLogs:       make([]domain.AuditLog, 0, 128),
		usersByUsername: map[string]domain.UserAccount{},
		settings:        store.DefaultSettings(),
	}
}

// seedUsers builds the initial user accounts for dev/demo mode. Credentials
// come from SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD; unset variables
// fall back to hardcoded dev defaults with a warning.
func seedUsers() map[string]domain.UserAccount {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	cashierPwd := envOr("SEED_CASHIER_PASSWORD", "cashier123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_CASHIER_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_CASHIER_PASSWORD to override.")
	}

	now := time.Now().UTC()
	users := map[string]domain.UserAccount{}
	for _, u := range []struct {
		username string
		password string
		role     string
	}{
		{"admin", adminPwd, "admin"},
		{"cashier", cashierPwd, "cashier"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", u.username, err)
		}
		users[u.username] = domain.UserAccount{
			Username:  u.username,
			Password:  string(hash),
			Role:      u.role,
			Active:    true,
			CreatedAt: now,
		}
	}
	return users
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	s := New()
	s.usersByUsername = seedUsers()

	ingredients := []domain.Ingredient{
		{ID: "ing-beras", Name: "Beras", Unit: "g", PurchaseUnit: "kg", ConversionRate: 1000, CurrentStock: 25000, CostPerUnit: 14000, MinThreshold: 5000},
		{ID: "ing-ayam", Name: "Ayam Fillet", Unit: "g", PurchaseUnit: "kg", ConversionRate: 1000, CurrentStock: 8000, CostPerUnit: 42000, MinThreshold: 2000},
		{ID: "ing-telur", Name: "Telur", Unit: "pcs", PurchaseUnit: "tray", ConversionRate: 30, CurrentStock: 90, CostPerUnit: 54000, MinThreshold: 30},
		{ID: "ing-minyak", Name: "Minyak Goreng", Unit: "ml", PurchaseUnit: "l", ConversionRate: 1000, CurrentStock: 4000, CostPerUnit: 18000, MinThreshold: 1000},
		{ID: "ing-cabai", Name: "Cabai Merah", Unit: "g", PurchaseUnit: "kg", ConversionRate: 1000, CurrentStock: 1500, CostPerUnit: 60000, MinThreshold: 500},
		{ID: "ing-teh", Name: "Teh Bubuk", Unit: "g", PurchaseUnit: "kg", ConversionRate: 1000, CurrentStock: 900, CostPerUnit: 85000, MinThreshold: 200},
		{ID: "ing-gula", Name: "Gula Pasir", Unit: "g", PurchaseUnit: "kg", ConversionRate: 1000, CurrentStock: 6000, CostPerUnit: 16000, MinThreshold: 1000},
	}
	for _, ing := range ingredients {
		s.ingredients[ing.ID] = ing
	}

	preps := []domain.PrepTask{
		{ID: "prep-sambal", Name: "Sambal Bawang", Station: "cold", ParLevel: 2000, OnHand: 1500, Unit: "g", BatchSize: 1000, Recipe: []domain.RecipeLine{
			{ComponentID: "ing-cabai", Amount: 800, Unit: "g", Source: domain.SourceInventory},
			{ComponentID: "ing-minyak", Amount: 200, Unit: "ml", Source: domain.SourceInventory},
		}},
		{ID: "prep-nasi", Name: "Nasi Putih", Station: "rice", ParLevel: 10000, OnHand: 7000, Unit: "g", BatchSize: 5000, Recipe: []domain.RecipeLine{
			{ComponentID: "ing-beras", Amount: 2.5, Unit: "kg", Source: domain.SourceInventory},
		}},
	}
	for _, prep := range preps {
		s.prepTasks[prep.ID] = prep
	}

	menu := []domain.MenuItem{
		{ID: "menu-ayam-geprek", Name: "Ayam Geprek", Category: "main", Price: 25000, Recipe: []domain.RecipeLine{
			{ComponentID: "ing-ayam", Amount: 150, Unit: "g", Source: domain.SourceInventory},
			{ComponentID: "ing-minyak", Amount: 30, Unit: "ml", Source: domain.SourceInventory},
			{ComponentID: "prep-sambal", Amount: 40, Unit: "g", Source: domain.SourcePrep},
			{ComponentID: "prep-nasi", Amount: 250, Unit: "g", Source: domain.SourcePrep},
		}},
		{ID: "menu-nasi-telur", Name: "Nasi Telur Dadar", Category: "main", Price: 15000, Recipe: []domain.RecipeLine{
			{ComponentID: "ing-telur", Amount: 2, Unit: "pcs", Source: domain.SourceInventory},
			{ComponentID: "ing-minyak", Amount: 20, Unit: "ml", Source: domain.SourceInventory},
			{ComponentID: "prep-nasi", Amount: 250, Unit: "g", Source: domain.SourcePrep},
		}},
		{ID: "menu-es-teh", Name: "Es Teh Manis", Category: "beverage", Price: 6000, Recipe: []domain.RecipeLine{
			{ComponentID: "ing-teh", Amount: 5, Unit: "g", Source: domain.SourceInventory},
			{ComponentID: "ing-gula", Amount: 20, Unit: "g", Source: domain.SourceInventory},
		}},
	}
	for _, item := range menu {
		s.menuItems[item.ID] = item
	}
	return s
}

// SetSink attaches a snapshot sink that receives the full state after
// every mutation. Pass nil to detach.
func (s *Store) SetSink(sink store.SnapshotSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
}

func (s *Store) saveLocked(ctx context.Context) {
	if s.sink == nil {
		return
	}
	if err := s.sink.Save(ctx, s.exportLocked()); err != nil {
		log.Printf("[memory-store] WARN: snapshot save failed: %v", err)
	}
}

func (s *Store) appendAuditLocked(entry domain.AuditLog) {
	if entry.ID == "" {
		entry.ID = xid.New("aud")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	s.auditLogs = append(s.auditLogs, entry)
}

// --- ingredients ---

func (s *Store) ListIngredients(_ context.Context, includeDeleted bool) ([]domain.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Ingredient, 0, len(s.ingredients))
	for _, ing := range s.ingredients {
		if ing.Deleted && !includeDeleted {
			continue
		}
		result = append(result, cloneIngredient(ing))
	}
	slices.SortFunc(result, func(a, b domain.Ingredient) int { return cmpString(a.Name, b.Name) })
	return result, nil
}

func (s *Store) GetIngredient(_ context.Context, id string) (*domain.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ing, exists := s.ingredients[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyIng := cloneIngredient(ing)
	return &copyIng, nil
}

func (s *Store) CreateIngredient(ctx context.Context, ing domain.Ingredient) (*domain.Ingredient, error) {
	if strings.TrimSpace(ing.Name) == "" || strings.TrimSpace(ing.Unit) == "" {
		return nil, store.ErrInvalidInput
	}
	if ing.ConversionRate < 0 || ing.CostPerUnit < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if ing.ID == "" {
		ing.ID = xid.New("ing")
	}
	if _, exists := s.ingredients[ing.ID]; exists {
		return nil, store.ErrDuplicate
	}
	if ing.ConversionRate == 0 {
		ing.ConversionRate = 1
	}
	ing.Deleted = false
	s.ingredients[ing.ID] = cloneIngredient(ing)
	s.saveLocked(ctx)
	created := cloneIngredient(ing)
	return &created, nil
}

func (s *Store) UpdateIngredient(ctx context.Context, ing domain.Ingredient) (*domain.Ingredient, error) {
	if strings.TrimSpace(ing.Name) == "" || strings.TrimSpace(ing.Unit) == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.ingredients[ing.ID]
	if !exists || current.Deleted {
		return nil, store.ErrNotFound
	}
	if ing.ConversionRate == 0 {
		ing.ConversionRate = 1
	}
	ing.PurchaseHistory = current.PurchaseHistory
	s.ingredients[ing.ID] = cloneIngredient(ing)
	s.saveLocked(ctx)
	updated := cloneIngredient(ing)
	return &updated, nil
}

func (s *Store) DeleteIngredient(ctx context.Context, id string) (*domain.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ing, exists := s.ingredients[id]
	if !exists || ing.Deleted {
		return nil, store.ErrNotFound
	}
	ing.Deleted = true
	s.ingredients[id] = ing
	s.saveLocked(ctx)
	deleted := cloneIngredient(ing)
	return &deleted, nil
}

func (s *Store) AdjustIngredientStock(ctx context.Context, id string, delta float64) (*domain.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ing, exists := s.ingredients[id]
	if !exists || ing.Deleted {
		return nil, store.ErrNotFound
	}
	ing.CurrentStock += delta
	s.ingredients[id] = ing
	s.saveLocked(ctx)
	updated := cloneIngredient(ing)
	return &updated, nil
}

func (s *Store) RestockIngredient(ctx context.Context, id string, purchase domain.PurchaseRecord, newCostPerUnit int64) (*domain.Ingredient, error) {
	if purchase.Qty <= 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ing, exists := s.ingredients[id]
	if !exists || ing.Deleted {
		return nil, store.ErrNotFound
	}
	rate := ing.ConversionRate
	if rate == 0 {
		rate = 1
	}
	if purchase.Date.IsZero() {
		purchase.Date = time.Now().UTC()
	}
	ing.CurrentStock += purchase.Qty * rate
	ing.PurchaseHistory = append(ing.PurchaseHistory, purchase)
	if newCostPerUnit > 0 {
		ing.CostPerUnit = newCostPerUnit
	}
	s.ingredients[id] = ing
	s.saveLocked(ctx)
	updated := cloneIngredient(ing)
	return &updated, nil
}

// --- prep tasks ---

func (s *Store) ListPrepTasks(_ context.Context) ([]domain.PrepTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.PrepTask, 0, len(s.prepTasks))
	for _, prep := range s.prepTasks {
		result = append(result, clonePrepTask(prep))
	}
	slices.SortFunc(result, func(a, b domain.PrepTask) int {
		if a.Station == b.Station {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Station, b.Station)
	})
	return result, nil
}

func (s *Store) GetPrepTask(_ context.Context, id string) (*domain.PrepTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prep, exists := s.prepTasks[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyPrep := clonePrepTask(prep)
	return &copyPrep, nil
}

func (s *Store) CreatePrepTask(ctx context.Context, prep domain.PrepTask) (*domain.PrepTask, error) {
	if strings.TrimSpace(prep.Name) == "" || strings.TrimSpace(prep.Unit) == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prep.ID == "" {
		prep.ID = xid.New("prep")
	}
	if _, exists := s.prepTasks[prep.ID]; exists {
		return nil, store.ErrDuplicate
	}
	s.prepTasks[prep.ID] = clonePrepTask(prep)
	s.saveLocked(ctx)
	created := clonePrepTask(prep)
	return &created, nil
}

func (s *Store) UpdatePrepTask(ctx context.Context, prep domain.PrepTask) (*domain.PrepTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.prepTasks[prep.ID]; !exists {
		return nil, store.ErrNotFound
	}
	s.prepTasks[prep.ID] = clonePrepTask(prep)
	s.saveLocked(ctx)
	updated := clonePrepTask(prep)
	return &updated, nil
}

func (s *Store) DeletePrepTask(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.prepTasks[id]; !exists {
		return store.ErrNotFound
	}
	delete(s.prepTasks, id)
	s.saveLocked(ctx)
	return nil
}

// --- menu items ---

func (s *Store) ListMenuItems(_ context.Context, includeDeleted bool) ([]domain.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.MenuItem, 0, len(s.menuItems))
	for _, item := range s.menuItems {
		if item.Deleted && !includeDeleted {
			continue
		}
		result = append(result, cloneMenuItem(item))
	}
	slices.SortFunc(result, func(a, b domain.MenuItem) int {
		if a.Category == b.Category {
			return cmpString(a.Name, b.Name)
		}
		return cmpString(a.Category, b.Category)
	})
	return result, nil
}

func (s *Store) GetMenuItem(_ context.Context, id string) (*domain.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.menuItems[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyItem := cloneMenuItem(item)
	return &copyItem, nil
}

func (s *Store) CreateMenuItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	if strings.TrimSpace(item.Name) == "" || item.Price < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = xid.New("menu")
	}
	if _, exists := s.menuItems[item.ID]; exists {
		return nil, store.ErrDuplicate
	}
	item.Deleted = false
	s.menuItems[item.ID] = cloneMenuItem(item)
	s.saveLocked(ctx)
	created := cloneMenuItem(item)
	return &created, nil
}

func (s *Store) UpdateMenuItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	if strings.TrimSpace(item.Name) == "" || item.Price < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.menuItems[item.ID]
	if !exists || current.Deleted {
		return nil, store.ErrNotFound
	}
	s.menuItems[item.ID] = cloneMenuItem(item)
	s.saveLocked(ctx)
	updated := cloneMenuItem(item)
	return &updated, nil
}

func (s *Store) DeleteMenuItem(ctx context.Context, id string) (*domain.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.menuItems[id]
	if !exists || item.Deleted {
		return nil, store.ErrNotFound
	}
	item.Deleted = true
	s.menuItems[id] = item
	s.saveLocked(ctx)
	deleted := cloneMenuItem(item)
	return &deleted, nil
}

// --- sales ---

// CommitSale applies one transaction as a unit: the stock policy gate,
// inventory and prep deductions, invoice numbering, customer loyalty and
// the audit entries all happen under the same write lock, so a blocked
// sale leaves no trace and a committed one is fully visible at once.
func (s *Store) CommitSale(ctx context.Context, commit store.SaleCommit) (*store.SaleCommitResult, error) {
	sale := commit.Sale
	if len(sale.Items) == 0 || sale.PaymentMethod == "" {
		return nil, store.ErrInvalidInput
	}
	for _, item := range sale.Items {
		if item.Qty < 1 {
			return nil, store.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.ShiftID != "" {
		shift, exists := s.shiftsByID[sale.ShiftID]
		if !exists || shift.Status != domain.ShiftStatusOpen {
			return nil, fmt.Errorf("%w: shift %s is not open", store.ErrShiftConflict, sale.ShiftID)
		}
	}

	shortages := s.shortagesLocked(commit)
	switch s.settings.StockDeductionPolicy {
	case domain.PolicyBlockIfInsufficient:
		if len(shortages) > 0 {
			return &store.SaleCommitResult{Shortages: shortages}, store.ErrSaleBlocked
		}
	case domain.PolicyRequireConfirmation:
		if len(shortages) > 0 && !commit.ConfirmShortage {
			return &store.SaleCommitResult{Shortages: shortages}, store.ErrConfirmationRequired
		}
	}

	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	s.invoiceCounter++
	s.invoiceYear = sale.CreatedAt.Year()
	sale.InvoiceNumber = invoice.Format(s.invoiceYear, s.invoiceCounter)
	if sale.Status == "" {
		sale.Status = domain.SaleStatusCompleted
	}

	result := &store.SaleCommitResult{Shortages: shortages}

	for id, qty := range commit.InventoryDed {
		ing, exists := s.ingredients[id]
		if !exists {
			continue
		}
		before := ing.CurrentStock
		ing.CurrentStock -= qty
		s.ingredients[id] = ing
		if ing.CurrentStock < 0 {
			result.NegativeIngredients = append(result.NegativeIngredients, id)
		}
		s.appendAuditLocked(domain.AuditLog{
			CreatedAt:  sale.CreatedAt,
			UserID:     sale.OperatorID,
			UserName:   sale.OperatorName,
			Action:     domain.AuditActionUpdate,
			EntityType: "ingredient",
			EntityID:   id,
			Before:     stockJSON(before),
			After:      stockJSON(ing.CurrentStock),
			Details:    fmt.Sprintf("stock deducted %.2f %s by sale %s", qty, ing.Unit, sale.ID),
		})
	}
	for id, qty := range commit.PrepDed {
		prep, exists := s.prepTasks[id]
		if !exists {
			continue
		}
		before := prep.OnHand
		prep.OnHand -= qty
		s.prepTasks[id] = prep
		if before >= 0 && prep.OnHand < 0 {
			result.NegativePrep = append(result.NegativePrep, id)
		}
		s.appendAuditLocked(domain.AuditLog{
			CreatedAt:  sale.CreatedAt,
			UserID:     sale.OperatorID,
			UserName:   sale.OperatorName,
			Action:     domain.AuditActionUpdate,
			EntityType: "prep_task",
			EntityID:   id,
			Before:     stockJSON(before),
			After:      stockJSON(prep.OnHand),
			Details:    fmt.Sprintf("on-hand deducted %.2f %s by sale %s", qty, prep.Unit, sale.ID),
		})
	}
	slices.Sort(result.NegativeIngredients)
	slices.Sort(result.NegativePrep)

	if commit.CustomerPhone != "" {
		customer := s.applyCustomerLocked(commit, sale)
		sale.CustomerID = customer.ID
		result.Customer = &customer
	}

	s.salesByID[sale.ID] = cloneSale(sale)
	saleJSON, _ := json.Marshal(sale)
	s.appendAuditLocked(domain.AuditLog{
		CreatedAt:  sale.CreatedAt,
		UserID:     sale.OperatorID,
		UserName:   sale.OperatorName,
		Action:     domain.AuditActionTransaction,
		EntityType: "sale",
		EntityID:   sale.ID,
		After:      saleJSON,
		Details:    "sale " + sale.InvoiceNumber,
	})

	s.saveLocked(ctx)
	committed := cloneSale(sale)
	result.Sale = &committed
	return result, nil
}

func (s *Store) shortagesLocked(commit store.SaleCommit) []domain.Shortage {
	var shortages []domain.Shortage
	for id, required := range commit.InventoryDed {
		ing, exists := s.ingredients[id]
		if !exists {
			continue
		}
		if ing.CurrentStock < required {
			shortages = append(shortages, domain.Shortage{
				ComponentID: id, Name: ing.Name, Source: domain.SourceInventory,
				Required: required, Available: ing.CurrentStock, Shortfall: required - ing.CurrentStock,
			})
		}
	}
	for id, required := range commit.PrepDed {
		prep, exists := s.prepTasks[id]
		if !exists {
			continue
		}
		if prep.OnHand < required {
			shortages = append(shortages, domain.Shortage{
				ComponentID: id, Name: prep.Name, Source: domain.SourcePrep,
				Required: required, Available: prep.OnHand, Shortfall: required - prep.OnHand,
			})
		}
	}
	slices.SortFunc(shortages, func(a, b domain.Shortage) int { return cmpString(a.ComponentID, b.ComponentID) })
	return shortages
}

// applyCustomerLocked finds or creates the customer, folds the sale into
// their visit stats and loyalty balances, and reclassifies the segment.
// Loyalty points clamp at zero; wallet balances are allowed to go negative.
func (s *Store) applyCustomerLocked(commit store.SaleCommit, sale domain.Sale) domain.Customer {
	var customer domain.Customer
	if id, exists := s.customerIDPhone[commit.CustomerPhone]; exists {
		customer = s.customersByID[id]
	} else {
		customer = domain.Customer{
			ID:      xid.New("cus"),
			Phone:   commit.CustomerPhone,
			Name:    commit.CustomerName,
			Segment: domain.SegmentNew,
		}
		s.customerIDPhone[commit.CustomerPhone] = customer.ID
	}
	if commit.CustomerName != "" {
		customer.Name = commit.CustomerName
	}

	customer.TotalVisits++
	customer.TotalSpent += sale.TotalAmount
	customer.LastVisit = sale.CreatedAt
	customer.AverageOrderValue = customer.TotalSpent / int64(customer.TotalVisits)

	loyalty := s.settings.Loyalty
	if loyalty.Enabled {
		switch loyalty.ProgramType {
		case domain.LoyaltyProgramCashback:
			credit := int64(float64(sale.TotalAmount)*loyalty.CashbackPercent/100 + 0.5)
			if credit > 0 {
				before := customer.WalletBalance
				customer.WalletBalance += credit
				s.appendAuditLocked(domain.AuditLog{
					CreatedAt:  sale.CreatedAt,
					UserID:     sale.OperatorID,
					UserName:   sale.OperatorName,
					Action:     domain.AuditActionUpdate,
					EntityType: "customer",
					EntityID:   customer.ID,
					Before:     walletJSON(before),
					After:      walletJSON(customer.WalletBalance),
					Details:    fmt.Sprintf("cashback %d from sale %s", credit, sale.ID),
				})
			}
		case domain.LoyaltyProgramPoints:
			if loyalty.PointsRate > 0 {
				earned := sale.TotalAmount / loyalty.PointsRate
				before := customer.LoyaltyPoints
				after := before + earned - commit.PointsToRedeem
				if after < 0 {
					after = 0
				}
				customer.LoyaltyPoints = after
				if after != before {
					s.appendAuditLocked(domain.AuditLog{
						CreatedAt:  sale.CreatedAt,
						UserID:     sale.OperatorID,
						UserName:   sale.OperatorName,
						Action:     domain.AuditActionUpdate,
						EntityType: "customer",
						EntityID:   customer.ID,
						Before:     pointsJSON(before),
						After:      pointsJSON(after),
						Details:    fmt.Sprintf("points +%d -%d from sale %s", earned, commit.PointsToRedeem, sale.ID),
					})
				}
			}
		}
	}

	if customer.FavoriteItems == nil {
		customer.FavoriteItems = map[string]int{}
	}
	for _, item := range sale.Items {
		customer.FavoriteItems[item.MenuItemID] += item.Qty
	}
	customer.Segment = segment.Classify(customer, sale.CreatedAt)

	s.customersByID[customer.ID] = cloneCustomer(customer)
	return cloneCustomer(customer)
}

func (s *Store) GetSale(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.salesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copySale := cloneSale(sale)
	return &copySale, nil
}

func (s *Store) ListSales(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Sale, 0, len(s.salesByID))
	for _, sale := range s.salesByID {
		if !from.IsZero() && sale.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !sale.CreatedAt.Before(to) {
			continue
		}
		result = append(result, cloneSale(sale))
	}
	slices.SortFunc(result, func(a, b domain.Sale) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) ListSalesByShift(_ context.Context, shiftID string) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Sale
	for _, sale := range s.salesByID {
		if sale.ShiftID != shiftID {
			continue
		}
		result = append(result, cloneSale(sale))
	}
	slices.SortFunc(result, func(a, b domain.Sale) int {
		if a.CreatedAt.After(b.CreatedAt) {
			return 1
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return cmpString(a.ID, b.ID)
	})
	return result, nil
}

// --- expenses ---

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if strings.TrimSpace(expense.Category) == "" || expense.Amount <= 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if expense.ID == "" {
		expense.ID = xid.New("exp")
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now().UTC()
	}
	if _, exists := s.expensesByID[expense.ID]; exists {
		return nil, store.ErrDuplicate
	}
	s.expensesByID[expense.ID] = expense
	s.saveLocked(ctx)
	out := expense
	return &out, nil
}

func (s *Store) ListExpenses(_ context.Context, from time.Time, to time.Time, limit int) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Expense, 0, len(s.expensesByID))
	for _, expense := range s.expensesByID {
		if !from.IsZero() && expense.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !expense.CreatedAt.Before(to) {
			continue
		}
		result = append(result, expense)
	}
	slices.SortFunc(result, func(a, b domain.Expense) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(b.ID, a.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// --- customers ---

func (s *Store) ListCustomers(_ context.Context) ([]domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Customer, 0, len(s.customersByID))
	for _, c := range s.customersByID {
		result = append(result, cloneCustomer(c))
	}
	slices.SortFunc(result, func(a, b domain.Customer) int { return cmpString(a.Phone, b.Phone) })
	return result, nil
}

func (s *Store) GetCustomerByPhone(_ context.Context, phone string) (*domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.customerIDPhone[phone]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyCustomer := cloneCustomer(s.customersByID[id])
	return &copyCustomer, nil
}

func (s *Store) CreateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	if strings.TrimSpace(c.Phone) == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customerIDPhone[c.Phone]; exists {
		return nil, store.ErrDuplicate
	}
	if c.ID == "" {
		c.ID = xid.New("cus")
	}
	if c.Segment == "" {
		c.Segment = domain.SegmentNew
	}
	s.customersByID[c.ID] = cloneCustomer(c)
	s.customerIDPhone[c.Phone] = c.ID
	s.saveLocked(ctx)
	created := cloneCustomer(c)
	return &created, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.customersByID[c.ID]
	if !exists {
		return nil, store.ErrNotFound
	}
	if c.Phone != current.Phone {
		if _, taken := s.customerIDPhone[c.Phone]; taken {
			return nil, store.ErrDuplicate
		}
		delete(s.customerIDPhone, current.Phone)
		s.customerIDPhone[c.Phone] = c.ID
	}
	s.customersByID[c.ID] = cloneCustomer(c)
	s.saveLocked(ctx)
	updated := cloneCustomer(c)
	return &updated, nil
}

// --- shifts ---

func (s *Store) OpenShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error) {
	if shift.StartingCash < 0 {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.openShiftID != "" {
		return nil, fmt.Errorf("%w: shift %s is still open", store.ErrShiftConflict, s.openShiftID)
	}
	if shift.ID == "" {
		shift.ID = xid.New("shift")
	}
	if shift.StartTime.IsZero() {
		shift.StartTime = time.Now().UTC()
	}
	shift.Status = domain.ShiftStatusOpen
	shift.EndTime = nil

	s.shiftsByID[shift.ID] = shift
	s.openShiftID = shift.ID
	s.saveLocked(ctx)
	copyShift := shift
	return &copyShift, nil
}

func (s *Store) GetOpenShift(_ context.Context) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.openShiftID == "" {
		return nil, store.ErrNotFound
	}
	shift := s.shiftsByID[s.openShiftID]
	copyShift := shift
	return &copyShift, nil
}

func (s *Store) GetShift(_ context.Context, id string) (*domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shift, exists := s.shiftsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyShift := shift
	return &copyShift, nil
}

// CloseShift aggregates the shift's sales by payment method, computes the
// cash discrepancy and writes the before/after shift record to the audit
// log, all in one step.
func (s *Store) CloseShift(ctx context.Context, id string, actualCash int64, bankDeposit int64, closedAt time.Time) (*domain.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	shift, exists := s.shiftsByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if shift.Status != domain.ShiftStatusOpen {
		return nil, fmt.Errorf("%w: shift %s already closed", store.ErrShiftConflict, id)
	}
	if closedAt.IsZero() {
		closedAt = time.Now().UTC()
	}
	beforeJSON, _ := json.Marshal(shift)

	var cashSales, cardSales, onlineSales int64
	for _, sale := range s.salesByID {
		if sale.ShiftID != id {
			continue
		}
		switch sale.PaymentMethod {
		case domain.PaymentCash:
			cashSales += sale.TotalAmount
		case domain.PaymentCard:
			cardSales += sale.TotalAmount
		default:
			onlineSales += sale.TotalAmount
		}
	}

	shift.Status = domain.ShiftStatusClosed
	shift.EndTime = &closedAt
	shift.ActualCashSales = actualCash
	shift.ExpectedCashSales = shift.StartingCash + cashSales
	shift.CardSales = cardSales
	shift.OnlineSales = onlineSales
	shift.BankDeposit = bankDeposit
	shift.Discrepancy = actualCash - shift.ExpectedCashSales

	s.shiftsByID[id] = shift
	s.openShiftID = ""

	afterJSON, _ := json.Marshal(shift)
	s.appendAuditLocked(domain.AuditLog{
		CreatedAt:  closedAt,
		Action:     domain.AuditActionShiftClose,
		EntityType: "shift",
		EntityID:   id,
		Before:     beforeJSON,
		After:      afterJSON,
		Details:    fmt.Sprintf("discrepancy %d", shift.Discrepancy),
	})

	s.saveLocked(ctx)
	copyShift := shift
	return &copyShift, nil
}

func (s *Store) ListShifts(_ context.Context, limit int) ([]domain.Shift, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Shift, 0, len(s.shiftsByID))
	for _, shift := range s.shiftsByID {
		result = append(result, shift)
	}
	slices.SortFunc(result, func(a, b domain.Shift) int {
		if a.StartTime.Equal(b.StartTime) {
			return cmpString(b.ID, a.ID)
		}
		if a.StartTime.After(b.StartTime) {
			return -1
		}
		return 1
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// --- manager tasks ---

func (s *Store) ListManagerTasks(_ context.Context, status string) ([]domain.ManagerTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ManagerTask, 0, len(s.managerTasks))
	for _, task := range s.managerTasks {
		if status != "" && task.Status != status {
			continue
		}
		result = append(result, cloneManagerTask(task))
	}
	slices.SortFunc(result, func(a, b domain.ManagerTask) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(a.ID, b.ID)
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return result, nil
}

func (s *Store) CreateManagerTask(ctx context.Context, task domain.ManagerTask) (*domain.ManagerTask, error) {
	if strings.TrimSpace(task.Title) == "" {
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.createManagerTaskLocked(task)
	s.saveLocked(ctx)
	return &created, nil
}

// CreateManagerTasks inserts a batch, skipping any task whose title is
// already open or in progress. Used by the rule generator so re-runs stay
// idempotent even against tasks created between generation and insert.
func (s *Store) CreateManagerTasks(ctx context.Context, tasks []domain.ManagerTask) ([]domain.ManagerTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make(map[string]struct{}, len(s.managerTasks))
	for _, task := range s.managerTasks {
		if task.Status == domain.TaskStatusOpen || task.Status == domain.TaskStatusInProgress {
			active[task.Title] = struct{}{}
		}
	}

	created := make([]domain.ManagerTask, 0, len(tasks))
	for _, task := range tasks {
		if strings.TrimSpace(task.Title) == "" {
			continue
		}
		if _, exists := active[task.Title]; exists {
			continue
		}
		active[task.Title] = struct{}{}
		created = append(created, s.createManagerTaskLocked(task))
	}
	if len(created) > 0 {
		s.saveLocked(ctx)
	}
	return created, nil
}

func (s *Store) createManagerTaskLocked(task domain.ManagerTask) domain.ManagerTask {
	if task.ID == "" {
		task.ID = xid.New("task")
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	task.UpdatedAt = task.CreatedAt
	if task.Status == "" {
		task.Status = domain.TaskStatusOpen
	}
	if task.Source == "" {
		task.Source = domain.TaskSourceManual
	}
	s.managerTasks[task.ID] = cloneManagerTask(task)
	return cloneManagerTask(task)
}

func (s *Store) UpdateManagerTaskStatus(ctx context.Context, id string, status string, at time.Time) (*domain.ManagerTask, error) {
	switch status {
	case domain.TaskStatusOpen, domain.TaskStatusInProgress, domain.TaskStatusDone, domain.TaskStatusDismissed:
	default:
		return nil, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, exists := s.managerTasks[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	task.Status = status
	task.UpdatedAt = at
	s.managerTasks[id] = task
	s.saveLocked(ctx)
	updated := cloneManagerTask(task)
	return &updated, nil
}

// --- audit logs ---

func (s *Store) CreateAuditLog(ctx context.Context, entry domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendAuditLocked(entry)
	s.saveLocked(ctx)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, entityType string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit < 1 {
		limit = 200
	}
	result := make([]domain.AuditLog, 0, limit)
	for i := len(s.auditLogs) - 1; i >= 0; i-- {
		entry := s.auditLogs[i]
		if entityType != "" && entry.EntityType != entityType {
			continue
		}
		if !from.IsZero() && entry.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !entry.CreatedAt.Before(to) {
			continue
		}
		result = append(result, entry)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// --- settings ---

func (s *Store) GetSettings(_ context.Context) (domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

func (s *Store) UpdateSettings(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	switch settings.StockDeductionPolicy {
	case domain.PolicyAllowNegative, domain.PolicyBlockIfInsufficient, domain.PolicyRequireConfirmation:
	default:
		return domain.Settings{}, store.ErrInvalidInput
	}
	if settings.Loyalty.Enabled {
		switch settings.Loyalty.ProgramType {
		case domain.LoyaltyProgramCashback, domain.LoyaltyProgramPoints:
		default:
			return domain.Settings{}, store.ErrInvalidInput
		}
	}
	if settings.TaxPercent < 0 || settings.TaxPercent > 100 {
		return domain.Settings{}, store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = settings
	s.saveLocked(ctx)
	return settings, nil
}

// --- users ---

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	if strings.TrimSpace(user.Username) == "" || user.Password == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[user.Username]; exists {
		return store.ErrDuplicate
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	user.Active = true
	s.usersByUsername[user.Username] = user
	s.saveLocked(ctx)
	return nil
}

func (s *Store) GetUser(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyUser := user
	return &copyUser, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.UserAccount, 0, len(s.usersByUsername))
	for _, user := range s.usersByUsername {
		result = append(result, user)
	}
	slices.SortFunc(result, func(a, b domain.UserAccount) int { return cmpString(a.Username, b.Username) })
	return result, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	if password == "" {
		return store.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.usersByUsername[username]
	if !exists {
		return store.ErrNotFound
	}
	user.Password = password
	s.usersByUsername[username] = user
	s.saveLocked(ctx)
	return nil
}

// --- snapshot ---

func (s *Store) Export(_ context.Context) (store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exportLocked(), nil
}

func (s *Store) exportLocked() store.Snapshot {
	snap := store.Snapshot{
		SchemaVersion:  store.SchemaVersion,
		Settings:       s.settings,
		InvoiceCounter: s.invoiceCounter,
		InvoiceYear:    s.invoiceYear,
		SavedAt:        time.Now().UTC(),
	}
	for _, ing := range s.ingredients {
		snap.Ingredients = append(snap.Ingredients, cloneIngredient(ing))
	}
	for _, prep := range s.prepTasks {
		snap.PrepTasks = append(snap.PrepTasks, clonePrepTask(prep))
	}
	for _, item := range s.menuItems {
		snap.MenuItems = append(snap.MenuItems, cloneMenuItem(item))
	}
	for _, sale := range s.salesByID {
		snap.Sales = append(snap.Sales, cloneSale(sale))
	}
	for _, expense := range s.expensesByID {
		snap.Expenses = append(snap.Expenses, expense)
	}
	for _, c := range s.customersByID {
		snap.Customers = append(snap.Customers, cloneCustomer(c))
	}
	for _, shift := range s.shiftsByID {
		snap.Shifts = append(snap.Shifts, shift)
	}
	for _, task := range s.managerTasks {
		snap.ManagerTasks = append(snap.ManagerTasks, cloneManagerTask(task))
	}
	snap.AuditLogs = append(snap.AuditLogs, s.auditLogs...)
	for _, user := range s.usersByUsername {
		snap.Users = append(snap.Users, user)
	}

	slices.SortFunc(snap.Ingredients, func(a, b domain.Ingredient) int { return cmpString(a.ID, b.ID) })
	slices.SortFunc(snap.PrepTasks, func(a, b domain.PrepTask) int { return cmpString(a.ID, b.ID) })
	slices.SortFunc(snap.MenuItems, func(a, b domain.MenuItem) int { return cmpString(a.ID, b.ID) })
	slices.SortFunc(snap.Sales, func(a, b domain.Sale) int { return cmpString(a.ID, b.ID) })
	slices.SortFunc(snap.Expenses, func(a, b domain.Expense) int { return cmpString(a.ID, b.ID) })
	slices.SortFunc(snap.Customers, func(a, b domain.Customer) int { return cmpString(a.ID, b.ID) })
	slices.SortFunc(snap.Shifts, func(a, b domain.Shift) int { return cmpString(a.ID, b.ID) })
	slices.SortFunc(snap.ManagerTasks, func(a, b domain.ManagerTask) int { return cmpString(a.ID, b.ID) })
	slices.SortFunc(snap.Users, func(a, b domain.UserAccount) int { return cmpString(a.Username, b.Username) })
	return snap
}

// Import replaces the whole state with the snapshot. The invoice counter
// only ever moves forward, even when an older snapshot is loaded.
func (s *Store) Import(_ context.Context, snap store.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ingredients = map[string]domain.Ingredient{}
	for _, ing := range snap.Ingredients {
		s.ingredients[ing.ID] = cloneIngredient(ing)
	}
	s.prepTasks = map[string]domain.PrepTask{}
	for _, prep := range snap.PrepTasks {
		s.prepTasks[prep.ID] = clonePrepTask(prep)
	}
	s.menuItems = map[string]domain.MenuItem{}
	for _, item := range snap.MenuItems {
		s.menuItems[item.ID] = cloneMenuItem(item)
	}
	s.salesByID = map[string]domain.Sale{}
	for _, sale := range snap.Sales {
		s.salesByID[sale.ID] = cloneSale(sale)
	}
	s.expensesByID = map[string]domain.Expense{}
	for _, expense := range snap.Expenses {
		s.expensesByID[expense.ID] = expense
	}
	s.customersByID = map[string]domain.Customer{}
	s.customerIDPhone = map[string]string{}
	for _, c := range snap.Customers {
		s.customersByID[c.ID] = cloneCustomer(c)
		s.customerIDPhone[c.Phone] = c.ID
	}
	s.shiftsByID = map[string]domain.Shift{}
	s.openShiftID = ""
	for _, shift := range snap.Shifts {
		s.shiftsByID[shift.ID] = shift
		if shift.Status == domain.ShiftStatusOpen {
			s.openShiftID = shift.ID
		}
	}
	s.managerTasks = map[string]domain.ManagerTask{}
	for _, task := range snap.ManagerTasks {
		s.managerTasks[task.ID] = cloneManagerTask(task)
	}
	s.auditLogs = append([]domain.AuditLog(nil), snap.AuditLogs...)
	s.usersByUsername = map[string]domain.UserAccount{}
	for _, user := range snap.Users {
		s.usersByUsername[user.Username] = user
	}
	s.settings = snap.Settings
	if snap.InvoiceCounter > s.invoiceCounter {
		s.invoiceCounter = snap.InvoiceCounter
	}
	s.invoiceYear = snap.InvoiceYear
	return nil
}

// Reset clears every collection except the invoice counter, which is
// never reused.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ingredients = map[string]domain.Ingredient{}
	s.prepTasks = map[string]domain.PrepTask{}
	s.menuItems = map[string]domain.MenuItem{}
	s.salesByID = map[string]domain.Sale{}
	s.expensesByID = map[string]domain.Expense{}
	s.customersByID = map[string]domain.Customer{}
	s.customerIDPhone = map[string]string{}
	s.shiftsByID = map[string]domain.Shift{}
	s.openShiftID = ""
	s.managerTasks = map[string]domain.ManagerTask{}
	s.auditLogs = s.auditLogs[:0]
	s.settings = store.DefaultSettings()
	s.saveLocked(ctx)
	return nil
}

// --- helpers ---

func stockJSON(v float64) json.RawMessage {
	raw, _ := json.Marshal(map[string]float64{"stock": v})
	return raw
}

func walletJSON(v int64) json.RawMessage {
	raw, _ := json.Marshal(map[string]int64{"wallet_balance": v})
	return raw
}

func pointsJSON(v int64) json.RawMessage {
	raw, _ := json.Marshal(map[string]int64{"loyalty_points": v})
	return raw
}

func cloneIngredient(ing domain.Ingredient) domain.Ingredient {
	copyIng := ing
	if ing.CustomConversions != nil {
		copyIng.CustomConversions = make(map[string]float64, len(ing.CustomConversions))
		for k, v := range ing.CustomConversions {
			copyIng.CustomConversions[k] = v
		}
	}
	copyIng.PurchaseHistory = append([]domain.PurchaseRecord(nil), ing.PurchaseHistory...)
	return copyIng
}

func clonePrepTask(prep domain.PrepTask) domain.PrepTask {
	copyPrep := prep
	copyPrep.Recipe = append([]domain.RecipeLine(nil), prep.Recipe...)
	return copyPrep
}

func cloneMenuItem(item domain.MenuItem) domain.MenuItem {
	copyItem := item
	copyItem.Recipe = append([]domain.RecipeLine(nil), item.Recipe...)
	return copyItem
}

func cloneSale(sale domain.Sale) domain.Sale {
	copySale := sale
	copySale.Items = append([]domain.SaleItem(nil), sale.Items...)
	return copySale
}

func cloneCustomer(c domain.Customer) domain.Customer {
	copyCustomer := c
	if c.FavoriteItems != nil {
		copyCustomer.FavoriteItems = make(map[string]int, len(c.FavoriteItems))
		for k, v := range c.FavoriteItems {
			copyCustomer.FavoriteItems[k] = v
		}
	}
	return copyCustomer
}

func cloneManagerTask(task domain.ManagerTask) domain.ManagerTask {
	copyTask := task
	copyTask.Evidence = append([]string(nil), task.Evidence...)
	return copyTask
}

func cmpString(a string, b string) int {
	if a == b {
		return 0
	}
	if a < b {
		return -1
	}
	return 1
}
