// Package service orchestrates the transaction engine: costing, stock
// policy, loyalty, shifts, reporting and the rule-based task generator,
// all on top of the store repository.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fyra/backend/internal/cache"
	"fyra/backend/internal/costing"
	"fyra/backend/internal/deduction"
	"fyra/backend/internal/domain"
	"fyra/backend/internal/ocr"
	"fyra/backend/internal/rules"
	"fyra/backend/internal/store"
	"fyra/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo        store.Repository
	reportCache cache.ReportCache
	ocrClient   *ocr.Client
	cacheTTL    time.Duration
}

func New(repo store.Repository, reportCache cache.ReportCache, ocrClient *ocr.Client, reportTTL time.Duration) *Service {
	if reportCache == nil {
		reportCache = cache.NoopReportCache{}
	}
	if reportTTL <= 0 {
		reportTTL = 45 * time.Second
	}

	return &Service{
		repo:        repo,
		reportCache: reportCache,
		ocrClient:   ocrClient,
		cacheTTL:    reportTTL,
	}
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != "admin" {
		return fmt.Errorf("admin role required")
	}
	return nil
}

// collections loads the live maps most operations work against.
func (s *Service) collections(ctx context.Context) (map[string]domain.MenuItem, map[string]domain.Ingredient, map[string]domain.PrepTask, error) {
	menuList, err := s.repo.ListMenuItems(ctx, false)
	if err != nil {
		return nil, nil, nil, err
	}
	ingList, err := s.repo.ListIngredients(ctx, false)
	if err != nil {
		return nil, nil, nil, err
	}
	prepList, err := s.repo.ListPrepTasks(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	menu := make(map[string]domain.MenuItem, len(menuList))
	for _, item := range menuList {
		menu[item.ID] = item
	}
	ingredients := make(map[string]domain.Ingredient, len(ingList))
	for _, ing := range ingList {
		ingredients[ing.ID] = ing
	}
	preps := make(map[string]domain.PrepTask, len(prepList))
	for _, prep := range prepList {
		preps[prep.ID] = prep
	}
	return menu, ingredients, preps, nil
}

// ProcessTransaction executes a sale end to end: freezes prices and costs
// per cart line, expands the deduction plan, and hands everything to the
// store for an atomic commit. Prep items pushed below zero spawn
// high-priority manager tasks after the commit.
func (s *Service) ProcessTransaction(ctx context.Context, req domain.SaleRequest) (domain.SaleResult, error) {
	if len(req.Cart) == 0 {
		return domain.SaleResult{}, fmt.Errorf("%w: empty cart", store.ErrInvalidInput)
	}
	if req.Discount < 0 || req.PointsToRedeem < 0 {
		return domain.SaleResult{}, store.ErrInvalidInput
	}
	switch req.PaymentMethod {
	case domain.PaymentCash, domain.PaymentCard, domain.PaymentOnline:
	default:
		return domain.SaleResult{}, fmt.Errorf("%w: unknown payment method %q", store.ErrInvalidInput, req.PaymentMethod)
	}

	menu, ingredients, preps, err := s.collections(ctx)
	if err != nil {
		return domain.SaleResult{}, err
	}
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return domain.SaleResult{}, err
	}

	taxPercent := settings.TaxPercent
	if req.TaxPercent != nil {
		if *req.TaxPercent < 0 || *req.TaxPercent > 100 {
			return domain.SaleResult{}, store.ErrInvalidInput
		}
		taxPercent = *req.TaxPercent
	}

	var subtotal, totalCost int64
	items := make([]domain.SaleItem, 0, len(req.Cart))
	for _, line := range req.Cart {
		if line.Qty < 1 {
			return domain.SaleResult{}, fmt.Errorf("%w: quantity must be positive", store.ErrInvalidInput)
		}
		item, ok := menu[line.MenuItemID]
		if !ok {
			return domain.SaleResult{}, fmt.Errorf("%w: menu item %s", store.ErrNotFound, line.MenuItemID)
		}
		costAtSale := costing.RecipeCost(item.Recipe, ingredients, preps)
		items = append(items, domain.SaleItem{
			MenuItemID:  item.ID,
			Name:        item.Name,
			Qty:         line.Qty,
			PriceAtSale: item.Price,
			CostAtSale:  costAtSale,
		})
		subtotal += item.Price * int64(line.Qty)
		totalCost += costAtSale * int64(line.Qty)
	}
	if req.Discount > subtotal {
		return domain.SaleResult{}, fmt.Errorf("%w: discount exceeds subtotal", store.ErrInvalidInput)
	}
	totalAmount := costing.SaleTotal(subtotal, taxPercent, req.Discount)

	actor, _ := ActorFromContext(ctx)
	plan := deduction.Build(req.Cart, menu, ingredients, preps)

	commit := store.SaleCommit{
		Sale: domain.Sale{
			CreatedAt:     time.Now().UTC(),
			Items:         items,
			TotalAmount:   totalAmount,
			TotalCost:     totalCost,
			TaxPercent:    taxPercent,
			Discount:      req.Discount,
			PaymentMethod: req.PaymentMethod,
			ShiftID:       req.ShiftID,
			OperatorID:    actor.Username,
			OperatorName:  actor.Username,
			Status:        domain.SaleStatusCompleted,
		},
		InventoryDed:    plan.Inventory,
		PrepDed:         plan.Prep,
		CustomerPhone:   strings.TrimSpace(req.CustomerPhone),
		CustomerName:    strings.TrimSpace(req.CustomerName),
		PointsToRedeem:  req.PointsToRedeem,
		ConfirmShortage: req.ConfirmShortage,
	}

	committed, err := s.repo.CommitSale(ctx, commit)
	if err != nil {
		if committed != nil && (errors.Is(err, store.ErrSaleBlocked) || errors.Is(err, store.ErrConfirmationRequired)) {
			return domain.SaleResult{Shortages: committed.Shortages}, err
		}
		return domain.SaleResult{}, err
	}

	result := domain.SaleResult{
		Sale:              committed.Sale,
		InventoryShortage: len(committed.NegativeIngredients) > 0,
		PrepShortage:      len(committed.NegativePrep) > 0,
		Shortages:         committed.Shortages,
	}

	if len(committed.NegativePrep) > 0 {
		s.queuePrepShortageTasks(ctx, committed.NegativePrep, req.Cart, menu, preps)
	}
	s.invalidateReportCache(ctx, committed.Sale.CreatedAt)
	return result, nil
}

// queuePrepShortageTasks files one task per prep item that went negative,
// naming the menu items whose recipes consume it.
func (s *Service) queuePrepShortageTasks(ctx context.Context, prepIDs []string, cart []domain.CartLine, menu map[string]domain.MenuItem, preps map[string]domain.PrepTask) {
	tasks := make([]domain.ManagerTask, 0, len(prepIDs))
	for _, prepID := range prepIDs {
		prep, ok := preps[prepID]
		if !ok {
			continue
		}
		var affected []string
		for _, line := range cart {
			item, ok := menu[line.MenuItemID]
			if !ok {
				continue
			}
			for _, recipeLine := range item.Recipe {
				if recipeLine.Source == domain.SourcePrep && recipeLine.ComponentID == prepID {
					affected = append(affected, item.Name)
					break
				}
			}
		}
		tasks = append(tasks, domain.ManagerTask{
			Title:       "Prep depleted: " + prep.Name,
			Description: fmt.Sprintf("%s ran out mid-service; affected menu items: %s.", prep.Name, strings.Join(affected, ", ")),
			Category:    "prep",
			Priority:    domain.TaskPriorityHigh,
			Evidence:    affected,
			Source:      domain.TaskSourceRule,
		})
	}
	if _, err := s.repo.CreateManagerTasks(ctx, tasks); err != nil {
		log.Printf("[service] WARN: failed to queue prep shortage tasks: %v", err)
	}
}

func (s *Service) GetSale(ctx context.Context, id string) (domain.Sale, error) {
	sale, err := s.repo.GetSale(ctx, id)
	if err != nil {
		return domain.Sale{}, err
	}
	return *sale, nil
}

func (s *Service) ListSales(ctx context.Context, date string, limit int) ([]domain.Sale, error) {
	var from, to time.Time
	if strings.TrimSpace(date) != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, store.ErrInvalidInput
		}
		from = parsed.UTC()
		to = from.Add(24 * time.Hour)
	}
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListSales(ctx, from, to, limit)
}

// --- shifts ---

func (s *Service) OpenShift(ctx context.Context, req domain.ShiftOpenRequest) (domain.Shift, error) {
	if req.StartingCash < 0 {
		return domain.Shift{}, store.ErrInvalidInput
	}
	shift, err := s.repo.OpenShift(ctx, domain.Shift{StartingCash: req.StartingCash})
	if err != nil {
		return domain.Shift{}, err
	}
	s.logAudit(ctx, domain.AuditActionCreate, "shift", shift.ID, fmt.Sprintf("opened with starting cash %d", shift.StartingCash))
	return *shift, nil
}

func (s *Service) CloseShift(ctx context.Context, req domain.ShiftCloseRequest) (domain.Shift, error) {
	if req.ShiftID == "" {
		return domain.Shift{}, store.ErrInvalidInput
	}
	shift, err := s.repo.CloseShift(ctx, req.ShiftID, req.ActualCash, req.BankDeposit, time.Now().UTC())
	if err != nil {
		return domain.Shift{}, err
	}
	return *shift, nil
}

func (s *Service) GetOpenShift(ctx context.Context) (domain.Shift, error) {
	shift, err := s.repo.GetOpenShift(ctx)
	if err != nil {
		return domain.Shift{}, err
	}
	return *shift, nil
}

// GetShiftDetail returns one shift together with every sale booked
// against it, open or closed.
func (s *Service) GetShiftDetail(ctx context.Context, id string) (domain.ShiftDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.ShiftDetail{}, store.ErrInvalidInput
	}
	shift, err := s.repo.GetShift(ctx, id)
	if err != nil {
		return domain.ShiftDetail{}, err
	}
	sales, err := s.repo.ListSalesByShift(ctx, id)
	if err != nil {
		return domain.ShiftDetail{}, err
	}
	return domain.ShiftDetail{Shift: *shift, Sales: sales}, nil
}

func (s *Service) ListShifts(ctx context.Context, limit int) ([]domain.Shift, error) {
	if limit < 1 {
		limit = 50
	}
	return s.repo.ListShifts(ctx, limit)
}

// --- manager tasks ---

// GenerateTasks runs the rule scan over the current state. Safe to call
// repeatedly; duplicate titles are filtered both here and in the store.
func (s *Service) GenerateTasks(ctx context.Context) ([]domain.ManagerTask, error) {
	menuList, err := s.repo.ListMenuItems(ctx, false)
	if err != nil {
		return nil, err
	}
	ingList, err := s.repo.ListIngredients(ctx, false)
	if err != nil {
		return nil, err
	}
	prepList, err := s.repo.ListPrepTasks(ctx)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sales, err := s.repo.ListSales(ctx, now.AddDate(0, 0, -8), time.Time{}, 0)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.ListManagerTasks(ctx, "")
	if err != nil {
		return nil, err
	}

	generated := rules.Generate(rules.Input{
		MenuItems:   menuList,
		Ingredients: ingList,
		PrepTasks:   prepList,
		Sales:       sales,
		Existing:    existing,
		Now:         now,
	})
	return s.repo.CreateManagerTasks(ctx, generated)
}

func (s *Service) ListTasks(ctx context.Context, status string) ([]domain.ManagerTask, error) {
	return s.repo.ListManagerTasks(ctx, status)
}

func (s *Service) CreateTask(ctx context.Context, req domain.TaskCreateRequest) (domain.ManagerTask, error) {
	if strings.TrimSpace(req.Title) == "" {
		return domain.ManagerTask{}, store.ErrInvalidInput
	}
	priority := req.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}
	task, err := s.repo.CreateManagerTask(ctx, domain.ManagerTask{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    req.Category,
		Priority:    priority,
		Evidence:    req.Evidence,
		Source:      domain.TaskSourceManual,
	})
	if err != nil {
		return domain.ManagerTask{}, err
	}
	return *task, nil
}

func (s *Service) UpdateTaskStatus(ctx context.Context, id string, status string) (domain.ManagerTask, error) {
	task, err := s.repo.UpdateManagerTaskStatus(ctx, id, status, time.Now().UTC())
	if err != nil {
		return domain.ManagerTask{}, err
	}
	return *task, nil
}

// --- customers ---

func (s *Service) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) GetCustomerByPhone(ctx context.Context, phone string) (domain.Customer, error) {
	customer, err := s.repo.GetCustomerByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		return domain.Customer{}, err
	}
	return *customer, nil
}

func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.Customer, error) {
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		return domain.Customer{}, store.ErrInvalidInput
	}
	customer, err := s.repo.CreateCustomer(ctx, domain.Customer{
		Phone:   phone,
		Name:    strings.TrimSpace(req.Name),
		Segment: domain.SegmentNew,
	})
	if err != nil {
		return domain.Customer{}, err
	}
	s.logAudit(ctx, domain.AuditActionCreate, "customer", customer.ID, "customer registered")
	return *customer, nil
}

// UpdateCustomer edits the profile fields an operator may change. The
// loyalty counters stay under the transaction engine's control.
func (s *Service) UpdateCustomer(ctx context.Context, id string, req domain.CustomerUpdateRequest) (domain.Customer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Customer{}, store.ErrInvalidInput
	}
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return domain.Customer{}, err
	}
	var current *domain.Customer
	for i := range customers {
		if customers[i].ID == id {
			current = &customers[i]
			break
		}
	}
	if current == nil {
		return domain.Customer{}, store.ErrNotFound
	}

	if req.Name != nil {
		current.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone == "" {
			return domain.Customer{}, store.ErrInvalidInput
		}
		current.Phone = phone
	}

	updated, err := s.repo.UpdateCustomer(ctx, *current)
	if err != nil {
		return domain.Customer{}, err
	}
	s.logAudit(ctx, domain.AuditActionUpdate, "customer", updated.ID, "customer profile updated")
	return *updated, nil
}

// --- expenses ---

func (s *Service) CreateExpense(ctx context.Context, req domain.ExpenseCreateRequest) (domain.Expense, error) {
	if strings.TrimSpace(req.Category) == "" || req.Amount <= 0 {
		return domain.Expense{}, store.ErrInvalidInput
	}

	actor, _ := ActorFromContext(ctx)
	expense, err := s.repo.CreateExpense(ctx, domain.Expense{
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		OperatorID:  actor.Username,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return domain.Expense{}, err
	}
	s.logAudit(ctx, domain.AuditActionCreate, "expense", expense.ID, fmt.Sprintf("%s: %d", expense.Category, expense.Amount))
	s.invalidateReportCache(ctx, expense.CreatedAt)
	return *expense, nil
}

func (s *Service) ListExpenses(ctx context.Context, date string, limit int) ([]domain.Expense, error) {
	var from, to time.Time
	if strings.TrimSpace(date) != "" {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, store.ErrInvalidInput
		}
		from = parsed.UTC()
		to = from.Add(24 * time.Hour)
	}
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListExpenses(ctx, from, to, limit)
}

// --- settings ---

func (s *Service) GetSettings(ctx context.Context) (domain.Settings, error) {
	return s.repo.GetSettings(ctx)
}

func (s *Service) UpdateSettings(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Settings{}, err
	}
	updated, err := s.repo.UpdateSettings(ctx, settings)
	if err != nil {
		return domain.Settings{}, err
	}
	s.logAudit(ctx, domain.AuditActionUpdate, "settings", "settings", "policy "+updated.StockDeductionPolicy)
	return updated, nil
}

// --- audit ---

func (s *Service) ListAuditLogs(ctx context.Context, entityType string, date string, limit int) ([]domain.AuditLog, error) {
	if limit < 1 {
		limit = 100
	}
	var from time.Time
	if strings.TrimSpace(date) == "" {
		from = time.Now().UTC().Add(-24 * time.Hour)
	} else {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, store.ErrInvalidInput
		}
		from = parsed.UTC()
	}
	to := from.Add(24 * time.Hour)
	return s.repo.ListAuditLogs(ctx, entityType, from, to, limit)
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ID:         xid.New("aud"),
		CreatedAt:  time.Now().UTC(),
		UserID:     actor.Username,
		UserName:   actor.Username,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    detail,
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}
