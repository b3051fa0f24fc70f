package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"fyra/backend/internal/costing"
	"fyra/backend/internal/deduction"
	"fyra/backend/internal/domain"
	"fyra/backend/internal/ocr"
	"fyra/backend/internal/store"
)

// --- ingredients ---

func (s *Service) ListIngredients(ctx context.Context) ([]domain.Ingredient, error) {
	return s.repo.ListIngredients(ctx, false)
}

func (s *Service) GetIngredient(ctx context.Context, id string) (domain.Ingredient, error) {
	ing, err := s.repo.GetIngredient(ctx, id)
	if err != nil {
		return domain.Ingredient{}, err
	}
	return *ing, nil
}

func (s *Service) CreateIngredient(ctx context.Context, req domain.IngredientCreateRequest) (domain.Ingredient, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Ingredient{}, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Unit = strings.TrimSpace(req.Unit)
	if req.Name == "" || req.Unit == "" {
		return domain.Ingredient{}, store.ErrInvalidInput
	}
	if req.ConversionRate < 0 || req.CostPerUnit < 0 || req.MinThreshold < 0 {
		return domain.Ingredient{}, store.ErrInvalidInput
	}
	if req.ConversionRate == 0 {
		req.ConversionRate = 1
	}
	if req.PurchaseUnit == "" {
		req.PurchaseUnit = req.Unit
	}

	created, err := s.repo.CreateIngredient(ctx, domain.Ingredient{
		Name:              req.Name,
		Unit:              req.Unit,
		PurchaseUnit:      req.PurchaseUnit,
		ConversionRate:    req.ConversionRate,
		CurrentStock:      req.InitialStock,
		CostPerUnit:       req.CostPerUnit,
		MinThreshold:      req.MinThreshold,
		CustomConversions: req.CustomConversions,
	})
	if err != nil {
		return domain.Ingredient{}, err
	}
	s.logAudit(ctx, domain.AuditActionCreate, "ingredient", created.ID, fmt.Sprintf("name=%s stock=%.2f %s", created.Name, created.CurrentStock, created.Unit))
	return *created, nil
}

func (s *Service) UpdateIngredient(ctx context.Context, id string, req domain.IngredientUpdateRequest) (domain.Ingredient, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Ingredient{}, err
	}

	existing, err := s.repo.GetIngredient(ctx, id)
	if err != nil {
		return domain.Ingredient{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Ingredient{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Unit != nil {
		updated.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.PurchaseUnit != nil {
		updated.PurchaseUnit = strings.TrimSpace(*req.PurchaseUnit)
	}
	if req.ConversionRate != nil {
		if *req.ConversionRate < 0 {
			return domain.Ingredient{}, store.ErrInvalidInput
		}
		updated.ConversionRate = *req.ConversionRate
	}
	if req.CurrentStock != nil {
		updated.CurrentStock = *req.CurrentStock
	}
	if req.CostPerUnit != nil {
		if *req.CostPerUnit < 0 {
			return domain.Ingredient{}, store.ErrInvalidInput
		}
		updated.CostPerUnit = *req.CostPerUnit
	}
	if req.MinThreshold != nil {
		updated.MinThreshold = *req.MinThreshold
	}

	beforeJSON, _ := json.Marshal(existing)
	saved, err := s.repo.UpdateIngredient(ctx, updated)
	if err != nil {
		return domain.Ingredient{}, err
	}
	afterJSON, _ := json.Marshal(saved)
	s.logAuditSnapshots(ctx, domain.AuditActionUpdate, "ingredient", id, beforeJSON, afterJSON, "")
	return *saved, nil
}

func (s *Service) DeleteIngredient(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	deleted, err := s.repo.DeleteIngredient(ctx, id)
	if err != nil {
		return err
	}
	s.logAudit(ctx, domain.AuditActionDelete, "ingredient", id, "soft-deleted "+deleted.Name)
	return nil
}

// InventoryValue is the total value of current stock at usage-unit cost.
func (s *Service) InventoryValue(ctx context.Context) (int64, error) {
	ings, err := s.repo.ListIngredients(ctx, false)
	if err != nil {
		return 0, err
	}
	return costing.InventoryValue(ings), nil
}

// --- waste ---

// RecordWaste deducts spoiled stock and books the loss. An amount in a
// unit with no conversion path to the ingredient's usage unit is reported
// back as a mismatch and deducts nothing.
func (s *Service) RecordWaste(ctx context.Context, req domain.WasteRequest) (domain.WasteResult, error) {
	if req.Amount <= 0 {
		return domain.WasteResult{}, store.ErrInvalidInput
	}
	ing, err := s.repo.GetIngredient(ctx, req.IngredientID)
	if err != nil {
		return domain.WasteResult{}, err
	}

	unit := req.Unit
	if unit == "" {
		unit = ing.Unit
	}
	usage, ok := costing.ToUsageUnit(req.Amount, unit, *ing)
	if !ok {
		log.Printf("[service] WARN: waste unit mismatch ingredient=%s %s->%s", ing.ID, unit, ing.Unit)
		return domain.WasteResult{IngredientID: ing.ID, UnitMismatch: true}, nil
	}

	loss := costing.WasteLoss(*ing, usage)
	updated, err := s.repo.AdjustIngredientStock(ctx, ing.ID, -usage)
	if err != nil {
		return domain.WasteResult{}, err
	}

	beforeJSON, _ := json.Marshal(map[string]float64{"stock": ing.CurrentStock})
	afterJSON, _ := json.Marshal(map[string]any{"stock": updated.CurrentStock, "loss": loss})
	detail := fmt.Sprintf("waste %.2f %s", usage, ing.Unit)
	if req.Reason != "" {
		detail += ": " + req.Reason
	}
	s.logAuditSnapshots(ctx, domain.AuditActionWaste, "ingredient", ing.ID, beforeJSON, afterJSON, detail)

	s.invalidateReportCache(ctx, time.Now().UTC())
	return domain.WasteResult{IngredientID: ing.ID, Deducted: usage, Loss: loss}, nil
}

// --- supplier invoices ---

// ScanInvoice sends an invoice image to the OCR service and returns its
// draft for human review. Nothing is written here.
func (s *Service) ScanInvoice(ctx context.Context, image []byte, mimeType string) (domain.InvoiceDraft, error) {
	if s.ocrClient == nil || !s.ocrClient.Enabled() {
		return domain.InvoiceDraft{}, ocr.ErrUnavailable
	}
	ings, err := s.repo.ListIngredients(ctx, false)
	if err != nil {
		return domain.InvoiceDraft{}, err
	}
	draft, err := s.ocrClient.Scan(ctx, image, mimeType, ings)
	if err != nil {
		return domain.InvoiceDraft{}, err
	}
	return *draft, nil
}

// ApplyInvoice ingests a human-confirmed invoice: matched lines restock
// an existing ingredient (purchase-unit quantities, converted via its
// conversion rate), new lines create one. Every line is audit-logged as
// an invoice addition.
func (s *Service) ApplyInvoice(ctx context.Context, req domain.InvoiceIngestRequest) ([]domain.Ingredient, error) {
	if err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	if len(req.Items) == 0 {
		return nil, store.ErrInvalidInput
	}
	invoiceDate := req.InvoiceDate
	if invoiceDate.IsZero() {
		invoiceDate = time.Now().UTC()
	}

	touched := make([]domain.Ingredient, 0, len(req.Items))
	for _, line := range req.Items {
		if line.Qty <= 0 {
			return touched, fmt.Errorf("%w: non-positive quantity for %q", store.ErrInvalidInput, line.Name)
		}
		if line.IsNew {
			created, err := s.repo.CreateIngredient(ctx, domain.Ingredient{
				Name:           strings.TrimSpace(line.Name),
				Unit:           line.Unit,
				PurchaseUnit:   line.Unit,
				ConversionRate: 1,
				CurrentStock:   line.Qty,
				CostPerUnit:    line.CostPerUnit,
				PurchaseHistory: []domain.PurchaseRecord{
					{Date: invoiceDate, Qty: line.Qty, CostPerUnit: line.CostPerUnit},
				},
			})
			if err != nil {
				return touched, err
			}
			s.logAudit(ctx, domain.AuditActionInvoiceAdd, "ingredient", created.ID, fmt.Sprintf("new ingredient %s: %.2f %s", created.Name, line.Qty, line.Unit))
			touched = append(touched, *created)
			continue
		}

		updated, err := s.repo.RestockIngredient(ctx, line.MatchedID, domain.PurchaseRecord{
			Date:        invoiceDate,
			Qty:         line.Qty,
			CostPerUnit: line.CostPerUnit,
		}, line.CostPerUnit)
		if err != nil {
			return touched, fmt.Errorf("restock %q: %w", line.Name, err)
		}
		s.logAudit(ctx, domain.AuditActionInvoiceAdd, "ingredient", updated.ID, fmt.Sprintf("restocked %.2f %s", line.Qty, updated.PurchaseUnit))
		touched = append(touched, *updated)
	}
	return touched, nil
}

// --- menu items ---

func (s *Service) ListMenuItems(ctx context.Context) ([]domain.MenuItem, error) {
	return s.repo.ListMenuItems(ctx, false)
}

func (s *Service) GetMenuItem(ctx context.Context, id string) (domain.MenuItem, error) {
	item, err := s.repo.GetMenuItem(ctx, id)
	if err != nil {
		return domain.MenuItem{}, err
	}
	return *item, nil
}

func (s *Service) CreateMenuItem(ctx context.Context, req domain.MenuItemCreateRequest) (domain.MenuItem, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.MenuItem{}, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Price < 0 {
		return domain.MenuItem{}, store.ErrInvalidInput
	}
	if err := s.validateRecipe(ctx, req.Recipe); err != nil {
		return domain.MenuItem{}, err
	}

	created, err := s.repo.CreateMenuItem(ctx, domain.MenuItem{
		Name:     req.Name,
		Category: strings.TrimSpace(req.Category),
		Price:    req.Price,
		Recipe:   req.Recipe,
	})
	if err != nil {
		return domain.MenuItem{}, err
	}
	s.logAudit(ctx, domain.AuditActionCreate, "menu_item", created.ID, fmt.Sprintf("name=%s price=%d", created.Name, created.Price))
	return *created, nil
}

func (s *Service) UpdateMenuItem(ctx context.Context, id string, req domain.MenuItemUpdateRequest) (domain.MenuItem, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.MenuItem{}, err
	}
	existing, err := s.repo.GetMenuItem(ctx, id)
	if err != nil {
		return domain.MenuItem{}, err
	}

	updated := *existing
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.MenuItem{}, store.ErrInvalidInput
		}
		updated.Name = name
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(*req.Category)
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return domain.MenuItem{}, store.ErrInvalidInput
		}
		updated.Price = *req.Price
	}
	if req.Recipe != nil {
		if err := s.validateRecipe(ctx, *req.Recipe); err != nil {
			return domain.MenuItem{}, err
		}
		updated.Recipe = *req.Recipe
	}

	beforeJSON, _ := json.Marshal(existing)
	saved, err := s.repo.UpdateMenuItem(ctx, updated)
	if err != nil {
		return domain.MenuItem{}, err
	}
	afterJSON, _ := json.Marshal(saved)
	s.logAuditSnapshots(ctx, domain.AuditActionUpdate, "menu_item", id, beforeJSON, afterJSON, "")
	return *saved, nil
}

func (s *Service) DeleteMenuItem(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	deleted, err := s.repo.DeleteMenuItem(ctx, id)
	if err != nil {
		return err
	}
	s.logAudit(ctx, domain.AuditActionDelete, "menu_item", id, "soft-deleted "+deleted.Name)
	return nil
}

// validateRecipe checks line shapes; dangling references are allowed and
// degrade to zero cost, that gap is surfaced by the task generator instead.
func (s *Service) validateRecipe(_ context.Context, recipe []domain.RecipeLine) error {
	for _, line := range recipe {
		if line.ComponentID == "" || line.Amount <= 0 {
			return store.ErrInvalidInput
		}
		switch line.Source {
		case domain.SourceInventory, domain.SourcePrep:
		default:
			return fmt.Errorf("%w: unknown recipe source %q", store.ErrInvalidInput, line.Source)
		}
	}
	return nil
}

// --- prep tasks ---

func (s *Service) ListPrepTasks(ctx context.Context) ([]domain.PrepTask, error) {
	return s.repo.ListPrepTasks(ctx)
}

func (s *Service) CreatePrepTask(ctx context.Context, req domain.PrepTaskCreateRequest) (domain.PrepTask, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.PrepTask{}, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || strings.TrimSpace(req.Unit) == "" {
		return domain.PrepTask{}, store.ErrInvalidInput
	}
	if req.ParLevel < 0 || req.BatchSize < 0 || req.CostPerUnit < 0 {
		return domain.PrepTask{}, store.ErrInvalidInput
	}
	if err := s.validateRecipe(ctx, req.Recipe); err != nil {
		return domain.PrepTask{}, err
	}

	created, err := s.repo.CreatePrepTask(ctx, domain.PrepTask{
		Name:        req.Name,
		Station:     strings.TrimSpace(req.Station),
		ParLevel:    req.ParLevel,
		OnHand:      req.OnHand,
		Unit:        strings.TrimSpace(req.Unit),
		Recipe:      req.Recipe,
		BatchSize:   req.BatchSize,
		CostPerUnit: req.CostPerUnit,
	})
	if err != nil {
		return domain.PrepTask{}, err
	}
	s.logAudit(ctx, domain.AuditActionCreate, "prep_task", created.ID, "name="+created.Name)
	return *created, nil
}

func (s *Service) UpdatePrepTask(ctx context.Context, id string, req domain.PrepTaskUpdateRequest) (domain.PrepTask, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.PrepTask{}, err
	}
	existing, err := s.repo.GetPrepTask(ctx, id)
	if err != nil {
		return domain.PrepTask{}, err
	}

	updated := *existing
	if req.Station != nil {
		updated.Station = strings.TrimSpace(*req.Station)
	}
	if req.ParLevel != nil {
		if *req.ParLevel < 0 {
			return domain.PrepTask{}, store.ErrInvalidInput
		}
		updated.ParLevel = *req.ParLevel
	}
	if req.OnHand != nil {
		updated.OnHand = *req.OnHand
	}

	saved, err := s.repo.UpdatePrepTask(ctx, updated)
	if err != nil {
		return domain.PrepTask{}, err
	}
	return *saved, nil
}

func (s *Service) DeletePrepTask(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeletePrepTask(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, domain.AuditActionDelete, "prep_task", id, "removed")
	return nil
}

// CompletePrepBatch moves stock from raw ingredients into the prepared
// item: the batch recipe is deducted from inventory and the produced
// quantity lands on the prep's on-hand buffer. The prep's unit cost is
// refreshed from the recipe.
func (s *Service) CompletePrepBatch(ctx context.Context, prepID string, batches float64) (domain.PrepTask, error) {
	if batches <= 0 {
		return domain.PrepTask{}, store.ErrInvalidInput
	}
	prep, err := s.repo.GetPrepTask(ctx, prepID)
	if err != nil {
		return domain.PrepTask{}, err
	}
	if prep.BatchSize <= 0 {
		return domain.PrepTask{}, fmt.Errorf("%w: prep %s has no batch size", store.ErrInvalidInput, prepID)
	}

	_, ingredients, preps, err := s.collections(ctx)
	if err != nil {
		return domain.PrepTask{}, err
	}
	plan := deduction.BuildForBatch(*prep, batches, ingredients)
	for id, usage := range plan.Inventory {
		updated, err := s.repo.AdjustIngredientStock(ctx, id, -usage)
		if err != nil {
			return domain.PrepTask{}, err
		}
		if ing, ok := ingredients[id]; ok {
			beforeJSON, _ := json.Marshal(map[string]float64{"stock": ing.CurrentStock})
			afterJSON, _ := json.Marshal(map[string]float64{"stock": updated.CurrentStock})
			s.logAuditSnapshots(ctx, domain.AuditActionUpdate, "ingredient", id, beforeJSON, afterJSON, fmt.Sprintf("consumed %.2f by prep batch %s", usage, prep.Name))
		}
	}

	produced := *prep
	produced.OnHand += batches * prep.BatchSize
	produced.CostPerUnit = costing.PrepUnitCost(*prep, ingredients, preps)
	saved, err := s.repo.UpdatePrepTask(ctx, produced)
	if err != nil {
		return domain.PrepTask{}, err
	}
	s.logAudit(ctx, domain.AuditActionUpdate, "prep_task", prepID, fmt.Sprintf("produced %.2f %s", batches*prep.BatchSize, prep.Unit))
	return *saved, nil
}

func (s *Service) logAuditSnapshots(ctx context.Context, action string, entityType string, entityID string, before json.RawMessage, after json.RawMessage, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system", Role: "system"}
	}
	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		CreatedAt:  time.Now().UTC(),
		UserID:     actor.Username,
		UserName:   actor.Username,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Before:     before,
		After:      after,
		Details:    detail,
	}); err != nil {
		log.Printf("[audit] WARN: failed to write audit log action=%s entity=%s/%s: %v", action, entityType, entityID, err)
	}
}
