package domain

import (
	"encoding/json"
	"time"
)

// PurchaseRecord is one restocking event in an ingredient's history.
type PurchaseRecord struct {
	Date        time.Time `json:"date"`
	Qty         float64   `json:"qty"`
	CostPerUnit int64     `json:"cost_per_unit"`
}

// Ingredient is a raw stock item. CurrentStock is kept in usage units and is
// allowed to go negative depending on the stock deduction policy.
type Ingredient struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Unit              string             `json:"unit"`
	PurchaseUnit      string             `json:"purchase_unit"`
	ConversionRate    float64            `json:"conversion_rate"`
	CurrentStock      float64            `json:"current_stock"`
	CostPerUnit       int64              `json:"cost_per_unit"`
	MinThreshold      float64            `json:"min_threshold"`
	CustomConversions map[string]float64 `json:"custom_conversions,omitempty"`
	PurchaseHistory   []PurchaseRecord   `json:"purchase_history,omitempty"`
	Deleted           bool               `json:"deleted"`
}

// RecipeLine references one component consumed by a recipe. Source selects the
// collection the component lives in.
type RecipeLine struct {
	ComponentID string  `json:"component_id"`
	Amount      float64 `json:"amount"`
	Unit        string  `json:"unit"`
	Source      string  `json:"source"`
}

const (
	SourceInventory = "inventory"
	SourcePrep      = "prep"
)

// PrepTask is an in-house produced batch item (sauces, doughs, stocks)
// consumed by menu recipes as its own unit.
type PrepTask struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Station     string       `json:"station"`
	ParLevel    float64      `json:"par_level"`
	OnHand      float64      `json:"on_hand"`
	Unit        string       `json:"unit"`
	Recipe      []RecipeLine `json:"recipe,omitempty"`
	BatchSize   float64      `json:"batch_size"`
	CostPerUnit int64        `json:"cost_per_unit"`
}

type MenuItem struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Price    int64        `json:"price"`
	Recipe   []RecipeLine `json:"recipe,omitempty"`
	Deleted  bool         `json:"deleted"`
}

// SaleItem freezes price and cost at the moment of sale.
type SaleItem struct {
	MenuItemID  string `json:"menu_item_id"`
	Name        string `json:"name"`
	Qty         int    `json:"qty"`
	PriceAtSale int64  `json:"price_at_sale"`
	CostAtSale  int64  `json:"cost_at_sale"`
}

type Sale struct {
	ID            string     `json:"id"`
	InvoiceNumber string     `json:"invoice_number"`
	CreatedAt     time.Time  `json:"created_at"`
	Items         []SaleItem `json:"items"`
	TotalAmount   int64      `json:"total_amount"`
	TotalCost     int64      `json:"total_cost"`
	TaxPercent    float64    `json:"tax_percent"`
	Discount      int64      `json:"discount"`
	PaymentMethod string     `json:"payment_method"`
	ShiftID       string     `json:"shift_id,omitempty"`
	CustomerID    string     `json:"customer_id,omitempty"`
	OperatorID    string     `json:"operator_id"`
	OperatorName  string     `json:"operator_name"`
	Status        string     `json:"status"`
}

const (
	PaymentCash   = "cash"
	PaymentCard   = "card"
	PaymentOnline = "online"
)

const SaleStatusCompleted = "completed"

type CustomerSegment string

const (
	SegmentNew      CustomerSegment = "new"
	SegmentLoyal    CustomerSegment = "loyal"
	SegmentVIP      CustomerSegment = "vip"
	SegmentSlipping CustomerSegment = "slipping"
	SegmentChurned  CustomerSegment = "churned"
)

type Customer struct {
	ID                string          `json:"id"`
	Phone             string          `json:"phone"`
	Name              string          `json:"name,omitempty"`
	TotalVisits       int             `json:"total_visits"`
	TotalSpent        int64           `json:"total_spent"`
	LastVisit         time.Time       `json:"last_visit"`
	AverageOrderValue int64           `json:"average_order_value"`
	LoyaltyPoints     int64           `json:"loyalty_points"`
	WalletBalance     int64           `json:"wallet_balance"`
	FavoriteItems     map[string]int  `json:"favorite_items,omitempty"`
	Segment           CustomerSegment `json:"segment"`
}

const (
	ShiftStatusOpen   = "open"
	ShiftStatusClosed = "closed"
)

type Shift struct {
	ID                string     `json:"id"`
	StartTime         time.Time  `json:"start_time"`
	EndTime           *time.Time `json:"end_time,omitempty"`
	StartingCash      int64      `json:"starting_cash"`
	Status            string     `json:"status"`
	ActualCashSales   int64      `json:"actual_cash_sales"`
	ExpectedCashSales int64      `json:"expected_cash_sales"`
	CardSales         int64      `json:"card_sales"`
	OnlineSales       int64      `json:"online_sales"`
	BankDeposit       int64      `json:"bank_deposit"`
	Discrepancy       int64      `json:"discrepancy"`
}

const (
	AuditActionCreate      = "CREATE"
	AuditActionUpdate      = "UPDATE"
	AuditActionDelete      = "DELETE"
	AuditActionWaste       = "WASTE"
	AuditActionShiftClose  = "SHIFT_CLOSE"
	AuditActionInvoiceAdd  = "INVOICE_ADD"
	AuditActionTransaction = "TRANSACTION"
)

// AuditLog is append-only; entries are never mutated or deleted.
type AuditLog struct {
	ID         string          `json:"id"`
	CreatedAt  time.Time       `json:"created_at"`
	UserID     string          `json:"user_id"`
	UserName   string          `json:"user_name"`
	Action     string          `json:"action"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
	Details    string          `json:"details,omitempty"`
}

const (
	TaskStatusOpen       = "open"
	TaskStatusInProgress = "in_progress"
	TaskStatusDone       = "done"
	TaskStatusDismissed  = "dismissed"
)

const (
	TaskSourceRule   = "rule"
	TaskSourceManual = "manual"
)

const (
	TaskPriorityHigh   = "high"
	TaskPriorityMedium = "medium"
	TaskPriorityLow    = "low"
)

// ManagerTask is an actionable item surfaced to restaurant management. Title
// doubles as the dedup key against open and in-progress tasks.
type ManagerTask struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	Evidence    []string  `json:"evidence,omitempty"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Stock deduction policies.
const (
	PolicyAllowNegative       = "ALLOW_NEGATIVE"
	PolicyBlockIfInsufficient = "BLOCK_SALE_IF_INSUFFICIENT"
	PolicyRequireConfirmation = "ALLOW_BUT_REQUIRE_CONFIRMATION"
)

const (
	LoyaltyProgramCashback = "cashback"
	LoyaltyProgramPoints   = "points"
)

type LoyaltySettings struct {
	Enabled         bool    `json:"enabled"`
	ProgramType     string  `json:"program_type"`
	CashbackPercent float64 `json:"cashback_percent"`
	PointsRate      int64   `json:"points_rate"`
}

type Settings struct {
	StockDeductionPolicy string          `json:"stock_deduction_policy"`
	Loyalty              LoyaltySettings `json:"loyalty"`
	TaxPercent           float64         `json:"tax_percent"`
}

// Expense is an operating cost recorded outside the ingredient ledger
// (rent, utilities, wages). It is persisted and reported but never
// touches stock.
type Expense struct {
	ID          string    `json:"id"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Amount      int64     `json:"amount"`
	OperatorID  string    `json:"operator_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Shortage describes one component a cart would drive below zero.
type Shortage struct {
	ComponentID string  `json:"component_id"`
	Name        string  `json:"name"`
	Source      string  `json:"source"`
	Required    float64 `json:"required"`
	Available   float64 `json:"available"`
	Shortfall   float64 `json:"shortfall"`
}

// Actor identifies the authenticated operator driving a request.
type Actor struct {
	Username string
	Role     string
}
