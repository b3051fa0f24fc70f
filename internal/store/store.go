package store

import (
	"context"
	"errors"
	"time"

	"fyra/backend/internal/domain"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrShiftConflict        = errors.New("shift conflict")
	ErrSaleBlocked          = errors.New("sale blocked by stock policy")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrDuplicate            = errors.New("already exists")
)

// SchemaVersion is the current snapshot layout version. Older snapshots
// are migrated forward on load.
const SchemaVersion = 2

// DefaultSettings is the configuration a fresh install starts with.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		StockDeductionPolicy: domain.PolicyRequireConfirmation,
		Loyalty: domain.LoyaltySettings{
			Enabled:         true,
			ProgramType:     domain.LoyaltyProgramCashback,
			CashbackPercent: 2,
			PointsRate:      10_000,
		},
		TaxPercent: 10,
	}
}

// Snapshot is the full serialized state of the system. It is what the
// persistence backends load and save as one unit.
type Snapshot struct {
	SchemaVersion  int                  `json:"schema_version"`
	Ingredients    []domain.Ingredient  `json:"ingredients"`
	PrepTasks      []domain.PrepTask    `json:"prep_tasks"`
	MenuItems      []domain.MenuItem    `json:"menu_items"`
	Sales          []domain.Sale        `json:"sales"`
	Expenses       []domain.Expense     `json:"expenses"`
	Customers      []domain.Customer    `json:"customers"`
	Shifts         []domain.Shift       `json:"shifts"`
	ManagerTasks   []domain.ManagerTask `json:"manager_tasks"`
	AuditLogs      []domain.AuditLog    `json:"audit_logs"`
	Users          []domain.UserAccount `json:"users"`
	Settings       domain.Settings      `json:"settings"`
	InvoiceCounter int64                `json:"invoice_counter"`
	InvoiceYear    int                  `json:"invoice_year"`
	SavedAt        time.Time            `json:"saved_at"`
}

// SnapshotSink receives the current snapshot after each mutation.
// Implementations must not call back into the store.
type SnapshotSink interface {
	Save(ctx context.Context, snap Snapshot) error
}

// SaleCommit is everything the store needs to commit a transaction
// atomically: the priced sale, the stock deductions it implies, and
// the customer identity to credit.
type SaleCommit struct {
	Sale            domain.Sale
	InventoryDed    map[string]float64 // ingredient ID -> usage units
	PrepDed         map[string]float64 // prep task ID -> usage units
	CustomerPhone   string
	CustomerName    string
	PointsToRedeem  int64
	ConfirmShortage bool
}

type SaleCommitResult struct {
	Sale      *domain.Sale
	Customer  *domain.Customer
	Shortages []domain.Shortage
	// NegativeIngredients and NegativePrep list component IDs whose stock
	// ended below zero after this commit. Prep entries cover only items
	// that crossed from non-negative to negative here.
	NegativeIngredients []string
	NegativePrep        []string
}

type Repository interface {
	ListIngredients(ctx context.Context, includeDeleted bool) ([]domain.Ingredient, error)
	GetIngredient(ctx context.Context, id string) (*domain.Ingredient, error)
	CreateIngredient(ctx context.Context, ing domain.Ingredient) (*domain.Ingredient, error)
	UpdateIngredient(ctx context.Context, ing domain.Ingredient) (*domain.Ingredient, error)
	DeleteIngredient(ctx context.Context, id string) (*domain.Ingredient, error)
	AdjustIngredientStock(ctx context.Context, id string, delta float64) (*domain.Ingredient, error)
	RestockIngredient(ctx context.Context, id string, purchase domain.PurchaseRecord, newCostPerUnit int64) (*domain.Ingredient, error)

	ListPrepTasks(ctx context.Context) ([]domain.PrepTask, error)
	GetPrepTask(ctx context.Context, id string) (*domain.PrepTask, error)
	CreatePrepTask(ctx context.Context, prep domain.PrepTask) (*domain.PrepTask, error)
	UpdatePrepTask(ctx context.Context, prep domain.PrepTask) (*domain.PrepTask, error)
	DeletePrepTask(ctx context.Context, id string) error

	ListMenuItems(ctx context.Context, includeDeleted bool) ([]domain.MenuItem, error)
	GetMenuItem(ctx context.Context, id string) (*domain.MenuItem, error)
	CreateMenuItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id string) (*domain.MenuItem, error)

	CommitSale(ctx context.Context, commit SaleCommit) (*SaleCommitResult, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	ListSales(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.Sale, error)
	ListSalesByShift(ctx context.Context, shiftID string) ([]domain.Sale, error)

	CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error)
	ListExpenses(ctx context.Context, from time.Time, to time.Time, limit int) ([]domain.Expense, error)

	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	GetCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, c domain.Customer) (*domain.Customer, error)

	OpenShift(ctx context.Context, shift domain.Shift) (*domain.Shift, error)
	GetOpenShift(ctx context.Context) (*domain.Shift, error)
	GetShift(ctx context.Context, id string) (*domain.Shift, error)
	CloseShift(ctx context.Context, id string, actualCash int64, bankDeposit int64, closedAt time.Time) (*domain.Shift, error)
	ListShifts(ctx context.Context, limit int) ([]domain.Shift, error)

	ListManagerTasks(ctx context.Context, status string) ([]domain.ManagerTask, error)
	CreateManagerTask(ctx context.Context, task domain.ManagerTask) (*domain.ManagerTask, error)
	CreateManagerTasks(ctx context.Context, tasks []domain.ManagerTask) ([]domain.ManagerTask, error)
	UpdateManagerTaskStatus(ctx context.Context, id string, status string, at time.Time) (*domain.ManagerTask, error)

	CreateAuditLog(ctx context.Context, entry domain.AuditLog) error
	ListAuditLogs(ctx context.Context, entityType string, from time.Time, to time.Time, limit int) ([]domain.AuditLog, error)

	GetSettings(ctx context.Context) (domain.Settings, error)
	UpdateSettings(ctx context.Context, s domain.Settings) (domain.Settings, error)

	CreateUser(ctx context.Context, user domain.UserAccount) error
	GetUser(ctx context.Context, username string) (*domain.UserAccount, error)
	ListUsers(ctx context.Context) ([]domain.UserAccount, error)
	UpdateUserPassword(ctx context.Context, username string, password string) error

	Export(ctx context.Context) (Snapshot, error)
	Import(ctx context.Context, snap Snapshot) error
	Reset(ctx context.Context) error
}
