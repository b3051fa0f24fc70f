package domain

import "time"

type CartLine struct {
	MenuItemID string `json:"menu_item_id"`
	Qty        int    `json:"qty"`
}

// SaleRequest carries a cart plus payment details into the transaction engine.
type SaleRequest struct {
	Cart            []CartLine `json:"cart"`
	PaymentMethod   string     `json:"payment_method"`
	Discount        int64      `json:"discount"`
	TaxPercent      *float64   `json:"tax_percent,omitempty"`
	ShiftID         string     `json:"shift_id,omitempty"`
	CustomerPhone   string     `json:"customer_phone,omitempty"`
	CustomerName    string     `json:"customer_name,omitempty"`
	PointsToRedeem  int64      `json:"points_to_redeem,omitempty"`
	ConfirmShortage bool       `json:"confirm_shortage,omitempty"`
}

// SaleResult is the outcome of a committed (or blocked) transaction.
// Shortages is populated when the stock policy stopped the sale.
type SaleResult struct {
	Sale              *Sale      `json:"sale,omitempty"`
	InventoryShortage bool       `json:"inventory_shortage"`
	PrepShortage      bool       `json:"prep_shortage"`
	Shortages         []Shortage `json:"shortages,omitempty"`
}

type IngredientCreateRequest struct {
	Name              string             `json:"name"`
	Unit              string             `json:"unit"`
	PurchaseUnit      string             `json:"purchase_unit"`
	ConversionRate    float64            `json:"conversion_rate"`
	InitialStock      float64            `json:"initial_stock"`
	CostPerUnit       int64              `json:"cost_per_unit"`
	MinThreshold      float64            `json:"min_threshold"`
	CustomConversions map[string]float64 `json:"custom_conversions,omitempty"`
}

type IngredientUpdateRequest struct {
	Name           *string  `json:"name,omitempty"`
	Unit           *string  `json:"unit,omitempty"`
	PurchaseUnit   *string  `json:"purchase_unit,omitempty"`
	ConversionRate *float64 `json:"conversion_rate,omitempty"`
	CurrentStock   *float64 `json:"current_stock,omitempty"`
	CostPerUnit    *int64   `json:"cost_per_unit,omitempty"`
	MinThreshold   *float64 `json:"min_threshold,omitempty"`
}

type MenuItemCreateRequest struct {
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Price    int64        `json:"price"`
	Recipe   []RecipeLine `json:"recipe,omitempty"`
}

type MenuItemUpdateRequest struct {
	Name     *string       `json:"name,omitempty"`
	Category *string       `json:"category,omitempty"`
	Price    *int64        `json:"price,omitempty"`
	Recipe   *[]RecipeLine `json:"recipe,omitempty"`
}

type PrepTaskCreateRequest struct {
	Name        string       `json:"name"`
	Station     string       `json:"station"`
	ParLevel    float64      `json:"par_level"`
	OnHand      float64      `json:"on_hand"`
	Unit        string       `json:"unit"`
	Recipe      []RecipeLine `json:"recipe,omitempty"`
	BatchSize   float64      `json:"batch_size"`
	CostPerUnit int64        `json:"cost_per_unit"`
}

type PrepTaskUpdateRequest struct {
	Station  *string  `json:"station,omitempty"`
	ParLevel *float64 `json:"par_level,omitempty"`
	OnHand   *float64 `json:"on_hand,omitempty"`
}

type WasteRequest struct {
	IngredientID string  `json:"ingredient_id"`
	Amount       float64 `json:"amount"`
	Unit         string  `json:"unit"`
	Reason       string  `json:"reason,omitempty"`
}

// WasteResult reports the recorded waste. UnitMismatch is set when no
// conversion path existed; the stock is left untouched and Loss is zero.
type WasteResult struct {
	IngredientID string  `json:"ingredient_id"`
	Deducted     float64 `json:"deducted"`
	Loss         int64   `json:"loss"`
	UnitMismatch bool    `json:"unit_mismatch"`
}

type ExpenseCreateRequest struct {
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Amount      int64  `json:"amount"`
}

type ShiftOpenRequest struct {
	StartingCash int64 `json:"starting_cash"`
}

// ShiftDetail pairs a shift with every sale recorded against it.
type ShiftDetail struct {
	Shift Shift  `json:"shift"`
	Sales []Sale `json:"sales"`
}

type ShiftCloseRequest struct {
	ShiftID     string `json:"shift_id"`
	ActualCash  int64  `json:"actual_cash"`
	BankDeposit int64  `json:"bank_deposit"`
}

// InvoiceLine is one human-confirmed line from a scanned supplier invoice.
// MatchedID points at an existing ingredient; IsNew requests creation.
type InvoiceLine struct {
	Name        string  `json:"name"`
	Qty         float64 `json:"qty"`
	Unit        string  `json:"unit"`
	CostPerUnit int64   `json:"cost_per_unit"`
	IsNew       bool    `json:"is_new"`
	MatchedID   string  `json:"matched_id,omitempty"`
}

type InvoiceIngestRequest struct {
	InvoiceDate time.Time     `json:"invoice_date"`
	Items       []InvoiceLine `json:"items"`
}

// InvoiceDraft is the OCR service's proposal, pending human review.
type InvoiceDraft struct {
	InvoiceDate time.Time     `json:"invoice_date"`
	Items       []InvoiceLine `json:"items"`
}

type TaskCreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
	Evidence    []string `json:"evidence,omitempty"`
}

type CustomerCreateRequest struct {
	Phone string `json:"phone"`
	Name  string `json:"name,omitempty"`
}

type CustomerUpdateRequest struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

type DailyReport struct {
	Date         string           `json:"date"`
	Transactions int64            `json:"transactions"`
	Revenue      int64            `json:"revenue"`
	COGS         int64            `json:"cogs"`
	GrossMargin  int64            `json:"gross_margin"`
	WasteLoss    int64            `json:"waste_loss"`
	Expenses     int64            `json:"expenses"`
	Discounts    int64            `json:"discounts"`
	ByPayment    map[string]int64 `json:"by_payment"`
}

type ReceiptResponse struct {
	SaleID       string `json:"sale_id"`
	PreviewText  string `json:"preview_text"`
	EscposBase64 string `json:"escpos_base64"`
	QRPNGBase64  string `json:"qr_png_base64"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type OperatorCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type OperatorUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}
