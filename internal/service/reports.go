package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"fyra/backend/internal/domain"
	"fyra/backend/internal/store"
)

func reportCacheKey(day time.Time) string {
	return "fyra:report:" + day.Format("2006-01-02")
}

// DailyReport aggregates one day of sales plus the waste booked against
// it. Results are cached briefly; any sale or waste on that day evicts
// the entry.
func (s *Service) DailyReport(ctx context.Context, date string) (domain.DailyReport, error) {
	var day time.Time
	if strings.TrimSpace(date) == "" {
		now := time.Now().UTC()
		day = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	} else {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return domain.DailyReport{}, store.ErrInvalidInput
		}
		day = parsed.UTC()
	}

	key := reportCacheKey(day)
	if cached, ok, err := s.reportCache.Get(ctx, key); err == nil && ok {
		return *cached, nil
	}

	from := day
	to := from.Add(24 * time.Hour)
	sales, err := s.repo.ListSales(ctx, from, to, 0)
	if err != nil {
		return domain.DailyReport{}, err
	}

	report := domain.DailyReport{
		Date:      from.Format("2006-01-02"),
		ByPayment: map[string]int64{},
	}
	for _, sale := range sales {
		if sale.Status != domain.SaleStatusCompleted {
			continue
		}
		report.Transactions++
		report.Revenue += sale.TotalAmount
		report.COGS += sale.TotalCost
		report.Discounts += sale.Discount
		report.ByPayment[sale.PaymentMethod] += sale.TotalAmount
	}
	report.GrossMargin = report.Revenue - report.COGS
	report.WasteLoss, err = s.wasteLossBetween(ctx, from, to)
	if err != nil {
		return domain.DailyReport{}, err
	}
	expenses, err := s.repo.ListExpenses(ctx, from, to, 0)
	if err != nil {
		return domain.DailyReport{}, err
	}
	for _, expense := range expenses {
		report.Expenses += expense.Amount
	}

	if err := s.reportCache.Set(ctx, key, &report, s.cacheTTL); err != nil {
		log.Printf("[service] WARN: report cache set failed: %v", err)
	}
	return report, nil
}

// wasteLossBetween sums the loss values recorded on WASTE audit entries.
func (s *Service) wasteLossBetween(ctx context.Context, from time.Time, to time.Time) (int64, error) {
	entries, err := s.repo.ListAuditLogs(ctx, "ingredient", from, to, 10_000)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, entry := range entries {
		if entry.Action != domain.AuditActionWaste || len(entry.After) == 0 {
			continue
		}
		var after struct {
			Loss int64 `json:"loss"`
		}
		if err := json.Unmarshal(entry.After, &after); err != nil {
			continue
		}
		total += after.Loss
	}
	return total, nil
}

func (s *Service) invalidateReportCache(ctx context.Context, at time.Time) {
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	if err := s.reportCache.Invalidate(ctx, reportCacheKey(day)); err != nil {
		log.Printf("[service] WARN: report cache invalidate failed: %v", err)
	}
}

// BuildReceipt renders a printable receipt for a sale: plain-text
// preview, raw ESC/POS bytes for a thermal printer, and a QR code of the
// invoice number for paperless lookup.
func (s *Service) BuildReceipt(ctx context.Context, saleID string) (domain.ReceiptResponse, error) {
	saleID = strings.TrimSpace(saleID)
	if saleID == "" {
		return domain.ReceiptResponse{}, store.ErrInvalidInput
	}
	sale, err := s.repo.GetSale(ctx, saleID)
	if err != nil {
		return domain.ReceiptResponse{}, err
	}

	lines := []string{
		"Fyra Kitchen",
		"========================",
		"Invoice: " + sale.InvoiceNumber,
		"Date: " + sale.CreatedAt.Format("2006-01-02 15:04:05"),
		"Operator: " + sale.OperatorName,
		"------------------------",
	}
	var subtotal int64
	for _, item := range sale.Items {
		lines = append(lines, fmt.Sprintf("%s x%d", item.Name, item.Qty))
		lines = append(lines, fmt.Sprintf("  %d", item.PriceAtSale*int64(item.Qty)))
		subtotal += item.PriceAtSale * int64(item.Qty)
	}
	lines = append(lines,
		"------------------------",
		fmt.Sprintf("Subtotal : %d", subtotal),
		fmt.Sprintf("Pajak    : %.1f%%", sale.TaxPercent),
		fmt.Sprintf("Diskon   : %d", sale.Discount),
		fmt.Sprintf("Total    : %d", sale.TotalAmount),
		"Bayar    : "+sale.PaymentMethod,
		"========================",
		"Terima kasih",
		"",
	)

	escpos := []byte{0x1b, 0x40}
	for _, line := range lines {
		escpos = append(escpos, []byte(line)...)
		escpos = append(escpos, '\n')
	}
	escpos = append(escpos, []byte{0x1d, 0x56, 0x41, 0x10}...)

	qrPNG, err := qrcode.Encode(sale.InvoiceNumber, qrcode.Medium, 256)
	if err != nil {
		return domain.ReceiptResponse{}, fmt.Errorf("receipt qr: %w", err)
	}

	return domain.ReceiptResponse{
		SaleID:       sale.ID,
		PreviewText:  strings.Join(lines, "\n"),
		EscposBase64: base64.StdEncoding.EncodeToString(escpos),
		QRPNGBase64:  base64.StdEncoding.EncodeToString(qrPNG),
	}, nil
}

// --- state management ---

func (s *Service) ExportState(ctx context.Context) (store.Snapshot, error) {
	if err := requireAdmin(ctx); err != nil {
		return store.Snapshot{}, err
	}
	return s.repo.Export(ctx)
}

// ResetState clears all collections. The invoice counter is preserved by
// the store so numbers are never reissued.
func (s *Service) ResetState(ctx context.Context) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.Reset(ctx); err != nil {
		return err
	}
	log.Printf("[service] state reset by admin")
	return nil
}
