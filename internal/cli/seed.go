package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shiwake/reconciler/internal/domain"
)

// seedInvoice is the on-disk shape of testdata/invoices.json.
type seedInvoice struct {
	InvoiceNumber    string          `json:"invoice_number"`
	CompanyID        string          `json:"company_id"`
	CustomerName     string          `json:"customer_name"`
	CustomerNameKana string          `json:"customer_name_kana"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	IssueDate        string          `json:"issue_date"`
	DueDate          string          `json:"due_date"`
	Status           string          `json:"status"`
}

// findSeedFile returns the first readable seed file. An explicit path must
// exist; the default locations are optional and yield nil data when absent.
func findSeedFile(explicit string) (string, []byte, error) {
	if explicit != "" {
		data, err := os.ReadFile(explicit)
		if err != nil {
			return explicit, nil, fmt.Errorf("read seed file: %w", err)
		}
		return explicit, data, nil
	}

	candidates := []string{filepath.Join("testdata", "invoices.json")}
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, "testdata", "invoices.json"),
			filepath.Join(dir, "..", "..", "testdata", "invoices.json"),
		)
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err == nil {
			return path, data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return path, nil, fmt.Errorf("read seed file: %w", err)
		}
	}
	return "", nil, nil
}

func decodeSeedInvoices(data []byte, defaultCompanyID string) ([]domain.InvoiceRef, error) {
	var raw []seedInvoice
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal invoices: %w", err)
	}

	out := make([]domain.InvoiceRef, 0, len(raw))
	for i, s := range raw {
		if s.InvoiceNumber == "" {
			return nil, fmt.Errorf("invoice %d: invoice_number is required", i)
		}
		inv := domain.InvoiceRef{
			InvoiceNumber:    s.InvoiceNumber,
			CompanyID:        s.CompanyID,
			CustomerName:     s.CustomerName,
			CustomerNameKana: s.CustomerNameKana,
			TotalAmount:      s.TotalAmount,
			PaidAmount:       s.PaidAmount,
			Status:           domain.InvoiceStatus(s.Status),
		}
		if inv.CompanyID == "" {
			inv.CompanyID = defaultCompanyID
		}
		if inv.Status == "" {
			inv.Status = domain.InvoiceUnpaid
		}

		var err error
		if inv.IssueDate, err = parseSeedDate(s.IssueDate); err != nil {
			return nil, fmt.Errorf("invoice %s: issue_date: %w", s.InvoiceNumber, err)
		}
		if inv.DueDate, err = parseSeedDate(s.DueDate); err != nil {
			return nil, fmt.Errorf("invoice %s: due_date: %w", s.InvoiceNumber, err)
		}
		out = append(out, inv)
	}
	return out, nil
}

func parseSeedDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
