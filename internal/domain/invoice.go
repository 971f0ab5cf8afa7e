package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceUnpaid        InvoiceStatus = "unpaid"
	InvoicePartiallyPaid InvoiceStatus = "partially_paid"
	InvoicePaid          InvoiceStatus = "paid"
	InvoiceCancelled     InvoiceStatus = "cancelled"
)

// InvoiceRef is the view of a receivable that matching and committing need.
type InvoiceRef struct {
	ID               int64           `json:"id"`
	InvoiceNumber    string          `json:"invoice_number"`
	CompanyID        string          `json:"company_id"`
	CustomerName     string          `json:"customer_name"`
	CustomerNameKana string          `json:"customer_name_kana,omitempty"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	PaidAmount       decimal.Decimal `json:"paid_amount"`
	IssueDate        time.Time       `json:"issue_date"`
	DueDate          time.Time       `json:"due_date"`
	Status           InvoiceStatus   `json:"status"`
}

// OutstandingAmount is the part of the invoice total not yet paid.
func (i InvoiceRef) OutstandingAmount() decimal.Decimal {
	return i.TotalAmount.Sub(i.PaidAmount)
}

// IsSettled reports whether the invoice can no longer receive payments.
func (i InvoiceRef) IsSettled() bool {
	return i.Status == InvoiceCancelled || !i.OutstandingAmount().IsPositive()
}

// ReferenceDate is the due date, or the issue date when no due date is set.
func (i InvoiceRef) ReferenceDate() time.Time {
	if !i.DueDate.IsZero() {
		return i.DueDate
	}
	return i.IssueDate
}
