package domain

import "errors"

var (
	// ErrDuplicatePayment is returned by payment stores when the dedup key
	// already exists. Committers treat it as a skip.
	ErrDuplicatePayment = errors.New("payment already recorded")

	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrInvoiceSettled is returned when a payment targets an invoice that is
	// already fully paid or cancelled.
	ErrInvoiceSettled = errors.New("invoice already settled")
)
