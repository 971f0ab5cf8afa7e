package cli

import (
	"fmt"
	"strings"

	"github.com/shiwake/reconciler/internal/domain"
	"github.com/shiwake/reconciler/internal/ingestion"
	"github.com/shiwake/reconciler/internal/money"
)

// HumanSummary renders an import result for the terminal.
func HumanSummary(res *ingestion.ImportResult) string {
	var b strings.Builder
	p := res.Parse

	fmt.Fprintf(&b, "Import %s (%s", res.ImportID, res.FileType)
	if res.DetectedBank != "" {
		fmt.Fprintf(&b, ", %s", res.DetectedBank)
	}
	fmt.Fprintf(&b, ")\n")
	fmt.Fprintf(&b, "Transactions: %d (deposits %d, withdrawals %d)\n", p.TotalCount, p.DepositCount, p.WithdrawalCount)
	fmt.Fprintf(&b, "Deposit total: %s\n", money.FormatYen(p.TotalDepositAmount))
	fmt.Fprintf(&b, "Withdrawal total: %s\n", money.FormatYen(p.TotalWithdrawalAmount))
	fmt.Fprintf(&b, "Already imported: %d\n", res.DuplicateCheck.DuplicateCount)

	if res.Saved != nil {
		fmt.Fprintf(&b, "Saved: %d new, %d skipped\n", res.Saved.Created, res.Saved.Skipped)
	}

	if len(res.MatchResults) > 0 {
		fmt.Fprintf(&b, "\nMatches:\n")
		for _, m := range res.MatchResults {
			target := "-"
			if m.MatchedInvoice != nil {
				target = m.MatchedInvoice.InvoiceNumber
			}
			fmt.Fprintf(&b, "- %s %s %s -> %s [%s] %s\n",
				m.Transaction.Date.Format("2006-01-02"),
				m.Transaction.Content,
				money.FormatYen(m.Transaction.Amount),
				target, m.Confidence, m.MatchReason)
		}
		counts := map[domain.Confidence]int{}
		for _, m := range res.MatchResults {
			counts[m.Confidence]++
		}
		fmt.Fprintf(&b, "Confidence: high %d, medium %d, low %d, none %d\n",
			counts[domain.ConfidenceHigh], counts[domain.ConfidenceMedium],
			counts[domain.ConfidenceLow], counts[domain.ConfidenceNone])
	}

	c := res.Commit
	if c.Created > 0 || c.Skipped > 0 || len(c.Errors) > 0 {
		fmt.Fprintf(&b, "\nPayments: %d created, %d skipped\n", c.Created, c.Skipped)
	}

	var notes []string
	notes = append(notes, p.Errors...)
	if res.Saved != nil {
		notes = append(notes, res.Saved.Errors...)
	}
	notes = append(notes, c.Errors...)
	if len(notes) > 0 {
		fmt.Fprintf(&b, "\nErrors:\n")
		for _, n := range notes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}
	return b.String()
}
