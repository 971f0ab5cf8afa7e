package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiwake/reconciler/internal/domain"
)

type memStore struct {
	rows    map[string]domain.ImportedTransaction
	history []domain.ImportHistory
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]domain.ImportedTransaction{}}
}

func (m *memStore) FindByHashes(_ context.Context, companyID string, hashes []string) (map[string]domain.ImportedTransaction, error) {
	out := map[string]domain.ImportedTransaction{}
	for _, h := range hashes {
		if row, ok := m.rows[h]; ok && row.CompanyID == companyID {
			out[h] = row
		}
	}
	return out, nil
}

func (m *memStore) InsertTransactions(_ context.Context, txns []domain.ImportedTransaction) (int, error) {
	n := 0
	for _, t := range txns {
		if _, ok := m.rows[t.TransactionHash]; ok {
			continue
		}
		m.rows[t.TransactionHash] = t
		n++
	}
	return n, nil
}

func (m *memStore) InsertHistory(_ context.Context, h *domain.ImportHistory) error {
	m.history = append(m.history, *h)
	return nil
}

type stubMatcher struct {
	got []domain.BankTransaction
}

func (s *stubMatcher) AutoMatchTransactions(_ context.Context, _ string, deposits []domain.BankTransaction) []domain.MatchResult {
	s.got = deposits
	out := make([]domain.MatchResult, len(deposits))
	for i, d := range deposits {
		out[i] = domain.MatchResult{
			Transaction:    d,
			MatchedInvoice: &domain.InvoiceRef{ID: int64(i + 1)},
			Confidence:     domain.ConfidenceHigh,
			MatchReason:    "stub",
		}
	}
	return out
}

type stubCommitter struct {
	calls int
	opts  domain.CommitOptions
}

func (s *stubCommitter) CreatePaymentRecords(_ context.Context, results []domain.MatchResult, opts domain.CommitOptions) domain.CommitResult {
	s.calls++
	s.opts = opts
	return domain.CommitResult{Created: len(results), Errors: []string{}}
}

const mixedStatement = sbiHeader +
	"2025/01/10,ATM,5000,,95000,\n" +
	"2025/01/15,振込＊ABC(カ),,50000,145000,\n" +
	"2025/01/16,振込＊ヤマダ,,12000,157000,\n"

func TestServiceImport_SaveMatchCommit(t *testing.T) {
	store := newMemStore()
	matcher := &stubMatcher{}
	committer := &stubCommitter{}
	svc := NewService(store, matcher, committer, 100)

	opts := ImportOptions{
		CompanyID:        "acme",
		FileName:         "sbi.csv",
		AutoMatch:        true,
		AutoConfirm:      true,
		SkipDuplicates:   true,
		SaveTransactions: true,
	}
	res, err := svc.Import(context.Background(), []byte(mixedStatement), opts)
	require.NoError(t, err)

	assert.NotEmpty(t, res.ImportID)
	assert.Equal(t, FileTypeCSV, res.FileType)
	assert.Equal(t, BankSBI, res.DetectedBank)
	assert.Equal(t, 3, res.DuplicateCheck.TotalChecked)
	assert.Equal(t, 0, res.DuplicateCheck.DuplicateCount)
	require.NotNil(t, res.Saved)
	assert.Equal(t, 3, res.Saved.Created)

	require.Len(t, matcher.got, 2, "only deposits are matched")
	assert.Len(t, res.MatchResults, 2)
	assert.Equal(t, 1, committer.calls)
	assert.True(t, committer.opts.AutoConfirm)
	assert.Equal(t, "acme", committer.opts.CompanyID)
	assert.Equal(t, res.ImportID, committer.opts.ImportID)

	require.Len(t, store.history, 1)
	h := store.history[0]
	assert.Equal(t, domain.ImportCompleted, h.Status)
	assert.Equal(t, 3, h.TotalCount)
	assert.Equal(t, 2, h.MatchedCount)
	assert.Equal(t, 2, h.HighConfidenceCount)
	assert.Equal(t, 2, h.AutoConfirmedCount)
	assert.True(t, h.TotalDepositAmount.Equal(decimal.NewFromInt(62000)))

	// Same file again: every line is a known duplicate.
	res, err = svc.Import(context.Background(), []byte(mixedStatement), opts)
	require.NoError(t, err)
	assert.Equal(t, 3, res.DuplicateCheck.DuplicateCount)
	assert.Equal(t, 0, res.DuplicateCheck.NewTransactionCount)
	assert.Len(t, res.DuplicateCheck.Duplicates, 3)
	assert.Equal(t, "sbi.csv", res.DuplicateCheck.Duplicates[0].ExistingFileName)
	assert.Equal(t, 0, res.Saved.Created)
	assert.Equal(t, 3, res.Saved.Skipped)
}

func TestServiceImport_DuplicatesNotSkipped(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, &stubMatcher{}, &stubCommitter{}, 100)
	opts := ImportOptions{CompanyID: "acme", FileName: "a.csv", SaveTransactions: true}

	_, err := svc.Import(context.Background(), []byte(mixedStatement), opts)
	require.NoError(t, err)
	res, err := svc.Import(context.Background(), []byte(mixedStatement), opts)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Saved.Duplicates)
	assert.Len(t, res.Saved.Errors, 3)
	require.Len(t, store.history, 2)
	assert.Equal(t, domain.ImportPartial, store.history[1].Status)
}

func TestServiceImport_MatchWithoutCommit(t *testing.T) {
	committer := &stubCommitter{}
	svc := NewService(newMemStore(), &stubMatcher{}, committer, 100)

	res, err := svc.Import(context.Background(), []byte(mixedStatement), ImportOptions{
		CompanyID: "acme",
		FileName:  "a.csv",
		AutoMatch: true,
	})
	require.NoError(t, err)

	assert.Len(t, res.MatchResults, 2)
	assert.Equal(t, 0, committer.calls)
	assert.Nil(t, res.Saved)
	assert.Equal(t, 0, res.Commit.Created)
}

func TestServiceImport_ParseFailure(t *testing.T) {
	svc := NewService(newMemStore(), &stubMatcher{}, &stubCommitter{}, 100)

	_, err := svc.Import(context.Background(), []byte(sbiHeader+"2025/13/99,x,,1,1,\n"), ImportOptions{FileName: "a.csv"})

	var pf *ParseFailedError
	require.True(t, errors.As(err, &pf))
	assert.Equal(t, FileTypeCSV, pf.FileType)
	assert.Equal(t, []string{"行 2: 日付形式が不正です: 2025/13/99"}, pf.Details)
}

func TestServiceImport_TooManyTransactions(t *testing.T) {
	svc := NewService(newMemStore(), &stubMatcher{}, &stubCommitter{}, 2)

	_, err := svc.Import(context.Background(), []byte(mixedStatement), ImportOptions{FileName: "a.csv"})

	assert.True(t, errors.Is(err, ErrTooManyTransactions))
	var pf *ParseFailedError
	assert.True(t, errors.As(err, &pf))
}

func TestServiceImport_UnknownFileType(t *testing.T) {
	svc := NewService(newMemStore(), &stubMatcher{}, &stubCommitter{}, 100)

	_, err := svc.Import(context.Background(), []byte("hello"), ImportOptions{FileName: "notes.txt"})

	assert.True(t, errors.Is(err, ErrUnknownFileType))
}
