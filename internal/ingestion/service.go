package ingestion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shiwake/reconciler/internal/domain"
	"github.com/shiwake/reconciler/internal/logger"
)

// maxDuplicateDetails caps the duplicate lines echoed back to the client.
const maxDuplicateDetails = 10

// TransactionStore persists imported statement lines and import history.
type TransactionStore interface {
	FindByHashes(ctx context.Context, companyID string, hashes []string) (map[string]domain.ImportedTransaction, error)
	InsertTransactions(ctx context.Context, txns []domain.ImportedTransaction) (int, error)
	InsertHistory(ctx context.Context, h *domain.ImportHistory) error
}

type Matcher interface {
	AutoMatchTransactions(ctx context.Context, companyID string, deposits []domain.BankTransaction) []domain.MatchResult
}

type Committer interface {
	CreatePaymentRecords(ctx context.Context, results []domain.MatchResult, opts domain.CommitOptions) domain.CommitResult
}

// ImportOptions controls one statement import.
type ImportOptions struct {
	CompanyID          string
	FileName           string
	FileType           string // forced type; empty means detect
	BankType           BankType
	AutoMatch          bool
	AutoConfirm        bool
	OnlyHighConfidence bool
	SkipDuplicates     bool
	SaveTransactions   bool
}

// DuplicateInfo describes a statement line that was imported before.
type DuplicateInfo struct {
	Date               time.Time `json:"date"`
	Content            string    `json:"content"`
	Amount             string    `json:"amount"`
	ExistingImportedAt time.Time `json:"existing_imported_at"`
	ExistingFileName   string    `json:"existing_file_name"`
}

type DuplicateCheck struct {
	TotalChecked        int             `json:"total_checked"`
	DuplicateCount      int             `json:"duplicate_count"`
	NewTransactionCount int             `json:"new_transaction_count"`
	Duplicates          []DuplicateInfo `json:"duplicates"`
}

// SaveResult summarizes persisting statement lines.
type SaveResult struct {
	Created    int      `json:"created"`
	Skipped    int      `json:"skipped"`
	Duplicates int      `json:"duplicates"`
	Errors     []string `json:"errors"`
}

// ImportResult is returned from a successful import.
type ImportResult struct {
	ImportID       string               `json:"import_id"`
	FileType       FileType             `json:"file_type"`
	DetectedBank   BankType             `json:"detected_bank,omitempty"`
	Parse          domain.ParseResult   `json:"parse_result"`
	DuplicateCheck DuplicateCheck       `json:"duplicate_check"`
	Saved          *SaveResult          `json:"saved,omitempty"`
	MatchResults   []domain.MatchResult `json:"match_results"`
	Commit         domain.CommitResult  `json:"import_result"`
}

// Service runs the statement import pipeline: parse, duplicate check,
// optional save, matching and payment commit.
type Service struct {
	store           TransactionStore
	matcher         Matcher
	committer       Committer
	maxTransactions int
	now             func() time.Time
	log             zerolog.Logger
}

// NewService creates a new import service. maxTransactions bounds the lines
// accepted from a single file.
func NewService(store TransactionStore, matcher Matcher, committer Committer, maxTransactions int) *Service {
	return &Service{
		store:           store,
		matcher:         matcher,
		committer:       committer,
		maxTransactions: maxTransactions,
		now:             time.Now,
		log:             logger.WithComponent("ingestion"),
	}
}

// Parse detects the file type and decodes the statement. It fails with a
// *ParseFailedError when the file yields no transactions or exceeds the
// transaction bound.
func (s *Service) Parse(data []byte, opts ImportOptions) (FileType, domain.ParseResult, error) {
	fileType, err := DetectFileType(data, opts.FileName, opts.FileType)
	if err != nil {
		return "", domain.ParseResult{}, err
	}

	var result domain.ParseResult
	switch fileType {
	case FileTypeOFX:
		result = ParseOFX(data)
	default:
		result = ParseBankCSV(data, opts.BankType)
	}

	if !result.Success && len(result.Transactions) == 0 {
		return fileType, result, &ParseFailedError{FileType: fileType, Details: result.Errors}
	}
	if s.maxTransactions > 0 && result.TotalCount > s.maxTransactions {
		return fileType, result, &ParseFailedError{
			FileType: fileType,
			Details:  []string{fmt.Sprintf("取引件数が上限を超えています: %d件 (上限 %d件)", result.TotalCount, s.maxTransactions)},
			Err:      ErrTooManyTransactions,
		}
	}
	return fileType, result, nil
}

// Import runs the whole pipeline for one uploaded statement.
func (s *Service) Import(ctx context.Context, data []byte, opts ImportOptions) (*ImportResult, error) {
	fileType, parsed, err := s.Parse(data, opts)
	if err != nil {
		return nil, err
	}

	importID := uuid.NewString()
	log := s.log.With().Str("import_id", importID).Str("company_id", opts.CompanyID).Logger()
	log.Info().
		Str("file", opts.FileName).
		Str("file_type", string(fileType)).
		Str("bank", parsed.DetectedBank).
		Int("total", parsed.TotalCount).
		Int("deposits", parsed.DepositCount).
		Int("withdrawals", parsed.WithdrawalCount).
		Int("row_errors", len(parsed.Errors)).
		Msg("statement parsed")

	res := &ImportResult{
		ImportID:     importID,
		FileType:     fileType,
		DetectedBank: BankType(parsed.DetectedBank),
		Parse:        parsed,
		MatchResults: []domain.MatchResult{},
		Commit:       domain.CommitResult{Errors: []string{}},
	}

	existing, err := s.checkDuplicates(ctx, opts.CompanyID, parsed.Transactions)
	if err != nil {
		return nil, fmt.Errorf("check duplicates: %w", err)
	}
	res.DuplicateCheck = buildDuplicateCheck(parsed.Transactions, existing)
	log.Info().
		Int("duplicates", res.DuplicateCheck.DuplicateCount).
		Int("new", res.DuplicateCheck.NewTransactionCount).
		Msg("duplicate check completed")

	if opts.SaveTransactions && len(parsed.Transactions) > 0 {
		saved, err := s.saveTransactions(ctx, importID, fileType, parsed, existing, opts)
		if err != nil {
			return nil, fmt.Errorf("save transactions: %w", err)
		}
		res.Saved = saved
	}

	deposits := domain.ExtractDeposits(parsed.Transactions)
	if opts.AutoMatch && len(deposits) > 0 {
		res.MatchResults = s.matcher.AutoMatchTransactions(ctx, opts.CompanyID, deposits)
		logMatchSummary(log, res.MatchResults)

		if opts.AutoConfirm {
			res.Commit = s.committer.CreatePaymentRecords(ctx, res.MatchResults, domain.CommitOptions{
				OnlyHighConfidence: opts.OnlyHighConfidence,
				AutoConfirm:        true,
				CompanyID:          opts.CompanyID,
				ImportID:           importID,
			})
			log.Info().
				Int("created", res.Commit.Created).
				Int("skipped", res.Commit.Skipped).
				Int("errors", len(res.Commit.Errors)).
				Msg("payment records committed")
		}
	}

	if res.Saved != nil {
		if err := s.recordHistory(ctx, importID, int64(len(data)), res, opts); err != nil {
			return nil, fmt.Errorf("record history: %w", err)
		}
	}
	return res, nil
}

func (s *Service) checkDuplicates(ctx context.Context, companyID string, txns []domain.BankTransaction) (map[string]domain.ImportedTransaction, error) {
	if len(txns) == 0 {
		return map[string]domain.ImportedTransaction{}, nil
	}
	hashes := make([]string, len(txns))
	for i, t := range txns {
		hashes[i] = t.Hash()
	}
	return s.store.FindByHashes(ctx, companyID, hashes)
}

func buildDuplicateCheck(txns []domain.BankTransaction, existing map[string]domain.ImportedTransaction) DuplicateCheck {
	dc := DuplicateCheck{TotalChecked: len(txns), Duplicates: []DuplicateInfo{}}
	for _, t := range txns {
		prev, ok := existing[t.Hash()]
		if !ok {
			continue
		}
		dc.DuplicateCount++
		if len(dc.Duplicates) < maxDuplicateDetails {
			dc.Duplicates = append(dc.Duplicates, DuplicateInfo{
				Date:               t.Date,
				Content:            t.Content,
				Amount:             t.Amount.String(),
				ExistingImportedAt: prev.ImportedAt,
				ExistingFileName:   prev.FileName,
			})
		}
	}
	dc.NewTransactionCount = dc.TotalChecked - dc.DuplicateCount
	return dc
}

// saveTransactions stores the statement lines not seen before. Lines repeated
// within the same file collapse onto the first occurrence.
func (s *Service) saveTransactions(
	ctx context.Context,
	importID string,
	fileType FileType,
	parsed domain.ParseResult,
	existing map[string]domain.ImportedTransaction,
	opts ImportOptions,
) (*SaveResult, error) {
	out := &SaveResult{Errors: []string{}}
	now := s.now()
	seen := make(map[string]bool, len(parsed.Transactions))
	var rows []domain.ImportedTransaction

	for _, t := range parsed.Transactions {
		hash := t.Hash()
		if _, dup := existing[hash]; dup || seen[hash] {
			out.Duplicates++
			if opts.SkipDuplicates {
				out.Skipped++
			} else {
				out.Errors = append(out.Errors, fmt.Sprintf("重複取引: %s %s %s", t.Date.Format("2006-01-02"), t.Content, t.Amount))
			}
			continue
		}
		seen[hash] = true
		rows = append(rows, domain.ImportedTransaction{
			TransactionHash: hash,
			ImportID:        importID,
			CompanyID:       opts.CompanyID,
			Transaction:     t,
			FileName:        opts.FileName,
			FileType:        string(fileType),
			BankType:        parsed.DetectedBank,
			ImportedAt:      now,
		})
	}

	inserted, err := s.store.InsertTransactions(ctx, rows)
	if err != nil {
		return nil, err
	}
	out.Created = inserted
	// Lines inserted concurrently by another import are ignored by the store.
	if raced := len(rows) - inserted; raced > 0 {
		out.Duplicates += raced
		out.Skipped += raced
	}
	return out, nil
}

func (s *Service) recordHistory(ctx context.Context, importID string, size int64, res *ImportResult, opts ImportOptions) error {
	h := &domain.ImportHistory{
		ImportID:              importID,
		CompanyID:             opts.CompanyID,
		FileName:              opts.FileName,
		FileSize:              size,
		FileType:              string(res.FileType),
		BankType:              string(res.DetectedBank),
		TotalCount:            res.Parse.TotalCount,
		DepositCount:          res.Parse.DepositCount,
		WithdrawalCount:       res.Parse.WithdrawalCount,
		TotalDepositAmount:    res.Parse.TotalDepositAmount,
		TotalWithdrawalAmount: res.Parse.TotalWithdrawalAmount,
		DuplicateCount:        res.DuplicateCheck.DuplicateCount,
		NewTransactionCount:   res.Saved.Created,
		AutoConfirmedCount:    res.Commit.Created,
		Status:                domain.ImportCompleted,
		CreatedAt:             s.now(),
	}
	for _, m := range res.MatchResults {
		if m.MatchedInvoice != nil {
			h.MatchedCount++
		}
		if m.Confidence == domain.ConfidenceHigh {
			h.HighConfidenceCount++
		}
	}
	h.Errors = append(h.Errors, res.Parse.Errors...)
	h.Errors = append(h.Errors, res.Saved.Errors...)
	h.Errors = append(h.Errors, res.Commit.Errors...)
	if len(h.Errors) > 0 {
		h.Status = domain.ImportPartial
	}
	return s.store.InsertHistory(ctx, h)
}

func logMatchSummary(log zerolog.Logger, results []domain.MatchResult) {
	counts := map[domain.Confidence]int{}
	for _, r := range results {
		counts[r.Confidence]++
	}
	log.Info().
		Int("deposits", len(results)).
		Int("high", counts[domain.ConfidenceHigh]).
		Int("medium", counts[domain.ConfidenceMedium]).
		Int("low", counts[domain.ConfidenceLow]).
		Int("none", counts[domain.ConfidenceNone]).
		Msg("auto-matching completed")
}
