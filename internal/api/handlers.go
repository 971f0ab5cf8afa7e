package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/shiwake/reconciler/internal/ingestion"
	"github.com/shiwake/reconciler/internal/logger"
	"github.com/shiwake/reconciler/internal/repository"
)

// maxUploadSize bounds the multipart body of a statement upload.
const maxUploadSize = 32 << 20

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	invoiceRepo      *repository.InvoiceRepo
	paymentRepo      *repository.PaymentRepo
	importRepo       *repository.ImportRepo
	importSvc        *ingestion.Service
	defaultCompanyID string
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log := logger.WithComponent("api")
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil
		}
	}
	return &t
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// parseBool reads a form flag. Anything other than a recognised boolean
// falls back to def.
func parseBool(s string, def bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}

func (h *Handlers) companyID(r *http.Request) string {
	if id := r.URL.Query().Get("companyId"); id != "" {
		return id
	}
	if id := r.FormValue("companyId"); id != "" {
		return id
	}
	return h.defaultCompanyID
}

// --- Health ---

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- ListBanks ---

func (h *Handlers) ListBanks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"banks": ingestion.SupportedBanks(),
	})
}

// --- ImportStatement ---

func (h *Handlers) ImportStatement(w http.ResponseWriter, r *http.Request) {
	log := logger.WithRequestID(middleware.GetReqID(r.Context())).With().Str("component", "api").Logger()

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "ファイルが選択されていません")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read file: "+err.Error())
		return
	}

	bank, ok := ingestion.ParseBankType(r.FormValue("bankType"))
	if !ok {
		writeError(w, http.StatusBadRequest, "unsupported bankType: "+r.FormValue("bankType"))
		return
	}

	opts := ingestion.ImportOptions{
		CompanyID:          h.companyID(r),
		FileName:           header.Filename,
		FileType:           r.FormValue("fileType"),
		BankType:           bank,
		AutoMatch:          parseBool(r.FormValue("autoMatch"), false),
		AutoConfirm:        parseBool(r.FormValue("autoConfirm"), false),
		OnlyHighConfidence: parseBool(r.FormValue("onlyHighConfidence"), false),
		SkipDuplicates:     parseBool(r.FormValue("skipDuplicates"), true),
		SaveTransactions:   parseBool(r.FormValue("saveTransactions"), false),
	}

	result, err := h.importSvc.Import(r.Context(), data, opts)
	if err != nil {
		var parseErr *ingestion.ParseFailedError
		switch {
		case errors.As(err, &parseErr):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   strings.ToUpper(string(parseErr.FileType)) + "ファイルのパースに失敗しました",
				"details": parseErr.Details,
			})
		case errors.Is(err, ingestion.ErrUnknownFileType):
			writeError(w, http.StatusBadRequest, "ファイル形式を判定できませんでした。CSVまたはOFXファイルを選択してください。")
		default:
			log.Error().Err(err).Str("file", header.Filename).Msg("statement import failed")
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, newImportResponse(result))
}

// --- ListImportHistory ---

func (h *Handlers) ListImportHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.HistoryFilter{
		CompanyID: h.companyID(r),
		Page:      parseIntDefault(q.Get("page"), 1),
		Limit:     parseIntDefault(q.Get("limit"), 50),
	}

	history, total, err := h.importRepo.ListHistory(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"history": history,
		"total":   total,
		"page":    filter.Page,
		"limit":   filter.Limit,
	})
}

// --- ListBankTransactions ---

func (h *Handlers) ListBankTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ImportedTransactionFilter{
		CompanyID: h.companyID(r),
		ImportID:  q.Get("importId"),
		Type:      q.Get("type"),
		From:      parseTime(q.Get("from")),
		To:        parseTime(q.Get("to")),
		Page:      parseIntDefault(q.Get("page"), 1),
		Limit:     parseIntDefault(q.Get("limit"), 50),
	}

	txns, total, err := h.importRepo.ListTransactions(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": txns,
		"total":        total,
		"page":         filter.Page,
		"limit":        filter.Limit,
	})
}

// --- ListOutstandingInvoices ---

func (h *Handlers) ListOutstandingInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	companyID := h.companyID(r)
	filter := repository.InvoiceFilter{
		CompanyID:   companyID,
		Outstanding: true,
		Page:        parseIntDefault(q.Get("page"), 1),
		Limit:       parseIntDefault(q.Get("limit"), 50),
	}

	invoices, total, err := h.invoiceRepo.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	summary, err := h.invoiceRepo.GetReceivablesSummary(r.Context(), companyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"invoices": invoices,
		"summary":  summary,
		"total":    total,
		"page":     filter.Page,
		"limit":    filter.Limit,
	})
}

// --- ListPayments ---

func (h *Handlers) ListPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.PaymentFilter{
		CompanyID: h.companyID(r),
		ImportID:  q.Get("importId"),
		Status:    q.Get("status"),
		From:      parseTime(q.Get("from")),
		To:        parseTime(q.Get("to")),
		Page:      parseIntDefault(q.Get("page"), 1),
		Limit:     parseIntDefault(q.Get("limit"), 50),
	}
	if v := q.Get("invoiceId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid invoiceId: "+v)
			return
		}
		filter.InvoiceID = id
	}

	payments, total, err := h.paymentRepo.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"payments": payments,
		"total":    total,
		"page":     filter.Page,
		"limit":    filter.Limit,
	})
}
