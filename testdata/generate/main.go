package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

type customer struct {
	name  string
	kana  string
	payer string // as it appears after 振込＊ on a statement
}

type invoice struct {
	InvoiceNumber    string `json:"invoice_number"`
	CompanyID        string `json:"company_id"`
	CustomerName     string `json:"customer_name"`
	CustomerNameKana string `json:"customer_name_kana"`
	TotalAmount      int64  `json:"total_amount"`
	PaidAmount       int64  `json:"paid_amount"`
	IssueDate        string `json:"issue_date"`
	DueDate          string `json:"due_date"`
	Status           string `json:"status"`
}

type line struct {
	date    time.Time
	content string
	amount  int64 // signed
	balance int64
}

func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	customers := []customer{
		{"株式会社ABC", "エービーシー", "ABC(カ)"},
		{"株式会社山田商店", "ヤマダシヨウテン", "カ)ヤマダシヨウテン"},
		{"有限会社佐藤工業", "サトウコウギヨウ", "ユ)サトウコウギヨウ"},
		{"合同会社テックラボ", "テツクラボ", "テツクラボ(ド)"},
		{"鈴木建設株式会社", "スズキケンセツ", "スズキケンセツ(カ)"},
		{"田中太郎", "タナカタロウ", "タナカ タロウ"},
		{"株式会社グリーンフィールド", "グリーンフイールド", "カ)グリーンフイールド"},
		{"高橋デザイン事務所", "タカハシデザインジムシヨ", "タカハシデザインジムシヨ"},
	}

	// Invoices issued in December, due at the end of January.
	issueStart := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	var invoices []invoice
	var lines []line

	for i := 1; i <= 30; i++ {
		c := customers[rng.Intn(len(customers))]
		issued := issueStart.AddDate(0, 0, rng.Intn(28))
		due := issued.AddDate(0, 0, 30+rng.Intn(15))
		total := int64(10+rng.Intn(490)) * 1000

		invoices = append(invoices, invoice{
			InvoiceNumber:    fmt.Sprintf("INV-2024-%04d", i),
			CompanyID:        "default",
			CustomerName:     c.name,
			CustomerNameKana: c.kana,
			TotalAmount:      total,
			IssueDate:        issued.Format("2006-01-02"),
			DueDate:          due.Format("2006-01-02"),
			Status:           "unpaid",
		})

		// 65% exact, 15% short by a transfer fee, 10% partial, 10% unpaid.
		paidOn := due.AddDate(0, 0, -rng.Intn(10))
		roll := rng.Float64()
		var amount int64
		switch {
		case roll < 0.65:
			amount = total
		case roll < 0.80:
			fees := []int64{440, 660, 880}
			amount = total - fees[rng.Intn(len(fees))]
		case roll < 0.90:
			amount = total / 2000 * 1000
		default:
			continue
		}
		lines = append(lines, line{date: paidOn, content: "振込＊" + c.payer, amount: amount})
	}

	withdrawals := []string{"ATM", "カード", "振込手数料", "口座振替 デンキ", "給与振込"}
	for i := 0; i < 15; i++ {
		lines = append(lines, line{
			date:    time.Date(2025, 1, 1+rng.Intn(31), 0, 0, 0, 0, time.UTC),
			content: withdrawals[rng.Intn(len(withdrawals))],
			amount:  -int64(1+rng.Intn(200)) * 500,
		})
	}

	sort.SliceStable(lines, func(a, b int) bool { return lines[a].date.Before(lines[b].date) })
	balance := int64(3_000_000)
	for i := range lines {
		balance += lines[i].amount
		lines[i].balance = balance
	}

	writeJSONFile(filepath.Join(baseDir, "invoices.json"), invoices)
	fmt.Printf("Generated %d invoices -> invoices.json\n", len(invoices))

	generateSBICSV(lines, baseDir)
	generateMUFGShiftJIS(lines, baseDir)
	generateOFX(lines, baseDir)

	fmt.Println("Test data generation complete.")
}

// generateSBICSV writes a UTF-8 SBI Sumishin Net Bank export.
func generateSBICSV(lines []line, baseDir string) {
	f, err := os.Create(filepath.Join(baseDir, "statement_sbi.csv"))
	if err != nil {
		panic(err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Write([]string{"日付", "内容", "出金金額(円)", "入金金額(円)", "残高(円)", "メモ"})
	for _, l := range lines {
		out, in := splitAmount(l.amount)
		w.Write([]string{l.date.Format("2006/01/02"), l.content, out, in, strconv.FormatInt(l.balance, 10), ""})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		panic(err)
	}
	fmt.Printf("Generated %d SBI CSV lines -> statement_sbi.csv\n", len(lines))
}

// generateMUFGShiftJIS writes an MUFG export the way the bank serves it:
// Shift_JIS with half-width katakana payer names.
func generateMUFGShiftJIS(lines []line, baseDir string) {
	f, err := os.Create(filepath.Join(baseDir, "statement_mufg_sjis.csv"))
	if err != nil {
		panic(err)
	}
	defer f.Close()

	sjis := transform.NewWriter(f, japanese.ShiftJIS.NewEncoder())
	defer sjis.Close()

	w := csv.NewWriter(sjis)
	w.Write([]string{"日付", "摘要", "お支払金額", "お預り金額", "差引残高"})
	for _, l := range lines {
		content := l.content
		if strings.HasPrefix(content, "振込＊") {
			content = "ﾌﾘｺﾐ " + width.Narrow.String(strings.TrimPrefix(content, "振込＊"))
		}
		out, in := splitAmount(l.amount)
		w.Write([]string{l.date.Format("2006/1/2"), content, out, in, strconv.FormatInt(l.balance, 10)})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		panic(err)
	}
	fmt.Printf("Generated %d MUFG CSV lines -> statement_mufg_sjis.csv\n", len(lines))
}

func generateOFX(lines []line, baseDir string) {
	f, err := os.Create(filepath.Join(baseDir, "statement.ofx"))
	if err != nil {
		panic(err)
	}
	defer f.Close()

	start, end := lines[0].date, lines[len(lines)-1].date
	writeOFXHeader(f, start, end)
	for i, l := range lines {
		trnType := "CREDIT"
		if l.amount < 0 {
			trnType = "DEBIT"
		}
		fmt.Fprintf(f, "<STMTTRN>\n<TRNTYPE>%s\n<DTPOSTED>%s120000[+9:JST]\n<TRNAMT>%d\n<FITID>%s%04d\n<NAME>%s\n</STMTTRN>\n",
			trnType, l.date.Format("20060102"), l.amount, l.date.Format("20060102"), i+1, l.content)
	}
	fmt.Fprintf(f, "</BANKTRANLIST>\n<LEDGERBAL>\n<BALAMT>%d\n<DTASOF>%s\n</LEDGERBAL>\n</STMTRS>\n</STMTTRNRS>\n</BANKMSGSRSV1>\n</OFX>\n",
		lines[len(lines)-1].balance, end.Format("20060102"))
	fmt.Printf("Generated %d OFX transactions -> statement.ofx\n", len(lines))
}

func writeOFXHeader(w io.Writer, start, end time.Time) {
	fmt.Fprint(w, "OFXHEADER:100\nDATA:OFXSGML\nVERSION:102\nSECURITY:NONE\nENCODING:UTF-8\nCHARSET:CSUNICODE\nCOMPRESSION:NONE\nOLDFILEUID:NONE\nNEWFILEUID:NONE\n\n")
	fmt.Fprint(w, "<OFX>\n<BANKMSGSRSV1>\n<STMTTRNRS>\n<TRNUID>0\n<STMTRS>\n<CURDEF>JPY\n")
	fmt.Fprint(w, "<BANKACCTFROM>\n<BANKID>0038\n<BRANCHID>101\n<ACCTID>1234567\n<ACCTTYPE>CHECKING\n</BANKACCTFROM>\n")
	fmt.Fprintf(w, "<BANKTRANLIST>\n<DTSTART>%s\n<DTEND>%s\n", start.Format("20060102"), end.Format("20060102"))
}

// splitAmount returns the withdrawal and deposit columns for a signed amount.
func splitAmount(amount int64) (string, string) {
	if amount < 0 {
		return strconv.FormatInt(-amount, 10), ""
	}
	return "", strconv.FormatInt(amount, 10)
}

func writeJSONFile(path string, v any) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		panic(err)
	}
}

func findTestdataDir() string {
	candidates := []string{
		"testdata",
		filepath.Join("..", "..", "testdata"),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return "testdata"
}
