package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/marric/gelt/internal/database/repository"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Header cells are matched against these sets after normalization
// (lowercased, non-alphanumerics stripped). Exact matches win; the
// fallback tokens catch vendor-specific variants by containment.
var (
	dateKeys     = headerSet("date", "bookingdate", "valuedate", "transactiondate", "buchungstag", "datum", "createdat", "timestamp", "time")
	descKeys     = headerSet("description", "merchant", "details", "reference", "payee", "counterparty", "name", "verwendungszweck", "bookingtext")
	amountKeys   = headerSet("amount", "transactionamount", "sum", "betrag", "value")
	debitKeys    = headerSet("debit", "withdrawal", "outgoing", "paidout", "lastschrift")
	creditKeys   = headerSet("credit", "deposit", "incoming", "paidin", "gutschrift")
	currencyKeys = headerSet("currency", "ccy", "currencycode", "wahrung")
	noteKeys     = headerSet("note", "notes", "memo", "comment", "purpose")
	extIDKeys    = headerSet("id", "transactionid", "referenceid", "externalid", "bookingid")

	dateFallbacks     = []string{"date", "datum", "time"}
	descFallbacks     = []string{"description", "merchant", "reference"}
	amountFallbacks   = []string{"amount", "betrag"}
	debitFallbacks    = []string{"debit", "withdraw"}
	creditFallbacks   = []string{"credit", "deposit", "incoming"}
	currencyFallbacks = []string{"currency", "ccy"}
	noteFallbacks     = []string{"note", "memo", "comment"}
	extIDFallbacks    = []string{"id", "reference"}
)

func headerSet(keys ...string) map[string]bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return m
}

// decodeStatement decodes an uploaded CSV as UTF-8 (with or without
// BOM) and falls back to Latin-1. Binary uploads that are neither are
// rejected.
func decodeStatement(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}
	if bytes.IndexByte(data, 0x00) >= 0 {
		return "", ErrUndecodableFile
	}
	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		b.WriteRune(rune(c))
	}
	return b.String(), nil
}

// sniffDelimiter picks the most frequent candidate delimiter in the
// leading sample, preferring comma on ties.
func sniffDelimiter(text string) rune {
	sample := text
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	best := ','
	bestCount := 0
	for _, cand := range []rune{',', ';', '\t', '|'} {
		n := strings.Count(sample, string(cand))
		if n > bestCount {
			best = cand
			bestCount = n
		}
	}
	return best
}

func normalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func resolveColumn(headers []string, keys map[string]bool, fallbacks []string) int {
	for i, h := range headers {
		if keys[h] {
			return i
		}
	}
	for i, h := range headers {
		for _, tok := range fallbacks {
			if strings.Contains(h, tok) {
				return i
			}
		}
	}
	return -1
}

func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

// parseCSV turns a decoded statement into candidate rows. Row numbers
// start at 2, matching spreadsheet line numbers under the header.
func parseCSV(data []byte, account *repository.Account) ([]Row, []string, error) {
	text, err := decodeStatement(data)
	if err != nil {
		return nil, nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sniffDelimiter(text)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, ErrMissingHeader
	}
	headers := make([]string, len(header))
	for i, h := range header {
		headers[i] = normalizeHeader(h)
	}

	dateIdx := resolveColumn(headers, dateKeys, dateFallbacks)
	descIdx := resolveColumn(headers, descKeys, descFallbacks)
	amountIdx := resolveColumn(headers, amountKeys, amountFallbacks)
	debitIdx := resolveColumn(headers, debitKeys, debitFallbacks)
	creditIdx := resolveColumn(headers, creditKeys, creditFallbacks)
	currencyIdx := resolveColumn(headers, currencyKeys, currencyFallbacks)
	noteIdx := resolveColumn(headers, noteKeys, noteFallbacks)
	extIDIdx := resolveColumn(headers, extIDKeys, extIDFallbacks)

	var warnings []string
	if amountIdx < 0 && debitIdx < 0 && creditIdx < 0 {
		warnings = append(warnings, "No amount columns detected. Expected Amount or Debit/Credit columns.")
	}
	if dateIdx < 0 {
		warnings = append(warnings, "No date column detected. Expected Date/Booking Date.")
	}

	var rows []Row
	rowNumber := 1
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			continue
		}
		rowNumber++

		var rowErrors []string

		description := NormalizeText(field(rec, descIdx))
		if description == "" {
			description = NormalizeText(field(rec, noteIdx))
		}
		if description == "" {
			rowErrors = append(rowErrors, "Description is required")
		}

		occurredAt := ParseDate(field(rec, dateIdx))
		if occurredAt == nil {
			rowErrors = append(rowErrors, "Unable to parse date")
		}

		var amount *float64
		if amountIdx >= 0 {
			amount = ParseAmount(field(rec, amountIdx))
		}
		if amount == nil {
			debit := ParseAmount(field(rec, debitIdx))
			credit := ParseAmount(field(rec, creditIdx))
			switch {
			case debit != nil && credit != nil:
				v := abs(*credit) - abs(*debit)
				amount = &v
			case debit != nil:
				v := -abs(*debit)
				amount = &v
			case credit != nil:
				v := abs(*credit)
				amount = &v
			}
		}
		if amount == nil || *amount == 0 {
			amount = nil
			rowErrors = append(rowErrors, "Unable to parse non-zero amount")
		}

		currency := ParseCurrency(field(rec, currencyIdx), account.Currency)
		if len(currency) != 3 {
			rowErrors = append(rowErrors, "Currency must be a 3-letter code")
		}

		row := Row{
			RowNumber:   rowNumber,
			OccurredAt:  occurredAt,
			Description: description,
			Amount:      amount,
			Currency:    currency,
			Note:        NormalizeText(field(rec, noteIdx)),
			ExternalID:  NormalizeText(field(rec, extIDIdx)),
			Selected:    len(rowErrors) == 0,
			Error:       strings.Join(rowErrors, "; "),
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, nil, ErrNoCSVRows
	}
	return rows, warnings, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
