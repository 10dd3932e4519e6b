package importer

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/marric/gelt/internal/database/repository"
)

var (
	pdfDateRe   = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b|\b\d{2}[./-]\d{2}[./-]\d{4}\b`)
	pdfAmountRe = regexp.MustCompile(`(?i)[-+]?\s*(?:EUR|USD|GBP|CHF|€|\$|£)?\s*\d[\d\s.,]*\d(?:[.,]\d{1,2})?`)
)

// extractPDFLines pulls normalized non-blank text lines out of every
// page. The library panics on some malformed files, so recover maps
// that to the unreadable error.
func extractPDFLines(data []byte) (pages [][]string, err error) {
	defer func() {
		if recover() != nil {
			pages, err = nil, ErrUnreadablePDF
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, ErrUnreadablePDF
	}
	total := r.NumPage()
	for p := 1; p <= total; p++ {
		page := r.Page(p)
		if page.V.IsNull() {
			pages = append(pages, nil)
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			pages = append(pages, nil)
			continue
		}
		var lines []string
		for _, row := range rows {
			var sb strings.Builder
			for _, txt := range row.Content {
				sb.WriteString(txt.S)
			}
			if line := NormalizeText(sb.String()); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, lines)
	}
	return pages, nil
}

// parsePDF scans statement lines for a date and an amount. A line
// without both is not a transaction and is skipped. The last amount
// on the line wins so balances printed mid-line do not shadow it.
func parsePDF(data []byte, account *repository.Account) ([]Row, []string, error) {
	pages, err := extractPDFLines(data)
	if err != nil {
		return nil, nil, err
	}
	return parseStatementPages(pages, account)
}

// parseStatementPages applies the transaction-line heuristics to text
// already split into per-page lines. Row numbers encode the position
// as page*10000+line, both 1-based.
func parseStatementPages(pages [][]string, account *repository.Account) ([]Row, []string, error) {
	totalLines := 0
	for _, lines := range pages {
		totalLines += len(lines)
	}
	if totalLines == 0 {
		return nil, nil, ErrNoPDFText
	}

	var rows []Row
	for pageIdx, lines := range pages {
		for lineIdx, line := range lines {
			dateText := pdfDateRe.FindString(line)
			if dateText == "" {
				continue
			}
			amountMatches := pdfAmountRe.FindAllString(line, -1)
			if len(amountMatches) == 0 {
				continue
			}
			amountText := amountMatches[len(amountMatches)-1]

			occurredAt := ParseDate(dateText)
			if occurredAt == nil {
				continue
			}
			amount := ParseAmount(amountText)
			if amount == nil || *amount == 0 {
				continue
			}

			description := line
			description = strings.ReplaceAll(description, dateText, " ")
			description = strings.ReplaceAll(description, amountText, " ")
			description = NormalizeText(description)
			if description == "" {
				description = "Statement transaction"
			}

			rows = append(rows, Row{
				RowNumber:   (pageIdx+1)*10000 + (lineIdx + 1),
				OccurredAt:  occurredAt,
				Description: description,
				Amount:      amount,
				Currency:    currencyFromText(line, account.Currency),
				Selected:    true,
			})
		}
	}

	if len(rows) == 0 {
		return nil, nil, ErrNoPDFRows
	}
	warnings := []string{"PDF import is line-based and may require reviewing descriptions before commit."}
	return rows, warnings, nil
}
