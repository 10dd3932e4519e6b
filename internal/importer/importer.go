// Package importer turns uploaded bank statements (CSV or PDF) into
// candidate transaction rows, annotates duplicates against both the
// uploaded batch and the ledger, and commits the selected survivors.
package importer

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marric/gelt/internal/database"
	"github.com/marric/gelt/internal/database/repository"
)

const defaultMaxUploadBytes = 5 << 20

// Operation-level failures carry the message shown to the user.
var (
	ErrAccountNotFound = errors.New("Account not found")
	ErrEmptyFile       = errors.New("Uploaded file is empty")
	ErrFileTooLarge    = errors.New("Uploaded file is too large. Max size is 5MB.")
	ErrUnsupportedFile = errors.New("Unsupported file type. Upload a CSV or PDF statement.")
	ErrUndecodableFile = errors.New("Unable to decode uploaded file. Please use UTF-8/Latin-1 encoded CSV.")
	ErrMissingHeader   = errors.New("CSV file must include a header row.")
	ErrNoCSVRows       = errors.New("CSV file does not contain any transaction rows.")
	ErrUnreadablePDF   = errors.New("Unable to read PDF file. Please upload a text-based bank statement PDF.")
	ErrNoPDFText       = errors.New("No extractable text found in PDF. For scanned PDFs, OCR support is required.")
	ErrNoPDFRows       = errors.New("No transactions could be extracted from the PDF. Upload a text-based statement.")
	ErrNoRowsProvided  = errors.New("No rows provided")
)

// Row is one candidate transaction extracted from a statement.
type Row struct {
	RowNumber       int
	OccurredAt      *time.Time
	Description     string
	Amount          *float64
	Currency        string
	Note            string
	ExternalID      string
	CategoryID      *int64
	Selected        bool
	Error           string
	IsDuplicate     bool
	DuplicateReason string
}

// Preview is the annotated result of parsing an uploaded statement.
type Preview struct {
	SourceType    string
	Filename      string
	TotalRows     int
	ParsedRows    int
	ValidRows     int
	DuplicateRows int
	InvalidRows   int
	Warnings      []string
	Rows          []Row
}

// CommitResult reports what a commit persisted and what it skipped.
type CommitResult struct {
	ImportedCount     int
	SkippedDuplicates int
	SkippedInvalid    int
	TransactionIDs    []int64
}

// Service parses, previews and commits statement uploads.
type Service struct {
	DB           *sql.DB
	Accounts     *repository.AccountRepo
	Transactions *repository.TransactionRepo
	Log          *slog.Logger

	// MaxUploadBytes overrides the 5 MiB default when positive.
	MaxUploadBytes int64
}

func (s *Service) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

func (s *Service) uploadLimit() int64 {
	if s.MaxUploadBytes > 0 {
		return s.MaxUploadBytes
	}
	return defaultMaxUploadBytes
}

// Preview parses the uploaded file and annotates each row with parse
// errors and duplicate verdicts. Rows that fail either check come back
// deselected so the review step starts from a safe default.
func (s *Service) Preview(ctx context.Context, userID, accountID int64, filename string, data []byte) (*Preview, error) {
	account, err := s.Accounts.Get(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if int64(len(data)) > s.uploadLimit() {
		return nil, ErrFileTooLarge
	}

	var (
		rows       []Row
		warnings   []string
		sourceType string
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		sourceType = "csv"
		rows, warnings, err = parseCSV(data, account)
	case ".pdf":
		sourceType = "pdf"
		rows, warnings, err = parsePDF(data, account)
	default:
		return nil, ErrUnsupportedFile
	}
	if err != nil {
		return nil, err
	}

	if err := s.annotateDuplicates(ctx, userID, account, rows, true); err != nil {
		return nil, err
	}

	p := &Preview{
		SourceType: sourceType,
		Filename:   filename,
		TotalRows:  len(rows),
		Warnings:   warnings,
		Rows:       rows,
	}
	for _, row := range rows {
		if row.Error == "" {
			p.ParsedRows++
			if !row.IsDuplicate {
				p.ValidRows++
			}
		} else {
			p.InvalidRows++
		}
		if row.IsDuplicate {
			p.DuplicateRows++
		}
	}

	s.logger().Info("statement preview",
		"batch", uuid.NewString(),
		"file", filename,
		"source", sourceType,
		"total", p.TotalRows,
		"valid", p.ValidRows,
		"duplicates", p.DuplicateRows,
		"invalid", p.InvalidRows)
	return p, nil
}

// Commit re-annotates the reviewed rows against live ledger state and
// inserts the selected valid non-duplicates in one transaction.
// Nothing persists when no row qualifies.
func (s *Service) Commit(ctx context.Context, userID, accountID int64, filename string, rows []Row) (*CommitResult, error) {
	account, err := s.Accounts.Get(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	if len(rows) == 0 {
		return nil, ErrNoRowsProvided
	}

	if err := s.annotateDuplicates(ctx, userID, account, rows, false); err != nil {
		return nil, err
	}

	res := &CommitResult{}
	var pending []repository.Transaction
	for _, row := range rows {
		if !row.Selected {
			continue
		}
		if row.Error != "" {
			res.SkippedInvalid++
			continue
		}
		if row.IsDuplicate {
			res.SkippedDuplicates++
			continue
		}

		description := NormalizeText(row.Description)
		note := NormalizeText(row.Note)
		externalID := NormalizeText(row.ExternalID)
		currency := ParseCurrency(row.Currency, account.Currency)
		if description == "" || row.Amount == nil || *row.Amount == 0 || row.OccurredAt == nil || len(currency) != 3 {
			res.SkippedInvalid++
			continue
		}

		t := repository.Transaction{
			UserID:      userID,
			AccountID:   account.ID,
			CategoryID:  row.CategoryID,
			Description: description,
			Currency:    currency,
			Amount:      *row.Amount,
			OccurredAt:  row.OccurredAt.UTC(),
			IsManual:    true,
		}
		if note != "" {
			t.Note = &note
		}
		if externalID != "" {
			t.ExternalID = &externalID
		}
		pending = append(pending, t)
	}

	if len(pending) > 0 {
		err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
			for _, t := range pending {
				id, err := s.Transactions.InsertTx(ctx, tx, t)
				if err != nil {
					return err
				}
				res.TransactionIDs = append(res.TransactionIDs, id)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		res.ImportedCount = len(res.TransactionIDs)
	}

	s.logger().Info("statement commit",
		"file", filename,
		"imported", res.ImportedCount,
		"skipped_duplicates", res.SkippedDuplicates,
		"skipped_invalid", res.SkippedInvalid)
	return res, nil
}

// annotateDuplicates applies the duplicate rules in row order. External
// id verdicts beat fingerprint verdicts, the first occurrence within a
// batch wins, and duplicates never enter the seen sets.
func (s *Service) annotateDuplicates(ctx context.Context, userID int64, account *repository.Account, rows []Row, mutateSelection bool) error {
	var extIDs []string
	for i := range rows {
		if rows[i].Error == "" && rows[i].ExternalID != "" {
			extIDs = append(extIDs, rows[i].ExternalID)
		}
	}
	existingExt, err := s.Transactions.ExistingExternalIDs(ctx, userID, account.ID, extIDs)
	if err != nil {
		return err
	}
	existing, err := s.Transactions.ListByAccount(ctx, userID, account.ID)
	if err != nil {
		return err
	}
	existingFp := make(map[string]bool, len(existing))
	for _, t := range existing {
		existingFp[fingerprint(account.ID, t.OccurredAt, t.Amount, t.Description)] = true
	}

	seenExt := make(map[string]bool)
	seenFp := make(map[string]bool)
	for i := range rows {
		row := &rows[i]
		row.IsDuplicate = false
		row.DuplicateReason = ""

		if row.Error != "" {
			if mutateSelection {
				row.Selected = false
			}
			continue
		}
		if row.OccurredAt == nil || row.Amount == nil || row.Description == "" {
			row.Error = "Incomplete row data"
			if mutateSelection {
				row.Selected = false
			}
			continue
		}

		fp := fingerprint(account.ID, *row.OccurredAt, *row.Amount, row.Description)
		switch {
		case row.ExternalID != "" && seenExt[row.ExternalID]:
			row.IsDuplicate = true
			row.DuplicateReason = "Duplicate in uploaded file (external id)"
		case row.ExternalID != "" && existingExt[row.ExternalID]:
			row.IsDuplicate = true
			row.DuplicateReason = "Already exists (external id)"
		case seenFp[fp]:
			row.IsDuplicate = true
			row.DuplicateReason = "Duplicate in uploaded file"
		case existingFp[fp]:
			row.IsDuplicate = true
			row.DuplicateReason = "Already exists"
		default:
			if row.ExternalID != "" {
				seenExt[row.ExternalID] = true
			}
			seenFp[fp] = true
		}
		if row.IsDuplicate && mutateSelection {
			row.Selected = false
		}
	}
	return nil
}
