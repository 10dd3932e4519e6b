package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marric/gelt/internal/database/repository"
	"github.com/marric/gelt/internal/importer"
	"github.com/marric/gelt/internal/service"
)

// App is the interactive statement import flow: pick a file and
// account, review the parsed rows, commit the keepers.
type App struct {
	ctx      context.Context
	userID   int64
	services Services

	state      appState
	accounts   []repository.Account
	accountIdx int
	path       string
	preview    *importer.Preview
	cursor     int
	lastCommit *importer.CommitResult
	summary    *service.Summary
	status     string
	errText    string
}

type Services struct {
	Importer  *importer.Service
	Accounts  *repository.AccountRepo
	Dashboard *service.DashboardService

	// Summary carries the configured dashboard window defaults.
	Summary service.SummaryParams
}

type appState string

const (
	viewPickFile appState = "pickFile"
	viewReview   appState = "review"
)

func New(ctx context.Context, userID int64, services Services, initialPath string) *App {
	return &App{
		ctx:      ctx,
		userID:   userID,
		services: services,
		state:    viewPickFile,
		path:     initialPath,
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadAccounts(), a.loadSummary())
}

func (a *App) loadAccounts() tea.Cmd {
	return func() tea.Msg {
		accounts, err := a.services.Accounts.List(a.ctx, a.userID)
		if err != nil {
			return errMsg{err}
		}
		return accountsMsg(accounts)
	}
}

func (a *App) loadSummary() tea.Cmd {
	return func() tea.Msg {
		summary, err := a.services.Dashboard.Summary(a.ctx, a.userID, a.services.Summary)
		if err != nil {
			return errMsg{err}
		}
		return summaryMsg{summary}
	}
}

func (a *App) previewCmd(path string) tea.Cmd {
	abs := path
	if !filepath.IsAbs(path) {
		if p, err := filepath.Abs(path); err == nil {
			abs = p
		}
	}
	accountID := a.accounts[a.accountIdx].ID
	return func() tea.Msg {
		data, err := os.ReadFile(abs)
		if err != nil {
			return errMsg{fmt.Errorf("read %s: %w", abs, err)}
		}
		preview, err := a.services.Importer.Preview(a.ctx, a.userID, accountID, filepath.Base(abs), data)
		if err != nil {
			return errMsg{err}
		}
		return previewDoneMsg{preview}
	}
}

func (a *App) commitCmd() tea.Cmd {
	accountID := a.accounts[a.accountIdx].ID
	preview := a.preview
	return func() tea.Msg {
		result, err := a.services.Importer.Commit(a.ctx, a.userID, accountID, preview.Filename, preview.Rows)
		if err != nil {
			return errMsg{err}
		}
		return commitDoneMsg{result}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		if a.state == viewReview {
			return a.handleReviewKey(m)
		}
		return a.handlePickKey(m)
	case accountsMsg:
		a.accounts = []repository.Account(m)
		if a.accountIdx >= len(a.accounts) {
			a.accountIdx = 0
		}
	case summaryMsg:
		a.summary = m.summary
	case previewDoneMsg:
		a.preview = m.preview
		a.cursor = 0
		a.state = viewReview
		a.status = ""
		a.errText = ""
	case commitDoneMsg:
		a.lastCommit = m.result
		a.preview = nil
		a.state = viewPickFile
		a.status = fmt.Sprintf("imported %d, skipped %d duplicates, %d invalid",
			m.result.ImportedCount, m.result.SkippedDuplicates, m.result.SkippedInvalid)
		a.errText = ""
		return a, a.loadSummary()
	case errMsg:
		a.errText = m.Error()
		a.status = ""
	}
	return a, nil
}

func (a *App) handlePickKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "left":
		if len(a.accounts) > 0 {
			a.accountIdx = (a.accountIdx + len(a.accounts) - 1) % len(a.accounts)
		}
		return a, nil
	case "right":
		if len(a.accounts) > 0 {
			a.accountIdx = (a.accountIdx + 1) % len(a.accounts)
		}
		return a, nil
	}
	switch m.Type {
	case tea.KeyEnter:
		path := strings.TrimSpace(a.path)
		if path == "" {
			a.status = "enter a statement path"
			return a, nil
		}
		if len(a.accounts) == 0 {
			a.status = "no accounts yet, create one first"
			return a, nil
		}
		a.status = "parsing..."
		return a, a.previewCmd(path)
	case tea.KeyBackspace, tea.KeyCtrlH, tea.KeyDelete:
		if len(a.path) > 0 {
			a.path = a.path[:len(a.path)-1]
		}
	case tea.KeySpace:
		a.path += " "
	case tea.KeyRunes:
		a.path += string(m.Runes)
	}
	return a, nil
}

func (a *App) handleReviewKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "esc":
		a.state = viewPickFile
		a.preview = nil
		a.status = ""
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.preview != nil && a.cursor < len(a.preview.Rows)-1 {
			a.cursor++
		}
	case " ":
		if a.preview != nil && len(a.preview.Rows) > 0 {
			row := &a.preview.Rows[a.cursor]
			if row.Error == "" {
				row.Selected = !row.Selected
			}
		}
	case "c":
		if a.preview != nil {
			a.status = "committing..."
			return a, a.commitCmd()
		}
	}
	return a, nil
}

func (a *App) View() string {
	var body string
	if a.state == viewReview {
		body = a.renderReview()
	} else {
		body = a.renderPickFile()
	}
	if a.status != "" {
		body += "\n" + statusStyle.Render(a.status)
	}
	if a.errText != "" {
		body += "\n" + errorStyle.Render("error: "+a.errText)
	}
	return body
}

func (a *App) renderPickFile() string {
	title := titleStyle.Render("Gelt - Import Statement")
	out := title + "\n"
	if a.summary != nil {
		out += fmt.Sprintf("This month: in %.2f  out %.2f  net %.2f %s\n",
			a.summary.Cashflow.Inflow, a.summary.Cashflow.Outflow, a.summary.Cashflow.Net, a.summary.NetWorth.Currency)
	}
	if len(a.accounts) == 0 {
		out += "Account: (none yet)\n"
	} else {
		acct := a.accounts[a.accountIdx]
		out += fmt.Sprintf("Account: %s #%d (%d of %d)  [left/right] switch\n", acct.Name, acct.ID, a.accountIdx+1, len(a.accounts))
	}
	out += fmt.Sprintf("File: %s\n", a.path)
	out += "Type a CSV or PDF statement path and press Enter to preview.\n"
	if a.lastCommit != nil {
		out += fmt.Sprintf("Last import: %d imported, %d duplicates skipped, %d invalid\n",
			a.lastCommit.ImportedCount, a.lastCommit.SkippedDuplicates, a.lastCommit.SkippedInvalid)
	}
	out += "[enter] Preview  [q] Quit"
	return out
}

func (a *App) renderReview() string {
	p := a.preview
	title := titleStyle.Render("Review " + p.Filename)
	out := title + "\n"
	out += fmt.Sprintf("%d rows: %d valid, %d duplicates, %d invalid\n", p.TotalRows, p.ValidRows, p.DuplicateRows, p.InvalidRows)
	for _, w := range p.Warnings {
		out += statusStyle.Render("warning: "+w) + "\n"
	}
	for i, row := range p.Rows {
		marker := " "
		if i == a.cursor {
			marker = ">"
		}
		check := "[ ]"
		if row.Selected {
			check = "[x]"
		}
		date := "          "
		if row.OccurredAt != nil {
			date = row.OccurredAt.Format("2006-01-02")
		}
		amount := "        "
		if row.Amount != nil {
			amount = fmt.Sprintf("%8.2f", *row.Amount)
		}
		out += fmt.Sprintf("%s %s %3d  %s  %-40.40s  %s  %s\n", marker, check, row.RowNumber, date, row.Description, amount, rowStatus(row))
	}
	out += "[space] Toggle  [c] Commit selected  [esc] Back  [q] Quit"
	return out
}

func rowStatus(row importer.Row) string {
	switch {
	case row.Error != "":
		return errorStyle.Render(row.Error)
	case row.IsDuplicate:
		return "duplicate: " + row.DuplicateReason
	default:
		return "ok"
	}
}

// messages
type accountsMsg []repository.Account

type summaryMsg struct {
	summary *service.Summary
}

type previewDoneMsg struct {
	preview *importer.Preview
}

type commitDoneMsg struct {
	result *importer.CommitResult
}

type errMsg struct{ error }

// styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	statusStyle = lipgloss.NewStyle().Faint(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)
