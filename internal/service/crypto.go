package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marric/gelt/internal/database"
	"github.com/marric/gelt/internal/database/repository"
)

var (
	ErrHoldingNotFound = errors.New("Holding not found")
	ErrNoPriceSource   = errors.New("crypto: price source not configured")
)

const (
	defaultQuoteCurrency  = "EUR"
	defaultPriceStaleness = 5 * time.Minute
	defaultSyncLogLimit   = 20
)

// PriceSource quotes spot prices for symbols in a currency. Symbols
// the source cannot quote are simply absent from the result.
type PriceSource interface {
	Prices(ctx context.Context, symbols []string, currency string) (map[string]float64, error)
}

// CryptoService manages holdings and their valuation against the
// price cache. A missing or failing price source degrades to cached
// quotes instead of failing the read.
type CryptoService struct {
	Crypto   *repository.CryptoRepo
	SyncLogs *repository.SyncLogRepo
	Source   PriceSource
	Log      *slog.Logger

	// QuoteCurrency and StaleAfter fall back to EUR and five
	// minutes when unset.
	QuoteCurrency string
	StaleAfter    time.Duration
}

// HoldingInput carries the writable holding fields.
type HoldingInput struct {
	Symbol    string
	Name      string
	Quantity  float64
	CostBasis *float64
	Source    string
}

// HoldingPatch updates the fields that are non-nil.
type HoldingPatch struct {
	Symbol    *string
	Name      *string
	Quantity  *float64
	CostBasis *float64
	Source    *string
}

// HoldingView is a holding valued at the cached quote. Pricing fields
// are nil when no quote is cached for the symbol.
type HoldingView struct {
	repository.CryptoHolding
	Currency     string
	CurrentPrice *float64
	CurrentValue *float64
	CostValue    *float64
	GainLoss     *float64
	GainLossPct  *float64
}

// SyncJob reports a queued provider sync.
type SyncJob struct {
	SyncID int64
	JobRef string
	Status string
}

// ListHoldings returns the user's holdings valued in currency,
// refreshing quotes that are missing or older than the staleness
// window first.
func (s *CryptoService) ListHoldings(ctx context.Context, userID int64, currency string) ([]HoldingView, error) {
	quote := s.quoteCurrency(currency)
	holdings, err := s.Crypto.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return []HoldingView{}, nil
	}

	symbols := uniqueSymbols(holdings)
	staleBefore := database.Now().Add(-s.staleAfter())
	var refresh []string
	for _, symbol := range symbols {
		cached, err := s.Crypto.GetPrice(ctx, symbol, quote)
		if err != nil {
			return nil, err
		}
		if cached == nil || cached.AsOf.Before(staleBefore) {
			refresh = append(refresh, symbol)
		}
	}
	if len(refresh) > 0 {
		s.refreshQuotes(ctx, refresh, quote)
	}

	priceMap, err := s.priceMap(ctx, symbols, quote)
	if err != nil {
		return nil, err
	}
	views := make([]HoldingView, 0, len(holdings))
	for _, h := range holdings {
		views = append(views, valueHolding(h, priceMap, quote))
	}
	return views, nil
}

func (s *CryptoService) GetHolding(ctx context.Context, userID, id int64) (*HoldingView, error) {
	holding, err := s.Crypto.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if holding == nil {
		return nil, ErrHoldingNotFound
	}
	return s.valuedView(ctx, *holding)
}

func (s *CryptoService) CreateHolding(ctx context.Context, userID int64, in HoldingInput) (*HoldingView, error) {
	symbol := normalizeSymbol(in.Symbol)
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = symbol
	}
	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = "manual"
	}
	id, err := s.Crypto.Create(ctx, repository.CryptoHolding{
		UserID:    userID,
		Symbol:    symbol,
		Name:      name,
		Quantity:  in.Quantity,
		CostBasis: in.CostBasis,
		Source:    source,
	})
	if err != nil {
		return nil, err
	}
	s.refreshQuotes(ctx, []string{symbol}, s.quoteCurrency(""))
	holding, err := s.Crypto.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.valuedView(ctx, *holding)
}

func (s *CryptoService) UpdateHolding(ctx context.Context, userID, id int64, patch HoldingPatch) (*HoldingView, error) {
	holding, err := s.Crypto.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if holding == nil {
		return nil, ErrHoldingNotFound
	}
	if patch.Symbol != nil {
		holding.Symbol = normalizeSymbol(*patch.Symbol)
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		holding.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Quantity != nil {
		holding.Quantity = *patch.Quantity
	}
	if patch.CostBasis != nil {
		holding.CostBasis = patch.CostBasis
	}
	if patch.Source != nil {
		holding.Source = strings.TrimSpace(*patch.Source)
	}
	if err := s.Crypto.Update(ctx, *holding); err != nil {
		return nil, err
	}
	s.refreshQuotes(ctx, []string{holding.Symbol}, s.quoteCurrency(""))
	holding, err = s.Crypto.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.valuedView(ctx, *holding)
}

func (s *CryptoService) DeleteHolding(ctx context.Context, userID, id int64) error {
	deleted, err := s.Crypto.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrHoldingNotFound
	}
	return nil
}

// ListPrices returns cached quotes, optionally narrowed by symbol or
// currency.
func (s *CryptoService) ListPrices(ctx context.Context, symbol, currency string) ([]repository.PriceQuote, error) {
	if symbol != "" {
		symbol = normalizeSymbol(symbol)
	}
	if currency != "" {
		currency = strings.ToUpper(strings.TrimSpace(currency))
	}
	return s.Crypto.ListPrices(ctx, symbol, currency)
}

// RefreshPrices fetches fresh quotes for the symbols and replaces the
// cached entries, returning the updated cache rows.
func (s *CryptoService) RefreshPrices(ctx context.Context, symbols []string, currency string) ([]repository.PriceQuote, error) {
	if s.Source == nil {
		return nil, ErrNoPriceSource
	}
	cleaned := normalizeSymbols(symbols)
	if len(cleaned) == 0 {
		return []repository.PriceQuote{}, nil
	}
	quote := s.quoteCurrency(currency)
	fetched, err := s.Source.Prices(ctx, cleaned, quote)
	if err != nil {
		return nil, err
	}
	asOf := database.Now()
	updated := make([]repository.PriceQuote, 0, len(fetched))
	for _, symbol := range cleaned {
		price, ok := fetched[symbol]
		if !ok {
			continue
		}
		if err := s.Crypto.UpsertPrice(ctx, repository.PriceQuote{
			Symbol:   symbol,
			Currency: quote,
			Price:    price,
			AsOf:     asOf,
		}); err != nil {
			return nil, err
		}
		stored, err := s.Crypto.GetPrice(ctx, symbol, quote)
		if err != nil {
			return nil, err
		}
		if stored != nil {
			updated = append(updated, *stored)
		}
	}
	return updated, nil
}

// QueueSync records a pending provider sync job and returns its
// handle. The job itself runs out of band.
func (s *CryptoService) QueueSync(ctx context.Context, userID int64, provider string) (*SyncJob, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		provider = "coinbase"
	}
	log := repository.SyncLog{
		UserID:    userID,
		JobRef:    uuid.NewString(),
		Provider:  provider,
		Status:    "queued",
		StartedAt: database.Now(),
	}
	id, err := s.SyncLogs.Insert(ctx, log)
	if err != nil {
		return nil, err
	}
	return &SyncJob{SyncID: id, JobRef: log.JobRef, Status: log.Status}, nil
}

// ListSyncLogs returns recent sync jobs newest first.
func (s *CryptoService) ListSyncLogs(ctx context.Context, userID int64, limit int) ([]repository.SyncLog, error) {
	if limit <= 0 {
		limit = defaultSyncLogLimit
	}
	return s.SyncLogs.List(ctx, userID, limit)
}

// refreshQuotes best-effort updates the cache; valuation falls back
// to stale quotes when the source is missing or failing.
func (s *CryptoService) refreshQuotes(ctx context.Context, symbols []string, currency string) {
	if s.Source == nil {
		return
	}
	if _, err := s.RefreshPrices(ctx, symbols, currency); err != nil {
		s.logger().Warn("price refresh failed", "symbols", symbols, "currency", currency, "error", err)
	}
}

func (s *CryptoService) valuedView(ctx context.Context, holding repository.CryptoHolding) (*HoldingView, error) {
	quote := s.quoteCurrency("")
	priceMap, err := s.priceMap(ctx, []string{holding.Symbol}, quote)
	if err != nil {
		return nil, err
	}
	view := valueHolding(holding, priceMap, quote)
	return &view, nil
}

func (s *CryptoService) priceMap(ctx context.Context, symbols []string, currency string) (map[string]float64, error) {
	prices := make(map[string]float64, len(symbols))
	for _, symbol := range symbols {
		cached, err := s.Crypto.GetPrice(ctx, symbol, currency)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			prices[symbol] = cached.Price
		}
	}
	return prices, nil
}

func (s *CryptoService) quoteCurrency(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency != "" {
		return currency
	}
	if s.QuoteCurrency != "" {
		return strings.ToUpper(s.QuoteCurrency)
	}
	return defaultQuoteCurrency
}

func (s *CryptoService) staleAfter() time.Duration {
	if s.StaleAfter > 0 {
		return s.StaleAfter
	}
	return defaultPriceStaleness
}

func (s *CryptoService) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

func valueHolding(h repository.CryptoHolding, prices map[string]float64, currency string) HoldingView {
	view := HoldingView{CryptoHolding: h, Currency: currency}
	if price, ok := prices[h.Symbol]; ok {
		value := h.Quantity * price
		view.CurrentPrice = &price
		view.CurrentValue = &value
	}
	if h.CostBasis != nil {
		cost := h.Quantity * *h.CostBasis
		view.CostValue = &cost
	}
	if view.CurrentValue != nil && view.CostValue != nil {
		gain := *view.CurrentValue - *view.CostValue
		view.GainLoss = &gain
		if *view.CostValue > 0 {
			pct := gain / *view.CostValue * 100
			view.GainLossPct = &pct
		}
	}
	return view
}

func normalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	var out []string
	for _, symbol := range symbols {
		normalized := normalizeSymbol(symbol)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	sort.Strings(out)
	return out
}

func uniqueSymbols(holdings []repository.CryptoHolding) []string {
	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		symbols = append(symbols, h.Symbol)
	}
	return normalizeSymbols(symbols)
}
