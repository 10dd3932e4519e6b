package repository

import "time"

// User represents a user row.
type User struct {
	ID        int64
	Email     string
	Name      string
	CreatedAt time.Time
}

// Institution represents a linked provider connection.
type Institution struct {
	ID                int64
	UserID            int64
	Provider          string
	ProviderAccountID string
	Name              string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Account represents an account row.
type Account struct {
	ID            int64
	UserID        int64
	InstitutionID *int64
	ExternalID    *string
	Name          string
	AccountType   string
	Currency      string
	Balance       *float64
	IsManual      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Category represents a category row. Kind is "expense" or "income".
type Category struct {
	ID        int64
	UserID    int64
	Name      string
	Kind      string
	Color     *string
	IsSystem  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CategoryRule maps matching transaction text to a category.
type CategoryRule struct {
	ID            int64
	UserID        int64
	CategoryID    int64
	Pattern       string
	MatchType     string
	AppliesToKind string
	Priority      int
	CaseSensitive bool
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Transaction represents a ledger row.
type Transaction struct {
	ID          int64
	UserID      int64
	AccountID   int64
	CategoryID  *int64
	ExternalID  *string
	Description string
	Note        *string
	Currency    string
	Amount      float64
	OccurredAt  time.Time
	IsManual    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Budget groups spending limits for one month.
type Budget struct {
	ID        int64
	UserID    int64
	Name      string
	Month     time.Time
	Currency  string
	CreatedAt time.Time
	UpdatedAt time.Time
	Items     []BudgetItem
}

// BudgetItem is a per-category limit inside a budget.
type BudgetItem struct {
	ID          int64
	BudgetID    int64
	CategoryID  int64
	LimitAmount float64
}

// Debt represents an outstanding liability.
type Debt struct {
	ID           int64
	UserID       int64
	Name         string
	Currency     string
	Balance      float64
	InterestRate *float64
	MinPayment   *float64
	DueDay       *int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Goal represents a savings target.
type Goal struct {
	ID            int64
	UserID        int64
	Name          string
	Currency      string
	TargetAmount  float64
	CurrentAmount float64
	TargetDate    *time.Time
	Kind          string
	Status        string
	Notes         *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RecurringPayment is a scheduled repeating transaction.
type RecurringPayment struct {
	ID          int64
	UserID      int64
	AccountID   int64
	CategoryID  *int64
	Name        string
	Note        *string
	Currency    string
	Amount      float64
	Kind        string
	Frequency   string
	Interval    int
	NextDueDate time.Time
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CryptoHolding represents a held crypto position.
type CryptoHolding struct {
	ID        int64
	UserID    int64
	Symbol    string
	Name      string
	Quantity  float64
	CostBasis *float64
	Source    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PriceQuote is a cached spot price for a symbol in a currency.
type PriceQuote struct {
	ID       int64
	Symbol   string
	Currency string
	Price    float64
	AsOf     time.Time
}

// SyncLog records a queued or finished provider sync job.
type SyncLog struct {
	ID         int64
	UserID     int64
	JobRef     string
	Provider   string
	Status     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Message    *string
}
