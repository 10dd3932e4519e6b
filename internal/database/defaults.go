package database

import (
	"context"
	"database/sql"

	"github.com/marric/gelt/internal/database/repository"
)

var defaultCategories = []struct {
	Name string
	Kind string
}{
	{"Groceries", "expense"},
	{"Dining", "expense"},
	{"Transport", "expense"},
	{"Housing", "expense"},
	{"Utilities", "expense"},
	{"Health", "expense"},
	{"Entertainment", "expense"},
	{"Shopping", "expense"},
	{"Travel", "expense"},
	{"Fees", "expense"},
	{"Other", "expense"},
	{"Salary", "income"},
	{"Refunds", "income"},
	{"Other Income", "income"},
}

// SeedDefaults ensures the default user and the baseline system
// categories exist. It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB, email, name string) (int64, error) {
	users := repository.NewUserRepo(db)
	user, err := users.GetByEmail(ctx, email)
	if err != nil {
		return 0, err
	}
	if user == nil {
		user, err = users.Create(ctx, email, name)
		if err != nil {
			return 0, err
		}
	}

	cats := repository.NewCategoryRepo(db)
	existing, err := cats.List(ctx, user.ID, "")
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return user.ID, nil
	}
	for _, dc := range defaultCategories {
		c := repository.Category{
			UserID:   user.ID,
			Name:     dc.Name,
			Kind:     dc.Kind,
			IsSystem: true,
		}
		if _, err := cats.Create(ctx, c); err != nil {
			return 0, err
		}
	}
	return user.ID, nil
}
