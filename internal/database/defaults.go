package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/AndreAle94/moneywallet-sub006/internal/database/repository"
)

// System category tags. Hidden categories carrying these tags back
// transfers, transfer fees, debt movements and the like; the legacy
// importer redirects sentinel parent ids onto them instead of creating
// duplicates.
const (
	TagTransfer    = "transfer"
	TagTransferTax = "transfer-tax"
	TagDebt        = "debt"
	TagCredit      = "credit"
	TagTax         = "tax"
	TagSaving      = "saving"
)

var systemCategories = []struct {
	tag  string
	name string
}{
	{TagTransfer, "Transfer"},
	{TagTransferTax, "Transfer fee"},
	{TagDebt, "Debt"},
	{TagCredit, "Credit"},
	{TagTax, "Tax"},
	{TagSaving, "Saving"},
}

// SeedDefaults ensures the hidden system categories and a baseline
// visible set exist. It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	catRepo := repository.NewCategoryRepo(db)

	for idx, sc := range systemCategories {
		tag := sc.tag
		cat := repository.Category{
			ID:         deterministicID("syscat:" + tag),
			Name:       sc.name,
			Tag:        &tag,
			System:     true,
			ShowReport: false,
			SortOrder:  idx,
		}
		if err := catRepo.Upsert(ctx, cat); err != nil {
			return err
		}
	}

	existing, err := catRepo.List(ctx)
	if err == nil && len(existing) > len(systemCategories) {
		return nil
	}
	defaults := []string{
		"Income",
		"Food > Groceries",
		"Food > Restaurants",
		"Transport",
		"Shopping",
		"Utilities",
		"Health",
		"Entertainment",
	}
	for idx, path := range defaults {
		parts := strings.Split(path, ">")
		var parentID *string
		for _, raw := range parts {
			name := strings.TrimSpace(raw)
			id := deterministicID("cat:" + name)
			cat := repository.Category{ID: id, Name: name, ParentID: parentID, ShowReport: true, SortOrder: idx}
			if err := catRepo.Upsert(ctx, cat); err != nil {
				return err
			}
			parentID = &id
		}
	}
	return nil
}

func deterministicID(key string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}
