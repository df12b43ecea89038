package handler

import (
	"context"

	"oasip/internal/app/api"
)

// HandleListCategories lists every category, or only those the signed-in lecturer owns.
func HandleListCategories(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		fs := newFlags(deps, "categories")
		lecturer := fs.Bool("lecturer", false, "only categories owned by the signed-in lecturer")
		if err := fs.parse(args); err != nil {
			return nil, err
		}

		if *lecturer {
			return deps.Client.ListLecturerCategories(ctx)
		}
		return deps.Client.ListCategories(ctx)
	}
}

// HandleUpdateCategory edits the given fields of a category.
func HandleUpdateCategory(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		fs := newFlags(deps, "category-update")
		id := fs.Int("id", 0, "category id")
		name := fs.String("name", "", "new name")
		description := fs.String("description", "", "new description")
		duration := fs.Int("duration", 0, "new duration in minutes")
		if err := fs.parse(args); err != nil {
			return nil, err
		}
		if err := fs.require("id"); err != nil {
			return nil, err
		}

		var in api.EditCategoryRequest
		if fs.given("name") {
			in.EventCategoryName = name
		}
		if fs.given("description") {
			in.EventCategoryDescription = description
		}
		if fs.given("duration") {
			in.EventDuration = duration
		}

		return deps.Client.UpdateCategory(ctx, *id, in)
	}
}
