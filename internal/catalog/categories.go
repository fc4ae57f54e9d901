package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/streavmin/streavmin/internal/docstore"
)

// ListCategories returns the full category collection, already sorted by
// order ascending.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	categories, err := docstore.Read(ctx, s.store, categoriesFile, &[]Category{})
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	return *categories, nil
}

// UpsertCategory validates the payload (deriving the slug from the name
// when absent), replaces the entry matching by id first and slug second,
// or appends a new one, then re-sorts the collection by order. The sort is
// stable: ties keep their prior relative order.
func (s *Service) UpsertCategory(ctx context.Context, actor string, category Category) (*Category, error) {
	if err := validateCategory(&category); err != nil {
		return nil, err
	}

	created := false
	_, err := docstore.Update(ctx, s.store, categoriesFile, &[]Category{}, func(cur *[]Category) (*[]Category, error) {
		categories := *cur
		idx := -1
		for i := range categories {
			if categories[i].ID == category.ID || categories[i].Slug == category.Slug {
				idx = i
				break
			}
		}
		if idx == -1 {
			categories = append(categories, category)
			created = true
		} else {
			categories[idx] = category
		}
		sort.SliceStable(categories, func(i, j int) bool {
			return categories[i].Order < categories[j].Order
		})
		return &categories, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save category: %w", err)
	}

	verb := "updated"
	if created {
		verb = "created"
	}
	if err := s.audit.Append(actor, fmt.Sprintf("%s category %s", verb, category.Name)); err != nil {
		return nil, err
	}

	s.logger.Info().Str("id", category.ID).Str("slug", category.Slug).Bool("created", created).Msg("category upserted")
	return &category, nil
}

// DeleteCategory removes the entry with the given id, failing with
// ErrCategoryNotFound when no entry matches.
func (s *Service) DeleteCategory(ctx context.Context, actor, id string) (*Category, error) {
	var removed Category
	_, err := docstore.Update(ctx, s.store, categoriesFile, &[]Category{}, func(cur *[]Category) (*[]Category, error) {
		categories := *cur
		for i := range categories {
			if categories[i].ID == id {
				removed = categories[i]
				categories = append(categories[:i], categories[i+1:]...)
				return &categories, nil
			}
		}
		return nil, ErrCategoryNotFound
	})
	if err != nil {
		return nil, err
	}

	if err := s.audit.Append(actor, fmt.Sprintf("deleted category %s", removed.Name)); err != nil {
		return nil, err
	}

	s.logger.Info().Str("id", id).Str("name", removed.Name).Msg("category deleted")
	return &removed, nil
}
