// Package recipes fetches and parses crafting recipes.
package recipes

import (
	"context"
	"errors"

	"github.com/aristath/flipper/internal/clientdata"
	"github.com/aristath/flipper/internal/clients/neu"
	"github.com/aristath/flipper/internal/domain"
	"github.com/rs/zerolog"
)

var errNoRecipe = errors.New("item has no crafting recipe")

// ItemRepository provides item documents.
type ItemRepository interface {
	GetItem(ctx context.Context, id domain.ItemID) (*neu.ItemDocument, error)
}

// Resolver implements domain.RecipeSource.
type Resolver struct {
	items     ItemRepository
	cacheRepo *clientdata.Repository
	log       zerolog.Logger
}

// NewResolver creates a new recipe resolver.
// cacheRepo is optional - if nil, caching is disabled.
func NewResolver(items ItemRepository, cacheRepo *clientdata.Repository, log zerolog.Logger) *Resolver {
	return &Resolver{
		items:     items,
		cacheRepo: cacheRepo,
		log:       log.With().Str("service", "recipes").Logger(),
	}
}

var _ domain.RecipeSource = (*Resolver)(nil)

// FetchRecipe returns the recipe for id. Every failure, including an
// unreachable repository, is reported as *domain.RecipeNotFoundError.
func (r *Resolver) FetchRecipe(ctx context.Context, id domain.ItemID) (domain.Recipe, error) {
	if id == "" {
		return domain.Recipe{}, &domain.RecipeNotFoundError{ItemID: id, Err: errNoRecipe}
	}

	if recipe, ok := r.cached(id, false); ok {
		r.log.Debug().Str("item", id.String()).Msg("Recipe cache hit")
		return recipe, nil
	}

	doc, err := r.items.GetItem(ctx, id)
	if err != nil {
		if domain.IsNetworkError(err) {
			if recipe, ok := r.cached(id, true); ok {
				r.log.Warn().Err(err).Str("item", id.String()).Msg("API failed, using stale cached recipe")
				return recipe, nil
			}
		}
		return domain.Recipe{}, &domain.RecipeNotFoundError{ItemID: id, Err: err}
	}

	block, ok := SelectRecipeBlock(doc)
	if !ok {
		return domain.Recipe{}, &domain.RecipeNotFoundError{ItemID: id, Err: errNoRecipe}
	}

	recipe := ParseRecipeBlock(block)
	if recipe.IsEmpty() {
		return domain.Recipe{}, &domain.RecipeNotFoundError{ItemID: id, Err: errNoRecipe}
	}

	if r.cacheRepo != nil {
		if err := r.cacheRepo.Store(clientdata.TableRecipes, id.String(), recipe.Map(), clientdata.TTLRecipe); err != nil {
			r.log.Warn().Err(err).Str("item", id.String()).Msg("Failed to cache recipe")
		}
	}

	r.log.Info().Str("item", id.String()).Int("ingredients", recipe.Len()).Msg("Recipe loaded")
	return recipe, nil
}

func (r *Resolver) cached(id domain.ItemID, allowStale bool) (domain.Recipe, bool) {
	if r.cacheRepo == nil {
		return domain.Recipe{}, false
	}
	var quantities map[domain.ItemID]int
	found, err := r.cacheRepo.Load(clientdata.TableRecipes, id.String(), &quantities, allowStale)
	if err != nil || !found {
		return domain.Recipe{}, false
	}
	recipe := domain.NewRecipe(quantities)
	if recipe.IsEmpty() {
		return domain.Recipe{}, false
	}
	return recipe, true
}
