package backoffice

import (
	"context"
	"strings"

	"kdo-portal/internal/models"
	"kdo-portal/internal/util"
)

const defaultListingImage = "https://images.unsplash.com/photo-1511994298241-608e28f14f66?w=400"

type ListingForm struct {
	Title     string `json:"title"`
	Price     string `json:"price"`
	Category  string `json:"category"`
	Condition string `json:"condition"`
	Contact   string `json:"contact"`
	Image     string `json:"image,omitempty"`
}

// SaveListing publishes a classified ad, newest first. Listings come from the
// public page, so actor may be nil.
func (s *Service) SaveListing(ctx context.Context, actor *models.AdminUser, f ListingForm) (models.MarketplaceItem, error) {
	errs := models.FieldErrors{}
	if strings.TrimSpace(f.Title) == "" {
		errs.Add("title", "El título es obligatorio")
	}
	if strings.TrimSpace(f.Contact) == "" {
		errs.Add("contact", "El contacto es obligatorio")
	}
	cat, err := models.ParseListingCategory(f.Category)
	if err != nil {
		errs.Add("category", "Categoría inválida")
	}
	cond, err := models.ParseItemCondition(f.Condition)
	if err != nil {
		errs.Add("condition", "Estado inválido")
	}
	if err := errs.Err(); err != nil {
		return models.MarketplaceItem{}, err
	}

	item := models.MarketplaceItem{
		ID:        util.NewID(),
		Title:     strings.TrimSpace(f.Title),
		Price:     strings.TrimSpace(f.Price),
		Category:  cat,
		Condition: cond,
		Contact:   strings.TrimSpace(f.Contact),
		Image:     strings.TrimSpace(f.Image),
	}
	if item.Image == "" {
		item.Image = defaultListingImage
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	items := append([]models.MarketplaceItem{item}, s.repo.GetMarketplace(ctx)...)
	if err := s.repo.SaveMarketplace(ctx, items); err != nil {
		return models.MarketplaceItem{}, err
	}
	return item, s.repo.AddLog(ctx, actor, "MERCADO", "Publicado: "+item.Title)
}

func (s *Service) DeleteListing(ctx context.Context, actor *models.AdminUser, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.repo.GetMarketplace(ctx)
	idx := findIndex(items, func(it models.MarketplaceItem) bool { return it.ID == id })
	if idx < 0 {
		return models.NotFoundError{Resource: "listing"}
	}
	if err := s.repo.SaveMarketplace(ctx, without(items, idx)); err != nil {
		return err
	}
	return s.repo.AddLog(ctx, actor, "MERCADO", "Eliminado ID: "+id)
}
