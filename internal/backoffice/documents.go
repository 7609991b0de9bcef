package backoffice

import (
	"context"
	"fmt"
	"strings"

	"kdo-portal/internal/models"
	"kdo-portal/internal/util"
)

type RegulationForm struct {
	ID          string `json:"id,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Version     string `json:"version,omitempty"`
	FileData    string `json:"fileData"`
}

// fileSizeLabel mirrors the size shown next to each download, computed from
// the encoded payload.
func fileSizeLabel(payload string) string {
	return fmt.Sprintf("%.2f MB", float64(len(payload))/1024/1024)
}

// SaveRegulation publishes a document or replaces an existing one in place.
// There is no version history.
func (s *Service) SaveRegulation(ctx context.Context, actor *models.AdminUser, f RegulationForm) (models.Regulation, error) {
	errs := models.FieldErrors{}
	if strings.TrimSpace(f.Title) == "" {
		errs.Add("title", "Título y Archivo PDF son obligatorios")
	}
	if f.FileData == "" {
		errs.Add("fileData", "Título y Archivo PDF son obligatorios")
	}
	cat := models.RegulationTechnical
	if f.Category != "" {
		c, err := models.ParseRegulationCategory(f.Category)
		if err != nil {
			errs.Add("category", "Categoría inválida")
		}
		cat = c
	}
	if err := errs.Err(); err != nil {
		return models.Regulation{}, err
	}

	reg := models.Regulation{
		ID:          f.ID,
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Category:    cat,
		Version:     strings.TrimSpace(f.Version),
		Date:        util.DisplayDate(s.now()),
		FileSize:    fileSizeLabel(f.FileData),
		FileData:    f.FileData,
	}
	if reg.Version == "" {
		reg.Version = "1.0"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	regs := s.repo.GetRegulations(ctx)
	editing := f.ID != ""
	if editing {
		idx := findIndex(regs, func(r models.Regulation) bool { return r.ID == f.ID })
		if idx < 0 {
			return models.Regulation{}, models.NotFoundError{Resource: "regulation"}
		}
		regs[idx] = reg
	} else {
		reg.ID = util.NewID()
		regs = append([]models.Regulation{reg}, regs...)
	}
	if err := s.repo.SaveRegulations(ctx, regs); err != nil {
		return models.Regulation{}, err
	}
	return reg, s.repo.AddLog(ctx, actor, "REGLAMENTO", verb(editing, "Editado", "Publicado")+": "+reg.Title)
}

func (s *Service) DeleteRegulation(ctx context.Context, actor *models.AdminUser, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	regs := s.repo.GetRegulations(ctx)
	idx := findIndex(regs, func(r models.Regulation) bool { return r.ID == id })
	if idx < 0 {
		return models.NotFoundError{Resource: "regulation"}
	}
	if err := s.repo.SaveRegulations(ctx, without(regs, idx)); err != nil {
		return err
	}
	return s.repo.AddLog(ctx, actor, "REGLAMENTO", "Eliminado ID: "+id)
}

type PressForm struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category,omitempty"`
}

// SavePressRelease publishes or edits a press release signed by the acting admin.
func (s *Service) SavePressRelease(ctx context.Context, actor *models.AdminUser, f PressForm) (models.PressRelease, error) {
	errs := models.FieldErrors{}
	if strings.TrimSpace(f.Title) == "" {
		errs.Add("title", "Título y Contenido son requeridos.")
	}
	if strings.TrimSpace(f.Content) == "" {
		errs.Add("content", "Título y Contenido son requeridos.")
	}
	cat := models.PressOfficial
	if f.Category != "" {
		c, err := models.ParsePressCategory(f.Category)
		if err != nil {
			errs.Add("category", "Categoría inválida")
		}
		cat = c
	}
	if err := errs.Err(); err != nil {
		return models.PressRelease{}, err
	}

	author := "Admin KDO"
	if actor != nil && actor.Name != "" {
		author = actor.Name
	}
	pr := models.PressRelease{
		ID:       f.ID,
		Title:    strings.TrimSpace(f.Title),
		Content:  strings.TrimSpace(f.Content),
		Category: cat,
		Date:     util.DisplayDate(s.now()),
		Author:   author,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	news := s.repo.GetPressReleases(ctx)
	editing := f.ID != ""
	if editing {
		idx := findIndex(news, func(n models.PressRelease) bool { return n.ID == f.ID })
		if idx < 0 {
			return models.PressRelease{}, models.NotFoundError{Resource: "press release"}
		}
		news[idx] = pr
	} else {
		pr.ID = util.NewID()
		news = append([]models.PressRelease{pr}, news...)
	}
	if err := s.repo.SavePressReleases(ctx, news); err != nil {
		return models.PressRelease{}, err
	}
	return pr, s.repo.AddLog(ctx, actor, "PRENSA", verb(editing, "Editado", "Publicado")+": "+pr.Title)
}

func (s *Service) DeletePressRelease(ctx context.Context, actor *models.AdminUser, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	news := s.repo.GetPressReleases(ctx)
	idx := findIndex(news, func(n models.PressRelease) bool { return n.ID == id })
	if idx < 0 {
		return models.NotFoundError{Resource: "press release"}
	}
	if err := s.repo.SavePressReleases(ctx, without(news, idx)); err != nil {
		return err
	}
	return s.repo.AddLog(ctx, actor, "PRENSA", "Eliminado ID: "+id)
}
