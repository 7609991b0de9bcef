package backoffice

import (
	"context"

	"kdo-portal/internal/models"
)

// SettingsPatch carries only the fields being changed.
type SettingsPatch struct {
	PaddockTicker     *string `json:"paddockTicker,omitempty"`
	MaintenanceMode   *bool   `json:"maintenanceMode,omitempty"`
	RegistrationsOpen *bool   `json:"registrationsOpen,omitempty"`
	ActiveVoting      *bool   `json:"activeVoting,omitempty"`
	WeatherInfo       *string `json:"weatherInfo,omitempty"`
	LiveTimingURL     *string `json:"liveTimingUrl,omitempty"`
	UseLocalOrbits    *bool   `json:"useLocalOrbits,omitempty"`
	OrbitsIP          *string `json:"orbitsIp,omitempty"`
}

func (p SettingsPatch) apply(s models.SystemSettings) models.SystemSettings {
	if p.PaddockTicker != nil {
		s.PaddockTicker = *p.PaddockTicker
	}
	if p.MaintenanceMode != nil {
		s.MaintenanceMode = *p.MaintenanceMode
	}
	if p.RegistrationsOpen != nil {
		s.RegistrationsOpen = *p.RegistrationsOpen
	}
	if p.ActiveVoting != nil {
		s.ActiveVoting = *p.ActiveVoting
	}
	if p.WeatherInfo != nil {
		s.WeatherInfo = *p.WeatherInfo
	}
	if p.LiveTimingURL != nil {
		s.LiveTimingURL = *p.LiveTimingURL
	}
	if p.UseLocalOrbits != nil {
		s.UseLocalOrbits = *p.UseLocalOrbits
	}
	if p.OrbitsIP != nil {
		s.OrbitsIP = *p.OrbitsIP
	}
	return s
}

// UpdateSettings merges patch into the stored settings.
func (s *Service) UpdateSettings(ctx context.Context, actor *models.AdminUser, patch SettingsPatch) (models.SystemSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := patch.apply(s.repo.GetSettings(ctx))
	if err := s.repo.SaveSettings(ctx, next); err != nil {
		return models.SystemSettings{}, err
	}
	return next, s.repo.AddLog(ctx, actor, "AJUSTES", "Configuración de sistema actualizada")
}

// SetTrackFlag changes the flag shown on the timing screens.
func (s *Service) SetTrackFlag(ctx context.Context, actor *models.AdminUser, raw string) (models.TrackFlag, error) {
	flag, err := models.ParseTrackFlag(raw)
	if err != nil {
		return "", models.FieldErrors{"flag": "Bandera inválida"}
	}
	if err := s.repo.SaveTrackStatus(ctx, flag); err != nil {
		return "", err
	}
	return flag, s.repo.AddLog(ctx, actor, "PISTA", "Bandera "+string(flag))
}
