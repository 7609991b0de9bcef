package repository

import "kdo-portal/internal/models"

// DefaultCategories is the class list used when none is configured.
var DefaultCategories = []string{
	"KDO Power",
	"Supermaster",
	"Máster",
	"Clase 3",
	"Clase 2",
	"Clase 1",
	"Menores",
	"Escuela",
}

const seedAssociation = "KDO Kart Disciplina Oficial"

func DefaultSettings() models.SystemSettings {
	return models.SystemSettings{
		PaddockTicker:     "BIENVENIDOS A LA TEMPORADA 2026 - KDO OFICIAL",
		MaintenanceMode:   false,
		RegistrationsOpen: true,
		ActiveVoting:      true,
		LiveTimingURL:     "",
	}
}

func seedPilots() []models.Pilot {
	pilot := func(id, number, name, category string, ranking int, updated string, created int64, med, sport string, conduct int, stats models.PilotStats) models.Pilot {
		return models.Pilot{
			ID: id, Number: number, Name: name, Category: category,
			Status: models.StatusConfirmed, Ranking: ranking,
			LastUpdated: updated, CreatedAt: created, Association: seedAssociation,
			MedicalLicense: med, SportsLicense: sport, TransponderID: "TX-" + med,
			ConductPoints: conduct, Stats: stats,
		}
	}
	return []models.Pilot{
		pilot("1", "1", "JUAN ACOSTA", "KDO Power", 1, "2026-05-01", 1714560000000, "1001", "2001", 10,
			models.PilotStats{Wins: 5, Podiums: 10, Poles: 2, Points: 145.5}),
		pilot("2", "2", "PEDRO RAMIREZ", "KDO Power", 2, "2026-05-01", 1714563600000, "1002", "2002", 9,
			models.PilotStats{Wins: 2, Podiums: 8, Poles: 1, Points: 112}),
		pilot("3", "8", "FRANCISCO PEROYE", "Supermaster", 1, "2026-05-01", 1714567200000, "1003", "2003", 10,
			models.PilotStats{Wins: 4, Podiums: 7, Poles: 4, Points: 130.5}),
		pilot("4", "12", "MARTIN GARCIA", "KDO Power", 3, "2026-05-02", 1714646400000, "1004", "2004", 10,
			models.PilotStats{Wins: 1, Podiums: 4, Poles: 0, Points: 88}),
	}
}

func seedChampionships() []models.Championship {
	ev := func(id string, round int, name, date, track string, status models.EventStatus) models.Event {
		return models.Event{ID: id, Round: round, Name: name, Date: date, Track: track, Status: status}
	}
	return []models.Championship{{
		ID:     "c1",
		Name:   "Campeonato Oficial KDO 2026",
		Status: string(models.EventRunning),
		Dates:  "Marzo - Diciembre 2026",
		Tracks: "Chivilcoy, Salto, Chacabuco",
		Image:  "https://images.unsplash.com/photo-1547631618-f29792042761?w=800&auto=format",
		Year:   2026,
		Events: []models.Event{
			ev("e1", 1, "Gran Premio Apertura", "08/03/2026", "Kartódromo Chivilcoy", models.EventFinished),
			ev("e2", 2, "Copa Ciudad de Salto", "05/04/2026", "Circuito El Bosque", models.EventFinished),
			ev("e3", 3, "GP Homenaje Pilotos", "03/05/2026", "Kartódromo Chacabuco", models.EventFinished),
			ev("e4", 4, "Desafío de la Tierra", "07/06/2026", "Kartódromo Chivilcoy", models.EventNext),
			ev("e5", 5, "Especial con Invitados", "05/07/2026", "Circuito El Bosque", models.EventScheduled),
			ev("e6", 6, "Copa Invierno KDO", "02/08/2026", "Kartódromo Chacabuco", models.EventScheduled),
			ev("e7", 7, "GP Primavera", "06/09/2026", "Kartódromo Chivilcoy", models.EventScheduled),
			ev("e8", 8, "Pre-Coronación", "04/10/2026", "Circuito El Bosque", models.EventScheduled),
			ev("e9", 9, "GP Coronación Parte I", "08/11/2026", "Kartódromo Chacabuco", models.EventScheduled),
			ev("e10", 10, "Gran Final 2026", "06/12/2026", "Kartódromo Chivilcoy", models.EventScheduled),
		},
	}}
}

func seedCircuits() []models.Circuit {
	return []models.Circuit{{
		ID:             "ci1",
		Name:           "Kartódromo KDO Chivilcoy",
		Location:       "Chivilcoy, Buenos Aires",
		Length:         "1.100 mts",
		Image:          "https://s11.aconvert.com/convert/p3r68-cdx67/13ion-ed12c.webp",
		Description:    "Referente de Kart Disciplina Oficial en suelo de tierra.",
		Features:       []string{"Superficie: Tierra Compactada", "Trazado Técnico", "Boxes KDO"},
		SurfaceStatus:  "Seco",
		EmergencyPhone: "107",
		Records:        []models.TrackRecord{},
	}}
}

func seedAssociations() []models.Association {
	return []models.Association{{
		ID:          "assoc1",
		Name:        "Kart Disciplina Oficial (KDO)",
		Description: "Entidad oficial de fiscalización y fomento del karting.",
		CircuitIDs:  []string{"ci1"},
	}}
}

// seedPenalties showcases every sanction type.
func seedPenalties() []models.Penalty {
	p := func(id, pilotID, name, number, category string, typ models.PenaltyType, reason string, points int) models.Penalty {
		return models.Penalty{
			ID: id, PilotID: pilotID, PilotName: name, Number: number, Category: category,
			Type: typ, Reason: reason, Points: points, Date: "08/03/2026",
		}
	}
	return []models.Penalty{
		p("p1", "1", "JUAN ACOSTA", "1", "KDO Power", models.PenaltyExclusion, "Técnica: Peso inferior al reglamentario", 0),
		p("p2", "2", "PEDRO RAMIREZ", "2", "KDO Power", models.PenaltyTime5s, "Maniobra peligrosa en Curva 1", 0),
		p("p3", "3", "FRANCISCO PEROYE", "8", "Supermaster", models.PenaltyTime10s, "Adelantamiento con bandera amarilla", 0),
		p("p4", "4", "MARTIN GARCIA", "12", "KDO Power", models.PenaltyTime20s, "Exceso de velocidad en boxes", 0),
		p("p5", "5", "LUCAS GONZALEZ", "22", "Clase 3", models.PenaltyPosition, "Toque y ganancia de posición (Devolución pendiente)", 0),
		p("p6", "6", "MATEO LOPEZ", "99", "Escuela", models.PenaltySanction, "Conducta antideportiva en parque cerrado", 5),
	}
}

func seedPressReleases() []models.PressRelease {
	return []models.PressRelease{{
		ID:       "news-1",
		Title:    "Lanzamiento Portal KDO 2026",
		Content:  "Iniciamos una nueva era tecnológica en el karting regional. Padrón digital e inscripciones inteligentes.",
		Author:   "Prensa KDO",
		Date:     "01/01/2026",
		Category: models.PressOfficial,
	}}
}

// ProtectedAdminID is the seeded SuperAdmin, which cannot be deleted.
const ProtectedAdminID = "admin-1"

func (r *Repository) seedAdmins() []models.AdminUser {
	return []models.AdminUser{{
		ID:           ProtectedAdminID,
		Username:     "admin",
		PasswordHash: r.adminHash,
		Name:         "Director General KDO",
		Role:         models.RoleSuperAdmin,
		Permissions:  []string{"READ", "WRITE", "ADMIN"},
	}}
}
