// Package report turns roster, championship and timing data into the
// association's printable documents. Builders are pure; writers render a
// Document as CSV, aligned text or YAML.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"kdo-portal/internal/models"
)

// Section is one titled table.
type Section struct {
	Heading string     `yaml:"heading,omitempty"`
	Columns []string   `yaml:"columns"`
	Rows    [][]string `yaml:"rows"`
}

type Document struct {
	Title    string    `yaml:"title"`
	Subtitle string    `yaml:"subtitle"`
	Issued   time.Time `yaml:"issued"`
	Sections []Section `yaml:"sections"`
}

// Rows counts data rows across all sections.
func (d Document) Rows() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Rows)
	}
	return n
}

const (
	brand       = "KDO"
	brandLong   = "KART DISCIPLINA OFICIAL"
	trackGroup  = 15
	signature   = "_______________________"
	allCategory = "Todas"
)

// ActivePilots keeps the pilots entered for the next race.
func ActivePilots(pilots []models.Pilot) []models.Pilot {
	out := make([]models.Pilot, 0, len(pilots))
	for _, p := range pilots {
		if p.Active() {
			out = append(out, p)
		}
	}
	return out
}

func kart(p models.Pilot) string { return "#" + p.Number }

func ranking(p models.Pilot) string {
	if p.Ranking == 0 {
		return "-"
	}
	return strconv.Itoa(p.Ranking)
}

func byCreation(pilots []models.Pilot) []models.Pilot {
	out := append([]models.Pilot(nil), pilots...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out
}

func byPoints(pilots []models.Pilot) []models.Pilot {
	out := append([]models.Pilot(nil), pilots...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stats.Points > out[j].Stats.Points })
	return out
}

func inCategory(pilots []models.Pilot, category string) []models.Pilot {
	if category == "" || category == allCategory {
		return append([]models.Pilot(nil), pilots...)
	}
	out := make([]models.Pilot, 0, len(pilots))
	for _, p := range pilots {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func millis(ms int64, layout string) string {
	return time.UnixMilli(ms).Format(layout)
}

func SimpleEntryList(pilots []models.Pilot, now time.Time) Document {
	rows := make([][]string, 0, len(pilots))
	for _, p := range pilots {
		rows = append(rows, []string{kart(p), ranking(p), p.Category, p.Name})
	}
	return Document{
		Title:    "PLANILLA DE INSCRIPTOS",
		Subtitle: "LISTADO SIMPLE POR DORSAL",
		Issued:   now,
		Sections: []Section{{Columns: []string{"KART", "RANKING", "CATEGORÍA", "PILOTO"}, Rows: rows}},
	}
}

func LicenseList(pilots []models.Pilot, now time.Time) Document {
	rows := make([][]string, 0, len(pilots))
	for _, p := range pilots {
		rows = append(rows, []string{kart(p), ranking(p), p.Category, p.Name, p.MedicalLicense, p.SportsLicense})
	}
	return Document{
		Title:    "REGISTRO DE LICENCIAS",
		Subtitle: "FISCALIZACIÓN MÉDICA Y DEPORTIVA",
		Issued:   now,
		Sections: []Section{{
			Columns: []string{"KART", "RANKING", "CATEGORÍA", "PILOTO", "LIC. MÉDICA", "LIC. DEPORTIVA"},
			Rows:    rows,
		}},
	}
}

// ArrivalOrder lists pilots in registration order.
func ArrivalOrder(pilots []models.Pilot, now time.Time) Document {
	sorted := byCreation(pilots)
	rows := make([][]string, 0, len(sorted))
	for i, p := range sorted {
		rows = append(rows, []string{strconv.Itoa(i + 1), kart(p), ranking(p), p.Name, p.Category, millis(p.CreatedAt, "02/01/2006 15:04:05")})
	}
	return Document{
		Title:    "ORDEN DE LLEGADA",
		Subtitle: "LISTADO CRONOLÓGICO DE REGISTRO",
		Issued:   now,
		Sections: []Section{{Columns: []string{"ORDEN", "KART", "RANKING", "PILOTO", "CATEGORÍA", "FECHA INSCRIPCIÓN"}, Rows: rows}},
	}
}

// ByCategory splits the arrival order per category, skipping empty ones.
func ByCategory(pilots []models.Pilot, categories []string, now time.Time) Document {
	doc := Document{Title: "PLANILLA POR CATEGORÍAS", Subtitle: "SEGMENTACIÓN CRONOLÓGICA", Issued: now}
	for _, cat := range categories {
		members := byCreation(inCategory(pilots, cat))
		if len(members) == 0 {
			continue
		}
		rows := make([][]string, 0, len(members))
		for i, p := range members {
			rows = append(rows, []string{strconv.Itoa(i + 1), kart(p), ranking(p), p.Name, millis(p.CreatedAt, "15:04:05")})
		}
		doc.Sections = append(doc.Sections, Section{
			Heading: "CATEGORÍA: " + strings.ToUpper(cat),
			Columns: []string{"ORDEN", "KART", "RANKING", "PILOTO", "HORA REGISTRO"},
			Rows:    rows,
		})
	}
	return doc
}

// TrackGroups splits each category into on-track groups of fifteen,
// labelled A, B, C and onwards.
func TrackGroups(pilots []models.Pilot, categories []string, now time.Time) Document {
	doc := Document{Title: "GRUPOS DE SALIDA", Subtitle: "ORGANIZACIÓN DE TANDAS EN PISTA", Issued: now}
	for _, cat := range categories {
		members := byCreation(inCategory(pilots, cat))
		for start := 0; start < len(members); start += trackGroup {
			end := min(start+trackGroup, len(members))
			rows := make([][]string, 0, end-start)
			for i, p := range members[start:end] {
				rows = append(rows, []string{strconv.Itoa(i + 1), kart(p), p.Name, ranking(p)})
			}
			label := string(rune('A' + start/trackGroup))
			doc.Sections = append(doc.Sections, Section{
				Heading: fmt.Sprintf("%s - GRUPO %s", strings.ToUpper(cat), label),
				Columns: []string{"POS", "KART", "PILOTO", "RANK"},
				Rows:    rows,
			})
		}
	}
	return doc
}

func Briefing(pilots []models.Pilot, now time.Time) Document {
	rows := make([][]string, 0, len(pilots))
	for _, p := range pilots {
		rows = append(rows, []string{kart(p), p.Name, p.Category, signature})
	}
	return Document{
		Title:    "PLANILLA DE ASISTENCIA",
		Subtitle: "BRIEFING OBLIGATORIO DE PILOTOS",
		Issued:   now,
		Sections: []Section{{Columns: []string{"DORSAL", "PILOTO", "CATEGORÍA", "FIRMA"}, Rows: rows}},
	}
}

// EntryList is the registered pilots of one category ("Todas" for all),
// ordered by kart number.
func EntryList(pilots []models.Pilot, category string, now time.Time) Document {
	members := inCategory(pilots, category)
	sort.SliceStable(members, func(i, j int) bool {
		a, _ := strconv.Atoi(members[i].Number)
		b, _ := strconv.Atoi(members[j].Number)
		return a < b
	})
	rows := make([][]string, 0, len(members))
	for i, p := range members {
		rows = append(rows, []string{strconv.Itoa(i + 1), kart(p), p.Name, p.Category})
	}
	return Document{
		Title:    "LISTADO DE INSCRIPTOS",
		Subtitle: "CATEGORÍA: " + category,
		Issued:   now,
		Sections: []Section{{Columns: []string{"POS", "KART", "PILOTO", "CATEGORÍA"}, Rows: rows}},
	}
}

// Padron is the public roster listing, with status.
func Padron(pilots []models.Pilot, title, category string, now time.Time) Document {
	sub := "PADRÓN GENERAL"
	if category != "" && category != allCategory {
		sub = "CATEGORÍA: " + category
	}
	rows := make([][]string, 0, len(pilots))
	for i, p := range pilots {
		rows = append(rows, []string{strconv.Itoa(i + 1), kart(p), p.Name, p.Category, string(p.Status)})
	}
	return Document{
		Title:    title,
		Subtitle: sub,
		Issued:   now,
		Sections: []Section{{Columns: []string{"ORDEN", "KART", "PILOTO", "CATEGORÍA", "ESTADO"}, Rows: rows}},
	}
}

// Standings ranks a category by championship points.
func Standings(championship, category string, pilots []models.Pilot, now time.Time) Document {
	ranked := byPoints(inCategory(pilots, category))
	rows := make([][]string, 0, len(ranked))
	for i, p := range ranked {
		rows = append(rows, []string{strconv.Itoa(i + 1), kart(p), p.Name, strconv.Itoa(p.Stats.Wins), strconv.FormatFloat(p.Stats.Points, 'f', 1, 64)})
	}
	return Document{
		Title:    "STANDINGS OFICIALES",
		Subtitle: fmt.Sprintf("%s - %s", championship, category),
		Issued:   now,
		Sections: []Section{{Columns: []string{"POS", "KART", "PILOTO", "VICTORIAS", "PUNTOS"}, Rows: rows}},
	}
}

// OfficialResults is the classification sheet for one session, with the
// points gap to the leader.
func OfficialResults(category, session, event string, pilots []models.Pilot, now time.Time) Document {
	if session == "" {
		session = "CLASIFICACIÓN OFICIAL"
	}
	if event == "" {
		event = "EVENTO OFICIAL KDO"
	}
	ranked := byPoints(inCategory(pilots, category))
	rows := make([][]string, 0, len(ranked))
	for i, p := range ranked {
		diff := "LIDER"
		if i > 0 {
			diff = "+" + strconv.FormatFloat(ranked[0].Stats.Points-p.Stats.Points, 'f', 1, 64)
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), kart(p), strings.ToUpper(p.Name), diff, strings.ToUpper(session)})
	}
	return Document{
		Title:    session,
		Subtitle: fmt.Sprintf("%s - CATEGORÍA: %s", event, category),
		Issued:   now,
		Sections: []Section{{Columns: []string{"POS", "KART", "PILOT", "DIFF", "OFFICIAL CLASSIFICATION"}, Rows: rows}},
	}
}

func LiveTiming(title string, flag models.TrackFlag, board []models.TimingRow, now time.Time) Document {
	if title == "" {
		title = "REPORTE LIVE - KDO"
	}
	rows := make([][]string, 0, len(board))
	for _, r := range board {
		rows = append(rows, []string{strconv.Itoa(r.Pos), r.No, r.Name, strconv.Itoa(r.Laps), r.BestLap})
	}
	return Document{
		Title:    title,
		Subtitle: "ESTADO PISTA: " + string(flag),
		Issued:   now,
		Sections: []Section{{Columns: []string{"POS", "NO", "PILOTO", "VLTAS", "MEJOR"}, Rows: rows}},
	}
}

// Credential is the pilot's accreditation card.
func Credential(p models.Pilot, now time.Time) Document {
	return Document{
		Title:    fmt.Sprintf("CREDENCIAL OFICIAL KDO %d", now.Year()),
		Subtitle: strings.ToUpper(p.Name),
		Issued:   now,
		Sections: []Section{{
			Columns: []string{"CAMPO", "VALOR"},
			Rows: [][]string{
				{"KART", kart(p)},
				{"CAT", p.Category},
				{"LIC. MÉDICA", p.MedicalLicense},
				{"LIC. DEPORTIVA", p.SportsLicense},
			},
		}},
	}
}
