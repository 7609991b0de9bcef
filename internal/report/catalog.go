package report

import (
	"fmt"
	"strings"
	"time"

	"kdo-portal/internal/models"
)

type Kind string

const (
	KindSimple     Kind = "simple"
	KindLicenses   Kind = "licencias"
	KindArrival    Kind = "cronologico"
	KindCategories Kind = "categorias"
	KindGroups     Kind = "grupos"
	KindBriefing   Kind = "briefing"
	KindEntries    Kind = "inscriptos"
	KindPadron     Kind = "padron"
	KindStandings  Kind = "standings"
	KindResults    Kind = "resultados"
	KindLive       Kind = "live"
)

var Kinds = []Kind{
	KindSimple, KindLicenses, KindArrival, KindCategories, KindGroups, KindBriefing,
	KindEntries, KindPadron, KindStandings, KindResults, KindLive,
}

func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown report %q", s)
}

// Input carries everything a report may draw on. Builders ignore what
// they do not need.
type Input struct {
	Pilots       []models.Pilot
	Categories   []string
	Category     string
	Championship string
	Session      string
	Event        string
	Flag         models.TrackFlag
	Timing       []models.TimingRow
	Now          time.Time
}

// Build renders the named report. Registration sheets only include
// confirmed and pending pilots.
func Build(kind Kind, in Input) (Document, error) {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	active := ActivePilots(in.Pilots)
	switch kind {
	case KindSimple:
		return SimpleEntryList(active, in.Now), nil
	case KindLicenses:
		return LicenseList(active, in.Now), nil
	case KindArrival:
		return ArrivalOrder(active, in.Now), nil
	case KindCategories:
		return ByCategory(active, in.Categories, in.Now), nil
	case KindGroups:
		return TrackGroups(active, in.Categories, in.Now), nil
	case KindBriefing:
		return Briefing(active, in.Now), nil
	case KindEntries:
		return EntryList(in.Pilots, categoryOrAll(in.Category), in.Now), nil
	case KindPadron:
		return Padron(inCategory(in.Pilots, in.Category), "PADRÓN OFICIAL KDO 2026", in.Category, in.Now), nil
	case KindStandings:
		champ := in.Championship
		if champ == "" {
			champ = "Campeonato 2026"
		}
		return Standings(champ, in.Category, in.Pilots, in.Now), nil
	case KindResults:
		return OfficialResults(in.Category, in.Session, in.Event, in.Pilots, in.Now), nil
	case KindLive:
		return LiveTiming("", in.Flag, in.Timing, in.Now), nil
	default:
		return Document{}, fmt.Errorf("unknown report %q", kind)
	}
}

func categoryOrAll(c string) string {
	if c == "" {
		return allCategory
	}
	return c
}
