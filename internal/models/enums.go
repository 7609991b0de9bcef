package models

import (
	"fmt"
	"strings"
)

// Closed value sets. Stored values keep the labels the portal has always
// persisted so existing collections decode unchanged.

type Status string

const (
	StatusConfirmed Status = "Confirmado"
	StatusPending   Status = "Pendiente"
	StatusWithdrawn Status = "Baja"
)

var Statuses = []Status{StatusConfirmed, StatusPending, StatusWithdrawn}

type Role string

const (
	RoleSuperAdmin   Role = "SuperAdmin"
	RoleSteward      Role = "Comisario Deportivo"
	RoleScrutineer   Role = "Escrutador Técnico"
	RoleSecretary    Role = "Secretario"
	RolePressOfficer Role = "Prensa"
)

var Roles = []Role{RoleSuperAdmin, RoleSteward, RoleScrutineer, RoleSecretary, RolePressOfficer}

type PenaltyType string

const (
	PenaltyExclusion PenaltyType = "Exclusión"
	PenaltyTime5s    PenaltyType = "Recargo 5s"
	PenaltyTime10s   PenaltyType = "Recargo 10s"
	PenaltyTime20s   PenaltyType = "Recargo 20s"
	PenaltyPosition  PenaltyType = "Recargo Puesto"
	PenaltySanction  PenaltyType = "Sanción"
)

var PenaltyTypes = []PenaltyType{
	PenaltyExclusion, PenaltyTime5s, PenaltyTime10s, PenaltyTime20s, PenaltyPosition, PenaltySanction,
}

type EventStatus string

const (
	EventScheduled EventStatus = "Programada"
	EventRunning   EventStatus = "En curso"
	EventFinished  EventStatus = "Finalizada"
	EventSuspended EventStatus = "Suspendida"
	EventNext      EventStatus = "Próxima"
)

var EventStatuses = []EventStatus{EventScheduled, EventRunning, EventFinished, EventSuspended, EventNext}

type RegulationCategory string

const (
	RegulationTechnical RegulationCategory = "Técnico"
	RegulationSporting  RegulationCategory = "Deportivo"
	RegulationCalendar  RegulationCategory = "Calendario"
	RegulationAnnex     RegulationCategory = "Anexo"
	RegulationCircular  RegulationCategory = "Circular"
)

var RegulationCategories = []RegulationCategory{
	RegulationTechnical, RegulationSporting, RegulationCalendar, RegulationAnnex, RegulationCircular,
}

type PressCategory string

const (
	PressOfficial PressCategory = "Oficial"
	PressPress    PressCategory = "Prensa"
	PressUrgent   PressCategory = "Urgente"
)

var PressCategories = []PressCategory{PressOfficial, PressPress, PressUrgent}

type ListingCategory string

const (
	ListingKart    ListingCategory = "Kart Completo"
	ListingEngine  ListingCategory = "Motor"
	ListingParts   ListingCategory = "Repuestos"
	ListingApparel ListingCategory = "Indumentaria"
)

var ListingCategories = []ListingCategory{ListingKart, ListingEngine, ListingParts, ListingApparel}

type ItemCondition string

const (
	ConditionNew  ItemCondition = "Nuevo"
	ConditionUsed ItemCondition = "Usado"
)

var ItemConditions = []ItemCondition{ConditionNew, ConditionUsed}

type TrackFlag string

const (
	FlagGreen     TrackFlag = "Verde"
	FlagYellow    TrackFlag = "Amarilla"
	FlagRed       TrackFlag = "Roja"
	FlagBlue      TrackFlag = "Azul"
	FlagChequered TrackFlag = "Cuadros"
)

var TrackFlags = []TrackFlag{FlagGreen, FlagYellow, FlagRed, FlagBlue, FlagChequered}

func parseEnum[T ~string](kind, raw string, allowed []T) (T, error) {
	raw = strings.TrimSpace(raw)
	for _, v := range allowed {
		if strings.EqualFold(string(v), raw) {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", kind, raw)
}

func ParseStatus(s string) (Status, error)           { return parseEnum("status", s, Statuses) }
func ParseRole(s string) (Role, error)               { return parseEnum("role", s, Roles) }
func ParsePenaltyType(s string) (PenaltyType, error) { return parseEnum("penalty type", s, PenaltyTypes) }
func ParseEventStatus(s string) (EventStatus, error) { return parseEnum("event status", s, EventStatuses) }
func ParseTrackFlag(s string) (TrackFlag, error)     { return parseEnum("track flag", s, TrackFlags) }

func ParseRegulationCategory(s string) (RegulationCategory, error) {
	return parseEnum("regulation category", s, RegulationCategories)
}

func ParsePressCategory(s string) (PressCategory, error) {
	return parseEnum("press category", s, PressCategories)
}

func ParseListingCategory(s string) (ListingCategory, error) {
	return parseEnum("listing category", s, ListingCategories)
}

func ParseItemCondition(s string) (ItemCondition, error) {
	return parseEnum("item condition", s, ItemConditions)
}

// ParseCategory matches a competitive class against the configured list.
// Categories are configuration, not code, so the list is passed in.
func ParseCategory(s string, categories []string) (string, error) {
	return parseEnum("category", s, categories)
}
