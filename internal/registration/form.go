package registration

import "kdo-portal/internal/models"

// DefaultRanking is assigned when a form carries no usable ranking.
const DefaultRanking = 99

// Form is the raw pilot form as typed by the user or the admin.
type Form struct {
	Name             string `json:"name"`
	Number           string `json:"number"`
	Category         string `json:"category"`
	Ranking          string `json:"ranking"`
	MedicalLicense   string `json:"medicalLicense"`
	SportsLicense    string `json:"sportsLicense"`
	TransponderID    string `json:"transponderId"`
	Status           string `json:"status,omitempty"`
	BloodType        string `json:"bloodType,omitempty"`
	EmergencyContact string `json:"emergencyContact,omitempty"`
}

// Prefill is what the registration form is filled with after a lookup or a
// suggestion is picked.
type Prefill struct {
	PilotID        string `json:"pilotId"`
	Name           string `json:"name"`
	Number         string `json:"number"`
	Category       string `json:"category"`
	Ranking        int    `json:"ranking"`
	MedicalLicense string `json:"medicalLicense"`
	SportsLicense  string `json:"sportsLicense"`
	TransponderID  string `json:"transponderId"`
	SameCategory   bool   `json:"sameCategory"`
}

type Outcome string

const (
	OutcomeCreated      Outcome = "created"
	OutcomeReRegistered Outcome = "re-registered"
	OutcomeRejected     Outcome = "rejected"
)

type Result struct {
	Pilot   models.Pilot `json:"pilot"`
	Outcome Outcome      `json:"outcome"`
}
