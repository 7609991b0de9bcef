package models

type PilotStats struct {
	Wins    int     `json:"wins"`
	Podiums int     `json:"podiums"`
	Poles   int     `json:"poles"`
	Points  float64 `json:"points,omitempty"`
}

type Pilot struct {
	ID               string     `json:"id"`
	Number           string     `json:"number"`
	Name             string     `json:"name"`
	Category         string     `json:"category"`
	Status           Status     `json:"status"`
	Ranking          int        `json:"ranking"`
	MedicalLicense   string     `json:"medicalLicense"`
	SportsLicense    string     `json:"sportsLicense"`
	TransponderID    string     `json:"transponderId"`
	ConductPoints    int        `json:"conductPoints"` // 0-10
	LastUpdated      string     `json:"lastUpdated"`
	CreatedAt        int64      `json:"createdAt"` // unix millis
	Stats            PilotStats `json:"stats"`
	BloodType        string     `json:"bloodType,omitempty"`
	EmergencyContact string     `json:"emergencyContact,omitempty"`
	Association      string     `json:"association,omitempty"`
}

// Active reports whether the pilot is entered for the next race.
func (p Pilot) Active() bool {
	return p.Status == StatusConfirmed || p.Status == StatusPending
}

type Champion struct {
	Category string `json:"category"`
	Pilot    string `json:"pilot"`
	Kart     string `json:"kart"`
}

type Event struct {
	ID     string      `json:"id"`
	Round  int         `json:"round"`
	Name   string      `json:"name"`
	Date   string      `json:"date"`
	Track  string      `json:"track"`
	Status EventStatus `json:"status"`

	// Attendance side-tables keyed by pilot id.
	BriefingSigned    []string        `json:"briefingSigned,omitempty"`
	TechnicalScrutiny map[string]bool `json:"technicalScrutiny,omitempty"`
}

type Championship struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	Dates     string     `json:"dates"`
	Tracks    string     `json:"tracks"`
	Image     string     `json:"image"`
	Year      int        `json:"year"`
	Events    []Event    `json:"events,omitempty"`
	Champions []Champion `json:"champions,omitempty"`
}

type TrackRecord struct {
	Category string `json:"category"`
	Pilot    string `json:"pilot"`
	Time     string `json:"time"`
	Date     string `json:"date"`
}

type Circuit struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Location       string        `json:"location"`
	Length         string        `json:"length"`
	Image          string        `json:"image"`
	Description    string        `json:"description"`
	Features       []string      `json:"features"`
	SurfaceStatus  string        `json:"surfaceStatus,omitempty"`
	EmergencyPhone string        `json:"emergencyPhone,omitempty"`
	Records        []TrackRecord `json:"records,omitempty"`
}

type Association struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	CircuitIDs  []string `json:"circuitIds"`
}

// Penalty keeps a snapshot of the sanctioned pilot (name, number, category)
// as it was when the penalty was issued. Later roster edits do not rewrite it.
type Penalty struct {
	ID        string      `json:"id"`
	PilotID   string      `json:"pilotId"`
	PilotName string      `json:"pilotName,omitempty"`
	Number    string      `json:"number,omitempty"`
	Category  string      `json:"category"`
	Type      PenaltyType `json:"type"`
	Reason    string      `json:"reason"`
	Points    int         `json:"points,omitempty"`
	Date      string      `json:"date"`
}

type Regulation struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Category    RegulationCategory `json:"category"`
	Version     string             `json:"version"`
	Date        string             `json:"date"`
	FileSize    string             `json:"fileSize"`
	FileData    string             `json:"fileData"` // base64 document
	IsDraft     bool               `json:"isDraft"`
}

type PressRelease struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Content  string        `json:"content"`
	Date     string        `json:"date"`
	Author   string        `json:"author"`
	Category PressCategory `json:"category"`
}

type MarketplaceItem struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Price     string          `json:"price"`
	Category  ListingCategory `json:"category"`
	Condition ItemCondition   `json:"condition"`
	Image     string          `json:"image"`
	Contact   string          `json:"contact"`
}

type AdminUser struct {
	ID           string   `json:"id"`
	Username     string   `json:"username"`
	PasswordHash string   `json:"passwordHash,omitempty"`
	Name         string   `json:"name"`
	Role         Role     `json:"role"`
	LastLogin    int64    `json:"lastLogin,omitempty"`
	Permissions  []string `json:"permissions"`
}

// Public strips the credential so the record can be held in a session or
// returned to a client.
func (u AdminUser) Public() AdminUser {
	u.PasswordHash = ""
	return u
}

type AuditLog struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Admin     string `json:"admin"`
	Action    string `json:"action"`
	Details   string `json:"details"`
	IP        string `json:"ip,omitempty"`
}

type SystemSettings struct {
	PaddockTicker     string `json:"paddockTicker"`
	MaintenanceMode   bool   `json:"maintenanceMode"`
	RegistrationsOpen bool   `json:"registrationsOpen"`
	ActiveVoting      bool   `json:"activeVoting"`
	WeatherInfo       string `json:"weatherInfo,omitempty"`
	LiveTimingURL     string `json:"liveTimingUrl"`
	UseLocalOrbits    bool   `json:"useLocalOrbits,omitempty"`
	OrbitsIP          string `json:"orbitsIp,omitempty"`
}

type TimingRow struct {
	Pos               int    `json:"pos"`
	No                string `json:"no"`
	Name              string `json:"name"`
	Laps              int    `json:"laps"`
	LastLap           string `json:"lastLap"`
	BestLap           string `json:"bestLap"`
	Gap               string `json:"gap"`
	S1                string `json:"s1,omitempty"`
	S2                string `json:"s2,omitempty"`
	S3                string `json:"s3,omitempty"`
	Interval          string `json:"interval,omitempty"`
	Status            string `json:"status,omitempty"`
	IsSessionBest     bool   `json:"isSessionBest,omitempty"`
	IsPersonalBest    bool   `json:"isPersonalBest,omitempty"`
	Predictive        string `json:"predictive,omitempty"`
	Delta             string `json:"delta,omitempty"` // up, down, steady
	TransponderSignal string `json:"transponderSignal,omitempty"`
}
