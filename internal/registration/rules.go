package registration

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"kdo-portal/internal/models"
	"kdo-portal/internal/util"
)

// Placeholder licenses written by bulk imports. They identify nobody, so the
// identity check ignores them.
var placeholderLicenses = map[string]bool{
	"P_IMPORT":  true,
	"PENDIENTE": true,
}

// CheckKartNumber rejects number when another pilot already races it in category.
// The same number is free to reuse in a different category.
func CheckKartNumber(roster []models.Pilot, number, category, excludeID string) error {
	errs := models.FieldErrors{}
	checkKartNumber(errs, roster, number, category, excludeID)
	return errs.Err()
}

func checkKartNumber(errs models.FieldErrors, roster []models.Pilot, number, category, excludeID string) {
	number = strings.TrimSpace(number)
	if _, ok := findByNumber(roster, number, category, excludeID); ok {
		errs.Add("number", fmt.Sprintf("El número %s ya existe en %s", number, category))
	}
}

// CheckMedicalLicense enforces that one medical license belongs to one person:
// when license is already on the roster, name must match its holder.
func CheckMedicalLicense(roster []models.Pilot, license, name, excludeID string) error {
	errs := models.FieldErrors{}
	checkMedicalLicense(errs, roster, license, name, excludeID)
	return errs.Err()
}

func checkMedicalLicense(errs models.FieldErrors, roster []models.Pilot, license, name, excludeID string) {
	license = util.Upper(license)
	if license == "" || placeholderLicenses[license] {
		return
	}
	name = util.Upper(name)
	for _, p := range roster {
		if p.ID == excludeID {
			continue
		}
		if util.Upper(p.MedicalLicense) != license {
			continue
		}
		if util.Upper(p.Name) != name {
			errs.Add("medicalLicense", "Licencia registrada a: "+p.Name)
		}
		return
	}
}

func findByNumber(roster []models.Pilot, number, category, excludeID string) (int, bool) {
	number = strings.TrimSpace(number)
	for i, p := range roster {
		if p.ID == excludeID {
			continue
		}
		if strings.TrimSpace(p.Number) == number && p.Category == category {
			return i, true
		}
	}
	return -1, false
}

func findByID(roster []models.Pilot, id string) (int, bool) {
	for i, p := range roster {
		if p.ID == id {
			return i, true
		}
	}
	return -1, false
}

// ValidatePublic checks a self-service form. Kart-number ownership is resolved
// by Register, where a matching name turns the collision into a re-registration.
func ValidatePublic(roster []models.Pilot, f Form, categories []string) models.FieldErrors {
	errs := models.FieldErrors{}

	switch name := strings.TrimSpace(f.Name); {
	case name == "":
		errs.Add("name", "El nombre es obligatorio.")
	case utf8.RuneCountInString(name) < 3:
		errs.Add("name", "El nombre es demasiado corto.")
	}

	if _, err := models.ParseCategory(f.Category, categories); err != nil {
		errs.Add("category", "Seleccione una categoría.")
	}

	switch number := strings.TrimSpace(f.Number); {
	case number == "":
		errs.Add("number", "El dorsal es obligatorio.")
	case !util.IsDigits(number):
		errs.Add("number", "El dorsal debe ser numérico.")
	}

	switch ranking := strings.TrimSpace(f.Ranking); {
	case ranking == "":
		errs.Add("ranking", "Ranking requerido.")
	case !isNumber(ranking):
		errs.Add("ranking", "El ranking debe ser un número.")
	}

	switch med := strings.TrimSpace(f.MedicalLicense); {
	case med == "":
		errs.Add("medicalLicense", "Licencia Médica requerida.")
	case utf8.RuneCountInString(med) < 3:
		errs.Add("medicalLicense", "Formato de licencia inválido.")
	default:
		checkMedicalLicense(errs, roster, med, f.Name, "")
	}

	switch sport := strings.TrimSpace(f.SportsLicense); {
	case sport == "":
		errs.Add("sportsLicense", "Licencia Deportiva requerida.")
	case utf8.RuneCountInString(sport) < 3:
		errs.Add("sportsLicense", "Formato de licencia inválido.")
	}

	return errs
}

// ValidateAdmin checks the back-office pilot form. editID is empty on create.
func ValidateAdmin(roster []models.Pilot, f Form, editID string, categories []string) models.FieldErrors {
	errs := models.FieldErrors{}

	if strings.TrimSpace(f.Name) == "" {
		errs.Add("name", "El nombre es obligatorio")
	}

	category, err := models.ParseCategory(f.Category, categories)
	if err != nil {
		errs.Add("category", "Seleccione una categoría")
	}

	switch number := strings.TrimSpace(f.Number); {
	case number == "":
		errs.Add("number", "El dorsal es obligatorio")
	case !util.IsDigits(number):
		errs.Add("number", "El dorsal debe ser numérico")
	case category != "":
		checkKartNumber(errs, roster, number, category, editID)
	}

	if strings.TrimSpace(f.MedicalLicense) == "" {
		errs.Add("medicalLicense", "Licencia médica requerida")
	} else {
		checkMedicalLicense(errs, roster, f.MedicalLicense, f.Name, editID)
	}

	if strings.TrimSpace(f.SportsLicense) == "" {
		errs.Add("sportsLicense", "Licencia deportiva requerida")
	}
	if strings.TrimSpace(f.TransponderID) == "" {
		errs.Add("transponderId", "Transponder requerido")
	}
	if strings.TrimSpace(f.Ranking) != "" && !isNumber(strings.TrimSpace(f.Ranking)) {
		errs.Add("ranking", "El ranking debe ser un número")
	}
	if strings.TrimSpace(f.Status) != "" {
		if _, err := models.ParseStatus(f.Status); err != nil {
			errs.Add("status", "Estado inválido")
		}
	}
	return errs
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// parseRanking truncates like an integer parse and falls back to 99.
func parseRanking(s string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || int(f) == 0 {
		return DefaultRanking
	}
	return int(f)
}
