package util

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func NowISO() string {
	return time.Now().Format(time.RFC3339)
}

// DateOnly formats t the way lastUpdated fields are stored (YYYY-MM-DD).
func DateOnly(t time.Time) string {
	return t.Format("2006-01-02")
}

// DisplayDate is the dd/mm/yyyy form used for event, press and penalty dates.
func DisplayDate(t time.Time) string {
	return t.Format("02/01/2006")
}

func NormalizeBool(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "si", "sí", "yes", "true", "1", "y", "on":
		return true
	default:
		return false
	}
}

func HMACSHA256Hex(secret, msg string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

// NewID returns a short opaque record id.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Upper trims and upper-cases a display value (pilot names, transponders).
func Upper(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
