package profile

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lotworks/lotworks/internal/shared"
)

// User is the full profile record resolved from a session's identity. Role
// changes are external writes; this subsystem only reads them.
type User struct {
	ID            string      `json:"id"`
	FirstName     string      `json:"first_name"`
	LastName      string      `json:"last_name"`
	Email         string      `json:"email"`
	Role          shared.Role `json:"role"`
	Phone         *string     `json:"phone,omitempty"`
	PhotoURL      *string     `json:"photo_url,omitempty"`
	CommissionPct *float64    `json:"commission_pct,omitempty"`
	FlatFeePerCar *float64    `json:"flat_fee_per_car,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

var titler = cases.Title(language.Und)

// DisplayName renders "First Last" with normalised casing, falling back to
// the email when both name fields are blank.
func (u User) DisplayName() string {
	name := strings.TrimSpace(titler.String(strings.TrimSpace(u.FirstName)) + " " + titler.String(strings.TrimSpace(u.LastName)))
	if name == "" {
		return u.Email
	}
	return name
}
