package shared

import "fmt"

// Screen names an application area subject to access gating.
type Screen string

const (
	ScreenDashboard   Screen = "dashboard"
	ScreenVehicles    Screen = "vehicles"
	ScreenCustomers   Screen = "customers"
	ScreenAuctions    Screen = "auctions"
	ScreenTasks       Screen = "tasks"
	ScreenMaintenance Screen = "maintenance"
	ScreenAIBeta      Screen = "ai-beta"
	ScreenBHPH        Screen = "bhph"
	ScreenFinancing   Screen = "financing"
	ScreenLogistica   Screen = "logistica"
	ScreenUsers       Screen = "users"
	ScreenPermissions Screen = "permissions"
	ScreenProfile     Screen = "profile"
	ScreenAdmin       Screen = "admin"
)

// Screens lists every gateable application area.
func Screens() []Screen {
	return []Screen{
		ScreenDashboard,
		ScreenVehicles,
		ScreenCustomers,
		ScreenAuctions,
		ScreenTasks,
		ScreenMaintenance,
		ScreenAIBeta,
		ScreenBHPH,
		ScreenFinancing,
		ScreenLogistica,
		ScreenUsers,
		ScreenPermissions,
		ScreenProfile,
		ScreenAdmin,
	}
}

// ParseScreen validates a raw screen identifier.
func ParseScreen(raw string) (Screen, error) {
	for _, s := range Screens() {
		if Screen(raw) == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: screen %q", ErrValidation, raw)
}

func (s Screen) String() string { return string(s) }
