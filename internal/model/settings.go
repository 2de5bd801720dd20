package model

// SecuritySettings is the `security` entry of system_settings. It is
// fetched per login attempt so an admin can tighten the lockout policy
// without a redeploy.
type SecuritySettings struct {
	LockAfterFailed int `json:"lockAfterFailed"`
	LockMinutes     int `json:"lockMinutes"`
}

// DefaultSecuritySettings mirrors the values seeded by database.Setup and
// is used when the settings row is missing or unreadable.
func DefaultSecuritySettings() SecuritySettings {
	return SecuritySettings{LockAfterFailed: 5, LockMinutes: 15}
}

// MaintenanceSettings is the `maintenance` entry of system_settings. While
// enabled, non-admin requests are refused by the authentication middleware.
type MaintenanceSettings struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message"`
}
