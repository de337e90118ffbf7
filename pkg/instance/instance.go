package instance

import "github.com/garagehub/procurement-backend/pkg/env"

// GetID returns the process instance identifier used in logs, or fallback when nothing is set.
func GetID(fallback string) string {
	return env.First(fallback, "GARAGE_INSTANCE_ID", "DYNO", "HOSTNAME")
}
