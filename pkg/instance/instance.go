package instance

import "github.com/angelmondragon/orderdesk-backend/pkg/env"

// GetID identifies the running process in logs. Platform-assigned names win
// over the host name.
func GetID() string {
	return env.First("local", "ORDERDESK_INSTANCE_ID", "DYNO", "HOSTNAME")
}
