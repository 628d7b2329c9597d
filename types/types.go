package types

// ---- Service lifecycle (retained) ----

// ServiceState is published retained by long-running services.
type ServiceState struct {
	Level  string `json:"level"`  // e.g. "starting", "running", "stopped"
	Status string `json:"status"` // freeform short code
	TS     int64  `json:"ts_ms"`
}
