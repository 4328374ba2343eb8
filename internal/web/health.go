package web

// Health statuses.
const (
	HealthOK       = "ok"
	HealthDegraded = "degraded"
)

// Health is the body of GET /api/health.
type Health struct {
	Status       string             `json:"status"`
	Transcriber  string             `json:"transcriber,omitempty"`
	Analyzer     string             `json:"analyzer,omitempty"`
	Dependencies []DependencyStatus `json:"dependencies,omitempty"`
	Checks       []CheckStatus      `json:"checks,omitempty"`
}

// DependencyStatus reports one external binary.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Path        string `json:"path,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// CheckStatus reports one preflight check.
type CheckStatus struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}
