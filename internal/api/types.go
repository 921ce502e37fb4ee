package api

// Version reported by the health endpoint and MCP serverInfo.
const Version = "v1.0.0"

// ServerName is the MCP serverInfo name.
const ServerName = "IMS Pharmaceutical Data Agent"

type HealthDTO struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
