package dto

type RequestLinkRequest struct {
	Email  string `json:"email"`
	Locale string `json:"locale"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	VaultMode string `json:"vault_mode"`
}
