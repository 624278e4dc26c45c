package api

// RegisterRequest is the JSON body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse is returned from POST /auth/register.
type RegisterResponse struct {
	AccountID string `json:"account_id"`
}

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned from POST /auth/login. Secret and OtpauthURL
// are present only on the first login, when the TOTP secret has just
// been provisioned and must be enrolled in an authenticator app.
type LoginResponse struct {
	NeedsProvisioning bool   `json:"needs_provisioning"`
	Secret            string `json:"secret,omitempty"`
	OtpauthURL        string `json:"otpauth_url,omitempty"`
}

// ProvisioningResponse is returned from GET /auth/totp.
type ProvisioningResponse struct {
	Secret     string `json:"secret"`
	OtpauthURL string `json:"otpauth_url"`
}

// VerifyOTPRequest is the JSON body for POST /auth/otp/verify.
type VerifyOTPRequest struct {
	OTP string `json:"otp"`
}

// IssueAPIKeyResponse is returned from POST /auth/api-key.
type IssueAPIKeyResponse struct {
	APIKey string `json:"api_key"`
}

// APIRegisterRequest is the JSON body for POST /api/register.
type APIRegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// APIRegisterResponse is returned from POST /api/register.
type APIRegisterResponse struct {
	AccountID string `json:"account_id"`
	APIKey    string `json:"api_key"`
}

// APIVerifyRequest is the JSON body for POST /api/2fa/verify.
type APIVerifyRequest struct {
	OTP string `json:"otp"`
}

// StatusResponse is returned from endpoints whose only payload is an
// outcome.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is returned for all error cases.
type ErrorResponse struct {
	Error string `json:"error"`
}
