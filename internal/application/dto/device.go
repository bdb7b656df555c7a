// Package dto defines the request/response shapes exchanged with the HTTP layer.
package dto

// DeviceStartResponse is returned to the watch when a pairing flow starts.
type DeviceStartResponse struct {
	DeviceCode string `json:"device_code"`
	UserCode   string `json:"user_code"`
	AuthURL    string `json:"auth_url"`
	ExpiresIn  int    `json:"expires_in"`
	Interval   int    `json:"interval"`
}

// DevicePollResult is the non-error outcome of a poll: either still pending,
// or authorized with the bound identity and pass-through token.
type DevicePollResult struct {
	Status string `json:"status"` // "pending" or "ok"
	Email  string `json:"email,omitempty"`
	Token  string `json:"token,omitempty"`
}
