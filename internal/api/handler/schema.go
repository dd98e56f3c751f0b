package handler

import "time"

// messageResponse is the envelope returned by every route that has no payload,
// including all 4xx/5xx responses.
type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func ok(msg string) messageResponse {
	return messageResponse{Success: true, Message: msg}
}

// --- Auth ---

type credentialsRequest struct {
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
}

type verifyTokenResponse struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind"`
	Email   string `json:"email"`
}

// --- Registration ---

type registerRequest struct {
	IGN      string `json:"ign"      validate:"required,max=140"`
	Discord  string `json:"discord"  validate:"required,max=100"`
	Telegram string `json:"telegram" validate:"max=100"`
	Email    string `json:"email"    validate:"required,email,max=254"`
	Type     string `json:"type"     validate:"required,max=50"`
}

type acceptRequest struct {
	IGN string `json:"ign" validate:"required,max=140"`
	// AcceptedBy defaults to the authenticated operator.
	AcceptedBy string `json:"acceptedBy" validate:"max=254"`
}

type acceptResponse struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Matched  []string `json:"matched"`
	Commands []string `json:"commands,omitempty"`
}

type denyRequest struct {
	IGN      string `json:"ign"      validate:"required,max=140"`
	DeniedBy string `json:"deniedBy" validate:"max=254"`
	Reason   string `json:"reason"   validate:"required,max=1000"`
}

// userResponse is one registration request as listed to operators. Decision
// fields are present only for the matching status.
type userResponse struct {
	IGN          string     `json:"ign"`
	Discord      string     `json:"discord"`
	Telegram     string     `json:"telegram,omitempty"`
	Email        string     `json:"email"`
	Type         string     `json:"type"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	AcceptedBy   string     `json:"accepted_by,omitempty"`
	AcceptedDate *time.Time `json:"accepted_date,omitempty"`
	DeniedBy     string     `json:"denied_by,omitempty"`
	DeniedDate   *time.Time `json:"denied_date,omitempty"`
	DenyReason   string     `json:"deny_reason,omitempty"`
}

type usersResponse struct {
	Success bool           `json:"success"`
	Users   []userResponse `json:"users"`
}

// --- Content ---

type contentResponse struct {
	Success bool              `json:"success"`
	Content map[string]string `json:"content"`
}

type contentUpdateRequest struct {
	Page       string            `json:"page"       validate:"required,max=100"`
	Lang       string            `json:"lang"       validate:"required,max=10"`
	Content    map[string]string `json:"content"    validate:"required,min=1,dive,keys,required,max=100,endkeys"`
	ModifiedBy string            `json:"modifiedBy" validate:"required,max=254"`
}
