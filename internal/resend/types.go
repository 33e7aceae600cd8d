package resend

// Contact is a subscriber record held by Resend, keyed by email within an
// audience. The service never persists contacts locally; every read is a
// live lookup.
type Contact struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Unsubscribed bool   `json:"unsubscribed"`
	CreatedAt    string `json:"created_at"`
}

// ContactParams carries the mutable contact fields for create/update calls.
// Pointer fields are omitted when nil so updates only touch what they set.
type ContactParams struct {
	Email        string `json:"email,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Unsubscribed *bool  `json:"unsubscribed,omitempty"`
}

// SendEmailParams describes one transactional email.
type SendEmailParams struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// CreateBroadcastParams describes a mass-mail campaign targeting an audience.
type CreateBroadcastParams struct {
	AudienceID string `json:"audience_id"`
	From       string `json:"from"`
	Subject    string `json:"subject"`
	HTML       string `json:"html"`
}

type idResponse struct {
	ID string `json:"id"`
}

// Bool returns a pointer to b, for ContactParams.Unsubscribed.
func Bool(b bool) *bool { return &b }
