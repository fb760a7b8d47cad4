package invite

import "time"

// Invite types
const (
	TypeAttorneyOwner = "attorney_owner"
	TypeClientOwner   = "client_owner"
)

// Invite is a single-use activation token bound to one recipient and one
// firm or client context. The token string doubles as the document id.
type Invite struct {
	Token      string     `json:"token" bson:"_id"`
	Type       string     `json:"type" bson:"type"`
	Email      string     `json:"email" bson:"email"`
	FirmID     string     `json:"firmId,omitempty" bson:"firm_id,omitempty"`
	ClientID   string     `json:"clientId,omitempty" bson:"client_id,omitempty"`
	InvitedBy  string     `json:"invitedBy" bson:"invited_by"`
	ExpiresAt  time.Time  `json:"expiresAt" bson:"expires_at"`
	Consumed   bool       `json:"-" bson:"consumed"`
	ConsumedAt *time.Time `json:"-" bson:"consumed_at,omitempty"`
	CreatedAt  time.Time  `json:"createdAt" bson:"created_at"`
}

// Message is the composed invite email, handed to the mail transport.
type Message struct {
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}
