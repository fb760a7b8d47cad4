package models

import "time"

// MailMessage is the payload published to the email queue. The email
// worker on the other side of the queue owns delivery.
type MailMessage struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Text      string    `json:"text"`
	HTML      string    `json:"html"`
	Timestamp time.Time `json:"timestamp"`
}
