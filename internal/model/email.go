package model

// Email is a raw message as delivered by the mail transport client. Date is
// the unparsed transport header; the parser resolves it to a timestamp.
type Email struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
	Subject  string `json:"subject"`
	From     string `json:"from"`
	To       string `json:"to"`
	Date     string `json:"date"`
	BodyText string `json:"body_text"`
	BodyHTML string `json:"body_html"`
}
