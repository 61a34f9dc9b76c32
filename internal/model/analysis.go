package model

// Analysis is the typed field map produced by interpreting an extraction
// model response. Zero values mean the field could not be determined. Raw
// keeps the verbatim response text for audit.
type Analysis struct {
	NotificationType string `json:"notification_type,omitempty"`
	CheckInDate      string `json:"check_in_date,omitempty"`
	CheckOutDate     string `json:"check_out_date,omitempty"`
	ReceivedDate     string `json:"received_date,omitempty"`
	GuestName        string `json:"guest_name,omitempty"`
	NumGuests        int    `json:"num_guests,omitempty"`
	PropertyName     string `json:"property_name,omitempty"`
	Confidence       string `json:"confidence,omitempty"`
	Raw              string `json:"analysis,omitempty"`
}

// NewAnalysis returns an Analysis with the default values used before any
// parsing rung has succeeded.
func NewAnalysis(raw string) *Analysis {
	return &Analysis{
		NotificationType: string(Unknown),
		Confidence:       ConfidenceLow,
		Raw:              raw,
	}
}
