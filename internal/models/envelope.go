package models

import "time"

// Response types reported in CoachingResponse.Type.
const (
	ResponseCrisis       = "crisis_response"
	ResponseSnapshot     = "snapshot"
	ResponseIntervention = "intervention"
	ResponseMicroHabits  = "micro_habits"
	ResponseReflection   = "reflection"
)

type ResponseMetadata struct {
	ChainUsed      string   `json:"chainUsed"`
	ProcessingTime int64    `json:"processingTime"`
	RiskLevel      Severity `json:"riskLevel"`
}

// CoachingResponse is the data part of the response envelope.
type CoachingResponse struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	Content    string           `json:"content"`
	Strategy   string           `json:"strategy"`
	Confidence float64          `json:"confidence"`
	Metadata   ResponseMetadata `json:"metadata"`
	Payload    any              `json:"payload,omitempty"`
}

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type EnvelopeMetadata struct {
	RequestID string    `json:"requestId"`
	Timestamp time.Time `json:"timestamp"`
}

type Envelope struct {
	Success  bool              `json:"success"`
	Data     *CoachingResponse `json:"data,omitempty"`
	Error    *APIError         `json:"error,omitempty"`
	Metadata EnvelopeMetadata  `json:"metadata"`
}
