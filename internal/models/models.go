package models

import "time"

type Severity string

const (
	SeverityNone      Severity = "none"
	SeverityLow       Severity = "low"
	SeverityMedium    Severity = "medium"
	SeverityHigh      Severity = "high"
	SeverityImmediate Severity = "immediate"
)

var severityRank = map[Severity]int{
	SeverityNone:      0,
	SeverityLow:       1,
	SeverityMedium:    2,
	SeverityHigh:      3,
	SeverityImmediate: 4,
}

// Rank orders severities; unknown values rank as medium.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return severityRank[SeverityMedium]
}

// Max returns the more severe of s and o.
func (s Severity) Max(o Severity) Severity {
	if o.Rank() > s.Rank() {
		return o
	}
	return s
}

type RecommendedAction string

const (
	ActionContinue  RecommendedAction = "continue"
	ActionEscalate  RecommendedAction = "escalate"
	ActionEmergency RecommendedAction = "emergency"
)

// CrisisIndicators is the per-message output of the safety screen. Never persisted.
type CrisisIndicators struct {
	SuicidalIdeation  bool              `json:"suicidalIdeation"`
	SelfHarm          bool              `json:"selfHarm"`
	SubstanceAbuse    bool              `json:"substanceAbuse"`
	DomesticViolence  bool              `json:"domesticViolence"`
	Psychosis         bool              `json:"psychosis"`
	SevereDepression  bool              `json:"severeDepression"`
	Panic             bool              `json:"panic"`
	Severity          Severity          `json:"severity"`
	Confidence        float64           `json:"confidence"`
	RecommendedAction RecommendedAction `json:"recommendedAction"`
}

type ChangeReadiness string

const (
	ReadinessPrecontemplation ChangeReadiness = "precontemplation"
	ReadinessContemplation    ChangeReadiness = "contemplation"
	ReadinessPreparation      ChangeReadiness = "preparation"
	ReadinessAction           ChangeReadiness = "action"
	ReadinessMaintenance      ChangeReadiness = "maintenance"
)

// PsychologicalAssessment is an assessment delta for one turn.
type PsychologicalAssessment struct {
	Motivation           *Motivation        `json:"motivation,omitempty"`
	MindsetScore         *float64           `json:"mindsetScore,omitempty"`
	LocusScore           *float64           `json:"locusScore,omitempty"`
	RegulatoryFocusScore *float64           `json:"regulatoryFocusScore,omitempty"`
	RiskFactors          map[string]float64 `json:"riskFactors,omitempty"`
	ChangeReadiness      ChangeReadiness    `json:"changeReadiness,omitempty"`
}

// Empty reports whether the assessment carries no signal.
func (a PsychologicalAssessment) Empty() bool {
	return a.Motivation == nil && a.MindsetScore == nil && a.LocusScore == nil &&
		a.RegulatoryFocusScore == nil && len(a.RiskFactors) == 0 && a.ChangeReadiness == ""
}

type InterventionType string

const (
	InterventionBehavioral   InterventionType = "behavioral"
	InterventionCognitive    InterventionType = "cognitive"
	InterventionMotivational InterventionType = "motivational"
	InterventionGoalSetting  InterventionType = "goal_setting"
)

type Intervention struct {
	InterventionType InterventionType `json:"interventionType" validate:"required,oneof=behavioral cognitive motivational goal_setting"`
	Strategy         string           `json:"strategy" validate:"required"`
	Content          string           `json:"content" validate:"required"`
	ActionSteps      []string         `json:"actionSteps" validate:"required,min=1,dive,required"`
	Timeframe        string           `json:"timeframe"`
	SuccessMetrics   []string         `json:"successMetrics"`
	Obstacles        []string         `json:"obstacles"`
	Adaptations      []string         `json:"adaptations"`
	Confidence       float64          `json:"confidence" validate:"gte=0,lte=1"`
}

// Microtask is the single next small action recommended to the user.
type Microtask struct {
	Rationale string `json:"rationale" validate:"required"`
	Task      string `json:"task" validate:"required"`
}

// ReflectionResult is everything a reflection cycle produces.
type ReflectionResult struct {
	ReflectionID    string    `json:"reflectionId"`
	NextTask        Microtask `json:"nextTask"`
	MomentumMirror  string    `json:"momentumMirror"`
	DashboardTeaser string    `json:"dashboardTeaser"`
}

type VisualizationType string

const (
	VisualizationSpectrum VisualizationType = "spectrum"
	VisualizationBalance  VisualizationType = "balance"
	VisualizationRing     VisualizationType = "ring"
)

type Insight struct {
	Type        VisualizationType `json:"type"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	UserScore   float64           `json:"userScore"`
	Labels      [2]string         `json:"labels"`
}

type SnapshotData struct {
	Archetype        string    `json:"archetype"`
	Insights         []Insight `json:"insights"`
	UserGoal         string    `json:"userGoal"`
	NarrativeSummary string    `json:"narrativeSummary"`
}

// StoredSnapshot is a snapshot as persisted for a user.
type StoredSnapshot struct {
	SnapshotData
	GeneratedAt time.Time `json:"generatedAt"`
}
