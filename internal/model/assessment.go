package model

import "time"

// Template is a configured questionnaire: sections with weights, each holding
// weighted questions.
type Template struct {
	ID       string    `json:"id" yaml:"id"`
	Name     string    `json:"name" yaml:"name"`
	Sections []Section `json:"sections" yaml:"sections"`
}

// Section groups related questions and carries its own weight plus a
// regulatory priority used to escalate derived gaps.
type Section struct {
	ID                 string     `json:"id" yaml:"id"`
	Name               string     `json:"name" yaml:"name"`
	Weight             float64    `json:"weight" yaml:"weight"`
	RegulatoryPriority int        `json:"regulatory_priority" yaml:"regulatory_priority"`
	Questions          []Question `json:"questions" yaml:"questions"`
}

// Question is a single configured questionnaire item.
type Question struct {
	ID           string  `json:"id" yaml:"id"`
	Text         string  `json:"text" yaml:"text"`
	Weight       float64 `json:"weight" yaml:"weight"`
	CategoryTag  string  `json:"category_tag" yaml:"category_tag"`
	Foundational bool    `json:"foundational" yaml:"foundational"`
}

// Answer is the AI-produced evidence evaluation for one question of one
// assessment. Question and section attributes are denormalized onto the
// answer so the scoring pipeline is a pure function of the answer slice,
// with no ambient template lookup.
type Answer struct {
	ID           string       `json:"id"`
	AssessmentID string       `json:"assessment_id"`
	QuestionID   string       `json:"question_id"`
	Score        float64      `json:"score"` // raw evidence-based score, 0-5
	Skipped      bool         `json:"skipped"`
	EvidenceTier EvidenceTier `json:"evidence_tier"` // best tier among cited evidence
	Explanation  string       `json:"explanation,omitempty"`
	SourceRef    string       `json:"source_ref,omitempty"`

	QuestionWeight     float64 `json:"question_weight"`
	SectionID          string  `json:"section_id"`
	SectionWeight      float64 `json:"section_weight"`
	RegulatoryPriority int     `json:"regulatory_priority"`
	CategoryTag        string  `json:"category_tag"`
	Foundational       bool    `json:"foundational"`
}

// Assessment aggregates one organization's run of one template.
type Assessment struct {
	ID           string           `json:"id"`
	OrgID        string           `json:"org_id"`
	OrgName      string           `json:"org_name"`
	TemplateID   string           `json:"template_id"`
	Status       AssessmentStatus `json:"status"`
	RiskScore    *float64         `json:"risk_score,omitempty"` // 0-100, set on completion
	Answers      []Answer         `json:"answers,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	CompletedAt  *time.Time       `json:"completed_at,omitempty"`
}

// Gap is a compliance deficiency derived from below-threshold answers,
// keyed by (assessment, category). Immutable after assessment completion.
type Gap struct {
	ID              string      `json:"id"`
	AssessmentID    string      `json:"assessment_id"`
	Category        string      `json:"category"`
	Severity        Severity    `json:"severity"`
	Priority        int         `json:"priority"` // 1-10, drives timeline bucketing
	PriorityScore   float64     `json:"priority_score"`
	EstimatedCost   CostRange   `json:"estimated_cost"`
	EstimatedEffort EffortRange `json:"estimated_effort"`
	Foundational    bool        `json:"foundational"`
	AnswerCount     int         `json:"answer_count"`
	Description     string      `json:"description,omitempty"`
}

// Risk is a likelihood x impact rated hazard derived alongside a gap.
type Risk struct {
	ID                   string     `json:"id"`
	AssessmentID         string     `json:"assessment_id"`
	Category             string     `json:"category"`
	Likelihood           Likelihood `json:"likelihood"`
	Impact               Impact     `json:"impact"`
	RiskLevel            RiskLevel  `json:"risk_level"`
	ControlEffectiveness *float64   `json:"control_effectiveness,omitempty"` // 0-100; nil = no evidence
}

// OrganizationPriorities captures what the organization wants out of a
// vendor solution. Supplied by the intake flow, read-only here.
type OrganizationPriorities struct {
	OrgID                string      `json:"org_id" yaml:"org_id"`
	RankedPriorities     []string    `json:"ranked_priorities" yaml:"ranked_priorities"` // category tags, rank order
	BudgetRange          CostRange   `json:"budget_range" yaml:"budget_range"`
	MustHaveFeatures     []string    `json:"must_have_features" yaml:"must_have_features"`
	DeploymentPreference string      `json:"deployment_preference" yaml:"deployment_preference"`
	ImplementationUrgency Urgency    `json:"implementation_urgency" yaml:"implementation_urgency"`
	CompanySize          CompanySize `json:"company_size" yaml:"company_size"`
	Jurisdictions        []string    `json:"jurisdictions" yaml:"jurisdictions"`
}
