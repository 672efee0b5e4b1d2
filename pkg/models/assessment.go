package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// Assessment Phases
// ============================================================================

// AssessmentPhase tracks progress through the assessment run.
// State machine, linear, no backtracking:
//
//	not_started → analyzing_containers → mapping_schemas →
//	deduplicating_shared_schemas → recommending_platform → complete
//
//	Any state can transition to: failed
type AssessmentPhase string

const (
	AssessmentPhaseNotStarted     AssessmentPhase = "not_started"
	AssessmentPhaseAnalyzing      AssessmentPhase = "analyzing_containers"
	AssessmentPhaseMapping        AssessmentPhase = "mapping_schemas"
	AssessmentPhaseDeduplicating  AssessmentPhase = "deduplicating_shared_schemas"
	AssessmentPhaseRecommending   AssessmentPhase = "recommending_platform"
	AssessmentPhaseComplete       AssessmentPhase = "complete"
	AssessmentPhaseFailed         AssessmentPhase = "failed"
)

// ValidAssessmentPhases contains all valid phase values.
var ValidAssessmentPhases = []AssessmentPhase{
	AssessmentPhaseNotStarted,
	AssessmentPhaseAnalyzing,
	AssessmentPhaseMapping,
	AssessmentPhaseDeduplicating,
	AssessmentPhaseRecommending,
	AssessmentPhaseComplete,
	AssessmentPhaseFailed,
}

// nextPhase encodes the single legal forward transition per phase.
var nextPhase = map[AssessmentPhase]AssessmentPhase{
	AssessmentPhaseNotStarted:    AssessmentPhaseAnalyzing,
	AssessmentPhaseAnalyzing:     AssessmentPhaseMapping,
	AssessmentPhaseMapping:       AssessmentPhaseDeduplicating,
	AssessmentPhaseDeduplicating: AssessmentPhaseRecommending,
	AssessmentPhaseRecommending:  AssessmentPhaseComplete,
}

// CanTransitionTo returns true if moving from this phase to target is legal.
func (p AssessmentPhase) CanTransitionTo(target AssessmentPhase) bool {
	if target == AssessmentPhaseFailed {
		return p != AssessmentPhaseComplete && p != AssessmentPhaseFailed
	}
	return nextPhase[p] == target
}

// IsTerminal returns true for complete or failed.
func (p AssessmentPhase) IsTerminal() bool {
	return p == AssessmentPhaseComplete || p == AssessmentPhaseFailed
}

// ============================================================================
// Platform Recommendation
// ============================================================================

// TargetPlatform is the recommended migration target.
type TargetPlatform string

const (
	PlatformAzureSQLDatabase        TargetPlatform = "azure_sql_database"
	PlatformAzureSQLManagedInstance TargetPlatform = "azure_sql_managed_instance"
	PlatformSQLServerVM             TargetPlatform = "sql_server_vm"
)

// ServiceTier is the recommended service tier on the target platform.
type ServiceTier string

const (
	TierGeneralPurpose   ServiceTier = "general_purpose"
	TierBusinessCritical ServiceTier = "business_critical"
	TierHyperscale       ServiceTier = "hyperscale"
)

// ComplexityLevel grades how involved the migration is expected to be.
type ComplexityLevel string

const (
	ComplexityLow    ComplexityLevel = "low"
	ComplexityMedium ComplexityLevel = "medium"
	ComplexityHigh   ComplexityLevel = "high"
)

// PlatformRecommendation is the platform/tier/complexity output of a run.
type PlatformRecommendation struct {
	Platform   TargetPlatform  `yaml:"platform"`
	Tier       ServiceTier     `yaml:"tier"`
	Complexity ComplexityLevel `yaml:"complexity"`
	Reasons    []string        `yaml:"reasons,omitempty"`
}

// MigrationEstimate is the projected cost/duration of the data move.
type MigrationEstimate struct {
	TotalDocuments   int64         `yaml:"total_documents"`
	TotalSizeBytes   int64         `yaml:"total_size_bytes"`
	Duration         time.Duration `yaml:"duration"`
	EstimatedCostUSD float64       `yaml:"estimated_cost_usd"`
}

// ============================================================================
// Assessment
// ============================================================================

// Assessment is the final mapping model consumed by reporting and SQL
// generation. Field names, target types, and transformation flags are a
// stable contract for downstream consumers.
type Assessment struct {
	RunID       uuid.UUID       `yaml:"run_id"`
	AccountName string          `yaml:"account_name"`
	StartedAt   time.Time       `yaml:"started_at"`
	CompletedAt time.Time       `yaml:"completed_at"`
	Phase       AssessmentPhase `yaml:"phase"`

	Containers     []ContainerInfo        `yaml:"containers"`
	Mappings       []*ContainerMapping    `yaml:"mappings"`
	SharedSchemas  []*SharedSchema        `yaml:"shared_schemas,omitempty"`
	Constraints    []InferredConstraint   `yaml:"constraints,omitempty"`
	Recommendation PlatformRecommendation `yaml:"recommendation"`
	Estimate       MigrationEstimate      `yaml:"estimate"`
}
