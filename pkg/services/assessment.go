package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docshift-inc/docshift-engine/pkg/adapters/datasource"
	"github.com/docshift-inc/docshift-engine/pkg/apperrors"
	"github.com/docshift-inc/docshift-engine/pkg/config"
	"github.com/docshift-inc/docshift-engine/pkg/models"
)

// AssessmentService runs a full migration assessment against a source account.
type AssessmentService interface {
	// Run executes all assessment phases and returns the finished model.
	// A returned error means the run failed; the returned assessment (never
	// nil) carries the failed phase and whatever was gathered before the
	// failure.
	Run(ctx context.Context) (*models.Assessment, error)
}

type assessmentService struct {
	reader      datasource.ContainerReader
	accountName string
	sampling    config.SamplingConfig
	rec         config.RecommendationConfig
	mapper      *ContainerMapper
	dedupe      *SharedSchemaDeduplicator
	logger      *zap.Logger
}

// NewAssessmentService creates an assessment service over the given source
// reader. accountName labels the run in reports.
func NewAssessmentService(
	reader datasource.ContainerReader,
	accountName string,
	sampling config.SamplingConfig,
	rec config.RecommendationConfig,
	targetSchema string,
	logger *zap.Logger,
) AssessmentService {
	log := logger.Named("assessment")
	return &assessmentService{
		reader:      reader,
		accountName: accountName,
		sampling:    sampling,
		rec:         rec,
		mapper:      NewContainerMapper(targetSchema, log),
		dedupe:      NewSharedSchemaDeduplicator(targetSchema, log),
		logger:      log,
	}
}

var _ AssessmentService = (*assessmentService)(nil)

// containerResult pairs one container's metadata with its aggregated schemas.
type containerResult struct {
	info    models.ContainerInfo
	schemas []*models.DocumentSchema
	sampled int
}

func (s *assessmentService) Run(ctx context.Context) (*models.Assessment, error) {
	assessment := &models.Assessment{
		RunID:       uuid.New(),
		AccountName: s.accountName,
		StartedAt:   time.Now().UTC(),
		Phase:       models.AssessmentPhaseNotStarted,
	}

	s.logger.Info("Assessment run starting", zap.String("run_id", assessment.RunID.String()))

	if err := s.execute(ctx, assessment); err != nil {
		assessment.Phase = models.AssessmentPhaseFailed
		assessment.CompletedAt = time.Now().UTC()
		return assessment, fmt.Errorf("%w: %w", apperrors.ErrAssessmentFailed, err)
	}

	assessment.CompletedAt = time.Now().UTC()
	s.logger.Info("Assessment run complete",
		zap.String("run_id", assessment.RunID.String()),
		zap.Int("containers", len(assessment.Containers)),
		zap.Int("shared_schemas", len(assessment.SharedSchemas)),
		zap.Duration("elapsed", assessment.CompletedAt.Sub(assessment.StartedAt)))
	return assessment, nil
}

func (s *assessmentService) execute(ctx context.Context, assessment *models.Assessment) error {
	if err := s.transition(assessment, models.AssessmentPhaseAnalyzing); err != nil {
		return err
	}
	results, err := s.analyzeContainers(ctx)
	if err != nil {
		return err
	}
	for _, res := range results {
		assessment.Containers = append(assessment.Containers, res.info)
	}

	if err := s.transition(assessment, models.AssessmentPhaseMapping); err != nil {
		return err
	}
	for _, res := range results {
		if err := ctx.Err(); err != nil {
			return err
		}
		assessment.Mappings = append(assessment.Mappings, s.mapper.Map(res.info, res.schemas, res.sampled))
	}

	if err := s.transition(assessment, models.AssessmentPhaseDeduplicating); err != nil {
		return err
	}
	assessment.SharedSchemas = s.dedupe.Deduplicate(assessment.Mappings)

	if err := s.transition(assessment, models.AssessmentPhaseRecommending); err != nil {
		return err
	}
	assessment.Constraints = InferConstraints(assessment.Mappings)
	assessment.Recommendation = RecommendPlatform(s.rec, assessment.Containers, assessment.Mappings, len(assessment.SharedSchemas))
	assessment.Estimate = EstimateMigration(s.rec, assessment.Containers)

	return s.transition(assessment, models.AssessmentPhaseComplete)
}

// transition advances the run to the next phase, enforcing the state machine.
func (s *assessmentService) transition(assessment *models.Assessment, target models.AssessmentPhase) error {
	if !assessment.Phase.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrInvalidPhaseTransition, assessment.Phase, target)
	}
	s.logger.Info("Assessment phase transition",
		zap.String("from", string(assessment.Phase)),
		zap.String("to", string(target)))
	assessment.Phase = target
	return nil
}

// analyzeContainers lists every container in scope and samples each one.
// Containers are processed in sorted (database, container) order so repeated
// runs over identical input produce identical output.
//
// A container that cannot be listed or sampled fails the whole run; a single
// malformed document only costs that document.
func (s *assessmentService) analyzeContainers(ctx context.Context) ([]*containerResult, error) {
	databases, err := s.reader.ListDatabases(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list databases: %w", apperrors.ErrContainerUnreachable, err)
	}
	sort.Strings(databases)

	results := make([]*containerResult, 0)
	for _, database := range databases {
		containers, err := s.reader.ListContainers(ctx, database)
		if err != nil {
			return nil, fmt.Errorf("%w: list containers in %s: %w", apperrors.ErrContainerUnreachable, database, err)
		}
		sort.Slice(containers, func(i, j int) bool { return containers[i].Name < containers[j].Name })

		for _, info := range containers {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			res, err := s.analyzeContainer(ctx, info)
			if err != nil {
				return nil, err
			}
			results = append(results, res)
		}
	}
	return results, nil
}

func (s *assessmentService) analyzeContainer(ctx context.Context, info models.ContainerInfo) (*containerResult, error) {
	docs, err := s.reader.SampleDocuments(ctx, info.Database, info.Name, s.sampling.DocumentsPerContainer)
	if err != nil {
		return nil, fmt.Errorf("%w: sample %s/%s: %w", apperrors.ErrContainerUnreachable, info.Database, info.Name, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", apperrors.ErrNoDocumentsSampled, info.Database, info.Name)
	}

	agg := NewSchemaAggregator(s.logger)
	var sampleBytes int64
	skipped := 0
	for _, raw := range docs {
		doc, err := models.DecodeDocument(raw)
		if err != nil {
			skipped++
			s.logger.Warn("Skipping malformed document",
				zap.String("database", info.Database),
				zap.String("container", info.Name),
				zap.Error(err))
			continue
		}
		res, err := ExtractDocument(doc, "", s.sampling.ArrayElementCap)
		if err != nil {
			skipped++
			s.logger.Warn("Skipping non-object document",
				zap.String("database", info.Database),
				zap.String("container", info.Name),
				zap.Error(err))
			continue
		}
		agg.Add(res)
		sampleBytes += int64(len(raw))
	}
	if agg.TotalSampled() == 0 {
		return nil, fmt.Errorf("%w: %s/%s: all %d sampled documents unusable",
			apperrors.ErrNoDocumentsSampled, info.Database, info.Name, len(docs))
	}

	// Some accounts expose no size statistics; fall back to extrapolating
	// from the sample's average document size.
	if info.SizeBytes == 0 && agg.TotalSampled() > 0 {
		info.SizeBytes = (sampleBytes / int64(agg.TotalSampled())) * info.DocumentCount
	}

	schemas := agg.Finalize()
	s.logger.Info("Container analyzed",
		zap.String("database", info.Database),
		zap.String("container", info.Name),
		zap.Int("sampled", agg.TotalSampled()),
		zap.Int("skipped", skipped),
		zap.Int("schemas", len(schemas)))

	return &containerResult{info: info, schemas: schemas, sampled: agg.TotalSampled()}, nil
}
