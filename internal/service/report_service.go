package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/zhanat-dev/observation-api/internal/dto"
	"github.com/zhanat-dev/observation-api/internal/models"
	"github.com/zhanat-dev/observation-api/internal/repository"
	appErrors "github.com/zhanat-dev/observation-api/pkg/errors"
	"github.com/zhanat-dev/observation-api/pkg/export"
	"github.com/zhanat-dev/observation-api/pkg/jobs"
)

type reportJobStore interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
}

type reportFeedbackReader interface {
	FindByEventID(ctx context.Context, eventID string) (*models.Feedback, error)
}

type fileStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type sheetRenderer interface {
	RenderSheet(sheet export.Sheet) ([]byte, error)
}

type urlSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

// ReportService turns feedback sheets into downloadable PDF documents
// through an asynchronous job queue.
type ReportService struct {
	repo     reportJobStore
	events   feedbackEventReader
	feedback reportFeedbackReader
	storage  fileStore
	renderer sheetRenderer
	signer   urlSigner
	metrics  *MetricsService
	logger   *zap.Logger
	basePath string

	queue *jobs.Queue
}

// NewReportService builds a ReportService. Attach the processing queue
// with Attach before enqueueing.
func NewReportService(
	repo reportJobStore,
	events feedbackEventReader,
	feedback reportFeedbackReader,
	storage fileStore,
	renderer sheetRenderer,
	signer urlSigner,
	metrics *MetricsService,
	logger *zap.Logger,
	basePath string,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if basePath == "" {
		basePath = "/api/v1"
	}
	return &ReportService{
		repo:     repo,
		events:   events,
		feedback: feedback,
		storage:  storage,
		renderer: renderer,
		signer:   signer,
		metrics:  metrics,
		logger:   logger,
		basePath: basePath,
	}
}

// Attach wires the worker queue whose handler is Process.
func (s *ReportService) Attach(queue *jobs.Queue) {
	s.queue = queue
}

// Enqueue schedules PDF generation for the event's feedback sheet.
func (s *ReportService) Enqueue(ctx context.Context, eventID string, claims *models.JWTClaims) (*dto.ReportJobResponse, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if claims.Role == models.RoleTeacher && !teacherSeesEvent(event, claims.UserID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	if _, err := s.feedback.FindByEventID(ctx, eventID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event has no feedback sheet")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load feedback")
	}

	job := &models.ReportJob{EventID: eventID, RequestedBy: claims.UserID}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}

	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "report queue not running")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: "feedback-pdf", Payload: eventID}); err != nil {
		failed := models.ReportStatusFailed
		msg := "queue unavailable"
		_ = s.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{Status: &failed, ErrorMessage: &msg})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue report job")
	}
	return &dto.ReportJobResponse{ID: job.ID, Status: job.Status}, nil
}

// Status reports job progress and mints a signed download URL once done.
func (s *ReportService) Status(ctx context.Context, jobID string, claims *models.JWTClaims) (*dto.ReportStatusResponse, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if claims.Role != models.RoleAdmin && job.RequestedBy != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report job not found")
	}

	resp := &dto.ReportStatusResponse{
		ID:      job.ID,
		EventID: job.EventID,
		Status:  job.Status,
		Error:   job.ErrorMessage,
	}
	if job.Status == models.ReportStatusCompleted && job.FilePath != nil {
		token, _, err := s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download url")
		}
		url := fmt.Sprintf("%s/reports/download?token=%s", s.basePath, token)
		resp.DownloadURL = &url
	}
	return resp, nil
}

// Download validates a signed token and opens the generated file.
func (s *ReportService) Download(ctx context.Context, token string) (*os.File, string, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report job not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.FilePath == nil || *job.FilePath != relPath {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "download token does not match the job")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "report file missing")
	}
	return file, fmt.Sprintf("observation-%s.pdf", job.EventID), nil
}

// Process is the queue handler: it renders and stores the PDF for one job.
func (s *ReportService) Process(ctx context.Context, job jobs.Job) error {
	processing := models.ReportStatusProcessing
	if err := s.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{Status: &processing}); err != nil {
		return fmt.Errorf("mark report job processing: %w", err)
	}

	eventID, _ := job.Payload.(string)
	if err := s.render(ctx, job.ID, eventID); err != nil {
		failed := models.ReportStatusFailed
		msg := err.Error()
		_ = s.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{Status: &failed, ErrorMessage: &msg})
		s.metrics.RecordReportJob(string(models.ReportStatusFailed))
		s.logger.Error("report job failed", zap.String("job_id", job.ID), zap.Error(err))
		return err
	}
	s.metrics.RecordReportJob(string(models.ReportStatusCompleted))
	return nil
}

func (s *ReportService) render(ctx context.Context, jobID, eventID string) error {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("load event: %w", err)
	}
	sheet, err := s.feedback.FindByEventID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("load feedback: %w", err)
	}

	data, err := s.renderer.RenderSheet(buildPrintableSheet(event, sheet))
	if err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}

	relPath, err := s.storage.Save(fmt.Sprintf("%s.pdf", jobID), data)
	if err != nil {
		return fmt.Errorf("store pdf: %w", err)
	}

	completed := models.ReportStatusCompleted
	if err := s.repo.Update(ctx, jobID, repository.UpdateReportJobParams{Status: &completed, FilePath: &relPath}); err != nil {
		return fmt.Errorf("mark report job completed: %w", err)
	}
	return nil
}

// buildPrintableSheet maps a feedback sheet onto the printable layout using
// the static checklist schema.
func buildPrintableSheet(event *models.EventDetail, sheet *models.Feedback) export.Sheet {
	comments := []*string{sheet.CommentsSection1, sheet.CommentsSection2, sheet.CommentsSection3}
	recommendations := []*string{sheet.RecommendationsSection1, sheet.RecommendationsSection2, sheet.RecommendationsSection3}

	out := export.Sheet{
		Title: "Lesson Observation Feedback",
		Header: []string{
			fmt.Sprintf("Event: %s", event.Title),
			fmt.Sprintf("Observer: %s", sheet.ObserverName),
			fmt.Sprintf("Date: %s %s", sheet.ObservationDate.Format("2006-01-02"), sheet.ObservationTime),
			fmt.Sprintf("Subject: %s, grade %s", sheet.Subject, sheet.Grade),
		},
	}
	for i, section := range dto.FeedbackSchemaDefinition.Sections {
		printable := export.SheetSection{Title: section.Title}
		for _, field := range section.Fields {
			printable.Items = append(printable.Items, export.SheetItem{
				Label:   field.Label,
				Checked: checklistValue(sheet, field.Field),
			})
		}
		if i < len(comments) && comments[i] != nil {
			printable.Comment = *comments[i]
		}
		if i < len(recommendations) && recommendations[i] != nil {
			printable.Recommendation = *recommendations[i]
		}
		out.Sections = append(out.Sections, printable)
	}
	return out
}

// checklistValue reads a checklist boolean by its schema field name.
func checklistValue(f *models.Feedback, field string) bool {
	switch field {
	case "hasTeamLeader":
		return f.HasTeamLeader
	case "hasAgenda":
		return f.HasAgenda
	case "isProcessDocumented":
		return f.IsProcessDocumented
	case "teachersShowInterest":
		return f.TeachersShowInterest
	case "teachersGiveSuggestions":
		return f.TeachersGiveSuggestions
	case "effectiveCollaboration":
		return f.EffectiveCollaboration
	case "analyzePreviousLessons":
		return f.AnalyzePreviousLessons
	case "useLessonReflection":
		return f.UseLessonReflection
	case "useStudentAchievements":
		return f.UseStudentAchievements
	case "useExternalAssessment":
		return f.UseExternalAssessment
	case "usePedagogicalDecisions":
		return f.UsePedagogicalDecisions
	case "useLessonVisitResults":
		return f.UseLessonVisitResults
	case "useStudentFeedback":
		return f.UseStudentFeedback
	case "useOtherData":
		return f.UseOtherData
	case "discussGoalsAlignment":
		return f.DiscussGoalsAlignment
	case "adaptLearningGoals":
		return f.AdaptLearningGoals
	case "selectAppropriateResources":
		return f.SelectAppropriateResources
	case "selectDifferentiatedStrategies":
		return f.SelectDifferentiatedStrategies
	case "selectEngagingTasks":
		return f.SelectEngagingTasks
	case "discussDescriptors":
		return f.DiscussDescriptors
	case "allocateTime":
		return f.AllocateTime
	case "selectFormativeAssessment":
		return f.SelectFormativeAssessment
	case "planReflection":
		return f.PlanReflection
	case "useICTTools":
		return f.UseICTTools
	case "defineHomework":
		return f.DefineHomework
	case "considerSafety":
		return f.ConsiderSafety
	default:
		return false
	}
}

func teacherSeesEvent(event *models.EventDetail, teacherID string) bool {
	if event.TeamLeaderID == teacherID {
		return true
	}
	for _, id := range event.Participants {
		if id == teacherID {
			return true
		}
	}
	return false
}
