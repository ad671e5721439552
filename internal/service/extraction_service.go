package service

import (
	"context"
	"os"
	"sort"
	"strings"
	"time"

	apperrors "go-script-validator/internal/errors"
	"go-script-validator/internal/logger"
	"go-script-validator/internal/normalize"
	"go-script-validator/internal/observer"
	"go-script-validator/internal/parser"
	"go-script-validator/internal/preprocess"
	"go-script-validator/internal/quality"
	"go-script-validator/internal/rasterizer"
	"go-script-validator/internal/repository"
	"go-script-validator/internal/sink"
	"go-script-validator/internal/storage"
	"go-script-validator/internal/strategy"
	"go-script-validator/pkg/models"
	"go-script-validator/pkg/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const statusSuccess = "success"

// ExtractionService defines the per-file pipeline and the standalone validation check
type ExtractionService interface {
	Process(ctx context.Context, req ProcessRequest) (*models.ExtractionRecord, error)
	ValidateMetadata(req models.ValidateRequest) models.ValidateResponse
}

// ProcessRequest describes one file to process. Empty output directories fall back to
// the service defaults.
type ProcessRequest struct {
	Source     string
	Upload     bool
	PDFOutDir  string
	MetaOutDir string
}

// Dependencies wires the pipeline stages
type Dependencies struct {
	Repository repository.SourceRepository
	Rasterizer rasterizer.Rasterizer
	Strategy   strategy.ExtractionStrategy
	Assessor   *quality.Assessor
	Store      storage.Store
	Events     observer.Subject

	PDFOutDir  string
	MetaOutDir string

	// TempRoot holds the per-request workspaces; empty means the OS default
	TempRoot string
	Clock    func() time.Time
}

// extractionService implements ExtractionService
type extractionService struct {
	deps Dependencies
}

// NewExtractionService creates a new extraction service
func NewExtractionService(deps Dependencies) ExtractionService {
	if deps.Assessor == nil {
		deps.Assessor = quality.NewAssessor()
	}
	if deps.Store == nil {
		deps.Store = storage.NoopStore{}
	}
	if deps.Events == nil {
		deps.Events = observer.NewEventPublisher()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &extractionService{deps: deps}
}

// Process runs one file through resolve, rasterize, extract, normalize, validate, score,
// persist and upload. The workspace is removed on every path.
func (s *extractionService) Process(ctx context.Context, req ProcessRequest) (*models.ExtractionRecord, error) {
	requestID := uuid.New().String()
	start := time.Now()
	log := logger.ForRequest(requestID).WithField("source", req.Source)

	s.deps.Events.NotifyObservers(ctx, observer.ProcessingEvent{
		EventType: observer.ProcessingStarted,
		RequestID: requestID,
		Source:    req.Source,
	})

	record, err := s.process(ctx, req, requestID, log)
	if err != nil {
		s.deps.Events.NotifyObservers(ctx, observer.ProcessingEvent{
			EventType:      observer.ProcessingFailed,
			RequestID:      requestID,
			Source:         req.Source,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}

	s.deps.Events.NotifyObservers(ctx, observer.ProcessingEvent{
		EventType:      observer.ProcessingCompleted,
		RequestID:      requestID,
		Source:         req.Source,
		ProcessingTime: time.Since(start),
		Success:        true,
		Degraded:       record.Degraded,
		Metadata: map[string]interface{}{
			"valid":      record.Validation.Valid,
			"confidence": record.Confidence,
		},
	})
	return record, nil
}

func (s *extractionService) process(ctx context.Context, req ProcessRequest, requestID string, log *logrus.Entry) (*models.ExtractionRecord, error) {
	workDir, err := os.MkdirTemp(s.deps.TempRoot, "val_*")
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create workspace", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			log.WithError(err).Warn("Failed to remove workspace")
		}
	}()

	input, err := s.deps.Repository.Resolve(ctx, req.Source, workDir)
	if err != nil {
		return nil, err
	}

	imagePath := input.Path
	if input.IsPDF {
		imagePath, err = s.deps.Rasterizer.FirstPageToImage(ctx, input.Path, workDir)
		if err != nil {
			return nil, err
		}
	}

	img, err := preprocess.DecodeFile(imagePath)
	if err != nil {
		return nil, apperrors.NewUnreadableInputError("unreadable image", err)
	}

	out, err := s.deps.Strategy.Extract(ctx, img)
	if err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"strategy":       out.Strategy,
		"parse_degraded": out.ParseDegraded,
	}).Debug("Metadata extracted")

	meta := normalize.Normalize(out.Metadata.Fields())
	verdict := validation.Validate(meta)

	report := s.deps.Assessor.Assess(img, out.SkewAngle)
	if out.OCRText != "" {
		report.OCR = quality.Agreement(meta, out.OCRText)
	}
	confidence := quality.Confidence(out.Provenance, report)

	now := s.deps.Clock().UTC()
	persisted := models.PersistedMetadata{
		Metadata:   meta,
		Validation: verdict,
		Quality:    report,
		Confidence: confidence,
		Provenance: out.Provenance,
		Source:     req.Source,
		CreatedAt:  now.Format(time.RFC3339),
	}

	pdfDir, metaDir := req.PDFOutDir, req.MetaOutDir
	if pdfDir == "" {
		pdfDir = s.deps.PDFOutDir
	}
	if metaDir == "" {
		metaDir = s.deps.MetaOutDir
	}
	written, err := sink.New(pdfDir, metaDir).PersistAt(input.Path, input.IsPDF, persisted, now)
	if err != nil {
		return nil, err
	}

	var cid string
	if req.Upload {
		cid = s.upload(ctx, requestID, req.Source, written.PDFPath, log)
	}

	return &models.ExtractionRecord{
		RequestID:     requestID,
		Status:        statusSuccess,
		Source:        req.Source,
		StudentID:     meta.USN,
		ExamID:        meta.CourseID,
		CourseName:    meta.CourseName,
		Semester:      meta.Semester,
		Timestamp:     persisted.CreatedAt,
		PDFPath:       written.PDFPath,
		PDFCID:        cid,
		MetadataPath:  written.MetadataPath,
		Metadata:      meta,
		Validation:    verdict,
		Quality:       report,
		Confidence:    confidence,
		Degraded:      out.Degraded,
		ParseDegraded: out.ParseDegraded,
		Rescued:       rescuedFields(out.Provenance),
		Provenance:    out.Provenance,
	}, nil
}

// upload stores the archive copy. Failures are logged and leave the CID empty.
func (s *extractionService) upload(ctx context.Context, requestID, source, path string, log *logrus.Entry) string {
	cid, err := s.deps.Store.Add(ctx, path)
	if err != nil {
		log.WithError(err).WithField("store", s.deps.Store.Name()).Warn("Archive upload failed")
		s.deps.Events.NotifyObservers(ctx, observer.ProcessingEvent{
			EventType:    observer.UploadFailed,
			RequestID:    requestID,
			Source:       source,
			ErrorMessage: err.Error(),
		})
		return ""
	}
	return cid
}

func rescuedFields(prov map[string]models.Provenance) []string {
	fields := make([]string, 0)
	for field, p := range prov {
		if p == models.ProvenanceRescued {
			fields = append(fields, field)
		}
	}
	sort.Strings(fields)
	return fields
}

// ValidateMetadata normalizes caller metadata, validates it and compares it with the
// expected identifiers
func (s *extractionService) ValidateMetadata(req models.ValidateRequest) models.ValidateResponse {
	meta := normalize.Normalize(req.Metadata)
	verdict := validation.Validate(meta)

	mismatches := validation.CompareExpected(meta, map[string]string{
		models.FieldUSN:      normalizeExpected(req.ExpectedUSN),
		models.FieldCourseID: normalizeExpected(req.ExpectedCourseID),
	})

	resp := models.ValidateResponse{
		Valid:    verdict.Valid && len(mismatches) == 0,
		Errors:   verdict.Errors,
		Metadata: meta,
	}
	if len(mismatches) > 0 {
		resp.Mismatches = mismatches
	}
	resp.Status = "ok"
	if !resp.Valid {
		resp.Status = "error"
	}
	return resp
}

func normalizeExpected(v string) string {
	return parser.Clean(strings.ToUpper(v))
}
