// Package packager implements the Packager orchestrator: fan out one
// TableDownloadTask per data table and one SurveyDownloadTask per survey
// table, join their results, embed partial failures as text logs inside
// the archive, zip everything, upload it, and hand back a pre-signed URL
// — with guaranteed temp-directory cleanup on every exit path.
package packager

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/healthbridge/udd/internal/clock"
	"github.com/healthbridge/udd/internal/filespace"
	"github.com/healthbridge/udd/internal/logging"
	"github.com/healthbridge/udd/internal/model"
	"github.com/healthbridge/udd/internal/objectstore"
	"github.com/healthbridge/udd/internal/poller"
	"github.com/healthbridge/udd/internal/survey"
	"github.com/healthbridge/udd/internal/tabletask"
	"github.com/healthbridge/udd/internal/tableservice"
	"github.com/healthbridge/udd/internal/udderrors"
	"github.com/healthbridge/udd/internal/zipper"
)

const (
	dataErrorLogName     = "error.log"
	metadataErrorLogName = "metadata-error.log"
)

// Packager is the request-level orchestrator. Construct one per process
// (it is stateless across requests) and call Package once per intake
// request.
type Packager struct {
	FileSpace   filespace.FileSpace
	Service     tableservice.TableService
	ObjectStore objectstore.ObjectStore
	Poller      *poller.TablePoller
	Clock       clock.Clock
	Logger      logging.Logger

	Bucket         string
	URLExpiration  time.Duration
	WorkerPoolSize int
}

// Package runs the full packaging algorithm for one request. It returns
// (nil, nil) when there is nothing to package, either because there are
// no tables or surveys to pull from or because every task produced no
// files, a fatal error when temp-dir creation, zipping, upload, or URL
// generation fails, and otherwise a PresignedUrlInfo.
func (p *Packager) Package(
	ctx context.Context,
	tableToSchema map[string]model.UploadSchema,
	healthCode string,
	request model.Request,
	surveyTableIDs []string,
) (*model.PresignedUrlInfo, error) {
	logger := p.Logger
	if logger == nil {
		logger = logging.NopLogger{}
	}

	if len(tableToSchema) == 0 && len(surveyTableIDs) == 0 {
		logger.Info(ctx, "nothing to package, skipping", "study_id", request.StudyID, "user_id", request.UserID)
		return nil, nil
	}

	tempDir, err := p.FileSpace.CreateTempDir()
	if err != nil {
		return nil, fmt.Errorf("%w: create temp dir: %w", udderrors.ErrFatal, err)
	}
	defer func() {
		if err := p.FileSpace.DeleteDir(tempDir); err != nil {
			logger.Warn(ctx, "failed to delete request temp dir", "dir", tempDir, "error", err)
		}
	}()

	jobs := p.buildJobs(tempDir, tableToSchema, healthCode, request, surveyTableIDs)
	results := runPool(ctx, p.WorkerPoolSize, jobs)

	var outputs []model.TaskFile
	var dataErrors, metadataErrors []string

	for _, r := range results {
		if r.err == nil {
			outputs = append(outputs, r.files...)
			continue
		}
		entry := formatErrorEntry(r.id, r.err)
		switch r.kind {
		case kindData:
			dataErrors = append(dataErrors, entry)
			logger.Warn(ctx, "data table download failed", "table_id", r.id, "error", r.err)
		case kindSurvey:
			metadataErrors = append(metadataErrors, entry)
			logger.Warn(ctx, "survey download failed", "table_id", r.id, "error", r.err)
		}
	}

	if len(dataErrors) > 0 {
		logFile, err := p.writeErrorLog(tempDir, dataErrorLogName, dataErrors)
		if err != nil {
			return nil, fmt.Errorf("write %s: %w", dataErrorLogName, err)
		}
		outputs = append(outputs, logFile)
	}
	if len(metadataErrors) > 0 {
		logFile, err := p.writeErrorLog(tempDir, metadataErrorLogName, metadataErrors)
		if err != nil {
			return nil, fmt.Errorf("write %s: %w", metadataErrorLogName, err)
		}
		outputs = append(outputs, logFile)
	}

	if len(outputs) == 0 {
		logger.Info(ctx, "no files produced, skipping archive", "study_id", request.StudyID, "user_id", request.UserID)
		return nil, nil
	}

	archiveName := fmt.Sprintf("userdata-%s-to-%s-%s.zip", request.StartDateString(), request.EndDateString(), randomSuffix())
	archivePath := p.FileSpace.NewFile(tempDir, archiveName)

	if err := zipper.Zip(p.FileSpace, archivePath, outputs); err != nil {
		return nil, fmt.Errorf("%w: build archive: %w", udderrors.ErrFatal, err)
	}

	if err := p.ObjectStore.PutFile(ctx, p.Bucket, archiveName, archivePath); err != nil {
		return nil, fmt.Errorf("%w: upload archive %s: %w", udderrors.ErrFatal, archiveName, err)
	}

	expiration := p.Clock.Now().Add(p.URLExpiration)
	url, err := p.ObjectStore.GeneratePresignedURL(ctx, p.Bucket, archiveName, expiration)
	if err != nil {
		return nil, fmt.Errorf("%w: generate presigned url for %s: %w", udderrors.ErrFatal, archiveName, err)
	}

	return &model.PresignedUrlInfo{URL: url, Expiration: expiration}, nil
}

func (p *Packager) buildJobs(
	tempDir string,
	tableToSchema map[string]model.UploadSchema,
	healthCode string,
	request model.Request,
	surveyTableIDs []string,
) []job {
	jobs := make([]job, 0, len(tableToSchema)+len(surveyTableIDs))

	for tableID, schema := range tableToSchema {
		tableID, schema := tableID, schema
		task := &tabletask.Task{
			TableID:    tableID,
			Schema:     schema,
			HealthCode: healthCode,
			Request:    request,
			FileSpace:  p.FileSpace,
			Service:    p.Service,
			Poller:     p.Poller,
			Logger:     p.Logger,
		}
		jobs = append(jobs, job{
			kind: kindData,
			id:   tableID,
			run: func(ctx context.Context) ([]model.TaskFile, error) {
				return task.Run(ctx, tempDir)
			},
		})
	}

	for _, tableID := range surveyTableIDs {
		tableID := tableID
		task := &survey.Task{
			TableID:   tableID,
			FileSpace: p.FileSpace,
			Service:   p.Service,
			Poller:    p.Poller,
			Logger:    p.Logger,
		}
		jobs = append(jobs, job{
			kind: kindSurvey,
			id:   tableID,
			run: func(ctx context.Context) ([]model.TaskFile, error) {
				file, err := task.Run(ctx, tempDir)
				if err != nil {
					return nil, err
				}
				return []model.TaskFile{file}, nil
			},
		})
	}

	return jobs
}

func (p *Packager) writeErrorLog(tempDir, name string, entries []string) (model.TaskFile, error) {
	path := p.FileSpace.NewFile(tempDir, name)
	w, err := p.FileSpace.OpenWriter(path)
	if err != nil {
		return model.TaskFile{}, err
	}
	defer w.Close()

	if _, err := w.Write([]byte(strings.Join(entries, "\n\n") + "\n")); err != nil {
		return model.TaskFile{}, err
	}
	return model.TaskFile{Path: path, Name: name}, nil
}

// formatErrorEntry renders one failure in the human-readable format
// written into the archive's error logs: a header line naming the failed
// table id, then the error message, separated by blank lines. Go errors
// carry no separate stack trace, so the wrapped error chain stands in
// for it.
func formatErrorEntry(tableID string, err error) string {
	return fmt.Sprintf("table: %s\n%s", tableID, err.Error())
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
