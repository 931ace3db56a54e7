// Package tableservice is the client contract for the remote table
// service: resolving table entities, running async CSV exports, and
// bulk-downloading attachments.
package tableservice

import (
	"context"

	"github.com/healthbridge/udd/internal/udderrors"
)

// Table is the resolved identity of a remote table.
type Table struct {
	ID   string
	Name string
}

// ExportResult is what a completed CSV export job carries.
type ExportResult struct {
	ResultsFileHandleID string
}

// BulkDownloadFileResult is the per-file-handle outcome inside a completed
// bulk download.
type BulkDownloadFileResult struct {
	LocalPathInZip string // set on success
	FailureCode    string // set on failure (LocalPathInZip is empty)
}

// BulkDownloadResult is what a completed bulk download job carries.
type BulkDownloadResult struct {
	ZipFileHandleID string
	Files           map[string]BulkDownloadFileResult // fileHandleID -> outcome
}

// BulkDownloadRequest is the input to StartBulkDownload.
type BulkDownloadRequest struct {
	TableID       string
	FileHandleIDs []string
}

// TableService is the remote API client contract. All methods fail with an
// error wrapping udderrors.ErrService on transport or remote-side failure;
// poll methods additionally return udderrors.ErrNotReady while the job is
// still running.
type TableService interface {
	// GetTable resolves tableID to its display name.
	GetTable(ctx context.Context, tableID string) (Table, error)

	// StartCSVExport submits query as an async CSV export job against
	// tableID and returns a job token.
	StartCSVExport(ctx context.Context, query, tableID string) (token string, err error)

	// PollCSVExport checks one try of an export job. Returns
	// udderrors.ErrNotReady while the job is still running.
	PollCSVExport(ctx context.Context, token, tableID string) (ExportResult, error)

	// DownloadFileHandle downloads handleID's content to localPath.
	DownloadFileHandle(ctx context.Context, handleID, localPath string) error

	// StartBulkDownload submits a bulk file-handle download job and
	// returns a job token.
	StartBulkDownload(ctx context.Context, req BulkDownloadRequest) (token string, err error)

	// PollBulkDownload checks one try of a bulk download job. Returns
	// udderrors.ErrNotReady while the job is still running.
	PollBulkDownload(ctx context.Context, token string) (BulkDownloadResult, error)
}

// wrapService wraps err as a service error; a nil err stays nil.
func wrapService(action string, err error) error {
	if err == nil {
		return nil
	}
	return &serviceError{action: action, cause: err}
}

type serviceError struct {
	action string
	cause  error
}

func (e *serviceError) Error() string {
	return e.action + ": " + e.cause.Error()
}

func (e *serviceError) Unwrap() []error {
	return []error{udderrors.ErrService, e.cause}
}
