// Package tabletask implements the data-table download task: exporting a
// data table's study+user+date-range subset to CSV, then — when the
// schema declares attachment columns that are actually referenced —
// bulk-downloading the attachments and rewriting the CSV to point at
// their local filenames inside the companion zip.
package tabletask

import (
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/healthbridge/udd/internal/filespace"
	"github.com/healthbridge/udd/internal/logging"
	"github.com/healthbridge/udd/internal/model"
	"github.com/healthbridge/udd/internal/poller"
	"github.com/healthbridge/udd/internal/tableservice"
)

// Task downloads the healthCode/date-range subset of one remote table.
type Task struct {
	TableID    string
	Schema     model.UploadSchema
	HealthCode string
	Request    model.Request

	FileSpace filespace.FileSpace
	Service   tableservice.TableService
	Poller    *poller.TablePoller
	Logger    logging.Logger
}

// downloadTaskContext tracks every file this task has created, so a
// failure at any step can clean up exactly what exists.
type downloadTaskContext struct {
	csvFile          string
	bulkDownloadFile string
	editedCsvFile    string
}

// Run executes the full algorithm and returns the files to retain as task
// outputs: either {editedCsvFile, bulkDownloadFile} or {csvFile} alone.
func (t *Task) Run(ctx context.Context, tempDir string) ([]model.TaskFile, error) {
	logger := t.Logger
	if logger == nil {
		logger = logging.NopLogger{}
	}

	dtc := &downloadTaskContext{}
	start := time.Now()
	defer func() {
		logger.Debug(ctx, "table download finished", "table_id", t.TableID, "elapsed", time.Since(start))
	}()

	outputs, err := t.run(ctx, tempDir, dtc)
	if err != nil {
		t.cleanup(ctx, dtc)
		return nil, err
	}
	return outputs, nil
}

func (t *Task) run(ctx context.Context, tempDir string, dtc *downloadTaskContext) ([]model.TaskFile, error) {
	// Step 1: build query.
	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE healthCode='%s' AND uploadDate >= '%s' AND uploadDate <= '%s'",
		t.TableID, t.HealthCode, t.Request.StartDateString(), t.Request.EndDateString(),
	)

	// Step 2: export, poll, download.
	csvPath := t.FileSpace.NewFile(tempDir, t.TableID+".csv")
	dtc.csvFile = csvPath
	if err := t.exportAndDownload(ctx, query, csvPath); err != nil {
		return nil, fmt.Errorf("export table %s: %w", t.TableID, err)
	}

	// Step 3: no data rows, or schema has no attachment fields: done.
	hasRows, err := t.csvHasDataRows(csvPath)
	if err != nil {
		return nil, fmt.Errorf("inspect exported csv for %s: %w", t.TableID, err)
	}
	if !hasRows || !t.Schema.HasAttachments() {
		return []model.TaskFile{{Path: dtc.csvFile, Name: t.TableID + ".csv"}}, nil
	}

	// Step 4: scan attachment cells for referenced file handles.
	handleIDs, err := t.collectAttachmentHandles(csvPath)
	if err != nil {
		return nil, fmt.Errorf("scan attachment cells for %s: %w", t.TableID, err)
	}

	// Step 5: no handles referenced: done.
	if len(handleIDs) == 0 {
		return []model.TaskFile{{Path: dtc.csvFile, Name: t.TableID + ".csv"}}, nil
	}

	// Step 6: bulk-download attachments.
	zipPath := t.FileSpace.NewFile(tempDir, t.TableID+"-attachments.zip")
	dtc.bulkDownloadFile = zipPath
	bulkResult, err := t.bulkDownload(ctx, handleIDs, zipPath)
	if err != nil {
		return nil, fmt.Errorf("bulk download attachments for %s: %w", t.TableID, err)
	}

	// Step 7: rewrite CSV with local attachment paths, then drop the raw one.
	editedPath := t.FileSpace.NewFile(tempDir, t.TableID+"-edited.csv")
	dtc.editedCsvFile = editedPath
	if err := t.rewriteCSV(csvPath, editedPath, bulkResult); err != nil {
		return nil, fmt.Errorf("rewrite csv for %s: %w", t.TableID, err)
	}

	if err := t.FileSpace.Delete(dtc.csvFile); err != nil {
		return nil, fmt.Errorf("delete raw csv for %s: %w", t.TableID, err)
	}
	dtc.csvFile = ""

	// Step 8: return edited CSV + attachment zip.
	return []model.TaskFile{
		{Path: dtc.editedCsvFile, Name: t.TableID + "-edited.csv"},
		{Path: dtc.bulkDownloadFile, Name: t.TableID + "-attachments.zip"},
	}, nil
}

func (t *Task) exportAndDownload(ctx context.Context, query, path string) error {
	token, err := t.Service.StartCSVExport(ctx, query, t.TableID)
	if err != nil {
		return err
	}
	result, err := poller.Poll(ctx, t.Poller, func(ctx context.Context) (tableservice.ExportResult, error) {
		return t.Service.PollCSVExport(ctx, token, t.TableID)
	})
	if err != nil {
		return err
	}
	return t.Service.DownloadFileHandle(ctx, result.ResultsFileHandleID, path)
}

func (t *Task) csvHasDataRows(path string) (bool, error) {
	r, err := t.FileSpace.OpenReader(path)
	if err != nil {
		return false, err
	}
	defer r.Close()

	cr := csv.NewReader(r)
	if _, err := cr.Read(); err != nil {
		return false, nil // header-only or empty file
	}
	if _, err := cr.Read(); err != nil {
		return false, nil
	}
	return true, nil
}

// collectAttachmentHandles scans every attachment-kind column for
// non-empty cell values, returning the deduplicated set of file handle
// IDs referenced anywhere in the CSV.
func (t *Task) collectAttachmentHandles(path string) ([]string, error) {
	r, err := t.FileSpace.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	cr := csv.NewReader(r)
	if _, err := cr.Read(); err != nil {
		return nil, err
	}

	attachmentCols := t.Schema.AttachmentColumnIndexes()

	seen := map[string]bool{}
	var handles []string
	for {
		record, err := cr.Read()
		if err != nil {
			break
		}
		for _, col := range attachmentCols {
			if col >= len(record) {
				continue
			}
			v := record[col]
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			handles = append(handles, v)
		}
	}
	return handles, nil
}

func (t *Task) bulkDownload(ctx context.Context, handleIDs []string, zipPath string) (tableservice.BulkDownloadResult, error) {
	token, err := t.Service.StartBulkDownload(ctx, tableservice.BulkDownloadRequest{
		TableID:       t.TableID,
		FileHandleIDs: handleIDs,
	})
	if err != nil {
		return tableservice.BulkDownloadResult{}, err
	}

	result, err := poller.Poll(ctx, t.Poller, func(ctx context.Context) (tableservice.BulkDownloadResult, error) {
		return t.Service.PollBulkDownload(ctx, token)
	})
	if err != nil {
		return tableservice.BulkDownloadResult{}, err
	}

	if err := t.Service.DownloadFileHandle(ctx, result.ZipFileHandleID, zipPath); err != nil {
		return tableservice.BulkDownloadResult{}, err
	}
	return result, nil
}

// rewriteCSV streams src to dst row by row, replacing attachment-column
// cells with their resolved local path (or a failure placeholder). It
// never buffers the whole file in memory.
func (t *Task) rewriteCSV(srcPath, dstPath string, bulk tableservice.BulkDownloadResult) error {
	in, err := t.FileSpace.OpenReader(srcPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := t.FileSpace.OpenWriter(dstPath)
	if err != nil {
		return err
	}
	defer out.Close()

	cr := csv.NewReader(in)
	cw := csv.NewWriter(out)
	defer cw.Flush()

	header, err := cr.Read()
	if err != nil {
		return err
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	attachmentCols := t.Schema.AttachmentColumnIndexes()
	isAttachmentCol := map[int]bool{}
	for _, c := range attachmentCols {
		isAttachmentCol[c] = true
	}

	for {
		record, err := cr.Read()
		if err != nil {
			break
		}
		for col := range record {
			if !isAttachmentCol[col] || record[col] == "" {
				continue
			}
			record[col] = resolveAttachmentCell(record[col], bulk)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	return cw.Error()
}

func resolveAttachmentCell(handleID string, bulk tableservice.BulkDownloadResult) string {
	file, ok := bulk.Files[handleID]
	if !ok {
		return fmt.Sprintf("[failed: %s]", "unknown-handle")
	}
	if file.LocalPathInZip != "" {
		return file.LocalPathInZip
	}
	return fmt.Sprintf("[failed: %s]", file.FailureCode)
}

// cleanup deletes every file the context created that still exists on
// disk. Idempotent: calling it twice does nothing the second time.
func (t *Task) cleanup(ctx context.Context, dtc *downloadTaskContext) {
	logger := t.Logger
	if logger == nil {
		logger = logging.NopLogger{}
	}
	for _, path := range []string{dtc.csvFile, dtc.bulkDownloadFile, dtc.editedCsvFile} {
		if path == "" {
			continue
		}
		exists, err := t.FileSpace.Exists(path)
		if err != nil || !exists {
			continue
		}
		if err := t.FileSpace.Delete(path); err != nil {
			logger.Warn(ctx, "failed to clean up task file", "path", path, "error", err)
		}
	}
}
