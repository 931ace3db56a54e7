// Package survey implements a one-shot export of an entire survey
// metadata table to CSV.
package survey

import (
	"context"
	"fmt"
	"time"

	"github.com/healthbridge/udd/internal/filespace"
	"github.com/healthbridge/udd/internal/logging"
	"github.com/healthbridge/udd/internal/model"
	"github.com/healthbridge/udd/internal/poller"
	"github.com/healthbridge/udd/internal/tableservice"
)

// Task downloads one survey table's entire contents to <tempDir>/<name>.csv.
type Task struct {
	TableID string

	FileSpace filespace.FileSpace
	Service   tableservice.TableService
	Poller    *poller.TablePoller
	Logger    logging.Logger
}

// Run executes the task, returning the downloaded file on success.
func (t *Task) Run(ctx context.Context, tempDir string) (model.TaskFile, error) {
	logger := t.Logger
	if logger == nil {
		logger = logging.NopLogger{}
	}

	table, err := t.Service.GetTable(ctx, t.TableID)
	if err != nil {
		return model.TaskFile{}, fmt.Errorf("resolve survey table %s: %w", t.TableID, err)
	}

	query := fmt.Sprintf("SELECT * FROM %s", t.TableID)
	path := t.FileSpace.NewFile(tempDir, table.Name+".csv")

	start := time.Now()
	defer func() {
		logger.Debug(ctx, "survey download finished", "table_id", t.TableID, "table_name", table.Name, "elapsed", time.Since(start))
	}()

	handleID, downloadErr := func() (string, error) {
		token, err := t.Service.StartCSVExport(ctx, query, t.TableID)
		if err != nil {
			return "", fmt.Errorf("start survey export %s: %w", t.TableID, err)
		}

		result, err := poller.Poll(ctx, t.Poller, func(ctx context.Context) (tableservice.ExportResult, error) {
			return t.Service.PollCSVExport(ctx, token, t.TableID)
		})
		if err != nil {
			return "", fmt.Errorf("poll survey export %s: %w", t.TableID, err)
		}
		return result.ResultsFileHandleID, nil
	}()
	if downloadErr != nil {
		return model.TaskFile{}, downloadErr
	}

	if err := t.Service.DownloadFileHandle(ctx, handleID, path); err != nil {
		t.cleanup(ctx, path)
		return model.TaskFile{}, fmt.Errorf("download survey file %s: %w", t.TableID, err)
	}

	return model.TaskFile{Path: path, Name: table.Name + ".csv"}, nil
}

func (t *Task) cleanup(ctx context.Context, path string) {
	exists, err := t.FileSpace.Exists(path)
	if err != nil || !exists {
		return
	}
	if err := t.FileSpace.Delete(path); err != nil {
		t.Logger.Warn(ctx, "failed to delete partial survey file", "path", path, "error", err)
	}
}
