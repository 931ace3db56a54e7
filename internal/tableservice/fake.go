package tableservice

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/healthbridge/udd/internal/udderrors"
)

// Fake is an in-memory TableService test double. It lets tests script
// exact sequences of NotReady/ready/error responses per token.
type Fake struct {
	mu sync.Mutex

	Tables map[string]Table // tableID -> Table

	// ExportPolls maps a tableID (as scripted by ScriptExport) and then the
	// token StartCSVExport issues for it to the sequence of responses
	// PollCSVExport should give across successive calls: once the slice is
	// exhausted, the last entry repeats.
	ExportPolls map[string][]pollResponse[ExportResult]
	ExportErr   map[string]error // tableID -> error from StartCSVExport

	BulkPolls map[string][]pollResponse[BulkDownloadResult]
	BulkErr   map[string]error // tableID -> error from StartBulkDownload

	DownloadContents map[string][]byte // fileHandleID -> bytes to "download"
	DownloadErr      map[string]error  // fileHandleID -> error from DownloadFileHandle

	tokenSeq   int
	pollCounts map[string]int

	DownloadFileHandleFunc func(ctx context.Context, handleID, localPath string) error
}

type pollResponse[T any] struct {
	Result   T
	NotReady bool
	Err      error
}

// NewFake builds an empty Fake TableService.
func NewFake() *Fake {
	return &Fake{
		Tables:           make(map[string]Table),
		ExportPolls:      make(map[string][]pollResponse[ExportResult]),
		ExportErr:        make(map[string]error),
		BulkPolls:        make(map[string][]pollResponse[BulkDownloadResult]),
		BulkErr:          make(map[string]error),
		DownloadContents: make(map[string][]byte),
		DownloadErr:      make(map[string]error),
		pollCounts:       make(map[string]int),
	}
}

func (f *Fake) nextToken(prefix string) string {
	f.tokenSeq++
	return fmt.Sprintf("%s-%d", prefix, f.tokenSeq)
}

func (f *Fake) GetTable(ctx context.Context, tableID string) (Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.Tables[tableID]
	if !ok {
		return Table{}, fmt.Errorf("no such table: %s", tableID)
	}
	return t, nil
}

func (f *Fake) StartCSVExport(ctx context.Context, query, tableID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.ExportErr[tableID]; err != nil {
		return "", err
	}
	token := f.nextToken("export")
	f.ExportPolls[token] = f.ExportPolls[tableID]
	return token, nil
}

func (f *Fake) PollCSVExport(ctx context.Context, token, tableID string) (ExportResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq := f.ExportPolls[token]
	idx := f.pollCounts[token]
	if idx >= len(seq) {
		idx = len(seq) - 1
	}
	if idx < 0 {
		return ExportResult{}, fmt.Errorf("no scripted poll responses for token %s", token)
	}
	f.pollCounts[token]++
	r := seq[idx]
	if r.Err != nil {
		return ExportResult{}, r.Err
	}
	if r.NotReady {
		return ExportResult{}, udderrors.ErrNotReady
	}
	return r.Result, nil
}

func (f *Fake) DownloadFileHandle(ctx context.Context, handleID, localPath string) error {
	if f.DownloadFileHandleFunc != nil {
		return f.DownloadFileHandleFunc(ctx, handleID, localPath)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.DownloadErr[handleID]; err != nil {
		return err
	}
	return os.WriteFile(localPath, f.DownloadContents[handleID], 0o640)
}

func (f *Fake) StartBulkDownload(ctx context.Context, req BulkDownloadRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.BulkErr[req.TableID]; err != nil {
		return "", err
	}
	token := f.nextToken("bulk")
	f.BulkPolls[token] = f.BulkPolls[req.TableID]
	return token, nil
}

func (f *Fake) PollBulkDownload(ctx context.Context, token string) (BulkDownloadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	seq := f.BulkPolls[token]
	idx := f.pollCounts[token]
	if idx >= len(seq) {
		idx = len(seq) - 1
	}
	if idx < 0 {
		return BulkDownloadResult{}, fmt.Errorf("no scripted poll responses for token %s", token)
	}
	f.pollCounts[token]++
	r := seq[idx]
	if r.Err != nil {
		return BulkDownloadResult{}, r.Err
	}
	if r.NotReady {
		return BulkDownloadResult{}, udderrors.ErrNotReady
	}
	return r.Result, nil
}

// ScriptExport registers the sequence of poll responses for tableID's next
// export job (keyed by tableID so StartCSVExport can carry it to a token).
func (f *Fake) ScriptExport(tableID string, responses ...pollResponse[ExportResult]) {
	f.ExportPolls[tableID] = responses
}

// ScriptBulk registers the sequence of poll responses for tableID's next
// bulk download job.
func (f *Fake) ScriptBulk(tableID string, responses ...pollResponse[BulkDownloadResult]) {
	f.BulkPolls[tableID] = responses
}

// Ready wraps a result as an immediately-ready poll response.
func Ready[T any](result T) pollResponse[T] { return pollResponse[T]{Result: result} }

// NotReady is a "not ready yet" poll response.
func NotReady[T any]() pollResponse[T] { return pollResponse[T]{NotReady: true} }

// Failed wraps err as a failing poll response.
func Failed[T any](err error) pollResponse[T] { return pollResponse[T]{Err: err} }
