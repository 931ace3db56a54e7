package tableservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/healthbridge/udd/internal/logging"
	"github.com/healthbridge/udd/internal/udderrors"
	"golang.org/x/oauth2/clientcredentials"
)

// HTTPClient is a TableService backed by a remote REST API, authenticated
// with OAuth2 client-credentials.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

// NewHTTPClient builds an HTTPClient. clientID/clientSecret/tokenURL
// configure the OAuth2 client-credentials token source; the returned
// *http.Client automatically attaches and refreshes bearer tokens on every
// request.
func NewHTTPClient(baseURL, clientID, clientSecret, tokenURL string, logger logging.Logger) *HTTPClient {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	cc := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	return &HTTPClient{
		baseURL: baseURL,
		http:    cc.Client(context.Background()),
		logger:  logger,
	}
}

func (c *HTTPClient) GetTable(ctx context.Context, tableID string) (Table, error) {
	var t Table
	if err := c.getJSON(ctx, fmt.Sprintf("/repo/v1/entity/%s", tableID), &t); err != nil {
		return Table{}, wrapService("getTable", err)
	}
	return t, nil
}

func (c *HTTPClient) StartCSVExport(ctx context.Context, query, tableID string) (string, error) {
	body := map[string]any{
		"sql":            query,
		"tableId":        tableID,
		"writeHeader":    true,
		"includeRowIdAndRowVersion": false,
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.postJSON(ctx, "/repo/v1/table/download/csv/async/start", body, &resp); err != nil {
		return "", wrapService("startCsvExport", err)
	}
	return resp.Token, nil
}

func (c *HTTPClient) PollCSVExport(ctx context.Context, token, tableID string) (ExportResult, error) {
	path := fmt.Sprintf("/repo/v1/table/download/csv/async/get/%s?tableId=%s", token, tableID)
	status, raw, err := c.get(ctx, path)
	if err != nil {
		return ExportResult{}, wrapService("pollCsvExport", err)
	}
	if status == http.StatusAccepted {
		return ExportResult{}, udderrors.ErrNotReady
	}
	if status != http.StatusOK {
		return ExportResult{}, wrapService("pollCsvExport", httpStatusError(status, raw))
	}
	var result ExportResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return ExportResult{}, wrapService("pollCsvExport", err)
	}
	return result, nil
}

func (c *HTTPClient) DownloadFileHandle(ctx context.Context, handleID, localPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/file/v1/fileHandle/"+handleID+"/url", nil)
	if err != nil {
		return wrapService("downloadFileHandle", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return wrapService("downloadFileHandle", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return wrapService("downloadFileHandle", httpStatusError(resp.StatusCode, b))
	}

	out, err := os.OpenFile(localPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return wrapService("downloadFileHandle", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return wrapService("downloadFileHandle", err)
	}
	return nil
}

func (c *HTTPClient) StartBulkDownload(ctx context.Context, req BulkDownloadRequest) (string, error) {
	body := map[string]any{
		"tableId":       req.TableID,
		"fileHandleIds": req.FileHandleIDs,
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.postJSON(ctx, "/file/v1/filehandle/batch/async/start", body, &resp); err != nil {
		return "", wrapService("startBulkDownload", err)
	}
	return resp.Token, nil
}

func (c *HTTPClient) PollBulkDownload(ctx context.Context, token string) (BulkDownloadResult, error) {
	status, raw, err := c.get(ctx, "/file/v1/filehandle/batch/async/get/"+token)
	if err != nil {
		return BulkDownloadResult{}, wrapService("pollBulkDownload", err)
	}
	if status == http.StatusAccepted {
		return BulkDownloadResult{}, udderrors.ErrNotReady
	}
	if status != http.StatusOK {
		return BulkDownloadResult{}, wrapService("pollBulkDownload", httpStatusError(status, raw))
	}
	var result BulkDownloadResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return BulkDownloadResult{}, wrapService("pollBulkDownload", err)
	}
	return result, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	status, raw, err := c.get(ctx, path)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return httpStatusError(status, raw)
	}
	return json.Unmarshal(raw, out)
}

func (c *HTTPClient) get(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, raw, nil
}

func (c *HTTPClient) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return httpStatusError(resp.StatusCode, raw)
	}

	return json.Unmarshal(raw, out)
}

func httpStatusError(status int, body []byte) error {
	return fmt.Errorf("remote table service returned HTTP %d: %s", status, string(body))
}
