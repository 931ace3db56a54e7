package intake

import (
	"encoding/json"
	"fmt"

	"github.com/healthbridge/udd/internal/model"
)

// wireRequest is the JSON shape the worker loop reads off the request
// queue.
type wireRequest struct {
	StudyID   string `json:"studyId"`
	UserID    string `json:"userId"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// ParseRequest decodes and validates one intake message.
func ParseRequest(raw []byte) (model.Request, error) {
	var w wireRequest
	if err := json.Unmarshal(raw, &w); err != nil {
		return model.Request{}, fmt.Errorf("decode request: %w", err)
	}

	start, err := model.ParseDate(w.StartDate)
	if err != nil {
		return model.Request{}, fmt.Errorf("parse startDate %q: %w", w.StartDate, err)
	}
	end, err := model.ParseDate(w.EndDate)
	if err != nil {
		return model.Request{}, fmt.Errorf("parse endDate %q: %w", w.EndDate, err)
	}

	req := model.Request{StudyID: w.StudyID, UserID: w.UserID, StartDate: start, EndDate: end}
	if err := req.Validate(); err != nil {
		return model.Request{}, err
	}
	return req, nil
}

// EncodeRequest is the inverse of ParseRequest, used by the CLI that
// submits requests onto the queue.
func EncodeRequest(req model.Request) ([]byte, error) {
	return json.Marshal(wireRequest{
		StudyID:   req.StudyID,
		UserID:    req.UserID,
		StartDate: req.StartDateString(),
		EndDate:   req.EndDateString(),
	})
}
