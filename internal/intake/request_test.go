package intake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/healthbridge/udd/internal/model"
)

func TestParseRequest_Valid(t *testing.T) {
	raw := []byte(`{"studyId":"study-1","userId":"user-1","startDate":"2026-01-01","endDate":"2026-01-31"}`)
	req, err := ParseRequest(raw)
	require.NoError(t, err)
	require.Equal(t, "study-1", req.StudyID)
	require.Equal(t, "user-1", req.UserID)
	require.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), req.StartDate)
	require.Equal(t, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), req.EndDate)
}

func TestParseRequest_MissingField(t *testing.T) {
	raw := []byte(`{"studyId":"","userId":"user-1","startDate":"2026-01-01","endDate":"2026-01-31"}`)
	_, err := ParseRequest(raw)
	require.Error(t, err)
}

func TestParseRequest_StartAfterEnd(t *testing.T) {
	raw := []byte(`{"studyId":"study-1","userId":"user-1","startDate":"2026-02-01","endDate":"2026-01-31"}`)
	_, err := ParseRequest(raw)
	require.Error(t, err)
}

func TestParseRequest_MalformedJSON(t *testing.T) {
	_, err := ParseRequest([]byte(`not json`))
	require.Error(t, err)
}

func TestEncodeRequest_RoundTrips(t *testing.T) {
	req := model.Request{
		StudyID:   "study-1",
		UserID:    "user-1",
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	raw, err := EncodeRequest(req)
	require.NoError(t, err)

	decoded, err := ParseRequest(raw)
	require.NoError(t, err)
	require.Equal(t, req, decoded)
}
