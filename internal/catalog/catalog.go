// Package catalog is the metadata lookup the request-intake worker uses
// before invoking the Packager: account info, the study's table-to-schema
// mapping, and its survey table set.
package catalog

import (
	"context"

	"github.com/healthbridge/udd/internal/model"
)

// Catalog resolves the study/user metadata a packaging request needs.
type Catalog interface {
	// GetAccountInfo resolves studyId+userId to the account that owns the
	// data being packaged.
	GetAccountInfo(ctx context.Context, studyID, userID string) (model.AccountInfo, error)

	// GetTableMappings returns the data tables registered for studyID,
	// keyed by remote table ID, each resolved to its latest-revision schema.
	GetTableMappings(ctx context.Context, studyID string) (map[string]model.UploadSchema, error)

	// GetSurveyTableSet returns the survey metadata table IDs registered
	// for studyID.
	GetSurveyTableSet(ctx context.Context, studyID string) (model.SurveyTableSet, error)
}
