package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/healthbridge/udd/internal/catalog/migrations"
	"github.com/healthbridge/udd/internal/dbx"
	"github.com/healthbridge/udd/internal/model"
)

// PostgresCatalog is the production Catalog, backed by Postgres.
type PostgresCatalog struct {
	db dbx.DBTX
}

// NewPostgresCatalog builds a PostgresCatalog over an already-open *sql.DB.
func NewPostgresCatalog(db *sql.DB) *PostgresCatalog {
	return &PostgresCatalog{db: db}
}

// Open opens a Postgres connection via the pgx stdlib driver and runs
// pending migrations.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	goose.SetDialect("pgx")
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return nil, fmt.Errorf("run catalog migrations: %w", err)
	}

	return db, nil
}

func (c *PostgresCatalog) GetAccountInfo(ctx context.Context, studyID, userID string) (model.AccountInfo, error) {
	const query = `SELECT email_address, user_id, health_code FROM accounts WHERE study_id = $1 AND user_id = $2`

	var emailAddress, accountUserID string
	var healthCode sql.NullString

	err := c.db.QueryRowContext(ctx, query, studyID, userID).Scan(&emailAddress, &accountUserID, &healthCode)
	if err != nil {
		return model.AccountInfo{}, fmt.Errorf("lookup account %s/%s: %w", studyID, userID, err)
	}

	return model.NewAccountInfo(emailAddress, accountUserID, healthCode.String)
}

func (c *PostgresCatalog) GetTableMappings(ctx context.Context, studyID string) (map[string]model.UploadSchema, error) {
	const query = `
		SELECT tm.table_id, s.schema_id, s.revision, s.fields
		FROM table_mappings tm
		JOIN schemas s ON s.study_id = tm.study_id AND s.schema_id = tm.schema_id AND s.revision = tm.revision
		WHERE tm.study_id = $1`

	rows, err := c.db.QueryContext(ctx, query, studyID)
	if err != nil {
		return nil, fmt.Errorf("query table mappings for study %s: %w", studyID, err)
	}
	defer rows.Close()

	candidates := map[string][]model.UploadSchema{}
	for rows.Next() {
		var tableID, schemaID string
		var revision int
		var rawFields []byte

		if err := rows.Scan(&tableID, &schemaID, &revision, &rawFields); err != nil {
			return nil, fmt.Errorf("scan table mapping row: %w", err)
		}

		var fields []model.FieldDefinition
		if err := json.Unmarshal(rawFields, &fields); err != nil {
			return nil, fmt.Errorf("decode schema fields for %s/%s rev %d: %w", studyID, schemaID, revision, err)
		}

		candidates[tableID] = append(candidates[tableID], model.UploadSchema{
			Key:    model.SchemaKey{StudyID: studyID, SchemaID: schemaID, Revision: revision},
			Fields: fields,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table mappings for study %s: %w", studyID, err)
	}

	result := make(map[string]model.UploadSchema, len(candidates))
	for tableID, schemas := range candidates {
		result[tableID] = model.LatestOf(schemas)
	}
	return result, nil
}

func (c *PostgresCatalog) GetSurveyTableSet(ctx context.Context, studyID string) (model.SurveyTableSet, error) {
	const query = `SELECT table_id FROM survey_tables WHERE study_id = $1`

	rows, err := c.db.QueryContext(ctx, query, studyID)
	if err != nil {
		return nil, fmt.Errorf("query survey tables for study %s: %w", studyID, err)
	}
	defer rows.Close()

	var set model.SurveyTableSet
	for rows.Next() {
		var tableID string
		if err := rows.Scan(&tableID); err != nil {
			return nil, fmt.Errorf("scan survey table row: %w", err)
		}
		set = append(set, tableID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate survey tables for study %s: %w", studyID, err)
	}
	return set, nil
}
