package catalog_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/healthbridge/udd/internal/catalog"
	"github.com/healthbridge/udd/internal/model"
)

func TestPostgresCatalog_GetAccountInfo(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"email_address", "user_id", "health_code"}).
		AddRow("person@example.org", "user-1", "hc-1")
	mock.ExpectQuery("SELECT email_address, user_id, health_code FROM accounts").
		WithArgs("study-1", "user-1").
		WillReturnRows(rows)

	c := catalog.NewPostgresCatalog(db)
	info, err := c.GetAccountInfo(context.Background(), "study-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, model.AccountInfo{EmailAddress: "person@example.org", UserID: "user-1", HealthCode: "hc-1"}, info)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCatalog_GetTableMappings_PicksLatestRevision(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"table_id", "schema_id", "revision", "fields"}).
		AddRow("t1", "sch-1", 1, `[{"Name":"healthCode","Type":"STRING"}]`).
		AddRow("t1", "sch-1", 2, `[{"Name":"healthCode","Type":"STRING"},{"Name":"photo","Type":"ATTACHMENT"}]`)
	mock.ExpectQuery("SELECT tm.table_id, s.schema_id, s.revision, s.fields").
		WithArgs("study-1").
		WillReturnRows(rows)

	c := catalog.NewPostgresCatalog(db)
	mappings, err := c.GetTableMappings(context.Background(), "study-1")
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	require.Equal(t, 2, mappings["t1"].Key.Revision)
	require.True(t, mappings["t1"].HasAttachments())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCatalog_GetSurveyTableSet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"table_id"}).AddRow("s1").AddRow("s2")
	mock.ExpectQuery("SELECT table_id FROM survey_tables").
		WithArgs("study-1").
		WillReturnRows(rows)

	c := catalog.NewPostgresCatalog(db)
	set, err := c.GetSurveyTableSet(context.Background(), "study-1")
	require.NoError(t, err)
	require.Equal(t, model.SurveyTableSet{"s1", "s2"}, set)
	require.NoError(t, mock.ExpectationsWereMet())
}
