package subdomains

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phayes/freeport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// closedPortDSN points at a local port nobody listens on.
func closedPortDSN(t *testing.T) string {
	t.Helper()
	port, err := freeport.GetFreePort()
	require.NoError(t, err)
	return fmt.Sprintf("postgres://guest@127.0.0.1:%d/certwatch?sslmode=disable&connect_timeout=2", port)
}

func TestCrtSh_FallsBackToAPIWhenDatabaseIsDown(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `[{"name_value":"api.example.com"}]`)
	src := &CrtShSource{
		Client:  http.DefaultClient,
		BaseURL: srv.URL,
		DSN:     closedPortDSN(t),
		Timeout: 5 * time.Second,
	}

	res := src.Run(context.Background(), "example.com")
	require.NoError(t, res.Err)
	assert.Equal(t, NewSet("api.example.com"), res.Subdomains)
	require.NotNil(t, srv.lastURL(), "the API path was used")
}

func TestCrtSh_BothPathsFail(t *testing.T) {
	srv := newRecordingServer(t, http.StatusServiceUnavailable, `oops`)
	src := &CrtShSource{Client: http.DefaultClient, BaseURL: srv.URL, DSN: closedPortDSN(t), Timeout: 5 * time.Second}

	res := src.Run(context.Background(), "example.com")
	assert.False(t, res.OK())
	var statusErr *StatusError
	assert.True(t, errors.As(res.Err, &statusErr))
}

func TestCrtSh_QueryDBReportsConnectStage(t *testing.T) {
	src := &CrtShSource{DSN: closedPortDSN(t), Timeout: 5 * time.Second}

	_, err := src.queryDB(context.Background(), "example.com")
	require.Error(t, err)
	var stageErr *dbStageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "connecting to the crt.sh database", stageErr.stage)
	assert.NotEmpty(t, describeDBError(err))

	_, err = (&CrtShSource{}).queryDB(context.Background(), "example.com")
	assert.ErrorIs(t, err, errNoDSN)
}

// mockedCrtSh returns a source whose database is a sqlmock connection.
func mockedCrtSh(t *testing.T, apiURL string) (*CrtShSource, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })

	src := &CrtShSource{
		Client:  http.DefaultClient,
		BaseURL: apiURL,
		DSN:     "postgres://guest@crt.sh.test/certwatch",
		Timeout: 5 * time.Second,
		open:    func(string) (*sql.DB, error) { return db, nil },
	}
	return src, mock
}

func TestCrtSh_DatabaseAnswerSkipsAPI(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `[{"name_value":"api.example.com"}]`)
	src, mock := mockedCrtSh(t, srv.URL)

	mock.ExpectQuery(regexp.QuoteMeta(crtShQuery)).
		WithArgs("%.example.com").
		WillReturnRows(sqlmock.NewRows([]string{"name_value"}).
			AddRow("a.example.com\nb.example.com").
			AddRow("*.example.com").
			AddRow("a.example.com"))
	mock.ExpectClose()

	res := src.Run(context.Background(), "example.com")
	require.NoError(t, res.Err)
	assert.Equal(t, NewSet("a.example.com", "b.example.com", "*.example.com"), res.Subdomains)
	assert.Nil(t, srv.lastURL(), "the API must not be called")
}

func TestCrtSh_QueryFailureFallsBackToAPI(t *testing.T) {
	srv := newRecordingServer(t, http.StatusOK, `[{"name_value":"api.example.com"}]`)
	src, mock := mockedCrtSh(t, srv.URL)

	mock.ExpectQuery(regexp.QuoteMeta(crtShQuery)).
		WithArgs("%.example.com").
		WillReturnError(errors.New("canceling statement due to statement timeout"))
	mock.ExpectClose()

	res := src.Run(context.Background(), "example.com")
	require.NoError(t, res.Err)
	assert.Equal(t, NewSet("api.example.com"), res.Subdomains)
	require.NotNil(t, srv.lastURL(), "the API path was used")
}

func TestCrtSh_QueryDBReportsQueryStage(t *testing.T) {
	src, mock := mockedCrtSh(t, "")
	mock.ExpectQuery(regexp.QuoteMeta(crtShQuery)).WillReturnError(errors.New("relation does not exist"))
	mock.ExpectClose()

	_, err := src.queryDB(context.Background(), "example.com")
	var stageErr *dbStageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "querying the crt.sh database", stageErr.stage)
}

func TestAddNameValue(t *testing.T) {
	set := make(Set)
	addNameValue(set, "a.example.com\nb.example.com\n\na.example.com")
	assert.Equal(t, NewSet("a.example.com", "b.example.com"), set)
}
