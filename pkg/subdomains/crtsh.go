package subdomains

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/felinux0x/voidenum/internal/utils"
)

const (
	crtShBaseURL = "https://crt.sh"
	crtShQuery   = `SELECT ci.NAME_VALUE NAME_VALUE FROM certificate_identity ci WHERE ci.NAME_TYPE = 'dNSName' AND reverse(lower(ci.NAME_VALUE)) LIKE reverse(lower($1))`
)

var errNoDSN = errors.New("no database configured")

// CrtShSource asks the public certwatch Postgres mirror first and falls back
// to the JSON API when the database can't be reached or queried.
type CrtShSource struct {
	Client  *http.Client
	BaseURL string
	DSN     string
	Timeout time.Duration

	// open defaults to the lib/pq driver.
	open func(dsn string) (*sql.DB, error)
}

type crtShEntry struct {
	NameValue string `json:"name_value"`
}

type crtShResponse []crtShEntry

func (r crtShResponse) subdomains() (Set, error) {
	if r == nil {
		return nil, missingField("certificates")
	}
	set := make(Set)
	for _, entry := range r {
		addNameValue(set, entry.NameValue)
	}
	return set, nil
}

// name_value holds every SAN of a certificate, one per line.
func addNameValue(set Set, nameValue string) {
	for _, name := range strings.Split(nameValue, "\n") {
		if name != "" {
			set.Add(name)
		}
	}
}

func (s *CrtShSource) Name() string {
	return "crt.sh"
}

func (s *CrtShSource) Run(ctx context.Context, domain string) Result {
	set, err := s.queryDB(ctx, domain)
	if err == nil {
		utils.Log(utils.Debug, "%s database returned %d names", s.Name(), len(set))
		return Result{Source: s.Name(), Subdomains: set}
	}
	if !errors.Is(err, errNoDSN) {
		utils.Log(utils.Warning, "An error has occurred while %s. Trying the API method...", describeDBError(err))
	}

	u := fmt.Sprintf("%s/?q=%s&output=json", baseURL(s.BaseURL, crtShBaseURL), url.QueryEscape("%."+domain))
	return fetchJSON[crtShResponse](ctx, s.Client, u, s.Name())
}

type dbStageError struct {
	stage string
	err   error
}

func (e *dbStageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *dbStageError) Unwrap() error { return e.err }

func (s *CrtShSource) queryDB(ctx context.Context, domain string) (Set, error) {
	if s.DSN == "" {
		return nil, errNoDSN
	}
	utils.Log(utils.Info, "Searching in the %s database...", s.Name())

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	open := s.open
	if open == nil {
		open = openPostgres
	}
	db, err := open(s.DSN)
	if err != nil {
		return nil, &dbStageError{stage: "connecting to the crt.sh database", err: err}
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return nil, &dbStageError{stage: "connecting to the crt.sh database", err: err}
	}

	rows, err := db.QueryContext(ctx, crtShQuery, "%."+domain)
	if err != nil {
		return nil, &dbStageError{stage: "querying the crt.sh database", err: err}
	}
	defer rows.Close()

	set := make(Set)
	for rows.Next() {
		var nameValue string
		if err := rows.Scan(&nameValue); err != nil {
			return nil, &dbStageError{stage: "reading crt.sh database rows", err: err}
		}
		addNameValue(set, nameValue)
	}
	if err := rows.Err(); err != nil {
		return nil, &dbStageError{stage: "reading crt.sh database rows", err: err}
	}
	return set, nil
}

func openPostgres(dsn string) (*sql.DB, error) {
	return sql.Open("postgres", dsn)
}

func describeDBError(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fmt.Sprintf("%v (postgres %s)", err, pqErr.Code.Name())
	}
	return err.Error()
}
