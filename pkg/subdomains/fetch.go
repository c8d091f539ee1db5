package subdomains

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/felinux0x/voidenum/internal/utils"
	"github.com/felinux0x/voidenum/pkg/web"
)

// maxBodySize bounds a single API answer. crt.sh answers for large zones
// run to hundreds of megabytes.
var maxBodySize int64 = 1 << 30

var (
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrBodyTooLarge     = errors.New("response body too large")
)

// StatusError is returned for any non-2xx answer.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: %d", ErrUnexpectedStatus, e.Code)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }

// jsonDecodeError marks a body that could not be parsed into the source's shape.
type jsonDecodeError struct {
	err error
}

func (e *jsonDecodeError) Error() string { return e.err.Error() }
func (e *jsonDecodeError) Unwrap() error { return e.err }

// subdomainer is implemented by every source response shape. It reports an
// error when a required field is absent so that a foreign payload (an error
// object, a rate-limit notice) is not mistaken for an empty answer.
type subdomainer interface {
	subdomains() (Set, error)
}

func missingField(name string) error {
	return fmt.Errorf("missing field %q", name)
}

// fetchJSON GETs url, decodes the body into T and flattens it. name only
// shows up in log lines.
func fetchJSON[T subdomainer](ctx context.Context, client *http.Client, url, name string) Result {
	utils.Log(utils.Info, "Searching in the %s API...", name)

	body, err := get(ctx, client, url)
	if err != nil {
		logRequestError(name, err)
		return Result{Source: name, Err: err}
	}
	defer body.Close()

	var shape T
	if err := decodeStrict(&cappedReader{r: body, left: maxBodySize}, &shape); err != nil {
		err = &jsonDecodeError{err: err}
		if errors.Is(err, ErrBodyTooLarge) {
			utils.Log(utils.Error, "The %s API response exceeded %d bytes and was discarded", name, maxBodySize)
		} else {
			logJSONError(name, err)
		}
		return Result{Source: name, Err: err}
	}
	set, err := shape.subdomains()
	if err != nil {
		err = &jsonDecodeError{err: err}
		logJSONError(name, err)
		return Result{Source: name, Err: err}
	}

	utils.Log(utils.Debug, "%s returned %d names", name, len(set))
	return Result{Source: name, Subdomains: set}
}

// decodeStrict decodes exactly one JSON value from r. Anything but
// whitespace after it is an error.
func decodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return err
	}
	var extra json.RawMessage
	switch err := dec.Decode(&extra); {
	case err == io.EOF:
		return nil
	case err != nil:
		return err
	default:
		return errors.New("unexpected data after the JSON value")
	}
}

// cappedReader fails with ErrBodyTooLarge once more than left bytes are read.
type cappedReader struct {
	r    io.Reader
	left int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.left <= 0 {
		var one [1]byte
		if n, err := c.r.Read(one[:]); n == 0 {
			return 0, err
		}
		return 0, ErrBodyTooLarge
	}
	if int64(len(p)) > c.left {
		p = p[:c.left]
	}
	n, err := c.r.Read(p)
	c.left -= int64(n)
	return n, err
}

func get(ctx context.Context, client *http.Client, url string) (io.ReadCloser, error) {
	req, err := web.NewRequest(ctx, url)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode}
	}
	return resp.Body, nil
}

// requestErrorKind classifies a transport failure the way it is reported to the user.
func requestErrorKind(err error) string {
	var statusErr *StatusError
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return "timeout"
	case errors.Is(err, web.ErrTooManyRedirects):
		return "redirect"
	case errors.As(err, &statusErr):
		switch {
		case statusErr.Code >= 500:
			return "server"
		case statusErr.Code >= 400:
			return "client"
		case statusErr.Code >= 300:
			return "redirect"
		}
	}
	return "other"
}

func logRequestError(name string, err error) {
	switch requestErrorKind(err) {
	case "timeout":
		utils.Log(utils.Error, "A timeout error has occurred while processing the request in the %s API. Error description: %v", name, err)
	case "redirect":
		utils.Log(utils.Error, "A redirect was found while processing the %s API. Error description: %v", name, err)
	case "client":
		utils.Log(utils.Error, "A client error has occurred sending the request to the %s API. Error description: %v", name, err)
	case "server":
		utils.Log(utils.Error, "A server error has occurred sending the request to the %s API. Error description: %v", name, err)
	default:
		utils.Log(utils.Error, "An error has occurred while processing the request in the %s API. Error description: %v", name, err)
	}
}

func logJSONError(name string, err error) {
	utils.Log(utils.Error, "An error occurred while parsing the JSON obtained from the %s API. Error description: %v", name, err)
}
