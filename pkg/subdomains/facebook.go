package subdomains

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/samber/lo"
)

const facebookBaseURL = "https://graph.facebook.com"

// FacebookSource queries the Facebook certificate transparency API. When
// Token is empty, one token of FallbackTokens is picked at random per run.
type FacebookSource struct {
	Client         *http.Client
	BaseURL        string
	Token          string
	FallbackTokens []string
}

type facebookResponse struct {
	Data []struct {
		Domains []string `json:"domains"`
	} `json:"data"`
}

func (r facebookResponse) subdomains() (Set, error) {
	if r.Data == nil {
		return nil, missingField("data")
	}
	set := make(Set)
	for _, cert := range r.Data {
		for _, d := range cert.Domains {
			set.Add(d)
		}
	}
	return set, nil
}

func (s *FacebookSource) Name() string {
	return "Facebook"
}

func (s *FacebookSource) token() string {
	if s.Token != "" {
		return s.Token
	}
	return lo.Sample(s.FallbackTokens)
}

func (s *FacebookSource) Run(ctx context.Context, domain string) Result {
	u := fmt.Sprintf("%s/certificates?query=%s&fields=domains&limit=10000&access_token=%s",
		baseURL(s.BaseURL, facebookBaseURL), url.QueryEscape(domain), url.QueryEscape(s.token()))
	return fetchJSON[facebookResponse](ctx, s.Client, u, s.Name())
}
