package subdomains

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/felinux0x/voidenum/internal/utils"
)

const virusTotalBaseURL = "https://www.virustotal.com"

// VirusTotalSource uses the unauthenticated endpoint behind the web UI.
type VirusTotalSource struct {
	Client  *http.Client
	BaseURL string
}

type virusTotalResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

func (r virusTotalResponse) subdomains() (Set, error) {
	if r.Data == nil {
		return nil, missingField("data")
	}
	set := make(Set, len(r.Data))
	for _, d := range r.Data {
		set.Add(d.ID)
	}
	return set, nil
}

func (s *VirusTotalSource) Name() string {
	return "Virustotal"
}

func (s *VirusTotalSource) Run(ctx context.Context, domain string) Result {
	u := fmt.Sprintf("%s/ui/domains/%s/subdomains?limit=40", baseURL(s.BaseURL, virusTotalBaseURL), url.PathEscape(domain))
	return fetchJSON[virusTotalResponse](ctx, s.Client, u, s.Name())
}

// VirusTotalKeySource queries the v2 domain report. Without an API key it is
// a no-op that reports ErrNoCredential.
type VirusTotalKeySource struct {
	Client  *http.Client
	BaseURL string
	APIKey  string
}

type virusTotalReport struct {
	Subdomains []string `json:"subdomains"`
}

func (r virusTotalReport) subdomains() (Set, error) {
	if r.Subdomains == nil {
		return nil, missingField("subdomains")
	}
	return NewSet(r.Subdomains...), nil
}

func (s *VirusTotalKeySource) Name() string {
	return "Virustotal API using apikey"
}

func (s *VirusTotalKeySource) Run(ctx context.Context, domain string) Result {
	if s.APIKey == "" {
		utils.Log(utils.Debug, "Skipping %s: no API key configured", s.Name())
		return Result{Source: s.Name(), Err: ErrNoCredential}
	}
	u := fmt.Sprintf("%s/vtapi/v2/domain/report?apikey=%s&domain=%s",
		baseURL(s.BaseURL, virusTotalBaseURL), url.QueryEscape(s.APIKey), url.QueryEscape(domain))
	return fetchJSON[virusTotalReport](ctx, s.Client, u, s.Name())
}
