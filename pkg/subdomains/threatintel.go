package subdomains

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	spyseBaseURL       = "https://api.spyse.com"
	bufferOverBaseURL  = "http://dns.bufferover.run"
	threatCrowdBaseURL = "https://threatcrowd.org"
	sublist3rBaseURL   = "https://api.sublist3r.com"
)

type SpyseSource struct {
	Client  *http.Client
	BaseURL string
	Token   string
}

type spyseResponse struct {
	Records []struct {
		Domain string `json:"domain"`
	} `json:"records"`
}

func (r spyseResponse) subdomains() (Set, error) {
	if r.Records == nil {
		return nil, missingField("records")
	}
	set := make(Set, len(r.Records))
	for _, rec := range r.Records {
		set.Add(rec.Domain)
	}
	return set, nil
}

func (s *SpyseSource) Name() string {
	return "Spyse"
}

func (s *SpyseSource) Run(ctx context.Context, domain string) Result {
	u := fmt.Sprintf("%s/v1/subdomains?domain=%s&api_token=%s",
		baseURL(s.BaseURL, spyseBaseURL), url.QueryEscape(domain), url.QueryEscape(s.Token))
	return fetchJSON[spyseResponse](ctx, s.Client, u, s.Name())
}

type BufferOverSource struct {
	Client  *http.Client
	BaseURL string
}

// Each FDNS_A entry is "ip,name". Both halves go into the set; the IP is
// dropped later by the suffix filter.
type bufferOverResponse struct {
	FDNSA []string `json:"FDNS_A"`
}

func (r bufferOverResponse) subdomains() (Set, error) {
	if r.FDNSA == nil {
		return nil, missingField("FDNS_A")
	}
	set := make(Set)
	for _, entry := range r.FDNSA {
		for _, part := range strings.Split(entry, ",") {
			set.Add(part)
		}
	}
	return set, nil
}

func (s *BufferOverSource) Name() string {
	return "Bufferover"
}

func (s *BufferOverSource) Run(ctx context.Context, domain string) Result {
	u := fmt.Sprintf("%s/dns?q=%s", baseURL(s.BaseURL, bufferOverBaseURL), url.QueryEscape(domain))
	return fetchJSON[bufferOverResponse](ctx, s.Client, u, s.Name())
}

type ThreatCrowdSource struct {
	Client  *http.Client
	BaseURL string
}

type threatCrowdResponse struct {
	Subdomains []string `json:"subdomains"`
}

func (r threatCrowdResponse) subdomains() (Set, error) {
	if r.Subdomains == nil {
		return nil, missingField("subdomains")
	}
	return NewSet(r.Subdomains...), nil
}

func (s *ThreatCrowdSource) Name() string {
	return "Threatcrowd"
}

func (s *ThreatCrowdSource) Run(ctx context.Context, domain string) Result {
	u := fmt.Sprintf("%s/searchApi/v2/domain/report/?domain=%s", baseURL(s.BaseURL, threatCrowdBaseURL), url.QueryEscape(domain))
	return fetchJSON[threatCrowdResponse](ctx, s.Client, u, s.Name())
}

type Sublist3rSource struct {
	Client  *http.Client
	BaseURL string
}

// The API answers with a bare array of names.
type sublist3rResponse []string

func (r sublist3rResponse) subdomains() (Set, error) {
	if r == nil {
		return nil, missingField("subdomains")
	}
	return NewSet(r...), nil
}

func (s *Sublist3rSource) Name() string {
	return "Sublist3r"
}

func (s *Sublist3rSource) Run(ctx context.Context, domain string) Result {
	u := fmt.Sprintf("%s/search.php?domain=%s", baseURL(s.BaseURL, sublist3rBaseURL), url.QueryEscape(domain))
	return fetchJSON[sublist3rResponse](ctx, s.Client, u, s.Name())
}
