package subdomains

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const certSpotterBaseURL = "https://api.certspotter.com"

type CertSpotterSource struct {
	Client  *http.Client
	BaseURL string
}

type certSpotterIssuance struct {
	DNSNames []string `json:"dns_names"`
}

type certSpotterResponse []certSpotterIssuance

func (r certSpotterResponse) subdomains() (Set, error) {
	if r == nil {
		return nil, missingField("issuances")
	}
	set := make(Set)
	for _, issuance := range r {
		for _, name := range issuance.DNSNames {
			set.Add(name)
		}
	}
	return set, nil
}

func (s *CertSpotterSource) Name() string {
	return "CertSpotter"
}

func (s *CertSpotterSource) Run(ctx context.Context, domain string) Result {
	u := fmt.Sprintf("%s/v1/issuances?domain=%s&include_subdomains=true&expand=dns_names",
		baseURL(s.BaseURL, certSpotterBaseURL), url.QueryEscape(domain))
	return fetchJSON[certSpotterResponse](ctx, s.Client, u, s.Name())
}

func baseURL(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}
