package web

import (
	"fmt"
	"net/http"
	"net/url"
)

// configureProxy routes transport through proxyAddr. An empty address keeps
// the environment proxy settings (HTTP_PROXY and friends).
func configureProxy(proxyAddr string, transport *http.Transport) error {
	if proxyAddr == "" {
		transport.Proxy = http.ProxyFromEnvironment
		return nil
	}

	proxyURL, err := url.Parse(proxyAddr)
	if err != nil {
		return fmt.Errorf("invalid proxy URL %q: %w", proxyAddr, err)
	}
	switch proxyURL.Scheme {
	case "http", "https", "socks5":
	default:
		return fmt.Errorf("invalid proxy URL %q: unsupported scheme %q", proxyAddr, proxyURL.Scheme)
	}
	if proxyURL.Host == "" {
		return fmt.Errorf("invalid proxy URL %q: missing host", proxyAddr)
	}

	transport.Proxy = http.ProxyURL(proxyURL)
	return nil
}
