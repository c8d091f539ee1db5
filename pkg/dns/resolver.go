package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	mdns "github.com/miekg/dns"

	"github.com/felinux0x/voidenum/internal/utils"
)

// NoIPFound replaces the address of any name that could not be resolved.
const NoIPFound = "no IP address found"

var (
	ErrNoAnswer   = errors.New("no A record in answer")
	ErrNoResolver = errors.New("no resolver configuration available")
)

// Candidate is one entry of the resolver fallback chain.
type Candidate struct {
	Name string
	Load func() (*mdns.ClientConfig, error)
}

// SystemCandidate reads nameservers from a resolv.conf style file.
func SystemCandidate(path string) Candidate {
	return Candidate{
		Name: "system",
		Load: func() (*mdns.ClientConfig, error) {
			cfg, err := mdns.ClientConfigFromFile(path)
			if err != nil {
				return nil, err
			}
			if len(cfg.Servers) == 0 {
				return nil, fmt.Errorf("%s lists no nameservers", path)
			}
			return cfg, nil
		},
	}
}

// StaticCandidate always loads: a fixed list of servers on port 53.
func StaticCandidate(name string, servers ...string) Candidate {
	return Candidate{
		Name: name,
		Load: func() (*mdns.ClientConfig, error) {
			return &mdns.ClientConfig{
				Servers:  servers,
				Port:     "53",
				Ndots:    1,
				Timeout:  5,
				Attempts: 2,
			}, nil
		},
	}
}

// DefaultChain is tried in order: system, Quad9, Cloudflare, Google.
func DefaultChain() []Candidate {
	return []Candidate{
		SystemCandidate("/etc/resolv.conf"),
		StaticCandidate("quad9", "9.9.9.9", "149.112.112.112"),
		StaticCandidate("cloudflare", "1.1.1.1", "1.0.0.1"),
		StaticCandidate("default", "8.8.8.8", "8.8.4.4"),
	}
}

type Resolver struct {
	Name   string
	config *mdns.ClientConfig
	client *mdns.Client
}

// New returns a resolver for the first candidate that loads.
func New(chain ...Candidate) (*Resolver, error) {
	var errs []error
	for _, c := range chain {
		cfg, err := c.Load()
		if err != nil {
			utils.Log(utils.Debug, "Resolver %s unavailable: %v", c.Name, err)
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
			continue
		}
		timeout := time.Duration(cfg.Timeout) * time.Second
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		utils.Log(utils.Debug, "Using the %s resolver %v", c.Name, cfg.Servers)
		return &Resolver{
			Name:   c.Name,
			config: cfg,
			client: &mdns.Client{Net: "udp", Timeout: timeout},
		}, nil
	}
	if len(errs) == 0 {
		return nil, ErrNoResolver
	}
	return nil, fmt.Errorf("%w: %w", ErrNoResolver, errors.Join(errs...))
}

func NewDefault() (*Resolver, error) {
	return New(DefaultChain()...)
}

func (r *Resolver) servers() []string {
	port := r.config.Port
	if port == "" {
		port = "53"
	}
	servers := make([]string, 0, len(r.config.Servers))
	for _, s := range r.config.Servers {
		servers = append(servers, net.JoinHostPort(s, port))
	}
	return servers
}

// LookupIP returns the first A record for host. ErrNoAnswer means the
// servers answered but had no address; any other error is a transport failure.
func (r *Resolver) LookupIP(ctx context.Context, host string) (net.IP, error) {
	msg := new(mdns.Msg)
	msg.SetQuestion(mdns.Fqdn(host), mdns.TypeA)
	msg.RecursionDesired = true

	attempts := r.config.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		for _, server := range r.servers() {
			in, _, err := r.client.ExchangeContext(ctx, msg, server)
			if err != nil {
				lastErr = err
				continue
			}
			switch in.Rcode {
			case mdns.RcodeSuccess:
			case mdns.RcodeNameError:
				return nil, fmt.Errorf("%s: NXDOMAIN: %w", host, ErrNoAnswer)
			default:
				lastErr = fmt.Errorf("%s: %s from %s", host, mdns.RcodeToString[in.Rcode], server)
				continue
			}
			for _, rr := range in.Answer {
				if a, ok := rr.(*mdns.A); ok {
					return a.A, nil
				}
			}
			return nil, fmt.Errorf("%s: %w", host, ErrNoAnswer)
		}
		if ctx.Err() != nil {
			break
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%s: no servers configured", host)
	}
	return nil, lastErr
}

// IPOrSentinel never fails: every lookup error becomes NoIPFound.
func (r *Resolver) IPOrSentinel(ctx context.Context, host string) string {
	ip, err := r.LookupIP(ctx, host)
	if err != nil {
		utils.Log(utils.Debug, "Lookup of %s failed: %v", host, err)
		return NoIPFound
	}
	return ip.String()
}
