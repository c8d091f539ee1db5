package subdomains

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/felinux0x/voidenum/internal/utils"
	"github.com/felinux0x/voidenum/pkg/config"
)

type Runner struct {
	Sources []Source
}

// NewRunner wires the nine passive sources to one shared client.
func NewRunner(client *http.Client, cfg *config.Config) *Runner {
	return &Runner{
		Sources: []Source{
			&CertSpotterSource{Client: client},
			&CrtShSource{Client: client, DSN: cfg.CrtShDSN, Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
			&VirusTotalSource{Client: client},
			&Sublist3rSource{Client: client},
			&FacebookSource{Client: client, Token: cfg.FacebookToken, FallbackTokens: cfg.FacebookTokens},
			&SpyseSource{Client: client, Token: cfg.SpyseToken},
			&BufferOverSource{Client: client},
			&ThreatCrowdSource{Client: client},
			&VirusTotalKeySource{Client: client, APIKey: cfg.VirusTotalToken},
		},
	}
}

// Run starts one goroutine per source and waits for all of them. The
// returned slice is in source order; failed sources keep their slot.
func (r *Runner) Run(ctx context.Context, domain string) []Result {
	results := make([]Result, len(r.Sources))

	var wg sync.WaitGroup
	for i, source := range r.Sources {
		wg.Add(1)
		go func(i int, s Source) {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					utils.Log(utils.Error, "The %s source crashed: %v", s.Name(), p)
					results[i] = Result{Source: s.Name(), Err: fmt.Errorf("source panicked: %v", p)}
				}
			}()
			results[i] = s.Run(ctx, domain)
		}(i, source)
	}
	wg.Wait()

	return results
}
