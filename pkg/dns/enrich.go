package dns

import (
	"context"
	"sync"
)

const defaultWorkers = 20

// ResolveAll looks up every host with at most workers lookups in flight.
// ips[i] belongs to hosts[i] and is NoIPFound when the lookup failed.
func (r *Resolver) ResolveAll(ctx context.Context, hosts []string, workers int) []string {
	if workers <= 0 {
		workers = defaultWorkers
	}
	ips := make([]string, len(hosts))

	var wg sync.WaitGroup
	// Throttle DNS requests
	sem := make(chan struct{}, workers)

	for i, host := range hosts {
		wg.Add(1)
		go func(i int, h string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				ips[i] = NoIPFound
				return
			}
			defer func() { <-sem }()

			ips[i] = r.IPOrSentinel(ctx, h)
		}(i, host)
	}

	wg.Wait()
	return ips
}
