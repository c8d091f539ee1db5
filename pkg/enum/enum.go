package enum

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/felinux0x/voidenum/internal/utils"
	"github.com/felinux0x/voidenum/pkg/dns"
	"github.com/felinux0x/voidenum/pkg/report"
	"github.com/felinux0x/voidenum/pkg/subdomains"
)

type Options struct {
	WithIP     bool
	WithOutput bool
	FileName   string
}

// Enumerator runs the whole pipeline for one target at a time.
type Enumerator struct {
	Runner *subdomains.Runner
	// NewResolver is called at most once, the first time IPs are needed.
	NewResolver func() (*dns.Resolver, error)
	// Out receives result lines and the final summary.
	Out io.Writer

	resolver *dns.Resolver
}

func New(runner *subdomains.Runner) *Enumerator {
	return &Enumerator{
		Runner:      runner,
		NewResolver: dns.NewDefault,
		Out:         os.Stdout,
	}
}

func (e *Enumerator) getResolver() (*dns.Resolver, error) {
	if e.resolver != nil {
		return e.resolver, nil
	}
	r, err := e.NewResolver()
	if err != nil {
		return nil, err
	}
	e.resolver = r
	return r, nil
}

// Run discovers the subdomains of rawTarget and prints them, optionally with
// their IP and into opts.FileName. Source failures only shrink the result;
// the returned error is for resolver and file problems.
func (e *Enumerator) Run(ctx context.Context, rawTarget string, opts Options) error {
	target := subdomains.NormalizeTarget(rawTarget)
	if target == "" {
		return fmt.Errorf("invalid target %q", rawTarget)
	}
	utils.Log(utils.Info, "Target ==> %s", target)

	results := e.Runner.Run(ctx, target)
	found := subdomains.Filter(subdomains.Merge(results), target)
	if len(found) == 0 {
		utils.Log(utils.Warning, "No subdomains were found for the target: %s", target)
		return nil
	}

	var ips []string
	if opts.WithIP {
		resolver, err := e.getResolver()
		if err != nil {
			return fmt.Errorf("can't build a DNS resolver: %w", err)
		}
		ips = resolver.ResolveAll(ctx, found, 0)
	}

	var w *report.Writer
	if opts.WithOutput {
		if err := report.BackupExisting(opts.FileName); err != nil {
			return err
		}
		w = report.NewWriter(opts.FileName)
	}

	if err := e.emit(found, ips, opts.WithIP, w); err != nil {
		if w != nil {
			w.Close()
		}
		return err
	}
	if w != nil {
		if err := w.Close(); err != nil {
			return fmt.Errorf("can't close file %s: %w", w.Path(), err)
		}
	}

	fmt.Fprintf(e.Out, "\nA total of %d subdomains were found for ==> %s\n", len(found), target)
	if w != nil {
		utils.Log(utils.Success, "Results for %s were saved in: ./%s", target, w.Path())
	}
	return nil
}

func (e *Enumerator) emit(found, ips []string, withIP bool, w *report.Writer) error {
	for i, sub := range found {
		ip := ""
		if withIP {
			ip = ips[i]
		}
		line := report.Line(sub, ip, withIP)
		if w != nil {
			if err := w.WriteLine(line); err != nil {
				return err
			}
		}
		fmt.Fprintln(e.Out, line)
	}
	return nil
}

// RunFile runs every target listed in path, one after another. Each target
// writes to "<line>.txt". A failing target is reported and the next one runs;
// all failures come back joined.
func (e *Enumerator) RunFile(ctx context.Context, path string, opts Options) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("can't open file %s: %w", path, err)
	}
	defer f.Close()

	var errs []error
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		targetOpts := opts
		targetOpts.FileName = line + ".txt"
		if err := e.Run(ctx, line, targetOpts); err != nil {
			utils.Log(utils.Error, "Target %s failed: %v", line, err)
			errs = append(errs, fmt.Errorf("target %s: %w", line, err))
		}
	}
	if err := scanner.Err(); err != nil {
		errs = append(errs, fmt.Errorf("can't read file %s: %w", path, err))
	}
	return errors.Join(errs...)
}
