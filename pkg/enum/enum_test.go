package enum

import (
	"bytes"
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"testing"

	mdns "github.com/miekg/dns"
	"github.com/phayes/freeport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felinux0x/voidenum/pkg/dns"
	"github.com/felinux0x/voidenum/pkg/subdomains"
)

type staticSource struct {
	name  string
	names func(domain string) []string
	err   error
}

func (s *staticSource) Name() string { return s.name }

func (s *staticSource) Run(ctx context.Context, domain string) subdomains.Result {
	if s.err != nil {
		return subdomains.Result{Source: s.name, Err: s.err}
	}
	return subdomains.Result{Source: s.name, Subdomains: subdomains.NewSet(s.names(domain)...)}
}

func fixed(names ...string) func(string) []string {
	return func(string) []string { return names }
}

// chdir moves into a fresh temp dir for the duration of the test.
func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(prev) })
	return dir
}

func newTestEnumerator(out *bytes.Buffer, sources ...subdomains.Source) *Enumerator {
	e := New(&subdomains.Runner{Sources: sources})
	e.Out = out
	e.NewResolver = func() (*dns.Resolver, error) { return nil, errors.New("resolver not expected") }
	return e
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	sort.Strings(lines)
	return lines
}

func TestRun_EndToEnd(t *testing.T) {
	dir := chdir(t)
	var out bytes.Buffer
	e := newTestEnumerator(&out,
		&staticSource{name: "one", names: fixed("a.findomain.example")},
		&staticSource{name: "two", names: fixed("b.findomain.example", "*.findomain.example")},
	)

	err := e.Run(context.Background(), "findomain.example", Options{WithOutput: true, FileName: "out.txt"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.findomain.example", "b.findomain.example"}, readLines(t, filepath.Join(dir, "out.txt")))
	console := out.String()
	assert.Contains(t, console, "a.findomain.example\n")
	assert.Contains(t, console, "b.findomain.example\n")
	assert.Contains(t, console, "A total of 2 subdomains")
	assert.NotContains(t, console, "*.findomain.example")
}

func TestRun_FailedSourcesDoNotAbort(t *testing.T) {
	chdir(t)
	var out bytes.Buffer
	e := newTestEnumerator(&out,
		&staticSource{name: "down", err: errors.New("503")},
		&staticSource{name: "up", names: fixed("a.example.com", "a.example.com", "example.com")},
	)

	require.NoError(t, e.Run(context.Background(), "https://www.example.com/", Options{}))
	assert.Equal(t, "a.example.com\n\nA total of 1 subdomains were found for ==> example.com\n", out.String())
}

func TestRun_NoResults(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "out.txt"), []byte("prior\n"), 0644))
	var out bytes.Buffer
	e := newTestEnumerator(&out, &staticSource{name: "noise", names: fixed("x.other.org", "*.example.com")})

	require.NoError(t, e.Run(context.Background(), "example.com", Options{WithOutput: true, FileName: "out.txt"}))
	assert.Empty(t, out.String())

	data, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	require.NoError(t, err)
	assert.Equal(t, "prior\n", string(data), "an empty run leaves the previous file alone")
}

func TestRun_BacksUpPreviousOutput(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "target.txt"), []byte("old.example.com\nolder.example.com\n"), 0644))
	var out bytes.Buffer
	e := newTestEnumerator(&out, &staticSource{name: "one", names: fixed("new.example.com")})

	require.NoError(t, e.Run(context.Background(), "example.com", Options{WithOutput: true, FileName: "target.txt"}))

	prior, err := os.ReadFile(filepath.Join(dir, "target.old.txt"))
	require.NoError(t, err)
	assert.Equal(t, "old.example.com\nolder.example.com\n", string(prior))
	current, err := os.ReadFile(filepath.Join(dir, "target.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new.example.com\n", string(current))
}

func TestRun_BackupFailureIsFatal(t *testing.T) {
	dir := chdir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "target.txt"), []byte("x\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "target.old.txt", "keep"), 0755))
	var out bytes.Buffer
	e := newTestEnumerator(&out, &staticSource{name: "one", names: fixed("a.example.com")})

	err := e.Run(context.Background(), "example.com", Options{WithOutput: true, FileName: "target.txt"})
	require.Error(t, err)
	assert.Empty(t, out.String())
}

func startMockDNSServer(t *testing.T, records map[string]string) int {
	t.Helper()
	port, err := freeport.GetFreePort()
	require.NoError(t, err)

	started := make(chan struct{})
	server := &mdns.Server{
		Addr: "127.0.0.1:" + strconv.Itoa(port),
		Net:  "udp",
		Handler: mdns.HandlerFunc(func(w mdns.ResponseWriter, r *mdns.Msg) {
			msg := new(mdns.Msg)
			msg.SetReply(r)
			if ip, ok := records[r.Question[0].Name]; ok {
				msg.Answer = append(msg.Answer, &mdns.A{
					Hdr: mdns.RR_Header{Name: r.Question[0].Name, Rrtype: mdns.TypeA, Class: mdns.ClassINET, Ttl: 60},
					A:   net.ParseIP(ip),
				})
			} else {
				msg.SetRcode(r, mdns.RcodeNameError)
			}
			w.WriteMsg(msg)
		}),
		NotifyStartedFunc: func() { close(started) },
	}
	go server.ListenAndServe()
	<-started
	t.Cleanup(func() { server.Shutdown() })
	return port
}

func TestRun_WithIP(t *testing.T) {
	dir := chdir(t)
	port := startMockDNSServer(t, map[string]string{"a.example.com.": "192.0.2.7"})

	var out bytes.Buffer
	e := newTestEnumerator(&out, &staticSource{name: "one", names: fixed("a.example.com", "gone.example.com")})
	calls := 0
	e.NewResolver = func() (*dns.Resolver, error) {
		calls++
		return dns.New(
			dns.Candidate{Name: "system", Load: func() (*mdns.ClientConfig, error) { return nil, errors.New("no resolv.conf") }},
			dns.Candidate{Name: "mock", Load: func() (*mdns.ClientConfig, error) {
				return &mdns.ClientConfig{Servers: []string{"127.0.0.1"}, Port: strconv.Itoa(port), Timeout: 2, Attempts: 1}, nil
			}},
		)
	}

	opts := Options{WithIP: true, WithOutput: true, FileName: "ips.txt"}
	require.NoError(t, e.Run(context.Background(), "example.com", opts))
	require.NoError(t, e.Run(context.Background(), "example.com", opts))
	assert.Equal(t, 1, calls, "the resolver is selected once")

	assert.Equal(t, []string{"a.example.com,192.0.2.7", "gone.example.com," + dns.NoIPFound}, readLines(t, filepath.Join(dir, "ips.txt")))
	assert.Contains(t, out.String(), "a.example.com,192.0.2.7\n")
}

func TestRun_ResolverUnavailable(t *testing.T) {
	chdir(t)
	var out bytes.Buffer
	e := newTestEnumerator(&out, &staticSource{name: "one", names: fixed("a.example.com")})
	e.NewResolver = func() (*dns.Resolver, error) { return dns.New() }

	err := e.Run(context.Background(), "example.com", Options{WithIP: true})
	assert.ErrorIs(t, err, dns.ErrNoResolver)
}

func TestRunFile_SequentialAndContinuesAfterFailure(t *testing.T) {
	dir := chdir(t)
	list := filepath.Join(dir, "targets.txt")
	require.NoError(t, os.WriteFile(list, []byte("alpha.test\n\nbeta.test\ngamma.test\n"), 0644))

	// beta.test can't be backed up.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "beta.test.txt"), []byte("x\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "beta.test.old.txt", "keep"), 0755))

	var out bytes.Buffer
	e := newTestEnumerator(&out, &staticSource{name: "echo", names: func(d string) []string { return []string{"www2." + d} }})

	err := e.RunFile(context.Background(), list, Options{WithOutput: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "beta.test")

	assert.Equal(t, []string{"www2.alpha.test"}, readLines(t, filepath.Join(dir, "alpha.test.txt")))
	assert.Equal(t, []string{"www2.gamma.test"}, readLines(t, filepath.Join(dir, "gamma.test.txt")))

	console := out.String()
	assert.Less(t, strings.Index(console, "www2.alpha.test"), strings.Index(console, "www2.gamma.test"))
}

func TestRunFile_MissingList(t *testing.T) {
	var out bytes.Buffer
	e := newTestEnumerator(&out)
	err := e.RunFile(context.Background(), filepath.Join(t.TempDir(), "nope.txt"), Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRun_InvalidTarget(t *testing.T) {
	var out bytes.Buffer
	e := newTestEnumerator(&out)
	assert.Error(t, e.Run(context.Background(), "https:///", Options{}))
}
