package adapters

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
	"github.com/rs/zerolog/log"

	"streamlit-packager/internal/ports"
	"streamlit-packager/internal/shared"
	"streamlit-packager/internal/types"
)

const DefaultPipIndexURL = "https://pypi.org/simple"

const defaultPipWorkers = 4
const defaultHTTPTimeout = 60 * time.Second
const defaultHTTPRetries = 3
const defaultHTTPRetryDelay = 200 * time.Millisecond
const maxHTTPRetryDelay = 2 * time.Second

var (
	simpleHref    = regexp.MustCompile(`href=["']([^"']+)["']`)
	wheelFilename = regexp.MustCompile(`^(.+?)-([0-9][^-]*)(?:-[^-]+)?-[^-]+-[^-]+-[^-]+\.whl$`)
	sdistFilename = regexp.MustCompile(`^(.+?)-([0-9][^-]*)\.(?:tar\.gz|zip|tar\.bz2|tar\.xz|tgz)$`)
)

type httpRetryConfig struct {
	timeout   time.Duration
	retries   int
	baseDelay time.Duration
}

func normalizeHTTPConfig(timeoutSec int, retries int, delayMs int) httpRetryConfig {
	timeout := time.Duration(timeoutSec) * time.Second
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	retryCount := retries
	if retryCount <= 0 {
		retryCount = defaultHTTPRetries
	}
	baseDelay := time.Duration(delayMs) * time.Millisecond
	if baseDelay <= 0 {
		baseDelay = defaultHTTPRetryDelay
	}
	return httpRetryConfig{
		timeout:   timeout,
		retries:   retryCount,
		baseDelay: baseDelay,
	}
}

type PipIndexConfig struct {
	URL string
	// ExtraURLs are queried after URL and their versions merged in, like
	// pip --extra-index-url.
	ExtraURLs        []string
	User             string
	APIKey           string
	HTTPTimeoutSec   int
	HTTPRetries      int
	HTTPRetryDelayMs int
}

// PipIndexAdapter reads package versions from a PEP 503 simple index.
// Answers are cached for the adapter's lifetime.
type PipIndexAdapter struct {
	base   string
	extras []string
	user   string
	apiKey string
	http   httpRetryConfig

	mu    sync.Mutex
	cache map[string][]string
}

func NewPipIndexAdapter(cfg PipIndexConfig) *PipIndexAdapter {
	base := cfg.URL
	if strings.TrimSpace(base) == "" {
		base = DefaultPipIndexURL
	}
	var extras []string
	for _, extra := range cfg.ExtraURLs {
		if strings.TrimSpace(extra) == "" {
			continue
		}
		extras = append(extras, normalizePipSimpleIndex(extra))
	}
	return &PipIndexAdapter{
		base:   normalizePipSimpleIndex(base),
		extras: uniqueStrings(extras),
		user:   cfg.User,
		apiKey: cfg.APIKey,
		http:   normalizeHTTPConfig(cfg.HTTPTimeoutSec, cfg.HTTPRetries, cfg.HTTPRetryDelayMs),
		cache:  map[string][]string{},
	}
}

func (a *PipIndexAdapter) AvailableVersions(ctx context.Context, depType types.DependencyType, name string) ([]string, error) {
	if depType != types.DependencyTypePip {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("pip index cannot list %s packages", depType))
	}
	name = shared.NormalizePipName(name)
	a.mu.Lock()
	cached, ok := a.cache[name]
	a.mu.Unlock()
	if ok {
		return cached, nil
	}
	versions, err := fetchPipPackageVersions(ctx, a.base, name, a.user, a.apiKey, a.http)
	if err != nil {
		return nil, err
	}
	if len(a.extras) > 0 {
		merged := map[string]struct{}{}
		for _, v := range versions {
			merged[v] = struct{}{}
		}
		for _, extra := range a.extras {
			more, err := fetchPipPackageVersions(ctx, extra, name, a.user, a.apiKey, a.http)
			if err != nil {
				return nil, err
			}
			for _, v := range more {
				merged[v] = struct{}{}
			}
		}
		versions = sortPep440Versions(mapKeys(merged))
	}
	a.mu.Lock()
	a.cache[name] = versions
	a.mu.Unlock()
	return versions, nil
}

// Snapshot fetches the versions of every named package into a repo index
// that can later be used offline. Unknown packages are left out.
func (a *PipIndexAdapter) Snapshot(ctx context.Context, names []string, workerCount int) (types.RepoIndexFile, error) {
	names = uniqueStrings(normalizePipNames(names))
	index := types.RepoIndexFile{Pip: map[string][]string{}}
	if len(names) == 0 {
		return index, nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if workerCount <= 0 {
		workerCount = defaultPipWorkers
	}
	if len(names) < workerCount {
		workerCount = len(names)
	}
	type pipResult struct {
		name     string
		versions []string
		err      error
	}
	tasks := make(chan string)
	results := make(chan pipResult, len(names))
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range tasks {
				if ctx.Err() != nil {
					results <- pipResult{name: name, err: ctx.Err()}
					continue
				}
				versions, err := a.AvailableVersions(ctx, types.DependencyTypePip, name)
				results <- pipResult{name: name, versions: versions, err: err}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()
	for _, name := range names {
		if ctx.Err() != nil {
			break
		}
		tasks <- name
	}
	close(tasks)

	var firstErr error
	for result := range results {
		if result.err != nil && firstErr == nil {
			firstErr = result.err
			cancel()
		}
		if result.err == nil && len(result.versions) > 0 {
			index.Pip[result.name] = result.versions
		}
	}
	if firstErr != nil {
		return types.RepoIndexFile{}, firstErr
	}
	log.Ctx(ctx).Debug().Int("packages", len(index.Pip)).Msg("pip index snapshot complete")
	return index, nil
}

func fetchPipPackageVersions(ctx context.Context, simpleBase string, name string, user string, apiKey string, httpCfg httpRetryConfig) ([]string, error) {
	url := strings.TrimRight(simpleBase, "/") + "/" + name + "/"
	resp, err := doRequest(ctx, url, user, apiKey, httpCfg)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to fetch pip package").
			WithCause(shared.HTTPStatusError(resp.StatusCode, url))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read pip package index").
			WithCause(err)
	}
	versions := parsePipVersionsFromSimple(string(body))
	return sortPep440Versions(versions), nil
}

func normalizePipSimpleIndex(base string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if strings.HasSuffix(trimmed, "/simple") {
		return trimmed + "/"
	}
	return trimmed + "/simple/"
}

func parsePipVersionsFromSimple(content string) []string {
	matches := simpleHref.FindAllStringSubmatch(content, -1)
	versions := map[string]struct{}{}
	for _, match := range matches {
		raw := strings.Split(match[1], "#")[0]
		raw = strings.Split(raw, "?")[0]
		version := parsePipVersionFromFilename(path.Base(raw))
		if version == "" {
			continue
		}
		if _, err := pep440.Parse(version); err != nil {
			continue
		}
		versions[version] = struct{}{}
	}
	return mapKeys(versions)
}

func parsePipVersionFromFilename(filename string) string {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return ""
	}
	if match := wheelFilename.FindStringSubmatch(filename); len(match) == 3 {
		return match[2]
	}
	if match := sdistFilename.FindStringSubmatch(filename); len(match) == 3 {
		return match[2]
	}
	return ""
}

func normalizePipNames(values []string) []string {
	var out []string
	for _, value := range values {
		name := strings.TrimSpace(value)
		if name == "" {
			continue
		}
		out = append(out, shared.NormalizePipName(name))
	}
	return out
}

func sortPep440Versions(versions []string) []string {
	sort.Slice(versions, func(i, j int) bool {
		vi, err := pep440.Parse(versions[i])
		if err != nil {
			return versions[i] < versions[j]
		}
		vj, err := pep440.Parse(versions[j])
		if err != nil {
			return versions[i] < versions[j]
		}
		return vi.Compare(vj) < 0
	})
	return versions
}

func mapKeys(values map[string]struct{}) []string {
	out := make([]string, 0, len(values))
	for key := range values {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func uniqueStrings(values []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}

func doRequest(ctx context.Context, url string, user string, apiKey string, cfg httpRetryConfig) (*http.Response, error) {
	client := &http.Client{Timeout: cfg.timeout}
	var lastErr error
	for attempt := 0; attempt < cfg.retries; attempt++ {
		if ctx.Err() != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("request canceled").
				WithCause(ctx.Err())
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create request").
				WithCause(err)
		}
		req.Header.Set("Accept", "text/html")
		if strings.TrimSpace(apiKey) != "" {
			authUser := strings.TrimSpace(user)
			if authUser == "" {
				authUser = "api"
			}
			req.SetBasicAuth(authUser, apiKey)
		}
		resp, err := client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("request canceled").
					WithCause(ctx.Err())
			}
			lastErr = err
			if attempt < cfg.retries-1 {
				time.Sleep(httpRetryDelay(attempt, cfg))
				continue
			}
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("request failed").
				WithCause(err)
		}
		if (resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests) && attempt < cfg.retries-1 {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			time.Sleep(httpRetryDelay(attempt, cfg))
			continue
		}
		return resp, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("request failed")
	}
	return nil, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg("request failed").
		WithCause(lastErr)
}

func httpRetryDelay(attempt int, cfg httpRetryConfig) time.Duration {
	delay := cfg.baseDelay * time.Duration(1<<attempt)
	if delay > maxHTTPRetryDelay {
		delay = maxHTTPRetryDelay
	}
	jitter := time.Duration(time.Now().UnixNano() % int64(delay/2+1))
	return delay + jitter
}

var _ ports.PackageIndexPort = (*PipIndexAdapter)(nil)
