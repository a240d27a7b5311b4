// Package prmeta fetches pull-request metadata (state, review status) for
// a branch via a headless browser, so the dashboard can show a PR column
// without needing a configured API token. Degrades to "PR: -" whenever a
// forge URL hasn't been configured or the fetch fails, since this is a
// convenience overlay, never a requirement for the dashboard to function.
package prmeta

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Result is the debounced fetch outcome for one branch, delivered back to
// the dashboard as a bubbletea message.
type Result struct {
	Branch string
	Label  string
}

// Fetcher looks up PR metadata for branches of one repository's forge.
// RepoURL is the forge's PR-list base (e.g. "https://github.com/org/repo");
// an empty RepoURL disables fetching entirely.
type Fetcher struct {
	mu       sync.Mutex
	RepoURL  string
	browser  *rod.Browser
	cache    map[string]cacheEntry
	cooldown time.Duration
}

type cacheEntry struct {
	label     string
	fetchedAt time.Time
}

func NewFetcher() *Fetcher {
	return &Fetcher{cache: make(map[string]cacheEntry), cooldown: 30 * time.Second}
}

// FetchOne returns cached PR metadata for branch, fetching it live (and
// blocking until that fetch returns) if the cache entry is stale or
// missing. A Fetcher with no
// RepoURL always returns the degraded label immediately.
func (f *Fetcher) FetchOne(ctx context.Context, branch string) Result {
	if f.RepoURL == "" {
		return Result{Branch: branch, Label: "PR: -"}
	}

	f.mu.Lock()
	entry, ok := f.cache[branch]
	fresh := ok && time.Since(entry.fetchedAt) < f.cooldown
	f.mu.Unlock()
	if fresh {
		return Result{Branch: branch, Label: entry.label}
	}

	label, err := f.fetchLive(ctx, branch)
	if err != nil {
		label = "PR: -"
	}
	f.mu.Lock()
	f.cache[branch] = cacheEntry{label: label, fetchedAt: time.Now()}
	f.mu.Unlock()
	return Result{Branch: branch, Label: label}
}

// fetchLive drives a headless browser to the forge's `/tree/<branch>` page
// and reads the text of its PR status badge. go-rod launches and manages
// its own bundled Chromium, so no separate browser install is required.
func (f *Fetcher) fetchLive(ctx context.Context, branch string) (string, error) {
	f.mu.Lock()
	if f.browser == nil {
		f.browser = rod.New().Context(ctx)
		if err := f.browser.Connect(); err != nil {
			f.mu.Unlock()
			return "", fmt.Errorf("connecting headless browser: %w", err)
		}
	}
	browser := f.browser
	f.mu.Unlock()

	url := strings.TrimRight(f.RepoURL, "/") + "/tree/" + branch
	page, err := browser.Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", url, err)
	}
	defer page.Close()

	page = page.Timeout(5 * time.Second)
	el, err := page.Element(`[data-testid="pr-status-badge"]`)
	if err != nil {
		return "PR: none", nil
	}
	text, err := el.Text()
	if err != nil || text == "" {
		return "PR: none", nil
	}
	return "PR: " + strings.TrimSpace(text), nil
}

// Close releases the underlying browser process, if one was launched.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.browser == nil {
		return nil
	}
	err := f.browser.Close()
	f.browser = nil
	return err
}
