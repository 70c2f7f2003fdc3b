// Package engine defines the contract between the dashboard and the
// per-platform crawl engines. The dashboard only ever calls Start; it
// never depends on any platform's internals.
package engine

import (
	"context"
	"fmt"
	"sync"
)

// Platform is a supported platform code.
type Platform string

const (
	PlatformXHS      Platform = "xhs"
	PlatformDouyin   Platform = "dy"
	PlatformKuaishou Platform = "ks"
	PlatformBilibili Platform = "bili"
	PlatformWeibo    Platform = "wb"
	PlatformTieba    Platform = "tieba"
	PlatformZhihu    Platform = "zhihu"
)

// displayNames mirrors the dashboard's platform picker.
var displayNames = map[Platform]string{
	PlatformXHS:      "小红书 Xiaohongshu",
	PlatformDouyin:   "抖音 Douyin",
	PlatformKuaishou: "快手 Kuaishou",
	PlatformBilibili: "B站 Bilibili",
	PlatformWeibo:    "微博 Weibo",
	PlatformTieba:    "百度贴吧 Tieba",
	PlatformZhihu:    "知乎 Zhihu",
}

func (p Platform) Valid() bool {
	_, ok := displayNames[p]
	return ok
}

func (p Platform) DisplayName() string {
	if name, ok := displayNames[p]; ok {
		return name
	}
	return string(p)
}

// Platforms returns every supported platform code in a stable order.
func Platforms() []Platform {
	return []Platform{
		PlatformXHS, PlatformDouyin, PlatformKuaishou, PlatformBilibili,
		PlatformWeibo, PlatformTieba, PlatformZhihu,
	}
}

// CrawlMode selects what a crawl run does.
type CrawlMode string

const (
	ModeSearch CrawlMode = "search"
	ModeDetail CrawlMode = "detail"
)

// Params is the per-job parameter bundle. It is built once at submission
// time and threaded through to Start, so two jobs dispatched back to back
// can never pick up each other's configuration.
type Params struct {
	Platform    Platform  `json:"platform"`
	Keywords    string    `json:"keywords"`
	MaxNotes    int       `json:"max_notes"`
	GetComments bool      `json:"get_comments"`
	Mode        CrawlMode `json:"crawler_type"`
}

// Engine runs one crawl to completion. Start blocks for the duration of
// the crawl; any error it returns is job-scoped and must not take down
// the caller.
type Engine interface {
	Start(ctx context.Context, p Params) error
}

// Registry maps platform codes to their engines.
type Registry struct {
	mu      sync.RWMutex
	engines map[Platform]Engine
}

func NewRegistry() *Registry {
	return &Registry{engines: make(map[Platform]Engine)}
}

func (r *Registry) Register(p Platform, e Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[p] = e
}

// Resolve returns the engine for a platform, or an error for codes that
// have no engine registered.
func (r *Registry) Resolve(p Platform) (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[p]
	if !ok {
		return nil, fmt.Errorf("no crawl engine registered for platform %q", p)
	}
	return e, nil
}
