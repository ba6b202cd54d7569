// Package filter holds the cheap structural checks that run before any
// network or model call: host acceptability, duplicate detection, and title
// cleanup.
package filter

import (
	"net/url"
	"slices"
)

// HostPolicy decides whether a link's host is worth fetching at all.
type HostPolicy interface {
	Allow(link string) bool
}

// Blocklist rejects links whose authority matches one of the listed hosts
// exactly. No subdomain wildcarding: sub.facebook.com is not facebook.com.
type Blocklist struct {
	hosts []string
}

// DefaultBlocklist covers hosts that are paywalled, video-only, or junk.
func DefaultBlocklist() *Blocklist {
	return NewBlocklist([]string{
		"www.washingtonpost.com",
		"www.youtube.com",
		"www.naturalnews.com",
		"facebook.com",
		"m.facebook.com",
		"www.bignewsnetwork.com",
	})
}

func NewBlocklist(hosts []string) *Blocklist {
	return &Blocklist{hosts: hosts}
}

// Allow reports whether the link's host is acceptable. A link that does not
// parse is rejected: if we cannot tell where it points, we do not fetch it.
func (b *Blocklist) Allow(link string) bool {
	parsed, err := url.Parse(link)
	if err != nil || parsed.Host == "" {
		return false
	}
	return !slices.Contains(b.hosts, parsed.Host)
}

// AllowAll accepts every parseable link. Used in tests and for sources whose
// links are pre-vetted.
type AllowAll struct{}

func (AllowAll) Allow(link string) bool {
	parsed, err := url.Parse(link)
	return err == nil && parsed.Host != ""
}
