package extractor

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// linkResolver maps a snapshot filename back to the target link it was
// captured from, by substring match on the link's final path segment. All
// pages of one target share a filename prefix, so resolutions are cached by
// that prefix.
type linkResolver struct {
	links []string
	cache *lru.Cache[string, string]
}

func newLinkResolver(links []string) *linkResolver {
	cache, _ := lru.New[string, string](256)
	return &linkResolver{links: links, cache: cache}
}

// resolve returns the matching target link, or a synthetic placeholder when
// no known target matches. Unmatched files still produce records.
func (r *linkResolver) resolve(filename string) string {
	prefix := filename
	if idx := strings.Index(prefix, "_"); idx >= 0 {
		prefix = prefix[:idx]
	}
	if link, ok := r.cache.Get(prefix); ok {
		return link
	}

	for _, link := range r.links {
		seg := link
		if idx := strings.LastIndex(seg, "/"); idx >= 0 {
			seg = seg[idx+1:]
		}
		if seg != "" && strings.Contains(filename, seg) {
			r.cache.Add(prefix, link)
			return link
		}
	}
	return "https://dummy-link/" + filename
}
