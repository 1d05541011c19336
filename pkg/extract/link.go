package extract

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"sancg/pkg/config"
	"sancg/pkg/logger"
)

// DocumentFetcher retrieves a parsed HTML document. *fetch.Client
// implements it.
type DocumentFetcher interface {
	Document(ctx context.Context, url string) (*goquery.Document, error)
}

// LinkExtractor yields the sub-page links of a listing page.
type LinkExtractor struct {
	fetcher         DocumentFetcher
	excerptSelector string
	headerSelector  string
	logger          logger.Logger
}

// NewLinkExtractor creates a link extractor using the site selectors
func NewLinkExtractor(fetcher DocumentFetcher, site config.SiteConfig, log logger.Logger) *LinkExtractor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &LinkExtractor{
		fetcher:         fetcher,
		excerptSelector: site.ExcerptSelector,
		headerSelector:  site.HeaderSelector,
		logger:          log,
	}
}

// Links fetches the listing page once and returns an iterator over the
// resolved sub-page URLs in document order.
func (e *LinkExtractor) Links(ctx context.Context, listingURL string) (*LinkIterator, error) {
	doc, err := e.fetcher.Document(ctx, listingURL)
	if err != nil {
		return nil, err
	}

	excerpts := doc.Find(e.excerptSelector)
	e.logger.DebugWithFields("Listing page parsed", map[string]interface{}{
		"url":      listingURL,
		"excerpts": excerpts.Length(),
	})

	return &LinkIterator{
		excerpts: excerpts,
		header:   e.headerSelector,
		base:     doc.Url,
		logger:   e.logger,
	}, nil
}

// LinkIterator walks the excerpts of one listing page.
type LinkIterator struct {
	excerpts *goquery.Selection
	header   string
	base     *url.URL
	logger   logger.Logger
	pos      int
	current  string
}

// Next advances to the next excerpt with a resolvable header link. It
// returns false once the page is exhausted.
func (it *LinkIterator) Next() bool {
	for it.pos < it.excerpts.Length() {
		excerpt := it.excerpts.Eq(it.pos)
		it.pos++

		header := excerpt.Find(it.header).First()
		if header.Length() == 0 {
			it.logger.Debug("Excerpt without header skipped")
			continue
		}
		link, ok := resolveLink(header, it.base)
		if !ok {
			it.logger.Debug("Excerpt without link skipped")
			continue
		}
		it.current = link
		return true
	}
	it.current = ""
	return false
}

// URL returns the link at the current position
func (it *LinkIterator) URL() string {
	return it.current
}

// Collect drains the iterator
func (it *LinkIterator) Collect() []string {
	var links []string
	for it.Next() {
		links = append(links, it.URL())
	}
	return links
}

// resolveLink returns the first usable absolute URL among sel itself, when
// it is an anchor, and its descendant anchors in document order.
func resolveLink(sel *goquery.Selection, base *url.URL) (string, bool) {
	candidates := sel.Find("a[href]")
	if goquery.NodeName(sel) == "a" {
		candidates = sel.AddSelection(candidates)
	}

	for i := 0; i < candidates.Length(); i++ {
		href, ok := candidates.Eq(i).Attr("href")
		if !ok {
			continue
		}
		if link, ok := absoluteURL(href, base); ok {
			return link, true
		}
	}
	return "", false
}

func absoluteURL(href string, base *url.URL) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if !ref.IsAbs() {
		return "", false
	}
	return ref.String(), true
}
