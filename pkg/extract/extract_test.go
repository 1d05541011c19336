package extract

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sancg/pkg/config"
	errs "sancg/pkg/errors"
	"sancg/pkg/fetch"
	"sancg/pkg/logger"
	"sancg/pkg/script"
)

const listingHTML = `<html><body>
<div class="excerpt"><header><h2><a href="/sancg/cao-cao">曹操</a></h2></header></div>
<div class="excerpt"><header>no link here</header></div>
<div class="excerpt"><p>no header</p></div>
<div class="excerpt"><header><a href="#top">anchor</a><a href="liu-bei">劉備</a></header></div>
<div class="excerpt"><header><a href="javascript:void(0)">js</a></header></div>
<div class="excerpt"><header><a href="http://other.example.com/sun-quan">孫權</a></header></div>
</body></html>`

const cardsHTML = `<html><body>
<div class="nb_14pk_240"><a href="/img/guanyu.jpg"><img src="/img/guanyu_s.jpg"></a><a>關羽</a><br>字雲長</div>
<div class="nb_14pk_240">no anchors at all</div>
<div class="nb_14pk_240"><a href="/img/guanyu2.jpg"><img></a><a>關羽</a><br>字雲長</div>
<div class="nb_14pk_240"><a href="mailto:someone@example.com">mail</a></div>
<div class="nb_14pk_240"><a href="zhangfei.jpg">張飛</a></div>
</body></html>`

// staticFetcher serves fixed HTML per URL
type staticFetcher struct {
	pages map[string]string
	calls []string
}

func (f *staticFetcher) Document(ctx context.Context, rawURL string) (*goquery.Document, error) {
	f.calls = append(f.calls, rawURL)
	body, ok := f.pages[rawURL]
	if !ok {
		return nil, errs.NewFetchError(rawURL, http.StatusNotFound, "unexpected status code: 404", nil)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	doc.Url, _ = url.Parse(rawURL)
	return doc, nil
}

func TestLinks(t *testing.T) {
	fetcher := &staticFetcher{pages: map[string]string{
		"http://wiki.example.com/sancg/san11": listingHTML,
	}}
	e := NewLinkExtractor(fetcher, config.DefaultConfig().Site, logger.NewNopLogger())

	links, err := e.Links(context.Background(), "http://wiki.example.com/sancg/san11")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"http://wiki.example.com/sancg/cao-cao",
		"http://wiki.example.com/sancg/liu-bei",
		"http://other.example.com/sun-quan",
	}, links.Collect())

	assert.False(t, links.Next())
	assert.Empty(t, links.URL())
	assert.Len(t, fetcher.calls, 1)
}

func TestLinksFetchError(t *testing.T) {
	e := NewLinkExtractor(&staticFetcher{}, config.DefaultConfig().Site, logger.NewNopLogger())

	_, err := e.Links(context.Background(), "http://wiki.example.com/missing")
	require.Error(t, err)
	assert.True(t, errs.IsFetchError(err))
}

func TestLinksEmptyPage(t *testing.T) {
	fetcher := &staticFetcher{pages: map[string]string{"http://wiki.example.com/": "<html></html>"}}
	e := NewLinkExtractor(fetcher, config.DefaultConfig().Site, logger.NewNopLogger())

	links, err := e.Links(context.Background(), "http://wiki.example.com/")
	require.NoError(t, err)
	assert.False(t, links.Next())
}

func TestRecords(t *testing.T) {
	conv, err := script.NewOpenCC("t2s")
	require.NoError(t, err)

	fetcher := &staticFetcher{pages: map[string]string{
		"http://wiki.example.com/sancg/shu": cardsHTML,
	}}
	tl := logger.NewTestLogger()
	e := NewRecordExtractor(fetcher, config.DefaultConfig().Site, conv, tl)

	it, err := e.Records(context.Background(), "http://wiki.example.com/sancg/shu")
	require.NoError(t, err)
	records := it.Collect()
	require.Len(t, records, 3)

	assert.Equal(t, "关羽", records[0].Name)
	assert.Equal(t, "关羽\n字云长", records[0].Description)
	assert.Equal(t, "http://wiki.example.com/img/guanyu.jpg", records[0].SourceURL)

	assert.Equal(t, records[0].Description, records[1].Description)
	assert.Equal(t, "http://wiki.example.com/img/guanyu2.jpg", records[1].SourceURL)

	// single anchor: the name falls back to the card text
	assert.Equal(t, "张飞", records[2].Name)
	assert.Equal(t, "http://wiki.example.com/sancg/zhangfei.jpg", records[2].SourceURL)

	assert.True(t, tl.HasMessage("Card without anchors skipped"))
	assert.True(t, tl.HasMessage("Card without image link skipped"))
}

func TestRecordsWithoutConverter(t *testing.T) {
	fetcher := &staticFetcher{pages: map[string]string{"http://wiki.example.com/p": cardsHTML}}
	e := NewRecordExtractor(fetcher, config.DefaultConfig().Site, nil, logger.NewNopLogger())

	it, err := e.Records(context.Background(), "http://wiki.example.com/p")
	require.NoError(t, err)
	require.True(t, it.Next())
	assert.Equal(t, "關羽", it.Record().Name)
}

func TestTextContent(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"plain", `<div id="x">abc</div>`, "abc"},
		{"br", `<div id="x">a<br>b<br/>c</div>`, "a\nb\nc"},
		{"blocks", `<div id="x"><p>a</p><p>b</p>c</div>`, "a\nb\nc"},
		{"inline", `<div id="x"><span>a</span><b>b</b></div>`, "ab"},
		{"script dropped", `<div id="x">a<script>var x;</script></div>`, "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.html))
			require.NoError(t, err)
			got := strings.TrimSpace(textContent(doc.Find("#x")))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveLink(t *testing.T) {
	base, _ := url.Parse("http://wiki.example.com/sancg/san11")

	tests := []struct {
		html string
		want string
		ok   bool
	}{
		{`<a id="x" href="p1">x</a>`, "http://wiki.example.com/sancg/p1", true},
		{`<header id="x"><a>no href</a><a href="/p2">y</a></header>`, "http://wiki.example.com/p2", true},
		{`<header id="x"><a href="#frag">y</a></header>`, "", false},
		{`<header id="x"><a href="#top">top</a><a href="/sancg/liu-bei">劉備</a></header>`, "http://wiki.example.com/sancg/liu-bei", true},
		{`<header id="x"><a href="javascript:void(0)">js</a><a href="mailto:a@b">m</a><a href="p3">z</a></header>`, "http://wiki.example.com/sancg/p3", true},
		{`<a id="x" href="#top">self</a>`, "", false},
		{`<header id="x"><a href="MAILTO:a@b">y</a></header>`, "", false},
		{`<header id="x">text</header>`, "", false},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.html))
			require.NoError(t, err)
			got, ok := resolveLink(doc.Find("#x"), base)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractorsOverHTTP(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sancg/san11", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<div class="excerpt"><header><a href="shu">蜀</a></header></div>`)
	})
	mux.HandleFunc("/sancg/shu", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<div class="nb_14pk_240"><a href="/img/1.jpg"></a><a>趙雲</a></div>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	cfg := config.DefaultConfig()
	client := fetch.NewClient(cfg, nil, logger.NewNopLogger())

	links, err := NewLinkExtractor(client, cfg.Site, logger.NewNopLogger()).Links(context.Background(), server.URL+"/sancg/san11")
	require.NoError(t, err)
	require.True(t, links.Next())
	assert.Equal(t, server.URL+"/sancg/shu", links.URL())

	records, err := NewRecordExtractor(client, cfg.Site, nil, logger.NewNopLogger()).Records(context.Background(), links.URL())
	require.NoError(t, err)
	require.True(t, records.Next())
	assert.Equal(t, "趙雲", records.Record().Name)
	assert.Equal(t, server.URL+"/img/1.jpg", records.Record().SourceURL)
}
