package confluence

import (
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
)

// FetchErrorPrefix marks a failed fetch in the reference→text mapping.
// Callers distinguish "fetched empty content" from "fetch failed" by checking
// for this prefix; failed references are never omitted from the mapping.
const FetchErrorPrefix = "Exception: "

// EmptyPageText is recorded for pages that fetched successfully but carried
// no body content.
const EmptyPageText = "Empty page"

// Fetcher retrieves normalized text for batches of page ids or explicit URLs
type Fetcher struct {
	client *Client
	logger arbor.ILogger
}

// NewFetcher creates a content fetcher over the given client
func NewFetcher(client *Client, logger arbor.ILogger) *Fetcher {
	return &Fetcher{
		client: client,
		logger: logger,
	}
}

// IsFetchError reports whether a mapping value is a failure sentinel
func IsFetchError(text string) bool {
	return strings.HasPrefix(text, FetchErrorPrefix)
}

// FetchByIDs fetches a batch of page ids sharing one base location. The
// returned map is keyed by canonical page URL and always contains one entry
// per requested id; failures carry the sentinel prefix.
func (f *Fetcher) FetchByIDs(ctx context.Context, baseURL string, pageIDs []string) map[string]string {
	out := make(map[string]string, len(pageIDs))

	for i, pageID := range pageIDs {
		key := PageURL(baseURL, pageID)

		page, err := f.client.GetPage(ctx, baseURL, pageID)
		if err != nil {
			f.logger.Warn().Err(err).Str("page_id", pageID).Msg("Failed to fetch page")
			out[key] = FetchErrorPrefix + err.Error()
			continue
		}

		out[key] = f.normalize(page, baseURL)
		f.logger.Debug().
			Int("fetched", i+1).
			Int("total", len(pageIDs)).
			Str("page_id", pageID).
			Msg("Fetched page")
	}

	return out
}

// FetchByURLs fetches explicit page URLs that may not share a base location,
// one fetch per URL. Unresolvable references fail terminally for that entry
// and the rest of the batch continues.
func (f *Fetcher) FetchByURLs(ctx context.Context, urls []string) map[string]string {
	out := make(map[string]string, len(urls))

	for _, rawURL := range urls {
		baseURL, pageID, err := ResolveLocator(rawURL)
		if err != nil {
			f.logger.Warn().Err(err).Str("url", rawURL).Msg("Skipping unresolvable reference")
			out[rawURL] = FetchErrorPrefix + err.Error()
			continue
		}

		page, err := f.client.GetPage(ctx, baseURL, pageID)
		if err != nil {
			f.logger.Warn().Err(err).Str("url", rawURL).Msg("Failed to fetch page")
			out[rawURL] = FetchErrorPrefix + err.Error()
			continue
		}

		out[rawURL] = f.normalize(page, baseURL)
	}

	return out
}

// normalize produces the title-prefixed, markdown-converted, blank-line
// collapsed text for a page
func (f *Fetcher) normalize(page *Page, baseURL string) string {
	body := f.convertHTMLToMarkdown(page.Body, baseURL)

	var text string
	if page.Title != "" {
		text = fmt.Sprintf("%s:\n%s", page.Title, body)
	} else {
		text = body
	}

	text = strings.TrimSpace(common.CollapseBlankLines(text))
	if text == "" || text == page.Title+":" {
		return EmptyPageText
	}
	return text
}

func (f *Fetcher) convertHTMLToMarkdown(html string, baseURL string) string {
	if html == "" {
		return ""
	}

	mdConverter := md.NewConverter(baseURL, true, nil)
	converted, err := mdConverter.ConvertString(html)
	if err != nil {
		f.logger.Warn().Err(err).Str("fallback", "stripHTMLTags").Msg("HTML to markdown conversion failed, using fallback")
		return stripHTMLTags(html)
	}

	if strings.TrimSpace(converted) == "" && html != "" {
		return stripHTMLTags(html)
	}

	return converted
}

// stripHTMLTags extracts plain text from HTML, used when markdown conversion
// fails or produces empty output
func stripHTMLTags(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	return strings.TrimSpace(doc.Text())
}
