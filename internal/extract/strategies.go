package extract

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// ReadabilityStrategy runs the page through the readability algorithm and
// returns the plain article text. Usually the best result when it works.
type ReadabilityStrategy struct {
	client *http.Client
}

func NewReadabilityStrategy(client *http.Client) *ReadabilityStrategy {
	return &ReadabilityStrategy{client: client}
}

func (s *ReadabilityStrategy) Name() string { return "readability" }

func (s *ReadabilityStrategy) Extract(ctx context.Context, link string) (string, error) {
	link = rewriteLink(link)

	resp, err := fetchPage(ctx, s.client, link)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	pageURL, err := url.Parse(link)
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}

// Selectors tried for article bodies, most specific first.
var articleSelectors = []string{
	"article p",
	".article-body p",
	".article-content p",
	".post-content p",
	".entry-content p",
	"main p",
	".content p",
}

// ArticleBodyStrategy scrapes paragraph text from the usual article-body
// containers. Catches sites whose markup confuses the readability pass.
type ArticleBodyStrategy struct {
	client *http.Client
}

func NewArticleBodyStrategy(client *http.Client) *ArticleBodyStrategy {
	return &ArticleBodyStrategy{client: client}
}

func (s *ArticleBodyStrategy) Name() string { return "article-body" }

func (s *ArticleBodyStrategy) Extract(ctx context.Context, link string) (string, error) {
	doc, err := fetchDocument(ctx, s.client, link)
	if err != nil {
		return "", err
	}

	for _, selector := range articleSelectors {
		var paragraphs []string
		doc.Find(selector).Each(func(i int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if len(text) > 10 {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) > 0 {
			return strings.Join(paragraphs, "\n\n"), nil
		}
	}
	return "", errors.New("no article body found")
}

// PageTextStrategy is the last resort: every paragraph on the page, joined.
// Noisy, but noise above the length threshold still gives the summarizer
// something to work with.
type PageTextStrategy struct {
	client *http.Client
}

func NewPageTextStrategy(client *http.Client) *PageTextStrategy {
	return &PageTextStrategy{client: client}
}

func (s *PageTextStrategy) Name() string { return "page-text" }

func (s *PageTextStrategy) Extract(ctx context.Context, link string) (string, error) {
	doc, err := fetchDocument(ctx, s.client, link)
	if err != nil {
		return "", err
	}

	var paragraphs []string
	doc.Find("p").Each(func(i int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if len(text) > 20 {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) == 0 {
		return "", errors.New("no text on page")
	}
	return strings.Join(paragraphs, "\n\n"), nil
}

// ReadabilityTitleStrategy takes the headline the readability pass derives
// for the page. Tried before the raw tag lookup since readability already
// strips most site decoration.
type ReadabilityTitleStrategy struct {
	client *http.Client
}

func NewReadabilityTitleStrategy(client *http.Client) *ReadabilityTitleStrategy {
	return &ReadabilityTitleStrategy{client: client}
}

func (s *ReadabilityTitleStrategy) Name() string { return "readability-title" }

func (s *ReadabilityTitleStrategy) Extract(ctx context.Context, link string) (string, error) {
	link = rewriteLink(link)

	resp, err := fetchPage(ctx, s.client, link)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	pageURL, err := url.Parse(link)
	if err != nil {
		return "", err
	}

	article, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return "", err
	}
	return article.Title, nil
}

// TitleTagStrategy pulls a headline out of the page itself, preferring the
// h1 over the title tag since the latter usually carries the site suffix.
type TitleTagStrategy struct {
	client *http.Client
}

func NewTitleTagStrategy(client *http.Client) *TitleTagStrategy {
	return &TitleTagStrategy{client: client}
}

func (s *TitleTagStrategy) Name() string { return "title-tag" }

func (s *TitleTagStrategy) Extract(ctx context.Context, link string) (string, error) {
	doc, err := fetchDocument(ctx, s.client, link)
	if err != nil {
		return "", err
	}

	for _, selector := range []string{"h1", "title"} {
		title := strings.TrimSpace(doc.Find(selector).First().Text())
		if title != "" {
			return title, nil
		}
	}
	return "", errors.New("no title on page")
}

func fetchDocument(ctx context.Context, client *http.Client, link string) (*goquery.Document, error) {
	resp, err := fetchPage(ctx, client, rewriteLink(link))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return goquery.NewDocumentFromReader(resp.Body)
}
