package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/graphmind/graphmind/internal/util"
	"github.com/graphmind/graphmind/pkg/loader"

	"codeberg.org/readeck/go-readability/v2"
	"golang.org/x/net/html"
	"golang.org/x/sync/singleflight"
)

const (
	// MaxContentChars caps the text kept from a single page.
	MaxContentChars = 50000
	// ExcerptChars is the length of Page.Excerpt.
	ExcerptChars = 200

	userAgent = "Mozilla/5.0 (compatible; GraphMind/1.0)"
)

// maxBodyBytes caps how much of a response body is read.
var maxBodyBytes int64 = 5 << 20

var (
	ErrEmptyURL   = errors.New("url is required")
	ErrInvalidURL = errors.New("invalid url")
	ErrNoContent  = errors.New("no readable content found")
)

// Page is the readable content of a fetched URL.
type Page struct {
	Content string `json:"content"`
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
}

// WebLoader fetches web pages and extracts their readable text.
// HTML is run through readability first and falls back to a plain tag strip.
type WebLoader struct {
	client *http.Client

	cache   map[string]Page
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewWebLoader creates a web loader. A nil client gets a 30 second timeout.
func NewWebLoader(client *http.Client) *WebLoader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &WebLoader{
		client: client,
		cache:  make(map[string]Page),
	}
}

// ParseURL validates rawURL. Only absolute http and https URLs are accepted.
func ParseURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrEmptyURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	return u, nil
}

// Fetch downloads rawURL and returns its readable content.
func (l *WebLoader) Fetch(ctx context.Context, rawURL string) (Page, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return Page{}, err
	}
	key := u.String()

	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		page, err := l.fetch(ctx, u)
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[key] = page
		l.cacheMu.Unlock()

		return page, nil
	})
	if err != nil {
		return Page{}, err
	}

	return result.(Page), nil
}

// GetText implements loader.TextLoader. src.Location is the URL.
func (l *WebLoader) GetText(ctx context.Context, src loader.Source) ([]byte, error) {
	page, err := l.Fetch(ctx, src.Location)
	if err != nil {
		return nil, err
	}
	return []byte(page.Content), nil
}

func (l *WebLoader) fetch(ctx context.Context, u *url.URL) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Page{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := l.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("failed to fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Page{}, fmt.Errorf("failed to fetch url: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Page{}, fmt.Errorf("failed to read response: %w", err)
	}

	var title, content string
	if strings.Contains(resp.Header.Get("Content-Type"), "html") || looksLikeHTML(body) {
		title, content = extractHTML(body, u)
	} else {
		content = string(body)
	}

	content = util.Truncate(util.CollapseWhitespace(content), MaxContentChars)
	if content == "" {
		return Page{}, fmt.Errorf("%w: %s", ErrNoContent, u)
	}
	if title == "" {
		title = u.Hostname()
	}

	return Page{
		Content: content,
		Title:   title,
		Excerpt: util.Truncate(content, ExcerptChars),
	}, nil
}

func looksLikeHTML(body []byte) bool {
	head := strings.ToLower(string(body[:min(len(body), 512)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}

// extractHTML returns the page title and text. Readability output wins when
// it is non-empty.
func extractHTML(body []byte, u *url.URL) (string, string) {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", string(body)
	}
	title := strings.TrimSpace(nodeText(findFirst(doc, "title")))

	article, err := readability.FromReader(strings.NewReader(string(body)), u)
	if err == nil {
		var builder strings.Builder
		if err := article.RenderText(&builder); err == nil && strings.TrimSpace(builder.String()) != "" {
			return title, builder.String()
		}
	}

	root := findFirst(doc, "body")
	if root == nil {
		root = doc
	}
	return title, nodeText(root)
}

func findFirst(n *html.Node, tag string) *html.Node {
	var result *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if result != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == tag {
			result = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return result
}

// nodeText concatenates the text below n, skipping script and style.
func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "head":
				return
			}
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
