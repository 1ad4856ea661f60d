// Package vacancy resolves the vacancy a user supplies as a link, a file, or pasted text.
package vacancy

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/nikogura/cv-coach/pkg/extract"
	"github.com/pkg/errors"
)

// FetchTimeout bounds a vacancy page download.
const FetchTimeout = 30 * time.Second

// maxPageBytes caps how much of a vacancy page is read.
const maxPageBytes = 5 << 20

// noiseSelectors are removed before a page is turned into text.
const noiseSelectors = "nav, footer, header, script, style, noscript, iframe, svg, form, .cookie-banner, .advertisement"

// contentSelectors locate the posting body on common job boards, most specific first.
//
//nolint:gochecknoglobals // Fixed selector list
var contentSelectors = []string{
	".job-description",
	"#job-description",
	".vacancy-section",
	".posting-content",
	"[data-testid='job-description']",
	"main",
	"article",
}

// Resolve returns vacancy text. An http(s) URL is downloaded and converted to text, an existing
// file is extracted, anything else is taken literally.
func Resolve(ctx context.Context, input string) (content string, err error) {
	input = strings.TrimSpace(input)
	if input == "" {
		err = errors.New("vacancy is empty")
		return content, err
	}

	parsedURL, urlErr := url.Parse(input)
	if urlErr == nil && (parsedURL.Scheme == "http" || parsedURL.Scheme == "https") && !strings.ContainsAny(input, " \n") {
		ctx, cancel := context.WithTimeout(ctx, FetchTimeout)
		defer cancel()

		content, err = fetchFromURL(ctx, input)
		if err != nil {
			err = errors.Wrapf(err, "failed to fetch vacancy from URL: %s", input)
			return content, err
		}
		return content, err
	}

	if isFile(input) {
		content, err = fetchFromFile(ctx, input)
		if err != nil {
			err = errors.Wrapf(err, "failed to read vacancy file: %s", input)
			return content, err
		}
		return content, err
	}

	content = input
	return content, err
}

func isFile(input string) (ok bool) {
	if strings.ContainsRune(input, '\n') {
		return ok
	}
	info, err := os.Stat(input)
	ok = err == nil && info.Mode().IsRegular()
	return ok
}

// fetchFromFile reads a vacancy file. Document formats go through extract.
func fetchFromFile(ctx context.Context, path string) (content string, err error) {
	if extract.Supported(path) {
		content, err = extract.File(ctx, path)
		return content, err
	}

	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read file: %s", path)
		return content, err
	}

	content = strings.TrimSpace(string(data))
	if content == "" {
		err = errors.New("file is empty")
		return content, err
	}

	return content, err
}

// fetchFromURL retrieves a vacancy page and returns its text.
func fetchFromURL(ctx context.Context, urlStr string) (content string, err error) {
	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return content, err
	}

	req.Header.Set("User-Agent", "cv-coach/1.0")
	req.Header.Set("Accept", "text/html,text/plain;q=0.9")

	client := &http.Client{
		Timeout: FetchTimeout,
	}

	var resp *http.Response
	resp, err = client.Do(req)
	if err != nil {
		err = errors.Wrap(err, "HTTP request failed")
		return content, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("HTTP request failed with status: %d", resp.StatusCode)
		return content, err
	}

	var body []byte
	body, err = io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return content, err
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		content = cleanWhitespace(string(body))
	} else {
		content, err = htmlText(string(body))
		if err != nil {
			return content, err
		}
	}

	if content == "" {
		err = errors.New("fetched content is empty after processing")
		return content, err
	}

	return content, err
}

// htmlText keeps the readable text of a page, one line per block element.
func htmlText(html string) (text string, err error) {
	var doc *goquery.Document
	doc, err = goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		err = errors.Wrap(err, "failed to parse HTML")
		return text, err
	}

	doc.Find(noiseSelectors).Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, li, div, tr, h1, h2, h3, h4, h5, h6").AppendHtml("\n")

	var body *goquery.Selection
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			body = sel.First()
			break
		}
	}
	if body == nil {
		body = doc.Find("body")
	}

	text = cleanWhitespace(body.Text())
	return text, err
}

// cleanWhitespace trims each line, collapses runs of spaces and drops empty lines.
func cleanWhitespace(text string) (cleaned string) {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			kept = append(kept, line)
		}
	}
	cleaned = strings.Join(kept, "\n")
	return cleaned
}
