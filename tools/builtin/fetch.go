package builtin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/relaykit/relay/tools"
)

const defaultMaxBody = 2 * 1024 * 1024

// WebFetch returns a tool that fetches a URL and renders the body as
// plain text, markdown or raw HTML.
func WebFetch(client *http.Client) tools.Tool {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	return tools.New(
		"web_fetch",
		"Fetch a web page and return its content as text, markdown or html",
		func(ctx context.Context, args map[string]any) (any, error) {
			var req struct {
				URL    string `json:"url"`
				Format string `json:"format"`
			}
			if err := tools.DecodeArgs(args, &req); err != nil {
				return nil, err
			}
			if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
				return nil, fmt.Errorf("url must start with http:// or https://")
			}

			httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
			if err != nil {
				return nil, err
			}
			httpReq.Header.Set("User-Agent", "relay-fetch/1.0")

			resp, err := client.Do(httpReq)
			if err != nil {
				return nil, fmt.Errorf("fetch failed: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("fetch failed with status %d", resp.StatusCode)
			}

			body, err := io.ReadAll(io.LimitReader(resp.Body, defaultMaxBody))
			if err != nil {
				return nil, fmt.Errorf("read body: %w", err)
			}
			content := string(body)
			if !utf8.ValidString(content) {
				return nil, fmt.Errorf("response is not valid UTF-8")
			}

			isHTML := strings.Contains(resp.Header.Get("Content-Type"), "text/html")
			switch req.Format {
			case "text":
				if isHTML {
					content, err = htmlToText(content)
				}
			case "markdown":
				if isHTML {
					content, err = htmlToMarkdown(content)
				}
			case "html":
				// raw body as fetched
			}
			if err != nil {
				return nil, err
			}
			return content, nil
		},
		tools.WithParam(tools.ParamSpec{
			Name:        "url",
			Type:        tools.TypeString,
			Description: "The URL to fetch",
			Required:    true,
		}),
		tools.WithParam(tools.ParamSpec{
			Name:        "format",
			Type:        tools.TypeString,
			Description: "Output format for HTML pages",
			Default:     "text",
			Enum:        []string{"text", "markdown", "html"},
		}),
		tools.WithReturnKind(tools.ReturnText),
		tools.WithRetryable(),
	)
}

func htmlToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	text := doc.Find("body").Text()
	return strings.Join(strings.Fields(text), " "), nil
}

func htmlToMarkdown(html string) (string, error) {
	converter := md.NewConverter("", true, nil)
	return converter.ConvertString(html)
}
