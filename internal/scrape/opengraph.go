package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// maxBody bounds how much of a page is parsed.
const maxBody = 1 << 20

// OpenGraph holds the preview fields copied onto a link.
type OpenGraph struct {
	Title       string
	Description string
	Image       string
}

// FetchOpenGraph downloads pageURL and extracts og:title, og:description
// and og:image. Fields missing from the page stay empty.
func FetchOpenGraph(ctx context.Context, client *http.Client, pageURL string) (OpenGraph, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return OpenGraph{}, err
	}
	req.Header.Set("User-Agent", "linklog/1.0 (+preview)")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return OpenGraph{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return OpenGraph{}, fmt.Errorf("fetch %s: status %d", pageURL, resp.StatusCode)
	}
	return ParseOpenGraph(io.LimitReader(resp.Body, maxBody))
}

// ParseOpenGraph reads OG meta tags from an HTML document. The first
// occurrence of each property wins.
func ParseOpenGraph(body io.Reader) (OpenGraph, error) {
	doc, err := html.Parse(body)
	if err != nil {
		return OpenGraph{}, err
	}

	var og OpenGraph
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			prop := getAttr(n, "property")
			if prop == "" {
				// some sites use name= for og tags
				prop = getAttr(n, "name")
			}
			content := strings.TrimSpace(getAttr(n, "content"))
			switch strings.ToLower(prop) {
			case "og:title":
				if og.Title == "" {
					og.Title = content
				}
			case "og:description":
				if og.Description == "" {
					og.Description = content
				}
			case "og:image":
				if og.Image == "" {
					og.Image = content
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(doc)
	return og, nil
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
