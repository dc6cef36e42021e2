package factcheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

const (
	defaultWikipediaURL = "https://en.wikipedia.org/w/api.php"
	encyclopediaLimit   = 1200
	maxWebSnippets      = 3
)

// EvidenceClient fetches supporting snippets for a claim from an
// encyclopedic source and an optional web-search source. Both fetches
// are best-effort: any failure yields the empty variant for that source
// and never propagates.
type EvidenceClient struct {
	httpClient   *http.Client
	wikipediaURL string
	searchURL    string
	searchKey    string
}

// NewEvidenceClient creates an evidence client. Web search is disabled
// when searchURL or searchKey is empty. Pass wikipediaURL "" for the
// live endpoint.
func NewEvidenceClient(wikipediaURL, searchURL, searchKey string) *EvidenceClient {
	if wikipediaURL == "" {
		wikipediaURL = defaultWikipediaURL
	}
	return &EvidenceClient{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		wikipediaURL: wikipediaURL,
		searchURL:    searchURL,
		searchKey:    searchKey,
	}
}

// Gather collects evidence for one claim. The two sub-fetches run
// concurrently and the Evidence is returned once both have settled.
func (c *EvidenceClient) Gather(ctx context.Context, claim Claim) Evidence {
	ev := Evidence{ClaimID: claim.ID, WebSnippets: []string{}}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		ev.Encyclopedia = c.fetchEncyclopedia(ctx, claim.Text)
	}()
	go func() {
		defer wg.Done()
		ev.WebSnippets = c.fetchWebSnippets(ctx, claim.Text)
	}()
	wg.Wait()

	return ev
}

// fetchEncyclopedia searches Wikipedia for the claim, takes the
// top-ranked page, and returns its plain-text extract truncated to
// 1200 characters. Any failure returns "".
func (c *EvidenceClient) fetchEncyclopedia(ctx context.Context, query string) string {
	searchParams := url.Values{}
	searchParams.Set("action", "query")
	searchParams.Set("list", "search")
	searchParams.Set("srsearch", query)
	searchParams.Set("format", "json")
	searchParams.Set("utf8", "1")
	searchParams.Set("srlimit", "1")

	var searchResp struct {
		Query struct {
			Search []struct {
				PageID int `json:"pageid"`
			} `json:"search"`
		} `json:"query"`
	}
	if err := c.getJSON(ctx, c.wikipediaURL+"?"+searchParams.Encode(), &searchResp); err != nil {
		return ""
	}
	if len(searchResp.Query.Search) == 0 {
		return ""
	}
	pageID := searchResp.Query.Search[0].PageID

	extractParams := url.Values{}
	extractParams.Set("action", "query")
	extractParams.Set("prop", "extracts")
	extractParams.Set("explaintext", "1")
	extractParams.Set("format", "json")
	extractParams.Set("pageids", strconv.Itoa(pageID))

	var extractResp struct {
		Query struct {
			Pages map[string]struct {
				Extract string `json:"extract"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := c.getJSON(ctx, c.wikipediaURL+"?"+extractParams.Encode(), &extractResp); err != nil {
		return ""
	}

	page, ok := extractResp.Query.Pages[strconv.Itoa(pageID)]
	if !ok {
		return ""
	}
	return truncate(page.Extract, encyclopediaLimit)
}

// fetchWebSnippets issues one web search and returns the top 3
// non-empty snippets. Unconfigured or failing search yields none.
func (c *EvidenceClient) fetchWebSnippets(ctx context.Context, query string) []string {
	if c.searchURL == "" || c.searchKey == "" {
		return []string{}
	}

	params := url.Values{}
	params.Set("api_key", c.searchKey)
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("num", "5")

	var resp struct {
		OrganicResults []struct {
			Snippet string `json:"snippet"`
		} `json:"organic_results"`
	}
	if err := c.getJSON(ctx, c.searchURL+"?"+params.Encode(), &resp); err != nil {
		return []string{}
	}

	snippets := []string{}
	for _, r := range resp.OrganicResults {
		if r.Snippet == "" {
			continue
		}
		snippets = append(snippets, r.Snippet)
		if len(snippets) == maxWebSnippets {
			break
		}
	}
	return snippets
}

func (c *EvidenceClient) getJSON(ctx context.Context, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
