package papers

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const arxivBaseURL = "http://export.arxiv.org/api/query"

// ArxivSource queries the arXiv Atom API.
type ArxivSource struct {
	client  *http.Client
	baseURL string
}

func NewArxivSource(timeout time.Duration) *ArxivSource {
	return &ArxivSource{
		client:  &http.Client{Timeout: timeout},
		baseURL: arxivBaseURL,
	}
}

func (s *ArxivSource) Name() string { return SourceArxiv }

type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID      string `xml:"id"`
	Title   string `xml:"title"`
	Summary string `xml:"summary"`
}

func (s *ArxivSource) Search(ctx context.Context, query string, limit int) ([]RelatedPaper, error) {
	u := fmt.Sprintf("%s?search_query=all:%s&start=0&max_results=%d",
		s.baseURL, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv query: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv query: status %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("arxiv decode: %w", err)
	}

	papers := make([]RelatedPaper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		title := strings.TrimSpace(e.Title)
		if title == "" {
			continue
		}
		papers = append(papers, RelatedPaper{
			Title:   title,
			Summary: strings.TrimSpace(e.Summary),
			Link:    strings.TrimSpace(e.ID),
			Source:  SourceArxiv,
		})
	}
	return papers, nil
}
