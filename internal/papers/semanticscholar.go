package papers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const semanticScholarBaseURL = "https://api.semanticscholar.org/graph/v1/paper/search"

// SemanticScholarSource queries the Semantic Scholar Graph API.
type SemanticScholarSource struct {
	client  *http.Client
	baseURL string
}

func NewSemanticScholarSource(timeout time.Duration) *SemanticScholarSource {
	return &SemanticScholarSource{
		client:  &http.Client{Timeout: timeout},
		baseURL: semanticScholarBaseURL,
	}
}

func (s *SemanticScholarSource) Name() string { return SourceSemanticScholar }

type s2Response struct {
	Data []s2Paper `json:"data"`
}

type s2Paper struct {
	Title    string     `json:"title"`
	Abstract string     `json:"abstract"`
	URL      string     `json:"url"`
	Year     int        `json:"year"`
	Authors  []s2Author `json:"authors"`
}

type s2Author struct {
	Name string `json:"name"`
}

func (s *SemanticScholarSource) Search(ctx context.Context, query string, limit int) ([]RelatedPaper, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", fmt.Sprint(limit))
	params.Set("fields", "title,authors,year,url,abstract")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("semantic scholar query: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("semantic scholar query: status %d", resp.StatusCode)
	}

	var body s2Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("semantic scholar decode: %w", err)
	}

	papers := make([]RelatedPaper, 0, len(body.Data))
	for _, p := range body.Data {
		if p.Title == "" || p.Abstract == "" {
			continue
		}
		papers = append(papers, RelatedPaper{
			Title:   p.Title,
			Summary: p.Abstract,
			Link:    p.URL,
			Year:    p.Year,
			Authors: joinAuthors(p.Authors, 3),
			Source:  SourceSemanticScholar,
		})
	}
	return papers, nil
}

func joinAuthors(authors []s2Author, max int) string {
	if len(authors) > max {
		authors = authors[:max]
	}
	names := make([]string, 0, len(authors))
	for _, a := range authors {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}
