package papers

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"paperqa/internal/llm"
)

// LLMSource asks a language model to propose plausible related papers. The
// model can and does fabricate citations, so every result is tagged
// SourceLLMGenerated and carries no link.
type LLMSource struct {
	llm llm.Client
}

func NewLLMSource(client llm.Client) *LLMSource {
	return &LLMSource{llm: client}
}

func (s *LLMSource) Name() string { return SourceLLMGenerated }

const llmSourceSystem = "You are a research librarian suggesting published papers related to a topic."

func (s *LLMSource) Search(ctx context.Context, query string, limit int) ([]RelatedPaper, error) {
	user := fmt.Sprintf(`Suggest up to %d published research papers closely related to this topic:

%s

Respond as a numbered list, one paper per line, in the format:
1. Title - Authors (Year): one sentence on why it is relevant`, limit, query)

	out, err := s.llm.Complete(ctx, llmSourceSystem, user)
	if err != nil {
		return nil, fmt.Errorf("llm paper suggestions: %w", err)
	}

	papers := parseNumberedList(out)
	if len(papers) > limit {
		papers = papers[:limit]
	}
	return papers, nil
}

var (
	numberedLine = regexp.MustCompile(`^\s*\d+[.)]\s*(.+)$`)
	yearPattern  = regexp.MustCompile(`\((\d{4})\)`)
)

// parseNumberedList is deliberately tolerant: models drift from the requested
// format, so anything after the list number counts as a candidate, and the
// authors/year/justification fields are filled only when they can be picked
// out of the line.
func parseNumberedList(out string) []RelatedPaper {
	var papers []RelatedPaper
	for _, line := range strings.Split(out, "\n") {
		m := numberedLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		body := strings.TrimSpace(m[1])
		if body == "" {
			continue
		}
		papers = append(papers, parseLine(body))
	}
	return papers
}

func parseLine(body string) RelatedPaper {
	p := RelatedPaper{Source: SourceLLMGenerated, Summary: NoAbstract}

	if m := yearPattern.FindStringSubmatch(body); m != nil {
		if y, err := strconv.Atoi(m[1]); err == nil {
			p.Year = y
		}
	}
	if i := strings.Index(body, ":"); i >= 0 && i+1 < len(body) {
		if just := strings.TrimSpace(body[i+1:]); just != "" {
			p.Summary = just
		}
		body = body[:i]
	}

	title := body
	for _, sep := range []string{" — ", " – ", " - "} {
		if i := strings.Index(body, sep); i > 0 {
			title = body[:i]
			p.Authors = strings.TrimSpace(yearPattern.ReplaceAllString(body[i+len(sep):], ""))
			break
		}
	}
	p.Title = strings.Trim(strings.TrimSpace(title), `"'`)
	return p
}
