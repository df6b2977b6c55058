package papers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"paperqa/internal/llm"
)

const arxivFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2101.00001</id>
    <title>  Deep Widgets  </title>
    <summary>
      A study of widgets with depth.
    </summary>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2101.00002</id>
    <title></title>
    <summary>missing title, skipped</summary>
  </entry>
</feed>`

func TestArxivSearch(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		w.Write([]byte(arxivFeedXML))
	}))
	defer srv.Close()

	src := NewArxivSource(0)
	src.baseURL = srv.URL

	got, err := src.Search(context.Background(), "widget theory", 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Deep Widgets", got[0].Title)
	assert.Equal(t, "A study of widgets with depth.", got[0].Summary)
	assert.Equal(t, "http://arxiv.org/abs/2101.00001", got[0].Link)
	assert.Equal(t, SourceArxiv, got[0].Source)
	assert.Equal(t, "all:widget theory", gotQuery)
}

func TestArxivSearchNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewArxivSource(0)
	src.baseURL = srv.URL

	_, err := src.Search(context.Background(), "q", 5)
	assert.Error(t, err)
}

func TestSemanticScholarSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "widget theory", r.URL.Query().Get("query"))
		w.Write([]byte(`{"data":[
			{"title":"Widget Survey","abstract":"All about widgets.","url":"https://s2.org/1","year":2020,
			 "authors":[{"name":"A. One"},{"name":"B. Two"},{"name":"C. Three"},{"name":"D. Four"}]},
			{"title":"No Abstract","abstract":"","url":"https://s2.org/2"}
		]}`))
	}))
	defer srv.Close()

	src := NewSemanticScholarSource(0)
	src.baseURL = srv.URL

	got, err := src.Search(context.Background(), "widget theory", 5)
	require.NoError(t, err)
	require.Len(t, got, 1, "papers without abstract are skipped")
	assert.Equal(t, "Widget Survey", got[0].Title)
	assert.Equal(t, 2020, got[0].Year)
	assert.Equal(t, "A. One, B. Two, C. Three", got[0].Authors, "authors capped at three")
	assert.Equal(t, SourceSemanticScholar, got[0].Source)
}

func TestLLMSourceParsesNumberedList(t *testing.T) {
	m := &llm.MockClient{}
	m.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(
		`Here are some suggestions:
1. Attention Is All You Need - Vaswani et al. (2017): introduced the transformer architecture
2) BERT: Pre-training of Deep Bidirectional Transformers
3. "Scaling Laws" - Kaplan et al. (2020)
not a list line
4.
`, nil)

	src := NewLLMSource(m)
	got, err := src.Search(context.Background(), "transformers", 5)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "Attention Is All You Need", got[0].Title)
	assert.Equal(t, "Vaswani et al.", got[0].Authors)
	assert.Equal(t, 2017, got[0].Year)
	assert.Equal(t, "introduced the transformer architecture", got[0].Summary)

	assert.Equal(t, "BERT", got[1].Title)
	assert.Equal(t, "Pre-training of Deep Bidirectional Transformers", got[1].Summary)

	assert.Equal(t, "Scaling Laws", got[2].Title)
	assert.Equal(t, 2020, got[2].Year)

	for _, p := range got {
		assert.Equal(t, SourceLLMGenerated, p.Source, "provenance tag is mandatory")
		assert.Empty(t, p.Link, "fabricated papers must not carry links")
	}
}

func TestLLMSourceRespectsLimit(t *testing.T) {
	m := &llm.MockClient{}
	m.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(
		"1. One\n2. Two\n3. Three\n4. Four", nil)

	src := NewLLMSource(m)
	got, err := src.Search(context.Background(), "t", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestLLMSourceError(t *testing.T) {
	m := &llm.MockClient{}
	m.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("rate limited"))

	src := NewLLMSource(m)
	_, err := src.Search(context.Background(), "t", 5)
	assert.Error(t, err)
}
