package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GoNgram/internal/config"
	"GoNgram/internal/server"
	"GoNgram/internal/testutil"
)

type term struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

type tokenizeResponse struct {
	Terms     []term `json:"terms"`
	Count     int    `json:"count"`
	Truncated bool   `json:"truncated"`
}

type highlightResponse struct {
	Text  string `json:"text"`
	Spans []struct {
		First int `json:"first"`
		Last  int `json:"last"`
	} `json:"spans"`
}

func startServer(t *testing.T, mutate func(*config.Config)) *httptest.Server {
	t.Helper()
	cfg := config.DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	srv, err := server.New(server.Options{
		Config:   cfg,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Registry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body, out interface{}) int {
	t.Helper()
	status, err := doPost(url, body, out)
	require.NoError(t, err)
	return status
}

// doPost is postJSON without a *testing.T, for use off the test goroutine.
func doPost(url string, body, out interface{}) (int, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

// Highlighting term i of a document must wrap exactly the bytes that
// /tokenize reported for term i.
func TestE2E_TokenizeThenHighlight(t *testing.T) {
	ts := startServer(t, nil)

	for _, sample := range testutil.SampleTexts() {
		t.Run(sample.Name, func(t *testing.T) {
			var tr tokenizeResponse
			require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/tokenize", map[string]interface{}{"text": sample.Text}, &tr))
			require.NotEmpty(t, tr.Terms)

			idx := len(tr.Terms) / 2
			want := tr.Terms[idx]

			var hr highlightResponse
			require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/highlight", map[string]interface{}{
				"text":      sample.Text,
				"open":      "\x01",
				"close":     "\x02",
				"instances": []map[string]int{{"offset": idx, "length": 1}},
			}, &hr))

			expected := sample.Text[:want.Start] + "\x01" + sample.Text[want.Start:want.End] + "\x02" + sample.Text[want.End:]
			assert.Equal(t, expected, hr.Text)
			require.Len(t, hr.Spans, 1)
			assert.Equal(t, idx, hr.Spans[0].First)
		})
	}
}

func TestE2E_CaseFolding(t *testing.T) {
	ts := startServer(t, nil)

	texts := func(text string) []string {
		var r tokenizeResponse
		require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/tokenize", map[string]interface{}{"text": text}, &r))
		out := make([]string, len(r.Terms))
		for i, t := range r.Terms {
			out[i] = t.Text
		}
		return out
	}
	assert.Equal(t, texts("hello world"), texts("HeLLo WORLD"))
	assert.Equal(t, []string{"ass"}, texts("Aß"))
}

func TestE2E_ConfiguredTokenizer(t *testing.T) {
	ts := startServer(t, func(c *config.Config) {
		c.Tokenizer.Gram = 3
		c.Tokenizers = map[string][]string{"uni": {"gram", "1"}}
	})

	var def tokenizeResponse
	postJSON(t, ts.URL+"/tokenize", map[string]interface{}{"text": "abcd"}, &def)
	assert.Equal(t, 2, def.Count)

	var uni tokenizeResponse
	postJSON(t, ts.URL+"/tokenize", map[string]interface{}{"text": "abcd", "tokenizer": "uni"}, &uni)
	assert.Equal(t, 4, uni.Count)
}

func TestE2E_LargeDocumentTruncated(t *testing.T) {
	ts := startServer(t, func(c *config.Config) {
		c.Limits.MaxTerms = 100
	})

	var tr tokenizeResponse
	status := postJSON(t, ts.URL+"/tokenize", map[string]interface{}{"text": testutil.LongText(8 << 10)}, &tr)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, tr.Truncated)
	assert.Equal(t, 100, tr.Count)
}

func TestE2E_InvalidInputRejected(t *testing.T) {
	ts := startServer(t, nil)

	for _, path := range []string{"/tokenize", "/segment", "/highlight"} {
		status := postJSON(t, ts.URL+path, map[string]interface{}{"data": []byte("ok\xed\xa0\x80")}, nil)
		assert.Equal(t, http.StatusBadRequest, status, path)
	}
}

func TestE2E_MetricsExposed(t *testing.T) {
	ts := startServer(t, nil)
	text := "hello world"
	for i := 0; i < 2; i++ {
		postJSON(t, ts.URL+"/highlight", map[string]interface{}{
			"text":      text,
			"instances": []map[string]int{{"offset": 0, "length": 1}},
		}, nil)
	}

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := string(body)
	assert.True(t, strings.Contains(out, `ngram_term_cache_total{result="hit"} 1`), out)
	assert.True(t, strings.Contains(out, `ngram_term_cache_total{result="miss"} 1`), out)
	assert.Contains(t, out, `ngram_requests_total{endpoint="highlight",status="200"} 2`)
}
