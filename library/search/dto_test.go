package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResultEnvelopeWireContract(t *testing.T) {
	envelope := ResultEnvelope[WebResult]{
		Output: []WebResult{{URL: "https://example.com", Title: "Example", Snippet: "snippet"}},
		Sources: []ToolSource{{
			ToolCallDescription: "Performed Web Search for: example",
			Items: []SourceItem{{
				Type:        SourceTypeSimpleDocument,
				URL:         "https://example.com",
				Title:       "Example",
				HTMLSnippet: "<b>snippet</b>",
			}},
		}},
	}

	raw, err := json.Marshal(envelope)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Contains(t, decoded, "output")
	require.Contains(t, decoded, "sources")
	require.NotContains(t, decoded, "error")

	sources := decoded["sources"].([]any)
	source := sources[0].(map[string]any)
	require.Equal(t, "Performed Web Search for: example", source["toolCallDescription"])
	items := source["items"].([]any)
	item := items[0].(map[string]any)
	require.Equal(t, "SIMPLE_DOCUMENT", item["type"])
	// optional thumbnail is omitted entirely when absent
	require.NotContains(t, item, "thumbnail")
}

func TestNewErrorEnvelope(t *testing.T) {
	envelope := NewErrorEnvelope[CallRecord]("something broke")

	raw, err := json.Marshal(envelope)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	// output is an empty array, never null, and sources are absent on failure
	require.Equal(t, []any{}, decoded["output"])
	require.NotContains(t, decoded, "sources")
	require.Equal(t, "something broke", decoded["error"])
}
