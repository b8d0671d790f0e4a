package search

// SourceTypeSimpleDocument is the citation source type understood by the host UI.
const SourceTypeSimpleDocument = "SIMPLE_DOCUMENT"

// SearchResultItem captures a single entry returned by a web search provider,
// including the citation-display fields that are not part of the primary record.
type SearchResultItem struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Snippet     string     `json:"snippet"`
	HTMLSnippet string     `json:"htmlSnippet,omitempty"`
	Thumbnail   *Thumbnail `json:"thumbnail,omitempty"`
}

// Thumbnail describes an optional preview image reported by the search provider.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`
}

// WebResult is the primary record emitted for a single web search hit.
type WebResult struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// CallRecord is the primary record emitted for a single call with its
// transcript excerpt attached.
type CallRecord struct {
	CallID          string   `json:"callId"`
	Title           string   `json:"title"`
	Date            string   `json:"date"`
	DurationSeconds int      `json:"durationSeconds"`
	Parties         []string `json:"parties"`
	Snippet         string   `json:"snippet"`
	URL             string   `json:"url"`
	Context         string   `json:"context,omitempty"`
}

// SourceItem is a citation-display record consumed by the host UI. It is
// distinct from the primary structured result and never processed further.
type SourceItem struct {
	Type        string     `json:"type"`
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	HTMLSnippet string     `json:"htmlSnippet"`
	Thumbnail   *Thumbnail `json:"thumbnail,omitempty"`
}

// ToolSource groups the citation items produced by one tool invocation.
type ToolSource struct {
	ToolCallDescription string       `json:"toolCallDescription"`
	Items               []SourceItem `json:"items"`
}

// ResultEnvelope is the uniform contract returned to the host for every tool
// invocation. On failure Output is empty and Error is set instead of Sources.
type ResultEnvelope[T any] struct {
	Output  []T          `json:"output"`
	Sources []ToolSource `json:"sources,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// NewErrorEnvelope builds the failure shape of the envelope: empty output and
// a non-empty error string.
func NewErrorEnvelope[T any](message string) ResultEnvelope[T] {
	return ResultEnvelope[T]{
		Output: []T{},
		Error:  message,
	}
}
