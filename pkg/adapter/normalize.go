package adapter

import (
	"encoding/json"
	"sort"
	"strings"
)

// MediaURLs walks a decoded JSON value and returns every http(s) string leaf,
// deduplicated and sorted.
func MediaURLs(v any) []string {
	seen := make(map[string]struct{})
	collectURLs(v, seen)
	return sortedKeys(seen)
}

func collectURLs(v any, seen map[string]struct{}) {
	switch node := v.(type) {
	case string:
		s := strings.TrimSpace(node)
		if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
			seen[s] = struct{}{}
		}
	case []any:
		for _, item := range node {
			collectURLs(item, seen)
		}
	case map[string]any:
		for _, item := range node {
			collectURLs(item, seen)
		}
	}
}

// ResponseID extracts a correlation id: id, request_id, video_id, then data[0].id.
func ResponseID(v any) string {
	for _, key := range []string{"id", "request_id", "video_id"} {
		if s, ok := stringField(v, key); ok {
			return s
		}
	}
	if s, ok := stringField(firstDataEntry(v), "id"); ok {
		return s
	}
	return ""
}

// ResponseStatus reads status or data[0].status, otherwise infers it from
// whether any media was produced.
func ResponseStatus(v any, mediaURLs []string) string {
	if s, ok := stringField(v, "status"); ok {
		return s
	}
	if s, ok := stringField(firstDataEntry(v), "status"); ok {
		return s
	}
	if len(mediaURLs) == 0 {
		return StatusSubmitted
	}
	return StatusCompleted
}

// normalizeMedia dedupes and sorts an explicitly built media list.
func normalizeMedia(urls []string) []string {
	if len(urls) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if u != "" {
			seen[u] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

// normalizeJob turns an untyped job payload into a response.
func normalizeJob(provider, model, fallbackID string, raw json.RawMessage) *GenerationResponse {
	tree := decodeTree(raw)
	media := MediaURLs(tree)
	id := ResponseID(tree)
	if id == "" {
		id = fallbackID
	}
	text, _ := stringField(tree, "message")
	return &GenerationResponse{
		Provider:  provider,
		Model:     model,
		Status:    ResponseStatus(tree, media),
		ID:        id,
		Text:      text,
		MediaURLs: media,
		Raw:       raw,
	}
}

func mediaStatus(media []string) string {
	if len(media) == 0 {
		return StatusFailed
	}
	return StatusCompleted
}

func decodeTree(raw json.RawMessage) any {
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil
	}
	return tree
}

func stringField(v any, key string) (string, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	s, ok := obj[key].(string)
	return s, ok
}

func firstDataEntry(v any) any {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	list, ok := obj["data"].([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	return list[0]
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
