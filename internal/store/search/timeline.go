// Package search mirrors candidate timeline events into Elasticsearch so the
// presentation layer can search across candidates. The relational event log stays
// authoritative; the mirror is best-effort.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"recruiting-pipeline/internal/models"
)

// TimelineIndex writes and queries the timeline index.
type TimelineIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewTimelineIndex(client *elasticsearch.Client, index string) *TimelineIndex {
	return &TimelineIndex{client: client, index: index}
}

// Mirror indexes e using its ID, so replays overwrite rather than duplicate.
func (t *TimelineIndex) Mirror(ctx context.Context, e models.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode timeline document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      t.index,
		DocumentID: e.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, t.client)
	if err != nil {
		return fmt.Errorf("index timeline event: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index timeline event: %s", readError(res.Body, res.Status()))
	}
	return nil
}

// Query filters the mirror. Empty fields are ignored.
type Query struct {
	CandidateID string
	EventType   string
	Source      string
	Size        int
}

func (q Query) body() map[string]interface{} {
	var filters []interface{}
	if q.CandidateID != "" {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"candidateId": q.CandidateID}})
	}
	if q.EventType != "" {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"eventType": q.EventType}})
	}
	if q.Source != "" {
		filters = append(filters, map[string]interface{}{"term": map[string]interface{}{"source": q.Source}})
	}
	size := q.Size
	if size <= 0 {
		size = 50
	}
	return map[string]interface{}{
		"size":  size,
		"query": map[string]interface{}{"bool": map[string]interface{}{"filter": filters}},
		"sort":  []interface{}{map[string]interface{}{"createdAt": map[string]interface{}{"order": "desc"}}},
	}
}

// Search returns matching events, newest first.
func (t *TimelineIndex) Search(ctx context.Context, q Query) ([]models.Event, error) {
	body, err := json.Marshal(q.body())
	if err != nil {
		return nil, fmt.Errorf("encode timeline query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{t.index},
		Body:  strings.NewReader(string(body)),
	}
	res, err := req.Do(ctx, t.client)
	if err != nil {
		return nil, fmt.Errorf("search timeline: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search timeline: %s", readError(res.Body, res.Status()))
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source models.Event `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode timeline hits: %w", err)
	}

	out := make([]models.Event, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func readError(body io.Reader, status string) string {
	raw, _ := io.ReadAll(io.LimitReader(body, 4096))
	if len(raw) == 0 {
		return status
	}
	return status + ": " + string(raw)
}
