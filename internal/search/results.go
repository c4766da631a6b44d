// internal/search/results.go
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"admission-workers/internal/admission"
	"admission-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrMissingIndex  = errors.New("index name is required")
	ErrBulkRejected  = errors.New("BULK_ITEMS_REJECTED")
	ErrUnavailable   = errors.New("elasticsearch unavailable")
	ErrSearchFailure = errors.New("SEARCH_FAILED")
)

const resultsMapping = `{
	"mappings": {
		"properties": {
			"applicationId":     {"type": "keyword"},
			"examinationNumber": {"type": "long"},
			"name":              {"type": "text", "fields": {"raw": {"type": "keyword"}}},
			"category":          {"type": "keyword"},
			"categoryLabel":     {"type": "keyword"},
			"status":            {"type": "keyword"},
			"otherRegion":       {"type": "boolean"},
			"schoolLocation":    {"type": "keyword"},
			"firstRoundScore":   {"type": "scaled_float", "scaling_factor": 1000},
			"totalScore":        {"type": "scaled_float", "scaling_factor": 1000},
			"indexedAt":         {"type": "date"}
		}
	}
}`

// ResultDocument is the searchable projection of one application.
// Scores are kept as exact decimal strings.
type ResultDocument struct {
	ApplicationID     string `json:"applicationId"`
	ExaminationNumber int64  `json:"examinationNumber,omitempty"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	CategoryLabel     string `json:"categoryLabel"`
	Status            string `json:"status"`
	OtherRegion       bool   `json:"otherRegion"`
	SchoolLocation    string `json:"schoolLocation,omitempty"`
	FirstRoundScore   string `json:"firstRoundScore,omitempty"`
	TotalScore        string `json:"totalScore,omitempty"`
	IndexedAt         string `json:"indexedAt"`
}

// NewResultDocument projects an application at time now.
func NewResultDocument(app models.Application, now time.Time) ResultDocument {
	doc := ResultDocument{
		ApplicationID:     app.ID,
		ExaminationNumber: app.ExamNo(),
		Name:              app.Applicant.Name,
		Category:          string(app.Category),
		CategoryLabel:     app.Category.Label(),
		Status:            string(app.Status),
		OtherRegion:       app.OtherRegion,
		SchoolLocation:    app.Education.SchoolLocation,
		IndexedAt:         now.UTC().Format(time.RFC3339),
	}
	if app.Score.FirstRoundScore.Valid {
		doc.FirstRoundScore = admission.FormatScore(app.Score.FirstRoundScore.Decimal)
	}
	if app.Score.TotalScore.Valid {
		doc.TotalScore = admission.FormatScore(app.Score.TotalScore.Decimal)
	}
	return doc
}

// ResultsIndex reads and writes the admission results index.
type ResultsIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewResultsIndex(client *elasticsearch.Client, index string) (*ResultsIndex, error) {
	if index == "" {
		return nil, ErrMissingIndex
	}
	return &ResultsIndex{client: client, index: index}, nil
}

func (r *ResultsIndex) Name() string {
	return r.index
}

// EnsureIndex creates the index with its mapping on first use.
func (r *ResultsIndex) EnsureIndex(ctx context.Context) error {
	res, err := r.client.Indices.Exists([]string{r.index}, r.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w: %w", r.index, ErrUnavailable, err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = r.client.Indices.Create(r.index,
		r.client.Indices.Create.WithContext(ctx),
		r.client.Indices.Create.WithBody(strings.NewReader(resultsMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w: %w", r.index, ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return fmt.Errorf("create index %s: %s", r.index, res.Status())
	}
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// BulkIndex upserts docs keyed by application id and returns the number of
// documents Elasticsearch accepted.
func (r *ResultsIndex) BulkIndex(ctx context.Context, docs []ResultDocument) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for _, doc := range docs {
		meta := map[string]interface{}{
			"index": map[string]interface{}{"_index": r.index, "_id": doc.ApplicationID},
		}
		if err := enc.Encode(meta); err != nil {
			return 0, fmt.Errorf("encode bulk meta: %w", err)
		}
		if err := enc.Encode(doc); err != nil {
			return 0, fmt.Errorf("encode bulk document: %w", err)
		}
	}

	req := esapi.BulkRequest{
		Body:    &body,
		Refresh: "wait_for",
	}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return 0, fmt.Errorf("bulk index: %w: %w", ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, fmt.Errorf("bulk index: %s", res.Status())
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode bulk response: %w", err)
	}

	var failed []string
	for _, item := range parsed.Items {
		for _, op := range item {
			if op.Status >= 300 {
				failed = append(failed, fmt.Sprintf("%s: %s", op.ID, op.Error.Reason))
			}
		}
	}
	indexed := len(docs) - len(failed)
	if len(failed) > 0 {
		return indexed, fmt.Errorf("%w: %s", ErrBulkRejected, strings.Join(failed, "; "))
	}
	return indexed, nil
}

// Query selects result documents. Empty fields do not filter.
type Query struct {
	Category models.Category
	Status   models.FormStatus
	Name     string
	From     int
	Size     int
}

func buildResultsQuery(q Query) map[string]interface{} {
	filters := []interface{}{}
	if q.Category != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"category": string(q.Category)},
		})
	}
	if q.Status != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{"status": string(q.Status)},
		})
	}

	must := []interface{}{}
	if q.Name != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{"name": q.Name},
		})
	}

	size := q.Size
	if size <= 0 {
		size = 100
	}

	return map[string]interface{}{
		"from": q.From,
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filters,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"category": "asc"},
			map[string]interface{}{"examinationNumber": "asc"},
		},
	}
}

// Search returns matching documents in category then examination number order.
func (r *ResultsIndex) Search(ctx context.Context, q Query) ([]ResultDocument, error) {
	body, err := json.Marshal(buildResultsQuery(q))
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := r.client.Search(
		r.client.Search.WithContext(ctx),
		r.client.Search.WithIndex(r.index),
		r.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchFailure, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrSearchFailure, res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source ResultDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	docs := make([]ResultDocument, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		docs = append(docs, hit.Source)
	}
	return docs, nil
}
