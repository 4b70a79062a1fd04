// internal/knowledge/store.go
package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	stderrs "tripwise/internal/common/errors"
	"tripwise/internal/common/metrics"
	"tripwise/internal/models"
)

var ErrEmptyIndex = errors.New("knowledge index is empty")

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Store keeps travel knowledge chunks in an Elasticsearch index with a
// dense_vector field for cosine retrieval. Document ids are deterministic
// (source:chunk) so re-seeding overwrites vectors in place.
type Store struct {
	client *elasticsearch.Client
	index  string
	dims   int
	logger Logger
}

func NewStore(client *elasticsearch.Client, index string, dims int, log Logger) *Store {
	return &Store{
		client: client,
		index:  index,
		dims:   dims,
		logger: log.With(map[string]interface{}{"component": "knowledge", "index": index}),
	}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (s *Store) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{s.index}}.Do(ctx, s.client)
	if err != nil {
		return stderrs.NewKnowledgeIndexFailedError(err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	mapping := map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"doc_id":  map[string]interface{}{"type": "keyword"},
				"source":  map[string]interface{}{"type": "keyword"},
				"chunk":   map[string]interface{}{"type": "integer"},
				"content": map[string]interface{}{"type": "text"},
				"embedding": map[string]interface{}{
					"type":       "dense_vector",
					"dims":       s.dims,
					"index":      true,
					"similarity": "cosine",
				},
			},
		},
	}
	body, _ := json.Marshal(mapping)

	res, err = esapi.IndicesCreateRequest{
		Index: s.index,
		Body:  bytes.NewReader(body),
	}.Do(ctx, s.client)
	if err != nil {
		return stderrs.NewKnowledgeIndexFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return stderrs.NewKnowledgeIndexFailedError(fmt.Errorf("create index: %s", res.String()))
	}
	s.logger.Info("knowledge index created", map[string]interface{}{"dims": s.dims})
	return nil
}

// DocID builds the deterministic document id for a source chunk.
func DocID(source string, chunk int) string {
	return fmt.Sprintf("%s:%d", source, chunk)
}

// Upsert bulk-indexes documents by deterministic id and refreshes the index
// so re-seeded vectors are visible immediately.
func (s *Store) Upsert(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		id := doc.ID
		if id == "" {
			id = DocID(doc.Source, doc.Chunk)
		}

		action, _ := json.Marshal(map[string]interface{}{
			"index": map[string]interface{}{"_index": s.index, "_id": id},
		})
		source, _ := json.Marshal(map[string]interface{}{
			"doc_id":    id,
			"source":    doc.Source,
			"chunk":     doc.Chunk,
			"content":   doc.Content,
			"embedding": doc.Embedding,
		})
		buf.Write(action)
		buf.WriteByte('\n')
		buf.Write(source)
		buf.WriteByte('\n')
	}

	res, err := esapi.BulkRequest{
		Body:    bytes.NewReader(buf.Bytes()),
		Refresh: "true",
	}.Do(ctx, s.client)
	if err != nil {
		return stderrs.NewKnowledgeIndexFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return stderrs.NewKnowledgeIndexFailedError(fmt.Errorf("bulk index: %s", res.String()))
	}

	var bulkResp struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return stderrs.NewKnowledgeIndexFailedError(err)
	}
	if bulkResp.Errors {
		return stderrs.NewKnowledgeIndexFailedError(errors.New("bulk index reported item errors"))
	}

	s.logger.Info("documents indexed", map[string]interface{}{"count": len(docs)})
	return nil
}

// Search runs cosine similarity retrieval against the embedding field.
func (s *Store) Search(ctx context.Context, vector []float32, topK int) ([]models.Document, error) {
	if topK <= 0 {
		topK = 4
	}

	query := map[string]interface{}{
		"size": topK,
		"query": map[string]interface{}{
			"script_score": map[string]interface{}{
				"query": map[string]interface{}{"match_all": map[string]interface{}{}},
				"script": map[string]interface{}{
					"source": "cosineSimilarity(params.query_vector, 'embedding') + 1.0",
					"params": map[string]interface{}{"query_vector": vector},
				},
			},
		},
	}

	docs, err := s.search(ctx, query)
	if err != nil {
		metrics.KnowledgeRetrievals.WithLabelValues("dense", "error").Inc()
		return nil, err
	}
	metrics.KnowledgeRetrievals.WithLabelValues("dense", "success").Inc()
	return docs, nil
}

// SearchLexical is the fallback path when no embedding is available.
func (s *Store) SearchLexical(ctx context.Context, text string, topK int) ([]models.Document, error) {
	if topK <= 0 {
		topK = 4
	}

	query := map[string]interface{}{
		"size": topK,
		"query": map[string]interface{}{
			"match": map[string]interface{}{
				"content": map[string]interface{}{"query": text},
			},
		},
	}

	docs, err := s.search(ctx, query)
	if err != nil {
		metrics.KnowledgeRetrievals.WithLabelValues("lexical", "error").Inc()
		return nil, err
	}
	metrics.KnowledgeRetrievals.WithLabelValues("lexical", "success").Inc()
	return docs, nil
}

func (s *Store) search(ctx context.Context, query map[string]interface{}) ([]models.Document, error) {
	body, _ := json.Marshal(query)

	res, err := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
	}.Do(ctx, s.client)
	if err != nil {
		return nil, stderrs.NewKnowledgeQueryFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, stderrs.NewKnowledgeQueryFailedError(fmt.Errorf("search: %s", res.String()))
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Score  float64 `json:"_score"`
				Source struct {
					DocID   string `json:"doc_id"`
					Source  string `json:"source"`
					Chunk   int    `json:"chunk"`
					Content string `json:"content"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, stderrs.NewKnowledgeQueryFailedError(err)
	}

	docs := make([]models.Document, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		docs = append(docs, models.Document{
			ID:      hit.Source.DocID,
			Source:  hit.Source.Source,
			Chunk:   hit.Source.Chunk,
			Content: hit.Source.Content,
			Score:   hit.Score,
		})
	}
	return docs, nil
}
