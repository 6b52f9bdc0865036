package memory

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/google/uuid"
)

// Index is a full-text index over stored facts, keyed by user.
// It backs the query form of recall; the Store remains the source of
// truth and the index is rebuilt-able from it.
type Index struct {
	mu    sync.RWMutex
	index bleve.Index
}

// factDocument is the indexed representation of one fact.
type factDocument struct {
	UserID    string    `json:"user_id"`
	Fact      string    `json:"fact"`
	CreatedAt time.Time `json:"created_at"`
}

// buildIndexMapping creates the Bleve index mapping for fact documents.
func buildIndexMapping() mapping.IndexMapping {
	factMapping := bleve.NewDocumentMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name

	keywordFieldMapping := bleve.NewKeywordFieldMapping()
	dateFieldMapping := bleve.NewDateTimeFieldMapping()

	factMapping.AddFieldMappingsAt("fact", textFieldMapping)
	factMapping.AddFieldMappingsAt("user_id", keywordFieldMapping)
	factMapping.AddFieldMappingsAt("created_at", dateFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = factMapping
	indexMapping.DefaultAnalyzer = standard.Name

	return indexMapping
}

// NewIndex opens or creates a disk-backed fact index at path.
func NewIndex(path string) (*Index, error) {
	var idx bleve.Index
	var err error

	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create fact index: %w", err)
		}
	} else {
		idx, err = bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open fact index: %w", err)
		}
	}

	return &Index{index: idx}, nil
}

// NewMemIndex creates an in-memory fact index, for tests and ephemeral runs.
func NewMemIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create fact index: %w", err)
	}
	return &Index{index: idx}, nil
}

// Add indexes one fact for a user.
func (ix *Index) Add(userID, fact string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	doc := factDocument{
		UserID:    userID,
		Fact:      fact,
		CreatedAt: time.Now(),
	}
	return ix.index.Index(uuid.New().String(), doc)
}

// Search returns the user's facts best matching the query, up to limit.
func (ix *Index) Search(userID, queryText string, limit int) ([]string, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if limit <= 0 {
		limit = 5
	}

	matchQuery := bleve.NewMatchQuery(queryText)
	matchQuery.SetField("fact")

	userQuery := bleve.NewTermQuery(userID)
	userQuery.SetField("user_id")

	boolQuery := bleve.NewBooleanQuery()
	boolQuery.AddMust(matchQuery)
	boolQuery.AddMust(userQuery)

	searchReq := bleve.NewSearchRequest(boolQuery)
	searchReq.Size = limit
	searchReq.Fields = []string{"fact"}

	result, err := ix.index.Search(searchReq)
	if err != nil {
		return nil, fmt.Errorf("fact search failed: %w", err)
	}

	var facts []string
	for _, hit := range result.Hits {
		if fact, ok := hit.Fields["fact"].(string); ok {
			facts = append(facts, fact)
		}
	}
	return facts, nil
}

// Remove drops every indexed fact for a user.
func (ix *Index) Remove(userID string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	userQuery := bleve.NewTermQuery(userID)
	userQuery.SetField("user_id")

	searchReq := bleve.NewSearchRequest(userQuery)
	searchReq.Size = 10000

	result, err := ix.index.Search(searchReq)
	if err != nil {
		return err
	}

	batch := ix.index.NewBatch()
	for _, hit := range result.Hits {
		batch.Delete(hit.ID)
	}
	return ix.index.Batch(batch)
}

// Close releases the underlying index.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.index.Close()
}
