package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fredpottier/kbgraph/internal/model"
	"github.com/fredpottier/kbgraph/internal/worker"
)

// IngestJob ingests one document through the engine.
type IngestJob struct {
	Document *model.Document
	Engine   *Engine
}

// Execute runs the ingestion.
func (j *IngestJob) Execute(ctx context.Context) worker.Result {
	report, err := j.Engine.IngestDocument(ctx, j.Document)
	return &IngestResult{
		DocumentID: j.Document.ID,
		Report:     report,
		Err:        err,
	}
}

// IngestResult is the outcome of one batched document ingestion.
type IngestResult struct {
	DocumentID string
	Report     *IngestReport
	Err        error
}

// GetError returns the ingestion error, if any.
func (r *IngestResult) GetError() error { return r.Err }

// BatchProcessor ingests documents concurrently over a worker pool.
// Documents parallelize freely; the engine's keyed locks serialize the
// subject-registry and axis mutations underneath.
type BatchProcessor struct {
	engine      *Engine
	concurrency int
}

// NewBatchProcessor creates a batch processor.
func NewBatchProcessor(engine *Engine, concurrency int) *BatchProcessor {
	return &BatchProcessor{engine: engine, concurrency: concurrency}
}

// ProcessDocuments ingests the documents and returns one result per
// document. Individual failures surface in results, never abort the batch.
func (b *BatchProcessor) ProcessDocuments(ctx context.Context, docs []*model.Document) []*IngestResult {
	if len(docs) == 0 {
		return []*IngestResult{}
	}

	pool := worker.NewPool(b.concurrency)
	pool.Start()

	for _, doc := range docs {
		pool.Submit(&IngestJob{Document: doc, Engine: b.engine})
	}

	results := pool.Wait()
	ingestResults := make([]*IngestResult, len(results))
	for i, result := range results {
		ingestResults[i] = result.(*IngestResult)
	}
	return ingestResults
}

// ProcessFile loads documents from a JSON file and ingests them.
func (b *BatchProcessor) ProcessFile(ctx context.Context, path string) ([]*IngestResult, error) {
	docs, err := LoadDocuments(path)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}
	return b.ProcessDocuments(ctx, docs), nil
}

// LoadDocuments reads documents from a JSON file holding either a single
// document object or an array of them.
func LoadDocuments(path string) ([]*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var docs []*model.Document
	if err := json.Unmarshal(data, &docs); err == nil {
		return docs, nil
	}

	var single model.Document
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return []*model.Document{&single}, nil
}
