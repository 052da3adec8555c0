package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/huynhanx03/go-batching/pkg/batcher"
	"github.com/huynhanx03/go-batching/pkg/settings"
)

// Doc is a single document destined for an index. Source holds the
// pre-marshaled JSON body. An empty ID lets the cluster assign one.
type Doc struct {
	ID     string
	Source []byte
}

// NewDoc marshals v as the document source.
func NewDoc(id string, v any) (Doc, error) {
	src, err := json.Marshal(v)
	if err != nil {
		return Doc{}, errors.Wrap(err, "failed to marshal document")
	}
	return Doc{ID: id, Source: src}, nil
}

// bulkMeta builds the action line for one document, without the newline.
func bulkMeta(index, id string) string {
	if id == "" {
		return fmt.Sprintf(`{ "index" : { "_index" : "%s" } }`, index)
	}
	return fmt.Sprintf(`{ "index" : { "_index" : "%s", "_id" : "%s" } }`, index, id)
}

// BulkWriter loads document streams into an index through the _bulk API.
//
// Behavior:
//   - Documents are grouped by the configured batch limits and sized by
//     their full NDJSON footprint: action line, source and both newlines.
//   - Each batch becomes one bulk request. With Workers > 1 requests are in
//     flight concurrently and batch order is not preserved.
//   - A transport error, a non-2xx status, or a response flagging item
//     failures all fail the write.
type BulkWriter struct {
	client  ElasticClient
	index   string
	cfg     batcher.Config[Doc]
	workers int
	log     *zap.Logger
}

// NewBulkWriter builds a BulkWriter for index. workers caps the number of
// concurrent bulk requests; values below one mean sequential, ordered sends.
func NewBulkWriter(client ElasticClient, index string, batch settings.Batch, workers int, log *zap.Logger) (*BulkWriter, error) {
	w := &BulkWriter{
		client:  client,
		index:   index,
		workers: workers,
		log:     log,
	}

	cfg, err := settings.BatchConfig(batch, w.docSize)
	if err != nil {
		return nil, err
	}
	w.cfg = cfg

	if w.workers < 1 {
		w.workers = 1
	}
	if w.log == nil {
		w.log = zap.NewNop()
	}
	return w, nil
}

// docSize reports the bytes a document contributes to an NDJSON body.
func (w *BulkWriter) docSize(d Doc) int {
	return len(bulkMeta(w.index, d.ID)) + len(d.Source) + 2
}

// WriteAll indexes every document from records and returns the number of
// documents covered by successful bulk requests. Batching stops at the
// first failure; with concurrent workers, requests already in flight still
// run to completion.
func (w *BulkWriter) WriteAll(ctx context.Context, records iter.Seq[Doc]) (int, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)

	var written atomic.Int64

	iterErr := batcher.Each(records, w.cfg, func(batch []Doc) error {
		if err := gctx.Err(); err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		body := w.buildBody(batch)
		count := len(batch)

		// Blocks while all workers are busy, pacing stream consumption.
		g.Go(func() error {
			if err := w.send(gctx, body); err != nil {
				return err
			}
			written.Add(int64(count))
			w.log.Debug("bulk batch indexed", zap.Int("documents", count))
			return nil
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		return int(written.Load()), err
	}
	return int(written.Load()), iterErr
}

// buildBody assembles the NDJSON payload for one batch.
func (w *BulkWriter) buildBody(batch []Doc) []byte {
	var buf bytes.Buffer
	for _, doc := range batch {
		buf.WriteString(bulkMeta(w.index, doc.ID))
		buf.WriteByte('\n')
		buf.Write(doc.Source)
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func (w *BulkWriter) send(ctx context.Context, body []byte) error {
	req := esapi.BulkRequest{
		Index: w.index,
		Body:  bytes.NewReader(body),
	}

	res, err := req.Do(ctx, w.client)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBulkRequestFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrBulkRequestFailed, res.Status())
	}

	// A bulk call can succeed at the HTTP level while individual actions
	// fail; the errors flag covers that case.
	var report struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&report); err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if report.Errors {
		return fmt.Errorf("%w: response reported item failures", ErrBulkRequestFailed)
	}

	return nil
}
