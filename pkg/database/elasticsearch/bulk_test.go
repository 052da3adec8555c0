package elasticsearch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/huynhanx03/go-batching/pkg/batcher"
	"github.com/huynhanx03/go-batching/pkg/settings"
	"github.com/huynhanx03/go-batching/pkg/utils"
)

// ============================================================================
// Fake client
// ============================================================================

// fakeElasticClient captures bulk request bodies and answers with a canned
// response.
type fakeElasticClient struct {
	mu     sync.Mutex
	paths  []string
	bodies []string

	statusCode int
	response   string
	err        error
}

func (f *fakeElasticClient) Info(o ...func(*esapi.InfoRequest)) (*esapi.Response, error) {
	return &esapi.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(`{}`)),
	}, nil
}

func (f *fakeElasticClient) Perform(req *http.Request) (*http.Response, error) {
	if f.err != nil {
		return nil, f.err
	}

	body, _ := io.ReadAll(req.Body)

	f.mu.Lock()
	f.paths = append(f.paths, req.URL.Path)
	f.bodies = append(f.bodies, utils.BytesToString(body))
	f.mu.Unlock()

	status := f.statusCode
	if status == 0 {
		status = http.StatusOK
	}
	payload := f.response
	if payload == "" {
		payload = `{"errors":false,"items":[]}`
	}

	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(payload)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}, nil
}

func docSeq(ids ...string) func(yield func(Doc) bool) {
	return func(yield func(Doc) bool) {
		for _, id := range ids {
			doc := Doc{ID: id, Source: []byte(fmt.Sprintf(`{"id":%q}`, id))}
			if !yield(doc) {
				return
			}
		}
	}
}

// ============================================================================
// Bodies and boundaries
// ============================================================================

func TestBulkWriter_BodyFormat(t *testing.T) {
	fake := &fakeElasticClient{}
	w, err := NewBulkWriter(fake, "events", settings.Batch{}, 1, nil)
	if err != nil {
		t.Fatalf("NewBulkWriter() error = %v", err)
	}

	written, err := w.WriteAll(context.Background(), docSeq("1", "2"))
	if err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if written != 2 {
		t.Errorf("written = %d, want 2", written)
	}

	if len(fake.bodies) != 1 {
		t.Fatalf("bulk calls = %d, want 1", len(fake.bodies))
	}
	want := `{ "index" : { "_index" : "events", "_id" : "1" } }` + "\n" +
		`{"id":"1"}` + "\n" +
		`{ "index" : { "_index" : "events", "_id" : "2" } }` + "\n" +
		`{"id":"2"}` + "\n"
	if fake.bodies[0] != want {
		t.Errorf("body = %q, want %q", fake.bodies[0], want)
	}
	if fake.paths[0] != "/events/_bulk" {
		t.Errorf("path = %q, want /events/_bulk", fake.paths[0])
	}
}

func TestBulkWriter_AutoIDMeta(t *testing.T) {
	fake := &fakeElasticClient{}
	w, err := NewBulkWriter(fake, "events", settings.Batch{}, 1, nil)
	if err != nil {
		t.Fatalf("NewBulkWriter() error = %v", err)
	}

	docs := func(yield func(Doc) bool) {
		yield(Doc{Source: []byte(`{"k":1}`)})
	}
	if _, err := w.WriteAll(context.Background(), docs); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}

	want := `{ "index" : { "_index" : "events" } }` + "\n" + `{"k":1}` + "\n"
	if fake.bodies[0] != want {
		t.Errorf("body = %q, want %q", fake.bodies[0], want)
	}
}

func TestBulkWriter_CountBoundaries(t *testing.T) {
	fake := &fakeElasticClient{}
	w, err := NewBulkWriter(fake, "events", settings.Batch{MaxBatchLen: 2}, 1, nil)
	if err != nil {
		t.Fatalf("NewBulkWriter() error = %v", err)
	}

	written, err := w.WriteAll(context.Background(), docSeq("1", "2", "3", "4", "5"))
	if err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if written != 5 {
		t.Errorf("written = %d, want 5", written)
	}
	if len(fake.bodies) != 3 {
		t.Errorf("bulk calls = %d, want 3", len(fake.bodies))
	}
}

func TestBulkWriter_SizeBoundaries(t *testing.T) {
	fake := &fakeElasticClient{}

	// Budget for exactly two documents per body.
	probe := &BulkWriter{index: "events"}
	doc := Doc{ID: "1", Source: []byte(`{"id":"1"}`)}
	budget := 2 * probe.docSize(doc)

	w, err := NewBulkWriter(fake, "events", settings.Batch{MaxBatchSize: budget}, 1, nil)
	if err != nil {
		t.Fatalf("NewBulkWriter() error = %v", err)
	}

	written, err := w.WriteAll(context.Background(), docSeq("1", "2", "3"))
	if err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if written != 3 {
		t.Errorf("written = %d, want 3", written)
	}
	if len(fake.bodies) != 2 {
		t.Errorf("bulk calls = %d, want 2", len(fake.bodies))
	}
}

// ============================================================================
// Failures
// ============================================================================

func TestBulkWriter_HTTPError(t *testing.T) {
	fake := &fakeElasticClient{statusCode: http.StatusInternalServerError}
	w, err := NewBulkWriter(fake, "events", settings.Batch{}, 1, nil)
	if err != nil {
		t.Fatalf("NewBulkWriter() error = %v", err)
	}

	written, err := w.WriteAll(context.Background(), docSeq("1"))
	if !errors.Is(err, ErrBulkRequestFailed) {
		t.Fatalf("WriteAll() error = %v, want ErrBulkRequestFailed", err)
	}
	if written != 0 {
		t.Errorf("written = %d, want 0", written)
	}
}

func TestBulkWriter_ItemFailures(t *testing.T) {
	fake := &fakeElasticClient{response: `{"errors":true,"items":[{"index":{"status":400}}]}`}
	w, err := NewBulkWriter(fake, "events", settings.Batch{}, 1, nil)
	if err != nil {
		t.Fatalf("NewBulkWriter() error = %v", err)
	}

	written, err := w.WriteAll(context.Background(), docSeq("1"))
	if !errors.Is(err, ErrBulkRequestFailed) {
		t.Fatalf("WriteAll() error = %v, want ErrBulkRequestFailed", err)
	}
	if written != 0 {
		t.Errorf("written = %d, want 0", written)
	}
}

func TestBulkWriter_OversizeDocSkip(t *testing.T) {
	fake := &fakeElasticClient{}

	probe := &BulkWriter{index: "events"}
	small := Doc{ID: "1", Source: []byte(`{"id":"1"}`)}
	limit := probe.docSize(small)

	w, err := NewBulkWriter(fake, "events", settings.Batch{MaxRecordSize: limit, Overflow: "skip"}, 1, nil)
	if err != nil {
		t.Fatalf("NewBulkWriter() error = %v", err)
	}

	docs := func(yield func(Doc) bool) {
		if !yield(small) {
			return
		}
		yield(Doc{ID: "2", Source: []byte(`{"id":"2","padding":"xxxxxxxxxxxxxxxxxxxx"}`)})
	}

	written, err := w.WriteAll(context.Background(), docs)
	if err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if written != 1 {
		t.Errorf("written = %d, want 1", written)
	}
}

func TestBulkWriter_OversizeDocRaise(t *testing.T) {
	fake := &fakeElasticClient{}

	w, err := NewBulkWriter(fake, "events", settings.Batch{MaxRecordSize: 8}, 1, nil)
	if err != nil {
		t.Fatalf("NewBulkWriter() error = %v", err)
	}

	written, err := w.WriteAll(context.Background(), docSeq("1"))
	if !errors.Is(err, batcher.ErrRecordTooLarge) {
		t.Fatalf("WriteAll() error = %v, want ErrRecordTooLarge", err)
	}
	if written != 0 {
		t.Errorf("written = %d, want 0", written)
	}
	if len(fake.bodies) != 0 {
		t.Errorf("bulk calls = %d, want 0", len(fake.bodies))
	}
}

// ============================================================================
// Concurrency
// ============================================================================

func TestBulkWriter_ConcurrentWorkers(t *testing.T) {
	fake := &fakeElasticClient{}
	w, err := NewBulkWriter(fake, "events", settings.Batch{MaxBatchLen: 10}, 4, nil)
	if err != nil {
		t.Fatalf("NewBulkWriter() error = %v", err)
	}

	ids := make([]string, 100)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", i)
	}

	written, err := w.WriteAll(context.Background(), docSeq(ids...))
	if err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if written != 100 {
		t.Errorf("written = %d, want 100", written)
	}
	if len(fake.bodies) != 10 {
		t.Errorf("bulk calls = %d, want 10", len(fake.bodies))
	}

	// Every document shows up exactly once across all bodies.
	all := strings.Join(fake.bodies, "")
	for _, id := range ids {
		meta := bulkMeta("events", id)
		if got := strings.Count(all, meta); got != 1 {
			t.Errorf("doc %s action line appears %d times, want 1", id, got)
		}
	}
}

// ============================================================================
// Docs
// ============================================================================

func TestNewDoc(t *testing.T) {
	doc, err := NewDoc("7", map[string]int{"v": 7})
	if err != nil {
		t.Fatalf("NewDoc() error = %v", err)
	}
	if doc.ID != "7" || string(doc.Source) != `{"v":7}` {
		t.Errorf("doc = %+v, want ID 7 and source {\"v\":7}", doc)
	}

	if _, err := NewDoc("8", make(chan int)); err == nil {
		t.Error("NewDoc(chan) error = nil, want marshal failure")
	}
}
