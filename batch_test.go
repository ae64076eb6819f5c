package pagescript

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/podhmo/pagescript/object"
)

// counterPage is safe for concurrent use and records the peak number of callers.
type counterPage struct {
	mu      sync.Mutex
	visited []string

	active atomic.Int32
	peak   atomic.Int32
}

func (p *counterPage) Visit(ctx context.Context, url string) (string, error) {
	n := p.active.Add(1)
	defer p.active.Add(-1)
	for {
		old := p.peak.Load()
		if n <= old || p.peak.CompareAndSwap(old, n) {
			break
		}
	}
	if url == "bad" {
		return "", errors.New("unreachable")
	}
	p.mu.Lock()
	p.visited = append(p.visited, url)
	p.mu.Unlock()
	return "visited " + url, nil
}

func TestRunAll(t *testing.T) {
	page := &counterPage{}
	var jobs []Job
	outputs := make([][]string, 6)
	for i := range outputs {
		url := fmt.Sprintf("u%d", i)
		if i == 2 {
			url = "bad"
		}
		jobs = append(jobs, Job{
			Name: fmt.Sprintf("job%d", i),
			Source: fmt.Sprintf(`const secret = %d;
const msg = await page.visit(params.url);
log(msg + " " + secret);`, i),
			Context: ExecutionContext{
				Host:       page,
				Log:        func(s string) { outputs[i] = append(outputs[i], s) },
				Parameters: map[string]any{"url": url},
			},
		})
	}

	results := New().RunAll(context.Background(), jobs, 2)

	if len(results) != len(jobs) {
		t.Fatalf("expected %d results, got %d", len(jobs), len(results))
	}
	for i, r := range results {
		if r.Name != jobs[i].Name {
			t.Errorf("result %d is out of order: %s", i, r.Name)
		}
		if i == 2 {
			var errObj *object.Error
			if !errors.As(r.Err, &errObj) || errObj.Kind != object.HostFailure {
				t.Errorf("job2: expected a HostFailure, got %v", r.Err)
			}
			continue
		}
		if r.Err != nil {
			t.Errorf("%s: unexpected error: %v", r.Name, r.Err)
			continue
		}
		want := []string{
			fmt.Sprintf(`call page.visit ["u%d"]`, i),
			fmt.Sprintf("visited u%d %d", i, i),
		}
		if diff := cmp.Diff(want, outputs[i]); diff != "" {
			t.Errorf("%s: output mismatch (-want +got):\n%s", r.Name, diff)
		}
	}
	if got := len(page.visited); got != 5 {
		t.Errorf("expected 5 successful visits, got %d", got)
	}
	if peak := page.peak.Load(); peak > 2 {
		t.Errorf("expected at most 2 concurrent jobs, got %d", peak)
	}
}
