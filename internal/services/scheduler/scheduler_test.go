package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

// fakeRunner records the contexts and sources it was run with
type fakeRunner struct {
	ctxs    []context.Context
	sources []string
	failFor map[string]bool
}

func (f *fakeRunner) Run(ctx context.Context, source *models.SourceDefinition) (*models.Report, error) {
	f.ctxs = append(f.ctxs, ctx)
	f.sources = append(f.sources, source.Name)
	if f.failFor[source.Name] {
		return nil, errors.New("run failed")
	}
	return &models.Report{}, nil
}

func testSources(names ...string) []models.SourceDefinition {
	sources := make([]models.SourceDefinition, len(names))
	for i, name := range names {
		sources[i] = models.SourceDefinition{
			Name: name,
			Type: models.SourceTypeDirect,
			URL:  "https://example.atlassian.net/wiki/pages/1",
		}
	}
	return sources
}

func TestRunAllRunsEverySourceInOrder(t *testing.T) {
	runner := &fakeRunner{}
	sched := NewScheduler(runner, testSources("a", "b", "c"), common.GetLogger())

	sched.RunAll()
	assert.Equal(t, []string{"a", "b", "c"}, runner.sources)
}

func TestRunAllCarriesNoDeadline(t *testing.T) {
	runner := &fakeRunner{}
	sched := NewScheduler(runner, testSources("a", "b"), common.GetLogger())

	sched.RunAll()

	require.Len(t, runner.ctxs, 2)
	for i, ctx := range runner.ctxs {
		_, hasDeadline := ctx.Deadline()
		assert.False(t, hasDeadline, "run %d should not carry a deadline", i)
	}
}

func TestRunAllContinuesAfterSourceFailure(t *testing.T) {
	runner := &fakeRunner{failFor: map[string]bool{"a": true}}
	sched := NewScheduler(runner, testSources("a", "b"), common.GetLogger())

	sched.RunAll()
	assert.Equal(t, []string{"a", "b"}, runner.sources, "failure of one source must not skip the rest")
}
