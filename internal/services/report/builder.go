package report

import (
	"time"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/models"
)

// Build aggregates per-source word and chunk counts plus run totals. Pure
// aggregation: no side effects, never fails, absent fields default to zero.
// Items that produced zero chunks still appear with their word count.
func Build(indexName string, items []*models.ContentItem, chunks []models.Chunk, vectorsWritten int, failures map[string][]models.Failure) *models.Report {
	sources := make(map[string]models.SourceReport, len(items))
	totalWords := 0

	for _, item := range items {
		words := common.CountWords(item.Text)
		totalWords += words
		sources[item.ID] = models.SourceReport{
			SourceKind:  item.SourceKind,
			ContentType: item.ContentType(),
			Words:       words,
		}
	}

	for _, chunk := range chunks {
		locator := chunk.Metadata["locator"]
		rec := sources[locator]
		rec.Chunks++
		sources[locator] = rec
	}

	return &models.Report{
		IndexName:   indexName,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Totals: models.ReportTotals{
			Sources:        len(sources),
			TotalWords:     totalWords,
			TotalChunks:    len(chunks),
			VectorsWritten: vectorsWritten,
		},
		Sources:  sources,
		Failures: failures,
	}
}
