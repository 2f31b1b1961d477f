package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
	"github.com/ternarybob/colligo/internal/services/chunker"
	"github.com/ternarybob/colligo/internal/services/confluence"
	"github.com/ternarybob/colligo/internal/services/coveo"
	"github.com/ternarybob/colligo/internal/services/embeddings"
	"github.com/ternarybob/colligo/internal/services/fingerprint"
	"github.com/ternarybob/colligo/internal/services/report"
)

// runTimestampFormat names job artifact directories, sortable lexically
const runTimestampFormat = "20060102T150405"

// Failure stage labels in the report's failure map
const (
	stageDiscovery = "discovery"
	stageFetch     = "fetch"
	stageEmbed     = "embed"
	stageUpsert    = "upsert"
)

// Service orchestrates one synchronization run per source: discovery, fetch,
// diff, chunk, embed, upsert, artifacts. Stage failures degrade the run
// rather than aborting it; the report records what was skipped and why.
type Service struct {
	config    *common.Config
	crawler   *confluence.Crawler
	fetcher   *confluence.Fetcher
	tags      *coveo.Client // nil when tag discovery is not configured
	extractor interfaces.Extractor
	differ    *fingerprint.Differ
	chunker   *chunker.Service
	embedder  *embeddings.Service
	index     interfaces.VectorIndex
	artifacts *Artifacts
	logger    arbor.ILogger
}

// NewService wires the pipeline from its component services. tags may be nil;
// tag sources then degrade to an empty discovery with a recorded failure.
func NewService(
	config *common.Config,
	crawler *confluence.Crawler,
	fetcher *confluence.Fetcher,
	tags *coveo.Client,
	extractor interfaces.Extractor,
	differ *fingerprint.Differ,
	chunkSvc *chunker.Service,
	embedder *embeddings.Service,
	index interfaces.VectorIndex,
	artifacts *Artifacts,
	logger arbor.ILogger,
) *Service {
	return &Service{
		config:    config,
		crawler:   crawler,
		fetcher:   fetcher,
		tags:      tags,
		extractor: extractor,
		differ:    differ,
		chunker:   chunkSvc,
		embedder:  embedder,
		index:     index,
		artifacts: artifacts,
		logger:    logger,
	}
}

// Run executes one synchronization pass for a source and returns its report.
// An error is returned only for failures that invalidate the whole run
// (artifact store unreachable, fingerprints unreadable); partial stage
// failures are carried in the report instead.
func (s *Service) Run(ctx context.Context, source *models.SourceDefinition) (*models.Report, error) {
	runID := uuid.NewString()
	started := time.Now().UTC()
	failures := make(map[string][]models.Failure)

	s.logger.Info().
		Str("run_id", runID).
		Str("source", source.Name).
		Str("type", string(source.Type)).
		Msg("Starting synchronization run")

	// Discovery and fetch. The mapping contains one entry per reference; a
	// failed fetch carries the sentinel prefix and is filtered out below.
	// contentTypes is populated for file sources only.
	fetched, contentTypes, roots, labels := s.discoverAndFetch(ctx, source, failures)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	fetchResult := models.StageResult[map[string]string]{
		Succeeded: make(map[string]string, len(fetched)),
	}
	for ref, text := range fetched {
		if confluence.IsFetchError(text) {
			fetchResult.Fail(ref, errors.New(text[len(confluence.FetchErrorPrefix):]))
			continue
		}
		fetchResult.Succeeded[ref] = text
	}
	if len(fetchResult.Failed) > 0 {
		failures[stageFetch] = append(failures[stageFetch], fetchResult.Failed...)
	}
	succeeded := fetchResult.Succeeded

	previous, err := s.artifacts.LoadPreviousFingerprints(ctx, source.Name)
	if err != nil {
		return nil, err
	}

	changed, newFingerprints := s.differ.Diff(succeeded, previous)

	// Chunk the changed set
	items := make([]*models.ContentItem, 0, len(changed))
	var chunks []models.Chunk
	for id, text := range changed {
		attrs := map[string]string{"source": source.Name}
		kind := models.SourceKindTreeItem
		if contentType, ok := contentTypes[id]; ok {
			kind = models.SourceKindExternalFile
			if contentType != "" {
				attrs["type"] = contentType
			}
		}

		item := &models.ContentItem{
			ID:         id,
			SourceKind: kind,
			Text:       text,
			Attributes: attrs,
		}
		items = append(items, item)
		chunks = append(chunks, s.chunker.Chunk(item)...)
	}

	// Embed in batches; a batch that exhausts retries is dropped and its
	// items lose their fingerprints so the next run re-selects them
	records, embedFailedItems := s.embedChunks(ctx, chunks, failures)
	for itemID := range embedFailedItems {
		delete(newFingerprints, itemID)
	}

	written := s.upsert(ctx, records, failures)

	// Records beyond the confirmed-written count never reached the index;
	// their items lose their fingerprints too, mirroring the embed path
	for _, rec := range records[written:] {
		delete(newFingerprints, rec.Metadata["locator"])
	}

	rep := report.Build(s.config.Pinecone.IndexName, items, chunks, written, failures)

	state := &models.SyncState{
		RunID:          runID,
		RootReferences: roots,
		DiscoveredTags: labels,
		ItemCount:      len(succeeded),
		ChangedCount:   len(changed),
		Timestamp:      started.Format(time.RFC3339),
	}

	timestamp := started.Format(runTimestampFormat)
	if err := s.artifacts.WriteRun(ctx, source.Name, timestamp, changed, newFingerprints, state, rep); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("run_id", runID).
		Str("source", source.Name).
		Int("items", len(succeeded)).
		Int("changed", len(changed)).
		Int("chunks", len(chunks)).
		Int("vectors_written", written).
		Msg("Synchronization run completed")

	return rep, nil
}

// discoverAndFetch resolves a source definition to fetched content. Returns
// the reference→text mapping (sentinel values included), per-reference content
// types (file sources only), the root references that seeded discovery, and
// the labels searched for tag sources.
func (s *Service) discoverAndFetch(ctx context.Context, source *models.SourceDefinition, failures map[string][]models.Failure) (map[string]string, map[string]string, []string, []string) {
	switch source.Type {
	case models.SourceTypeDirect:
		urls := dedupe(source.AllURLs())
		return s.fetcher.FetchByURLs(ctx, urls), nil, urls, nil

	case models.SourceTypeTree:
		baseURL, rootID, err := confluence.ResolveLocator(source.URL)
		if err != nil {
			failures[stageDiscovery] = append(failures[stageDiscovery], models.Failure{
				Ref:    source.URL,
				Reason: err.Error(),
			})
			return nil, nil, []string{source.URL}, nil
		}

		maxDepth := source.MaxDepth
		if maxDepth <= 0 {
			maxDepth = s.config.Confluence.MaxDepth
		}
		maxPages := source.MaxPages
		if maxPages <= 0 {
			maxPages = s.config.Confluence.MaxPages
		}

		pageIDs, err := s.crawler.Crawl(ctx, baseURL, rootID, maxDepth, maxPages)
		if err != nil {
			failures[stageDiscovery] = append(failures[stageDiscovery], models.Failure{
				Ref:    source.URL,
				Reason: err.Error(),
			})
		}
		return s.fetcher.FetchByIDs(ctx, baseURL, pageIDs), nil, []string{source.URL}, nil

	case models.SourceTypeTag:
		urls := s.discoverByTags(ctx, source, failures)
		return s.fetcher.FetchByURLs(ctx, urls), nil, urls, source.Labels

	case models.SourceTypeFile:
		fetched, types, paths := s.readFiles(ctx, source, failures)
		return fetched, types, paths, nil

	default:
		failures[stageDiscovery] = append(failures[stageDiscovery], models.Failure{
			Ref:    source.Name,
			Reason: fmt.Sprintf("unknown source type %q", source.Type),
		})
		return nil, nil, nil, nil
	}
}

// readFiles ingests pre-extracted local files through the extractor. Per-file
// failures carry the fetch sentinel so the fetch filter records them
// uniformly; an unconfigured extractor fails every path at discovery.
func (s *Service) readFiles(ctx context.Context, source *models.SourceDefinition, failures map[string][]models.Failure) (map[string]string, map[string]string, []string) {
	paths := dedupe(source.Paths)

	if s.extractor == nil {
		for _, path := range paths {
			failures[stageDiscovery] = append(failures[stageDiscovery], models.Failure{
				Ref:    path,
				Reason: "file intake is not configured",
			})
		}
		return nil, nil, paths
	}

	fetched := make(map[string]string, len(paths))
	types := make(map[string]string, len(paths))

	for _, path := range paths {
		text, contentType, err := s.extractor.Extract(ctx, path)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", path).Msg("Failed to read file")
			fetched[path] = confluence.FetchErrorPrefix + err.Error()
			continue
		}
		fetched[path] = text
		types[path] = contentType
	}

	return fetched, types, paths
}

// discoverByTags resolves labels to page URLs through the tag discovery
// service. Each label fails independently; a missing client fails them all.
func (s *Service) discoverByTags(ctx context.Context, source *models.SourceDefinition, failures map[string][]models.Failure) []string {
	if s.tags == nil {
		for _, label := range source.Labels {
			failures[stageDiscovery] = append(failures[stageDiscovery], models.Failure{
				Ref:    label,
				Reason: "tag discovery is not configured",
			})
		}
		return nil
	}

	token, err := s.tags.GetToken(ctx, s.config.Coveo.UserEmail)
	if err != nil {
		s.logger.Warn().Err(err).Str("source", source.Name).Msg("Tag discovery token exchange failed")
		for _, label := range source.Labels {
			failures[stageDiscovery] = append(failures[stageDiscovery], models.Failure{
				Ref:    label,
				Reason: err.Error(),
			})
		}
		return nil
	}

	var urls []string
	for _, label := range source.Labels {
		links, err := s.tags.SearchLinks(ctx, label, token)
		if err != nil {
			s.logger.Warn().Err(err).Str("label", label).Msg("Tag search failed")
			failures[stageDiscovery] = append(failures[stageDiscovery], models.Failure{
				Ref:    label,
				Reason: err.Error(),
			})
			continue
		}
		urls = append(urls, links...)
	}

	return dedupe(urls)
}

// embedChunks embeds chunks in configured batch sizes and builds vector
// records for the successful batches. Returns the records and the set of item
// ids whose chunks were in a failed batch.
func (s *Service) embedChunks(ctx context.Context, chunks []models.Chunk, failures map[string][]models.Failure) ([]models.VectorRecord, map[string]bool) {
	failedItems := make(map[string]bool)
	if len(chunks) == 0 {
		return nil, failedItems
	}

	batchSize := s.config.Embeddings.BatchSize
	if batchSize <= 0 {
		batchSize = 32
	}

	records := make([]models.VectorRecord, 0, len(chunks))

	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			s.logger.Warn().Err(err).Int("batch_start", start).Msg("Dropping batch after embedding failure")
			for _, c := range batch {
				failures[stageEmbed] = append(failures[stageEmbed], models.Failure{
					Ref:    c.ID,
					Reason: err.Error(),
				})
				failedItems[c.Metadata["locator"]] = true
			}
			continue
		}

		for i, c := range batch {
			records = append(records, models.VectorRecord{
				ID:       c.ID,
				Values:   vectors[i],
				Metadata: c.Metadata,
			})
		}
	}

	return records, failedItems
}

// upsert ensures the index and writes the records. Index errors end the
// upsert phase but not the run; the confirmed write count is returned.
func (s *Service) upsert(ctx context.Context, records []models.VectorRecord, failures map[string][]models.Failure) int {
	if len(records) == 0 {
		return 0
	}

	indexName := s.config.Pinecone.IndexName

	if err := s.index.EnsureIndex(ctx, indexName, s.embedder.Dimension(), s.config.Pinecone.Metric); err != nil {
		s.logger.Warn().Err(err).Str("index", indexName).Msg("Index unavailable, skipping upsert")
		failures[stageUpsert] = append(failures[stageUpsert], models.Failure{
			Ref:    indexName,
			Reason: err.Error(),
		})
		return 0
	}

	written, err := s.index.Upsert(ctx, indexName, records)
	if err != nil {
		s.logger.Warn().Err(err).Int("written", written).Msg("Upsert failed partway")
		failures[stageUpsert] = append(failures[stageUpsert], models.Failure{
			Ref:    indexName,
			Reason: err.Error(),
		})
	}

	return written
}

// dedupe removes duplicate references preserving first-seen order
func dedupe(refs []string) []string {
	seen := make(map[string]bool, len(refs))
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
