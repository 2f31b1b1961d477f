package confluence

import (
	"context"

	"github.com/ternarybob/arbor"
)

// Crawler discovers descendant page ids under a root by breadth-first
// traversal of paginated child listings.
type Crawler struct {
	client *Client
	logger arbor.ILogger
}

// NewCrawler creates a crawler over the given client
func NewCrawler(client *Client, logger arbor.ILogger) *Crawler {
	return &Crawler{
		client: client,
		logger: logger,
	}
}

type queueEntry struct {
	id    string
	depth int
}

// Crawl returns up to maxCount page ids reachable from rootID, root first.
// A node is expanded only while its depth is below maxDepth and the
// discovered count is below maxCount. The tree may contain cross-links, so a
// visited set prevents re-enqueuing ids reached via multiple parents.
//
// Listing failures for a node are logged and the node is treated as having no
// further children; siblings continue. Retries belong to the transport, not
// this layer.
func (c *Crawler) Crawl(ctx context.Context, baseURL, rootID string, maxDepth, maxCount int) ([]string, error) {
	if maxCount <= 0 {
		return nil, nil
	}

	visited := map[string]bool{rootID: true}
	discovered := []string{rootID}
	queue := []queueEntry{{id: rootID, depth: 0}}

	for len(queue) > 0 && len(discovered) < maxCount {
		entry := queue[0]
		queue = queue[1:]

		if entry.depth >= maxDepth {
			continue
		}

		start := 0
		for len(discovered) < maxCount {
			listing, err := c.client.ListChildren(ctx, baseURL, entry.id, start)
			if err != nil {
				if ctx.Err() != nil {
					return discovered, ctx.Err()
				}
				c.logger.Warn().
					Err(err).
					Str("page_id", entry.id).
					Int("start", start).
					Msg("Child listing failed, treating node as leaf")
				break
			}

			// A zero-result page means exhaustion even mid-traversal
			if len(listing.Results) == 0 {
				break
			}

			for _, child := range listing.Results {
				if child.ID == "" || visited[child.ID] {
					continue
				}
				visited[child.ID] = true
				discovered = append(discovered, child.ID)
				if len(discovered) >= maxCount {
					break
				}
				queue = append(queue, queueEntry{id: child.ID, depth: entry.depth + 1})
			}

			// A short page or a missing continuation marker is the last page
			if !listing.HasNext || len(listing.Results) < c.client.PageLimit() {
				break
			}
			start += len(listing.Results)
		}
	}

	c.logger.Debug().
		Str("root_id", rootID).
		Int("discovered", len(discovered)).
		Msg("Crawl completed")

	return discovered, nil
}
