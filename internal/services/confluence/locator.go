package confluence

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrNoBaseURL means the URL has no recognizable scheme+host(+/wiki) prefix
	ErrNoBaseURL = errors.New("no base URL in reference")
	// ErrNoPageID means the URL has no /pages/<id> segment
	ErrNoPageID = errors.New("no page id in reference")
)

var (
	baseURLPattern = regexp.MustCompile(`^(https?://[^/]+)(/wiki)?(/|$)`)
	pageIDPattern  = regexp.MustCompile(`pages/(\d+)`)
)

// LocatorError marks a reference that cannot be resolved into a content-tree
// locator. Terminal and non-retryable: the caller skips the reference and
// continues with the rest of the batch.
type LocatorError struct {
	URL string
	Err error
}

func (e *LocatorError) Error() string {
	return fmt.Sprintf("unresolvable locator %q: %v", e.URL, e.Err)
}

func (e *LocatorError) Unwrap() error {
	return e.Err
}

// ResolveLocator parses a content-tree page reference into its base location
// and page id. The base is scheme+host plus the /wiki routing segment when
// present (Atlassian Cloud), so sibling page URLs share it as a prefix.
func ResolveLocator(rawURL string) (baseURL string, pageID string, err error) {
	m := baseURLPattern.FindStringSubmatch(rawURL)
	if m == nil {
		return "", "", &LocatorError{URL: rawURL, Err: ErrNoBaseURL}
	}
	baseURL = m[1] + m[2]

	id := pageIDPattern.FindStringSubmatch(rawURL)
	if id == nil {
		return "", "", &LocatorError{URL: rawURL, Err: ErrNoPageID}
	}

	return baseURL, id[1], nil
}

// PageURL reconstructs the canonical page URL for an id under a base location
func PageURL(baseURL, pageID string) string {
	return fmt.Sprintf("%s/pages/%s", baseURL, pageID)
}
