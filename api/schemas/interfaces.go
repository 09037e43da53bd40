package schemas

import (
	"context"
	"time"
)

// Driver is the minimal page-control surface the action executor needs. The
// browser session implements it against CDP; tests implement it with
// scripted fakes. Selectors starting with "//" are treated as XPath, all
// others as CSS.
type Driver interface {
	// Navigate loads the URL and waits for the document to become ready.
	Navigate(ctx context.Context, url string) error
	// Click dispatches a click on the first element matching the selector,
	// waiting for it to become visible first.
	Click(ctx context.Context, selector string) error
	// Fill clears the matched input and types the value into it.
	Fill(ctx context.Context, selector, value string) error
	// SelectByLabel picks the <option> whose label matches on the matched
	// <select> element.
	SelectByLabel(ctx context.Context, selector, label string) error
	// Press sends a single key (e.g. "\r") to the matched element.
	Press(ctx context.Context, selector, key string) error
	// WaitVisible blocks until the selector is visible or ctx expires.
	WaitVisible(ctx context.Context, selector string) error
	// IsVisible polls for the selector for at most within, reporting
	// presence without failing the sequence.
	IsVisible(ctx context.Context, selector string, within time.Duration) (bool, error)
	// AtLoginPage reports whether the page currently shows the target
	// site's login form, i.e. the authenticated session has expired.
	AtLoginPage(ctx context.Context) (bool, error)
}
