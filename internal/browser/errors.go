package browser

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationFailed marks a login sequence that did not reach the
	// authenticated dashboard, either because the console rejected the
	// credentials or because the landmark never appeared within the bound.
	ErrAuthenticationFailed = errors.New("target site authentication failed")

	// ErrInvalidCredentials is the explicit rejection case.
	ErrInvalidCredentials = fmt.Errorf("%w: credentials rejected", ErrAuthenticationFailed)

	// ErrBrowserUnavailable marks a failure to launch or talk to the
	// headless browser process itself.
	ErrBrowserUnavailable = errors.New("browser unavailable")
)
