package frontend_domain

import "github.com/itchan-dev/postfeed/shared/domain"

// CommonTemplateData holds fields that are common to all page templates.
// Available in templates as .Common via the TemplateData wrapper.
type CommonTemplateData struct {
	Error   string
	Session domain.Session
	ViewId  string
	// CSRFToken is sent back by the page when it closes its view.
	CSRFToken string
	// RetryURL is set when the page itself failed to load.
	RetryURL string
}
