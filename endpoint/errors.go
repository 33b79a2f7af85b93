package endpoint

import "fmt"

// TemplateResolutionError means a path template referred to an argument that had no value.
type TemplateResolutionError struct {
	Template string
	Err      error
}

func (e TemplateResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve path template %q: %s", e.Template, e.Err)
}

func (e TemplateResolutionError) Unwrap() error { return e.Err }

// TransportError describes a failure to send a request or receive its response. It is never
// returned as an error value; the transport stores it in Response.Error.
type TransportError struct {
	Method Method
	URL    string
	Err    error
}

func (e TransportError) Error() string {
	return fmt.Sprintf("%s %s failed: %s", e.Method, e.URL, e.Err)
}

func (e TransportError) Unwrap() error { return e.Err }
