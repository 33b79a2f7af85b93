package endpoint

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// ServerErrorStatus is the status reported when the request could not be sent or no response
// was received.
const ServerErrorStatus = 555

// TransactionIDHeader is echoed into Response.TransactionID.
const TransactionIDHeader = "x-txid"

// Ref names an endpoint within a suite of the endpoint catalog.
type Ref struct {
	Suite    string
	Endpoint string
}

func (r Ref) String() string { return r.Suite + "." + r.Endpoint }

// Request is a fully resolved outbound request. It should not be modified after construction.
//
// At most one of Data and JSON is set. Data is either a map of form fields or a string body.
type Request struct {
	URI         string
	Method      Method
	Environment string
	Headers     map[string]string
	Params      map[string]interface{}
	Data        interface{}
	JSON        interface{}
}

// Response is the normalized result of sending a Request.
type Response struct {
	Environment string
	URL         string
	// Status is the HTTP status, or ServerErrorStatus if Error is set.
	Status  int
	Headers http.Header
	// Body is the response body parsed as JSON, or the body text if it was not JSON.
	Body    ldvalue.Value
	Content []byte
	// Error is set only if the transport failed. It is always a TransportError.
	Error         error
	TransactionID string
}

// Sender is the transport collaborator.
type Sender interface {
	Send(ctx context.Context, req Request) Response
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, req Request) Response

func (f SenderFunc) Send(ctx context.Context, req Request) Response { return f(ctx, req) }

// Failed returns true if the transport failed.
func (r Response) Failed() bool { return r.Error != nil }

// Describe renders the response for a test failure message. An empty message defaults to
// "Error Message:".
func (r Response) Describe(message string) string {
	if message == "" {
		message = "Error Message:"
	}
	var b strings.Builder
	b.WriteString(message)
	fmt.Fprintf(&b, "\nStatus Code: %d", r.Status)
	fmt.Fprintf(&b, "\nURL: %s", r.URL)
	fmt.Fprintf(&b, "\nsec-id: %s", r.Headers.Get("sec-id"))
	fmt.Fprintf(&b, "\nx-txid: %s", r.TransactionID)
	if r.Error != nil {
		fmt.Fprintf(&b, "\nError: %s", r.Error)
	}
	fmt.Fprintf(&b, "\nData: %s", r.Body.JSONString())
	return b.String()
}
