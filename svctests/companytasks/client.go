// Package companytasks holds the company tasks service tests and the client helpers they share
// with the delete_all_company_tasks utility.
package companytasks

import (
	"context"
	"fmt"

	"github.com/apitaf/apitaf/endpoint"
	"github.com/apitaf/apitaf/overlay"
	"github.com/apitaf/apitaf/request"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// SuiteName is the endpoint catalog entry for the service.
const SuiteName = "company_tasks_svc"

//nolint:gochecknoglobals
var (
	healthEndpoint = endpoint.Ref{Suite: SuiteName, Endpoint: "health"}
	createEndpoint = endpoint.Ref{Suite: SuiteName, Endpoint: "createCompanyTasks"}
	searchEndpoint = endpoint.Ref{Suite: SuiteName, Endpoint: "getCompanyTasks"}
	updateEndpoint = endpoint.Ref{Suite: SuiteName, Endpoint: "updateCompanyTasks"}
	deleteEndpoint = endpoint.Ref{Suite: SuiteName, Endpoint: "deleteCompanyTasks"}
	countEndpoint  = endpoint.Ref{Suite: SuiteName, Endpoint: "countCompanyTasks"}
)

// UnexpectedStatusError is returned by the Client's checked calls.
type UnexpectedStatusError struct {
	Expected int
	Response endpoint.Response
}

func (e UnexpectedStatusError) Error() string {
	return e.Response.Describe(fmt.Sprintf("Unexpected Response Status, expected %d.", e.Expected))
}

// Client calls the company tasks endpoints. Every call takes the overlay that supplies the
// path arguments and headers; the call-specific body replaces the overlay's payload.
//
// Methods whose name ends in "Checked" return an UnexpectedStatusError unless the status is 200.
type Client struct {
	caller request.Caller
	opts   request.Options
}

func NewClient(caller request.Caller) *Client {
	return &Client{caller: caller}
}

// WithOptions returns a client whose calls start from opts, such as command args given to a
// utility. The Overlay field of each call's options is always the call's own overlay.
func (c *Client) WithOptions(opts request.Options) *Client {
	return &Client{caller: c.caller, opts: opts}
}

func (c *Client) call(ctx context.Context, ref endpoint.Ref, o *overlay.Overlay) (endpoint.Response, error) {
	opts := c.opts
	opts.Overlay = o
	return c.caller.Call(ctx, ref, opts)
}

func (c *Client) checked(ctx context.Context, ref endpoint.Ref, o *overlay.Overlay) (endpoint.Response, error) {
	resp, err := c.call(ctx, ref, o)
	if err != nil {
		return resp, err
	}
	if resp.Status != 200 {
		return resp, UnexpectedStatusError{Expected: 200, Response: resp}
	}
	return resp, nil
}

func (c *Client) Health(ctx context.Context, o *overlay.Overlay) (endpoint.Response, error) {
	return c.call(ctx, healthEndpoint, o)
}

// Create sends the overlay's own json payload, a list of proto-tasks.
func (c *Client) Create(ctx context.Context, o *overlay.Overlay) (endpoint.Response, error) {
	return c.call(ctx, createEndpoint, o)
}

func (c *Client) CreateChecked(ctx context.Context, o *overlay.Overlay) (endpoint.Response, error) {
	return c.checked(ctx, createEndpoint, o)
}

// Search sends searchArgs as the body. If searchArgs is nil the overlay's payload is used.
func (c *Client) Search(ctx context.Context, o *overlay.Overlay, searchArgs interface{}) (endpoint.Response, error) {
	return c.call(ctx, searchEndpoint, withJSON(o, searchArgs))
}

func (c *Client) SearchChecked(ctx context.Context, o *overlay.Overlay, searchArgs interface{}) (endpoint.Response, error) {
	return c.checked(ctx, searchEndpoint, withJSON(o, searchArgs))
}

// Update sends tasks as the body. A non-empty ueid replaces the ueid path argument.
func (c *Client) Update(ctx context.Context, o *overlay.Overlay, ueid string, tasks interface{}) (endpoint.Response, error) {
	if ueid != "" {
		o = o.WithArg("ueid", ueid)
	}
	return c.call(ctx, updateEndpoint, withJSON(o, tasks))
}

func (c *Client) UpdateChecked(ctx context.Context, o *overlay.Overlay, ueid string, tasks interface{}) (endpoint.Response, error) {
	if ueid != "" {
		o = o.WithArg("ueid", ueid)
	}
	return c.checked(ctx, updateEndpoint, withJSON(o, tasks))
}

// Delete sends the list of task ids as the body.
func (c *Client) Delete(ctx context.Context, o *overlay.Overlay, ids []string) (endpoint.Response, error) {
	return c.call(ctx, deleteEndpoint, withJSON(o, idList(ids)))
}

func (c *Client) DeleteChecked(ctx context.Context, o *overlay.Overlay, ids []string) (endpoint.Response, error) {
	return c.checked(ctx, deleteEndpoint, withJSON(o, idList(ids)))
}

// Count returns the number of tasks the company has.
func (c *Client) Count(ctx context.Context, o *overlay.Overlay, companyID string) (int, error) {
	if companyID != "" {
		o = o.WithArg("companyid", companyID)
	}
	resp, err := c.checked(ctx, countEndpoint, o.WithJSON(map[string]interface{}{"companyid": companyID}))
	if err != nil {
		return 0, err
	}
	return resp.Body.GetByKey("content").IntValue(), nil
}

// DeleteAll removes every task belonging to companyID: it counts them, searches with a page size
// equal to the count, deletes the ids found, and then verifies the count is zero. It returns the
// number of tasks the company had.
func (c *Client) DeleteAll(ctx context.Context, o *overlay.Overlay, companyID string) (int, error) {
	o = o.WithArg("companyid", companyID)
	count, err := c.Count(ctx, o, companyID)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return 0, nil
	}
	search := map[string]interface{}{
		"companyid":   companyID,
		"pageRequest": map[string]interface{}{"size": count},
	}
	resp, err := c.SearchChecked(ctx, o, search)
	if err != nil {
		return count, err
	}
	if ids := TaskIDs(resp.Body.GetByKey("content")); len(ids) > 0 {
		if _, err := c.DeleteChecked(ctx, o, ids); err != nil {
			return count, err
		}
	}
	remaining, err := c.Count(ctx, o, companyID)
	if err != nil {
		return count, err
	}
	if remaining != 0 {
		return count, fmt.Errorf("company %s still has %d tasks after delete", companyID, remaining)
	}
	return count, nil
}

// TaskIDs returns the "id" of each task in a list.
func TaskIDs(tasks ldvalue.Value) []string {
	ids := make([]string, 0, tasks.Count())
	for i := 0; i < tasks.Count(); i++ {
		if id := tasks.GetByIndex(i).GetByKey("id"); id.IsString() {
			ids = append(ids, id.StringValue())
		}
	}
	return ids
}

func withJSON(o *overlay.Overlay, body interface{}) *overlay.Overlay {
	if body == nil {
		return o
	}
	return o.WithJSON(body)
}

func idList(ids []string) []interface{} {
	ret := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		ret = append(ret, id)
	}
	return ret
}
