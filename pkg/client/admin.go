package client

import (
	"context"

	"github.com/gmarkoss/tessera/internal/api"
	"github.com/gmarkoss/tessera/internal/core"
	"github.com/gmarkoss/tessera/internal/tasks"
)

// ListAuditsOpts filter the audit listing. Zero values mean no filter.
type ListAuditsOpts struct {
	Limit         uint
	CorrelationID string
	ClientID      string
	Fingerprint   string
}

// ListAudits retrieves the latest audit entries from the server.
func (c *Client) ListAudits(ctx context.Context, opts ListAuditsOpts) ([]core.AuditEntry, string, error) {
	builder := c.url().setPath(api.ListAuditsRoute)
	if opts.Limit > 0 {
		builder.addQueryParam("limit", opts.Limit)
	}
	if opts.CorrelationID != "" {
		builder.addQueryParam("correlation_id", opts.CorrelationID)
	}
	if opts.ClientID != "" {
		builder.addQueryParam("client_id", opts.ClientID)
	}
	if opts.Fingerprint != "" {
		builder.addQueryParam("fingerprint", opts.Fingerprint)
	}

	var resp []core.AuditEntry
	correlation, err := c.get(ctx, builder.build(), &resp)
	return resp, correlation, err
}

// ListActiveTickets retrieves metadata for tokens that are still live.
func (c *Client) ListActiveTickets(ctx context.Context) ([]core.TicketMetadata, string, error) {
	var resp []core.TicketMetadata
	correlation, err := c.get(ctx, c.url().
		setPath(api.ListActiveTicketsRoute).
		build(), &resp)
	return resp, correlation, err
}

// ListTasks retrieves the registered background tasks and their statuses.
func (c *Client) ListTasks(ctx context.Context) ([]tasks.TaskStatus, error) {
	var resp []tasks.TaskStatus
	_, err := c.get(ctx, c.url().
		setPath(api.ListTasksRoute).
		build(), &resp)
	return resp, err
}

// TriggerTask kicks off a background task out of schedule.
func (c *Client) TriggerTask(ctx context.Context, name string) error {
	_, err := c.post(ctx, c.url().
		setPath(api.AdminParent+"tasks/"+name+"/trigger").
		build(), nil)
	return err
}

// GetTaskLogs retrieves the captured output of a task's last run.
func (c *Client) GetTaskLogs(ctx context.Context, name string) ([]tasks.LogEntry, error) {
	var resp []tasks.LogEntry
	_, err := c.get(ctx, c.url().
		setPath(api.AdminParent+"tasks/"+name+"/logs").
		build(), &resp)
	return resp, err
}
