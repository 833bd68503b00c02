package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Lead is a prospective customer.
type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Source    string    `json:"source"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Deal is an opportunity in the pipeline.
type Deal struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Amount    float64   `json:"amount"`
	Stage     string    `json:"stage"`
	OwnerID   string    `json:"ownerId"`
	CloseDate time.Time `json:"closeDate"`
}

// Task is a unit of work assigned to a user.
type Task struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	Priority   string    `json:"priority"`
	AssigneeID string    `json:"assigneeId"`
	DueDate    time.Time `json:"dueDate"`
}

// Invoice is a billing document.
type Invoice struct {
	ID       string    `json:"id"`
	Number   string    `json:"number"`
	Customer string    `json:"customer"`
	Amount   float64   `json:"amount"`
	Status   string    `json:"status"`
	DueDate  time.Time `json:"dueDate"`
}

// Contact is an address-book entry.
type Contact struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
}

// Ticket is a support request.
type Ticket struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Status    string    `json:"status"`
	Priority  string    `json:"priority"`
	Requester string    `json:"requester"`
	CreatedAt time.Time `json:"createdAt"`
}

// Resource is a typed client for one REST collection. All entity clients
// share this implementation; only the path and row type differ.
type Resource[T any] struct {
	client *Client
	path   string
}

// NewResource builds a resource client rooted at /<name>.
func NewResource[T any](client *Client, name string) *Resource[T] {
	return &Resource[T]{client: client, path: "/" + name}
}

// List fetches the whole collection, normalizing the response envelope.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	raw, err := r.client.getRaw(ctx, r.path)
	if err != nil {
		return nil, err
	}
	return decodeList[T](raw)
}

// Get fetches a single record by id.
func (r *Resource[T]) Get(ctx context.Context, id string) (*T, error) {
	var out T
	if err := r.client.do(ctx, http.MethodGet, r.path+"/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create posts a new record and returns the stored version.
func (r *Resource[T]) Create(ctx context.Context, record T) (*T, error) {
	var out T
	if err := r.client.do(ctx, http.MethodPost, r.path, record, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update patches an existing record.
func (r *Resource[T]) Update(ctx context.Context, id string, record T) (*T, error) {
	var out T
	if err := r.client.do(ctx, http.MethodPatch, r.path+"/"+id, record, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a record by id.
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	return r.client.do(ctx, http.MethodDelete, r.path+"/"+id, nil, nil)
}

// getRaw performs a GET and returns the undecoded body so list envelopes can
// be normalized by the caller.
func (c *Client) getRaw(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("GET %s: %w", path, ErrUnauthorized)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	return io.ReadAll(resp.Body)
}

// Resources bundles the typed clients the UI works with.
type Resources struct {
	Leads    *Resource[Lead]
	Deals    *Resource[Deal]
	Tasks    *Resource[Task]
	Invoices *Resource[Invoice]
	Contacts *Resource[Contact]
	Tickets  *Resource[Ticket]
}

// NewResources instantiates one client per backend collection.
func NewResources(client *Client) *Resources {
	return &Resources{
		Leads:    NewResource[Lead](client, "leads"),
		Deals:    NewResource[Deal](client, "deals"),
		Tasks:    NewResource[Task](client, "tasks"),
		Invoices: NewResource[Invoice](client, "invoices"),
		Contacts: NewResource[Contact](client, "contacts"),
		Tickets:  NewResource[Ticket](client, "tickets"),
	}
}
