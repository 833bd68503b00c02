package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"crmdesk/internal/api"
	"crmdesk/internal/form"
	"crmdesk/internal/table"
)

const dateLayout = "2006-01-02"

// buildPanes wires every backend collection into a screen. The returned
// order drives the main menu.
func buildPanes(res *api.Resources) (map[string]pane, []string) {
	panes := map[string]pane{
		"leads":    newEntityPane(leadsConfig(res)),
		"deals":    newEntityPane(dealsConfig(res)),
		"tasks":    newEntityPane(tasksConfig(res)),
		"invoices": newEntityPane(invoicesConfig(res)),
		"contacts": newEntityPane(contactsConfig(res)),
		"tickets":  newEntityPane(ticketsConfig(res)),
	}
	order := []string{"leads", "deals", "tasks", "invoices", "contacts", "tickets"}
	return panes, order
}

func scalar(values map[string][]string, name string) string {
	if v := values[name]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func parseAmount(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("amount must be a number")
	}
	return amount, nil
}

func parseDate(raw string) time.Time {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// LEADS

func leadsConfig(res *api.Resources) entityConfig[api.Lead] {
	return entityConfig[api.Lead]{
		key:      "leads",
		name:     "Leads",
		resource: res.Leads,
		columns: []table.Column[api.Lead]{
			{ID: "name", Label: "Name", Sortable: true, Value: func(l api.Lead) string { return l.Name }},
			{ID: "email", Label: "Email", Sortable: true, Value: func(l api.Lead) string { return l.Email }},
			{ID: "phone", Label: "Phone", Value: func(l api.Lead) string { return l.Phone }},
			{ID: "source", Label: "Source", Sortable: true, Value: func(l api.Lead) string { return l.Source }},
			{ID: "status", Label: "Status", Sortable: true, Value: func(l api.Lead) string { return l.Status }},
		},
		fields: func(existing *api.Lead) []form.Field {
			f := []form.Field{
				{Name: "name", Label: "Name", Required: true},
				{Name: "email", Label: "Email", Kind: form.Email},
				{Name: "phone", Label: "Phone"},
				{Name: "source", Label: "Source", Kind: form.Select, Options: []string{"website", "referral", "outbound", "event"}},
				{Name: "status", Label: "Status", Kind: form.Select, Options: []string{"new", "contacted", "qualified", "lost"}},
			}
			if existing != nil {
				f[0].Value = []string{existing.Name}
				f[1].Value = []string{existing.Email}
				f[2].Value = []string{existing.Phone}
				f[3].Value = []string{existing.Source}
				f[4].Value = []string{existing.Status}
			}
			return f
		},
		steps: []form.Step{
			{Title: "Contact", Fields: []int{0, 1, 2}},
			{Title: "Qualification", Fields: []int{3, 4}},
		},
		validate: form.RequireFields,
		fromValues: func(values map[string][]string, existing *api.Lead) (api.Lead, error) {
			lead := api.Lead{}
			if existing != nil {
				lead = *existing
			}
			lead.Name = scalar(values, "name")
			lead.Email = scalar(values, "email")
			lead.Phone = scalar(values, "phone")
			lead.Source = scalar(values, "source")
			lead.Status = scalar(values, "status")
			return lead, nil
		},
		parseCSV: func(record []string) (api.Lead, error) {
			if len(record) < 5 {
				return api.Lead{}, fmt.Errorf("want 5 fields, got %d", len(record))
			}
			if strings.TrimSpace(record[0]) == "" {
				return api.Lead{}, fmt.Errorf("name required")
			}
			return api.Lead{
				Name: record[0], Email: record[1], Phone: record[2],
				Source: record[3], Status: record[4],
			}, nil
		},
		id: func(l api.Lead) string { return l.ID },
	}
}

// DEALS

func dealsConfig(res *api.Resources) entityConfig[api.Deal] {
	return entityConfig[api.Deal]{
		key:      "deals",
		name:     "Deals",
		resource: res.Deals,
		columns: []table.Column[api.Deal]{
			{ID: "name", Label: "Name", Sortable: true, Value: func(d api.Deal) string { return d.Name }},
			{
				ID: "amount", Label: "Amount", Numeric: true, Sortable: true,
				Value:   func(d api.Deal) string { return strconv.FormatFloat(d.Amount, 'f', 2, 64) },
				SortKey: func(d api.Deal) float64 { return d.Amount },
			},
			{ID: "stage", Label: "Stage", Sortable: true, Value: func(d api.Deal) string { return d.Stage }},
			{ID: "close", Label: "Close date", Sortable: true, Value: func(d api.Deal) string { return formatDate(d.CloseDate) }},
		},
		// Deal forms never validated on the dashboard; kept that way.
		fields: func(existing *api.Deal) []form.Field {
			f := []form.Field{
				{Name: "name", Label: "Name", Required: true},
				{Name: "amount", Label: "Amount", Kind: form.Number},
				{Name: "stage", Label: "Stage", Kind: form.Select, Options: []string{"prospecting", "proposal", "negotiation", "won", "lost"}},
				{Name: "close", Label: "Close date (YYYY-MM-DD)"},
			}
			if existing != nil {
				f[0].Value = []string{existing.Name}
				f[1].Value = []string{strconv.FormatFloat(existing.Amount, 'f', 2, 64)}
				f[2].Value = []string{existing.Stage}
				f[3].Value = []string{formatDate(existing.CloseDate)}
			}
			return f
		},
		fromValues: func(values map[string][]string, existing *api.Deal) (api.Deal, error) {
			deal := api.Deal{}
			if existing != nil {
				deal = *existing
			}
			amount, err := parseAmount(scalar(values, "amount"))
			if err != nil {
				return api.Deal{}, err
			}
			deal.Name = scalar(values, "name")
			deal.Amount = amount
			deal.Stage = scalar(values, "stage")
			deal.CloseDate = parseDate(scalar(values, "close"))
			return deal, nil
		},
		parseCSV: func(record []string) (api.Deal, error) {
			if len(record) < 4 {
				return api.Deal{}, fmt.Errorf("want 4 fields, got %d", len(record))
			}
			amount, err := parseAmount(record[1])
			if err != nil {
				return api.Deal{}, err
			}
			return api.Deal{Name: record[0], Amount: amount, Stage: record[2], CloseDate: parseDate(record[3])}, nil
		},
		id: func(d api.Deal) string { return d.ID },
	}
}

// TASKS

func tasksConfig(res *api.Resources) entityConfig[api.Task] {
	return entityConfig[api.Task]{
		key:      "tasks",
		name:     "Tasks",
		resource: res.Tasks,
		columns: []table.Column[api.Task]{
			{ID: "title", Label: "Title", Sortable: true, Value: func(t api.Task) string { return t.Title }},
			{ID: "status", Label: "Status", Sortable: true, Value: func(t api.Task) string { return t.Status }},
			{ID: "priority", Label: "Priority", Sortable: true, Value: func(t api.Task) string { return t.Priority }},
			{ID: "due", Label: "Due", Sortable: true, Value: func(t api.Task) string { return formatDate(t.DueDate) }},
		},
		fields: func(existing *api.Task) []form.Field {
			f := []form.Field{
				{Name: "title", Label: "Title", Required: true},
				{Name: "status", Label: "Status", Kind: form.Select, Options: []string{"todo", "in-progress", "done"}},
				{Name: "priority", Label: "Priority", Kind: form.Select, Options: []string{"low", "medium", "high"}},
				{Name: "due", Label: "Due date (YYYY-MM-DD)"},
			}
			if existing != nil {
				f[0].Value = []string{existing.Title}
				f[1].Value = []string{existing.Status}
				f[2].Value = []string{existing.Priority}
				f[3].Value = []string{formatDate(existing.DueDate)}
			}
			return f
		},
		validate: form.RequireFields,
		fromValues: func(values map[string][]string, existing *api.Task) (api.Task, error) {
			task := api.Task{}
			if existing != nil {
				task = *existing
			}
			task.Title = scalar(values, "title")
			task.Status = scalar(values, "status")
			task.Priority = scalar(values, "priority")
			task.DueDate = parseDate(scalar(values, "due"))
			return task, nil
		},
		parseCSV: func(record []string) (api.Task, error) {
			if len(record) < 4 {
				return api.Task{}, fmt.Errorf("want 4 fields, got %d", len(record))
			}
			return api.Task{Title: record[0], Status: record[1], Priority: record[2], DueDate: parseDate(record[3])}, nil
		},
		id: func(t api.Task) string { return t.ID },
	}
}

// INVOICES

func invoicesConfig(res *api.Resources) entityConfig[api.Invoice] {
	return entityConfig[api.Invoice]{
		key:      "invoices",
		name:     "Invoices",
		resource: res.Invoices,
		columns: []table.Column[api.Invoice]{
			{ID: "number", Label: "Number", Sortable: true, Value: func(i api.Invoice) string { return i.Number }},
			{ID: "customer", Label: "Customer", Sortable: true, Value: func(i api.Invoice) string { return i.Customer }},
			{
				ID: "amount", Label: "Amount", Numeric: true, Sortable: true,
				Value:   func(i api.Invoice) string { return strconv.FormatFloat(i.Amount, 'f', 2, 64) },
				SortKey: func(i api.Invoice) float64 { return i.Amount },
			},
			{ID: "status", Label: "Status", Sortable: true, Value: func(i api.Invoice) string { return i.Status }},
			{ID: "due", Label: "Due", Sortable: true, Value: func(i api.Invoice) string { return formatDate(i.DueDate) }},
		},
		fields: func(existing *api.Invoice) []form.Field {
			f := []form.Field{
				{Name: "number", Label: "Number", Required: true},
				{Name: "customer", Label: "Customer", Required: true},
				{Name: "amount", Label: "Amount", Kind: form.Number},
				{Name: "status", Label: "Status", Kind: form.Select, Options: []string{"draft", "sent", "paid", "overdue"}},
				{Name: "due", Label: "Due date (YYYY-MM-DD)"},
			}
			if existing != nil {
				f[0].Value = []string{existing.Number}
				f[1].Value = []string{existing.Customer}
				f[2].Value = []string{strconv.FormatFloat(existing.Amount, 'f', 2, 64)}
				f[3].Value = []string{existing.Status}
				f[4].Value = []string{formatDate(existing.DueDate)}
			}
			return f
		},
		validate: form.RequireFields,
		fromValues: func(values map[string][]string, existing *api.Invoice) (api.Invoice, error) {
			invoice := api.Invoice{}
			if existing != nil {
				invoice = *existing
			}
			amount, err := parseAmount(scalar(values, "amount"))
			if err != nil {
				return api.Invoice{}, err
			}
			invoice.Number = scalar(values, "number")
			invoice.Customer = scalar(values, "customer")
			invoice.Amount = amount
			invoice.Status = scalar(values, "status")
			invoice.DueDate = parseDate(scalar(values, "due"))
			return invoice, nil
		},
		parseCSV: func(record []string) (api.Invoice, error) {
			if len(record) < 5 {
				return api.Invoice{}, fmt.Errorf("want 5 fields, got %d", len(record))
			}
			amount, err := parseAmount(record[2])
			if err != nil {
				return api.Invoice{}, err
			}
			return api.Invoice{Number: record[0], Customer: record[1], Amount: amount, Status: record[3], DueDate: parseDate(record[4])}, nil
		},
		id: func(i api.Invoice) string { return i.ID },
	}
}

// CONTACTS

func contactsConfig(res *api.Resources) entityConfig[api.Contact] {
	return entityConfig[api.Contact]{
		key:      "contacts",
		name:     "Contacts",
		resource: res.Contacts,
		columns: []table.Column[api.Contact]{
			{ID: "name", Label: "Name", Sortable: true, Value: func(c api.Contact) string { return c.Name }},
			{ID: "email", Label: "Email", Sortable: true, Value: func(c api.Contact) string { return c.Email }},
			{ID: "phone", Label: "Phone", Value: func(c api.Contact) string { return c.Phone }},
			{ID: "company", Label: "Company", Sortable: true, Value: func(c api.Contact) string { return c.Company }},
		},
		fields: func(existing *api.Contact) []form.Field {
			f := []form.Field{
				{Name: "name", Label: "Name", Required: true},
				{Name: "email", Label: "Email", Kind: form.Email},
				{Name: "phone", Label: "Phone"},
				{Name: "company", Label: "Company"},
			}
			if existing != nil {
				f[0].Value = []string{existing.Name}
				f[1].Value = []string{existing.Email}
				f[2].Value = []string{existing.Phone}
				f[3].Value = []string{existing.Company}
			}
			return f
		},
		fromValues: func(values map[string][]string, existing *api.Contact) (api.Contact, error) {
			contact := api.Contact{}
			if existing != nil {
				contact = *existing
			}
			contact.Name = scalar(values, "name")
			contact.Email = scalar(values, "email")
			contact.Phone = scalar(values, "phone")
			contact.Company = scalar(values, "company")
			return contact, nil
		},
		parseCSV: func(record []string) (api.Contact, error) {
			if len(record) < 4 {
				return api.Contact{}, fmt.Errorf("want 4 fields, got %d", len(record))
			}
			if strings.TrimSpace(record[0]) == "" {
				return api.Contact{}, fmt.Errorf("name required")
			}
			return api.Contact{Name: record[0], Email: record[1], Phone: record[2], Company: record[3]}, nil
		},
		id: func(c api.Contact) string { return c.ID },
	}
}

// TICKETS

func ticketsConfig(res *api.Resources) entityConfig[api.Ticket] {
	return entityConfig[api.Ticket]{
		key:      "tickets",
		name:     "Tickets",
		resource: res.Tickets,
		columns: []table.Column[api.Ticket]{
			{ID: "subject", Label: "Subject", Sortable: true, Value: func(t api.Ticket) string { return t.Subject }},
			{ID: "status", Label: "Status", Sortable: true, Value: func(t api.Ticket) string { return t.Status }},
			{ID: "priority", Label: "Priority", Sortable: true, Value: func(t api.Ticket) string { return t.Priority }},
			{ID: "requester", Label: "Requester", Sortable: true, Value: func(t api.Ticket) string { return t.Requester }},
		},
		fields: func(existing *api.Ticket) []form.Field {
			f := []form.Field{
				{Name: "subject", Label: "Subject", Required: true},
				{Name: "status", Label: "Status", Kind: form.Select, Options: []string{"open", "pending", "solved", "closed"}},
				{Name: "priority", Label: "Priority", Kind: form.Select, Options: []string{"low", "normal", "high", "urgent"}},
				{Name: "requester", Label: "Requester"},
			}
			if existing != nil {
				f[0].Value = []string{existing.Subject}
				f[1].Value = []string{existing.Status}
				f[2].Value = []string{existing.Priority}
				f[3].Value = []string{existing.Requester}
			}
			return f
		},
		validate: form.RequireFields,
		fromValues: func(values map[string][]string, existing *api.Ticket) (api.Ticket, error) {
			ticket := api.Ticket{}
			if existing != nil {
				ticket = *existing
			}
			ticket.Subject = scalar(values, "subject")
			ticket.Status = scalar(values, "status")
			ticket.Priority = scalar(values, "priority")
			ticket.Requester = scalar(values, "requester")
			return ticket, nil
		},
		parseCSV: func(record []string) (api.Ticket, error) {
			if len(record) < 4 {
				return api.Ticket{}, fmt.Errorf("want 4 fields, got %d", len(record))
			}
			return api.Ticket{Subject: record[0], Status: record[1], Priority: record[2], Requester: record[3]}, nil
		},
		id: func(t api.Ticket) string { return t.ID },
	}
}
