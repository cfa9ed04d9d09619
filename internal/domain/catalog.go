package domain

import "time"

// AttentionArea is the team a ticket is routed to.
type AttentionArea struct {
	ID                 int64
	Name               string
	IsAcceptingTickets bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Category groups tickets by subject.
type Category struct {
	ID   int64
	Name string
}

// Subcategory refines a Category.
type Subcategory struct {
	ID         int64
	CategoryID int64
	Name       string
}

// Campus is the site the request comes from.
type Campus struct {
	ID   int64
	Name string
}

// WorkArea is the requester's own unit.
type WorkArea struct {
	ID   int64
	Name string
}
