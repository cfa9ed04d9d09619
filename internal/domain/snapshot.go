package domain

// TicketSnapshot is a ticket read together with the people and catalog
// rows a notification needs, captured right after a transition commits.
type TicketSnapshot struct {
	Ticket        Ticket
	Creator       User
	Assignee      *User
	Actor         User
	AttentionArea AttentionArea
	Category      *Category
	Subcategory   *Subcategory
	Campus        *Campus
	Watchers      []User
	AreaAgents    []User
}
