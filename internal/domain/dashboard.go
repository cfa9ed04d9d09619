package domain

// TicketDashboard summarises the tickets visible to one viewer.
type TicketDashboard struct {
	ByStatus map[TicketStatus]int
	Total    int
	Unread   int
}
