package domain

import "time"

// UnreadCommentCount counts comments the viewer has not seen: those created
// strictly after max(lastViewedAt, ticketCreatedAt) by someone else.
// lastViewedAt is nil when the viewer never opened the ticket.
func UnreadCommentCount(ticketCreatedAt time.Time, lastViewedAt *time.Time, viewerID int64, comments []Comment) int {
	watermark := ticketCreatedAt
	if lastViewedAt != nil && lastViewedAt.After(watermark) {
		watermark = *lastViewedAt
	}
	unread := 0
	for _, c := range comments {
		if c.AuthorID == viewerID {
			continue
		}
		if c.CreatedAt.After(watermark) {
			unread++
		}
	}
	return unread
}
