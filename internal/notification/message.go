package notification

import (
	"fmt"
	"strings"

	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
)

// Recipients are e-mail addresses split into direct and carbon-copy lists.
type Recipients struct {
	To []string
	CC []string
}

// Empty reports whether nobody would receive the message.
func (r Recipients) Empty() bool {
	return len(r.To) == 0 && len(r.CC) == 0
}

// RecipientsFor applies the routing rules of each notification kind.
// Addresses are de-duplicated case-insensitively; an address already in To
// is dropped from CC. Inactive users and blank addresses are skipped.
func RecipientsFor(kind Kind, snap domain.TicketSnapshot) Recipients {
	var to, cc []domain.User

	switch kind {
	case KindCreated:
		to = snap.AreaAgents
		cc = append([]domain.User{snap.Creator}, snap.Watchers...)
	case KindAssigned:
		if snap.Assignee != nil {
			to = []domain.User{*snap.Assignee}
		}
		cc = []domain.User{snap.Creator}
	case KindValidationRequested:
		to = append([]domain.User{snap.Creator}, snap.AreaAgents...)
		cc = snap.Watchers
	case KindResolved, KindRejected:
		if snap.Assignee != nil {
			to = []domain.User{*snap.Assignee}
		} else {
			to = snap.AreaAgents
		}
		cc = snap.Watchers
	}

	seen := map[string]bool{}
	return Recipients{
		To: collectAddresses(to, seen),
		CC: collectAddresses(cc, seen),
	}
}

func collectAddresses(users []domain.User, seen map[string]bool) []string {
	var out []string
	for _, u := range users {
		addr := strings.TrimSpace(u.Email)
		if addr == "" || !u.IsActive {
			continue
		}
		key := strings.ToLower(addr)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, addr)
	}
	return out
}

// Message is a provider-neutral outbound notification.
type Message struct {
	Kind       Kind
	Subject    string
	Recipients Recipients
	// Headline is a one-line summary shown above the ticket details.
	Headline string
	// Body is markdown: the ticket description on creation, the optional
	// note otherwise.
	Body      string
	TicketURL string
	ThreadID  string
	InReplyTo string
	Snapshot  domain.TicketSnapshot
}

// Compose builds the message for kind. Follow-ups reply on the ticket's
// existing thread when one was recorded at creation.
func Compose(kind Kind, snap domain.TicketSnapshot, note, publicBaseURL string) Message {
	t := snap.Ticket
	msg := Message{
		Kind:       kind,
		Recipients: RecipientsFor(kind, snap),
		Subject:    fmt.Sprintf("[#%s] %s", t.Code, t.Title),
		TicketURL:  fmt.Sprintf("%s/tickets/%d", strings.TrimRight(publicBaseURL, "/"), t.ID),
		Snapshot:   snap,
	}

	switch kind {
	case KindCreated:
		msg.Headline = fmt.Sprintf("%s opened a new ticket for %s.", snap.Creator.Name, snap.AttentionArea.Name)
		msg.Body = t.Description
	case KindAssigned:
		name := "an agent"
		if snap.Assignee != nil {
			name = snap.Assignee.Name
		}
		msg.Headline = fmt.Sprintf("%s assigned the ticket to %s.", snap.Actor.Name, name)
	case KindValidationRequested:
		msg.Headline = fmt.Sprintf("%s marked the ticket as solved and asks %s to confirm.", snap.Actor.Name, snap.Creator.Name)
		msg.Body = note
	case KindResolved:
		msg.Headline = fmt.Sprintf("%s confirmed the solution. The ticket is resolved.", snap.Actor.Name)
	case KindRejected:
		msg.Headline = fmt.Sprintf("%s rejected the proposed solution. The ticket is back in progress.", snap.Actor.Name)
	}

	if kind != KindCreated && t.EmailThreadID != nil {
		msg.Subject = "Re: " + msg.Subject
		msg.ThreadID = *t.EmailThreadID
		if t.InitialMessageID != nil {
			msg.InReplyTo = *t.InitialMessageID
		}
	}
	return msg
}
