package mailapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/r3-fresh/tickets-management-sub000/internal/config"
	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
)

func snapshot() domain.TicketSnapshot {
	agent := domain.User{ID: 2, Name: "Ana", Email: "ana@example.com", IsActive: true}
	return domain.TicketSnapshot{
		Ticket: domain.Ticket{
			ID: 5, Code: "2025-0005", Title: "VPN down", Description: "Cannot connect <script>x</script>",
			Status: domain.TicketStatusOpen, Priority: domain.TicketPriorityHigh,
		},
		Creator:       domain.User{ID: 1, Name: "Luis", Email: "luis@example.com", IsActive: true},
		Actor:         domain.User{ID: 1, Name: "Luis", Email: "luis@example.com", IsActive: true},
		AttentionArea: domain.AttentionArea{ID: 1, Name: "Networks"},
		AreaAgents:    []domain.User{agent},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.NotificationConfig{
		MailAPIURL:    srv.URL + "/",
		MailAPIToken:  "secret",
		EmailFrom:     "helpdesk@example.com",
		PublicBaseURL: "https://help.example.com",
	}, zap.NewNop())
}

func TestNotifyCreatedPostsMessage(t *testing.T) {
	var got sendRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"thread_id":"t-1","message_id":"<m-1@mail>"}`))
	})

	res, err := client.NotifyCreated(context.Background(), snapshot())
	if err != nil {
		t.Fatalf("NotifyCreated: %v", err)
	}
	if res.ThreadID != "t-1" || res.MessageID != "<m-1@mail>" {
		t.Errorf("result = %+v", res)
	}
	if got.From != "helpdesk@example.com" || got.Subject != "[#2025-0005] VPN down" {
		t.Errorf("request = %+v", got)
	}
	if len(got.To) != 1 || got.To[0] != "ana@example.com" {
		t.Errorf("to = %v", got.To)
	}
	if strings.Contains(got.HTML, "<script>") {
		t.Error("raw HTML from the description must be escaped")
	}
	if !strings.Contains(got.HTML, "https://help.example.com/tickets/5") {
		t.Error("html should link to the ticket")
	}
}

func TestFollowUpCarriesThread(t *testing.T) {
	var got sendRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	})

	snap := snapshot()
	thread, first := "t-1", "<m-1@mail>"
	snap.Ticket.EmailThreadID = &thread
	snap.Ticket.InitialMessageID = &first

	res, err := client.NotifyValidationRequested(context.Background(), snap, "Fixed the **tunnel**")
	if err != nil {
		t.Fatalf("NotifyValidationRequested: %v", err)
	}
	if res.ThreadID != "" {
		t.Errorf("empty response body should yield empty result, got %+v", res)
	}
	if got.ThreadID != thread || got.InReplyTo != first {
		t.Errorf("threading = %q / %q", got.ThreadID, got.InReplyTo)
	}
	if !strings.Contains(got.HTML, "<strong>tunnel</strong>") {
		t.Errorf("markdown not rendered: %s", got.HTML)
	}
}

func TestNotifyReturnsErrorOnFailureStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := client.NotifyResolved(context.Background(), snapshot())
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected 429 error, got %v", err)
	}
}

func TestNotifySkipsWhenNobodyToReach(t *testing.T) {
	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	snap := snapshot()
	snap.AreaAgents = nil
	snap.Creator.IsActive = false
	if _, err := client.NotifyCreated(context.Background(), snap); err != nil {
		t.Fatalf("NotifyCreated: %v", err)
	}
	if called {
		t.Error("mail api should not be called without recipients")
	}
}
