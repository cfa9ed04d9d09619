package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/r3-fresh/tickets-management-sub000/internal/api/http/handlers"
	"github.com/r3-fresh/tickets-management-sub000/internal/auth"
	"github.com/r3-fresh/tickets-management-sub000/internal/domain"
	"github.com/r3-fresh/tickets-management-sub000/internal/observability"
	"github.com/r3-fresh/tickets-management-sub000/internal/service"
)

type userTable map[int64]domain.User

func (u userTable) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := u[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServer struct {
	app    *fiber.App
	tokens *auth.TokenManager
	users  userTable
}

// newTestServer wires the real middleware and routes. The ticket service has
// no stores, so only requests rejected before storage can be exercised.
func newTestServer(t *testing.T, redis handlers.Pinger) *testServer {
	t.Helper()
	users := userTable{
		1: {ID: 1, Name: "Admin", Role: domain.RoleAdmin, IsActive: true},
		4: {ID: 4, Name: "Requester", Role: domain.RoleUser, IsActive: true},
		9: {ID: 9, Name: "Gone", Role: domain.RoleAgent, IsActive: false},
	}
	tokens := auth.NewTokenManager("router-test", 5)
	metrics := observability.NewMetrics()
	svc := service.NewTicketService(service.TicketDependencies{Access: auth.NewContextAccess()})
	postgres := pingFunc(func(context.Context) error { return nil })

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("helpdesk", "test", postgres, redis),
		Tickets:        handlers.NewTicketsHandler(svc),
		Workflow:       handlers.NewWorkflowHandler(svc),
		Comments:       handlers.NewCommentsHandler(svc),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, users),
		Metrics:        metrics,
	})
	return &testServer{app: app, tokens: tokens, users: users}
}

func (s *testServer) do(t *testing.T, method, path string, userID int64, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if userID != 0 {
		token, _, err := s.tokens.GenerateToken(s.users[userID])
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var payload map[string]any
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Fatalf("decode %q: %v", raw, err)
		}
	}
	return resp.StatusCode, payload
}

func errorCode(payload map[string]any) string {
	e, _ := payload["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func TestErrorResponses(t *testing.T) {
	srv := newTestServer(t, nil)

	cases := []struct {
		name   string
		method string
		path   string
		user   int64
		body   string
		status int
		code   string
	}{
		{"no token", fiber.MethodGet, "/api/v1/tickets", 0, "", 401, "UNAUTHORIZED"},
		{"inactive user", fiber.MethodGet, "/api/v1/tickets", 9, "", 401, "UNAUTHORIZED"},
		{"blank ticket", fiber.MethodPost, "/api/v1/tickets", 4, `{"title":"  ","category_id":1,"attention_area_id":10}`, 400, "VALIDATION_FAILED"},
		{"malformed json", fiber.MethodPost, "/api/v1/tickets", 4, `{"title":`, 400, "VALIDATION_FAILED"},
		{"bad ticket id", fiber.MethodGet, "/api/v1/tickets/abc", 4, "", 400, "VALIDATION_FAILED"},
		{"agent route as requester", fiber.MethodPost, "/api/v1/tickets/1/assign-self", 4, "", 403, "FORBIDDEN"},
		{"admin route as requester", fiber.MethodPost, "/api/v1/tickets/1/assign", 4, `{"assignee_id":2}`, 403, "FORBIDDEN"},
		{"bad scope", fiber.MethodGet, "/api/v1/tickets?scope=everything", 4, "", 400, "VALIDATION_FAILED"},
		{"area scope as requester", fiber.MethodGet, "/api/v1/tickets?scope=area", 4, "", 403, "FORBIDDEN"},
		{"unknown route", fiber.MethodGet, "/nowhere", 0, "", 404, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := srv.do(t, tc.method, tc.path, tc.user, tc.body)
			if status != tc.status {
				t.Fatalf("status = %d, want %d (%v)", status, tc.status, payload)
			}
			if got := errorCode(payload); got != tc.code {
				t.Errorf("code = %q, want %q", got, tc.code)
			}
		})
	}
}

func TestHealthProbes(t *testing.T) {
	srv := newTestServer(t, nil)
	status, payload := srv.do(t, fiber.MethodGet, "/health/live", 0, "")
	if status != 200 || payload["status"] != "alive" {
		t.Errorf("live = %d %v", status, payload)
	}
	status, payload = srv.do(t, fiber.MethodGet, "/health/ready", 0, "")
	if status != 200 {
		t.Errorf("ready without redis = %d %v", status, payload)
	}

	down := newTestServer(t, pingFunc(func(context.Context) error { return errors.New("connection refused") }))
	status, payload = down.do(t, fiber.MethodGet, "/health/ready", 0, "")
	if status != 503 || errorCode(payload) != "DEPENDENCY_UNAVAILABLE" {
		t.Errorf("ready with redis down = %d %v", status, payload)
	}
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	srv := newTestServer(t, nil)
	srv.do(t, fiber.MethodGet, "/health/live", 0, "")
	srv.do(t, fiber.MethodGet, "/api/v1/tickets", 0, "")

	resp, err := srv.app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	body := string(raw)
	if !strings.Contains(body, `helpdesk_http_requests_total{method="GET",route="/health/live",status="200"} 1`) {
		t.Errorf("missing live request sample in:\n%s", body)
	}
	if !strings.Contains(body, `helpdesk_http_errors_total{code="UNAUTHORIZED"`) {
		t.Errorf("missing unauthorized error sample")
	}
}
