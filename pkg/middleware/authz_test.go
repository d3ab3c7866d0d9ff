package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/guard/pkg/acl"
	"github.com/kart-io/guard/pkg/authz"
	"github.com/kart-io/guard/pkg/errors"
	"github.com/kart-io/guard/pkg/token"
	"github.com/kart-io/guard/pkg/utils/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// decisionRouter builds a guarded router where alice may read reports,
// the admin role may do anything, and the blocked role is vetoed.
func decisionRouter(principal *token.Principal, opts ...AuthzOption) *gin.Engine {
	list := acl.NewList().
		Permit("alice", "reports", "read").
		Permit("admin", nil, nil).
		Deny("blocked", nil, nil)

	r := gin.New()
	if principal != nil {
		r.Use(func(c *gin.Context) {
			c.Set(token.PrincipalKey, principal)
			c.Next()
		})
	}
	r.Use(Authz(authz.NewListAuthorizer(list), opts...))

	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, response.Success(nil))
	}
	r.GET("/", handler)
	r.GET("/api/reports", handler)
	r.DELETE("/api/reports/:id", handler)
	r.POST("/api/ingest", handler)
	r.GET("/healthz", handler)
	return r
}

func doRequest(t *testing.T, r *gin.Engine, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) *response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return &resp
}

func TestAuthzAllowsPermittedRequest(t *testing.T) {
	r := decisionRouter(&token.Principal{Subject: "alice"})

	w := doRequest(t, r, http.MethodGet, "/api/reports")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAuthzDeniesUnpermittedAction(t *testing.T) {
	r := decisionRouter(&token.Principal{Subject: "alice"})

	w := doRequest(t, r, http.MethodDelete, "/api/reports/7")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	if resp := decodeResponse(t, w); resp.Code != errors.ErrPermissionDenied.Code {
		t.Errorf("code = %d, want %d", resp.Code, errors.ErrPermissionDenied.Code)
	}
}

func TestAuthzRoleGrantsAccess(t *testing.T) {
	r := decisionRouter(&token.Principal{Subject: "carol", Roles: []string{"admin"}})

	w := doRequest(t, r, http.MethodDelete, "/api/reports/7")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAuthzRoleVetoOverridesGrant(t *testing.T) {
	r := decisionRouter(&token.Principal{Subject: "dave", Roles: []string{"admin", "blocked"}})

	w := doRequest(t, r, http.MethodGet, "/api/reports")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestAuthzEmptySecurableFailsClosed(t *testing.T) {
	r := decisionRouter(&token.Principal{Subject: "alice"})

	w := doRequest(t, r, http.MethodGet, "/")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestAuthzRejectsMissingPrincipal(t *testing.T) {
	r := decisionRouter(nil)

	w := doRequest(t, r, http.MethodGet, "/api/reports")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if resp := decodeResponse(t, w); resp.Code != errors.ErrUnauthorized.Code {
		t.Errorf("code = %d, want %d", resp.Code, errors.ErrUnauthorized.Code)
	}
}

func TestAuthzSkipsConfiguredPaths(t *testing.T) {
	r := decisionRouter(nil, WithAuthzSkipPaths("/healthz"))

	w := doRequest(t, r, http.MethodGet, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAuthzCustomExtractors(t *testing.T) {
	r := decisionRouter(&token.Principal{Subject: "alice"},
		WithSecurableExtractor(func(c *gin.Context) string { return "reports" }),
		WithActionExtractor(func(c *gin.Context) string { return "read" }),
	)

	w := doRequest(t, r, http.MethodPost, "/api/ingest")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAuthzNilAuthorizer(t *testing.T) {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(token.PrincipalKey, &token.Principal{Subject: "alice"})
		c.Next()
	})
	r.Use(Authz(nil))
	r.GET("/api/reports", func(c *gin.Context) {
		c.JSON(http.StatusOK, response.Success(nil))
	})

	w := doRequest(t, r, http.MethodGet, "/api/reports")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestDefaultSecurableExtractor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/v1/reports/42", "reports"},
		{"/api/reports", "reports"},
		{"/v2/decisions", "decisions"},
		{"/reports/7/comments", "reports"},
		{"/", ""},
	}

	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, tt.path, nil)
		if got := defaultSecurableExtractor(c); got != tt.want {
			t.Errorf("securable(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestDefaultActionExtractor(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{http.MethodGet, "read"},
		{http.MethodHead, "read"},
		{http.MethodPost, "create"},
		{http.MethodPut, "update"},
		{http.MethodPatch, "update"},
		{http.MethodDelete, "delete"},
		{http.MethodOptions, "options"},
	}

	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(tt.method, "/api/reports", nil)
		if got := defaultActionExtractor(c); got != tt.want {
			t.Errorf("action(%s) = %q, want %q", tt.method, got, tt.want)
		}
	}
}

func TestWithActionMapping(t *testing.T) {
	r := decisionRouter(&token.Principal{Subject: "alice"},
		WithActionMapping(ActionMapping{"POST": "read"}),
		WithSecurableExtractor(func(c *gin.Context) string { return "reports" }),
	)

	w := doRequest(t, r, http.MethodPost, "/api/ingest")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
}
