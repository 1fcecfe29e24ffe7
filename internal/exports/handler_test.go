package exports

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m3ansal007/sales-ui-mirror-project-sub000/internal/shared/access"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/httpkit"
	"github.com/m3ansal007/sales-ui-mirror-project-sub000/platform/validator"

	"github.com/gin-gonic/gin"
)

func exportRouter(actor *access.Actor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewService(&pagedLeads{items: sampleLeads(3)}, members{owner}, nil), validator.New(), nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if actor != nil {
			c.Set(httpkit.ContextUserIDKey, actor.UserID)
			c.Set(httpkit.ContextTenantIDKey, actor.OrgID)
			c.Set(httpkit.ContextMemberIDKey, actor.MemberID)
			c.Set(httpkit.ContextRolesKey, []string{actor.Role})
		}
		c.Next()
	})
	r.GET("/leads.csv", h.ExportLeadsCSV)
	r.GET("/leads.xlsx", h.ExportLeadsXLSX)
	return r
}

func TestExportHandlers(t *testing.T) {
	tests := []struct {
		name        string
		actor       *access.Actor
		path        string
		wantStatus  int
		contentType string
	}{
		{"csv", &manager, "/leads.csv?status=new", http.StatusOK, "text/csv; charset=utf-8"},
		{"xlsx", &manager, "/leads.xlsx", http.StatusOK, xlsxContentType},
		{"bad filter", &manager, "/leads.csv?status=bogus", http.StatusBadRequest, ""},
		{"anonymous", nil, "/leads.csv", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			exportRouter(tt.actor).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.contentType == "" {
				return
			}
			if got := w.Header().Get("Content-Type"); got != tt.contentType {
				t.Fatalf("unexpected content type %q", got)
			}
			if got := w.Header().Get("X-Total-Count"); got != "3" {
				t.Fatalf("expected X-Total-Count 3, got %q", got)
			}
			if !strings.HasPrefix(w.Header().Get("Content-Disposition"), "attachment; filename=leads-") {
				t.Fatalf("unexpected disposition %q", w.Header().Get("Content-Disposition"))
			}
		})
	}
}
