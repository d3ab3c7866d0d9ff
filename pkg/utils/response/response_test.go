package response

import (
	"net/http"
	"testing"

	"github.com/kart-io/guard/pkg/errors"
)

func TestSuccess(t *testing.T) {
	r := Success(map[string]bool{"allowed": true})

	if !r.IsSuccess() {
		t.Error("IsSuccess() = false for success response")
	}
	if r.Code != 0 || r.HTTPCode != http.StatusOK {
		t.Errorf("unexpected codes: %d / %d", r.Code, r.HTTPCode)
	}
	if r.Data == nil {
		t.Error("Data dropped from success response")
	}
}

func TestErr(t *testing.T) {
	r := Err(errors.ErrPermissionDenied)

	if r.IsSuccess() {
		t.Error("IsSuccess() = true for error response")
	}
	if r.Code != errors.ErrPermissionDenied.Code {
		t.Errorf("Code = %d, want %d", r.Code, errors.ErrPermissionDenied.Code)
	}
	if r.HTTPCode != http.StatusForbidden {
		t.Errorf("HTTPCode = %d, want %d", r.HTTPCode, http.StatusForbidden)
	}
	if r.Message == "" {
		t.Error("Message empty in error response")
	}
}

func TestErrNilMeansSuccess(t *testing.T) {
	if r := Err(nil); !r.IsSuccess() {
		t.Error("Err(nil) should render success")
	}
}

func TestErrWithLang(t *testing.T) {
	en := ErrWithLang(errors.ErrNotFound, "en")
	zh := ErrWithLang(errors.ErrNotFound, "zh")

	if en.Message == "" || zh.Message == "" {
		t.Fatal("localized messages missing")
	}
	if en.Message == zh.Message {
		t.Error("en and zh messages identical, translation not applied")
	}
}

func TestHTTPStatusFallsBackToCategory(t *testing.T) {
	tests := []struct {
		name string
		code int
		want int
	}{
		{"request", errors.MakeCode(99, errors.CategoryRequest, 1), http.StatusBadRequest},
		{"auth", errors.MakeCode(99, errors.CategoryAuth, 1), http.StatusUnauthorized},
		{"permission", errors.MakeCode(99, errors.CategoryPermission, 1), http.StatusForbidden},
		{"resource", errors.MakeCode(99, errors.CategoryResource, 1), http.StatusNotFound},
		{"conflict", errors.MakeCode(99, errors.CategoryConflict, 1), http.StatusConflict},
		{"internal", errors.MakeCode(99, errors.CategoryInternal, 1), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ErrorWithCode(tt.code, "unregistered")
			if got := r.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPage(t *testing.T) {
	r := Page([]string{"a", "b", "c"}, 7, 1, 3)

	pd, ok := r.Data.(*PageData)
	if !ok {
		t.Fatalf("Data = %T, want *PageData", r.Data)
	}
	if pd.Total != 7 || pd.Page != 1 || pd.PageSize != 3 {
		t.Errorf("unexpected page data: %+v", pd)
	}
	if pd.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", pd.TotalPages)
	}
}

func TestWithRequestIDAndTimestamp(t *testing.T) {
	r := Success(nil).WithRequestID("req-1").WithTimestamp(1700000000000)
	if r.RequestID != "req-1" || r.Timestamp != 1700000000000 {
		t.Errorf("chained setters not applied: %+v", r)
	}
}
