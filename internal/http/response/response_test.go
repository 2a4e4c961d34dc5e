package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestBuildPagination(t *testing.T) {
	p := BuildPagination(2, 20, 41)
	if p.TotalPage != 3 || p.Page != 2 || p.Total != 41 {
		t.Fatalf("unexpected pagination: %+v", p)
	}
	if got := BuildPagination(0, 0, 10); got.Page != 1 || got.TotalPage != 0 {
		t.Fatalf("unexpected pagination for zero size: %+v", got)
	}
}

func TestErrorAttachesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-1")

	Error(c, CodeConflict, "duplicate")

	if w.Code != http.StatusOK {
		t.Fatalf("error responses keep http 200, got %d", w.Code)
	}
	var body struct {
		StatusCode int                    `json:"status_code"`
		Msg        string                 `json:"msg"`
		Data       map[string]interface{} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if body.StatusCode != CodeConflict || body.Msg != "duplicate" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Data["request_id"] != "req-1" {
		t.Fatalf("expected request id in data, got %+v", body.Data)
	}
}

func TestSuccessWithPageFlattensEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SuccessWithPage(c, []int{1, 2}, BuildPagination(1, 2, 5))

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if body["status_code"] != float64(CodeOK) || body["msg"] != "success" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
	pagination, ok := body["pagination"].(map[string]interface{})
	if !ok || pagination["total_page"] != float64(3) {
		t.Fatalf("unexpected pagination: %+v", body["pagination"])
	}
	if _, nested := body["Response"]; nested {
		t.Fatalf("embedded response must be flattened")
	}
}

func TestWrapErrorUnwraps(t *testing.T) {
	inner := errors.New("db down")
	err := WrapError(CodeInternal, "failed", inner)
	if !errors.Is(err, inner) || err.Error() != "failed: db down" {
		t.Fatalf("unexpected wrapped error: %v", err)
	}
	if WrapError(CodeBadRequest, "bad", nil).Error() != "bad" {
		t.Fatalf("message only error expected")
	}
}
