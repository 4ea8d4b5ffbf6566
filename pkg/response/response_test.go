package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}
	return body
}

func TestOKPage_TotalPages(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	OKPage(c, []string{"a", "b"}, 21, 1, 10)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际=%d", w.Code)
	}
	body := decode(t, w)
	data := body["data"].(map[string]interface{})
	pg := data["pagination"].(map[string]interface{})
	if pg["total_pages"].(float64) != 3 {
		t.Errorf("期望 total_pages=3，实际=%v", pg["total_pages"])
	}
}

func TestNewPagination_ZeroPageSize(t *testing.T) {
	p := NewPagination(5, 1, 0)
	if p.TotalPages != 0 {
		t.Errorf("pageSize=0 时期望 total_pages=0，实际=%d", p.TotalPages)
	}
}

func TestConflict(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Conflict(c, 17005, "订单状态不允许此操作")

	if w.Code != http.StatusConflict {
		t.Fatalf("期望 409，实际=%d", w.Code)
	}
	body := decode(t, w)
	if body["code"].(float64) != 17005 {
		t.Errorf("期望 code=17005，实际=%v", body["code"])
	}
	if _, ok := body["data"]; ok {
		t.Error("错误响应不应包含 data 字段")
	}
}

func TestInternalError(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	InternalError(c)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("期望 500，实际=%d", w.Code)
	}
	if decode(t, w)["code"].(float64) != 50000 {
		t.Error("期望 code=50000")
	}
}

func TestAttachment(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Attachment(c, "timetable.ics", "text/calendar", []byte("BEGIN:VCALENDAR"))

	if got := w.Header().Get("Content-Disposition"); got != "attachment; filename=timetable.ics" {
		t.Errorf("Content-Disposition 不符合预期: %s", got)
	}
	if w.Body.String() != "BEGIN:VCALENDAR" {
		t.Errorf("响应体不符合预期: %s", w.Body.String())
	}
}

func TestAttachment_NonASCIIName(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Attachment(c, "订单.xlsx", "application/octet-stream", []byte("x"))

	if got := w.Header().Get("Content-Disposition"); got != "attachment; filename*=utf-8''%E8%AE%A2%E5%8D%95.xlsx" {
		t.Errorf("非 ASCII 文件名应使用 filename* 编码，实际=%s", got)
	}
}

func TestError_CarriesRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "rid-42")

	NotFound(c, 14001, "课程不存在")

	if got := decode(t, w)["request_id"]; got != "rid-42" {
		t.Errorf("错误响应应带 request_id，实际=%v", got)
	}

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Set("request_id", "rid-43")
	OK(c, nil)
	if _, ok := decode(t, w)["request_id"]; ok {
		t.Error("成功响应不应带 request_id")
	}
}
