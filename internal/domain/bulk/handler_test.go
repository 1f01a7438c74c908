package bulk

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newBulkServer(t *testing.T) *echo.Echo {
	t.Helper()
	a, _ := newTestAdapter(t)
	e := echo.New()
	NewHandler(a).RegisterRoutes(e.Group("/api/v1/admin"))
	return e
}

func multipartUpload(t *testing.T, tag, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if tag != "" {
		if err := w.WriteField("type", tag); err != nil {
			t.Fatal(err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		part.Write([]byte(content))
	}
	w.Close()
	return &body, w.FormDataContentType()
}

func TestImportEndpoint(t *testing.T) {
	e := newBulkServer(t)

	body, contentType := multipartUpload(t, "fachbereiche", "upload.csv", "name\nKardiologie\nNephrologie\n")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/import", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"count":2`) {
		t.Errorf("expected row count in response, got %s", rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "Import erfolgreich") {
		t.Errorf("expected success message, got %s", rec.Body)
	}
}

func TestImportEndpoint_MissingParts(t *testing.T) {
	e := newBulkServer(t)

	// No file part.
	body, contentType := multipartUpload(t, "fachbereiche", "", "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/import", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing file: expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Datei oder Typ fehlt") {
		t.Errorf("expected German error message, got %s", rec.Body)
	}

	// No type field.
	body, contentType = multipartUpload(t, "", "upload.csv", "name\nX\n")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/admin/import", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing type: expected 400, got %d", rec.Code)
	}
}

func TestImportEndpoint_BadFormat(t *testing.T) {
	e := newBulkServer(t)

	body, contentType := multipartUpload(t, "fachbereiche", "upload.pdf", "x")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/import", body)
	req.Header.Set(echo.HeaderContentType, contentType)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestExportEndpoint(t *testing.T) {
	e := newBulkServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/export/laborwerte", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderContentDisposition); !strings.Contains(got, "laborwerte_export.csv") {
		t.Errorf("unexpected disposition: %q", got)
	}
	if !strings.HasPrefix(rec.Body.String(), "name,ebm_ziffer") {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}

func TestTemplateEndpoint(t *testing.T) {
	e := newBulkServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/export/laborprofile/template", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "name,fachbereich_id,beschreibung" {
		t.Errorf("unexpected template: %q", rec.Body.String())
	}
}

func TestExportEndpoint_BadType(t *testing.T) {
	e := newBulkServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/export/patients", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
