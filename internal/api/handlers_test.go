package api

import (
	"bytes"
	"encoding/json"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/telemetry-viewer/backend/internal/models"
	"github.com/telemetry-viewer/backend/internal/session"
	"github.com/telemetry-viewer/backend/internal/storage"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/xuri/excelize/v2"
)

func writeTelemetry(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"a.txt":     "Time;Alt\n0;10\n1;\n2;30\n",
		"b.txt":     "Time\tSpeed\n0\t5\n1\t6\n",
		"notes.csv": "Time,Alt\n0,99\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
}

func newTestHandler(t *testing.T, opts Options) (*Handler, *session.Manager) {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	sessionMgr := session.NewManager(nil)
	return NewHandler(store, sessionMgr, opts), sessionMgr
}

func loadCollection(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, collectionResponse) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/collections", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, h.HandleLoadCollection(c))

	var resp collectionResponse
	if rec.Code == http.StatusCreated {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func collectionContext(method, target, id string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c, rec
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

func TestHandleHealth(t *testing.T) {
	h, _ := newTestHandler(t, Options{Version: "1.2.3"})
	c, rec := collectionContext(http.MethodGet, "/api/health", "")

	require.NoError(t, h.HandleHealth(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"version":"1.2.3"`)
	assert.Contains(t, rec.Body.String(), `"sessions":0`)
}

func TestHandleLoadCollection(t *testing.T) {
	dir := t.TempDir()
	writeTelemetry(t, dir)

	t.Run("loads a directory by path", func(t *testing.T) {
		h, _ := newTestHandler(t, Options{AllowDirectoryLoad: true})
		rec, resp := loadCollection(t, h, `{"path":"`+filepath.ToSlash(dir)+`"}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		require.NotNil(t, resp.Session)
		assert.NotEmpty(t, resp.Session.ID)
		assert.Equal(t, 2, resp.Session.FileCount)
		assert.Equal(t, []string{"Alt", "Speed"}, resp.Columns)
		assert.Empty(t, resp.Warning)

		require.Len(t, resp.Files, 2)
		assert.Equal(t, "a", resp.Files[0].Name)
		assert.Equal(t, "semicolon", resp.Files[0].Delimiter)
		assert.Equal(t, 3, resp.Files[0].RowCount)
	})

	t.Run("directory loading disabled", func(t *testing.T) {
		h, _ := newTestHandler(t, Options{AllowDirectoryLoad: false})
		rec, _ := loadCollection(t, h, `{"path":"`+filepath.ToSlash(dir)+`"}`)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("missing directory", func(t *testing.T) {
		h, _ := newTestHandler(t, Options{AllowDirectoryLoad: true})
		missing := filepath.Join(dir, "does-not-exist")
		rec, _ := loadCollection(t, h, `{"path":"`+filepath.ToSlash(missing)+`"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "DIRECTORY_ERROR", decodeAPIError(t, rec).Code)
	})

	t.Run("path and workspace together", func(t *testing.T) {
		h, _ := newTestHandler(t, Options{AllowDirectoryLoad: true})
		rec, _ := loadCollection(t, h, `{"path":"x","workspaceId":"y"}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty body", func(t *testing.T) {
		h, _ := newTestHandler(t, Options{AllowDirectoryLoad: true})
		rec, _ := loadCollection(t, h, `{}`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown workspace", func(t *testing.T) {
		h, _ := newTestHandler(t, Options{})
		rec, _ := loadCollection(t, h, `{"workspaceId":"nope"}`)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("empty directory warns about columns", func(t *testing.T) {
		h, _ := newTestHandler(t, Options{AllowDirectoryLoad: true})
		rec, resp := loadCollection(t, h, `{"path":"`+filepath.ToSlash(t.TempDir())+`"}`)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Empty(t, resp.Columns)
		assert.Equal(t, "no columns found to display", resp.Warning)
	})
}

func TestWorkspaceUploadFlow(t *testing.T) {
	h, _ := newTestHandler(t, Options{MaxUploadFiles: 5})
	e := echo.New()

	// 1. Create workspace
	req := httptest.NewRequest(http.MethodPost, "/api/workspaces", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.HandleCreateWorkspace(e.NewContext(req, rec)))
	require.Equal(t, http.StatusCreated, rec.Code)

	var ws models.Workspace
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ws))
	require.NotEmpty(t, ws.ID)

	// 2. Upload files
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, _ := writer.CreateFormFile("file", "run1.txt")
	part.Write([]byte("Time;Alt\n0;1\n1;2\n"))
	part, _ = writer.CreateFormFile("file", "run2.txt")
	part.Write([]byte("Time;Alt\n0;3\n"))
	writer.Close()

	req = httptest.NewRequest(http.MethodPost, "/api/workspaces/"+ws.ID+"/files", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec = httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(ws.ID)
	require.NoError(t, h.HandleUploadFiles(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	// 3. List files
	c, rec = collectionContext(http.MethodGet, "/api/workspaces/"+ws.ID+"/files", ws.ID)
	require.NoError(t, h.HandleListWorkspaceFiles(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run1.txt"`)
	assert.Contains(t, rec.Body.String(), `"run2.txt"`)

	// 4. Load the workspace as a collection
	rec, resp := loadCollection(t, h, `{"workspaceId":"`+ws.ID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, ws.ID, resp.Session.WorkspaceID)
	assert.Equal(t, []string{"Alt"}, resp.Columns)
	assert.Len(t, resp.Files, 2)

	// 5. Delete workspace
	c, rec = collectionContext(http.MethodDelete, "/api/workspaces/"+ws.ID, ws.ID)
	require.NoError(t, h.HandleDeleteWorkspace(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	c, rec = collectionContext(http.MethodGet, "/api/workspaces/"+ws.ID+"/files", ws.ID)
	require.NoError(t, h.HandleListWorkspaceFiles(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleUploadFilesLimits(t *testing.T) {
	h, _ := newTestHandler(t, Options{MaxUploadFiles: 1})
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/workspaces", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.HandleCreateWorkspace(e.NewContext(req, rec)))
	var ws models.Workspace
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ws))

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	for _, name := range []string{"a.txt", "b.txt"} {
		part, _ := writer.CreateFormFile("file", name)
		part.Write([]byte("Time;Alt\n0;1\n"))
	}
	writer.Close()

	req = httptest.NewRequest(http.MethodPost, "/api/workspaces/"+ws.ID+"/files", body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec = httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(ws.ID)
	require.NoError(t, h.HandleUploadFiles(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too many files")
}

func TestCollectionQueries(t *testing.T) {
	dir := t.TempDir()
	writeTelemetry(t, dir)

	h, sessionMgr := newTestHandler(t, Options{AllowDirectoryLoad: true})
	_, resp := loadCollection(t, h, `{"path":"`+filepath.ToSlash(dir)+`"}`)
	id := resp.Session.ID

	t.Run("list", func(t *testing.T) {
		c, rec := collectionContext(http.MethodGet, "/api/collections", "")
		require.NoError(t, h.HandleListCollections(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), id)
	})

	t.Run("get", func(t *testing.T) {
		c, rec := collectionContext(http.MethodGet, "/api/collections/"+id, id)
		require.NoError(t, h.HandleGetCollection(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"rowCount":3`)
	})

	t.Run("columns", func(t *testing.T) {
		c, rec := collectionContext(http.MethodGet, "/api/collections/"+id+"/columns", id)
		require.NoError(t, h.HandleGetColumns(c))
		assert.Equal(t, http.StatusOK, rec.Code)

		var cols []string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cols))
		assert.Equal(t, []string{"Alt", "Speed"}, cols)
	})

	t.Run("series json", func(t *testing.T) {
		c, rec := collectionContext(http.MethodGet, "/api/collections/"+id+"/series?column=Alt", id)
		require.NoError(t, h.HandleGetSeries(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var out seriesResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.Equal(t, "Alt", out.Column)
		require.Len(t, out.Series, 1)
		assert.Equal(t, "a", out.Series[0].Name)
		assert.Equal(t, []models.Point{{X: 0, Y: 10}, {X: 2, Y: 30}}, out.Series[0].Points)
	})

	t.Run("series msgpack", func(t *testing.T) {
		c, rec := collectionContext(http.MethodGet, "/api/collections/"+id+"/series/msgpack?column=Speed", id)
		require.NoError(t, h.HandleGetSeriesMsgpack(c))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/msgpack", rec.Header().Get(echo.HeaderContentType))

		var out seriesResponse
		require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out.Series, 1)
		assert.Equal(t, "b", out.Series[0].Name)
		assert.Len(t, out.Series[0].Points, 2)
	})

	t.Run("missing column", func(t *testing.T) {
		c, rec := collectionContext(http.MethodGet, "/api/collections/"+id+"/series", id)
		require.NoError(t, h.HandleGetSeries(c))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "select a column for the Y axis", decodeAPIError(t, rec).Message)
	})

	t.Run("column with no data", func(t *testing.T) {
		c, rec := collectionContext(http.MethodGet, "/api/collections/"+id+"/series?column=Unknown", id)
		require.NoError(t, h.HandleGetSeries(c))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, errNoSeries.Error(), decodeAPIError(t, rec).Message)
	})

	t.Run("plot png", func(t *testing.T) {
		c, rec := collectionContext(http.MethodGet, "/api/collections/"+id+"/plot.png?column=Alt", id)
		require.NoError(t, h.HandleGetPlot(c))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))

		cfg, err := png.DecodeConfig(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, 1024, cfg.Width)
		assert.Equal(t, 600, cfg.Height)
	})

	t.Run("export xlsx", func(t *testing.T) {
		c, rec := collectionContext(http.MethodGet, "/api/collections/"+id+"/export.xlsx?column=Alt", id)
		require.NoError(t, h.HandleGetExport(c))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "Alt.xlsx")

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, []string{"a"}, f.GetSheetList())
	})

	t.Run("reload picks up new files", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "c.txt"), []byte("Time,Temp\n0,20\n"), 0644))

		c, rec := collectionContext(http.MethodPost, "/api/collections/"+id+"/reload", id)
		require.NoError(t, h.HandleReloadCollection(c))
		require.Equal(t, http.StatusOK, rec.Code)

		_, collection, ok := sessionMgr.Get(id)
		require.True(t, ok)
		assert.Equal(t, []string{"Alt", "Speed", "Temp"}, collection.Columns)
	})

	t.Run("delete", func(t *testing.T) {
		c, rec := collectionContext(http.MethodDelete, "/api/collections/"+id, id)
		require.NoError(t, h.HandleDeleteCollection(c))
		assert.Equal(t, http.StatusNoContent, rec.Code)

		c, rec = collectionContext(http.MethodGet, "/api/collections/"+id, id)
		require.NoError(t, h.HandleGetCollection(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUnknownCollection(t *testing.T) {
	h, _ := newTestHandler(t, Options{})

	handlers := map[string]echo.HandlerFunc{
		"get":     h.HandleGetCollection,
		"columns": h.HandleGetColumns,
		"series":  h.HandleGetSeries,
		"reload":  h.HandleReloadCollection,
		"delete":  h.HandleDeleteCollection,
	}
	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			c, rec := collectionContext(http.MethodGet, "/api/collections/missing?column=Alt", "missing")
			require.NoError(t, handler(c))
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	ErrorHandler(echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), c)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	apiErr := decodeAPIError(t, rec)
	assert.Equal(t, "HTTP_ERROR", apiErr.Code)
	assert.Equal(t, "nope", apiErr.Message)
}
