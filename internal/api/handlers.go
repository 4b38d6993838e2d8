package api

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/telemetry-viewer/backend/internal/export"
	"github.com/telemetry-viewer/backend/internal/models"
	"github.com/telemetry-viewer/backend/internal/parser"
	"github.com/telemetry-viewer/backend/internal/plot"
	"github.com/telemetry-viewer/backend/internal/storage"
	"github.com/vmihailenco/msgpack/v5"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Options configures a Handler.
type Options struct {
	Version            string
	Style              *models.PlotStyle
	AllowDirectoryLoad bool
	MaxUploadFiles     int
}

// Handler handles API requests.
type Handler struct {
	store    storage.Store
	sessions SessionManager
	style    *models.PlotStyle
	opts     Options
	version  string
}

// NewHandler creates a new API handler.
func NewHandler(store storage.Store, sessions SessionManager, opts Options) *Handler {
	style := opts.Style
	if style == nil {
		style = parser.DefaultPlotStyle()
	}
	return &Handler{
		store:    store,
		sessions: sessions,
		style:    style,
		opts:     opts,
		version:  opts.Version,
	}
}

type loadRequest struct {
	Path        string `json:"path"`
	WorkspaceID string `json:"workspaceId"`
}

type tableSummary struct {
	Name      string   `json:"name"`
	Path      string   `json:"path"`
	Delimiter string   `json:"delimiter"`
	Columns   []string `json:"columns"`
	RowCount  int      `json:"rowCount"`
}

type collectionResponse struct {
	Session     *models.CollectionSession `json:"session"`
	Files       []tableSummary            `json:"files"`
	Columns     []string                  `json:"columns"`
	Diagnostics []models.FileDiagnostic   `json:"diagnostics"`
	Warning     string                    `json:"warning,omitempty"`
}

type seriesResponse struct {
	Column string          `json:"column" msgpack:"column"`
	Series []models.Series `json:"series" msgpack:"series"`
}

func newCollectionResponse(sess *models.CollectionSession, c *models.FileCollection) collectionResponse {
	files := make([]tableSummary, 0, len(c.Tables))
	for _, t := range c.Tables {
		files = append(files, tableSummary{
			Name:      t.Name(),
			Path:      t.SourcePath,
			Delimiter: t.Delimiter.String(),
			Columns:   t.Columns,
			RowCount:  len(t.Rows),
		})
	}

	resp := collectionResponse{
		Session:     sess,
		Files:       files,
		Columns:     c.Columns,
		Diagnostics: c.Diagnostics,
	}
	if c.NoColumns() {
		resp.Warning = "no columns found to display"
	}
	return resp
}

// HandleCreateWorkspace creates an empty upload folder.
func (h *Handler) HandleCreateWorkspace(c echo.Context) error {
	ws, err := h.store.CreateWorkspace()
	if err != nil {
		return RespondWithError(c, NewInternalError("failed to create workspace", err))
	}
	return c.JSON(http.StatusCreated, ws)
}

// HandleUploadFiles stores every multipart "file" part in a workspace.
func (h *Handler) HandleUploadFiles(c echo.Context) error {
	id := c.Param("id")
	if _, err := h.store.GetWorkspace(id); err != nil {
		return RespondWithError(c, FromError(err, "workspace", id))
	}

	form, err := c.MultipartForm()
	if err != nil {
		return RespondWithError(c, NewBadRequestError("multipart form expected", err))
	}
	files := form.File["file"]
	if len(files) == 0 {
		return RespondWithError(c, NewBadRequestError("no files in request", nil))
	}
	if h.opts.MaxUploadFiles > 0 && len(files) > h.opts.MaxUploadFiles {
		return RespondWithError(c, NewBadRequestError(
			fmt.Sprintf("too many files: %d (max %d)", len(files), h.opts.MaxUploadFiles), nil))
	}

	saved := make([]*models.FileInfo, 0, len(files))
	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return RespondWithError(c, NewBadRequestError("failed to open upload", err))
		}
		info, err := h.store.SaveFile(id, fh.Filename, src)
		src.Close()
		if err != nil {
			return RespondWithError(c, FromError(err, "workspace", id))
		}
		saved = append(saved, info)
	}

	return c.JSON(http.StatusCreated, saved)
}

// HandleListWorkspaceFiles lists the files uploaded to a workspace.
func (h *Handler) HandleListWorkspaceFiles(c echo.Context) error {
	id := c.Param("id")
	files, err := h.store.ListFiles(id)
	if err != nil {
		return RespondWithError(c, FromError(err, "workspace", id))
	}
	return c.JSON(http.StatusOK, files)
}

// HandleDeleteWorkspace removes a workspace and its files.
func (h *Handler) HandleDeleteWorkspace(c echo.Context) error {
	id := c.Param("id")
	if err := h.store.DeleteWorkspace(id); err != nil {
		return RespondWithError(c, FromError(err, "workspace", id))
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleLoadCollection loads a directory, or a workspace, as a new collection.
func (h *Handler) HandleLoadCollection(c echo.Context) error {
	var req loadRequest
	if err := c.Bind(&req); err != nil {
		return RespondWithError(c, NewBadRequestError("invalid JSON body", err))
	}

	var dir string
	switch {
	case req.Path != "" && req.WorkspaceID != "":
		return RespondWithError(c, NewBadRequestError("specify either path or workspaceId", nil))
	case req.WorkspaceID != "":
		wsDir, err := h.store.GetWorkspaceDir(req.WorkspaceID)
		if err != nil {
			return RespondWithError(c, FromError(err, "workspace", req.WorkspaceID))
		}
		dir = wsDir
	case req.Path != "":
		if !h.opts.AllowDirectoryLoad {
			return RespondWithError(c, NewForbiddenError("loading server directories is disabled"))
		}
		dir = filepath.Clean(req.Path)
	default:
		return RespondWithError(c, NewBadRequestError("path or workspaceId is required", nil))
	}

	sess, collection, err := h.sessions.Load(dir, req.WorkspaceID)
	if err != nil {
		return RespondWithError(c, FromError(err, "directory", dir))
	}

	return c.JSON(http.StatusCreated, newCollectionResponse(sess, collection))
}

// HandleListCollections lists loaded collections.
func (h *Handler) HandleListCollections(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessions.List())
}

// HandleGetCollection returns the summary of a loaded collection.
func (h *Handler) HandleGetCollection(c echo.Context) error {
	id := c.Param("id")
	sess, collection, ok := h.sessions.Get(id)
	if !ok {
		return RespondWithError(c, NewNotFoundError("collection", id))
	}
	return c.JSON(http.StatusOK, newCollectionResponse(sess, collection))
}

// HandleReloadCollection reloads a collection from its directory.
func (h *Handler) HandleReloadCollection(c echo.Context) error {
	id := c.Param("id")
	sess, collection, err := h.sessions.Reload(id)
	if err != nil {
		return RespondWithError(c, FromError(err, "collection", id))
	}
	return c.JSON(http.StatusOK, newCollectionResponse(sess, collection))
}

// HandleDeleteCollection drops a loaded collection.
func (h *Handler) HandleDeleteCollection(c echo.Context) error {
	id := c.Param("id")
	if !h.sessions.Delete(id) {
		return RespondWithError(c, NewNotFoundError("collection", id))
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleGetColumns returns the derived column set of a collection.
func (h *Handler) HandleGetColumns(c echo.Context) error {
	id := c.Param("id")
	_, collection, ok := h.sessions.Get(id)
	if !ok {
		return RespondWithError(c, NewNotFoundError("collection", id))
	}
	return c.JSON(http.StatusOK, collection.Columns)
}

// buildSeries runs the series query for the request's column and treats an
// empty result as a validation failure.
func (h *Handler) buildSeries(c echo.Context) (string, []models.Series, *APIError) {
	id := c.Param("id")
	column := c.QueryParam("column")

	series, err := h.sessions.Series(id, column)
	if err != nil {
		return column, nil, FromError(err, "collection", id)
	}
	if len(series) == 0 {
		return column, nil, FromError(errNoSeries, "collection", id)
	}
	return column, series, nil
}

// HandleGetSeries returns the plot series for ?column= as JSON.
func (h *Handler) HandleGetSeries(c echo.Context) error {
	column, series, apiErr := h.buildSeries(c)
	if apiErr != nil {
		return RespondWithError(c, apiErr)
	}
	return c.JSON(http.StatusOK, seriesResponse{Column: column, Series: series})
}

// HandleGetSeriesMsgpack returns the plot series for ?column= as msgpack.
func (h *Handler) HandleGetSeriesMsgpack(c echo.Context) error {
	column, series, apiErr := h.buildSeries(c)
	if apiErr != nil {
		return RespondWithError(c, apiErr)
	}

	data, err := msgpack.Marshal(seriesResponse{Column: column, Series: series})
	if err != nil {
		return RespondWithError(c, NewInternalError("failed to encode msgpack", err))
	}

	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleGetPlot renders the plot series for ?column= as a PNG chart.
func (h *Handler) HandleGetPlot(c echo.Context) error {
	column, series, apiErr := h.buildSeries(c)
	if apiErr != nil {
		return RespondWithError(c, apiErr)
	}

	var buf bytes.Buffer
	if err := plot.Render(&buf, series, column, h.style); err != nil {
		return RespondWithError(c, FromError(err, "collection", c.Param("id")))
	}

	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// HandleGetExport returns the plot series for ?column= as an XLSX workbook.
func (h *Handler) HandleGetExport(c echo.Context) error {
	column, series, apiErr := h.buildSeries(c)
	if apiErr != nil {
		return RespondWithError(c, apiErr)
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, series, column); err != nil {
		return RespondWithError(c, FromError(err, "collection", c.Param("id")))
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", column+".xlsx"))
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}
