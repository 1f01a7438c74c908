package bulk

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	adapter *Adapter
}

func NewHandler(adapter *Adapter) *Handler {
	return &Handler{adapter: adapter}
}

// RegisterRoutes wires the import/export surface onto the admin group.
func (h *Handler) RegisterRoutes(admin *echo.Group) {
	admin.POST("/import", h.Import)
	admin.GET("/export/:type", h.Export)
	admin.GET("/export/:type/template", h.Template)
}

func (h *Handler) Import(c echo.Context) error {
	tag := c.FormValue("type")
	fileHeader, err := c.FormFile("file")
	if err != nil || tag == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Datei oder Typ fehlt")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "upload not readable")
	}
	defer f.Close()

	count, err := h.adapter.Import(c.Request().Context(), tag, fileHeader.Filename, f)
	if err != nil {
		if errors.Is(err, ErrUnsupportedType) || errors.Is(err, ErrUnsupportedFormat) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Fehler beim Speichern der Daten")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Import erfolgreich",
		"count":   count,
	})
}

func (h *Handler) Export(c echo.Context) error {
	tag := c.Param("type")
	csv, err := h.adapter.Export(c.Request().Context(), tag)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%s_export.csv", tag))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}

func (h *Handler) Template(c echo.Context) error {
	tag := c.Param("type")
	csv, err := h.adapter.Template(tag)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%s_template.csv", tag))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", []byte(csv))
}
