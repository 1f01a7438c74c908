package catalog

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes wires the read surface onto api and the mutating surface
// onto admin. The admin group carries the authorization middleware; nothing
// in here checks ambient state.
func (h *Handler) RegisterRoutes(api *echo.Group, admin *echo.Group) {
	api.GET("/fachbereiche", h.ListDepartments)
	api.GET("/fachbereiche/:id", h.GetDepartment)

	api.GET("/laborprofile", h.ListProfiles)
	api.GET("/laborprofile/:id", h.GetProfile)
	api.GET("/laborprofile/fachbereich/:id", h.ListProfilesByDepartment)

	api.GET("/laborwerte", h.ListLabValues)
	api.GET("/laborwerte/:id", h.GetLabValue)
	api.GET("/laborwerte/:id/profile", h.ListProfilesForLabValue)

	api.GET("/profil-werte", h.ListLinks)
	api.GET("/profil-werte/profil/:id", h.ListLabValuesForProfile)

	admin.POST("/fachbereiche", h.CreateDepartment)
	admin.PUT("/fachbereiche/:id", h.UpdateDepartment)
	admin.DELETE("/fachbereiche/:id", h.DeleteDepartment)

	admin.POST("/laborprofile", h.CreateProfile)
	admin.PUT("/laborprofile/:id", h.UpdateProfile)
	admin.DELETE("/laborprofile/:id", h.DeleteProfile)

	admin.POST("/laborwerte", h.CreateLabValue)
	admin.PUT("/laborwerte/:id", h.UpdateLabValue)
	admin.DELETE("/laborwerte/:id", h.DeleteLabValue)

	admin.POST("/profil-werte", h.CreateLink)
	admin.PUT("/profil-werte/:id", h.UpdateLink)
	admin.DELETE("/profil-werte/:id", h.DeleteLink)
}

// httpError maps domain errors onto HTTP status codes. A failed write is a
// generic storage error: the mutation must be treated as not applied.
func httpError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "nicht gefunden")
	case errors.Is(err, ErrValidation), errors.Is(err, ErrExists):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Fehler beim Speichern der Daten")
	}
}

func bindFields(c echo.Context) (map[string]any, error) {
	fields := map[string]any{}
	if err := c.Bind(&fields); err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
	}
	return fields, nil
}

// -- Departments --

func (h *Handler) ListDepartments(c echo.Context) error {
	departments, err := h.svc.Departments(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, departments)
}

func (h *Handler) GetDepartment(c echo.Context) error {
	d, err := h.svc.Department(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) CreateDepartment(c echo.Context) error {
	fields, err := bindFields(c)
	if err != nil {
		return err
	}
	d, err := h.svc.CreateDepartment(c.Request().Context(), fields)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) UpdateDepartment(c echo.Context) error {
	fields, err := bindFields(c)
	if err != nil {
		return err
	}
	d, err := h.svc.UpdateDepartment(c.Request().Context(), c.Param("id"), fields)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDepartment(c echo.Context) error {
	if err := h.svc.DeleteDepartment(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Profiles --

func (h *Handler) ListProfiles(c echo.Context) error {
	profiles, err := h.svc.Profiles(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, profiles)
}

func (h *Handler) GetProfile(c echo.Context) error {
	p, err := h.svc.Profile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListProfilesByDepartment(c echo.Context) error {
	profiles, err := h.svc.ProfilesByDepartment(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, profiles)
}

func (h *Handler) CreateProfile(c echo.Context) error {
	fields, err := bindFields(c)
	if err != nil {
		return err
	}
	p, err := h.svc.CreateProfile(c.Request().Context(), fields)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	fields, err := bindFields(c)
	if err != nil {
		return err
	}
	p, err := h.svc.UpdateProfile(c.Request().Context(), c.Param("id"), fields)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteProfile(c echo.Context) error {
	if err := h.svc.DeleteProfile(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Lab values --

func (h *Handler) ListLabValues(c echo.Context) error {
	values, err := h.svc.LabValues(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, values)
}

func (h *Handler) GetLabValue(c echo.Context) error {
	v, err := h.svc.LabValue(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) ListProfilesForLabValue(c echo.Context) error {
	profiles, err := h.svc.ProfilesForLabValue(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, profiles)
}

func (h *Handler) CreateLabValue(c echo.Context) error {
	fields, err := bindFields(c)
	if err != nil {
		return err
	}
	v, err := h.svc.CreateLabValue(c.Request().Context(), fields)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *Handler) UpdateLabValue(c echo.Context) error {
	fields, err := bindFields(c)
	if err != nil {
		return err
	}
	v, err := h.svc.UpdateLabValue(c.Request().Context(), c.Param("id"), fields)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) DeleteLabValue(c echo.Context) error {
	if err := h.svc.DeleteLabValue(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Links --

func (h *Handler) ListLinks(c echo.Context) error {
	links, err := h.svc.Links(c.Request().Context(), c.QueryParam("profil_id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, links)
}

func (h *Handler) ListLabValuesForProfile(c echo.Context) error {
	values, err := h.svc.LabValuesForProfile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, values)
}

func (h *Handler) CreateLink(c echo.Context) error {
	fields, err := bindFields(c)
	if err != nil {
		return err
	}
	pv, err := h.svc.CreateLink(c.Request().Context(), fields)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, pv)
}

func (h *Handler) UpdateLink(c echo.Context) error {
	fields, err := bindFields(c)
	if err != nil {
		return err
	}
	pv, err := h.svc.UpdateLink(c.Request().Context(), c.Param("id"), fields)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pv)
}

func (h *Handler) DeleteLink(c echo.Context) error {
	if err := h.svc.DeleteLink(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
