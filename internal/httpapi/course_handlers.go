package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"orgaccess.org/internal/audit"
	"orgaccess.org/internal/catalog"
)

func (a *API) handleCoursesCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listCourses(w, r)
	case http.MethodPost:
		a.createCourse(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCourseSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	limit, offset, err := parsePage(r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeError(w, r, http.StatusBadRequest, "q query parameter is required")
		return
	}

	items, err := a.catalog.Search(r.Context(), scopeFrom(r), query, limit, offset)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) handleCourseResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/courses/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		a.getCourse(w, r, id)
	case http.MethodPut:
		a.updateCourse(w, r, id)
	case http.MethodDelete:
		a.deactivateCourse(w, r, id)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) listCourses(w http.ResponseWriter, r *http.Request) {
	items, err := a.catalog.List(r.Context(), scopeFrom(r))
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) createCourse(w http.ResponseWriter, r *http.Request) {
	var in catalog.CourseInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	course, err := a.catalog.Create(r.Context(), scopeFrom(r), in)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "catalog.course.create", map[string]any{
		"course_id": course.ID,
	})
	w.Header().Set("Location", "/v1/courses/"+course.ID)
	writeJSON(w, http.StatusCreated, course)
}

func (a *API) getCourse(w http.ResponseWriter, r *http.Request, id string) {
	course, err := a.catalog.Get(r.Context(), scopeFrom(r), id)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, course)
}

func (a *API) updateCourse(w http.ResponseWriter, r *http.Request, id string) {
	var in catalog.CourseInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	course, err := a.catalog.Update(r.Context(), scopeFrom(r), id, in)
	if err != nil {
		handleCatalogError(w, r, err)
		return
	}

	_ = audit.LogEvent(r.Context(), "catalog.course.update", map[string]any{
		"course_id": course.ID,
	})
	writeJSON(w, http.StatusOK, course)
}

func (a *API) deactivateCourse(w http.ResponseWriter, r *http.Request, id string) {
	if err := a.catalog.Deactivate(r.Context(), scopeFrom(r), id); err != nil {
		handleCatalogError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "catalog.course.deactivate", map[string]any{
		"course_id": id,
	})
	writeJSON(w, http.StatusOK, map[string]any{"status": "deactivated"})
}

// handleCatalogError maps catalog failures. Records outside the caller's
// scope surface as 404, indistinguishable from records that do not exist.
func handleCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, "invalid input")
	case catalog.IsNotFound(err):
		writeError(w, r, http.StatusNotFound, "resource not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
