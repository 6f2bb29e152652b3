package handler

import (
    "database/sql"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/DATA-DOG/go-sqlmock"
    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/cinetick/movie-booking/internal/repository"
)

func newCatalogTestHandler(t *testing.T) (*CatalogHandler, sqlmock.Sqlmock, *echo.Echo) {
    t.Helper()
    db, mock, err := sqlmock.New()
    require.NoError(t, err)
    t.Cleanup(func() { db.Close() })

    e := echo.New()
    e.Validator = NewValidator()
    h := NewCatalogHandler(repository.NewMovieRepo(db), repository.NewTheaterRepo(db), repository.NewShowRepo(db))
    return h, mock, e
}

func TestGetMovieNotFound(t *testing.T) {
    h, mock, e := newCatalogTestHandler(t)

    mock.ExpectQuery("FROM movies WHERE id").WillReturnError(sql.ErrNoRows)

    req := httptest.NewRequest(http.MethodGet, "/", nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetParamNames("id")
    c.SetParamValues("404")

    require.NoError(t, h.GetMovie(c))
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateScreenRejectsBadGeometry(t *testing.T) {
    h, _, e := newCatalogTestHandler(t)

    for _, body := range []string{
        `{"name":"Screen 1","rows":0,"cols":10}`,
        `{"name":"Screen 1","rows":5,"cols":-2}`,
    } {
        req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
        rec := httptest.NewRecorder()
        c := e.NewContext(req, rec)
        c.SetParamNames("id")
        c.SetParamValues("1")

        err := h.CreateScreen(c)
        if err != nil {
            var httpErr *echo.HTTPError
            require.ErrorAs(t, err, &httpErr)
            assert.Equal(t, http.StatusBadRequest, httpErr.Code, "body %s", body)
        } else {
            assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
        }
    }
}

func TestCreateMovie(t *testing.T) {
    h, mock, e := newCatalogTestHandler(t)

    mock.ExpectExec("INSERT INTO movies").WillReturnResult(sqlmock.NewResult(3, 1))

    req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(
        `{"title":"Arrival","duration_min":116,"release_date":"2016-11-11","language":"English"}`))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)

    require.NoError(t, h.CreateMovie(c))
    assert.Equal(t, http.StatusCreated, rec.Code)
    assert.Contains(t, rec.Body.String(), `"id":3`)
    assert.Contains(t, rec.Body.String(), `"title":"Arrival"`)
}

func TestCreateMovieMissingTitle(t *testing.T) {
    h, _, e := newCatalogTestHandler(t)

    req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"language":"English"}`))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)

    err := h.CreateMovie(c)
    var httpErr *echo.HTTPError
    require.ErrorAs(t, err, &httpErr)
    assert.Equal(t, http.StatusBadRequest, httpErr.Code)
}
