package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/cinetick/movie-booking/internal/model"
    "github.com/cinetick/movie-booking/internal/repository"
    "github.com/cinetick/movie-booking/internal/seatmap"
)

// CatalogHandler serves the movie/theater/show catalog.  Reads are
// public; writes are mounted behind the ADMIN role by the router.
type CatalogHandler struct {
    Movies   *repository.MovieRepo
    Theaters *repository.TheaterRepo
    Shows    *repository.ShowRepo
}

// NewCatalogHandler constructs a CatalogHandler and panics if any
// dependency is nil.
func NewCatalogHandler(movies *repository.MovieRepo, theaters *repository.TheaterRepo, shows *repository.ShowRepo) *CatalogHandler {
    if movies == nil || theaters == nil || shows == nil {
        panic("nil repository passed to NewCatalogHandler")
    }
    return &CatalogHandler{Movies: movies, Theaters: theaters, Shows: shows}
}

// ----- DTOs -----

type movieView struct {
    ID          uint64  `json:"id"`
    Title       string  `json:"title"`
    Description string  `json:"description,omitempty"`
    DurationMin *uint32 `json:"duration_min,omitempty"`
    ReleaseDate *string `json:"release_date,omitempty"`
    Language    string  `json:"language,omitempty"`
}

func toMovieView(m *model.Movie) movieView {
    v := movieView{
        ID:          m.ID,
        Title:       m.Title,
        Description: m.Description,
        DurationMin: m.DurationMin,
        Language:    m.Language,
    }
    if m.ReleaseDate != nil {
        d := m.ReleaseDate.Format("2006-01-02")
        v.ReleaseDate = &d
    }
    return v
}

type theaterView struct {
    ID      uint64 `json:"id"`
    Name    string `json:"name"`
    City    string `json:"city,omitempty"`
    Address string `json:"address,omitempty"`
}

type screenView struct {
    ID        uint64 `json:"id"`
    TheaterID uint64 `json:"theater_id"`
    Name      string `json:"name"`
    Rows      int    `json:"rows"`
    Cols      int    `json:"cols"`
}

type showView struct {
    ID         uint64    `json:"id"`
    MovieID    uint64    `json:"movie_id"`
    ScreenID   uint64    `json:"screen_id"`
    StartsAt   time.Time `json:"starts_at"`
    PriceCents uint32    `json:"price_cents"`
}

// ----- public browse -----

// ListMovies handles GET /v1/movies.
func (h *CatalogHandler) ListMovies(c echo.Context) error {
    movies, err := h.Movies.ListAll(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movies"})
    }
    items := make([]movieView, 0, len(movies))
    for i := range movies {
        items = append(items, toMovieView(&movies[i]))
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetMovie handles GET /v1/movies/:id.  The response includes the
// movie's upcoming shows so a client can render the detail page with a
// single request.
func (h *CatalogHandler) GetMovie(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie id"})
    }
    ctx := c.Request().Context()
    m, err := h.Movies.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrMovieNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movie"})
    }
    shows, err := h.Shows.ListUpcomingByMovie(ctx, id, time.Now().UTC())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load shows"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "movie": toMovieView(m),
        "shows": shows,
    })
}

// ListTheaters handles GET /v1/theaters.
func (h *CatalogHandler) ListTheaters(c echo.Context) error {
    theaters, err := h.Theaters.ListTheaters(c.Request().Context())
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load theaters"})
    }
    items := make([]theaterView, 0, len(theaters))
    for _, t := range theaters {
        items = append(items, theaterView{ID: t.ID, Name: t.Name, City: t.City, Address: t.Address})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ListScreens handles GET /v1/theaters/:id/screens.
func (h *CatalogHandler) ListScreens(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid theater id"})
    }
    ctx := c.Request().Context()
    if _, err := h.Theaters.GetTheater(ctx, id); err != nil {
        if errors.Is(err, repository.ErrTheaterNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "theater not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load theater"})
    }
    screens, err := h.Theaters.ListScreensByTheater(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load screens"})
    }
    items := make([]screenView, 0, len(screens))
    for _, s := range screens {
        items = append(items, screenView{ID: s.ID, TheaterID: s.TheaterID, Name: s.Name, Rows: s.Rows, Cols: s.Cols})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetShow handles GET /v1/shows/:id.
func (h *CatalogHandler) GetShow(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
    }
    show, screen, err := h.Shows.GetWithScreen(c.Request().Context(), id)
    if err != nil {
        if errors.Is(err, repository.ErrShowNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load show"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "show":   showView{ID: show.ID, MovieID: show.MovieID, ScreenID: show.ScreenID, StartsAt: show.StartsAt, PriceCents: show.PriceCents},
        "screen": screenView{ID: screen.ID, TheaterID: screen.TheaterID, Name: screen.Name, Rows: screen.Rows, Cols: screen.Cols},
    })
}

// ----- admin writes -----

type createMovieReq struct {
    Title       string  `json:"title" validate:"required,min=1,max=255"`
    Description string  `json:"description"`
    DurationMin *uint32 `json:"duration_min" validate:"omitempty,gt=0"`
    ReleaseDate string  `json:"release_date" validate:"omitempty,datetime=2006-01-02"`
    Language    string  `json:"language" validate:"omitempty,max=64"`
}

// CreateMovie handles POST /v1/movies (ADMIN).
func (h *CatalogHandler) CreateMovie(c echo.Context) error {
    var req createMovieReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := c.Validate(&req); err != nil {
        return err
    }
    m := model.Movie{
        Title:       strings.TrimSpace(req.Title),
        Description: req.Description,
        DurationMin: req.DurationMin,
        Language:    req.Language,
    }
    if req.ReleaseDate != "" {
        d, err := time.Parse("2006-01-02", req.ReleaseDate)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid release_date"})
        }
        m.ReleaseDate = &d
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Movies.Create(ctx, &m); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create movie"})
    }
    return c.JSON(http.StatusCreated, toMovieView(&m))
}

type createTheaterReq struct {
    Name    string `json:"name" validate:"required,min=1,max=255"`
    City    string `json:"city" validate:"omitempty,max=128"`
    Address string `json:"address" validate:"omitempty,max=255"`
}

// CreateTheater handles POST /v1/theaters (ADMIN).
func (h *CatalogHandler) CreateTheater(c echo.Context) error {
    var req createTheaterReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := c.Validate(&req); err != nil {
        return err
    }
    t := model.Theater{Name: strings.TrimSpace(req.Name), City: req.City, Address: req.Address}
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Theaters.CreateTheater(ctx, &t); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create theater"})
    }
    return c.JSON(http.StatusCreated, theaterView{ID: t.ID, Name: t.Name, City: t.City, Address: t.Address})
}

type createScreenReq struct {
    Name string `json:"name" validate:"required,min=1,max=255"`
    Rows int    `json:"rows" validate:"required"`
    Cols int    `json:"cols" validate:"required"`
}

// CreateScreen handles POST /v1/theaters/:id/screens (ADMIN).  The
// geometry is validated up front: a screen whose seat map cannot be
// generated must never be created, because every show scheduled on it
// would be unbookable.
func (h *CatalogHandler) CreateScreen(c echo.Context) error {
    theaterID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid theater id"})
    }
    var req createScreenReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := c.Validate(&req); err != nil {
        return err
    }
    if _, err := seatmap.Generate(req.Rows, req.Cols); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "rows and cols must be at least 1"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if _, err := h.Theaters.GetTheater(ctx, theaterID); err != nil {
        if errors.Is(err, repository.ErrTheaterNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "theater not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load theater"})
    }
    s := model.Screen{TheaterID: theaterID, Name: strings.TrimSpace(req.Name), Rows: req.Rows, Cols: req.Cols}
    if err := h.Theaters.CreateScreen(ctx, &s); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create screen"})
    }
    return c.JSON(http.StatusCreated, screenView{ID: s.ID, TheaterID: s.TheaterID, Name: s.Name, Rows: s.Rows, Cols: s.Cols})
}

type createShowReq struct {
    MovieID    uint64 `json:"movie_id" validate:"required,gt=0"`
    ScreenID   uint64 `json:"screen_id" validate:"required,gt=0"`
    StartsAt   string `json:"starts_at" validate:"required"`
    PriceCents uint32 `json:"price_cents" validate:"required,gt=0"`
}

// CreateShow handles POST /v1/shows (ADMIN).
func (h *CatalogHandler) CreateShow(c echo.Context) error {
    var req createShowReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := c.Validate(&req); err != nil {
        return err
    }
    startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if _, err := h.Movies.GetByID(ctx, req.MovieID); err != nil {
        if errors.Is(err, repository.ErrMovieNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load movie"})
    }
    if _, err := h.Theaters.GetScreen(ctx, req.ScreenID); err != nil {
        if errors.Is(err, repository.ErrScreenNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "screen not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load screen"})
    }
    show := model.Show{MovieID: req.MovieID, ScreenID: req.ScreenID, StartsAt: startsAt.UTC(), PriceCents: req.PriceCents}
    if err := h.Shows.Create(ctx, &show); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create show"})
    }
    return c.JSON(http.StatusCreated, showView{ID: show.ID, MovieID: show.MovieID, ScreenID: show.ScreenID, StartsAt: show.StartsAt, PriceCents: show.PriceCents})
}
