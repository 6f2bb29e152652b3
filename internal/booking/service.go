package booking

import (
    "context"
    "errors"
    "log"
    "time"

    "github.com/cinetick/movie-booking/internal/model"
    "github.com/cinetick/movie-booking/internal/repository"
    "github.com/cinetick/movie-booking/internal/seatmap"
)

// PriceSourceShow computes totals from the show's own per-seat price;
// PriceSourceFlat uses a fixed per-seat amount from configuration.  The
// flat mode exists because the legacy checkout ignored the show price
// in favor of a constant, and operators migrating from it may want to
// keep billing unchanged.  Which source is authoritative is a
// deployment decision, never silently picked.
const (
    PriceSourceShow = "show"
    PriceSourceFlat = "flat"
)

// Pricing selects the per-seat price source for new reservations.
type Pricing struct {
    Source    string // PriceSourceShow or PriceSourceFlat
    FlatCents uint32 // per-seat price when Source is PriceSourceFlat
}

// PerSeat returns the per-seat price in cents for a show under this
// pricing policy.
func (p Pricing) PerSeat(show *model.Show) uint32 {
    if p.Source == PriceSourceFlat {
        return p.FlatCents
    }
    return show.PriceCents
}

// Service is the seat-availability engine and reservation coordinator
// for shows.  Reads (Availability) are lock-free and may observe a
// slightly stale taken set; the commit path (Reserve) serializes per
// show via ShowLocks and re-checks availability inside the same
// transaction that inserts the booking.
type Service struct {
    shows    *repository.ShowRepo
    bookings *repository.BookingRepo
    holds    *repository.SeatHoldRepo
    locks    *ShowLocks
    pricing  Pricing
    lockWait time.Duration // how long Reserve waits for the per-show lock
    holdTTL  time.Duration // lifetime of a checkout seat hold
    attempts int           // bounded retries against transient storage failures
}

// NewService wires the coordinator with its repositories and policy.
// lockWait bounds how long a reservation attempt may wait on a
// contended show before failing with ErrShowBusy.
func NewService(shows *repository.ShowRepo, bookings *repository.BookingRepo, holds *repository.SeatHoldRepo, pricing Pricing, lockWait, holdTTL time.Duration) *Service {
    if shows == nil || bookings == nil || holds == nil {
        panic("nil repository passed to booking.NewService")
    }
    if lockWait <= 0 {
        lockWait = 3 * time.Second
    }
    if holdTTL <= 0 {
        holdTTL = 5 * time.Minute
    }
    return &Service{
        shows:    shows,
        bookings: bookings,
        holds:    holds,
        locks:    NewShowLocks(),
        pricing:  pricing,
        lockWait: lockWait,
        holdTTL:  holdTTL,
        attempts: 3,
    }
}

// Availability describes the seat occupancy of a show at one instant:
// Taken and Available partition the full seat map, both in row-major
// seat-map order, and Rows/Cols echo the screen geometry for rendering.
type Availability struct {
    ShowID    uint64   `json:"show_id"`
    Taken     []string `json:"taken"`
    Available []string `json:"available"`
    Rows      int      `json:"rows"`
    Cols      int      `json:"cols"`
}

// ShowAvailability computes taken and available seats for a show from
// its committed bookings.  Seat codes on historical rows that fall
// outside the screen's current seat map are skipped and logged rather
// than failing the whole computation.  The read is not serialized
// against writers; display staleness is acceptable.
func (s *Service) ShowAvailability(ctx context.Context, showID uint64) (*Availability, error) {
    show, screen, err := s.shows.GetWithScreen(ctx, showID)
    if err != nil {
        return nil, err
    }
    codes, err := seatmap.Generate(screen.Rows, screen.Cols)
    if err != nil {
        return nil, err
    }
    committed, err := s.bookings.SeatCodesByShow(ctx, showID)
    if err != nil {
        return nil, err
    }
    idx := make(map[string]struct{}, len(codes))
    for _, code := range codes {
        idx[code] = struct{}{}
    }
    taken := make(map[string]struct{}, len(committed))
    for _, code := range committed {
        norm := seatmap.Normalize(code)
        if _, ok := idx[norm]; !ok {
            log.Printf("booking: show %d: skipping malformed seat code %q in committed booking", showID, code)
            continue
        }
        taken[norm] = struct{}{}
    }
    av := &Availability{
        ShowID:    show.ID,
        Taken:     make([]string, 0, len(taken)),
        Available: make([]string, 0, len(codes)-len(taken)),
        Rows:      screen.Rows,
        Cols:      screen.Cols,
    }
    // Walk the seat map once so both lists come out in row-major order.
    for _, code := range codes {
        if _, ok := taken[code]; ok {
            av.Taken = append(av.Taken, code)
        } else {
            av.Available = append(av.Available, code)
        }
    }
    return av, nil
}

// validateSelection normalizes the requested codes and rejects empty
// selections, duplicates within the request, and codes outside the
// show's seat map.
func validateSelection(raw []string, idx seatmap.Index) ([]string, error) {
    if len(raw) == 0 {
        return nil, &InvalidRequestError{Reason: "no seats selected"}
    }
    seats := make([]string, 0, len(raw))
    seen := make(map[string]struct{}, len(raw))
    var dupes, unknown []string
    for _, r := range raw {
        code := seatmap.Normalize(r)
        if code == "" {
            return nil, &InvalidRequestError{Reason: "empty seat code"}
        }
        if _, ok := seen[code]; ok {
            dupes = append(dupes, code)
            continue
        }
        seen[code] = struct{}{}
        if !idx.Contains(code) {
            unknown = append(unknown, code)
            continue
        }
        seats = append(seats, code)
    }
    if len(dupes) > 0 {
        return nil, &InvalidRequestError{Reason: "duplicate seats in request", Seats: dupes}
    }
    if len(unknown) > 0 {
        return nil, &InvalidRequestError{Reason: "seats outside seat map", Seats: unknown}
    }
    return seats, nil
}

// Reserve validates the requested seat codes against the show's seat
// map and atomically commits a booking for them, or reports the exact
// conflicting seats.  The whole check-then-commit sequence runs under
// the show's lock and inside one transaction; the unique index on
// (show_id, seat_code) catches anything that slips past (e.g. another
// process), surfacing as a ConflictError after a re-read.
//
// Transient storage failures are retried internally a bounded number of
// times before ErrStorageUnavailable is returned.
func (s *Service) Reserve(ctx context.Context, showID uint64, rawSeats []string, userID uint64) (*model.Booking, error) {
    show, screen, err := s.shows.GetWithScreen(ctx, showID)
    if err != nil {
        return nil, err
    }
    idx, err := seatmap.NewIndex(screen.Rows, screen.Cols)
    if err != nil {
        return nil, err
    }
    seats, err := validateSelection(rawSeats, idx)
    if err != nil {
        return nil, err
    }

    release, err := s.locks.Acquire(ctx, showID, s.lockWait)
    if err != nil {
        return nil, err
    }
    defer release()

    var lastErr error
    for attempt := 0; attempt < s.attempts; attempt++ {
        if attempt > 0 {
            // Brief backoff before touching storage again.
            select {
            case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
            case <-ctx.Done():
                return nil, ErrStorageUnavailable
            }
        }
        b, err := s.reserveOnce(ctx, show, seats, userID)
        if err == nil {
            return b, nil
        }
        var conflict *ConflictError
        if errors.As(err, &conflict) {
            return nil, conflict
        }
        if repository.IsDuplicateSeat(err) {
            // Another writer committed one of our seats between our
            // check and our insert.  Re-read and report exactly which.
            return nil, s.conflictFromCurrent(ctx, showID, seats)
        }
        lastErr = err
        log.Printf("booking: reserve attempt %d for show %d failed: %v", attempt+1, showID, err)
    }
    log.Printf("booking: giving up on show %d after %d attempts: %v", showID, s.attempts, lastErr)
    return nil, ErrStorageUnavailable
}

// reserveOnce executes a single check-then-commit transaction.
func (s *Service) reserveOnce(ctx context.Context, show *model.Show, seats []string, userID uint64) (*model.Booking, error) {
    tx, err := s.bookings.DB().BeginTx(ctx, nil)
    if err != nil {
        return nil, err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    // Purge lapsed holds first so they do not show up as contention.
    if _, err := s.holds.ExpireHoldsTx(ctx, tx, show.ID); err != nil {
        return nil, err
    }
    taken, err := s.bookings.SeatCodesByShowTx(ctx, tx, show.ID)
    if err != nil {
        return nil, err
    }
    occupied := make(map[string]struct{}, len(taken))
    for _, code := range taken {
        occupied[seatmap.Normalize(code)] = struct{}{}
    }
    // Other users' live holds count as taken; the caller's own holds
    // must not block their reservation.
    holds, err := s.holds.ActiveHoldsByShowTx(ctx, tx, show.ID)
    if err != nil {
        return nil, err
    }
    for _, h := range holds {
        if h.UserID != nil && *h.UserID == userID {
            continue
        }
        occupied[seatmap.Normalize(h.SeatCode)] = struct{}{}
    }
    var conflicts []string
    for _, code := range seats {
        if _, ok := occupied[code]; ok {
            conflicts = append(conflicts, code)
        }
    }
    if len(conflicts) > 0 {
        return nil, &ConflictError{Seats: conflicts}
    }

    uid := userID
    b := &model.Booking{
        UserID:     &uid,
        ShowID:     show.ID,
        Seats:      seats,
        TotalCents: uint32(len(seats)) * s.pricing.PerSeat(show),
    }
    if err := s.bookings.CreateTx(ctx, tx, b); err != nil {
        return nil, err
    }
    // The caller's holds on this show served their purpose.
    if _, err := s.holds.DeleteByUserAndShowTx(ctx, tx, userID, show.ID); err != nil {
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, err
    }
    committed = true
    return b, nil
}

// conflictFromCurrent builds a ConflictError against the freshest taken
// set after a unique-index violation.  If even the re-read fails, the
// requested seats themselves are reported so the client still gets a
// 409 rather than a spurious 5xx.
func (s *Service) conflictFromCurrent(ctx context.Context, showID uint64, seats []string) error {
    current, err := s.bookings.SeatCodesByShow(ctx, showID)
    if err != nil {
        return &ConflictError{Seats: seats}
    }
    occupied := make(map[string]struct{}, len(current))
    for _, code := range current {
        occupied[seatmap.Normalize(code)] = struct{}{}
    }
    var conflicts []string
    for _, code := range seats {
        if _, ok := occupied[code]; ok {
            conflicts = append(conflicts, code)
        }
    }
    if len(conflicts) == 0 {
        conflicts = seats
    }
    return &ConflictError{Seats: conflicts}
}

// Hold is the result of placing checkout holds on a batch of seats.
type Hold struct {
    Token     string    `json:"hold_token"`
    Seats     []string  `json:"seats"`
    ExpiresAt time.Time `json:"expires_at"`
}

// HoldSeats places short-lived holds on the requested seats so a user
// can walk through checkout without losing them.  Seats already
// committed or held by anyone (including lapsed-then-renewed holds of
// other users) are rejected with a ConflictError.  Holds share one
// token and expire together.
func (s *Service) HoldSeats(ctx context.Context, showID uint64, rawSeats []string, userID uint64) (*Hold, error) {
    _, screen, err := s.shows.GetWithScreen(ctx, showID)
    if err != nil {
        return nil, err
    }
    idx, err := seatmap.NewIndex(screen.Rows, screen.Cols)
    if err != nil {
        return nil, err
    }
    seats, err := validateSelection(rawSeats, idx)
    if err != nil {
        return nil, err
    }

    release, err := s.locks.Acquire(ctx, showID, s.lockWait)
    if err != nil {
        return nil, err
    }
    defer release()

    tx, err := s.bookings.DB().BeginTx(ctx, nil)
    if err != nil {
        return nil, ErrStorageUnavailable
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()

    if _, err := s.holds.ExpireHoldsTx(ctx, tx, showID); err != nil {
        return nil, err
    }
    taken, err := s.bookings.SeatCodesByShowTx(ctx, tx, showID)
    if err != nil {
        return nil, err
    }
    occupied := make(map[string]struct{}, len(taken))
    for _, code := range taken {
        occupied[seatmap.Normalize(code)] = struct{}{}
    }
    holds, err := s.holds.ActiveHoldsByShowTx(ctx, tx, showID)
    if err != nil {
        return nil, err
    }
    for _, h := range holds {
        occupied[seatmap.Normalize(h.SeatCode)] = struct{}{}
    }
    var conflicts []string
    for _, code := range seats {
        if _, ok := occupied[code]; ok {
            conflicts = append(conflicts, code)
        }
    }
    if len(conflicts) > 0 {
        return nil, &ConflictError{Seats: conflicts}
    }

    token, err := repository.NewHoldToken()
    if err != nil {
        return nil, err
    }
    expiresAt := time.Now().UTC().Add(s.holdTTL)
    if err := s.holds.CreateMultipleTx(ctx, tx, repository.BuildHolds(userID, showID, seats, token, expiresAt)); err != nil {
        if repository.IsDuplicateSeat(err) {
            // Another process held one of our seats between our check
            // and our insert; the unique index on (show_id, seat_code)
            // caught it.
            return nil, &ConflictError{Seats: seats}
        }
        return nil, err
    }
    if err := tx.Commit(); err != nil {
        return nil, ErrStorageUnavailable
    }
    committed = true
    return &Hold{Token: token, Seats: seats, ExpiresAt: expiresAt}, nil
}

// ReleaseHolds drops all of the caller's holds on a show and returns
// how many seats were freed.
func (s *Service) ReleaseHolds(ctx context.Context, showID, userID uint64) (int, error) {
    tx, err := s.bookings.DB().BeginTx(ctx, nil)
    if err != nil {
        return 0, ErrStorageUnavailable
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    codes, err := s.holds.DeleteByUserAndShowTx(ctx, tx, userID, showID)
    if err != nil {
        return 0, err
    }
    if err := tx.Commit(); err != nil {
        return 0, ErrStorageUnavailable
    }
    committed = true
    return len(codes), nil
}
