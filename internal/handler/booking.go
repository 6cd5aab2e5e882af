package handler

import (
    "context"
    "database/sql"
    "errors"
    "log"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/apexsim/simstudio/internal/availability"
    "github.com/apexsim/simstudio/internal/model"
    "github.com/apexsim/simstudio/internal/notify"
    "github.com/apexsim/simstudio/internal/queue"
    "github.com/apexsim/simstudio/internal/repository"
    queue_publisher "github.com/apexsim/simstudio/internal/service"
)

// BookingHandler groups the repositories needed to resolve
// availability, create bookings with their credit debit, and cancel
// them with their refund.  All methods assume JWT authentication has
// already been performed by middleware.  Create and Cancel run their
// critical DB operations inside a single transaction so a booking
// row and its ledger movement commit or roll back together.
type BookingHandler struct {
    Bookings *repository.BookingRepo
    Credits  *repository.CreditRepo
    Hours    *repository.HoursRepo
    Coaches  *repository.CoachRepo
    Users    *repository.UserRepo
    Mailer   notify.Sender
    Fleet    int // number of simulators in the studio
}

// NewBookingHandler constructs a BookingHandler with the provided
// repositories.  All repository dependencies must be non-nil.
func NewBookingHandler(bookings *repository.BookingRepo, credits *repository.CreditRepo, hours *repository.HoursRepo, coaches *repository.CoachRepo, users *repository.UserRepo, mailer notify.Sender, fleetSize int) *BookingHandler {
    if bookings == nil || credits == nil || hours == nil || coaches == nil || users == nil {
        panic("nil repository passed to NewBookingHandler")
    }
    if mailer == nil {
        mailer = notify.NoopSender{}
    }
    if fleetSize < 1 {
        fleetSize = 1
    }
    return &BookingHandler{
        Bookings: bookings,
        Credits:  credits,
        Hours:    hours,
        Coaches:  coaches,
        Users:    users,
        Mailer:   mailer,
        Fleet:    fleetSize,
    }
}

type createBookingReq struct {
    UserID      uint64 `json:"userId"`
    SimulatorID uint64 `json:"simulatorId"`
    Date        string `json:"date"` // YYYY-MM-DD
    Time        int    `json:"time"` // start hour, 0-23
    Hours       int    `json:"hours"`
    CoachID     uint64 `json:"coachId"`
}

// Availability handles GET /api/availability.  Given a date and an
// optional simulator and coach, it returns the bookable hour slots.
// A closed or fully-booked day yields an empty slot list, not an
// error; only a malformed or past date is a 400.
func (h *BookingHandler) Availability(c echo.Context) error {
    day, err := parseDay(c.QueryParam("date"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
    }
    var simulatorID, coachID uint64
    if s := c.QueryParam("simulatorId"); s != "" {
        if simulatorID, err = strconv.ParseUint(s, 10, 64); err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid simulatorId"})
        }
    }
    if s := c.QueryParam("coachId"); s != "" {
        if coachID, err = strconv.ParseUint(s, 10, 64); err != nil || coachID == 0 {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid coachId"})
        }
    }
    ctx := c.Request().Context()
    slots, err := h.resolve(ctx, day, simulatorID, coachID, time.Now().UTC())
    if err != nil {
        if errors.Is(err, availability.ErrPastDate) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "date is in the past"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve availability"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "date":  day.Format("2006-01-02"),
        "slots": slots,
    })
}

// Create handles POST /api/bookings.  It validates the requested
// window against resolved availability, then debits the user's
// credit and inserts the booking and its hour slots in one
// transaction.  When a concurrent booking claims one of the hours
// between the check and the insert, the unique slot key fires and
// the caller observes 409; the debit rolls back with it.
func (h *BookingHandler) Create(c echo.Context) error {
    callerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req createBookingReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    // Only admins may book on behalf of another user.
    userID := callerID
    if req.UserID != 0 && req.UserID != callerID {
        if !isAdmin(c) {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
        userID = req.UserID
    }
    if req.SimulatorID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "simulatorId is required"})
    }
    if req.Hours <= 0 {
        req.Hours = 1
    }
    if req.Time < 0 || req.Time > 23 || req.Time+req.Hours > 24 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid time window"})
    }
    day, err := parseDay(req.Date)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
    }

    ctx := c.Request().Context()
    now := time.Now().UTC()
    slots, err := h.resolve(ctx, day, req.SimulatorID, req.CoachID, now)
    if err != nil {
        if errors.Is(err, availability.ErrPastDate) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "date is in the past"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to resolve availability"})
    }
    if !availability.CoversRange(slots, req.Time, req.Time+req.Hours) {
        return c.JSON(http.StatusConflict, echo.Map{"error": "slot unavailable"})
    }

    booking := &model.Booking{
        UserID:      userID,
        SimulatorID: req.SimulatorID,
        StartTime:   day.Add(time.Duration(req.Time) * time.Hour),
        EndTime:     day.Add(time.Duration(req.Time+req.Hours) * time.Hour),
        Status:      model.StatusConfirmed,
    }
    if req.CoachID != 0 {
        cid := req.CoachID
        booking.CoachID = &cid
    }

    tx, err := h.Bookings.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := h.Bookings.CreateTx(ctx, tx, booking); err != nil {
        if errors.Is(err, repository.ErrSlotUnavailable) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "slot unavailable"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create booking"})
    }
    if err := h.Credits.DebitTx(ctx, tx, userID, uint32(req.Hours), booking.ID); err != nil {
        if errors.Is(err, repository.ErrInsufficientCredit) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient credit"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to debit credit"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    h.afterCreate(booking, uint32(req.Hours))

    return c.JSON(http.StatusCreated, echo.Map{
        "id":           booking.ID,
        "user_id":      booking.UserID,
        "simulator_id": booking.SimulatorID,
        "start_time":   booking.StartTime.Format(time.RFC3339),
        "end_time":     booking.EndTime.Format(time.RFC3339),
        "coach_id":     booking.CoachID,
        "status":       booking.Status,
    })
}

// Cancel handles DELETE /api/bookings?id=.  Cancellation is only
// permitted before the booking starts.  The refund and the booking
// deletion commit together; because the row is gone afterwards, a
// second cancel finds nothing and the refund cannot double-fire.
func (h *BookingHandler) Cancel(c echo.Context) error {
    callerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := strconv.ParseUint(c.QueryParam("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    ctx := c.Request().Context()
    tx, err := h.Bookings.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    booking, err := h.Bookings.GetTx(ctx, tx, id)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load booking"})
    }
    if booking.UserID != callerID && !isAdmin(c) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    now := time.Now().UTC()
    if !booking.StartTime.After(now) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": repository.ErrPastBooking.Error()})
    }
    refunded := uint32((booking.EndTime.Sub(booking.StartTime) + 30*time.Minute) / time.Hour)
    if err := h.Credits.RefundTx(ctx, tx, booking.UserID, refunded, booking.ID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to refund credit"})
    }
    if err := h.Bookings.DeleteTx(ctx, tx, booking.ID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete booking"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    h.afterCancel(booking, refunded)

    return c.JSON(http.StatusOK, echo.Map{
        "refundedHours": refunded,
    })
}

// List handles GET /api/bookings.  Customers see their own bookings
// sorted by start time ascending.  Admins see everyone's and may
// filter by userId/simulatorId; with grouped=1 the result is grouped
// by calendar day using the canonical YYYY-MM-DD key of the stored
// UTC start time.  Status in every row is the display projection.
func (h *BookingHandler) List(c echo.Context) error {
    callerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var f repository.BookingFilter
    if isAdmin(c) {
        if s := c.QueryParam("userId"); s != "" {
            if f.UserID, err = strconv.ParseUint(s, 10, 64); err != nil {
                return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid userId"})
            }
        }
    } else {
        f.UserID = callerID
    }
    if s := c.QueryParam("simulatorId"); s != "" {
        if f.SimulatorID, err = strconv.ParseUint(s, 10, 64); err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid simulatorId"})
        }
    }
    if s := c.QueryParam("from"); s != "" {
        if f.From, err = parseDay(s); err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid from date"})
        }
    }
    if s := c.QueryParam("to"); s != "" {
        if f.To, err = parseDay(s); err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid to date"})
        }
    }
    ctx := c.Request().Context()
    now := time.Now().UTC()
    details, err := h.Bookings.List(ctx, f, now)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
    }
    if isAdmin(c) && c.QueryParam("grouped") == "1" {
        groups := make(map[string][]repository.BookingDetail)
        for _, d := range details {
            start, perr := time.Parse(time.RFC3339, d.StartTime)
            if perr != nil {
                continue
            }
            key := dayKey(start)
            groups[key] = append(groups[key], d)
        }
        // Within each group rows stay in start-time order because the
        // source list is already sorted ascending.
        return c.JSON(http.StatusOK, echo.Map{"groups": groups})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": details})
}

// resolve loads the inputs for one date and runs the availability
// arithmetic: standing hours for the weekday, any special-date
// override, the hours already booked on the simulator, and the
// coach's weekly windows when a coach is requested.  With no
// simulator the booked set is the hours where the whole fleet is
// taken, so the result is the union of per-simulator availability.
func (h *BookingHandler) resolve(ctx context.Context, day time.Time, simulatorID, coachID uint64, now time.Time) ([]availability.Slot, error) {
    in := availability.Input{Day: day, Now: now}

    bh, err := h.Hours.GetBusinessHours(ctx, int(day.Weekday()))
    if err != nil && !errors.Is(err, sql.ErrNoRows) {
        return nil, err
    }
    if err == nil {
        in.Hours = availability.Window{Open: bh.OpenHour, Close: bh.CloseHour, Closed: bh.IsClosed}
    }
    // An unconfigured weekday leaves the zero window, which resolves
    // as closed.

    sd, err := h.Hours.GetSpecialDate(ctx, day.Format("2006-01-02"))
    if err != nil && !errors.Is(err, sql.ErrNoRows) {
        return nil, err
    }
    if err == nil {
        in.Override = &availability.Window{Open: sd.OpenHour, Close: sd.CloseHour, Closed: sd.IsClosed}
    }

    if simulatorID != 0 {
        in.Booked, err = h.Bookings.BookedHours(ctx, simulatorID, day)
    } else {
        in.Booked, err = h.Bookings.FullyBookedHours(ctx, day, h.Fleet)
    }
    if err != nil {
        return nil, err
    }

    if coachID != 0 {
        windows, err := h.Coaches.GetAvailabilityForDay(ctx, coachID, int(day.Weekday()))
        if err != nil {
            return nil, err
        }
        in.Coach = make([]availability.Window, 0, len(windows))
        for _, w := range windows {
            in.Coach = append(in.Coach, availability.Window{Open: w.StartHour, Close: w.EndHour})
        }
    }

    return availability.Resolve(in)
}

// afterCreate publishes the lifecycle event and sends the
// confirmation email.  Both are best-effort: they run detached from
// the request and their failures are logged inside the collaborators.
func (h *BookingHandler) afterCreate(b *model.Booking, hours uint32) {
    ev := queue.BookingEvent{
        Kind:        queue.KindBookingCreated,
        BookingID:   b.ID,
        UserID:      b.UserID,
        SimulatorID: b.SimulatorID,
        StartsAt:    b.StartTime.Format(time.RFC3339),
        EndsAt:      b.EndTime.Format(time.RFC3339),
        Hours:       hours,
        OccurredAt:  time.Now().UTC().Format(time.RFC3339),
    }
    if b.CoachID != nil {
        ev.CoachID = *b.CoachID
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        if u, err := h.Users.GetByID(ctx, b.UserID); err == nil {
            ev.UserEmail = u.Email
            if err := h.Mailer.Send(ctx, notify.Message{
                To:      u.Email,
                Subject: "Your simulator session is booked",
                HTML:    confirmationHTML(b),
            }); err != nil {
                log.Printf("booking %d: confirmation email failed: %v", b.ID, err)
            }
        }
        _ = queue_publisher.PublishBookingEvent(ctx, ev)
    }()
}

func (h *BookingHandler) afterCancel(b model.Booking, refunded uint32) {
    ev := queue.BookingEvent{
        Kind:          queue.KindBookingCancelled,
        BookingID:     b.ID,
        UserID:        b.UserID,
        SimulatorID:   b.SimulatorID,
        StartsAt:      b.StartTime.Format(time.RFC3339),
        EndsAt:        b.EndTime.Format(time.RFC3339),
        Hours:         uint32(b.EndTime.Sub(b.StartTime) / time.Hour),
        RefundedHours: refunded,
        OccurredAt:    time.Now().UTC().Format(time.RFC3339),
    }
    if b.CoachID != nil {
        ev.CoachID = *b.CoachID
    }
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
        defer cancel()
        _ = queue_publisher.PublishBookingEvent(ctx, ev)
    }()
}

func confirmationHTML(b *model.Booking) string {
    return "<p>Your session on simulator " + strconv.FormatUint(b.SimulatorID, 10) +
        " starts at " + b.StartTime.Format("Mon 2 Jan 2006 15:04 MST") +
        " and runs until " + b.EndTime.Format("15:04 MST") + ". See you at the studio.</p>"
}
