package handler

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/rishiatweb/movie-ticket-booking/internal/model"
    "github.com/rishiatweb/movie-ticket-booking/internal/repository"
    "github.com/rishiatweb/movie-ticket-booking/internal/service"
)

// Reserver runs the atomic reservation flow.
type Reserver interface {
    Reserve(ctx context.Context, in service.ReserveInput) (*model.Booking, []model.BookingSeat, error)
}

// Canceller runs the atomic cancellation flow.
type Canceller interface {
    Cancel(ctx context.Context, ref string) (service.CancelResult, error)
}

// BookingReader serves read-only booking lookups for customers.
type BookingReader interface {
    ListByOwner(ctx context.Context, userID uint64) ([]repository.BookingDetail, error)
    GetByRefForUser(ctx context.Context, ref string, userID uint64) (*repository.BookingDetail, error)
}

// BookingHandler exposes the reservation and cancellation engines over
// HTTP.  All methods assume JWT authentication has already run; the user id
// comes from the request context, never from the body.
type BookingHandler struct {
    Reserve  Reserver
    Cancel   Canceller
    Bookings BookingReader
}

// NewBookingHandler constructs a BookingHandler.  All dependencies must be
// non-nil.
func NewBookingHandler(reserve Reserver, cancel Canceller, bookings BookingReader) *BookingHandler {
    if reserve == nil || cancel == nil || bookings == nil {
        panic("nil dependency passed to NewBookingHandler")
    }
    return &BookingHandler{Reserve: reserve, Cancel: cancel, Bookings: bookings}
}

type reserveReq struct {
    ShowtimeID uint64            `json:"showtime_id"`
    SeatCodes  []string          `json:"seats"`
    AddOns     map[string]uint32 `json:"add_ons"`
}

// CreateBooking handles POST /v1/bookings.  It reserves the requested
// seats and add-ons for the authenticated user.  A seat lost to a
// concurrent booking returns 409; the client must re-read seat status
// before retrying with a new selection.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req reserveReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    booking, seats, err := h.Reserve.Reserve(c.Request().Context(), service.ReserveInput{
        UserID:     userID,
        ShowtimeID: req.ShowtimeID,
        SeatCodes:  req.SeatCodes,
        AddOns:     req.AddOns,
    })
    if err != nil {
        switch {
        case errors.Is(err, service.ErrInvalidRequest):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        case errors.Is(err, repository.ErrShowtimeNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "showtime not found"})
        case errors.Is(err, repository.ErrSeatConflict):
            return c.JSON(http.StatusConflict, echo.Map{"error": "some seats are no longer available"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation failed"})
        }
    }

    seatCodes := make([]string, 0, len(seats))
    for _, s := range seats {
        seatCodes = append(seatCodes, s.SeatCode)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "booking_number":   booking.ID,
        "ref":              booking.Ref,
        "showtime_id":      booking.ShowtimeID,
        "seats":            seatCodes,
        "seat_cost_cents":  booking.SeatCostCents,
        "addon_cost_cents": booking.AddOnCostCents,
        "total_cost_cents": booking.TotalCostCents,
        "status":           booking.Status,
    })
}

// CancelBooking handles DELETE /v1/bookings/:ref.  Ownership is enforced
// before the cancellation engine runs; the engine reads seat codes and
// showtime from the stored booking.  Responds with the fee retained and
// the amount refunded.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ref := c.Param("ref")
    if ref == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking ref"})
    }
    ctx := c.Request().Context()

    // Ownership gate: unknown refs and other users' bookings both 404.
    if _, err := h.Bookings.GetByRefForUser(ctx, ref, userID); err != nil {
        if errors.Is(err, repository.ErrBookingNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
    }

    result, err := h.Cancel.Cancel(ctx, ref)
    if err != nil {
        switch {
        case errors.Is(err, repository.ErrBookingNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        case errors.Is(err, repository.ErrAlreadyCancelled):
            return c.JSON(http.StatusConflict, echo.Map{"error": "booking already cancelled"})
        case errors.Is(err, service.ErrTooLateToCancel):
            return c.JSON(http.StatusConflict, echo.Map{"error": "show has started; too late to cancel"})
        default:
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancellation failed"})
        }
    }
    return c.JSON(http.StatusOK, echo.Map{
        "ref":          result.BookingRef,
        "fee_cents":    result.FeeCents,
        "refund_cents": result.RefundCents,
    })
}

// ListMyBookings handles GET /v1/my-bookings.  Bookings are returned
// newest first with seats and add-ons populated.
func (h *BookingHandler) ListMyBookings(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, err := h.Bookings.ListByOwner(c.Request().Context(), userID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load bookings"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetBooking handles GET /v1/bookings/:ref for the authenticated user.
func (h *BookingHandler) GetBooking(c echo.Context) error {
    userID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ref := c.Param("ref")
    if ref == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking ref"})
    }
    item, err := h.Bookings.GetByRefForUser(c.Request().Context(), ref, userID)
    if err != nil {
        if errors.Is(err, repository.ErrBookingNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch booking"})
    }
    return c.JSON(http.StatusOK, echo.Map{"item": item})
}
