package handler // handler defines http handlers

import (
	"errors"   // errors provides sentinel values used in getUserID
	"net/http" // net/http provides status codes
	"strconv"  // strconv converts strings to numeric types
	"time"     // time parses stay dates

	"github.com/labstack/echo/v4" // echo defines request context types

	"github.com/iliyamo/hostel-booking/internal/model"   // model holds domain types
	"github.com/iliyamo/hostel-booking/internal/service" // service defines error kinds
)

// dateLayout is the wire format of check-in and check-out dates.
const dateLayout = "2006-01-02"

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getActor combines the authenticated user id and role.
func getActor(c echo.Context) (model.Actor, error) {
	uid, err := getUserID(c)
	if err != nil {
		return model.Actor{}, err
	}
	role, _ := c.Get("role").(string)
	return model.Actor{UserID: uid, Role: role}, nil
}

// parseIDParam parses a positive numeric path parameter.
func parseIDParam(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// parseDate parses a YYYY-MM-DD date in UTC.
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}

// bindAndValidate binds the JSON body into dst and runs the registered
// validator.  It writes the 400 response itself and reports false when
// the request was rejected.
func bindAndValidate(c echo.Context, dst any) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(dst); err != nil {
		return false, c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	return true, nil
}

// statusFor maps an error kind to an HTTP status.  insufficient is the
// status used for InsufficientInventory, which is a client error before
// payment and a conflict after it.
func statusFor(kind service.Kind, insufficient int) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindInsufficientInventory:
		return insufficient
	case service.KindPaymentNotSettled:
		return http.StatusPaymentRequired
	case service.KindPaymentGatewayError:
		return http.StatusBadGateway
	case service.KindCommitConflict, service.KindInvalidStateTransition:
		return http.StatusConflict
	case service.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// respondError writes a service error as
// {"error": msg, "code": kind, "details": {...}}.  The wrapped cause is
// only included when debug is set.
func respondError(c echo.Context, err error, debug bool, insufficient int) error {
	var se *service.Error
	if !errors.As(err, &se) {
		body := echo.Map{"error": "internal error"}
		if debug {
			body["debug"] = err.Error()
		}
		return c.JSON(http.StatusInternalServerError, body)
	}

	body := echo.Map{"error": se.Msg, "code": string(se.Kind)}
	if se.PaymentRef != "" {
		body["details"] = echo.Map{"payment_ref": se.PaymentRef, "amount_cents": se.AmountCents}
	}
	if debug && se.Err != nil {
		body["debug"] = se.Err.Error()
	}
	return c.JSON(statusFor(se.Kind, insufficient), body)
}
