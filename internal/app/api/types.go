package api

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"oasip/internal/app/user"
	"oasip/internal/pkg/errs"
)

// validatable is implemented by every request type.
type validatable interface {
	Validate() error
}

// validate runs v.Validate and converts failures to ErrInvalidParams with per-field details.
func validate(v validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		details := make(map[string]string, len(fieldErrs))
		for field, fieldErr := range fieldErrs {
			details[field] = fieldErr.Error()
		}
		return errs.Wrap(errs.ErrInvalidParams, err).WithDetails(details)
	}
	return errs.Wrap(errs.ErrInvalidParams, err)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(1, 50), is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
}

// MatchRequest asks the server whether Password is the account's password.
type MatchRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r MatchRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

type Category struct {
	ID                       int    `json:"id"`
	EventCategoryName        string `json:"eventCategoryName"`
	EventCategoryDescription string `json:"eventCategoryDescription,omitempty"`

	// EventDuration is in minutes.
	EventDuration int `json:"eventDuration"`
}

// EditCategoryRequest is a partial update; nil fields are left unchanged.
type EditCategoryRequest struct {
	EventCategoryName        *string `json:"eventCategoryName,omitempty"`
	EventCategoryDescription *string `json:"eventCategoryDescription,omitempty"`
	EventDuration            *int    `json:"eventDuration,omitempty"`
}

func (r EditCategoryRequest) Validate() error {
	if r.EventCategoryName == nil && r.EventCategoryDescription == nil && r.EventDuration == nil {
		return errors.New("at least one of eventCategoryName, eventCategoryDescription or eventDuration must be provided")
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.EventCategoryName, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.EventCategoryDescription, validation.Length(0, 500)),
		validation.Field(&r.EventDuration, validation.NilOrNotEmpty, validation.Min(1), validation.Max(480)),
	)
}

type Event struct {
	ID             int       `json:"id"`
	BookingName    string    `json:"bookingName"`
	BookingEmail   string    `json:"bookingEmail"`
	EventStartTime time.Time `json:"eventStartTime"`
	EventDuration  int       `json:"eventDuration"`
	EventNotes     string    `json:"eventNotes,omitempty"`
	EventCategory  Category  `json:"eventCategory"`

	// BucketUUID identifies the attachment, if any.
	BucketUUID string `json:"bucketUuid,omitempty"`
}

// TimeSlot is an occupied interval in a category, without booking details.
type TimeSlot struct {
	EventStartTime time.Time `json:"eventStartTime"`
	EventDuration  int       `json:"eventDuration"`
}

// EventType selects a time window for ListEvents.
type EventType string

const (
	EventTypeUpcoming EventType = "upcoming"
	EventTypePast     EventType = "past"
	EventTypeDay      EventType = "day"
)

// EventFilter narrows ListEvents. Zero fields are omitted from the query.
type EventFilter struct {
	CategoryID int
	Type       EventType
	StartAt    time.Time
}

func (f EventFilter) Validate() error {
	startAtRules := []validation.Rule{}
	if f.Type == EventTypeDay {
		startAtRules = append(startAtRules, validation.Required)
	}
	return validation.ValidateStruct(&f,
		validation.Field(&f.CategoryID, validation.Min(0)),
		validation.Field(&f.Type, validation.In(EventTypeUpcoming, EventTypePast, EventTypeDay)),
		validation.Field(&f.StartAt, startAtRules...),
	)
}

type CreateEventRequest struct {
	BookingName     string    `json:"bookingName"`
	BookingEmail    string    `json:"bookingEmail"`
	EventCategoryID int       `json:"eventCategoryId"`
	EventStartTime  time.Time `json:"eventStartTime"`
	EventNotes      string    `json:"eventNotes,omitempty"`
}

func (r CreateEventRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BookingName, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.BookingEmail, validation.Required, validation.Length(1, 100), is.Email),
		validation.Field(&r.EventCategoryID, validation.Required, validation.Min(1)),
		validation.Field(&r.EventStartTime, validation.Required),
		validation.Field(&r.EventNotes, validation.Length(0, 500)),
	)
}

// EditEventRequest is a partial update; nil fields are left unchanged.
type EditEventRequest struct {
	EventStartTime *time.Time `json:"eventStartTime,omitempty"`
	EventNotes     *string    `json:"eventNotes,omitempty"`
}

func (r EditEventRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.EventNotes, validation.Length(0, 500)),
	)
}

// Account is a user record as managed by administrators.
type Account struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      user.Role `json:"role"`
	CreatedOn time.Time `json:"createdOn"`
	UpdatedOn time.Time `json:"updatedOn"`
}

type CreateUserRequest struct {
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Password string    `json:"password"`
	Role     user.Role `json:"role"`
}

// normalize trims the name and email.
func (r CreateUserRequest) normalize() CreateUserRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	return r
}

func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(1, 50), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 14)),
		validation.Field(&r.Role, validation.Required, validation.In(user.RoleAdmin, user.RoleLecturer, user.RoleStudent)),
	)
}

// EditUserRequest is a partial update; nil fields are left unchanged.
type EditUserRequest struct {
	Name  *string    `json:"name,omitempty"`
	Email *string    `json:"email,omitempty"`
	Role  *user.Role `json:"role,omitempty"`
}

func (r EditUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&r.Email, validation.NilOrNotEmpty, is.Email),
		validation.Field(&r.Role, validation.In(user.RoleAdmin, user.RoleLecturer, user.RoleStudent)),
	)
}
