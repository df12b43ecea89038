package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"oasip/internal/pkg/errs"
	"oasip/internal/pkg/req"
	"oasip/internal/pkg/resp"
)

// ListEvents returns the events visible to the signed-in account, narrowed by filter.
func (c *Client) ListEvents(ctx context.Context, filter EventFilter, opts ...CallOption) ([]Event, error) {
	if err := validate(filter); err != nil {
		return nil, err
	}

	query := url.Values{}
	if filter.CategoryID > 0 {
		query.Set("categoryId", strconv.Itoa(filter.CategoryID))
	}
	if filter.Type != "" {
		query.Set("type", string(filter.Type))
	}
	if !filter.StartAt.IsZero() {
		query.Set("startAt", filter.StartAt.Format(time.RFC3339))
	}

	var events []Event
	err := c.getJSON(ctx, c.URL("/events", query), &events, opts)
	return events, err
}

// GetEvent returns one event. 403 means it belongs to someone else.
func (c *Client) GetEvent(ctx context.Context, id int, opts ...CallOption) (*Event, error) {
	var event Event
	if err := c.getJSON(ctx, c.URL(eventPath(id), nil), &event, opts); err != nil {
		return nil, err
	}
	return &event, nil
}

// AllocatedTimeSlots lists the occupied slots of a category on the day of startAt,
// optionally ignoring one event (the one being rescheduled). No credentials are needed.
func (c *Client) AllocatedTimeSlots(ctx context.Context, categoryID int, startAt time.Time, excludeEventID int) ([]TimeSlot, error) {
	if categoryID <= 0 || startAt.IsZero() {
		return nil, errs.NewError(errs.ErrInvalidParams).WithDetails(map[string]string{
			"categoryId": "category and start time are required",
		})
	}

	query := url.Values{}
	query.Set("categoryId", strconv.Itoa(categoryID))
	query.Set("startAt", startAt.Format(time.RFC3339))
	if excludeEventID > 0 {
		query.Set("excludeEventId", strconv.Itoa(excludeEventID))
	}

	res, err := c.public(ctx, func(ctx context.Context) (*http.Request, error) {
		return req.New(ctx, http.MethodGet, c.URL("/events/allocatedTimeSlots", query))
	})
	if err != nil {
		return nil, err
	}
	if err := resp.Expect(res, http.StatusOK); err != nil {
		return nil, err
	}

	var slots []TimeSlot
	if err := resp.DecodeJSON(res, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// CreateEvent books an event with an optional attachment. A 400 carries the
// server's field errors (for example an overlapping start time) in Details.
func (c *Client) CreateEvent(ctx context.Context, in CreateEventRequest, file *FileUpload, opts ...CallOption) (*Event, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	if file != nil {
		if customErr := file.Validate(); customErr != nil {
			return nil, customErr
		}
	}

	form := req.NewForm().
		Field("bookingName", in.BookingName).
		Field("bookingEmail", in.BookingEmail).
		Field("eventCategoryId", strconv.Itoa(in.EventCategoryID)).
		Field("eventStartTime", in.EventStartTime.Format(time.RFC3339))
	if in.EventNotes != "" {
		form.Field("eventNotes", in.EventNotes)
	}
	if file != nil {
		form.File("file", file.Name, file.ContentType, file.Content)
	}

	var event Event
	err := c.sendJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		return req.NewMultipart(ctx, http.MethodPost, c.URL("/events", nil), form)
	}, http.StatusCreated, &event, opts)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// UpdateEvent edits an event. change decides the attachment: KeepFile omits the file
// field, DeleteFile sends an empty file part and ReplaceFile sends the new file.
func (c *Client) UpdateEvent(ctx context.Context, id int, in EditEventRequest, change FileChange, opts ...CallOption) (*Event, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	form := req.NewForm()
	if in.EventStartTime != nil {
		form.Field("eventStartTime", in.EventStartTime.Format(time.RFC3339))
	}
	if in.EventNotes != nil {
		form.Field("eventNotes", *in.EventNotes)
	}

	switch change.kind {
	case fileDelete:
		form.File("file", "", "application/octet-stream", nil)
	case fileReplace:
		if change.file == nil {
			return nil, errs.NewError(errs.ErrInvalidParams).WithDetails(map[string]string{"file": "replacement file is required"})
		}
		if customErr := change.file.Validate(); customErr != nil {
			return nil, customErr
		}
		form.File("file", change.file.Name, change.file.ContentType, change.file.Content)
	}

	if in.EventStartTime == nil && in.EventNotes == nil && change.kind == fileKeep {
		return nil, errs.NewError(errs.ErrInvalidParams).WithDetails(map[string]string{
			"event": "at least one of eventStartTime, eventNotes or file must be provided",
		})
	}

	var event Event
	err := c.sendJSON(ctx, func(ctx context.Context) (*http.Request, error) {
		return req.NewMultipart(ctx, http.MethodPatch, c.URL(eventPath(id), nil), form)
	}, http.StatusOK, &event, opts)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// DeleteEvent removes an event and its attachment.
func (c *Client) DeleteEvent(ctx context.Context, id int, opts ...CallOption) error {
	return c.sendNoContent(ctx, http.MethodDelete, c.URL(eventPath(id), nil), http.StatusOK, opts)
}

func eventPath(id int) string {
	return fmt.Sprintf("/events/%d", id)
}
