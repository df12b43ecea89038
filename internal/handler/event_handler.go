package handler

import (
	"context"

	"oasip/internal/app/api"
	"oasip/internal/pkg/errs"
)

type deletedOutput struct {
	Deleted bool `json:"deleted"`
	ID      int  `json:"id"`
}

// HandleListEvents lists the events visible to the session.
func HandleListEvents(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		fs := newFlags(deps, "events")
		category := fs.Int("category", 0, "category id")
		eventType := fs.String("type", "", "upcoming, past or day")
		start := fs.String("start", "", "day to list, RFC 3339")
		if err := fs.parse(args); err != nil {
			return nil, err
		}

		filter := api.EventFilter{CategoryID: *category, Type: api.EventType(*eventType)}
		if fs.given("start") {
			t, err := parseTime("start", *start)
			if err != nil {
				return nil, err
			}
			filter.StartAt = t
		}

		return deps.Client.ListEvents(ctx, filter)
	}
}

// HandleGetEvent shows one event.
func HandleGetEvent(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		fs := newFlags(deps, "event")
		id := fs.Int("id", 0, "event id")
		if err := fs.parse(args); err != nil {
			return nil, err
		}
		if err := fs.require("id"); err != nil {
			return nil, err
		}
		return deps.Client.GetEvent(ctx, *id)
	}
}

// HandleCreateEvent books an event, optionally with an attachment.
func HandleCreateEvent(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		fs := newFlags(deps, "event-create")
		category := fs.Int("category", 0, "category id")
		name := fs.String("name", "", "booking name")
		email := fs.String("email", "", "booking email")
		start := fs.String("start", "", "start time, RFC 3339")
		notes := fs.String("notes", "", "notes for the lecturer")
		file := fs.String("file", "", "attachment path")
		if err := fs.parse(args); err != nil {
			return nil, err
		}
		if err := fs.require("category", "name", "email", "start"); err != nil {
			return nil, err
		}

		startAt, err := parseTime("start", *start)
		if err != nil {
			return nil, err
		}

		var upload *api.FileUpload
		if *file != "" {
			if upload, err = api.ReadFileUpload(*file); err != nil {
				return nil, err
			}
		}

		return deps.Client.CreateEvent(ctx, api.CreateEventRequest{
			BookingName:     *name,
			BookingEmail:    *email,
			EventCategoryID: *category,
			EventStartTime:  startAt,
			EventNotes:      *notes,
		}, upload)
	}
}

// HandleUpdateEvent edits the start time, the notes or the attachment of an event.
func HandleUpdateEvent(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		fs := newFlags(deps, "event-update")
		id := fs.Int("id", 0, "event id")
		start := fs.String("start", "", "new start time, RFC 3339")
		notes := fs.String("notes", "", "new notes")
		file := fs.String("file", "", "replacement attachment path")
		deleteFile := fs.Bool("delete-file", false, "remove the attachment")
		if err := fs.parse(args); err != nil {
			return nil, err
		}
		if err := fs.require("id"); err != nil {
			return nil, err
		}
		if fs.given("file") && *deleteFile {
			return nil, errs.NewError(errs.ErrInvalidParams).WithMessage("event-update: -file and -delete-file are exclusive")
		}

		var in api.EditEventRequest
		if fs.given("start") {
			t, err := parseTime("start", *start)
			if err != nil {
				return nil, err
			}
			in.EventStartTime = &t
		}
		if fs.given("notes") {
			in.EventNotes = notes
		}

		change := api.KeepFile()
		switch {
		case *deleteFile:
			change = api.DeleteFile()
		case fs.given("file"):
			upload, err := api.ReadFileUpload(*file)
			if err != nil {
				return nil, err
			}
			change = api.ReplaceFile(upload)
		}

		return deps.Client.UpdateEvent(ctx, *id, in, change)
	}
}

// HandleDeleteEvent cancels an event.
func HandleDeleteEvent(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		fs := newFlags(deps, "event-delete")
		id := fs.Int("id", 0, "event id")
		if err := fs.parse(args); err != nil {
			return nil, err
		}
		if err := fs.require("id"); err != nil {
			return nil, err
		}
		if err := deps.Client.DeleteEvent(ctx, *id); err != nil {
			return nil, err
		}
		return deletedOutput{Deleted: true, ID: *id}, nil
	}
}

// HandleTimeSlots lists the occupied slots of a category on a day.
func HandleTimeSlots(deps *AppDeps) CommandFunc {
	return func(ctx context.Context, args []string) (any, error) {
		fs := newFlags(deps, "slots")
		category := fs.Int("category", 0, "category id")
		start := fs.String("start", "", "day, RFC 3339")
		exclude := fs.Int("exclude", 0, "event id to leave out")
		if err := fs.parse(args); err != nil {
			return nil, err
		}
		if err := fs.require("category", "start"); err != nil {
			return nil, err
		}

		startAt, err := parseTime("start", *start)
		if err != nil {
			return nil, err
		}
		return deps.Client.AllocatedTimeSlots(ctx, *category, startAt, *exclude)
	}
}
