package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/pantry/internal/recipeservice"
	"github.com/starford/pantry/internal/session"
)

// CreateSessionRequest is the request body for opening a filter session.
type CreateSessionRequest struct {
	Page string `json:"page" example:"index.html" validate:"required"`
}

// Validate checks the request.
func (r CreateSessionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Page, validation.Required),
	)
}

// SessionEventRequest is one UI input event posted to a session.
type SessionEventRequest struct {
	Type  string `json:"type" example:"input" validate:"required"`
	Field string `json:"field,omitempty" example:"query"`
	Value string `json:"value,omitempty" example:"chicken"`
	Key   string `json:"key,omitempty" example:"Enter"`
}

// Validate checks the request.
func (r SessionEventRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required,
			validation.In(session.EventInput, session.EventChange, session.EventKeydown, session.EventSubmit)),
		validation.Field(&r.Field,
			validation.When(r.Type == session.EventChange, validation.Required, validation.In(session.FieldPrep, session.FieldCook)),
			validation.When(r.Type == session.EventInput, validation.In(session.FieldQuery)),
		),
		validation.Field(&r.Key,
			validation.When(r.Type == session.EventKeydown, validation.Required),
		),
	)
}

func (r SessionEventRequest) event() session.Event {
	return session.Event{Type: r.Type, Field: r.Field, Value: r.Value, Key: r.Key}
}

// PageListItem is a lightweight item in a page listing (aliased from the domain layer).
type PageListItem = recipeservice.PageListItem

// PageListResponse wraps page listings.
type PageListResponse struct {
	Pages []PageListItem `json:"pages" validate:"required"`
}

// FilterResponse is the outcome of a one-shot filter pass (aliased from the domain layer).
type FilterResponse = recipeservice.FilterResult

// SessionResponse is the state of a filter session (aliased from the domain layer).
type SessionResponse = session.Snapshot
