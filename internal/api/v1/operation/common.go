package operation

import "github.com/erfajc97/anko-back/internal/api/v1/dto"

// PageInput is embedded by every paged listing.
type PageInput struct {
	Page    int `query:"page" default:"1" minimum:"1" doc:"Page number, starting at 1"`
	PerPage int `query:"per_page" default:"10" minimum:"1" maximum:"100" doc:"Items per page"`
}

// RangeInput is an optional [from, to) window of studio-local dates.
type RangeInput struct {
	From string `query:"from" doc:"First day, YYYY-MM-DD (defaults to today)"`
	To   string `query:"to" doc:"Day after the last one, YYYY-MM-DD"`
}

type IDInput struct {
	ID string `path:"id" format:"uuid" doc:"Resource ID"`
}

type MessageOutput struct {
	Body dto.MessageDTO `json:"body"`
}

type NoContentOutput struct {
	// 204 No Content
}
