package transport

import "github.com/google/uuid"

// CommitRequest carries the form fields sent next to the uploaded file.
type CommitRequest struct {
	// Mapping overrides the guessed mapping: field name to header text.
	Mapping        map[string]string `json:"mapping,omitempty"`
	SkipDuplicates *bool             `json:"skipDuplicates,omitempty"`
	DefaultStatus  string            `json:"defaultStatus,omitempty" validate:"omitempty,oneof=new contacted qualified proposal negotiation won lost"`
	DefaultSource  string            `json:"defaultSource,omitempty" validate:"omitempty,max=100"`
	AssignTo       *uuid.UUID        `json:"assignTo,omitempty"`
}

type PreviewResponse struct {
	FileName  string              `json:"fileName"`
	Format    string              `json:"format"`
	Headers   []string            `json:"headers"`
	Mapping   map[string]string   `json:"mapping"`
	Unmapped  []string            `json:"unmapped"`
	Rows      []map[string]string `json:"rows"`
	TotalRows int                 `json:"totalRows"`
}

type RowFailure struct {
	// Row is the 1-based line of the row in the uploaded file.
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

type CommitResponse struct {
	Created           int          `json:"created"`
	SkippedDuplicates int          `json:"skippedDuplicates"`
	Failed            []RowFailure `json:"failed"`
	ArchiveKey        string       `json:"archiveKey,omitempty"`
}
