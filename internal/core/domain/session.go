package domain

import (
	"fmt"
	"time"
)

// Mode is the session trigger. At most one of query and upload is active at a time.
type Mode string

const (
	ModeIdle   Mode = "idle"
	ModeQuery  Mode = "query"
	ModeUpload Mode = "upload"
)

const (
	TriggerConflictWarning = "Please complete one action (Upload or Query) at a time."
	UploadCompletedNotice  = "Upload completed successfully. This document has been summarized below."
)

// Session is the request context shared between the HTTP layer and the use cases.
// Values are never mutated in place: every transition returns a new Session.
type Session struct {
	ID        string        `json:"id"`
	Mode      Mode          `json:"mode"`
	InFlight  bool          `json:"in_flight"`
	Conflict  bool          `json:"conflict"`
	Query     string        `json:"query,omitempty"`
	Result    *QueryResult  `json:"result,omitempty"`
	Upload    *UploadResult `json:"upload,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func NewSession(id string) Session {
	return Session{ID: id, Mode: ModeIdle}
}

// Begin activates mode. Activating one mode while the other is still in flight is
// rejected: the returned session carries the conflict and drops both summaries.
func (s Session) Begin(mode Mode, at time.Time) (Session, error) {
	if mode != ModeQuery && mode != ModeUpload {
		return s, WrapError(ErrInvalidInput, "begin trigger", fmt.Errorf("unsupported mode %q", mode))
	}

	next := s
	next.UpdatedAt = at
	if s.InFlight && s.Mode != mode {
		next.Conflict = true
		next.Result = nil
		next.Upload = nil
		return next, WrapError(ErrTriggerConflict, "begin "+string(mode), fmt.Errorf("%s already in progress", s.Mode))
	}

	next.Mode = mode
	next.InFlight = true
	next.Conflict = false
	switch mode {
	case ModeQuery:
		next.Upload = nil
	case ModeUpload:
		next.Query = ""
		next.Result = nil
	}
	return next, nil
}

func (s Session) FinishQuery(query string, result QueryResult, at time.Time) (Session, error) {
	if err := s.ensureActive(ModeQuery); err != nil {
		return s, err
	}
	next := s
	next.InFlight = false
	next.Query = query
	next.Result = &result
	next.UpdatedAt = at
	return next, nil
}

func (s Session) FinishUpload(result UploadResult, at time.Time) (Session, error) {
	if err := s.ensureActive(ModeUpload); err != nil {
		return s, err
	}
	next := s
	next.InFlight = false
	next.Upload = &result
	next.UpdatedAt = at
	return next, nil
}

// Abort settles an in-flight mode without a result.
func (s Session) Abort(mode Mode, at time.Time) Session {
	if !s.InFlight || s.Mode != mode {
		return s
	}
	next := s
	next.InFlight = false
	next.UpdatedAt = at
	return next
}

func (s Session) ensureActive(mode Mode) error {
	if !s.InFlight || s.Mode != mode {
		return WrapError(ErrTriggerConflict, "finish "+string(mode), fmt.Errorf("session mode is %s", s.Mode))
	}
	return nil
}

type SessionView struct {
	ID       string        `json:"id"`
	Mode     Mode          `json:"mode"`
	InFlight bool          `json:"in_flight"`
	Warning  string        `json:"warning,omitempty"`
	Notice   string        `json:"notice,omitempty"`
	Query    string        `json:"query,omitempty"`
	Summary  string        `json:"summary,omitempty"`
	Sources  []Source      `json:"sources,omitempty"`
	Upload   *UploadResult `json:"upload,omitempty"`
}

func (s Session) View() SessionView {
	view := SessionView{ID: s.ID, Mode: s.Mode, InFlight: s.InFlight}
	if s.Conflict {
		view.Warning = TriggerConflictWarning
		return view
	}
	switch {
	case s.Mode == ModeQuery && s.Result != nil:
		view.Query = s.Query
		view.Summary = s.Result.Answer
		view.Sources = s.Result.Sources
	case s.Mode == ModeUpload && s.Upload != nil:
		view.Notice = UploadCompletedNotice
		view.Summary = s.Upload.Summary
		view.Upload = s.Upload
	}
	return view
}

// ReportContent returns the settled summary of the active mode as a report request
// without title or timestamp.
func (s Session) ReportContent() (ReportRequest, bool) {
	if s.Conflict || s.InFlight {
		return ReportRequest{}, false
	}
	switch {
	case s.Mode == ModeQuery && s.Result != nil && s.Result.Answer != "":
		return ReportRequest{
			Query:   s.Query,
			Answer:  s.Result.Answer,
			Sources: s.Result.Sources,
		}, true
	case s.Mode == ModeUpload && s.Upload != nil && s.Upload.Summary != "":
		return ReportRequest{
			DocumentName: s.Upload.Upload.Filename,
			Answer:       s.Upload.Summary,
			Sources:      []Source{{Title: s.Upload.Upload.Filename, URI: s.Upload.Upload.URI}},
		}, true
	}
	return ReportRequest{}, false
}
