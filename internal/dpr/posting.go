package dpr

import (
	"errors"
	"time"
)

var (
	ErrReferenceReport = errors.New("imported reference reports cannot be posted to stock")
	ErrAlreadyPosted   = errors.New("report already posted to stock")
	ErrPosted          = errors.New("posted reports cannot be changed")
)

// CanPost checks the draft -> posted transition. Reference reports are
// rejected whatever their totals.
func CanPost(d *DPRData) error {
	if d.IsReference || d.Origin == OriginImport {
		return ErrReferenceReport
	}
	if d.PostingStatus == StatusPosted {
		return ErrAlreadyPosted
	}
	return nil
}

// CanEdit reports whether the report is still a draft.
func CanEdit(d *DPRData) error {
	if d.PostingStatus == StatusPosted {
		return ErrPosted
	}
	return nil
}

// MarkPosted moves the report to posted.
func MarkPosted(d *DPRData, by string, at time.Time) error {
	if err := CanPost(d); err != nil {
		return err
	}
	d.PostingStatus = StatusPosted
	d.PostedBy = by
	d.PostedAt = &at
	return nil
}
