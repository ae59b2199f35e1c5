package domain

import (
	"strings"
	"time"
)

// Keys of a LogEntry.
const (
	KeyErrorType      = "errorType"
	KeyErrorReason    = "errorReason"
	KeyOriginLocation = "originLocation"
	KeyErrorDetails   = "errorDetails"
	KeyReportID       = "reportId"
	KeyCaptureError   = "captureError"
	KeyUrgent         = "urgent"
)

// AlertTimeLayout renders timestamps as yyyy-MM-dd HH:mm:ss.
const AlertTimeLayout = "2006-01-02 15:04:05"

// LogEntry is the structured record handed to a sink for one reporting call.
type LogEntry map[string]any

// NewLogEntry builds the default keys from a root cause. The root's details
// object, when present, goes under errorDetails.
func NewLogEntry(rc RootCause) LogEntry {
	entry := LogEntry{
		KeyErrorType:      rc.TypeName,
		KeyErrorReason:    rc.Message,
		KeyOriginLocation: rc.OriginLocation,
	}
	if rc.Details.Kind() == KindMapping {
		entry[KeyErrorDetails] = rc.Details.Interface()
	}
	return entry
}

// Merge applies extra on top of the entry; extra wins on collision.
func (e LogEntry) Merge(extra map[string]any) LogEntry {
	for k, v := range extra {
		e[k] = v
	}
	return e
}

func (e LogEntry) Text(key string) string {
	s, _ := e[key].(string)
	return s
}

// AlertRequest is a single outbound SMS notification.
type AlertRequest struct {
	Name         string
	Message      string
	Recipients   []string
	Level        int
	TemplateCode string
	Timestamp    time.Time
}

// UrgentMessage formats the alert text for an urgent report.
func UrgentMessage(label string) string {
	return "Urgent error! " + label + " failed"
}

// FormattedTime renders the timestamp in local time.
func (a AlertRequest) FormattedTime() string {
	return a.Timestamp.Local().Format(AlertTimeLayout)
}

// ErrorMsg is the message text with the timestamp appended.
func (a AlertRequest) ErrorMsg() string {
	return a.Message + " time: " + a.FormattedTime()
}

func (a AlertRequest) PhoneNumbers() string {
	return strings.Join(a.Recipients, ",")
}
