package models

import "github.com/ignatzorin/roadwatch/internal/pkg/apperror"

// Severity — оценка срочности, которую выбирает автор отчёта.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// DefaultSeverity используется для нового черновика.
const DefaultSeverity = SeverityMedium

func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Rank возвращает вес для сортировки: high=3, medium=2, low=1.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

func NewSeverity(severity string) (Severity, error) {
	s := Severity(severity)
	if !s.IsValid() {
		return "", apperror.Validation(apperror.Field("severity", "severity must be one of low, medium, high"))
	}
	return s, nil
}

// Status — стадия обработки отчёта службой дорожного ремонта.
type Status string

const (
	StatusReported   Status = "reported"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusReported, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// Label — человекочитаемое название статуса для карточки.
func (s Status) Label() string {
	switch s {
	case StatusReported:
		return "Reported"
	case StatusInProgress:
		return "In Progress"
	case StatusResolved:
		return "Resolved"
	}
	return string(s)
}

func (s Status) CanTransitionTo(newStatus Status) bool {
	transitions := map[Status][]Status{
		StatusReported:   {StatusInProgress, StatusResolved},
		StatusInProgress: {StatusResolved},
		StatusResolved:   {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

func NewStatus(status string) (Status, error) {
	s := Status(status)
	if !s.IsValid() {
		return "", apperror.Validation(apperror.Field("status", "status must be one of reported, in-progress, resolved"))
	}
	return s, nil
}

// AnonymousReporter подставляется, когда автор отчёта не указан.
const AnonymousReporter = "Anonymous User"

// MaxImages — сколько фотографий можно приложить к одному отчёту.
const MaxImages = 3
