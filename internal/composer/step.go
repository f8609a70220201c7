package composer

import (
	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
)

// Step — шаг мастера создания отчёта.
type Step int

const (
	StepLocation Step = iota + 1
	StepPhotos
	StepDetails
	StepSubmitted
)

func (s Step) String() string {
	switch s {
	case StepLocation:
		return "location"
	case StepPhotos:
		return "photos"
	case StepDetails:
		return "details"
	case StepSubmitted:
		return "submitted"
	}
	return "unknown"
}

// Progress — доля заполненной полосы прогресса: 0, 50 или 100 процентов.
func (s Step) Progress() int {
	switch s {
	case StepPhotos:
		return 50
	case StepDetails, StepSubmitted:
		return 100
	}
	return 0
}

// guard проверяет черновик перед переходом вперёд.
type guard func(d *Draft) error

type edge struct {
	next  Step
	guard guard
}

// forward — допустимые переходы вперёд. Из StepDetails вперёд ведёт только Submit.
var forward = map[Step]edge{
	StepLocation: {next: StepPhotos, guard: requireLocation},
	StepPhotos:   {next: StepDetails},
}

// backward — переходы назад, черновик при этом не меняется.
var backward = map[Step]Step{
	StepPhotos:  StepLocation,
	StepDetails: StepPhotos,
}

func requireLocation(d *Draft) error {
	if d.Location == nil {
		return apperror.ErrLocationRequired
	}
	return nil
}
