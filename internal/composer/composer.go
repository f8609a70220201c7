package composer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ignatzorin/roadwatch/internal/intake"
	"github.com/ignatzorin/roadwatch/internal/locator"
	"github.com/ignatzorin/roadwatch/internal/models"
	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
	"github.com/ignatzorin/roadwatch/internal/validation"
)

var (
	ErrSubmissionInFlight = errors.New("composer: отчёт уже отправляется")
	ErrWrongStep          = errors.New("composer: действие недоступно на этом шаге")
	ErrNoStep             = errors.New("composer: переход недоступен")
)

// Draft — незавершённый отчёт.
type Draft struct {
	Location    *models.Location
	Images      []string
	Title       string
	Description string
	Severity    models.Severity
}

func emptyDraft() Draft {
	return Draft{Severity: models.DefaultSeverity}
}

// Creator — внешняя граница создания отчёта (HTTP API).
type Creator interface {
	CreateReport(ctx context.Context, r *models.Report) (*models.Report, error)
}

// Variant — вид уведомления.
type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notice — уведомление пользователю.
type Notice struct {
	Title       string
	Description string
	Variant     Variant
}

// Notifier показывает уведомления.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc позволяет использовать функцию как Notifier.
type NotifierFunc func(n Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Composer — мастер из трёх шагов: место, фото, детали.
type Composer struct {
	mu       sync.Mutex
	step     Step
	draft    Draft
	creator  Creator
	notifier Notifier
	picker   *locator.Picker
	photos   *intake.Intake
	now      func() time.Time

	submitting atomic.Bool
}

// Option настраивает Composer.
type Option func(*Composer)

// WithPicker задаёт карту для выбора места.
func WithPicker(p *locator.Picker) Option {
	return func(c *Composer) { c.picker = p }
}

// WithNotifier задаёт получателя уведомлений.
func WithNotifier(n Notifier) Option {
	return func(c *Composer) { c.notifier = n }
}

// WithClock подменяет источник времени.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) { c.now = now }
}

// WithMaxImages задаёт лимит фотографий.
func WithMaxImages(n int) Option {
	return func(c *Composer) {
		c.photos = intake.New(intake.WithMax(n), intake.WithOnChange(c.setImages))
	}
}

// New создаёт мастер на первом шаге с пустым черновиком.
func New(creator Creator, opts ...Option) *Composer {
	c := &Composer{
		step:     StepLocation,
		draft:    emptyDraft(),
		creator:  creator,
		notifier: NotifierFunc(func(Notice) {}),
		picker:   locator.NewPicker(),
		now:      time.Now,
	}
	c.photos = intake.New(intake.WithOnChange(c.setImages))
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Step возвращает текущий шаг.
func (c *Composer) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

// Draft возвращает копию черновика.
func (c *Composer) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.draft
	d.Images = append([]string(nil), c.draft.Images...)
	if c.draft.Location != nil {
		loc := *c.draft.Location
		d.Location = &loc
	}
	return d
}

// Picker возвращает карту шага "Location".
func (c *Composer) Picker() *locator.Picker { return c.picker }

// Photos возвращает приёмник фотографий шага "Photos".
func (c *Composer) Photos() *intake.Intake { return c.photos }

// Submitting сообщает, что отправка ещё идёт.
func (c *Composer) Submitting() bool { return c.submitting.Load() }

// SetLocation задаёт место напрямую.
func (c *Composer) SetLocation(loc models.Location) error {
	if err := validation.ValidateLocation(&loc); err != nil {
		return apperror.Validation(apperror.Field("location", err.Error()))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Location = &loc
	return nil
}

// SelectAt выбирает место кликом по карте.
func (c *Composer) SelectAt(ctx context.Context, x, y float64) (models.Location, error) {
	loc, err := c.picker.SelectAt(ctx, x, y)
	if err != nil {
		return models.Location{}, err
	}
	return loc, c.SetLocation(loc)
}

// UseDeviceLocation берёт координаты устройства. При ошибке место в черновике не меняется.
func (c *Composer) UseDeviceLocation(ctx context.Context) (models.Location, error) {
	loc, err := c.picker.UseDeviceLocation(ctx)
	if err != nil {
		c.notifier.Notify(Notice{
			Title:       "Location Unavailable",
			Description: "Could not determine your location. Try again or pick it on the map.",
			Variant:     VariantDestructive,
		})
		return models.Location{}, err
	}
	return loc, c.SetLocation(loc)
}

// AddPhotos добавляет фотографии через приёмник.
func (c *Composer) AddPhotos(ctx context.Context, files []intake.File) error {
	return c.photos.AcceptFiles(ctx, files)
}

// RemovePhoto удаляет фотографию по индексу.
func (c *Composer) RemovePhoto(index int) error {
	return c.photos.Remove(index)
}

func (c *Composer) setImages(images []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Images = images
}

// SetTitle задаёт заголовок.
func (c *Composer) SetTitle(title string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Title = title
}

// SetDescription задаёт описание.
func (c *Composer) SetDescription(description string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Description = description
}

// SetSeverity задаёт серьёзность.
func (c *Composer) SetSeverity(s models.Severity) error {
	if !s.IsValid() {
		return apperror.Validation(apperror.Field("severity", "severity must be one of low, medium, high"))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft.Severity = s
	return nil
}

// Next переходит на следующий шаг, если черновик проходит проверку.
// Уведомление отправляется после снятия блокировки.
func (c *Composer) Next() error {
	if err := c.advance(); err != nil {
		if errors.Is(err, apperror.ErrLocationRequired) {
			c.notifier.Notify(Notice{
				Title:       "Location Required",
				Description: "Please select a location on the map.",
				Variant:     VariantDestructive,
			})
		}
		return err
	}
	return nil
}

func (c *Composer) advance() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := forward[c.step]
	if !ok {
		return ErrNoStep
	}
	if e.guard != nil {
		if err := e.guard(&c.draft); err != nil {
			return err
		}
	}
	c.step = e.next
	return nil
}

// Back возвращает на предыдущий шаг, сохраняя черновик.
func (c *Composer) Back() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, ok := backward[c.step]
	if !ok {
		return ErrNoStep
	}
	c.step = prev
	return nil
}

// GoTo переходит на один из уже пройденных шагов.
func (c *Composer) GoTo(target Step) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if target < StepLocation || target >= c.step || c.step == StepSubmitted {
		return ErrNoStep
	}
	c.step = target
	return nil
}

// Submit проверяет детали, собирает отчёт и отправляет его.
// Успех: уведомление, сброс черновика, возврат на первый шаг.
// Ошибка хранилища: уведомление, черновик и шаг сохраняются.
func (c *Composer) Submit(ctx context.Context) (*models.Report, error) {
	if !c.submitting.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInFlight
	}
	defer c.submitting.Store(false)

	report, err := c.assemble()
	if err != nil {
		return nil, err
	}

	created, err := c.creator.CreateReport(ctx, report)
	if err != nil {
		c.notifier.Notify(Notice{
			Title:       "Submission Failed",
			Description: "Your report could not be submitted. Please try again.",
			Variant:     VariantDestructive,
		})
		if !apperror.IsSubmissionFailure(err) {
			err = apperror.Wrap(err, apperror.ErrCodeSubmissionFailure, "failed to submit report")
		}
		return nil, err
	}

	c.mu.Lock()
	c.step = StepSubmitted
	c.mu.Unlock()

	c.notifier.Notify(Notice{
		Title:       "Report Submitted",
		Description: "Thank you for your report. It has been successfully submitted.",
		Variant:     VariantDefault,
	})
	c.Reset()
	return created, nil
}

func (c *Composer) assemble() (*models.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != StepDetails {
		return nil, fmt.Errorf("%w: %s", ErrWrongStep, c.step)
	}
	if err := requireLocation(&c.draft); err != nil {
		return nil, err
	}
	if err := validation.ValidateDetails(c.draft.Title, c.draft.Description); err != nil {
		return nil, err
	}

	return &models.Report{
		Title:        strings.TrimSpace(c.draft.Title),
		Description:  strings.TrimSpace(c.draft.Description),
		Severity:     c.draft.Severity,
		Location:     *c.draft.Location,
		Images:       append([]string(nil), c.draft.Images...),
		Status:       models.StatusReported,
		Upvotes:      0,
		ReportedBy:   models.AnonymousReporter,
		DateReported: c.now(),
	}, nil
}

// Reset очищает черновик и возвращает мастер на первый шаг.
func (c *Composer) Reset() {
	c.photos.Reset()
	c.picker.Clear()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = emptyDraft()
	c.step = StepLocation
}
