package intake

import (
	"context"
	"errors"
	"fmt"
	"mime"

	"golang.org/x/sync/errgroup"

	"github.com/ignatzorin/roadwatch/internal/models"
)

// ErrIndexOutOfRange возвращается при удалении несуществующего изображения.
var ErrIndexOutOfRange = errors.New("intake: индекс изображения вне диапазона")

// File — файл, выбранный пользователем через диалог или перетаскиванием.
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// ChangeFunc получает актуальный список изображений после каждого изменения.
type ChangeFunc func(images []string)

// Intake принимает фотографии для отчёта.
// Принадлежит одному владельцу (шагу мастера) и не предназначен для конкурентного использования.
type Intake struct {
	max      int
	images   []string
	onChange ChangeFunc
	dragging bool
}

// Option настраивает Intake.
type Option func(*Intake)

// WithMax задаёт максимальное количество изображений.
func WithMax(n int) Option {
	return func(in *Intake) {
		if n > 0 {
			in.max = n
		}
	}
}

// WithOnChange задаёт получателя обновлений.
func WithOnChange(fn ChangeFunc) Option {
	return func(in *Intake) {
		in.onChange = fn
	}
}

// New создаёт Intake с лимитом по умолчанию models.MaxImages.
func New(opts ...Option) *Intake {
	in := &Intake{max: models.MaxImages}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// AcceptFiles фильтрует файлы, кодирует принятые параллельно и добавляет их
// одним шагом в порядке выбора. Получатель уведомляется один раз за вызов.
func (in *Intake) AcceptFiles(ctx context.Context, files []File) error {
	accepted := make([]File, 0, len(files))
	for _, f := range files {
		if len(in.images)+len(accepted) >= in.max {
			break
		}
		if !acceptable(f) {
			continue
		}
		accepted = append(accepted, f)
	}
	if len(accepted) == 0 {
		return nil
	}

	encoded := make([]string, len(accepted))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range accepted {
		i, f := i, f
		g.Go(func() error {
			url, err := Encode(gctx, f)
			if err != nil {
				return fmt.Errorf("intake: не удалось обработать %q: %w", f.Name, err)
			}
			encoded[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	updated := make([]string, 0, len(in.images)+len(encoded))
	updated = append(updated, in.images...)
	updated = append(updated, encoded...)
	in.images = updated
	in.notify()
	return nil
}

// Pick обрабатывает файлы из диалога выбора.
func (in *Intake) Pick(ctx context.Context, files []File) error {
	return in.AcceptFiles(ctx, files)
}

// Drop обрабатывает файлы, брошенные в зону перетаскивания.
func (in *Intake) Drop(ctx context.Context, files []File) error {
	in.dragging = false
	if len(files) == 0 {
		return nil
	}
	return in.AcceptFiles(ctx, files)
}

// DragEnter включает подсветку зоны перетаскивания.
func (in *Intake) DragEnter() { in.dragging = true }

// DragLeave выключает подсветку зоны перетаскивания.
func (in *Intake) DragLeave() { in.dragging = false }

// Dragging сообщает, находится ли файл над зоной перетаскивания.
func (in *Intake) Dragging() bool { return in.dragging }

// Remove удаляет изображение по индексу, остальные сдвигаются.
func (in *Intake) Remove(index int) error {
	if index < 0 || index >= len(in.images) {
		return ErrIndexOutOfRange
	}
	updated := make([]string, 0, len(in.images)-1)
	updated = append(updated, in.images[:index]...)
	updated = append(updated, in.images[index+1:]...)
	in.images = updated
	in.notify()
	return nil
}

// Images возвращает копию списка изображений.
func (in *Intake) Images() []string {
	out := make([]string, len(in.images))
	copy(out, in.images)
	return out
}

// Max возвращает лимит изображений.
func (in *Intake) Max() int { return in.max }

// Remaining возвращает, сколько изображений ещё можно добавить.
func (in *Intake) Remaining() int { return in.max - len(in.images) }

// Reset очищает список без уведомления.
func (in *Intake) Reset() {
	in.images = nil
	in.dragging = false
}

// acceptable отсекает пустые файлы и типы, которые сервер не примет.
// Если содержимое распознано, проверяется и реальный тип.
func acceptable(f File) bool {
	if len(f.Data) == 0 || !IsImageType(f.MediaType) {
		return false
	}
	if detected, ok := DetectImageType(f.Data); ok && !IsImageType(detected) {
		return false
	}
	return true
}

func (in *Intake) notify() {
	if in.onChange != nil {
		in.onChange(in.Images())
	}
}

// Encode превращает файл в data URL. Тип берётся по магическим байтам,
// если их удалось распознать, иначе используется заявленный.
func Encode(ctx context.Context, f File) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	mediaType, ok := DetectImageType(f.Data)
	if !ok {
		parsed, _, err := mime.ParseMediaType(f.MediaType)
		if err != nil {
			return "", fmt.Errorf("некорректный тип %q: %w", f.MediaType, err)
		}
		mediaType = parsed
	}
	return EncodeDataURL(mediaType, f.Data), nil
}
