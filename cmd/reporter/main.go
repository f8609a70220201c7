package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/roadwatch/internal/client"
	"github.com/ignatzorin/roadwatch/internal/composer"
	"github.com/ignatzorin/roadwatch/internal/intake"
	"github.com/ignatzorin/roadwatch/internal/logger"
	"github.com/ignatzorin/roadwatch/internal/models"
	"github.com/ignatzorin/roadwatch/internal/pkg/apperror"
	"github.com/ignatzorin/roadwatch/internal/reportview"
)

const usage = `usage: reporter [-api URL] <command> [flags]

commands:
  submit   compose and submit a pothole report
  list     list reports with search, filters and sorting
  upvote   upvote a report by id
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Init(os.Getenv("LOG_LEVEL"), "development")

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if fields := apperror.FieldsOf(err); len(fields) > 0 {
			for _, f := range fields {
				fmt.Fprintf(os.Stderr, "  %s: %s\n", f.Field, f.Message)
			}
		}
		logger.Component("reporter").WithError(err).Error("команда завершилась с ошибкой")
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("reporter", flag.ContinueOnError)
	apiURL := global.String("api", envOr("ROADWATCH_API", "http://localhost:8080"), "base URL of the RoadWatch API")
	global.Usage = func() { fmt.Fprint(global.Output(), usage) }
	if err := global.Parse(args); err != nil {
		return err
	}

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return errors.New("reporter: не указана команда")
	}

	api := client.New(*apiURL)
	switch rest[0] {
	case "submit":
		return runSubmit(ctx, api, rest[1:], out)
	case "list":
		return runList(ctx, api, rest[1:], out)
	case "upvote":
		return runUpvote(ctx, api, rest[1:], out)
	default:
		global.Usage()
		return fmt.Errorf("reporter: неизвестная команда %q", rest[0])
	}
}

// photoList собирает повторяющийся флаг -photo.
type photoList []string

func (p *photoList) String() string { return strings.Join(*p, ",") }

func (p *photoList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

func runSubmit(ctx context.Context, creator composer.Creator, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	var (
		lat         = fs.Float64("lat", 0, "latitude")
		lng         = fs.Float64("lng", 0, "longitude")
		address     = fs.String("address", "", "human-readable address")
		title       = fs.String("title", "", "report title")
		description = fs.String("description", "", "report description")
		severity    = fs.String("severity", string(models.DefaultSeverity), "low, medium or high")
		photos      photoList
	)
	fs.Var(&photos, "photo", "path to a photo (repeatable, up to 3)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	log := logger.Component("reporter")
	comp := composer.New(creator, composer.WithNotifier(composer.NotifierFunc(func(n composer.Notice) {
		entry := log.WithField("notice", n.Title)
		if n.Variant == composer.VariantDestructive {
			entry.Warn(n.Description)
			return
		}
		entry.Info(n.Description)
	})))

	if err := comp.SetLocation(models.Location{Lat: *lat, Lng: *lng, Address: *address}); err != nil {
		return err
	}
	if err := comp.Next(); err != nil {
		return err
	}

	files := make([]intake.File, 0, len(photos))
	for _, path := range photos {
		f, err := intake.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, f)
	}
	if len(files) > 0 {
		if err := comp.AddPhotos(ctx, files); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"selected": len(files),
			"accepted": len(comp.Draft().Images),
		}).Debug("фотографии приняты")
	}
	if err := comp.Next(); err != nil {
		return err
	}

	comp.SetTitle(*title)
	comp.SetDescription(*description)
	if err := comp.SetSeverity(models.Severity(strings.ToLower(*severity))); err != nil {
		return err
	}

	report, err := comp.Submit(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "submitted %s\n", report.ID)
	printCard(out, *report, time.Now())
	return nil
}

func runList(ctx context.Context, fetcher reportview.Fetcher, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	var (
		search   = fs.String("search", "", "case-insensitive search in title, description and address")
		status   = fs.String("status", reportview.FilterAll, "all, reported, in-progress or resolved")
		severity = fs.String("severity", reportview.FilterAll, "all, low, medium or high")
		sortKey  = fs.String("sort", string(reportview.SortNewest), "newest, oldest, upvotes or severity")
		sample   = fs.Int("sample", 0, "show N generated sample reports instead of fetching")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	key, err := reportview.ParseSortKey(*sortKey)
	if err != nil {
		return apperror.Validation(apperror.Field("sort", err.Error()))
	}

	now := time.Now()
	store := reportview.NewStore()
	if *sample > 0 {
		store.Replace(reportview.SampleReports(*sample, now.UnixNano(), now))
	} else if err := store.Load(ctx, fetcher); err != nil {
		return err
	}

	result := store.View(reportview.Query{
		Search:   *search,
		Status:   *status,
		Severity: *severity,
		Sort:     key,
	})
	if result.Empty() {
		fmt.Fprintln(out, reportview.EmptyMessage)
		return nil
	}
	for _, r := range result {
		printCard(out, r, now)
	}
	return nil
}

func runUpvote(ctx context.Context, api *client.Client, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("reporter: upvote ожидает один id")
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return apperror.Validation(apperror.Field("id", "id must be a valid UUID"))
	}

	report, err := api.Upvote(ctx, id)
	if err != nil {
		return err
	}
	printCard(out, *report, time.Now())
	return nil
}

func printCard(out io.Writer, r models.Report, now time.Time) {
	card := reportview.Summarize(r, now)
	fmt.Fprintf(out, "[%s | %s] %s\n", card.Severity, card.Status, card.Title)
	if card.Excerpt != "" {
		fmt.Fprintf(out, "  %s\n", card.Excerpt)
	}
	fmt.Fprintf(out, "  %s · %s · %s\n", card.Location, card.UpvotesLabel, card.Age)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
