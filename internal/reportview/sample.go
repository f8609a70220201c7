package reportview

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/roadwatch/internal/models"
)

var (
	sampleStreets = []string{"Main Street", "Maple Avenue", "Oak Lane", "Cedar Road", "Pine Drive"}
	sampleSizes   = []string{"small", "medium", "large", "dangerous"}
	sampleEffects = []string{
		"could damage vehicles",
		"is causing traffic to slow down",
		"has already damaged multiple vehicles",
		"is creating a hazard for cyclists",
	}
	sampleStatuses   = []models.Status{models.StatusReported, models.StatusInProgress, models.StatusResolved}
	sampleSeverities = []models.Severity{models.SeverityLow, models.SeverityMedium, models.SeverityHigh}
)

// SampleReports генерирует демонстрационный набор отчётов вокруг Нью-Йорка.
// Одинаковый seed даёт одинаковый набор.
func SampleReports(n int, seed int64, now time.Time) []models.Report {
	rnd := rand.New(rand.NewSource(seed))
	reports := make([]models.Report, 0, n)

	for i := 0; i < n; i++ {
		street := sampleStreets[i%len(sampleStreets)]
		var images []string
		if i%3 != 0 {
			images = []string{fmt.Sprintf("https://source.unsplash.com/random/300x200?pothole&sig=%d", i)}
		}

		reports = append(reports, models.Report{
			ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("roadwatch:sample:%d:%d", seed, i))),
			Title:       "Pothole on " + street,
			Description: fmt.Sprintf("A %s pothole that %s.", sampleSizes[i%len(sampleSizes)], sampleEffects[i%len(sampleEffects)]),
			Location: models.Location{
				Lat:     40 + (rnd.Float64()*10 - 5),
				Lng:     -74 + (rnd.Float64()*10 - 5),
				Address: fmt.Sprintf("%d %s, Cityville", 100+i, street),
			},
			Severity:     sampleSeverities[i%len(sampleSeverities)],
			Status:       sampleStatuses[i%len(sampleStatuses)],
			Images:       images,
			ReportedBy:   fmt.Sprintf("User%d", i+1),
			Upvotes:      rnd.Intn(50),
			DateReported: now.Add(-time.Duration(rnd.Intn(30)) * 24 * time.Hour),
		})
	}
	return reports
}
