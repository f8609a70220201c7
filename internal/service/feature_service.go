package service

import "github.com/ignatzorin/roadwatch/internal/models"

var features = []models.Feature{
	{
		Icon:        "camera",
		Title:       "Photo Documentation",
		Description: "Take photos of potholes to provide clear visual evidence for faster assessment and repair.",
	},
	{
		Icon:        "map-pin",
		Title:       "Precise Location",
		Description: "Pinpoint the exact location of road hazards to help maintenance crews find and fix issues quickly.",
	},
	{
		Icon:        "clock",
		Title:       "Real-time Updates",
		Description: "Get notifications as your reports move through the repair process from submission to resolution.",
	},
	{
		Icon:        "trending-up",
		Title:       "Progress Tracking",
		Description: "Track the status of reported potholes and follow the progress of repairs in your area.",
	},
	{
		Icon:        "users",
		Title:       "Community Impact",
		Description: "Join a network of engaged citizens making a real difference in improving local infrastructure.",
	},
	{
		Icon:        "shield",
		Title:       "Road Safety",
		Description: "Contribute to safer roads for everyone by helping identify and address dangerous conditions.",
	},
}

// FeatureService отдаёт статический список возможностей сервиса.
type FeatureService struct{}

func NewFeatureService() *FeatureService { return &FeatureService{} }

// List возвращает копию списка, чтобы вызывающий не мог его изменить.
func (s *FeatureService) List() []models.Feature {
	return append([]models.Feature(nil), features...)
}
