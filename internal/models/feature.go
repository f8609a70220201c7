package models

// Feature — запись для блока возможностей на главной странице.
type Feature struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
