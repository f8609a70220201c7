package ws

// События, которые хаб рассылает подписчикам.
const (
	EventReportCreated       = "report.created"
	EventReportUpvoted       = "report.upvoted"
	EventReportStatusChanged = "report.status_changed"
)

// Envelope — формат сообщения: имя события в "type", данные в "data".
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}
