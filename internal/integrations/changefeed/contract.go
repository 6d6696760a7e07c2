package changefeed

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Metrics счетчик событий ленты (реализуется pkg/metrics, допускает nil)
type Metrics interface {
	IncChangeFeedEvent(direction string, err error)
}
