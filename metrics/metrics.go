package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesTotal — записанные сообщения по отправителю
	MessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deskchat_messages_total",
		Help: "Количество сохраненных сообщений чата.",
	}, []string{"sender"})

	// OpenStreams — открытые live-потоки по транспорту (sse/ws)
	OpenStreams = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "deskchat_open_streams",
		Help: "Текущее количество открытых потоков live-обновлений.",
	}, []string{"transport"})

	// PushFailures — неудачные отправки push-уведомлений
	PushFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "deskchat_push_failures_total",
		Help: "Количество неудачных push-уведомлений.",
	})
)

func init() {
	prometheus.MustRegister(MessagesTotal, OpenStreams, PushFailures)
}

// Handler возвращает HTTP-обработчик /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
