package handlers

import (
	"github.com/egor/deskchatserver/push"
	"github.com/egor/deskchatserver/realtime"
)

// Hub — общий хаб live-обновлений, устанавливается из main
var Hub *realtime.Hub

// SetHub передает хаб обработчикам
func SetHub(h *realtime.Hub) {
	Hub = h
}

// Notifier — push-канал для уведомлений о сообщениях посетителей
var Notifier *push.Notifier

// SetNotifier передает push-канал обработчикам
func SetNotifier(n *push.Notifier) {
	Notifier = n
}
