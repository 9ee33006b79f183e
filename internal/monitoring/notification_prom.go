package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var NotificationCreatedAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safetytracker_notification_created_amount",
	Help: "The total number of notifications written, by type",
}, []string{"type"})

var NotificationFailedAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safetytracker_notification_failed_amount",
	Help: "The total number of notification writes that failed, by type",
}, []string{"type"})

var WebhookDeliveryFailedAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safetytracker_webhook_delivery_failed_amount",
	Help: "The total number of outbound webhook deliveries that failed, by channel",
}, []string{"channel"})

var AccessDeniedAmount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "safetytracker_access_denied_amount",
	Help: "The total number of requests redirected by the manager gate, by permission",
}, []string{"permission"})
