package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"

	"github.com/automationhub/console/pkg/eventbus"
)

var changesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "console_changes_total",
	Help: "Changes made through the console, by operation and outcome.",
}, []string{"operation", "outcome"})

// AuditHandler writes every change made through the console to the log.
type AuditHandler struct {
	logger *logrus.Entry
}

func RegisterAuditHandler(bus eventbus.EventBus, logger *logrus.Logger) *AuditHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	h := &AuditHandler{logger: logger.WithField("component", "audit")}
	bus.Subscribe(h.onResourcesDeleted)
	bus.Subscribe(h.onAssociationsChanged)
	bus.Subscribe(h.onRolesAssigned)
	return h
}

func count(operation string, ok, failed int) {
	if ok > 0 {
		changesTotal.WithLabelValues(operation, "ok").Add(float64(ok))
	}
	if failed > 0 {
		changesTotal.WithLabelValues(operation, "failed").Add(float64(failed))
	}
}

func (h *AuditHandler) onResourcesDeleted(e *eventbus.ResourcesDeletedEvent) {
	count("delete", len(e.Deleted), len(e.Failed))
	entry := h.logger.WithFields(logrus.Fields{
		"resource": e.Resource,
		"deleted":  e.Deleted,
		"failed":   e.Failed,
	})
	if len(e.Failed) > 0 {
		entry.Warn("bulk delete partially failed")
		return
	}
	entry.Info("records deleted")
}

func (h *AuditHandler) onAssociationsChanged(e *eventbus.AssociationsChangedEvent) {
	count("associate", len(e.Associated), 0)
	count("disassociate", len(e.Disassociated), 0)
	h.logger.WithFields(logrus.Fields{
		"resource":      e.Resource,
		"id":            e.ID,
		"sub":           e.Sub,
		"associated":    e.Associated,
		"disassociated": e.Disassociated,
	}).Info("associations changed")
}

func (h *AuditHandler) onRolesAssigned(e *eventbus.RolesAssignedEvent) {
	count("grant_role", len(e.Granted), len(e.Failed))
	entry := h.logger.WithFields(logrus.Fields{
		"granted": len(e.Granted),
		"failed":  len(e.Failed),
	})
	for _, g := range e.Failed {
		entry.WithFields(logrus.Fields{
			"resource-kind": g.ResourceKind,
			"resource-id":   g.ResourceID,
			"role-id":       g.RoleID,
		}).Warn("role grant failed")
	}
	entry.Info("roles assigned")
}
