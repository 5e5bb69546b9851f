// Package metrics - счётчики Prometheus, которые отдаются на /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UnitTransitions считает применённые переходы статусов оборудования.
	UnitTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "equipment_unit_transitions_total",
		Help: "Количество переходов статусов единиц оборудования",
	}, []string{"event", "from", "to"})

	// WorkflowErrors считает отклонённые операции по виду ошибки.
	WorkflowErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "equipment_workflow_errors_total",
		Help: "Количество отклонённых операций процессов",
	}, []string{"workflow", "kind"})

	// UnitsImported считает принятые на склад единицы.
	UnitsImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "equipment_units_imported_total",
		Help: "Количество единиц оборудования, принятых по накладным",
	})
)
