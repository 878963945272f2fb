package documents

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	opCreate  = "create"
	opGet     = "get"
	opList    = "list"
	opReplace = "replace"
	opDelete  = "delete"
)

var operations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "crudster",
	Subsystem: "documents",
	Name:      "operations_total",
	Help:      "Document store operations by operation and outcome.",
}, []string{"operation", "status"})

func observe(operation string, err error) {
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		status = "not_found"
	case errors.Is(err, ErrInvalidDocument):
		status = "rejected"
	case errors.Is(err, ErrConflict):
		status = "conflict"
	default:
		status = "error"
	}

	operations.WithLabelValues(operation, status).Inc()
}
