// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshnode Contributors

package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "abac_policy_store_operations_total",
	Help: "Total number of policy store operations by op and backend",
}, []string{"op", "backend"})
