package evo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// generationsTotal counts completed generations across all populations
	generationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "genevo_generations_total",
		Help: "Total completed generations",
	})

	// evaluationsTotal counts environment samples taken by individuals
	evaluationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "genevo_evaluations_total",
		Help: "Total fitness evaluations",
	})

	evaluationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "genevo_evaluation_duration_seconds",
		Help:    "Time to evaluate one individual in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 12), // 10us to ~40s
	})

	// fitnessGauge tracks min/avg/max fitness of the latest generation
	fitnessGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "genevo_fitness",
		Help: "Fitness of the latest evaluated generation by statistic",
	}, []string{"stat"})
)
