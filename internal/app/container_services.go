package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"hos-route-coordinator/internal/logx"
	"hos-route-coordinator/internal/service/monitor"
	"hos-route-coordinator/internal/service/planner"
)

type plannerIn struct {
	dig.In

	Store   planner.PlanStore
	Logger  logx.Logger
	Replans prometheus.Counter `name:"replans_total"`
}

func newPlannerService(in plannerIn) (*planner.Service, error) {
	return planner.NewService(in.Store, planner.DefaultConfig(), in.Logger, serviceTimeout, in.Replans)
}

type engineIn struct {
	dig.In

	Alerts monitor.AlertStore
	Logger logx.Logger
	Raised prometheus.Counter `name:"alerts_raised_total"`
}

func newMonitorEngine(in engineIn) *monitor.Engine {
	return monitor.NewEngine(in.Alerts, in.Logger, in.Raised)
}
