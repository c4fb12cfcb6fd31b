// Package handlers contains the HTTP handlers of the dashboard API.
//
// This package provides:
//   - Dashboard endpoint (JSON or German text report)
//   - Health check aggregation with named checks run in parallel
//   - JSON envelope helpers shared by all handlers
//
// # Health Checks
//
//	checker := handlers.NewCompositeHealthChecker("v1.0.0")
//	checker.AddCheck("database", handlers.NewPingCheck(conn))
//	checker.AddCheck("cache", handlers.NewPingCheck(cache))
//
//	status := checker.Check(ctx)
//	if !status.Healthy {
//	    log.Error("health check failed", "message", status.Message)
//	}
//
// # Mounting
//
// Handlers register themselves on a chi router:
//
//	r := chi.NewRouter()
//	handlers.NewDashboardHandler(dashboards, cfg, log, m).Register(r)
//	handlers.NewHealthHandler(checker).Register(r)
package handlers
