/*
Package monitoring provides metrics collection for the fastshell server.

# Overview

This package implements Prometheus-based metrics for HTTP requests, shell
commands, authorization denials, backend calls, sessions and WebSocket
connections. Metrics implements shell.Observer, so a session reports to it
directly.

# Usage

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	router.Use(monitoring.Middleware(metrics))

	timer := monitoring.NewTimer(metrics, "terminal", "terminal.submit")
	// ... perform operation ...
	timer.Stop("success")

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring
