// Package dash is the full-screen terminal dashboard.
//
// App wires the background services (health monitor, metrics poller,
// process table, navigation, notifications, host bridge) and forwards
// their events into the Bubble Tea program as messages. Model only folds
// those messages into view state; every backend call runs in a command or
// a scheduled task, never in Update.
//
// # Pages
//
//	1 Dashboard     metric cards with sparklines and the process table
//	2 Voice         listening state and last spoken text from the host
//	3 System        cached get_system_info result
//	4 AI Assistant  chat transcript and input
//	5 Settings      effective configuration as YAML
//
// Metric polling and process refreshes run on their own cadence but only
// do work while the Dashboard is the active, loaded page.
package dash
