// Package ws streams live kernel events to WebSocket subscribers.
package ws
