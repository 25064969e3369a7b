// Package infra contains technical adapters such as the SQLite store,
// routing and geocoding clients, metrics exporters and the MQTT
// notifier. These packages should depend only on the interfaces defined
// in the core packages.
package infra
