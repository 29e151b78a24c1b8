// Package application provides application initialization and dependency
// wiring. It loads credentials when the live source is selected, builds the
// data source, performs the initial dataset fetch, and assembles the HTTP
// server, keeping the main package focused on CLI parsing and orchestration.
package application
