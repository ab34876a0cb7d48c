// Package app provides the application service layer.
//
// Orchestrates use cases: user registration, poll creation and listing, and
// vote recording, which notifies the real-time broadcast core once a vote is
// stored. Depends on domain interfaces, not concrete implementations.
package app
