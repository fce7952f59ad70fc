// Package constants defines application-wide constants and version information.
package constants

import "runtime"

// Version holds the application version information
const Version = "1.2-" + runtime.GOOS + "/" + runtime.GOARCH

const (
	// HoursPerDay is the size of the hourly profile key space.
	HoursPerDay = 24
	// DaysPerWeek is the size of the weekday profile key space.
	DaysPerWeek = 7
)
