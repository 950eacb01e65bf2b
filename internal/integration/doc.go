// Package integration is the Home Assistant bridge for Alpha 2 controllers.
//
// Every cycle:
//
//	options file changed? ──yes──► reload ──► create missing virtual devices
//	        │
//	        ▼
//	for each virtual device:
//	    Home Assistant entity ──► temperature ──► CMD T_ACTUAL on its heat area
//
// A failed cycle waits the retry delay instead of the update interval.
package integration
