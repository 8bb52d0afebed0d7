// Package health provides the startup readiness probe for validator
// processes.
//
// The probe polls the validator's control endpoint on a fixed interval
// until the first successful response, a timeout, or process exit. Clean
// request failures before the timeout are retried; this is the only
// internally retried operation besides the capture stability check.
package health
