// Package audit keeps the door access trail in the audit_events table:
// matches (published or withheld), enrollments, template administration,
// pairing decisions and doorbell rings.
package audit
