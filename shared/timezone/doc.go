// Package timezone keeps every timestamp the service produces in one location.
//
// Booking expiry, payment ledger rows and notification logs are all stamped with
// timezone.Now(). The location comes from APP_TIMEZONE (an IANA name such as
// "Asia/Kolkata") and is loaded once when the package is imported. An invalid
// name falls back to UTC.
//
//	now := timezone.Now()
//	local := timezone.ToAppTime(gatewayTime)
//	label := timezone.Format(expiresAt, "02 Jan 2006, 03:04 PM")
package timezone
