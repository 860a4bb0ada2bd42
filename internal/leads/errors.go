package leads

import "errors"

// ErrLeadNotFound is returned when a lead does not exist.
var ErrLeadNotFound = errors.New("leads: lead not found")

// ErrMissingWaID is returned when a phone identifier is absent.
var ErrMissingWaID = errors.New("leads: wa_id is required")
