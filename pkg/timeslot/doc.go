// Package timeslot implements the time arithmetic behind provider
// availability: a canonical minutes-since-midnight clock value, parsers
// and formatters for its 24-hour and 12-hour string forms, and the slot
// grid derived from a working window.
//
// Stored appointments carry clock strings in either form. All conflict
// checks convert through TimeOfDay so "14:30" and "2:30 PM" claim the
// same slot.
package timeslot
