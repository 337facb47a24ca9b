// Package domain models SFAF one-column frequency-allocation records.
//
// # Data Source
//
// SFAF (Standard Frequency Action Format) exports in the "one-column" layout
// carry one field per physical line. Each line begins with a 3-digit tag,
// followed by a period and five spaces, followed by the value:
//
//	005.     UE
//	102.     AF  014589
//	110.     M138.025
//	113.     FB
//	114.     16K0F3E
//	115.     W50
//	303.     395900N0222630E
//	924.     ZZZZZ
//
// Tag 005 opens a record and tag 924 closes it. Tags not listed in the tag
// table are ignored. Repeatable tags (station class, transmitter power,
// effective radiated power, emission designator, excluded frequency band,
// operating unit, user net/code) are stored under keys suffixed with a
// 2-digit, 1-based occurrence index, e.g. "STATION CLASS[02]".
//
// # Field Conventions
//
// Frequency (tag 110) is a unit letter and a value, optionally a dash and a
// second unit/value pair, optionally a parenthesized reference frequency.
// Units: K = kHz, M = MHz, G = GHz. "T" is accepted by the grammar but has no
// defined multiplier and is rejected. A range dash yields a center frequency
// of 0, which excludes the record from output.
//
//	M138.025
//	K4500(4498.5)
//	M138.025-M140.000
//
// Emission designator (tag 114) is 1-3 digits, a unit letter (H, K, M, G),
// up to 2 digits, then letter, digit, letter. "6K00A3E" is 6 kHz. Designators
// that do not match fall back to a 10 kHz bandwidth.
//
// Power (tags 115, 117) is W<watts> or K<kilowatts>: "W100" is 100 W and
// "K1.5" is 1500 W. ERP values are carried through as raw text.
//
// Coordinates (tag 303) are DDMMSS[N|S]DDDMMSS[E|W]; "395900N0222630E" is
// 39.9833, 22.4417. Dates (tags 140-142) are YYYYMMDD and are emitted as
// "2021-02-10T00:00:00Z".
//
// # Correlation
//
// Station class, transmitter power and ERP occurrences are combined into
// [StationEmissionGroup] values by a [Correlation] policy. The default,
// [PositionalCorrelation], zips the three lists by position and fills absent
// members with defaults (FX, 1 W, 0).
package domain
