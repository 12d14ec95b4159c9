/*
resolver.go - Configuration resolution by effective date

PURPOSE:
  Picks the billing configuration that was in force on a given reference
  date from a vendor's configuration history. This is what lets past
  periods be recomputed with the terms that actually applied, even after
  the vendor's rates have changed.

ALGORITHM:
  1. Keep configurations with EffectiveFrom <= reference date
  2. Among survivors, pick the maximum EffectiveFrom
  3. Break ties by the most recently created entry (deterministic)
  4. No survivors -> NoActiveConfigurationError

  The reference date is typically the last day of the billing month, so
  the configuration in force at month end governs the whole month.

SEE ALSO:
  - config.go: Configuration and rate types
  - calculator.go: Consumes the resolved configuration
*/
package billing

import "time"

// ResolveConfiguration returns the configuration in force on ref, chosen
// from history. The input order of history does not matter. Pure read;
// the returned configuration is validated before use by the Calculator,
// not here, so callers can still inspect a malformed active entry.
func ResolveConfiguration(history []Configuration, ref time.Time) (Configuration, error) {
	var (
		active Configuration
		found  bool
	)

	for _, c := range history {
		if c.EffectiveFrom.After(ref) {
			continue
		}
		if !found || supersedes(c, active) {
			active = c
			found = true
		}
	}

	if !found {
		var vendorID VendorID
		if len(history) > 0 {
			vendorID = history[0].VendorID
		}
		return Configuration{}, &NoActiveConfigurationError{VendorID: vendorID, Ref: ref}
	}
	return active, nil
}

// supersedes reports whether a should win over b during resolution:
// later EffectiveFrom wins, with CreatedAt breaking exact ties.
func supersedes(a, b Configuration) bool {
	if !a.EffectiveFrom.Equal(b.EffectiveFrom) {
		return a.EffectiveFrom.After(b.EffectiveFrom)
	}
	return a.CreatedAt.After(b.CreatedAt)
}
