package recurrence

// ParseLegacyRule decodes recurrence text from the legacy schema. The
// current template storage reuses the same positional layout, so this is
// a thin front door kept separate so it can be removed together with the
// rest of the migration path once legacy imports are no longer supported.
func ParseLegacyRule(text string) (Rule, error) {
	return Parse(text)
}
