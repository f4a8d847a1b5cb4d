package wreckage

// Apply runs every rule in order over text. Each rule replaces all of its
// matches before the next rule sees the result.
func (rs RuleSet) Apply(text string) string {
	for _, r := range rs {
		text = r.Pattern.ReplaceAllLiteralString(text, r.Replacement)
	}
	return text
}

// Rewrite rewrites text in the voice of persona. It never fails; a persona
// with no rules returns text untouched.
func Rewrite(persona Persona, text string) string {
	return Lookup(persona).Apply(text)
}
