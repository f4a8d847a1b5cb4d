package wreckage

import (
	"regexp"

	"golang.org/x/exp/slices"
)

// A Persona is a named voice used to select a RuleSet.
type Persona string

// All the built in personas.
const (
	PersonaCorporateRobot    Persona = "Corporate Robot"
	PersonaPassiveAggressive Persona = "Passive-Aggressive Nightmare"
	PersonaShakespearean     Persona = "Shakespearean Drama King"
	PersonaTeenAngstPoet     Persona = "Teen Angst Poet"
	PersonaBelly             Persona = "Belly"
	PersonaJeremiah          Persona = "Jeremiah"
	PersonaConrad            Persona = "Conrad"
)

// A Rule is one ordered pattern to replacement step.
type Rule struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// NewRule returns a case-insensitive rule. It panics if pattern does not compile.
func NewRule(pattern, replacement string) Rule {
	return Rule{
		Pattern:     regexp.MustCompile("(?i)" + pattern),
		Replacement: replacement,
	}
}

// NewCaseSensitiveRule returns a rule that matches pattern exactly as written.
func NewCaseSensitiveRule(pattern, replacement string) Rule {
	return Rule{
		Pattern:     regexp.MustCompile(pattern),
		Replacement: replacement,
	}
}

// A RuleSet is a persona's full ordered list of rules.
type RuleSet []Rule

var registry = map[Persona]RuleSet{
	PersonaCorporateRobot: {
		NewRule(`\blet'?s[\s\p{Zs}]+talk\b`, "Let's circle back to touch base"),
		NewRule(`\bwhat[\s\p{Zs}]+do[\s\p{Zs}]+you[\s\p{Zs}]+think\??`, "What are your key takeaways?"),
		NewRule(`\bproblem\b`, "opportunity"),
		NewRule(`\bmeeting\b`, "sync"),
		NewRule(`\bdeadline\b`, "deliverable timeline"),
	},
	PersonaPassiveAggressive: {
		NewRule(`\bi'?m[\s\p{Zs}]+mad\b`, "Just wanted to check in on your emotional bandwidth :)"),
		NewRule(`\bno\b`, "No worries if not!"),
		NewRule(`\bokay\b`, "Sure, if that works for you, I guess"),
		NewRule(`\bthanks\b`, "Thanks in advance, since reminders were ignored"),
	},
	PersonaShakespearean: {
		NewRule(`\byou[\s\p{Zs}]*up\??\b`, "Hark! Dost thou stir?"),
		NewRule(`\blol\b`, "Huzzah!"),
		NewRule(`\byou\b`, "thou"),
		NewRule(`\bare\b`, "art"),
		NewRule(`\byour\b`, "thy"),
	},
	PersonaTeenAngstPoet: {
		NewRule(`\blife\b`, "existence"),
		NewRule(`\bparents?\b`, "oppressors"),
		NewRule(`\bheart\b`, "aching heart"),
		NewRule(`\bhappy\b`, "fine, I guess"),
		NewRule(`\blove\b`, "love (whatever)"),
		NewRule(`\bworld\b`, "void"),
	},
	PersonaBelly: {
		NewRule(`\b(hello|hi)\b`, "yo"),
		NewRule(`\bmoney\b`, "bag"),
		NewRule(`\bwork\b`, "grind"),
		NewRule(`\bparty\b`, "link up"),
		NewRule(`\bvery\b`, "mad"),
		NewRule(`\bgood\b`, "fire"),
	},
	PersonaJeremiah: {
		NewRule(`\byour\b`, "your glorious"),
		NewRule(`\byou\b`, "legend"),
		NewRule(`\bgreat\b`, "immaculate"),
		NewRule(`\bnice\b`, "elite"),
		NewRule(`\bteam\b`, "squad"),
		NewRule(`\blet'?s\b`, "let's go"),
	},
	PersonaConrad: {
		NewRule(`\bfriends?\b`, "chums"),
		NewRule(`\bidea\b`, "notion"),
		NewRule(`\bvery\b`, "quite"),
		NewRule(`\bgood\b`, "splendid"),
		NewRule(`\bbad\b`, "most unfortunate"),
		NewCaseSensitiveRule(`\bI\b`, "one"),
	},
}

// Lookup returns the RuleSet registered for persona. Unknown personas get an
// empty RuleSet, which leaves text unchanged.
func Lookup(persona Persona) RuleSet {
	return slices.Clone(registry[persona])
}

// Personas returns every registered persona in sorted order.
func Personas() []Persona {
	personas := make([]Persona, 0, len(registry))
	for p := range registry {
		personas = append(personas, p)
	}
	slices.Sort(personas)
	return personas
}
