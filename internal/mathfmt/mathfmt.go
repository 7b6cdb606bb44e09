// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mathfmt rewrites plain-ASCII math notation into Unicode for
// terminal display. R1 answers frequently contain expressions like
// "x^2 + 2x - 3" or "sqrt(2)"; this package substitutes the proper
// symbols and draws standalone equations in a box so they stand out
// from prose.
package mathfmt

import (
	"regexp"
	"strings"

	"github.com/mattn/go-runewidth"
)

// ===== SYMBOL TABLE =====

// substitution maps an ASCII token to its Unicode equivalent. Entries
// are applied in order, so multi-character tokens must precede any
// prefix of themselves.
type substitution struct {
	token   string
	unicode string
	// word is true for alphabetic tokens that must only match whole
	// words ("pi" in "spin" stays untouched).
	word bool
}

var substitutions = []substitution{
	{token: "^2", unicode: "²"},
	{token: "^3", unicode: "³"},
	{token: "^4", unicode: "⁴"},
	{token: "^5", unicode: "⁵"},
	{token: "^6", unicode: "⁶"},
	{token: "^7", unicode: "⁷"},
	{token: "^8", unicode: "⁸"},
	{token: "^9", unicode: "⁹"},
	{token: "^n", unicode: "ⁿ"},
	{token: "sqrt", unicode: "√", word: true},
	{token: "pi", unicode: "π", word: true},
	{token: "theta", unicode: "θ", word: true},
	{token: "alpha", unicode: "α", word: true},
	{token: "beta", unicode: "β", word: true},
	{token: "gamma", unicode: "γ", word: true},
	{token: "delta", unicode: "δ", word: true},
	{token: "epsilon", unicode: "ε", word: true},
	{token: "zeta", unicode: "ζ", word: true},
	{token: "eta", unicode: "η", word: true},
	{token: "lambda", unicode: "λ", word: true},
	{token: "mu", unicode: "μ", word: true},
	{token: "sigma", unicode: "σ", word: true},
	{token: "tau", unicode: "τ", word: true},
	{token: "phi", unicode: "φ", word: true},
	{token: "omega", unicode: "ω", word: true},
	{token: "Omega", unicode: "Ω", word: true},
	{token: "infinity", unicode: "∞", word: true},
	{token: "integral", unicode: "∫", word: true},
	{token: "sum", unicode: "∑", word: true},
	{token: "product", unicode: "∏", word: true},
	{token: "approx", unicode: "≈", word: true},
	{token: "prop", unicode: "∝", word: true},
	{token: "notin", unicode: "∉", word: true},
	{token: "subset", unicode: "⊂", word: true},
	{token: "union", unicode: "∪", word: true},
	{token: "intersection", unicode: "∩", word: true},
	{token: "therefore", unicode: "∴", word: true},
	{token: "because", unicode: "∵", word: true},
	{token: "<=", unicode: "≤"},
	{token: ">=", unicode: "≥"},
	{token: "!=", unicode: "≠"},
	{token: "==", unicode: "≡"},
	{token: "->", unicode: "→"},
	{token: "<-", unicode: "←"},
	{token: "+-", unicode: "±"},
}

var wordPatterns map[string]*regexp.Regexp

func init() {
	wordPatterns = make(map[string]*regexp.Regexp, len(substitutions))
	for _, s := range substitutions {
		if s.word {
			wordPatterns[s.token] = regexp.MustCompile(`\b` + s.token + `\b`)
		}
	}
}

// ===== SUPERSCRIPTS =====

var superscriptRunes = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴',
	'5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹',
	'+': '⁺', '-': '⁻', '=': '⁼', '(': '⁽', ')': '⁾',
	'a': 'ᵃ', 'b': 'ᵇ', 'c': 'ᶜ', 'd': 'ᵈ', 'e': 'ᵉ',
	'f': 'ᶠ', 'g': 'ᵍ', 'h': 'ʰ', 'i': 'ⁱ', 'j': 'ʲ',
	'k': 'ᵏ', 'l': 'ˡ', 'm': 'ᵐ', 'n': 'ⁿ', 'o': 'ᵒ',
	'p': 'ᵖ', 'r': 'ʳ', 's': 'ˢ', 't': 'ᵗ', 'u': 'ᵘ',
	'v': 'ᵛ', 'w': 'ʷ', 'x': 'ˣ', 'y': 'ʸ', 'z': 'ᶻ',
}

// Superscript converts the digits and letters of s to their Unicode
// superscript forms. Runes with no superscript form pass through.
func Superscript(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if sup, ok := superscriptRunes[r]; ok {
			b.WriteRune(sup)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ===== FORMATTING =====

var (
	fractionRe    = regexp.MustCompile(`(\d+)/(\d+)`)
	variablePowRe = regexp.MustCompile(`([abcnxyz])\^(\d)`)
	operatorRe    = regexp.MustCompile(`([+\-*/=<>])`)
	spaceRunRe    = regexp.MustCompile(`\s+`)
	eqLineRe      = regexp.MustCompile(`(?m)^[ \t]*([a-zA-Z0-9_]+[ \t]*=[ \t]*[^.;!?\n]+)$`)
)

// Format rewrites math notation in text for terminal display: symbol
// substitution, fraction slashes, variable superscripts, and a box
// around lines that consist of a single "lhs = rhs" equation.
func Format(text string) string {
	text = Inline(text)

	return eqLineRe.ReplaceAllStringFunc(text, func(line string) string {
		return boxEquation(strings.TrimSpace(line))
	})
}

// Inline applies symbol substitutions without the box treatment. Used
// while streaming, where box drawing around a half-received equation
// would flicker.
func Inline(text string) string {
	for _, s := range substitutions {
		if s.word {
			text = wordPatterns[s.token].ReplaceAllString(text, s.unicode)
		} else {
			text = strings.ReplaceAll(text, s.token, s.unicode)
		}
	}

	// 3/4 reads as a fraction, not a path segment.
	text = fractionRe.ReplaceAllString(text, "$1⁄$2")

	text = variablePowRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := variablePowRe.FindStringSubmatch(m)
		return sub[1] + Superscript(sub[2])
	})

	return text
}

// highlightEquation normalizes operator spacing within one equation.
func highlightEquation(eq string) string {
	eq = operatorRe.ReplaceAllString(eq, " $1 ")
	eq = spaceRunRe.ReplaceAllString(eq, " ")
	eq = strings.TrimSpace(eq)

	eq = strings.ReplaceAll(eq, " * ", " × ")
	eq = strings.ReplaceAll(eq, " / ", " ÷ ")
	eq = strings.ReplaceAll(eq, " - ", " − ")
	return eq
}

// boxEquation centers an equation inside a box-drawing frame.
func boxEquation(eq string) string {
	eq = highlightEquation(eq)

	w := runewidth.StringWidth(eq)
	width := w + 6
	if width < 20 {
		width = 20
	}
	padding := width - w - 2
	left := padding / 2
	right := padding - left

	var b strings.Builder
	b.WriteString("┌" + strings.Repeat("─", width-2) + "┐\n")
	b.WriteString("│" + strings.Repeat(" ", left) + eq + strings.Repeat(" ", right) + "│\n")
	b.WriteString("└" + strings.Repeat("─", width-2) + "┘")
	return b.String()
}
