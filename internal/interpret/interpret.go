// Package interpret turns free-text oracle output into a canonical verdict.
//
// The model nominally answers with a two-line STATUS / JUSTIFICATIVA
// convention, but nothing guarantees it. Interpretation degrades through a
// fixed cascade, stopping at the first strategy that yields a verdict:
//
//  1. strict label match (status/resultado/validação + vocabulary token)
//  2. Portuguese keyword scan, ties resolve to INDETERMINADO
//  3. English keyword scan, same tie rule
//  4. final canonicalization into the vocabulary's closed tag set
//
// The output is always a member of the closed set, never raw model text.
package interpret

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"fanreg/internal/model"
)

// DefaultJustificativa is used when no justification could be captured.
const DefaultJustificativa = "Resposta do modelo não pôde ser interpretada"

var (
	statusLabelRe = regexp.MustCompile(`(?i)\b(?:status|resultado|valida(?:c|ç)(?:a|ã)o)\b[\s*_]*[:\-]\s*`)
	justifLabelRe = regexp.MustCompile(`(?i)\b(?:justificativa|motivo|raz(?:a|ã)o|explica(?:c|ç)(?:a|ã)o|an(?:a|á)lise)\b[\s*_]*[:\-]\s*`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// Vocabulary maps surface synonyms onto canonical tags for one check type
// and carries the keyword sets used by the fallback strategies.
type Vocabulary struct {
	positive model.VerdictTag
	negative model.VerdictTag
	surfaces []surfaceMapping // sorted longest-first so "não validado" beats "validado"
	ptPos    *regexp.Regexp
	ptNeg    *regexp.Regexp
	enPos    *regexp.Regexp
	enNeg    *regexp.Regexp
	allowed  map[model.VerdictTag]bool
}

type surfaceMapping struct {
	surface string // already normalized (lowercase, accent-free)
	tag     model.VerdictTag
}

func newVocabulary(pos, neg model.VerdictTag, surfaces map[string]model.VerdictTag, ptPos, ptNeg, enPos, enNeg string) *Vocabulary {
	v := &Vocabulary{
		positive: pos,
		negative: neg,
		ptPos:    regexp.MustCompile(ptPos),
		ptNeg:    regexp.MustCompile(ptNeg),
		enPos:    regexp.MustCompile(enPos),
		enNeg:    regexp.MustCompile(enNeg),
		allowed: map[model.VerdictTag]bool{
			pos:                        true,
			neg:                        true,
			model.VerdictIndeterminado: true,
		},
	}
	for s, tag := range surfaces {
		v.surfaces = append(v.surfaces, surfaceMapping{surface: Normalize(s), tag: tag})
	}
	sort.Slice(v.surfaces, func(i, j int) bool {
		if len(v.surfaces[i].surface) != len(v.surfaces[j].surface) {
			return len(v.surfaces[i].surface) > len(v.surfaces[j].surface)
		}
		return v.surfaces[i].surface < v.surfaces[j].surface
	})
	return v
}

// DocumentVocabulary canonicalizes answers to the document-match check.
var DocumentVocabulary = newVocabulary(
	model.VerdictValidado,
	model.VerdictNaoValidado,
	map[string]model.VerdictTag{
		"validado":      model.VerdictValidado,
		"válido":        model.VerdictValidado,
		"aprovado":      model.VerdictValidado,
		"confere":       model.VerdictValidado,
		"match":         model.VerdictValidado,
		"não validado":  model.VerdictNaoValidado,
		"inválido":      model.VerdictNaoValidado,
		"reprovado":     model.VerdictNaoValidado,
		"não confere":   model.VerdictNaoValidado,
		"mismatch":      model.VerdictNaoValidado,
		"indeterminado": model.VerdictIndeterminado,
		"inconclusivo":  model.VerdictIndeterminado,
	},
	`\b(?:conferem?|coincidem?|correspondem?|compativel|corretos?|autentico|legivel)`,
	`\b(?:nao (?:conferem?|coincidem?|correspondem?|validado)|incorretos?|divergentes?|errados?|incompativel|adulterado|ilegivel)`,
	`\b(?:match(?:es)?|correct|valid|consistent|genuine)`,
	`\b(?:(?:does not|doesn'?t|do not|don'?t|no) match|mismatch|incorrect|invalid|inconsistent|forged|tampered)`,
)

// LinkVocabulary canonicalizes answers to the profile-link relevance check.
var LinkVocabulary = newVocabulary(
	model.VerdictRelevante,
	model.VerdictIrrelevante,
	map[string]model.VerdictTag{
		"relevante":       model.VerdictRelevante,
		"relacionado":     model.VerdictRelevante,
		"pertinente":      model.VerdictRelevante,
		"relevant":        model.VerdictRelevante,
		"irrelevante":     model.VerdictIrrelevante,
		"não relevante":   model.VerdictIrrelevante,
		"não relacionado": model.VerdictIrrelevante,
		"irrelevant":      model.VerdictIrrelevante,
		"indeterminado":   model.VerdictIndeterminado,
		"inconclusivo":    model.VerdictIndeterminado,
	},
	`\b(?:relevantes?|relacionad[oa]s?|pertinentes?|condiz)`,
	`\b(?:irrelevantes?|nao (?:relevantes?|relacionad[oa]s?|pertinentes?)|sem relacao|impertinente)`,
	`\b(?:relevant|related|pertinent)`,
	`\b(?:irrelevant|unrelated|not related|not relevant)`,
)

// Interpret decodes raw oracle text into a verdict using vocab. It is a pure
// function with no side effects; the returned tag always belongs to the
// vocabulary's closed set.
func Interpret(raw string, vocab *Vocabulary) model.Verdict {
	justificativa, hasJust := extractJustification(raw)

	tag, ok := vocab.strictMatch(raw)
	if !ok {
		normalized := Normalize(raw)
		tag, ok = keywordScan(normalized, vocab.ptNeg, vocab.ptPos, vocab.negative, vocab.positive)
		if !ok {
			tag, ok = keywordScan(normalized, vocab.enNeg, vocab.enPos, vocab.negative, vocab.positive)
		}
	}
	if !ok || !vocab.allowed[tag] {
		tag = model.VerdictIndeterminado
	}
	if !hasJust || justificativa == "" {
		justificativa = DefaultJustificativa
	}
	return model.Verdict{Tag: tag, Justificativa: justificativa}
}

// strictMatch looks for a status label followed by a vocabulary token on the
// same line. The token lookup is case- and accent-insensitive, longest
// surface first, so negated forms win over their positive substrings.
func (v *Vocabulary) strictMatch(raw string) (model.VerdictTag, bool) {
	loc := statusLabelRe.FindStringIndex(raw)
	if loc == nil {
		return "", false
	}
	line := raw[loc[1]:]
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	token := Normalize(line)
	for _, m := range v.surfaces {
		if strings.Contains(token, m.surface) {
			return m.tag, true
		}
	}
	return "", false
}

// keywordScan applies one keyword lexicon over normalized text. Negative
// phrases are removed before the positive scan so that "não confere" does
// not also count as "confere"; when both sets independently match, the tie
// deliberately resolves to INDETERMINADO.
func keywordScan(normalized string, neg, pos *regexp.Regexp, negTag, posTag model.VerdictTag) (model.VerdictTag, bool) {
	hasNeg := neg.MatchString(normalized)
	hasPos := pos.MatchString(neg.ReplaceAllString(normalized, " "))
	switch {
	case hasNeg && hasPos:
		return model.VerdictIndeterminado, true
	case hasNeg:
		return negTag, true
	case hasPos:
		return posTag, true
	}
	return "", false
}

// extractJustification captures the text after a justification label up to
// the next label or end of input, with whitespace runs collapsed.
func extractJustification(raw string) (string, bool) {
	loc := justifLabelRe.FindStringIndex(raw)
	if loc == nil {
		return "", false
	}
	rest := raw[loc[1]:]
	end := len(rest)
	if l := statusLabelRe.FindStringIndex(rest); l != nil && l[0] < end {
		end = l[0]
	}
	if l := justifLabelRe.FindStringIndex(rest); l != nil && l[0] < end {
		end = l[0]
	}
	return CollapseWhitespace(rest[:end]), true
}

// Normalize lowercases s and strips combining accent marks, so "NÃO" and
// "nao" compare equal.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return CollapseWhitespace(strings.ToLower(out))
}

// CollapseWhitespace trims s and folds internal whitespace runs into single
// spaces.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
