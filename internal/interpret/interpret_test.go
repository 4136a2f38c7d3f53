package interpret

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fanreg/internal/model"
)

func TestInterpretStrictLabels(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		vocab    *Vocabulary
		wantTag  model.VerdictTag
		wantJust string
	}{
		{
			name:     "canonical two-line answer",
			raw:      "STATUS: VALIDADO\nJUSTIFICATIVA: foo",
			vocab:    DocumentVocabulary,
			wantTag:  model.VerdictValidado,
			wantJust: "foo",
		},
		{
			name:     "negated status wins over its positive substring",
			raw:      "STATUS: NÃO VALIDADO\nJUSTIFICATIVA: nome divergente",
			vocab:    DocumentVocabulary,
			wantTag:  model.VerdictNaoValidado,
			wantJust: "nome divergente",
		},
		{
			name:     "label synonyms and mixed case",
			raw:      "Resultado: aprovado\nMotivo: documento legível e dados conferem",
			vocab:    DocumentVocabulary,
			wantTag:  model.VerdictValidado,
			wantJust: "documento legível e dados conferem",
		},
		{
			name:     "accented label without accent in answer",
			raw:      "validacao - INVALIDO\nrazao - cpf ilegivel",
			vocab:    DocumentVocabulary,
			wantTag:  model.VerdictNaoValidado,
			wantJust: "cpf ilegivel",
		},
		{
			name:     "markdown-decorated labels",
			raw:      "**STATUS**: Relevante\n**JUSTIFICATIVA**: perfil de jogador profissional",
			vocab:    LinkVocabulary,
			wantTag:  model.VerdictRelevante,
			wantJust: "perfil de jogador profissional",
		},
		{
			name:     "irrelevante wins over relevante substring",
			raw:      "STATUS: Irrelevante\nJUSTIFICATIVA: página sem relação com e-sports",
			vocab:    LinkVocabulary,
			wantTag:  model.VerdictIrrelevante,
			wantJust: "página sem relação com e-sports",
		},
		{
			name:     "justification whitespace runs collapse",
			raw:      "STATUS: VALIDADO\nJUSTIFICATIVA:  linha  um\n\tlinha   dois  ",
			vocab:    DocumentVocabulary,
			wantTag:  model.VerdictValidado,
			wantJust: "linha um linha dois",
		},
		{
			name:     "prose before the labels",
			raw:      "Analisei a imagem com cuidado.\n\nStatus: validado\nAnálise: todos os dígitos conferem",
			vocab:    DocumentVocabulary,
			wantTag:  model.VerdictValidado,
			wantJust: "todos os dígitos conferem",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Interpret(tt.raw, tt.vocab)
			assert.Equal(t, tt.wantTag, v.Tag)
			assert.Equal(t, tt.wantJust, v.Justificativa)
		})
	}
}

func TestInterpretKeywordFallback(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		vocab   *Vocabulary
		wantTag model.VerdictTag
	}{
		{
			name:    "positive keyword without labels",
			raw:     "Os dados do documento conferem com o informado.",
			vocab:   DocumentVocabulary,
			wantTag: model.VerdictValidado,
		},
		{
			name:    "negative keyword without labels",
			raw:     "O CPF informado está incorreto.",
			vocab:   DocumentVocabulary,
			wantTag: model.VerdictNaoValidado,
		},
		{
			name:    "negated phrase does not count as positive",
			raw:     "O nome não confere com o documento.",
			vocab:   DocumentVocabulary,
			wantTag: model.VerdictNaoValidado,
		},
		{
			name:    "both keyword sets present is an explicit tie",
			raw:     "O nome confere, mas o número está incorreto.",
			vocab:   DocumentVocabulary,
			wantTag: model.VerdictIndeterminado,
		},
		{
			name:    "english drift positive",
			raw:     "The provided name and ID match the document.",
			vocab:   DocumentVocabulary,
			wantTag: model.VerdictValidado,
		},
		{
			name:    "english drift negative",
			raw:     "The ID number is incorrect and does not belong to this person.",
			vocab:   DocumentVocabulary,
			wantTag: model.VerdictNaoValidado,
		},
		{
			name:    "english mismatch is not a match",
			raw:     "There is a mismatch between the name and the card.",
			vocab:   DocumentVocabulary,
			wantTag: model.VerdictNaoValidado,
		},
		{
			name:    "english tie",
			raw:     "The name matches but the number is incorrect.",
			vocab:   DocumentVocabulary,
			wantTag: model.VerdictIndeterminado,
		},
		{
			name:    "link positive keyword",
			raw:     "O perfil é claramente relacionado ao cenário competitivo.",
			vocab:   LinkVocabulary,
			wantTag: model.VerdictRelevante,
		},
		{
			name:    "link negative keyword",
			raw:     "Página irrelevante, trata de culinária.",
			vocab:   LinkVocabulary,
			wantTag: model.VerdictIrrelevante,
		},
		{
			name:    "link english unrelated",
			raw:     "The profile is unrelated to e-sports.",
			vocab:   LinkVocabulary,
			wantTag: model.VerdictIrrelevante,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Interpret(tt.raw, tt.vocab)
			assert.Equal(t, tt.wantTag, v.Tag)
			assert.Equal(t, DefaultJustificativa, v.Justificativa)
		})
	}
}

func TestInterpretUnrecognizedText(t *testing.T) {
	for _, raw := range []string{
		"",
		"Desculpe, não posso ajudar com isso.",
		"lorem ipsum dolor sit amet",
	} {
		v := Interpret(raw, DocumentVocabulary)
		assert.Equal(t, model.VerdictIndeterminado, v.Tag, raw)
		assert.Equal(t, DefaultJustificativa, v.Justificativa, raw)
	}
}

func TestInterpretUnknownStatusTokenFallsThrough(t *testing.T) {
	// Status label present but with a token outside the vocabulary; the
	// keyword fallback still runs over the rest of the text.
	v := Interpret("STATUS: TALVEZ\nO documento é divergente do informado.", DocumentVocabulary)
	assert.Equal(t, model.VerdictNaoValidado, v.Tag)
}

func TestInterpretJustificationWithoutVerdict(t *testing.T) {
	v := Interpret("JUSTIFICATIVA: imagem muito escura para leitura", DocumentVocabulary)
	assert.Equal(t, model.VerdictIndeterminado, v.Tag)
	assert.Equal(t, "imagem muito escura para leitura", v.Justificativa)
}

func TestInterpretCrossVocabularyCanonicalization(t *testing.T) {
	// A document-style token interpreted with the link vocabulary must
	// collapse to INDETERMINADO, never leak a foreign tag.
	v := Interpret("STATUS: VALIDADO\nJUSTIFICATIVA: ok", LinkVocabulary)
	assert.Equal(t, model.VerdictIndeterminado, v.Tag)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "nao validado", Normalize("NÃO  VALIDADO"))
	assert.Equal(t, "validacao", Normalize("Validação"))
	assert.Equal(t, "analise razao", Normalize(" Análise\t Razão "))
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseWhitespace("  a\n b\t\tc "))
	assert.Equal(t, "", CollapseWhitespace("   "))
}
