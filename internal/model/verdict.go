package model

import "time"

// VerdictTag is the canonical outcome of a single oracle check. The
// interpreter guarantees every verdict collapses into this closed set, so
// presentation code can switch exhaustively over it.
type VerdictTag string

const (
	// Document check outcomes.
	VerdictValidado    VerdictTag = "VALIDADO"
	VerdictNaoValidado VerdictTag = "NAO_VALIDADO"

	// Profile-link check outcomes.
	VerdictRelevante   VerdictTag = "RELEVANTE"
	VerdictIrrelevante VerdictTag = "IRRELEVANTE"

	// Shared fallback when the oracle failed or its answer was unusable.
	VerdictIndeterminado VerdictTag = "INDETERMINADO"
)

// Verdict is an immutable interpreted oracle answer.
type Verdict struct {
	Tag           VerdictTag `json:"veredito"`
	Justificativa string     `json:"justificativa"`
}

// statusLines maps each canonical tag to its decorative display line.
var statusLines = map[VerdictTag]string{
	VerdictValidado:      "✅ Documento validado",
	VerdictNaoValidado:   "❌ Documento não validado",
	VerdictRelevante:     "✅ Link relevante para a organização",
	VerdictIrrelevante:   "❌ Link irrelevante para a organização",
	VerdictIndeterminado: "⚠️ Não foi possível determinar",
}

// StatusLine renders the fixed human-readable line for a tag.
func (t VerdictTag) StatusLine() string {
	if s, ok := statusLines[t]; ok {
		return s
	}
	return statusLines[VerdictIndeterminado]
}

// Placeholder status lines for checks that never ran.
const (
	StatusSemDocumento = "📄 Nenhum documento enviado"
	StatusSemLink      = "🔗 Nenhum link informado"
)

// CheckResult is one interpreted check rendered for presentation.
type CheckResult struct {
	Veredito      VerdictTag `json:"veredito"`
	Justificativa string     `json:"justificativa"`
	Status        string     `json:"status"`
}

// ValidationResult is the terminal artifact handed to the collaborator
// (template renderer or API consumer). The CPF is masked here; the
// persistence layer receives the unmasked Registration instead.
type ValidationResult struct {
	ID           string       `json:"id"`
	Nome         string       `json:"nome"`
	Email        string       `json:"email"`
	Endereco     string       `json:"endereco"`
	CPFMascarado string       `json:"cpf"`
	Interesses   []string     `json:"interesses"`
	Atividade    string       `json:"atividade"`
	Evento       string       `json:"evento"`
	Compra       string       `json:"compra"`
	PerfilLink   string       `json:"perfil_link,omitempty"`
	Documento    *CheckResult `json:"documento,omitempty"`
	Link         *CheckResult `json:"link,omitempty"`
	// Always populated, even when the corresponding check never ran.
	DocumentoStatus string    `json:"documento_status"`
	LinkStatus      string    `json:"link_status"`
	CreatedAt       time.Time `json:"created_at"`
}
