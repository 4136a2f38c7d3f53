package model

import "time"

// RegistrationInput carries the raw form submission before validation.
// Field names mirror the Portuguese form the frontend submits.
type RegistrationInput struct {
	Nome       string
	Email      string
	Endereco   string
	CPF        string
	Interesses []string
	Atividade  string
	Evento     string
	Compra     string
	PerfilLink string
	Documento  *Upload
}

// Upload is an uploaded identity document (bytes plus the declared filename).
type Upload struct {
	Filename string
	Data     []byte
}

// Registration is the persisted record. It keeps the unmasked CPF; masking
// is applied only when building the presentation-facing ValidationResult.
type Registration struct {
	ID                string    `json:"id"`
	Nome              string    `json:"nome"`
	Email             string    `json:"email"`
	Endereco          string    `json:"endereco"`
	CPF               string    `json:"cpf"`
	Interesses        []string  `json:"interesses"`
	Atividade         string    `json:"atividade"`
	Evento            string    `json:"evento"`
	Compra            string    `json:"compra"`
	PerfilLink        string    `json:"perfil_link,omitempty"`
	DocumentKey       string    `json:"document_key,omitempty"`
	DocVeredito       string    `json:"doc_veredito,omitempty"`
	DocJustificativa  string    `json:"doc_justificativa,omitempty"`
	LinkVeredito      string    `json:"link_veredito,omitempty"`
	LinkJustificativa string    `json:"link_justificativa,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}
