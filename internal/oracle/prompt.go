package oracle

import (
	"fmt"
	"strings"

	"fanreg/internal/document"
)

// System instructions are fixed per check type. Both state the verdict
// vocabulary contract so the interpreter can rely on a closed token set; the
// document instruction additionally warns about visually confusable
// characters, the dominant failure mode of vision transcription.
const (
	documentSystemPrompt = `Você é um verificador de documentos de identidade de uma organização de e-sports.
Analise a imagem do documento enviada e verifique se o nome e o CPF informados correspondem aos dados visíveis no documento.
Atenção: caracteres visualmente parecidos (0 e O, 1 e I e l, 5 e S, 8 e B) são a principal fonte de erro de leitura; confira dígito a dígito antes de concluir.
Responda exatamente neste formato, em duas linhas:
STATUS: VALIDADO ou NÃO VALIDADO
JUSTIFICATIVA: explicação breve da conclusão`

	linkSystemPrompt = `Você é um analista de uma organização de e-sports.
Avalie se o link de perfil informado é relevante para os interesses da organização e para os interesses declarados pelo fã.
Responda exatamente neste formato, em duas linhas:
STATUS: Relevante ou Irrelevante
JUSTIFICATIVA: explicação breve da conclusão`
)

// BuildDocumentPrompt assembles the document-match request: claimed name and
// CPF plus the normalized document image.
func BuildDocumentPrompt(nome, cpf string, doc *document.Normalized) Prompt {
	return Prompt{
		System: documentSystemPrompt,
		Parts: []Part{
			{Text: fmt.Sprintf("Nome informado: %s\nCPF informado: %s\nVerifique se o documento na imagem pertence a essa pessoa.", nome, cpf)},
			{ImageBase64: doc.Base64, ImageMIME: doc.MIMEType},
		},
	}
}

// BuildLinkPrompt assembles the profile-link relevance request. No image is
// attached to this check.
func BuildLinkPrompt(link string, interesses []string) Prompt {
	return Prompt{
		System: linkSystemPrompt,
		Parts: []Part{
			{Text: fmt.Sprintf("Link do perfil: %s\nInteresses declarados pelo fã: %s", link, strings.Join(interesses, ", "))},
		},
	}
}
