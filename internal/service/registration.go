package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fanreg/internal/config"
	"fanreg/internal/document"
	"fanreg/internal/identity"
	"fanreg/internal/interpret"
	"fanreg/internal/model"
	"fanreg/internal/oracle"
	"fanreg/internal/repository"
	"fanreg/internal/storage"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("registration not found")
	ErrNoDocument = errors.New("registration has no archived document")
)

// presignExpiry bounds how long a generated document download URL stays valid.
const presignExpiry = 15 * time.Minute

// RegistrationListResult is the service-level DTO for paginated registrations.
type RegistrationListResult struct {
	Items []model.Registration `json:"data"`
	Total int                  `json:"total"`
}

// RegistrationService defines the use cases of the validation pipeline.
type RegistrationService interface {
	// Register runs the whole pipeline for one submission: CPF gate,
	// document normalization, the two oracle checks, persistence, and
	// result assembly. Only an invalid CPF (or a persistence failure)
	// aborts; oracle and file failures degrade into INDETERMINADO verdicts
	// so the caller always receives a complete result.
	Register(ctx context.Context, in model.RegistrationInput) (*model.ValidationResult, error)

	// Get returns a stored registration by its ID.
	Get(ctx context.Context, id string) (*model.Registration, error)

	// List returns registrations using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*RegistrationListResult, error)

	// DocumentURL returns a time-limited download URL for the archived
	// original upload of a registration. ErrNoDocument when nothing was
	// archived for it.
	DocumentURL(ctx context.Context, id string) (string, error)
}

// registrationService is a concrete implementation of RegistrationService.
type registrationService struct {
	oracle      oracle.Client
	store       storage.Storage
	repo        repository.RegistrationRepository
	log         *zap.Logger
	maxTokens   int32
	temperature float32
}

// NewRegistrationService constructs a new RegistrationService.
func NewRegistrationService(oc oracle.Client, store storage.Storage, repo repository.RegistrationRepository, log *zap.Logger, cfg config.OracleConfig) RegistrationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &registrationService{
		oracle:      oc,
		store:       store,
		repo:        repo,
		log:         log,
		maxTokens:   int32(cfg.MaxTokens),
		temperature: float32(cfg.Temperature),
	}
}

func (s *registrationService) Register(ctx context.Context, in model.RegistrationInput) (*model.ValidationResult, error) {
	// The identity check gates the whole pipeline: no storage write and no
	// oracle call happens for a malformed CPF.
	cpf, err := identity.Validate(in.CPF)
	if err != nil {
		return nil, err
	}

	reg := &model.Registration{
		ID:         uuid.New().String(),
		Nome:       in.Nome,
		Email:      in.Email,
		Endereco:   in.Endereco,
		CPF:        cpf,
		Interesses: in.Interesses,
		Atividade:  in.Atividade,
		Evento:     in.Evento,
		Compra:     in.Compra,
		PerfilLink: in.PerfilLink,
		CreatedAt:  time.Now().UTC(),
	}

	var docVerdict, linkVerdict *model.Verdict

	if in.Documento != nil && len(in.Documento.Data) > 0 {
		v, key := s.checkDocument(ctx, in.Nome, cpf, in.Documento)
		docVerdict = &v
		reg.DocumentKey = key
		reg.DocVeredito = string(v.Tag)
		reg.DocJustificativa = v.Justificativa
	}

	// The link check is independent of the document check: a failure in one
	// never contaminates the other.
	if in.PerfilLink != "" {
		v := s.checkLink(ctx, in.PerfilLink, in.Interesses)
		linkVerdict = &v
		reg.LinkVeredito = string(v.Tag)
		reg.LinkJustificativa = v.Justificativa
	}

	stored, err := s.repo.Create(ctx, reg)
	if err != nil {
		// Rollback: a registration row is the only reference to the
		// archived object, so an orphaned archive must be deleted.
		if reg.DocumentKey != "" {
			if delErr := s.store.Delete(ctx, reg.DocumentKey); delErr != nil {
				s.log.Warn("archival rollback failed",
					zap.String("key", reg.DocumentKey), zap.Error(delErr))
				return nil, fmt.Errorf("save registration: %v; rollback delete failed: %v", err, delErr)
			}
		}
		return nil, fmt.Errorf("save registration: %w", err)
	}

	return assembleResult(stored, docVerdict, linkVerdict), nil
}

// checkDocument normalizes the upload, archives the original, consults the
// oracle and interprets its answer. Every failure past the extension check
// degrades to an INDETERMINADO verdict carrying the error text.
func (s *registrationService) checkDocument(ctx context.Context, nome, cpf string, up *model.Upload) (model.Verdict, string) {
	norm, err := document.Normalize(up.Data, up.Filename)
	if errors.Is(err, document.ErrUnsupportedFileType) {
		// Rejected before any processing: the original is not archived.
		return undetermined(err), ""
	}

	key := s.archive(ctx, up)

	if err != nil {
		s.log.Warn("document normalization failed",
			zap.String("filename", up.Filename), zap.Error(err))
		return undetermined(err), key
	}

	raw, err := s.oracle.Send(ctx, oracle.BuildDocumentPrompt(nome, cpf, norm), s.maxTokens, s.temperature)
	if err != nil {
		s.log.Warn("document oracle call failed", zap.Error(err))
		return undetermined(err), key
	}
	return interpret.Interpret(raw, interpret.DocumentVocabulary), key
}

// checkLink consults the oracle about the profile link. Transport failures
// degrade to INDETERMINADO.
func (s *registrationService) checkLink(ctx context.Context, link string, interesses []string) model.Verdict {
	raw, err := s.oracle.Send(ctx, oracle.BuildLinkPrompt(link, interesses), s.maxTokens, s.temperature)
	if err != nil {
		s.log.Warn("link oracle call failed", zap.String("link", link), zap.Error(err))
		return undetermined(err)
	}
	return interpret.Interpret(raw, interpret.LinkVocabulary)
}

// archive stores the original upload under a UUID key. Archival is
// best-effort: a storage failure is logged and the pipeline continues.
func (s *registrationService) archive(ctx context.Context, up *model.Upload) string {
	ext := strings.ToLower(filepath.Ext(up.Filename))
	key := filepath.ToSlash(filepath.Join("uploads", uuid.New().String()+ext))

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.store.Put(ctx, key, bytes.NewReader(up.Data), storage.PutObjectOptions{
		Size:        int64(len(up.Data)),
		ContentType: contentType,
		Metadata: map[string]string{
			"original-filename": up.Filename,
		},
	})
	if err != nil {
		s.log.Warn("upload archival failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return key
}

func undetermined(err error) model.Verdict {
	return model.Verdict{
		Tag:           model.VerdictIndeterminado,
		Justificativa: err.Error(),
	}
}

// assembleResult merges the stored registration and the two optional
// verdicts into the terminal ValidationResult. It never fails.
func assembleResult(reg *model.Registration, doc, link *model.Verdict) *model.ValidationResult {
	res := &model.ValidationResult{
		ID:              reg.ID,
		Nome:            reg.Nome,
		Email:           reg.Email,
		Endereco:        reg.Endereco,
		CPFMascarado:    identity.Mask(reg.CPF),
		Interesses:      reg.Interesses,
		Atividade:       reg.Atividade,
		Evento:          reg.Evento,
		Compra:          reg.Compra,
		PerfilLink:      reg.PerfilLink,
		DocumentoStatus: model.StatusSemDocumento,
		LinkStatus:      model.StatusSemLink,
		CreatedAt:       reg.CreatedAt,
	}
	if doc != nil {
		res.Documento = &model.CheckResult{
			Veredito:      doc.Tag,
			Justificativa: doc.Justificativa,
			Status:        doc.Tag.StatusLine(),
		}
		res.DocumentoStatus = doc.Tag.StatusLine()
	}
	if link != nil {
		res.Link = &model.CheckResult{
			Veredito:      link.Tag,
			Justificativa: link.Justificativa,
			Status:        link.Tag.StatusLine(),
		}
		res.LinkStatus = link.Tag.StatusLine()
	}
	return res
}

// Get returns a registration by ID.
func (s *registrationService) Get(ctx context.Context, id string) (*model.Registration, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return reg, nil
}

// DocumentURL resolves the registration, then presigns its archived upload.
func (s *registrationService) DocumentURL(ctx context.Context, id string) (string, error) {
	reg, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if reg.DocumentKey == "" {
		return "", ErrNoDocument
	}
	return s.store.PresignGet(ctx, reg.DocumentKey, presignExpiry)
}

// List returns paginated registrations without exposing repository types.
func (s *registrationService) List(ctx context.Context, limit, offset int) (*RegistrationListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &RegistrationListResult{Items: res.Items, Total: res.Total}, nil
}
