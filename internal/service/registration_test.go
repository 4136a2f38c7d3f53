package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fanreg/internal/config"
	"fanreg/internal/identity"
	"fanreg/internal/model"
	"fanreg/internal/oracle"
	oracleMocks "fanreg/internal/oracle/mocks"
	"fanreg/internal/repository"
	repoMocks "fanreg/internal/repository/mocks"
	"fanreg/internal/storage"
	storeMocks "fanreg/internal/storage/mocks"
)

var oracleCfg = config.OracleConfig{MaxTokens: 500, Temperature: 0}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func passthroughCreate() func(context.Context, *model.Registration) *model.Registration {
	return func(_ context.Context, reg *model.Registration) *model.Registration {
		return reg
	}
}

func baseInput() model.RegistrationInput {
	return model.RegistrationInput{
		Nome:       "Ana Souza",
		Email:      "ana@example.com",
		Endereco:   "Rua A, 1",
		CPF:        "123.456.789-01",
		Interesses: []string{"CS2"},
		Atividade:  "assisto campeonatos",
	}
}

func TestRegister_InvalidCPFGatesPipeline(t *testing.T) {
	mOracle := new(oracleMocks.MockClient)
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockRegistrationRepository)
	svc := NewRegistrationService(mOracle, mStore, mRepo, nil, oracleCfg)

	in := baseInput()
	in.CPF = "123"
	in.Documento = &model.Upload{Filename: "id.png", Data: testPNG(t)}

	res, err := svc.Register(context.Background(), in)

	assert.ErrorIs(t, err, identity.ErrInvalidIdentifier)
	assert.Nil(t, res)
	mOracle.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mStore.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_NoDocumentNoLink(t *testing.T) {
	mOracle := new(oracleMocks.MockClient)
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockRegistrationRepository)
	svc := NewRegistrationService(mOracle, mStore, mRepo, nil, oracleCfg)

	mRepo.On("Create", mock.Anything, mock.Anything).Return(passthroughCreate(), nil)

	res, err := svc.Register(context.Background(), baseInput())

	require.NoError(t, err)
	assert.Equal(t, "123.***.***-01", res.CPFMascarado)
	assert.Nil(t, res.Documento)
	assert.Nil(t, res.Link)
	assert.Equal(t, model.StatusSemDocumento, res.DocumentoStatus)
	assert.Equal(t, model.StatusSemLink, res.LinkStatus)
	mOracle.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mRepo.AssertExpectations(t)
}

func TestRegister_DocumentValidated(t *testing.T) {
	mOracle := new(oracleMocks.MockClient)
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockRegistrationRepository)
	svc := NewRegistrationService(mOracle, mStore, mRepo, nil, oracleCfg)

	mStore.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
		return len(key) > len("uploads/") && key[:8] == "uploads/"
	}), mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{Key: "uploads/x.png"}, nil)
	mOracle.On("Send", mock.Anything, mock.Anything, int32(500), float32(0)).
		Return("STATUS: VALIDADO\nJUSTIFICATIVA: nome e CPF conferem", nil)
	mRepo.On("Create", mock.Anything, mock.MatchedBy(func(reg *model.Registration) bool {
		return reg.DocVeredito == string(model.VerdictValidado) && reg.DocumentKey != ""
	})).Return(passthroughCreate(), nil)

	in := baseInput()
	in.Documento = &model.Upload{Filename: "id.png", Data: testPNG(t)}

	res, err := svc.Register(context.Background(), in)

	require.NoError(t, err)
	require.NotNil(t, res.Documento)
	assert.Equal(t, model.VerdictValidado, res.Documento.Veredito)
	assert.Equal(t, "nome e CPF conferem", res.Documento.Justificativa)
	assert.Equal(t, model.VerdictValidado.StatusLine(), res.DocumentoStatus)
	mStore.AssertExpectations(t)
	mOracle.AssertExpectations(t)
	mRepo.AssertExpectations(t)
}

func TestRegister_DocumentFailureLinkSucceedsIndependently(t *testing.T) {
	mOracle := new(oracleMocks.MockClient)
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockRegistrationRepository)
	svc := NewRegistrationService(mOracle, mStore, mRepo, nil, oracleCfg)

	mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, nil)
	// Document call fails with a transport error; link call succeeds.
	mOracle.On("Send", mock.Anything, mock.MatchedBy(func(p oracle.Prompt) bool {
		return len(p.Parts) == 2
	}), mock.Anything, mock.Anything).
		Return("", errors.New("rate limited"))
	mOracle.On("Send", mock.Anything, mock.MatchedBy(func(p oracle.Prompt) bool {
		return len(p.Parts) == 1
	}), mock.Anything, mock.Anything).
		Return("STATUS: Relevante\nJUSTIFICATIVA: perfil de fã", nil)
	mRepo.On("Create", mock.Anything, mock.Anything).Return(passthroughCreate(), nil)

	in := baseInput()
	in.Documento = &model.Upload{Filename: "id.png", Data: testPNG(t)}
	in.PerfilLink = "https://example.com/ana"

	res, err := svc.Register(context.Background(), in)

	require.NoError(t, err)
	require.NotNil(t, res.Documento)
	assert.Equal(t, model.VerdictIndeterminado, res.Documento.Veredito)
	assert.Contains(t, res.Documento.Justificativa, "rate limited")
	require.NotNil(t, res.Link)
	assert.Equal(t, model.VerdictRelevante, res.Link.Veredito)
	assert.Equal(t, "perfil de fã", res.Link.Justificativa)
}

func TestRegister_UnsupportedFileTypeSkipsCheckAndArchival(t *testing.T) {
	mOracle := new(oracleMocks.MockClient)
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockRegistrationRepository)
	svc := NewRegistrationService(mOracle, mStore, mRepo, nil, oracleCfg)

	mRepo.On("Create", mock.Anything, mock.Anything).Return(passthroughCreate(), nil)

	in := baseInput()
	in.Documento = &model.Upload{Filename: "id.gif", Data: []byte("gif")}

	res, err := svc.Register(context.Background(), in)

	require.NoError(t, err)
	require.NotNil(t, res.Documento)
	assert.Equal(t, model.VerdictIndeterminado, res.Documento.Veredito)
	assert.Contains(t, res.Documento.Justificativa, "unsupported file type")
	mStore.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mOracle.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_ArchivalFailureDoesNotBlockValidation(t *testing.T) {
	mOracle := new(oracleMocks.MockClient)
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockRegistrationRepository)
	svc := NewRegistrationService(mOracle, mStore, mRepo, nil, oracleCfg)

	mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, errors.New("minio down"))
	mOracle.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("STATUS: VALIDADO\nJUSTIFICATIVA: ok", nil)
	mRepo.On("Create", mock.Anything, mock.MatchedBy(func(reg *model.Registration) bool {
		return reg.DocumentKey == ""
	})).Return(passthroughCreate(), nil)

	in := baseInput()
	in.Documento = &model.Upload{Filename: "id.png", Data: testPNG(t)}

	res, err := svc.Register(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, model.VerdictValidado, res.Documento.Veredito)
	mRepo.AssertExpectations(t)
}

func TestRegister_RepositoryError(t *testing.T) {
	mOracle := new(oracleMocks.MockClient)
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockRegistrationRepository)
	svc := NewRegistrationService(mOracle, mStore, mRepo, nil, oracleCfg)

	mRepo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db fail"))

	res, err := svc.Register(context.Background(), baseInput())

	assert.Nil(t, res)
	assert.ErrorContains(t, err, "save registration: db fail")
	// Nothing was archived, so nothing to roll back.
	mStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestRegister_RepositoryErrorRollsBackArchivedUpload(t *testing.T) {
	mOracle := new(oracleMocks.MockClient)
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockRegistrationRepository)
	svc := NewRegistrationService(mOracle, mStore, mRepo, nil, oracleCfg)

	var archivedKey string
	mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(func(_ context.Context, key string, _ io.Reader, _ storage.PutObjectOptions) storage.ObjectInfo {
			archivedKey = key
			return storage.ObjectInfo{Key: key}
		}, nil)
	mOracle.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("STATUS: VALIDADO\nJUSTIFICATIVA: ok", nil)
	mRepo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db fail"))
	mStore.On("Delete", mock.Anything, mock.MatchedBy(func(key string) bool {
		return key == archivedKey && key != ""
	})).Return(nil)

	in := baseInput()
	in.Documento = &model.Upload{Filename: "id.png", Data: testPNG(t)}

	res, err := svc.Register(context.Background(), in)

	assert.Nil(t, res)
	assert.ErrorContains(t, err, "save registration: db fail")
	mStore.AssertExpectations(t)
}

func TestRegister_RollbackDeleteFailureIsReported(t *testing.T) {
	mOracle := new(oracleMocks.MockClient)
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockRegistrationRepository)
	svc := NewRegistrationService(mOracle, mStore, mRepo, nil, oracleCfg)

	mStore.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, nil)
	mOracle.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("STATUS: VALIDADO\nJUSTIFICATIVA: ok", nil)
	mRepo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db fail"))
	mStore.On("Delete", mock.Anything, mock.Anything).Return(errors.New("minio down"))

	in := baseInput()
	in.Documento = &model.Upload{Filename: "id.png", Data: testPNG(t)}

	_, err := svc.Register(context.Background(), in)

	assert.ErrorContains(t, err, "db fail")
	assert.ErrorContains(t, err, "rollback delete failed")
}

func TestDocumentURL(t *testing.T) {
	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockRegistrationRepository)
	svc := NewRegistrationService(nil, mStore, mRepo, nil, oracleCfg)
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows).Once()
		_, err := svc.DocumentURL(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("no archived document", func(t *testing.T) {
		mRepo.On("FindByID", ctx, "bare").Return(&model.Registration{ID: "bare"}, nil).Once()
		_, err := svc.DocumentURL(ctx, "bare")
		assert.ErrorIs(t, err, ErrNoDocument)
	})

	t.Run("presigned", func(t *testing.T) {
		mRepo.On("FindByID", ctx, "with-doc").Return(&model.Registration{
			ID:          "with-doc",
			DocumentKey: "uploads/abc.png",
		}, nil).Once()
		mStore.On("PresignGet", ctx, "uploads/abc.png", presignExpiry).
			Return("https://minio.local/uploads/abc.png?sig=x", nil).Once()

		url, err := svc.DocumentURL(ctx, "with-doc")
		assert.NoError(t, err)
		assert.Equal(t, "https://minio.local/uploads/abc.png?sig=x", url)
		mStore.AssertExpectations(t)
	})
}

func TestGet(t *testing.T) {
	mRepo := new(repoMocks.MockRegistrationRepository)
	svc := NewRegistrationService(nil, nil, mRepo, nil, oracleCfg)
	ctx := context.Background()

	t.Run("empty id", func(t *testing.T) {
		_, err := svc.Get(ctx, "")
		assert.ErrorIs(t, err, ErrIDRequired)
	})

	t.Run("not found", func(t *testing.T) {
		mRepo.On("FindByID", ctx, "missing").Return(nil, sql.ErrNoRows).Once()
		_, err := svc.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("found", func(t *testing.T) {
		mRepo.On("FindByID", ctx, "abc").Return(&model.Registration{ID: "abc"}, nil).Once()
		reg, err := svc.Get(ctx, "abc")
		assert.NoError(t, err)
		assert.Equal(t, "abc", reg.ID)
	})
}

func TestList(t *testing.T) {
	mRepo := new(repoMocks.MockRegistrationRepository)
	svc := NewRegistrationService(nil, nil, mRepo, nil, oracleCfg)
	ctx := context.Background()

	// Defaults applied for out-of-range paging values.
	mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
		Return(&repository.PageResult[model.Registration]{
			Items: []model.Registration{{ID: "a"}},
			Total: 1,
		}, nil)

	res, err := svc.List(ctx, -5, -1)

	assert.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.Len(t, res.Items, 1)
	mRepo.AssertExpectations(t)
}
