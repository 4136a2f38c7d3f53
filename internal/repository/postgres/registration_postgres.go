package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"fanreg/internal/model"
	"fanreg/internal/repository"
)

// RegistrationPostgres is a PostgreSQL implementation of
// repository.RegistrationRepository. It uses database/sql with parameterized
// queries and contains no business logic.
type RegistrationPostgres struct {
	db *sql.DB
}

// NewRegistrationPostgres creates a new RegistrationPostgres repository.
func NewRegistrationPostgres(db *sql.DB) *RegistrationPostgres {
	return &RegistrationPostgres{db: db}
}

var _ repository.RegistrationRepository = (*RegistrationPostgres)(nil)

const registrationColumns = `id, nome, email, endereco, cpf, interesses, atividade, evento, compra,
		perfil_link, document_key, doc_veredito, doc_justificativa, link_veredito, link_justificativa, created_at`

// Create inserts a new registration row and returns the stored record.
func (r *RegistrationPostgres) Create(ctx context.Context, reg *model.Registration) (*model.Registration, error) {
	const q = `
		INSERT INTO registrations (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING ` + registrationColumns + `
	`
	interesses, err := encodeInteresses(reg.Interesses)
	if err != nil {
		return nil, err
	}
	row := r.db.QueryRowContext(ctx, q,
		reg.ID,
		reg.Nome,
		reg.Email,
		reg.Endereco,
		reg.CPF,
		interesses,
		reg.Atividade,
		reg.Evento,
		reg.Compra,
		reg.PerfilLink,
		reg.DocumentKey,
		reg.DocVeredito,
		reg.DocJustificativa,
		reg.LinkVeredito,
		reg.LinkJustificativa,
		reg.CreatedAt,
	)
	return scanRegistration(row)
}

// FindByID fetches a single registration by its ID.
func (r *RegistrationPostgres) FindByID(ctx context.Context, id string) (*model.Registration, error) {
	const q = `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE id = $1
	`
	return scanRegistration(r.db.QueryRowContext(ctx, q, id))
}

// List returns registrations using LIMIT/OFFSET pagination and a total count.
func (r *RegistrationPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Registration], error) {
	const qCount = `SELECT COUNT(*) FROM registrations`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + registrationColumns + `
		FROM registrations
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Registration, 0)
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *reg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Registration]{
		Items: items,
		Total: total,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// Interests are stored as a JSON array in a single text column so values
// containing separators or quotes survive the round-trip intact.
func encodeInteresses(in []string) (string, error) {
	if len(in) == 0 {
		return "", nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("encode interesses: %w", err)
	}
	return string(b), nil
}

func decodeInteresses(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode interesses: %w", err)
	}
	return out, nil
}

func scanRegistration(row rowScanner) (*model.Registration, error) {
	var reg model.Registration
	var interesses string
	if err := row.Scan(
		&reg.ID,
		&reg.Nome,
		&reg.Email,
		&reg.Endereco,
		&reg.CPF,
		&interesses,
		&reg.Atividade,
		&reg.Evento,
		&reg.Compra,
		&reg.PerfilLink,
		&reg.DocumentKey,
		&reg.DocVeredito,
		&reg.DocJustificativa,
		&reg.LinkVeredito,
		&reg.LinkJustificativa,
		&reg.CreatedAt,
	); err != nil {
		return nil, err
	}
	list, err := decodeInteresses(interesses)
	if err != nil {
		return nil, err
	}
	reg.Interesses = list
	return &reg, nil
}
