package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/magabrotheeeer/pms-backend/internal/models"
	"github.com/magabrotheeeer/pms-backend/internal/storage/policy"
)

const userColumns = `id, uuid, email, password_hash, first_name, last_name, contact,
	is_admin, is_superuser, is_staff, is_active, archive, last_login, created_at, updated_at`

// userPolicy: правила записи пользователя. Таблица users не хранит авторство,
// поэтому Audit сюда не входит и actor правилами не читается.
var userPolicy = policy.Compose(
	policy.Timestamps(func(u *models.User) (*time.Time, *time.Time) {
		return &u.CreatedAt, &u.UpdatedAt
	}),
)

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var (
		u         models.User
		lastLogin sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.UUID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Contact, &u.IsAdmin, &u.IsSuperuser, &u.IsStaff, &u.IsActive, &u.Archive,
		&lastLogin, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

func (s *Storage) findOne(ctx context.Context, op, where string, arg any) (*models.User, error) {
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	u, err := scanUser(s.q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// FindByEmail возвращает пользователя по точному совпадению email.
func (s *Storage) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "storage.FindByEmail", "email = $1", email)
}

// FindByUUID возвращает пользователя по UUID.
func (s *Storage) FindByUUID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findOne(ctx, "storage.FindByUUID", "uuid = $1", id)
}

// Create сохраняет нового пользователя без пароля и заполняет его ID.
// Пустой UUID заменяется случайным. actor передаётся в policy.Write для
// сущностей с аудитом. Для пользователей он может быть nil.
func (s *Storage) Create(ctx context.Context, actor *models.User, u *models.User) error {
	const op = "storage.Create"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	if err := userPolicy(ctx, policy.Write{Now: s.now(), Actor: actor, Creating: true}, u); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO users (uuid, email, password_hash, first_name, last_name, contact,
			      is_admin, is_superuser, is_staff, is_active, archive, last_login, created_at, updated_at)
			  VALUES ($1, $2, '', $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			  RETURNING id`
	err := s.q.QueryRowContext(ctx, query,
		u.UUID, u.Email, u.FirstName, u.LastName, u.Contact,
		u.IsAdmin, u.IsSuperuser, u.IsStaff, u.IsActive, u.Archive,
		u.LastLogin, u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetPassword сохраняет хэш пароля пользователя.
func (s *Storage) SetPassword(ctx context.Context, id int64, hash string) error {
	const op = "storage.SetPassword"
	return s.execOne(ctx, op, `UPDATE users SET password_hash = $1 WHERE id = $2`, hash, id)
}

// CreateWithPassword создаёт пользователя и затем сохраняет хэш его пароля.
// Обе записи выполняются в одной транзакции.
func (s *Storage) CreateWithPassword(ctx context.Context, actor *models.User, u *models.User, hash string) error {
	return s.WithTx(ctx, func(tx *Storage) error {
		if err := tx.Create(ctx, actor, u); err != nil {
			return err
		}
		if err := tx.SetPassword(ctx, u.ID, hash); err != nil {
			return err
		}
		u.PasswordHash = hash
		return nil
	})
}

// TouchLastLogin выставляет время последнего входа.
func (s *Storage) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	const op = "storage.TouchLastLogin"
	return s.execOne(ctx, op, `UPDATE users SET last_login = $1 WHERE id = $2`, at, id)
}

// Save сохраняет изменяемые поля профиля и признак архива. actor, как и в
// Create, доступен правилам записи, но userPolicy его не использует.
func (s *Storage) Save(ctx context.Context, actor *models.User, u *models.User) error {
	const op = "storage.Save"
	if err := ctxDone(ctx, op); err != nil {
		return err
	}
	if err := userPolicy(ctx, policy.Write{Now: s.now(), Actor: actor}, u); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return s.execOne(ctx, op,
		`UPDATE users
		 SET first_name = $1, last_name = $2, contact = $3, archive = $4, updated_at = $5
		 WHERE id = $6`,
		u.FirstName, u.LastName, u.Contact, u.Archive, u.UpdatedAt, u.ID)
}

func (s *Storage) execOne(ctx context.Context, op, query string, args ...any) error {
	if err := ctxDone(ctx, op); err != nil {
		return err
	}
	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// searchClause строит условие поиска: каждое слово должно встретиться
// хотя бы в одном из полей имени, фамилии, email или телефона.
func searchClause(search string) (string, []any) {
	terms := strings.Fields(search)
	if len(terms) == 0 {
		return "", nil
	}
	conds := make([]string, 0, len(terms))
	args := make([]any, 0, len(terms))
	for i, t := range terms {
		n := i + 1
		conds = append(conds, fmt.Sprintf(
			"(first_name ILIKE $%[1]d OR last_name ILIKE $%[1]d OR email ILIKE $%[1]d OR contact ILIKE $%[1]d)", n))
		args = append(args, "%"+t+"%")
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List возвращает страницу пользователей, отсортированных по дате изменения.
func (s *Storage) List(ctx context.Context, f models.UserFilter) (*models.UserPage, error) {
	const op = "storage.List"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	where, args := searchClause(f.Search)

	page := &models.UserPage{}
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&page.Count); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY updated_at DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	if f.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", f.Offset)
	}
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		page.Users = append(page.Users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return page, nil
}

// Autocomplete возвращает пары id и полное имя для подсказок.
func (s *Storage) Autocomplete(ctx context.Context, search string, limit int) ([]models.AutocompleteItem, error) {
	const op = "storage.Autocomplete"
	if err := ctxDone(ctx, op); err != nil {
		return nil, err
	}

	where, args := searchClause(search)
	query := `SELECT id, first_name, last_name FROM users` + where + ` ORDER BY first_name, last_name, id`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.AutocompleteItem, 0)
	for rows.Next() {
		var (
			item        models.AutocompleteItem
			first, last string
		)
		if err := rows.Scan(&item.ID, &first, &last); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		item.Name = strings.TrimSpace(first + " " + last)
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
