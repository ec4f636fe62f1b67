package db

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// Queries wraps database queries
type Queries struct {
	*pgxpool.Pool
}

// NewQueries creates a new Queries instance
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{Pool: pool}
}

func wrapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// User represents a users row
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
	Email        string
	Phone        string
	Avatar       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (q *Queries) CreateUser(ctx context.Context, id, username, passwordHash, role string) (User, error) {
	var u User
	err := q.Pool.QueryRow(ctx,
		`INSERT INTO users (id, username, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, username, password_hash, role, email, phone, avatar, created_at, updated_at`,
		id, username, passwordHash, role,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Email, &u.Phone, &u.Avatar, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := q.Pool.QueryRow(ctx,
		`SELECT id, username, password_hash, role, email, phone, avatar, created_at, updated_at
		 FROM users WHERE username = $1`,
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Email, &u.Phone, &u.Avatar, &u.CreatedAt, &u.UpdatedAt)
	return u, wrapNotFound(err)
}

func (q *Queries) UpdateUserProfile(ctx context.Context, username, email, phone, avatar string) (User, error) {
	var u User
	err := q.Pool.QueryRow(ctx,
		`UPDATE users SET
			email = COALESCE(NULLIF($2, ''), email),
			phone = COALESCE(NULLIF($3, ''), phone),
			avatar = COALESCE(NULLIF($4, ''), avatar),
			updated_at = now()
		 WHERE username = $1
		 RETURNING id, username, password_hash, role, email, phone, avatar, created_at, updated_at`,
		username, email, phone, avatar,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.Email, &u.Phone, &u.Avatar, &u.CreatedAt, &u.UpdatedAt)
	return u, wrapNotFound(err)
}

// Demand represents a demands row
type Demand struct {
	ID            string
	UserID        string
	ServiceTypeID int
	Type          string
	LocationID    int
	Title         string
	Description   string
	Address       string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type CreateDemandParams struct {
	ID            string
	UserID        string
	ServiceTypeID int
	Type          string
	LocationID    int
	Title         string
	Description   string
	Address       string
	Status        string
}

const demandColumns = `id, user_id, service_type_id, type, location_id, title, description, address, status, created_at, updated_at`

func scanDemand(row pgx.Row) (Demand, error) {
	var d Demand
	err := row.Scan(&d.ID, &d.UserID, &d.ServiceTypeID, &d.Type, &d.LocationID,
		&d.Title, &d.Description, &d.Address, &d.Status, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (q *Queries) CreateDemand(ctx context.Context, p CreateDemandParams) (Demand, error) {
	return scanDemand(q.Pool.QueryRow(ctx,
		`INSERT INTO demands (id, user_id, service_type_id, type, location_id, title, description, address, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+demandColumns,
		p.ID, p.UserID, p.ServiceTypeID, p.Type, p.LocationID, p.Title, p.Description, p.Address, p.Status,
	))
}

func (q *Queries) GetDemandByID(ctx context.Context, id string) (Demand, error) {
	d, err := scanDemand(q.Pool.QueryRow(ctx,
		`SELECT `+demandColumns+` FROM demands WHERE id = $1`, id))
	return d, wrapNotFound(err)
}

type ListDemandsParams struct {
	Type    *string
	UserID  *string
	Keyword *string
	Limit   int
	Offset  int
}

func (q *Queries) ListDemands(ctx context.Context, p ListDemandsParams) ([]Demand, error) {
	rows, err := q.Pool.Query(ctx,
		`SELECT `+demandColumns+` FROM demands
		 WHERE ($1::text IS NULL OR type = $1)
		   AND ($2::text IS NULL OR user_id = $2)
		   AND ($3::text IS NULL OR title ILIKE '%' || $3 || '%'
		        OR description ILIKE '%' || $3 || '%'
		        OR address ILIKE '%' || $3 || '%')
		 ORDER BY created_at DESC
		 LIMIT $4 OFFSET $5`,
		p.Type, p.UserID, p.Keyword, p.Limit, p.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var demands []Demand
	for rows.Next() {
		d, err := scanDemand(rows)
		if err != nil {
			return nil, err
		}
		demands = append(demands, d)
	}
	return demands, rows.Err()
}

// CountDemands reports how many demands match the filter, ignoring
// pagination. Paired with ListDemands so list responses can carry the true
// total.
func (q *Queries) CountDemands(ctx context.Context, p ListDemandsParams) (int, error) {
	var total int
	err := q.Pool.QueryRow(ctx,
		`SELECT count(*) FROM demands
		 WHERE ($1::text IS NULL OR type = $1)
		   AND ($2::text IS NULL OR user_id = $2)
		   AND ($3::text IS NULL OR title ILIKE '%' || $3 || '%'
		        OR description ILIKE '%' || $3 || '%'
		        OR address ILIKE '%' || $3 || '%')`,
		p.Type, p.UserID, p.Keyword,
	).Scan(&total)
	return total, err
}

type UpdateDemandParams struct {
	Title       *string
	Description *string
	Address     *string
	Status      *string
}

func (q *Queries) UpdateDemand(ctx context.Context, id string, p UpdateDemandParams) (Demand, error) {
	d, err := scanDemand(q.Pool.QueryRow(ctx,
		`UPDATE demands SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			address = COALESCE($4, address),
			status = COALESCE($5, status),
			updated_at = now()
		 WHERE id = $1
		 RETURNING `+demandColumns,
		id, p.Title, p.Description, p.Address, p.Status,
	))
	return d, wrapNotFound(err)
}

func (q *Queries) DeleteDemand(ctx context.Context, id string) error {
	tag, err := q.Pool.Exec(ctx, `DELETE FROM demands WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *Queries) ListStaleDemands(ctx context.Context, olderThan time.Time) ([]Demand, error) {
	rows, err := q.Pool.Query(ctx,
		`SELECT `+demandColumns+` FROM demands
		 WHERE status = 'PENDING' AND created_at < $1
		 ORDER BY created_at`,
		olderThan,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var demands []Demand
	for rows.Next() {
		d, err := scanDemand(rows)
		if err != nil {
			return nil, err
		}
		demands = append(demands, d)
	}
	return demands, rows.Err()
}

// Response represents a responses row
type Response struct {
	ID        string
	DemandID  string
	UserID    string
	Content   string
	Status    string
	CreatedAt time.Time
}

const responseColumns = `id, demand_id, user_id, content, status, created_at`

func scanResponse(row pgx.Row) (Response, error) {
	var r Response
	err := row.Scan(&r.ID, &r.DemandID, &r.UserID, &r.Content, &r.Status, &r.CreatedAt)
	return r, err
}

func (q *Queries) CreateResponse(ctx context.Context, id, demandID, userID, content, status string) (Response, error) {
	return scanResponse(q.Pool.QueryRow(ctx,
		`INSERT INTO responses (id, demand_id, user_id, content, status)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+responseColumns,
		id, demandID, userID, content, status,
	))
}

func (q *Queries) GetResponseByID(ctx context.Context, id string) (Response, error) {
	r, err := scanResponse(q.Pool.QueryRow(ctx,
		`SELECT `+responseColumns+` FROM responses WHERE id = $1`, id))
	return r, wrapNotFound(err)
}

func (q *Queries) ListResponsesByUser(ctx context.Context, userID string) ([]Response, error) {
	rows, err := q.Pool.Query(ctx,
		`SELECT `+responseColumns+` FROM responses WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []Response
	for rows.Next() {
		r, err := scanResponse(rows)
		if err != nil {
			return nil, err
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

type UpdateResponseParams struct {
	Content *string
	Status  *string
}

func (q *Queries) UpdateResponse(ctx context.Context, id string, p UpdateResponseParams) (Response, error) {
	r, err := scanResponse(q.Pool.QueryRow(ctx,
		`UPDATE responses SET
			content = COALESCE($2, content),
			status = COALESCE($3, status)
		 WHERE id = $1
		 RETURNING `+responseColumns,
		id, p.Content, p.Status,
	))
	return r, wrapNotFound(err)
}

func (q *Queries) DeleteResponse(ctx context.Context, id string) error {
	tag, err := q.Pool.Exec(ctx, `DELETE FROM responses WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// File represents a files row
type File struct {
	ID           string
	OwnerKind    string
	OwnerID      string
	OriginalName string
	MimeType     string
	SizeBytes    int64
	RelPath      string
	CreatedAt    time.Time
}

const fileColumns = `id, owner_kind, owner_id, original_name, mime_type, size_bytes, rel_path, created_at`

func scanFile(row pgx.Row) (File, error) {
	var f File
	err := row.Scan(&f.ID, &f.OwnerKind, &f.OwnerID, &f.OriginalName, &f.MimeType, &f.SizeBytes, &f.RelPath, &f.CreatedAt)
	return f, err
}

type CreateFileParams struct {
	ID           string
	OwnerKind    string
	OwnerID      string
	OriginalName string
	MimeType     string
	SizeBytes    int64
	RelPath      string
}

func (q *Queries) CreateFile(ctx context.Context, p CreateFileParams) (File, error) {
	return scanFile(q.Pool.QueryRow(ctx,
		`INSERT INTO files (id, owner_kind, owner_id, original_name, mime_type, size_bytes, rel_path)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+fileColumns,
		p.ID, p.OwnerKind, p.OwnerID, p.OriginalName, p.MimeType, p.SizeBytes, p.RelPath,
	))
}

// GetLatestFile returns the most recently uploaded file for an owner.
func (q *Queries) GetLatestFile(ctx context.Context, ownerKind, ownerID string) (File, error) {
	f, err := scanFile(q.Pool.QueryRow(ctx,
		`SELECT `+fileColumns+` FROM files
		 WHERE owner_kind = $1 AND owner_id = $2
		 ORDER BY created_at DESC LIMIT 1`,
		ownerKind, ownerID,
	))
	return f, wrapNotFound(err)
}

func (q *Queries) DeleteFilesByOwner(ctx context.Context, ownerKind, ownerID string) ([]File, error) {
	rows, err := q.Pool.Query(ctx,
		`DELETE FROM files WHERE owner_kind = $1 AND owner_id = $2 RETURNING `+fileColumns,
		ownerKind, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// MonthlyBucket is one month of aggregated counts
type MonthlyBucket struct {
	Month string
	Count int
}

type StatisticsFilter struct {
	LocationIDs    []int
	ServiceTypeIDs []int
	EarliestCreate *time.Time
	LatestCreate   *time.Time
}

// MonthlyDemandCreation counts demands created per month.
func (q *Queries) MonthlyDemandCreation(ctx context.Context, f StatisticsFilter) ([]MonthlyBucket, error) {
	rows, err := q.Pool.Query(ctx,
		`SELECT to_char(date_trunc('month', created_at), 'YYYY-MM') AS month, count(*)
		 FROM demands
		 WHERE (cardinality($1::int[]) = 0 OR location_id = ANY($1))
		   AND (cardinality($2::int[]) = 0 OR service_type_id = ANY($2))
		   AND ($3::timestamptz IS NULL OR created_at >= $3)
		   AND ($4::timestamptz IS NULL OR created_at <= $4)
		 GROUP BY 1 ORDER BY 1`,
		f.LocationIDs, f.ServiceTypeIDs, f.EarliestCreate, f.LatestCreate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBuckets(rows)
}

// MonthlyDemandResponded counts demands per month that received at least one response.
func (q *Queries) MonthlyDemandResponded(ctx context.Context, f StatisticsFilter) ([]MonthlyBucket, error) {
	rows, err := q.Pool.Query(ctx,
		`SELECT to_char(date_trunc('month', d.created_at), 'YYYY-MM') AS month, count(DISTINCT d.id)
		 FROM demands d
		 JOIN responses r ON r.demand_id = d.id
		 WHERE (cardinality($1::int[]) = 0 OR d.location_id = ANY($1))
		   AND (cardinality($2::int[]) = 0 OR d.service_type_id = ANY($2))
		   AND ($3::timestamptz IS NULL OR d.created_at >= $3)
		   AND ($4::timestamptz IS NULL OR d.created_at <= $4)
		 GROUP BY 1 ORDER BY 1`,
		f.LocationIDs, f.ServiceTypeIDs, f.EarliestCreate, f.LatestCreate,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectBuckets(rows)
}

func collectBuckets(rows pgx.Rows) ([]MonthlyBucket, error) {
	buckets := make([]MonthlyBucket, 0)
	for rows.Next() {
		var b MonthlyBucket
		if err := rows.Scan(&b.Month, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
